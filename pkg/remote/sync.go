package remote

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/skiff-vcs/skiff/pkg/object"
	"github.com/skiff-vcs/skiff/pkg/repo"
)

// ErrInvalidRemoteURL is returned by sync operations when no usable remote
// URL is available. It is raised before any network traffic.
var ErrInvalidRemoteURL = errors.New("no valid remote URL")

const (
	// MaxBatchObjects caps one batch response.
	MaxBatchObjects = 50000
	// MaxBatchHaveHashes keeps batch request payloads under server body limits.
	MaxBatchHaveHashes = 20000
	// MaxBatchNegotiationRounds prevents unbounded negotiation loops.
	MaxBatchNegotiationRounds = 1024
)

// Syncer orchestrates remote synchronization for one repository. Origin is
// the remembered remote URL; per-call URLs override it. Auth resolves
// lazily, when the first client is built.
type Syncer struct {
	Repo   *repo.Repo
	Origin string
	Auth   Authenticator
}

// NewSyncer binds a repository to a remote origin. Origin may be empty when
// every sync call supplies its own URL.
func NewSyncer(r *repo.Repo, origin string, auth Authenticator) *Syncer {
	if auth == nil {
		auth = Anonymous{}
	}
	return &Syncer{Repo: r, Origin: origin, Auth: auth}
}

// resolveClient builds a protocol client for the effective remote URL:
// the override when given, the bound origin otherwise. Fails with
// ErrInvalidRemoteURL before any network traffic when neither is set.
func (s *Syncer) resolveClient(override string) (*Client, error) {
	uri := strings.TrimSpace(override)
	if uri == "" {
		uri = strings.TrimSpace(s.Origin)
	}
	if uri == "" {
		return nil, ErrInvalidRemoteURL
	}
	c, err := NewClientWithOptions(uri, ClientOptions{Auth: s.Auth})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRemoteURL, err)
	}
	return c, nil
}

// Fetch downloads all objects reachable from the remote's refs, updates the
// local branch refs and HEAD to match the remote, and rebuilds the working
// tree to the remote HEAD commit. The rebuild is destructive: local
// uncommitted changes are overwritten. Returns the receiver so callers can
// chain follow-up operations.
func (s *Syncer) Fetch(ctx context.Context, originURI string) (*Syncer, error) {
	client, err := s.resolveClient(originURI)
	if err != nil {
		return nil, err
	}

	remoteRefs, err := client.ListRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch: list remote refs: %w", err)
	}
	headHash, ok := remoteRefs["HEAD"]
	if !ok {
		return nil, fmt.Errorf("fetch: remote did not advertise HEAD")
	}

	wants := make([]object.Hash, 0, len(remoteRefs))
	for _, h := range remoteRefs {
		wants = append(wants, h)
	}
	if _, err := FetchIntoStore(ctx, client, s.Repo.Store, wants, localRefTips(s.Repo)); err != nil {
		return nil, fmt.Errorf("fetch: download objects: %w", err)
	}

	// Capture the pre-fetch tracked set before any ref moves: the rebuild
	// must also drop files the old HEAD claimed but the index no longer does.
	var stale map[string]struct{}
	if !s.Repo.Bare {
		stale = s.Repo.TrackedSnapshot()
	}

	// Mirror the remote branch refs locally.
	for name, h := range remoteRefs {
		if !strings.HasPrefix(name, "refs/heads/") {
			continue
		}
		if err := s.Repo.UpdateRef(name, h); err != nil {
			return nil, fmt.Errorf("fetch: update %s: %w", name, err)
		}
	}

	// Point HEAD where the remote points: the branch whose tip equals the
	// remote HEAD, preferring the default branch when several match.
	branch := remoteHeadBranch(remoteRefs, headHash, s.Repo.DefaultBranch())
	if branch != "" {
		if err := s.Repo.SetHeadBranch(branch); err != nil {
			return nil, fmt.Errorf("fetch: set head: %w", err)
		}
	} else {
		if err := s.Repo.SetHeadDetached(headHash); err != nil {
			return nil, fmt.Errorf("fetch: set head: %w", err)
		}
	}

	if !s.Repo.Bare {
		if err := s.Repo.RebuildWorkingTreeFrom(headHash, stale); err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
	}
	return s, nil
}

// Pull synchronizes with the remote. It currently has fetch semantics: the
// branch argument is accepted but not yet honored, the working tree is
// rebuilt to the remote HEAD, and local commits not on the remote are left
// behind on their refs rather than merged.
//
// TODO: grow a real merge step once commit-graph merge lands; until then
// pull and fetch are the same operation and branch selects nothing.
func (s *Syncer) Pull(ctx context.Context, originURI, branch string) (*Syncer, error) {
	return s.Fetch(ctx, originURI)
}

// Push uploads the local branch head and all missing objects to the remote,
// then updates the remote branch ref with compare-and-swap semantics. An
// empty branch name pushes the repository's default branch.
func (s *Syncer) Push(ctx context.Context, originURI, branch string) error {
	client, err := s.resolveClient(originURI)
	if err != nil {
		return err
	}

	if strings.TrimSpace(branch) == "" {
		branch = s.Repo.DefaultBranch()
	}
	localHead, err := s.Repo.ResolveRef(branch)
	if err != nil {
		return fmt.Errorf("push: resolve local branch %q: %w", branch, err)
	}

	remoteRefs, err := client.ListRefs(ctx)
	if err != nil {
		return fmt.Errorf("push: list remote refs: %w", err)
	}

	// The wants selector: remote ref state in, desired ref values out.
	wants := wantsBranch(branch, localHead)
	desired := wants(remoteRefs)

	// Objects the remote already has, by its advertised tips.
	stopRoots := make([]object.Hash, 0, len(remoteRefs))
	for _, h := range remoteRefs {
		stopRoots = append(stopRoots, h)
	}
	roots := make([]object.Hash, 0, len(desired))
	for _, h := range desired {
		roots = append(roots, h)
	}

	records, err := CollectObjectsForPush(s.Repo.Store, roots, stopRoots)
	if err != nil {
		return fmt.Errorf("push: collect objects: %w", err)
	}
	if err := client.PushObjectsPack(ctx, records); err != nil {
		return fmt.Errorf("push: upload objects: %w", err)
	}

	updates := make([]RefUpdate, 0, len(desired))
	for name, h := range desired {
		newHash := h
		update := RefUpdate{Name: name, New: &newHash}
		if old, ok := remoteRefs[name]; ok {
			oldHash := old
			update.Old = &oldHash
		}
		updates = append(updates, update)
	}
	if _, err := client.UpdateRefs(ctx, updates); err != nil {
		return fmt.Errorf("push: update remote refs: %w", err)
	}
	return nil
}

// Clone creates a fresh repository at localPath and performs an initial
// fetch from originURI. When createDir is set, the directory is created
// first. The returned syncer stays bound to the origin.
func Clone(ctx context.Context, originURI, localPath string, auth Authenticator, createDir bool) (*Syncer, error) {
	if strings.TrimSpace(originURI) == "" {
		return nil, ErrInvalidRemoteURL
	}
	if createDir {
		if err := os.MkdirAll(localPath, 0o755); err != nil {
			return nil, fmt.Errorf("clone: create %q: %w", localPath, err)
		}
	}

	r, err := repo.Init(localPath)
	if err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	return NewSyncer(r, originURI, auth).Fetch(ctx, "")
}

// wantsBranch builds the push selector for a single branch: whatever the
// remote currently advertises, the desired outcome is that branch at the
// local head.
func wantsBranch(branch string, localHead object.Hash) func(map[string]object.Hash) map[string]object.Hash {
	return func(map[string]object.Hash) map[string]object.Hash {
		return map[string]object.Hash{"refs/heads/" + branch: localHead}
	}
}

// remoteHeadBranch finds the branch the remote HEAD points at. When several
// branch tips carry the HEAD hash, the preferred branch wins, then the
// lexicographically first.
func remoteHeadBranch(refs map[string]object.Hash, headHash object.Hash, preferred string) string {
	if h, ok := refs["refs/heads/"+preferred]; ok && h == headHash {
		return preferred
	}
	best := ""
	for name, h := range refs {
		if !strings.HasPrefix(name, "refs/heads/") || h != headHash {
			continue
		}
		branch := strings.TrimPrefix(name, "refs/heads/")
		if best == "" || branch < best {
			best = branch
		}
	}
	return best
}

// localRefTips gathers the repository's current ref values, used as the
// initial have-set for batch negotiation.
func localRefTips(r *repo.Repo) []object.Hash {
	refs, err := r.ListRefs("")
	if err != nil {
		return nil
	}
	tips := make([]object.Hash, 0, len(refs))
	for _, h := range refs {
		tips = append(tips, h)
	}
	return tips
}

// FetchIntoStore fetches all objects reachable from wants into the local
// store. It starts with batch negotiation, then guarantees closure by
// walking the object graph locally and fetching any still-missing object
// via GetObject. Returns the number of newly written objects.
func FetchIntoStore(ctx context.Context, c *Client, store *object.Store, wants, haves []object.Hash) (int, error) {
	roots := object.UniqueHashes(wants)
	if len(roots) == 0 {
		return 0, fmt.Errorf("at least one want hash is required")
	}

	knownHaves, knownHaveSet := initKnownHaves(haves)
	written := 0
	negotiationCompleted := false
	for round := 0; round < MaxBatchNegotiationRounds; round++ {
		batchObjects, truncated, err := c.BatchObjects(ctx, roots, selectBatchHaves(knownHaves, MaxBatchHaveHashes), MaxBatchObjects)
		if err != nil {
			return written, err
		}

		newInRound := 0
		for _, obj := range batchObjects {
			n, err := writeVerifiedObject(store, obj)
			if err != nil {
				return written, err
			}
			written += n
			if n > 0 {
				newInRound++
			}
			knownHaves, knownHaveSet = appendKnownHave(knownHaves, knownHaveSet, obj.Hash)
		}

		if !truncated {
			negotiationCompleted = true
			break
		}
		// A server that keeps truncating without sending anything new would
		// spin forever; finish via point fetches instead.
		if newInRound == 0 {
			negotiationCompleted = true
			break
		}
	}
	if !negotiationCompleted {
		return written, fmt.Errorf("batch negotiation exceeded %d rounds", MaxBatchNegotiationRounds)
	}

	// Always run closure for robustness against partial state and truncated
	// batches.
	n, err := ensureGraphClosure(ctx, c, store, roots)
	if err != nil {
		return written, err
	}
	written += n
	return written, nil
}

func initKnownHaves(haves []object.Hash) ([]object.Hash, map[object.Hash]struct{}) {
	haveSet := make(map[object.Hash]struct{}, len(haves))
	haveList := make([]object.Hash, 0, len(haves))
	for _, h := range object.UniqueHashes(haves) {
		haveList = append(haveList, h)
		haveSet[h] = struct{}{}
	}
	return haveList, haveSet
}

func appendKnownHave(haveList []object.Hash, haveSet map[object.Hash]struct{}, h object.Hash) ([]object.Hash, map[object.Hash]struct{}) {
	h = object.Hash(strings.TrimSpace(string(h)))
	if h == "" {
		return haveList, haveSet
	}
	if _, ok := haveSet[h]; ok {
		return haveList, haveSet
	}
	haveSet[h] = struct{}{}
	haveList = append(haveList, h)
	return haveList, haveSet
}

func selectBatchHaves(haves []object.Hash, max int) []object.Hash {
	if max <= 0 || len(haves) <= max {
		out := make([]object.Hash, len(haves))
		copy(out, haves)
		return out
	}
	out := make([]object.Hash, max)
	copy(out, haves[len(haves)-max:])
	return out
}

// CollectObjectsForPush returns objects reachable from roots excluding
// objects in stopRoots (and anything reachable from stopRoots).
func CollectObjectsForPush(store *object.Store, roots, stopRoots []object.Hash) ([]ObjectRecord, error) {
	roots = object.UniqueHashes(roots)
	if len(roots) == 0 {
		return nil, fmt.Errorf("at least one root hash is required")
	}

	stopSet, err := store.ReachableSet(stopRoots)
	if err != nil {
		return nil, err
	}

	seen := make(map[object.Hash]struct{})
	stack := make([]object.Hash, 0, len(roots))
	stack = append(stack, roots...)

	objects := make([]ObjectRecord, 0, 1024)
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		if _, stopped := stopSet[h]; stopped {
			continue
		}
		seen[h] = struct{}{}

		objType, data, err := store.Read(h)
		if err != nil {
			return nil, fmt.Errorf("read object %s: %w", h, err)
		}
		objects = append(objects, ObjectRecord{Hash: h, Type: objType, Data: data})

		refs, err := object.ReferencedHashes(objType, data)
		if err != nil {
			return nil, fmt.Errorf("parse object %s (%s): %w", h, objType, err)
		}
		stack = append(stack, refs...)
	}

	return objects, nil
}

func ensureGraphClosure(ctx context.Context, c *Client, store *object.Store, roots []object.Hash) (int, error) {
	written := 0
	seen := make(map[object.Hash]struct{}, len(roots))
	stack := make([]object.Hash, 0, len(roots))
	stack = append(stack, roots...)

	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}

		if !store.Has(h) {
			obj, err := c.GetObject(ctx, h)
			if err != nil {
				return written, err
			}
			n, err := writeVerifiedObject(store, obj)
			if err != nil {
				return written, err
			}
			written += n
		}

		objType, data, err := store.Read(h)
		if err != nil {
			return written, fmt.Errorf("read object %s: %w", h, err)
		}
		refs, err := object.ReferencedHashes(objType, data)
		if err != nil {
			return written, fmt.Errorf("parse object %s (%s): %w", h, objType, err)
		}
		stack = append(stack, refs...)
	}

	return written, nil
}

func writeVerifiedObject(store *object.Store, obj ObjectRecord) (int, error) {
	if strings.TrimSpace(string(obj.Hash)) == "" {
		return 0, fmt.Errorf("object hash is required")
	}
	if _, err := parseObjectType(string(obj.Type)); err != nil {
		return 0, err
	}
	computed := object.HashObject(obj.Type, obj.Data)
	if computed != obj.Hash {
		return 0, fmt.Errorf("object hash mismatch: expected %s, got %s", obj.Hash, computed)
	}
	alreadyPresent := store.Has(obj.Hash)
	writtenHash, err := store.Write(obj.Type, obj.Data)
	if err != nil {
		return 0, err
	}
	if writtenHash != obj.Hash {
		return 0, fmt.Errorf("object write mismatch: expected %s, wrote %s", obj.Hash, writtenHash)
	}
	if alreadyPresent {
		return 0, nil
	}
	return 1, nil
}
