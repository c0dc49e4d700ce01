package remote

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"golang.org/x/crypto/ssh"
)

// Credentials is the resolved material an Authenticator produces. Exactly
// one of Token, Username/Password, or Signer is normally set; an empty
// Credentials means anonymous access.
type Credentials struct {
	Token    string
	Username string
	Password string
	Signer   ssh.Signer
}

// Authenticator resolves credentials for remote requests. Resolution may do
// filesystem work (reading key files), so it runs once per client, not per
// request.
type Authenticator interface {
	Credentials() (Credentials, error)
}

// Anonymous performs unauthenticated requests.
type Anonymous struct{}

func (Anonymous) Credentials() (Credentials, error) {
	return Credentials{}, nil
}

// TokenAuth sends a bearer token with every request.
type TokenAuth struct {
	Token string
}

func (a TokenAuth) Credentials() (Credentials, error) {
	token := strings.TrimSpace(a.Token)
	if token == "" {
		return Credentials{}, fmt.Errorf("token auth: token is empty")
	}
	return Credentials{Token: token}, nil
}

// BasicAuth sends HTTP basic credentials with every request.
type BasicAuth struct {
	Username string
	Password string
}

func (a BasicAuth) Credentials() (Credentials, error) {
	user := strings.TrimSpace(a.Username)
	if user == "" {
		return Credentials{}, fmt.Errorf("basic auth: username is empty")
	}
	return Credentials{Username: user, Password: a.Password}, nil
}

// KeyAuth signs requests with an SSH private key. KeyPath may use "~" for
// the home directory; when empty, the default keys under ~/.ssh are tried.
type KeyAuth struct {
	Username string
	KeyPath  string
}

func (a KeyAuth) Credentials() (Credentials, error) {
	keyPath, err := resolveKeyPath(a.KeyPath)
	if err != nil {
		return Credentials{}, err
	}

	raw, err := os.ReadFile(keyPath)
	if err != nil {
		return Credentials{}, fmt.Errorf("read key %q: %w", keyPath, err)
	}
	signer, err := ssh.ParsePrivateKey(raw)
	if err != nil {
		return Credentials{}, fmt.Errorf("parse key %q: %w", keyPath, err)
	}

	return Credentials{Username: strings.TrimSpace(a.Username), Signer: signer}, nil
}

func resolveKeyPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return "", fmt.Errorf("expand key path %q: %w", path, err)
		}
		return filepath.Abs(expanded)
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	candidates := []string{
		filepath.Join(home, ".ssh", "id_ed25519"),
		filepath.Join(home, ".ssh", "id_ecdsa"),
		filepath.Join(home, ".ssh", "id_rsa"),
	}
	for _, candidate := range candidates {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no default SSH private key found in ~/.ssh (id_ed25519, id_ecdsa, id_rsa)")
}
