package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/skiff-vcs/skiff/pkg/repo"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			branch := r.DefaultBranch()
			if head, err := r.Head(); err == nil && strings.HasPrefix(head, "refs/heads/") {
				branch = strings.TrimPrefix(head, "refs/heads/")
			}

			staged, err := r.ModifiedStagedFiles()
			noCommits := errors.Is(err, repo.ErrNoCommitsYet)
			if err != nil && !noCommits {
				return err
			}

			if noCommits {
				fmt.Fprintf(out, "on %s (no commits yet)\n", branch)
			} else {
				fmt.Fprintf(out, "on %s\n", branch)
			}

			var unstaged map[string]struct{}
			if !noCommits {
				unstaged, err = r.ModifiedUnstagedFiles()
				if err != nil {
					return err
				}
			}
			untracked, err := r.UntrackedFiles()
			if err != nil {
				return err
			}

			printSet(out, "staged changes:", staged, "~ ")
			printSet(out, "unstaged changes:", unstaged, "~ ")
			printSet(out, "untracked files:", untracked, "")

			if len(staged) == 0 && len(unstaged) == 0 && len(untracked) == 0 {
				fmt.Fprintln(out, "nothing to report, working tree clean")
			}
			return nil
		},
	}
}

func printSet(out io.Writer, header string, set map[string]struct{}, marker string) {
	if len(set) == 0 {
		return
	}
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	fmt.Fprintln(out, header)
	for _, p := range paths {
		fmt.Fprintf(out, "  %s%s\n", marker, p)
	}
}
