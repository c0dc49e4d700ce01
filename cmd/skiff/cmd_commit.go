package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/skiff-vcs/skiff/pkg/repo"
	"github.com/spf13/cobra"
)

func newCommitCmd() *cobra.Command {
	var message string
	var name string
	var email string

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record staged changes as a new commit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			who := resolveIdentity(r, name, email)
			h, err := r.Commit(who, message)
			if err != nil {
				return err
			}

			branch := "HEAD"
			if head, err := r.Head(); err == nil && strings.HasPrefix(head, "refs/heads/") {
				branch = strings.TrimPrefix(head, "refs/heads/")
			}

			short := string(h)
			if len(short) > 8 {
				short = short[:8]
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", branch, short, message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&name, "name", "", "override author name")
	cmd.Flags().StringVar(&email, "email", "", "override author email")
	return cmd
}

// resolveIdentity layers flag overrides over the repository config, falling
// back to $USER when neither names the author.
func resolveIdentity(r *repo.Repo, name, email string) repo.Identity {
	who := repo.Identity{
		Name:  r.Config.User.Name,
		Email: r.Config.User.Email,
	}
	if strings.TrimSpace(name) != "" {
		who.Name = name
	}
	if strings.TrimSpace(email) != "" {
		who.Email = email
	}
	if who.Name == "" {
		who.Name = os.Getenv("USER")
		if who.Name == "" {
			who.Name = "unknown"
		}
	}
	return who
}
