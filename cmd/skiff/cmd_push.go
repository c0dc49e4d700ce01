package main

import (
	"fmt"

	"github.com/skiff-vcs/skiff/pkg/remote"
	"github.com/skiff-vcs/skiff/pkg/repo"
	"github.com/spf13/cobra"
)

func newPushCmd() *cobra.Command {
	var auth authFlags
	var branch string

	cmd := &cobra.Command{
		Use:   "push <remote-url>",
		Short: "Upload the current branch to a remote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			s := remote.NewSyncer(r, args[0], auth.authenticator())
			if err := s.Push(cmd.Context(), "", branch); err != nil {
				return err
			}

			name := branch
			if name == "" {
				name = r.DefaultBranch()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed %s to %s\n", name, args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&branch, "branch", "b", "", "branch to push (default: configured default branch)")
	auth.register(cmd)
	return cmd
}
