package main

import (
	"fmt"

	"github.com/skiff-vcs/skiff/pkg/remote"
	"github.com/skiff-vcs/skiff/pkg/repo"
	"github.com/spf13/cobra"
)

func newPullCmd() *cobra.Command {
	var auth authFlags

	cmd := &cobra.Command{
		Use:   "pull <remote-url> [branch]",
		Short: "Fetch from a remote and update the working tree",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			branch := ""
			if len(args) == 2 {
				branch = args[1]
			}

			s := remote.NewSyncer(r, args[0], auth.authenticator())
			if _, err := s.Pull(cmd.Context(), "", branch); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pulled %s\n", args[0])
			return nil
		},
	}

	auth.register(cmd)
	return cmd
}
