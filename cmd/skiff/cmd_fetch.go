package main

import (
	"fmt"

	"github.com/skiff-vcs/skiff/pkg/remote"
	"github.com/skiff-vcs/skiff/pkg/repo"
	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	var auth authFlags

	cmd := &cobra.Command{
		Use:   "fetch <remote-url>",
		Short: "Download remote state and rebuild the working tree to match",
		Long: "Fetch downloads all objects from the remote, mirrors its branch refs, " +
			"and rewrites the working tree to the remote HEAD commit. Local " +
			"uncommitted changes are overwritten.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			s := remote.NewSyncer(r, args[0], auth.authenticator())
			if _, err := s.Fetch(cmd.Context(), ""); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fetched %s\n", args[0])
			return nil
		},
	}

	auth.register(cmd)
	return cmd
}
