package main

import (
	"fmt"

	"github.com/skiff-vcs/skiff/pkg/repo"
	"github.com/spf13/cobra"
)

func newRmCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "rm <path>...",
		Short: "Remove files from the staging index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			if err := r.Remove(force, args...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d path(s) from index\n", len(args))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "remove even when the working copy has unstaged changes")
	return cmd
}
