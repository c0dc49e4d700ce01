package main

import (
	"fmt"
	"path/filepath"

	"github.com/skiff-vcs/skiff/pkg/repo"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var bare bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create an empty Skiff repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}

			var r *repo.Repo
			if bare {
				r, err = repo.InitBare(abs)
			} else {
				r, err = repo.Init(abs)
			}
			if err != nil {
				return err
			}

			if bare {
				fmt.Fprintf(cmd.OutOrStdout(), "initialized bare repository in %s\n", r.SkiffDir)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "initialized repository in %s\n", r.SkiffDir)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&bare, "bare", false, "create a bare repository (no working tree)")
	return cmd
}
