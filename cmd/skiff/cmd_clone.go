package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/skiff-vcs/skiff/pkg/remote"
	"github.com/spf13/cobra"
)

func newCloneCmd() *cobra.Command {
	var auth authFlags

	cmd := &cobra.Command{
		Use:   "clone <remote-url> [directory]",
		Short: "Clone a repository from a Skiff endpoint",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]

			dest := ""
			if len(args) == 2 {
				dest = args[1]
			} else {
				client, err := remote.NewClient(source)
				if err != nil {
					return err
				}
				dest = client.Endpoint().Repo
			}
			if strings.TrimSpace(dest) == "" {
				return fmt.Errorf("destination directory is required")
			}
			absDest, err := filepath.Abs(dest)
			if err != nil {
				return fmt.Errorf("resolve destination: %w", err)
			}

			if _, err := remote.Clone(cmd.Context(), source, absDest, auth.authenticator(), true); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cloned %s into %s\n", source, absDest)
			return nil
		},
	}

	auth.register(cmd)
	return cmd
}
