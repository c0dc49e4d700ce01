package main

import (
	"fmt"
	"time"

	"github.com/skiff-vcs/skiff/pkg/repo"
	"github.com/spf13/cobra"
)

func newLogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show commit history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			head, err := r.ResolveRef("HEAD")
			if err != nil || head == "" {
				return fmt.Errorf("no commits yet")
			}

			commits, err := r.Log(head, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			current := head
			for _, c := range commits {
				fmt.Fprintf(out, "commit %s\n", current)
				fmt.Fprintf(out, "author  %s\n", c.Author)
				fmt.Fprintf(out, "date    %s\n", time.Unix(c.Timestamp, 0).Format(time.RFC1123))
				fmt.Fprintf(out, "\n    %s\n\n", c.Message)
				if len(c.Parents) == 0 {
					break
				}
				current = c.Parents[0]
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "max-count", "n", 50, "limit the number of commits shown")
	return cmd
}
