package main

import (
	"fmt"
	"strings"

	"github.com/bitvcs/bit/pkg/repo"
	"github.com/fatih/color"
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

			entries, err := r.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			branch := "main"
			noCommits := true
			head, err := r.Head()
			if err == nil {
				if strings.HasPrefix(head, "refs/heads/") {
					branch = strings.TrimPrefix(head, "refs/heads/")
				} else {
					branch = "detached HEAD"
				}
				if h, resolveErr := r.ResolveRef("HEAD"); resolveErr == nil && h != "" {
					noCommits = false
				}
			}

			if noCommits {
				fmt.Fprintf(out, "on %s (no commits yet)\n", branch)
			} else {
				fmt.Fprintf(out, "on %s\n", branch)
			}

			var staged, unstaged, untracked []string
			for _, e := range entries {
				switch e.IndexStatus {
				case repo.StatusNew:
					staged = append(staged, "  + "+e.Path)
				case repo.StatusModified:
					staged = append(staged, "  ~ "+e.Path)
				case repo.StatusDeleted:
					staged = append(staged, "  - "+e.Path)
				}

				switch e.WorkStatus {
				case repo.StatusDirty:
					unstaged = append(unstaged, "  ~ "+e.Path)
				case repo.StatusDeleted:
					unstaged = append(unstaged, "  - "+e.Path)
				case repo.StatusUntracked:
					untracked = append(untracked, "  "+e.Path)
				}
			}

			printSection := func(title string, lines []string, c *color.Color) {
				if len(lines) == 0 {
					return
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, title+":")
				for _, s := range lines {
					fmt.Fprintln(out, c.Sprint(s))
				}
			}

			printSection("staged", staged, color.New(color.FgGreen))
			printSection("unstaged", unstaged, color.New(color.FgRed))
			printSection("untracked", untracked, color.New(color.FgRed))

			if len(staged) == 0 && len(unstaged) == 0 && len(untracked) == 0 {
				fmt.Fprintln(out, "nothing to commit, working tree clean")
			}
			return nil
		},
	}
}
