package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bitvcs/bit/pkg/object"
	"github.com/bitvcs/bit/pkg/repo"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newLogCmd() *cobra.Command {
	var oneline bool
	var limit int
	var topo bool

	cmd := &cobra.Command{
		Use:   "log [revision]",
		Short: "Show commit history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			startRev := "HEAD"
			if len(args) == 1 {
				startRev = args[0]
			}
			startHash, err := r.ResolveRef(startRev)
			if err != nil || startHash == "" {
				return fmt.Errorf("cannot resolve %q", startRev)
			}

			var entries []repo.LogEntry
			if topo {
				walker, err := r.NewTopoWalker([]object.Hash{startHash})
				if err != nil {
					return err
				}
				for limit <= 0 || len(entries) < limit {
					h, c, err := walker.Next()
					if err == repo.ErrWalkDone {
						break
					}
					if err != nil {
						return err
					}
					entries = append(entries, repo.LogEntry{Hash: h, Commit: c})
				}
			} else {
				entries, err = r.Log(startHash, limit)
				if err != nil {
					return err
				}
			}

			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no commits yet")
				return nil
			}

			branchName := ""
			head, err := r.Head()
			if err == nil && strings.HasPrefix(head, "refs/heads/") {
				branchName = strings.TrimPrefix(head, "refs/heads/")
			}
			headHash, _ := r.ResolveRef("HEAD")

			out := cmd.OutOrStdout()
			yellow := color.New(color.FgYellow)
			for _, entry := range entries {
				h := entry.Hash
				c := entry.Commit
				decoration := buildDecoration(h, headHash, branchName)

				if oneline {
					short := abbrevHash(h)
					if decoration != "" {
						fmt.Fprintf(out, "%s %s %s\n", yellow.Sprint(short), decoration, firstLine(c.Message))
					} else {
						fmt.Fprintf(out, "%s %s\n", yellow.Sprint(short), firstLine(c.Message))
					}
				} else {
					if decoration != "" {
						fmt.Fprintf(out, "%s %s\n", yellow.Sprintf("commit %s", h), decoration)
					} else {
						fmt.Fprintln(out, yellow.Sprintf("commit %s", h))
					}
					fmt.Fprintf(out, "Author: %s <%s>\n", c.Author.Name, c.Author.Email)
					fmt.Fprintf(out, "Date:   %s\n", formatCommitTime(c.Author))
					fmt.Fprintln(out)
					for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
						fmt.Fprintf(out, "    %s\n", line)
					}
					fmt.Fprintln(out)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of commits to show")
	cmd.Flags().BoolVar(&topo, "topo", false, "topological order (parents never before children)")

	return cmd
}

// buildDecoration returns a string like "(HEAD -> main)" if the commit is
// the current HEAD, or "" otherwise.
func buildDecoration(commitHash, headHash object.Hash, branchName string) string {
	if commitHash != headHash {
		return ""
	}
	if branchName != "" {
		return "(HEAD -> " + branchName + ")"
	}
	return "(HEAD)"
}

func firstLine(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		return message[:idx]
	}
	return message
}

// formatCommitTime renders a signature's timestamp in its recorded UTC
// offset, e.g. "2026-08-31 14:03:55 -0700".
func formatCommitTime(sig object.Signature) string {
	loc := time.UTC
	if len(sig.Offset) == 5 {
		hours, errH := strconv.Atoi(sig.Offset[1:3])
		mins, errM := strconv.Atoi(sig.Offset[3:5])
		if errH == nil && errM == nil {
			secs := (hours*60 + mins) * 60
			if sig.Offset[0] == '-' {
				secs = -secs
			}
			loc = time.FixedZone(sig.Offset, secs)
		}
	}
	return time.Unix(sig.When, 0).In(loc).Format("2006-01-02 15:04:05 -0700")
}
