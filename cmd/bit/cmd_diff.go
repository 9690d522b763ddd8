package main

import (
	"fmt"
	"strings"

	"github.com/bitvcs/bit/pkg/diff"
	"github.com/bitvcs/bit/pkg/object"
	"github.com/bitvcs/bit/pkg/repo"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	var nameStatus bool

	cmd := &cobra.Command{
		Use:   "diff [revision] [revision]",
		Short: "Show changes between commits, or between HEAD and the staging area",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			oldTree, newTree, err := diffTrees(r, args)
			if err != nil {
				return err
			}

			changes, err := diff.Trees(r.Store, oldTree, newTree)
			if err != nil {
				return err
			}
			if len(changes) == 0 {
				return nil
			}

			out := cmd.OutOrStdout()
			if nameStatus {
				fmt.Fprint(out, diff.FormatChanges(changes))
				return nil
			}

			patch, err := diff.FormatPatch(r.Store, changes)
			if err != nil {
				return err
			}
			fmt.Fprint(out, colorizePatch(patch))
			return nil
		},
	}

	cmd.Flags().BoolVar(&nameStatus, "name-status", false, "show only names and change kinds")
	return cmd
}

// diffTrees resolves the two trees to compare. With no args it compares the
// HEAD tree against a tree built from the staging area; with one arg, that
// revision against the staging area; with two, the two revisions.
func diffTrees(r *repo.Repo, args []string) (oldTree, newTree object.Hash, err error) {
	resolveTree := func(rev string) (object.Hash, error) {
		h, err := r.ResolveRef(rev)
		if err != nil || h == "" {
			return "", fmt.Errorf("cannot resolve %q", rev)
		}
		h, err = r.PeelToCommit(h)
		if err != nil {
			return "", err
		}
		commit, err := r.Store.ReadCommit(h)
		if err != nil {
			return "", err
		}
		return commit.TreeHash, nil
	}

	oldRev := "HEAD"
	if len(args) >= 1 {
		oldRev = args[0]
	}
	if h, err := r.ResolveRef(oldRev); err != nil || h == "" {
		// No commits yet: diff against the empty tree.
		if oldRev != "HEAD" {
			return "", "", fmt.Errorf("cannot resolve %q", oldRev)
		}
		oldTree = ""
	} else if oldTree, err = resolveTree(oldRev); err != nil {
		return "", "", err
	}

	if len(args) == 2 {
		newTree, err = resolveTree(args[1])
		if err != nil {
			return "", "", err
		}
		return oldTree, newTree, nil
	}

	stg, err := r.ReadStaging()
	if err != nil {
		return "", "", err
	}
	if len(stg.Entries) == 0 {
		return oldTree, "", nil
	}
	newTree, err = r.BuildTree(stg)
	if err != nil {
		return "", "", err
	}
	return oldTree, newTree, nil
}

func colorizePatch(patch string) string {
	if color.NoColor {
		return patch
	}
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan)

	lines := strings.SplitAfter(patch, "\n")
	var b strings.Builder
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---"):
			b.WriteString(line)
		case strings.HasPrefix(line, "@@"):
			b.WriteString(cyan.Sprint(line))
		case strings.HasPrefix(line, "+"):
			b.WriteString(green.Sprint(line))
		case strings.HasPrefix(line, "-"):
			b.WriteString(red.Sprint(line))
		default:
			b.WriteString(line)
		}
	}
	return b.String()
}
