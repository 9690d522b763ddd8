package main

import (
	"errors"
	"fmt"

	"github.com/bitvcs/bit/pkg/object"
	"github.com/bitvcs/bit/pkg/repo"
	"github.com/spf13/cobra"
)

func newMergeBaseCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "merge-base <revision> <revision>...",
		Short: "Find the best common ancestor of two or more commits",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			inputs := make([]object.Hash, 0, len(args))
			for _, rev := range args {
				h, err := r.ResolveRef(rev)
				if err != nil || h == "" {
					return fmt.Errorf("cannot resolve %q", rev)
				}
				inputs = append(inputs, h)
			}

			out := cmd.OutOrStdout()
			if all || len(inputs) > 2 {
				bases, err := r.MergeBasesMany(inputs)
				if err != nil {
					return err
				}
				if len(bases) == 0 {
					return fmt.Errorf("no common ancestor")
				}
				for _, b := range bases {
					fmt.Fprintln(out, b)
				}
				return nil
			}

			base, err := r.MergeBase(inputs[0], inputs[1])
			if err != nil {
				var ambiguous *repo.AmbiguousMergeBaseError
				if errors.As(err, &ambiguous) {
					return fmt.Errorf("%w (rerun with --all to list them)", err)
				}
				return err
			}
			if base == "" {
				return fmt.Errorf("no common ancestor")
			}
			fmt.Fprintln(out, base)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "print all best common ancestors")

	return cmd
}
