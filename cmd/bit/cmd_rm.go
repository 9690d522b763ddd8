package main

import (
	"github.com/bitvcs/bit/pkg/repo"
	"github.com/spf13/cobra"
)

func newRmCmd() *cobra.Command {
	var cachedOnly bool

	cmd := &cobra.Command{
		Use:   "rm <path>...",
		Short: "Stop tracking files and delete them from the working tree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			return r.Remove(args, cachedOnly)
		},
	}
	cmd.Flags().BoolVar(&cachedOnly, "cached", false, "unstage only; leave working tree files in place")
	return cmd
}
