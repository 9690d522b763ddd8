package main

import (
	"fmt"

	"github.com/bitvcs/bit/pkg/repo"
	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	var hard bool

	cmd := &cobra.Command{
		Use:   "reset --hard <revision>",
		Short: "Move HEAD and resynchronize the staging area and working tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !hard {
				return fmt.Errorf("only --hard reset is supported")
			}

			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			if err := r.ResetHard(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "HEAD is now at %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&hard, "hard", false, "discard staging area and working tree changes")

	return cmd
}
