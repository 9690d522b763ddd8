package main

import (
	"fmt"
	"sort"

	"github.com/bitvcs/bit/pkg/object"
	"github.com/bitvcs/bit/pkg/repo"
	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify object integrity and graph completeness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			report, err := r.Store.Verify()
			if err != nil {
				return err
			}

			tips, err := r.RefTips()
			if err != nil {
				return err
			}
			missing, err := r.Store.MissingReferences(tips)
			if err != nil {
				return err
			}
			if len(missing) > 0 {
				keys := make([]string, 0, len(missing))
				for h := range missing {
					keys = append(keys, string(h))
				}
				sort.Strings(keys)
				for _, h := range keys {
					fmt.Fprintf(cmd.ErrOrStderr(), "missing object %s (referenced by %v)\n", h, missing[object.Hash(h)])
				}
				return fmt.Errorf("verify: %d missing object(s)", len(missing))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ok: verified %d loose object(s), all refs fully connected\n", report.LooseObjects)
			return nil
		},
	}
}
