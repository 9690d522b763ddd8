package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bitvcs/bit/pkg/object"
)

func main() {
	var verbose bool

	root := &cobra.Command{
		Use:   "bit",
		Short: "Content-addressable version control",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetOutput(os.Stderr)
			log.SetLevel(log.WarnLevel)
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newAddCmd())
	root.AddCommand(newRmCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newCommitCmd())
	root.AddCommand(newLogCmd())
	root.AddCommand(newDiffCmd())
	root.AddCommand(newBranchCmd())
	root.AddCommand(newCheckoutCmd())
	root.AddCommand(newResetCmd())
	root.AddCommand(newMergeBaseCmd())
	root.AddCommand(newTagCmd())
	root.AddCommand(newCatFileCmd())
	root.AddCommand(newVerifyCmd())
	root.AddCommand(newReflogCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("bit 0.1.0-dev")
		},
	}
}

// abbrevHash shortens a hash for one-line output.
func abbrevHash(h object.Hash) string {
	if len(h) > 8 {
		return string(h[:8])
	}
	return string(h)
}
