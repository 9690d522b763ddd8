package main

import (
	"fmt"

	"github.com/bitvcs/bit/pkg/object"
	"github.com/bitvcs/bit/pkg/repo"
	"github.com/spf13/cobra"
)

func newCatFileCmd() *cobra.Command {
	var showType bool
	var showSize bool
	var prettyPrint bool

	cmd := &cobra.Command{
		Use:   "cat-file (-t | -s | -p) <object>",
		Short: "Inspect a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count := 0
			for _, f := range []bool{showType, showSize, prettyPrint} {
				if f {
					count++
				}
			}
			if count != 1 {
				return fmt.Errorf("exactly one of -t, -s, -p is required")
			}

			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			h := object.Hash(args[0])
			if !h.Valid() {
				resolved, err := r.ResolveRef(args[0])
				if err != nil || resolved == "" {
					return fmt.Errorf("cannot resolve %q", args[0])
				}
				h = resolved
			}

			objType, data, err := r.Store.Read(h)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case showType:
				fmt.Fprintln(out, objType)
			case showSize:
				fmt.Fprintln(out, len(data))
			case prettyPrint:
				return prettyPrintObject(cmd, objType, data)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showType, "type", "t", false, "show the object's type")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "show the object's content size in bytes")
	cmd.Flags().BoolVarP(&prettyPrint, "pretty", "p", false, "pretty-print the object's content")

	return cmd
}

func prettyPrintObject(cmd *cobra.Command, objType object.ObjectType, data []byte) error {
	out := cmd.OutOrStdout()
	switch objType {
	case object.TypeBlob:
		_, err := out.Write(data)
		return err

	case object.TypeTree:
		tree, err := object.UnmarshalTree(data)
		if err != nil {
			return err
		}
		for _, e := range tree.Entries {
			kind := object.TypeBlob
			if e.IsDir() {
				kind = object.TypeTree
			}
			fmt.Fprintf(out, "%s %s %s\t%s\n", e.Mode, kind, e.Hash, e.Name)
		}
		return nil

	case object.TypeCommit:
		commit, err := object.UnmarshalCommit(data)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "tree %s\n", commit.TreeHash)
		for _, p := range commit.Parents {
			fmt.Fprintf(out, "parent %s\n", p)
		}
		fmt.Fprintf(out, "author %s\n", object.FormatSignature(commit.Author))
		fmt.Fprintf(out, "committer %s\n", object.FormatSignature(commit.Committer))
		if commit.Signature != "" {
			fmt.Fprintf(out, "signature %s\n", commit.Signature)
		}
		fmt.Fprintf(out, "\n%s", commit.Message)
		return nil

	case object.TypeTag:
		tag, err := object.UnmarshalTag(data)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "object %s\n", tag.TargetHash)
		fmt.Fprintf(out, "type %s\n", tag.TargetType)
		fmt.Fprintf(out, "tag %s\n", tag.Name)
		fmt.Fprintf(out, "tagger %s\n", object.FormatSignature(tag.Tagger))
		fmt.Fprintf(out, "\n%s", tag.Message)
		return nil

	default:
		return fmt.Errorf("unknown object type %q", objType)
	}
}
