package main

import (
	"fmt"
	"strings"

	"github.com/bitvcs/bit/pkg/object"
	"github.com/bitvcs/bit/pkg/repo"
	"github.com/spf13/cobra"
)

func newCommitCmd() *cobra.Command {
	var message string
	var author string
	var signSSH bool
	var signingKey string

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record changes to the repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("commit message is required (-m)")
			}

			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			var opts repo.CommitOpts
			if author != "" {
				sig, err := parseAuthorFlag(author)
				if err != nil {
					return err
				}
				opts.Author = &sig
			}

			if signSSH {
				key := signingKey
				if key == "" {
					if cfg, err := r.ReadConfig(); err == nil {
						key = cfg.Core.SigningKey
					}
				}
				signer, keyPath, err := newSSHCommitSigner(key)
				if err != nil {
					return err
				}
				opts.Signer = signer
				fmt.Fprintf(cmd.ErrOrStderr(), "signing with %s\n", keyPath)
			}

			h, err := r.Commit(message, opts)
			if err != nil {
				return err
			}

			branch := "HEAD"
			head, err := r.Head()
			if err == nil && strings.HasPrefix(head, "refs/heads/") {
				branch = strings.TrimPrefix(head, "refs/heads/")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", branch, abbrevHash(h), message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&author, "author", "", `override author ("Name <email>")`)
	cmd.Flags().BoolVar(&signSSH, "sign-ssh", false, "sign the commit with an SSH private key")
	cmd.Flags().StringVar(&signingKey, "signing-key", "", "path to the SSH signing key (default: config core.signing_key, then ~/.ssh)")

	return cmd
}

// parseAuthorFlag accepts "Name <email>" or a bare name.
func parseAuthorFlag(raw string) (object.Signature, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return object.Signature{}, fmt.Errorf("author cannot be empty")
	}
	open := strings.LastIndexByte(raw, '<')
	closeB := strings.LastIndexByte(raw, '>')
	if open < 0 {
		return object.Signature{Name: raw, Email: "unknown@localhost"}, nil
	}
	if closeB < open {
		return object.Signature{}, fmt.Errorf("invalid author %q; expected \"Name <email>\"", raw)
	}
	return object.Signature{
		Name:  strings.TrimSpace(raw[:open]),
		Email: strings.TrimSpace(raw[open+1 : closeB]),
	}, nil
}
