package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitvcs/bit/pkg/repo"
	"golang.org/x/crypto/ssh"
)

// Signature header format: "sshsig-v1:<sig format>:<pubkey b64>:<sig b64>".
const commitSignaturePrefix = "sshsig-v1"

// defaultSigningKeyNames are probed under ~/.ssh when no key is configured.
var defaultSigningKeyNames = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

// newSSHCommitSigner loads the SSH private key at keyPath (or a default key
// when keyPath is empty) and returns a CommitSigner together with the path
// of the key that was actually used.
func newSSHCommitSigner(keyPath string) (repo.CommitSigner, string, error) {
	keyFile, err := resolveSigningKeyPath(keyPath)
	if err != nil {
		return nil, "", err
	}

	raw, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, "", fmt.Errorf("load signing key %q: %w", keyFile, err)
	}
	signer, err := ssh.ParsePrivateKey(raw)
	if err != nil {
		return nil, "", fmt.Errorf("signing key %q: %w", keyFile, err)
	}
	pubB64 := base64.StdEncoding.EncodeToString(signer.PublicKey().Marshal())

	sign := func(payload []byte) (string, error) {
		sig, err := signer.Sign(rand.Reader, payload)
		if err != nil {
			return "", err
		}
		parts := []string{
			commitSignaturePrefix,
			sig.Format,
			pubB64,
			base64.StdEncoding.EncodeToString(sig.Blob),
		}
		return strings.Join(parts, ":"), nil
	}
	return sign, keyFile, nil
}

func resolveSigningKeyPath(path string) (string, error) {
	if path = strings.TrimSpace(path); path != "" {
		return expandUserPath(path)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	for _, name := range defaultSigningKeyNames {
		candidate := filepath.Join(home, ".ssh", name)
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no SSH private key found in ~/.ssh (tried %s)",
		strings.Join(defaultSigningKeyNames, ", "))
}

func expandUserPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(path)
}
