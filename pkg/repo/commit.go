package repo

import (
	"fmt"
	"strings"
	"time"

	"github.com/bitvcs/bit/pkg/object"
)

// CommitSigner signs canonical commit payload bytes and returns an encoded
// signature string to be persisted in CommitObj.Signature.
type CommitSigner func(payload []byte) (string, error)

// CommitOpts carries optional parameters for Commit.
type CommitOpts struct {
	Author *object.Signature // defaults to the configured user identity
	Signer CommitSigner      // nil means unsigned
}

// Commit creates a new commit from the current staging area.
//
//  1. Read staging
//  2. BuildTree from staging
//  3. Resolve HEAD to get the parent commit hash (if any)
//  4. Create a CommitObj with tree, parent, identities and message
//  5. Write the commit to the store
//  6. Update the current branch ref to the new commit hash
func (r *Repo) Commit(message string, opts CommitOpts) (object.Hash, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("commit: message is required")
	}

	lock, err := r.lockStaging()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	defer lock.release()

	stg, err := r.ReadStaging()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if len(stg.Entries) == 0 {
		return "", fmt.Errorf("commit: nothing staged")
	}

	treeHash, err := r.BuildTree(stg)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	// Resolve HEAD to get the parent (may not exist for the first commit).
	var parents []object.Hash
	parentHash, err := r.ResolveRef("HEAD")
	if err == nil && parentHash != "" {
		parents = append(parents, parentHash)
	}

	var ident object.Signature
	if opts.Author != nil {
		ident = *opts.Author
	} else {
		ident = r.UserIdent()
	}
	if ident.When == 0 {
		now := time.Now()
		ident.When = now.Unix()
		ident.Offset = now.Format("-0700")
	}

	commitObj := &object.CommitObj{
		TreeHash:  treeHash,
		Parents:   parents,
		Author:    ident,
		Committer: ident,
		Message:   message,
	}
	if opts.Signer != nil {
		payload := object.CommitSigningPayload(commitObj)
		signature, err := opts.Signer(payload)
		if err != nil {
			return "", fmt.Errorf("commit: sign commit: %w", err)
		}
		commitObj.Signature = signature
	}

	commitHash, err := r.Store.WriteCommit(commitObj)
	if err != nil {
		return "", fmt.Errorf("commit: write commit: %w", err)
	}

	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("commit: read HEAD: %w", err)
	}

	// head is either a ref path ("refs/heads/main") or a detached hash.
	if strings.HasPrefix(head, "refs/") {
		var updateErr error
		if parentHash == "" {
			updateErr = r.UpdateRefCAS(head, commitHash)
		} else {
			updateErr = r.UpdateRefCAS(head, commitHash, parentHash)
		}
		if updateErr != nil {
			return "", fmt.Errorf("commit: update ref %q: %w", head, updateErr)
		}
	} else {
		if err := r.UpdateRefCAS("HEAD", commitHash, object.Hash(strings.TrimSpace(head))); err != nil {
			return "", fmt.Errorf("commit: update detached HEAD: %w", err)
		}
	}

	return commitHash, nil
}

// LogEntry pairs a commit with its hash for history listings.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.CommitObj
}

// Log walks the commit history from start via the revision walker,
// returning up to limit commits, newest first. A limit of zero or below
// means no limit.
func (r *Repo) Log(start object.Hash, limit int) ([]LogEntry, error) {
	if start == "" {
		return nil, nil
	}
	walker, err := r.NewRevWalker([]object.Hash{start})
	if err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}

	var entries []LogEntry
	for limit <= 0 || len(entries) < limit {
		h, c, err := walker.Next()
		if err == ErrWalkDone {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("log: %w", err)
		}
		entries = append(entries, LogEntry{Hash: h, Commit: c})
	}
	return entries, nil
}
