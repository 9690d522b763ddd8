package diff

import (
	"bytes"
	"fmt"

	"github.com/bitvcs/bit/pkg/object"
	"github.com/pmezard/go-difflib/difflib"
)

const unifiedContextLines = 3

// Blobs produces a unified textual diff between two blobs. Either hash may
// be empty, meaning an empty file. Binary content (containing NUL bytes) is
// summarized rather than diffed line by line.
func Blobs(store *object.Store, path string, oldHash, newHash object.Hash) (string, error) {
	oldData, err := blobData(store, oldHash)
	if err != nil {
		return "", fmt.Errorf("diff %q: %w", path, err)
	}
	newData, err := blobData(store, newHash)
	if err != nil {
		return "", fmt.Errorf("diff %q: %w", path, err)
	}

	if isBinary(oldData) || isBinary(newData) {
		return fmt.Sprintf("Binary files a/%s and b/%s differ\n", path, path), nil
	}

	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(oldData)),
		B:        difflib.SplitLines(string(newData)),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  unifiedContextLines,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", fmt.Errorf("diff %q: %w", path, err)
	}
	return text, nil
}

func blobData(store *object.Store, h object.Hash) ([]byte, error) {
	if h == "" {
		return nil, nil
	}
	blob, err := store.ReadBlob(h)
	if err != nil {
		return nil, err
	}
	return blob.Data, nil
}

func isBinary(data []byte) bool {
	return bytes.IndexByte(data, 0) >= 0
}
