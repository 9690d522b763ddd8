package diff

import (
	"fmt"
	"strings"

	"github.com/bitvcs/bit/pkg/object"
)

// FormatChanges renders path-level changes as a compact name-status listing:
//
//	A  docs/guide.md
//	M  pkg/util/util.go
//	D  old.txt
func FormatChanges(changes []PathChange) string {
	var b strings.Builder
	for _, c := range changes {
		b.WriteString(statusLetter(c.Kind))
		b.WriteString("  ")
		b.WriteString(c.Path)
		b.WriteByte('\n')
	}
	return b.String()
}

func statusLetter(k ChangeKind) string {
	switch k {
	case Added:
		return "A"
	case Removed:
		return "D"
	case Modified:
		return "M"
	case TypeChanged:
		return "T"
	default:
		return "?"
	}
}

// FormatPatch renders the changes as a full textual patch, reading blob
// content from the store for the per-file unified hunks.
func FormatPatch(store *object.Store, changes []PathChange) (string, error) {
	var b strings.Builder
	for _, c := range changes {
		fmt.Fprintf(&b, "diff --bit a/%s b/%s\n", c.Path, c.Path)
		switch c.Kind {
		case Added:
			fmt.Fprintf(&b, "new file mode %s\n", c.NewMode)
		case Removed:
			fmt.Fprintf(&b, "deleted file mode %s\n", c.OldMode)
		case TypeChanged, Modified:
			if c.OldMode != c.NewMode {
				fmt.Fprintf(&b, "old mode %s\nnew mode %s\n", c.OldMode, c.NewMode)
			}
		}
		fmt.Fprintf(&b, "index %s..%s\n", shortHash(c.OldHash), shortHash(c.NewHash))

		text, err := Blobs(store, c.Path, c.OldHash, c.NewHash)
		if err != nil {
			return "", err
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

func shortHash(h object.Hash) string {
	if h == "" {
		return "0000000"
	}
	if len(h) > 7 {
		return string(h[:7])
	}
	return string(h)
}
