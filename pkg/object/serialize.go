package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to raw bytes (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// Signature
// ---------------------------------------------------------------------------

// FormatSignature renders a Signature in its canonical header form:
//
//	Name <email> timestamp offset
func FormatSignature(s Signature) string {
	offset := s.Offset
	if offset == "" {
		offset = "+0000"
	}
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, s.When, offset)
}

// ParseSignature parses the canonical "Name <email> timestamp offset" form.
func ParseSignature(val string) (Signature, error) {
	open := strings.LastIndexByte(val, '<')
	close := strings.LastIndexByte(val, '>')
	if open < 0 || close < open {
		return Signature{}, fmt.Errorf("malformed signature %q", val)
	}

	sig := Signature{
		Name:  strings.TrimSpace(val[:open]),
		Email: val[open+1 : close],
	}

	rest := strings.Fields(val[close+1:])
	if len(rest) != 2 {
		return Signature{}, fmt.Errorf("malformed signature timestamp in %q", val)
	}
	when, err := strconv.ParseInt(rest[0], 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("bad signature timestamp %q: %w", rest[0], err)
	}
	sig.When = when
	sig.Offset = rest[1]
	return sig, nil
}

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// SortTreeEntries orders entries canonically: byte order of the name, with
// directory names compared as if suffixed by "/". Two trees with the same
// logical content always serialize identically, which content addressing
// depends on.
func SortTreeEntries(entries []TreeEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].sortKey() < entries[j].sortKey()
	})
}

// MarshalTree serializes a TreeObj. Each entry is encoded as
//
//	mode SP name NUL raw-digest
//
// with entries in canonical order regardless of input order.
func MarshalTree(tr *TreeObj) ([]byte, error) {
	sorted := make([]TreeEntry, len(tr.Entries))
	copy(sorted, tr.Entries)
	SortTreeEntries(sorted)

	var buf bytes.Buffer
	for _, e := range sorted {
		if e.Name == "" || strings.ContainsAny(e.Name, "/\x00") {
			return nil, fmt.Errorf("marshal tree: invalid entry name %q", e.Name)
		}
		raw, err := e.Hash.Raw()
		if err != nil {
			return nil, fmt.Errorf("marshal tree: entry %q: %w", e.Name, err)
		}
		mode := e.Mode
		if mode == "" {
			mode = TreeModeFile
		}
		buf.WriteString(mode)
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

// UnmarshalTree parses a TreeObj from its serialized form. Out-of-order
// entries are a structural violation and fail with CorruptObjectError.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	tr := &TreeObj{}
	prevKey := ""
	for len(data) > 0 {
		sp := bytes.IndexByte(data, ' ')
		if sp < 0 {
			return nil, corruptf("", "tree entry: missing mode terminator")
		}
		mode, err := parseTreeMode(string(data[:sp]))
		if err != nil {
			return nil, corruptf("", "tree entry: %v", err)
		}
		data = data[sp+1:]

		nul := bytes.IndexByte(data, 0)
		if nul < 0 {
			return nil, corruptf("", "tree entry: missing name terminator")
		}
		name := string(data[:nul])
		if name == "" {
			return nil, corruptf("", "tree entry: empty name")
		}
		data = data[nul+1:]

		if len(data) < RawLen {
			return nil, corruptf("", "tree entry %q: truncated digest", name)
		}
		h, err := HashFromRaw(data[:RawLen])
		if err != nil {
			return nil, corruptf("", "tree entry %q: %v", name, err)
		}
		data = data[RawLen:]

		entry := TreeEntry{Name: name, Mode: mode, Hash: h}
		key := entry.sortKey()
		if prevKey != "" && key <= prevKey {
			return nil, corruptf("", "tree entries out of order at %q", name)
		}
		prevKey = key
		tr.Entries = append(tr.Entries, entry)
	}
	return tr, nil
}

func parseTreeMode(mode string) (string, error) {
	switch mode {
	case TreeModeDir, TreeModeFile, TreeModeExecutable, TreeModeSymlink, TreeModeGitlink:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown mode %q", mode)
	}
}

// ---------------------------------------------------------------------------
// CommitObj
// ---------------------------------------------------------------------------

// MarshalCommit serializes a CommitObj:
//
//	tree H
//	parent H     (zero or more)
//	author Name <email> ts offset
//	committer Name <email> ts offset
//	signature S  (optional)
//
//	message
func MarshalCommit(c *CommitObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", string(c.TreeHash))
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", string(p))
	}
	fmt.Fprintf(&buf, "author %s\n", FormatSignature(c.Author))
	fmt.Fprintf(&buf, "committer %s\n", FormatSignature(c.Committer))
	if strings.TrimSpace(c.Signature) != "" {
		fmt.Fprintf(&buf, "signature %s\n", c.Signature)
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// UnmarshalCommit parses a CommitObj from its serialized form.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, corruptf("", "commit: missing header/message separator")
	}
	header := string(data[:idx])
	message := string(data[idx+2:])

	c := &CommitObj{Message: message}
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, corruptf("", "commit: malformed header line %q", line)
		}
		switch key {
		case "tree":
			c.TreeHash = Hash(val)
		case "parent":
			c.Parents = append(c.Parents, Hash(val))
		case "author":
			sig, err := ParseSignature(val)
			if err != nil {
				return nil, corruptf("", "commit: author: %v", err)
			}
			c.Author = sig
		case "committer":
			sig, err := ParseSignature(val)
			if err != nil {
				return nil, corruptf("", "commit: committer: %v", err)
			}
			c.Committer = sig
		case "signature":
			c.Signature = val
		default:
			return nil, corruptf("", "commit: unknown header key %q", key)
		}
	}
	if c.TreeHash == "" {
		return nil, corruptf("", "commit: missing tree header")
	}
	return c, nil
}

// CommitSigningPayload returns the canonical bytes that are signed for a
// commit. The payload intentionally excludes the signature field itself.
func CommitSigningPayload(c *CommitObj) []byte {
	if c == nil {
		return nil
	}
	copyCommit := *c
	copyCommit.Signature = ""
	return MarshalCommit(&copyCommit)
}

// ---------------------------------------------------------------------------
// TagObj
// ---------------------------------------------------------------------------

// MarshalTag serializes a TagObj:
//
//	object H
//	type T
//	tag NAME
//	tagger Name <email> ts offset
//
//	message
func MarshalTag(t *TagObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "object %s\n", string(t.TargetHash))
	fmt.Fprintf(&buf, "type %s\n", string(t.TargetType))
	fmt.Fprintf(&buf, "tag %s\n", t.Name)
	fmt.Fprintf(&buf, "tagger %s\n", FormatSignature(t.Tagger))
	buf.WriteByte('\n')
	buf.WriteString(t.Message)
	return buf.Bytes()
}

// UnmarshalTag parses a TagObj from its serialized form.
func UnmarshalTag(data []byte) (*TagObj, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, corruptf("", "tag: missing header/message separator")
	}
	header := string(data[:idx])
	message := string(data[idx+2:])

	t := &TagObj{Message: message}
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, corruptf("", "tag: malformed header line %q", line)
		}
		switch key {
		case "object":
			t.TargetHash = Hash(val)
		case "type":
			t.TargetType = ObjectType(val)
		case "tag":
			t.Name = val
		case "tagger":
			sig, err := ParseSignature(val)
			if err != nil {
				return nil, corruptf("", "tag: tagger: %v", err)
			}
			t.Tagger = sig
		default:
			return nil, corruptf("", "tag: unknown header key %q", key)
		}
	}
	if t.TargetHash == "" {
		return nil, corruptf("", "tag: missing object header")
	}
	return t, nil
}
