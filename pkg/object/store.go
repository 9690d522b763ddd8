package object

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
	log "github.com/sirupsen/logrus"
)

// Store is a content-addressed loose-object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123... On disk each object is the
// zlib-compressed envelope "type len\0content"; the hash is always computed
// over the uncompressed envelope.
type Store struct {
	root string
}

// NewStore creates a Store rooted at the given directory. The objects/
// subdirectory is created lazily on first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	return filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
// It never fails; a probe of a malformed hash is simply false.
func (s *Store) Has(h Hash) bool {
	if !h.Valid() {
		return false
	}
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// Write stores an object and returns its content hash. Writing content that
// is already present is a no-op observable as success. Writes are atomic:
// data is compressed into a temp file and then renamed into place, so
// concurrent writers of the same id both succeed with identical bytes.
func (s *Store) Write(objType ObjectType, data []byte) (Hash, error) {
	h := HashObject(objType, data)

	// Fast path: already exists.
	if s.Has(h) {
		return h, nil
	}

	dir := filepath.Join(s.root, "objects", string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	zw := zlib.NewWriter(tmp)
	envelope := fmt.Sprintf("%s %d\x00", objType, len(data))
	if _, err := io.WriteString(zw, envelope); err == nil {
		_, err = zw.Write(data)
	}
	if err != nil {
		zw.Close()
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("object write: %w", err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("object write compress: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write close: %w", err)
	}

	if err := os.Rename(tmpName, s.objectPath(h)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write rename: %w", err)
	}

	log.Debugf("store: wrote %s %s (%d bytes)", objType, h, len(data))
	return h, nil
}

// Read retrieves an object by hash, returning its type and raw content.
// Every read is self-verifying: the decoded content is re-hashed and
// compared against the requested id before it is returned.
func (s *Store) Read(h Hash) (ObjectType, []byte, error) {
	if !h.Valid() {
		return "", nil, &NotFoundError{Hash: h}
	}

	f, err := os.Open(s.objectPath(h))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, &NotFoundError{Hash: h}
		}
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	defer f.Close()

	zr, err := zlib.NewReader(f)
	if err != nil {
		return "", nil, corruptf(h, "decompress: %v", err)
	}
	raw, err := io.ReadAll(zr)
	if cerr := zr.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", nil, corruptf(h, "decompress: %v", err)
	}

	objType, content, err := parseEnvelope(h, raw)
	if err != nil {
		return "", nil, err
	}

	if got := HashObject(objType, content); got != h {
		return "", nil, &HashMismatchError{Want: h, Got: got}
	}

	return objType, content, nil
}

// parseEnvelope splits "type len\0content" and validates the length field.
func parseEnvelope(h Hash, raw []byte) (ObjectType, []byte, error) {
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, corruptf(h, "invalid envelope (no NUL)")
	}
	header := string(raw[:nulIdx])
	content := raw[nulIdx+1:]

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", nil, corruptf(h, "invalid envelope header %q", header)
	}
	objType := ObjectType(parts[0])
	switch objType {
	case TypeBlob, TypeTree, TypeCommit, TypeTag:
	default:
		return "", nil, corruptf(h, "unknown object type %q", parts[0])
	}
	length, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", nil, corruptf(h, "invalid length %q", parts[1])
	}
	if len(content) != length {
		return "", nil, corruptf(h, "length mismatch (header=%d, actual=%d)", length, len(content))
	}
	return objType, content, nil
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

// WriteBlob serializes and stores a Blob.
func (s *Store) WriteBlob(b *Blob) (Hash, error) {
	return s.Write(TypeBlob, MarshalBlob(b))
}

// ReadBlob reads and deserializes a Blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	data, err := s.readTyped(h, TypeBlob)
	if err != nil {
		return nil, err
	}
	return UnmarshalBlob(data)
}

// WriteTree serializes and stores a TreeObj.
func (s *Store) WriteTree(tr *TreeObj) (Hash, error) {
	data, err := MarshalTree(tr)
	if err != nil {
		return "", err
	}
	return s.Write(TypeTree, data)
}

// ReadTree reads and deserializes a TreeObj.
func (s *Store) ReadTree(h Hash) (*TreeObj, error) {
	data, err := s.readTyped(h, TypeTree)
	if err != nil {
		return nil, err
	}
	tr, err := UnmarshalTree(data)
	if err != nil {
		return nil, &CorruptObjectError{Hash: h, Reason: err.Error()}
	}
	return tr, nil
}

// WriteCommit serializes and stores a CommitObj.
func (s *Store) WriteCommit(c *CommitObj) (Hash, error) {
	return s.Write(TypeCommit, MarshalCommit(c))
}

// ReadCommit reads and deserializes a CommitObj.
func (s *Store) ReadCommit(h Hash) (*CommitObj, error) {
	data, err := s.readTyped(h, TypeCommit)
	if err != nil {
		return nil, err
	}
	c, err := UnmarshalCommit(data)
	if err != nil {
		return nil, &CorruptObjectError{Hash: h, Reason: err.Error()}
	}
	return c, nil
}

// WriteTag serializes and stores a TagObj.
func (s *Store) WriteTag(t *TagObj) (Hash, error) {
	return s.Write(TypeTag, MarshalTag(t))
}

// ReadTag reads and deserializes a TagObj.
func (s *Store) ReadTag(h Hash) (*TagObj, error) {
	data, err := s.readTyped(h, TypeTag)
	if err != nil {
		return nil, err
	}
	t, err := UnmarshalTag(data)
	if err != nil {
		return nil, &CorruptObjectError{Hash: h, Reason: err.Error()}
	}
	return t, nil
}

func (s *Store) readTyped(h Hash, want ObjectType) ([]byte, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != want {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, objType, want)
	}
	return data, nil
}
