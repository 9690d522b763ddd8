package object

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// RawLen is the length of a raw digest in bytes.
const RawLen = sha1.Size

// HexLen is the length of a hex-encoded Hash.
const HexLen = RawLen * 2

// HashBytes computes the raw SHA-1 hash of data and returns it as a
// lowercase hex-encoded Hash.
func HashBytes(data []byte) Hash {
	sum := sha1.Sum(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// HashObject computes the SHA-1 of the envelope "type len\0content". The
// digest is always taken over the uncompressed canonical form, so the
// storage encoding never affects identifiers.
func HashObject(objType ObjectType, data []byte) Hash {
	header := fmt.Sprintf("%s %d\x00", objType, len(data))
	h := sha1.New()
	h.Write([]byte(header))
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// Valid reports whether h is a well-formed lowercase hex digest.
func (h Hash) Valid() bool {
	if len(h) != HexLen {
		return false
	}
	for i := 0; i < len(h); i++ {
		c := h[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Raw decodes h into its raw digest bytes.
func (h Hash) Raw() ([]byte, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("invalid object hash %q", string(h))
	}
	return hex.DecodeString(string(h))
}

// HashFromRaw encodes raw digest bytes as a Hash.
func HashFromRaw(raw []byte) (Hash, error) {
	if len(raw) != RawLen {
		return "", fmt.Errorf("invalid raw hash length %d", len(raw))
	}
	return Hash(hex.EncodeToString(raw)), nil
}
