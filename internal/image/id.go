// Package image provides ID, the content-addressed identity of a loaded
// program image, used as the key into pkg/imagecache: a fixed-size digest
// with a base58 text form.
package image

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// IDSize is the digest length in bytes (SHA-256).
const IDSize = 32

// ErrInvalidID is returned when a base58 string does not decode to IDSize
// bytes.
var ErrInvalidID = errors.New("invalid image id: must be 32 bytes")

// ID is the SHA-256 digest of a program image's raw bytecode file,
// identifying it for caching and replay.
type ID [IDSize]byte

// IDFromBytes hashes a raw program image file into its ID.
func IDFromBytes(raw []byte) ID {
	return ID(sha256.Sum256(raw))
}

// IDFromBase58 parses a base58-encoded ID.
func IDFromBase58(s string) (ID, error) {
	var id ID
	data, err := base58.Decode(s)
	if err != nil {
		return id, fmt.Errorf("base58 decode: %w", err)
	}
	if len(data) != IDSize {
		return id, ErrInvalidID
	}
	copy(id[:], data)
	return id, nil
}

// String returns the base58-encoded representation.
func (id ID) String() string {
	return base58.Encode(id[:])
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id == ID{}
}
