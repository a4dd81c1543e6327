// Package chainhash defines the 32-byte identifier used throughout the
// wire protocol and the share-chain store for both share hashes and
// transaction hashes (spec.md §3). Adapted from the teacher's
// chaincfg/chainhash package, trimmed to what this module needs: no
// BIP-340 tagged hashing (no Schnorr signatures in this protocol), no
// legacy JSON array encoding.
package chainhash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Size is the number of bytes in a Hash.
const Size = 32

// Hash is a 32-byte identifier: a share hash or a transaction hash.
type Hash [Size]byte

// MaxStringSize is the maximum length of a hash string.
const MaxStringSize = Size * 2

// ErrHashStrSize is returned when a hash string is longer than MaxStringSize.
var ErrHashStrSize = fmt.Errorf("max hash string length is %v bytes", MaxStringSize)

// String returns the hash as a plain (not byte-reversed) hex string.
// Unlike Bitcoin's block/tx hashes this protocol has no established
// reversed-display convention, so this renders the bytes in wire order,
// which is what spec.md §3 means by "rendered as hex string for map
// keys".
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// CloneBytes returns a copy of the hash bytes.
func (h *Hash) CloneBytes() []byte {
	b := make([]byte, Size)
	copy(b, h[:])
	return b
}

// SetBytes sets the hash from b, which must be exactly Size bytes.
func (h *Hash) SetBytes(b []byte) error {
	if len(b) != Size {
		return fmt.Errorf("invalid hash length %v, expected %v", len(b), Size)
	}
	copy(h[:], b)
	return nil
}

// IsEqual reports whether h and target represent the same hash.
func (h *Hash) IsEqual(target *Hash) bool {
	if h == nil && target == nil {
		return true
	}
	if h == nil || target == nil {
		return false
	}
	return *h == *target
}

// IsZero reports whether h is the all-zero "canonical zero hash" (used
// by the version handshake's bestShareHash field per spec.md §9).
func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *Hash) UnmarshalJSON(input []byte) error {
	var s string
	if err := json.Unmarshal(input, &s); err != nil {
		return err
	}
	parsed, err := NewFromStr(s)
	if err != nil {
		return err
	}
	*h = *parsed
	return nil
}

// New returns a new Hash from b, which must be exactly Size bytes.
func New(b []byte) (*Hash, error) {
	var h Hash
	if err := h.SetBytes(b); err != nil {
		return nil, err
	}
	return &h, nil
}

// NewFromStr parses a plain hex string into a Hash.
func NewFromStr(s string) (*Hash, error) {
	if len(s) > MaxStringSize {
		return nil, ErrHashStrSize
	}
	if len(s)%2 != 0 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	var h Hash
	copy(h[Size-len(b):], b)
	return &h, nil
}

// Sum256 returns sha256(b) as a Hash.
func Sum256(b []byte) Hash {
	return Hash(sha256.Sum256(b))
}

// DoubleSum256 returns sha256(sha256(b)) as a Hash. This is the
// checksum function used by the framing codec (spec.md §4.A).
func DoubleSum256(b []byte) Hash {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second
}
