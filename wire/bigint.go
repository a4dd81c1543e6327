package wire

import (
	"io"
	"math/big"
)

// Uint256Size is the wire width of a sharereq/sharereply request id
// (spec.md §6, §9: "up to 256 bits... use an arbitrary-precision
// integer type for codec correctness").
const Uint256Size = 32

// ReadUint256 reads a little-endian 256-bit unsigned integer.
func ReadUint256(r io.Reader) (*big.Int, error) {
	var buf [Uint256Size]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	beBuf := make([]byte, Uint256Size)
	for i := 0; i < Uint256Size; i++ {
		beBuf[i] = buf[Uint256Size-1-i]
	}
	return new(big.Int).SetBytes(beBuf), nil
}

// WriteUint256 writes v as a little-endian 256-bit unsigned integer.
// v must fit in 256 bits; larger values are truncated to the low 256
// bits rather than erroring, matching a fixed-width wire field.
func WriteUint256(w io.Writer, v *big.Int) error {
	be := v.Bytes()
	var buf [Uint256Size]byte
	// be is big-endian, right-aligned; copy the low Uint256Size bytes.
	n := len(be)
	if n > Uint256Size {
		be = be[n-Uint256Size:]
		n = Uint256Size
	}
	for i := 0; i < n; i++ {
		buf[i] = be[n-1-i]
	}
	_, err := w.Write(buf[:])
	return err
}
