package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Compact-size variable-length integer encoding, the same scheme the
// teacher's wire package uses for list and string lengths:
//   < 0xfd            -> 1 byte
//   <= 0xffff          -> 0xfd + 2 bytes LE
//   <= 0xffffffff      -> 0xfe + 4 bytes LE
//   otherwise          -> 0xff + 8 bytes LE

// ReadVarInt reads a variable-length integer from r.
func ReadVarInt(r io.Reader) (uint64, error) {
	var prefix [1]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return 0, err
	}
	switch prefix[0] {
	case 0xff:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(b[:]), nil
	case 0xfe:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint32(b[:])), nil
	case 0xfd:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint16(b[:])), nil
	default:
		return uint64(prefix[0]), nil
	}
}

// WriteVarInt writes v to w as a variable-length integer.
func WriteVarInt(w io.Writer, v uint64) error {
	switch {
	case v < 0xfd:
		_, err := w.Write([]byte{byte(v)})
		return err
	case v <= 0xffff:
		buf := make([]byte, 3)
		buf[0] = 0xfd
		binary.LittleEndian.PutUint16(buf[1:], uint16(v))
		_, err := w.Write(buf)
		return err
	case v <= 0xffffffff:
		buf := make([]byte, 5)
		buf[0] = 0xfe
		binary.LittleEndian.PutUint32(buf[1:], uint32(v))
		_, err := w.Write(buf)
		return err
	default:
		buf := make([]byte, 9)
		buf[0] = 0xff
		binary.LittleEndian.PutUint64(buf[1:], v)
		_, err := w.Write(buf)
		return err
	}
}

// MaxVarIntListLength bounds counts decoded from the wire before any
// allocation, independent of MaxPayloadLength, so a truncated-but-huge
// count field cannot itself cause an oversized allocation.
const MaxVarIntListLength = 1 << 20

// readCount reads a var-int count and rejects unreasonable values.
func readCount(r io.Reader) (uint64, error) {
	n, err := ReadVarInt(r)
	if err != nil {
		return 0, err
	}
	if n > MaxVarIntListLength {
		return 0, fmt.Errorf("wire: list count %d exceeds maximum %d", n, MaxVarIntListLength)
	}
	return n, nil
}
