package wire

import (
	"io"
	"math/big"

	"github.com/p2pool-go/sharechain/chainhash"
)

// MsgShareReq requests up to Parents ancestors of each hash in Hashes,
// stopping early at any hash present in Stops (spec.md §4.B, §4.E).
type MsgShareReq struct {
	Id      *big.Int
	Hashes  []chainhash.Hash
	Parents uint32
	Stops   []chainhash.Hash
}

func (m *MsgShareReq) Command() string { return CmdShareReq }

func (m *MsgShareReq) Encode(w io.Writer) error {
	if err := WriteUint256(w, m.Id); err != nil {
		return err
	}
	if err := writeHashList(w, m.Hashes); err != nil {
		return err
	}
	if err := writeUint32(w, m.Parents); err != nil {
		return err
	}
	return writeHashList(w, m.Stops)
}

func (m *MsgShareReq) Decode(r io.Reader) error {
	var err error
	if m.Id, err = ReadUint256(r); err != nil {
		return err
	}
	if m.Hashes, err = readHashList(r); err != nil {
		return err
	}
	if m.Parents, err = readUint32(r); err != nil {
		return err
	}
	m.Stops, err = readHashList(r)
	return err
}
