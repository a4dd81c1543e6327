package wire

import (
	"io"
	"math/big"
)

// Sharereply result codes (spec.md §4.D Request/reply round-trip, §8).
const (
	ShareReplyOK       uint8 = 0
	ShareReplyNotFound uint8 = 2
)

// MsgShareReply answers a sharereq (spec.md §4.B, §4.E).
type MsgShareReply struct {
	Id      *big.Int
	Result  uint8
	Wrapper SharesContainer
}

func (m *MsgShareReply) Command() string { return CmdShareReply }

func (m *MsgShareReply) Encode(w io.Writer) error {
	if err := WriteUint256(w, m.Id); err != nil {
		return err
	}
	if err := writeUint8(w, m.Result); err != nil {
		return err
	}
	return m.Wrapper.encode(w)
}

func (m *MsgShareReply) Decode(r io.Reader) error {
	var err error
	if m.Id, err = ReadUint256(r); err != nil {
		return err
	}
	if m.Result, err = readUint8(r); err != nil {
		return err
	}
	return m.Wrapper.decode(r)
}
