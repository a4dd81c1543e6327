package wire

import (
	"io"

	"github.com/p2pool-go/sharechain/chainhash"
)

// MsgVersion is the handshake message exchanged by both sides on
// connect (spec.md §4.B, §4.C).
type MsgVersion struct {
	Services        uint64
	ProtocolVersion uint32
	SubVersion      string
	AddrTo          NetAddress
	AddrFrom        NetAddress
	Nonce           uint64
	BestShareHash   chainhash.Hash
}

func (m *MsgVersion) Command() string { return CmdVersion }

func (m *MsgVersion) Encode(w io.Writer) error {
	if err := writeUint64(w, m.Services); err != nil {
		return err
	}
	if err := writeUint32(w, m.ProtocolVersion); err != nil {
		return err
	}
	if err := writeVarString(w, m.SubVersion); err != nil {
		return err
	}
	if err := m.AddrTo.Encode(w); err != nil {
		return err
	}
	if err := m.AddrFrom.Encode(w); err != nil {
		return err
	}
	if err := writeUint64(w, m.Nonce); err != nil {
		return err
	}
	return writeHash(w, m.BestShareHash)
}

func (m *MsgVersion) Decode(r io.Reader) error {
	var err error
	if m.Services, err = readUint64(r); err != nil {
		return err
	}
	if m.ProtocolVersion, err = readUint32(r); err != nil {
		return err
	}
	if m.SubVersion, err = readVarString(r); err != nil {
		return err
	}
	if err = m.AddrTo.Decode(r); err != nil {
		return err
	}
	if err = m.AddrFrom.Decode(r); err != nil {
		return err
	}
	if m.Nonce, err = readUint64(r); err != nil {
		return err
	}
	m.BestShareHash, err = readHash(r)
	return err
}
