package wire

import (
	"io"

	"github.com/p2pool-go/sharechain/chainhash"
)

// MsgRememberTx carries two parallel lists (spec.md §4.B): Hashes refer
// to transactions the receiver has already advertised to the sender via
// have_tx, and Txs are full transaction bodies sent inline.
type MsgRememberTx struct {
	Hashes []chainhash.Hash
	Txs    []TransactionTemplate
}

func (m *MsgRememberTx) Command() string { return CmdRememberTx }

func (m *MsgRememberTx) Encode(w io.Writer) error {
	if err := writeHashList(w, m.Hashes); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(m.Txs))); err != nil {
		return err
	}
	for i := range m.Txs {
		if err := m.Txs[i].encode(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *MsgRememberTx) Decode(r io.Reader) error {
	var err error
	if m.Hashes, err = readHashList(r); err != nil {
		return err
	}
	n, err := readCount(r)
	if err != nil {
		return err
	}
	m.Txs = make([]TransactionTemplate, n)
	for i := range m.Txs {
		if err := m.Txs[i].decode(r); err != nil {
			return err
		}
	}
	return nil
}
