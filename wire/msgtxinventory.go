package wire

import (
	"io"

	"github.com/p2pool-go/sharechain/chainhash"
)

// MsgHaveTx advertises transactions the sender can describe (spec.md §4.B).
type MsgHaveTx struct {
	Hashes []chainhash.Hash
}

func (m *MsgHaveTx) Command() string          { return CmdHaveTx }
func (m *MsgHaveTx) Encode(w io.Writer) error { return writeHashList(w, m.Hashes) }
func (m *MsgHaveTx) Decode(r io.Reader) (err error) {
	m.Hashes, err = readHashList(r)
	return err
}

// MsgLosingTx retracts previously-advertised transactions (spec.md §4.B).
type MsgLosingTx struct {
	Hashes []chainhash.Hash
}

func (m *MsgLosingTx) Command() string          { return CmdLosingTx }
func (m *MsgLosingTx) Encode(w io.Writer) error { return writeHashList(w, m.Hashes) }
func (m *MsgLosingTx) Decode(r io.Reader) (err error) {
	m.Hashes, err = readHashList(r)
	return err
}

// MsgForgetTx tells the peer to drop transactions it was asked to
// remember, along with their aggregate byte size (spec.md §4.B).
type MsgForgetTx struct {
	Hashes    []chainhash.Hash
	TotalSize uint64
}

func (m *MsgForgetTx) Command() string { return CmdForgetTx }

func (m *MsgForgetTx) Encode(w io.Writer) error {
	if err := writeHashList(w, m.Hashes); err != nil {
		return err
	}
	return writeUint64(w, m.TotalSize)
}

func (m *MsgForgetTx) Decode(r io.Reader) error {
	var err error
	if m.Hashes, err = readHashList(r); err != nil {
		return err
	}
	m.TotalSize, err = readUint64(r)
	return err
}

// TransactionTemplate is the pending-transaction representation carried
// inline in remember_tx (spec.md §3). Data is the hex-encoded
// transaction body; parsing it is the external blockchain codec's job
// (spec.md §6), not this package's. The pair (Txid, Hash) exists
// because some chains distinguish wtxid from txid; lookup keys are
// Txid||Hash (spec.md §3).
type TransactionTemplate struct {
	Txid string
	Hash chainhash.Hash
	Data string
}

// Key returns the composite lookup key spec.md §3 specifies for
// TransactionTemplate: txid || hash.
func (t *TransactionTemplate) Key() string {
	return t.Txid + t.Hash.String()
}

func (t *TransactionTemplate) encode(w io.Writer) error {
	if err := writeVarString(w, t.Txid); err != nil {
		return err
	}
	if err := writeHash(w, t.Hash); err != nil {
		return err
	}
	return writeVarString(w, t.Data)
}

func (t *TransactionTemplate) decode(r io.Reader) error {
	var err error
	if t.Txid, err = readVarString(r); err != nil {
		return err
	}
	if t.Hash, err = readHash(r); err != nil {
		return err
	}
	t.Data, err = readVarString(r)
	return err
}
