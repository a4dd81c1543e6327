package wire

import "io"

// MsgBestBlock carries a serialised upstream block header (spec.md
// §4.B). Header is opaque here; decoding it is the external
// blockchain codec's job (spec.md §6, chainio.BlockCodec).
type MsgBestBlock struct {
	Header []byte
}

func (m *MsgBestBlock) Command() string { return CmdBestBlock }

func (m *MsgBestBlock) Encode(w io.Writer) error {
	return writeVarBytes(w, m.Header)
}

func (m *MsgBestBlock) Decode(r io.Reader) error {
	var err error
	m.Header, err = readVarBytes(r)
	return err
}
