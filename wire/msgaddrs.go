package wire

import "io"

// MsgAddrs carries a list of peer addresses (spec.md §4.B).
type MsgAddrs struct {
	Addrs []NetAddress
}

func (m *MsgAddrs) Command() string { return CmdAddrs }

func (m *MsgAddrs) Encode(w io.Writer) error {
	if err := WriteVarInt(w, uint64(len(m.Addrs))); err != nil {
		return err
	}
	for i := range m.Addrs {
		if err := m.Addrs[i].Encode(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *MsgAddrs) Decode(r io.Reader) error {
	n, err := readCount(r)
	if err != nil {
		return err
	}
	m.Addrs = make([]NetAddress, n)
	for i := range m.Addrs {
		if err := m.Addrs[i].Decode(r); err != nil {
			return err
		}
	}
	return nil
}

// MsgAddrMe carries the sender's own listening port (spec.md §4.B).
type MsgAddrMe struct {
	Port uint16
}

func (m *MsgAddrMe) Command() string { return CmdAddrMe }

func (m *MsgAddrMe) Encode(w io.Writer) error {
	return writeUint16(w, m.Port)
}

func (m *MsgAddrMe) Decode(r io.Reader) error {
	var err error
	m.Port, err = readUint16(r)
	return err
}

// MsgGetAddrs requests count peer addresses (spec.md §4.B).
type MsgGetAddrs struct {
	Count uint32
}

func (m *MsgGetAddrs) Command() string { return CmdGetAddrs }

func (m *MsgGetAddrs) Encode(w io.Writer) error {
	return writeUint32(w, m.Count)
}

func (m *MsgGetAddrs) Decode(r io.Reader) error {
	var err error
	m.Count, err = readUint32(r)
	return err
}
