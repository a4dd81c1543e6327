package wire

import "io"

// MsgPing carries no payload (spec.md §4.B).
type MsgPing struct{}

func (m *MsgPing) Command() string          { return CmdPing }
func (m *MsgPing) Encode(w io.Writer) error { return nil }
func (m *MsgPing) Decode(r io.Reader) error { return nil }

// MsgPong carries no payload (spec.md §4.B).
type MsgPong struct{}

func (m *MsgPong) Command() string          { return CmdPong }
func (m *MsgPong) Encode(w io.Writer) error { return nil }
func (m *MsgPong) Decode(r io.Reader) error { return nil }
