package wire

import "io"

// ShareWrapper is a single entry of a shares container: a version tag
// and the opaque, version-specific share bytes (spec.md §3 "VERSION:
// share-format version tag used in the on-wire shares container";
// §6 "share constructor": given raw payload bytes and a version tag,
// produces a typed BaseShare).
type ShareWrapper struct {
	Version  uint64
	Contents []byte
}

func (s *ShareWrapper) encode(w io.Writer) error {
	if err := WriteVarInt(w, s.Version); err != nil {
		return err
	}
	return writeVarBytes(w, s.Contents)
}

func (s *ShareWrapper) decode(r io.Reader) error {
	v, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	s.Version = v
	s.Contents, err = readVarBytes(r)
	return err
}

// SharesContainer is the repeated {version, contents} list shared by
// the standalone shares message and the wrapper field of sharereply
// (spec.md §4.B).
type SharesContainer struct {
	Shares []ShareWrapper
}

func (c *SharesContainer) encode(w io.Writer) error {
	if err := WriteVarInt(w, uint64(len(c.Shares))); err != nil {
		return err
	}
	for i := range c.Shares {
		if err := c.Shares[i].encode(w); err != nil {
			return err
		}
	}
	return nil
}

func (c *SharesContainer) decode(r io.Reader) error {
	n, err := readCount(r)
	if err != nil {
		return err
	}
	c.Shares = make([]ShareWrapper, n)
	for i := range c.Shares {
		if err := c.Shares[i].decode(r); err != nil {
			return err
		}
	}
	return nil
}

// MsgShares carries a list of wrapped shares (spec.md §4.B).
type MsgShares struct {
	SharesContainer
}

func (m *MsgShares) Command() string          { return CmdShares }
func (m *MsgShares) Encode(w io.Writer) error { return m.SharesContainer.encode(w) }
func (m *MsgShares) Decode(r io.Reader) error { return m.SharesContainer.decode(r) }
