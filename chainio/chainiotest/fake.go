// Package chainiotest provides in-memory fakes of the chainio
// collaborator interfaces for tests that exercise the coordinator and
// sharechain packages without a real blockchain codec or persister.
package chainiotest

import (
	"encoding/binary"
	"errors"

	"github.com/p2pool-go/sharechain/chainhash"
	"github.com/p2pool-go/sharechain/chainio"
	"github.com/p2pool-go/sharechain/sharechain"
)

// Share is a minimal sharechain.Share used by tests: it encodes its
// fields as a fixed layout so ShareConstructor round-trips it.
type Share struct {
	ShareHash chainhash.Hash
	Height    uint32
	Prev      chainhash.Hash
	TxHashes  []chainhash.Hash
	Ts        uint64
	W         uint64
	MinW      uint64
	Valid     bool
	Ver       uint64
}

func (s *Share) Hash() chainhash.Hash                   { return s.ShareHash }
func (s *Share) AbsHeight() uint32                      { return s.Height }
func (s *Share) PreviousShareHash() chainhash.Hash      { return s.Prev }
func (s *Share) NewTransactionHashes() []chainhash.Hash { return s.TxHashes }
func (s *Share) Timestamp() uint64                      { return s.Ts }
func (s *Share) Work() uint64                           { return s.W }
func (s *Share) MinWork() uint64                        { return s.MinW }
func (s *Share) Validity() bool                         { return s.Valid }
func (s *Share) Version() uint64                        { return s.Ver }

// Encode serialises a Share into the raw bytes a ShareWrapper carries
// on the wire: hash, absheight, prev hash, timestamp, work, minwork.
func (s *Share) Encode() []byte {
	buf := make([]byte, 0, 32+4+32+8+8+8)
	buf = append(buf, s.ShareHash[:]...)
	var height [4]byte
	binary.LittleEndian.PutUint32(height[:], s.Height)
	buf = append(buf, height[:]...)
	buf = append(buf, s.Prev[:]...)
	var nums [24]byte
	binary.LittleEndian.PutUint64(nums[0:8], s.Ts)
	binary.LittleEndian.PutUint64(nums[8:16], s.W)
	binary.LittleEndian.PutUint64(nums[16:24], s.MinW)
	buf = append(buf, nums[:]...)
	return buf
}

// ShareConstructor decodes the layout Encode produces.
type ShareConstructor struct{}

func (ShareConstructor) BuildShare(version uint64, contents []byte) (sharechain.Share, error) {
	const minLen = 32 + 4 + 32 + 24
	if len(contents) < minLen {
		return nil, errors.New("chainiotest: truncated share payload")
	}
	s := &Share{Ver: version, Valid: true}
	copy(s.ShareHash[:], contents[0:32])
	s.Height = binary.LittleEndian.Uint32(contents[32:36])
	copy(s.Prev[:], contents[36:68])
	s.Ts = binary.LittleEndian.Uint64(contents[68:76])
	s.W = binary.LittleEndian.Uint64(contents[76:84])
	s.MinW = binary.LittleEndian.Uint64(contents[84:92])
	return s, nil
}

func (ShareConstructor) EncodeShare(s sharechain.Share) (uint64, []byte, error) {
	fs, ok := s.(*Share)
	if !ok {
		return 0, nil, errors.New("chainiotest: not a chainiotest.Share")
	}
	return fs.Ver, fs.Encode(), nil
}

// SharePersister records every batch it is given.
type SharePersister struct {
	Saved [][]sharechain.Share
}

func (p *SharePersister) SaveShares(shares []sharechain.Share) {
	p.Saved = append(p.Saved, shares)
}

// BlockCodec treats headers/transactions as opaque passthrough bytes.
type BlockCodec struct{}

func (BlockCodec) DecodeHeader(raw []byte) (chainio.BlockHeader, error) { return raw, nil }
func (BlockCodec) TransactionHash(raw []byte) ([]byte, error)           { return raw, nil }
func (BlockCodec) TransactionToHex(raw []byte) (string, error)          { return string(raw), nil }
