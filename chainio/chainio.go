// Package chainio declares the external collaborator interfaces the
// coordinator and chain store consume but never implement themselves
// (spec.md §6): the upstream blockchain codec, the share constructor
// that turns wire bytes into a sharechain.Share, the durable share
// persister, and the value types the mining-template feed pushes.
// Production wiring supplies concrete adapters; the chainiotest
// subpackage supplies in-memory fakes.
package chainio

import "github.com/p2pool-go/sharechain/sharechain"

// BlockHeader is whatever the upstream chain's block header decodes
// to; the core treats it as opaque.
type BlockHeader interface{}

// BlockCodec decodes the serialised headers carried in bestblock
// messages and exposes transaction identity helpers used when
// resolving tx references.
type BlockCodec interface {
	DecodeHeader(raw []byte) (BlockHeader, error)
	TransactionHash(raw []byte) ([]byte, error)
	TransactionToHex(raw []byte) (string, error)
}

// ShareConstructor turns a wrapped share's raw payload and version tag
// into a typed Share the chain store can index, and back again when
// the coordinator needs to serve a sharereq.
type ShareConstructor interface {
	BuildShare(version uint64, contents []byte) (sharechain.Share, error)
	EncodeShare(s sharechain.Share) (version uint64, contents []byte, err error)
}

// SharePersister durably archives accepted shares. Calls are
// fire-and-forget from the coordinator's perspective; persistence
// failures are logged, never surfaced as protocol errors.
type SharePersister interface {
	SaveShares(shares []sharechain.Share)
}

// Transaction is the shape the mining-template feed pushes.
type Transaction struct {
	Txid string
	Hash string
	Data string
}

// BlockTemplate is what updateMiningTemplate consumes (spec.md §4.E,
// §6 "Mining-template feed").
type BlockTemplate struct {
	Transactions []Transaction
}
