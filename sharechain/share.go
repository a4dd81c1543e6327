package sharechain

import "github.com/p2pool-go/sharechain/chainhash"

// Share is the store's view of a share-chain element. The store treats
// a share as opaque beyond these accessors; everything else (payout
// trees, coinbase construction, proof-of-work target) is the external
// share constructor's concern (chainio.ShareConstructor).
type Share interface {
	Hash() chainhash.Hash
	AbsHeight() uint32
	PreviousShareHash() chainhash.Hash
	NewTransactionHashes() []chainhash.Hash
	Timestamp() uint64
	Work() uint64
	MinWork() uint64
	Validity() bool
	Version() uint64
}
