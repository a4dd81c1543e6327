package sharechain

import "github.com/p2pool-go/sharechain/chainhash"

// Gap is a contiguous missing window below a known share.
type Gap struct {
	Descendent       chainhash.Hash
	DescendentHeight uint32
	Length           uint32
}
