package sharechain

import "github.com/p2pool-go/sharechain/chainhash"

// Direction controls which way Subchain steps through heights.
type Direction int

const (
	Backward Direction = -1
	Forward  Direction = 1
)

// Iterator yields successive shares from a Subchain walk. The second
// return value is false once the walk is exhausted or hits a missing
// height; callers should stop pulling at that point.
type Iterator func() (Share, bool)

// Subchain returns a lazy walk of up to length shares starting at
// startHash and stepping by direction, always reading the main-chain
// (index 0) share at each height. The walk stops early the first time
// a height in range has no stored share.
func (c *ChainStore) Subchain(startHash chainhash.Hash, length int, direction Direction) Iterator {
	height, ok := c.hashIndexer[startHash]
	if !ok {
		return func() (Share, bool) { return nil, false }
	}

	remaining := length
	cur := int64(height)
	step := int64(direction)

	return func() (Share, bool) {
		if remaining <= 0 || cur < 0 {
			return nil, false
		}
		list, exists := c.absheightIndexer[uint32(cur)]
		if !exists || len(list) == 0 {
			remaining = 0
			return nil, false
		}
		share := list[0]
		cur += step
		remaining--
		return share, true
	}
}
