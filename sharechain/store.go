package sharechain

import (
	"github.com/p2pool-go/sharechain/chainhash"
	"github.com/p2pool-go/sharechain/internal/log"
)

// BaseChainLength is 24*60*60/10: one day of shares at a 10-second
// target. MaxChainLength is the sliding-window ceiling the store
// evicts below.
const (
	BaseChainLength uint32 = 8640
	MaxChainLength  uint32 = 17280
)

// ChainStore is the process-wide, dual-indexed share-chain store
// (spec.md §4.D). It is not safe for concurrent use: callers
// (the coordinator) confine all access to the single cooperative
// execution context described in spec.md §5, the same way the
// teacher's BlockChain confines chain mutation behind chainLock but
// here there is exactly one goroutine touching it at all, so no lock
// is needed at all.
type ChainStore struct {
	hashIndexer      map[chainhash.Hash]uint32
	absheightIndexer map[uint32][]Share

	oldest Share
	newest Share

	verified     bool
	calculatable bool

	notifications []NotificationCallback
}

// NewChainStore returns an empty store.
func NewChainStore() *ChainStore {
	return &ChainStore{
		hashIndexer:      make(map[chainhash.Hash]uint32),
		absheightIndexer: make(map[uint32][]Share),
	}
}

func (c *ChainStore) Newest() Share      { return c.newest }
func (c *ChainStore) Oldest() Share      { return c.oldest }
func (c *ChainStore) Verified() bool     { return c.verified }
func (c *ChainStore) Calculatable() bool { return c.calculatable }

// Get returns the main-chain (index 0) share at hash's height, if any.
func (c *ChainStore) Get(hash chainhash.Hash) (Share, bool) {
	height, ok := c.hashIndexer[hash]
	if !ok {
		return nil, false
	}
	list := c.absheightIndexer[height]
	if len(list) == 0 {
		return nil, false
	}
	return list[0], true
}

// AtHeight returns the share list at height, index 0 being the
// current main-chain share.
func (c *ChainStore) AtHeight(height uint32) []Share {
	return c.absheightIndexer[height]
}

// Append is the central algorithm (spec.md §4.D). It returns true iff
// share is newly accepted as a main-chain candidate worth
// broadcasting to peers.
func (c *ChainStore) Append(share Share) bool {
	if !share.Validity() {
		log.Chain.Debugf("reject invalid share %s", share.Hash())
		return false
	}

	height := share.AbsHeight()
	for _, existing := range c.absheightIndexer[height] {
		if existing.Hash() == share.Hash() {
			return false
		}
	}

	c.hashIndexer[share.Hash()] = height
	c.absheightIndexer[height] = append(c.absheightIndexer[height], share)

	if c.oldest == nil || height < c.oldest.AbsHeight() {
		c.oldest = share
	}

	if c.newest == nil {
		c.newest = share
		return true
	}

	switch {
	case height > c.newest.AbsHeight():
		return c.appendAboveNewest(share, height)
	case height == c.newest.AbsHeight():
		c.notify(NTCandidateArrived, share)
		return true
	default:
		return c.appendBelowNewest(share, height)
	}
}

func (c *ChainStore) appendAboveNewest(share Share, height uint32) bool {
	c.newest = share
	c.notify(NTNewestChanged, share)
	c.cleanDeprecations()

	below := c.absheightIndexer[height-1]
	switch {
	case len(below) == 0:
		c.notify(NTGapsFound, []Gap{{Descendent: share.Hash(), DescendentHeight: height, Length: 1}})
	case len(below) == 1:
		// parent already settled, nothing to reconcile
	default:
		idx := -1
		for i, s := range below {
			if s.Hash() == share.PreviousShareHash() {
				idx = i
				break
			}
		}
		if idx < 0 {
			c.notify(NTGapsFound, []Gap{{Descendent: share.Hash(), DescendentHeight: height, Length: 1}})
			break
		}
		parent := below[idx]
		orphans := make([]Share, 0, len(below)-1)
		for i, s := range below {
			if i != idx {
				orphans = append(orphans, s)
			}
		}
		c.absheightIndexer[height-1] = append([]Share{parent}, orphans...)
		c.notify(NTOrphansFound, orphans)
	}
	return true
}

func (c *ChainStore) appendBelowNewest(share Share, height uint32) bool {
	list := c.absheightIndexer[height]
	if len(list) == 1 {
		return false
	}

	above := c.absheightIndexer[height+1]
	hasDescendent := false
	for _, s := range above {
		if s.PreviousShareHash() == share.Hash() {
			hasDescendent = true
			break
		}
	}
	if !hasDescendent {
		c.notify(NTDeadArrived, share)
		c.removeShare(share, height)
		return false
	}

	idx := -1
	for i, s := range list {
		if s.Hash() == share.Hash() {
			idx = i
			break
		}
	}
	others := make([]Share, 0, len(list)-1)
	for i, s := range list {
		if i != idx {
			others = append(others, s)
		}
	}
	c.absheightIndexer[height] = append([]Share{share}, others...)
	c.notify(NTOrphansFound, others)
	return false
}

func (c *ChainStore) removeShare(share Share, height uint32) {
	delete(c.hashIndexer, share.Hash())
	list := c.absheightIndexer[height]
	for i, s := range list {
		if s.Hash() == share.Hash() {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(c.absheightIndexer, height)
	} else {
		c.absheightIndexer[height] = list
	}
	if c.oldest != nil && c.oldest.Hash() == share.Hash() {
		c.oldest = c.findOldestFrom(height + 1)
	}
}

// cleanDeprecations drops the shares at the current oldest height once
// the window exceeds MaxChainLength. One height per call; sustained
// ingestion advances oldest on its own.
func (c *ChainStore) cleanDeprecations() {
	if c.oldest == nil || c.newest == nil {
		return
	}
	if c.newest.AbsHeight()-c.oldest.AbsHeight() < MaxChainLength {
		return
	}
	oldHeight := c.oldest.AbsHeight()
	for _, s := range c.absheightIndexer[oldHeight] {
		delete(c.hashIndexer, s.Hash())
	}
	delete(c.absheightIndexer, oldHeight)
	c.oldest = c.findOldestFrom(oldHeight + 1)
}

func (c *ChainStore) findOldestFrom(start uint32) Share {
	if c.newest == nil {
		return nil
	}
	for h := start; h <= c.newest.AbsHeight(); h++ {
		if list := c.absheightIndexer[h]; len(list) > 0 {
			return list[0]
		}
	}
	return nil
}

// Verify walks backward from newest requiring that each main-chain
// share's previousShareHash chains to the one below it. It latches
// calculatable the first time the whole known window is consistent
// and at least BaseChainLength shares deep, firing
// NTChainCalculatable exactly once.
func (c *ChainStore) Verify() bool {
	if c.newest == nil || c.oldest == nil {
		c.verified = false
		return false
	}

	consistent := true
	verifiedCount := uint32(1)
	expected := c.newest.PreviousShareHash()
	for h := c.newest.AbsHeight(); h > c.oldest.AbsHeight(); {
		h--
		list, ok := c.absheightIndexer[h]
		if !ok || len(list) == 0 || list[0].Hash() != expected {
			consistent = false
			break
		}
		verifiedCount++
		expected = list[0].PreviousShareHash()
	}

	c.verified = consistent
	windowLength := c.newest.AbsHeight() - c.oldest.AbsHeight() + 1
	if !c.calculatable && consistent && verifiedCount == windowLength && verifiedCount >= BaseChainLength {
		c.calculatable = true
		c.notify(NTChainCalculatable, nil)
	}
	return consistent
}

// CheckGaps walks the known window in descending height order and
// reports every discontinuity, plus a terminal gap below oldest when
// the window is shorter than BaseChainLength.
func (c *ChainStore) CheckGaps() []Gap {
	if c.newest == nil || c.oldest == nil {
		return nil
	}

	var heights []uint32
	for h := c.newest.AbsHeight(); ; h-- {
		if list, ok := c.absheightIndexer[h]; ok && len(list) > 0 {
			heights = append(heights, h)
		}
		if h == c.oldest.AbsHeight() {
			break
		}
	}

	var gaps []Gap
	for i := 0; i+1 < len(heights); i++ {
		descendentHeight := heights[i]
		ancestorHeight := heights[i+1]
		descendent := c.absheightIndexer[descendentHeight][0]
		ancestor := c.absheightIndexer[ancestorHeight][0]
		if descendentHeight-ancestorHeight != 1 || ancestor.Hash() != descendent.PreviousShareHash() {
			gaps = append(gaps, Gap{
				Descendent:       descendent.Hash(),
				DescendentHeight: descendentHeight,
				Length:           descendentHeight - ancestorHeight,
			})
		}
	}

	windowLength := uint32(len(heights))
	if windowLength < BaseChainLength && c.oldest != nil {
		gaps = append(gaps, Gap{
			Descendent:       c.oldest.Hash(),
			DescendentHeight: c.oldest.AbsHeight(),
			Length:           BaseChainLength - windowLength,
		})
	}

	if len(gaps) > 0 {
		c.notify(NTGapsFound, gaps)
	}
	return gaps
}
