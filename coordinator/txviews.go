package coordinator

import (
	"github.com/p2pool-go/sharechain/chainhash"
	"github.com/p2pool-go/sharechain/network"
	"github.com/p2pool-go/sharechain/wire"
)

func cloneTxMap(m map[chainhash.Hash]wire.TransactionTemplate) map[chainhash.Hash]wire.TransactionTemplate {
	out := make(map[chainhash.Hash]wire.TransactionTemplate, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func diffTxMaps(old, updated map[chainhash.Hash]wire.TransactionTemplate) (added, removed map[chainhash.Hash]wire.TransactionTemplate) {
	added = make(map[chainhash.Hash]wire.TransactionTemplate)
	removed = make(map[chainhash.Hash]wire.TransactionTemplate)
	for h, tx := range updated {
		if _, ok := old[h]; !ok {
			added[h] = tx
		}
	}
	for h, tx := range old {
		if _, ok := updated[h]; !ok {
			removed[h] = tx
		}
	}
	return added, removed
}

// setKnownTxs installs updated as the current knownTxs view, computing
// the added/removed diff and broadcasting have_tx/losing_tx (spec.md
// §4.E "knownTxs view changes"). The removed snapshot is pushed onto
// knownTxsCaches and trimmed to knownTxsCachesCapacity.
func (c *Coordinator) setKnownTxs(updated map[chainhash.Hash]wire.TransactionTemplate) {
	added, removed := diffTxMaps(c.knownTxs, updated)
	c.knownTxs = updated

	if len(added) > 0 {
		hashes := make([]chainhash.Hash, 0, len(added))
		for h := range added {
			hashes = append(hashes, h)
		}
		c.broadcast(nil, func(p *network.Peer) { p.SendHaveTx(hashes) })
	}

	if len(removed) > 0 {
		hashes := make([]chainhash.Hash, 0, len(removed))
		for h := range removed {
			hashes = append(hashes, h)
		}
		c.broadcast(nil, func(p *network.Peer) { p.SendLosingTx(hashes) })

		c.knownTxsCaches = append(c.knownTxsCaches, removed)
		if len(c.knownTxsCaches) > knownTxsCachesCapacity {
			c.knownTxsCaches = c.knownTxsCaches[len(c.knownTxsCaches)-knownTxsCachesCapacity:]
		}
	}
}

// setMiningTxs installs updated as the current miningTxs view (spec.md
// §4.E "miningTxs view changes"). Additions are partitioned per peer
// into hashes the peer already advertised and inline tx bodies;
// removals are broadcast as forget_tx with the total byte size freed.
func (c *Coordinator) setMiningTxs(updated map[chainhash.Hash]wire.TransactionTemplate) {
	added, removed := diffTxMaps(c.miningTxs, updated)
	c.miningTxs = updated

	if len(added) > 0 {
		for _, ps := range c.peers {
			var hashesOnly []chainhash.Hash
			var inline []wire.TransactionTemplate
			for h, tx := range added {
				if ps.peer.HasRemoteTx(h) {
					hashesOnly = append(hashesOnly, h)
				} else {
					inline = append(inline, tx)
				}
			}
			if len(hashesOnly) > 0 || len(inline) > 0 {
				ps.peer.SendRememberTx(hashesOnly, inline)
			}
		}
	}

	if len(removed) > 0 {
		hashes := make([]chainhash.Hash, 0, len(removed))
		var totalSize uint64
		for h, tx := range removed {
			hashes = append(hashes, h)
			totalSize += uint64(len(tx.Data) / 2)
		}
		c.broadcast(nil, func(p *network.Peer) { p.SendForgetTx(hashes, totalSize) })
	}
}

// lookupKnownTxsCaches walks the ring buffer oldest-to-newest.
func (c *Coordinator) lookupKnownTxsCaches(hash chainhash.Hash) (wire.TransactionTemplate, bool) {
	for _, cache := range c.knownTxsCaches {
		if tx, ok := cache[hash]; ok {
			return tx, true
		}
	}
	return wire.TransactionTemplate{}, false
}

// resolveTxReference walks the lookup order spec.md §4.E describes for
// a share's newly-referenced tx hashes.
func (c *Coordinator) resolveTxReference(sender *network.Peer, hash chainhash.Hash) bool {
	if _, ok := c.knownTxs[hash]; ok {
		return true
	}
	if _, ok := sender.RememberedTx(hash); ok {
		return true
	}
	if _, ok := c.miningTxs[hash]; ok {
		return true
	}
	if sender.HasRemoteTx(hash) {
		return true
	}
	if _, ok := c.lookupKnownTxsCaches(hash); ok {
		return true
	}
	return false
}

func (c *Coordinator) handleVersion(p *network.Peer, msg *wire.MsgVersion) {
	// Sent unconditionally, even when both views are empty: spec.md §4.C
	// and the §8 handshake scenario require have_tx([]) and
	// remember_tx({hashes:[], txs:[]}) on every version, not just when
	// there is something to advertise.
	hashes := make([]chainhash.Hash, 0, len(c.knownTxs))
	for h := range c.knownTxs {
		hashes = append(hashes, h)
	}
	p.SendHaveTx(hashes)

	txs := make([]wire.TransactionTemplate, 0, len(c.miningTxs))
	for _, tx := range c.miningTxs {
		txs = append(txs, tx)
	}
	p.SendRememberTx(nil, txs)

	if msg.BestShareHash.IsZero() {
		return
	}
	if _, ok := c.chain.Get(msg.BestShareHash); ok {
		return
	}
	p.SendShareReq(&wire.MsgShareReq{
		Id:      newRequestID(),
		Hashes:  []chainhash.Hash{msg.BestShareHash},
		Parents: 1,
	})
}

func (c *Coordinator) handleRememberTx(sender *network.Peer, msg *wire.MsgRememberTx) {
	for _, h := range msg.Hashes {
		if _, dup := sender.RememberedTx(h); dup {
			c.penalize(sender, "duplicate tx reference")
			return
		}
		if tx, ok := c.knownTxs[h]; ok {
			sender.RememberTx(tx)
			continue
		}
		if tx, ok := c.lookupKnownTxsCaches(h); ok {
			sender.RememberTx(tx)
			continue
		}
		c.penalize(sender, "unknown tx reference")
		return
	}

	updated := cloneTxMap(c.knownTxs)
	for _, tx := range msg.Txs {
		if _, dup := sender.RememberedTx(tx.Hash); dup {
			c.penalize(sender, "duplicate tx reference")
			return
		}
		sender.RememberTx(tx)
		updated[tx.Hash] = tx
	}
	c.setKnownTxs(updated)
}
