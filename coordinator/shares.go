package coordinator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"time"

	"github.com/p2pool-go/sharechain/chainhash"
	"github.com/p2pool-go/sharechain/internal/log"
	"github.com/p2pool-go/sharechain/network"
	"github.com/p2pool-go/sharechain/sharechain"
	"github.com/p2pool-go/sharechain/wire"
)

func (c *Coordinator) onChainEvent(n *sharechain.Notification) {
	switch n.Type {
	case sharechain.NTGapsFound:
		c.handleGapsFound(n.Data.([]sharechain.Gap))
	case sharechain.NTChainCalculatable:
		c.startListening()
	case sharechain.NTOrphansFound, sharechain.NTDeadArrived, sharechain.NTCandidateArrived, sharechain.NTNewestChanged:
		log.Chain.Debugf("%s", n.Type)
	}
}

func gapKey(hash chainhash.Hash, length uint32) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s-%d", hash, length)))
	return hex.EncodeToString(sum[:])
}

// handleGapsFound sorts peers js2pool-first, shuffles the gaps, and
// sends sharereq to up to maxShareReqFanout peers per gap not already
// pending (spec.md §4.E).
func (c *Coordinator) handleGapsFound(gaps []sharechain.Gap) {
	peers := c.sortedPeersJs2poolFirst()
	if len(peers) == 0 {
		return
	}

	shuffled := make([]sharechain.Gap, len(gaps))
	copy(shuffled, gaps)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	fanout := len(peers)
	if fanout > maxShareReqFanout {
		fanout = maxShareReqFanout
	}

	for _, gap := range shuffled {
		key := gapKey(gap.Descendent, gap.Length)
		if _, pending := c.pendingShareRequests[key]; pending {
			continue
		}

		for _, ps := range peers[:fanout] {
			parents := uint32(legacyShareReqParents)
			if ps.peer.IsJs2PoolPeer() {
				parents = js2poolShareReqParents
			}
			if gap.Length < parents {
				parents = gap.Length
			}
			id := newRequestID()
			ps.peer.SendShareReq(&wire.MsgShareReq{
				Id:      id,
				Hashes:  []chainhash.Hash{gap.Descendent},
				Parents: parents,
			})
			c.pendingRequestGapKey[id.Text(16)] = key
		}
		c.pendingShareRequests[key] = time.Now()
	}
}

type decodedShare struct {
	share   sharechain.Share
	wrapper wire.ShareWrapper
}

// handleShares implements spec.md §4.E "Incoming share handling".
func (c *Coordinator) handleShares(sender *network.Peer, msg *wire.MsgShares) {
	decoded := make([]decodedShare, 0, len(msg.Shares))
	allPresent := true
	for _, w := range msg.Shares {
		s, err := c.cfg.ShareConstructor.BuildShare(w.Version, w.Contents)
		if err != nil {
			log.Coord.Warnf("%s: bad share payload: %v", sender, err)
			continue
		}
		decoded = append(decoded, decodedShare{share: s, wrapper: w})
		if _, ok := c.chain.Get(s.Hash()); !ok {
			allPresent = false
		}
	}
	if allPresent {
		return
	}

sharesLoop:
	for _, d := range decoded {
		if !d.share.Validity() {
			continue
		}
		for _, txHash := range d.share.NewTransactionHashes() {
			if !c.resolveTxReference(sender, txHash) {
				log.Coord.Warnf("%s: peer referenced unknown transaction %s", sender, txHash)
				continue sharesLoop
			}
		}
	}

	for _, d := range decoded {
		c.chain.Append(d.share)
		sender.MarkShareKnown(d.share.Hash())
	}

	updated := cloneTxMap(c.knownTxs)
	for _, d := range decoded {
		for _, txHash := range d.share.NewTransactionHashes() {
			if tx, ok := sender.RememberedTx(txHash); ok {
				updated[txHash] = tx
			}
		}
	}
	c.setKnownTxs(updated)

	c.broadcast(sender, func(p *network.Peer) {
		var fanout []wire.ShareWrapper
		for _, d := range decoded {
			if p.HasKnownShare(d.share.Hash()) {
				continue
			}
			fanout = append(fanout, d.wrapper)
			p.MarkShareKnown(d.share.Hash())
		}
		if len(fanout) > 0 {
			p.SendShares(fanout)
		}
	})

	c.chain.Verify()
}

// handleShareReq implements spec.md §4.E "Incoming sharereq".
func (c *Coordinator) handleShareReq(sender *network.Peer, msg *wire.MsgShareReq) {
	maxParents := uint32(legacyShareReplyParents)
	if sender.IsJs2PoolPeer() {
		maxParents = js2poolShareReplyParents
	}

	limit := msg.Parents
	if len(msg.Hashes) > 0 {
		if perHash := uint32(maxShareReplyFanoutDenom) / uint32(len(msg.Hashes)); perHash < limit {
			limit = perHash
		}
	}
	if maxParents < limit {
		limit = maxParents
	}

	stops := make(map[chainhash.Hash]bool, len(msg.Stops))
	for _, h := range msg.Stops {
		stops[h] = true
	}

	var wrappers []wire.ShareWrapper
	for _, hash := range msg.Hashes {
		it := c.chain.Subchain(hash, int(limit), sharechain.Backward)
		for {
			s, ok := it()
			if !ok {
				break
			}
			if stops[s.Hash()] {
				break
			}
			version, contents, err := c.cfg.ShareConstructor.EncodeShare(s)
			if err != nil {
				log.Coord.Warnf("encode share %s: %v", s.Hash(), err)
				continue
			}
			wrappers = append(wrappers, wire.ShareWrapper{Version: version, Contents: contents})
			sender.MarkShareKnown(s.Hash())
		}
	}

	reply := &wire.MsgShareReply{Id: msg.Id}
	if len(wrappers) == 0 {
		reply.Result = wire.ShareReplyNotFound
	} else {
		reply.Result = wire.ShareReplyOK
		reply.Wrapper = wire.SharesContainer{Shares: wrappers}
	}
	if err := sender.SendShareReply(reply); err != nil {
		log.Peer.Debugf("%s: send sharereply: %v", sender, err)
	}
}

// handleShareReply implements spec.md §4.E "Incoming sharereply".
func (c *Coordinator) handleShareReply(sender *network.Peer, msg *wire.MsgShareReply) {
	if msg.Result != wire.ShareReplyOK {
		c.chain.CheckGaps()
		log.Coord.Debugf("%s: sharereply result=%d", sender, msg.Result)
		return
	}

	var fresh []sharechain.Share
	for _, w := range msg.Wrapper.Shares {
		s, err := c.cfg.ShareConstructor.BuildShare(w.Version, w.Contents)
		if err != nil || !s.Validity() {
			continue
		}
		if _, ok := c.chain.Get(s.Hash()); ok {
			continue
		}
		fresh = append(fresh, s)
	}

	if len(fresh) == 0 {
		c.chain.CheckGaps()
		return
	}

	c.cfg.Persister.SaveShares(fresh)
	for _, s := range fresh {
		c.chain.Append(s)
		sender.MarkShareKnown(s.Hash())
	}

	if msg.Id != nil {
		if key, ok := c.pendingRequestGapKey[msg.Id.Text(16)]; ok {
			delete(c.pendingShareRequests, key)
			delete(c.pendingRequestGapKey, msg.Id.Text(16))
		}
	}

	c.Enqueue(func() {
		c.chain.CheckGaps()
		c.chain.Verify()
	})
}
