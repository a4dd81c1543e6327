// Package coordinator implements the peer coordinator (spec.md §4.E):
// the listening socket, the outbound connection set, the shared tx
// views, and the chain-store integration. All mutable state is
// confined to a single goroutine's action loop, mirroring the
// teacher's server.go relay/broadcast select loop and the
// incoming-changes serialization pattern used by the p2pool reference
// stratum server, so spec.md §5's single-threaded cooperative model
// holds without locks around the state itself.
package coordinator

import (
	"context"
	"crypto/rand"
	"math/big"
	"net"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/p2pool-go/sharechain/chainhash"
	"github.com/p2pool-go/sharechain/chainio"
	"github.com/p2pool-go/sharechain/internal/log"
	"github.com/p2pool-go/sharechain/network"
	"github.com/p2pool-go/sharechain/sharechain"
	"github.com/p2pool-go/sharechain/wire"
)

const (
	maxShareReqFanout        = 8
	js2poolShareReqParents   = 250
	legacyShareReqParents    = 79
	js2poolShareReplyParents = 500
	legacyShareReplyParents  = 100
	knownTxsCachesCapacity   = 10
	maxShareReplyFanoutDenom = 500

	inboundRateLimit = rate.Limit(50)
	inboundRateBurst = 100

	banScoreThreshold = 100
	banDuration       = time.Hour
)

// Config configures one Coordinator instance.
type Config struct {
	Magic            wire.Magic
	ListenAddr       string
	SubVersion       string
	Services         uint64
	Proxy            string
	BlockCodec       chainio.BlockCodec
	ShareConstructor chainio.ShareConstructor
	Persister        chainio.SharePersister
}

type peerState struct {
	peer     *network.Peer
	banScore int
}

type banEntry struct {
	expires time.Time
	reason  string
}

// Coordinator owns the listening socket, outbound dial set, and the
// tx views described in spec.md §3 and §4.E.
type Coordinator struct {
	cfg   Config
	chain *sharechain.ChainStore

	actions chan func()

	peers map[*network.Peer]*peerState
	bans  map[string]banEntry

	knownTxs       map[chainhash.Hash]wire.TransactionTemplate
	miningTxs      map[chainhash.Hash]wire.TransactionTemplate
	knownTxsCaches []map[chainhash.Hash]wire.TransactionTemplate

	pendingShareRequests map[string]time.Time
	pendingRequestGapKey map[string]string

	listener  net.Listener
	listening bool
	dialer    proxy.Dialer

	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// New constructs a Coordinator bound to chain. Call Run to start it.
func New(cfg Config, chain *sharechain.ChainStore) *Coordinator {
	return &Coordinator{
		cfg:                  cfg,
		chain:                chain,
		actions:              make(chan func(), 64),
		peers:                make(map[*network.Peer]*peerState),
		bans:                 make(map[string]banEntry),
		knownTxs:             make(map[chainhash.Hash]wire.TransactionTemplate),
		miningTxs:            make(map[chainhash.Hash]wire.TransactionTemplate),
		pendingShareRequests: make(map[string]time.Time),
		pendingRequestGapKey: make(map[string]string),
	}
}

// Run drives the coordinator's action loop until ctx is cancelled. The
// listening socket is not opened here; it opens lazily the first time
// the chain store fires NTChainCalculatable, since the node must not
// accept peers while its chain is still being assembled (spec.md
// §4.E).
func (c *Coordinator) Run(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.group, c.ctx = errgroup.WithContext(c.ctx)

	dialer, err := c.makeDialer()
	if err != nil {
		return err
	}
	c.dialer = dialer

	c.chain.Subscribe(c.onChainEvent)

	for {
		select {
		case <-c.ctx.Done():
			return c.shutdown()
		case action := <-c.actions:
			action()
		}
	}
}

func (c *Coordinator) makeDialer() (proxy.Dialer, error) {
	if c.cfg.Proxy == "" {
		return proxy.Direct, nil
	}
	return proxy.SOCKS5("tcp", c.cfg.Proxy, nil, proxy.Direct)
}

func (c *Coordinator) shutdown() error {
	if c.listener != nil {
		c.listener.Close()
	}
	for _, ps := range c.peers {
		ps.peer.Close()
	}
	return c.group.Wait()
}

// Enqueue schedules f to run on the coordinator's single action-loop
// goroutine. Safe to call from any goroutine. Before Run has started,
// f is only buffered on the actions channel.
func (c *Coordinator) Enqueue(f func()) {
	var done <-chan struct{}
	if c.ctx != nil {
		done = c.ctx.Done()
	}
	select {
	case c.actions <- f:
	case <-done:
	}
}

func newRequestID() *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), 256)
	id, err := rand.Int(rand.Reader, max)
	if err != nil {
		return big.NewInt(time.Now().UnixNano())
	}
	return id
}

// InitPeers dials each address and, on success, registers the
// connection and sends our initial version message (spec.md §4.E
// "initPeers"). Callers may call InitPeers before Run starts the
// action loop; the dials are enqueued rather than started directly,
// since c.group only exists once Run has set it up. The actions
// channel buffers them until the loop is running.
func (c *Coordinator) InitPeers(addrs []string) {
	for _, addr := range addrs {
		addr := addr
		c.Enqueue(func() {
			c.group.Go(func() error {
				c.dial(addr)
				return nil
			})
		})
	}
}

// UpdateMiningTemplate rebuilds miningTxs and merges it into knownTxs
// (spec.md §4.E "External operations").
func (c *Coordinator) UpdateMiningTemplate(template chainio.BlockTemplate) {
	c.Enqueue(func() {
		updatedMining := make(map[chainhash.Hash]wire.TransactionTemplate, len(template.Transactions))
		for _, t := range template.Transactions {
			hash, err := chainhash.NewFromStr(t.Hash)
			if err != nil {
				log.Coord.Warnf("updateMiningTemplate: bad tx hash %q: %v", t.Hash, err)
				continue
			}
			updatedMining[*hash] = wire.TransactionTemplate{Txid: t.Txid, Hash: *hash, Data: t.Data}
		}
		c.setMiningTxs(updatedMining)

		merged := cloneTxMap(c.knownTxs)
		for h, tx := range updatedMining {
			merged[h] = tx
		}
		c.setKnownTxs(merged)
	})
}

// RemoveDeprecatedTxs drops each tx from knownTxs unless still present
// in miningTxs, and from every peer's rememberedTxs.
func (c *Coordinator) RemoveDeprecatedTxs(hashes []chainhash.Hash) {
	c.Enqueue(func() {
		updated := cloneTxMap(c.knownTxs)
		for _, h := range hashes {
			if _, stillMining := c.miningTxs[h]; stillMining {
				continue
			}
			delete(updated, h)
		}
		c.setKnownTxs(updated)
		for _, ps := range c.peers {
			ps.peer.ForgetRememberedTx(hashes...)
		}
	})
}

// Stats is a point-in-time diagnostics snapshot (no RPC transport is
// bundled; callers expose this however they like).
type Stats struct {
	PeerCount            int
	KnownTxs             int
	MiningTxs            int
	PendingShareRequests int
	ChainVerified        bool
	ChainCalculatable    bool
	ListeningForInbound  bool
}

// Stats blocks until the action loop computes a consistent snapshot.
func (c *Coordinator) Stats() Stats {
	resp := make(chan Stats, 1)
	c.Enqueue(func() {
		resp <- Stats{
			PeerCount:            len(c.peers),
			KnownTxs:             len(c.knownTxs),
			MiningTxs:            len(c.miningTxs),
			PendingShareRequests: len(c.pendingShareRequests),
			ChainVerified:        c.chain.Verified(),
			ChainCalculatable:    c.chain.Calculatable(),
			ListeningForInbound:  c.listening,
		}
	})
	select {
	case s := <-resp:
		return s
	case <-c.ctx.Done():
		return Stats{}
	}
}
