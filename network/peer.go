// Package network implements a single share-chain peer connection:
// the framing read loop, message dispatch, and outbound helpers
// described in spec.md §4.C. It owns exactly one TCP socket per Peer
// and keeps no chain or coordinator state of its own.
package network

import (
	"bytes"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/decred/dcrd/lru"
	"golang.org/x/time/rate"

	"github.com/p2pool-go/sharechain/chainhash"
	"github.com/p2pool-go/sharechain/internal/fifoset"
	"github.com/p2pool-go/sharechain/internal/log"
	"github.com/p2pool-go/sharechain/wire"
)

// idleTimeout is armed on connect/accept and on every successful frame
// read; exceeding it with no traffic closes the connection.
const idleTimeout = 10 * time.Second

// remoteTxHashesCapacity bounds remoteTxHashs (spec.md §3, §4.C).
const remoteTxHashesCapacity = 10

// js2poolSubVersionPrefix gates the larger request/reply limits.
const js2poolSubVersionPrefix = "js2pool"

// knownSharesCapacity bounds the per-peer recently-broadcast dedup
// cache, mirroring the teacher's knownInventory sizing.
const knownSharesCapacity = 1000

// Handlers is the set of callbacks the coordinator supplies for each
// inbound message (spec.md §4.C "inbound handling"). Every field is
// optional; a nil handler means the event is dropped after the
// built-in per-message bookkeeping (tx-hash tracking, etc.) runs.
type Handlers struct {
	OnVersion    func(p *Peer, msg *wire.MsgVersion)
	OnPing       func(p *Peer)
	OnPong       func(p *Peer)
	OnAddrs      func(p *Peer, msg *wire.MsgAddrs)
	OnAddrMe     func(p *Peer, msg *wire.MsgAddrMe)
	OnGetAddrs   func(p *Peer, msg *wire.MsgGetAddrs)
	OnHaveTx     func(p *Peer, hashes []chainhash.Hash)
	OnLosingTx   func(p *Peer, hashes []chainhash.Hash)
	OnForgetTx   func(p *Peer, msg *wire.MsgForgetTx)
	OnRememberTx func(p *Peer, msg *wire.MsgRememberTx)
	OnBestBlock  func(p *Peer, msg *wire.MsgBestBlock)
	OnShares     func(p *Peer, msg *wire.MsgShares)
	OnShareReq   func(p *Peer, msg *wire.MsgShareReq)
	OnShareReply func(p *Peer, msg *wire.MsgShareReply)
	OnBadPeer    func(p *Peer, reason string)
	OnEnd        func(p *Peer)
}

// Peer owns one TCP socket and the small amount of per-connection
// state spec.md §3 assigns to it.
type Peer struct {
	conn    net.Conn
	magic   wire.Magic
	inbound bool

	handlers Handlers
	limiter  *rate.Limiter

	writeMu sync.Mutex

	connectedAt time.Time

	remoteTxHashes *fifoset.Set[chainhash.Hash]
	rememberedTxs  map[chainhash.Hash]wire.TransactionTemplate
	knownShares    lru.Cache

	externalAddress net.IP
	externalPort    uint16
	remotePort      uint16
	isJs2PoolPeer   bool
	subVersion      string

	bytesSent     uint64
	bytesReceived uint64

	closeOnce sync.Once
	closed    chan struct{}
}

// NewPeer wraps an already-dialed or already-accepted connection.
// limiter bounds the rate of inbound frames this connection will
// process; pass nil to disable rate limiting (e.g. in tests).
func NewPeer(conn net.Conn, magic wire.Magic, inbound bool, handlers Handlers, limiter *rate.Limiter) *Peer {
	return &Peer{
		conn:           conn,
		magic:          magic,
		inbound:        inbound,
		handlers:       handlers,
		limiter:        limiter,
		connectedAt:    time.Now(),
		remoteTxHashes: fifoset.New[chainhash.Hash](remoteTxHashesCapacity),
		rememberedTxs:  make(map[chainhash.Hash]wire.TransactionTemplate),
		knownShares:    lru.NewCache(knownSharesCapacity),
		closed:         make(chan struct{}),
	}
}

func (p *Peer) String() string {
	return fmt.Sprintf("%s (%s)", p.conn.RemoteAddr(), directionString(p.inbound))
}

func directionString(inbound bool) string {
	if inbound {
		return "inbound"
	}
	return "outbound"
}

func (p *Peer) Inbound() bool           { return p.inbound }
func (p *Peer) ConnectedAt() time.Time  { return p.connectedAt }
func (p *Peer) IsJs2PoolPeer() bool     { return p.isJs2PoolPeer }
func (p *Peer) ExternalAddress() net.IP { return p.externalAddress }
func (p *Peer) ExternalPort() uint16    { return p.externalPort }
func (p *Peer) BytesSent() uint64       { return atomic.LoadUint64(&p.bytesSent) }
func (p *Peer) BytesReceived() uint64   { return atomic.LoadUint64(&p.bytesReceived) }
func (p *Peer) RemoteAddr() net.Addr    { return p.conn.RemoteAddr() }

// HasRemoteTx reports whether the peer has advertised hash via
// have_tx without our having since forgotten it.
func (p *Peer) HasRemoteTx(hash chainhash.Hash) bool {
	return p.remoteTxHashes.Contains(hash)
}

// RememberedTx resolves a tx hash the remote asked us to remember.
func (p *Peer) RememberedTx(hash chainhash.Hash) (wire.TransactionTemplate, bool) {
	tx, ok := p.rememberedTxs[hash]
	return tx, ok
}

// RememberTx records a tx the remote asked us to remember, or that we
// resolved on its behalf while handling remember_tx.
func (p *Peer) RememberTx(tx wire.TransactionTemplate) {
	p.rememberedTxs[tx.Hash] = tx
}

// HasKnownShare reports whether hash was already sent to or received
// from this peer, so the coordinator's broadcast fan-out can skip it.
func (p *Peer) HasKnownShare(hash chainhash.Hash) bool {
	return p.knownShares.Contains(hash)
}

// MarkShareKnown records hash as known to this peer.
func (p *Peer) MarkShareKnown(hash chainhash.Hash) {
	p.knownShares.Add(hash)
}

// ForgetRememberedTx drops hashes from rememberedTxs, mirroring a
// local removeDeprecatedTxs sweep (spec.md §4.E).
func (p *Peer) ForgetRememberedTx(hashes ...chainhash.Hash) {
	for _, h := range hashes {
		delete(p.rememberedTxs, h)
	}
}

// Run drives the read loop until the connection ends. It always
// returns after invoking handlers.OnEnd exactly once (via Close).
func (p *Peer) Run() error {
	defer p.Close()
	for {
		if err := p.conn.SetReadDeadline(time.Now().Add(idleTimeout)); err != nil {
			return err
		}
		msg, payload, err := wire.ReadMessage(p.conn, p.magic)
		if unk, ok := err.(*wire.UnknownCommandError); ok {
			log.Peer.Debugf("%s: %v", p, unk)
			continue
		}
		if err == wire.ErrBadMagic {
			p.badPeer("Bad magic number")
			return err
		}
		if err == wire.ErrBadChecksum {
			p.badPeer("Bad checksum")
			return err
		}
		if err != nil {
			return err
		}
		atomic.AddUint64(&p.bytesReceived, uint64(wire.HeaderLength+len(payload)))

		if p.limiter != nil && !p.limiter.Allow() {
			p.badPeer("inbound rate limit exceeded")
			return nil
		}

		p.dispatch(msg)
	}
}

// badPeer reports a protocol error and closes the connection. spec.md
// §7 requires immediate disconnection on protocol errors (bad magic,
// bad checksum, port mismatch, duplicate or unknown tx reference);
// OnBadPeer still fires first so the coordinator can track ban score
// before the peer disappears from its peer set.
func (p *Peer) badPeer(reason string) {
	log.Peer.Warnf("%s: bad peer: %s", p, reason)
	if p.handlers.OnBadPeer != nil {
		p.handlers.OnBadPeer(p, reason)
	}
	p.Close()
}

func (p *Peer) dispatch(msg wire.Message) {
	switch m := msg.(type) {
	case *wire.MsgVersion:
		p.externalAddress = m.AddrTo.IP
		p.externalPort = m.AddrTo.Port
		p.subVersion = m.SubVersion
		p.isJs2PoolPeer = strings.HasPrefix(m.SubVersion, js2poolSubVersionPrefix)
		if p.handlers.OnVersion != nil {
			p.handlers.OnVersion(p, m)
		}
	case *wire.MsgPing:
		if p.isJs2PoolPeer {
			_ = p.SendPong()
		} else {
			_ = p.SendPing()
		}
		if p.handlers.OnPing != nil {
			p.handlers.OnPing(p)
		}
	case *wire.MsgPong:
		if p.handlers.OnPong != nil {
			p.handlers.OnPong(p)
		}
	case *wire.MsgAddrs:
		if p.handlers.OnAddrs != nil {
			p.handlers.OnAddrs(p, m)
		}
	case *wire.MsgAddrMe:
		if p.remotePort != 0 && p.remotePort != m.Port {
			p.badPeer("ports are not equal")
			return
		}
		p.remotePort = m.Port
		if p.handlers.OnAddrMe != nil {
			p.handlers.OnAddrMe(p, m)
		}
	case *wire.MsgGetAddrs:
		if p.handlers.OnGetAddrs != nil {
			p.handlers.OnGetAddrs(p, m)
		}
	case *wire.MsgHaveTx:
		for _, h := range m.Hashes {
			p.remoteTxHashes.Add(h)
		}
		if p.handlers.OnHaveTx != nil {
			p.handlers.OnHaveTx(p, m.Hashes)
		}
	case *wire.MsgLosingTx:
		for _, h := range m.Hashes {
			p.remoteTxHashes.Remove(h)
		}
		if p.handlers.OnLosingTx != nil {
			p.handlers.OnLosingTx(p, m.Hashes)
		}
	case *wire.MsgForgetTx:
		if p.handlers.OnForgetTx != nil {
			p.handlers.OnForgetTx(p, m)
		}
	case *wire.MsgRememberTx:
		if p.handlers.OnRememberTx != nil {
			p.handlers.OnRememberTx(p, m)
		}
	case *wire.MsgBestBlock:
		if p.handlers.OnBestBlock != nil {
			p.handlers.OnBestBlock(p, m)
		}
	case *wire.MsgShares:
		if p.handlers.OnShares != nil {
			p.handlers.OnShares(p, m)
		}
	case *wire.MsgShareReq:
		if p.handlers.OnShareReq != nil {
			p.handlers.OnShareReq(p, m)
		}
	case *wire.MsgShareReply:
		if p.handlers.OnShareReply != nil {
			p.handlers.OnShareReply(p, m)
		}
	}
}

func (p *Peer) write(msg wire.Message) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	var frame bytes.Buffer
	if err := wire.WriteMessage(&frame, p.magic, msg); err != nil {
		return err
	}
	n, err := p.conn.Write(frame.Bytes())
	atomic.AddUint64(&p.bytesSent, uint64(n))
	return err
}

func (p *Peer) SendVersion(msg *wire.MsgVersion) error  { return p.write(msg) }
func (p *Peer) SendPing() error                         { return p.write(&wire.MsgPing{}) }
func (p *Peer) SendPong() error                         { return p.write(&wire.MsgPong{}) }
func (p *Peer) SendAddrs(addrs []wire.NetAddress) error { return p.write(&wire.MsgAddrs{Addrs: addrs}) }
func (p *Peer) SendAddrMe(port uint16) error            { return p.write(&wire.MsgAddrMe{Port: port}) }
func (p *Peer) SendGetAddrs(count uint32) error         { return p.write(&wire.MsgGetAddrs{Count: count}) }
func (p *Peer) SendHaveTx(hashes []chainhash.Hash) error {
	return p.write(&wire.MsgHaveTx{Hashes: hashes})
}
func (p *Peer) SendLosingTx(hashes []chainhash.Hash) error {
	return p.write(&wire.MsgLosingTx{Hashes: hashes})
}
func (p *Peer) SendForgetTx(hashes []chainhash.Hash, totalSize uint64) error {
	return p.write(&wire.MsgForgetTx{Hashes: hashes, TotalSize: totalSize})
}
func (p *Peer) SendRememberTx(hashes []chainhash.Hash, txs []wire.TransactionTemplate) error {
	return p.write(&wire.MsgRememberTx{Hashes: hashes, Txs: txs})
}
func (p *Peer) SendBestBlock(header []byte) error { return p.write(&wire.MsgBestBlock{Header: header}) }
func (p *Peer) SendShares(shares []wire.ShareWrapper) error {
	return p.write(&wire.MsgShares{SharesContainer: wire.SharesContainer{Shares: shares}})
}
func (p *Peer) SendShareReq(msg *wire.MsgShareReq) error     { return p.write(msg) }
func (p *Peer) SendShareReply(msg *wire.MsgShareReply) error { return p.write(msg) }

// Close idempotently ends the socket and fires OnEnd exactly once.
func (p *Peer) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.closed)
		err = p.conn.Close()
		if p.handlers.OnEnd != nil {
			p.handlers.OnEnd(p)
		}
	})
	return err
}

// Done reports whether Close has run.
func (p *Peer) Done() <-chan struct{} { return p.closed }
