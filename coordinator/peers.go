package coordinator

import (
	"net"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/p2pool-go/sharechain/chainhash"
	"github.com/p2pool-go/sharechain/internal/log"
	"github.com/p2pool-go/sharechain/network"
	"github.com/p2pool-go/sharechain/wire"
)

func (c *Coordinator) startListening() {
	if c.listening {
		return
	}
	ln, err := net.Listen("tcp", c.cfg.ListenAddr)
	if err != nil {
		log.Coord.Errorf("listen %s: %v", c.cfg.ListenAddr, err)
		return
	}
	c.listener = ln
	c.listening = true
	log.Coord.Infof("listening on %s", c.cfg.ListenAddr)
	c.group.Go(func() error { return c.acceptLoop(ln) })
}

func (c *Coordinator) acceptLoop(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-c.ctx.Done():
				return nil
			default:
				return err
			}
		}
		c.group.Go(func() error {
			c.handleConn(conn, true)
			return nil
		})
	}
}

func (c *Coordinator) dial(addr string) {
	conn, err := c.dialer.Dial("tcp", addr)
	if err != nil {
		log.Coord.Debugf("dial %s: %v", addr, err)
		return
	}
	c.handleConn(conn, false)
}

func ipOf(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

func (c *Coordinator) handleConn(conn net.Conn, inbound bool) {
	ip := ipOf(conn.RemoteAddr())
	if c.isBanned(ip) {
		conn.Close()
		return
	}

	limiter := rate.NewLimiter(inboundRateLimit, inboundRateBurst)
	peer := network.NewPeer(conn, c.cfg.Magic, inbound, c.makeHandlers(), limiter)

	c.Enqueue(func() { c.registerPeer(peer) })
	if !inbound {
		c.Enqueue(func() { c.sendInitialVersion(peer) })
	}

	if err := peer.Run(); err != nil {
		log.Peer.Debugf("%s: %v", peer, err)
	}
}

func (c *Coordinator) makeHandlers() network.Handlers {
	return network.Handlers{
		OnVersion: func(p *network.Peer, msg *wire.MsgVersion) {
			c.Enqueue(func() { c.handleVersion(p, msg) })
		},
		OnAddrMe: func(p *network.Peer, msg *wire.MsgAddrMe) {
			log.Coord.Debugf("%s: addrme port=%d", p, msg.Port)
		},
		OnAddrs: func(p *network.Peer, msg *wire.MsgAddrs) {
			c.Enqueue(func() { c.handleAddrs(p, msg.Addrs) })
		},
		OnGetAddrs: func(p *network.Peer, msg *wire.MsgGetAddrs) {
			log.Coord.Debugf("%s: getaddrs count=%d", p, msg.Count)
		},
		OnHaveTx: func(p *network.Peer, hashes []chainhash.Hash) {
			log.Coord.Debugf("%s: have_tx count=%d", p, len(hashes))
		},
		OnLosingTx: func(p *network.Peer, hashes []chainhash.Hash) {
			log.Coord.Debugf("%s: losing_tx count=%d", p, len(hashes))
		},
		OnForgetTx: func(p *network.Peer, msg *wire.MsgForgetTx) {
			log.Coord.Debugf("%s: forget_tx count=%d", p, len(msg.Hashes))
		},
		OnRememberTx: func(p *network.Peer, msg *wire.MsgRememberTx) {
			c.Enqueue(func() { c.handleRememberTx(p, msg) })
		},
		OnBestBlock: func(p *network.Peer, msg *wire.MsgBestBlock) {
			log.Coord.Debugf("%s: bestblock len=%d", p, len(msg.Header))
		},
		OnShares: func(p *network.Peer, msg *wire.MsgShares) {
			c.Enqueue(func() { c.handleShares(p, msg) })
		},
		OnShareReq: func(p *network.Peer, msg *wire.MsgShareReq) {
			c.Enqueue(func() { c.handleShareReq(p, msg) })
		},
		OnShareReply: func(p *network.Peer, msg *wire.MsgShareReply) {
			c.Enqueue(func() { c.handleShareReply(p, msg) })
		},
		OnBadPeer: func(p *network.Peer, reason string) {
			c.Enqueue(func() { c.penalize(p, reason) })
		},
		OnEnd: func(p *network.Peer) {
			c.Enqueue(func() { c.unregisterPeer(p) })
		},
	}
}

func (c *Coordinator) sendInitialVersion(p *network.Peer) {
	msg := &wire.MsgVersion{
		Services:        c.cfg.Services,
		ProtocolVersion: wire.ProtocolVersion,
		SubVersion:      c.cfg.SubVersion,
		Nonce:           newRequestID().Uint64(),
		BestShareHash:   c.bestShareHash(),
	}
	if err := p.SendVersion(msg); err != nil {
		log.Peer.Debugf("%s: send version: %v", p, err)
	}
}

func (c *Coordinator) bestShareHash() chainhash.Hash {
	if newest := c.chain.Newest(); newest != nil {
		return newest.Hash()
	}
	return chainhash.Hash{}
}

func (c *Coordinator) registerPeer(p *network.Peer) {
	c.peers[p] = &peerState{peer: p}
	log.Coord.Infof("peer connected: %s", p)
}

func (c *Coordinator) unregisterPeer(p *network.Peer) {
	delete(c.peers, p)
	log.Coord.Infof("peer disconnected: %s", p)
}

// penalize handles a protocol error (spec.md §7: bad magic, bad
// checksum, port mismatch, duplicate or unknown tx reference). §7
// requires the connection to close immediately on any of these, so
// this always closes p; the accumulated score and eventual IP ban are
// an additional layer on top, not a substitute for the immediate
// disconnect.
func (c *Coordinator) penalize(p *network.Peer, reason string) {
	ps, ok := c.peers[p]
	if !ok {
		return
	}
	ps.banScore += 10
	log.Coord.Warnf("%s: bad peer (%s), score=%d", p, reason, ps.banScore)
	if ps.banScore >= banScoreThreshold {
		c.ban(ipOf(p.RemoteAddr()), reason)
	}
	p.Close()
}

func (c *Coordinator) ban(ip string, reason string) {
	c.bans[ip] = banEntry{expires: time.Now().Add(banDuration), reason: reason}
	log.Coord.Warnf("banned %s: %s", ip, reason)
}

func (c *Coordinator) isBanned(ip string) bool {
	entry, ok := c.bans[ip]
	if !ok {
		return false
	}
	if time.Now().After(entry.expires) {
		delete(c.bans, ip)
		return false
	}
	return true
}

// sortedPeersJs2poolFirst returns connected peers sorted with
// js2pool-capable peers first, for gap-driven fan-out (spec.md §4.E).
func (c *Coordinator) sortedPeersJs2poolFirst() []*peerState {
	list := make([]*peerState, 0, len(c.peers))
	for _, ps := range c.peers {
		list = append(list, ps)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].peer.IsJs2PoolPeer() && !list[j].peer.IsJs2PoolPeer()
	})
	return list
}

func (c *Coordinator) broadcast(except *network.Peer, fn func(*network.Peer)) {
	for _, ps := range c.peers {
		if ps.peer == except {
			continue
		}
		fn(ps.peer)
	}
}
