package coordinator

import (
	"fmt"

	"github.com/multiformats/go-multiaddr"

	"github.com/p2pool-go/sharechain/internal/log"
	"github.com/p2pool-go/sharechain/network"
	"github.com/p2pool-go/sharechain/wire"
)

// toMultiaddr builds a dialable /ip4|ip6/.../tcp/... multiaddr from a
// wire NetAddress, the same construction the teacher's network layer
// uses for its listen and peer addresses.
func toMultiaddr(na wire.NetAddress) (multiaddr.Multiaddr, error) {
	proto := "ip4"
	if na.IP.To4() == nil {
		proto = "ip6"
	}
	return multiaddr.NewMultiaddr(fmt.Sprintf("/%s/%s/tcp/%d", proto, na.IP.String(), na.Port))
}

// handleAddrs logs each advertised address as a multiaddr string; the
// coordinator does not yet act on third-party peer advertisements
// (spec.md's Non-goals exclude peer discovery), but records them for
// diagnostics in the same representation the teacher's addrbook uses.
func (c *Coordinator) handleAddrs(p *network.Peer, addrs []wire.NetAddress) {
	for _, na := range addrs {
		ma, err := toMultiaddr(na)
		if err != nil {
			log.Coord.Debugf("%s: bad addr %s:%d: %v", p, na.IP, na.Port, err)
			continue
		}
		log.Coord.Debugf("%s: addr %s", p, ma)
	}
}
