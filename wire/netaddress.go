package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"

	multiaddr "github.com/multiformats/go-multiaddr"
)

// NetAddress is a peer address as carried in version/addrs/addrme
// (spec.md §4.B). IP is always stored as 16 bytes (v4-mapped v6 for
// IPv4 addresses), matching the teacher's wire.NetAddress layout.
type NetAddress struct {
	Services uint64
	IP       net.IP
	Port     uint16
}

func (na *NetAddress) Encode(w io.Writer) error {
	var buf [8 + 16 + 2]byte
	binary.LittleEndian.PutUint64(buf[0:8], na.Services)
	ip := na.IP.To16()
	if ip == nil {
		ip = make(net.IP, 16)
	}
	copy(buf[8:24], ip)
	binary.LittleEndian.PutUint16(buf[24:26], na.Port)
	_, err := w.Write(buf[:])
	return err
}

func (na *NetAddress) Decode(r io.Reader) error {
	var buf [8 + 16 + 2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	na.Services = binary.LittleEndian.Uint64(buf[0:8])
	na.IP = net.IP(append([]byte(nil), buf[8:24]...))
	na.Port = binary.LittleEndian.Uint16(buf[24:26])
	return nil
}

// Multiaddr renders the address as a /ip4|ip6/.../tcp/... multiaddr.
func (na *NetAddress) Multiaddr() (multiaddr.Multiaddr, error) {
	if v4 := na.IP.To4(); v4 != nil {
		return multiaddr.NewMultiaddr(fmt.Sprintf("/ip4/%s/tcp/%d", v4.String(), na.Port))
	}
	return multiaddr.NewMultiaddr(fmt.Sprintf("/ip6/%s/tcp/%d", na.IP.String(), na.Port))
}

// NetAddressFromMultiaddr parses a multiaddr produced by Multiaddr (or
// an equivalent /ipX/.../tcp/... address) back into a NetAddress.
func NetAddressFromMultiaddr(addr multiaddr.Multiaddr, services uint64) (*NetAddress, error) {
	var host string
	var port uint16
	multiaddr.ForEach(addr, func(c multiaddr.Component) bool {
		switch c.Protocol().Code {
		case multiaddr.P_IP4, multiaddr.P_IP6:
			host = c.Value()
		case multiaddr.P_TCP:
			var p int
			fmt.Sscanf(c.Value(), "%d", &p)
			port = uint16(p)
		}
		return true
	})
	ip := net.ParseIP(host)
	if ip == nil {
		return nil, fmt.Errorf("wire: multiaddr %s has no parseable ip component", addr)
	}
	return &NetAddress{Services: services, IP: ip, Port: port}, nil
}
