package network

import (
	"net"
	"testing"
	"time"

	"github.com/p2pool-go/sharechain/wire"
)

// A peer reporting two different listening ports across two addrme
// messages is a protocol error (spec.md §7 "port mismatch"); the
// connection must close immediately rather than stay open and
// accumulate toward a ban-score threshold.
func TestPortMismatchClosesConnectionImmediately(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	ended := make(chan struct{})
	p := NewPeer(server, wire.TestNetMagic, true, Handlers{
		OnEnd: func(*Peer) { close(ended) },
	}, nil)

	runErr := make(chan error, 1)
	go func() { runErr <- p.Run() }()

	if err := wire.WriteMessage(client, wire.TestNetMagic, &wire.MsgAddrMe{Port: 8333}); err != nil {
		t.Fatalf("write first addrme: %v", err)
	}
	if err := wire.WriteMessage(client, wire.TestNetMagic, &wire.MsgAddrMe{Port: 9333}); err != nil {
		t.Fatalf("write second addrme: %v", err)
	}

	select {
	case <-ended:
	case <-time.After(time.Second):
		t.Fatal("expected connection closed after port mismatch")
	}

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("expected Peer.Done() closed")
	}
}
