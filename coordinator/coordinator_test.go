package coordinator

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/p2pool-go/sharechain/network"
	"github.com/p2pool-go/sharechain/sharechain"
	"github.com/p2pool-go/sharechain/wire"
)

func newTestCoordinator() *Coordinator {
	return New(Config{Magic: wire.TestNetMagic}, sharechain.NewChainStore())
}

func newTestPeer(conn net.Conn) *network.Peer {
	return network.NewPeer(conn, wire.TestNetMagic, false, network.Handlers{}, nil)
}

// InitPeers is called by cmd/sharechaind/main.go before Run starts the
// action loop (main.go: InitPeers then Run). It must not dereference
// the nil *errgroup.Group that only Run initializes.
func TestInitPeersBeforeRunDoesNotPanic(t *testing.T) {
	c := newTestCoordinator()

	// Port 0 on loopback refuses immediately; the dial fails fast.
	c.InitPeers([]string{"127.0.0.1:0"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

func TestHandleVersionSendsEmptyInventoryUnconditionally(t *testing.T) {
	c := newTestCoordinator()

	server, client := net.Pipe()
	defer client.Close()
	p := newTestPeer(server)
	defer p.Close()

	done := make(chan []string, 1)
	go func() {
		var commands []string
		for i := 0; i < 2; i++ {
			msg, _, err := wire.ReadMessage(client, wire.TestNetMagic)
			if err != nil {
				break
			}
			commands = append(commands, msg.Command())
		}
		done <- commands
	}()

	c.handleVersion(p, &wire.MsgVersion{})

	select {
	case commands := <-done:
		if len(commands) != 2 {
			t.Fatalf("expected 2 messages, got %v", commands)
		}
		if commands[0] != wire.CmdHaveTx {
			t.Errorf("expected first message %s, got %s", wire.CmdHaveTx, commands[0])
		}
		if commands[1] != wire.CmdRememberTx {
			t.Errorf("expected second message %s, got %s", wire.CmdRememberTx, commands[1])
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for have_tx/remember_tx")
	}
}

func TestPenalizeClosesConnectionImmediately(t *testing.T) {
	c := newTestCoordinator()

	server, client := net.Pipe()
	defer client.Close()
	p := newTestPeer(server)
	c.peers[p] = &peerState{peer: p}

	c.penalize(p, "duplicate tx reference")

	select {
	case <-p.Done():
	default:
		t.Fatal("expected peer closed after a single protocol violation, well below the ban threshold")
	}

	ps := c.peers[p]
	if ps.banScore != 10 {
		t.Fatalf("expected ban score 10 after one violation, got %d", ps.banScore)
	}
}
