// Package wire implements the share-chain peer wire protocol: the
// framing codec (spec.md §4.A) and the thirteen message codecs
// (spec.md §4.B). Modeled on the teacher's wire package (itself modeled
// on Bitcoin's), but the frame layout, magic size, and message set are
// this protocol's own.
package wire

import "fmt"

// MagicSize is the number of bytes in the network-identifying magic
// prefix of every frame.
const MagicSize = 8

// Magic identifies which network a frame belongs to. It is
// network-configurable (spec.md §6); the values below are this
// module's defaults, one per params.Network.
type Magic [MagicSize]byte

func (m Magic) String() string {
	return fmt.Sprintf("%x", [MagicSize]byte(m))
}

var (
	// MainNetMagic is the default production network magic.
	MainNetMagic = Magic{0x73, 0x68, 0x61, 0x72, 0x65, 0x01, 0x00, 0x00}
	// TestNetMagic is the default test network magic.
	TestNetMagic = Magic{0x73, 0x68, 0x61, 0x72, 0x65, 0x00, 0x01, 0x00}
)

// ProtocolVersion is the protocol version this package implements.
const ProtocolVersion uint32 = 1

// CommandSize is the fixed, zero-padded, ASCII command field length.
const CommandSize = 12

// MaxPayloadLength is an upper bound on a single frame's payload,
// independent of message-specific limits, to keep a misbehaving or
// corrupt peer from forcing an unbounded allocation while the length
// field is still being trusted.
const MaxPayloadLength = 32 * 1024 * 1024

// Command identifiers, exactly the thirteen messages of spec.md §4.B.
const (
	CmdVersion    = "version"
	CmdPing       = "ping"
	CmdPong       = "pong"
	CmdAddrs      = "addrs"
	CmdAddrMe     = "addrme"
	CmdGetAddrs   = "getaddrs"
	CmdHaveTx     = "have_tx"
	CmdLosingTx   = "losing_tx"
	CmdForgetTx   = "forget_tx"
	CmdRememberTx = "remember_tx"
	CmdBestBlock  = "bestblock"
	CmdShares     = "shares"
	CmdShareReq   = "sharereq"
	CmdShareReply = "sharereply"
)
