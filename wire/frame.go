package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/p2pool-go/sharechain/chainhash"
)

// HeaderLength is PROTOCOL_HEAD_LENGTH from spec.md §4.A: 8 (magic) +
// 12 (command) + 4 (length) + 4 (checksum).
const HeaderLength = MagicSize + CommandSize + 4 + 4

// Message is implemented by every one of the thirteen wire messages.
type Message interface {
	Command() string
	Encode(w io.Writer) error
	Decode(r io.Reader) error
}

// ErrBadMagic is returned when a frame's magic does not match the
// network the connection was opened on.
var ErrBadMagic = errors.New("wire: bad magic number")

// ErrBadChecksum is returned when a frame's checksum does not match
// double-sha256(payload).
var ErrBadChecksum = errors.New("wire: bad checksum")

// UnknownCommandError is returned by ReadMessage when the frame's
// command does not match any known message type. The frame has
// already been fully consumed from r; the caller should discard
// Payload and keep reading (spec.md §4.A, §7: non-fatal).
type UnknownCommandError struct {
	Command string
	Payload []byte
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("wire: unknown command %q", e.Command)
}

// header is the 28-byte frame header described in spec.md §4.A.
type header struct {
	magic    Magic
	command  string
	length   uint32
	checksum uint32
}

func readHeader(r io.Reader) (*header, error) {
	var buf [HeaderLength]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	h := &header{}
	copy(h.magic[:], buf[:MagicSize])
	h.command = decodeCommand(buf[MagicSize : MagicSize+CommandSize])
	h.length = binary.LittleEndian.Uint32(buf[MagicSize+CommandSize : MagicSize+CommandSize+4])
	h.checksum = binary.LittleEndian.Uint32(buf[MagicSize+CommandSize+4:])
	return h, nil
}

func writeHeader(w io.Writer, magic Magic, command string, length, checksum uint32) error {
	var buf [HeaderLength]byte
	copy(buf[:MagicSize], magic[:])
	encoded := encodeCommand(command)
	copy(buf[MagicSize:MagicSize+CommandSize], encoded[:])
	binary.LittleEndian.PutUint32(buf[MagicSize+CommandSize:MagicSize+CommandSize+4], length)
	binary.LittleEndian.PutUint32(buf[MagicSize+CommandSize+4:], checksum)
	_, err := w.Write(buf[:])
	return err
}

// encodeCommand renders command as a zero-padded CommandSize-byte field.
func encodeCommand(command string) [CommandSize]byte {
	var out [CommandSize]byte
	copy(out[:], command)
	return out
}

// decodeCommand strips trailing NULs from a raw command field.
func decodeCommand(b []byte) string {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		i = len(b)
	}
	return string(b[:i])
}

func checksum(payload []byte) uint32 {
	sum := chainhash.DoubleSum256(payload)
	return binary.LittleEndian.Uint32(sum[:4])
}

// ReadMessage reads and decodes a single frame from r, verifying magic
// and checksum. On success it returns the decoded Message and the raw
// payload bytes (some callers, like a sender-challenge verifier, need
// the raw bytes in addition to the typed value).
//
// An *UnknownCommandError is returned directly (not wrapped, so a type
// assertion finds it) when the command is unrecognised; the frame has still been fully
// consumed so the caller can resume reading the next one.
func ReadMessage(r io.Reader, magic Magic) (Message, []byte, error) {
	h, err := readHeader(r)
	if err != nil {
		return nil, nil, err
	}
	if h.magic != magic {
		return nil, nil, ErrBadMagic
	}
	if h.length > MaxPayloadLength {
		return nil, nil, fmt.Errorf("wire: payload length %d exceeds maximum %d", h.length, MaxPayloadLength)
	}
	payload := make([]byte, h.length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, nil, err
	}
	if checksum(payload) != h.checksum {
		return nil, nil, ErrBadChecksum
	}

	msg, err := makeEmptyMessage(h.command)
	if err != nil {
		return nil, payload, &UnknownCommandError{Command: h.command, Payload: payload}
	}
	if err := msg.Decode(bytes.NewReader(payload)); err != nil {
		return nil, payload, fmt.Errorf("wire: decode %s: %w", h.command, err)
	}
	return msg, payload, nil
}

// WriteMessage frames and writes msg to w.
func WriteMessage(w io.Writer, magic Magic, msg Message) error {
	var payload bytes.Buffer
	if err := msg.Encode(&payload); err != nil {
		return err
	}
	if payload.Len() > MaxPayloadLength {
		return fmt.Errorf("wire: encoded %s payload %d exceeds maximum %d", msg.Command(), payload.Len(), MaxPayloadLength)
	}
	if err := writeHeader(w, magic, msg.Command(), uint32(payload.Len()), checksum(payload.Bytes())); err != nil {
		return err
	}
	_, err := w.Write(payload.Bytes())
	return err
}

func makeEmptyMessage(command string) (Message, error) {
	switch command {
	case CmdVersion:
		return &MsgVersion{}, nil
	case CmdPing:
		return &MsgPing{}, nil
	case CmdPong:
		return &MsgPong{}, nil
	case CmdAddrs:
		return &MsgAddrs{}, nil
	case CmdAddrMe:
		return &MsgAddrMe{}, nil
	case CmdGetAddrs:
		return &MsgGetAddrs{}, nil
	case CmdHaveTx:
		return &MsgHaveTx{}, nil
	case CmdLosingTx:
		return &MsgLosingTx{}, nil
	case CmdForgetTx:
		return &MsgForgetTx{}, nil
	case CmdRememberTx:
		return &MsgRememberTx{}, nil
	case CmdBestBlock:
		return &MsgBestBlock{}, nil
	case CmdShares:
		return &MsgShares{}, nil
	case CmdShareReq:
		return &MsgShareReq{}, nil
	case CmdShareReply:
		return &MsgShareReply{}, nil
	default:
		return nil, fmt.Errorf("wire: unknown command %q", command)
	}
}
