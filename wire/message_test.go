package wire

import (
	"bytes"
	"math/big"
	"net"
	"reflect"
	"testing"

	"github.com/p2pool-go/sharechain/chainhash"
)

func roundTrip(t *testing.T, msg Message) Message {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteMessage(&buf, MainNetMagic, msg); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	got, _, err := ReadMessage(&buf, MainNetMagic)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	return got
}

func TestVersionRoundTrip(t *testing.T) {
	msg := &MsgVersion{
		Services:        7,
		ProtocolVersion: ProtocolVersion,
		SubVersion:      "js2pool/1.0",
		AddrTo:          NetAddress{Services: 1, IP: net.ParseIP("127.0.0.1"), Port: 9333},
		AddrFrom:        NetAddress{Services: 1, IP: net.ParseIP("10.0.0.2"), Port: 9334},
		Nonce:           123456789,
		BestShareHash:   chainhash.Sum256([]byte("tip")),
	}
	got := roundTrip(t, msg).(*MsgVersion)
	got.AddrTo.IP = got.AddrTo.IP.To16()
	got.AddrFrom.IP = got.AddrFrom.IP.To16()
	msg.AddrTo.IP = msg.AddrTo.IP.To16()
	msg.AddrFrom.IP = msg.AddrFrom.IP.To16()
	if !reflect.DeepEqual(msg, got) {
		t.Fatalf("round-trip mismatch:\n got=%+v\nwant=%+v", got, msg)
	}
}

func TestPingPongEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, MainNetMagic, &MsgPing{}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != HeaderLength {
		t.Fatalf("expected empty payload frame of length %d, got %d", HeaderLength, buf.Len())
	}
	msg, payload, err := ReadMessage(&buf, MainNetMagic)
	if err != nil {
		t.Fatal(err)
	}
	if len(payload) != 0 {
		t.Fatalf("expected zero-length payload, got %d", len(payload))
	}
	if _, ok := msg.(*MsgPing); !ok {
		t.Fatalf("expected *MsgPing, got %T", msg)
	}
}

func TestHaveTxRoundTrip(t *testing.T) {
	msg := &MsgHaveTx{Hashes: []chainhash.Hash{
		chainhash.Sum256([]byte("a")),
		chainhash.Sum256([]byte("b")),
	}}
	got := roundTrip(t, msg).(*MsgHaveTx)
	if !reflect.DeepEqual(msg, got) {
		t.Fatalf("round-trip mismatch: got=%+v want=%+v", got, msg)
	}
}

func TestRememberTxRoundTrip(t *testing.T) {
	msg := &MsgRememberTx{
		Hashes: []chainhash.Hash{chainhash.Sum256([]byte("known"))},
		Txs: []TransactionTemplate{
			{Txid: "tx1", Hash: chainhash.Sum256([]byte("tx1")), Data: "deadbeef"},
		},
	}
	got := roundTrip(t, msg).(*MsgRememberTx)
	if !reflect.DeepEqual(msg, got) {
		t.Fatalf("round-trip mismatch: got=%+v want=%+v", got, msg)
	}
}

func TestShareReqRoundTrip(t *testing.T) {
	id := new(big.Int)
	id.SetString("ffeeddccbbaa99887766554433221100ffeeddccbbaa998877665544332211", 16)
	msg := &MsgShareReq{
		Id:      id,
		Hashes:  []chainhash.Hash{chainhash.Sum256([]byte("start"))},
		Parents: 79,
		Stops:   nil,
	}
	got := roundTrip(t, msg).(*MsgShareReq)
	if got.Id.Cmp(msg.Id) != 0 {
		t.Fatalf("id mismatch: got=%s want=%s", got.Id, msg.Id)
	}
	if got.Parents != msg.Parents || !reflect.DeepEqual(got.Hashes, msg.Hashes) {
		t.Fatalf("round-trip mismatch: got=%+v want=%+v", got, msg)
	}
}

func TestShareReplyEmptyResult(t *testing.T) {
	msg := &MsgShareReply{Id: big.NewInt(1), Result: ShareReplyNotFound}
	got := roundTrip(t, msg).(*MsgShareReply)
	if got.Result != ShareReplyNotFound || len(got.Wrapper.Shares) != 0 {
		t.Fatalf("unexpected reply: %+v", got)
	}
}

func TestSharesRoundTrip(t *testing.T) {
	msg := &MsgShares{SharesContainer{Shares: []ShareWrapper{
		{Version: 17, Contents: []byte{1, 2, 3, 4}},
	}}}
	got := roundTrip(t, msg).(*MsgShares)
	if !reflect.DeepEqual(msg, got) {
		t.Fatalf("round-trip mismatch: got=%+v want=%+v", got, msg)
	}
}

func TestUnknownCommandIsNonFatal(t *testing.T) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, MainNetMagic, "bogus", 4, checksum([]byte{1, 2, 3, 4})); err != nil {
		t.Fatal(err)
	}
	buf.Write([]byte{1, 2, 3, 4})
	_, payload, err := ReadMessage(&buf, MainNetMagic)
	var unk *UnknownCommandError
	if !errorsAsUnknown(err, &unk) {
		t.Fatalf("expected UnknownCommandError, got %v", err)
	}
	if len(payload) != 4 {
		t.Fatalf("expected payload to be consumed, got %v", payload)
	}
}

func TestBadMagicCloses(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, TestNetMagic, &MsgPing{}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ReadMessage(&buf, MainNetMagic); err != ErrBadMagic {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestBadChecksumCloses(t *testing.T) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, MainNetMagic, CmdPing, 0, 0xdeadbeef); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ReadMessage(&buf, MainNetMagic); err != ErrBadChecksum {
		t.Fatalf("expected ErrBadChecksum, got %v", err)
	}
}

func errorsAsUnknown(err error, target **UnknownCommandError) bool {
	if e, ok := err.(*UnknownCommandError); ok {
		*target = e
		return true
	}
	return false
}
