package node

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/cosmqc/swapbytes/internal/app"
	"github.com/cosmqc/swapbytes/internal/config"
	"github.com/cosmqc/swapbytes/internal/ui"
	"github.com/cosmqc/swapbytes/internal/wire"
)

// startTestNode brings up a node on a random port with a discarded console.
func startTestNode(t *testing.T, ctx context.Context, bootstrap string) (*Node, chan app.Event) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Node.Bootstrap = bootstrap

	events := make(chan app.Event, 64)
	n, err := New(ctx, cfg, events, ui.New(io.Discard, 0))
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}
	t.Cleanup(func() { n.Close() })
	return n, events
}

// tcpAddr returns one dialable TCP multiaddr for the node, peer id included.
func tcpAddr(t *testing.T, n *Node) string {
	t.Helper()
	for _, addr := range n.host.Addrs() {
		s := addr.String()
		if strings.Contains(s, "/tcp/") && strings.Contains(s, "127.0.0.1") {
			return s + "/p2p/" + n.host.ID().String()
		}
	}
	t.Fatal("Node has no loopback TCP address")
	return ""
}

// awaitEvent reads events until one matches, skipping unrelated discovery
// noise, up to the deadline.
func awaitEvent(t *testing.T, events chan app.Event, timeout time.Duration, match func(app.Event) bool) app.Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-events:
			if match(ev) {
				return ev
			}
		case <-deadline:
			t.Fatal("Timed out waiting for event")
			return nil
		}
	}
}

func TestNodeStartsAndCloses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n, _ := startTestNode(t, ctx, "")

	if n.LocalID() != n.host.ID().String() {
		t.Errorf("Expected LocalID to be the host id, got %s", n.LocalID())
	}
	if err := n.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestNodeRejectsMalformedBootstrapAddr(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.DefaultConfig()
	cfg.Node.Bootstrap = "not-a-multiaddr"

	events := make(chan app.Event, 1)
	if _, err := New(ctx, cfg, events, ui.New(io.Discard, 0)); err == nil {
		t.Fatal("Expected an error for a malformed bootstrap address")
	}
}

// TestTwoNodesExchangeNicknames runs a full round trip over a real stream:
// the second node bootstraps off the first, announces its nickname, and the
// first node's reply comes back as a response event.
func TestTwoNodesExchangeNicknames(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping network integration test in short mode")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n1, events1 := startTestNode(t, ctx, "")
	n2, events2 := startTestNode(t, ctx, tcpAddr(t, n1))

	// Wait for the bootstrap dial to land.
	waitForConnection(t, n2, n1.LocalID(), 10*time.Second)

	n2.SendNicknameUpdate(n1.LocalID(), wire.NicknameUpdate{
		PeerID:   n2.LocalID(),
		Nickname: "nodetwo.aaaaa",
	})

	ev := awaitEvent(t, events1, 10*time.Second, func(ev app.Event) bool {
		_, ok := ev.(app.NicknameRequest)
		return ok
	})
	req := ev.(app.NicknameRequest)
	if req.From != n2.LocalID() {
		t.Errorf("Expected request from node two, got %s", req.From)
	}
	if req.Update.Nickname != "nodetwo.aaaaa" {
		t.Errorf("Expected announced nickname, got %s", req.Update.Nickname)
	}

	if err := req.Respond(wire.NicknameUpdate{PeerID: n1.LocalID(), Nickname: "nodeone.bbbbb"}); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}

	ev = awaitEvent(t, events2, 10*time.Second, func(ev app.Event) bool {
		_, ok := ev.(app.NicknameResponse)
		return ok
	})
	resp := ev.(app.NicknameResponse)
	if resp.Update.Nickname != "nodeone.bbbbb" {
		t.Errorf("Expected reply nickname, got %s", resp.Update.Nickname)
	}
}

// TestDeclineLegExpectsNoReply sends the empty file-exchange frame that
// signals a decline and verifies no response event ever reaches the sender:
// the leg is one-way, so a reply frame (or the lack of one) must not surface
// as a transfer failure.
func TestDeclineLegExpectsNoReply(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping network integration test in short mode")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n1, events1 := startTestNode(t, ctx, "")
	n2, events2 := startTestNode(t, ctx, tcpAddr(t, n1))
	waitForConnection(t, n2, n1.LocalID(), 10*time.Second)

	n2.SendFileTransfer(n1.LocalID(), nil)

	ev := awaitEvent(t, events1, 10*time.Second, func(ev app.Event) bool {
		_, ok := ev.(app.FileTransferRequest)
		return ok
	})
	req := ev.(app.FileTransferRequest)
	if req.Payload != nil {
		t.Fatalf("Expected nil payload for a decline, got %+v", req.Payload)
	}

	// The dispatcher's teardown answer must be a no-op on the wire.
	if err := req.Respond(nil); err != nil {
		t.Errorf("Teardown respond failed: %v", err)
	}

	// Nothing may come back to the decliner.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events2:
			if _, ok := ev.(app.FileTransferResponse); ok {
				t.Fatal("Expected no file-transfer response after a decline")
			}
		case <-deadline:
			return
		}
	}
}

func TestRecordValidator(t *testing.T) {
	v := recordValidator{}

	for _, key := range []string{
		"/swapbytes/peer::QmSomePeer",
		"/swapbytes/peer::alice.ab1cd",
		"/swapbytes/file::deadbeef",
		"/swapbytes/file_index::QmSomePeer",
	} {
		if err := v.Validate(key, []byte{0x01}); err != nil {
			t.Errorf("Expected %s to validate, got: %v", key, err)
		}
	}

	if err := v.Validate("/swapbytes/peer::x", nil); err == nil {
		t.Error("Expected an empty value to be rejected")
	}
	if err := v.Validate("/swapbytes/bogus::x", []byte{0x01}); err == nil {
		t.Error("Expected an unrecognized key prefix to be rejected")
	}

	idx, err := v.Select("/swapbytes/peer::x", [][]byte{{0x01}, {0x02}})
	if err != nil || idx != 0 {
		t.Errorf("Expected the first replica to win, got (%d, %v)", idx, err)
	}
	if _, err := v.Select("/swapbytes/peer::x", nil); err == nil {
		t.Error("Expected selection over no values to fail")
	}
}

func waitForConnection(t *testing.T, n *Node, peerID string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, connected := range n.ConnectedPeers() {
			if connected == peerID {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for connection to %s", peerID)
}
