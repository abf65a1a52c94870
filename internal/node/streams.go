package node

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"

	"github.com/cosmqc/swapbytes/internal/app"
	"github.com/cosmqc/swapbytes/internal/wire"
)

type frameReader = io.Reader

// request opens a stream, writes the request frame, and hands the stream to
// onResponse for the reply. Runs detached: callers are fire-and-forget and
// the reply re-enters the loop as an event.
func (n *Node) request(peerID string, proto string, req any, onResponse func(frameReader)) {
	go func() {
		pid, err := peer.Decode(peerID)
		if err != nil {
			n.printer.Verbosef(1, "Invalid peer id %s: %v", peerID, err)
			return
		}
		s, err := n.host.NewStream(n.ctx, pid, protocol.ID(proto))
		if err != nil {
			n.printer.Verbosef(1, "Failed to open %s stream to %s: %v", proto, peerID, err)
			return
		}
		defer s.Close()

		if err := wire.WriteFrame(s, req); err != nil {
			n.printer.Verbosef(1, "Failed to send %s request to %s: %v", proto, peerID, err)
			return
		}
		onResponse(s)
	}()
}

func (n *Node) registerStreamHandlers() {
	n.host.SetStreamHandler(protocol.ID(wire.DirectMessageProtocol), n.handleDirectMessageStream)
	n.host.SetStreamHandler(protocol.ID(wire.NicknameProtocol), n.handleNicknameStream)
	n.host.SetStreamHandler(protocol.ID(wire.TradeRequestProtocol), n.handleTradeRequestStream)
	n.host.SetStreamHandler(protocol.ID(wire.FileExchangeProtocol), n.handleFileExchangeStream)
}

// Each handler reads one request frame, forwards it to the loop, and lets
// the dispatcher answer through the Respond closure. Malformed frames reset
// the stream; no response is owed for garbage.

func (n *Node) handleDirectMessageStream(s network.Stream) {
	from := s.Conn().RemotePeer().String()
	var msg wire.DirectMessage
	if err := wire.ReadFrame(s, &msg); err != nil {
		n.printer.Verbosef(1, "Dropping malformed DM from %s: %v", from, err)
		_ = s.Reset()
		return
	}
	n.emit(app.DirectMessageRequest{
		From:    from,
		Message: msg,
		Respond: func(ack wire.AcknowledgeResponse) error {
			defer s.Close()
			return wire.WriteFrame(s, ack)
		},
	})
}

func (n *Node) handleNicknameStream(s network.Stream) {
	from := s.Conn().RemotePeer().String()
	var update wire.NicknameUpdate
	if err := wire.ReadFrame(s, &update); err != nil {
		n.printer.Verbosef(1, "Dropping malformed nickname update from %s: %v", from, err)
		_ = s.Reset()
		return
	}
	n.emit(app.NicknameRequest{
		From:   from,
		Update: update,
		Respond: func(reply wire.NicknameUpdate) error {
			defer s.Close()
			return wire.WriteFrame(s, reply)
		},
	})
}

func (n *Node) handleTradeRequestStream(s network.Stream) {
	from := s.Conn().RemotePeer().String()
	var proposal wire.TradeProposal
	if err := wire.ReadFrame(s, &proposal); err != nil {
		n.printer.Verbosef(1, "Dropping malformed trade request from %s: %v", from, err)
		_ = s.Reset()
		return
	}
	n.emit(app.TradeRequestEvent{
		From:     from,
		Proposal: proposal,
		Respond: func(ack wire.AcknowledgeResponse) error {
			defer s.Close()
			return wire.WriteFrame(s, ack)
		},
	})
}

func (n *Node) handleFileExchangeStream(s network.Stream) {
	from := s.Conn().RemotePeer().String()
	var payload *wire.FileResponse
	if err := wire.ReadFrame(s, &payload); err != nil {
		n.printer.Verbosef(1, "Dropping malformed file exchange from %s: %v", from, err)
		_ = s.Reset()
		return
	}
	respond := func(response *wire.FileResponse) error {
		defer s.Close()
		return wire.WriteFrame(s, response)
	}
	if payload == nil {
		// A nil payload is a decline; the sender has already hung up, so the
		// teardown only closes the stream.
		respond = func(*wire.FileResponse) error {
			return s.Close()
		}
	}
	n.emit(app.FileTransferRequest{
		From:    from,
		Payload: payload,
		Respond: respond,
	})
}

// recordValidator accepts non-empty records under the known key prefixes.
// Record values are opaque CBOR; decode errors are the dispatcher's concern,
// and between conflicting replicas the first answer wins.
type recordValidator struct{}

func (recordValidator) Validate(key string, value []byte) error {
	if len(value) == 0 {
		return errors.New("empty record value")
	}
	logical := wire.LogicalKey(key)
	switch {
	case strings.HasPrefix(logical, wire.PeerKeyPrefix),
		strings.HasPrefix(logical, wire.FileKeyPrefix),
		strings.HasPrefix(logical, wire.FileIndexKeyPrefix):
		return nil
	}
	return fmt.Errorf("unrecognized record key: %s", key)
}

func (recordValidator) Select(key string, values [][]byte) (int, error) {
	if len(values) == 0 {
		return 0, errors.New("no values to select from")
	}
	return 0, nil
}
