package node

import (
	"context"

	"github.com/google/uuid"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/peerstore"

	"github.com/cosmqc/swapbytes/internal/app"
	"github.com/cosmqc/swapbytes/internal/wire"
)

// Node implements the dispatcher's view of the network.
var _ app.Network = (*Node)(nil)

func (n *Node) LocalID() string {
	return n.host.ID().String()
}

func (n *Node) ConnectedPeers() []string {
	peers := n.host.Network().Peers()
	ids := make([]string, 0, len(peers))
	for _, pid := range peers {
		ids = append(ids, pid.String())
	}
	return ids
}

// RegisterPeer connects a discovered peer, which enrolls it in the gossipsub
// mesh and the DHT routing table, then issues a closest-peers lookup to
// accelerate routing convergence.
func (n *Node) RegisterPeer(peerID string) {
	pid, err := peer.Decode(peerID)
	if err != nil {
		n.printer.Verbosef(1, "Ignoring invalid peer id %s: %v", peerID, err)
		return
	}

	n.mu.Lock()
	addrs := n.discovered[pid]
	n.mu.Unlock()
	if len(addrs) > 0 {
		n.host.Peerstore().AddAddrs(pid, addrs, peerstore.PermanentAddrTTL)
	}

	go func() {
		if err := n.host.Connect(n.ctx, peer.AddrInfo{ID: pid, Addrs: addrs}); err != nil {
			n.printer.Verbosef(1, "Failed to connect to %s: %v", peerID, err)
			return
		}
		if _, err := n.dht.GetClosestPeers(n.ctx, string(pid)); err != nil {
			n.printer.Verbosef(2, "Closest-peers lookup for %s: %v", peerID, err)
		}
	}()
}

// UnregisterPeer forgets a departed peer's discovered addresses. Gossipsub
// prunes its mesh on disconnect by itself, and directory/trade state is
// deliberately kept by the caller.
func (n *Node) UnregisterPeer(peerID string) {
	pid, err := peer.Decode(peerID)
	if err != nil {
		return
	}
	n.mu.Lock()
	delete(n.discovered, pid)
	n.mu.Unlock()
}

func (n *Node) PublishChat(payload wire.ChatPayload) {
	data, err := wire.Encode(payload)
	if err != nil {
		n.printer.Printf("Failed to encode message: %v", err)
		return
	}
	if err := n.topic.Publish(n.ctx, data); err != nil {
		n.printer.Printf("Failed to send message: %v", err)
	}
}

// PutRecord publishes a record asynchronously. The DHT keeps a local copy
// even when replication fails, so a failure only delays network visibility.
func (n *Node) PutRecord(logicalKey string, value []byte) {
	go func() {
		ctx, cancel := context.WithTimeout(n.ctx, publishTimeout)
		defer cancel()
		if err := n.dht.PutValue(ctx, wire.DHTKey(logicalKey), value); err != nil {
			n.printer.Printf("Error publishing record %s: %v", logicalKey, err)
		}
	}()
}

// GetRecord issues a lookup and streams every replica's answer back into the
// loop as LookupRecord events under one query id. Dedup is the dispatcher's
// job, which is why duplicates are forwarded as-is.
func (n *Node) GetRecord(logicalKey string) string {
	queryID := uuid.NewString()
	go func() {
		ctx, cancel := context.WithTimeout(n.ctx, lookupTimeout)
		defer cancel()
		answers, err := n.dht.SearchValue(ctx, wire.DHTKey(logicalKey))
		if err != nil {
			n.printer.Verbosef(1, "Lookup failed for %s: %v", logicalKey, err)
			return
		}
		for value := range answers {
			n.emit(app.LookupRecord{QueryID: queryID, Key: logicalKey, Value: value})
		}
	}()
	return queryID
}

func (n *Node) SendDirectMessage(peerID string, msg wire.DirectMessage) {
	n.request(peerID, wire.DirectMessageProtocol, msg, func(s frameReader) {
		var ack wire.AcknowledgeResponse
		if err := wire.ReadFrame(s, &ack); err != nil {
			n.printer.Verbosef(1, "No DM acknowledgement from %s: %v", peerID, err)
			return
		}
		n.emit(app.DirectMessageResponse{From: peerID, Ack: ack})
	})
}

func (n *Node) SendNicknameUpdate(peerID string, update wire.NicknameUpdate) {
	n.request(peerID, wire.NicknameProtocol, update, func(s frameReader) {
		var reply wire.NicknameUpdate
		if err := wire.ReadFrame(s, &reply); err != nil {
			n.printer.Verbosef(1, "No nickname response from %s: %v", peerID, err)
			return
		}
		n.emit(app.NicknameResponse{From: peerID, Update: reply})
	})
}

func (n *Node) SendTradeRequest(peerID string, proposal wire.TradeProposal) {
	n.request(peerID, wire.TradeRequestProtocol, proposal, func(s frameReader) {
		var ack wire.AcknowledgeResponse
		if err := wire.ReadFrame(s, &ack); err != nil {
			n.printer.Verbosef(1, "No trade acknowledgement from %s: %v", peerID, err)
			return
		}
		n.emit(app.TradeResponseEvent{From: peerID, Ack: ack})
	})
}

// SendFileTransfer sends a file-exchange leg; nil is the decline signal.
// A failed exchange surfaces as an empty FileTransferResponse so the user
// hears about it.
func (n *Node) SendFileTransfer(peerID string, payload *wire.FileResponse) {
	if payload == nil {
		// Decline legs are one-way: the counterpart owes no reply frame, so
		// reading one here would surface a phantom failure.
		n.request(peerID, wire.FileExchangeProtocol, payload, func(frameReader) {})
		return
	}
	n.request(peerID, wire.FileExchangeProtocol, payload, func(s frameReader) {
		var response *wire.FileResponse
		if err := wire.ReadFrame(s, &response); err != nil {
			n.printer.Verbosef(1, "No file-exchange response from %s: %v", peerID, err)
			n.emit(app.FileTransferResponse{From: peerID, Payload: nil})
			return
		}
		n.emit(app.FileTransferResponse{From: peerID, Payload: response})
	})
}

// Discover re-dials the bootstrap address if one is configured and refreshes
// the DHT routing table. Runs on the loop's periodic tick.
func (n *Node) Discover() {
	if n.bootstrapAddr != nil {
		go n.dialBootstrap()
	}
	go n.awaitRefresh()
}
