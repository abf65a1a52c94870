package app

import (
	"strings"

	"github.com/cosmqc/swapbytes/internal/store"
	"github.com/cosmqc/swapbytes/internal/wire"
)

// HandleEvent demultiplexes one inbound protocol event and drives the state
// transitions it implies. No error escapes: malformed payloads are logged and
// dropped, failed response sends are logged and the loop moves on.
func (a *App) HandleEvent(ev Event) {
	switch e := ev.(type) {
	case PeerFound:
		a.handlePeerFound(e)
	case PeerLost:
		a.handlePeerLost(e)
	case ChatMessage:
		a.handleChatMessage(e)
	case LookupRecord:
		a.handleLookupRecord(e)
	case BootstrapDone:
		a.handleBootstrapDone()
	case DirectMessageRequest:
		a.handleDirectMessageRequest(e)
	case DirectMessageResponse:
		a.printer.Verbosef(2, "DM delivered to %s", a.directory.Nickname(e.From))
	case NicknameRequest:
		a.handleNicknameRequest(e)
	case NicknameResponse:
		a.directory.Set(e.From, e.Update.Nickname)
	case TradeRequestEvent:
		a.handleTradeRequest(e)
	case TradeResponseEvent:
		a.handleTradeResponse(e)
	case FileTransferRequest:
		a.handleFileTransferRequest(e)
	case FileTransferResponse:
		a.handleFileTransferResponse(e)
	}
}

func (a *App) handlePeerFound(e PeerFound) {
	// Wire into the overlay and routing table. Nickname resolution is lazy:
	// it happens on first message arrival, not per discovery, so churn stays
	// cheap.
	a.printer.Verbosef(1, "Discovered peer %s", e.PeerID)
	a.net.RegisterPeer(e.PeerID)
}

func (a *App) handlePeerLost(e PeerLost) {
	a.printer.Printf("%s has left the network", a.directory.Nickname(e.PeerID))
	// Nickname and trade state survive: the peer may reconnect with the same
	// identity and resume.
	a.net.UnregisterPeer(e.PeerID)
}

// handleChatMessage displays a chat line if the sender's nickname is already
// known; otherwise it buffers the raw payload under a fresh peer:: lookup and
// displays it when the lookup resolves.
func (a *App) handleChatMessage(e ChatMessage) {
	if a.directory.Known(e.From) {
		var chat wire.ChatPayload
		if err := wire.Decode(e.Data, &chat); err != nil {
			a.printer.Verbosef(1, "Dropping undecodable chat payload from %s: %v", e.From, err)
			return
		}
		a.printer.Printf("%s: %s", a.directory.Nickname(e.From), chat.Message)
		return
	}

	queryID := a.net.GetRecord(wire.PeerKey(e.From))
	a.tracker.TrackMessage(queryID, e.From, e.Data)
}

// handleLookupRecord routes one DHT answer by its key's namespace prefix.
func (a *App) handleLookupRecord(e LookupRecord) {
	switch {
	case strings.HasPrefix(e.Key, wire.PeerKeyPrefix):
		a.handlePeerRecord(e)
	case strings.HasPrefix(e.Key, wire.FileKeyPrefix):
		a.handleFileRecord(e)
	case strings.HasPrefix(e.Key, wire.FileIndexKeyPrefix):
		a.handleFileIndexRecord(e)
	default:
		a.printer.Printf("Unexpected record type: %s", e.Key)
	}
}

// handlePeerRecord resolves a buffered chat message: the peer-info payload
// updates the directory, then the buffered line is displayed under the
// resolved nickname, or the raw identity when the payload doesn't decode.
func (a *App) handlePeerRecord(e LookupRecord) {
	pending, ok := a.tracker.TakeMessage(e.QueryID)
	if !ok {
		// Duplicate replica answer, or a lookup nothing is waiting on.
		return
	}

	var info wire.PeerInfo
	if err := wire.Decode(e.Value, &info); err != nil {
		a.printer.Verbosef(1, "Error deserializing peer info: %v", err)
	} else {
		a.directory.Set(info.PeerID, info.Nickname)
	}

	var chat wire.ChatPayload
	if err := wire.Decode(pending.Payload, &chat); err != nil {
		a.printer.Verbosef(1, "Dropping undecodable chat payload from %s: %v", pending.PeerID, err)
		return
	}
	a.printer.Printf("%s: %s", a.directory.Nickname(pending.PeerID), chat.Message)
}

func (a *App) handleFileRecord(e LookupRecord) {
	if !a.tracker.ConsumeDedup(e.QueryID) {
		return
	}
	var metadata store.FileRecord
	if err := wire.Decode(e.Value, &metadata); err != nil {
		a.printer.Printf("Error deserializing file metadata: %v", err)
		return
	}
	a.printer.Printf("\t%s - %s (%d bytes) - %s",
		metadata.Hash, metadata.Filename, metadata.Size, metadata.DescriptionOrPlaceholder())
}

// handleFileIndexRecord fans one peer's hash list out into per-hash metadata
// lookups, each tracked individually for dedup.
func (a *App) handleFileIndexRecord(e LookupRecord) {
	if !a.tracker.ConsumeDedup(e.QueryID) {
		return
	}
	var hashes []string
	if err := wire.Decode(e.Value, &hashes); err != nil {
		a.printer.Printf("Failed to parse file index for %s: %v", e.Key, err)
		return
	}

	owner := strings.TrimPrefix(e.Key, wire.FileIndexKeyPrefix)
	plural := "s"
	if len(hashes) == 1 {
		plural = ""
	}
	a.printer.Printf("%s has uploaded %d file%s:", a.directory.Nickname(owner), len(hashes), plural)

	for _, hash := range hashes {
		queryID := a.net.GetRecord(wire.FileKey(hash))
		a.tracker.TrackDedup(queryID)
	}
}

// handleBootstrapDone pushes our nickname to every connected peer. The push
// model is deliberate: each exchange is a request/response pair, so delivery
// is confirmed per peer.
func (a *App) handleBootstrapDone() {
	update := wire.NicknameUpdate{PeerID: a.net.LocalID(), Nickname: a.nickname}
	for _, peerID := range a.net.ConnectedPeers() {
		a.net.SendNicknameUpdate(peerID, update)
	}
}

func (a *App) handleDirectMessageRequest(e DirectMessageRequest) {
	a.printer.Printf("*DM* %s: %s", e.Message.SenderNickname, e.Message.Message)
	// Always confirm delivery, whatever the content.
	if err := e.Respond(wire.AcknowledgeResponse{OK: true}); err != nil {
		a.printer.Verbosef(1, "Failed to send DM acknowledgement: %v", err)
	}
}

// handleNicknameRequest records the announced nickname and answers with our
// own: a mutual exchange in one round trip.
func (a *App) handleNicknameRequest(e NicknameRequest) {
	a.directory.Set(e.From, e.Update.Nickname)
	reply := wire.NicknameUpdate{PeerID: a.net.LocalID(), Nickname: a.nickname}
	if err := e.Respond(reply); err != nil {
		a.printer.Verbosef(1, "Failed to send nickname response: %v", err)
	}
}

// handleTradeRequest checks the requested file locally, records the incoming
// proposal when present, and always acknowledges with the presence bit. That
// bit is the proposer's signal whether to keep its outgoing slot alive.
func (a *App) handleTradeRequest(e TradeRequestEvent) {
	exists := a.store.Contains(e.Proposal.RequestedHash)
	if exists {
		a.ledger.RecordIncoming(e.From, e.Proposal)

		requested, _ := a.store.Metadata(e.Proposal.RequestedHash)
		detail := ""
		if e.Proposal.OfferedFile.Description != "" {
			detail = " (" + e.Proposal.OfferedFile.Description + ")"
		}
		a.printer.Printf("%s would like to trade '%s' for their '%s'%s. Type '/trade_accept %s' to confirm trade.",
			e.Proposal.Nickname, requested.Filename, e.Proposal.OfferedFile.Filename, detail, e.Proposal.Nickname)
	}
	if err := e.Respond(wire.AcknowledgeResponse{OK: exists}); err != nil {
		a.printer.Verbosef(1, "Failed to send trade acknowledgement: %v", err)
	}
}

func (a *App) handleTradeResponse(e TradeResponseEvent) {
	if e.Ack.OK {
		// Counterpart has the file and is deciding; our outgoing proposal
		// stays open until their accept or decline arrives on the
		// file-exchange channel.
		return
	}
	a.ledger.CompleteOrAbortOutgoing(e.From)
	a.printer.Printf("%s does not have the requested file", a.directory.Nickname(e.From))
}

// handleFileTransferRequest is the proposer's side of the closing exchange:
// the counterpart accepted and sent their file, or declined with an empty
// payload.
func (a *App) handleFileTransferRequest(e FileTransferRequest) {
	if e.Payload == nil {
		a.ledger.CompleteOrAbortOutgoing(e.From)
		a.printer.Printf("Your trade request with %s was declined", a.directory.Nickname(e.From))
		if err := e.Respond(nil); err != nil {
			a.printer.Verbosef(1, "Failed to close declined trade: %v", err)
		}
		return
	}

	proposal, ok := a.ledger.Outgoing(e.From)
	if !ok {
		// Stale or spoofed completion; answer empty and move on.
		if err := e.Respond(nil); err != nil {
			a.printer.Verbosef(1, "Failed to send file response: %v", err)
		}
		return
	}

	if path, err := store.SaveToDir(a.outputDir, e.Payload.Metadata.Filename, e.Payload.File); err != nil {
		a.printer.Printf("Failed to save file: %v", err)
	} else {
		a.printer.Verbosef(1, "Saved received file to %s", path)
	}

	// Complete the swap symmetrically: our offered file rides the response.
	data, _ := a.store.Bytes(proposal.OfferedFile.Hash)
	response := &wire.FileResponse{File: data, Metadata: proposal.OfferedFile}
	if err := e.Respond(response); err != nil {
		a.printer.Printf("Failed to send file response: %v", err)
	}

	a.ledger.CompleteOrAbortOutgoing(e.From)
	a.printer.Printf("Trade successful!")
}

// handleFileTransferResponse is the final leg for the acceptor, who sent
// their file first.
func (a *App) handleFileTransferResponse(e FileTransferResponse) {
	if e.Payload == nil {
		a.printer.Printf("File transfer failed.")
		return
	}

	a.ledger.AbortIncoming(e.From)
	path, err := store.SaveToDir(a.outputDir, e.Payload.Metadata.Filename, e.Payload.File)
	if err != nil {
		a.printer.Printf("Failed to save file: %v", err)
		return
	}
	a.printer.Verbosef(1, "Saved received file to %s", path)
	a.printer.Printf("Trade successful!")
}
