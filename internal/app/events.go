package app

import "github.com/cosmqc/swapbytes/internal/wire"

// Event is an inbound protocol event. The set is closed: the dispatcher
// switches exhaustively over these types and nothing else ever enters the
// loop's event channel.
type Event interface {
	isEvent()
}

// PeerFound reports a peer discovered on the local network.
type PeerFound struct {
	PeerID string
}

// PeerLost reports that the last connection to a peer dropped. Nickname and
// trade state are kept: the peer may reconnect with the same identity.
type PeerLost struct {
	PeerID string
}

// ChatMessage is a raw gossipsub delivery on the chat topic.
type ChatMessage struct {
	From string
	Data []byte
}

// LookupRecord is one DHT answer for the lookup identified by QueryID. A
// logical query may produce several of these, one per answering replica.
type LookupRecord struct {
	QueryID string
	Key     string // logical key, namespace prefix intact
	Value   []byte
}

// BootstrapDone fires once the DHT routing table has converged.
type BootstrapDone struct{}

// DirectMessageRequest is an inbound DM awaiting acknowledgement.
type DirectMessageRequest struct {
	From    string
	Message wire.DirectMessage
	Respond func(wire.AcknowledgeResponse) error
}

// DirectMessageResponse is the delivery confirmation for a DM we sent.
type DirectMessageResponse struct {
	From string
	Ack  wire.AcknowledgeResponse
}

// NicknameRequest is a peer announcing its nickname and asking for ours.
type NicknameRequest struct {
	From    string
	Update  wire.NicknameUpdate
	Respond func(wire.NicknameUpdate) error
}

// NicknameResponse is the counterpart's half of a nickname exchange we
// initiated.
type NicknameResponse struct {
	From   string
	Update wire.NicknameUpdate
}

// TradeRequestEvent is an inbound trade offer. The responder acknowledges
// whether it owns the requested file.
type TradeRequestEvent struct {
	From     string
	Proposal wire.TradeProposal
	Respond  func(wire.AcknowledgeResponse) error
}

// TradeResponseEvent is the existence acknowledgement for a trade we offered.
type TradeResponseEvent struct {
	From string
	Ack  wire.AcknowledgeResponse
}

// FileTransferRequest is an inbound file-exchange leg. A nil payload is the
// explicit decline signal.
type FileTransferRequest struct {
	From    string
	Payload *wire.FileResponse
	Respond func(*wire.FileResponse) error
}

// FileTransferResponse is the closing leg of a swap we initiated by sending
// our file first. A nil payload reports failure.
type FileTransferResponse struct {
	From    string
	Payload *wire.FileResponse
}

func (PeerFound) isEvent()            {}
func (PeerLost) isEvent()             {}
func (ChatMessage) isEvent()          {}
func (LookupRecord) isEvent()         {}
func (BootstrapDone) isEvent()        {}
func (DirectMessageRequest) isEvent() {}
func (DirectMessageResponse) isEvent() {}
func (NicknameRequest) isEvent()      {}
func (NicknameResponse) isEvent()     {}
func (TradeRequestEvent) isEvent()    {}
func (TradeResponseEvent) isEvent()   {}
func (FileTransferRequest) isEvent()  {}
func (FileTransferResponse) isEvent() {}
