package app

import "github.com/cosmqc/swapbytes/internal/wire"

// Network is the app's view of the libp2p layer. Every operation is
// fire-and-forget: failures are logged by the implementation and eventual
// replies re-enter the loop as fresh events on the event channel.
type Network interface {
	// LocalID returns this process's peer identity.
	LocalID() string

	// ConnectedPeers returns the identities of currently connected peers.
	ConnectedPeers() []string

	// RegisterPeer wires a discovered peer into the pub/sub overlay and the
	// DHT routing table and kicks off a closest-peers lookup to speed up
	// routing convergence.
	RegisterPeer(peerID string)

	// UnregisterPeer detaches a departed peer from the overlay.
	UnregisterPeer(peerID string)

	// PublishChat broadcasts a chat payload on the chat topic.
	PublishChat(payload wire.ChatPayload)

	// PutRecord publishes a record value under a logical key. Write failures
	// are logged as non-fatal; local state keeps the attempted change.
	PutRecord(logicalKey string, value []byte)

	// GetRecord issues a DHT lookup for a logical key and returns the query
	// id that will correlate its LookupRecord events.
	GetRecord(logicalKey string) (queryID string)

	// SendDirectMessage sends a DM request to a peer.
	SendDirectMessage(peerID string, msg wire.DirectMessage)

	// SendNicknameUpdate announces our nickname to a peer and asks for theirs.
	SendNicknameUpdate(peerID string, update wire.NicknameUpdate)

	// SendTradeRequest opens a trade negotiation with a peer.
	SendTradeRequest(peerID string, proposal wire.TradeProposal)

	// SendFileTransfer sends a file-exchange leg. A nil payload is the
	// decline signal.
	SendFileTransfer(peerID string, payload *wire.FileResponse)

	// Discover proactively refreshes peer discovery (periodic tick).
	Discover()
}
