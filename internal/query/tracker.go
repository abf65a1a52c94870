// Package query correlates outstanding DHT lookups with the local work that
// issued them. A lookup may be answered by several replicas; consuming an
// entry is exactly-once, which is what makes duplicate answers safe to drop.
package query

// PendingMessage is a raw chat payload buffered until the sender's nickname
// lookup resolves.
type PendingMessage struct {
	PeerID  string
	Payload []byte
}

// Tracker maps query ids to either a buffered message or a dedup marker.
// Owned by the event loop; no locking.
type Tracker struct {
	messages map[string]PendingMessage
	dedup    map[string]struct{}
}

func New() *Tracker {
	return &Tracker{
		messages: make(map[string]PendingMessage),
		dedup:    make(map[string]struct{}),
	}
}

// TrackMessage buffers a raw payload from peerID under the lookup's query id.
func (t *Tracker) TrackMessage(queryID, peerID string, payload []byte) {
	t.messages[queryID] = PendingMessage{PeerID: peerID, Payload: payload}
}

// TakeMessage removes and returns the buffered message for a query id.
// A second call with the same id reports absence.
func (t *Tracker) TakeMessage(queryID string) (PendingMessage, bool) {
	msg, ok := t.messages[queryID]
	if ok {
		delete(t.messages, queryID)
	}
	return msg, ok
}

// TrackDedup marks a query id as awaiting its first answer.
func (t *Tracker) TrackDedup(queryID string) {
	t.dedup[queryID] = struct{}{}
}

// ConsumeDedup reports whether the id was pending, and clears it. False means
// a duplicate or stale answer the caller must discard.
func (t *Tracker) ConsumeDedup(queryID string) bool {
	_, ok := t.dedup[queryID]
	if ok {
		delete(t.dedup, queryID)
	}
	return ok
}
