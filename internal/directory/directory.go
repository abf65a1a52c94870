// Package directory maps peer identities to display nicknames and back.
package directory

// Directory is the bidirectional peer-id/nickname mapping. Both directions
// are updated on every insert, so they stay consistent by construction.
type Directory struct {
	peerToNickname map[string]string
	nicknameToPeer map[string]string
}

func New() *Directory {
	return &Directory{
		peerToNickname: make(map[string]string),
		nicknameToPeer: make(map[string]string),
	}
}

// Set records a nickname for a peer, replacing any previous binding in both
// directions.
func (d *Directory) Set(peerID, nickname string) {
	if old, ok := d.peerToNickname[peerID]; ok && old != nickname {
		delete(d.nicknameToPeer, old)
	}
	d.peerToNickname[peerID] = nickname
	d.nicknameToPeer[nickname] = peerID
}

// Nickname resolves a peer id to its nickname. Unknown peers resolve to the
// raw id so display code never has to handle a miss.
func (d *Directory) Nickname(peerID string) string {
	if nickname, ok := d.peerToNickname[peerID]; ok {
		return nickname
	}
	return peerID
}

// Identity resolves a nickname to a peer id. This direction reports absence:
// it gates command preconditions.
func (d *Directory) Identity(nickname string) (string, bool) {
	peerID, ok := d.nicknameToPeer[nickname]
	return peerID, ok
}

// Known reports whether a nickname has been recorded for the peer.
func (d *Directory) Known(peerID string) bool {
	_, ok := d.peerToNickname[peerID]
	return ok
}
