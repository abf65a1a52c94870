package wire

import "strings"

// Logical DHT record keys are namespaced strings. The prefix is load-bearing:
// the dispatcher routes lookup results on it.
const (
	PeerKeyPrefix      = "peer::"
	FileKeyPrefix      = "file::"
	FileIndexKeyPrefix = "file_index::"
)

// DHTNamespace is the validator namespace all swapbytes records live under
// in the Kademlia keyspace.
const DHTNamespace = "swapbytes"

const dhtNamespace = "/" + DHTNamespace + "/"

// PeerKey returns the logical key for a peer-info record. Both the peer id
// and the nickname are published under this prefix.
func PeerKey(idOrNickname string) string {
	return PeerKeyPrefix + idOrNickname
}

// FileKey returns the logical key for a file-metadata record.
func FileKey(hash string) string {
	return FileKeyPrefix + hash
}

// FileIndexKey returns the logical key for a peer's full hash set.
func FileIndexKey(peerID string) string {
	return FileIndexKeyPrefix + peerID
}

// DHTKey maps a logical key into the Kademlia keyspace.
func DHTKey(logical string) string {
	return dhtNamespace + logical
}

// LogicalKey strips the Kademlia namespace from a record key. Keys outside
// the namespace are returned unchanged; the dispatcher logs them as
// unrecognized.
func LogicalKey(dhtKey string) string {
	return strings.TrimPrefix(dhtKey, dhtNamespace)
}
