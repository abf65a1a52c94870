// Package wire defines the CBOR message schemas exchanged between peers and
// the framing used on request/response streams.
package wire

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/cosmqc/swapbytes/internal/store"
)

// Stream protocols. Every negotiation channel gets its own protocol so the
// handlers stay single-purpose.
const (
	FileExchangeProtocol  = "/swapbytes/file-exchange/1"
	DirectMessageProtocol = "/swapbytes/direct-message/1"
	NicknameProtocol      = "/swapbytes/nickname/1"
	TradeRequestProtocol  = "/swapbytes/trade-request/1"
)

// ChatTopic is the gossipsub topic all chat traffic is published on.
const ChatTopic = "chat"

// ChatPayload is a broadcast chat line. It deliberately carries no nickname:
// senders are resolved through the directory or a peer:: lookup.
type ChatPayload struct {
	Message string `cbor:"1,keyasint"`
}

// PeerInfo is the value stored under peer:: DHT records.
type PeerInfo struct {
	PeerID   string `cbor:"1,keyasint"`
	Nickname string `cbor:"2,keyasint"`
}

// NicknameUpdate is pushed to each connected peer after bootstrap and on
// /nick. Requester and responder exchange the same shape in one round trip.
type NicknameUpdate struct {
	PeerID   string `cbor:"1,keyasint"`
	Nickname string `cbor:"2,keyasint"`
}

// DirectMessage is a one-to-one message outside the chat topic.
type DirectMessage struct {
	SenderNickname string `cbor:"1,keyasint"`
	Message        string `cbor:"2,keyasint"`
}

// AcknowledgeResponse confirms delivery (direct messages) or reports whether
// the requested file exists (trade requests).
type AcknowledgeResponse struct {
	OK bool `cbor:"1,keyasint"`
}

// TradeProposal offers one file for another. The offered file's metadata is
// sent eagerly; the requested file travels as a hash the receiver resolves
// against its own store.
type TradeProposal struct {
	RequestedHash string           `cbor:"1,keyasint"`
	OfferedFile   store.FileRecord `cbor:"2,keyasint"`
	Nickname      string           `cbor:"3,keyasint"`
}

// FileResponse carries file bytes plus metadata on the file-exchange channel.
// A nil *FileResponse frame is the decline (request) or failure (response)
// signal.
type FileResponse struct {
	File     []byte           `cbor:"1,keyasint"`
	Metadata store.FileRecord `cbor:"2,keyasint"`
}

// maxFrameSize bounds a single frame. Trades move whole files, so the cap is
// generous but still keeps a malformed length prefix from exhausting memory.
const maxFrameSize = 64 << 20

// Encode marshals a message to CBOR.
func Encode(v any) ([]byte, error) {
	return cbor.Marshal(v)
}

// Decode unmarshals CBOR into out.
func Decode(data []byte, out any) error {
	return cbor.Unmarshal(data, out)
}

// WriteFrame writes a CBOR-encoded message with a 4-byte big-endian length
// prefix.
func WriteFrame(w io.Writer, v any) error {
	data, err := cbor.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	length := uint32(len(data))
	prefix := []byte{
		byte(length >> 24),
		byte(length >> 16),
		byte(length >> 8),
		byte(length),
	}
	if _, err := w.Write(prefix); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadFrame reads one length-prefixed frame and decodes it into out.
func ReadFrame(r io.Reader, out any) error {
	prefix := make([]byte, 4)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return err
	}
	length := uint32(prefix[0])<<24 |
		uint32(prefix[1])<<16 |
		uint32(prefix[2])<<8 |
		uint32(prefix[3])
	if length > maxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds limit", length)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return err
	}
	return cbor.Unmarshal(data, out)
}
