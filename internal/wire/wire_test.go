package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmqc/swapbytes/internal/store"
)

func TestKeyHelpers(t *testing.T) {
	assert.Equal(t, "peer::alice.ab1cd", PeerKey("alice.ab1cd"))
	assert.Equal(t, "file::deadbeef", FileKey("deadbeef"))
	assert.Equal(t, "file_index::peer-1", FileIndexKey("peer-1"))
}

func TestDHTKeyRoundTrip(t *testing.T) {
	logical := FileKey("deadbeef")
	dhtKey := DHTKey(logical)

	assert.Equal(t, "/swapbytes/file::deadbeef", dhtKey)
	assert.Equal(t, logical, LogicalKey(dhtKey))

	// Keys outside the namespace come back untouched.
	assert.Equal(t, "/other/ns/key", LogicalKey("/other/ns/key"))
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	sent := TradeProposal{
		RequestedHash: "aaaa",
		OfferedFile: store.FileRecord{
			Filename: "notes.txt",
			Owner:    "peer-1",
			Hash:     "bbbb",
			Size:     42,
		},
		Nickname: "alice.ab1cd",
	}

	require.NoError(t, WriteFrame(&buf, sent))

	var got TradeProposal
	require.NoError(t, ReadFrame(&buf, &got))
	assert.Equal(t, sent, got)
	assert.Zero(t, buf.Len())
}

func TestNilFileResponseFrame(t *testing.T) {
	// A nil payload frame is the decline signal on the file-exchange channel;
	// it must survive the trip as nil, not as a zero-valued struct.
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, (*FileResponse)(nil)))

	var got *FileResponse
	require.NoError(t, ReadFrame(&buf, &got))
	assert.Nil(t, got)
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	// 64 MiB + 1, big-endian.
	buf := bytes.NewReader([]byte{0x04, 0x00, 0x00, 0x01})

	var out ChatPayload
	err := ReadFrame(buf, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds limit")
}

func TestReadFrameShortRead(t *testing.T) {
	// Prefix promises 10 bytes, body has 3.
	buf := bytes.NewReader([]byte{0x00, 0x00, 0x00, 0x0a, 0x01, 0x02, 0x03})

	var out ChatPayload
	assert.Error(t, ReadFrame(buf, &out))
}

func TestEncodeDecode(t *testing.T) {
	data, err := Encode(ChatPayload{Message: "hello"})
	require.NoError(t, err)

	var got ChatPayload
	require.NoError(t, Decode(data, &got))
	assert.Equal(t, "hello", got.Message)
}
