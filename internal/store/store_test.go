package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndRetrieve(t *testing.T) {
	s := New()
	data := []byte("the file contents")

	hash := s.Add(data, "notes.txt", "peer-1", "lecture notes")

	require.Equal(t, ComputeHash(data), hash)

	got, ok := s.Bytes(hash)
	require.True(t, ok)
	assert.Equal(t, data, got)

	meta, ok := s.Metadata(hash)
	require.True(t, ok)
	assert.Equal(t, "notes.txt", meta.Filename)
	assert.Equal(t, "peer-1", meta.Owner)
	assert.Equal(t, "lecture notes", meta.Description)
	assert.Equal(t, hash, meta.Hash)
	assert.Equal(t, int64(len(data)), meta.Size)

	assert.True(t, s.Contains(hash))
	assert.False(t, s.Contains("missing"))
}

func TestAddIsIdempotent(t *testing.T) {
	s := New()
	data := []byte("same bytes")

	h1 := s.Add(data, "a.txt", "peer-1", "")
	h2 := s.Add(data, "a.txt", "peer-1", "")

	assert.Equal(t, h1, h2)
	assert.Len(t, s.AllHashes(), 1)
}

func TestAllHashes(t *testing.T) {
	s := New()
	assert.Empty(t, s.AllHashes())

	h1 := s.Add([]byte("one"), "one.txt", "p", "")
	h2 := s.Add([]byte("two"), "two.txt", "p", "")

	assert.ElementsMatch(t, []string{h1, h2}, s.AllHashes())
}

func TestComputeHash(t *testing.T) {
	h := ComputeHash([]byte("hello"))

	// Full SHA-256, lowercase hex.
	assert.Len(t, h, 64)
	assert.Equal(t, h, ComputeHash([]byte("hello")))
	assert.NotEqual(t, h, ComputeHash([]byte("hello!")))
}

func TestDescriptionOrPlaceholder(t *testing.T) {
	assert.Equal(t, "No description", FileRecord{}.DescriptionOrPlaceholder())
	assert.Equal(t, "a pdf", FileRecord{Description: "a pdf"}.DescriptionOrPlaceholder())
}

func TestSaveToDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "received")
	data := []byte("payload")

	path, err := SaveToDir(dir, "report.pdf", data)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.pdf"), path)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)
}

func TestSaveToDirStripsPathComponents(t *testing.T) {
	dir := t.TempDir()

	// A remote peer controls the declared filename; traversal must not escape
	// the output directory.
	path, err := SaveToDir(dir, "../../etc/evil.txt", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "evil.txt"), path)
}

func TestSaveToDirOverwrites(t *testing.T) {
	dir := t.TempDir()

	_, err := SaveToDir(dir, "f.txt", []byte("first"))
	require.NoError(t, err)
	path, err := SaveToDir(dir, "f.txt", []byte("second"))
	require.NoError(t, err)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), onDisk)
}
