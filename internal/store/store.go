// Package store holds the files a peer has uploaded, keyed by content hash.
// Metadata is published to the DHT; the bytes never leave the process except
// through a completed trade.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// FileRecord describes one uploaded file. Created on upload, immutable after.
type FileRecord struct {
	Filename    string `cbor:"1,keyasint"`
	Owner       string `cbor:"2,keyasint"`
	Description string `cbor:"3,keyasint,omitempty"`
	Hash        string `cbor:"4,keyasint"`
	Size        int64  `cbor:"5,keyasint"`
}

// DescriptionOrPlaceholder returns the description, or a placeholder when the
// uploader didn't provide one.
func (r FileRecord) DescriptionOrPlaceholder() string {
	if r.Description == "" {
		return "No description"
	}
	return r.Description
}

// Store is the local content-addressed file store. It has no network
// awareness; the event loop is its only caller, so it needs no locking.
type Store struct {
	files    map[string][]byte
	metadata map[string]FileRecord
}

func New() *Store {
	return &Store{
		files:    make(map[string][]byte),
		metadata: make(map[string]FileRecord),
	}
}

// Add stores bytes and derived metadata under the content hash and returns
// the hash. Adding identical bytes twice overwrites identical content, so the
// operation is idempotent.
func (s *Store) Add(data []byte, filename, owner, description string) string {
	hash := ComputeHash(data)
	s.files[hash] = data
	s.metadata[hash] = FileRecord{
		Filename:    filename,
		Owner:       owner,
		Description: description,
		Hash:        hash,
		Size:        int64(len(data)),
	}
	return hash
}

// Bytes returns the stored file bytes for a hash.
func (s *Store) Bytes(hash string) ([]byte, bool) {
	data, ok := s.files[hash]
	return data, ok
}

// Metadata returns the stored metadata for a hash.
func (s *Store) Metadata(hash string) (FileRecord, bool) {
	rec, ok := s.metadata[hash]
	return rec, ok
}

func (s *Store) Contains(hash string) bool {
	_, ok := s.files[hash]
	return ok
}

// AllHashes returns the hashes of every stored file, in no particular order.
func (s *Store) AllHashes() []string {
	hashes := make([]string, 0, len(s.files))
	for hash := range s.files {
		hashes = append(hashes, hash)
	}
	return hashes
}

// ComputeHash returns the canonical content hash: the full SHA-256 digest of
// the bytes, lowercase hex. Any truncation is a display concern only.
func ComputeHash(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// SaveToDir writes received trade bytes into dir under the declared filename,
// creating the directory if needed. Existing files are overwritten.
func SaveToDir(dir, filename string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	// Strip any path components a remote peer declared.
	path := filepath.Join(dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}
