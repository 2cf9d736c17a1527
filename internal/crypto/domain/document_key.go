package domain

import (
	"crypto/rand"
	"fmt"
	"log/slog"
)

const documentKeySize = 32

// DocumentKey is the 32-byte random key used to encrypt one document's
// content. Lives for one decrypt/encrypt operation and is then zeroed; its
// wrapped form persists in the KeyDatabase until the document is destroyed
// or superseded by a new epoch.
type DocumentKey struct {
	Key []byte
}

// LogValue redacts the key material from structured log output.
func (d *DocumentKey) LogValue() slog.Value {
	if d == nil {
		return slog.StringValue("[REDACTED:nil]")
	}
	return slog.StringValue("[REDACTED]")
}

// GenerateDocumentKey produces a fresh random DocumentKey.
func GenerateDocumentKey() (*DocumentKey, error) {
	key := make([]byte, documentKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate document key: %w", err)
	}
	return &DocumentKey{Key: key}, nil
}

// Close zeros the key material. Safe to call multiple times.
func (d *DocumentKey) Close() {
	if d == nil {
		return
	}
	Zero(d.Key)
}

// WrappedDocumentKey is the on-disk form of a DocumentKey: AEAD-sealed
// under a KEK at a specific rotation epoch. Epoch starts at 1 and increases
// monotonically per document; the highest epoch is "current". Older epochs
// are retained indefinitely to decrypt historical ciphertext.
type WrappedDocumentKey struct {
	Ciphertext []byte `json:"ciphertext"`
	Nonce      []byte `json:"nonce"`
	Epoch      uint32 `json:"epoch"`
}
