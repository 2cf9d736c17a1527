package domain

import (
	"crypto/rand"
	"fmt"
	"log/slog"
)

const kekSize = 32

// Kek is the 32-byte Key-Encryption Key. Generated once at first unlock;
// persisted only in its wrapped form (WrappedKek), sealed under the current
// DeviceKey. Unwrapping requires a working DeviceKey.
type Kek struct {
	Key []byte
}

// LogValue redacts the key material from structured log output.
func (k *Kek) LogValue() slog.Value {
	if k == nil {
		return slog.StringValue("[REDACTED:nil]")
	}
	return slog.StringValue("[REDACTED]")
}

// GenerateKek produces a fresh random KEK.
func GenerateKek() (*Kek, error) {
	key := make([]byte, kekSize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate kek: %w", err)
	}
	return &Kek{Key: key}, nil
}

// Close zeros the key material. Safe to call multiple times.
func (k *Kek) Close() {
	if k == nil {
		return
	}
	Zero(k.Key)
}

// WrappedKek is the on-disk form of a KEK: AEAD-sealed under the DeviceKey.
// Serialized as JSON {nonce, ciphertext} in kek.wrapped.
type WrappedKek struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}
