// Package domain defines the cryptographic key hierarchy for the sovereign
// security core: MasterKey -> DeviceKey -> KEK -> DocumentKey.
package domain

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"
)

const masterKeySize = 32

// MasterKey is the 32-byte root of the key hierarchy. It is created either
// by key-derivation from a (passphrase, salt) pair via HKDF-SHA256, or by a
// CSPRNG for tests and recovery paths. It is never persisted in cleartext;
// the only on-disk representation of a MasterKey is as Shamir shares held
// by distinct guardians (see internal/recovery).
type MasterKey struct {
	Key []byte
}

// LogValue redacts the key material from structured log output.
func (m *MasterKey) LogValue() slog.Value {
	if m == nil {
		return slog.StringValue("[REDACTED:nil]")
	}
	return slog.StringValue("[REDACTED]")
}

// GenerateMasterKey produces a fresh random MasterKey. Used for recovery
// splitting tests and for bootstrapping a brand-new identity before the
// user has chosen a passphrase.
func GenerateMasterKey() (*MasterKey, error) {
	key := make([]byte, masterKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate master key: %w", err)
	}
	return &MasterKey{Key: key}, nil
}

// MasterKeyFromBytes wraps existing key material (e.g. Shamir-reconstructed
// bytes) as a MasterKey. Returns ErrInvalidKeySize if b is not 32 bytes.
func MasterKeyFromBytes(b []byte) (*MasterKey, error) {
	if len(b) != masterKeySize {
		return nil, fmt.Errorf("%w: master key must be %d bytes, got %d", ErrInvalidKeySize, masterKeySize, len(b))
	}
	key := make([]byte, masterKeySize)
	copy(key, b)
	return &MasterKey{Key: key}, nil
}

// Close zeros the key material. Safe to call multiple times.
func (m *MasterKey) Close() {
	if m == nil {
		return
	}
	Zero(m.Key)
}

// MasterKeyHolder holds the MasterKey for the life of an unlocked session
// behind an exclusive guard, per SPEC_FULL.md §5's concurrency model: the
// guard is acquired briefly for every derive/unwrap and must never be held
// across a suspension point.
type MasterKeyHolder struct {
	mu  sync.Mutex
	key *MasterKey
}

// NewMasterKeyHolder stores key in a fresh holder. The holder takes
// ownership of key; callers must not use key directly afterwards.
func NewMasterKeyHolder(key *MasterKey) *MasterKeyHolder {
	return &MasterKeyHolder{key: key}
}

// Use calls fn with the held MasterKey under the exclusive guard. Returns
// an error if the holder has been closed (session locked).
func (h *MasterKeyHolder) Use(fn func(*MasterKey) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.key == nil {
		return fmt.Errorf("%w: master key session is locked", ErrSessionLocked)
	}
	return fn(h.key)
}

// Close zeros the held key and marks the holder locked. Idempotent.
func (h *MasterKeyHolder) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.key != nil {
		h.key.Close()
		h.key = nil
	}
}
