package p2p

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	cryptoDomain "github.com/clenoble/sovereign-sub001/internal/crypto/domain"
	cryptoService "github.com/clenoble/sovereign-sub001/internal/crypto/service"
)

// DocumentManifestEntry summarizes one document's sync state on a device.
type DocumentManifestEntry struct {
	DocID       string `json:"doc_id"`
	HeadCommit  string `json:"head_commit,omitempty"`
	CommitCount uint32 `json:"commit_count"`
	ContentHash string `json:"content_hash"`
	ModifiedAt  string `json:"modified_at"` // ISO-8601
}

// SyncManifest lists every document a device knows about, for exchange
// with a paired peer during a sync cycle.
type SyncManifest struct {
	DeviceID    string                  `json:"device_id"`
	GeneratedAt string                  `json:"generated_at"` // ISO-8601, caller-supplied
	Entries     []DocumentManifestEntry `json:"entries"`
}

// NewSyncManifest starts an empty manifest for deviceID, stamped at
// generatedAt (callers supply the timestamp; this package never calls
// time.Now directly so manifest generation stays deterministic for tests).
func NewSyncManifest(deviceID, generatedAt string) *SyncManifest {
	return &SyncManifest{
		DeviceID:    deviceID,
		GeneratedAt: generatedAt,
		Entries:     make([]DocumentManifestEntry, 0),
	}
}

// EncryptedManifest is a SyncManifest sealed for wire transport under the
// device-pair key.
type EncryptedManifest struct {
	Ciphertext string `json:"ciphertext"` // base64
	Nonce      string `json:"nonce"`      // base64
}

// Encrypt seals m under pairKey for transport to the paired peer.
func (m *SyncManifest) Encrypt(pairKey []byte, aeadManager cryptoService.AEADManager) (*EncryptedManifest, error) {
	plaintext, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal sync manifest: %w", err)
	}

	aead, err := aeadManager.CreateCipher(pairKey, cryptoDomain.DefaultAlgorithm)
	if err != nil {
		return nil, err
	}
	ciphertext, nonce, err := aead.Encrypt(plaintext, nil)
	if err != nil {
		return nil, fmt.Errorf("seal sync manifest: %w", err)
	}

	return &EncryptedManifest{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
	}, nil
}

// DecryptManifest recovers a SyncManifest from its encrypted transport
// form using the shared pairKey.
func DecryptManifest(encrypted *EncryptedManifest, pairKey []byte, aeadManager cryptoService.AEADManager) (*SyncManifest, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encrypted.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decode manifest ciphertext: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(encrypted.Nonce)
	if err != nil {
		return nil, fmt.Errorf("decode manifest nonce: %w", err)
	}

	aead, err := aeadManager.CreateCipher(pairKey, cryptoDomain.DefaultAlgorithm)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Decrypt(ciphertext, nonce, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	var manifest SyncManifest
	if err := json.Unmarshal(plaintext, &manifest); err != nil {
		return nil, fmt.Errorf("parse sync manifest: %w", err)
	}
	return &manifest, nil
}
