package gate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	cryptoDomain "github.com/clenoble/sovereign-sub001/internal/crypto/domain"
	cryptoService "github.com/clenoble/sovereign-sub001/internal/crypto/service"
)

const canaryFileName = "canary.enc"

// CanaryStore is the on-disk form of a canary phrase: AEAD-sealed under a
// key derived from the MasterKey, so the phrase is never persisted in
// plaintext. Serialized as JSON {nonce, ciphertext} in canary.enc.
type CanaryStore struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// EncryptCanaryPhrase seals phrase under canaryKey for storage.
func EncryptCanaryPhrase(phrase string, canaryKey []byte, aeadManager cryptoService.AEADManager) (*CanaryStore, error) {
	aead, err := aeadManager.CreateCipher(canaryKey, cryptoDomain.DefaultAlgorithm)
	if err != nil {
		return nil, err
	}
	ciphertext, nonce, err := aead.Encrypt([]byte(phrase), nil)
	if err != nil {
		return nil, fmt.Errorf("encrypt canary phrase: %w", err)
	}
	return &CanaryStore{Nonce: nonce, Ciphertext: ciphertext}, nil
}

// Decrypt recovers the canary phrase using canaryKey. Returns
// ErrDecryptionFailed if the store was sealed under a different key or has
// been tampered with.
func (s *CanaryStore) Decrypt(canaryKey []byte, aeadManager cryptoService.AEADManager) (string, error) {
	aead, err := aeadManager.CreateCipher(canaryKey, cryptoDomain.DefaultAlgorithm)
	if err != nil {
		return "", err
	}
	plaintext, err := aead.Decrypt(s.Ciphertext, s.Nonce, nil)
	if err != nil {
		return "", cryptoDomain.ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// SaveCanaryStore persists store to dataDir/canary.enc, atomically.
func SaveCanaryStore(dataDir string, store *CanaryStore) error {
	data, err := json.Marshal(store)
	if err != nil {
		return fmt.Errorf("marshal canary store: %w", err)
	}
	return atomicWriteCanaryFile(filepath.Join(dataDir, canaryFileName), data)
}

// LoadCanaryStore reads dataDir/canary.enc. Returns an error satisfying
// os.IsNotExist if no canary phrase has been enrolled yet.
func LoadCanaryStore(dataDir string) (*CanaryStore, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, canaryFileName))
	if err != nil {
		return nil, err
	}
	var store CanaryStore
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("parse canary store: %w", err)
	}
	return &store, nil
}

func atomicWriteCanaryFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create canary store directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".canary.enc.tmp-*")
	if err != nil {
		return fmt.Errorf("create temp canary store file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup; rename below is the success path

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp canary store file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp canary store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp canary store file: %w", err)
	}

	return os.Rename(tmpPath, path)
}
