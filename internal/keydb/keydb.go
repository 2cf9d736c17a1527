// Package keydb implements the per-document wrapped-key registry (C3):
// a mapping doc_id -> ordered list of WrappedDocumentKey, persisted as a
// single file whose body is itself AEAD-sealed under the DeviceKey.
package keydb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	cryptoDomain "github.com/clenoble/sovereign-sub001/internal/crypto/domain"
	cryptoService "github.com/clenoble/sovereign-sub001/internal/crypto/service"
	"github.com/clenoble/sovereign-sub001/internal/errors"
)

const fileName = "keys.db"

// KeyDatabase maintains, per document, the ordered list of wrapped
// DocumentKeys and serves "current" (highest epoch) and "by epoch"
// lookups. The KeyDatabase is an exclusive-access resource: single writer,
// no concurrent readers during Save; every method takes an internal
// RWMutex (Open builds a fresh, not-yet-shared instance and takes none),
// but callers performing a read-modify-write sequence (e.g.
// Rotate followed by Save) must still serialize at a higher level if they
// need atomicity across the two calls.
type KeyDatabase struct {
	mu   sync.RWMutex
	path string

	deviceKey   *cryptoDomain.DeviceKey
	keyMgr      cryptoService.KeyManager
	aeadManager cryptoService.AEADManager

	entries map[string][]cryptoDomain.WrappedDocumentKey
}

// onDiskKeyDatabase is the JSON shape serialized inside the outer AEAD
// envelope.
type onDiskKeyDatabase struct {
	Entries map[string][]cryptoDomain.WrappedDocumentKey `json:"entries"`
}

// envelope is the outer on-disk form: a single AEAD-sealed blob.
type envelope struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Open loads the key database from dataDir/keys.db if present, or starts a
// fresh empty database otherwise. The returned KeyDatabase is sealed under
// deviceKey; every Save call reseals with a fresh random nonce.
func Open(
	dataDir string,
	deviceKey *cryptoDomain.DeviceKey,
	keyMgr cryptoService.KeyManager,
	aeadManager cryptoService.AEADManager,
) (*KeyDatabase, error) {
	db := &KeyDatabase{
		path:        filepath.Join(dataDir, fileName),
		deviceKey:   deviceKey,
		keyMgr:      keyMgr,
		aeadManager: aeadManager,
		entries:     make(map[string][]cryptoDomain.WrappedDocumentKey),
	}

	data, err := os.ReadFile(db.path)
	if err != nil {
		if os.IsNotExist(err) {
			return db, nil
		}
		return nil, fmt.Errorf("read key database: %w", err)
	}

	if err := db.decode(data); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *KeyDatabase) decode(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("parse key database envelope: %w", err)
	}

	aead, err := db.aeadManager.CreateCipher(db.deviceKey.Key, cryptoDomain.DefaultAlgorithm)
	if err != nil {
		return err
	}
	plaintext, err := aead.Decrypt(env.Ciphertext, env.Nonce, nil)
	if err != nil {
		return cryptoDomain.ErrDecryptionFailed
	}

	var onDisk onDiskKeyDatabase
	if err := json.Unmarshal(plaintext, &onDisk); err != nil {
		return fmt.Errorf("parse key database body: %w", err)
	}
	db.entries = onDisk.Entries
	if db.entries == nil {
		db.entries = make(map[string][]cryptoDomain.WrappedDocumentKey)
	}
	return nil
}

// CreateDocumentKey generates a new random DocumentKey, wraps it under kek
// at epoch 1 (or the next epoch if the document already has keys), pushes
// it onto the document's list, and returns the unwrapped key for the
// caller to encrypt content immediately, then zero.
func (db *KeyDatabase) CreateDocumentKey(docID string, kek *cryptoDomain.Kek) (*cryptoDomain.DocumentKey, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	docKey, err := cryptoDomain.GenerateDocumentKey()
	if err != nil {
		return nil, err
	}

	epoch := uint32(len(db.entries[docID]) + 1)
	wrapped, err := db.keyMgr.WrapDocumentKey(docKey, kek, epoch)
	if err != nil {
		return nil, err
	}
	db.entries[docID] = append(db.entries[docID], *wrapped)

	return docKey, nil
}

// UnwrapCurrent unwraps and returns the highest-epoch key for docID,
// failing with ErrKeyNotFound if the document has no keys.
func (db *KeyDatabase) UnwrapCurrent(docID string, kek *cryptoDomain.Kek) (*cryptoDomain.DocumentKey, error) {
	db.mu.RLock()
	list := db.entries[docID]
	db.mu.RUnlock()

	if len(list) == 0 {
		return nil, fmt.Errorf("%w: document %s", errors.ErrKeyNotFound, docID)
	}
	return db.keyMgr.UnwrapDocumentKey(&list[len(list)-1], kek)
}

// UnwrapAt unwraps the specific epoch for docID, used when decrypting old
// commits. Fails with ErrKeyNotFound if no wrapped key exists at epoch.
func (db *KeyDatabase) UnwrapAt(docID string, kek *cryptoDomain.Kek, epoch uint32) (*cryptoDomain.DocumentKey, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, w := range db.entries[docID] {
		if w.Epoch == epoch {
			return db.keyMgr.UnwrapDocumentKey(&w, kek)
		}
	}
	return nil, fmt.Errorf("%w: document %s epoch %d", errors.ErrKeyNotFound, docID, epoch)
}

// HasKey reports whether docID already has at least one wrapped key,
// i.e. whether it has already been migrated or created through C3.
func (db *KeyDatabase) HasKey(docID string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.entries[docID]) > 0
}

// Rotate creates a new DocumentKey at current_epoch + 1 for docID, without
// discarding older epochs. Fails with ErrKeyNotFound if the document has
// no existing keys (Rotate is re-keying, not first creation).
func (db *KeyDatabase) Rotate(docID string, kek *cryptoDomain.Kek) (*cryptoDomain.DocumentKey, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	list := db.entries[docID]
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: document %s", errors.ErrKeyNotFound, docID)
	}

	docKey, err := cryptoDomain.GenerateDocumentKey()
	if err != nil {
		return nil, err
	}
	nextEpoch := list[len(list)-1].Epoch + 1
	wrapped, err := db.keyMgr.WrapDocumentKey(docKey, kek, nextEpoch)
	if err != nil {
		return nil, err
	}
	db.entries[docID] = append(db.entries[docID], *wrapped)

	return docKey, nil
}

// Save persists the key database atomically: the body is JSON-encoded,
// AEAD-sealed under the DeviceKey, and written via a temp file + rename so
// a crash mid-write never leaves a corrupted keys.db on disk.
func (db *KeyDatabase) Save() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	onDisk := onDiskKeyDatabase{Entries: db.entries}
	plaintext, err := json.Marshal(onDisk)
	if err != nil {
		return fmt.Errorf("marshal key database: %w", err)
	}

	aead, err := db.aeadManager.CreateCipher(db.deviceKey.Key, cryptoDomain.DefaultAlgorithm)
	if err != nil {
		return err
	}
	ciphertext, nonce, err := aead.Encrypt(plaintext, nil)
	if err != nil {
		return fmt.Errorf("seal key database: %w", err)
	}

	data, err := json.Marshal(envelope{Nonce: nonce, Ciphertext: ciphertext})
	if err != nil {
		return fmt.Errorf("marshal key database envelope: %w", err)
	}

	return atomicWriteFile(db.path, data)
}

func atomicWriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create key database directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".keys.db.tmp-*")
	if err != nil {
		return fmt.Errorf("create temp key database file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup; rename below is the success path

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp key database file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp key database file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp key database file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename key database file: %w", err)
	}
	return nil
}
