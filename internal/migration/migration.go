// Package migration implements the data-migration path: idempotent
// conversion of plaintext documents into C2+C3 envelopes (a DocumentKey
// wrapped under the current KEK, plus an AEAD-sealed ciphertext blob).
package migration

import (
	"context"
	"fmt"

	cryptoDomain "github.com/clenoble/sovereign-sub001/internal/crypto/domain"
	cryptoService "github.com/clenoble/sovereign-sub001/internal/crypto/service"
	"github.com/clenoble/sovereign-sub001/internal/keydb"
)

// PlaintextSource yields documents that have not yet been migrated into
// an encrypted envelope. Implemented by whatever owns document storage;
// out of scope for this module (document graph storage queries are an
// external collaborator's concern).
type PlaintextSource interface {
	// PendingDocumentIDs lists document IDs awaiting migration.
	PendingDocumentIDs(ctx context.Context) ([]string, error)

	// ReadPlaintext returns the unencrypted content for docID.
	ReadPlaintext(ctx context.Context, docID string) ([]byte, error)
}

// EncryptedSink persists a migrated document's ciphertext and marks the
// source plaintext as converted.
type EncryptedSink interface {
	// WriteEnvelope stores the sealed content and the epoch it was sealed
	// at, and marks docID as migrated so a re-run skips it.
	WriteEnvelope(ctx context.Context, docID string, ciphertext, nonce []byte, epoch uint32) error
}

// Result reports the outcome of migrating one document.
type Result struct {
	DocID    string
	Migrated bool
	Epoch    uint32
}

// Migrator converts plaintext documents to encrypted C2+C3 envelopes: a
// DocumentKey is created and wrapped under the KEK at the next epoch for
// that document, then used to seal the document's content.
type Migrator struct {
	keyDB       *keydb.KeyDatabase
	kek         *cryptoDomain.Kek
	aeadManager cryptoService.AEADManager
	source      PlaintextSource
	sink        EncryptedSink
}

// NewMigrator constructs a Migrator over an already-opened KeyDatabase
// and unwrapped KEK.
func NewMigrator(keyDB *keydb.KeyDatabase, kek *cryptoDomain.Kek, aeadManager cryptoService.AEADManager, source PlaintextSource, sink EncryptedSink) *Migrator {
	return &Migrator{
		keyDB:       keyDB,
		kek:         kek,
		aeadManager: aeadManager,
		source:      source,
		sink:        sink,
	}
}

// MigrateDocument converts a single document. It is idempotent: if the
// key database already holds a wrapped key for docID, the document is
// assumed already migrated and MigrateDocument is a no-op returning
// Migrated=false.
func (m *Migrator) MigrateDocument(ctx context.Context, docID string) (Result, error) {
	if m.keyDB.HasKey(docID) {
		return Result{DocID: docID, Migrated: false}, nil
	}

	plaintext, err := m.source.ReadPlaintext(ctx, docID)
	if err != nil {
		return Result{}, fmt.Errorf("read plaintext document %s: %w", docID, err)
	}

	docKey, err := m.keyDB.CreateDocumentKey(docID, m.kek)
	if err != nil {
		return Result{}, fmt.Errorf("create document key for %s: %w", docID, err)
	}
	defer docKey.Close()

	cipher, err := m.aeadManager.CreateCipher(docKey.Key, cryptoDomain.DefaultAlgorithm)
	if err != nil {
		return Result{}, fmt.Errorf("create cipher for %s: %w", docID, err)
	}
	ciphertext, nonce, err := cipher.Encrypt(plaintext, nil)
	if err != nil {
		return Result{}, fmt.Errorf("seal document %s: %w", docID, err)
	}

	// CreateDocumentKey always wraps at len(existing)+1; since HasKey was
	// false above, this document's only entry is at epoch 1.
	const firstEpoch = uint32(1)
	if err := m.sink.WriteEnvelope(ctx, docID, ciphertext, nonce, firstEpoch); err != nil {
		return Result{}, fmt.Errorf("write envelope for %s: %w", docID, err)
	}

	return Result{DocID: docID, Migrated: true, Epoch: firstEpoch}, nil
}

// MigrateAll migrates every pending document reported by the source,
// continuing past individual failures. The returned error is the first
// failure encountered (nil if none), alongside the results of the
// documents that did not fail.
func (m *Migrator) MigrateAll(ctx context.Context) ([]Result, error) {
	ids, err := m.source.PendingDocumentIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending documents: %w", err)
	}

	results := make([]Result, 0, len(ids))
	var firstErr error
	for _, docID := range ids {
		res, err := m.MigrateDocument(ctx, docID)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		results = append(results, res)
	}
	return results, firstErr
}
