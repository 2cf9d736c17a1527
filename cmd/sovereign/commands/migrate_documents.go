package commands

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clenoble/sovereign-sub001/internal/migration"
)

// fsPlaintextSource reads pending plaintext documents from a directory of
// *.txt files, one document per file named <doc_id>.txt.
type fsPlaintextSource struct {
	dir string
}

func (s *fsPlaintextSource) PendingDocumentIDs(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".txt"))
	}
	return ids, nil
}

func (s *fsPlaintextSource) ReadPlaintext(ctx context.Context, docID string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.dir, docID+".txt"))
}

// envelopeFile is the on-disk JSON form of a migrated document's sealed
// content, written one file per document under the encrypted directory.
type envelopeFile struct {
	Ciphertext string `json:"ciphertext"` // base64
	Nonce      string `json:"nonce"`      // base64
	Epoch      uint32 `json:"epoch"`
}

// fsEncryptedSink writes migrated envelopes to a directory and removes the
// source plaintext, so a re-run's PendingDocumentIDs naturally skips it.
type fsEncryptedSink struct {
	plaintextDir string
	encryptedDir string
}

func (s *fsEncryptedSink) WriteEnvelope(ctx context.Context, docID string, ciphertext, nonce []byte, epoch uint32) error {
	if err := os.MkdirAll(s.encryptedDir, 0700); err != nil {
		return err
	}
	env := envelopeFile{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Epoch:      epoch,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.encryptedDir, docID+".json"), data, 0600); err != nil {
		return err
	}
	return os.Remove(filepath.Join(s.plaintextDir, docID+".txt"))
}

// RunMigrateDocuments converts every pending plaintext document under
// plaintextDir into a sealed C2+C3 envelope under encryptedDir, skipping
// documents the key database already holds a key for.
func RunMigrateDocuments(ctx context.Context, passphrase, plaintextDir, encryptedDir string) error {
	container, err := openContainer(ctx, passphrase)
	if err != nil {
		return err
	}
	logger := container.Logger()
	defer closeContainer(container, logger)

	kek := container.Kek()
	if kek == nil {
		return fmt.Errorf("migrate documents: kek unavailable")
	}

	migrator := migration.NewMigrator(
		container.KeyDatabase(),
		kek,
		container.AEADManager(),
		&fsPlaintextSource{dir: plaintextDir},
		&fsEncryptedSink{plaintextDir: plaintextDir, encryptedDir: encryptedDir},
	)

	start := time.Now()
	results, err := migrator.MigrateAll(ctx)
	status := "success"
	if err != nil {
		status = "error"
	}
	if bm, bmErr := container.BusinessMetrics(); bmErr == nil {
		bm.RecordOperation(ctx, "migration", "migrate_all", status)
		bm.RecordDuration(ctx, "migration", "migrate_all", time.Since(start), status)
	}
	if err != nil {
		return fmt.Errorf("migrate documents: %w", err)
	}

	migrated := 0
	for _, r := range results {
		if r.Migrated {
			migrated++
			fmt.Printf("migrated %s (epoch %d)\n", r.DocID, r.Epoch)
		}
	}
	fmt.Printf("migrated %d of %d pending documents\n", migrated, len(results))
	return nil
}
