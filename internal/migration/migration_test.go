package migration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/clenoble/sovereign-sub001/internal/crypto/domain"
	cryptoService "github.com/clenoble/sovereign-sub001/internal/crypto/service"
	"github.com/clenoble/sovereign-sub001/internal/keydb"
)

type fakeStore struct {
	pending   []string
	plaintext map[string][]byte
	envelopes map[string]envelopeRecord
}

type envelopeRecord struct {
	ciphertext []byte
	nonce      []byte
	epoch      uint32
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		plaintext: make(map[string][]byte),
		envelopes: make(map[string]envelopeRecord),
	}
}

func (f *fakeStore) PendingDocumentIDs(ctx context.Context) ([]string, error) {
	return f.pending, nil
}

func (f *fakeStore) ReadPlaintext(ctx context.Context, docID string) ([]byte, error) {
	return f.plaintext[docID], nil
}

func (f *fakeStore) WriteEnvelope(ctx context.Context, docID string, ciphertext, nonce []byte, epoch uint32) error {
	f.envelopes[docID] = envelopeRecord{ciphertext: ciphertext, nonce: nonce, epoch: epoch}
	return nil
}

func testMigrator(t *testing.T, store *fakeStore) (*Migrator, *cryptoDomain.Kek) {
	t.Helper()
	dir := t.TempDir()
	aeadManager := cryptoService.NewAEADManager()
	keyMgr := cryptoService.NewKeyManager(aeadManager)

	master, err := cryptoDomain.GenerateMasterKey()
	require.NoError(t, err)
	deviceKey, err := keyMgr.DeviceFromMaster(master, "test-device")
	require.NoError(t, err)
	kek, err := cryptoDomain.GenerateKek()
	require.NoError(t, err)

	keyDB, err := keydb.Open(dir, deviceKey, keyMgr, aeadManager)
	require.NoError(t, err)

	return NewMigrator(keyDB, kek, aeadManager, store, store), kek
}

func TestMigrateDocument_ConvertsPlaintextToEnvelope(t *testing.T) {
	store := newFakeStore()
	store.plaintext["doc-1"] = []byte("hello sovereign")
	m, _ := testMigrator(t, store)

	res, err := m.MigrateDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.True(t, res.Migrated)
	assert.Equal(t, uint32(1), res.Epoch)

	env, ok := store.envelopes["doc-1"]
	require.True(t, ok)
	assert.NotEmpty(t, env.ciphertext)
	assert.NotEmpty(t, env.nonce)
}

func TestMigrateDocument_IsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.plaintext["doc-1"] = []byte("hello sovereign")
	m, _ := testMigrator(t, store)

	first, err := m.MigrateDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	require.True(t, first.Migrated)

	second, err := m.MigrateDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.False(t, second.Migrated)
}

func TestMigrateAll_MigratesEveryPendingDocument(t *testing.T) {
	store := newFakeStore()
	store.pending = []string{"doc-1", "doc-2"}
	store.plaintext["doc-1"] = []byte("alpha")
	store.plaintext["doc-2"] = []byte("beta")
	m, _ := testMigrator(t, store)

	results, err := m.MigrateAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Migrated)
	}
}

func TestMigrateAll_SkipsAlreadyMigratedOnRerun(t *testing.T) {
	store := newFakeStore()
	store.pending = []string{"doc-1"}
	store.plaintext["doc-1"] = []byte("alpha")
	m, _ := testMigrator(t, store)

	_, err := m.MigrateAll(context.Background())
	require.NoError(t, err)

	results, err := m.MigrateAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Migrated)
}
