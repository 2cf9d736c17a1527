package p2p

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoService "github.com/clenoble/sovereign-sub001/internal/crypto/service"
)

func TestSyncManifest_EncryptDecryptRoundTrip(t *testing.T) {
	aeadManager := cryptoService.NewAEADManager()
	manifest := NewSyncManifest("device-001", "2026-01-01T00:00:00Z")
	manifest.Entries = append(manifest.Entries, DocumentManifestEntry{
		DocID:       "document:abc",
		HeadCommit:  "commit:123",
		CommitCount: 5,
		ContentHash: "deadbeef",
		ModifiedAt:  "2026-01-01T00:00:00Z",
	})

	pairKey := make([]byte, 32)
	for i := range pairKey {
		pairKey[i] = 42
	}

	encrypted, err := manifest.Encrypt(pairKey, aeadManager)
	require.NoError(t, err)

	decrypted, err := DecryptManifest(encrypted, pairKey, aeadManager)
	require.NoError(t, err)
	assert.Equal(t, "device-001", decrypted.DeviceID)
	require.Len(t, decrypted.Entries, 1)
	assert.Equal(t, "document:abc", decrypted.Entries[0].DocID)
}

func TestSyncManifest_WrongKeyFailsDecrypt(t *testing.T) {
	aeadManager := cryptoService.NewAEADManager()
	manifest := NewSyncManifest("dev-1", "2026-01-01T00:00:00Z")

	pairKey := make([]byte, 32)
	wrongKey := make([]byte, 32)
	for i := range pairKey {
		pairKey[i] = 42
		wrongKey[i] = 99
	}

	encrypted, err := manifest.Encrypt(pairKey, aeadManager)
	require.NoError(t, err)

	_, err = DecryptManifest(encrypted, wrongKey, aeadManager)
	assert.Error(t, err)
}

func TestSyncManifest_EmptyManifestRoundTrip(t *testing.T) {
	aeadManager := cryptoService.NewAEADManager()
	manifest := NewSyncManifest("dev-1", "2026-01-01T00:00:00Z")

	pairKey := make([]byte, 32)
	for i := range pairKey {
		pairKey[i] = 7
	}

	encrypted, err := manifest.Encrypt(pairKey, aeadManager)
	require.NoError(t, err)

	decrypted, err := DecryptManifest(encrypted, pairKey, aeadManager)
	require.NoError(t, err)
	assert.Equal(t, "dev-1", decrypted.DeviceID)
	assert.Empty(t, decrypted.Entries)
}
