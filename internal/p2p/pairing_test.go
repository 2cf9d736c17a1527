package p2p

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoService "github.com/clenoble/sovereign-sub001/internal/crypto/service"
)

func TestDerivePairKey_Deterministic(t *testing.T) {
	secret := []byte("shared-secret-from-pairing")
	k1, err := DerivePairKey(secret)
	require.NoError(t, err)
	k2, err := DerivePairKey(secret)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestDerivePairKey_DifferentSecretsDifferentKeys(t *testing.T) {
	k1, err := DerivePairKey([]byte("secret-a"))
	require.NoError(t, err)
	k2, err := DerivePairKey([]byte("secret-b"))
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestPairingManager_AddRemoveDevice(t *testing.T) {
	dir := t.TempDir()
	deviceKey := deriveTestDeviceKey(t, "laptop-1")
	aeadManager := cryptoService.NewAEADManager()

	pm, err := OpenPairingManager(dir, deviceKey, aeadManager)
	require.NoError(t, err)

	pm.AddDevice(PairedDevice{
		PeerID:     "peer-123",
		DeviceName: "My Phone",
		PairKeyB64: "base64key",
		PairedAt:   "2026-01-01T00:00:00Z",
	})
	assert.True(t, pm.IsPaired("peer-123"))
	assert.Len(t, pm.ListDevices(), 1)

	removed, ok := pm.RemoveDevice("peer-123")
	require.True(t, ok)
	assert.Equal(t, "My Phone", removed.DeviceName)
	assert.False(t, pm.IsPaired("peer-123"))
}

func TestPairingManager_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	deviceKey := deriveTestDeviceKey(t, "laptop-1")
	aeadManager := cryptoService.NewAEADManager()

	pm, err := OpenPairingManager(dir, deviceKey, aeadManager)
	require.NoError(t, err)
	pm.AddDevice(PairedDevice{
		PeerID:     "peer-abc",
		DeviceName: "Laptop",
		PairKeyB64: "key123",
		PairedAt:   "2026-01-01T00:00:00Z",
	})
	require.NoError(t, pm.Save())

	reopened, err := OpenPairingManager(dir, deviceKey, aeadManager)
	require.NoError(t, err)
	assert.True(t, reopened.IsPaired("peer-abc"))
	device, ok := reopened.GetDevice("peer-abc")
	require.True(t, ok)
	assert.Equal(t, "Laptop", device.DeviceName)
}
