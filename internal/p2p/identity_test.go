package p2p

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/clenoble/sovereign-sub001/internal/crypto/domain"
	cryptoService "github.com/clenoble/sovereign-sub001/internal/crypto/service"
)

func deriveTestDeviceKey(t *testing.T, deviceID string) *cryptoDomain.DeviceKey {
	t.Helper()
	keyMgr := cryptoService.NewKeyManager(cryptoService.NewAEADManager())
	master, err := keyMgr.MasterFromPassphrase([]byte("test"), []byte("salt"))
	require.NoError(t, err)
	deviceKey, err := keyMgr.DeviceFromMaster(master, deviceID)
	require.NoError(t, err)
	return deviceKey
}

func TestDerivePeerIdentity_Deterministic(t *testing.T) {
	dk := deriveTestDeviceKey(t, "dev-01")

	id1, err := DerivePeerIdentity(dk)
	require.NoError(t, err)
	id2, err := DerivePeerIdentity(dk)
	require.NoError(t, err)

	assert.Equal(t, id1.PeerID, id2.PeerID)
}

func TestDerivePeerIdentity_DifferentDeviceKeysDiffer(t *testing.T) {
	dk1 := deriveTestDeviceKey(t, "dev-01")
	dk2 := deriveTestDeviceKey(t, "dev-02")

	id1, err := DerivePeerIdentity(dk1)
	require.NoError(t, err)
	id2, err := DerivePeerIdentity(dk2)
	require.NoError(t, err)

	assert.NotEqual(t, id1.PeerID, id2.PeerID)
}
