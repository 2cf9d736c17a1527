package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/clenoble/sovereign-sub001/internal/p2p"
)

// RunPairDevice derives this device's deterministic peer identity, derives
// the shared pair key from a secret established out-of-band during the
// pairing handshake, and records the remote device in the pairing store.
func RunPairDevice(ctx context.Context, passphrase, peerID, deviceName, sharedSecretB64 string) error {
	container, err := openContainer(ctx, passphrase)
	if err != nil {
		return err
	}
	logger := container.Logger()
	defer closeContainer(container, logger)

	identity, err := p2p.DerivePeerIdentity(container.DeviceKey())
	if err != nil {
		return fmt.Errorf("derive peer identity: %w", err)
	}

	secret, err := base64.StdEncoding.DecodeString(sharedSecretB64)
	if err != nil {
		return fmt.Errorf("decode shared secret: %w", err)
	}

	pairKey, err := p2p.DerivePairKey(secret)
	if err != nil {
		return fmt.Errorf("derive pair key: %w", err)
	}

	pm := container.PairingManager()
	pm.AddDevice(p2p.PairedDevice{
		PeerID:     peerID,
		DeviceName: deviceName,
		PairKeyB64: base64.StdEncoding.EncodeToString(pairKey),
		PairedAt:   time.Now().UTC().Format(time.RFC3339),
	})

	if err := pm.Save(); err != nil {
		return fmt.Errorf("save pairing store: %w", err)
	}

	fmt.Printf("paired with %s (%s)\n", peerID, deviceName)
	fmt.Printf("local_peer_id=%s\n", identity.PeerID)
	return nil
}
