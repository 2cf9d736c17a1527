// Package p2p implements device pairing and manifest-based sync for the
// sovereign security core (C6): deterministic peer identity, pairing
// records, encrypted sync manifests/commits, the request/response wire
// protocol, and the connection state machine.
package p2p

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	cryptoDomain "github.com/clenoble/sovereign-sub001/internal/crypto/domain"
)

const identityInfo = "sovereign-p2p-identity"

// PeerIdentity is this device's deterministic network identity: an Ed25519
// keypair derived from the DeviceKey, so the same device always presents
// the same PeerID.
type PeerIdentity struct {
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
	PeerID     string
}

// DerivePeerIdentity derives a deterministic Ed25519 identity from
// deviceKey via HKDF-SHA256, mirroring the original implementation's
// derive_keypair (which seeds a libp2p Ed25519 keypair the same way; this
// module has no libp2p dependency, so PeerID is simply the hex SHA-256
// fingerprint of the public key rather than a libp2p PeerId encoding).
func DerivePeerIdentity(deviceKey *cryptoDomain.DeviceKey) (*PeerIdentity, error) {
	reader := hkdf.New(sha256.New, deviceKey.Key, nil, []byte(identityInfo))
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(reader, seed); err != nil {
		return nil, fmt.Errorf("derive peer identity seed: %w", err)
	}

	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	fingerprint := sha256.Sum256(pub)

	return &PeerIdentity{
		PrivateKey: priv,
		PublicKey:  pub,
		PeerID:     hex.EncodeToString(fingerprint[:]),
	}, nil
}
