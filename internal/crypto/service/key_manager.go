package service

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	cryptoDomain "github.com/clenoble/sovereign-sub001/internal/crypto/domain"
)

// HKDF info strings. Each binds a derivation to its position in the
// hierarchy so the same master/device secret can never be replayed as a
// different link in the chain.
const (
	infoMasterKey = "sovereign-master-key"
	infoDeviceKey = "sovereign-device-key:"
	infoCanaryKey = "sovereign-canary-key"
)

// KeyManagerService implements the KeyManager interface: derivation and
// wrap/unwrap across the Master -> Device -> KEK -> DocumentKey hierarchy.
//
// The hierarchy is strictly single-session: there is one MasterKey, one
// DeviceKey per enrolled device, one active KEK, and one DocumentKey per
// document. Wrapping always uses the link directly above the wrapped key
// (DeviceKey wraps KEK, KEK wraps DocumentKey); nothing skips a level.
type KeyManagerService struct {
	aeadManager AEADManager
}

// NewKeyManager creates a new KeyManagerService instance with the provided AEADManager.
func NewKeyManager(aeadManager AEADManager) *KeyManagerService {
	return &KeyManagerService{
		aeadManager: aeadManager,
	}
}

// MasterFromPassphrase derives the MasterKey from a user passphrase and a
// persisted salt via HKDF-SHA256. The same (passphrase, salt) pair always
// yields the same MasterKey; the salt is supplied by the caller (the
// configured MasterKeySalt), and the passphrase itself is never stored.
func (km *KeyManagerService) MasterFromPassphrase(passphrase, salt []byte) (*cryptoDomain.MasterKey, error) {
	key, err := hkdfExpand(passphrase, salt, []byte(infoMasterKey))
	if err != nil {
		return nil, fmt.Errorf("derive master key: %w", err)
	}
	return cryptoDomain.MasterKeyFromBytes(key)
}

// DeviceFromMaster derives a device's DeviceKey from the MasterKey and the
// device's stable identifier via HKDF-SHA256 with no salt. Every device
// enrolled on the same identity derives independently from the same
// MasterKey, so losing one device's DeviceKey never exposes another's.
func (km *KeyManagerService) DeviceFromMaster(master *cryptoDomain.MasterKey, deviceID string) (*cryptoDomain.DeviceKey, error) {
	key, err := hkdfExpand(master.Key, nil, []byte(infoDeviceKey+deviceID))
	if err != nil {
		return nil, fmt.Errorf("derive device key: %w", err)
	}
	return &cryptoDomain.DeviceKey{Key: key}, nil
}

// CanaryKeyFromMaster derives the canary-phrase sealing key from the
// MasterKey via HKDF-SHA256 with no salt, the same derivation shape as
// DeviceFromMaster but bound to its own info string so the two can never
// collide.
func (km *KeyManagerService) CanaryKeyFromMaster(master *cryptoDomain.MasterKey) ([]byte, error) {
	key, err := hkdfExpand(master.Key, nil, []byte(infoCanaryKey))
	if err != nil {
		return nil, fmt.Errorf("derive canary key: %w", err)
	}
	return key, nil
}

// WrapKek seals the KEK under the DeviceKey for persistence.
func (km *KeyManagerService) WrapKek(kek *cryptoDomain.Kek, deviceKey *cryptoDomain.DeviceKey) (*cryptoDomain.WrappedKek, error) {
	aead, err := km.aeadManager.CreateCipher(deviceKey.Key, cryptoDomain.DefaultAlgorithm)
	if err != nil {
		return nil, err
	}
	ciphertext, nonce, err := aead.Encrypt(kek.Key, nil)
	if err != nil {
		return nil, fmt.Errorf("wrap kek: %w", err)
	}
	return &cryptoDomain.WrappedKek{Ciphertext: ciphertext, Nonce: nonce}, nil
}

// UnwrapKek recovers the KEK from its wrapped form using the DeviceKey.
func (km *KeyManagerService) UnwrapKek(w *cryptoDomain.WrappedKek, deviceKey *cryptoDomain.DeviceKey) (*cryptoDomain.Kek, error) {
	aead, err := km.aeadManager.CreateCipher(deviceKey.Key, cryptoDomain.DefaultAlgorithm)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Decrypt(w.Ciphertext, w.Nonce, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return &cryptoDomain.Kek{Key: plaintext}, nil
}

// WrapDocumentKey seals a DocumentKey under the KEK at the given rotation
// epoch. The epoch is stored alongside the ciphertext, not bound into the
// AEAD's additional data: an epoch mismatch is a bookkeeping error, not a
// tamper attempt, and should surface as ErrKeyNotFound at the keydb layer
// rather than as a decryption failure.
func (km *KeyManagerService) WrapDocumentKey(
	docKey *cryptoDomain.DocumentKey,
	kek *cryptoDomain.Kek,
	epoch uint32,
) (*cryptoDomain.WrappedDocumentKey, error) {
	aead, err := km.aeadManager.CreateCipher(kek.Key, cryptoDomain.DefaultAlgorithm)
	if err != nil {
		return nil, err
	}
	ciphertext, nonce, err := aead.Encrypt(docKey.Key, nil)
	if err != nil {
		return nil, fmt.Errorf("wrap document key: %w", err)
	}
	return &cryptoDomain.WrappedDocumentKey{Ciphertext: ciphertext, Nonce: nonce, Epoch: epoch}, nil
}

// UnwrapDocumentKey recovers a DocumentKey from its wrapped form using the KEK.
func (km *KeyManagerService) UnwrapDocumentKey(
	w *cryptoDomain.WrappedDocumentKey,
	kek *cryptoDomain.Kek,
) (*cryptoDomain.DocumentKey, error) {
	aead, err := km.aeadManager.CreateCipher(kek.Key, cryptoDomain.DefaultAlgorithm)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Decrypt(w.Ciphertext, w.Nonce, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return &cryptoDomain.DocumentKey{Key: plaintext}, nil
}

// hkdfExpand runs HKDF-SHA256 over secret with the given salt and info,
// returning 32 bytes suitable for any key in the hierarchy.
func hkdfExpand(secret, salt, info []byte) ([]byte, error) {
	reader := hkdf.New(sha256.New, secret, salt, info)
	out := make([]byte, 32)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, err
	}
	return out, nil
}
