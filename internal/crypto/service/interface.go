// Package service provides cryptographic service interfaces and implementations.
//
// This package implements the service layer for envelope encryption, providing
// concrete implementations of authenticated encryption algorithms and key management.
//
// # Services Overview
//
// AEADManagerService: Factory for creating AEAD cipher instances.
// Supports AES-256-GCM and ChaCha20-Poly1305 algorithms.
//
// KeyManagerService: Derives and wraps keys across the Master -> Device ->
// KEK -> DocumentKey hierarchy.
//
// AESGCMCipher: Implements AEAD using AES-256-GCM with hardware acceleration support.
//
// ChaCha20Poly1305Cipher: Implements AEAD using ChaCha20-Poly1305 for platforms
// without AES hardware acceleration.
//
// # Usage Example
//
//	// Create services
//	aeadManager := NewAEADManager()
//	keyManager := NewKeyManager(aeadManager)
//
//	// Derive the MasterKey and this device's DeviceKey
//	master, err := keyManager.MasterFromPassphrase(passphrase, salt)
//	if err != nil {
//	    return err
//	}
//	defer master.Close()
//	deviceKey, err := keyManager.DeviceFromMaster(master, deviceID)
//	if err != nil {
//	    return err
//	}
//
//	// Generate a KEK and wrap it under the DeviceKey for persistence
//	kek, err := domain.GenerateKek()
//	if err != nil {
//	    return err
//	}
//	wrappedKek, err := keyManager.WrapKek(kek, deviceKey)
//	if err != nil {
//	    return err
//	}
//
//	// Generate a DocumentKey and wrap it under the KEK at epoch 1
//	docKey, err := domain.GenerateDocumentKey()
//	if err != nil {
//	    return err
//	}
//	wrappedDocKey, err := keyManager.WrapDocumentKey(docKey, kek, 1)
//	if err != nil {
//	    return err
//	}
//
//	// Create cipher and encrypt data under the DocumentKey
//	cipher, err := aeadManager.CreateCipher(docKey.Key, domain.DefaultAlgorithm)
//	if err != nil {
//	    return err
//	}
//	ciphertext, nonce, err := cipher.Encrypt(plaintext, nil)
//
// # Thread Safety
//
// All service implementations are stateless and thread-safe. Multiple goroutines
// can safely use the same service instances for concurrent operations.
//
// # Algorithm Selection
//
//   - Use AESGCM on servers and modern CPUs with AES-NI hardware acceleration
//   - Use ChaCha20 on mobile devices, embedded systems, or platforms without AES-NI
//   - Both provide equivalent 256-bit security when properly implemented
//
// # Dependencies
//
// The service layer depends on the crypto/domain package for models and errors,
// following Clean Architecture principles. Services should be injected as
// dependencies rather than instantiated directly in business logic.
package service

import (
	cryptoDomain "github.com/clenoble/sovereign-sub001/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
//
// AEAD encryption provides both confidentiality and authenticity guarantees,
// protecting against unauthorized access and tampering. Implementations ensure
// that any modification to the ciphertext or AAD will be detected during decryption.
//
// Security requirements:
//   - Nonces must be unique for each encryption with the same key
//   - Keys should be at least 256 bits for strong security
//   - The same AAD used during encryption must be provided during decryption
//
// Implementations: AESGCMCipher, ChaCha20Poly1305Cipher
type AEAD interface {
	// Encrypt encrypts plaintext with optional additional authenticated data (AAD).
	//
	// The AAD parameter allows binding the ciphertext to additional context
	// (e.g., user ID, record ID, metadata) without encrypting it. This prevents
	// ciphertext from being used in a different context even if intercepted.
	//
	// A unique nonce is automatically generated for each encryption operation.
	// The nonce must be stored alongside the ciphertext for later decryption.
	//
	// Parameters:
	//   - plaintext: The data to encrypt (can be empty)
	//   - aad: Additional data to authenticate but not encrypt (can be nil)
	//
	// Returns:
	//   - ciphertext: The encrypted data including authentication tag
	//   - nonce: The randomly generated nonce used for this encryption
	//   - err: Any error encountered during encryption or nonce generation
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	//
	// This method verifies the authentication tag before returning plaintext,
	// ensuring the ciphertext hasn't been tampered with. If authentication fails,
	// no plaintext is returned to prevent processing of modified data.
	//
	// Parameters:
	//   - ciphertext: The encrypted data to decrypt (including authentication tag)
	//   - nonce: The nonce that was used during encryption
	//   - aad: The same additional data provided during encryption (can be nil)
	//
	// Returns:
	//   - plaintext: The decrypted data
	//   - err: Authentication failure, invalid nonce, or other decryption errors
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
//
// This interface acts as a factory for creating authenticated encryption cipher
// instances. It abstracts the cipher creation logic, allowing callers to obtain
// cipher instances without knowing the specific implementation details.
//
// The manager supports two algorithms:
//   - AESGCM: AES-256-GCM (best on hardware with AES-NI acceleration)
//   - ChaCha20: ChaCha20-Poly1305 (best on mobile/embedded systems)
//
// Both algorithms provide authenticated encryption with associated data (AEAD),
// ensuring confidentiality and authenticity of encrypted data.
//
// Usage pattern:
//  1. Create an AEADManager instance
//  2. Call CreateCipher with a 32-byte key and desired algorithm
//  3. Use the returned AEAD cipher to encrypt/decrypt data
//
// Example:
//
//	manager := NewAEADManager()
//	cipher, err := manager.CreateCipher(dekKey, cryptoDomain.AESGCM)
//	if err != nil {
//	    return err
//	}
//	ciphertext, nonce, err := cipher.Encrypt(plaintext, aad)
//
// Implementation: AEADManagerService
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	//
	// This factory method instantiates the appropriate cipher implementation
	// based on the provided algorithm. The key must be exactly 32 bytes (256 bits)
	// for both supported algorithms.
	//
	// The returned cipher is stateless and thread-safe, allowing concurrent
	// encryption/decryption operations with the same cipher instance.
	//
	// Parameters:
	//   - key: The encryption key (must be exactly 32 bytes)
	//   - alg: The algorithm to use (AESGCM or ChaCha20)
	//
	// Returns:
	//   - An AEAD cipher instance ready for encryption/decryption operations
	//   - ErrInvalidKeySize if key is not 32 bytes
	//   - ErrUnsupportedAlgorithm if algorithm is not supported
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeyManager defines the interface for deriving and wrap/unwrapping keys
// across the key hierarchy:
//
//	MasterKey (from passphrase, or Shamir-reconstructed)
//	    ↓ HKDF-SHA256 per device
//	DeviceKey
//	    ↓ wraps
//	KEK (Key Encryption Key — one active per identity)
//	    ↓ wraps
//	DocumentKey (one per document per epoch)
//
// Each level is derived or wrapped from the level directly above it; there
// is no shortcut from MasterKey straight to a DocumentKey.
//
// Implementation: KeyManagerService
type KeyManager interface {
	// MasterFromPassphrase derives the MasterKey from a passphrase and a
	// persisted salt via HKDF-SHA256.
	MasterFromPassphrase(passphrase, salt []byte) (*cryptoDomain.MasterKey, error)

	// DeviceFromMaster derives a device's DeviceKey from the MasterKey and
	// the device's stable identifier via HKDF-SHA256.
	DeviceFromMaster(master *cryptoDomain.MasterKey, deviceID string) (*cryptoDomain.DeviceKey, error)

	// WrapKek seals the KEK under the DeviceKey for persistence.
	WrapKek(kek *cryptoDomain.Kek, deviceKey *cryptoDomain.DeviceKey) (*cryptoDomain.WrappedKek, error)

	// UnwrapKek recovers the KEK from its wrapped form using the DeviceKey.
	// Returns ErrDecryptionFailed if the ciphertext was sealed under a
	// different DeviceKey or has been tampered with.
	UnwrapKek(w *cryptoDomain.WrappedKek, deviceKey *cryptoDomain.DeviceKey) (*cryptoDomain.Kek, error)

	// WrapDocumentKey seals a DocumentKey under the KEK at the given
	// rotation epoch.
	WrapDocumentKey(docKey *cryptoDomain.DocumentKey, kek *cryptoDomain.Kek, epoch uint32) (*cryptoDomain.WrappedDocumentKey, error)

	// UnwrapDocumentKey recovers a DocumentKey from its wrapped form using
	// the KEK. Returns ErrDecryptionFailed if sealed under a different KEK.
	UnwrapDocumentKey(w *cryptoDomain.WrappedDocumentKey, kek *cryptoDomain.Kek) (*cryptoDomain.DocumentKey, error)

	// CanaryKeyFromMaster derives the key that seals the canary phrase at
	// rest, via HKDF-SHA256 with no salt. A side branch off the MasterKey,
	// parallel to DeviceFromMaster but bound to a distinct info string so
	// it can never collide with a DeviceKey derivation.
	CanaryKeyFromMaster(master *cryptoDomain.MasterKey) ([]byte, error)
}
