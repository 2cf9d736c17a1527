// Package domain defines the cryptographic key hierarchy and its on-disk
// wrapped forms: Master -> Device -> KEK -> DocumentKey.
package domain

import (
	"github.com/clenoble/sovereign-sub001/internal/errors"
)

// Cryptographic operation errors.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates the cryptographic key size is invalid (must be 32 bytes).
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates decryption failed due to wrong key, wrong
	// nonce, or a tampered/corrupted envelope.
	ErrDecryptionFailed = errors.Wrap(errors.ErrDecryptionFailed, "decryption failed")

	// ErrSessionLocked indicates an operation was attempted against a key
	// holder (MasterKey/DeviceKey/KEK) after the session was locked.
	ErrSessionLocked = errors.Wrap(errors.ErrLocked, "session locked")

	// ErrKMSProviderNotSet indicates kms_provider is configured without a
	// matching kms_key_uri.
	ErrKMSProviderNotSet = errors.Wrap(
		errors.ErrInvalidInput,
		"kms_provider is set but kms_key_uri is not configured",
	)

	// ErrKMSKeyURINotSet indicates kms_key_uri is configured without a
	// matching kms_provider.
	ErrKMSKeyURINotSet = errors.Wrap(
		errors.ErrInvalidInput,
		"kms_key_uri is set but kms_provider is not configured",
	)

	// ErrKMSDecryptionFailed indicates KMS decryption of a sealed MasterKey failed.
	ErrKMSDecryptionFailed = errors.Wrap(errors.ErrDecryptionFailed, "KMS decryption failed")

	// ErrKMSOpenKeeperFailed indicates opening the KMS keeper failed.
	ErrKMSOpenKeeperFailed = errors.Wrap(errors.ErrInvalidInput, "failed to open KMS keeper")
)
