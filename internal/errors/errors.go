// Package errors provides standardized domain errors for business logic.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates missing or invalid authentication credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates insufficient permissions.
	ErrForbidden = errors.New("forbidden")

	// ErrLocked indicates the resource is temporarily locked.
	ErrLocked = errors.New("locked")

	// ErrDecryptionFailed indicates AEAD decryption failed: wrong key, wrong
	// nonce, truncated ciphertext, or a tampered authentication tag. The
	// kind is intentionally collapsed to one opaque error for every cause.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidKeySize indicates key material was not the expected length.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrKeyNotFound indicates a DocumentKey lookup found no entry for the
	// requested document, or no wrapped key at the requested epoch.
	ErrKeyNotFound = errors.New("key not found")

	// ErrChainBroken indicates a session-log verify_chain failure: an
	// encrypted entry's prev hash did not match the running chain hash.
	ErrChainBroken = errors.New("session log chain broken")

	// ErrPlaneViolation indicates a data-plane intent attempted an action
	// of level >= Modify without passing back through the control plane.
	ErrPlaneViolation = errors.New("data-plane violation")

	// ErrInsufficientShards indicates fewer Shamir shares were supplied
	// than the reconstruction threshold requires.
	ErrInsufficientShards = errors.New("insufficient shards")

	// ErrRecoveryFailed indicates Shamir reconstruction produced a result
	// that failed validation (wrong length, or shares from different splits).
	ErrRecoveryFailed = errors.New("recovery failed")

	// ErrSyncFailed indicates a transport-level failure talking to a paired
	// peer during a sync cycle; the caller retries on the next interval.
	ErrSyncFailed = errors.New("sync failed")

	// ErrNotPaired indicates an operation was attempted against a peer_id
	// that has no PairedDevice record.
	ErrNotPaired = errors.New("peer not paired")
)

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message while preserving
// the error chain. Returns nil if err is nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
