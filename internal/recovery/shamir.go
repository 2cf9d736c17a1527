// Package recovery implements social recovery for the sovereign security
// core (C6): Shamir secret splitting of the MasterKey across guardians, and
// the GuardianRegistry that tracks who holds which shard.
package recovery

import (
	"fmt"

	"github.com/hashicorp/vault/shamir"

	cryptoDomain "github.com/clenoble/sovereign-sub001/internal/crypto/domain"
	"github.com/clenoble/sovereign-sub001/internal/errors"
)

// DefaultThreshold and DefaultTotalShares are the recommended guardian
// quorum: any 3 of 5 enrolled guardians can reconstruct the MasterKey.
const (
	DefaultThreshold   = 3
	DefaultTotalShares = 5
)

// SplitMasterKey splits key into total Shamir shares, any threshold of
// which reconstruct it. Mirrors the original implementation's
// split_master_key, swapping the Rust blahaj crate for
// github.com/hashicorp/vault/shamir (the same GF(256) construction, and
// already present in go.mod via the teacher's hashicorp/vault/api KMS
// integration).
func SplitMasterKey(key *cryptoDomain.MasterKey, threshold, total int) ([][]byte, error) {
	if total < threshold {
		return nil, fmt.Errorf("%w: total (%d) must be >= threshold (%d)", errors.ErrInvalidInput, total, threshold)
	}
	if threshold < 2 {
		return nil, fmt.Errorf("%w: threshold must be >= 2", errors.ErrInvalidInput)
	}

	shares, err := shamir.Split(key.Key, total, threshold)
	if err != nil {
		return nil, fmt.Errorf("split master key: %w", err)
	}
	return shares, nil
}

// ReconstructMasterKey recombines shares into a MasterKey. Requires at
// least threshold valid shares; fails closed with ErrInsufficientShards if
// fewer are given, or ErrRecoveryFailed if the recombined secret is the
// wrong length (shares from different splits, or corrupted shares).
func ReconstructMasterKey(shares [][]byte, threshold int) (*cryptoDomain.MasterKey, error) {
	if len(shares) < threshold {
		return nil, fmt.Errorf("%w: need %d, got %d", errors.ErrInsufficientShards, threshold, len(shares))
	}

	secret, err := shamir.Combine(shares)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrRecoveryFailed, err)
	}

	key, err := cryptoDomain.MasterKeyFromBytes(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrRecoveryFailed, err)
	}
	return key, nil
}
