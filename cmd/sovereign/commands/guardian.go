package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	cryptoDomain "github.com/clenoble/sovereign-sub001/internal/crypto/domain"
	"github.com/clenoble/sovereign-sub001/internal/recovery"
)

func encodeShare(share []byte) string {
	return base64.StdEncoding.EncodeToString(share)
}

// RunCreateGuardian registers a new guardian contact in Pending status.
// The guardian only becomes eligible to receive a recovery shard once
// enroll-guardian runs the Shamir split across every Active guardian.
func RunCreateGuardian(ctx context.Context, passphrase, guardianID, name, peerID, manualDescription string) error {
	container, err := openContainer(ctx, passphrase)
	if err != nil {
		return err
	}
	logger := container.Logger()
	defer closeContainer(container, logger)

	contact := recovery.GuardianContact{Kind: recovery.ContactManual, ManualDescription: manualDescription}
	if peerID != "" {
		contact = recovery.GuardianContact{Kind: recovery.ContactPeerID, PeerID: peerID}
	}

	reg := container.GuardianRegistry()
	reg.AddGuardian(recovery.GuardianInfo{
		GuardianID: guardianID,
		Name:       name,
		Contact:    contact,
		Status:     recovery.GuardianPending,
		EnrolledAt: time.Now().UTC().Format(time.RFC3339),
		PeerID:     peerID,
	})

	if err := reg.Save(); err != nil {
		return fmt.Errorf("save guardian registry: %w", err)
	}

	fmt.Printf("guardian %s registered (pending)\n", guardianID)
	return nil
}

// RunEnrollGuardian activates a pending guardian and, once total
// guardians are Active, splits the MasterKey with Shamir (any threshold of
// the shares reconstruct it) and distributes one share per active guardian
// as a Shard record.
func RunEnrollGuardian(ctx context.Context, passphrase, guardianID string, threshold, total int) error {
	container, err := openContainer(ctx, passphrase)
	if err != nil {
		return err
	}
	logger := container.Logger()
	defer closeContainer(container, logger)

	reg := container.GuardianRegistry()
	g, ok := reg.GetGuardian(guardianID)
	if !ok {
		return fmt.Errorf("guardian %s not registered", guardianID)
	}
	g.Status = recovery.GuardianActive
	reg.AddGuardian(g)

	active := reg.ActiveGuardians()
	if len(active) < total {
		if err := reg.Save(); err != nil {
			return fmt.Errorf("save guardian registry: %w", err)
		}
		fmt.Printf("guardian %s activated (%d/%d active, split pending)\n", guardianID, len(active), total)
		return nil
	}

	var shares [][]byte
	splitErr := container.MasterKeyHolder().Use(func(master *cryptoDomain.MasterKey) error {
		var err error
		shares, err = recovery.SplitMasterKey(master, threshold, total)
		return err
	})
	if splitErr != nil {
		return fmt.Errorf("split master key: %w", splitErr)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for i, g := range active[:total] {
		reg.AddShard(recovery.Shard{
			ShardID:                   fmt.Sprintf("%s-%d", g.GuardianID, i),
			EncryptedData:             encodeShare(shares[i]),
			ForUser:                   container.Config().DeviceID,
			GuardianPubkeyFingerprint: g.PeerID,
			CreatedAt:                 now,
			Epoch:                     1,
		})
	}

	if err := reg.Save(); err != nil {
		return fmt.Errorf("save guardian registry: %w", err)
	}

	fmt.Printf("master key split %d-of-%d across %d guardians\n", threshold, total, len(active[:total]))
	return nil
}
