package commands

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/clenoble/sovereign-sub001/internal/recovery"
)

// RunRecover reconstructs the MasterKey from a quorum of base64-encoded
// Shamir shares collected out-of-band from guardians, and prints a
// confirmation followed by the deviceID it was given. It does not derive a
// DeviceKey or any device identity from the recovered MasterKey.
func RunRecover(ctx context.Context, deviceID string, threshold int, shareB64 []string) error {
	shares := make([][]byte, 0, len(shareB64))
	for _, s := range shareB64 {
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return fmt.Errorf("decode share: %w", err)
		}
		shares = append(shares, raw)
	}

	master, err := recovery.ReconstructMasterKey(shares, threshold)
	if err != nil {
		return fmt.Errorf("reconstruct master key: %w", err)
	}
	defer master.Close()

	fmt.Println("master key recovered")
	fmt.Printf("device_id=%s\n", deviceID)
	return nil
}
