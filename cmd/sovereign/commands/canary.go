package commands

import (
	"context"
	"fmt"
)

// RunEnrollCanary seals phrase under a key derived from the MasterKey and
// persists it to the unlocked identity's canary.enc, arming canary
// detection for the rest of this and every future session.
func RunEnrollCanary(ctx context.Context, passphrase, phrase string) error {
	container, err := openContainer(ctx, passphrase)
	if err != nil {
		return err
	}
	logger := container.Logger()
	defer closeContainer(container, logger)

	if phrase == "" {
		return fmt.Errorf("enroll canary: --phrase is required")
	}

	if err := container.EnrollCanary(phrase); err != nil {
		return fmt.Errorf("enroll canary: %w", err)
	}

	fmt.Println("canary phrase enrolled")
	return nil
}
