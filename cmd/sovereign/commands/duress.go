package commands

import (
	"context"
	"encoding/base64"
	"fmt"
)

// RunEnrollDuress authenticates with the primary passphrase, then derives a
// fresh duress persona at duressDataDir for duressPassphrase. It prints the
// base64 MasterKeySalt the caller must persist as
// SOVEREIGN_DURESS_MASTER_KEY_SALT (alongside SOVEREIGN_DURESS_DATA_DIR)
// for the duress persona to be reachable on future unlocks.
func RunEnrollDuress(ctx context.Context, passphrase, duressPassphrase, duressDataDir string) error {
	container, err := openContainer(ctx, passphrase)
	if err != nil {
		return err
	}
	logger := container.Logger()
	defer closeContainer(container, logger)

	if duressPassphrase == "" {
		return fmt.Errorf("enroll duress: --duress-passphrase is required")
	}
	if duressDataDir == "" {
		return fmt.Errorf("enroll duress: --duress-data-dir is required")
	}

	salt, err := container.EnrollDuress([]byte(duressPassphrase), duressDataDir)
	if err != nil {
		return fmt.Errorf("enroll duress: %w", err)
	}

	fmt.Println("duress persona enrolled")
	fmt.Printf("duress_master_key_salt=%s\n", base64.StdEncoding.EncodeToString(salt))
	fmt.Printf("duress_data_dir=%s\n", duressDataDir)
	return nil
}
