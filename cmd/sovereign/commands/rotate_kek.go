package commands

import (
	"context"
	"fmt"
)

// RunRotateKek generates a fresh KEK, wraps and persists it under the
// current DeviceKey, and replaces the active KEK. Document keys already
// wrapped under the previous KEK stay readable through their recorded
// epoch; re-wrapping them under the new KEK is a separate per-document
// rotation via the key database.
func RunRotateKek(ctx context.Context, passphrase string) error {
	container, err := openContainer(ctx, passphrase)
	if err != nil {
		return err
	}
	logger := container.Logger()
	defer closeContainer(container, logger)

	if err := container.RotateKek(); err != nil {
		return fmt.Errorf("rotate kek: %w", err)
	}

	fmt.Println("kek rotated")
	return nil
}
