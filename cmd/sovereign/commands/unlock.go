package commands

import (
	"context"
	"fmt"
	"log/slog"
)

// RunUnlock derives the MasterKey, DeviceKey, and KEK from the supplied
// passphrase and reports whether the identity at SOVEREIGN_DATA_DIR opens
// cleanly, without leaving any session state behind.
func RunUnlock(ctx context.Context, passphrase string) error {
	container, err := openContainer(ctx, passphrase)
	if err != nil {
		return err
	}
	logger := container.Logger()
	defer closeContainer(container, logger)

	fmt.Println("unlock ok")
	fmt.Printf("device_id=%s\n", container.Config().DeviceID)
	logger.Info("identity unlocked", slog.String("device_id", container.Config().DeviceID))
	return nil
}
