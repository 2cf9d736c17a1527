package commands

import (
	"context"
	"fmt"
)

// RunVerifyLog opens the session log and walks its hash chain end to end,
// reporting the first broken link if any.
func RunVerifyLog(ctx context.Context, passphrase string) error {
	container, err := openContainer(ctx, passphrase)
	if err != nil {
		return err
	}
	logger := container.Logger()
	defer closeContainer(container, logger)

	if err := container.SessionLog().VerifyChain(); err != nil {
		return fmt.Errorf("session log chain broken: %w", err)
	}

	fmt.Println("session log chain intact")
	return nil
}
