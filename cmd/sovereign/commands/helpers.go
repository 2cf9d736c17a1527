// Package commands contains CLI command implementations for cmd/sovereign.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/clenoble/sovereign-sub001/internal/app"
	"github.com/clenoble/sovereign-sub001/internal/config"
)

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

// openContainer loads configuration, builds the DI container, and unlocks
// it with the passphrase from the --passphrase flag or the
// SOVEREIGN_PASSPHRASE environment variable. Every command that touches
// the encrypted identity goes through this helper.
func openContainer(ctx context.Context, passphrase string) (*app.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if passphrase == "" {
		passphrase = os.Getenv("SOVEREIGN_PASSPHRASE")
	}
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase required: pass --passphrase or set SOVEREIGN_PASSPHRASE")
	}

	container := app.NewContainer(cfg)
	if err := container.Unlock(ctx, []byte(passphrase)); err != nil {
		return nil, fmt.Errorf("unlock: %w", err)
	}
	return container, nil
}
