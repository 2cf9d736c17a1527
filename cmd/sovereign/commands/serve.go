package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
)

// RunServe starts the local health/ready/metrics status server and blocks
// until an interrupt or termination signal arrives.
func RunServe(ctx context.Context, passphrase, addr string) error {
	container, err := openContainer(ctx, passphrase)
	if err != nil {
		return err
	}
	logger := container.Logger()
	defer closeContainer(container, logger)

	server, err := container.HTTPServer(addr)
	if err != nil {
		return fmt.Errorf("init status server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		return server.Shutdown(context.Background())
	case err := <-serveErr:
		return err
	}
}
