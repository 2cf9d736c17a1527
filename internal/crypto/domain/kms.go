package domain

import "context"

// KMSService is the interface service.KMSService implements: opening a
// secrets.Keeper for the configured provider URI.
type KMSService interface {
	OpenKeeper(ctx context.Context, keyURI string) (KMSKeeper, error)
}

// KMSKeeper is the interface *secrets.Keeper (gocloud.dev/secrets) implements.
type KMSKeeper interface {
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}
