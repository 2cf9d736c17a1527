package gate

import (
	"fmt"

	cryptoDomain "github.com/clenoble/sovereign-sub001/internal/crypto/domain"
	cryptoService "github.com/clenoble/sovereign-sub001/internal/crypto/service"
	"github.com/clenoble/sovereign-sub001/internal/errors"
	"github.com/clenoble/sovereign-sub001/internal/events"
)

// Authenticator implements the dual-passphrase unlock flow: a real
// passphrase unlocks the primary identity, and a separate, independently
// configured duress passphrase unlocks a decoy identity with its own
// MasterKeySalt and WrappedKek. Both derivations go through the same key
// hierarchy; nothing about the duress path is weaker cryptographically, it
// simply points at different wrapped key material and document root.
type Authenticator struct {
	keyMgr   cryptoService.KeyManager
	deviceID string

	primarySalt       []byte
	primaryWrappedKek *cryptoDomain.WrappedKek

	duressSalt       []byte
	duressWrappedKek *cryptoDomain.WrappedKek
}

// NewAuthenticator configures the primary identity. Call ConfigureDuress
// afterwards if a duress persona has been enrolled.
func NewAuthenticator(
	keyMgr cryptoService.KeyManager,
	deviceID string,
	primarySalt []byte,
	primaryWrappedKek *cryptoDomain.WrappedKek,
) *Authenticator {
	return &Authenticator{
		keyMgr:            keyMgr,
		deviceID:          deviceID,
		primarySalt:       primarySalt,
		primaryWrappedKek: primaryWrappedKek,
	}
}

// ConfigureDuress enrolls a duress persona. Without this call, Unlock only
// ever tries the primary passphrase.
func (a *Authenticator) ConfigureDuress(duressSalt []byte, duressWrappedKek *cryptoDomain.WrappedKek) {
	a.duressSalt = duressSalt
	a.duressWrappedKek = duressWrappedKek
}

// Unlock tries passphrase against the primary identity first, then (if
// configured) the duress identity. The KEK returned unwraps the identity's
// KeyDatabase; the caller is responsible for swapping in the duress
// KeyDatabase file and document root when PersonaDuress is returned. No
// error message distinguishes a duress match from a primary match: both
// return nil error and a usable Kek. The primary identity is always tried
// first, so a duress match runs one failed primary derivation before its
// own and takes correspondingly longer.
func (a *Authenticator) Unlock(passphrase []byte) (events.PersonaKind, *cryptoDomain.MasterKey, *cryptoDomain.Kek, error) {
	if master, kek, err := a.tryUnlock(passphrase, a.primarySalt, a.primaryWrappedKek); err == nil {
		return events.PersonaPrimary, master, kek, nil
	}

	if a.duressWrappedKek != nil {
		if master, kek, err := a.tryUnlock(passphrase, a.duressSalt, a.duressWrappedKek); err == nil {
			return events.PersonaDuress, master, kek, nil
		}
	}

	return events.PersonaPrimary, nil, nil, fmt.Errorf("%w: passphrase did not match any enrolled identity", errors.ErrUnauthorized)
}

func (a *Authenticator) tryUnlock(
	passphrase, salt []byte,
	wrappedKek *cryptoDomain.WrappedKek,
) (*cryptoDomain.MasterKey, *cryptoDomain.Kek, error) {
	if wrappedKek == nil {
		return nil, nil, errors.ErrNotFound
	}

	master, err := a.keyMgr.MasterFromPassphrase(passphrase, salt)
	if err != nil {
		return nil, nil, err
	}

	deviceKey, err := a.keyMgr.DeviceFromMaster(master, a.deviceID)
	if err != nil {
		master.Close()
		return nil, nil, err
	}
	defer deviceKey.Close()

	kek, err := a.keyMgr.UnwrapKek(wrappedKek, deviceKey)
	if err != nil {
		master.Close()
		return nil, nil, err
	}

	return master, kek, nil
}
