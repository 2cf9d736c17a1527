package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	cryptoDomain "github.com/clenoble/sovereign-sub001/internal/crypto/domain"
	cryptoService "github.com/clenoble/sovereign-sub001/internal/crypto/service"
)

const kekFileName = "kek.wrapped"

// loadOrCreateKek reads dataDir/kek.wrapped and unwraps it under deviceKey,
// or, if the file does not exist yet, generates a fresh KEK and persists
// its wrapped form. Returns the unwrapped Kek and whether it was freshly
// created.
func loadOrCreateKek(
	dataDir string,
	deviceKey *cryptoDomain.DeviceKey,
	keyMgr cryptoService.KeyManager,
) (*cryptoDomain.Kek, bool, error) {
	path := filepath.Join(dataDir, kekFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, false, fmt.Errorf("read wrapped kek: %w", err)
		}

		kek, genErr := cryptoDomain.GenerateKek()
		if genErr != nil {
			return nil, false, genErr
		}
		if saveErr := saveWrappedKek(dataDir, kek, deviceKey, keyMgr); saveErr != nil {
			return nil, false, saveErr
		}
		return kek, true, nil
	}

	var wrapped cryptoDomain.WrappedKek
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, false, fmt.Errorf("parse wrapped kek: %w", err)
	}
	kek, err := keyMgr.UnwrapKek(&wrapped, deviceKey)
	if err != nil {
		return nil, false, err
	}
	return kek, false, nil
}

// peekWrappedKek reads dataDir/kek.wrapped without unwrapping it, for
// callers that need to know whether an identity has already been
// enrolled there (and to hand the wrapped form to gate.Authenticator)
// before any DeviceKey is available. Returns nil, nil if the file does
// not exist yet.
func peekWrappedKek(dataDir string) (*cryptoDomain.WrappedKek, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, kekFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read wrapped kek: %w", err)
	}
	var wrapped cryptoDomain.WrappedKek
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse wrapped kek: %w", err)
	}
	return &wrapped, nil
}

// saveWrappedKek wraps kek under deviceKey and persists it atomically,
// used both for initial creation and after rotateKek produces a new KEK.
func saveWrappedKek(
	dataDir string,
	kek *cryptoDomain.Kek,
	deviceKey *cryptoDomain.DeviceKey,
	keyMgr cryptoService.KeyManager,
) error {
	wrapped, err := keyMgr.WrapKek(kek, deviceKey)
	if err != nil {
		return fmt.Errorf("wrap kek: %w", err)
	}
	data, err := json.Marshal(wrapped)
	if err != nil {
		return fmt.Errorf("marshal wrapped kek: %w", err)
	}
	return atomicWriteKekFile(filepath.Join(dataDir, kekFileName), data)
}

func atomicWriteKekFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create kek directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".kek.wrapped.tmp-*")
	if err != nil {
		return fmt.Errorf("create temp kek file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup; rename below is the success path

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp kek file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp kek file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp kek file: %w", err)
	}

	return os.Rename(tmpPath, path)
}
