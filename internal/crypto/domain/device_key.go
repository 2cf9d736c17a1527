package domain

import "log/slog"

// DeviceKey is the 32-byte per-device identity key, deterministically
// derived from a MasterKey and a device ID. Not persisted; recomputed on
// every unlock. See service.KeyManagerService.DeviceFromMaster for the HKDF
// derivation.
type DeviceKey struct {
	Key []byte
}

// LogValue redacts the key material from structured log output.
func (d *DeviceKey) LogValue() slog.Value {
	if d == nil {
		return slog.StringValue("[REDACTED:nil]")
	}
	return slog.StringValue("[REDACTED]")
}

// Close zeros the key material. Safe to call multiple times.
func (d *DeviceKey) Close() {
	if d == nil {
		return
	}
	Zero(d.Key)
}
