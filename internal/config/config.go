// Package config provides application configuration management through
// environment variables, with an optional TOML file as a base layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration for a single sovereign identity.
type Config struct {
	// DataDir is the root directory holding the key database, wrapped KEK,
	// session log, and recovery shard metadata for this identity.
	DataDir string

	// DeviceID is this device's stable identifier, used as HKDF info when
	// deriving the DeviceKey from the MasterKey. Read from
	// SOVEREIGN_DEVICE_ID or the TOML file's device_id; this package does
	// not generate or persist it.
	DeviceID string

	// Logging
	LogLevel string

	// MasterKeySalt is the salt used to derive the MasterKey from the
	// user's passphrase via HKDF-SHA256, read base64-encoded from
	// SOVEREIGN_MASTER_KEY_SALT. Nothing in this module generates or
	// persists it.
	MasterKeySalt []byte

	// KMS configuration for sealing the passphrase-derived MasterKey as a
	// companion blob (defense in depth against local disk compromise, not
	// a replacement for the passphrase). Both must be set together or both
	// left empty.
	KMSProvider string
	KMSKeyURI   string

	// GateTrustThreshold is the number of consecutive approvals of the same
	// action name before it is auto-approved. 0 disables auto-approval.
	GateTrustThreshold int

	// DuressMasterKeySalt is the salt used to derive the duress persona's
	// MasterKey, parallel to MasterKeySalt for the primary identity
	// (Container.EnrollDuress generates it). It does not by itself enable or
	// disable the duress persona; DuressDataDir does.
	DuressMasterKeySalt []byte

	// DuressDataDir is the decoy identity's data directory: its own
	// kek.wrapped, key database, and session log, swapped in for the rest
	// of the session when the duress passphrase unlocks instead of the
	// primary one. Empty disables the duress persona.
	DuressDataDir string

	// AutoCommitEditThreshold is the number of uncommitted edits that
	// triggers an automatic commit.
	AutoCommitEditThreshold int

	// AutoCommitTimeThreshold is the maximum time a set of edits may remain
	// uncommitted before an automatic commit is forced.
	AutoCommitTimeThreshold time.Duration

	// P2PListenAddress is the address the sync control channel binds to
	// for incoming pairing and sync connections from paired devices.
	P2PListenAddress string
}

// Load loads configuration from an optional TOML file followed by
// environment variables, which take precedence over the file. It first
// attempts to load a .env file by searching recursively from the current
// directory up to the root directory.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := defaultConfig()
	if path := env.GetString("CONFIG_FILE", ""); path != "" {
		if err := mergeTOMLFile(cfg, path); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		DataDir:                 "",
		DeviceID:                "",
		LogLevel:                "info",
		MasterKeySalt:           nil,
		KMSProvider:             "",
		KMSKeyURI:               "",
		GateTrustThreshold:      5,
		DuressMasterKeySalt:     nil,
		DuressDataDir:           "",
		AutoCommitEditThreshold: 50,
		AutoCommitTimeThreshold: 5 * time.Minute,
		P2PListenAddress:        "127.0.0.1:7417",
	}
}

// mergeTOMLFile decodes a TOML config file into cfg, overwriting only the
// fields present in the file.
func mergeTOMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file struct {
		DataDir                 *string `toml:"data_dir"`
		DeviceID                *string `toml:"device_id"`
		LogLevel                *string `toml:"log_level"`
		KMSProvider             *string `toml:"kms_provider"`
		KMSKeyURI               *string `toml:"kms_key_uri"`
		GateTrustThreshold      *int    `toml:"gate_trust_threshold"`
		DuressDataDir           *string `toml:"duress_data_dir"`
		AutoCommitEditThreshold *int    `toml:"auto_commit_edit_threshold"`
		AutoCommitTimeThreshold *string `toml:"auto_commit_time_threshold"`
		P2PListenAddress        *string `toml:"p2p_listen_address"`
	}
	if err := toml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse toml: %w", err)
	}

	if file.DataDir != nil {
		cfg.DataDir = *file.DataDir
	}
	if file.DeviceID != nil {
		cfg.DeviceID = *file.DeviceID
	}
	if file.LogLevel != nil {
		cfg.LogLevel = *file.LogLevel
	}
	if file.KMSProvider != nil {
		cfg.KMSProvider = *file.KMSProvider
	}
	if file.KMSKeyURI != nil {
		cfg.KMSKeyURI = *file.KMSKeyURI
	}
	if file.GateTrustThreshold != nil {
		cfg.GateTrustThreshold = *file.GateTrustThreshold
	}
	if file.DuressDataDir != nil {
		cfg.DuressDataDir = *file.DuressDataDir
	}
	if file.AutoCommitEditThreshold != nil {
		cfg.AutoCommitEditThreshold = *file.AutoCommitEditThreshold
	}
	if file.AutoCommitTimeThreshold != nil {
		d, err := time.ParseDuration(*file.AutoCommitTimeThreshold)
		if err != nil {
			return fmt.Errorf("parse auto_commit_time_threshold: %w", err)
		}
		cfg.AutoCommitTimeThreshold = d
	}
	if file.P2PListenAddress != nil {
		cfg.P2PListenAddress = *file.P2PListenAddress
	}
	return nil
}

// applyEnvOverrides overlays environment variables onto cfg, using cfg's
// current values (file or default) as the fallback for each.
func applyEnvOverrides(cfg *Config) {
	cfg.DataDir = env.GetString("SOVEREIGN_DATA_DIR", cfg.DataDir)
	cfg.DeviceID = env.GetString("SOVEREIGN_DEVICE_ID", cfg.DeviceID)
	cfg.LogLevel = env.GetString("LOG_LEVEL", cfg.LogLevel)
	cfg.MasterKeySalt = env.GetBase64ToBytes("SOVEREIGN_MASTER_KEY_SALT", cfg.MasterKeySalt)
	cfg.KMSProvider = env.GetString("KMS_PROVIDER", cfg.KMSProvider)
	cfg.KMSKeyURI = env.GetString("KMS_KEY_URI", cfg.KMSKeyURI)
	cfg.GateTrustThreshold = env.GetInt("GATE_TRUST_THRESHOLD", cfg.GateTrustThreshold)
	cfg.DuressMasterKeySalt = env.GetBase64ToBytes("SOVEREIGN_DURESS_MASTER_KEY_SALT", cfg.DuressMasterKeySalt)
	cfg.DuressDataDir = env.GetString("SOVEREIGN_DURESS_DATA_DIR", cfg.DuressDataDir)
	cfg.AutoCommitEditThreshold = env.GetInt("AUTO_COMMIT_EDIT_THRESHOLD", cfg.AutoCommitEditThreshold)
	cfg.AutoCommitTimeThreshold = env.GetDuration("AUTO_COMMIT_TIME_THRESHOLD_SECONDS",
		int(cfg.AutoCommitTimeThreshold/time.Second), time.Second)
	cfg.P2PListenAddress = env.GetString("P2P_LISTEN_ADDRESS", cfg.P2PListenAddress)
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}
