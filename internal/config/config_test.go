package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "load default configuration",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "", cfg.DataDir)
				assert.Equal(t, "", cfg.DeviceID)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Equal(t, "", cfg.KMSProvider)
				assert.Equal(t, "", cfg.KMSKeyURI)
				assert.Equal(t, 5, cfg.GateTrustThreshold)
				assert.Equal(t, "", cfg.DuressDataDir)
				assert.Equal(t, 50, cfg.AutoCommitEditThreshold)
				assert.Equal(t, 5*time.Minute, cfg.AutoCommitTimeThreshold)
				assert.Equal(t, "127.0.0.1:7417", cfg.P2PListenAddress)
			},
		},
		{
			name: "load custom identity configuration",
			envVars: map[string]string{
				"SOVEREIGN_DATA_DIR":  "/var/lib/sovereign",
				"SOVEREIGN_DEVICE_ID": "laptop-1",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/var/lib/sovereign", cfg.DataDir)
				assert.Equal(t, "laptop-1", cfg.DeviceID)
			},
		},
		{
			name: "load custom log level",
			envVars: map[string]string{
				"LOG_LEVEL": "debug",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.LogLevel)
			},
		},
		{
			name: "load custom KMS configuration",
			envVars: map[string]string{
				"KMS_PROVIDER": "hashivault",
				"KMS_KEY_URI":  "hashivault://my-key",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "hashivault", cfg.KMSProvider)
				assert.Equal(t, "hashivault://my-key", cfg.KMSKeyURI)
			},
		},
		{
			name: "load custom gate configuration",
			envVars: map[string]string{
				"GATE_TRUST_THRESHOLD": "10",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 10, cfg.GateTrustThreshold)
			},
		},
		{
			name: "load custom duress configuration",
			envVars: map[string]string{
				"SOVEREIGN_DURESS_MASTER_KEY_SALT": "c2FsdHNhbHQ=",
				"SOVEREIGN_DURESS_DATA_DIR":        "/var/lib/sovereign-decoy",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []byte("saltsalt"), cfg.DuressMasterKeySalt)
				assert.Equal(t, "/var/lib/sovereign-decoy", cfg.DuressDataDir)
			},
		},
		{
			name: "load custom autocommit configuration",
			envVars: map[string]string{
				"AUTO_COMMIT_EDIT_THRESHOLD":         "100",
				"AUTO_COMMIT_TIME_THRESHOLD_SECONDS": "60",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 100, cfg.AutoCommitEditThreshold)
				assert.Equal(t, 60*time.Second, cfg.AutoCommitTimeThreshold)
			},
		},
		{
			name: "load custom p2p configuration",
			envVars: map[string]string{
				"P2P_LISTEN_ADDRESS": "0.0.0.0:9000",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0.0.0.0:9000", cfg.P2PListenAddress)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()

			for key, value := range tt.envVars {
				err := os.Setenv(key, value)
				require.NoError(t, err)
			}

			cfg, err := Load()
			require.NoError(t, err)

			tt.validate(t, cfg)
		})
	}
}

func TestLoadWithTOMLFile(t *testing.T) {
	os.Clearenv()

	tmpDir, err := os.MkdirTemp("", "config_test")
	require.NoError(t, err)
	defer func() {
		_ = os.RemoveAll(tmpDir)
	}()

	tomlPath := filepath.Join(tmpDir, "sovereign.toml")
	contents := `
data_dir = "/home/user/.sovereign"
device_id = "desktop-1"
log_level = "warn"
gate_trust_threshold = 3
`
	require.NoError(t, os.WriteFile(tomlPath, []byte(contents), 0600))

	require.NoError(t, os.Setenv("CONFIG_FILE", tomlPath))
	defer func() { _ = os.Unsetenv("CONFIG_FILE") }()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/home/user/.sovereign", cfg.DataDir)
	assert.Equal(t, "desktop-1", cfg.DeviceID)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 3, cfg.GateTrustThreshold)

	// Defaults not present in the file are untouched.
	assert.Equal(t, 50, cfg.AutoCommitEditThreshold)
}

func TestLoadEnvOverridesTOMLFile(t *testing.T) {
	os.Clearenv()

	tmpDir, err := os.MkdirTemp("", "config_test")
	require.NoError(t, err)
	defer func() {
		_ = os.RemoveAll(tmpDir)
	}()

	tomlPath := filepath.Join(tmpDir, "sovereign.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(`log_level = "warn"`), 0600))

	require.NoError(t, os.Setenv("CONFIG_FILE", tomlPath))
	require.NoError(t, os.Setenv("LOG_LEVEL", "debug"))
	defer func() {
		_ = os.Unsetenv("CONFIG_FILE")
		_ = os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadDotEnv(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config_test")
	require.NoError(t, err)
	defer func() {
		_ = os.RemoveAll(tmpDir)
	}()

	err = os.WriteFile(filepath.Join(tmpDir, ".env"), []byte("TEST_ENV_VAR=found"), 0600)
	require.NoError(t, err)

	childDir := filepath.Join(tmpDir, "child", "grandchild")
	err = os.MkdirAll(childDir, 0700)
	require.NoError(t, err)

	oldCwd, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		_ = os.Chdir(oldCwd)
	}()

	err = os.Chdir(childDir)
	require.NoError(t, err)

	loadDotEnv()

	assert.Equal(t, "found", os.Getenv("TEST_ENV_VAR"))
	err = os.Unsetenv("TEST_ENV_VAR")
	require.NoError(t, err)
}
