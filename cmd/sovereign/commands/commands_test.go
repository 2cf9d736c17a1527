package commands

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/clenoble/sovereign-sub001/internal/crypto/domain"
	"github.com/clenoble/sovereign-sub001/internal/p2p"
	"github.com/clenoble/sovereign-sub001/internal/recovery"
)

func setEnv(t *testing.T, dataDir string) {
	t.Setenv("SOVEREIGN_DATA_DIR", dataDir)
	t.Setenv("SOVEREIGN_DEVICE_ID", "test-device")
	t.Setenv("SOVEREIGN_PASSPHRASE", "correct-horse-battery-staple")
}

func TestRunUnlock_Succeeds(t *testing.T) {
	setEnv(t, t.TempDir())
	require.NoError(t, RunUnlock(context.Background(), ""))
}

func TestRunRotateKek_Succeeds(t *testing.T) {
	setEnv(t, t.TempDir())
	require.NoError(t, RunRotateKek(context.Background(), ""))
}

func TestRunVerifyLog_SucceedsOnFreshLog(t *testing.T) {
	setEnv(t, t.TempDir())
	require.NoError(t, RunVerifyLog(context.Background(), ""))
}

func TestGuardianWorkflow_SplitsOnceQuorumActive(t *testing.T) {
	setEnv(t, t.TempDir())
	ctx := context.Background()

	require.NoError(t, RunCreateGuardian(ctx, "", "g1", "Alice", "", "Alice, in person"))
	require.NoError(t, RunCreateGuardian(ctx, "", "g2", "Bob", "", "Bob, in person"))
	require.NoError(t, RunCreateGuardian(ctx, "", "g3", "Carol", "", "Carol, in person"))

	require.NoError(t, RunEnrollGuardian(ctx, "", "g1", 2, 3))
	require.NoError(t, RunEnrollGuardian(ctx, "", "g2", 2, 3))
	require.NoError(t, RunEnrollGuardian(ctx, "", "g3", 2, 3))
}

func TestRunPairDevice_RecordsPairedDevice(t *testing.T) {
	dataDir := t.TempDir()
	setEnv(t, dataDir)
	ctx := context.Background()

	secret := "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="
	require.NoError(t, RunPairDevice(ctx, "", "peer-xyz", "Alice's Laptop", secret))

	require.NoError(t, RunUnlock(ctx, ""))
}

func TestRunSync_ReportsNoWorkWhenManifestsMatch(t *testing.T) {
	dir := t.TempDir()

	manifest := p2p.NewSyncManifest("device-a", "2026-01-01T00:00:00Z")
	manifest.Entries = append(manifest.Entries, p2p.DocumentManifestEntry{
		DocID:       "doc-1",
		HeadCommit:  "c1",
		CommitCount: 1,
		ContentHash: "hash1",
		ModifiedAt:  "2026-01-01T00:00:00Z",
	})

	data, err := json.Marshal(manifest)
	require.NoError(t, err)

	localPath := filepath.Join(dir, "local.json")
	remotePath := filepath.Join(dir, "remote.json")
	require.NoError(t, os.WriteFile(localPath, data, 0600))
	require.NoError(t, os.WriteFile(remotePath, data, 0600))

	require.NoError(t, RunSync(context.Background(), localPath, remotePath))
}

func TestRunMigrateDocuments_ConvertsPendingPlaintext(t *testing.T) {
	dataDir := t.TempDir()
	setEnv(t, dataDir)

	plaintextDir := t.TempDir()
	encryptedDir := filepath.Join(t.TempDir(), "encrypted")

	require.NoError(t, os.WriteFile(filepath.Join(plaintextDir, "doc-1.txt"), []byte("hello sovereign"), 0600))

	require.NoError(t, RunMigrateDocuments(context.Background(), "", plaintextDir, encryptedDir))

	_, err := os.Stat(filepath.Join(plaintextDir, "doc-1.txt"))
	require.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(encryptedDir, "doc-1.json"))
	require.NoError(t, err)

	require.NoError(t, RunMigrateDocuments(context.Background(), "", plaintextDir, encryptedDir))
}

func TestRunEnrollCanary_Succeeds(t *testing.T) {
	setEnv(t, t.TempDir())
	require.NoError(t, RunEnrollCanary(context.Background(), "", "the quick brown fox"))
}

func TestRunEnrollCanary_RequiresPhrase(t *testing.T) {
	setEnv(t, t.TempDir())
	require.Error(t, RunEnrollCanary(context.Background(), "", ""))
}

func TestRunEnrollDuress_Succeeds(t *testing.T) {
	dataDir := t.TempDir()
	setEnv(t, dataDir)
	ctx := context.Background()

	require.NoError(t, RunUnlock(ctx, ""))

	duressDataDir := t.TempDir()
	require.NoError(t, RunEnrollDuress(ctx, "", "a different duress passphrase", duressDataDir))
}

func TestRunRecover_ReconstructsFromQuorumShares(t *testing.T) {
	master, err := cryptoDomain.GenerateMasterKey()
	require.NoError(t, err)
	defer master.Close()

	shares, err := recovery.SplitMasterKey(master, 2, 3)
	require.NoError(t, err)

	encoded := make([]string, len(shares))
	for i, s := range shares {
		encoded[i] = encodeShare(s)
	}

	require.NoError(t, RunRecover(context.Background(), "test-device", 2, encoded[:2]))
}

func TestRunRecover_FailsBelowThreshold(t *testing.T) {
	master, err := cryptoDomain.GenerateMasterKey()
	require.NoError(t, err)
	defer master.Close()

	shares, err := recovery.SplitMasterKey(master, 2, 3)
	require.NoError(t, err)

	err = RunRecover(context.Background(), "test-device", 2, []string{encodeShare(shares[0])})
	require.Error(t, err)
}
