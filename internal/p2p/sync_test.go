package p2p

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encoding/json"
)

func TestEncryptedCommit_Serde(t *testing.T) {
	commit := EncryptedCommit{
		CommitID:          "commit:abc",
		DocumentID:        "document:123",
		EncryptedSnapshot: "base64data",
		Nonce:             "base64nonce",
		Message:           "initial",
		Timestamp:         "2026-01-01T00:00:00Z",
	}
	data, err := json.Marshal(commit)
	require.NoError(t, err)
	var back EncryptedCommit
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "commit:abc", back.CommitID)
}

func TestSyncDiff_HasWork(t *testing.T) {
	empty := &SyncDiff{InSync: []string{"doc:1"}}
	assert.False(t, empty.HasWork())

	withNeed := &SyncDiff{NeedFromRemote: []string{"doc:2"}}
	assert.True(t, withNeed.HasWork())
}

func TestSyncConflict_Serde(t *testing.T) {
	conflict := SyncConflict{
		DocID:             "document:abc",
		LocalHead:         "commit:local",
		RemoteHead:        "commit:remote",
		LocalCommitCount:  5,
		RemoteCommitCount: 7,
	}
	data, err := json.Marshal(conflict)
	require.NoError(t, err)
	var back SyncConflict
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, uint32(5), back.LocalCommitCount)
	assert.Equal(t, uint32(7), back.RemoteCommitCount)
}

func TestDiffManifests_ClassifiesEveryCase(t *testing.T) {
	local := &SyncManifest{Entries: []DocumentManifestEntry{
		{DocID: "in-sync", HeadCommit: "c1", CommitCount: 2},
		{DocID: "push-me", HeadCommit: "c2", CommitCount: 3},
		{DocID: "conflict", HeadCommit: "local-head", CommitCount: 4},
		{DocID: "remote-ahead", HeadCommit: "", CommitCount: 0},
	}}
	remote := &SyncManifest{Entries: []DocumentManifestEntry{
		{DocID: "in-sync", HeadCommit: "c1", CommitCount: 2},
		{DocID: "conflict", HeadCommit: "remote-head", CommitCount: 5},
		{DocID: "remote-ahead", HeadCommit: "c9", CommitCount: 9},
		{DocID: "need-me", HeadCommit: "c3", CommitCount: 1},
	}}

	diff := DiffManifests(local, remote)
	assert.ElementsMatch(t, []string{"push-me"}, diff.PushToRemote)
	assert.ElementsMatch(t, []string{"remote-ahead", "need-me"}, diff.NeedFromRemote)
	assert.ElementsMatch(t, []string{"in-sync"}, diff.InSync)
	require.Len(t, diff.Conflicts, 1)
	assert.Equal(t, "conflict", diff.Conflicts[0].DocID)
}
