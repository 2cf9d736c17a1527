package p2p

// EncryptedCommit is one document commit sealed for sync transport. The
// message field is deliberately left in cleartext as routing metadata,
// matching the original implementation's EncryptedCommit.
type EncryptedCommit struct {
	CommitID          string `json:"commit_id"`
	DocumentID        string `json:"document_id"`
	ParentCommit      string `json:"parent_commit,omitempty"`
	EncryptedSnapshot string `json:"encrypted_snapshot"` // base64
	Nonce             string `json:"nonce"`              // base64
	Message           string `json:"message"`
	Timestamp         string `json:"timestamp"` // ISO-8601
}

// SyncConflict records a document that diverged between two devices: both
// sides have commits the other has never seen.
type SyncConflict struct {
	DocID             string `json:"doc_id"`
	LocalHead         string `json:"local_head,omitempty"`
	RemoteHead        string `json:"remote_head,omitempty"`
	LocalCommitCount  uint32 `json:"local_commit_count"`
	RemoteCommitCount uint32 `json:"remote_commit_count"`
}

// SyncDiff is the result of comparing a local and a remote SyncManifest.
type SyncDiff struct {
	NeedFromRemote []string
	PushToRemote   []string
	Conflicts      []SyncConflict
	InSync         []string
}

// HasWork reports whether this diff requires any network activity.
func (d *SyncDiff) HasWork() bool {
	return len(d.NeedFromRemote) > 0 || len(d.PushToRemote) > 0 || len(d.Conflicts) > 0
}

// DiffManifests compares a local and remote manifest and classifies every
// document each side knows about into need/push/conflict/in-sync, the
// decision table ported from the original implementation's sync protocol
// (a document absent on one side is pulled/pushed wholesale; present on
// both with equal head commits is in-sync; present on both with differing
// heads and nonzero commit counts on both sides is a conflict; present on
// both with differing heads but one side at zero commits is a one-sided
// need/push rather than a conflict).
func DiffManifests(local, remote *SyncManifest) *SyncDiff {
	diff := &SyncDiff{
		NeedFromRemote: make([]string, 0),
		PushToRemote:   make([]string, 0),
		Conflicts:      make([]SyncConflict, 0),
		InSync:         make([]string, 0),
	}

	localByID := make(map[string]DocumentManifestEntry, len(local.Entries))
	for _, e := range local.Entries {
		localByID[e.DocID] = e
	}
	remoteByID := make(map[string]DocumentManifestEntry, len(remote.Entries))
	for _, e := range remote.Entries {
		remoteByID[e.DocID] = e
	}

	for docID, localEntry := range localByID {
		remoteEntry, onRemote := remoteByID[docID]
		if !onRemote {
			diff.PushToRemote = append(diff.PushToRemote, docID)
			continue
		}
		classifyShared(diff, docID, localEntry, remoteEntry)
	}

	for docID := range remoteByID {
		if _, onLocal := localByID[docID]; !onLocal {
			diff.NeedFromRemote = append(diff.NeedFromRemote, docID)
		}
	}

	return diff
}

func classifyShared(diff *SyncDiff, docID string, local, remote DocumentManifestEntry) {
	if local.HeadCommit == remote.HeadCommit {
		diff.InSync = append(diff.InSync, docID)
		return
	}
	if local.CommitCount == 0 {
		diff.NeedFromRemote = append(diff.NeedFromRemote, docID)
		return
	}
	if remote.CommitCount == 0 {
		diff.PushToRemote = append(diff.PushToRemote, docID)
		return
	}
	diff.Conflicts = append(diff.Conflicts, SyncConflict{
		DocID:             docID,
		LocalHead:         local.HeadCommit,
		RemoteHead:        remote.HeadCommit,
		LocalCommitCount:  local.CommitCount,
		RemoteCommitCount: remote.CommitCount,
	})
}
