package p2p

import (
	"fmt"
	"sync"
	"time"
)

// EditThreshold and TimeThresholdSecs are the auto-commit policy
// thresholds ported unchanged from the original implementation: commit
// after this many edits, or after this many seconds since the last
// commit, whichever comes first.
const (
	EditThreshold     = 50
	TimeThresholdSecs = 300
)

// Commit is one recorded snapshot of a document's state.
type Commit struct {
	ID        string
	DocID     string
	Message   string
	Timestamp string // ISO-8601
}

// CommitStore abstracts the graph-database commit log so this package has
// no compile-time dependency on any particular storage engine (the
// original implementation couples AutoCommitEngine directly to
// SurrealGraphDB, which is out of scope here; a minimal in-memory
// implementation is provided for local use and tests).
type CommitStore interface {
	// AppendCommit records a new commit for docID with the given message,
	// stamped at nowUnix (caller-supplied so callers control time), and
	// returns the created Commit.
	AppendCommit(docID, message string, nowUnix int64) (Commit, error)
	// Head returns the most recent commit for docID, or ok=false if none.
	Head(docID string) (Commit, bool)
	// CountSince returns how many commits docID has recorded since
	// sinceUnix (inclusive).
	CountSince(docID string, sinceUnix int64) (int, error)
}

// AutoCommitEngine tracks per-document edit counts and commits
// automatically once a document crosses the edit-count or elapsed-time
// threshold, or is force-flushed on close. Ported from the original
// implementation's AutoCommitEngine, with SurrealGraphDB replaced by the
// CommitStore interface.
type AutoCommitEngine struct {
	mu sync.Mutex

	store          CommitStore
	editCounts     map[string]uint32
	lastCommitUnix map[string]int64
}

// NewAutoCommitEngine constructs an engine backed by store.
func NewAutoCommitEngine(store CommitStore) *AutoCommitEngine {
	return &AutoCommitEngine{
		store:          store,
		editCounts:     make(map[string]uint32),
		lastCommitUnix: make(map[string]int64),
	}
}

// RecordEdit records one edit for docID. Called on each save.
func (e *AutoCommitEngine) RecordEdit(docID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.editCounts[docID]++
}

// CheckAndCommit inspects every tracked document and commits any that
// exceed the edit-count or elapsed-time threshold as of nowUnix.
func (e *AutoCommitEngine) CheckAndCommit(nowUnix int64) error {
	e.mu.Lock()
	docIDs := make([]string, 0, len(e.editCounts))
	for docID := range e.editCounts {
		docIDs = append(docIDs, docID)
	}
	e.mu.Unlock()

	for _, docID := range docIDs {
		e.mu.Lock()
		count := e.editCounts[docID]
		last, hasLast := e.lastCommitUnix[docID]
		e.mu.Unlock()

		if count == 0 {
			continue
		}

		elapsed := int64(1<<62) // effectively "forever" if never committed
		if hasLast {
			elapsed = nowUnix - last
		}

		if count >= EditThreshold || elapsed >= TimeThresholdSecs {
			msg := fmt.Sprintf("Auto-commit: %d edits", count)
			if _, err := e.store.AppendCommit(docID, msg, nowUnix); err != nil {
				return fmt.Errorf("auto-commit failed for %s: %w", docID, err)
			}
			e.mu.Lock()
			e.editCounts[docID] = 0
			e.lastCommitUnix[docID] = nowUnix
			e.mu.Unlock()
		}
	}
	return nil
}

// CommitOnClose force-commits docID's pending edits, e.g. on document
// close or context switch. A no-op if there are no pending edits.
func (e *AutoCommitEngine) CommitOnClose(docID string, nowUnix int64) error {
	e.mu.Lock()
	count := e.editCounts[docID]
	e.mu.Unlock()
	if count == 0 {
		return nil
	}

	msg := fmt.Sprintf("Auto-commit on close: %d edits", count)
	if _, err := e.store.AppendCommit(docID, msg, nowUnix); err != nil {
		return fmt.Errorf("commit on close failed for %s: %w", docID, err)
	}

	e.mu.Lock()
	e.editCounts[docID] = 0
	e.lastCommitUnix[docID] = nowUnix
	e.mu.Unlock()
	return nil
}

// memoryCommitStore is a minimal in-process CommitStore for local use and
// tests, standing in for the original implementation's SurrealGraphDB.
type memoryCommitStore struct {
	mu      sync.Mutex
	commits map[string][]Commit
	nextID  int
}

// NewMemoryCommitStore constructs an in-memory CommitStore.
func NewMemoryCommitStore() CommitStore {
	return &memoryCommitStore{commits: make(map[string][]Commit)}
}

func (s *memoryCommitStore) AppendCommit(docID, message string, nowUnix int64) (Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c := Commit{
		ID:        fmt.Sprintf("commit:%d", s.nextID),
		DocID:     docID,
		Message:   message,
		Timestamp: time.Unix(nowUnix, 0).UTC().Format(time.RFC3339),
	}
	s.commits[docID] = append(s.commits[docID], c)
	return c, nil
}

func (s *memoryCommitStore) Head(docID string) (Commit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.commits[docID]
	if len(list) == 0 {
		return Commit{}, false
	}
	return list[len(list)-1], true
}

func (s *memoryCommitStore) CountSince(docID string, sinceUnix int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, c := range s.commits[docID] {
		ts, err := time.Parse(time.RFC3339, c.Timestamp)
		if err != nil {
			return 0, fmt.Errorf("parse commit timestamp %q: %w", c.Timestamp, err)
		}
		if ts.Unix() >= sinceUnix {
			count++
		}
	}
	return count, nil
}
