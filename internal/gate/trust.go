package gate

import "sync"

// trustEntry tracks one action name's consecutive-approval streak.
type trustEntry struct {
	consecutiveApprovals uint32
}

// TrustTracker accumulates per-action approval history so a frequently
// approved Modify-level action can be auto-approved without prompting the
// user every time. Transmit and Destruct never auto-approve regardless of
// history: the blast radius of getting those wrong is too high to trade
// for convenience.
type TrustTracker struct {
	mu        sync.Mutex
	entries   map[string]*trustEntry
	threshold uint32
}

// NewTrustTracker creates a tracker with the given consecutive-approval
// threshold. A threshold of 0 (or a negative one) disables auto-approval
// entirely: ShouldAutoApprove then always returns false.
func NewTrustTracker(threshold int) *TrustTracker {
	t := uint32(threshold)
	if threshold < 0 {
		t = 0
	}
	return &TrustTracker{
		entries:   make(map[string]*trustEntry),
		threshold: t,
	}
}

// ShouldAutoApprove reports whether action can skip user confirmation
// based on trust history. Only Modify-level actions are eligible.
func (t *TrustTracker) ShouldAutoApprove(action string, level ActionLevel) bool {
	if level != Modify {
		return false
	}
	if t.threshold == 0 {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[action]
	if !ok {
		return false
	}
	return entry.consecutiveApprovals >= t.threshold
}

// RecordApproval increments action's consecutive-approval streak.
func (t *TrustTracker) RecordApproval(action string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[action]
	if !ok {
		entry = &trustEntry{}
		t.entries[action] = entry
	}
	entry.consecutiveApprovals++
}

// RecordRejection resets action's consecutive-approval streak to zero.
func (t *TrustTracker) RecordRejection(action string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[action]
	if !ok {
		entry = &trustEntry{}
		t.entries[action] = entry
	}
	entry.consecutiveApprovals = 0
}

// ApprovalCount returns action's current consecutive-approval count, for
// display in a trust/confirmation UI.
func (t *TrustTracker) ApprovalCount(action string) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[action]
	if !ok {
		return 0
	}
	return entry.consecutiveApprovals
}
