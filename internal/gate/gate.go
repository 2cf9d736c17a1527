// Package gate implements the action-authorization gate (C5): classifying
// proposed actions into gravity levels, detecting control/data-plane
// violations, and deciding when user confirmation is required.
package gate

import "fmt"

// ActionLevel ranks the gravity of an action. Levels are ordered:
// Observe < Annotate < Modify < Transmit < Destruct.
type ActionLevel int

const (
	Observe ActionLevel = iota
	Annotate
	Modify
	Transmit
	Destruct
)

func (l ActionLevel) String() string {
	switch l {
	case Observe:
		return "Observe"
	case Annotate:
		return "Annotate"
	case Modify:
		return "Modify"
	case Transmit:
		return "Transmit"
	case Destruct:
		return "Destruct"
	default:
		return "Unknown"
	}
}

// Plane distinguishes whether an intent originated from direct user input
// (Control) or was parsed out of document content the AI is reading
// (Data). Data-plane content must never directly trigger a Modify-or-above
// action; see CheckPlaneViolation.
type Plane int

const (
	Control Plane = iota
	Data
)

// actionLevels maps every action name referenced anywhere in the system to
// its gravity level. An action not present here is treated as Destruct by
// ActionLevelFor (fail closed on unrecognized actions).
var actionLevels = map[string]ActionLevel{
	"search":         Observe,
	"get_viewport":   Observe,
	"read_document":  Observe,
	"annotate":       Annotate,
	"highlight_card": Annotate,
	"create_thread":  Modify,
	"rename_thread":  Modify,
	"move_document":  Modify,
	"create_document": Modify,
	"export":          Transmit,
	"send_message":    Transmit,
	"delete_thread":   Destruct,
	"delete_document": Destruct,
}

// ActionLevelFor returns the gravity level for an action name. Unknown
// actions map to Destruct, so a new or misspelled action name is never
// silently treated as low-gravity.
func ActionLevelFor(action string) ActionLevel {
	if level, ok := actionLevels[action]; ok {
		return level
	}
	return Destruct
}

// UserIntent is a parsed intent from the AI router: an action name, an
// optional target, and which plane it originated from.
type UserIntent struct {
	Action     string
	Target     string
	HasTarget  bool
	Confidence float32
	Entities   map[string]string
	Origin     Plane
}

// ProposedAction wraps a classified intent with its computed level, ready
// to present to the user for confirmation (if RequiresConfirmation).
type ProposedAction struct {
	Action      string
	Level       ActionLevel
	Plane       Plane
	DocID       string
	ThreadID    string
	Description string
}

// CheckPlaneViolation reports whether a data-plane intent is attempting a
// control-plane-only action: content the AI read out of a document cannot,
// by itself, authorize a Modify-or-above action. Returns a human-readable
// reason, or empty string if there is no violation.
func CheckPlaneViolation(intent UserIntent) string {
	if intent.Origin != Data {
		return ""
	}
	level := ActionLevelFor(intent.Action)
	if level >= Modify {
		return fmt.Sprintf(
			"data-plane content attempted control-plane action %q (level %s)",
			intent.Action, level,
		)
	}
	return ""
}

// BuildProposal classifies intent and builds a ProposedAction with a
// human-readable description.
func BuildProposal(intent UserIntent) ProposedAction {
	level := ActionLevelFor(intent.Action)
	target := intent.Target
	if !intent.HasTarget {
		target = "?"
	}

	var description string
	switch intent.Action {
	case "create_thread":
		description = fmt.Sprintf("Create thread %q", target)
	case "rename_thread":
		description = fmt.Sprintf("Rename thread %q", target)
	case "delete_thread":
		description = fmt.Sprintf("Delete thread %q", target)
	case "move_document":
		description = fmt.Sprintf("Move document: %s", target)
	case "create_document":
		description = fmt.Sprintf("Create document %q", target)
	case "delete_document":
		description = fmt.Sprintf("Delete document %q", target)
	default:
		description = fmt.Sprintf("%s → %s", intent.Action, target)
	}

	threadID := ""
	if intent.HasTarget {
		threadID = intent.Target
	}

	return ProposedAction{
		Action:      intent.Action,
		Level:       level,
		Plane:       intent.Origin,
		ThreadID:    threadID,
		Description: description,
	}
}

// RequiresConfirmation reports whether level needs explicit user
// confirmation before execution.
func RequiresConfirmation(level ActionLevel) bool {
	return level >= Modify
}
