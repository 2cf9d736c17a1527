// Package collab defines the contract boundary between the security core
// and the document-graph/communications collaborators. It defines
// interfaces only: GraphStore (the document relationship graph, with
// bounded-depth traversal) and Channel (a communications backend such as
// email or SMS). Neither has an implementation in this module; both are
// out of scope for the security core and are consumed only by external
// collaborators.
package collab

import (
	"context"
	"time"
)

// RelationType classifies the edge between two related documents.
type RelationType int

const (
	References RelationType = iota
	DerivedFrom
	Continues
	Contradicts
	Supports
)

func (r RelationType) String() string {
	switch r {
	case References:
		return "references"
	case DerivedFrom:
		return "derived_from"
	case Continues:
		return "continues"
	case Contradicts:
		return "contradicts"
	case Supports:
		return "supports"
	default:
		return "unknown"
	}
}

// DocumentEdge is a single relationship record between two documents.
type DocumentEdge struct {
	ID           string
	FromDocID    string
	ToDocID      string
	RelationType RelationType
	Strength     float32
	CreatedAt    time.Time
}

// GraphStore is the document-relationship graph abstraction. Cyclic
// document structures (a document can reference, derive from, and
// contradict others simultaneously) live behind this interface so the
// security core never needs to reason about graph storage or traversal
// directly; it is implemented and owned by an external collaborator.
type GraphStore interface {
	// CreateEdge records a relationship between two documents.
	CreateEdge(ctx context.Context, fromDocID, toDocID string, relation RelationType, strength float32) (DocumentEdge, error)

	// EdgesFor lists the relationship edges touching a document.
	EdgesFor(ctx context.Context, docID string) ([]DocumentEdge, error)

	// Traverse walks the graph from docID outward, following edges up to
	// depth hops, returning at most limit connected document IDs. A depth
	// of 0 returns no neighbors; callers are expected to bound depth to
	// avoid runaway traversal in densely connected graphs.
	Traverse(ctx context.Context, docID string, depth, limit uint32) ([]string, error)
}

// ChannelType identifies which communications backend a Channel speaks.
type ChannelType int

const (
	ChannelEmail ChannelType = iota
	ChannelSMS
	ChannelSignal
)

func (c ChannelType) String() string {
	switch c {
	case ChannelEmail:
		return "email"
	case ChannelSMS:
		return "sms"
	case ChannelSignal:
		return "signal"
	default:
		return "unknown"
	}
}

// ChannelStatus is a Channel's current connection state.
type ChannelStatus int

const (
	ChannelDisconnected ChannelStatus = iota
	ChannelConnecting
	ChannelConnected
	ChannelErrored
)

// IncomingMessage is a message fetched from a Channel.
type IncomingMessage struct {
	ID             string
	ConversationID string
	From           string
	Subject        string
	Body           string
	SentAt         time.Time
}

// OutgoingMessage is a message to be sent through a Channel.
type OutgoingMessage struct {
	To             []string
	Subject        string
	Body           string
	BodyHTML       string
	InReplyTo      string
	ConversationID string
}

// SyncResult summarizes the effect of one Channel.Sync call.
type SyncResult struct {
	NewMessages          uint32
	UpdatedConversations uint32
	NewContacts          uint32
}

// Contact is the collaborator-owned address book entry a Channel
// resolves addresses into.
type Contact struct {
	ID   string
	Name string
}

// Channel abstracts a single communications backend (email, SMS, a
// messaging app). Out of scope for the security core: no implementation
// lives in this module, it is consumed only by an external collaborator
// that polls registered channels and feeds resulting messages back
// through the action-authorization gate.
type Channel interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Status() ChannelStatus
	ChannelType() ChannelType

	// FetchMessages returns messages received since the given time. A
	// zero since fetches the channel's full available backlog.
	FetchMessages(ctx context.Context, since time.Time) ([]IncomingMessage, error)

	// SendMessage sends msg and returns the backend's external message ID.
	SendMessage(ctx context.Context, msg OutgoingMessage) (string, error)

	// Sync performs one fetch-and-reconcile cycle.
	Sync(ctx context.Context) (SyncResult, error)

	// ResolveContact resolves a raw address into a Contact, creating a
	// stub contact record if none exists yet.
	ResolveContact(ctx context.Context, address string) (Contact, error)
}
