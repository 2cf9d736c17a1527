package collab

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGraphStore and stubChannel exist only to confirm the interfaces are
// satisfiable with sane method shapes; no production implementation lives
// in this module.

type stubGraphStore struct {
	edges map[string][]DocumentEdge
}

func (s *stubGraphStore) CreateEdge(ctx context.Context, fromDocID, toDocID string, relation RelationType, strength float32) (DocumentEdge, error) {
	edge := DocumentEdge{
		ID:           fromDocID + "->" + toDocID,
		FromDocID:    fromDocID,
		ToDocID:      toDocID,
		RelationType: relation,
		Strength:     strength,
		CreatedAt:    time.Unix(0, 0),
	}
	s.edges[fromDocID] = append(s.edges[fromDocID], edge)
	return edge, nil
}

func (s *stubGraphStore) EdgesFor(ctx context.Context, docID string) ([]DocumentEdge, error) {
	return s.edges[docID], nil
}

func (s *stubGraphStore) Traverse(ctx context.Context, docID string, depth, limit uint32) ([]string, error) {
	if depth == 0 {
		return nil, nil
	}
	var out []string
	for _, e := range s.edges[docID] {
		if uint32(len(out)) >= limit {
			break
		}
		out = append(out, e.ToDocID)
	}
	return out, nil
}

func TestGraphStore_ContractIsSatisfiable(t *testing.T) {
	var store GraphStore = &stubGraphStore{edges: make(map[string][]DocumentEdge)}

	_, err := store.CreateEdge(context.Background(), "doc-1", "doc-2", References, 0.8)
	require.NoError(t, err)

	edges, err := store.EdgesFor(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Len(t, edges, 1)
	assert.Equal(t, "references", edges[0].RelationType.String())

	neighbors, err := store.Traverse(context.Background(), "doc-1", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-2"}, neighbors)

	noDepth, err := store.Traverse(context.Background(), "doc-1", 0, 10)
	require.NoError(t, err)
	assert.Nil(t, noDepth)
}

type stubChannel struct {
	status ChannelStatus
}

func (s *stubChannel) Connect(ctx context.Context) error {
	s.status = ChannelConnected
	return nil
}

func (s *stubChannel) Disconnect(ctx context.Context) error {
	s.status = ChannelDisconnected
	return nil
}

func (s *stubChannel) Status() ChannelStatus { return s.status }

func (s *stubChannel) ChannelType() ChannelType { return ChannelEmail }

func (s *stubChannel) FetchMessages(ctx context.Context, since time.Time) ([]IncomingMessage, error) {
	return nil, nil
}

func (s *stubChannel) SendMessage(ctx context.Context, msg OutgoingMessage) (string, error) {
	return "ext-id-1", nil
}

func (s *stubChannel) Sync(ctx context.Context) (SyncResult, error) {
	return SyncResult{}, nil
}

func (s *stubChannel) ResolveContact(ctx context.Context, address string) (Contact, error) {
	return Contact{ID: address, Name: address}, nil
}

func TestChannel_ContractIsSatisfiable(t *testing.T) {
	var ch Channel = &stubChannel{}

	require.NoError(t, ch.Connect(context.Background()))
	assert.Equal(t, ChannelConnected, ch.Status())
	assert.Equal(t, "email", ch.ChannelType().String())

	id, err := ch.SendMessage(context.Background(), OutgoingMessage{To: []string{"a@example.com"}, Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ext-id-1", id)

	contact, err := ch.ResolveContact(context.Background(), "b@example.com")
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", contact.ID)
}
