package p2p

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSovereignRequest_SerdeRoundTrip(t *testing.T) {
	req := SovereignRequest{Kind: RequestGetManifest}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	var back SovereignRequest
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, RequestGetManifest, back.Kind)
}

func TestSovereignResponse_SerdeRoundTrip(t *testing.T) {
	resp := SovereignResponse{Kind: ResponseOk}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	var back SovereignResponse
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ResponseOk, back.Kind)
}

func TestSovereignResponse_ErrorResponseCarriesMessage(t *testing.T) {
	resp := SovereignResponse{Kind: ResponseError, Message: "not found"}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), "not found")
}

func TestShardDeliveryRequest_Serde(t *testing.T) {
	req := ShardDeliveryRequest{
		ShardData: "base64shard",
		ShardID:   "shard-1",
		ForUser:   "user-1",
		Epoch:     1,
	}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	var back ShardDeliveryRequest
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "shard-1", back.ShardID)
}

func TestShardRecoveryRequest_Serde(t *testing.T) {
	req := ShardRecoveryRequest{
		RequestID: "recovery-1",
		ForUser:   "user-1",
		Epoch:     2,
	}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	var back ShardRecoveryRequest
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, uint32(2), back.Epoch)
}
