package p2p

// ShardDeliveryRequest asks a guardian to store a shard of the user's
// MasterKey. Ported from the original implementation's
// ShardDeliveryRequest.
type ShardDeliveryRequest struct {
	ShardData string `json:"shard_data"` // base64
	ShardID   string `json:"shard_id"`
	ForUser   string `json:"for_user"`
	Epoch     uint32 `json:"epoch"`
}

// ShardRecoveryRequest asks a guardian to return a previously delivered
// shard during recovery. Ported from the original implementation's
// ShardRecoveryRequest.
type ShardRecoveryRequest struct {
	RequestID string `json:"request_id"`
	ForUser   string `json:"for_user"`
	Epoch     uint32 `json:"epoch"`
}

// RequestKind enumerates the variants of SovereignRequest. Go has no sum
// types, so the Rust enum SovereignRequest is reshaped into a Kind-tagged
// struct carrying every variant's payload as optional fields, the same
// convention internal/events uses for OrchestratorEvent.
type RequestKind string

const (
	RequestGetManifest  RequestKind = "get_manifest"
	RequestPushManifest RequestKind = "push_manifest"
	RequestGetCommits   RequestKind = "get_commits"
	RequestPushCommits  RequestKind = "push_commits"
	RequestDeliverShard RequestKind = "deliver_shard"
	RequestRequestShard RequestKind = "request_shard"
	RequestPairRequest  RequestKind = "pair_request"
	RequestPairResponse RequestKind = "pair_response"
)

// SovereignRequest is the top-level request envelope for the sync
// protocol, JSON-encoded as a length-delimited frame over the transport
// stream (no protobuf dependency appears anywhere in the example pack,
// so JSON framing matches the teacher's gin+JSON HTTP convention).
type SovereignRequest struct {
	Kind RequestKind `json:"kind"`

	Manifest  *EncryptedManifest `json:"manifest,omitempty"`
	CommitIDs []string           `json:"commit_ids,omitempty"`
	Commits   []EncryptedCommit  `json:"commits,omitempty"`

	Shard        *ShardDeliveryRequest `json:"shard,omitempty"`
	ShardRequest *ShardRecoveryRequest `json:"shard_request,omitempty"`

	DeviceName string `json:"device_name,omitempty"`
	Challenge  []byte `json:"challenge,omitempty"`
	Response   []byte `json:"response,omitempty"`
}

// ResponseKind enumerates the variants of SovereignResponse.
type ResponseKind string

const (
	ResponseManifest     ResponseKind = "manifest"
	ResponseOk           ResponseKind = "ok"
	ResponseCommits      ResponseKind = "commits"
	ResponseShardAck     ResponseKind = "shard_ack"
	ResponseShardData    ResponseKind = "shard_data"
	ResponseError        ResponseKind = "error"
	ResponsePairAccepted ResponseKind = "pair_accepted"
	ResponsePairRejected ResponseKind = "pair_rejected"
)

// SovereignResponse is the top-level response envelope for the sync
// protocol.
type SovereignResponse struct {
	Kind ResponseKind `json:"kind"`

	Manifest *EncryptedManifest `json:"manifest,omitempty"`
	Commits  []EncryptedCommit  `json:"commits,omitempty"`

	Accepted  bool   `json:"accepted,omitempty"`
	ShardData string `json:"shard_data,omitempty"` // empty means "not held"

	Message string `json:"message,omitempty"`

	DeviceName string `json:"device_name,omitempty"`
	Response   []byte `json:"response,omitempty"`
	Reason     string `json:"reason,omitempty"`
}
