package recovery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	cryptoDomain "github.com/clenoble/sovereign-sub001/internal/crypto/domain"
	cryptoService "github.com/clenoble/sovereign-sub001/internal/crypto/service"
)

const registryFileName = "guardians.json"

// Shard is a Guardian-held Shamir share of the user's MasterKey, ported
// from the original implementation's Shard struct.
type Shard struct {
	ShardID                   string `json:"shard_id"`
	EncryptedData             string `json:"encrypted_data"` // base64-encoded share bytes
	ForUser                   string `json:"for_user"`
	GuardianPubkeyFingerprint string `json:"guardian_pubkey_fingerprint"`
	CreatedAt                 string `json:"created_at"` // ISO-8601
	Epoch                     uint32 `json:"epoch"`
}

// ContactKind distinguishes how a guardian is reached.
type ContactKind string

const (
	ContactPeerID ContactKind = "peer_id"
	ContactManual ContactKind = "manual"
)

// GuardianContact is how to reach a guardian: either a direct P2P peer, or
// a manual (out-of-band) shard exchange described in free text.
type GuardianContact struct {
	Kind              ContactKind `json:"kind"`
	PeerID            string      `json:"peer_id,omitempty"`
	ManualDescription string      `json:"manual_description,omitempty"`
}

// GuardianStatus is a guardian's current standing.
type GuardianStatus string

const (
	GuardianActive       GuardianStatus = "active"
	GuardianPending      GuardianStatus = "pending"
	GuardianRevoked      GuardianStatus = "revoked"
	GuardianUnresponsive GuardianStatus = "unresponsive"
)

// GuardianInfo describes one enrolled guardian.
type GuardianInfo struct {
	GuardianID string          `json:"guardian_id"`
	Name       string          `json:"name"`
	Contact    GuardianContact `json:"contact"`
	Status     GuardianStatus  `json:"status"`
	EnrolledAt string          `json:"enrolled_at"` // ISO-8601
	PeerID     string          `json:"peer_id,omitempty"`
}

// onDiskRegistry is the plain JSON shape serialized inside the outer AEAD
// envelope, mirroring the original implementation's GuardianRegistry.
type onDiskRegistry struct {
	Guardians []GuardianInfo `json:"guardians"`
	Shards    []Shard        `json:"shards"`
}

// envelope is the outer on-disk form: a single AEAD-sealed blob, matching
// internal/keydb's at-rest convention.
type envelope struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// GuardianRegistry tracks enrolled guardians and the shards they hold. It
// is persisted at rest as guardians.json, AEAD-sealed under the DeviceKey
// exactly as internal/keydb seals keys.db.
type GuardianRegistry struct {
	mu   sync.RWMutex
	path string

	deviceKey   *cryptoDomain.DeviceKey
	aeadManager cryptoService.AEADManager

	guardians []GuardianInfo
	shards    []Shard
}

// OpenGuardianRegistry loads the registry from dataDir/guardians.json if
// present, or starts a fresh empty registry otherwise.
func OpenGuardianRegistry(
	dataDir string,
	deviceKey *cryptoDomain.DeviceKey,
	aeadManager cryptoService.AEADManager,
) (*GuardianRegistry, error) {
	reg := &GuardianRegistry{
		path:        filepath.Join(dataDir, registryFileName),
		deviceKey:   deviceKey,
		aeadManager: aeadManager,
	}

	data, err := os.ReadFile(reg.path)
	if err != nil {
		if os.IsNotExist(err) {
			return reg, nil
		}
		return nil, fmt.Errorf("read guardian registry: %w", err)
	}

	if err := reg.decode(data); err != nil {
		return nil, err
	}
	return reg, nil
}

func (reg *GuardianRegistry) decode(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("parse guardian registry envelope: %w", err)
	}

	aead, err := reg.aeadManager.CreateCipher(reg.deviceKey.Key, cryptoDomain.DefaultAlgorithm)
	if err != nil {
		return err
	}
	plaintext, err := aead.Decrypt(env.Ciphertext, env.Nonce, nil)
	if err != nil {
		return cryptoDomain.ErrDecryptionFailed
	}

	var onDisk onDiskRegistry
	if err := json.Unmarshal(plaintext, &onDisk); err != nil {
		return fmt.Errorf("parse guardian registry body: %w", err)
	}
	reg.guardians = onDisk.Guardians
	reg.shards = onDisk.Shards
	return nil
}

// AddGuardian enrolls a new guardian.
func (reg *GuardianRegistry) AddGuardian(g GuardianInfo) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.guardians = append(reg.guardians, g)
}

// RemoveGuardian deletes the guardian with the given ID, returning it. The
// second return value is false if no such guardian was enrolled.
func (reg *GuardianRegistry) RemoveGuardian(guardianID string) (GuardianInfo, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for i, g := range reg.guardians {
		if g.GuardianID == guardianID {
			reg.guardians = append(reg.guardians[:i], reg.guardians[i+1:]...)
			return g, true
		}
	}
	return GuardianInfo{}, false
}

// GetGuardian looks up a guardian by ID.
func (reg *GuardianRegistry) GetGuardian(guardianID string) (GuardianInfo, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	for _, g := range reg.guardians {
		if g.GuardianID == guardianID {
			return g, true
		}
	}
	return GuardianInfo{}, false
}

// ActiveGuardians returns the subset of enrolled guardians currently in
// Active status, the only ones eligible to participate in recovery.
func (reg *GuardianRegistry) ActiveGuardians() []GuardianInfo {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	active := make([]GuardianInfo, 0, len(reg.guardians))
	for _, g := range reg.guardians {
		if g.Status == GuardianActive {
			active = append(active, g)
		}
	}
	return active
}

// AddShard records a shard handed out to a guardian.
func (reg *GuardianRegistry) AddShard(s Shard) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.shards = append(reg.shards, s)
}

// ShardsForEpoch returns the shards issued for the given key rotation
// epoch, used to determine whether a recovery attempt has enough live
// shards at the epoch the requester is recovering to.
func (reg *GuardianRegistry) ShardsForEpoch(epoch uint32) []Shard {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	shards := make([]Shard, 0)
	for _, s := range reg.shards {
		if s.Epoch == epoch {
			shards = append(shards, s)
		}
	}
	return shards
}

// Save persists the registry atomically, AEAD-sealed under the DeviceKey,
// via a temp file + rename, matching internal/keydb.Save's crash-safety.
func (reg *GuardianRegistry) Save() error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	onDisk := onDiskRegistry{Guardians: reg.guardians, Shards: reg.shards}
	plaintext, err := json.Marshal(onDisk)
	if err != nil {
		return fmt.Errorf("marshal guardian registry: %w", err)
	}

	aead, err := reg.aeadManager.CreateCipher(reg.deviceKey.Key, cryptoDomain.DefaultAlgorithm)
	if err != nil {
		return err
	}
	ciphertext, nonce, err := aead.Encrypt(plaintext, nil)
	if err != nil {
		return fmt.Errorf("seal guardian registry: %w", err)
	}

	data, err := json.Marshal(envelope{Nonce: nonce, Ciphertext: ciphertext})
	if err != nil {
		return fmt.Errorf("marshal guardian registry envelope: %w", err)
	}

	return atomicWriteFile(reg.path, data)
}

func atomicWriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create guardian registry directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".guardians.json.tmp-*")
	if err != nil {
		return fmt.Errorf("create temp guardian registry file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup; rename below is the success path

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp guardian registry file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp guardian registry file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp guardian registry file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename guardian registry file: %w", err)
	}
	return nil
}
