// Package sessionlog implements the tamper-evident, hash-chained session
// log (C4): every agent action and gate decision is appended as an
// AEAD-sealed envelope whose prev field binds it to the previous entry's
// hash, so deleting, reordering, or editing any entry breaks verification
// from that point forward.
package sessionlog

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	cryptoDomain "github.com/clenoble/sovereign-sub001/internal/crypto/domain"
	cryptoService "github.com/clenoble/sovereign-sub001/internal/crypto/service"
	"github.com/clenoble/sovereign-sub001/internal/errors"
)

const fileName = "session.log"

// GenesisHash seeds the chain for a brand-new log: the prev field of the
// first entry must equal this value. It is not the hash of anything; it is
// a fixed anchor, sized like a SHA-256 hex digest.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// envelope is the on-disk JSON shape of one encrypted log line.
type envelope struct {
	V     int    `json:"v"`
	Prev  string `json:"prev"`
	Nonce string `json:"nonce"`
	Ct    string `json:"ct"`
}

const envelopeVersion = 1

// Log is an append-only, hash-chained, AEAD-sealed session log. Each
// AppendEntry call encrypts and writes exactly one line, fsyncing before
// returning so a crash never loses an acknowledged entry.
type Log struct {
	mu   sync.Mutex
	path string
	file *os.File

	aead     cryptoService.AEAD
	lastHash string
}

// Open opens (creating if necessary) the session log under dataDir,
// replaying existing entries to recover the running chain hash. Returns
// ErrChainBroken if the existing log fails verification.
func Open(dataDir string, deviceKey *cryptoDomain.DeviceKey, aeadManager cryptoService.AEADManager) (*Log, error) {
	path := filepath.Join(dataDir, fileName)

	aead, err := aeadManager.CreateCipher(deviceKey.Key, cryptoDomain.DefaultAlgorithm)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create session log directory: %w", err)
	}

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read session log: %w", err)
	}

	lastHash := GenesisHash
	if len(existing) > 0 {
		lines := splitLines(existing)
		lastHash, err = verifyLines(lines, aead)
		if err != nil {
			return nil, err
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open session log: %w", err)
	}

	return &Log{
		path:     path,
		file:     file,
		aead:     aead,
		lastHash: lastHash,
	}, nil
}

// AppendEntry encrypts payload (typically a JSON-encoded gate decision or
// action record) and appends it as the next link in the chain. The new
// entry's prev is bound into the AEAD as additional data, so an attacker
// who swaps an entry's position without re-encrypting fails authentication
// even before the hash comparison runs.
func (l *Log) AppendEntry(payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ciphertext, nonce, err := l.aead.Encrypt(payload, []byte(l.lastHash))
	if err != nil {
		return fmt.Errorf("seal session log entry: %w", err)
	}

	env := envelope{
		V:     envelopeVersion,
		Prev:  l.lastHash,
		Nonce: encodeB64(nonce),
		Ct:    encodeB64(ciphertext),
	}
	line, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal session log entry: %w", err)
	}

	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write session log entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync session log entry: %w", err)
	}

	l.lastHash = sha256Hex(line)
	return nil
}

// VerifyChain re-reads the log from disk and verifies every entry, without
// mutating the live append cursor. Callers use this for periodic integrity
// checks independent of Open's one-time replay.
func (l *Log) VerifyChain() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("read session log: %w", err)
	}
	_, err = verifyLines(splitLines(data), l.aead)
	return err
}

// Close releases the underlying file handle.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// verifyLines walks lines in order, maintaining a running chain hash. An
// encrypted entry (detected heuristically by isEncryptedLine) must parse as
// a well-formed envelope, its prev must equal the running hash, and it must
// decrypt under aead with prev as additional data; any of these failing is
// a hard error. A line NOT heuristically detected as an envelope is treated
// as a legacy plaintext anchor: it cannot be verified, so it is accepted
// unconditionally and the running hash is reset to its own digest, exactly
// like an encrypted entry would. This lets a log that began life as plain
// JSON lines (e.g. migrated from an older version) continue to chain from
// the point encryption was turned on, without ever failing verification on
// the plaintext prefix.
func verifyLines(lines []string, aead cryptoService.AEAD) (string, error) {
	running := GenesisHash

	for i, line := range lines {
		if line == "" {
			continue
		}

		if !isEncryptedLine(line) {
			running = sha256Hex([]byte(line))
			continue
		}

		var env envelope
		if err := json.Unmarshal([]byte(line), &env); err != nil {
			return "", fmt.Errorf("parse session log entry %d: %w", i, err)
		}
		if env.Prev != running {
			return "", fmt.Errorf("%w: entry %d", errors.ErrChainBroken, i)
		}

		nonce, err := decodeB64(env.Nonce)
		if err != nil {
			return "", fmt.Errorf("decode nonce at entry %d: %w", i, err)
		}
		ciphertext, err := decodeB64(env.Ct)
		if err != nil {
			return "", fmt.Errorf("decode ciphertext at entry %d: %w", i, err)
		}

		if _, err := aead.Decrypt(ciphertext, nonce, []byte(env.Prev)); err != nil {
			return "", fmt.Errorf("%w: entry %d", cryptoDomain.ErrDecryptionFailed, i)
		}

		running = sha256Hex([]byte(line))
	}

	return running, nil
}

// isEncryptedLine heuristically detects an envelope line without a full
// JSON parse, so a legacy plaintext line that merely happens to be valid
// JSON (but isn't our envelope shape) is still recognized as plaintext.
func isEncryptedLine(line string) bool {
	return strings.Contains(line, `"v":`) &&
		strings.Contains(line, `"prev":`) &&
		strings.Contains(line, `"nonce":`) &&
		strings.Contains(line, `"ct":`)
}

func splitLines(data []byte) []string {
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func encodeB64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func decodeB64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
