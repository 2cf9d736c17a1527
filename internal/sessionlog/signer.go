package sessionlog

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/clenoble/sovereign-sub001/internal/errors"
)

// LogSigner is an optional companion to Log: an HMAC-SHA256 signature over
// each raw envelope line, using a signing key derived independently from
// the AEAD encryption key so a compromise of one does not compromise the
// other. Entries remain verifiable via VerifyChain alone; a LogSigner adds
// a second, independent tamper check for deployments that export the log
// to a write-once destination the AEAD key itself cannot reach.
type LogSigner struct {
	signingKey []byte
}

// NewLogSigner derives a signing key from deviceKey via HKDF-SHA256.
func NewLogSigner(deviceKeyBytes []byte) (*LogSigner, error) {
	signingKey, err := deriveSigningKey(deviceKeyBytes)
	if err != nil {
		return nil, err
	}
	return &LogSigner{signingKey: signingKey}, nil
}

func deriveSigningKey(deviceKeyBytes []byte) ([]byte, error) {
	info := []byte("session-log-signing-v1")
	reader := hkdf.New(sha256.New, deviceKeyBytes, nil, info)

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(reader, signingKey); err != nil {
		return nil, fmt.Errorf("derive session log signing key: %w", err)
	}
	return signingKey, nil
}

// Sign returns the HMAC-SHA256 signature of a raw envelope line.
func (s *LogSigner) Sign(line []byte) []byte {
	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write(line)
	return mac.Sum(nil)
}

// Verify reports an error if signature does not match line.
func (s *LogSigner) Verify(line, signature []byte) error {
	expected := s.Sign(line)
	if !hmac.Equal(expected, signature) {
		return errors.Wrap(errors.ErrDecryptionFailed, "session log signature invalid")
	}
	return nil
}

// Close zeros the derived signing key.
func (s *LogSigner) Close() {
	for i := range s.signingKey {
		s.signingKey[i] = 0
	}
}
