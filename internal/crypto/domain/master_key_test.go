package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMasterKey(t *testing.T) {
	m1, err := GenerateMasterKey()
	require.NoError(t, err)
	assert.Len(t, m1.Key, masterKeySize)

	m2, err := GenerateMasterKey()
	require.NoError(t, err)
	assert.NotEqual(t, m1.Key, m2.Key)
}

func TestMasterKeyFromBytes(t *testing.T) {
	t.Run("valid size", func(t *testing.T) {
		b := make([]byte, 32)
		m, err := MasterKeyFromBytes(b)
		require.NoError(t, err)
		assert.Len(t, m.Key, 32)
	})

	t.Run("invalid size", func(t *testing.T) {
		_, err := MasterKeyFromBytes(make([]byte, 16))
		assert.ErrorIs(t, err, ErrInvalidKeySize)
	})
}

func TestMasterKeyClose(t *testing.T) {
	m, err := GenerateMasterKey()
	require.NoError(t, err)
	m.Close()
	for _, b := range m.Key {
		assert.Equal(t, byte(0), b)
	}
	// idempotent, and nil-safe
	m.Close()
	var nilKey *MasterKey
	assert.NotPanics(t, func() { nilKey.Close() })
}

func TestMasterKeyHolder(t *testing.T) {
	m, err := GenerateMasterKey()
	require.NoError(t, err)
	original := append([]byte(nil), m.Key...)

	holder := NewMasterKeyHolder(m)

	var seen []byte
	err = holder.Use(func(mk *MasterKey) error {
		seen = mk.Key
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, original, seen)

	holder.Close()
	err = holder.Use(func(mk *MasterKey) error { return nil })
	assert.ErrorIs(t, err, ErrSessionLocked)

	// closing twice is safe
	holder.Close()
}
