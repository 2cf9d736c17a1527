package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKek(t *testing.T) {
	k1, err := GenerateKek()
	require.NoError(t, err)
	assert.Len(t, k1.Key, kekSize)

	k2, err := GenerateKek()
	require.NoError(t, err)
	assert.NotEqual(t, k1.Key, k2.Key)
}

func TestKekClose(t *testing.T) {
	k, err := GenerateKek()
	require.NoError(t, err)
	k.Close()
	for _, b := range k.Key {
		assert.Equal(t, byte(0), b)
	}
	var nilKek *Kek
	assert.NotPanics(t, func() { nilKek.Close() })
}
