package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDocumentKey(t *testing.T) {
	d1, err := GenerateDocumentKey()
	require.NoError(t, err)
	assert.Len(t, d1.Key, documentKeySize)

	d2, err := GenerateDocumentKey()
	require.NoError(t, err)
	assert.NotEqual(t, d1.Key, d2.Key)
}

func TestDocumentKeyClose(t *testing.T) {
	d, err := GenerateDocumentKey()
	require.NoError(t, err)
	d.Close()
	for _, b := range d.Key {
		assert.Equal(t, byte(0), b)
	}
}

func TestWrappedDocumentKeyEpochOrdering(t *testing.T) {
	w1 := WrappedDocumentKey{Epoch: 1}
	w2 := WrappedDocumentKey{Epoch: 2}
	assert.Less(t, w1.Epoch, w2.Epoch)
}
