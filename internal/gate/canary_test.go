package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanaryDetector_TriggersExactlyOnLastCharacter(t *testing.T) {
	detector := NewCanaryDetector("lockdown now")

	text := "talking about lockdown now"
	triggered := false
	for i, r := range text {
		fired := detector.Feed(r)
		if i == len(text)-len(string(r)) {
			assert.True(t, fired, "expected trigger on final character")
		}
		if fired {
			triggered = true
		}
	}
	assert.True(t, triggered)
}

func TestCanaryDetector_DoesNotTriggerOnNearMiss(t *testing.T) {
	detector := NewCanaryDetector("lockdown now")
	assert.False(t, detector.FeedString("lockdown later"))
}

func TestCanaryDetector_EmptyPhraseNeverTriggers(t *testing.T) {
	detector := NewCanaryDetector("")
	assert.False(t, detector.FeedString("anything at all"))
}

func TestCanaryDetector_BufferNeverExceedsTwiceThePhraseLength(t *testing.T) {
	phrase := "abc"
	detector := NewCanaryDetector(phrase)
	detector.FeedString("xxxxxxxxxxxxxxxxxxxx")
	assert.LessOrEqual(t, len(detector.buffer), len(phrase)*2)
}

func TestCanaryDetector_UTF8SafeBoundaryTrim(t *testing.T) {
	detector := NewCanaryDetector("café")
	assert.True(t, detector.FeedString("I went to the café"))
}

func TestCanaryDetector_ResetClearsBufferNotPhrase(t *testing.T) {
	detector := NewCanaryDetector("lockdown now")
	detector.FeedString("lockdown now")
	detector.Reset()
	require.Empty(t, detector.buffer)
	assert.False(t, detector.FeedString("lockdown"))
	assert.True(t, detector.FeedString(" now"))
}

func TestCanaryDetector_CloseZeroesState(t *testing.T) {
	detector := NewCanaryDetector("lockdown now")
	detector.FeedString("lockdown now")
	detector.Close()
	assert.Nil(t, detector.phrase)
	assert.Nil(t, detector.buffer)
}
