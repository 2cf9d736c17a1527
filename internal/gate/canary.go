package gate

// CanaryDetector watches a stream of typed characters for the appearance
// of a secret phrase. Its appearance indicates the phrase was extracted
// under duress (e.g. read aloud to an attacker, or typed by an attacker
// who learned it), and should trigger lockdown. The detector never stores
// more than 2x the phrase's rune length, so the phrase itself cannot be
// recovered from a core dump of a much longer buffer.
type CanaryDetector struct {
	phrase []rune
	buffer []rune
	maxLen int
}

// NewCanaryDetector creates a detector for phrase. An empty phrase
// disables detection: Feed always returns false.
func NewCanaryDetector(phrase string) *CanaryDetector {
	runes := []rune(phrase)
	maxLen := len(runes) * 2
	if maxLen == 0 {
		maxLen = 1
	}
	return &CanaryDetector{
		phrase: runes,
		maxLen: maxLen,
	}
}

// Feed appends a single rune to the rolling buffer, trims it to maxLen at
// a rune (not byte) boundary, and reports whether the buffer now ends with
// the secret phrase.
func (d *CanaryDetector) Feed(r rune) bool {
	if len(d.phrase) == 0 {
		return false
	}

	d.buffer = append(d.buffer, r)
	if len(d.buffer) > d.maxLen {
		d.buffer = d.buffer[len(d.buffer)-d.maxLen:]
	}

	return hasRuneSuffix(d.buffer, d.phrase)
}

// FeedString feeds every rune of s in order and reports whether any of
// them triggered a match; feeding continues past a match.
func (d *CanaryDetector) FeedString(s string) bool {
	triggered := false
	for _, r := range s {
		if d.Feed(r) {
			triggered = true
		}
	}
	return triggered
}

// Reset clears the rolling buffer without forgetting the configured
// phrase, for re-arming the detector after a false restart.
func (d *CanaryDetector) Reset() {
	d.buffer = nil
}

// Close zeros the phrase and buffer. Safe to call multiple times.
func (d *CanaryDetector) Close() {
	zeroRunes(d.phrase)
	zeroRunes(d.buffer)
	d.phrase = nil
	d.buffer = nil
}

func hasRuneSuffix(buffer, suffix []rune) bool {
	if len(suffix) > len(buffer) {
		return false
	}
	offset := len(buffer) - len(suffix)
	for i, r := range suffix {
		if buffer[offset+i] != r {
			return false
		}
	}
	return true
}

func zeroRunes(runes []rune) {
	for i := range runes {
		runes[i] = 0
	}
}
