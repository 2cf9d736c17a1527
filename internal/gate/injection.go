package gate

import (
	"sort"
	"strings"
)

// InjectionMatch is a detected prompt-injection pattern within scanned text.
type InjectionMatch struct {
	PatternName string
	Start       int
	End         int
	Severity    uint8
}

type rolePattern struct {
	phrase   string
	severity uint8
}

// roleOverridePatterns are substrings that attempt to override the AI's
// instructions when they appear in document content the AI reads.
var roleOverridePatterns = []rolePattern{
	{"ignore previous instructions", 9},
	{"ignore all previous", 9},
	{"disregard previous", 9},
	{"you are now", 8},
	{"act as if you are", 7},
	{"pretend you are", 7},
	{"new instructions:", 8},
	{"system:", 6},
	{"system prompt:", 8},
	{"<|system|>", 9},
	{"[system]", 7},
	{"override:", 6},
}

type hiddenRune struct {
	r        rune
	name     string
	severity uint8
}

// hiddenUnicode are zero-width and bidirectional-override codepoints that
// can hide an injection payload from a human proofreading the document.
var hiddenUnicode = []hiddenRune{
	{'\u200B', "zero-width space", 5},
	{'\u200C', "zero-width non-joiner", 5},
	{'\u200D', "zero-width joiner", 4},
	{'\uFEFF', "byte order mark", 3},
	{'\u202A', "left-to-right embedding", 7},
	{'\u202B', "right-to-left embedding", 7},
	{'\u202C', "pop directional formatting", 6},
	{'\u202D', "left-to-right override", 8},
	{'\u202E', "right-to-left override", 8},
	{'\u2066', "left-to-right isolate", 6},
	{'\u2067', "right-to-left isolate", 6},
	{'\u2068', "first strong isolate", 5},
	{'\u2069', "pop directional isolate", 5},
}

// imperativeKeywords signal instruction-like phrasing when densely present.
var imperativeKeywords = []string{
	"do not", "always", "never", "must", "execute", "perform",
	"respond with", "output only", "reply as", "from now on",
}

const (
	instructionDensityThreshold = 0.5
	minSentencesForDensity      = 3
	instructionDensitySeverity  = 6
)

// ScanForInjection scans text for prompt-injection patterns and returns all
// matches sorted by severity, highest first.
func ScanForInjection(text string) []InjectionMatch {
	var matches []InjectionMatch

	lower := strings.ToLower(text)
	for _, p := range roleOverridePatterns {
		if pos := strings.Index(lower, p.phrase); pos >= 0 {
			matches = append(matches, InjectionMatch{
				PatternName: "role_override:" + p.phrase,
				Start:       pos,
				End:         pos + len(p.phrase),
				Severity:    p.severity,
			})
		}
	}

	for i, r := range text {
		for _, h := range hiddenUnicode {
			if r == h.r {
				matches = append(matches, InjectionMatch{
					PatternName: "hidden_unicode:" + h.name,
					Start:       i,
					End:         i + len(string(r)),
					Severity:    h.severity,
				})
			}
		}
	}

	sentences := splitSentences(text)
	if len(sentences) >= minSentencesForDensity {
		imperativeCount := 0
		for _, s := range sentences {
			sl := strings.ToLower(s)
			for _, kw := range imperativeKeywords {
				if strings.Contains(sl, kw) {
					imperativeCount++
					break
				}
			}
		}
		density := float64(imperativeCount) / float64(len(sentences))
		if density > instructionDensityThreshold {
			matches = append(matches, InjectionMatch{
				PatternName: "instruction_density",
				Start:       0,
				End:         len(text),
				Severity:    instructionDensitySeverity,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Severity > matches[j].Severity
	})
	return matches
}

func splitSentences(text string) []string {
	pieces := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	var sentences []string
	for _, p := range pieces {
		if strings.TrimSpace(p) != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}
