// Package affirm provides a fixed-keyword classifier for user confirmations.
// It replaces inline yes/no substring checks with a named, swappable
// component so the controller's confirmation handling can be tested and
// replaced independently.
package affirm

import "strings"

// Signal is the classification of a user reply.
type Signal string

// Classification results.
const (
	Affirmative Signal = "affirmative"
	Negative    Signal = "negative"
	Neutral     Signal = "neutral"
)

// Detector classifies a user reply as affirmative, negative, or neutral.
type Detector interface {
	Detect(text string) Signal
}

// affirmativeKeywords is the hard-coded set of confirmation markers.
var affirmativeKeywords = []string{
	"yes", "yeah", "yep", "yup", "sure", "ok", "okay",
	"correct", "right", "exactly", "definitely", "absolutely",
	"sounds good", "that's it", "agreed", "for sure",
}

// negativeKeywords is the hard-coded set of rejection markers.
var negativeKeywords = []string{
	"no", "nope", "not really", "not quite", "wrong",
	"incorrect", "don't think", "disagree", "not exactly",
}

// KeywordDetector implements Detector with fixed keyword lists.
type KeywordDetector struct{}

// NewKeywordDetector creates the default detector.
func NewKeywordDetector() *KeywordDetector {
	return &KeywordDetector{}
}

// Detect classifies text. Negative markers win over affirmative ones so that
// replies like "no, that's not right, yes I see why you'd think so" read as
// rejections.
func (d *KeywordDetector) Detect(text string) Signal {
	normalized := " " + strings.ToLower(strings.TrimSpace(text)) + " "
	if normalized == "  " {
		return Neutral
	}

	for _, kw := range negativeKeywords {
		if containsWord(normalized, kw) {
			return Negative
		}
	}
	for _, kw := range affirmativeKeywords {
		if containsWord(normalized, kw) {
			return Affirmative
		}
	}
	return Neutral
}

// containsWord matches a keyword at word boundaries. Plain substring checks
// would classify "know" as "no".
func containsWord(padded, keyword string) bool {
	idx := 0
	for {
		found := strings.Index(padded[idx:], keyword)
		if found < 0 {
			return false
		}
		start := idx + found
		end := start + len(keyword)
		before := padded[start-1]
		var after byte = ' '
		if end < len(padded) {
			after = padded[end]
		}
		if isBoundary(before) && isBoundary(after) {
			return true
		}
		idx = start + 1
	}
}

func isBoundary(c byte) bool {
	switch c {
	case ' ', ',', '.', '!', '?', ';', ':', '\n', '\t', '\'', '"', '(', ')':
		return true
	}
	return false
}
