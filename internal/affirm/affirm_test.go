package affirm

import "testing"

func TestDetect(t *testing.T) {
	d := NewKeywordDetector()

	cases := []struct {
		text string
		want Signal
	}{
		{"Yes, exactly!", Affirmative},
		{"yeah that sounds good", Affirmative},
		{"Absolutely.", Affirmative},
		{"OK", Affirmative},
		{"no", Negative},
		{"Nope, not really", Negative},
		{"That's not quite it", Negative},
		{"I disagree with that framing", Negative},
		{"Tell me more about the second one", Neutral},
		{"", Neutral},
		{"   ", Neutral},
	}
	for _, c := range cases {
		if got := d.Detect(c.text); got != c.want {
			t.Errorf("Detect(%q) = %s, want %s", c.text, got, c.want)
		}
	}
}

func TestDetectNegativeWins(t *testing.T) {
	d := NewKeywordDetector()
	if got := d.Detect("yes, but actually no"); got != Negative {
		t.Errorf("mixed reply = %s, want negative", got)
	}
}

func TestDetectWordBoundaries(t *testing.T) {
	d := NewKeywordDetector()
	// "know" contains "no" and "notebook" contains "no"; neither is a rejection.
	if got := d.Detect("I know what you mean, let me grab my notebook"); got == Negative {
		t.Error("substring match misclassified as negative")
	}
	// "yesterday" contains "yes".
	if got := d.Detect("it happened yesterday"); got == Affirmative {
		t.Error("substring match misclassified as affirmative")
	}
	// Punctuation still counts as a boundary.
	if got := d.Detect("Yes."); got != Affirmative {
		t.Errorf("Detect(\"Yes.\") = %s, want affirmative", got)
	}
}
