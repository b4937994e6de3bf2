package services

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBatteryHealth(t *testing.T) {
	tests := []struct {
		desc      string
		want      float64
		wantKnown bool
	}{
		{"80% battery, was 100% when new", 0.80, true},
		{"Battery health 87%", 0.87, true},
		{"Factory SEALED in box", 1.0, true},
		{"sealed, battery 91%", 0.91, true},
		{"Great phone, no case", 0, false},
		{"", 0, false},
		{"battery 1000% happy", 10, true},
		{"sealed, battery 99999999999999999999%", 0, false},
	}

	for _, tt := range tests {
		got, known := BatteryHealth(tt.desc)
		if known != tt.wantKnown || !almostEqual(got, tt.want) {
			t.Errorf("BatteryHealth(%q) = %.2f, %v; want %.2f, %v", tt.desc, got, known, tt.want, tt.wantKnown)
		}
	}
}

func TestStorageGB(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"64GB iPhone", 64},
		{"64 GB iPhone", 64},
		{"iPhone 11", 32},
		{"256gb unlocked", 256},
		{"was 64 GB, upgraded listing says 128GB", 128},
		{"iPhone 11 Pro 512GB", 512},
		{"1TB model", 32},
		{"64  GB double space", 32},
		{"99999999999999999999GB then 64 GB", 32},
		{"99999999999999999999 GB", 32},
	}

	for _, tt := range tests {
		if got := StorageGB(tt.text); got != tt.want {
			t.Errorf("StorageGB(%q) = %d; want %d", tt.text, got, tt.want)
		}
	}
}

func TestSentimentDamageDominates(t *testing.T) {
	for _, desc := range []string{
		"Screen is cracked but otherwise mint",
		"excellent perfect amazing, back glass broken",
		"few scratches on the frame",
	} {
		if got := Sentiment(desc); got != -1.0 {
			t.Errorf("Sentiment(%q) = %.2f; want -1", desc, got)
		}
	}
}

func TestSentimentDamageNeedsWholeWord(t *testing.T) {
	// "cracked," carries punctuation so it is not the word "cracked"
	if got := Sentiment("cracked, but great"); got == -1.0 {
		t.Errorf("punctuated damage word should not short-circuit, got %.2f", got)
	}
}

func TestSentimentPolarity(t *testing.T) {
	tests := []struct {
		desc string
		want float64
	}{
		{"Great phone", 0.2},
		{"Works great, no issues", 0.2},
		{"not good", -0.14},
		{"very good condition", 0.2},
		{"iPhone 12 for sale", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := Sentiment(tt.desc); !almostEqual(got, tt.want) {
			t.Errorf("Sentiment(%q) = %.4f; want %.2f", tt.desc, got, tt.want)
		}
	}
}

func TestSentimentRange(t *testing.T) {
	for _, desc := range []string{
		"absolutely perfect flawless excellent",
		"extremely terrible awful horrible",
		"good bad good bad",
	} {
		got := Sentiment(desc)
		if got < -1 || got > 1 {
			t.Errorf("Sentiment(%q) = %.2f out of range", desc, got)
		}
	}
}

func TestAnalyze(t *testing.T) {
	p, s := Analyze("great but bad")
	if !almostEqual(p, 0.05) {
		t.Errorf("polarity = %.4f; want 0.05", p)
	}
	if !almostEqual(s, (0.75+0.667)/2) {
		t.Errorf("subjectivity = %.4f; want %.4f", s, (0.75+0.667)/2)
	}

	p, s = Analyze("Not GOOD")
	if !almostEqual(p, -0.35) || !almostEqual(s, 0.6) {
		t.Errorf("Analyze(Not GOOD) = %.3f, %.3f; want -0.35, 0.6", p, s)
	}

	// negation does not reach past an unrelated word
	p, _ = Analyze("not in good shape")
	if !almostEqual(p, 0.7) {
		t.Errorf("Analyze(not in good shape) polarity = %.3f; want 0.7", p)
	}
}
