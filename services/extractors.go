package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultStorageGB is assumed when no capacity is mentioned.
const DefaultStorageGB = 32

var (
	// percentRegexp captures the digits of a "NN%" token
	percentRegexp = regexp.MustCompile(`(\d+)%`)
	// gbRegexp captures "128GB" style capacities
	gbRegexp = regexp.MustCompile(`(\d+)GB`)
	// spacedGBRegexp captures "128 GB" with exactly one whitespace character
	spacedGBRegexp = regexp.MustCompile(`(\d+)\sGB`)
)

// damageWords short-circuit sentiment to -1 whenever one appears as a word.
var damageWords = map[string]struct{}{
	"cracked":    {},
	"crack":      {},
	"broken":     {},
	"cracks":     {},
	"scratches":  {},
	"scratching": {},
}

// BatteryHealth reads the battery health fraction out of a description.
// The first "NN%" token wins; otherwise a sealed device counts as 1.0.
// ok is false when the text says nothing usable, including a percentage
// too long to be a number.
func BatteryHealth(description string) (health float64, ok bool) {
	if m := percentRegexp.FindStringSubmatch(description); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		return float64(n) / 100.0, true
	}
	if strings.Contains(strings.ToLower(description), "sealed") {
		return 1.0, true
	}
	return 0, false
}

// StorageGB returns the advertised capacity in GB, or DefaultStorageGB.
// "128GB" anywhere in the text beats an earlier "64 GB". The first match
// decides: a capacity too long to be a number gives DefaultStorageGB
// rather than a later, unrelated match.
func StorageGB(text string) int {
	upper := strings.ToUpper(text)
	for _, re := range []*regexp.Regexp{gbRegexp, spacedGBRegexp} {
		m := re.FindStringSubmatch(upper)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return DefaultStorageGB
		}
		return n
	}
	return DefaultStorageGB
}

// Sentiment scores a description with the bundled lexicon.
func Sentiment(description string) float64 {
	return DefaultAnalyzer().Sentiment(description)
}

// Sentiment scores a description in [-1, 1]. Any damage word gives exactly
// -1. Otherwise it is polarity * (1 - subjectivity), rounded to two places.
func (a *Analyzer) Sentiment(description string) float64 {
	for _, word := range strings.Split(description, " ") {
		if _, bad := damageWords[word]; bad {
			return -1.0
		}
	}
	polarity, subjectivity := a.Analyze(description)
	return round2(polarity * (1 - subjectivity))
}

// round2 rounds half to even, so 0.125 becomes 0.12.
func round2(f float64) float64 {
	return math.RoundToEven(f*100) / 100
}
