package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"phone-tracker/models"
	"phone-tracker/utils"
)

// MinPrice is the exclusive lower bound for a believable asking price.
const MinPrice = 200.0

// spamMarkers are matched case-sensitively against the description.
var spamMarkers = []string{"CELLULAR", "FLEX", "New in stock", "Buy", "buying"}

// Drop reasons, also used as the metric label.
const (
	ruleSpam     = "spam"
	ruleRepair   = "repair"
	ruleCategory = "category"
	rulePrice    = "price"
)

// Filter keeps the listings that are real, on-topic and sensibly priced.
type Filter struct {
	logger *utils.Logger
}

// NewFilter creates a Filter with the given logger.
func NewFilter(logger *utils.Logger) *Filter {
	return &Filter{logger: logger}
}

// Apply returns the entries of batch that pass every rule for category.
// Entries are expected to be normalized already. Failing entries are
// dropped, never repaired.
func (f *Filter) Apply(batch []*models.RawListing, category string) []*models.RawListing {
	tokens := categoryTokens(category)
	dropped := make(map[string]int)
	kept := make([]*models.RawListing, 0, len(batch))

	for _, r := range batch {
		if rule := rejectReason(r, tokens); rule != "" {
			dropped[rule]++
			utils.ListingsDropped.WithLabelValues(rule).Inc()
			f.logger.Debug("[filter] Dropping %q (%s)", r.Title, rule)
			continue
		}
		kept = append(kept, r)
	}

	f.logger.Info("[filter] %s: kept %d of %d (spam %d, repair %d, off-topic %d, price %d)",
		category, len(kept), len(batch),
		dropped[ruleSpam], dropped[ruleRepair], dropped[ruleCategory], dropped[rulePrice])
	return kept
}

// rejectReason names the first rule r breaks, or "" when it passes all of them.
// The rules are independent so the order only affects which reason is reported.
func rejectReason(r *models.RawListing, tokens []string) string {
	if isSpam(r.Description) {
		return ruleSpam
	}
	title := strings.ToLower(r.Title)
	if strings.Contains(title, "repair") {
		return ruleRepair
	}
	if !matchesCategory(title, tokens) {
		return ruleCategory
	}
	if _, ok := ParsePrice(r.RawPrice); !ok {
		return rulePrice
	}
	return ""
}

func isSpam(description string) bool {
	for _, marker := range spamMarkers {
		if strings.Contains(description, marker) {
			return true
		}
	}
	return false
}

// categoryTokens splits "iphone-12-mini" into its lowercase words.
func categoryTokens(category string) []string {
	var tokens []string
	for _, t := range strings.Split(strings.ToLower(category), "-") {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// matchesCategory reports whether the lowercased title contains every token,
// in any order.
func matchesCategory(title string, tokens []string) bool {
	for _, t := range tokens {
		if !strings.Contains(title, t) {
			return false
		}
	}
	return true
}

// decimalRegexp is a plain decimal number, optionally in exponent form.
// Hex floats and digit separators are not prices.
var decimalRegexp = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ParsePrice parses a normalized price and reports whether it is a finite
// decimal number strictly above MinPrice.
func ParsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !decimalRegexp.MatchString(s) {
		return 0, false
	}
	p, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, false
	}
	if p <= MinPrice {
		return p, false
	}
	return p, true
}
