package services

import (
	"math"
	"sort"
	"time"

	"phone-tracker/models"
	"phone-tracker/utils"
)

// StorageReferenceGB is the capacity that earns the full storage weight.
// Larger phones are not clamped and earn more than the weight.
const StorageReferenceGB = 512.0

// Softmax maps four arbitrary slider values to strictly positive weights
// that sum to 1. It is defined for every finite input; a component that
// would underflow is held at the smallest positive float.
func Softmax(w models.Weights) models.Weights {
	raw := []float64{w.Price, w.Battery, w.Storage, w.Sentiment}
	max := raw[0]
	for _, v := range raw[1:] {
		if v > max {
			max = v
		}
	}
	var sum float64
	exp := make([]float64, len(raw))
	for i, v := range raw {
		exp[i] = math.Exp(v - max)
		sum += exp[i]
	}
	share := func(e float64) float64 {
		return math.Max(e/sum, math.SmallestNonzeroFloat64)
	}
	return models.Weights{
		Price:     share(exp[0]),
		Battery:   share(exp[1]),
		Storage:   share(exp[2]),
		Sentiment: share(exp[3]),
	}
}

// InverseMinPrice returns 1/min(price) for every category in records.
func InverseMinPrice(records []*models.Listing) map[string]float64 {
	minPrice := make(map[string]float64)
	for _, l := range records {
		if cur, ok := minPrice[l.Category]; !ok || l.Price < cur {
			minPrice[l.Category] = l.Price
		}
	}
	inv := make(map[string]float64, len(minPrice))
	for cat, p := range minPrice {
		inv[cat] = 1 / p
	}
	return inv
}

// ScoreListing combines the four signals of l under already normalized
// weights. The price term is 1.0 for the cheapest listing of its category.
func ScoreListing(l *models.Listing, w models.Weights, invMinPrice map[string]float64) float64 {
	return w.Price*((1/l.Price)/invMinPrice[l.Category]) +
		w.Battery*l.BatteryHealth +
		w.Storage*(float64(l.StorageGB)/StorageReferenceGB) +
		w.Sentiment*l.Sentiment
}

// Scorer ranks listings under user supplied weights.
type Scorer struct {
	logger *utils.Logger
}

// NewScorer creates a Scorer with the given logger.
func NewScorer(logger *utils.Logger) *Scorer {
	return &Scorer{logger: logger}
}

// ScoreAll returns copies of records with Score set. Scores are only
// comparable within one call. records are left untouched.
func (s *Scorer) ScoreAll(records []*models.Listing, weights models.Weights) []*models.Listing {
	start := time.Now()
	defer func() { utils.ScoringDuration.Observe(time.Since(start).Seconds()) }()

	w := Softmax(weights)
	invMin := InverseMinPrice(records)

	scored := make([]*models.Listing, len(records))
	for i, l := range records {
		c := *l
		c.Score = ScoreListing(l, w, invMin)
		scored[i] = &c
	}

	s.logger.Debug("[scorer] Scored %d listings across %d categories (weights %.3f/%.3f/%.3f/%.3f)",
		len(scored), len(invMin), w.Price, w.Battery, w.Storage, w.Sentiment)
	return scored
}

// Rank sorts scored listings best first and keeps at most n (all when n <= 0).
// Equal scores keep their input order.
func Rank(scored []*models.Listing, n int) []*models.Listing {
	ranked := make([]*models.Listing, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
