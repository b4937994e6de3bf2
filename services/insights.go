package services

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"phone-tracker/models"
	"phone-tracker/utils"
)

// BestListingCount is how many listings the report and dashboard highlight.
const BestListingCount = 5

type InsightService struct {
	logger *utils.Logger
	scorer *Scorer
	retail map[string]float64
}

func NewInsightService(logger *utils.Logger, retail map[string]float64) *InsightService {
	return &InsightService{logger: logger, scorer: NewScorer(logger), retail: retail}
}

// Generate builds the report over every listing: the price trend uses the
// whole history, the best listings only the candidate window ending at now.
func (s *InsightService) Generate(listings []*models.Listing, weights models.Weights, now time.Time, windowDays int) *models.InsightReport {
	report := &models.InsightReport{
		ListingsByCategory: make(map[string]int),
		Weights:            weights,
	}
	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)
	for _, l := range listings {
		report.ListingsByCategory[l.Category]++
	}

	report.PriceTrend = PriceTrend(listings)
	report.RetailGaps = RetailGaps(report.PriceTrend, s.retail)

	candidates := CandidateWindow(listings, now, windowDays)
	report.BestListings = Rank(s.scorer.ScoreAll(candidates, weights), BestListingCount)
	return report
}

// Best scores the candidate window under weights and returns the top n.
func (s *InsightService) Best(listings []*models.Listing, weights models.Weights, now time.Time, windowDays, n int) []*models.Listing {
	candidates := CandidateWindow(listings, now, windowDays)
	return Rank(s.scorer.ScoreAll(candidates, weights), n)
}

// RetailGaps compares the price trend against the configured retail prices.
func (s *InsightService) RetailGaps(trend []models.PricePoint) []models.RetailGap {
	return RetailGaps(trend, s.retail)
}

// PriceTrend averages prices per capture date and category, oldest first.
func PriceTrend(listings []*models.Listing) []models.PricePoint {
	type key struct {
		date     time.Time
		category string
	}
	sums := make(map[key]*models.PricePoint)
	for _, l := range listings {
		k := key{l.Date, l.Category}
		p, ok := sums[k]
		if !ok {
			p = &models.PricePoint{Date: l.Date, Category: l.Category}
			sums[k] = p
		}
		p.AveragePrice += l.Price
		p.Count++
	}

	trend := make([]models.PricePoint, 0, len(sums))
	for _, p := range sums {
		p.AveragePrice /= float64(p.Count)
		trend = append(trend, *p)
	}
	sort.Slice(trend, func(i, j int) bool {
		if !trend[i].Date.Equal(trend[j].Date) {
			return trend[i].Date.Before(trend[j].Date)
		}
		return trend[i].Category < trend[j].Category
	})
	return trend
}

// RetailGaps computes |avg - retail| / retail for every trend point whose
// category has a known retail price.
func RetailGaps(trend []models.PricePoint, retail map[string]float64) []models.RetailGap {
	gaps := make([]models.RetailGap, 0, len(trend))
	for _, p := range trend {
		r, ok := retail[p.Category]
		if !ok || r == 0 {
			continue
		}
		gaps = append(gaps, models.RetailGap{
			Date:        p.Date,
			Category:    p.Category,
			PercentDiff: math.Abs(p.AveragePrice-r) / r,
		})
	}
	return gaps
}

// CandidateWindow keeps listings captured after now minus windowDays and
// removes rows that repeat every field except the capture date, keeping the
// first occurrence. A non-positive windowDays keeps every date.
func CandidateWindow(listings []*models.Listing, now time.Time, windowDays int) []*models.Listing {
	cutoff := now.AddDate(0, 0, -windowDays)
	seen := make(map[string]struct{})
	out := make([]*models.Listing, 0, len(listings))
	for _, l := range listings {
		if windowDays > 0 && !l.Date.After(cutoff) {
			continue
		}
		k := rowKey(l)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, l)
	}
	return out
}

func rowKey(l *models.Listing) string {
	distance := ""
	if l.Distance != nil {
		distance = strconv.FormatFloat(*l.Distance, 'g', -1, 64)
	}
	return strings.Join([]string{
		l.Title,
		strconv.FormatFloat(l.Price, 'g', -1, 64),
		distance,
		l.Description,
		l.Link,
		strconv.FormatFloat(l.BatteryHealth, 'g', -1, 64),
		strconv.Itoa(l.StorageGB),
		strconv.FormatFloat(l.Sentiment, 'g', -1, 64),
		l.Category,
	}, "\x1f")
}

func (s *InsightService) Print(r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📱 PHONE LISTING INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Total listings : \033[1m%d\033[0m\n", r.TotalListings)
	for _, cat := range sortedKeys(r.ListingsByCategory) {
		fmt.Printf("  %-15s: %d\n", cat, r.ListingsByCategory[cat])
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Average Price by Day\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.PriceTrend) == 0 {
		fmt.Printf("  No price data available\n")
	}
	for _, p := range r.PriceTrend {
		fmt.Printf("  %s  %-15s \033[1;32m$%8.2f\033[0m (%d)\n",
			p.Date.Format("2006-01-02"), p.Category, p.AveragePrice, p.Count)
	}
	fmt.Println()

	if len(r.RetailGaps) > 0 {
		fmt.Printf("\033[1;33m  Distance from Retail Price\033[0m\n")
		fmt.Printf("  %s\n", thin)
		for _, g := range r.RetailGaps {
			fmt.Printf("  %s  %-15s %6.1f%%\n", g.Date.Format("2006-01-02"), g.Category, g.PercentDiff*100)
		}
		fmt.Println()
	}

	fmt.Printf("\033[1;33m  Top %d Listings (weights %.2f/%.2f/%.2f/%.2f)\033[0m\n", BestListingCount,
		r.Weights.Price, r.Weights.Battery, r.Weights.Storage, r.Weights.Sentiment)
	fmt.Printf("  %s\n", thin)
	if len(r.BestListings) == 0 {
		fmt.Printf("  No listings in the candidate window\n")
	}
	for i, l := range r.BestListings {
		fmt.Printf("  \033[1m%d.\033[0m %-34s $%-7.0f %3.0f%% %4dGB \033[1;32m%.3f\033[0m\n",
			i+1, truncate(l.Title, 32), l.Price, l.BatteryHealth*100, l.StorageGB, l.Score)
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
