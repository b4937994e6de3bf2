package services

import (
	"time"

	"phone-tracker/models"
	"phone-tracker/utils"
)

// Assembler turns one category's raw capture batch into validated Listings.
type Assembler struct {
	logger  *utils.Logger
	filter  *Filter
	workers int

	// UnknownBatteryHealth is used for every listing when no listing in
	// the batch states its battery health.
	UnknownBatteryHealth float64

	// Analyzer scores descriptions; nil means DefaultAnalyzer.
	Analyzer *Analyzer
}

// NewAssembler creates an Assembler that extracts features on up to
// workers goroutines.
func NewAssembler(logger *utils.Logger, workers int, unknownBatteryHealth float64) *Assembler {
	return &Assembler{
		logger:               logger,
		filter:               NewFilter(logger),
		workers:              workers,
		UnknownBatteryHealth: unknownBatteryHealth,
	}
}

// extracted carries a listing whose battery health may still be unknown.
type extracted struct {
	listing      *models.Listing
	batteryKnown bool
}

// Assemble normalizes, filters and enriches raw, tagging every listing
// with category and date. Unknown battery health is back-filled with the
// lowest known value in the batch. That is a policy, not a measurement: it
// understates listings that simply do not mention their battery.
func (a *Assembler) Assemble(raw []*models.RawListing, category string, date time.Time) []*models.Listing {
	normalized := make([]*models.RawListing, len(raw))
	for i, r := range raw {
		normalized[i] = NormalizeRaw(r)
	}

	kept := a.filter.Apply(normalized, category)
	if len(kept) == 0 {
		return []*models.Listing{}
	}

	analyzer := a.Analyzer
	if analyzer == nil {
		analyzer = DefaultAnalyzer()
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	rows := make([]extracted, len(kept))
	utils.NewWorkerPool(a.workers, 0).ForEach(len(kept), func(i int) {
		rows[i] = extract(analyzer, kept[i], category, day)
	})

	listings := a.backfill(rows)
	utils.ListingsAssembled.WithLabelValues(category).Add(float64(len(listings)))
	a.logger.Info("[assembler] %s: assembled %d listings for %s",
		category, len(listings), day.Format("2006-01-02"))
	return listings
}

// extract builds a Listing from one validated, normalized entry.
func extract(analyzer *Analyzer, r *models.RawListing, category string, date time.Time) extracted {
	price, _ := ParsePrice(r.RawPrice)
	health, known := BatteryHealth(r.Description)

	return extracted{
		listing: &models.Listing{
			Title:         r.Title,
			Price:         price,
			Distance:      parseDistance(r.Distance),
			Description:   r.Description,
			Link:          r.Link,
			Date:          date,
			BatteryHealth: health,
			StorageGB:     StorageGB(r.Description + " " + r.Title),
			Sentiment:     analyzer.Sentiment(r.Description),
			Category:      category,
		},
		batteryKnown: known,
	}
}

// backfill resolves every unknown battery health and returns the listings.
func (a *Assembler) backfill(rows []extracted) []*models.Listing {
	fill, found := 0.0, false
	for _, row := range rows {
		if row.batteryKnown && (!found || row.listing.BatteryHealth < fill) {
			fill, found = row.listing.BatteryHealth, true
		}
	}
	if !found {
		fill = a.UnknownBatteryHealth
		a.logger.Warn("[assembler] No battery health in a batch of %d, using fallback %.2f",
			len(rows), fill)
	}

	listings := make([]*models.Listing, len(rows))
	for i, row := range rows {
		if !row.batteryKnown {
			row.listing.BatteryHealth = fill
			utils.BatteryBackfilled.Inc()
		}
		listings[i] = row.listing
	}
	return listings
}
