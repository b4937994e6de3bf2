package models

import "time"

// RawListing holds the unprocessed text captured for one result card.
// Every field is kept exactly as it appeared in the stored page.
type RawListing struct {
	Title       string
	RawPrice    string
	Distance    string
	Description string
	Link        string
}

// Listing is one validated secondhand phone offer with its derived features.
// Score is not ground truth: it is only meaningful inside one scoring run.
type Listing struct {
	Title         string    `json:"title" db:"title"`
	Price         float64   `json:"price" db:"price"`
	Distance      *float64  `json:"distance" db:"distance"`
	Description   string    `json:"description" db:"description"`
	Link          string    `json:"link" db:"link"`
	Date          time.Time `json:"date" db:"date"`
	BatteryHealth float64   `json:"bat_health" db:"bat_health"`
	StorageGB     int       `json:"gb" db:"gb"`
	Sentiment     float64   `json:"sentiment" db:"sentiment"`
	Category      string    `json:"type" db:"type"`
	Score         float64   `json:"score" db:"-"`
}

// Weights are the four raw ranking sliders.
type Weights struct {
	Price     float64 `json:"price"`
	Battery   float64 `json:"battery"`
	Storage   float64 `json:"storage"`
	Sentiment float64 `json:"sentiment"`
}

// PricePoint is the average asking price of one category on one capture date.
type PricePoint struct {
	Date         time.Time `json:"date"`
	Category     string    `json:"type"`
	AveragePrice float64   `json:"average_price"`
	Count        int       `json:"count"`
}

// RetailGap is how far a category's average price sits from its new retail price.
type RetailGap struct {
	Date        time.Time `json:"date"`
	Category    string    `json:"type"`
	PercentDiff float64   `json:"percent_diff"`
}

// InsightReport holds the computed analytics over a set of listings.
type InsightReport struct {
	TotalListings      int
	ListingsByCategory map[string]int
	PriceTrend         []PricePoint
	RetailGaps         []RetailGap
	BestListings       []*Listing
	Weights            Weights
}
