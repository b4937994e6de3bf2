package services

import (
	"testing"

	"phone-tracker/models"
	"phone-tracker/utils"
)

func newTestLogger() *utils.Logger { return utils.Discard() }

func TestFilterRules(t *testing.T) {
	f := NewFilter(newTestLogger())

	tests := []struct {
		name string
		in   models.RawListing
		keep bool
	}{
		{"valid", models.RawListing{Title: "Mint iPhone 12 Mini", RawPrice: "450", Description: "like new"}, true},
		{"spam cellular", models.RawListing{Title: "iPhone 12 mini", RawPrice: "450", Description: "ABC CELLULAR store"}, false},
		{"spam buy", models.RawListing{Title: "iPhone 12 mini", RawPrice: "450", Description: "Buy now"}, false},
		{"spam is case sensitive", models.RawListing{Title: "iPhone 12 mini", RawPrice: "450", Description: "buy now"}, true},
		{"spam new in stock", models.RawListing{Title: "iPhone 12 mini", RawPrice: "450", Description: "New in stock!"}, false},
		{"repair", models.RawListing{Title: "iPhone 12 Mini REPAIR", RawPrice: "450"}, false},
		{"token order free", models.RawListing{Title: "mini 12 iphone", RawPrice: "450"}, true},
		{"missing token", models.RawListing{Title: "iPhone 12", RawPrice: "450"}, false},
		{"price not numeric", models.RawListing{Title: "iPhone 12 mini", RawPrice: "Please Contact"}, false},
		{"price at threshold", models.RawListing{Title: "iPhone 12 mini", RawPrice: "200"}, false},
		{"price just above", models.RawListing{Title: "iPhone 12 mini", RawPrice: "200.01"}, true},
		{"price with comma", models.RawListing{Title: "iPhone 12 mini", RawPrice: "1,200.00"}, false},
	}

	for _, tt := range tests {
		in := tt.in
		got := f.Apply([]*models.RawListing{&in}, "iphone-12-mini")
		if (len(got) == 1) != tt.keep {
			t.Errorf("%s: kept=%v; want %v", tt.name, len(got) == 1, tt.keep)
		}
	}
}

func TestFilterEmptyBatch(t *testing.T) {
	f := NewFilter(newTestLogger())
	if got := f.Apply(nil, "iphone-11"); len(got) != 0 {
		t.Errorf("expected empty result, got %d", len(got))
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"650", 650, true},
		{"650.00", 650, true},
		{"150", 150, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"Swap/Trade", 0, false},
		{"0x1p10", 0, false},
		{"0x400", 0, false},
		{"1_000", 0, false},
		{"1e3", 1000, true},
		{" 725.5 ", 725.5, true},
		{"1e400", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParsePrice(tt.in)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("ParsePrice(%q) = %.2f, %v; want %.2f, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
