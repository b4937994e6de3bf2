package services

import (
	"fmt"
	"testing"
	"time"

	"phone-tracker/models"
)

var captureDate = time.Date(2022, 3, 14, 0, 0, 0, 0, time.UTC)

func TestAssembleEndToEnd(t *testing.T) {
	a := NewAssembler(newTestLogger(), 4, 0)
	raw := []*models.RawListing{
		{Title: "iPhone 12 128GB", RawPrice: "$650", Distance: "4.2 km", Description: "90% battery, sealed box"},
		{Title: "iPhone 12 Repair parts", RawPrice: "$50", Description: "for repair"},
	}

	got := a.Assemble(raw, "iphone-12", captureDate)
	if len(got) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(got))
	}

	l := got[0]
	if l.Title != "iPhone 12 128GB" || l.Price != 650 {
		t.Errorf("unexpected title/price: %q %.2f", l.Title, l.Price)
	}
	if !almostEqual(l.BatteryHealth, 0.90) {
		t.Errorf("BatteryHealth = %.2f; want 0.90", l.BatteryHealth)
	}
	if l.StorageGB != 128 {
		t.Errorf("StorageGB = %d; want 128", l.StorageGB)
	}
	if l.Distance == nil || *l.Distance != 4.2 {
		t.Errorf("Distance = %v; want 4.2", l.Distance)
	}
	if l.Category != "iphone-12" || !l.Date.Equal(captureDate) {
		t.Errorf("unexpected category/date: %q %v", l.Category, l.Date)
	}
}

func TestAssembleBackfillsBatchMinimum(t *testing.T) {
	a := NewAssembler(newTestLogger(), 2, 0.42)
	raw := []*models.RawListing{
		{Title: "iPhone 11 A", RawPrice: "400", Description: "85% health"},
		{Title: "iPhone 11 B", RawPrice: "450", Description: "health 92%"},
		{Title: "iPhone 11 C", RawPrice: "500", Description: "works fine"},
		{Title: "iPhone 11 D", RawPrice: "520", Description: "sealed"},
	}

	got := a.Assemble(raw, "iphone-11", captureDate)
	want := []float64{0.85, 0.92, 0.85, 1.0}
	if len(got) != len(want) {
		t.Fatalf("expected %d listings, got %d", len(want), len(got))
	}
	for i, l := range got {
		if !almostEqual(l.BatteryHealth, want[i]) {
			t.Errorf("listing %d BatteryHealth = %.2f; want %.2f", i, l.BatteryHealth, want[i])
		}
	}
}

func TestAssembleFallbackWhenNothingKnown(t *testing.T) {
	a := NewAssembler(newTestLogger(), 2, 0.5)
	raw := []*models.RawListing{
		{Title: "iPhone 11", RawPrice: "400", Description: "works"},
		{Title: "iPhone 11 Pro", RawPrice: "600", Description: "unlocked"},
	}

	for _, l := range a.Assemble(raw, "iphone-11", captureDate) {
		if l.BatteryHealth != 0.5 {
			t.Errorf("%s: BatteryHealth = %.2f; want fallback 0.5", l.Title, l.BatteryHealth)
		}
	}
}

func TestAssembleKeepsInputOrder(t *testing.T) {
	a := NewAssembler(newTestLogger(), 8, 0)
	var raw []*models.RawListing
	for i := 0; i < 50; i++ {
		raw = append(raw, &models.RawListing{
			Title:       fmt.Sprintf("iPhone 12 #%d", i),
			RawPrice:    fmt.Sprintf("%d", 300+i),
			Description: fmt.Sprintf("%d%% battery", 50+i),
		})
	}

	got := a.Assemble(raw, "iphone-12", captureDate)
	if len(got) != len(raw) {
		t.Fatalf("expected %d listings, got %d", len(raw), len(got))
	}
	for i, l := range got {
		if want := fmt.Sprintf("iPhone 12 #%d", i); l.Title != want {
			t.Fatalf("listing %d is %q; want %q", i, l.Title, want)
		}
	}
}

func TestAssembleEmptyAfterFiltering(t *testing.T) {
	a := NewAssembler(newTestLogger(), 2, 0)
	raw := []*models.RawListing{
		{Title: "Samsung S21", RawPrice: "400"},
	}
	got := a.Assemble(raw, "iphone-12", captureDate)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %v", got)
	}
}

func TestAssembleStorageUsesTitle(t *testing.T) {
	a := NewAssembler(newTestLogger(), 1, 0)
	raw := []*models.RawListing{
		{Title: "iPhone 12 64 GB", RawPrice: "500", Description: "80% battery"},
		{Title: "iPhone 12 64 GB", RawPrice: "500", Description: "256GB actually, 80%"},
		{Title: "iPhone 12", RawPrice: "500", Description: "80%"},
	}
	got := a.Assemble(raw, "iphone-12", captureDate)
	want := []int{64, 256, 32}
	for i, l := range got {
		if l.StorageGB != want[i] {
			t.Errorf("listing %d StorageGB = %d; want %d", i, l.StorageGB, want[i])
		}
	}
}
