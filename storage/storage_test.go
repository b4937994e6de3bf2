package storage

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"phone-tracker/models"
)

var (
	march10 = time.Date(2022, 3, 10, 0, 0, 0, 0, time.UTC)
	march14 = time.Date(2022, 3, 14, 0, 0, 0, 0, time.UTC)
)

func TestDataLakePages(t *testing.T) {
	lake := NewDataLake(t.TempDir())
	for _, page := range []int{10, 2, 1} {
		if _, err := lake.WritePage("iphone-12", march14, page, []byte("<html></html>")); err != nil {
			t.Fatalf("WritePage(%d): %v", page, err)
		}
	}

	pages, err := lake.Pages("iphone-12", march14)
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	want := []string{
		"data_iphone-12_2022-03-14_page_1.html",
		"data_iphone-12_2022-03-14_page_2.html",
		"data_iphone-12_2022-03-14_page_10.html",
	}
	if len(pages) != len(want) {
		t.Fatalf("expected %d pages, got %d", len(want), len(pages))
	}
	for i, p := range pages {
		if filepath.Base(p) != want[i] {
			t.Errorf("page %d = %s; want %s", i, filepath.Base(p), want[i])
		}
	}

	if none, err := lake.Pages("iphone-11", march14); err != nil || len(none) != 0 {
		t.Errorf("missing capture should yield no pages, got %d, %v", len(none), err)
	}
}

func TestDataLakeLayout(t *testing.T) {
	lake := NewDataLake("data-lake")
	got := lake.PagePath("iphone-11", march10, 3)
	want := filepath.Join("data-lake", "iphone-11", "2022-03-10", "data_iphone-11_2022-03-10_page_3.html")
	if got != want {
		t.Errorf("PagePath = %s; want %s", got, want)
	}
}

func sampleListings() []*models.Listing {
	km := 12.5
	return []*models.Listing{
		{Title: "iPhone 11, 64GB", Price: 450, Distance: &km, Description: "85% \"battery\"", Link: "https://www.kijiji.ca/v/1",
			Date: march10, BatteryHealth: 0.85, StorageGB: 64, Sentiment: 0.12, Category: "iphone-11"},
		{Title: "iPhone 12", Price: 700.5, Description: "sealed", Date: march14,
			BatteryHealth: 1, StorageGB: 32, Sentiment: -1, Category: "iphone-12"},
	}
}

func TestCSVStoreReadsProcessedFiles(t *testing.T) {
	dir := t.TempDir()
	for _, l := range sampleListings() {
		w, err := NewCSVWriter(ProcessedPath(dir, l.Category, l.Date))
		if err != nil {
			t.Fatalf("NewCSVWriter: %v", err)
		}
		if err := w.Write([]*models.Listing{l}); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	store := NewCSVStore(dir)
	all, err := store.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(all))
	}
	first := all[0]
	if first.Distance == nil || *first.Distance != 12.5 || first.Description != "85% \"battery\"" {
		t.Errorf("unexpected first listing: %+v", first)
	}
	if all[1].Distance != nil || !all[1].Date.Equal(march14) || all[1].Price != 700.5 {
		t.Errorf("unexpected second listing: %+v", all[1])
	}

	recent, err := store.FetchSince(context.Background(), march14)
	if err != nil {
		t.Fatalf("FetchSince: %v", err)
	}
	if len(recent) != 1 || recent[0].Category != "iphone-12" {
		t.Errorf("FetchSince returned %d listings", len(recent))
	}
}

func TestReadCSVRejectsForeignHeader(t *testing.T) {
	in := "a,b,c,d,e,f,g,h,i,j\n"
	if _, err := ReadCSV(strings.NewReader(in)); !errors.Is(err, ErrBadHeader) {
		t.Errorf("expected ErrBadHeader, got %v", err)
	}
}

func TestReadCSVReportsLine(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(strings.Join(Columns, ",") + "\n")
	buf.WriteString("iPhone,abc,,desc,,2022-03-10,0.9,64,0,iphone-11\n")
	_, err := ReadCSV(&buf)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected a line 2 error, got %v", err)
	}
}

func TestRowHash(t *testing.T) {
	a, b := sampleListings()[0], sampleListings()[0]
	if RowHash(a) != RowHash(b) {
		t.Error("identical rows must hash equal")
	}
	b.Sentiment = 0.13
	if RowHash(a) == RowHash(b) {
		t.Error("rows differing in one column must hash differently")
	}
	c := *a
	c.Score = 42
	if RowHash(a) != RowHash(&c) {
		t.Error("score is not stored and must not affect the hash")
	}
}
