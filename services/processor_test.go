package services

import (
	"context"
	"os"
	"testing"

	"phone-tracker/models"
	"phone-tracker/storage"
)

type recordingWriter struct {
	written []*models.Listing
}

func (w *recordingWriter) Write(listings []*models.Listing) error {
	w.written = append(w.written, listings...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestProcessorProcess(t *testing.T) {
	page, err := os.ReadFile("../capture/testdata/results_page.html")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	lake := storage.NewDataLake(t.TempDir())
	if _, err := lake.WritePage("iphone-12", captureDate, 1, page); err != nil {
		t.Fatalf("WritePage: %v", err)
	}
	if _, err := lake.WritePage("iphone-12", captureDate, 2, []byte("<html><body></body></html>")); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	outDir := t.TempDir()
	writer := &recordingWriter{}
	p := NewProcessor(newTestLogger(), lake, NewAssembler(newTestLogger(), 2, 0), outDir, writer)

	listings, err := p.Process(context.Background(), "iphone-12", captureDate)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}

	pro := listings[1]
	if pro.Title != "Unlocked iPhone 12 Pro" || pro.Price != 725 {
		t.Errorf("unexpected second listing: %+v", pro)
	}
	if pro.StorageGB != 256 || pro.Distance != nil {
		t.Errorf("StorageGB/Distance = %d/%v; want 256/nil", pro.StorageGB, pro.Distance)
	}
	if !almostEqual(pro.BatteryHealth, 0.9) {
		t.Errorf("back-filled BatteryHealth = %.2f; want 0.90", pro.BatteryHealth)
	}
	if !almostEqual(pro.Sentiment, 0.2) {
		t.Errorf("Sentiment = %.2f; want 0.20", pro.Sentiment)
	}

	if len(writer.written) != 2 {
		t.Errorf("expected 2 rows written to the store, got %d", len(writer.written))
	}

	f, err := os.Open(storage.ProcessedPath(outDir, "iphone-12", captureDate))
	if err != nil {
		t.Fatalf("open processed csv: %v", err)
	}
	defer f.Close()
	rows, err := storage.ReadCSV(f)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != 2 || rows[0].Link != "https://www.kijiji.ca/v-cell-phone/ottawa/iphone-12-128gb/1601" {
		t.Errorf("unexpected csv rows: %d", len(rows))
	}
}

func TestProcessorNoPages(t *testing.T) {
	outDir := t.TempDir()
	p := NewProcessor(newTestLogger(), storage.NewDataLake(t.TempDir()),
		NewAssembler(newTestLogger(), 1, 0), outDir, nil)

	listings, err := p.Process(context.Background(), "iphone-11", captureDate)
	if err != nil || len(listings) != 0 {
		t.Fatalf("Process = %d, %v; want 0, nil", len(listings), err)
	}
	if _, err := os.Stat(storage.ProcessedPath(outDir, "iphone-11", captureDate)); !os.IsNotExist(err) {
		t.Errorf("no csv should be written for a day without pages")
	}
}

func TestProcessorProcessDays(t *testing.T) {
	page, err := os.ReadFile("../capture/testdata/results_page.html")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	lake := storage.NewDataLake(t.TempDir())
	yesterday := captureDate.AddDate(0, 0, -1)
	if _, err := lake.WritePage("iphone-12", yesterday, 1, page); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	p := NewProcessor(newTestLogger(), lake, NewAssembler(newTestLogger(), 1, 0), t.TempDir(), nil)
	total, err := p.ProcessDays(context.Background(), []string{"iphone-11", "iphone-12"}, captureDate, 1)
	if err != nil {
		t.Fatalf("ProcessDays: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 listings over two days, got %d", total)
	}
}
