package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"phone-tracker/models"
)

// Columns is the fixed header of a processed listings CSV.
var Columns = []string{
	"title", "price", "distance", "description", "link",
	"date", "bat_health", "gb", "sentiment", "type",
}

// CSVWriter writes processed listings to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// ProcessedPath is the CSV file for one keyword and capture date.
func ProcessedPath(dir, keyword string, date time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("data_%s_%s.csv", keyword, date.Format(DateLayout)))
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends one row per listing.
func (c *CSVWriter) Write(listings []*models.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range listings {
		if err := c.writer.Write(toRow(l)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func toRow(l *models.Listing) []string {
	distance := ""
	if l.Distance != nil {
		distance = formatFloat(*l.Distance)
	}
	return []string{
		l.Title,
		formatFloat(l.Price),
		distance,
		l.Description,
		l.Link,
		l.Date.Format(DateLayout),
		formatFloat(l.BatteryHealth),
		strconv.Itoa(l.StorageGB),
		formatFloat(l.Sentiment),
		l.Category,
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
