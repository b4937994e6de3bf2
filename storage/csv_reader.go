package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"phone-tracker/models"
)

// ErrBadHeader is returned when a CSV does not start with Columns.
var ErrBadHeader = errors.New("csv: unexpected header")

// ReadCSV parses a processed listings CSV written by CSVWriter.
func ReadCSV(r io.Reader) ([]*models.Listing, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	for i, col := range Columns {
		if header[i] != col {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrBadHeader, i, header[i], col)
		}
	}

	var listings []*models.Listing
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: line %d: %w", line, err)
		}
		l, err := fromRow(rec)
		if err != nil {
			return nil, fmt.Errorf("csv: line %d: %w", line, err)
		}
		listings = append(listings, l)
	}
	return listings, nil
}

func fromRow(rec []string) (*models.Listing, error) {
	l := &models.Listing{
		Title:       rec[0],
		Description: rec[3],
		Link:        rec[4],
		Category:    rec[9],
	}
	var err error
	if l.Price, err = strconv.ParseFloat(rec[1], 64); err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	if rec[2] != "" {
		d, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("distance: %w", err)
		}
		l.Distance = &d
	}
	if l.Date, err = time.Parse(DateLayout, rec[5]); err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	if l.BatteryHealth, err = strconv.ParseFloat(rec[6], 64); err != nil {
		return nil, fmt.Errorf("bat_health: %w", err)
	}
	if l.StorageGB, err = strconv.Atoi(rec[7]); err != nil {
		return nil, fmt.Errorf("gb: %w", err)
	}
	if l.Sentiment, err = strconv.ParseFloat(rec[8], 64); err != nil {
		return nil, fmt.Errorf("sentiment: %w", err)
	}
	return l, nil
}

// CSVStore reads every processed CSV in a directory. It backs the
// dashboard when no database is configured.
type CSVStore struct {
	Dir string
}

// NewCSVStore returns a CSVStore over dir.
func NewCSVStore(dir string) *CSVStore {
	return &CSVStore{Dir: dir}
}

// FetchAll loads every *.csv file in the directory, in file name order.
func (s *CSVStore) FetchAll(ctx context.Context) ([]*models.Listing, error) {
	paths, err := filepath.Glob(filepath.Join(s.Dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("csv: glob: %w", err)
	}
	sort.Strings(paths)

	var all []*models.Listing
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		listings, err := readFile(p)
		if err != nil {
			return nil, err
		}
		all = append(all, listings...)
	}
	return all, nil
}

// FetchSince returns the listings captured on or after since.
func (s *CSVStore) FetchSince(ctx context.Context, since time.Time) ([]*models.Listing, error) {
	all, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Listing, 0, len(all))
	for _, l := range all {
		if !l.Date.Before(since) {
			out = append(out, l)
		}
	}
	return out, nil
}

func readFile(path string) ([]*models.Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	listings, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return listings, nil
}
