package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"phone-tracker/capture"
	"phone-tracker/models"
	"phone-tracker/storage"
	"phone-tracker/utils"
)

// Processor turns one keyword's stored pages for one day into a processed
// CSV and, when a writer is configured, database rows.
type Processor struct {
	logger       *utils.Logger
	lake         *storage.DataLake
	assembler    *Assembler
	processedDir string
	writer       storage.ListingWriter
}

// NewProcessor wires a Processor. writer may be nil.
func NewProcessor(logger *utils.Logger, lake *storage.DataLake, assembler *Assembler,
	processedDir string, writer storage.ListingWriter) *Processor {
	return &Processor{
		logger:       logger,
		lake:         lake,
		assembler:    assembler,
		processedDir: processedDir,
		writer:       writer,
	}
}

// Process parses, validates and enriches the capture of keyword on date.
// A page that cannot be read is skipped with a warning. A day without
// stored pages produces nothing; a day whose listings are all rejected
// still gets a header-only CSV.
func (p *Processor) Process(ctx context.Context, keyword string, date time.Time) ([]*models.Listing, error) {
	paths, err := p.lake.Pages(keyword, date)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		p.logger.Warn("[processor] No stored pages for %s on %s", keyword, date.Format(storage.DateLayout))
		return []*models.Listing{}, nil
	}

	var raw []*models.RawListing
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := parsePage(path)
		if err != nil {
			p.logger.Warn("[processor] Skipping %s: %v", path, err)
			continue
		}
		raw = append(raw, entries...)
	}
	p.logger.Info("[processor] Gathered %d rows on %s from %d pages", len(raw), keyword, len(paths))

	listings := p.assembler.Assemble(raw, keyword, date)

	out := storage.ProcessedPath(p.processedDir, keyword, date)
	if err := writeCSV(out, listings); err != nil {
		return listings, err
	}
	p.logger.Info("[processor] Wrote %d listings to %s", len(listings), out)

	if p.writer != nil {
		if err := p.writer.Write(listings); err != nil {
			return listings, fmt.Errorf("processor: store %s: %w", keyword, err)
		}
	}
	return listings, nil
}

// ProcessDays processes every keyword for today and the previous days,
// newest first. Failures are collected so one bad day does not hide the rest.
func (p *Processor) ProcessDays(ctx context.Context, keywords []string, today time.Time, prevDays int) (int, error) {
	total, failures := 0, 0
	for back := 0; back <= prevDays; back++ {
		day := today.AddDate(0, 0, -back)
		for _, kw := range keywords {
			listings, err := p.Process(ctx, kw, day)
			if err != nil {
				if ctx.Err() != nil {
					return total, ctx.Err()
				}
				p.logger.Error("[processor] %s on %s: %v", kw, day.Format(storage.DateLayout), err)
				failures++
				continue
			}
			total += len(listings)
		}
	}
	if failures > 0 {
		return total, fmt.Errorf("processor: %d keyword-days failed", failures)
	}
	return total, nil
}

func parsePage(path string) ([]*models.RawListing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return capture.ParseListings(f)
}

func writeCSV(path string, listings []*models.Listing) error {
	w, err := storage.NewCSVWriter(path)
	if err != nil {
		return err
	}
	if err := w.Write(listings); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
