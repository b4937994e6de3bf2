package storage

import (
	"context"
	"time"

	"phone-tracker/models"
)

// ListingWriter is the interface any storage backend for processed
// listings must satisfy.
type ListingWriter interface {
	Write(listings []*models.Listing) error
	Close() error
}

// ListingReader serves stored listings to the dashboard and the report.
type ListingReader interface {
	FetchAll(ctx context.Context) ([]*models.Listing, error)
	FetchSince(ctx context.Context, since time.Time) ([]*models.Listing, error)
}

// DateLayout is the capture date format used in paths and CSV cells.
const DateLayout = "2006-01-02"
