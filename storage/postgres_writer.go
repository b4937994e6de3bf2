package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"phone-tracker/models"
	"phone-tracker/utils"
)

// PostgresWriter persists processed listings to PostgreSQL and reads them
// back for scoring. Exact duplicate rows are dropped on insert.
type PostgresWriter struct {
	db     *sqlx.DB
	logger *utils.Logger
}

// listingRow is a Listing plus the hash that makes exact duplicates collide.
type listingRow struct {
	models.Listing
	RowHash string `db:"row_hash"`
}

const selectColumns = `title, price, distance, description, link, date, bat_health, gb, sentiment, type`

const insertListing = `
	INSERT INTO listings (row_hash, title, price, distance, description, link, date, bat_health, gb, sentiment, type)
	VALUES (:row_hash, :title, :price, :distance, :description, :link, :date, :bat_health, :gb, :sentiment, :type)
	ON CONFLICT (row_hash) DO NOTHING`

const createListingsTable = `
	CREATE TABLE IF NOT EXISTS listings (
		id          SERIAL PRIMARY KEY,
		row_hash    CHAR(64)         UNIQUE NOT NULL,
		title       TEXT             NOT NULL,
		price       DOUBLE PRECISION NOT NULL,
		distance    DOUBLE PRECISION,
		description TEXT             NOT NULL DEFAULT '',
		link        TEXT             NOT NULL DEFAULT '',
		date        DATE             NOT NULL,
		bat_health  DOUBLE PRECISION NOT NULL,
		gb          BIGINT           NOT NULL DEFAULT 32,
		sentiment   DOUBLE PRECISION NOT NULL DEFAULT 0,
		type        VARCHAR(100)     NOT NULL
	);

	ALTER TABLE listings
		ALTER COLUMN price      TYPE DOUBLE PRECISION,
		ALTER COLUMN distance   TYPE DOUBLE PRECISION,
		ALTER COLUMN bat_health TYPE DOUBLE PRECISION,
		ALTER COLUMN gb         TYPE BIGINT,
		ALTER COLUMN sentiment  TYPE DOUBLE PRECISION;

	CREATE INDEX IF NOT EXISTS idx_listings_date ON listings(date);
	CREATE INDEX IF NOT EXISTS idx_listings_type ON listings(type);
`

// rowSavepoint isolates one insert so a rejected row does not abort its batch.
const rowSavepoint = "listing_row"

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db, logger: logger}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(createListingsTable)
	return err
}

// Write batch-inserts listings, skipping rows already stored verbatim.
// A row the database rejects is logged and skipped; only failures that
// lose a whole batch are returned, after every batch has been tried.
func (pw *PostgresWriter) Write(listings []*models.Listing) error {
	const batchSize = 50
	var errs []error
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := pw.insertBatch(listings[i:end]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (pw *PostgresWriter) insertBatch(batch []*models.Listing) error {
	tx, err := pw.db.Beginx()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}

	skipped := 0
	for _, l := range batch {
		if err := insertRow(tx, l); err != nil {
			if _, rbErr := tx.Exec("ROLLBACK TO SAVEPOINT " + rowSavepoint); rbErr != nil {
				_ = tx.Rollback()
				return fmt.Errorf("postgres: recover from %q: %w", l.Title, rbErr)
			}
			pw.logger.Warn("[postgres] Skipping listing %q: %v", l.Title, err)
			skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	if skipped > 0 {
		pw.logger.Warn("[postgres] Skipped %d of %d listings in batch", skipped, len(batch))
	}
	return nil
}

func insertRow(tx *sqlx.Tx, l *models.Listing) error {
	if _, err := tx.Exec("SAVEPOINT " + rowSavepoint); err != nil {
		return err
	}
	row := listingRow{Listing: *l, RowHash: RowHash(l)}
	if _, err := tx.NamedExec(insertListing, row); err != nil {
		return err
	}
	_, err := tx.Exec("RELEASE SAVEPOINT " + rowSavepoint)
	return err
}

// FetchAll retrieves all stored listings, oldest capture first.
func (pw *PostgresWriter) FetchAll(ctx context.Context) ([]*models.Listing, error) {
	var listings []*models.Listing
	err := pw.db.SelectContext(ctx, &listings,
		`SELECT `+selectColumns+` FROM listings ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	return listings, nil
}

// FetchSince retrieves the listings captured on or after since.
func (pw *PostgresWriter) FetchSince(ctx context.Context, since time.Time) ([]*models.Listing, error) {
	var listings []*models.Listing
	err := pw.db.SelectContext(ctx, &listings,
		`SELECT `+selectColumns+` FROM listings WHERE date >= $1 ORDER BY date, id`,
		since.Format(DateLayout))
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch since %s: %w", since.Format(DateLayout), err)
	}
	return listings, nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// RowHash fingerprints every stored column of l, so two rows collide only
// when they are identical.
func RowHash(l *models.Listing) string {
	sum := sha256.Sum256([]byte(strings.Join(toRow(l), "\x1f")))
	return hex.EncodeToString(sum[:])
}
