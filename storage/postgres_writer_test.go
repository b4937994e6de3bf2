package storage

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"phone-tracker/models"
	"phone-tracker/utils"
)

func newMockWriter(t *testing.T) (*PostgresWriter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &PostgresWriter{db: sqlx.NewDb(db, "postgres"), logger: utils.Discard()}, mock
}

func okResult() driver.Result { return sqlmock.NewResult(0, 1) }

func expectRowStored(mock sqlmock.Sqlmock) {
	mock.ExpectExec("^SAVEPOINT listing_row$").WillReturnResult(okResult())
	mock.ExpectExec("INSERT INTO listings").WillReturnResult(okResult())
	mock.ExpectExec("^RELEASE SAVEPOINT listing_row$").WillReturnResult(okResult())
}

func TestPostgresWriteSkipsRejectedRow(t *testing.T) {
	pw, mock := newMockWriter(t)
	batch := sampleListings()

	mock.ExpectBegin()
	mock.ExpectExec("^SAVEPOINT listing_row$").WillReturnResult(okResult())
	mock.ExpectExec("INSERT INTO listings").
		WillReturnError(errors.New("pq: numeric field overflow"))
	mock.ExpectExec("^ROLLBACK TO SAVEPOINT listing_row$").WillReturnResult(okResult())
	expectRowStored(mock)
	mock.ExpectCommit()

	if err := pw.Write(batch); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresWriteContinuesAfterFailedBatch(t *testing.T) {
	pw, mock := newMockWriter(t)

	var listings []*models.Listing
	for i := 0; i < 51; i++ {
		l := *sampleListings()[0]
		l.Title = fmt.Sprintf("iPhone 11 #%d", i)
		listings = append(listings, &l)
	}

	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))
	mock.ExpectBegin()
	expectRowStored(mock)
	mock.ExpectCommit()

	err := pw.Write(listings)
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("Write error = %v; want the failed batch reported", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("second batch was not written: %v", err)
	}
}

func TestListingsSchemaFitsExtractedValues(t *testing.T) {
	for _, narrow := range []string{"NUMERIC(", "INTEGER"} {
		if strings.Contains(createListingsTable, narrow) {
			t.Errorf("schema still declares %s columns", narrow)
		}
	}
	for _, col := range []string{"price", "bat_health", "gb"} {
		if !strings.Contains(createListingsTable, "ALTER COLUMN "+col) {
			t.Errorf("existing tables are not widened for %s", col)
		}
	}
}
