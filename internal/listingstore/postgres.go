package listingstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	apperrors "listing-workers/internal/common/errors"
	"listing-workers/internal/common/logger"
	"listing-workers/internal/common/metrics"
	"listing-workers/internal/models"
)

const sourcePostgres = "postgres"

const defaultPageSize = 1000

// PostgresSource reads listings from a table with the columns id, title,
// description, rent, sqm, available_to (JSONB array of gender names),
// listing_type, published, city and zip_code.
type PostgresSource struct {
	db       *sql.DB
	table    string
	pageSize int
	logger   logger.Logger
}

func NewPostgresSource(db *sql.DB, table string, pageSize int, log logger.Logger) *PostgresSource {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &PostgresSource{
		db:       db,
		table:    table,
		pageSize: pageSize,
		logger:   log.WithFields(map[string]interface{}{"source": sourcePostgres}),
	}
}

func (s *PostgresSource) selectColumns() string {
	return fmt.Sprintf(`SELECT id, title, description, rent, sqm, available_to, listing_type, published, city, zip_code
		FROM %s`, pq.QuoteIdentifier(s.table))
}

// GetListings reads the whole table ordered by id, pageSize rows at a time
// using the last id of each page as the cursor. Rows that cannot be mapped
// to a listing are logged and skipped.
func (s *PostgresSource) GetListings(ctx context.Context) ([]models.Listing, error) {
	listings := make([]models.Listing, 0)
	after := ""
	pages := 0

	for {
		page, last, n, err := s.readPage(ctx, after)
		if err != nil {
			return nil, err
		}
		pages++
		listings = append(listings, page...)
		if n < s.pageSize || last == "" {
			break
		}
		after = last
	}

	metrics.ListingSnapshotSize.WithLabelValues(sourcePostgres).Set(float64(len(listings)))
	s.logger.Debug("listing snapshot loaded", map[string]interface{}{
		"count": len(listings),
		"pages": pages,
	})

	return listings, nil
}

// readPage returns the decoded listings of one page, the id of the last row
// read and the number of rows read, skipped rows included.
func (s *PostgresSource) readPage(ctx context.Context, after string) ([]models.Listing, string, int, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if after == "" {
		rows, err = s.db.QueryContext(ctx, s.selectColumns()+" ORDER BY id LIMIT $1", s.pageSize)
	} else {
		rows, err = s.db.QueryContext(ctx, s.selectColumns()+" WHERE id > $1 ORDER BY id LIMIT $2", after, s.pageSize)
	}
	if err != nil {
		return nil, "", 0, s.queryError(ctx, err)
	}
	defer rows.Close()

	var (
		listings []models.Listing
		last     string
		n        int
	)
	for rows.Next() {
		rec, availableTo, err := scanRecord(rows)
		if err != nil {
			return nil, "", 0, s.queryError(ctx, err)
		}
		n++
		last = rec.ID

		l, err := decodeRow(rec, availableTo)
		if err != nil {
			s.logger.Warn("skipping listing row", map[string]interface{}{"id": rec.ID, "error": err})
			continue
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, "", 0, s.queryError(ctx, err)
	}

	return listings, last, n, nil
}

func (s *PostgresSource) FindListing(ctx context.Context, id uuid.UUID) (models.Listing, error) {
	row := s.db.QueryRowContext(ctx, s.selectColumns()+" WHERE id = $1", id.String())

	rec, availableTo, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Listing{}, ErrListingNotFound
	}
	if err != nil {
		return models.Listing{}, s.queryError(ctx, err)
	}

	l, err := decodeRow(rec, availableTo)
	if err != nil {
		return models.Listing{}, apperrors.NewQueryExecutionFailedError(s.table, err)
	}
	return l, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (record, []byte, error) {
	var (
		rec         record
		availableTo []byte
	)
	err := row.Scan(&rec.ID, &rec.Title, &rec.Description, &rec.Rent, &rec.Sqm,
		&availableTo, &rec.ListingType, &rec.Published, &rec.City, &rec.ZipCode)
	return rec, availableTo, err
}

func decodeRow(rec record, availableTo []byte) (models.Listing, error) {
	if len(availableTo) > 0 {
		if err := json.Unmarshal(availableTo, &rec.AvailableTo); err != nil {
			return models.Listing{}, fmt.Errorf("available_to of listing %s: %w", rec.ID, err)
		}
	}
	return rec.toListing()
}

func (s *PostgresSource) queryError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewQueryTimeoutError(sourcePostgres)
	}
	return apperrors.NewQueryExecutionFailedError(s.table, err)
}
