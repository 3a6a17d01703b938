package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"land-auction-scraper/models"
	"land-auction-scraper/utils"
)

// Dialect selects placeholder style and driver.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// SQLStore persists auctions in PostgreSQL or SQLite.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use store.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
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

	return newSQLStore(db, DialectPostgres)
}

// NewSQLiteStore opens (or creates) a SQLite database at path. Use ":memory:"
// for a throwaway database.
func NewSQLiteStore(path string) (*SQLStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// one connection keeps :memory: databases shared and serialises writes
	db.SetMaxOpenConns(1)

	return newSQLStore(db, DialectSQLite)
}

func newSQLStore(db *sql.DB, dialect Dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: dialect}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: migrate: %w", dialect, err)
	}
	return s, nil
}

var schema = []string{`
	CREATE TABLE IF NOT EXISTS auctions (
		id                          TEXT PRIMARY KEY,
		url                         TEXT NOT NULL DEFAULT '',
		url_key                     TEXT UNIQUE,
		source_website              TEXT NOT NULL DEFAULT '',
		title                       TEXT NOT NULL DEFAULT '',
		description                 TEXT NOT NULL DEFAULT '',
		auction_date                TEXT NOT NULL DEFAULT '',
		address                     TEXT NOT NULL DEFAULT '',
		acreage                     DOUBLE PRECISION NOT NULL DEFAULT 0,
		county                      TEXT NOT NULL DEFAULT '',
		state                       TEXT NOT NULL DEFAULT '',
		enriched_title              TEXT NOT NULL DEFAULT '',
		enriched_description        TEXT NOT NULL DEFAULT '',
		enriched_auction_date       TEXT NOT NULL DEFAULT '',
		enriched_auction_house      TEXT NOT NULL DEFAULT '',
		enriched_auction_location   TEXT NOT NULL DEFAULT '',
		enriched_property_location  TEXT NOT NULL DEFAULT '',
		enriched_acreage            DOUBLE PRECISION NOT NULL DEFAULT 0,
		enriched_county             TEXT NOT NULL DEFAULT '',
		enriched_state              TEXT NOT NULL DEFAULT '',
		enriched_land_type          TEXT NOT NULL DEFAULT '',
		details                     TEXT NOT NULL DEFAULT '{}',
		latitude                    DOUBLE PRECISION,
		longitude                   DOUBLE PRECISION,
		geocoding_method            TEXT NOT NULL DEFAULT '',
		geocoding_confidence        TEXT NOT NULL DEFAULT '',
		geocoding_source            TEXT NOT NULL DEFAULT '',
		enrichment_status           TEXT NOT NULL DEFAULT 'pending',
		enrichment_error            TEXT NOT NULL DEFAULT '',
		status                      TEXT NOT NULL DEFAULT 'active',
		created_at                  TEXT NOT NULL,
		updated_at                  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_auctions_enrichment_status ON auctions(enrichment_status)`,
	`CREATE INDEX IF NOT EXISTS idx_auctions_county ON auctions(county)`,
	`CREATE INDEX IF NOT EXISTS idx_auctions_source_website ON auctions(source_website)`,
}

func (s *SQLStore) migrate() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

const auctionColumns = `id, url, source_website, title, description, auction_date, address, acreage,
	county, state, enriched_title, enriched_description, enriched_auction_date, enriched_auction_house,
	enriched_auction_location, enriched_property_location, enriched_acreage, enriched_county,
	enriched_state, enriched_land_type, details, latitude, longitude, geocoding_method,
	geocoding_confidence, geocoding_source, enrichment_status, enrichment_error, status,
	created_at, updated_at`

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) CreateAuction(ctx context.Context, fields models.AuctionFields) (*models.Auction, error) {
	now := time.Now().UTC()
	a := &models.Auction{
		ID:               uuid.NewString(),
		AuctionFields:    fields,
		EnrichmentStatus: models.EnrichmentPending,
		Status:           models.AuctionActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var urlKey sql.NullString
	if key := utils.NormalizeURL(fields.URL); key != "" {
		urlKey = sql.NullString{String: key, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO auctions (id, url, url_key, source_website, title, description, auction_date,
			address, acreage, county, state, enrichment_status, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		a.ID, fields.URL, urlKey, fields.SourceWebsite, fields.Title, fields.Description,
		fields.AuctionDate, fields.Address, fields.Acreage, fields.County, fields.State,
		string(a.EnrichmentStatus), string(a.Status), formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, eris.Wrap(err, "storage: create auction")
	}
	return a, nil
}

func (s *SQLStore) UpdateAuctionEnrichment(ctx context.Context, id string, patch models.EnrichmentPatch) (*models.Auction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "storage: begin update")
	}
	defer tx.Rollback()

	a, err := s.getOne(ctx, tx, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}

	patch.Apply(a)
	a.UpdatedAt = time.Now().UTC()

	details, err := json.Marshal(a.PropertyDetails)
	if err != nil {
		return nil, eris.Wrap(err, "storage: encode details")
	}

	e := a.EnrichedFields
	_, err = tx.ExecContext(ctx, s.rebind(`
		UPDATE auctions SET
			enriched_title = ?, enriched_description = ?, enriched_auction_date = ?,
			enriched_auction_house = ?, enriched_auction_location = ?, enriched_property_location = ?,
			enriched_acreage = ?, enriched_county = ?, enriched_state = ?, enriched_land_type = ?,
			details = ?, latitude = ?, longitude = ?, geocoding_method = ?, geocoding_confidence = ?,
			geocoding_source = ?, enrichment_status = ?, enrichment_error = ?, updated_at = ?
		WHERE id = ?`),
		e.EnrichedTitle, e.EnrichedDescription, e.EnrichedAuctionDate,
		e.EnrichedAuctionHouse, e.EnrichedAuctionLocation, e.EnrichedPropertyLocation,
		e.EnrichedAcreage, e.EnrichedCounty, e.EnrichedState, e.EnrichedLandType,
		string(details), nullFloat(a.Latitude), nullFloat(a.Longitude), a.GeocodingMethod,
		a.GeocodingConfidence, a.GeocodingSource, string(a.EnrichmentStatus), a.EnrichmentError,
		formatTime(a.UpdatedAt), id,
	)
	if err != nil {
		return nil, eris.Wrap(err, "storage: update enrichment")
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "storage: commit update")
	}
	return a, nil
}

func (s *SQLStore) GetAuctionByID(ctx context.Context, id string) (*models.Auction, error) {
	return s.getOne(ctx, s.db, "id = ?", id)
}

func (s *SQLStore) FindAuctionByURL(ctx context.Context, url string) (*models.Auction, error) {
	key := utils.NormalizeURL(url)
	if key == "" {
		return nil, nil
	}
	return s.getOne(ctx, s.db, "url_key = ?", key)
}

// ListAuctions retrieves all stored auctions in creation order.
func (s *SQLStore) ListAuctions(ctx context.Context) ([]*models.Auction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+auctionColumns+` FROM auctions ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "storage: list auctions")
	}
	defer rows.Close()

	var out []*models.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) getOne(ctx context.Context, q queryer, where string, arg any) (*models.Auction, error) {
	row := q.QueryRowContext(ctx, s.rebind(`SELECT `+auctionColumns+` FROM auctions WHERE `+where), arg)
	a, err := scanAuction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAuction(sc scanner) (*models.Auction, error) {
	var (
		a                    models.Auction
		details              string
		lat, lon             sql.NullFloat64
		enrichStatus, status string
		createdAt, updatedAt string
	)
	err := sc.Scan(
		&a.ID, &a.URL, &a.SourceWebsite, &a.Title, &a.Description, &a.AuctionDate, &a.Address, &a.Acreage,
		&a.County, &a.State, &a.EnrichedTitle, &a.EnrichedDescription, &a.EnrichedAuctionDate,
		&a.EnrichedAuctionHouse, &a.EnrichedAuctionLocation, &a.EnrichedPropertyLocation,
		&a.EnrichedAcreage, &a.EnrichedCounty, &a.EnrichedState, &a.EnrichedLandType, &details,
		&lat, &lon, &a.GeocodingMethod, &a.GeocodingConfidence, &a.GeocodingSource,
		&enrichStatus, &a.EnrichmentError, &status, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "storage: scan auction")
	}

	if details != "" {
		if err := json.Unmarshal([]byte(details), &a.PropertyDetails); err != nil {
			return nil, eris.Wrap(err, "storage: decode details")
		}
	}
	if lat.Valid {
		v := lat.Float64
		a.Latitude = &v
	}
	if lon.Valid {
		v := lon.Float64
		a.Longitude = &v
	}
	a.EnrichmentStatus = models.EnrichmentStatus(enrichStatus)
	a.Status = models.AuctionStatus(status)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
