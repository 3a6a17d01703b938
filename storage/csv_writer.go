package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ExportRow is one display-ready auction as written to CSV.
type ExportRow struct {
	ID               string
	Title            string
	Acreage          string
	County           string
	State            string
	AuctionDate      string
	AuctionHouse     string
	Location         string
	LandType         string
	Latitude         string
	Longitude        string
	GeocodingMethod  string
	EnrichmentStatus string
	EnrichmentError  string
	SourceWebsite    string
	URL              string
}

var csvHeader = []string{
	"id", "title", "acreage", "county", "state", "auction_date", "auction_house", "location",
	"land_type", "latitude", "longitude", "geocoding_method", "enrichment_status",
	"enrichment_error", "source_website", "url",
}

// CSVWriter writes display-ready auction rows to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
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
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRows appends rows to the CSV file.
func (c *CSVWriter) WriteRows(rows []ExportRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range rows {
		record := []string{
			r.ID, r.Title, r.Acreage, r.County, r.State, r.AuctionDate, r.AuctionHouse, r.Location,
			r.LandType, r.Latitude, r.Longitude, r.GeocodingMethod, r.EnrichmentStatus,
			r.EnrichmentError, r.SourceWebsite, r.URL,
		}
		if err := c.writer.Write(record); err != nil {
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
