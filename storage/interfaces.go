package storage

import (
	"context"
	"errors"

	"land-auction-scraper/models"
)

// ErrNotFound is returned by UpdateAuctionEnrichment for unknown IDs.
var ErrNotFound = errors.New("storage: auction not found")

// AuctionStore is the persistence capability set the pipeline relies on.
// GetAuctionByID and FindAuctionByURL return (nil, nil) when nothing matches.
type AuctionStore interface {
	CreateAuction(ctx context.Context, fields models.AuctionFields) (*models.Auction, error)
	UpdateAuctionEnrichment(ctx context.Context, id string, patch models.EnrichmentPatch) (*models.Auction, error)
	GetAuctionByID(ctx context.Context, id string) (*models.Auction, error)
	FindAuctionByURL(ctx context.Context, url string) (*models.Auction, error)
	ListAuctions(ctx context.Context) ([]*models.Auction, error)
	Close() error
}

// AuctionExporter writes display-ready auction rows somewhere.
type AuctionExporter interface {
	WriteRows(rows []ExportRow) error
	Close() error
}
