package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"land-auction-scraper/geo"
	"land-auction-scraper/models"
	"land-auction-scraper/scraper/firecrawl"
	"land-auction-scraper/storage"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.EnrichmentStatus
		want     bool
	}{
		{models.EnrichmentPending, models.EnrichmentCompleted, true},
		{models.EnrichmentPending, models.EnrichmentFailed, true},
		{models.EnrichmentFailed, models.EnrichmentCompleted, true},
		{models.EnrichmentFailed, models.EnrichmentFailed, true},
		{models.EnrichmentCompleted, models.EnrichmentPending, false},
		{models.EnrichmentCompleted, models.EnrichmentFailed, false},
		{models.EnrichmentCompleted, models.EnrichmentCompleted, false},
		{models.EnrichmentPending, models.EnrichmentPending, false},
		{models.EnrichmentFailed, models.EnrichmentPending, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v; want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func setupEnricher(t *testing.T) (*Enricher, *fakeProvider, *storage.MemoryStore, *models.Auction) {
	t.Helper()
	store := storage.NewMemoryStore()
	p := newFakeProvider()
	a, err := store.CreateAuction(context.Background(), models.AuctionFields{
		URL: "https://example.com/auctions/a", Title: "raw title", County: "Polk",
	})
	require.NoError(t, err)
	return NewEnricher(store, p, geo.NewResolver(nil, nil), nil), p, store, a
}

func TestEnrichCompletesPendingAuction(t *testing.T) {
	e, p, _, a := setupEnricher(t)
	p.fields[a.URL] = firecrawl.ExtractedFields{
		"title": "Boone 120", "acreage": 120.0, "county": "Boone", "location": "Boone, IA", "land_type": "Cropland",
	}

	got, err := e.Enrich(context.Background(), a.ID, EnrichOptions{})
	require.NoError(t, err)
	require.Equal(t, models.EnrichmentCompleted, got.EnrichmentStatus)
	require.Empty(t, got.EnrichmentError)
	require.Equal(t, "Boone 120", got.EnrichedTitle)
	require.Equal(t, "Boone, IA", got.EnrichedPropertyLocation)
	require.Equal(t, "Cropland", got.EnrichedLandType)
	require.Equal(t, "raw title", got.Title)

	want, _ := geo.CountyCentroid("Boone")
	require.Equal(t, want.Latitude, *got.Latitude)
	require.Equal(t, geo.SourceCountyCentroid, got.GeocodingSource)
}

func TestEnrichCompletedIsNoOpWithoutForce(t *testing.T) {
	e, p, _, a := setupEnricher(t)
	p.fields[a.URL] = storyFields("first")

	_, err := e.Enrich(context.Background(), a.ID, EnrichOptions{})
	require.NoError(t, err)

	p.fields[a.URL] = storyFields("second")
	got, err := e.Enrich(context.Background(), a.ID, EnrichOptions{})
	require.NoError(t, err)
	require.Equal(t, "first", got.EnrichedTitle)
	require.Equal(t, 1, p.jsonCalls[a.URL])

	got, err = e.Enrich(context.Background(), a.ID, EnrichOptions{Force: true})
	require.NoError(t, err)
	require.Equal(t, "second", got.EnrichedTitle)
	require.Equal(t, models.EnrichmentCompleted, got.EnrichmentStatus)
}

func TestEnrichRetriesFailedAndClearsError(t *testing.T) {
	e, p, store, a := setupEnricher(t)

	got, err := e.Enrich(context.Background(), a.ID, EnrichOptions{})
	require.NoError(t, err)
	require.Equal(t, models.EnrichmentFailed, got.EnrichmentStatus)
	require.Equal(t, ReasonExtractionUnavailable, got.EnrichmentError)

	p.fields[a.URL] = storyFields("recovered")
	got, err = e.Enrich(context.Background(), a.ID, EnrichOptions{})
	require.NoError(t, err)
	require.Equal(t, models.EnrichmentCompleted, got.EnrichmentStatus)
	require.Empty(t, got.EnrichmentError)

	stored, err := store.GetAuctionByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, "recovered", stored.EnrichedTitle)
}

func TestEnrichSchemaMismatchFails(t *testing.T) {
	e, p, _, a := setupEnricher(t)
	p.fields[a.URL] = firecrawl.ExtractedFields{"county": "Story", "state": nil}

	got, err := e.Enrich(context.Background(), a.ID, EnrichOptions{})
	require.NoError(t, err)
	require.Equal(t, models.EnrichmentFailed, got.EnrichmentStatus)
	require.Equal(t, ReasonSchemaMismatch, got.EnrichmentError)
}

func TestEnrichUnknownID(t *testing.T) {
	e, _, _, _ := setupEnricher(t)
	_, err := e.Enrich(context.Background(), "missing", EnrichOptions{})
	require.ErrorIs(t, err, storage.ErrNotFound)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, "load", stageErr.Stage)
}

func TestEnrichWithDetails(t *testing.T) {
	e, p, _, a := setupEnricher(t)
	p.fields[a.URL] = storyFields("detailed")
	p.details = `{"tillablePercent": 91.5, "improvements": ["grain bin"], "drainage": "pattern tiled"}`

	got, err := e.Enrich(context.Background(), a.ID, EnrichOptions{Details: true})
	require.NoError(t, err)
	require.InDelta(t, 91.5, *got.TillablePercent, 1e-9)
	require.Equal(t, []string{"grain bin"}, got.Improvements)
	require.Equal(t, "pattern tiled", got.Drainage)
}

func TestEnrichDetailsFailureStillCompletes(t *testing.T) {
	e, p, _, a := setupEnricher(t)
	p.fields[a.URL] = storyFields("no details")
	p.detailsErr = errors.New("extract: 429")

	got, err := e.Enrich(context.Background(), a.ID, EnrichOptions{Details: true})
	require.NoError(t, err)
	require.Equal(t, models.EnrichmentCompleted, got.EnrichmentStatus)
	require.Nil(t, got.TillablePercent)
}

func TestEnrichSurvivesCancelledContext(t *testing.T) {
	e, p, store, a := setupEnricher(t)
	p.fields[a.URL] = storyFields("late")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Enrich(ctx, a.ID, EnrichOptions{})
	require.NoError(t, err)

	stored, err := store.GetAuctionByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.NotEqual(t, models.EnrichmentPending, stored.EnrichmentStatus)
}

func TestMergeEnrichedKeepsEarlierValues(t *testing.T) {
	prev := models.EnrichedFields{EnrichedTitle: "old", EnrichedAuctionHouse: "Peoples Co", EnrichedAcreage: 80}
	got := mergeEnriched(prev, models.EnrichedFields{EnrichedTitle: "new"})
	require.Equal(t, models.EnrichedFields{EnrichedTitle: "new", EnrichedAuctionHouse: "Peoples Co", EnrichedAcreage: 80}, got)
}
