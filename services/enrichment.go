package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"

	"land-auction-scraper/geo"
	"land-auction-scraper/models"
	"land-auction-scraper/scraper/firecrawl"
	"land-auction-scraper/storage"
	"land-auction-scraper/utils"
)

// Provider is the subset of the extraction client the pipeline uses.
// *firecrawl.Client satisfies it.
type Provider interface {
	Map(ctx context.Context, url, search string) ([]string, error)
	Search(ctx context.Context, query string, limit int) ([]firecrawl.SearchResult, error)
	ScrapeWithLinks(ctx context.Context, url string) firecrawl.LinksResult
	ScrapeListingURLs(ctx context.Context, url string) firecrawl.ListingURLsResult
	ScrapeWithJSON(ctx context.Context, url string) firecrawl.ExtractedFields
	Extract(ctx context.Context, urls []string, prompt string, schema map[string]any, allowExternalLinks bool) (*firecrawl.ExtractResult, error)
}

// Failure reasons recorded in Auction.EnrichmentError.
const (
	ReasonExtractionUnavailable = "extraction unavailable: provider returned no structured data"
	ReasonSchemaMismatch        = "schema mismatch: no title, description, location or acreage extracted"
)

// StageError ties an error to the pipeline stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// CanTransition reports whether an enrichment attempt may move a record from
// one status to another. Records never return to pending, and completed
// records only change through an explicit re-enrichment.
func CanTransition(from, to models.EnrichmentStatus) bool {
	if to != models.EnrichmentCompleted && to != models.EnrichmentFailed {
		return false
	}
	switch from {
	case models.EnrichmentPending, models.EnrichmentFailed:
		return true
	default:
		return false
	}
}

// EnrichOptions control a single enrichment attempt.
type EnrichOptions struct {
	// Force re-enriches records that are already completed.
	Force bool
	// Details also runs the property-details extraction.
	Details bool
}

// Enricher drives one Auction through pending -> completed | failed.
type Enricher struct {
	store    storage.AuctionStore
	provider Provider
	resolver *geo.Resolver
	cleaner  *Cleaner
	logger   *utils.Logger
}

// NewEnricher wires an Enricher. resolver may be nil to skip geocoding.
func NewEnricher(store storage.AuctionStore, provider Provider, resolver *geo.Resolver, logger *utils.Logger) *Enricher {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Enricher{
		store:    store,
		provider: provider,
		resolver: resolver,
		cleaner:  NewCleaner(logger),
		logger:   logger,
	}
}

// Enrich loads the auction with the given ID and runs one enrichment attempt
// on it. A completed auction is returned untouched unless opts.Force is set.
// Extraction problems are recorded on the auction; the returned error is only
// for records that could not be loaded or written.
func (e *Enricher) Enrich(ctx context.Context, id string, opts EnrichOptions) (*models.Auction, error) {
	a, err := e.store.GetAuctionByID(ctx, id)
	if err != nil {
		return nil, &StageError{Stage: "load", Err: err}
	}
	if a == nil {
		return nil, &StageError{Stage: "load", Err: storage.ErrNotFound}
	}
	return e.enrichAuction(ctx, a, opts)
}

func (e *Enricher) enrichAuction(ctx context.Context, a *models.Auction, opts EnrichOptions) (*models.Auction, error) {
	if a.EnrichmentStatus == models.EnrichmentCompleted && !opts.Force {
		e.logger.Debug("[enrich] %s already completed, skipping", a.ID)
		return a, nil
	}

	patch := e.buildPatch(ctx, a, opts)

	if !CanTransition(a.EnrichmentStatus, patch.Status) && !opts.Force {
		return nil, &StageError{
			Stage: "transition",
			Err:   fmt.Errorf("%s -> %s not allowed for %s", a.EnrichmentStatus, patch.Status, a.ID),
		}
	}

	// the terminal write must land even if the caller gave up meanwhile
	updated, err := e.store.UpdateAuctionEnrichment(context.WithoutCancel(ctx), a.ID, patch)
	if err != nil {
		return nil, &StageError{Stage: "persist", Err: err}
	}

	if patch.Status == models.EnrichmentFailed {
		e.logger.Warn("[enrich] %s failed: %s (%s)", a.ID, patch.Error, utils.TruncateURL(a.URL, 80))
	} else {
		e.logger.Info("[enrich] %s completed (%s)", a.ID, utils.TruncateURL(a.URL, 80))
	}
	return updated, nil
}

func (e *Enricher) buildPatch(ctx context.Context, a *models.Auction, opts EnrichOptions) models.EnrichmentPatch {
	raw := e.provider.ScrapeWithJSON(ctx, a.URL)
	if raw == nil {
		return models.EnrichmentPatch{Status: models.EnrichmentFailed, Error: ReasonExtractionUnavailable}
	}

	ext := e.cleaner.ToExtraction(raw)
	if ext.Empty() {
		return models.EnrichmentPatch{Status: models.EnrichmentFailed, Error: ReasonSchemaMismatch}
	}

	enriched := mergeEnriched(a.EnrichedFields, models.EnrichedFields{
		EnrichedTitle:            ext.Title,
		EnrichedDescription:      ext.Description,
		EnrichedAuctionDate:      ext.AuctionDate,
		EnrichedPropertyLocation: ext.Location,
		EnrichedAcreage:          ext.Acreage,
		EnrichedCounty:           ext.County,
		EnrichedState:            ext.State,
		EnrichedLandType:         ext.LandType,
	})
	patch := models.EnrichmentPatch{Status: models.EnrichmentCompleted, Enriched: &enriched}

	if opts.Details {
		if details, ok := e.extractDetails(ctx, a.URL); ok {
			patch.Details = &details
		}
	}

	if e.resolver != nil {
		candidate := a.Clone()
		candidate.EnrichedFields = enriched
		if g := e.resolver.Resolve(ctx, candidate); g != nil {
			patch.Geocoding = g
		}
	}
	return patch
}

// extractDetails runs the property-details extraction. Failures leave the
// existing details in place.
func (e *Enricher) extractDetails(ctx context.Context, url string) (models.PropertyDetails, bool) {
	res, err := e.provider.Extract(ctx, []string{url}, firecrawl.DetailsPrompt, firecrawl.DetailsSchema(), false)
	if err != nil {
		e.logger.Warn("[enrich] details extraction failed for %s: %v", utils.TruncateURL(url, 80), err)
		return models.PropertyDetails{}, false
	}
	if res == nil {
		return models.PropertyDetails{}, false
	}
	if len(res.Data) == 0 {
		e.logger.Debug("[enrich] details extraction for %s returned job %q without data", utils.TruncateURL(url, 80), res.ID)
		return models.PropertyDetails{}, false
	}

	var details models.PropertyDetails
	if err := json.Unmarshal(res.Data, &details); err != nil {
		e.logger.Warn("[enrich] %v", eris.Wrap(err, "decode property details"))
		return models.PropertyDetails{}, false
	}
	return details, true
}

// mergeEnriched layers next over prev; empty values in next never erase
// what an earlier attempt found.
func mergeEnriched(prev, next models.EnrichedFields) models.EnrichedFields {
	out := prev
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setString(&out.EnrichedTitle, next.EnrichedTitle)
	setString(&out.EnrichedDescription, next.EnrichedDescription)
	setString(&out.EnrichedAuctionDate, next.EnrichedAuctionDate)
	setString(&out.EnrichedAuctionHouse, next.EnrichedAuctionHouse)
	setString(&out.EnrichedAuctionLocation, next.EnrichedAuctionLocation)
	setString(&out.EnrichedPropertyLocation, next.EnrichedPropertyLocation)
	setString(&out.EnrichedCounty, next.EnrichedCounty)
	setString(&out.EnrichedState, next.EnrichedState)
	setString(&out.EnrichedLandType, next.EnrichedLandType)
	if next.EnrichedAcreage > 0 {
		out.EnrichedAcreage = next.EnrichedAcreage
	}
	return out
}
