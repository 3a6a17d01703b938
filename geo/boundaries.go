package geo

import (
	"context"
	"time"

	"land-auction-scraper/utils"
)

// BoundaryQuery describes a field-boundary search around a point.
type BoundaryQuery struct {
	Latitude    float64
	Longitude   float64
	RadiusMiles float64
	County      string
}

// FieldBoundary is a single field polygon.
type FieldBoundary struct {
	ID       string
	Acres    float64
	Polygon  [][]LatLon
	Metadata map[string]string
}

// BoundaryResult is what a boundary search returns. Available is false while
// no spatial store backs the service; Reason explains why.
type BoundaryResult struct {
	Available  bool
	Reason     string
	Boundaries []FieldBoundary
}

// BoundaryService finds field boundaries near a point.
type BoundaryService interface {
	Search(ctx context.Context, q BoundaryQuery) (BoundaryResult, error)
}

const boundariesUnavailable = "field boundary service not configured"

// UnavailableBoundaries is the BoundaryService used until a spatial store
// exists. It always answers with an empty, unavailable result, served
// through the same TTL cache a real backend would use.
type UnavailableBoundaries struct {
	cache *utils.Cache[BoundaryResult]
}

// NewUnavailableBoundaries creates the stub service with a result TTL.
func NewUnavailableBoundaries(ttl time.Duration) *UnavailableBoundaries {
	return &UnavailableBoundaries{cache: utils.NewCache[BoundaryResult](256, ttl)}
}

// Search implements BoundaryService.
func (s *UnavailableBoundaries) Search(ctx context.Context, q BoundaryQuery) (BoundaryResult, error) {
	return s.cache.GetOrCompute(ctx, BoundaryCacheKey(q), func(context.Context) (BoundaryResult, error) {
		return BoundaryResult{Available: false, Reason: boundariesUnavailable, Boundaries: []FieldBoundary{}}, nil
	})
}

// BoundaryCacheKey is the deterministic cache key for a query.
func BoundaryCacheKey(q BoundaryQuery) string {
	return utils.CacheKey("boundaries", map[string]any{
		"lat":    q.Latitude,
		"lon":    q.Longitude,
		"radius": q.RadiusMiles,
		"county": normalizeCountyName(q.County),
	})
}
