package geo

import (
	"context"
	"strings"

	"land-auction-scraper/models"
	"land-auction-scraper/utils"
)

// Geocoding sources recorded on an Auction.
const (
	SourcePropertyLocation = "enrichedPropertyLocation"
	SourceAuctionLocation  = "enrichedAuctionLocation"
	SourceAddress          = "address"
	SourceCountyCentroid   = "county-centroid-table"
)

// Resolver picks coordinates for an Auction: enriched locations first, then
// the raw address, then the county centroid.
type Resolver struct {
	geocoder Geocoder
	logger   *utils.Logger
}

// NewResolver creates a Resolver. geocoder may be nil, which skips the
// precise tiers entirely.
func NewResolver(geocoder Geocoder, logger *utils.Logger) *Resolver {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Resolver{geocoder: geocoder, logger: logger}
}

// Resolve returns the geocoding for a, or nil when no tier matched.
func (r *Resolver) Resolve(ctx context.Context, a *models.Auction) *models.Geocoding {
	precise := []struct {
		query  string
		source string
	}{
		{a.EnrichedPropertyLocation, SourcePropertyLocation},
		{a.EnrichedAuctionLocation, SourceAuctionLocation},
		{a.Address, SourceAddress},
	}

	if r.geocoder != nil {
		for _, tier := range precise {
			q := strings.TrimSpace(tier.query)
			if q == "" {
				continue
			}
			res, err := r.geocoder.Geocode(ctx, q)
			if err != nil {
				r.logger.Warn("[geocode] %s lookup failed for auction %s: %v", tier.source, a.ID, err)
				continue
			}
			if res == nil {
				continue
			}
			return preciseGeocoding(res, tier.source)
		}
	}

	for _, county := range []string{a.EnrichedCounty, a.County} {
		if strings.TrimSpace(county) == "" {
			continue
		}
		if ll, ok := CountyCentroid(county); ok {
			return centroidGeocoding(ll)
		}
	}

	r.logger.Debug("[geocode] no match for auction %s", a.ID)
	return nil
}

func preciseGeocoding(res *GeocodingResult, source string) *models.Geocoding {
	lat, lon := res.Latitude, res.Longitude
	return &models.Geocoding{
		Latitude:            &lat,
		Longitude:           &lon,
		GeocodingMethod:     models.GeocodePrecise,
		GeocodingConfidence: models.ConfidenceHigh,
		GeocodingSource:     source,
	}
}

func centroidGeocoding(ll LatLon) *models.Geocoding {
	lat, lon := ll.Latitude, ll.Longitude
	return &models.Geocoding{
		Latitude:            &lat,
		Longitude:           &lon,
		GeocodingMethod:     models.GeocodeCountyCentroid,
		GeocodingConfidence: models.ConfidenceLow,
		GeocodingSource:     SourceCountyCentroid,
	}
}
