package geo

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"

	"land-auction-scraper/utils"
)

// GeocodingResult is a match returned by a Geocoder.
type GeocodingResult struct {
	Latitude    float64
	Longitude   float64
	Provider    string
	DisplayName string
}

// Geocoder resolves a free-form address. A nil result with a nil error means
// no match.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*GeocodingResult, error)
}

// NominatimGeocoder queries an OpenStreetMap Nominatim instance.
type NominatimGeocoder struct {
	http  *resty.Client
	cache *utils.Cache[*GeocodingResult]
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NewNominatimGeocoder creates a geocoder against baseURL. Results, including
// misses, are cached for cacheTTL.
func NewNominatimGeocoder(baseURL, userAgent string, cacheTTL time.Duration) *NominatimGeocoder {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	return &NominatimGeocoder{
		http:  client,
		cache: utils.NewCache[*GeocodingResult](4096, cacheTTL),
	}
}

// Geocode implements Geocoder.
func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (*GeocodingResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	key := utils.CacheKey("nominatim", map[string]any{"q": strings.ToLower(query)})
	return g.cache.GetOrCompute(ctx, key, func(ctx context.Context) (*GeocodingResult, error) {
		return g.lookup(ctx, query)
	})
}

func (g *NominatimGeocoder) lookup(ctx context.Context, query string) (*GeocodingResult, error) {
	var places []nominatimPlace
	resp, err := g.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":            query,
			"format":       "jsonv2",
			"limit":        "1",
			"countrycodes": "us",
		}).
		SetResult(&places).
		Get("/search")
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: search")
	}
	if resp.IsError() {
		return nil, eris.Errorf("nominatim: search: status %d", resp.StatusCode())
	}
	if len(places) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: parse lat")
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: parse lon")
	}
	return &GeocodingResult{
		Latitude:    lat,
		Longitude:   lon,
		Provider:    "nominatim",
		DisplayName: places[0].DisplayName,
	}, nil
}
