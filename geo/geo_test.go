package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"land-auction-scraper/models"
)

func TestCountyTableHas99Counties(t *testing.T) {
	require.Equal(t, 99, CountyCount())
}

func TestCountyCentroidNormalisesNames(t *testing.T) {
	want, ok := CountyCentroid("Story")
	require.True(t, ok)

	for _, name := range []string{"Story County", "story", " Story ", "STORY county", "story  County "} {
		got, ok := CountyCentroid(name)
		require.True(t, ok, name)
		require.Equal(t, want, got, name)
	}

	obrien, ok := CountyCentroid("OBrien County")
	require.True(t, ok)
	other, _ := CountyCentroid("O'Brien")
	require.Equal(t, other, obrien)
}

func TestCountyCentroidUnknown(t *testing.T) {
	_, ok := CountyCentroid("Nonexistent")
	require.False(t, ok)
	_, ok = CountyCentroid("")
	require.False(t, ok)
	_, ok = CountyCentroid("County")
	require.False(t, ok)
}

type fakeGeocoder struct {
	matches map[string]*GeocodingResult
	fail    map[string]bool
	queries []string
}

func (f *fakeGeocoder) Geocode(_ context.Context, q string) (*GeocodingResult, error) {
	f.queries = append(f.queries, q)
	if f.fail[q] {
		return nil, errors.New("geocoder down")
	}
	return f.matches[q], nil
}

func TestResolverPrefersEnrichedLocation(t *testing.T) {
	g := &fakeGeocoder{matches: map[string]*GeocodingResult{
		"123 Farm Rd, Ames, IA": {Latitude: 42.01, Longitude: -93.61},
		"Old Address":           {Latitude: 1, Longitude: 1},
	}}
	a := &models.Auction{
		AuctionFields:  models.AuctionFields{Address: "Old Address", County: "Story"},
		EnrichedFields: models.EnrichedFields{EnrichedPropertyLocation: "123 Farm Rd, Ames, IA"},
	}

	res := NewResolver(g, nil).Resolve(context.Background(), a)
	require.NotNil(t, res)
	require.Equal(t, models.GeocodePrecise, res.GeocodingMethod)
	require.Equal(t, SourcePropertyLocation, res.GeocodingSource)
	require.Equal(t, models.ConfidenceHigh, res.GeocodingConfidence)
	require.InDelta(t, 42.01, *res.Latitude, 1e-9)
	require.Equal(t, []string{"123 Farm Rd, Ames, IA"}, g.queries)
}

func TestResolverFallsBackToRawAddress(t *testing.T) {
	g := &fakeGeocoder{
		matches: map[string]*GeocodingResult{"1 Main St, Nevada, IA": {Latitude: 42.02, Longitude: -93.45}},
		fail:    map[string]bool{"Auction Barn": true},
	}
	a := &models.Auction{
		AuctionFields:  models.AuctionFields{Address: "1 Main St, Nevada, IA"},
		EnrichedFields: models.EnrichedFields{EnrichedAuctionLocation: "Auction Barn"},
	}

	res := NewResolver(g, nil).Resolve(context.Background(), a)
	require.NotNil(t, res)
	require.Equal(t, SourceAddress, res.GeocodingSource)
}

func TestResolverFallsBackToCountyCentroid(t *testing.T) {
	g := &fakeGeocoder{}
	a := &models.Auction{AuctionFields: models.AuctionFields{Address: "somewhere", County: "Story County"}}

	res := NewResolver(g, nil).Resolve(context.Background(), a)
	require.NotNil(t, res)
	want, _ := CountyCentroid("Story")
	require.Equal(t, models.GeocodeCountyCentroid, res.GeocodingMethod)
	require.Equal(t, models.ConfidenceLow, res.GeocodingConfidence)
	require.Equal(t, want.Latitude, *res.Latitude)
	require.Equal(t, want.Longitude, *res.Longitude)
}

func TestResolverEnrichedCountyWins(t *testing.T) {
	a := &models.Auction{
		AuctionFields:  models.AuctionFields{County: "Polk"},
		EnrichedFields: models.EnrichedFields{EnrichedCounty: "Boone"},
	}

	res := NewResolver(nil, nil).Resolve(context.Background(), a)
	want, _ := CountyCentroid("Boone")
	require.Equal(t, want.Latitude, *res.Latitude)
}

func TestResolverNoMatchIsNil(t *testing.T) {
	a := &models.Auction{AuctionFields: models.AuctionFields{County: "Nonexistent"}}
	require.Nil(t, NewResolver(&fakeGeocoder{}, nil).Resolve(context.Background(), a))
}

func TestNominatimGeocoderCachesResults(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("q") == "nowhere" {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(`[{"lat":"42.0362","lon":"-93.4650","display_name":"Story County, Iowa"}]`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(srv.URL, "test-agent", time.Minute)

	res, err := g.Geocode(context.Background(), "Nevada, Iowa")
	require.NoError(t, err)
	require.InDelta(t, 42.0362, res.Latitude, 1e-9)

	_, err = g.Geocode(context.Background(), "nevada, iowa")
	require.NoError(t, err)
	require.EqualValues(t, 1, atomic.LoadInt64(&calls))

	miss, err := g.Geocode(context.Background(), "nowhere")
	require.NoError(t, err)
	require.Nil(t, miss)
}

func TestUnavailableBoundaries(t *testing.T) {
	svc := NewUnavailableBoundaries(time.Minute)
	q := BoundaryQuery{Latitude: 42.03, Longitude: -93.46, RadiusMiles: 2, County: "Story County"}

	res, err := svc.Search(context.Background(), q)
	require.NoError(t, err)
	require.False(t, res.Available)
	require.NotEmpty(t, res.Reason)
	require.Empty(t, res.Boundaries)

	same := BoundaryQuery{Latitude: 42.03, Longitude: -93.46, RadiusMiles: 2, County: "story"}
	require.Equal(t, BoundaryCacheKey(q), BoundaryCacheKey(same))
	require.Equal(t, 1, svc.cache.Len())
}
