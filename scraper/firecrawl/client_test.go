package firecrawl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Options{
		BaseURL:    srv.URL,
		APIKey:     "fc-test",
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Options{BaseURL: "http://localhost"})
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestScrapeWithJSONReturnsFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/scrape", r.URL.Path)
		require.Equal(t, "Bearer fc-test", r.Header.Get("Authorization"))
		body := decodeBody(t, r)
		require.Equal(t, "https://auctions.example/lot/1", body["url"])
		require.Contains(t, body, "jsonOptions")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"json":{"title":"80 Acres","acres":80,"county":"Story"}}}`))
	})

	fields := c.ScrapeWithJSON(context.Background(), "https://auctions.example/lot/1")
	require.NotNil(t, fields)
	require.Equal(t, "80 Acres", fields["title"])
	require.EqualValues(t, 80, fields["acres"])
}

func TestScrapeWithJSONProviderErrorYieldsNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"error":"boom"}`))
	})

	require.Nil(t, c.ScrapeWithJSON(context.Background(), "https://auctions.example/lot/1"))
}

func TestScrapeWithJSONMalformedYieldsNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"json":null}}`))
	})

	require.Nil(t, c.ScrapeWithJSON(context.Background(), "https://auctions.example/lot/1"))
}

func TestScrapeWithLinksFailureIsEmptyNotNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	res := c.ScrapeWithLinks(context.Background(), "https://auctions.example")
	require.NotNil(t, res.Links)
	require.Empty(t, res.Links)
	require.Empty(t, res.Markdown)
}

func TestScrapeListingURLs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"json":{"listing_urls":["https://a.example/1"," ","https://a.example/2"]}}}`))
	})

	res := c.ScrapeListingURLs(context.Background(), "https://a.example/auctions")
	require.Equal(t, []string{"https://a.example/1", "https://a.example/2"}, res.ListingURLs)
}

func TestScrapeListingURLsTimeoutIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{
		BaseURL:  srv.URL,
		APIKey:   "k",
		Timeouts: Timeouts{ListingURLs: 20 * time.Millisecond},
	})
	require.NoError(t, err)

	res := c.ScrapeListingURLs(context.Background(), "https://a.example/auctions")
	require.NotNil(t, res.ListingURLs)
	require.Empty(t, res.ListingURLs)
}

func TestMapSendsSearchAndLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/map", r.URL.Path)
		body := decodeBody(t, r)
		require.Equal(t, "land", body["search"])
		require.EqualValues(t, 100, body["limit"])
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"links":["https://a.example/x","https://a.example/y"]}`))
	})

	links, err := c.Map(context.Background(), "https://a.example", "land")
	require.NoError(t, err)
	require.Len(t, links, 2)
}

func TestMapPropagatesErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"error":"invalid token"}`))
	})

	_, err := c.Map(context.Background(), "https://a.example", "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestSearchDefaultsLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		require.EqualValues(t, 10, body["limit"])
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":[{"url":"https://a.example/lot","title":"Lot"}]}`))
	})

	results, err := c.Search(context.Background(), "a.example", 0)
	require.NoError(t, err)
	require.Equal(t, "https://a.example/lot", results[0].URL)
}

func TestExtractPropagatesUnsuccessfulEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/extract", r.URL.Path)
		body := decodeBody(t, r)
		require.Equal(t, false, body["allowExternalLinks"])
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false,"error":"schema invalid"}`))
	})

	_, err := c.Extract(context.Background(), []string{"https://a.example"}, "p", AuctionSchema(), false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "schema invalid")
}

func TestTransientErrorsAreRetried(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"links":["https://a.example/x"]}`))
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL, APIKey: "k", MaxRetries: 2, RetryDelay: time.Millisecond})
	require.NoError(t, err)

	links, err := c.Map(context.Background(), "https://a.example", "")
	require.NoError(t, err)
	require.Equal(t, []string{"https://a.example/x"}, links)
	require.EqualValues(t, 2, atomic.LoadInt64(&calls))
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	})
	c.retry.MaxAttempts = 3

	_, err := c.Search(context.Background(), "q", 5)
	require.Error(t, err)
	require.EqualValues(t, 1, atomic.LoadInt64(&calls))
}
