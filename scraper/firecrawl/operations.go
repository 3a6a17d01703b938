package firecrawl

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// ScrapeResult is the page content returned by Scrape.
type ScrapeResult struct {
	Markdown string
	HTML     string
}

// LinksResult is the result of ScrapeWithLinks. It is never nil-valued: on
// failure both fields are empty.
type LinksResult struct {
	Links    []string
	Markdown string
	HTML     string
}

// ListingURLsResult holds property URLs pulled from a listing page.
type ListingURLsResult struct {
	ListingURLs []string `json:"listing_urls"`
}

// ExtractedFields are the raw schema keys returned for one property page.
// A nil value means extraction was unavailable, not that the page was empty.
type ExtractedFields map[string]any

// SearchResult is one hit from Search.
type SearchResult struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ExtractResult is the structured output of Extract. Long-running jobs come
// back with only an ID.
type ExtractResult struct {
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

type scrapeData struct {
	Markdown string          `json:"markdown"`
	HTML     string          `json:"html"`
	Links    []string        `json:"links"`
	JSON     json.RawMessage `json:"json"`
}

type scrapeResponse struct {
	Data scrapeData `json:"data"`
}

// Scrape fetches a page as markdown and HTML. Errors propagate.
func (c *Client) Scrape(ctx context.Context, url string) (ScrapeResult, error) {
	body := map[string]any{
		"url":     url,
		"formats": []string{"markdown", "html"},
	}

	var resp scrapeResponse
	if err := c.post(ctx, "scrape", "/scrape", c.timeouts.Scrape, body, &resp); err != nil {
		c.logger.Warn("[firecrawl] scrape failed for %s: %v", logURL(url), err)
		return ScrapeResult{}, err
	}
	return ScrapeResult{Markdown: resp.Data.Markdown, HTML: resp.Data.HTML}, nil
}

// ScrapeWithJSON extracts the auction fields from a property page. It returns
// nil on any failure, including a response without a JSON object.
func (c *Client) ScrapeWithJSON(ctx context.Context, url string) ExtractedFields {
	body := map[string]any{
		"url":     url,
		"formats": []string{"json"},
		"jsonOptions": map[string]any{
			"schema": AuctionSchema(),
			"prompt": auctionPrompt,
		},
	}

	var resp scrapeResponse
	if err := c.post(ctx, "scrape json", "/scrape", c.timeouts.ScrapeJSON, body, &resp); err != nil {
		c.logger.Warn("[firecrawl] json extraction unavailable for %s: %v", logURL(url), err)
		return nil
	}

	var fields ExtractedFields
	if len(resp.Data.JSON) == 0 {
		c.logger.Warn("[firecrawl] json extraction returned no object for %s", logURL(url))
		return nil
	}
	if err := json.Unmarshal(resp.Data.JSON, &fields); err != nil || fields == nil {
		c.logger.Warn("[firecrawl] malformed json extraction for %s", logURL(url))
		return nil
	}
	return fields
}

// ScrapeWithLinks returns the outbound links and markdown of a page. On
// failure it returns an empty result.
func (c *Client) ScrapeWithLinks(ctx context.Context, url string) LinksResult {
	body := map[string]any{
		"url":     url,
		"formats": []string{"links", "markdown", "html"},
	}

	var resp scrapeResponse
	if err := c.post(ctx, "scrape links", "/scrape", c.timeouts.ScrapeLinks, body, &resp); err != nil {
		c.logger.Warn("[firecrawl] link scrape failed for %s: %v", logURL(url), err)
		return LinksResult{Links: []string{}}
	}

	links := resp.Data.Links
	if links == nil {
		links = []string{}
	}
	return LinksResult{Links: links, Markdown: resp.Data.Markdown, HTML: resp.Data.HTML}
}

// ScrapeListingURLs asks the provider for the property detail URLs on a
// listing page. On failure it returns an empty list.
func (c *Client) ScrapeListingURLs(ctx context.Context, url string) ListingURLsResult {
	body := map[string]any{
		"url":     url,
		"formats": []string{"json"},
		"jsonOptions": map[string]any{
			"schema": ListingSchema(),
			"prompt": listingPrompt,
		},
	}

	empty := ListingURLsResult{ListingURLs: []string{}}

	var resp scrapeResponse
	if err := c.post(ctx, "scrape listing urls", "/scrape", c.timeouts.ListingURLs, body, &resp); err != nil {
		c.logger.Warn("[firecrawl] listing url scrape failed for %s: %v", logURL(url), err)
		return empty
	}

	var out ListingURLsResult
	if len(resp.Data.JSON) == 0 || json.Unmarshal(resp.Data.JSON, &out) != nil {
		c.logger.Warn("[firecrawl] malformed listing urls for %s", logURL(url))
		return empty
	}

	urls := make([]string, 0, len(out.ListingURLs))
	for _, u := range out.ListingURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return ListingURLsResult{ListingURLs: urls}
}

// Map discovers URLs on a site, optionally filtered by a search term.
func (c *Client) Map(ctx context.Context, url, search string) ([]string, error) {
	body := map[string]any{
		"url":   url,
		"limit": mapLimit,
	}
	if search != "" {
		body["search"] = search
	}

	var resp struct {
		Links []string `json:"links"`
	}
	if err := c.post(ctx, "map", "/map", c.timeouts.Map, body, &resp); err != nil {
		c.logger.Warn("[firecrawl] map failed for %s: %v", logURL(url), err)
		return nil, err
	}
	return resp.Links, nil
}

// Search runs a web search. A limit below 1 uses the default of 10.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit < 1 {
		limit = defaultSearchLimit
	}
	body := map[string]any{
		"query": query,
		"limit": limit,
	}

	var resp struct {
		Data []SearchResult `json:"data"`
	}
	if err := c.post(ctx, "search", "/search", c.timeouts.Search, body, &resp); err != nil {
		c.logger.Warn("[firecrawl] search failed for %q: %v", query, err)
		return nil, err
	}
	return resp.Data, nil
}

// Extract runs LLM extraction over one or more URLs.
func (c *Client) Extract(ctx context.Context, urls []string, prompt string, schema map[string]any, allowExternalLinks bool) (*ExtractResult, error) {
	body := map[string]any{
		"urls":               urls,
		"prompt":             prompt,
		"schema":             schema,
		"allowExternalLinks": allowExternalLinks,
	}

	var resp ExtractResult
	if err := c.post(ctx, "extract", "/extract", c.timeouts.Extract, body, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			c.logger.Error("[firecrawl] extract failed: status %d, body: %s", apiErr.StatusCode, apiErr.Message)
		} else {
			c.logger.Error("[firecrawl] extract failed for %d urls: %v", len(urls), err)
		}
		return nil, err
	}
	return &resp, nil
}
