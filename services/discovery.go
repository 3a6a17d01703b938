package services

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"land-auction-scraper/models"
	"land-auction-scraper/storage"
	"land-auction-scraper/utils"
)

// DiscoveryState is the stage a discovery run has reached.
type DiscoveryState string

const (
	StateSeeded          DiscoveryState = "seeded"
	StateMapped          DiscoveryState = "mapped"
	StateCandidatesFound DiscoveryState = "candidates_found"
	StateExtracted       DiscoveryState = "extracted"
	StateDone            DiscoveryState = "done"
	StateEmpty           DiscoveryState = "empty"
)

// propertyPathRegexp matches paths that look like a single property or auction page.
var propertyPathRegexp = regexp.MustCompile(`(?i)/(auctions?|property|properties|listings?|land|farms?|tracts?|lots?)/[^/]+`)

// LinkCollector reads links from a rendered page. *browser.LinkCollector
// satisfies it.
type LinkCollector interface {
	CollectLinks(ctx context.Context, pageURL string) ([]string, error)
}

// DiscoveryConfig bounds a discovery run.
type DiscoveryConfig struct {
	MaxConcurrency       int
	RateLimitMs          int
	MaxCandidates        int
	ListingLinkThreshold int
	BrowserFallback      bool
}

// DiscoveryOptions are per-run switches.
type DiscoveryOptions struct {
	// Search narrows the site map to URLs matching a term.
	Search string
	// Reenrich re-extracts properties that are already completed.
	Reenrich bool
	// Details also extracts property details for each auction.
	Details bool
}

// PropertyResult is the outcome for one property URL.
type PropertyResult struct {
	URL       string
	AuctionID string
	Status    models.EnrichmentStatus
	Error     string
	Skipped   bool
}

// DiscoveryResult is what a discovery run produced.
type DiscoveryResult struct {
	SeedURL      string
	State        DiscoveryState
	History      []DiscoveryState
	Candidates   []string
	PropertyURLs []string
	Results      []PropertyResult
}

func (r *DiscoveryResult) advance(s DiscoveryState) {
	r.State = s
	r.History = append(r.History, s)
}

// AuctionIDs returns the IDs of every auction the run touched.
func (r *DiscoveryResult) AuctionIDs() []string {
	ids := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		if res.AuctionID != "" {
			ids = append(ids, res.AuctionID)
		}
	}
	return ids
}

// Discovery turns a seed URL into enriched Auction records.
type Discovery struct {
	provider Provider
	browser  LinkCollector
	store    storage.AuctionStore
	enricher *Enricher
	cfg      DiscoveryConfig
	logger   *utils.Logger
}

// NewDiscovery wires a Discovery. browser may be nil.
func NewDiscovery(provider Provider, browser LinkCollector, store storage.AuctionStore, enricher *Enricher, cfg DiscoveryConfig, logger *utils.Logger) *Discovery {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	if cfg.ListingLinkThreshold < 1 {
		cfg.ListingLinkThreshold = 20
	}
	return &Discovery{
		provider: provider,
		browser:  browser,
		store:    store,
		enricher: enricher,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run executes a full discovery pass over seed. Per-URL failures are recorded
// in the result; the error is reserved for an invalid seed or a seed stage
// where every provider call failed.
func (d *Discovery) Run(ctx context.Context, seed string, opts DiscoveryOptions) (*DiscoveryResult, error) {
	res := &DiscoveryResult{SeedURL: seed}
	res.advance(StateSeeded)

	if utils.NormalizeURL(seed) == "" {
		res.advance(StateEmpty)
		return res, &StageError{Stage: "seed", Err: errors.New("seed must be an absolute http(s) URL")}
	}

	candidates, err := d.resolveSeed(ctx, seed, opts.Search)
	if len(candidates) == 0 {
		res.advance(StateEmpty)
		d.logger.Warn("[discovery] no candidates for %s", seed)
		if err != nil {
			return res, &StageError{Stage: "seed", Err: err}
		}
		return res, nil
	}
	res.Candidates = candidates
	res.advance(StateMapped)
	d.logger.Info("[discovery] %d candidate pages for %s", len(candidates), seed)

	properties := d.expandCandidates(ctx, candidates)
	if len(properties) == 0 {
		res.advance(StateEmpty)
		d.logger.Warn("[discovery] no property urls found under %s", seed)
		return res, nil
	}
	res.PropertyURLs = properties
	res.advance(StateCandidatesFound)
	d.logger.Info("[discovery] %d property urls to extract", len(properties))

	res.Results = d.extractAll(ctx, properties, opts)
	res.advance(StateExtracted)

	res.advance(StateDone)
	return res, nil
}

// resolveSeed maps the seed site, falling back to a search on its domain.
func (d *Discovery) resolveSeed(ctx context.Context, seed, search string) ([]string, error) {
	set := utils.NewURLSet()

	links, mapErr := d.provider.Map(ctx, seed, search)
	if mapErr != nil {
		d.logger.Warn("[discovery] map failed for %s, falling back to search: %v", seed, mapErr)
	}
	for _, l := range links {
		set.Add(l)
	}

	var searchErr error
	if set.Size() == 0 {
		domain := utils.Hostname(seed)
		var hits []string
		hits, searchErr = d.search(ctx, domain)
		for _, h := range hits {
			set.Add(h)
		}
	}

	candidates := set.List()
	if d.cfg.MaxCandidates > 0 && len(candidates) > d.cfg.MaxCandidates {
		d.logger.Debug("[discovery] capping %d candidates at %d", len(candidates), d.cfg.MaxCandidates)
		candidates = candidates[:d.cfg.MaxCandidates]
	}
	return candidates, errors.Join(mapErr, searchErr)
}

func (d *Discovery) search(ctx context.Context, query string) ([]string, error) {
	results, err := d.provider.Search(ctx, query, 0)
	if err != nil {
		d.logger.Warn("[discovery] search fallback failed for %q: %v", query, err)
		return nil, err
	}
	urls := make([]string, 0, len(results))
	for _, r := range results {
		urls = append(urls, r.URL)
	}
	return urls, nil
}

// expandCandidates classifies every candidate and merges the property URLs
// they yield, deduplicated, in candidate order.
func (d *Discovery) expandCandidates(ctx context.Context, candidates []string) []string {
	found := make([][]string, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.MaxConcurrency)
	for i, c := range candidates {
		g.Go(func() error {
			found[i] = d.classify(gctx, c)
			return nil
		})
	}
	_ = g.Wait()

	set := utils.NewURLSet()
	for _, urls := range found {
		for _, u := range urls {
			set.Add(u)
		}
	}
	return set.List()
}

// classify returns the property URLs behind one candidate: the candidate
// itself when it is a detail page, or the detail pages a listing page links to.
func (d *Discovery) classify(ctx context.Context, pageURL string) []string {
	if ctx.Err() != nil {
		return nil
	}

	page := d.provider.ScrapeWithLinks(ctx, pageURL)
	links := page.Links
	if len(links) == 0 && page.HTML == "" && d.cfg.BrowserFallback && d.browser != nil {
		collected, err := d.browser.CollectLinks(ctx, pageURL)
		if err != nil {
			d.logger.Warn("[discovery] browser fallback failed for %s: %v", utils.TruncateURL(pageURL, 80), err)
		} else {
			links = collected
		}
	}

	if countOutboundLinks(pageURL, page.HTML, links) < d.cfg.ListingLinkThreshold {
		return []string{pageURL}
	}

	d.logger.Debug("[discovery] %s looks like a listing page", utils.TruncateURL(pageURL, 80))
	listed := d.provider.ScrapeListingURLs(ctx, pageURL).ListingURLs
	if urls := resolveAll(pageURL, listed); len(urls) > 0 {
		return urls
	}

	fallback := propertyLinks(pageURL, links)
	d.logger.Debug("[discovery] listing extraction empty for %s, %d property-like links instead",
		utils.TruncateURL(pageURL, 80), len(fallback))
	return fallback
}

// extractAll runs per-property extraction on the worker pool. Every URL gets
// exactly one result slot. Once ctx is done no new URL starts; extractions
// already running finish on a detached context.
func (d *Discovery) extractAll(ctx context.Context, urls []string, opts DiscoveryOptions) []PropertyResult {
	results := make([]PropertyResult, len(urls))
	pool := utils.NewWorkerPool(d.cfg.MaxConcurrency, d.cfg.RateLimitMs)
	detached := context.WithoutCancel(ctx)

	for i, u := range urls {
		started := pool.Submit(ctx, func() {
			results[i] = d.extractOne(detached, u, opts)
		})
		if !started {
			results[i] = PropertyResult{URL: u, Skipped: true, Error: "run cancelled before extraction started"}
		}
	}
	pool.Wait()

	var completed, failed int
	for _, r := range results {
		switch r.Status {
		case models.EnrichmentCompleted:
			completed++
		case models.EnrichmentFailed:
			failed++
		}
	}
	d.logger.Info("[discovery] extraction finished: %d completed, %d failed, %d total", completed, failed, len(results))
	return results
}

func (d *Discovery) extractOne(ctx context.Context, pageURL string, opts DiscoveryOptions) PropertyResult {
	out := PropertyResult{URL: pageURL}

	a, err := d.store.FindAuctionByURL(ctx, pageURL)
	if err != nil {
		out.Error = (&StageError{Stage: "lookup", Err: err}).Error()
		return out
	}

	if a != nil && a.EnrichmentStatus == models.EnrichmentCompleted && !opts.Reenrich {
		out.AuctionID = a.ID
		out.Status = a.EnrichmentStatus
		out.Skipped = true
		return out
	}

	if a == nil {
		a, err = d.store.CreateAuction(ctx, models.AuctionFields{
			URL:           pageURL,
			SourceWebsite: utils.Hostname(pageURL),
		})
		if err != nil {
			out.Error = (&StageError{Stage: "create", Err: err}).Error()
			return out
		}
	}
	out.AuctionID = a.ID

	updated, err := d.enricher.enrichAuction(ctx, a, EnrichOptions{Force: opts.Reenrich, Details: opts.Details})
	if err != nil {
		out.Status = a.EnrichmentStatus
		out.Error = err.Error()
		return out
	}
	out.Status = updated.EnrichmentStatus
	out.Error = updated.EnrichmentError
	return out
}

// countOutboundLinks counts distinct absolute links on a page other than the
// page itself. HTML is preferred when present.
func countOutboundLinks(pageURL, html string, links []string) int {
	self := utils.NormalizeURL(pageURL)
	seen := make(map[string]struct{})
	add := func(href string) {
		abs := utils.NormalizeURL(resolveURL(pageURL, href))
		if abs == "" || abs == self {
			return
		}
		seen[abs] = struct{}{}
	}

	if html != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err == nil {
			doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
				href, _ := s.Attr("href")
				add(href)
			})
			if len(seen) > 0 {
				return len(seen)
			}
		}
	}
	for _, l := range links {
		add(l)
	}
	return len(seen)
}

// propertyLinks keeps same-site links whose path looks like a detail page.
func propertyLinks(pageURL string, links []string) []string {
	self := utils.NormalizeURL(pageURL)
	var out []string
	for _, l := range links {
		abs := resolveURL(pageURL, l)
		norm := utils.NormalizeURL(abs)
		if norm == "" || norm == self || !utils.SameSite(pageURL, abs) {
			continue
		}
		u, err := url.Parse(norm)
		if err != nil || !propertyPathRegexp.MatchString(u.Path) {
			continue
		}
		out = append(out, norm)
	}
	return out
}

func resolveAll(base string, refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if abs := resolveURL(base, r); utils.NormalizeURL(abs) != "" {
			out = append(out, abs)
		}
	}
	return out
}

func resolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return b.ResolveReference(r).String()
}
