package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"land-auction-scraper/models"
	"land-auction-scraper/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &InsightService{logger: logger}
}

// Generate summarises auctions. Acreage and county use the display view, so
// enriched values win.
func (s *InsightService) Generate(auctions []*models.Auction) *models.RunReport {
	report := &models.RunReport{
		AuctionsByCounty: make(map[string]int),
		FailureReasons:   make(map[string]int),
	}

	if len(auctions) == 0 {
		return report
	}

	report.TotalAuctions = len(auctions)

	var withAcreage int
	for _, a := range auctions {
		v := GetComprehensiveAuctionData(a)

		switch v.EnrichmentStatus {
		case models.EnrichmentCompleted:
			report.CompletedAuctions++
		case models.EnrichmentFailed:
			report.FailedAuctions++
			report.FailureReasons[v.EnrichmentError]++
		default:
			report.PendingAuctions++
		}

		switch {
		case !v.HasCoordinates:
			report.Ungeocoded++
		case v.GeocodingMethod == models.GeocodeCountyCentroid:
			report.CentroidGeocoded++
		default:
			report.PreciseGeocoded++
		}

		if county := cleanCounty(v.County); county != "" {
			report.AuctionsByCounty[county]++
		}

		if v.Acreage <= 0 {
			continue
		}
		if withAcreage == 0 || v.Acreage < report.MinAcreage {
			report.MinAcreage = v.Acreage
		}
		if v.Acreage > report.MaxAcreage {
			report.MaxAcreage = v.Acreage
			report.LargestAuction = a
		}
		report.TotalAcreage += v.Acreage
		withAcreage++
	}

	if withAcreage > 0 {
		report.AverageAcreage = round2(report.TotalAcreage / float64(withAcreage))
		report.TotalAcreage = round2(report.TotalAcreage)
	}

	s.logger.Debug("[insights] %d auctions summarised, %d with acreage", report.TotalAuctions, withAcreage)
	return report
}

// WithRun annotates a report with the outcome of a discovery run.
func (s *InsightService) WithRun(report *models.RunReport, res *DiscoveryResult) *models.RunReport {
	report.SeedURL = res.SeedURL
	report.FinalState = string(res.State)
	for _, r := range res.Results {
		if r.Skipped {
			report.SkippedAuctions++
		}
	}
	return report
}

// Print renders the report as tables.
func (s *InsightService) Print(w io.Writer, r *models.RunReport) {
	title := "LAND AUCTION RUN REPORT"
	if r.SeedURL != "" {
		title += " · " + utils.TruncateURL(r.SeedURL, 60)
	}

	overview := newTable(w, title)
	if r.FinalState != "" {
		overview.AppendRow(table.Row{"Final state", r.FinalState})
	}
	overview.AppendRows([]table.Row{
		{"Auctions", r.TotalAuctions},
		{"Completed", r.CompletedAuctions},
		{"Failed", r.FailedAuctions},
		{"Pending", r.PendingAuctions},
		{"Skipped (already enriched)", r.SkippedAuctions},
	})
	overview.AppendSeparator()
	overview.AppendRows([]table.Row{
		{"Geocoded (precise)", r.PreciseGeocoded},
		{"Geocoded (county centroid)", r.CentroidGeocoded},
		{"Not geocoded", r.Ungeocoded},
	})
	overview.AppendSeparator()
	if r.AverageAcreage > 0 {
		overview.AppendRows([]table.Row{
			{"Total acres", FormatAcreage(r.TotalAcreage)},
			{"Average acres", FormatAcreage(r.AverageAcreage)},
			{"Smallest", FormatAcreage(r.MinAcreage)},
			{"Largest", FormatAcreage(r.MaxAcreage)},
		})
	} else {
		overview.AppendRow(table.Row{"Acreage", "no acreage data"})
	}
	if r.LargestAuction != nil {
		overview.AppendRow(table.Row{"Largest auction", truncate(GetAuctionTitle(r.LargestAuction), 50)})
	}
	overview.Render()

	if len(r.AuctionsByCounty) > 0 {
		counties := newTable(w, "Auctions by County")
		counties.AppendHeader(table.Row{"County", "Auctions", ""})
		for _, kv := range sortedCounts(r.AuctionsByCounty) {
			counties.AppendRow(table.Row{kv.key, kv.count, strings.Repeat("█", kv.count)})
		}
		counties.Render()
	}

	if len(r.FailureReasons) > 0 {
		failures := newTable(w, "Failures")
		failures.AppendHeader(table.Row{"Reason", "Count"})
		for _, kv := range sortedCounts(r.FailureReasons) {
			failures.AppendRow(table.Row{truncate(kv.key, 70), kv.count})
		}
		failures.Render()
	}
}

// PrintAuction renders one auction's display view.
func PrintAuction(w io.Writer, v DisplayView) {
	t := newTable(w, truncate(v.Title, 70))
	t.AppendRows([]table.Row{
		{"ID", v.ID},
		{"Status", fmt.Sprintf("%s / enrichment %s", v.Status, v.EnrichmentStatus)},
		{"Acres", v.AcreageDisplay},
		{"County", v.County},
		{"State", v.State},
		{"Auction date", v.AuctionDate},
		{"Auction house", v.AuctionHouse},
		{"Location", v.PropertyLocation},
		{"Land type", v.LandType},
		{"URL", v.URL},
	})
	if v.HasCoordinates {
		t.AppendRow(table.Row{"Coordinates", fmt.Sprintf("%.5f, %.5f (%s, %s)",
			*v.Latitude, *v.Longitude, v.GeocodingMethod, v.GeocodingConfidence)})
	}
	if v.EnrichmentError != "" {
		t.AppendRow(table.Row{"Error", v.EnrichmentError})
	}
	if v.Details.TillablePercent != nil {
		t.AppendRow(table.Row{"Tillable", fmt.Sprintf("%s%%", FormatAcreage(*v.Details.TillablePercent))})
	}
	if len(v.Details.KeyHighlights) > 0 {
		t.AppendRow(table.Row{"Highlights", strings.Join(v.Details.KeyHighlights, "; ")})
	}
	t.Render()
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	t.Style().Title.Align = text.AlignCenter
	return t
}

type keyCount struct {
	key   string
	count int
}

// sortedCounts orders by count descending, then key.
func sortedCounts(m map[string]int) []keyCount {
	out := make([]keyCount, 0, len(m))
	for k, c := range m {
		out = append(out, keyCount{k, c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
