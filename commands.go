package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"land-auction-scraper/config"
	"land-auction-scraper/geo"
	"land-auction-scraper/models"
	"land-auction-scraper/services"
)

var rootCmd = &cobra.Command{
	Use:          "land-auction-scraper",
	Short:        "Discovers land auctions on auction-house sites and enriches them into map-ready records.",
	SilenceUsage: true,
}

var (
	discoverSearch   string
	discoverReenrich bool
	discoverDetails  bool
	discoverCSV      bool

	enrichForce   bool
	enrichDetails bool

	reportCSV bool

	boundaryLat    float64
	boundaryLon    float64
	boundaryRadius float64
	boundaryCounty string
)

func init() {
	discoverCmd.Flags().StringVar(&discoverSearch, "search", "", "Only map URLs matching this term.")
	discoverCmd.Flags().BoolVar(&discoverReenrich, "reenrich", false, "Re-extract auctions that are already completed.")
	discoverCmd.Flags().BoolVar(&discoverDetails, "details", false, "Also extract property details (tillable, soils, improvements...).")
	discoverCmd.Flags().BoolVar(&discoverCSV, "csv", false, "Export the run's auctions to CSV_OUTPUT_PATH.")

	enrichCmd.Flags().BoolVar(&enrichForce, "force", false, "Re-enrich even if the auction is completed.")
	enrichCmd.Flags().BoolVar(&enrichDetails, "details", false, "Also extract property details.")

	reportCmd.Flags().BoolVar(&reportCSV, "csv", false, "Export every stored auction to CSV_OUTPUT_PATH.")

	boundariesCmd.Flags().Float64Var(&boundaryLat, "lat", 0, "Latitude of the search centre.")
	boundariesCmd.Flags().Float64Var(&boundaryLon, "lon", 0, "Longitude of the search centre.")
	boundariesCmd.Flags().Float64Var(&boundaryRadius, "radius", 1, "Search radius in miles.")
	boundariesCmd.Flags().StringVar(&boundaryCounty, "county", "", "County to search in; its centroid is used when --lat/--lon are absent.")

	rootCmd.AddCommand(discoverCmd, enrichCmd, showCmd, reportCmd, boundariesCmd)
}

// withApp loads config, builds the app and runs fn with it.
func withApp(fn func(a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

var discoverCmd = &cobra.Command{
	Use:   "discover <seed-url> [--search term] [--reenrich] [--details] [--csv]",
	Short: "Crawls an auction-house site and enriches every property it finds.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			res, err := a.discovery.Run(cmd.Context(), args[0], services.DiscoveryOptions{
				Search:   discoverSearch,
				Reenrich: discoverReenrich,
				Details:  discoverDetails,
			})
			if err != nil {
				return err
			}

			auctions := make([]*models.Auction, 0, len(res.Results))
			for _, id := range res.AuctionIDs() {
				auc, err := a.store.GetAuctionByID(cmd.Context(), id)
				if err != nil {
					a.logger.Warn("[main] reload %s: %v", id, err)
					continue
				}
				if auc != nil {
					auctions = append(auctions, auc)
				}
			}

			report := a.insights.WithRun(a.insights.Generate(auctions), res)
			a.insights.Print(os.Stdout, report)

			if discoverCSV {
				return a.exportCSV(auctions)
			}
			return nil
		})
	},
}

var enrichCmd = &cobra.Command{
	Use:   "enrich <auction-id> [--force] [--details]",
	Short: "Runs one enrichment attempt on a stored auction.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			auc, err := a.enricher.Enrich(cmd.Context(), args[0], services.EnrichOptions{
				Force:   enrichForce,
				Details: enrichDetails,
			})
			if err != nil {
				return err
			}
			services.PrintAuction(os.Stdout, services.GetComprehensiveAuctionData(auc))
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <auction-id>",
	Short: "Prints the display view of a stored auction.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			auc, err := a.store.GetAuctionByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if auc == nil {
				return fmt.Errorf("auction %s not found", args[0])
			}
			services.PrintAuction(os.Stdout, services.GetComprehensiveAuctionData(auc))
			return nil
		})
	},
}

var reportCmd = &cobra.Command{
	Use:   "report [--csv]",
	Short: "Summarises every stored auction.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			auctions, err := a.store.ListAuctions(cmd.Context())
			if err != nil {
				return err
			}
			a.insights.Print(os.Stdout, a.insights.Generate(auctions))
			if reportCSV {
				return a.exportCSV(auctions)
			}
			return nil
		})
	},
}

var boundariesCmd = &cobra.Command{
	Use:   "boundaries [--lat x --lon y | --county name] [--radius miles]",
	Short: "Searches field boundaries near a point.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := geo.BoundaryQuery{
			Latitude:    boundaryLat,
			Longitude:   boundaryLon,
			RadiusMiles: boundaryRadius,
			County:      boundaryCounty,
		}
		if q.Latitude == 0 && q.Longitude == 0 && q.County != "" {
			ll, ok := geo.CountyCentroid(q.County)
			if !ok {
				return fmt.Errorf("unknown county %q", q.County)
			}
			q.Latitude, q.Longitude = ll.Latitude, ll.Longitude
		}

		svc := geo.NewUnavailableBoundaries(config.Defaults().GeocodeCacheTTL)
		res, err := svc.Search(cmd.Context(), q)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendRows([]table.Row{
			{"Centre", fmt.Sprintf("%.5f, %.5f", q.Latitude, q.Longitude)},
			{"Radius (mi)", q.RadiusMiles},
			{"Available", res.Available},
			{"Boundaries", len(res.Boundaries)},
		})
		if res.Reason != "" {
			t.AppendRow(table.Row{"Reason", res.Reason})
		}
		t.Render()
		return nil
	},
}
