package services

import (
	"math"
	"strconv"
	"strings"

	"land-auction-scraper/models"
	"land-auction-scraper/storage"
)

const (
	defaultTitle = "Land Auction"
	homeState    = "Iowa"
)

// DisplayView is the map-ready projection of an Auction. Every attribute
// prefers the enriched value, then the raw value, then a default.
type DisplayView struct {
	ID               string
	Title            string
	Description      string
	AuctionDate      string
	AuctionHouse     string
	AuctionLocation  string
	PropertyLocation string
	Acreage          float64
	AcreageDisplay   string
	County           string
	State            string
	LandType         string
	URL              string
	SourceWebsite    string

	Latitude            *float64
	Longitude           *float64
	HasCoordinates      bool
	GeocodingMethod     string
	GeocodingConfidence string
	GeocodingSource     string

	Details models.PropertyDetails

	EnrichmentStatus models.EnrichmentStatus
	EnrichmentError  string
	Status           models.AuctionStatus
}

// GetComprehensiveAuctionData projects a into its DisplayView. It has no side
// effects and never shares memory with a.
func GetComprehensiveAuctionData(a *models.Auction) DisplayView {
	if a == nil {
		return DisplayView{Title: defaultTitle, EnrichmentStatus: models.EnrichmentPending, Status: models.AuctionActive}
	}
	c := a.Clone()

	acreage := displayAcreage(c)
	v := DisplayView{
		ID:               c.ID,
		Title:            GetAuctionTitle(c),
		Description:      prefer(c.EnrichedDescription, c.Description),
		AuctionDate:      prefer(c.EnrichedAuctionDate, c.AuctionDate),
		AuctionHouse:     prefer(c.EnrichedAuctionHouse, c.SourceWebsite),
		AuctionLocation:  strings.TrimSpace(c.EnrichedAuctionLocation),
		PropertyLocation: prefer(c.EnrichedPropertyLocation, c.Address),
		Acreage:          acreage,
		County:           prefer(c.EnrichedCounty, c.County),
		State:            prefer(c.EnrichedState, c.State),
		LandType:         strings.TrimSpace(c.EnrichedLandType),
		URL:              c.URL,
		SourceWebsite:    c.SourceWebsite,

		Latitude:            c.Latitude,
		Longitude:           c.Longitude,
		HasCoordinates:      c.HasCoordinates(),
		GeocodingMethod:     c.GeocodingMethod,
		GeocodingConfidence: c.GeocodingConfidence,
		GeocodingSource:     c.GeocodingSource,

		Details: c.PropertyDetails,

		EnrichmentStatus: c.EnrichmentStatus,
		EnrichmentError:  c.EnrichmentError,
		Status:           c.Status,
	}
	if acreage > 0 {
		v.AcreageDisplay = FormatAcreage(acreage)
	}
	if v.EnrichmentStatus == "" {
		v.EnrichmentStatus = models.EnrichmentPending
	}
	if v.Status == "" {
		v.Status = models.AuctionActive
	}
	return v
}

// GetAuctionTitle returns the enriched title, else the raw title, else a
// title generated from acreage, county and state.
func GetAuctionTitle(a *models.Auction) string {
	if t := prefer(a.EnrichedTitle, a.Title); t != "" {
		return t
	}

	county := cleanCounty(prefer(a.EnrichedCounty, a.County))
	acreage := displayAcreage(a)
	switch {
	case county != "" && acreage > 0:
		title := FormatAcreage(acreage) + " Acres " + county + " County"
		if state := prefer(a.EnrichedState, a.State); state != "" && !isHomeState(state) {
			title += ", " + state
		}
		return title
	case county != "":
		return county + " County Land Auction"
	default:
		return defaultTitle
	}
}

// FormatAcreage renders whole acreages without decimals and fractional ones
// with at most two, trailing zeros stripped.
func FormatAcreage(acres float64) string {
	rounded := math.Round(acres*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// ToExportRow flattens a DisplayView for CSV export.
func ToExportRow(v DisplayView) storage.ExportRow {
	row := storage.ExportRow{
		ID:               v.ID,
		Title:            v.Title,
		Acreage:          v.AcreageDisplay,
		County:           v.County,
		State:            v.State,
		AuctionDate:      v.AuctionDate,
		AuctionHouse:     v.AuctionHouse,
		Location:         v.PropertyLocation,
		LandType:         v.LandType,
		GeocodingMethod:  v.GeocodingMethod,
		EnrichmentStatus: string(v.EnrichmentStatus),
		EnrichmentError:  v.EnrichmentError,
		SourceWebsite:    v.SourceWebsite,
		URL:              v.URL,
	}
	if v.HasCoordinates {
		row.Latitude = strconv.FormatFloat(*v.Latitude, 'f', 6, 64)
		row.Longitude = strconv.FormatFloat(*v.Longitude, 'f', 6, 64)
	}
	return row
}

func displayAcreage(a *models.Auction) float64 {
	if a.EnrichedAcreage > 0 {
		return a.EnrichedAcreage
	}
	if a.Acreage > 0 {
		return a.Acreage
	}
	return 0
}

func prefer(enriched, raw string) string {
	if s := strings.TrimSpace(enriched); s != "" {
		return s
	}
	return strings.TrimSpace(raw)
}

func isHomeState(state string) bool {
	return strings.EqualFold(cleanState(state), homeState)
}
