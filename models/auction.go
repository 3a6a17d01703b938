package models

import "time"

// EnrichmentStatus tracks where an Auction is in its enrichment lifecycle.
type EnrichmentStatus string

const (
	EnrichmentPending   EnrichmentStatus = "pending"
	EnrichmentCompleted EnrichmentStatus = "completed"
	EnrichmentFailed    EnrichmentStatus = "failed"
)

// AuctionStatus is the listing state on the auction house side.
type AuctionStatus string

const (
	AuctionActive AuctionStatus = "active"
	AuctionClosed AuctionStatus = "closed"
)

// Geocoding methods and confidences recorded on an Auction.
const (
	GeocodePrecise        = "precise"
	GeocodeCountyCentroid = "county-centroid"

	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
)

// AuctionFields are the raw scraped values an Auction is created with.
// They are never rewritten after creation.
type AuctionFields struct {
	Title         string
	Description   string
	AuctionDate   string
	Address       string
	Acreage       float64
	County        string
	State         string
	URL           string
	SourceWebsite string
}

// PropertyDetails are derived property attributes filled in by enrichment.
type PropertyDetails struct {
	TillablePercent  *float64 `json:"tillablePercent,omitempty"`
	SoilMentions     string   `json:"soilMentions,omitempty"`
	CropHistory      string   `json:"cropHistory,omitempty"`
	Improvements     []string `json:"improvements,omitempty"`
	Utilities        string   `json:"utilities,omitempty"`
	RoadAccess       string   `json:"roadAccess,omitempty"`
	Drainage         string   `json:"drainage,omitempty"`
	CRPDetails       string   `json:"crpDetails,omitempty"`
	WaterRights      string   `json:"waterRights,omitempty"`
	MineralRights    string   `json:"mineralRights,omitempty"`
	ZoningInfo       string   `json:"zoningInfo,omitempty"`
	TaxInfo          string   `json:"taxInfo,omitempty"`
	SellerMotivation string   `json:"sellerMotivation,omitempty"`
	FinancingOptions string   `json:"financingOptions,omitempty"`
	Possession       string   `json:"possession,omitempty"`
	KeyHighlights    []string `json:"keyHighlights,omitempty"`
	LegalDescription string   `json:"legalDescription,omitempty"`
}

// EnrichedFields mirror the raw fields with higher-confidence values
// produced by the extraction service.
type EnrichedFields struct {
	EnrichedTitle            string
	EnrichedDescription      string
	EnrichedAuctionDate      string
	EnrichedAuctionHouse     string
	EnrichedAuctionLocation  string
	EnrichedPropertyLocation string
	EnrichedAcreage          float64
	EnrichedCounty           string
	EnrichedState            string
	EnrichedLandType         string
}

// Geocoding holds the resolved coordinates and how they were obtained.
type Geocoding struct {
	Latitude            *float64
	Longitude           *float64
	GeocodingMethod     string
	GeocodingConfidence string
	GeocodingSource     string
}

// Auction is the central record of the pipeline.
type Auction struct {
	ID string
	AuctionFields
	EnrichedFields
	PropertyDetails
	Geocoding

	EnrichmentStatus EnrichmentStatus
	EnrichmentError  string
	Status           AuctionStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasCoordinates reports whether the Auction has been geocoded.
func (a *Auction) HasCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// Clone returns a deep copy so callers can't mutate shared slices.
func (a *Auction) Clone() *Auction {
	if a == nil {
		return nil
	}
	c := *a
	c.Improvements = append([]string(nil), a.Improvements...)
	c.KeyHighlights = append([]string(nil), a.KeyHighlights...)
	if a.TillablePercent != nil {
		v := *a.TillablePercent
		c.TillablePercent = &v
	}
	if a.Latitude != nil {
		v := *a.Latitude
		c.Latitude = &v
	}
	if a.Longitude != nil {
		v := *a.Longitude
		c.Longitude = &v
	}
	return &c
}

// EnrichmentPatch is the single write applied per enrichment attempt. It can
// only carry enrichment-owned fields; raw fields are not expressible here.
type EnrichmentPatch struct {
	Status    EnrichmentStatus
	Error     string
	Enriched  *EnrichedFields
	Details   *PropertyDetails
	Geocoding *Geocoding
}

// Apply writes the patch onto a. Nil sections leave the existing values alone.
func (p EnrichmentPatch) Apply(a *Auction) {
	a.EnrichmentStatus = p.Status
	a.EnrichmentError = p.Error
	if p.Enriched != nil {
		a.EnrichedFields = *p.Enriched
	}
	if p.Details != nil {
		a.PropertyDetails = *p.Details
	}
	if p.Geocoding != nil {
		a.Geocoding = *p.Geocoding
	}
}
