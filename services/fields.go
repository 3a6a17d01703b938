package services

import "strings"

// Canonical field names produced by reconciliation.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldAuctionDate = "auctionDate"
	FieldLocation    = "location"
	FieldAcreage     = "acreage"
	FieldLandType    = "landType"
	FieldCounty      = "county"
	FieldState       = "state"
)

// fieldSources maps each canonical field to the provider keys accepted for
// it, most preferred first.
var fieldSources = map[string][]string{
	FieldTitle:       {"title"},
	FieldDescription: {"description"},
	FieldAuctionDate: {"auction_date", "date"},
	FieldLocation:    {"address", "location"},
	FieldAcreage:     {"acreage", "acres"},
	FieldLandType:    {"land_type", "property_type"},
	FieldCounty:      {"county"},
	FieldState:       {"state"},
}

// Extraction is one property page's fields after synonym reconciliation.
type Extraction struct {
	Title       string
	Description string
	AuctionDate string
	Location    string
	Acreage     float64
	LandType    string
	County      string
	State       string
}

// Empty reports whether none of the identifying fields were extracted.
func (e Extraction) Empty() bool {
	return e.Title == "" && e.Description == "" && e.Location == "" && e.Acreage <= 0
}

// ReconcileFields picks, for every canonical field, the value of the first
// source key that is present and non-empty. Canonical fields with no usable
// source are omitted.
func ReconcileFields(raw map[string]any) map[string]any {
	out := make(map[string]any, len(fieldSources))
	for canonical, keys := range fieldSources {
		for _, key := range keys {
			v, ok := raw[key]
			if !ok || isEmptyValue(v) {
				continue
			}
			out[canonical] = v
			break
		}
	}
	return out
}

// ToExtraction reconciles and cleans raw provider output.
func (c *Cleaner) ToExtraction(raw map[string]any) Extraction {
	f := ReconcileFields(raw)
	return c.Clean(Extraction{
		Title:       stringValue(f[FieldTitle]),
		Description: stringValue(f[FieldDescription]),
		AuctionDate: stringValue(f[FieldAuctionDate]),
		Location:    stringValue(f[FieldLocation]),
		Acreage:     c.parseAcreage(f[FieldAcreage]),
		LandType:    stringValue(f[FieldLandType]),
		County:      stringValue(f[FieldCounty]),
		State:       stringValue(f[FieldState]),
	})
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(val)
		return s == "" || strings.EqualFold(s, "null")
	default:
		return false
	}
}
