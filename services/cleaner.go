package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"land-auction-scraper/utils"
)

var (
	// numberRegexp captures the first numeric value, thousands separators allowed
	numberRegexp = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?|\.\d+`)
	// countySuffixRegexp matches a trailing "County" word
	countySuffixRegexp = regexp.MustCompile(`(?i)\s+county$`)
)

// stateNames maps postal abbreviations to full state names.
var stateNames = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas", "CA": "California",
	"CO": "Colorado", "CT": "Connecticut", "DE": "Delaware", "FL": "Florida", "GA": "Georgia",
	"HI": "Hawaii", "ID": "Idaho", "IL": "Illinois", "IN": "Indiana", "IA": "Iowa",
	"KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi", "MO": "Missouri",
	"MT": "Montana", "NE": "Nebraska", "NV": "Nevada", "NH": "New Hampshire", "NJ": "New Jersey",
	"NM": "New Mexico", "NY": "New York", "NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio",
	"OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah", "VT": "Vermont",
	"VA": "Virginia", "WA": "Washington", "WV": "West Virginia", "WI": "Wisconsin", "WY": "Wyoming",
}

// Cleaner turns reconciled provider values into clean field values.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Cleaner{logger: logger}
}

// Clean normalises every field of an Extraction.
func (c *Cleaner) Clean(e Extraction) Extraction {
	out := Extraction{
		Title:       normaliseText(e.Title),
		Description: strings.TrimSpace(e.Description),
		AuctionDate: normaliseText(e.AuctionDate),
		Location:    normaliseText(e.Location),
		Acreage:     e.Acreage,
		LandType:    normaliseText(e.LandType),
		County:      cleanCounty(e.County),
		State:       cleanState(e.State),
	}
	if out.Acreage < 0 {
		c.logger.Debug("[cleaner] Dropping negative acreage %.2f", out.Acreage)
		out.Acreage = 0
	}
	return out
}

// parseAcreage extracts an acreage from a provider value.
// Examples:
//
//	160          → 160
//	"1,200 acres" → 1200
//	"approx. 80.5 ac" → 80.5
func (c *Cleaner) parseAcreage(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		return val
	case int:
		return float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		match := numberRegexp.FindString(val)
		if match == "" {
			return 0
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
		if err != nil {
			c.logger.Debug("[cleaner] Unparseable acreage %q", val)
			return 0
		}
		return f
	default:
		return 0
	}
}

// stringValue renders a provider value as text. Numbers keep their shortest form.
func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}

func cleanCounty(s string) string {
	s = normaliseText(s)
	return strings.TrimSpace(countySuffixRegexp.ReplaceAllString(s, ""))
}

func cleanState(s string) string {
	s = normaliseText(s)
	if full, ok := stateNames[strings.ToUpper(s)]; ok {
		return full
	}
	return s
}
