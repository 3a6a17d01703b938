package services

import (
	"testing"

	"land-auction-scraper/utils"
)

func newTestLogger() *utils.Logger { return utils.NewNopLogger() }

func TestCleanerParseAcreage(t *testing.T) {
	c := NewCleaner(newTestLogger())

	tests := []struct {
		raw  any
		want float64
	}{
		{160.0, 160},
		{"1,200 acres", 1200},
		{"approx. 80.5 ac", 80.5},
		{"", 0},
		{"TBD", 0},
		{nil, 0},
		{true, 0},
	}

	for _, tt := range tests {
		got := c.parseAcreage(tt.raw)
		if got != tt.want {
			t.Errorf("parseAcreage(%v) = %.2f; want %.2f", tt.raw, got, tt.want)
		}
	}
}

func TestCleanerNormalisesCountyAndState(t *testing.T) {
	tests := []struct {
		county, state         string
		wantCounty, wantState string
	}{
		{"Story County", "IA", "Story", "Iowa"},
		{"  polk  county ", "ne", "polk", "Nebraska"},
		{"Boone", "Iowa", "Boone", "Iowa"},
		{"", "", "", ""},
	}

	c := NewCleaner(newTestLogger())
	for _, tt := range tests {
		got := c.Clean(Extraction{County: tt.county, State: tt.state})
		if got.County != tt.wantCounty || got.State != tt.wantState {
			t.Errorf("Clean(%q, %q) = (%q, %q); want (%q, %q)",
				tt.county, tt.state, got.County, got.State, tt.wantCounty, tt.wantState)
		}
	}
}

func TestCleanerCollapsesWhitespace(t *testing.T) {
	c := NewCleaner(newTestLogger())
	got := c.Clean(Extraction{Title: "  160 Acres\n\tStory   County ", Acreage: -4})
	if got.Title != "160 Acres Story County" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Acreage != 0 {
		t.Errorf("negative acreage should be dropped, got %.2f", got.Acreage)
	}
}
