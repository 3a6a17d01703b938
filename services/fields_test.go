package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReconcileFieldsPrefersFirstKey(t *testing.T) {
	got := ReconcileFields(map[string]any{
		"auction_date":  "2026-11-04",
		"date":          "Nov 4",
		"address":       "",
		"location":      "Nevada, IA",
		"acres":         "80 acres",
		"property_type": "Farmland",
		"land_type":     nil,
	})

	require.Equal(t, "2026-11-04", got[FieldAuctionDate])
	require.Equal(t, "Nevada, IA", got[FieldLocation])
	require.Equal(t, "80 acres", got[FieldAcreage])
	require.Equal(t, "Farmland", got[FieldLandType])
	require.NotContains(t, got, FieldTitle)
}

func TestReconcileFieldsTreatsNullStringAsEmpty(t *testing.T) {
	got := ReconcileFields(map[string]any{"acreage": "null", "acres": 40.0})
	require.Equal(t, 40.0, got[FieldAcreage])
}

func TestToExtraction(t *testing.T) {
	c := NewCleaner(newTestLogger())
	e := c.ToExtraction(map[string]any{
		"title":   " 150 Acres Story County ",
		"acreage": 150.25,
		"county":  "Story County",
		"state":   "IA",
		"date":    "March 3, 2026",
	})

	require.Equal(t, Extraction{
		Title:       "150 Acres Story County",
		AuctionDate: "March 3, 2026",
		Acreage:     150.25,
		County:      "Story",
		State:       "Iowa",
	}, e)
	require.False(t, e.Empty())
	require.True(t, c.ToExtraction(map[string]any{"county": "Story"}).Empty())
}
