package models

// RunReport holds the summary computed over the auctions touched by one
// discovery run (or the whole store when no run is given).
type RunReport struct {
	SeedURL    string
	FinalState string

	TotalAuctions     int
	CompletedAuctions int
	FailedAuctions    int
	PendingAuctions   int
	SkippedAuctions   int

	PreciseGeocoded  int
	CentroidGeocoded int
	Ungeocoded       int

	TotalAcreage   float64
	AverageAcreage float64
	MinAcreage     float64
	MaxAcreage     float64
	LargestAuction *Auction

	AuctionsByCounty map[string]int
	FailureReasons   map[string]int
}
