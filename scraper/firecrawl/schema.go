package firecrawl

// auctionProperties are the fields requested from every property page. All
// are optional; synonyms are reconciled by the caller.
var auctionProperties = []string{
	"title", "description",
	"auction_date", "date",
	"address", "location",
	"acreage", "acres",
	"land_type", "property_type",
	"county", "state",
}

// AuctionSchema is the JSON Schema sent with ScrapeWithJSON.
func AuctionSchema() map[string]any {
	props := make(map[string]any, len(auctionProperties))
	for _, name := range auctionProperties {
		props[name] = map[string]any{"type": []string{"string", "number", "null"}}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

// ListingSchema is the JSON Schema sent with ScrapeListingURLs.
func ListingSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"listing_urls": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []string{"listing_urls"},
	}
}

const auctionPrompt = "Extract the land auction details from this page: title, description, " +
	"auction date, property address or location, acreage, land type, county and state. " +
	"Leave a field empty when the page does not state it."

const listingPrompt = "List the absolute URLs of every individual land auction or property " +
	"detail page linked from this listing page. Exclude navigation, category and external links."

// detailProperties are the property-detail keys requested by DetailsSchema.
// Keys match the JSON names of models.PropertyDetails.
var detailProperties = map[string]string{
	"tillablePercent":  "number",
	"soilMentions":     "string",
	"cropHistory":      "string",
	"improvements":     "array",
	"utilities":        "string",
	"roadAccess":       "string",
	"drainage":         "string",
	"crpDetails":       "string",
	"waterRights":      "string",
	"mineralRights":    "string",
	"zoningInfo":       "string",
	"taxInfo":          "string",
	"sellerMotivation": "string",
	"financingOptions": "string",
	"possession":       "string",
	"keyHighlights":    "array",
	"legalDescription": "string",
}

// DetailsSchema is the JSON Schema sent with Extract for property details.
func DetailsSchema() map[string]any {
	props := make(map[string]any, len(detailProperties))
	for name, typ := range detailProperties {
		if typ == "array" {
			props[name] = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
			continue
		}
		props[name] = map[string]any{"type": []string{typ, "null"}}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

// DetailsPrompt asks for the farmland attributes a buyer looks at.
const DetailsPrompt = "From this land auction page extract the tillable percentage, soil and CSR " +
	"mentions, crop history, improvements, utilities, road access, drainage, CRP contracts, water and " +
	"mineral rights, zoning, taxes, seller motivation, financing, possession terms, key highlights " +
	"and the legal description. Leave a field empty when the page does not state it."
