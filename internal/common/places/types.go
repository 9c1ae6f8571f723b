package places

// TextSearchRequest is the body of a places:searchText call.
type TextSearchRequest struct {
	TextQuery    string        `json:"textQuery"`
	PageSize     int           `json:"pageSize,omitempty"`
	PageToken    string        `json:"pageToken,omitempty"`
	OpenNow      bool          `json:"openNow,omitempty"`
	LocationBias *LocationBias `json:"locationBias,omitempty"`
}

type LocationBias struct {
	Circle Circle `json:"circle"`
}

type Circle struct {
	Center LatLngLiteral `json:"center"`
	Radius float64       `json:"radius"`
}

type LatLngLiteral struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type LocalizedText struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode,omitempty"`
}

// Place is the subset of provider fields requested through the field mask.
// Rating and UserRatingCount are absent for places without reviews.
type Place struct {
	ID               string         `json:"id"`
	DisplayName      *LocalizedText `json:"displayName,omitempty"`
	FormattedAddress string         `json:"formattedAddress,omitempty"`
	Location         *LatLngLiteral `json:"location,omitempty"`
	Rating           *float64       `json:"rating,omitempty"`
	UserRatingCount  *int           `json:"userRatingCount,omitempty"`
	Types            []string       `json:"types,omitempty"`
	BusinessStatus   string         `json:"businessStatus,omitempty"`
	GoogleMapsURI    string         `json:"googleMapsUri,omitempty"`
	WebsiteURI       string         `json:"websiteUri,omitempty"`
}

// TextSearchResponse is one page of results.
type TextSearchResponse struct {
	Places        []Place `json:"places"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

// FieldMask lists the response fields the client asks for.
const FieldMask = "places.id,places.displayName,places.formattedAddress,places.location," +
	"places.rating,places.userRatingCount,places.types,places.businessStatus," +
	"places.googleMapsUri,places.websiteUri,nextPageToken"

// MaxPageSize is the provider's per-page cap.
const MaxPageSize = 20

// MaxBiasRadius is the largest bias radius the provider accepts, in meters.
const MaxBiasRadius = 50000.0
