package domain

import (
	"fmt"
	"strings"
)

// Sort modes accepted by the directory.
const (
	SortDistance = "distance"
	SortRating   = "rating"
	SortName     = "name"
)

// BrowseRequest is the directory browse/search request.
// Lat/Lng are pointers so "no coordinates supplied" is distinguishable
// from a real 0,0 fix.
type BrowseRequest struct {
	Query     string   `form:"q"`
	Category  string   `form:"category"`
	StoreType string   `form:"store_type"`
	Lat       *float64 `form:"lat"`
	Lng       *float64 `form:"lng"`
	Sort      string   `form:"sort"`
	Page      int      `form:"page"`
	Limit     int      `form:"limit"`
}

// HasCoords reports whether the client forwarded a geolocation fix.
func (r *BrowseRequest) HasCoords() bool {
	return r.Lat != nil && r.Lng != nil
}

// Key summarizes every parameter that affects the result set. It keys
// singleflight and the last-request-wins sequencing: two requests with
// the same Key are the same logical query.
func (r *BrowseRequest) Key() string {
	lat, lng := "-", "-"
	if r.HasCoords() {
		lat = fmt.Sprintf("%.6f", *r.Lat)
		lng = fmt.Sprintf("%.6f", *r.Lng)
	}
	return strings.Join([]string{
		strings.ToLower(strings.TrimSpace(r.Query)),
		r.Category,
		r.StoreType,
		lat, lng,
		r.Sort,
		fmt.Sprintf("%d:%d", r.Page, r.Limit),
	}, "|")
}

// TrackingSignature derives the behavior-event dedup key. Proximity
// searches are keyed by a rounded coordinate pair plus sort mode so
// pagination and tiny GPS jitter within the same search do not re-fire;
// free-text searches are keyed by the normalized query. Empty means
// nothing worth tracking.
func (r *BrowseRequest) TrackingSignature() string {
	if r.HasCoords() {
		return fmt.Sprintf("near:%.3f:%.3f:%s", *r.Lat, *r.Lng, r.Sort)
	}
	if q := strings.ToLower(strings.TrimSpace(r.Query)); q != "" {
		return "search:" + q
	}
	return ""
}

// Listing is one directory row. The backend index is a one-row-per-category
// materialized view, so before dedup a single store may appear once per
// category it belongs to. EntityID is the canonical identifier normalized
// at the repository boundary.
type Listing struct {
	EntityID    string  `json:"entity_id"`
	Category    string  `json:"category"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	City        string  `json:"city"`
	State       string  `json:"state"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
	StockCount  int     `json:"stock_count"`
	Rank        float64 `json:"rank"`
}

// Pagination is the envelope returned alongside a result page.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// BrowseResult is the post-dedup result set handed to consuming views.
// Stale marks a previously loaded set returned alongside a failed refresh.
type BrowseResult struct {
	Listings   []Listing  `json:"listings"`
	Pagination Pagination `json:"pagination"`
	Stale      bool       `json:"stale,omitempty"`
}

// FacetEntry is one filterable attribute value with its aggregate count.
type FacetEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// FacetSet is the slow-changing filter metadata for the directory.
type FacetSet struct {
	Categories []FacetEntry `json:"categories"`
	StoreTypes []FacetEntry `json:"store_types"`
}

// UserLocation is an approximate position. Absence (a nil pointer) is a
// valid, expected state; consumers must not treat it as an error.
type UserLocation struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	City  string  `json:"city"`
	State string  `json:"state"`
}

// Slugify turns a facet display name into its URL slug.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}
