package domain

// Display modes for the directory views.
const (
	ViewModeGrid = "grid"
	ViewModeList = "list"
	ViewModeMap  = "map"
)

// Defaults used when nothing (or something invalid) is stored.
const (
	DefaultViewMode = ViewModeGrid
	DefaultPageSize = 24
)

// PageSizes is the allowed page-size set.
var PageSizes = []int{12, 24, 48, 96}

// ViewPreference is the user's chosen display mode and page size.
type ViewPreference struct {
	Mode     string `json:"mode"`
	PageSize int    `json:"page_size"`
}

// ValidViewMode reports whether m is one of the known display modes.
func ValidViewMode(m string) bool {
	return m == ViewModeGrid || m == ViewModeList || m == ViewModeMap
}

// ValidPageSize reports whether n is in the allowed page-size set.
func ValidPageSize(n int) bool {
	for _, s := range PageSizes {
		if n == s {
			return true
		}
	}
	return false
}

// DefaultViewPreference returns the built-in preference.
func DefaultViewPreference() ViewPreference {
	return ViewPreference{Mode: DefaultViewMode, PageSize: DefaultPageSize}
}
