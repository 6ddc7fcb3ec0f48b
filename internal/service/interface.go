package service

import (
	"context"

	"github.com/shoplocal/directory-service/internal/domain"
	"github.com/shoplocal/directory-service/internal/geo"
)

// DirectoryService is the orchestration layer consumed by the HTTP
// handlers. It composes search, facet caching, dedup, tracking,
// location resolution, and view-state persistence.
type DirectoryService interface {
	// Browse runs one directory search for a session. On failure after
	// a prior successful load, it returns that prior result (marked
	// stale) alongside the error so the view can keep data on screen.
	Browse(ctx context.Context, sessionID string, req *domain.BrowseRequest) (*domain.BrowseResult, error)

	// Facets returns filter metadata, read through the TTL cache.
	Facets(ctx context.Context) (*domain.FacetSet, error)

	// Locate resolves the user's approximate location. nil is a valid
	// outcome and never an error.
	Locate(ctx context.Context, in geo.Input) *domain.UserLocation

	// LoadPreference and SavePreference manage the session's view state.
	LoadPreference(ctx context.Context, sessionID string) domain.ViewPreference
	SavePreference(ctx context.Context, sessionID string, pref domain.ViewPreference) error
}
