package repository

import (
	"context"

	"github.com/shoplocal/directory-service/internal/domain"
)

// SearchRepository defines the interface for queries against the
// listings search source.
type SearchRepository interface {
	SearchListings(ctx context.Context, req *domain.BrowseRequest) ([]domain.Listing, int, error)
	CategoryFacets(ctx context.Context) ([]domain.FacetEntry, error)
	StoreTypeFacets(ctx context.Context) ([]domain.FacetEntry, error)
}
