package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shoplocal/directory-service/internal/domain"
)

func TestListingsKeepsFirstOccurrence(t *testing.T) {
	rows := []domain.Listing{
		{EntityID: "A", Category: "Books"},
		{EntityID: "A", Category: "Toys"},
		{EntityID: "B", Category: "Books"},
	}

	out := Listings(rows)

	assert.Len(t, out, 2)
	assert.Equal(t, "A", out[0].EntityID)
	assert.Equal(t, "Books", out[0].Category, "first-seen row must win")
	assert.Equal(t, "B", out[1].EntityID)
}

func TestListingsIdempotent(t *testing.T) {
	rows := []domain.Listing{
		{EntityID: "A", Category: "Books"},
		{EntityID: "A", Category: "Toys"},
		{EntityID: "B", Category: "Books"},
		{Category: "Orphan"},
	}

	once := Listings(rows)
	twice := Listings(once)

	assert.Equal(t, once, twice)
}

func TestListingsMissingIDNeverDropped(t *testing.T) {
	rows := []domain.Listing{
		{Name: "first"},
		{Name: "second"},
		{EntityID: "A"},
		{Name: "third"},
	}

	out := Listings(rows)

	assert.Len(t, out, 4, "rows without an identifier must all survive")
}

func TestListingsPreservesOrder(t *testing.T) {
	rows := []domain.Listing{
		{EntityID: "C"},
		{EntityID: "A"},
		{EntityID: "C"},
		{EntityID: "B"},
	}

	out := Listings(rows)

	ids := make([]string, 0, len(out))
	for _, r := range out {
		ids = append(ids, r.EntityID)
	}
	assert.Equal(t, []string{"C", "A", "B"}, ids)
}

func TestListingsEmpty(t *testing.T) {
	assert.Empty(t, Listings(nil))
	assert.Empty(t, Listings([]domain.Listing{}))
}

func TestEnvelopeRecomputesCounts(t *testing.T) {
	tests := []struct {
		name        string
		page        int
		limit       int
		sourceTotal int
		removed     int
		wantTotal   int
		wantPages   int
	}{
		{"no dupes", 1, 24, 50, 0, 50, 3},
		{"dupes removed", 1, 24, 50, 2, 48, 2},
		{"exact page boundary", 2, 12, 24, 0, 24, 2},
		{"removal crosses boundary", 1, 12, 25, 1, 24, 2},
		{"removed exceeds total", 1, 12, 1, 3, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Envelope(tt.page, tt.limit, tt.sourceTotal, tt.removed)
			assert.Equal(t, tt.wantTotal, env.TotalItems)
			assert.Equal(t, tt.wantPages, env.TotalPages)
			assert.Equal(t, tt.page, env.Page)
			assert.Equal(t, tt.limit, env.Limit)
		})
	}
}
