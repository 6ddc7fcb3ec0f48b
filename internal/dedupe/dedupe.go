// Package dedupe collapses the one-row-per-category materialized view
// back to one row per logical store.
package dedupe

import "github.com/shoplocal/directory-service/internal/domain"

// Listings removes duplicate rows sharing an entity identifier, keeping
// the first occurrence in source order. Rows without an identifier are
// always kept: a missing ID must never match a previously seen value.
// The function is pure and idempotent.
func Listings(rows []domain.Listing) []domain.Listing {
	if len(rows) == 0 {
		return rows
	}

	seen := make(map[string]struct{}, len(rows))
	out := make([]domain.Listing, 0, len(rows))
	for _, row := range rows {
		if row.EntityID != "" {
			if _, dup := seen[row.EntityID]; dup {
				continue
			}
			seen[row.EntityID] = struct{}{}
		}
		out = append(out, row)
	}
	return out
}

// Envelope recomputes pagination counts after dedup so the math shown
// to the user reflects logical stores, not physical rows. removed is
// the number of rows dropped from the current page.
func Envelope(page, limit, sourceTotal, removed int) domain.Pagination {
	total := sourceTotal - removed
	if total < 0 {
		total = 0
	}

	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}

	return domain.Pagination{
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: pages,
	}
}
