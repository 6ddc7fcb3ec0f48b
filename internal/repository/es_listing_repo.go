package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/shoplocal/directory-service/internal/domain"
)

type esListingRepository struct {
	client   *elasticsearch.Client
	index    string
	idFields []string
}

// NewESListingRepository creates an Elasticsearch-backed repository over
// the listings materialized-view index. idFields is the ordered list of
// source fields tried when normalizing a row's entity identifier.
func NewESListingRepository(client *elasticsearch.Client, index string, idFields []string) SearchRepository {
	if len(idFields) == 0 {
		idFields = []string{"entity_id", "store_id", "listing_id", "id"}
	}
	return &esListingRepository{
		client:   client,
		index:    index,
		idFields: idFields,
	}
}

func (r *esListingRepository) SearchListings(ctx context.Context, req *domain.BrowseRequest) ([]domain.Listing, int, error) {
	from := (req.Page - 1) * req.Limit
	if from < 0 {
		from = 0
	}

	body := map[string]interface{}{
		"from":  from,
		"size":  req.Limit,
		"query": buildQuery(req),
		"sort":  buildSort(req),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search listings: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var result esResponse
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, 0, fmt.Errorf("failed to decode response: %w", err)
	}

	listings := make([]domain.Listing, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		listing, ok := r.decodeListing(hit.Source)
		if !ok {
			continue
		}
		listings = append(listings, listing)
	}

	return listings, result.Hits.Total.Value, nil
}

// listingDoc mirrors domain.Listing minus the identifier: id fields in
// the source drifted between string and numeric across schema versions,
// so the identifier is resolved separately from the raw document rather
// than bound to a single typed field.
type listingDoc struct {
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

// decodeListing unmarshals one hit and normalizes its entity identifier
// from whichever historical field name is populated, so everything past
// this boundary sees a single canonical EntityID.
func (r *esListingRepository) decodeListing(src json.RawMessage) (domain.Listing, bool) {
	var doc listingDoc
	if err := json.Unmarshal(src, &doc); err != nil {
		return domain.Listing{}, false
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(src, &raw); err != nil {
		return domain.Listing{}, false
	}

	return domain.Listing{
		EntityID:    resolveEntityID(raw, r.idFields),
		Category:    doc.Category,
		Name:        doc.Name,
		Address:     doc.Address,
		City:        doc.City,
		State:       doc.State,
		Lat:         doc.Lat,
		Lng:         doc.Lng,
		Rating:      doc.Rating,
		ReviewCount: doc.ReviewCount,
		StockCount:  doc.StockCount,
		Rank:        doc.Rank,
	}, true
}

// resolveEntityID returns the first populated candidate field as a
// string. Numeric identifiers from older schema versions are rendered
// in decimal so they compare equal across rows.
func resolveEntityID(src map[string]json.RawMessage, fields []string) string {
	for _, f := range fields {
		raw, ok := src[f]
		if !ok {
			continue
		}

		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s != "" {
				return s
			}
			continue
		}

		var n float64
		if err := json.Unmarshal(raw, &n); err == nil && n != 0 {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
	}
	return ""
}

func buildQuery(req *domain.BrowseRequest) map[string]interface{} {
	var must []interface{}
	if req.Query != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  req.Query,
				"fields": []string{"name^2", "address", "category"},
			},
		})
	}

	var filter []interface{}
	if req.Category != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"category_slug": req.Category},
		})
	}
	if req.StoreType != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"store_type_slug": req.StoreType},
		})
	}

	if len(must) == 0 && len(filter) == 0 {
		return map[string]interface{}{"match_all": map[string]interface{}{}}
	}

	boolQuery := map[string]interface{}{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	return map[string]interface{}{"bool": boolQuery}
}

func buildSort(req *domain.BrowseRequest) []interface{} {
	switch {
	case req.Sort == domain.SortDistance && req.HasCoords():
		return []interface{}{
			map[string]interface{}{
				"_geo_distance": map[string]interface{}{
					"location": map[string]interface{}{"lat": *req.Lat, "lon": *req.Lng},
					"order":    "asc",
					"unit":     "km",
				},
			},
		}
	case req.Sort == domain.SortName:
		return []interface{}{
			map[string]interface{}{"name.keyword": map[string]interface{}{"order": "asc"}},
		}
	case req.Sort == domain.SortRating:
		return []interface{}{
			map[string]interface{}{"rating": map[string]interface{}{"order": "desc"}},
		}
	default:
		return []interface{}{
			map[string]interface{}{"rank": map[string]interface{}{"order": "desc"}},
			"_score",
		}
	}
}

func (r *esListingRepository) CategoryFacets(ctx context.Context) ([]domain.FacetEntry, error) {
	return r.facets(ctx, "category.keyword")
}

func (r *esListingRepository) StoreTypeFacets(ctx context.Context) ([]domain.FacetEntry, error) {
	return r.facets(ctx, "store_type.keyword")
}

// facets runs a terms aggregation over field and returns name/slug/count
// triples ordered by count.
func (r *esListingRepository) facets(ctx context.Context, field string) ([]domain.FacetEntry, error) {
	body := map[string]interface{}{
		"size": 0,
		"aggs": map[string]interface{}{
			"facets": map[string]interface{}{
				"terms": map[string]interface{}{
					"field": field,
					"size":  200,
				},
			},
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch facets: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var result struct {
		Aggregations struct {
			Facets struct {
				Buckets []struct {
					Key      string `json:"key"`
					DocCount int    `json:"doc_count"`
				} `json:"buckets"`
			} `json:"facets"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	entries := make([]domain.FacetEntry, 0, len(result.Aggregations.Facets.Buckets))
	for _, b := range result.Aggregations.Facets.Buckets {
		slug := domain.Slugify(b.Key)
		entries = append(entries, domain.FacetEntry{
			ID:    slug,
			Name:  b.Key,
			Slug:  slug,
			Count: b.DocCount,
		})
	}
	return entries, nil
}

// esResponse is the generic Elasticsearch search response structure.
type esResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
