package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplocal/directory-service/internal/domain"
	"github.com/shoplocal/directory-service/internal/geo"
	"github.com/shoplocal/directory-service/internal/viewstate"
)

type fakeDirectory struct {
	browseFn func(sessionID string, req *domain.BrowseRequest) (*domain.BrowseResult, error)
	facetsFn func() (*domain.FacetSet, error)
	locateFn func(in geo.Input) *domain.UserLocation
	saveErr  error
	saved    *domain.ViewPreference
}

func (f *fakeDirectory) Browse(_ context.Context, sessionID string, req *domain.BrowseRequest) (*domain.BrowseResult, error) {
	return f.browseFn(sessionID, req)
}

func (f *fakeDirectory) Facets(context.Context) (*domain.FacetSet, error) {
	return f.facetsFn()
}

func (f *fakeDirectory) Locate(_ context.Context, in geo.Input) *domain.UserLocation {
	if f.locateFn == nil {
		return nil
	}
	return f.locateFn(in)
}

func (f *fakeDirectory) LoadPreference(context.Context, string) domain.ViewPreference {
	return domain.DefaultViewPreference()
}

func (f *fakeDirectory) SavePreference(_ context.Context, _ string, pref domain.ViewPreference) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = &pref
	return nil
}

func newRouter(dir *fakeDirectory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(dir).RegisterRoutes(r)
	return r
}

func TestBrowseSuccess(t *testing.T) {
	dir := &fakeDirectory{
		browseFn: func(sessionID string, req *domain.BrowseRequest) (*domain.BrowseResult, error) {
			assert.Equal(t, "tab-42", sessionID)
			assert.Equal(t, "coffee", req.Query)
			return &domain.BrowseResult{
				Listings:   []domain.Listing{{EntityID: "A", Name: "Corner Store"}},
				Pagination: domain.Pagination{Page: 1, Limit: 24, TotalItems: 1, TotalPages: 1},
			}, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings?q=coffee", nil)
	req.Header.Set("X-Session-ID", "tab-42")
	newRouter(dir).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Contains(t, w.Body.String(), `"Corner Store"`)
}

func TestBrowseErrorWithStaleData(t *testing.T) {
	dir := &fakeDirectory{
		browseFn: func(string, *domain.BrowseRequest) (*domain.BrowseResult, error) {
			return &domain.BrowseResult{
				Listings: []domain.Listing{{EntityID: "A"}},
				Stale:    true,
			}, errors.New("backend down")
		},
	}

	w := httptest.NewRecorder()
	newRouter(dir).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil))

	require.Equal(t, http.StatusBadGateway, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"stale":true`, "prior results ride along with the error")
	assert.Contains(t, body, `"error"`)
}

func TestBrowseErrorFirstLoad(t *testing.T) {
	dir := &fakeDirectory{
		browseFn: func(string, *domain.BrowseRequest) (*domain.BrowseResult, error) {
			return nil, errors.New("backend down")
		},
	}

	w := httptest.NewRecorder()
	newRouter(dir).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil))

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), `"data"`)
}

func TestFacets(t *testing.T) {
	dir := &fakeDirectory{
		facetsFn: func() (*domain.FacetSet, error) {
			return &domain.FacetSet{
				Categories: []domain.FacetEntry{{Name: "Books", Slug: "books", Count: 3}},
			}, nil
		},
	}

	w := httptest.NewRecorder()
	newRouter(dir).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/facets", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"books"`)
}

func TestLocateUnresolvedIsNotAnError(t *testing.T) {
	dir := &fakeDirectory{
		browseFn: func(string, *domain.BrowseRequest) (*domain.BrowseResult, error) { return nil, nil },
		facetsFn: func() (*domain.FacetSet, error) { return nil, nil },
	}

	w := httptest.NewRecorder()
	newRouter(dir).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/location", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
}

func TestLocateForwardsCoordinates(t *testing.T) {
	var got geo.Input
	dir := &fakeDirectory{
		locateFn: func(in geo.Input) *domain.UserLocation {
			got = in
			return &domain.UserLocation{Lat: *in.Lat, Lng: *in.Lng, City: "Portland", State: "Oregon"}
		},
	}

	w := httptest.NewRecorder()
	newRouter(dir).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/location?lat=45.52&lng=-122.68", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got.Lat)
	assert.Equal(t, 45.52, *got.Lat)
	assert.Contains(t, w.Body.String(), `"Portland"`)
}

func TestSavePreferenceInvalid(t *testing.T) {
	dir := &fakeDirectory{saveErr: viewstate.ErrInvalidPreference}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/preferences",
		strings.NewReader(`{"mode":"carousel","page_size":17}`))
	req.Header.Set("Content-Type", "application/json")
	newRouter(dir).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSavePreferenceValid(t *testing.T) {
	dir := &fakeDirectory{}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/preferences",
		strings.NewReader(`{"mode":"map","page_size":48}`))
	req.Header.Set("Content-Type", "application/json")
	newRouter(dir).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, dir.saved)
	assert.Equal(t, domain.ViewModeMap, dir.saved.Mode)
	assert.Equal(t, 48, dir.saved.PageSize)
}

func TestLoadPreferenceDefaults(t *testing.T) {
	dir := &fakeDirectory{}

	w := httptest.NewRecorder()
	newRouter(dir).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/preferences", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"grid"`)
	assert.Contains(t, w.Body.String(), `"page_size":24`)
}
