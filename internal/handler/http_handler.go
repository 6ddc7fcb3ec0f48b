package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shoplocal/directory-service/internal/domain"
	"github.com/shoplocal/directory-service/internal/geo"
	"github.com/shoplocal/directory-service/internal/log"
	"github.com/shoplocal/directory-service/internal/response"
	"github.com/shoplocal/directory-service/internal/service"
	"github.com/shoplocal/directory-service/internal/viewstate"
)

const headerSessionID = "X-Session-ID"

// Handler handles HTTP requests for the directory service.
type Handler struct {
	directory service.DirectoryService
}

// NewHandler creates a new HTTP handler.
func NewHandler(directory service.DirectoryService) *Handler {
	return &Handler{directory: directory}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/listings", h.Browse)
		api.GET("/facets", h.Facets)
		api.GET("/location", h.Locate)
		api.GET("/preferences", h.LoadPreference)
		api.PUT("/preferences", h.SavePreference)
	}
}

func sessionID(c *gin.Context) string {
	if id := c.GetHeader(headerSessionID); id != "" {
		return id
	}
	// No session header means no cross-request state to maintain; fall
	// back to a per-IP bucket so the endpoints still behave sensibly.
	return "ip:" + c.ClientIP()
}

// Browse handles a directory search/browse request.
func (h *Handler) Browse(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.BrowseRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		l.Warn().Err(err).Msg("invalid browse request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.directory.Browse(ctx, sessionID(c), &req)
	if err != nil {
		l.Error().Err(err).Str("query", req.Query).Msg("browse failed")
		if result != nil {
			// Refresh failed but earlier results are still valid:
			// surface the error without tearing the listing set down.
			response.ErrorWithData(c, http.StatusBadGateway, "UPSTREAM_ERROR", "search failed", result)
			return
		}
		response.BadGateway(c, "search failed")
		return
	}

	response.Success(c, result)
}

// Facets returns the cached filter metadata.
func (h *Handler) Facets(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	facets, err := h.directory.Facets(ctx)
	if err != nil {
		l.Error().Err(err).Msg("facet fetch failed")
		response.BadGateway(c, "facets unavailable")
		return
	}

	response.Success(c, facets)
}

// Locate resolves the caller's approximate location. The data field is
// null when no stage of the fallback chain succeeded; that is a normal
// outcome, not an error.
func (h *Handler) Locate(c *gin.Context) {
	ctx := c.Request.Context()

	var coords struct {
		Lat *float64 `form:"lat"`
		Lng *float64 `form:"lng"`
	}
	if err := c.ShouldBindQuery(&coords); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	loc := h.directory.Locate(ctx, geo.Input{
		Lat:      coords.Lat,
		Lng:      coords.Lng,
		ClientIP: c.ClientIP(),
	})

	response.Success(c, loc)
}

// LoadPreference returns the session's view preference.
func (h *Handler) LoadPreference(c *gin.Context) {
	pref := h.directory.LoadPreference(c.Request.Context(), sessionID(c))
	response.Success(c, pref)
}

// SavePreference stores the session's view preference.
func (h *Handler) SavePreference(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var pref domain.ViewPreference
	if err := c.ShouldBindJSON(&pref); err != nil {
		l.Warn().Err(err).Msg("invalid preference payload")
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.directory.SavePreference(ctx, sessionID(c), pref); err != nil {
		if errors.Is(err, viewstate.ErrInvalidPreference) {
			response.BadRequest(c, err.Error())
			return
		}
		l.Error().Err(err).Msg("preference save failed")
		response.InternalError(c, "failed to save preference")
		return
	}

	response.Success(c, pref)
}
