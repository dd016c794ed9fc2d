// Package graph exposes read access to the approved-match graph projection.
package graph

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	ctxmiddleware "github.com/justin-dews/data-matcher-sub001/pkg/context"
	graphpkg "github.com/justin-dews/data-matcher-sub001/pkg/graph"
	"github.com/justin-dews/data-matcher-sub001/pkg/tracing"
)

// Handler handles graph projection query endpoints
type Handler struct {
	projection *graphpkg.ProjectionService
	logger     ectologger.Logger
}

// NewHandler creates a new graph handler. projection may be nil when the
// graph store is disabled; every endpoint then answers 503.
func NewHandler(projection *graphpkg.ProjectionService, logger ectologger.Logger) *Handler {
	return &Handler{
		projection: projection,
		logger:     logger,
	}
}

// RegisterRoutes registers graph routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/products/:entryId/matches", h.MatchesForProduct)
}

// MatchesResponse lists the competitor texts projected onto one product.
type MatchesResponse struct {
	EntryID string                     `json:"entry_id"`
	Matches []graphpkg.CompetitorMatch `json:"matches"`
}

// MatchesForProduct lists approved competitor matches for a catalog entry
// @Failure 401 {object} httperror.HTTPError
// @Failure 503 {object} httperror.HTTPError
func (h *Handler) MatchesForProduct(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "graph_handler.MatchesForProduct")
	defer span.End()

	tenantID := ctxmiddleware.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	if h.projection == nil {
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "graph projection is disabled")
	}

	entryID := c.Param("entryId")
	if entryID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "entryId is required")
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
		limit = parsed
	}

	matches, err := h.projection.MatchesForProduct(ctx, tenantID, entryID, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, MatchesResponse{EntryID: entryID, Matches: matches})
}
