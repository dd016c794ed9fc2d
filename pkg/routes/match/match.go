// Package match exposes the resolve endpoints of the matching engine.
package match

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	ctxmiddleware "github.com/justin-dews/data-matcher-sub001/pkg/context"
	"github.com/justin-dews/data-matcher-sub001/pkg/matching"
	"github.com/justin-dews/data-matcher-sub001/pkg/models"
	"github.com/justin-dews/data-matcher-sub001/pkg/tracing"
)

var validate = validator.New()

// maxBatchSize bounds one batch request. Larger batches should be split by
// the caller.
const maxBatchSize = 50

// ResolveRequest is one match query from a client.
type ResolveRequest struct {
	Text      string    `json:"text" validate:"required"`
	Embedding []float64 `json:"embedding,omitempty"`
	Limit     int       `json:"limit,omitempty"`
	// Omitted means the configured default; an explicit 0 disables filtering.
	Threshold *float64 `json:"threshold,omitempty"`
}

// BatchResolveRequest resolves several queries in one call.
type BatchResolveRequest struct {
	Queries []ResolveRequest `json:"queries" validate:"required,min=1,dive"`
}

// ResolveResponse is the ranked result set for one query.
type ResolveResponse struct {
	Results []models.MatchCandidate `json:"results"`
}

// BatchResolveResponse holds one result set per input query, in order.
type BatchResolveResponse struct {
	Results [][]models.MatchCandidate `json:"results"`
}

// Handler handles match resolution requests
type Handler struct {
	engine *matching.Engine
	logger ectologger.Logger
}

// NewHandler creates a new match handler
func NewHandler(engine *matching.Engine, logger ectologger.Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: logger,
	}
}

// RegisterRoutes registers match routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/resolve", h.Resolve)
	g.POST("/resolve/batch", h.ResolveBatch)
}

// Resolve ranks catalog entries against one competitor line item
// @Failure 400 {object} httperror.HTTPError
// @Failure 500 {object} httperror.HTTPError
func (h *Handler) Resolve(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "match_handler.Resolve")
	defer span.End()

	tenantID := ctxmiddleware.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	var req ResolveRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	results, err := h.engine.Resolve(ctx, tenantID, models.MatchQuery{
		Text:      req.Text,
		Embedding: req.Embedding,
		Limit:     req.Limit,
		Threshold: req.Threshold,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ResolveResponse{Results: results})
}

// ResolveBatch ranks catalog entries for several line items at once
// @Failure 400 {object} httperror.HTTPError
// @Failure 500 {object} httperror.HTTPError
func (h *Handler) ResolveBatch(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "match_handler.ResolveBatch")
	defer span.End()

	tenantID := ctxmiddleware.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	var req BatchResolveRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Queries) > maxBatchSize {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "batch size exceeds %d queries", maxBatchSize)
	}

	queries := make([]models.MatchQuery, len(req.Queries))
	for i, q := range req.Queries {
		queries[i] = models.MatchQuery{
			Text:      q.Text,
			Embedding: q.Embedding,
			Limit:     q.Limit,
			Threshold: q.Threshold,
		}
	}

	results, err := h.engine.ResolveBatch(ctx, tenantID, queries)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, BatchResolveResponse{Results: results})
}
