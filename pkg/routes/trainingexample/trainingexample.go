// Package trainingexample exposes curation endpoints over the training
// corpus.
package trainingexample

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/justin-dews/data-matcher-sub001/internal/repositories/trainingexample"
	ctxmiddleware "github.com/justin-dews/data-matcher-sub001/pkg/context"
	"github.com/justin-dews/data-matcher-sub001/pkg/tracing"
)

var validate = validator.New()

// WeightRequest adjusts the manual multiplier on one example.
type WeightRequest struct {
	Weight float64 `json:"weight" validate:"required,gt=0,lte=10"`
}

// Handler handles training example curation requests
type Handler struct {
	examples *trainingexample.Repository
	logger   ectologger.Logger
}

// NewHandler creates a new training example handler
func NewHandler(examples *trainingexample.Repository, logger ectologger.Logger) *Handler {
	return &Handler{
		examples: examples,
		logger:   logger,
	}
}

// RegisterRoutes registers training example routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.PUT("/:id/weight", h.SetWeight)
	g.DELETE("/:id", h.Delete)
}

// List returns training examples, most recently approved first
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "trainingexample_handler.List")
	defer span.End()

	tenantID := ctxmiddleware.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	examples, err := h.examples.List(ctx, tenantID, c.QueryParam("quality"), limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, examples)
}

// SetWeight adjusts how strongly one example influences future matches
func (h *Handler) SetWeight(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "trainingexample_handler.SetWeight")
	defer span.End()

	tenantID := ctxmiddleware.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	var req WeightRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	id := c.Param("id")
	if err := h.examples.SetWeight(ctx, tenantID, id, req.Weight); err != nil {
		return err
	}

	h.logger.WithContext(ctx).WithFields(map[string]any{
		"example_id": id,
		"weight":     req.Weight,
	}).Info("Updated training example weight")

	return c.NoContent(http.StatusNoContent)
}

// Delete removes a training example from the corpus
func (h *Handler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "trainingexample_handler.Delete")
	defer span.End()

	tenantID := ctxmiddleware.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	if err := h.examples.Delete(ctx, tenantID, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
