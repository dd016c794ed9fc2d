// Package decision exposes the human review endpoints that feed the
// learning loop.
package decision

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/justin-dews/data-matcher-sub001/internal/repositories/matchdecision"
	ctxmiddleware "github.com/justin-dews/data-matcher-sub001/pkg/context"
	"github.com/justin-dews/data-matcher-sub001/pkg/matching"
	"github.com/justin-dews/data-matcher-sub001/pkg/tracing"
)

var validate = validator.New()

// Handler handles match decision requests
type Handler struct {
	feedback  *matching.FeedbackService
	decisions *matchdecision.Repository
	logger    ectologger.Logger
}

// NewHandler creates a new decision handler
func NewHandler(feedback *matching.FeedbackService, decisions *matchdecision.Repository, logger ectologger.Logger) *Handler {
	return &Handler{
		feedback:  feedback,
		decisions: decisions,
		logger:    logger,
	}
}

// RegisterRoutes registers decision routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Record)
	g.GET("", h.List)
}

// Record applies a reviewer's verdict on a candidate match
// @Failure 400 {object} httperror.HTTPError
// @Failure 500 {object} httperror.HTTPError
func (h *Handler) Record(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "decision_handler.Record")
	defer span.End()

	tenantID := ctxmiddleware.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	var req matching.DecisionRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	decision, err := h.feedback.RecordDecision(ctx, tenantID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, decision)
}

// List returns the decision audit trail, newest first
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "decision_handler.List")
	defer span.End()

	tenantID := ctxmiddleware.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	decisions, err := h.decisions.List(ctx, tenantID, c.QueryParam("entry_id"), c.QueryParam("decision"), limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, decisions)
}
