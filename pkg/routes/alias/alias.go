// Package alias exposes CRUD endpoints for competitor aliases.
package alias

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/justin-dews/data-matcher-sub001/internal/repositories/competitoralias"
	ctxmiddleware "github.com/justin-dews/data-matcher-sub001/pkg/context"
	"github.com/justin-dews/data-matcher-sub001/pkg/models"
	"github.com/justin-dews/data-matcher-sub001/pkg/normalize"
	"github.com/justin-dews/data-matcher-sub001/pkg/tracing"
)

var validate = validator.New()

// CreateRequest registers a curated alias for a catalog entry.
type CreateRequest struct {
	Text       string  `json:"text" validate:"required"`
	EntryID    string  `json:"entry_id" validate:"required"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
	CreatedBy  string  `json:"created_by"`
}

// Handler handles competitor alias requests
type Handler struct {
	aliases *competitoralias.Repository
	logger  ectologger.Logger
}

// NewHandler creates a new alias handler
func NewHandler(aliases *competitoralias.Repository, logger ectologger.Logger) *Handler {
	return &Handler{
		aliases: aliases,
		logger:  logger,
	}
}

// RegisterRoutes registers alias routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.DELETE("/:id", h.Delete)
}

// List returns aliases for the tenant, optionally filtered by entry
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "alias_handler.List")
	defer span.End()

	tenantID := ctxmiddleware.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	aliases, err := h.aliases.List(ctx, tenantID, c.QueryParam("entry_id"), limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, aliases)
}

// Create registers a manual alias. The text is normalized before storage so
// it matches the same way learned aliases do.
func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "alias_handler.Create")
	defer span.End()

	tenantID := ctxmiddleware.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	normalized := normalize.Text(req.Text)
	if normalized == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "text must not be blank")
	}

	confidence := req.Confidence
	if confidence == 0 {
		confidence = 1.0
	}

	alias, err := h.aliases.Upsert(ctx, &models.CompetitorAlias{
		TenantID:       tenantID,
		NormalizedName: normalized,
		EntryID:        req.EntryID,
		Confidence:     confidence,
		Source:         models.AliasSourceManual,
		CreatedBy:      req.CreatedBy,
	})
	if err != nil {
		return err
	}

	h.logger.WithContext(ctx).WithFields(map[string]any{
		"entry_id": alias.EntryID,
		"alias":    alias.NormalizedName,
	}).Info("Created manual alias")

	return c.JSON(http.StatusCreated, alias)
}

// Delete removes an alias
func (h *Handler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "alias_handler.Delete")
	defer span.End()

	tenantID := ctxmiddleware.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	if err := h.aliases.Delete(ctx, tenantID, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
