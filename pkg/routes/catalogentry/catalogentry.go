// Package catalogentry exposes read endpoints over the synced catalog.
// Writes arrive through the catalog sync stream, not this API.
package catalogentry

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/justin-dews/data-matcher-sub001/internal/repositories/catalogentry"
	ctxmiddleware "github.com/justin-dews/data-matcher-sub001/pkg/context"
	"github.com/justin-dews/data-matcher-sub001/pkg/tracing"
)

// Handler handles catalog entry read requests
type Handler struct {
	entries *catalogentry.Repository
}

// NewHandler creates a new catalog entry handler
func NewHandler(entries *catalogentry.Repository) *Handler {
	return &Handler{entries: entries}
}

// RegisterRoutes registers catalog entry routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
}

// List returns catalog entries for the tenant
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "catalogentry_handler.List")
	defer span.End()

	tenantID := ctxmiddleware.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	entries, err := h.entries.List(ctx, tenantID, limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entries)
}

// Get returns one catalog entry
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "catalogentry_handler.Get")
	defer span.End()

	tenantID := ctxmiddleware.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	entry, err := h.entries.Get(ctx, tenantID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entry)
}
