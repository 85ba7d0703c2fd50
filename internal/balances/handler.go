package balances

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sobook-erp/sobook/internal/ledger"
	"github.com/sobook-erp/sobook/internal/platform/httpx"
)

// Handler serves the resolved asset views.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the enriched asset routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/assets/enriched", h.listEnriched)
	r.Get("/assets/{id}/enriched", h.getEnriched)
}

func (h *Handler) listEnriched(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.EnrichedAssets(r.Context())
	if err != nil {
		h.logger.Error("resolve enriched assets", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) getEnriched(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "id must be a UUID")
		return
	}
	view, err := h.service.AssetView(r.Context(), id)
	if err != nil {
		h.logger.Error("resolve asset view", slog.String("asset", id.String()), slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ledger.ErrSelfPartnerMissing):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Business Rule Violation", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
