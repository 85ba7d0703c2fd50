package periods

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sobook-erp/sobook/internal/ledger"
	"github.com/sobook-erp/sobook/internal/platform/httpx"
)

// Handler serves the period lifecycle endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers period routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/periods", h.list)
	r.Get("/periods/current", h.current)
	r.Get("/periods/{period}", h.get)
	r.Post("/periods/{period}/open", h.open)
	r.Post("/periods/{period}/close", h.close)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidPeriod):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrPeriodNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrActivePeriodExists),
		errors.Is(err, ErrPeriodClosed),
		errors.Is(err, ErrNotActive),
		errors.Is(err, ErrBeforeCutoff),
		errors.Is(err, ErrNoActivePeriod),
		errors.Is(err, ErrDateOutsideActive):
		httpx.Problem(w, http.StatusConflict, "Period Lifecycle Conflict", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}

type periodResponse struct {
	ID       string          `json:"id"`
	Status   Status          `json:"status"`
	OpenedAt string          `json:"openedAt"`
	ClosedAt *string         `json:"closedAt,omitempty"`
	Report   json.RawMessage `json:"report,omitempty"`
}

func toResponse(p Period) periodResponse {
	resp := periodResponse{ID: p.ID, Status: p.Status, OpenedAt: p.OpenedAt.Format("2006-01-02"), Report: p.Report}
	if p.ClosedAt != nil {
		closed := p.ClosedAt.Format("2006-01-02")
		resp.ClosedAt = &closed
	}
	return resp
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list periods", slog.Any("error", err))
		respondError(w, err)
		return
	}
	out := make([]periodResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toResponse(p))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Current(r.Context())
	if err != nil {
		if errors.Is(err, ErrNoActivePeriod) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("current period", slog.Any("error", err))
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "period"))
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	period := chi.URLParam(r, "period")
	p, err := h.service.Open(r.Context(), period)
	if err != nil {
		h.logger.Warn("open period", slog.String("period", period), slog.Any("error", err))
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(p))
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	period := chi.URLParam(r, "period")
	p, err := h.service.Close(r.Context(), period)
	if err != nil {
		h.logger.Warn("close period", slog.String("period", period), slog.Any("error", err))
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(p))
}
