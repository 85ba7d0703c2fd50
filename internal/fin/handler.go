package fin

import (
	"log/slog"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/sobook-erp/sobook/internal/platform/httpx"
)

var periodPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Handler serves the derived financial views.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report and schedule routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/{period}", h.getReport)
	r.Get("/reports/{period}/tax", h.getTaxEstimate)
	r.Get("/debts/schedule", h.getDebtSchedule)
	r.Get("/receivables/schedule", h.getReceivableSchedule)
}

func periodParam(r *http.Request) (string, bool) {
	period := chi.URLParam(r, "period")
	if period == "" {
		period = r.URL.Query().Get("period")
	}
	return period, periodPattern.MatchString(period)
}

func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "period must be YYYY-MM")
		return
	}
	report, err := h.service.GetPeriodFinancials(r.Context(), period)
	if err != nil {
		h.logger.Error("compile period financials", slog.String("period", period), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) getTaxEstimate(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "period must be YYYY-MM")
		return
	}
	bases, result, err := h.service.GetTaxEstimate(r.Context(), period)
	if err != nil {
		h.logger.Error("tax estimate", slog.String("period", period), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"taxBases": bases, "tax": result})
}

func (h *Handler) getDebtSchedule(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "period must be YYYY-MM")
		return
	}
	rows, err := h.service.DebtSchedule(r.Context(), period)
	if err != nil {
		h.logger.Error("debt schedule", slog.String("period", period), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) getReceivableSchedule(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "period must be YYYY-MM")
		return
	}
	rows, err := h.service.ReceivableSchedule(r.Context(), period)
	if err != nil {
		h.logger.Error("receivable schedule", slog.String("period", period), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}
