package ledger

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sobook-erp/sobook/internal/platform/httpx"
)

// Handler serves the ledger CRUD endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers all record routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/assets", func(r chi.Router) {
		r.Get("/", h.listAssets)
		r.Post("/", h.createAsset)
		r.Put("/{id}", h.updateAsset)
		r.Delete("/{id}", h.deleteAsset)
	})
	r.Route("/partners", func(r chi.Router) {
		r.Get("/", h.listPartners)
		r.Post("/", h.createPartner)
		r.Put("/{id}", h.updatePartner)
		r.Delete("/{id}", h.deletePartner)
	})
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.listProjects)
		r.Post("/", h.createProject)
		r.Put("/{id}", h.updateProject)
		r.Delete("/{id}", h.deleteProject)
	})
	r.Route("/commissions", func(r chi.Router) {
		r.Post("/", h.createCommission)
		r.Put("/{id}", h.updateCommission)
		r.Delete("/{id}", h.deleteCommission)
	})
	r.Route("/ad-deposits", func(r chi.Router) {
		r.Post("/", h.createAdDeposit)
		r.Put("/{id}", h.updateAdDeposit)
		r.Delete("/{id}", h.deleteAdDeposit)
	})
	r.Route("/ad-transfers", func(r chi.Router) {
		r.Post("/", h.createAdFundTransfer)
		r.Delete("/{id}", h.deleteAdFundTransfer)
	})
	r.Route("/ad-costs", func(r chi.Router) {
		r.Post("/", h.createDailyAdCost)
		r.Put("/{id}", h.updateDailyAdCost)
		r.Delete("/{id}", h.deleteDailyAdCost)
	})
	r.Route("/expenses", func(r chi.Router) {
		r.Post("/", h.createMiscExpense)
		r.Put("/{id}", h.updateMiscExpense)
		r.Delete("/{id}", h.deleteMiscExpense)
	})
	r.Route("/debts", func(r chi.Router) {
		r.Post("/", h.createLiability)
		r.Put("/{id}", h.updateLiability)
		r.Delete("/{id}", h.deleteLiability)
		r.Post("/payments", h.createDebtPayment)
		r.Delete("/payments/{id}", h.deleteDebtPayment)
	})
	r.Route("/receivables", func(r chi.Router) {
		r.Post("/", h.createReceivable)
		r.Put("/{id}", h.updateReceivable)
		r.Delete("/{id}", h.deleteReceivable)
		r.Post("/payments", h.createReceivablePayment)
		r.Delete("/payments/{id}", h.deleteReceivablePayment)
	})
	r.Route("/period-liabilities", func(r chi.Router) {
		r.Post("/", h.createPeriodLiability)
		r.Post("/{id}/pay", h.payPeriodLiability)
		r.Delete("/{id}", h.deletePeriodLiability)
	})
	r.Route("/period-receivables", func(r chi.Router) {
		r.Post("/", h.createPeriodReceivable)
		r.Post("/{id}/receive", h.receivePeriodReceivable)
		r.Delete("/{id}", h.deletePeriodReceivable)
	})
	r.Route("/capital-inflows", func(r chi.Router) {
		r.Post("/", h.createCapitalInflow)
		r.Delete("/{id}", h.deleteCapitalInflow)
	})
	r.Route("/withdrawals", func(r chi.Router) {
		r.Post("/", h.createWithdrawal)
		r.Delete("/{id}", h.deleteWithdrawal)
	})
	r.Route("/exchanges", func(r chi.Router) {
		r.Post("/", h.createExchange)
		r.Delete("/{id}", h.deleteExchange)
	})
	r.Route("/savings", func(r chi.Router) {
		r.Post("/", h.createSaving)
		r.Post("/{id}/mature", h.matureSaving)
		r.Delete("/{id}", h.deleteSaving)
	})
	r.Route("/investments", func(r chi.Router) {
		r.Post("/", h.createInvestment)
		r.Post("/{id}/liquidate", h.liquidateInvestment)
		r.Delete("/{id}", h.deleteInvestment)
	})
	r.Route("/tax-settings", func(r chi.Router) {
		r.Get("/", h.getTaxSettings)
		r.Put("/", h.updateTaxSettings)
	})
	r.Get("/export", h.exportWorkspace)
	r.Post("/import", h.importWorkspace)
}

// respondLedgerError maps domain errors onto the error taxonomy: structural
// problems are 400, missing references 404, period locks 409 and business
// rule rejections 422.
func respondLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidPeriod), errors.Is(err, ErrInvalidShares):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrPeriodLocked):
		httpx.Problem(w, http.StatusConflict, "Period Locked", err.Error())
	case errors.Is(err, ErrInsufficientShare),
		errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrOverpayment),
		errors.Is(err, ErrSelfTransfer),
		errors.Is(err, ErrAmbiguousContributor),
		errors.Is(err, ErrSelfPartnerMissing):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Business Rule Violation", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}

// bind decodes and validates a JSON request body.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respond(w http.ResponseWriter, status int, data any, err error) {
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	httpx.JSON(w, status, data)
}

func (h *Handler) delete(w http.ResponseWriter, err error) {
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Master data ---

func (h *Handler) listAssets(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.Context())
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap.Assets)
}

func (h *Handler) createAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if !h.bind(w, r, &req) {
		return
	}
	saved, err := h.service.SaveAsset(r.Context(), Asset{
		Name: req.Name, Type: req.Type, Currency: req.Currency, OpeningBalance: req.OpeningBalance,
	})
	h.respond(w, http.StatusCreated, saved, err)
}

func (h *Handler) updateAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req assetRequest
	if !h.bind(w, r, &req) {
		return
	}
	saved, err := h.service.SaveAsset(r.Context(), Asset{
		ID: id, Name: req.Name, Type: req.Type, Currency: req.Currency, OpeningBalance: req.OpeningBalance,
	})
	h.respond(w, http.StatusOK, saved, err)
}

func (h *Handler) deleteAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	h.delete(w, h.service.DeleteAsset(r.Context(), id))
}

func (h *Handler) listPartners(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.Context())
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap.Partners)
}

func (h *Handler) createPartner(w http.ResponseWriter, r *http.Request) {
	var req partnerRequest
	if !h.bind(w, r, &req) {
		return
	}
	saved, err := h.service.SavePartner(r.Context(), Partner{
		Name: req.Name, IsSelf: req.IsSelf, CapitalBaseline: req.CapitalBaseline,
	})
	h.respond(w, http.StatusCreated, saved, err)
}

func (h *Handler) updatePartner(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req partnerRequest
	if !h.bind(w, r, &req) {
		return
	}
	saved, err := h.service.SavePartner(r.Context(), Partner{
		ID: id, Name: req.Name, IsSelf: req.IsSelf, CapitalBaseline: req.CapitalBaseline,
	})
	h.respond(w, http.StatusOK, saved, err)
}

func (h *Handler) deletePartner(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	h.delete(w, h.service.DeletePartner(r.Context(), id))
}

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.Context())
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap.Projects)
}

func (h *Handler) projectFromRequest(id uuid.UUID, req projectRequest) Project {
	return Project{
		ID: id, Name: req.Name, Period: req.Period,
		IsPartnership: req.IsPartnership, PartnerShares: toShares(req.PartnerShares),
	}
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !h.bind(w, r, &req) {
		return
	}
	saved, err := h.service.SaveProject(r.Context(), h.projectFromRequest(uuid.Nil, req))
	h.respond(w, http.StatusCreated, saved, err)
}

func (h *Handler) updateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req projectRequest
	if !h.bind(w, r, &req) {
		return
	}
	saved, err := h.service.SaveProject(r.Context(), h.projectFromRequest(id, req))
	h.respond(w, http.StatusOK, saved, err)
}

func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	h.delete(w, h.service.DeleteProject(r.Context(), id))
}

func (h *Handler) getTaxSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.TaxSettings(r.Context())
	h.respond(w, http.StatusOK, settings, err)
}

func (h *Handler) updateTaxSettings(w http.ResponseWriter, r *http.Request) {
	var req taxSettingsRequest
	if !h.bind(w, r, &req) {
		return
	}
	settings := req.toDomain()
	if err := h.service.UpdateTaxSettings(r.Context(), settings); err != nil {
		respondLedgerError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}

// --- Workspace backup ---

func (h *Handler) exportWorkspace(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Export(r.Context())
	h.respond(w, http.StatusOK, snap, err)
}

func (h *Handler) importWorkspace(w http.ResponseWriter, r *http.Request) {
	var snap Snapshot
	if err := httpx.DecodeJSON(r, &snap); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed snapshot")
		return
	}
	if err := h.service.Import(r.Context(), &snap); err != nil {
		h.logger.Error("import workspace", slog.Any("error", err))
		respondLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
