package ledger

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/sobook-erp/sobook/internal/money"
)

func currencyForSaving(snap *Snapshot, id uuid.UUID) money.Currency {
	for _, v := range snap.Savings {
		if v.ID == id {
			if a, ok := snap.Asset(v.AssetID); ok {
				return a.Currency
			}
		}
	}
	return money.VND
}

func currencyForInvestment(snap *Snapshot, id uuid.UUID) money.Currency {
	for _, inv := range snap.Investments {
		if inv.ID == id {
			if a, ok := snap.Asset(inv.AssetID); ok {
				return a.Currency
			}
		}
	}
	return money.VND
}

func (h *Handler) saveCommission(w http.ResponseWriter, r *http.Request, id uuid.UUID, status int) {
	var req commissionRequest
	if !h.bind(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	saved, err := h.service.SaveCommission(r.Context(), Commission{
		ID: id, ProjectID: req.ProjectID, AssetID: req.AssetID,
		Date: date, USDAmount: req.USDAmount, PredictedRate: req.PredictedRate,
	})
	h.respond(w, status, saved, err)
}

func (h *Handler) createCommission(w http.ResponseWriter, r *http.Request) {
	h.saveCommission(w, r, uuid.Nil, http.StatusCreated)
}

func (h *Handler) updateCommission(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.saveCommission(w, r, id, http.StatusOK)
	}
}

func (h *Handler) deleteCommission(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.delete(w, h.service.DeleteCommission(r.Context(), id))
	}
}

func (h *Handler) saveAdDeposit(w http.ResponseWriter, r *http.Request, id uuid.UUID, status int) {
	var req adDepositRequest
	if !h.bind(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	saved, err := h.service.SaveAdDeposit(r.Context(), AdDeposit{
		ID: id, AdAccountNumber: req.AdAccountNumber, AssetID: req.AssetID,
		Date: date, USDAmount: req.USDAmount, Rate: req.Rate, Status: req.Status,
	})
	h.respond(w, status, saved, err)
}

func (h *Handler) createAdDeposit(w http.ResponseWriter, r *http.Request) {
	h.saveAdDeposit(w, r, uuid.Nil, http.StatusCreated)
}

func (h *Handler) updateAdDeposit(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.saveAdDeposit(w, r, id, http.StatusOK)
	}
}

func (h *Handler) deleteAdDeposit(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.delete(w, h.service.DeleteAdDeposit(r.Context(), id))
	}
}

func (h *Handler) createAdFundTransfer(w http.ResponseWriter, r *http.Request) {
	var req adFundTransferRequest
	if !h.bind(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	saved, err := h.service.SaveAdFundTransfer(r.Context(), AdFundTransfer{
		FromAdAccountNumber: req.FromAdAccountNumber,
		ToAdAccountNumber:   req.ToAdAccountNumber,
		Date:                date, USDAmount: req.USDAmount,
	})
	h.respond(w, http.StatusCreated, saved, err)
}

func (h *Handler) deleteAdFundTransfer(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.delete(w, h.service.DeleteAdFundTransfer(r.Context(), id))
	}
}

func (h *Handler) saveDailyAdCost(w http.ResponseWriter, r *http.Request, id uuid.UUID, status int) {
	var req dailyAdCostRequest
	if !h.bind(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	saved, err := h.service.SaveDailyAdCost(r.Context(), DailyAdCost{
		ID: id, ProjectID: req.ProjectID, AdAccountNumber: req.AdAccountNumber,
		Date: date, USDAmount: req.USDAmount, VATRate: req.VATRate,
	})
	h.respond(w, status, saved, err)
}

func (h *Handler) createDailyAdCost(w http.ResponseWriter, r *http.Request) {
	h.saveDailyAdCost(w, r, uuid.Nil, http.StatusCreated)
}

func (h *Handler) updateDailyAdCost(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.saveDailyAdCost(w, r, id, http.StatusOK)
	}
}

func (h *Handler) deleteDailyAdCost(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.delete(w, h.service.DeleteDailyAdCost(r.Context(), id))
	}
}

func (h *Handler) saveMiscExpense(w http.ResponseWriter, r *http.Request, id uuid.UUID, status int) {
	var req miscExpenseRequest
	if !h.bind(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	saved, err := h.service.SaveMiscExpense(r.Context(), MiscellaneousExpense{
		ID: id, AssetID: req.AssetID, ProjectID: req.ProjectID,
		Description: req.Description, Date: date, Amount: req.Amount,
		Rate: req.Rate, VATRate: req.VATRate,
		IsPartnership: req.IsPartnership, PartnerShares: toShares(req.PartnerShares),
	})
	h.respond(w, status, saved, err)
}

func (h *Handler) createMiscExpense(w http.ResponseWriter, r *http.Request) {
	h.saveMiscExpense(w, r, uuid.Nil, http.StatusCreated)
}

func (h *Handler) updateMiscExpense(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.saveMiscExpense(w, r, id, http.StatusOK)
	}
}

func (h *Handler) deleteMiscExpense(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.delete(w, h.service.DeleteMiscExpense(r.Context(), id))
	}
}

func (h *Handler) saveLiability(w http.ResponseWriter, r *http.Request, id uuid.UUID, status int) {
	var req liabilityRequest
	if !h.bind(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	saved, err := h.service.SaveLiability(r.Context(), Liability{
		ID: id, Counterparty: req.Counterparty, TotalAmount: req.TotalAmount,
		Currency: req.Currency, Date: date, IsInstallment: req.IsInstallment,
		StartDate: start, NumberOfInstallments: req.NumberOfInstallments,
		InflowAssetID: req.InflowAssetID,
	})
	h.respond(w, status, saved, err)
}

func (h *Handler) createLiability(w http.ResponseWriter, r *http.Request) {
	h.saveLiability(w, r, uuid.Nil, http.StatusCreated)
}

func (h *Handler) updateLiability(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.saveLiability(w, r, id, http.StatusOK)
	}
}

func (h *Handler) deleteLiability(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.delete(w, h.service.DeleteLiability(r.Context(), id))
	}
}

func (h *Handler) saveReceivable(w http.ResponseWriter, r *http.Request, id uuid.UUID, status int) {
	var req receivableRequest
	if !h.bind(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	saved, err := h.service.SaveReceivable(r.Context(), Receivable{
		ID: id, Counterparty: req.Counterparty, TotalAmount: req.TotalAmount,
		Currency: req.Currency, Date: date, IsInstallment: req.IsInstallment,
		StartDate: start, NumberOfInstallments: req.NumberOfInstallments,
		OutflowAssetID: req.OutflowAssetID,
	})
	h.respond(w, status, saved, err)
}

func (h *Handler) createReceivable(w http.ResponseWriter, r *http.Request) {
	h.saveReceivable(w, r, uuid.Nil, http.StatusCreated)
}

func (h *Handler) updateReceivable(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.saveReceivable(w, r, id, http.StatusOK)
	}
}

func (h *Handler) deleteReceivable(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.delete(w, h.service.DeleteReceivable(r.Context(), id))
	}
}

func (h *Handler) createDebtPayment(w http.ResponseWriter, r *http.Request) {
	var req debtPaymentRequest
	if !h.bind(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	saved, err := h.service.CreateDebtPayment(r.Context(), DebtPayment{
		LiabilityID: req.LiabilityID, AssetID: req.AssetID, Amount: req.Amount, Date: date,
	})
	h.respond(w, http.StatusCreated, saved, err)
}

func (h *Handler) deleteDebtPayment(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.delete(w, h.service.DeleteDebtPayment(r.Context(), id))
	}
}

func (h *Handler) createReceivablePayment(w http.ResponseWriter, r *http.Request) {
	var req receivablePaymentRequest
	if !h.bind(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	saved, err := h.service.CreateReceivablePayment(r.Context(), ReceivablePayment{
		ReceivableID: req.ReceivableID, AssetID: req.AssetID, Amount: req.Amount, Date: date,
	})
	h.respond(w, http.StatusCreated, saved, err)
}

func (h *Handler) deleteReceivablePayment(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.delete(w, h.service.DeleteReceivablePayment(r.Context(), id))
	}
}

func (h *Handler) createPeriodLiability(w http.ResponseWriter, r *http.Request) {
	var req periodObligationRequest
	if !h.bind(w, r, &req) {
		return
	}
	saved, err := h.service.SavePeriodLiability(r.Context(), PeriodLiability{
		Period: req.Period, Name: req.Name, Amount: req.Amount, Currency: req.Currency,
	})
	h.respond(w, http.StatusCreated, saved, err)
}

func (h *Handler) payPeriodLiability(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req settleRequest
	if !h.bind(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	saved, err := h.service.MarkPeriodLiabilityPaid(r.Context(), id, req.AssetID, date)
	h.respond(w, http.StatusOK, saved, err)
}

func (h *Handler) deletePeriodLiability(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.delete(w, h.service.DeletePeriodLiability(r.Context(), id))
	}
}

func (h *Handler) createPeriodReceivable(w http.ResponseWriter, r *http.Request) {
	var req periodObligationRequest
	if !h.bind(w, r, &req) {
		return
	}
	saved, err := h.service.SavePeriodReceivable(r.Context(), PeriodReceivable{
		Period: req.Period, Name: req.Name, Amount: req.Amount, Currency: req.Currency,
	})
	h.respond(w, http.StatusCreated, saved, err)
}

func (h *Handler) receivePeriodReceivable(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req settleRequest
	if !h.bind(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	saved, err := h.service.MarkPeriodReceivableReceived(r.Context(), id, req.AssetID, date)
	h.respond(w, http.StatusOK, saved, err)
}

func (h *Handler) deletePeriodReceivable(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.delete(w, h.service.DeletePeriodReceivable(r.Context(), id))
	}
}

func (h *Handler) createCapitalInflow(w http.ResponseWriter, r *http.Request) {
	var req capitalInflowRequest
	if !h.bind(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	saved, err := h.service.SaveCapitalInflow(r.Context(), CapitalInflow{
		AssetID: req.AssetID, Amount: req.Amount, Date: date,
		PartnerID: req.PartnerID, ExternalInvestor: req.ExternalInvestor,
	})
	h.respond(w, http.StatusCreated, saved, err)
}

func (h *Handler) deleteCapitalInflow(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.delete(w, h.service.DeleteCapitalInflow(r.Context(), id))
	}
}

func (h *Handler) createWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req withdrawalRequest
	if !h.bind(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	saved, err := h.service.CreateWithdrawal(r.Context(), Withdrawal{
		AssetID: req.AssetID, WithdrawnBy: req.WithdrawnBy,
		Amount: req.Amount, Date: date, Note: req.Note,
	})
	h.respond(w, http.StatusCreated, saved, err)
}

func (h *Handler) deleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.delete(w, h.service.DeleteWithdrawal(r.Context(), id))
	}
}

func (h *Handler) createExchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if !h.bind(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	saved, err := h.service.CreateExchange(r.Context(), ExchangeLog{
		SellingAssetID: req.SellingAssetID, ReceivingAssetID: req.ReceivingAssetID,
		Date: date, USDAmount: req.USDAmount, Rate: req.Rate,
	})
	h.respond(w, http.StatusCreated, saved, err)
}

func (h *Handler) deleteExchange(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.delete(w, h.service.DeleteExchange(r.Context(), id))
	}
}

func (h *Handler) createSaving(w http.ResponseWriter, r *http.Request) {
	var req savingRequest
	if !h.bind(w, r, &req) {
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	maturity, err := parseDate(req.MaturityDate)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	saved, err := h.service.CreateSaving(r.Context(), Saving{
		AssetID: req.AssetID, Principal: req.Principal,
		StartDate: start, MaturityDate: maturity, InterestRate: req.InterestRate,
	})
	h.respond(w, http.StatusCreated, saved, err)
}

func (h *Handler) matureSaving(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req matureSavingRequest
	if !h.bind(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	snap, err := h.service.Snapshot(r.Context())
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	currency := currencyForSaving(snap, id)
	saved, err := h.service.MatureSaving(r.Context(), id, money.New(req.Amount, currency), date)
	h.respond(w, http.StatusOK, saved, err)
}

func (h *Handler) deleteSaving(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.delete(w, h.service.DeleteSaving(r.Context(), id))
	}
}

func (h *Handler) createInvestment(w http.ResponseWriter, r *http.Request) {
	var req investmentRequest
	if !h.bind(w, r, &req) {
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	saved, err := h.service.CreateInvestment(r.Context(), Investment{
		AssetID: req.AssetID, Name: req.Name,
		InvestmentAmount: req.InvestmentAmount, StartDate: start,
	})
	h.respond(w, http.StatusCreated, saved, err)
}

func (h *Handler) liquidateInvestment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req liquidateInvestmentRequest
	if !h.bind(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	snap, err := h.service.Snapshot(r.Context())
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	currency := currencyForInvestment(snap, id)
	saved, err := h.service.LiquidateInvestment(r.Context(), id, money.New(req.Amount, currency), date)
	h.respond(w, http.StatusOK, saved, err)
}

func (h *Handler) deleteInvestment(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(w, r); ok {
		h.delete(w, h.service.DeleteInvestment(r.Context(), id))
	}
}
