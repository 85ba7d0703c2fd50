package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sobook-erp/sobook/internal/money"
)

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, s)
	}
	return t, nil
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type shareRequest struct {
	PartnerID       uuid.UUID       `json:"partnerId" validate:"required"`
	SharePercentage decimal.Decimal `json:"sharePercentage" validate:"required"`
}

func toShares(reqs []shareRequest) []PartnerShare {
	shares := make([]PartnerShare, 0, len(reqs))
	for _, r := range reqs {
		shares = append(shares, PartnerShare{PartnerID: r.PartnerID, SharePercentage: r.SharePercentage})
	}
	return shares
}

type assetRequest struct {
	Name           string          `json:"name" validate:"required,max=120"`
	Type           string          `json:"type" validate:"max=60"`
	Currency       money.Currency  `json:"currency" validate:"required,oneof=VND USD"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
}

type partnerRequest struct {
	Name            string          `json:"name" validate:"required,max=120"`
	IsSelf          bool            `json:"isSelf"`
	CapitalBaseline decimal.Decimal `json:"capitalBaseline"`
}

type projectRequest struct {
	Name          string         `json:"name" validate:"required,max=160"`
	Period        string         `json:"period" validate:"required"`
	IsPartnership bool           `json:"isPartnership"`
	PartnerShares []shareRequest `json:"partnerShares" validate:"omitempty,dive"`
}

type commissionRequest struct {
	ProjectID     uuid.UUID       `json:"projectId" validate:"required"`
	AssetID       uuid.UUID       `json:"assetId" validate:"required"`
	Date          string          `json:"date" validate:"required"`
	USDAmount     decimal.Decimal `json:"usdAmount" validate:"required"`
	PredictedRate decimal.Decimal `json:"predictedRate" validate:"required"`
}

type adDepositRequest struct {
	AdAccountNumber string          `json:"adAccountNumber" validate:"required,max=60"`
	AssetID         uuid.UUID       `json:"assetId" validate:"required"`
	Date            string          `json:"date" validate:"required"`
	USDAmount       decimal.Decimal `json:"usdAmount" validate:"required"`
	Rate            decimal.Decimal `json:"rate" validate:"required"`
	Status          AdDepositStatus `json:"status" validate:"omitempty,oneof=ACTIVE EXHAUSTED"`
}

type adFundTransferRequest struct {
	FromAdAccountNumber string          `json:"fromAdAccountNumber" validate:"required,max=60"`
	ToAdAccountNumber   string          `json:"toAdAccountNumber" validate:"required,max=60"`
	Date                string          `json:"date" validate:"required"`
	USDAmount           decimal.Decimal `json:"usdAmount" validate:"required"`
}

type dailyAdCostRequest struct {
	ProjectID       uuid.UUID       `json:"projectId" validate:"required"`
	AdAccountNumber string          `json:"adAccountNumber" validate:"required,max=60"`
	Date            string          `json:"date" validate:"required"`
	USDAmount       decimal.Decimal `json:"usdAmount" validate:"required"`
	VATRate         decimal.Decimal `json:"vatRate"`
}

type miscExpenseRequest struct {
	AssetID       uuid.UUID       `json:"assetId" validate:"required"`
	ProjectID     *uuid.UUID      `json:"projectId"`
	Description   string          `json:"description" validate:"required,max=240"`
	Date          string          `json:"date" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	Rate          decimal.Decimal `json:"rate"`
	VATRate       decimal.Decimal `json:"vatRate"`
	IsPartnership bool            `json:"isPartnership"`
	PartnerShares []shareRequest  `json:"partnerShares" validate:"omitempty,dive"`
}

type liabilityRequest struct {
	Counterparty         string          `json:"counterparty" validate:"required,max=160"`
	TotalAmount          decimal.Decimal `json:"totalAmount" validate:"required"`
	Currency             money.Currency  `json:"currency" validate:"required,oneof=VND USD"`
	Date                 string          `json:"date" validate:"required"`
	IsInstallment        bool            `json:"isInstallment"`
	StartDate            *string         `json:"startDate"`
	NumberOfInstallments int             `json:"numberOfInstallments" validate:"gte=0"`
	InflowAssetID        *uuid.UUID      `json:"inflowAssetId"`
}

type receivableRequest struct {
	Counterparty         string          `json:"counterparty" validate:"required,max=160"`
	TotalAmount          decimal.Decimal `json:"totalAmount" validate:"required"`
	Currency             money.Currency  `json:"currency" validate:"required,oneof=VND USD"`
	Date                 string          `json:"date" validate:"required"`
	IsInstallment        bool            `json:"isInstallment"`
	StartDate            *string         `json:"startDate"`
	NumberOfInstallments int             `json:"numberOfInstallments" validate:"gte=0"`
	OutflowAssetID       *uuid.UUID      `json:"outflowAssetId"`
}

type debtPaymentRequest struct {
	LiabilityID uuid.UUID       `json:"liabilityId" validate:"required"`
	AssetID     uuid.UUID       `json:"assetId" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Date        string          `json:"date" validate:"required"`
}

type receivablePaymentRequest struct {
	ReceivableID uuid.UUID       `json:"receivableId" validate:"required"`
	AssetID      uuid.UUID       `json:"assetId" validate:"required"`
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	Date         string          `json:"date" validate:"required"`
}

type periodObligationRequest struct {
	Period   string          `json:"period" validate:"required"`
	Name     string          `json:"name" validate:"required,max=160"`
	Amount   decimal.Decimal `json:"amount" validate:"required"`
	Currency money.Currency  `json:"currency" validate:"required,oneof=VND USD"`
}

type settleRequest struct {
	AssetID uuid.UUID `json:"assetId" validate:"required"`
	Date    string    `json:"date" validate:"required"`
}

type capitalInflowRequest struct {
	AssetID          uuid.UUID       `json:"assetId" validate:"required"`
	Amount           decimal.Decimal `json:"amount" validate:"required"`
	Date             string          `json:"date" validate:"required"`
	PartnerID        *uuid.UUID      `json:"partnerId"`
	ExternalInvestor string          `json:"externalInvestor" validate:"max=160"`
}

type withdrawalRequest struct {
	AssetID     uuid.UUID       `json:"assetId" validate:"required"`
	WithdrawnBy uuid.UUID       `json:"withdrawnBy" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Date        string          `json:"date" validate:"required"`
	Note        string          `json:"note" validate:"max=240"`
}

type exchangeRequest struct {
	SellingAssetID   uuid.UUID       `json:"sellingAssetId" validate:"required"`
	ReceivingAssetID uuid.UUID       `json:"receivingAssetId" validate:"required"`
	Date             string          `json:"date" validate:"required"`
	USDAmount        decimal.Decimal `json:"usdAmount" validate:"required"`
	Rate             decimal.Decimal `json:"rate" validate:"required"`
}

type savingRequest struct {
	AssetID      uuid.UUID       `json:"assetId" validate:"required"`
	Principal    decimal.Decimal `json:"principal" validate:"required"`
	StartDate    string          `json:"startDate" validate:"required"`
	MaturityDate string          `json:"maturityDate" validate:"required"`
	InterestRate decimal.Decimal `json:"interestRate"`
}

type matureSavingRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Date   string          `json:"date" validate:"required"`
}

type investmentRequest struct {
	AssetID          uuid.UUID       `json:"assetId" validate:"required"`
	Name             string          `json:"name" validate:"required,max=160"`
	InvestmentAmount decimal.Decimal `json:"investmentAmount" validate:"required"`
	StartDate        string          `json:"startDate" validate:"required"`
}

type liquidateInvestmentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Date   string          `json:"date" validate:"required"`
}

type taxSettingsRequest struct {
	Method              TaxMethod       `json:"method" validate:"required,oneof=revenue profit_vat"`
	RevenueRate         decimal.Decimal `json:"revenueRate"`
	VATRate             decimal.Decimal `json:"vatRate"`
	IncomeRate          decimal.Decimal `json:"incomeRate"`
	RevenueBasis        AllocationBase  `json:"revenueBasis" validate:"omitempty,oneof=personal total"`
	ProfitBasis         AllocationBase  `json:"profitBasis" validate:"omitempty,oneof=personal total"`
	VATBasis            AllocationBase  `json:"vatBasis" validate:"omitempty,oneof=personal total"`
	VATInputMethod      VATInputMethod  `json:"vatInputMethod" validate:"omitempty,oneof=auto_sum manual"`
	ManualVATInput      decimal.Decimal `json:"manualVatInput"`
	TaxSeparationAmount decimal.Decimal `json:"taxSeparationAmount"`
}

func (r taxSettingsRequest) toDomain() TaxSettings {
	t := TaxSettings{
		Method:              r.Method,
		RevenueRate:         r.RevenueRate,
		VATRate:             r.VATRate,
		IncomeRate:          r.IncomeRate,
		RevenueBasis:        r.RevenueBasis,
		ProfitBasis:         r.ProfitBasis,
		VATBasis:            r.VATBasis,
		VATInputMethod:      r.VATInputMethod,
		ManualVATInput:      r.ManualVATInput,
		TaxSeparationAmount: r.TaxSeparationAmount,
	}
	if t.RevenueBasis == "" {
		t.RevenueBasis = AllocationTotal
	}
	if t.ProfitBasis == "" {
		t.ProfitBasis = AllocationTotal
	}
	if t.VATBasis == "" {
		t.VATBasis = AllocationTotal
	}
	if t.VATInputMethod == "" {
		t.VATInputMethod = VATInputAutoSum
	}
	return t
}
