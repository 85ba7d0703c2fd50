package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sobook-erp/sobook/internal/money"
)

// Asset models a cash position (bank account, wallet, cash box) in one currency.
type Asset struct {
	ID             uuid.UUID
	Name           string
	Type           string
	Currency       money.Currency
	OpeningBalance decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Partner is an equity holder. Exactly one partner carries IsSelf, the
// distinguished owner who receives everything without an explicit split.
type Partner struct {
	ID              uuid.UUID
	Name            string
	IsSelf          bool
	CapitalBaseline decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PartnerShare assigns a percentage of a partnership entity to a partner.
type PartnerShare struct {
	PartnerID       uuid.UUID
	SharePercentage decimal.Decimal
}

// Project groups revenue and cost lines and carries the ownership split
// applied to every line attributed to it.
type Project struct {
	ID            uuid.UUID
	Name          string
	Period        string
	IsPartnership bool
	PartnerShares []PartnerShare
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Commission is a revenue event booked in USD at a predicted rate. The VND
// amount is fixed at creation and never recomputed.
type Commission struct {
	ID            uuid.UUID
	ProjectID     uuid.UUID
	AssetID       uuid.UUID
	Date          time.Time
	USDAmount     decimal.Decimal
	PredictedRate decimal.Decimal
	VNDAmount     decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AdDepositStatus enumerates ad deposit lifecycle values.
type AdDepositStatus string

const (
	AdDepositStatusActive    AdDepositStatus = "ACTIVE"
	AdDepositStatusExhausted AdDepositStatus = "EXHAUSTED"
)

// AdDeposit funds an advertising account from an asset.
type AdDeposit struct {
	ID              uuid.UUID
	AdAccountNumber string
	AssetID         uuid.UUID
	Date            time.Time
	USDAmount       decimal.Decimal
	Rate            decimal.Decimal
	VNDAmount       decimal.Decimal
	Status          AdDepositStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AdFundTransfer moves balance between two ad accounts without touching assets.
type AdFundTransfer struct {
	ID                  uuid.UUID
	FromAdAccountNumber string
	ToAdAccountNumber   string
	Date                time.Time
	USDAmount           decimal.Decimal
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// DailyAdCost is an advertising spend line in USD. It carries no rate of its
// own; conversion resolves against the account's deposits.
type DailyAdCost struct {
	ID              uuid.UUID
	ProjectID       uuid.UUID
	AdAccountNumber string
	Date            time.Time
	USDAmount       decimal.Decimal
	VATRate         decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MiscellaneousExpense is a cost line that may bypass project attribution and
// carry its own partnership split.
type MiscellaneousExpense struct {
	ID            uuid.UUID
	AssetID       uuid.UUID
	ProjectID     *uuid.UUID
	Description   string
	Date          time.Time
	Amount        decimal.Decimal
	Rate          decimal.Decimal
	VNDAmount     decimal.Decimal
	VATRate       decimal.Decimal
	IsPartnership bool
	PartnerShares []PartnerShare
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Liability is money owed to a counterparty, optionally on a fixed monthly
// installment schedule. Schedule fields are set at creation and only
// referenced afterwards.
type Liability struct {
	ID                   uuid.UUID
	Counterparty         string
	TotalAmount          decimal.Decimal
	Currency             money.Currency
	Date                 time.Time
	IsInstallment        bool
	StartDate            *time.Time
	NumberOfInstallments int
	InflowAssetID        *uuid.UUID
	CompletionDate       *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Receivable is money owed by a counterparty; the mirror of Liability.
type Receivable struct {
	ID                   uuid.UUID
	Counterparty         string
	TotalAmount          decimal.Decimal
	Currency             money.Currency
	Date                 time.Time
	IsInstallment        bool
	StartDate            *time.Time
	NumberOfInstallments int
	OutflowAssetID       *uuid.UUID
	CompletionDate       *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// DebtPayment settles part of a liability from an asset.
type DebtPayment struct {
	ID          uuid.UUID
	LiabilityID uuid.UUID
	AssetID     uuid.UUID
	Amount      decimal.Decimal
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReceivablePayment records a collection against a receivable into an asset.
type ReceivablePayment struct {
	ID           uuid.UUID
	ReceivableID uuid.UUID
	AssetID      uuid.UUID
	Amount       decimal.Decimal
	Date         time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PeriodLiability is a single-period, non-amortized obligation.
type PeriodLiability struct {
	ID        uuid.UUID
	Period    string
	Name      string
	Amount    decimal.Decimal
	Currency  money.Currency
	IsPaid    bool
	AssetID   *uuid.UUID
	PaidDate  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PeriodReceivable is a single-period, non-amortized claim.
type PeriodReceivable struct {
	ID           uuid.UUID
	Period       string
	Name         string
	Amount       decimal.Decimal
	Currency     money.Currency
	IsReceived   bool
	AssetID      *uuid.UUID
	ReceivedDate *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CapitalInflow increases an asset and a contributor's capital. At most one
// of PartnerID and ExternalInvestor is set; neither means the self partner.
type CapitalInflow struct {
	ID               uuid.UUID
	AssetID          uuid.UUID
	Amount           decimal.Decimal
	Date             time.Time
	PartnerID        *uuid.UUID
	ExternalInvestor string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Withdrawal takes money out of an asset against a specific partner's share.
type Withdrawal struct {
	ID          uuid.UUID
	AssetID     uuid.UUID
	WithdrawnBy uuid.UUID
	Amount      decimal.Decimal
	Date        time.Time
	Note        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ExchangeLog converts a USD asset balance into a VND asset at an actual rate.
type ExchangeLog struct {
	ID               uuid.UUID
	SellingAssetID   uuid.UUID
	ReceivingAssetID uuid.UUID
	Date             time.Time
	USDAmount        decimal.Decimal
	Rate             decimal.Decimal
	VNDAmount        decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SavingStatus enumerates saving lifecycle values.
type SavingStatus string

const (
	SavingStatusActive  SavingStatus = "ACTIVE"
	SavingStatusMatured SavingStatus = "MATURED"
)

// Saving parks principal from an asset into a term deposit.
type Saving struct {
	ID            uuid.UUID
	AssetID       uuid.UUID
	Principal     decimal.Decimal
	StartDate     time.Time
	MaturityDate  time.Time
	InterestRate  decimal.Decimal
	Status        SavingStatus
	MaturedAmount decimal.Decimal
	MaturedDate   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InvestmentStatus enumerates investment lifecycle values.
type InvestmentStatus string

const (
	InvestmentStatusActive     InvestmentStatus = "ACTIVE"
	InvestmentStatusLiquidated InvestmentStatus = "LIQUIDATED"
)

// Investment removes capital from circulation until liquidation.
type Investment struct {
	ID                uuid.UUID
	AssetID           uuid.UUID
	Name              string
	InvestmentAmount  decimal.Decimal
	StartDate         time.Time
	Status            InvestmentStatus
	LiquidationAmount decimal.Decimal
	LiquidationDate   *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TaxMethod selects the tax computation scheme.
type TaxMethod string

const (
	TaxMethodRevenue   TaxMethod = "revenue"
	TaxMethodProfitVAT TaxMethod = "profit_vat"
)

// AllocationBase selects whose figures feed a tax base.
type AllocationBase string

const (
	AllocationPersonal AllocationBase = "personal"
	AllocationTotal    AllocationBase = "total"
)

// VATInputMethod selects how input VAT is obtained.
type VATInputMethod string

const (
	VATInputAutoSum VATInputMethod = "auto_sum"
	VATInputManual  VATInputMethod = "manual"
)

// TaxSettings is the workspace-wide tax configuration singleton.
type TaxSettings struct {
	Method              TaxMethod
	RevenueRate         decimal.Decimal
	VATRate             decimal.Decimal
	IncomeRate          decimal.Decimal
	RevenueBasis        AllocationBase
	ProfitBasis         AllocationBase
	VATBasis            AllocationBase
	VATInputMethod      VATInputMethod
	ManualVATInput      decimal.Decimal
	TaxSeparationAmount decimal.Decimal
	UpdatedAt           time.Time
}

var (
	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("ledger: record not found")
	// ErrInvalidInput indicates a record that fails structural validation.
	ErrInvalidInput = errors.New("ledger: invalid input")
	// ErrPeriodLocked indicates a write rejected by the period lifecycle.
	ErrPeriodLocked = errors.New("ledger: period not writable")
	// ErrInvalidShares indicates partnership percentages do not sum to 100.
	ErrInvalidShares = errors.New("ledger: partner shares must sum to 100")
	// ErrInsufficientShare indicates a withdrawal exceeds the partner's stake.
	ErrInsufficientShare = errors.New("ledger: withdrawal exceeds partner's available share")
	// ErrInsufficientBalance indicates an exchange exceeds the selling asset balance.
	ErrInsufficientBalance = errors.New("ledger: amount exceeds asset balance")
	// ErrOverpayment indicates a payment exceeds the remaining amount.
	ErrOverpayment = errors.New("ledger: payment exceeds remaining amount")
	// ErrSelfTransfer indicates an ad fund transfer between identical accounts.
	ErrSelfTransfer = errors.New("ledger: transfer accounts must differ")
	// ErrAmbiguousContributor indicates both contributor fields are set.
	ErrAmbiguousContributor = errors.New("ledger: capital inflow cannot name both a partner and an external investor")
	// ErrSelfPartnerMissing indicates no partner carries the self flag.
	ErrSelfPartnerMissing = errors.New("ledger: self partner not configured")
)

// ValidateShares checks a partnership share list sums to exactly 100 percent.
func ValidateShares(shares []PartnerShare) error {
	if len(shares) == 0 {
		return fmt.Errorf("%w: empty share list", ErrInvalidShares)
	}
	total := decimal.Zero
	for idx, s := range shares {
		if s.PartnerID == uuid.Nil {
			return fmt.Errorf("ledger: share %d missing partner", idx)
		}
		if s.SharePercentage.IsNegative() {
			return fmt.Errorf("ledger: share %d negative percentage", idx)
		}
		total = total.Add(s.SharePercentage)
	}
	if !total.Equal(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: got %s", ErrInvalidShares, total)
	}
	return nil
}
