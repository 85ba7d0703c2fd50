package fin

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sobook-erp/sobook/internal/attribution"
	"github.com/sobook-erp/sobook/internal/ledger"
	"github.com/sobook-erp/sobook/internal/money"
)

// Config carries the engine knobs the compiler cannot derive from the ledger.
type Config struct {
	// BaselineRate values exchange variance when a period has conversions
	// but no commission booked at a predicted rate to compare against.
	// Zero reports zero gain/loss instead of guessing.
	BaselineRate decimal.Decimal
}

// RevenueDetail is one project's commission revenue within the period.
type RevenueDetail struct {
	ProjectID   uuid.UUID       `json:"projectId"`
	ProjectName string          `json:"projectName"`
	USDAmount   decimal.Decimal `json:"usdAmount"`
	VNDAmount   decimal.Decimal `json:"vndAmount"`
}

// AdCostDetail is one project's advertising spend within the period.
type AdCostDetail struct {
	ProjectID   uuid.UUID       `json:"projectId"`
	ProjectName string          `json:"projectName"`
	USDAmount   decimal.Decimal `json:"usdAmount"`
	VNDCost     decimal.Decimal `json:"vndCost"`
	VATAmount   decimal.Decimal `json:"vatAmount"`
	// RateResolved is false when any cost line in the group had no funding
	// deposit to impute a rate from; its VND cost is zeroed, not fatal.
	RateResolved bool `json:"rateResolved"`
}

// MiscCostDetail is one miscellaneous expense within the period.
type MiscCostDetail struct {
	ExpenseID   uuid.UUID       `json:"expenseId"`
	Description string          `json:"description"`
	VNDAmount   decimal.Decimal `json:"vndAmount"`
	VATAmount   decimal.Decimal `json:"vatAmount"`
}

// PartnerPnl is one partner's slice of the period result.
type PartnerPnl struct {
	PartnerID   uuid.UUID       `json:"partnerId"`
	PartnerName string          `json:"partnerName"`
	Revenue     decimal.Decimal `json:"revenue"`
	Cost        decimal.Decimal `json:"cost"`
	Profit      decimal.Decimal `json:"profit"`
	TaxPayable  decimal.Decimal `json:"taxPayable"`
}

// AssetPeriodDetail is one asset's movement across the period.
type AssetPeriodDetail struct {
	AssetID        uuid.UUID       `json:"assetId"`
	AssetName      string          `json:"assetName"`
	Currency       money.Currency  `json:"currency"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	Change         decimal.Decimal `json:"change"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
}

// Report is the compiled financial statement of one period. Compilation is
// pure over a snapshot: the same snapshot always yields the same report.
type Report struct {
	Period               string              `json:"period"`
	Revenue              decimal.Decimal     `json:"revenue"`
	RevenueDetails       []RevenueDetail     `json:"revenueDetails"`
	TotalAdCost          decimal.Decimal     `json:"totalAdCost"`
	AdCostDetails        []AdCostDetail      `json:"adCostDetails"`
	TotalMiscCost        decimal.Decimal     `json:"totalMiscCost"`
	MiscCostDetails      []MiscCostDetail    `json:"miscCostDetails"`
	TotalCost            decimal.Decimal     `json:"totalCost"`
	ExchangeRateGainLoss decimal.Decimal     `json:"exchangeRateGainLoss"`
	ProfitBeforeTax      decimal.Decimal     `json:"profitBeforeTax"`
	Tax                  TaxResult           `json:"tax"`
	NetProfit            decimal.Decimal     `json:"netProfit"`
	TaxBases             TaxBases            `json:"taxBases"`
	PartnerPnl           []PartnerPnl        `json:"partnerPnlDetails"`
	AssetDetails         []AssetPeriodDetail `json:"periodAssetDetails"`
	CashFlow             CashFlowStatement   `json:"cashFlow"`
	UnresolvedAdRates    bool                `json:"unresolvedAdRates"`
}

type partnerAccumulator struct {
	revenue  map[uuid.UUID]decimal.Decimal
	cost     map[uuid.UUID]decimal.Decimal
	vatInput map[uuid.UUID]decimal.Decimal
}

func newPartnerAccumulator() *partnerAccumulator {
	return &partnerAccumulator{
		revenue:  make(map[uuid.UUID]decimal.Decimal),
		cost:     make(map[uuid.UUID]decimal.Decimal),
		vatInput: make(map[uuid.UUID]decimal.Decimal),
	}
}

func (acc *partnerAccumulator) addRevenue(portions []attribution.Portion) {
	for _, p := range portions {
		acc.revenue[p.PartnerID] = acc.revenue[p.PartnerID].Add(p.Amount)
	}
}

func (acc *partnerAccumulator) addCost(portions []attribution.Portion) {
	for _, p := range portions {
		acc.cost[p.PartnerID] = acc.cost[p.PartnerID].Add(p.Amount)
	}
}

func (acc *partnerAccumulator) addVAT(portions []attribution.Portion) {
	for _, p := range portions {
		acc.vatInput[p.PartnerID] = acc.vatInput[p.PartnerID].Add(p.Amount)
	}
}

// Compile aggregates all transactions dated within the period into the
// structured report.
func Compile(snap *ledger.Snapshot, period string, cfg Config) (*Report, error) {
	if _, _, err := ledger.PeriodBounds(period); err != nil {
		return nil, err
	}
	self, ok := snap.SelfPartner()
	if !ok {
		return nil, ledger.ErrSelfPartnerMissing
	}

	report := &Report{Period: period}
	acc := newPartnerAccumulator()

	compileRevenue(snap, period, self.ID, report, acc)
	compileAdCosts(snap, period, self.ID, report, acc)
	compileMiscCosts(snap, period, self.ID, report, acc)
	report.TotalCost = report.TotalAdCost.Add(report.TotalMiscCost)

	report.ExchangeRateGainLoss = exchangeGainLoss(snap, period, cfg)
	// Exchange variance belongs to the self partner: conversions are always
	// drawn from self-attributed USD holdings.
	if !report.ExchangeRateGainLoss.IsZero() {
		acc.addRevenue([]attribution.Portion{{PartnerID: self.ID, Amount: report.ExchangeRateGainLoss}})
	}

	report.ProfitBeforeTax = report.Revenue.
		Add(report.ExchangeRateGainLoss).
		Sub(report.TotalCost)

	report.TaxBases = buildTaxBases(report, acc, self.ID, snap.TaxSettings)
	report.Tax = CalculateTax(report.TaxBases, snap.TaxSettings)
	report.NetProfit = report.ProfitBeforeTax.Sub(report.Tax.TaxPayable)

	report.PartnerPnl = buildPartnerPnl(snap, acc, report.Tax.TaxPayable)

	assetDetails, cashFlow, err := compileCashFlow(snap, period)
	if err != nil {
		return nil, err
	}
	report.AssetDetails = assetDetails
	report.CashFlow = cashFlow

	return report, nil
}

func compileRevenue(snap *ledger.Snapshot, period string, selfID uuid.UUID, report *Report, acc *partnerAccumulator) {
	byProject := make(map[uuid.UUID]*RevenueDetail)
	for _, c := range snap.Commissions {
		if !ledger.PeriodContains(period, c.Date) {
			continue
		}
		report.Revenue = report.Revenue.Add(c.VNDAmount)

		detail := byProject[c.ProjectID]
		if detail == nil {
			detail = &RevenueDetail{ProjectID: c.ProjectID}
			if p, ok := snap.Project(c.ProjectID); ok {
				detail.ProjectName = p.Name
			}
			byProject[c.ProjectID] = detail
		}
		detail.USDAmount = detail.USDAmount.Add(c.USDAmount)
		detail.VNDAmount = detail.VNDAmount.Add(c.VNDAmount)

		stakes := attribution.SelfOnly(selfID)
		if p, ok := snap.Project(c.ProjectID); ok {
			stakes = attribution.ForProject(p, selfID)
		}
		acc.addRevenue(attribution.Split(c.VNDAmount, stakes))
	}
	report.RevenueDetails = sortedRevenueDetails(byProject)
}

func compileAdCosts(snap *ledger.Snapshot, period string, selfID uuid.UUID, report *Report, acc *partnerAccumulator) {
	byProject := make(map[uuid.UUID]*AdCostDetail)
	for _, cost := range snap.DailyAdCosts {
		if !ledger.PeriodContains(period, cost.Date) {
			continue
		}
		rate, resolved := EffectiveRate(snap, cost.AdAccountNumber, cost.Date)
		vndCost := money.Convert(cost.USDAmount, rate)
		vat := money.Percent(vndCost, cost.VATRate)
		if !resolved {
			report.UnresolvedAdRates = true
		}
		report.TotalAdCost = report.TotalAdCost.Add(vndCost)

		detail := byProject[cost.ProjectID]
		if detail == nil {
			detail = &AdCostDetail{ProjectID: cost.ProjectID, RateResolved: true}
			if p, ok := snap.Project(cost.ProjectID); ok {
				detail.ProjectName = p.Name
			}
			byProject[cost.ProjectID] = detail
		}
		detail.USDAmount = detail.USDAmount.Add(cost.USDAmount)
		detail.VNDCost = detail.VNDCost.Add(vndCost)
		detail.VATAmount = detail.VATAmount.Add(vat)
		if !resolved {
			detail.RateResolved = false
		}

		stakes := attribution.SelfOnly(selfID)
		if p, ok := snap.Project(cost.ProjectID); ok {
			stakes = attribution.ForProject(p, selfID)
		}
		acc.addCost(attribution.Split(vndCost, stakes))
		acc.addVAT(attribution.Split(vat, stakes))
	}
	report.AdCostDetails = sortedAdCostDetails(byProject)
}

func compileMiscCosts(snap *ledger.Snapshot, period string, selfID uuid.UUID, report *Report, acc *partnerAccumulator) {
	for _, e := range snap.MiscExpenses {
		if !ledger.PeriodContains(period, e.Date) {
			continue
		}
		vat := money.Percent(e.VNDAmount, e.VATRate)
		report.TotalMiscCost = report.TotalMiscCost.Add(e.VNDAmount)
		report.MiscCostDetails = append(report.MiscCostDetails, MiscCostDetail{
			ExpenseID:   e.ID,
			Description: e.Description,
			VNDAmount:   e.VNDAmount,
			VATAmount:   vat,
		})

		var project *ledger.Project
		if e.ProjectID != nil {
			if p, ok := snap.Project(*e.ProjectID); ok {
				project = &p
			}
		}
		stakes := attribution.ForExpense(e, project, selfID)
		acc.addCost(attribution.Split(e.VNDAmount, stakes))
		acc.addVAT(attribution.Split(vat, stakes))
	}
	sort.Slice(report.MiscCostDetails, func(i, j int) bool {
		return report.MiscCostDetails[i].ExpenseID.String() < report.MiscCostDetails[j].ExpenseID.String()
	})
}

// exchangeGainLoss values the variance between the rate commissions were
// booked at and the rate USD was actually liquidated at. The reference rate
// is the volume-weighted predicted rate of the period's commissions; with no
// commission context it falls back to the configured baseline.
func exchangeGainLoss(snap *ledger.Snapshot, period string, cfg Config) decimal.Decimal {
	usdVolume := decimal.Zero
	vndBooked := decimal.Zero
	for _, c := range snap.Commissions {
		if ledger.PeriodContains(period, c.Date) {
			usdVolume = usdVolume.Add(c.USDAmount)
			vndBooked = vndBooked.Add(c.VNDAmount)
		}
	}

	reference := cfg.BaselineRate
	if usdVolume.IsPositive() {
		reference = vndBooked.Div(usdVolume)
	}
	if reference.IsZero() {
		return decimal.Zero
	}

	total := decimal.Zero
	for _, x := range snap.ExchangeLogs {
		if !ledger.PeriodContains(period, x.Date) {
			continue
		}
		total = total.Add(x.Rate.Sub(reference).Mul(x.USDAmount))
	}
	return total
}

func buildTaxBases(report *Report, acc *partnerAccumulator, selfID uuid.UUID, settings ledger.TaxSettings) TaxBases {
	totalRevenue := report.Revenue.Add(report.ExchangeRateGainLoss)
	totalCost := report.TotalCost

	selfRevenue := acc.revenue[selfID]
	selfCost := acc.cost[selfID]

	pick := func(basis ledger.AllocationBase, personal, total decimal.Decimal) decimal.Decimal {
		if basis == ledger.AllocationPersonal {
			return personal
		}
		return total
	}

	revenueBase := pick(settings.RevenueBasis, selfRevenue, totalRevenue).Sub(settings.TaxSeparationAmount)
	if revenueBase.IsNegative() {
		revenueBase = decimal.Zero
	}

	costBase := pick(settings.ProfitBasis, selfCost, totalCost)
	profitBase := pick(settings.ProfitBasis, selfRevenue.Sub(selfCost), totalRevenue.Sub(totalCost))

	totalVAT := decimal.Zero
	for _, v := range acc.vatInput {
		totalVAT = totalVAT.Add(v)
	}
	vatInputBase := pick(settings.VATBasis, acc.vatInput[selfID], totalVAT)
	vatOutputBase := pick(settings.VATBasis, selfRevenue, totalRevenue)

	return TaxBases{
		RevenueBase:   revenueBase,
		CostBase:      costBase,
		ProfitBase:    profitBase,
		VATOutputBase: vatOutputBase,
		VATInputBase:  vatInputBase,
	}
}

func buildPartnerPnl(snap *ledger.Snapshot, acc *partnerAccumulator, taxPayable decimal.Decimal) []PartnerPnl {
	ids := make(map[uuid.UUID]struct{})
	for id := range acc.revenue {
		ids[id] = struct{}{}
	}
	for id := range acc.cost {
		ids[id] = struct{}{}
	}

	rows := make([]PartnerPnl, 0, len(ids))
	for id := range ids {
		row := PartnerPnl{
			PartnerID: id,
			Revenue:   acc.revenue[id],
			Cost:      acc.cost[id],
		}
		row.Profit = row.Revenue.Sub(row.Cost)
		if p, ok := snap.Partner(id); ok {
			row.PartnerName = p.Name
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PartnerName == rows[j].PartnerName {
			return rows[i].PartnerID.String() < rows[j].PartnerID.String()
		}
		return rows[i].PartnerName < rows[j].PartnerName
	})

	// Tax is borne in proportion to positive profit; loss-making partners
	// carry none. The split reuses the attribution fan-out so the parts sum
	// to the payable exactly.
	totalPositive := decimal.Zero
	for _, row := range rows {
		if row.Profit.IsPositive() {
			totalPositive = totalPositive.Add(row.Profit)
		}
	}
	if taxPayable.IsPositive() && totalPositive.IsPositive() {
		var stakes []attribution.Stake
		var positions []int
		for i, row := range rows {
			if row.Profit.IsPositive() {
				stakes = append(stakes, attribution.Stake{
					PartnerID: row.PartnerID,
					Fraction:  row.Profit.Div(totalPositive),
				})
				positions = append(positions, i)
			}
		}
		for k, portion := range attribution.Split(taxPayable, stakes) {
			rows[positions[k]].TaxPayable = portion.Amount
		}
	}
	return rows
}

func sortedRevenueDetails(byProject map[uuid.UUID]*RevenueDetail) []RevenueDetail {
	out := make([]RevenueDetail, 0, len(byProject))
	for _, d := range byProject {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProjectName == out[j].ProjectName {
			return out[i].ProjectID.String() < out[j].ProjectID.String()
		}
		return out[i].ProjectName < out[j].ProjectName
	})
	return out
}

func sortedAdCostDetails(byProject map[uuid.UUID]*AdCostDetail) []AdCostDetail {
	out := make([]AdCostDetail, 0, len(byProject))
	for _, d := range byProject {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProjectName == out[j].ProjectName {
			return out[i].ProjectID.String() < out[j].ProjectID.String()
		}
		return out[i].ProjectName < out[j].ProjectName
	})
	return out
}
