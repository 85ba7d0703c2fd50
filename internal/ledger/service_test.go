package ledger_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sobook-erp/sobook/internal/balances"
	"github.com/sobook-erp/sobook/internal/ledger"
	"github.com/sobook-erp/sobook/internal/money"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type openGate struct{}

func (openGate) EnsureWritable(ctx context.Context, date time.Time) error { return nil }

type lockedGate struct{}

func (lockedGate) EnsureWritable(ctx context.Context, date time.Time) error {
	return fmt.Errorf("%w: %s", ledger.ErrPeriodLocked, ledger.PeriodOf(date))
}

type recordingInvalidator struct {
	periods []string
}

func (r *recordingInvalidator) InvalidateCache(ctx context.Context, period string) {
	r.periods = append(r.periods, period)
}

func newTestService(repo *memoryRepo) *ledger.Service {
	return ledger.NewService(repo, nil).
		WithPeriodGate(openGate{}).
		WithBalanceRules(balances.Rules{})
}

// seedWorkspace installs a self partner and a VND plus a USD asset.
func seedWorkspace(t *testing.T, repo *memoryRepo) (self ledger.Partner, vnd, usd ledger.Asset) {
	t.Helper()
	self = ledger.Partner{ID: uuid.New(), Name: "An", IsSelf: true}
	vnd = ledger.Asset{ID: uuid.New(), Name: "VCB", Currency: money.VND}
	usd = ledger.Asset{ID: uuid.New(), Name: "Payoneer", Currency: money.USD}
	require.NoError(t, repo.SavePartner(context.Background(), self))
	require.NoError(t, repo.SaveAsset(context.Background(), vnd))
	require.NoError(t, repo.SaveAsset(context.Background(), usd))
	return self, vnd, usd
}

func TestSavePartnerRejectsSecondSelf(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo)
	seedWorkspace(t, repo)

	_, err := svc.SavePartner(context.Background(), ledger.Partner{Name: "Binh", IsSelf: true})
	require.ErrorIs(t, err, ledger.ErrInvalidInput)

	_, err = svc.SavePartner(context.Background(), ledger.Partner{Name: "Binh"})
	require.NoError(t, err)
}

func TestSaveProjectValidatesShares(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo)
	self, _, _ := seedWorkspace(t, repo)

	_, err := svc.SaveProject(context.Background(), ledger.Project{
		Name: "Q1", Period: "2024-03", IsPartnership: true,
		PartnerShares: []ledger.PartnerShare{{PartnerID: self.ID, SharePercentage: d(60)}},
	})
	require.ErrorIs(t, err, ledger.ErrInvalidShares)

	saved, err := svc.SaveProject(context.Background(), ledger.Project{
		Name: "Q1", Period: "2024-03", IsPartnership: true,
		PartnerShares: []ledger.PartnerShare{{PartnerID: self.ID, SharePercentage: d(100)}},
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, saved.ID)
}

func TestSaveCommissionDerivesVNDAmount(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo)
	self, _, usd := seedWorkspace(t, repo)
	project, err := svc.SaveProject(context.Background(), ledger.Project{
		Name: "Q1", Period: "2024-03", IsPartnership: true,
		PartnerShares: []ledger.PartnerShare{{PartnerID: self.ID, SharePercentage: d(100)}},
	})
	require.NoError(t, err)

	saved, err := svc.SaveCommission(context.Background(), ledger.Commission{
		ProjectID: project.ID, AssetID: usd.ID,
		Date:      time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		USDAmount: d(100), PredictedRate: d(25_000),
	})
	require.NoError(t, err)
	require.True(t, saved.VNDAmount.Equal(d(2_500_000)))
}

func TestWithdrawalHardRejectsOverdraw(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo)
	self, vnd, _ := seedWorkspace(t, repo)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.SaveCapitalInflow(context.Background(), ledger.CapitalInflow{
		AssetID: vnd.ID, Amount: d(10_000_000), Date: day,
	})
	require.NoError(t, err)

	_, err = svc.CreateWithdrawal(context.Background(), ledger.Withdrawal{
		AssetID: vnd.ID, WithdrawnBy: self.ID, Amount: d(3_000_000), Date: day.AddDate(0, 0, 5),
	})
	require.NoError(t, err)

	// 7,000,000 remains; an 8,000,000 withdrawal must be rejected outright.
	_, err = svc.CreateWithdrawal(context.Background(), ledger.Withdrawal{
		AssetID: vnd.ID, WithdrawnBy: self.ID, Amount: d(8_000_000), Date: day.AddDate(0, 0, 6),
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientShare)

	_, err = svc.CreateWithdrawal(context.Background(), ledger.Withdrawal{
		AssetID: vnd.ID, WithdrawnBy: self.ID, Amount: d(7_000_000), Date: day.AddDate(0, 0, 6),
	})
	require.NoError(t, err)
}

func TestCapitalInflowContributorIsExclusive(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo)
	self, vnd, _ := seedWorkspace(t, repo)

	_, err := svc.SaveCapitalInflow(context.Background(), ledger.CapitalInflow{
		AssetID: vnd.ID, Amount: d(1_000_000),
		Date:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		PartnerID: &self.ID, ExternalInvestor: "Uncle Tu",
	})
	require.ErrorIs(t, err, ledger.ErrAmbiguousContributor)
}

func TestExchangeChecksDirectionAndBalance(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo)
	self, vnd, usd := seedWorkspace(t, repo)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	project, err := svc.SaveProject(context.Background(), ledger.Project{
		Name: "Q1", Period: "2024-03", IsPartnership: true,
		PartnerShares: []ledger.PartnerShare{{PartnerID: self.ID, SharePercentage: d(100)}},
	})
	require.NoError(t, err)
	_, err = svc.SaveCommission(context.Background(), ledger.Commission{
		ProjectID: project.ID, AssetID: usd.ID, Date: day,
		USDAmount: d(100), PredictedRate: d(25_000),
	})
	require.NoError(t, err)

	_, err = svc.CreateExchange(context.Background(), ledger.ExchangeLog{
		SellingAssetID: vnd.ID, ReceivingAssetID: usd.ID,
		Date: day.AddDate(0, 0, 10), USDAmount: d(50), Rate: d(25_500),
	})
	require.ErrorIs(t, err, ledger.ErrInvalidInput)

	// Only 100 USD is held.
	_, err = svc.CreateExchange(context.Background(), ledger.ExchangeLog{
		SellingAssetID: usd.ID, ReceivingAssetID: vnd.ID,
		Date: day.AddDate(0, 0, 10), USDAmount: d(150), Rate: d(25_500),
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	saved, err := svc.CreateExchange(context.Background(), ledger.ExchangeLog{
		SellingAssetID: usd.ID, ReceivingAssetID: vnd.ID,
		Date: day.AddDate(0, 0, 10), USDAmount: d(100), Rate: d(25_500),
	})
	require.NoError(t, err)
	require.True(t, saved.VNDAmount.Equal(d(2_550_000)))
}

func TestDebtPaymentLifecycle(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo)
	_, vnd, _ := seedWorkspace(t, repo)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	liability, err := svc.SaveLiability(context.Background(), ledger.Liability{
		Counterparty: "Bank A", TotalAmount: d(1_200_000), Currency: money.VND, Date: day,
	})
	require.NoError(t, err)

	_, err = svc.CreateDebtPayment(context.Background(), ledger.DebtPayment{
		LiabilityID: liability.ID, AssetID: vnd.ID, Amount: d(1_300_000), Date: day.AddDate(0, 0, 2),
	})
	require.ErrorIs(t, err, ledger.ErrOverpayment)

	payment, err := svc.CreateDebtPayment(context.Background(), ledger.DebtPayment{
		LiabilityID: liability.ID, AssetID: vnd.ID, Amount: d(1_200_000), Date: day.AddDate(0, 0, 2),
	})
	require.NoError(t, err)

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	settled, ok := snap.Liability(liability.ID)
	require.True(t, ok)
	require.NotNil(t, settled.CompletionDate, "a clearing payment stamps the completion date")
	require.Equal(t, payment.Date, *settled.CompletionDate)

	// Reversing the payment reopens the debt.
	require.NoError(t, svc.DeleteDebtPayment(context.Background(), payment.ID))
	snap, err = svc.Snapshot(context.Background())
	require.NoError(t, err)
	reopened, ok := snap.Liability(liability.ID)
	require.True(t, ok)
	require.Nil(t, reopened.CompletionDate)
}

func TestInstallmentScheduleIsValidatedAtCreation(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo)
	seedWorkspace(t, repo)

	_, err := svc.SaveLiability(context.Background(), ledger.Liability{
		Counterparty: "Bank A", TotalAmount: d(1_200_000), Currency: money.VND,
		Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), IsInstallment: true,
	})
	require.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestPeriodGateBlocksWrites(t *testing.T) {
	repo := &memoryRepo{}
	svc := ledger.NewService(repo, nil).WithPeriodGate(lockedGate{})
	_, vnd, _ := seedWorkspace(t, repo)

	_, err := svc.SaveCapitalInflow(context.Background(), ledger.CapitalInflow{
		AssetID: vnd.ID, Amount: d(1_000_000),
		Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, ledger.ErrPeriodLocked)
}

func TestMutationsInvalidateTheAffectedPeriod(t *testing.T) {
	repo := &memoryRepo{}
	inv := &recordingInvalidator{}
	svc := newTestService(repo).WithInvalidator(inv)
	_, vnd, _ := seedWorkspace(t, repo)

	saved, err := svc.SaveCapitalInflow(context.Background(), ledger.CapitalInflow{
		AssetID: vnd.ID, Amount: d(1_000_000),
		Date: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, []string{"2024-03"}, inv.periods)

	require.NoError(t, svc.DeleteCapitalInflow(context.Background(), saved.ID))
	require.Equal(t, []string{"2024-03", "2024-03"}, inv.periods)
}

func TestMarkPeriodLiabilityPaid(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo)
	_, vnd, _ := seedWorkspace(t, repo)

	obligation, err := svc.SavePeriodLiability(context.Background(), ledger.PeriodLiability{
		Period: "2024-03", Name: "Office rent", Amount: d(4_000_000), Currency: money.VND,
	})
	require.NoError(t, err)

	paidDate := time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC)
	paid, err := svc.MarkPeriodLiabilityPaid(context.Background(), obligation.ID, vnd.ID, paidDate)
	require.NoError(t, err)
	require.True(t, paid.IsPaid)
	require.Equal(t, vnd.ID, *paid.AssetID)
	require.Equal(t, paidDate, *paid.PaidDate)
}

func TestSavingLifecycle(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo)
	_, vnd, _ := seedWorkspace(t, repo)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.SaveCapitalInflow(context.Background(), ledger.CapitalInflow{
		AssetID: vnd.ID, Amount: d(10_000_000), Date: day,
	})
	require.NoError(t, err)

	// Principal beyond the asset balance is rejected.
	_, err = svc.CreateSaving(context.Background(), ledger.Saving{
		AssetID: vnd.ID, Principal: d(12_000_000),
		StartDate: day.AddDate(0, 0, 3), MaturityDate: day.AddDate(0, 6, 0),
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	saving, err := svc.CreateSaving(context.Background(), ledger.Saving{
		AssetID: vnd.ID, Principal: d(8_000_000),
		StartDate: day.AddDate(0, 0, 3), MaturityDate: day.AddDate(0, 6, 0),
	})
	require.NoError(t, err)
	require.Equal(t, ledger.SavingStatusActive, saving.Status)

	matured, err := svc.MatureSaving(context.Background(), saving.ID,
		money.New(d(8_400_000), money.VND), day.AddDate(0, 6, 1))
	require.NoError(t, err)
	require.Equal(t, ledger.SavingStatusMatured, matured.Status)
	require.True(t, matured.MaturedAmount.Equal(d(8_400_000)))

	_, err = svc.MatureSaving(context.Background(), saving.ID,
		money.New(d(8_400_000), money.VND), day.AddDate(0, 6, 2))
	require.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestExportImportRoundTrip(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo)
	self, vnd, _ := seedWorkspace(t, repo)
	_, err := svc.SaveCapitalInflow(context.Background(), ledger.CapitalInflow{
		AssetID: vnd.ID, Amount: d(5_000_000),
		Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	dump, err := svc.Export(context.Background())
	require.NoError(t, err)

	fresh := &memoryRepo{}
	restored := newTestService(fresh)
	require.NoError(t, restored.Import(context.Background(), dump))

	got, err := restored.Export(context.Background())
	require.NoError(t, err)
	require.Equal(t, dump, got)

	// A broken split cannot come in through the back door.
	bad := *dump
	bad.Projects = []ledger.Project{{
		ID: uuid.New(), Name: "Broken", Period: "2024-03", IsPartnership: true,
		PartnerShares: []ledger.PartnerShare{{PartnerID: self.ID, SharePercentage: d(70)}},
	}}
	require.ErrorIs(t, restored.Import(context.Background(), &bad), ledger.ErrInvalidShares)
}
