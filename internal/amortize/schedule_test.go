package amortize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func installmentItem(total int64, n int, start time.Time) Item {
	return Item{
		TotalAmount:          d(total),
		IsInstallment:        true,
		StartDate:            &start,
		NumberOfInstallments: n,
	}
}

// Liability of 1,200,000 over 12 months from 2024-01: four installments have
// fallen due by 2024-04 with nothing paid.
func TestInstallmentCumulativeDue(t *testing.T) {
	item := installmentItem(1_200_000, 12, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))

	due, err := Schedule(item, nil, "2024-04")
	require.NoError(t, err)
	require.True(t, due.Scheduled)
	require.True(t, due.DueThisPeriod.Equal(d(400_000)), "due %s", due.DueThisPeriod)
	require.True(t, due.TotalRemaining.Equal(d(1_200_000)))
}

func TestInstallmentPaymentsReduceDue(t *testing.T) {
	item := installmentItem(1_200_000, 12, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	payments := []PaymentRecord{
		{Amount: d(100_000), Date: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)},
		{Amount: d(100_000), Date: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)},
		{Amount: d(50_000), Date: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)},
	}

	due, err := Schedule(item, payments, "2024-04")
	require.NoError(t, err)
	// 400,000 accrued, 200,000 paid before April.
	require.True(t, due.DueThisPeriod.Equal(d(200_000)), "due %s", due.DueThisPeriod)
	require.True(t, due.PaidThisPeriod.Equal(d(50_000)))
	require.True(t, due.TotalRemaining.Equal(d(950_000)))
}

func TestInstallmentOverpaidClampsAtZero(t *testing.T) {
	item := installmentItem(1_200_000, 12, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	payments := []PaymentRecord{
		{Amount: d(900_000), Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
	}

	due, err := Schedule(item, payments, "2024-03")
	require.NoError(t, err)
	require.True(t, due.DueThisPeriod.IsZero())
	require.False(t, due.Visible())
}

func TestBulletItemAlwaysOwesRemainder(t *testing.T) {
	item := Item{TotalAmount: d(5_000_000)}
	payments := []PaymentRecord{
		{Amount: d(2_000_000), Date: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)},
	}

	due, err := Schedule(item, payments, "2024-02")
	require.NoError(t, err)
	// Remaining 3,000,000 plus the 2,000,000 paid inside the period.
	require.True(t, due.DueThisPeriod.Equal(d(5_000_000)))

	later, err := Schedule(item, payments, "2024-05")
	require.NoError(t, err)
	require.True(t, later.DueThisPeriod.Equal(d(3_000_000)))
}

func TestUnscheduledInstallmentOwesNothing(t *testing.T) {
	item := Item{TotalAmount: d(700_000), IsInstallment: true}

	due, err := Schedule(item, nil, "2024-06")
	require.NoError(t, err)
	require.False(t, due.Scheduled)
	require.True(t, due.DueThisPeriod.IsZero())
}

func TestPeriodBeforeScheduleStart(t *testing.T) {
	item := installmentItem(1_200_000, 12, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	due, err := Schedule(item, nil, "2024-03")
	require.NoError(t, err)
	require.True(t, due.DueThisPeriod.IsZero())
}

// Paying exactly the due amount each month drains the schedule to zero with
// no drift beyond one currency unit, even when the total does not divide
// evenly.
func TestAmortizationMonotonicity(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	item := installmentItem(1_000_000, 7, start)

	var payments []PaymentRecord
	sumDue := decimal.Zero
	for k := 0; k < 7; k++ {
		month := start.AddDate(0, k, 0)
		due, err := Schedule(item, payments, month.Format("2006-01"))
		require.NoError(t, err)
		sumDue = sumDue.Add(due.DueThisPeriod)
		payments = append(payments, PaymentRecord{Amount: due.DueThisPeriod, Date: month.AddDate(0, 0, 10)})
	}

	require.True(t, sumDue.Sub(d(1_000_000)).Abs().LessThanOrEqual(decimal.NewFromInt(1)),
		"total due %s drifted from 1,000,000", sumDue)

	final, err := Schedule(item, payments, "2024-07")
	require.NoError(t, err)
	require.True(t, final.Settled(), "remaining %s", final.TotalRemaining)
}

func TestCompletionDate(t *testing.T) {
	item := Item{TotalAmount: d(300)}
	crossing := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	payments := []PaymentRecord{
		{Amount: d(200), Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{Amount: d(100), Date: crossing},
	}

	got := CompletionDate(item, payments)
	require.NotNil(t, got)
	require.True(t, got.Equal(crossing))

	require.Nil(t, CompletionDate(item, payments[:1]))
}
