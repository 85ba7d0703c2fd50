// Package amortize computes installment due-schedules for long-term
// liabilities and receivables with period cut-offs.
package amortize

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sobook-erp/sobook/internal/ledger"
	"github.com/sobook-erp/sobook/internal/money"
)

// Item is the schedule-relevant slice of a liability or receivable. The
// fields are fixed at creation and only referenced here, never recomputed.
type Item struct {
	TotalAmount          decimal.Decimal
	IsInstallment        bool
	StartDate            *time.Time
	NumberOfInstallments int
}

// PaymentRecord is one settlement against an item.
type PaymentRecord struct {
	Amount decimal.Decimal
	Date   time.Time
}

// Due is the position of an item relative to a target period.
type Due struct {
	DueThisPeriod  decimal.Decimal
	PaidThisPeriod decimal.Decimal
	TotalPaid      decimal.Decimal
	TotalRemaining decimal.Decimal
	Installment    decimal.Decimal
	// Scheduled is false when an installment item has no usable schedule
	// (missing start date or non-positive installment count).
	Scheduled bool
}

// Visible reports whether the item belongs on the period's due-list.
func (d Due) Visible() bool {
	return !d.DueThisPeriod.IsZero() || !d.PaidThisPeriod.IsZero()
}

// Settled reports whether the item is fully paid off within the epsilon.
func (d Due) Settled() bool {
	return money.Settled(d.TotalRemaining)
}

// FromLiability extracts the schedule item of a liability.
func FromLiability(l ledger.Liability) Item {
	return Item{
		TotalAmount:          l.TotalAmount,
		IsInstallment:        l.IsInstallment,
		StartDate:            l.StartDate,
		NumberOfInstallments: l.NumberOfInstallments,
	}
}

// FromReceivable extracts the schedule item of a receivable.
func FromReceivable(r ledger.Receivable) Item {
	return Item{
		TotalAmount:          r.TotalAmount,
		IsInstallment:        r.IsInstallment,
		StartDate:            r.StartDate,
		NumberOfInstallments: r.NumberOfInstallments,
	}
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
}

// Schedule computes the due position of an item as of a target period.
//
// Bullet items surface the whole outstanding balance as due in any period:
// the full remainder is always up for collection or payment. Installment
// items owe the cumulative installments whose month is at or before the
// target, less whatever was paid before the target period.
func Schedule(item Item, payments []PaymentRecord, period string) (Due, error) {
	target, err := ledger.ParsePeriod(period)
	if err != nil {
		return Due{}, err
	}

	totalPaid := decimal.Zero
	paidThis := decimal.Zero
	for _, p := range payments {
		totalPaid = totalPaid.Add(p.Amount)
		if ledger.PeriodContains(period, p.Date) {
			paidThis = paidThis.Add(p.Amount)
		}
	}
	remaining := item.TotalAmount.Sub(totalPaid)

	due := Due{
		PaidThisPeriod: paidThis,
		TotalPaid:      totalPaid,
		TotalRemaining: remaining,
		Scheduled:      true,
	}

	if !item.IsInstallment {
		due.DueThisPeriod = remaining.Add(paidThis)
		return due, nil
	}

	if item.StartDate == nil || item.NumberOfInstallments <= 0 {
		due.Scheduled = false
		due.DueThisPeriod = decimal.Zero
		return due, nil
	}

	n := int64(item.NumberOfInstallments)
	due.Installment = item.TotalAmount.Div(decimal.NewFromInt(n))

	start := time.Date(item.StartDate.Year(), item.StartDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	elapsed := monthsBetween(start, target) + 1
	switch {
	case elapsed < 0:
		elapsed = 0
	case elapsed > item.NumberOfInstallments:
		elapsed = item.NumberOfInstallments
	}

	// The final installment absorbs division drift: cumulative due over the
	// full schedule is the total amount exactly.
	var dueUpTo decimal.Decimal
	if elapsed == item.NumberOfInstallments {
		dueUpTo = item.TotalAmount
	} else {
		dueUpTo = due.Installment.Mul(decimal.NewFromInt(int64(elapsed)))
	}

	paidBefore := totalPaid.Sub(paidThis)
	owed := dueUpTo.Sub(paidBefore)
	if owed.IsNegative() {
		owed = decimal.Zero
	}
	due.DueThisPeriod = owed
	return due, nil
}

// CompletionDate returns the date of the payment that settled the item, or
// nil if the item is still outstanding. Completion is never reopened here;
// corrections are an out-of-band administrative operation.
func CompletionDate(item Item, payments []PaymentRecord) *time.Time {
	running := decimal.Zero
	for _, p := range payments {
		running = running.Add(p.Amount)
		if money.Settled(item.TotalAmount.Sub(running)) {
			t := p.Date
			return &t
		}
	}
	return nil
}
