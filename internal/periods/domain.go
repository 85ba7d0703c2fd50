// Package periods implements the accounting period state machine: open →
// active → closed, the write lock on closed history, and the capital
// roll-forward at close.
package periods

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sobook-erp/sobook/internal/ledger"
)

// Status enumerates period lifecycle values. A month with no record at all
// is the implicit "none" state.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusClosed Status = "CLOSED"
)

// Period is one accounting month.
type Period struct {
	ID       string
	Status   Status
	OpenedAt time.Time
	ClosedAt *time.Time
	// Report holds the final compiled financials, frozen at close.
	Report    json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PartnerProfit is one partner's net profit share rolled into their capital
// baseline when the period closes.
type PartnerProfit struct {
	PartnerID uuid.UUID
	NetProfit decimal.Decimal
}

var (
	// ErrPeriodNotFound indicates no record exists for the month.
	ErrPeriodNotFound = errors.New("periods: period not found")
	// ErrActivePeriodExists indicates a second period cannot be opened.
	ErrActivePeriodExists = errors.New("periods: an active period already exists")
	// ErrPeriodClosed indicates a write against locked history.
	ErrPeriodClosed = errors.New("periods: period is closed")
	// ErrNoActivePeriod indicates a write with no period open.
	ErrNoActivePeriod = errors.New("periods: no active period")
	// ErrDateOutsideActive indicates a record dated outside the active month.
	ErrDateOutsideActive = errors.New("periods: date falls outside the active period")
	// ErrNotActive indicates a close on a period that is not active.
	ErrNotActive = errors.New("periods: period is not active")
	// ErrBeforeCutoff indicates a close attempted before the closing day.
	ErrBeforeCutoff = errors.New("periods: closing cutoff not reached")
)

// ClosingCutoff returns the earliest instant a period may be closed: day
// closingDay (clamped to 1–28) of the month following the period.
func ClosingCutoff(period string, closingDay int) (time.Time, error) {
	start, err := ledger.ParsePeriod(period)
	if err != nil {
		return time.Time{}, err
	}
	if closingDay < 1 {
		closingDay = 1
	}
	if closingDay > 28 {
		closingDay = 28
	}
	next := start.AddDate(0, 1, 0)
	return time.Date(next.Year(), next.Month(), closingDay, 0, 0, 0, 0, time.UTC), nil
}
