package periods

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sobook-erp/sobook/internal/platform/db"
)

// RepositoryPort abstracts period persistence so the service can be tested
// against an in-memory fake.
type RepositoryPort interface {
	GetPeriod(ctx context.Context, id string) (Period, error)
	ActivePeriod(ctx context.Context) (*Period, error)
	ListPeriods(ctx context.Context) ([]Period, error)
	InsertPeriod(ctx context.Context, p Period) error
	ClosePeriod(ctx context.Context, id string, closedAt time.Time, report []byte, shares []PartnerProfit) error
}

// Repository persists periods in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository using the provided pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const periodColumns = `id, status, opened_at, closed_at, report, created_at, updated_at`

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	if err := row.Scan(&p.ID, &p.Status, &p.OpenedAt, &p.ClosedAt, &p.Report, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Period{}, err
	}
	return p, nil
}

// GetPeriod fetches one period by its "YYYY-MM" id.
func (r *Repository) GetPeriod(ctx context.Context, id string) (Period, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods WHERE id = $1`, id)
	p, err := scanPeriod(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, ErrPeriodNotFound
	}
	return p, err
}

// ActivePeriod returns the single active period, or nil when none is open.
func (r *Repository) ActivePeriod(ctx context.Context) (*Period, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods WHERE status = $1`, StatusActive)
	p, err := scanPeriod(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPeriods returns all periods, newest first.
func (r *Repository) ListPeriods(ctx context.Context) ([]Period, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+periodColumns+` FROM periods ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertPeriod creates the period row.
func (r *Repository) InsertPeriod(ctx context.Context, p Period) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO periods (id, status, opened_at, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())`,
		p.ID, p.Status, p.OpenedAt)
	if err != nil {
		return fmt.Errorf("periods: insert %s: %w", p.ID, err)
	}
	return nil
}

// ClosePeriod marks the period closed, freezes its final report and rolls
// each partner's profit share into their capital baseline, all in one
// repeatable-read transaction.
func (r *Repository) ClosePeriod(ctx context.Context, id string, closedAt time.Time, report []byte, shares []PartnerProfit) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE periods
			SET status = $2, closed_at = $3, report = $4, updated_at = now()
			WHERE id = $1 AND status = $5`,
			id, StatusClosed, closedAt, report, StatusActive)
		if err != nil {
			return fmt.Errorf("periods: close %s: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotActive
		}
		for _, share := range shares {
			if share.NetProfit.IsZero() {
				continue
			}
			if _, err := tx.Exec(ctx, `
				UPDATE partners
				SET capital_baseline = capital_baseline + $2, updated_at = now()
				WHERE id = $1`,
				share.PartnerID, share.NetProfit); err != nil {
				return fmt.Errorf("periods: roll capital for %s: %w", share.PartnerID, err)
			}
		}
		return nil
	})
}
