package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"agroledger.io/agroledger/internal/domain"
	"agroledger.io/agroledger/internal/infrastructure"
	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

// MovementRepository persists income and expense movements.
type MovementRepository struct {
	db *infrastructure.DB
}

func NewMovementRepository(db *infrastructure.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

const movementColumns = `id, plot_id, kind, concept, amount, occurred_on, notes`

func scanMovement(row pgx.Row) (domain.FinancialMovement, error) {
	var r movementRow
	err := row.Scan(&r.ID, &r.PlotID, &r.Kind, &r.Concept, &r.Amount,
		&r.OccurredOn, &r.Notes)
	if err != nil {
		return domain.FinancialMovement{}, err
	}
	return movementFromRow(r)
}

// Create inserts a new movement and returns it with the generated id.
func (r *MovementRepository) Create(ctx context.Context, m domain.FinancialMovement) (domain.FinancialMovement, error) {
	m.ApplyDefaults()
	if err := m.Validate(); err != nil {
		return domain.FinancialMovement{}, err
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO financial_movement (plot_id, kind, concept, amount, occurred_on, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		m.PlotID, m.Kind.Token(), m.Concept, m.Amount, m.Date, m.Notes,
	).Scan(&m.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.FinancialMovement{}, apperrors.BadRequest(apperrors.CodeMissingParent,
				fmt.Sprintf("plot %d does not exist", m.PlotID))
		}
		return domain.FinancialMovement{}, fmt.Errorf("insert movement: %w", err)
	}
	return m, nil
}

// Update rewrites every mutable column of the movement.
func (r *MovementRepository) Update(ctx context.Context, m domain.FinancialMovement) error {
	m.ApplyDefaults()
	if err := m.Validate(); err != nil {
		return err
	}

	affected, err := r.db.Exec(ctx, `
		UPDATE financial_movement
		SET plot_id = $2, kind = $3, concept = $4, amount = $5, occurred_on = $6, notes = $7
		WHERE id = $1`,
		m.ID, m.PlotID, m.Kind.Token(), m.Concept, m.Amount, m.Date, m.Notes,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.BadRequest(apperrors.CodeMissingParent,
				fmt.Sprintf("plot %d does not exist", m.PlotID))
		}
		return fmt.Errorf("update movement %d: %w", m.ID, err)
	}
	if affected == 0 {
		return apperrors.NotFound(apperrors.CodeMovementNotFound,
			fmt.Sprintf("movement %d not found", m.ID))
	}
	return nil
}

func (r *MovementRepository) Delete(ctx context.Context, id int64) (bool, error) {
	affected, err := r.db.Exec(ctx, `DELETE FROM financial_movement WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete movement %d: %w", id, err)
	}
	return affected > 0, nil
}

func (r *MovementRepository) GetByID(ctx context.Context, id int64) (domain.FinancialMovement, error) {
	m, err := scanMovement(r.db.QueryRow(ctx,
		`SELECT `+movementColumns+` FROM financial_movement WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.FinancialMovement{}, apperrors.NotFound(apperrors.CodeMovementNotFound,
				fmt.Sprintf("movement %d not found", id))
		}
		return domain.FinancialMovement{}, fmt.Errorf("get movement %d: %w", id, err)
	}
	return m, nil
}

// ListByPlot returns the movements of one plot, most recent first.
func (r *MovementRepository) ListByPlot(ctx context.Context, plotID int64) ([]domain.FinancialMovement, error) {
	return r.list(ctx, `
		SELECT `+movementColumns+`
		FROM financial_movement
		WHERE plot_id = $1
		ORDER BY occurred_on DESC, id DESC`, plotID)
}

// ListRecent returns the newest movements across all plots.
func (r *MovementRepository) ListRecent(ctx context.Context, limit int) ([]domain.FinancialMovement, error) {
	return r.list(ctx, `
		SELECT `+movementColumns+`
		FROM financial_movement
		ORDER BY occurred_on DESC, id DESC
		LIMIT $1`, limit)
}

// ListRecentByPlots returns the newest movements across a set of plots in
// one round trip. An empty set short-circuits without touching the pool.
func (r *MovementRepository) ListRecentByPlots(ctx context.Context, plotIDs []int64, limit int) ([]domain.FinancialMovement, error) {
	if len(plotIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, `
		SELECT `+movementColumns+`
		FROM financial_movement
		WHERE plot_id = ANY($1)
		ORDER BY occurred_on DESC, id DESC
		LIMIT $2`, plotIDs, limit)
}

func (r *MovementRepository) list(ctx context.Context, sql string, args ...any) ([]domain.FinancialMovement, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var out []domain.FinancialMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return out, nil
}

// SumByPlots nets income against expenses per plot over a set of plots in
// one round trip. Plots absent from the result have no movements.
func (r *MovementRepository) SumByPlots(ctx context.Context, plotIDs []int64) (map[int64]decimal.Decimal, error) {
	sums := make(map[int64]decimal.Decimal, len(plotIDs))
	if len(plotIDs) == 0 {
		return sums, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT plot_id,
		       COALESCE(SUM(CASE WHEN kind = 'income' THEN amount ELSE -amount END), 0)
		FROM financial_movement
		WHERE plot_id = ANY($1)
		GROUP BY plot_id`, plotIDs)
	if err != nil {
		return nil, fmt.Errorf("sum movements by plots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var plotID int64
		var net decimal.Decimal
		if err := rows.Scan(&plotID, &net); err != nil {
			return nil, err
		}
		sums[plotID] = net
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sum movements by plots: %w", err)
	}
	return sums, nil
}
