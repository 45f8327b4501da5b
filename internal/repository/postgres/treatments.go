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

// TreatmentRepository persists crop treatments.
type TreatmentRepository struct {
	db *infrastructure.DB
}

func NewTreatmentRepository(db *infrastructure.DB) *TreatmentRepository {
	return &TreatmentRepository{db: db}
}

const treatmentColumns = `id, crop_cycle_id, applied_on, product, category, dosage, cost, notes`

func scanTreatment(row pgx.Row) (domain.Treatment, error) {
	var r treatmentRow
	err := row.Scan(&r.ID, &r.CropCycleID, &r.AppliedOn, &r.Product,
		&r.Category, &r.Dosage, &r.Cost, &r.Notes)
	if err != nil {
		return domain.Treatment{}, err
	}
	return treatmentFromRow(r)
}

// Create inserts a new treatment and returns it with the generated id.
func (r *TreatmentRepository) Create(ctx context.Context, t domain.Treatment) (domain.Treatment, error) {
	t.ApplyDefaults()
	if err := t.Validate(); err != nil {
		return domain.Treatment{}, err
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO treatment (crop_cycle_id, applied_on, product, category, dosage, cost, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		t.CropCycleID, t.AppliedOn, t.Product, t.Category.Token(),
		t.Dosage, t.Cost, t.Notes,
	).Scan(&t.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Treatment{}, apperrors.BadRequest(apperrors.CodeMissingParent,
				fmt.Sprintf("crop cycle %d does not exist", t.CropCycleID))
		}
		return domain.Treatment{}, fmt.Errorf("insert treatment: %w", err)
	}
	return t, nil
}

// Update rewrites every mutable column of the treatment.
func (r *TreatmentRepository) Update(ctx context.Context, t domain.Treatment) error {
	t.ApplyDefaults()
	if err := t.Validate(); err != nil {
		return err
	}

	affected, err := r.db.Exec(ctx, `
		UPDATE treatment
		SET crop_cycle_id = $2, applied_on = $3, product = $4, category = $5,
		    dosage = $6, cost = $7, notes = $8
		WHERE id = $1`,
		t.ID, t.CropCycleID, t.AppliedOn, t.Product, t.Category.Token(),
		t.Dosage, t.Cost, t.Notes,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.BadRequest(apperrors.CodeMissingParent,
				fmt.Sprintf("crop cycle %d does not exist", t.CropCycleID))
		}
		return fmt.Errorf("update treatment %d: %w", t.ID, err)
	}
	if affected == 0 {
		return apperrors.NotFound(apperrors.CodeTreatmentNotFound,
			fmt.Sprintf("treatment %d not found", t.ID))
	}
	return nil
}

func (r *TreatmentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	affected, err := r.db.Exec(ctx, `DELETE FROM treatment WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete treatment %d: %w", id, err)
	}
	return affected > 0, nil
}

func (r *TreatmentRepository) GetByID(ctx context.Context, id int64) (domain.Treatment, error) {
	t, err := scanTreatment(r.db.QueryRow(ctx,
		`SELECT `+treatmentColumns+` FROM treatment WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Treatment{}, apperrors.NotFound(apperrors.CodeTreatmentNotFound,
				fmt.Sprintf("treatment %d not found", id))
		}
		return domain.Treatment{}, fmt.Errorf("get treatment %d: %w", id, err)
	}
	return t, nil
}

// ListByCrop returns the treatments of one cycle, most recent first.
func (r *TreatmentRepository) ListByCrop(ctx context.Context, cropCycleID int64) ([]domain.Treatment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+treatmentColumns+`
		FROM treatment
		WHERE crop_cycle_id = $1
		ORDER BY applied_on DESC, id DESC`, cropCycleID)
	if err != nil {
		return nil, fmt.Errorf("list treatments: %w", err)
	}
	defer rows.Close()

	var out []domain.Treatment
	for rows.Next() {
		t, err := scanTreatment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list treatments: %w", err)
	}
	return out, nil
}

// TotalCostByPlot sums the recorded treatment costs across every cycle of
// a plot. Treatments without a cost count as zero; a plot with no
// treatments totals zero rather than erroring.
func (r *TreatmentRepository) TotalCostByPlot(ctx context.Context, plotID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(t.cost), 0)
		FROM treatment t
		JOIN crop_cycle c ON c.id = t.crop_cycle_id
		WHERE c.plot_id = $1`, plotID).Scan(&total)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("total treatment cost for plot %d: %w", plotID, err)
	}
	return total, nil
}

// TotalCostByPlots sums treatment costs per plot over a set of plots in one
// round trip. Plots absent from the result have no recorded costs.
func (r *TreatmentRepository) TotalCostByPlots(ctx context.Context, plotIDs []int64) (map[int64]decimal.Decimal, error) {
	totals := make(map[int64]decimal.Decimal, len(plotIDs))
	if len(plotIDs) == 0 {
		return totals, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT c.plot_id, COALESCE(SUM(t.cost), 0)
		FROM treatment t
		JOIN crop_cycle c ON c.id = t.crop_cycle_id
		WHERE c.plot_id = ANY($1)
		GROUP BY c.plot_id`, plotIDs)
	if err != nil {
		return nil, fmt.Errorf("total treatment cost by plots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var plotID int64
		var total decimal.Decimal
		if err := rows.Scan(&plotID, &total); err != nil {
			return nil, err
		}
		totals[plotID] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("total treatment cost by plots: %w", err)
	}
	return totals, nil
}
