package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"agroledger.io/agroledger/internal/domain"
	"agroledger.io/agroledger/internal/infrastructure"
	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

// CropCycleRepository persists planting-to-harvest cycles.
type CropCycleRepository struct {
	db *infrastructure.DB
}

func NewCropCycleRepository(db *infrastructure.DB) *CropCycleRepository {
	return &CropCycleRepository{db: db}
}

const cropCycleColumns = `id, plot_id, name, variety, state, sown_on, harvested_on, produced_kg, estimated_yield, actual_yield`

func scanCropCycle(row pgx.Row) (domain.CropCycle, error) {
	var r cropCycleRow
	err := row.Scan(&r.ID, &r.PlotID, &r.Name, &r.Variety, &r.State, &r.SownOn,
		&r.HarvestedOn, &r.ProducedKg, &r.EstimatedYield, &r.ActualYield)
	if err != nil {
		return domain.CropCycle{}, err
	}
	return cropCycleFromRow(r)
}

// Create inserts a new crop cycle and returns it with the generated id.
func (r *CropCycleRepository) Create(ctx context.Context, c domain.CropCycle) (domain.CropCycle, error) {
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return domain.CropCycle{}, err
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO crop_cycle (plot_id, name, variety, state, sown_on, harvested_on, produced_kg, estimated_yield, actual_yield)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		c.PlotID, c.Name, c.Variety, c.State.Token(), c.SownOn,
		c.HarvestedOn, c.ProducedKg, c.EstimatedYield, c.ActualYield,
	).Scan(&c.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.CropCycle{}, apperrors.BadRequest(apperrors.CodeMissingParent,
				fmt.Sprintf("plot %d does not exist", c.PlotID))
		}
		return domain.CropCycle{}, fmt.Errorf("insert crop cycle: %w", err)
	}
	return c, nil
}

// Update rewrites every mutable column of the cycle.
func (r *CropCycleRepository) Update(ctx context.Context, c domain.CropCycle) error {
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return err
	}

	affected, err := r.db.Exec(ctx, `
		UPDATE crop_cycle
		SET plot_id = $2, name = $3, variety = $4, state = $5, sown_on = $6,
		    harvested_on = $7, produced_kg = $8, estimated_yield = $9, actual_yield = $10
		WHERE id = $1`,
		c.ID, c.PlotID, c.Name, c.Variety, c.State.Token(), c.SownOn,
		c.HarvestedOn, c.ProducedKg, c.EstimatedYield, c.ActualYield,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.BadRequest(apperrors.CodeMissingParent,
				fmt.Sprintf("plot %d does not exist", c.PlotID))
		}
		return fmt.Errorf("update crop cycle %d: %w", c.ID, err)
	}
	if affected == 0 {
		return apperrors.NotFound(apperrors.CodeCropCycleNotFound,
			fmt.Sprintf("crop cycle %d not found", c.ID))
	}
	return nil
}

// Delete removes a cycle and, through the schema cascade, its treatments.
func (r *CropCycleRepository) Delete(ctx context.Context, id int64) (bool, error) {
	affected, err := r.db.Exec(ctx, `DELETE FROM crop_cycle WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete crop cycle %d: %w", id, err)
	}
	return affected > 0, nil
}

func (r *CropCycleRepository) GetByID(ctx context.Context, id int64) (domain.CropCycle, error) {
	c, err := scanCropCycle(r.db.QueryRow(ctx,
		`SELECT `+cropCycleColumns+` FROM crop_cycle WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CropCycle{}, apperrors.NotFound(apperrors.CodeCropCycleNotFound,
				fmt.Sprintf("crop cycle %d not found", id))
		}
		return domain.CropCycle{}, fmt.Errorf("get crop cycle %d: %w", id, err)
	}
	return c, nil
}

// ListByPlot returns the cycles of one plot, most recently sown first.
func (r *CropCycleRepository) ListByPlot(ctx context.Context, plotID int64) ([]domain.CropCycle, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+cropCycleColumns+`
		FROM crop_cycle
		WHERE plot_id = $1
		ORDER BY sown_on DESC, id DESC`, plotID)
	if err != nil {
		return nil, fmt.Errorf("list crop cycles: %w", err)
	}
	defer rows.Close()

	var out []domain.CropCycle
	for rows.Next() {
		c, err := scanCropCycle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list crop cycles: %w", err)
	}
	return out, nil
}
