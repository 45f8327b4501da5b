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

// PlotRepository persists plots of land.
type PlotRepository struct {
	db *infrastructure.DB
}

func NewPlotRepository(db *infrastructure.DB) *PlotRepository {
	return &PlotRepository{db: db}
}

const plotColumns = `id, owner_id, name, location, area, soil_type, irrigation, boundary, state, registered_on`

func scanPlot(row pgx.Row) (domain.Plot, error) {
	var r plotRow
	err := row.Scan(&r.ID, &r.OwnerID, &r.Name, &r.Location, &r.Area,
		&r.SoilType, &r.Irrigation, &r.Boundary, &r.State, &r.RegisteredOn)
	if err != nil {
		return domain.Plot{}, err
	}
	return plotFromRow(r)
}

// Create inserts a new plot and returns it with the generated id.
func (r *PlotRepository) Create(ctx context.Context, p domain.Plot) (domain.Plot, error) {
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return domain.Plot{}, err
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO plot (owner_id, name, location, area, soil_type, irrigation, boundary, state, registered_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		p.OwnerID, p.Name, p.Location, p.Area, p.SoilType,
		p.Irrigation, p.Boundary, p.State.Token(), p.RegisteredOn,
	).Scan(&p.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Plot{}, apperrors.BadRequest(apperrors.CodeMissingParent,
				fmt.Sprintf("owner account %d does not exist", p.OwnerID))
		}
		return domain.Plot{}, fmt.Errorf("insert plot: %w", err)
	}
	return p, nil
}

// Update rewrites every mutable column of the plot.
func (r *PlotRepository) Update(ctx context.Context, p domain.Plot) error {
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return err
	}

	affected, err := r.db.Exec(ctx, `
		UPDATE plot
		SET owner_id = $2, name = $3, location = $4, area = $5,
		    soil_type = $6, irrigation = $7, boundary = $8, state = $9
		WHERE id = $1`,
		p.ID, p.OwnerID, p.Name, p.Location, p.Area,
		p.SoilType, p.Irrigation, p.Boundary, p.State.Token(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.BadRequest(apperrors.CodeMissingParent,
				fmt.Sprintf("owner account %d does not exist", p.OwnerID))
		}
		return fmt.Errorf("update plot %d: %w", p.ID, err)
	}
	if affected == 0 {
		return apperrors.NotFound(apperrors.CodePlotNotFound,
			fmt.Sprintf("plot %d not found", p.ID))
	}
	return nil
}

// Delete removes a plot and, through the schema cascade, its crop cycles,
// treatments and financial movements.
func (r *PlotRepository) Delete(ctx context.Context, id int64) (bool, error) {
	affected, err := r.db.Exec(ctx, `DELETE FROM plot WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete plot %d: %w", id, err)
	}
	return affected > 0, nil
}

func (r *PlotRepository) GetByID(ctx context.Context, id int64) (domain.Plot, error) {
	p, err := scanPlot(r.db.QueryRow(ctx,
		`SELECT `+plotColumns+` FROM plot WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Plot{}, apperrors.NotFound(apperrors.CodePlotNotFound,
				fmt.Sprintf("plot %d not found", id))
		}
		return domain.Plot{}, fmt.Errorf("get plot %d: %w", id, err)
	}
	return p, nil
}

// List returns every plot, newest registration first.
func (r *PlotRepository) List(ctx context.Context) ([]domain.Plot, error) {
	return r.list(ctx, `
		SELECT `+plotColumns+`
		FROM plot
		ORDER BY registered_on DESC, id DESC`)
}

// ListByOwner returns the plots registered to one account, newest first.
func (r *PlotRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Plot, error) {
	return r.list(ctx, `
		SELECT `+plotColumns+`
		FROM plot
		WHERE owner_id = $1
		ORDER BY registered_on DESC, id DESC`, ownerID)
}

func (r *PlotRepository) list(ctx context.Context, sql string, args ...any) ([]domain.Plot, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list plots: %w", err)
	}
	defer rows.Close()

	var out []domain.Plot
	for rows.Next() {
		p, err := scanPlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list plots: %w", err)
	}
	return out, nil
}
