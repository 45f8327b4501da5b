// Package postgres implements the per-entity repositories over the shared
// connection pool. All statements are parameterized; every multi-row
// lookup is ordered date-descending; set lookups go out as one query.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"agroledger.io/agroledger/internal/infrastructure"
	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the entity schema. Statements are idempotent; intended
// for development bring-up and tests, not for managed production
// migrations.
func Migrate(ctx context.Context, db *infrastructure.DB) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(ctx, stmt); err != nil {
			return apperrors.Wrap(err, apperrors.CodeStorageUnreach, "apply schema", 503)
		}
	}
	return nil
}

// Repositories bundles the per-entity repositories over one pool.
type Repositories struct {
	Accounts   *AccountRepository
	Plots      *PlotRepository
	CropCycles *CropCycleRepository
	Treatments *TreatmentRepository
	Movements  *MovementRepository
}

// NewRepositories wires every repository to the given pool.
func NewRepositories(db *infrastructure.DB) *Repositories {
	return &Repositories{
		Accounts:   NewAccountRepository(db),
		Plots:      NewPlotRepository(db),
		CropCycles: NewCropCycleRepository(db),
		Treatments: NewTreatmentRepository(db),
		Movements:  NewMovementRepository(db),
	}
}

// PostgreSQL error codes consulted when converting constraint violations
// into the application taxonomy.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
