// Package infrastructure provides database and connection pool setup.
//
// The pool is the only mutable state shared across calls; every other
// component is stateless. All repository access goes through the scoped
// acquisition helpers here, which release the connection on every exit
// path.
package infrastructure

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"agroledger.io/agroledger/internal/config"
	apperrors "agroledger.io/agroledger/internal/pkg/errors"
	"agroledger.io/agroledger/internal/pkg/logger"
)

// DB wraps a pgxpool with acquire-timeout and leak-diagnostic semantics.
type DB struct {
	pool *pgxpool.Pool

	acquireTimeout    time.Duration
	leakWarnThreshold time.Duration

	closeOnce sync.Once
}

// NewPool creates the bounded connection pool and verifies connectivity.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConfigIncomplete, "parse pool config", 500)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = time.Minute

	// Set UTC timezone on each new connection so date round-trips are stable.
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET timezone = 'UTC'")
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorageUnreach, "create pool", 503)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.Wrap(err, apperrors.CodeStorageUnreach, "ping database", 503)
	}

	logger.Info("Database connection pool created",
		zap.Int32("max_conns", cfg.MaxConns),
		zap.Int32("min_conns", cfg.MinConns),
	)

	return &DB{
		pool:              pool,
		acquireTimeout:    cfg.AcquireTimeout,
		leakWarnThreshold: cfg.LeakWarnThreshold,
	}, nil
}

// Lease is a checked-out connection. Release is idempotent and must be
// called on every exit path; a lease held past the leak threshold logs a
// probable-leak warning but stays usable.
type Lease struct {
	conn        *pgxpool.Conn
	acquiredAt  time.Time
	leakTimer   *time.Timer
	releaseOnce sync.Once
}

// Conn exposes the underlying pooled connection.
func (l *Lease) Conn() *pgxpool.Conn { return l.conn }

// Release returns the connection to the pool. Safe to call more than once.
func (l *Lease) Release() {
	l.releaseOnce.Do(func() {
		if l.leakTimer != nil {
			l.leakTimer.Stop()
		}
		l.conn.Release()
	})
}

// Acquire checks a connection out of the pool, waiting at most the
// configured acquire timeout. A timed-out wait is reported as pool
// exhaustion, not as a generic context error.
func (db *DB) Acquire(ctx context.Context) (*Lease, error) {
	acquireCtx := ctx
	var cancel context.CancelFunc
	if db.acquireTimeout > 0 {
		acquireCtx, cancel = context.WithTimeout(ctx, db.acquireTimeout)
		defer cancel()
	}

	conn, err := db.pool.Acquire(acquireCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, apperrors.ErrPoolExhausted(err)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeStorageUnreach, "acquire connection", 503)
	}

	lease := &Lease{conn: conn, acquiredAt: time.Now()}
	if db.leakWarnThreshold > 0 {
		threshold := db.leakWarnThreshold
		lease.leakTimer = time.AfterFunc(threshold, func() {
			logger.Warn("Probable connection leak",
				zap.Duration("held_for", time.Since(lease.acquiredAt)),
				zap.Duration("threshold", threshold),
			)
		})
	}
	return lease, nil
}

// leasedRows releases the lease when the row set is closed.
type leasedRows struct {
	pgx.Rows
	lease *Lease
}

func (r *leasedRows) Close() {
	r.Rows.Close()
	r.lease.Release()
}

// Query runs a parameterized query on a freshly acquired connection.
// The connection is released when the returned rows are closed.
func (db *DB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	lease, err := db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := lease.conn.Query(ctx, sql, args...)
	if err != nil {
		lease.Release()
		return nil, err
	}
	return &leasedRows{Rows: rows, lease: lease}, nil
}

// leasedRow releases the lease after Scan.
type leasedRow struct {
	row   pgx.Row
	lease *Lease
}

func (r *leasedRow) Scan(dest ...any) error {
	defer r.lease.Release()
	return r.row.Scan(dest...)
}

// QueryRow runs a single-row query; the connection is released after Scan.
func (db *DB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	lease, err := db.Acquire(ctx)
	if err != nil {
		return errRow{err: err}
	}
	return &leasedRow{row: lease.conn.QueryRow(ctx, sql, args...), lease: lease}
}

// errRow defers an acquire failure to the Scan call, matching pgx semantics.
type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

// Exec runs a statement on a freshly acquired connection.
func (db *DB) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	lease, err := db.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer lease.Release()

	tag, err := lease.conn.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Stat exposes pool statistics for diagnostics and tests.
func (db *DB) Stat() *pgxpool.Stat { return db.pool.Stat() }

// Close drains the pool. Idempotent; safe from a shutdown handler.
func (db *DB) Close() {
	db.closeOnce.Do(func() {
		db.pool.Close()
		logger.Info("Database connection pool closed")
	})
}

var (
	shared     *DB
	sharedErr  error
	sharedOnce sync.Once
)

// Shared lazily initializes the process-wide pool exactly once, however
// many callers race on first use.
func Shared(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	sharedOnce.Do(func() {
		shared, sharedErr = NewPool(ctx, cfg)
	})
	return shared, sharedErr
}

// CloseShared tears down the shared pool if it was ever created.
func CloseShared() {
	// Synchronizes with an in-flight first Shared call before the
	// pointer is read.
	sharedOnce.Do(func() {})
	if shared != nil {
		shared.Close()
	}
}
