package testutil

import (
	"context"
	"testing"
	"time"

	"agroledger.io/agroledger/internal/config"
	"agroledger.io/agroledger/internal/infrastructure"
	"agroledger.io/agroledger/internal/pkg/logger"
)

// DatabaseConfig returns a pool configuration scoped to a fresh schema,
// sized small so pool-behavior tests stay fast.
func DatabaseConfig(t *testing.T, prefix string) config.DatabaseConfig {
	t.Helper()
	return config.DatabaseConfig{
		URL:               SchemaDSN(t, prefix),
		MaxConns:          5,
		MinConns:          1,
		MaxConnLifetime:   30 * time.Minute,
		MaxConnIdleTime:   10 * time.Minute,
		AcquireTimeout:    5 * time.Second,
		LeakWarnThreshold: time.Minute,
	}
}

// OpenDB opens an application-level pool against an isolated schema. The
// pool and the schema are cleaned up with the test.
func OpenDB(t *testing.T, prefix string) *infrastructure.DB {
	t.Helper()

	_ = logger.Init("error", "console")

	db, err := infrastructure.NewPool(context.Background(), DatabaseConfig(t, prefix))
	if err != nil {
		t.Fatalf("open database pool: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}
