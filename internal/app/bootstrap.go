// Package app is the composition root: it wires the pool, repositories,
// services and HTTP surface together, nothing more.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"agroledger.io/agroledger/internal/access"
	"agroledger.io/agroledger/internal/api/handlers"
	"agroledger.io/agroledger/internal/api/middleware"
	"agroledger.io/agroledger/internal/auth"
	"agroledger.io/agroledger/internal/config"
	"agroledger.io/agroledger/internal/finance"
	"agroledger.io/agroledger/internal/infrastructure"
	"agroledger.io/agroledger/internal/pkg/logger"
	"agroledger.io/agroledger/internal/repository/postgres"
)

// Application holds composed application dependencies.
type Application struct {
	Config *config.Config
	Router *gin.Engine
	DB     *infrastructure.DB
	Repos  *postgres.Repositories
}

// Bootstrap initializes all dependencies with manual wiring.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	db, err := infrastructure.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database pool: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
		logger.Info("Database schema applied")
	}

	repos := postgres.NewRepositories(db)
	scopes := access.NewResolver(repos.Plots)
	aggregator := finance.NewAggregator(scopes, repos.Plots, repos.Movements, repos.Treatments)
	verifier := auth.NewVerifier(repos.Accounts, cfg.Security.BcryptCost)

	jwtCfg := middleware.JWTConfig{
		SigningKey: []byte(cfg.Security.JWTSigningKey),
		Issuer:     cfg.Security.JWTIssuer,
		ExpiresIn:  cfg.Security.TokenTTL,
	}

	server := handlers.NewServer(handlers.ServerDeps{
		DB:       db,
		Repos:    repos,
		Verifier: verifier,
		Scopes:   scopes,
		Finance:  aggregator,
		JWTCfg:   jwtCfg,
	})

	return &Application{
		Config: cfg,
		Router: newRouter(cfg, server),
		DB:     db,
		Repos:  repos,
	}, nil
}

// Shutdown releases the application's resources.
func (a *Application) Shutdown() {
	if a.DB != nil {
		a.DB.Close()
	}
}
