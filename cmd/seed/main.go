// Package main seeds an AgroLedger database from a YAML fixture. It is
// meant for development bring-up and demos; seeding an already-populated
// database skips duplicate accounts instead of failing.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"agroledger.io/agroledger/internal/auth"
	"agroledger.io/agroledger/internal/config"
	"agroledger.io/agroledger/internal/domain"
	"agroledger.io/agroledger/internal/infrastructure"
	apperrors "agroledger.io/agroledger/internal/pkg/errors"
	"agroledger.io/agroledger/internal/pkg/logger"
	"agroledger.io/agroledger/internal/repository/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed error: %v\n", err)
		os.Exit(1)
	}
}

type fixture struct {
	Accounts []fixtureAccount `yaml:"accounts"`
}

type fixtureAccount struct {
	Name     string        `yaml:"name"`
	Surname  string        `yaml:"surname"`
	Email    string        `yaml:"email"`
	Login    string        `yaml:"login"`
	Password string        `yaml:"password"`
	Role     string        `yaml:"role"`
	Plots    []fixturePlot `yaml:"plots"`
}

type fixturePlot struct {
	Name       string `yaml:"name"`
	Location   string `yaml:"location"`
	Area       string `yaml:"area"`
	SoilType   string `yaml:"soil_type"`
	Irrigation string `yaml:"irrigation"`
	State      string `yaml:"state"`

	CropCycles []fixtureCropCycle `yaml:"crop_cycles"`
	Movements  []fixtureMovement  `yaml:"movements"`
}

type fixtureCropCycle struct {
	Name      string `yaml:"name"`
	Variety   string `yaml:"variety"`
	State     string `yaml:"state"`
	SownOn    string `yaml:"sown_on"`
	Harvested string `yaml:"harvested_on"`
	Produced  string `yaml:"produced_kg"`

	Treatments []fixtureTreatment `yaml:"treatments"`
}

type fixtureTreatment struct {
	AppliedOn string `yaml:"applied_on"`
	Product   string `yaml:"product"`
	Category  string `yaml:"category"`
	Dosage    string `yaml:"dosage"`
	Cost      string `yaml:"cost"`
}

type fixtureMovement struct {
	Kind    string `yaml:"kind"`
	Concept string `yaml:"concept"`
	Amount  string `yaml:"amount"`
	Date    string `yaml:"date"`
	Notes   string `yaml:"notes"`
}

func run() error {
	fixturePath := flag.String("fixture", "", "YAML fixture to load (defaults to a single admin account)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	db, err := infrastructure.Shared(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer infrastructure.CloseShared()

	if err := postgres.Migrate(ctx, db); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	fix, err := loadFixture(*fixturePath)
	if err != nil {
		return err
	}

	repos := postgres.NewRepositories(db)
	verifier := auth.NewVerifier(repos.Accounts, cfg.Security.BcryptCost)

	logger.Info("Starting data seeding...", zap.Int("accounts", len(fix.Accounts)))
	for _, fa := range fix.Accounts {
		if err := seedAccount(ctx, repos, verifier, fa); err != nil {
			return err
		}
	}
	logger.Info("Data seeding completed successfully")
	return nil
}

func loadFixture(path string) (fixture, error) {
	if path == "" {
		return fixture{Accounts: []fixtureAccount{{
			Name:     "Administrator",
			Email:    "admin@agroledger.local",
			Login:    "admin",
			Password: "admin",
			Role:     "admin",
		}}}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	var fix fixture
	if err := yaml.Unmarshal(raw, &fix); err != nil {
		return fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	return fix, nil
}

func seedAccount(ctx context.Context, repos *postgres.Repositories, verifier *auth.Verifier, fa fixtureAccount) error {
	role, err := domain.ParseRole(orDefault(fa.Role, "owner"))
	if err != nil {
		return fmt.Errorf("account %q: %w", fa.Login, err)
	}
	hash, err := verifier.Hash(fa.Password)
	if err != nil {
		return fmt.Errorf("account %q: %w", fa.Login, err)
	}

	account, err := repos.Accounts.Create(ctx, domain.Account{
		Name:         fa.Name,
		Surname:      fa.Surname,
		Email:        fa.Email,
		Login:        fa.Login,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if appErr, ok := apperrors.IsAppError(err); ok &&
			(appErr.Code == apperrors.CodeDuplicateLogin || appErr.Code == apperrors.CodeDuplicateEmail) {
			logger.Warn("Account already seeded, skipping", zap.String("login", fa.Login))
			return nil
		}
		return fmt.Errorf("account %q: %w", fa.Login, err)
	}
	logger.Info("Seeded account", zap.String("login", account.Login), zap.Int64("id", account.ID))

	for _, fp := range fa.Plots {
		if err := seedPlot(ctx, repos, account.ID, fp); err != nil {
			return fmt.Errorf("account %q: %w", fa.Login, err)
		}
	}
	return nil
}

func seedPlot(ctx context.Context, repos *postgres.Repositories, ownerID int64, fp fixturePlot) error {
	area, err := parseFixtureDecimal(fp.Area)
	if err != nil {
		return fmt.Errorf("plot %q area: %w", fp.Name, err)
	}
	p := domain.Plot{
		OwnerID:    ownerID,
		Name:       fp.Name,
		Location:   fp.Location,
		Area:       area,
		SoilType:   fp.SoilType,
		Irrigation: fp.Irrigation,
	}
	if fp.State != "" {
		state, err := domain.ParsePlotState(fp.State)
		if err != nil {
			return fmt.Errorf("plot %q: %w", fp.Name, err)
		}
		p.State = state
	}

	plot, err := repos.Plots.Create(ctx, p)
	if err != nil {
		return fmt.Errorf("plot %q: %w", fp.Name, err)
	}

	for _, fc := range fp.CropCycles {
		if err := seedCropCycle(ctx, repos, plot.ID, fc); err != nil {
			return fmt.Errorf("plot %q: %w", fp.Name, err)
		}
	}
	var net decimal.Decimal
	for _, fm := range fp.Movements {
		signed, err := seedMovement(ctx, repos, plot.ID, fm)
		if err != nil {
			return fmt.Errorf("plot %q: %w", fp.Name, err)
		}
		net = net.Add(signed)
	}
	if len(fp.Movements) > 0 {
		logger.Info("Seeded plot movements",
			zap.String("plot", plot.Name),
			zap.Int("movements", len(fp.Movements)),
			zap.String("net", net.String()))
	}
	return nil
}

func seedCropCycle(ctx context.Context, repos *postgres.Repositories, plotID int64, fc fixtureCropCycle) error {
	produced, err := parseFixtureDecimal(fc.Produced)
	if err != nil {
		return fmt.Errorf("crop cycle %q produced_kg: %w", fc.Name, err)
	}
	cc := domain.CropCycle{
		PlotID:     plotID,
		Name:       fc.Name,
		Variety:    fc.Variety,
		ProducedKg: produced,
	}
	if fc.State != "" {
		state, err := domain.ParseCropState(fc.State)
		if err != nil {
			return fmt.Errorf("crop cycle %q: %w", fc.Name, err)
		}
		cc.State = state
	}
	sown, err := parseFixtureDate(fc.SownOn)
	if err != nil {
		return fmt.Errorf("crop cycle %q sown_on: %w", fc.Name, err)
	}
	cc.SownOn = sown
	if fc.Harvested != "" {
		harvested, err := parseFixtureDate(fc.Harvested)
		if err != nil {
			return fmt.Errorf("crop cycle %q harvested_on: %w", fc.Name, err)
		}
		cc.HarvestedOn = &harvested
	}

	cycle, err := repos.CropCycles.Create(ctx, cc)
	if err != nil {
		return fmt.Errorf("crop cycle %q: %w", fc.Name, err)
	}

	for _, ft := range fc.Treatments {
		cost, err := parseFixtureDecimal(ft.Cost)
		if err != nil {
			return fmt.Errorf("treatment %q cost: %w", ft.Product, err)
		}
		t := domain.Treatment{
			CropCycleID: cycle.ID,
			Product:     ft.Product,
			Dosage:      ft.Dosage,
			Cost:        cost,
		}
		if ft.Category != "" {
			category, err := domain.ParseTreatmentCategory(ft.Category)
			if err != nil {
				return fmt.Errorf("treatment %q: %w", ft.Product, err)
			}
			t.Category = category
		}
		applied, err := parseFixtureDate(ft.AppliedOn)
		if err != nil {
			return fmt.Errorf("treatment %q applied_on: %w", ft.Product, err)
		}
		t.AppliedOn = applied

		if _, err := repos.Treatments.Create(ctx, t); err != nil {
			return fmt.Errorf("treatment %q: %w", ft.Product, err)
		}
	}
	return nil
}

func seedMovement(ctx context.Context, repos *postgres.Repositories, plotID int64, fm fixtureMovement) (decimal.Decimal, error) {
	kind, err := domain.ParseMovementKind(fm.Kind)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("movement %q: %w", fm.Concept, err)
	}
	date, err := parseFixtureDate(fm.Date)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("movement %q date: %w", fm.Concept, err)
	}
	amount, err := decimal.NewFromString(fm.Amount)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("movement %q amount: %w", fm.Concept, err)
	}

	created, err := repos.Movements.Create(ctx, domain.FinancialMovement{
		PlotID:  plotID,
		Kind:    kind,
		Concept: fm.Concept,
		Amount:  amount,
		Date:    date,
		Notes:   fm.Notes,
	})
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("movement %q: %w", fm.Concept, err)
	}
	return created.Signed(), nil
}

func parseFixtureDecimal(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// parseFixtureDate reads a calendar date; an empty value falls through
// to the domain defaults.
func parseFixtureDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
