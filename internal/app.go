// internal/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	router "finflow-invest/internal/api"
	"finflow-invest/internal/api/handler"
	"finflow-invest/internal/clock"
	"finflow-invest/internal/config"
	"finflow-invest/internal/lock"
	"finflow-invest/internal/notify"
	"finflow-invest/internal/repository"
	"finflow-invest/internal/repository/kv"
	"finflow-invest/internal/scheduler"
	"finflow-invest/internal/service"
	"finflow-invest/internal/util"
	"finflow-invest/pkg/db"
	"finflow-invest/pkg/kvstore"
)

// notificationBuffer is the number of undelivered notifications kept before
// new ones are dropped.
const notificationBuffer = 256

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	Store  kvstore.Store
	DB     *sqlx.DB // Set only for the postgres backend

	// Repositories
	AccountRepository     repository.AccountRepository
	TransactionRepository repository.TransactionRepository
	InvestmentRepository  repository.InvestmentRepository
	PlanRepository        repository.PlanRepository
	SettingsRepository    repository.SettingsRepository

	// Services
	Deps               *service.Deps
	AccountService     service.AccountService
	TransactionService service.TransactionService
	InvestmentService  service.InvestmentService
	SettingsService    service.SettingsService

	// Background work
	Notifier    *notify.AsyncSink
	Valuation   *scheduler.Valuation
	Runner      *scheduler.Runner
	RateLimiter *router.RateLimiter

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.", "store_backend", cfg.StoreBackend)

	// 3. Open the store
	if err := app.openStore(ctx); err != nil {
		return err
	}

	// 4. Initialize Repositories
	app.AccountRepository = kv.NewAccountRepository()
	app.TransactionRepository = kv.NewTransactionRepository()
	app.InvestmentRepository = kv.NewInvestmentRepository()
	app.PlanRepository = kv.NewPlanRepository()
	app.SettingsRepository = kv.NewSettingsRepository()
	app.Logger.Info("Repositories initialized.")

	// 5. Initialize Services
	// Pass the concrete db.BeginTx, db.CommitTx, db.RollbackTx functions from pkg/db
	app.Notifier = notify.NewAsyncSink(notify.NewLogSink(app.Logger), notificationBuffer, app.Logger)
	app.Deps = &service.Deps{
		Store:        app.Store,
		Accounts:     app.AccountRepository,
		Transactions: app.TransactionRepository,
		Investments:  app.InvestmentRepository,
		Plans:        app.PlanRepository,
		Settings:     app.SettingsRepository,
		Locks:        lock.NewKeyed(),
		Clock:        clock.System{},
		Notifier:     app.Notifier,
		Logger:       app.Logger,
		BeginTx:      db.BeginTx,
		CommitTx:     db.CommitTx,
		RollbackTx:   db.RollbackTx,
	}
	app.AccountService = service.NewAccountService(app.Deps)
	app.TransactionService = service.NewTransactionService(app.Deps, cfg.CommissionRate)
	app.InvestmentService = service.NewInvestmentService(app.Deps)
	app.SettingsService = service.NewSettingsService(app.Deps)
	app.Logger.Info("Services initialized.")

	// 6. Seed catalog, settings and the bootstrap admin
	if err := app.bootstrap(ctx); err != nil {
		return err
	}

	// 7. Schedule background jobs
	app.RateLimiter = router.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, app.Logger)
	app.Valuation = scheduler.NewValuation(app.InvestmentService, app.Deps.Clock, cfg.ValuationInterval, app.Logger)
	app.Runner = scheduler.NewRunner(app.Logger)
	if err := app.Runner.Every("valuation", cfg.ValuationInterval, app.Valuation.Run); err != nil {
		return fmt.Errorf("failed to schedule valuation: %w", err)
	}
	if err := app.Runner.Every("rate-limit-cleanup", 5*time.Minute, func(context.Context) {
		if n := app.RateLimiter.Cleanup(10 * time.Minute); n > 0 {
			app.Logger.Debug("Idle rate limiters removed", "count", n)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule rate limiter cleanup: %w", err)
	}

	// 8. Initialize HTTP Handlers and Router
	app.HTTPHandler = router.NewRouter(router.Handlers{
		Accounts:     handler.NewAccountHandler(app.AccountService, app.Logger),
		Transactions: handler.NewTransactionHandler(app.TransactionService, app.Logger),
		Investments:  handler.NewInvestmentHandler(app.InvestmentService, app.Logger),
		Settings:     handler.NewSettingsHandler(app.SettingsService, app.Logger),
	}, app.RateLimiter, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

func (app *Application) openStore(ctx context.Context) error {
	switch app.Config.StoreBackend {
	case config.BackendPostgres:
		database, err := db.NewPostgresDB(app.Config.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		app.DB = database
		if app.Config.DBMigrate {
			if err := db.Migrate(database); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
			app.Logger.Info("Database migrations applied.")
		}
		app.Store = kvstore.NewPostgres(database)
		app.Logger.Info("Database connection established.")
	case config.BackendRedis:
		store, err := kvstore.NewRedis(ctx, app.Config.RedisURL, "finflow")
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.Store = store
		app.Logger.Info("Redis connection established.")
	default:
		app.Store = kvstore.NewMemory()
		app.Logger.Warn("Using in-memory store; data is lost on restart.")
	}
	return nil
}

func (app *Application) bootstrap(ctx context.Context) error {
	plans, err := config.LoadPlans(app.Config.PlansFile)
	if err != nil {
		return fmt.Errorf("failed to load plans: %w", err)
	}
	if err := app.InvestmentService.SeedPlans(ctx, plans); err != nil {
		return fmt.Errorf("failed to seed plans: %w", err)
	}
	if err := app.SettingsService.EnsureWalletAddresses(ctx, app.Config.WalletAddresses); err != nil {
		return fmt.Errorf("failed to seed wallet addresses: %w", err)
	}
	if app.Config.AdminEmail != "" {
		admin, err := app.AccountService.EnsureAdmin(ctx, app.Config.AdminName, app.Config.AdminEmail)
		if err != nil {
			return fmt.Errorf("failed to bootstrap admin: %w", err)
		}
		app.Logger.Info("Admin account ready.", "account_id", admin.ID)
	}
	app.Logger.Info("Bootstrap completed.", "plans", len(plans))
	return nil
}

// Start begins the background scheduler.
func (app *Application) Start() {
	app.Runner.Start()
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	var errs []error
	if app.Runner != nil {
		if err := app.Runner.Stop(ctx); err != nil {
			app.Logger.Error("Failed to stop scheduler", "error", err)
			errs = append(errs, err)
		}
	}
	if app.Notifier != nil {
		app.Notifier.Close()
	}
	if app.Store != nil {
		if err := app.Store.Close(); err != nil {
			app.Logger.Error("Failed to close store", "error", err)
			errs = append(errs, fmt.Errorf("failed to close store: %w", err))
		} else {
			app.Logger.Info("Store closed.")
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
