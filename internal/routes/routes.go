package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/wallet_ledger/internal/auth"
	"github.com/congo-pay/wallet_ledger/internal/config"
	"github.com/congo-pay/wallet_ledger/internal/funding"
	"github.com/congo-pay/wallet_ledger/internal/ledger"
	"github.com/congo-pay/wallet_ledger/internal/middleware"
	"github.com/congo-pay/wallet_ledger/internal/notification"
	"github.com/congo-pay/wallet_ledger/internal/payments"
	"github.com/congo-pay/wallet_ledger/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
	// Store overrides the ledger store. When nil, DB selects Postgres and
	// development falls back to memory.
	Store    ledger.Store
	Notifier notification.Notifier
	Gateway  funding.Gateway
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !config.IsDevelopment(d.Cfg.Env) {
		if d.DB == nil && d.Store == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}

	// Metrics reads the status Audit rendered; recover sits inside Audit so
	// panics are rendered like any other internal error.
	app.Use(middleware.RequestID())
	app.Use(middleware.Metrics())
	app.Use(middleware.Audit(d.Logger))
	app.Use(recover.New())

	RegisterHealthRoutes(app, d)

	// Services and handlers
	store := d.Store
	if store == nil {
		if d.DB != nil {
			store = ledger.NewPostgresStore(d.DB, d.Cfg.StoreMaxAttempts)
		} else {
			d.Logger.Warn("no database configured, using in-memory ledger store")
			store = ledger.NewInMemory()
		}
	}
	notifier := d.Notifier
	if notifier == nil {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}

	ledgerSvc := ledger.New(store, d.Logger)
	walletSvc := wallet.NewService(ledgerSvc, notifier, d.Logger)
	paymentSvc := payments.NewService(walletSvc, notifier, d.Logger)
	fundingSvc, err := funding.NewService(ledgerSvc, d.Gateway, notifier, d.Logger)
	if err != nil {
		return err
	}

	walletHandler := wallet.NewHandler(walletSvc)
	fundingHandler := funding.NewHandler(fundingSvc)
	paymentHandler := payments.NewHandler(paymentSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Protected routes
	var handlers []fiber.Handler
	if d.Cfg.JWTSecret != "" {
		handlers = append(handlers, middleware.JWTAuth(auth.NewVerifier(d.Cfg.JWTSecret)))
	} else {
		d.Logger.Warn("JWT_SECRET is empty, API authentication disabled")
	}
	if d.Cache != nil {
		handlers = append(handlers,
			middleware.WriteRateLimit(d.Cache, d.Cfg.WriteRateLimit),
			middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger),
		)
	}
	protected := api.Group("", handlers...)

	RegisterWalletRoutes(protected, walletHandler)
	RegisterFundingRoutes(protected, fundingHandler)
	RegisterPaymentRoutes(protected, paymentHandler)

	return nil
}
