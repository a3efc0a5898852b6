package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/chaincred/chaincred/internal/auth"
	"github.com/chaincred/chaincred/internal/chain"
	"github.com/chaincred/chaincred/internal/config"
	"github.com/chaincred/chaincred/internal/credit"
	"github.com/chaincred/chaincred/internal/loans"
	"github.com/chaincred/chaincred/internal/metrics"
	"github.com/chaincred/chaincred/internal/middleware"
	"github.com/chaincred/chaincred/internal/notification"
	"github.com/chaincred/chaincred/internal/user"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Registry chain.Registry
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Outside dev every backend must be present, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	if d.Metrics != nil {
		app.Use(middleware.HTTPMetrics(d.Metrics.HTTPDuration))
	}
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Backends
	registry := d.Registry
	if registry == nil {
		registry = chain.NewMemoryRegistry()
	}

	var userRepo user.Repository
	var scoreRepo credit.Repository
	var loanRepo loans.Repository
	if d.DB != nil {
		userRepo = user.NewPostgresRepository(d.DB)
		scoreRepo = credit.NewPostgresRepository(d.DB)
		loanRepo = loans.NewPostgresRepository(d.DB)
	} else {
		userRepo = user.NewMemoryRepository()
		scoreRepo = credit.NewMemoryRepository()
		loanRepo = loans.NewMemoryRepository()
	}

	var predictor credit.Predictor = credit.StaticPredictor{}
	if d.Cfg.ModelEndpoint != "" {
		predictor = credit.NewHTTPPredictor(d.Cfg.ModelEndpoint)
	}

	var scoresComputed func()
	if d.Metrics != nil {
		scoresComputed = d.Metrics.ScoresComputed.Inc
	}

	// Services and handlers
	notifier := notification.NewLoggerNotifier(d.Logger)
	userSvc := user.NewService(userRepo)
	authSvc := auth.NewService(d.Cfg, userRepo)
	creditSvc := credit.NewService(registry, scoreRepo, predictor, d.Cache, d.Cfg.ScoreCacheTTL, notifier, scoresComputed)
	loanSvc := loans.NewService(loanRepo, creditSvc, notifier)

	authHandler := auth.NewHandler(userSvc, authSvc)
	userHandler := user.NewHandler(userSvc)
	creditHandler := credit.NewHandler(creditSvc)
	loanHandler := loans.NewHandler(loanSvc, userSvc)

	// Health and metrics
	RegisterHealthRoutes(app, d, registry)
	if d.Metrics != nil {
		RegisterMetricsRoute(app, d.Metrics)
	}

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)
	api.Get("/loans/quote", loanHandler.Quote)

	// Protected routes
	jwtmw := middleware.JWTAuth(authSvc)
	protected := api.Group("", jwtmw)
	RegisterLogoutRoute(protected, authHandler)
	RegisterUserRoutes(protected, userHandler)
	RegisterCreditRoutes(protected, creditHandler)
	RegisterLoanRoutes(protected, loanHandler)

	return nil
}
