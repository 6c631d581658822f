package routes

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/surgepay/surgepay/internal/account"
	"github.com/surgepay/surgepay/internal/command"
	"github.com/surgepay/surgepay/internal/config"
	"github.com/surgepay/surgepay/internal/dialog"
	"github.com/surgepay/surgepay/internal/engine"
	"github.com/surgepay/surgepay/internal/fx"
	"github.com/surgepay/surgepay/internal/jobs"
	"github.com/surgepay/surgepay/internal/linking"
	"github.com/surgepay/surgepay/internal/logging"
	"github.com/surgepay/surgepay/internal/middleware"
	"github.com/surgepay/surgepay/internal/recipient"
	"github.com/surgepay/surgepay/internal/session"
	"github.com/surgepay/surgepay/internal/transfer"
	"github.com/surgepay/surgepay/internal/transport"
	"github.com/surgepay/surgepay/internal/user"
	"github.com/surgepay/surgepay/internal/verify"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Jobs   *jobs.Registry
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Postgres is the durable session and money store; it is required
	// outside dev even though main also checks.
	if !isDev(d.Cfg.AppEnv) && d.DB == nil {
		return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Repositories. Memory backends keep dev usable without Postgres.
	var (
		users       user.Repository
		accounts    account.Repository
		recipients  recipient.Repository
		transfers   transfer.Repository
		sessionBack session.DurableStore
	)
	if d.DB != nil {
		users = user.NewPostgresRepository(d.DB)
		accounts = account.NewPostgresRepository(d.DB)
		recipients = recipient.NewPostgresRepository(d.DB)
		transfers = transfer.NewPostgresRepository(d.DB)
		sessionBack = session.NewPostgresStore(d.DB)
	} else {
		users = user.NewMemoryRepository()
		accounts = account.NewMemoryRepository()
		recipients = recipient.NewMemoryRepository()
		transfers = transfer.NewMemoryRepository()
		sessionBack = session.NewMemoryStore()
	}

	sessions := session.NewStore(d.Cache, sessionBack, d.Cfg.SessionTTL, logging.Component(d.Logger, "session"))
	accountSvc := account.NewService(accounts)

	var rateSource fx.Source
	if d.Cfg.FXAPIKey != "" {
		rateSource = fx.NewAPISource(d.Cfg.FXAPIBaseURL, d.Cfg.FXAPIKey)
	} else {
		// No API key, usually dev: serve the fallback constant.
		rateSource = fx.StaticSource(fx.FallbackRate)
	}
	rates := fx.NewService(rateSource, d.Cache, logging.Component(d.Logger, "fx"))
	transferSvc := transfer.NewService(transfers, rates, d.Cfg.QuoteTTL, logging.Component(d.Logger, "transfer"))

	var sender transport.Sender
	if d.Cfg.TwilioAccountSID != "" {
		sender = transport.NewTwilioSender(d.Cfg.TwilioAccountSID, d.Cfg.TwilioAuthToken, d.Cfg.TwilioWhatsAppFrom)
	} else {
		sender = transport.NewLogSender(logging.Component(d.Logger, "outbound"))
	}

	notifier := jobs.NewSettlementNotifier(transferSvc, recipients, accountSvc, sessions, sender,
		jobs.DefaultSettlementDelays(), logging.Component(d.Logger, "settlement"))
	refresher := jobs.NewRateRefresher(transferSvc, sessions, sender,
		d.Cfg.RateRefreshInterval, logging.Component(d.Logger, "raterefresh"))

	aggregator := linking.NewSimulator()
	handlers := &dialog.Handlers{
		Users:      users,
		Accounts:   accountSvc,
		Recipients: recipients,
		Transfers:  transferSvc,
		Aggregator: aggregator,
		Verifier:   verify.NewSimulator(),
		Jobs:       d.Jobs,
		Notifier:   notifier,
		Refresher:  refresher,
		Logger:     logging.Component(d.Logger, "dialog"),
	}
	interceptor := &command.Interceptor{
		Users:      users,
		Accounts:   accountSvc,
		Recipients: recipients,
		Transfers:  transferSvc,
		Rates:      rates,
		Aggregator: aggregator,
		Jobs:       d.Jobs,
		Logger:     logging.Component(d.Logger, "command"),
	}
	eng := &engine.Engine{
		Sessions:    sessions,
		Users:       users,
		Interceptor: interceptor,
		Dialog:      handlers,
		Sender:      sender,
		Logger:      logging.Component(d.Logger, "engine"),
	}

	RegisterWebhookRoutes(app, eng, logging.Component(d.Logger, "webhook"))

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
