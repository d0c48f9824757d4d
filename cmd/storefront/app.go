package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-storefront/auth"
	"github.com/goliatone/go-storefront/catalog"
	"github.com/goliatone/go-storefront/internal/config"
	"github.com/goliatone/go-storefront/internal/events"
	"github.com/goliatone/go-storefront/internal/mailer"
	"github.com/goliatone/go-storefront/internal/persistence"
	"github.com/goliatone/go-storefront/issues"
	"github.com/goliatone/go-storefront/orders"
)

type App struct {
	config   *config.Config
	bunDB    *bun.DB
	repo     auth.RepositoryManager
	auther   *auth.Authenticator
	mailer   auth.Mailer
	activity auth.ActivitySink
	srv      router.Server[*fiber.App]
	logger   *glog.BaseLogger
	closers  []func() error
}

func (a *App) Config() *config.Config {
	return a.config
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func (a *App) SetDB(db *bun.DB) {
	a.bunDB = db
	a.onClose(db.Close)
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.GetLogger("app").Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := persistence.Open(ctx, app.Config().DB, app.GetLogger("persistence"))
	if err != nil {
		return err
	}
	app.SetDB(db)

	app.repo = auth.NewRepositoryManager(db, auth.WithUsersHasher(
		auth.NewBcryptHasher(app.Config().GetBcryptCost()),
	))

	return app.repo.Validate()
}

// WithMessaging connects the activity publisher when AMQP is configured.
// Without it, or when the broker is unreachable, activity events are dropped.
func WithMessaging(ctx context.Context, app *App) error {
	cfg := app.Config().AMQP
	if cfg.URL == "" {
		app.GetLogger("events").Info("amqp not configured, activity events disabled")
		return nil
	}

	publisher, err := events.Dial(cfg.URL, cfg.Exchange, app.GetLogger("events"))
	if err != nil {
		app.GetLogger("events").Warn("amqp unreachable, activity events disabled", "error", err)
		return nil
	}

	app.activity = publisher
	app.onClose(publisher.Close)
	return nil
}

func WithMailer(ctx context.Context, app *App) error {
	m, err := mailer.New(app.Config().Mail, app.GetLogger("mailer"))
	if err != nil {
		return err
	}
	app.mailer = m
	return nil
}

func (a *App) SetHTTPServer(srv router.Server[*fiber.App]) {
	a.srv = srv
}

func WithHTTPServer(ctx context.Context, app *App) error {
	cfg := app.Config()

	srv := router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		a := fiber.New(fiber.Config{
			AppName:      "storefront",
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  cfg.HTTP.IdleTimeout,
			ErrorHandler: auth.ErrorHandler(app.GetLogger("http")),
		})

		a.Use(requestid.New())
		a.Use(recover.New(recover.Config{
			EnableStackTrace: cfg.Debug,
		}))
		a.Use(logger.New(logger.Config{
			Format:     "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: time.RFC3339,
		}))
		return a
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	srv.Router().Get("/health", func(ctx router.Context) error {
		return ctx.JSON(router.StatusOK, map[string]string{"status": "ok"})
	}).SetName("health")

	app.SetHTTPServer(srv)

	return nil
}

// WithRoutes builds the domain services and mounts every API route under /api
func WithRoutes(ctx context.Context, app *App) error {
	cfg := app.Config()
	db := app.bunDB

	tokens := auth.NewTokenServiceFromConfig(cfg).
		WithLogger(app.GetLogger("auth:tokens"))

	app.auther = auth.NewAuthenticator(app.repo.Users(), auth.NewBcryptHasher(cfg.GetBcryptCost()), tokens).
		WithLogger(app.GetLogger("auth:authn")).
		WithActivitySink(app.activity)

	resetTokens := auth.NewResetTokenManager(cfg.GetResetTokenTTL())

	register := auth.NewRegisterUserHandler(app.repo).
		WithLogger(app.GetLogger("auth:register")).
		WithActivitySink(app.activity)

	forgot := auth.NewInitializePasswordResetHandler(app.repo, resetTokens, app.mailer).
		WithLogger(app.GetLogger("auth:reset")).
		WithActivitySink(app.activity).
		WithMailTimeout(cfg.Mail.Timeout)

	reset := auth.NewFinalizePasswordResetHandler(app.repo, resetTokens).
		WithLogger(app.GetLogger("auth:reset")).
		WithActivitySink(app.activity)

	protected := auth.ProtectedRoute(cfg, app.auther, func(ctx router.Context, identity any) error {
		if user, ok := identity.(*auth.User); ok {
			app.GetLogger("auth:listener").Debug("validated token", "user_id", user.ID.String(), "role", user.Role.String())
		}
		return nil
	})

	api := app.srv.Router().Group("/api")

	auth.RegisterAuthRoutes(api.Group("/auth"), auth.NewAuthController(
		app.auther, register, forgot, reset,
		auth.WithControllerLogger(app.GetLogger("auth:ctrl")),
		auth.WithControllerDebug(cfg.Debug),
		auth.WithControllerHashid(cfg.GetUseHashid()),
	), protected)

	auth.RegisterUserRoutes(api.Group("/users"),
		auth.NewUsersController(app.repo, app.GetLogger("users")),
		protected,
	)

	products := catalog.NewProductsRepository(db)
	catalog.RegisterRoutes(api.Group("/products"), catalog.NewController(products,
		catalog.WithLogger(app.GetLogger("catalog")),
		catalog.WithDebug(cfg.Debug),
	), protected)

	ordersRepo := orders.NewOrdersRepository(db)
	orders.RegisterRoutes(api.Group("/orders"), orders.NewController(ordersRepo, products,
		orders.WithLogger(app.GetLogger("orders")),
		orders.WithDebug(cfg.Debug),
	), protected)

	issues.RegisterRoutes(api.Group("/issues"), issues.NewController(issues.NewIssuesRepository(db), ordersRepo,
		issues.WithLogger(app.GetLogger("issues")),
		issues.WithDebug(cfg.Debug),
	), protected)

	return nil
}
