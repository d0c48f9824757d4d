package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"

	"github.com/goliatone/go-storefront/internal/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("storefront"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := config.Load(configPath())
	if err != nil {
		panic(err)
	}

	if cfg.Debug {
		fmt.Println("============")
		fmt.Println(print.MaybeHighlightJSON(redacted(*cfg)))
		fmt.Println("============")
	}

	ctx := context.Background()

	app := &App{
		config: cfg,
		logger: lgr,
	}
	defer app.Close()

	for _, step := range []func(context.Context, *App) error{
		WithPersistence,
		WithMessaging,
		WithMailer,
		WithHTTPServer,
		WithRoutes,
	} {
		if err := step(ctx, app); err != nil {
			app.GetLogger("app").Error("startup failed", "error", err)
			app.Close()
			os.Exit(1)
		}
	}

	go func() {
		app.GetLogger("app").Info("listening", "address", cfg.HTTP.Address, "env", cfg.Env)
		if err := app.srv.Serve(cfg.HTTP.Address); err != nil {
			app.GetLogger("app").Error("server stopped", "error", err)
		}
	}()

	sig := WaitExitSignal()
	app.GetLogger("app").Info("shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := app.srv.Shutdown(shutdownCtx); err != nil {
		app.GetLogger("app").Error("shutdown failed", "error", err)
	}
}

func configPath() string {
	if p := os.Getenv("STOREFRONT_CONFIG"); p != "" {
		return p
	}
	return "config.yml"
}

// redacted hides credentials before the config is printed
func redacted(cfg config.Config) config.Config {
	if cfg.Auth.SigningKey != "" {
		cfg.Auth.SigningKey = "********"
	}
	if cfg.Mail.Password != "" {
		cfg.Mail.Password = "********"
	}
	return cfg
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
