package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	carthandler "cartstore/internal/handlers/cart"
	"cartstore/internal/routes"
	cartservice "cartstore/internal/service/cart"
	"cartstore/internal/view"
	"cartstore/pkg/config"
)

type App struct {
	log    *slog.Logger
	server *http.Server
}

// New wires the cart service, views and routes on top of storage.
func New(log *slog.Logger, cfg config.HTTPConfig, storage cartservice.CartStorage, opts ...cartservice.Option) (*App, error) {
	const op = "app.New"

	cartService := cartservice.New(log, storage, opts...)

	renderer, err := view.New(cfg.CheckoutURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cartHandler := carthandler.New(log, cartService, renderer)
	router := routes.New(log, cartHandler, cfg.SessionCookie, cfg.StaticDir)

	return &App{
		log: log,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router.Register(),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}, nil
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) MustRun() {
	if err := a.Run(); err != nil {
		panic(err)
	}
}

// Run blocks until the server stops. A server closed by Stop is not an error.
func (a *App) Run() error {
	const op = "app.Run"

	a.log.Info("http server started", slog.String("addr", a.server.Addr))

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (a *App) Stop(ctx context.Context) error {
	const op = "app.Stop"

	a.log.Info("stopping http server")

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
