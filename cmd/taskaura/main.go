package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"taskaura/internal/apiclient"
	"taskaura/internal/config"
	"taskaura/internal/projectdetail"
	"taskaura/internal/projectlist"
	"taskaura/internal/querycache"
	"taskaura/internal/server"
	"taskaura/internal/session"
	"taskaura/internal/storage/sqlite"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	logger := cfg.NewLogger(os.Stdout)
	logger.Info("TaskAura client", slog.String("api", cfg.APIBaseURL), slog.String("addr", cfg.Addr))

	if err := run(cfg, logger); err != nil {
		logger.Error("client stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := apiclient.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.RequestTimeout,
		Retries: apiclient.DefaultRetries,
		Logger:  logger,
	}

	if cfg.SessionDB != "" {
		store, err := sqlite.Open(cfg.SessionDB, logger)
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}
		defer store.Close()

		origin, err := url.Parse(cfg.APIBaseURL)
		if err != nil {
			return fmt.Errorf("parse api url: %w", err)
		}
		jar, err := apiclient.NewPersistentJar(ctx, origin, store, logger)
		if err != nil {
			return fmt.Errorf("restore session: %w", err)
		}
		opts.Jar = jar
	}

	client, err := apiclient.New(opts)
	if err != nil {
		return err
	}

	cache := querycache.New(logger)
	sess := session.New(client, cache, logger)
	if st := sess.Refresh(ctx); st.Authenticated {
		logger.Info("session restored", slog.String("user", st.User.Username))
	}

	dashboard := projectlist.New(projectlist.Options{
		API:         client,
		Cache:       cache,
		Logger:      logger,
		SearchDelay: cfg.SearchDebounce,
		PageSize:    cfg.PageSize,
	})
	defer dashboard.Close()

	detail := projectdetail.New(projectdetail.Options{
		API:         client,
		Cache:       cache,
		Logger:      logger,
		SearchDelay: cfg.TaskSearchDebounce,
	})
	defer detail.Close()

	srv := server.New(server.Deps{
		Session:   sess,
		Dashboard: dashboard,
		Detail:    detail,
	}, logger, cfg.StaticDir)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	return nil
}
