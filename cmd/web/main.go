package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jusunglee/romanji/internal/db"
	"github.com/jusunglee/romanji/internal/db/dbconn"
	"github.com/jusunglee/romanji/internal/db/postgres"
	"github.com/jusunglee/romanji/internal/logger"
	"github.com/jusunglee/romanji/internal/metrics"
	"github.com/jusunglee/romanji/internal/romanji"
	"github.com/jusunglee/romanji/internal/romanji/tables"
	"github.com/jusunglee/romanji/internal/web"
	"github.com/jusunglee/romanji/internal/web/middleware"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := mainE(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
	slog.Info("exiting without error")
}

func mainE() error {
	_ = godotenv.Load()

	fs := ff.NewFlagSet("romanji-web")

	var (
		port        = fs.Int64Long("port", 3000, "HTTP server port")
		databaseURL = fs.StringLong("database-url", "", "Optional cache database (sqlite:// path or PostgreSQL URL)")
		tablesPath  = fs.StringLong("tables", "", "JSON tables file (default built-in Hepburn)")
		rateLimit   = fs.Int64Long("rate-limit", 60, "POST requests allowed per IP per minute")
		retention   = fs.DurationLong("retention", 30*24*time.Hour, "How long cached romanizations are kept")
	)

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVars()); err != nil {
		fmt.Printf("%s\n", ffhelp.Flags(fs))
		return fmt.Errorf("parsing flags: %w", err)
	}
	if *rateLimit < 1 {
		return errors.New("rate-limit must be at least 1")
	}

	log := logger.New()

	t := tables.Hepburn()
	if *tablesPath != "" {
		var err error
		if t, err = tables.Load(*tablesPath); err != nil {
			return err
		}
	}
	if err := t.Validate(); err != nil {
		log.Warn("tables are inconsistent, some substitutions will be no-ops", "error", err)
	}
	conv := romanji.New(t)

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	var repo db.Repository
	if *databaseURL != "" {
		var err error
		repo, err = dbconn.Open(ctx, *databaseURL)
		if err != nil {
			return err
		}
		defer repo.Close()
		log.InfoContext(ctx, "connected to cache database", "sqlite", dbconn.IsSQLite(*databaseURL))

		go runMaintenance(ctx, repo, *retention, log)
	} else {
		log.InfoContext(ctx, "no database-url set, caching disabled")
	}

	router := web.NewRouter(conv, repo, log, middleware.NewRateLimiter(ctx, int(*rateLimit), time.Minute))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.InfoContext(ctx, "received signal, shutting down gracefully", "signal", sig)
		cancel(errors.New("signal received"))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.ErrorContext(ctx, "server shutdown error", "error", err)
		}
	}()

	log.InfoContext(ctx, "starting web server", "port", *port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// runMaintenance prunes old cache entries hourly and exports pool stats for
// PostgreSQL repositories.
func runMaintenance(ctx context.Context, repo db.Repository, retention time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	lastPrune := time.Time{}
	for {
		select {
		case <-ticker.C:
			if pg, ok := repo.(*postgres.Repository); ok {
				s := pg.PoolStats()
				metrics.DBPoolTotalConns.Set(float64(s.TotalConns()))
				metrics.DBPoolIdleConns.Set(float64(s.IdleConns()))
				metrics.DBPoolAcquiredConns.Set(float64(s.AcquiredConns()))
			}

			if time.Since(lastPrune) < time.Hour {
				continue
			}
			lastPrune = time.Now()
			deleted, err := repo.DeleteOldRomanizations(ctx, time.Now().Add(-retention))
			if err != nil {
				log.ErrorContext(ctx, "pruning romanization cache", "error", err)
				continue
			}
			log.InfoContext(ctx, "pruned romanization cache", "deleted", deleted)
		case <-ctx.Done():
			return
		}
	}
}
