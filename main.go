package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/marcella-castro/check-pesquisa-mj/internal/config"
	"github.com/marcella-castro/check-pesquisa-mj/internal/db"
	"github.com/marcella-castro/check-pesquisa-mj/internal/handler"
	"github.com/marcella-castro/check-pesquisa-mj/internal/limesurvey"
	"github.com/marcella-castro/check-pesquisa-mj/internal/logging"
	"github.com/marcella-castro/check-pesquisa-mj/internal/metrics"
	"github.com/marcella-castro/check-pesquisa-mj/internal/repository"
	"github.com/marcella-castro/check-pesquisa-mj/internal/router"
	"github.com/marcella-castro/check-pesquisa-mj/internal/service"
	"github.com/marcella-castro/check-pesquisa-mj/internal/snapshot"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	_, flush := logging.New(logging.Options{Development: cfg.Development(), GelfAddr: cfg.GelfAddr})
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := metrics.New(prometheus.DefaultRegisterer)

	// Survey platform
	lime := limesurvey.New(limesurvey.Options{
		URL:         cfg.LimeURL,
		Username:    cfg.LimeUser,
		Password:    cfg.LimePassword,
		Surveys:     cfg.SurveyIDs,
		Concurrency: cfg.DownloadConcurrency,
		Retries:     5,
	})
	if cfg.LimeURL == "" {
		zap.S().Warnw("LIME_API_URL is not set, refreshes will fail")
	}

	opts := snapshot.Options{TTL: cfg.CacheTTL, Interval: cfg.RefreshInterval, Observer: rec}

	// Optional snapshot persistence in OxiDB
	var store router.Pinger
	if cfg.PersistSnapshots {
		pool, err := db.NewPool(ctx, cfg.OxiDBAddr(), cfg.PoolSize)
		if err != nil {
			zap.S().Fatalw("Failed to connect to OxiDB", "addr", cfg.OxiDBAddr(), "error", err)
		}
		defer pool.Close()
		zap.S().Infow("Connected to OxiDB", "addr", cfg.OxiDBAddr(), "poolSize", cfg.PoolSize)

		repo := repository.NewSnapshotRepo(pool)
		if err := repo.EnsureIndexes(ctx); err != nil {
			zap.S().Warnw("Snapshot index creation failed", "error", err)
		}
		opts.Store = repo
		store = pool
	}

	snaps := snapshot.New(lime, opts)

	// Services and handlers
	searchSvc := service.NewSearchService(snaps, rec)
	validationH, err := handler.NewValidationHandler(searchSvc)
	if err != nil {
		zap.S().Fatalw("Failed to build validation handler", "error", err)
	}

	r := router.New(
		validationH,
		handler.NewCacheHandler(snaps),
		handler.NewSurveyHandler(lime),
		router.NewHealth(snaps, store),
		promhttp.Handler(),
	)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snaps.Run(gctx)
		return nil
	})
	g.Go(func() error {
		zap.S().Infow("check-pesquisa-mj starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zap.S().Errorw("Server stopped with error", "error", err)
		return
	}
	zap.S().Infow("Server stopped")
}
