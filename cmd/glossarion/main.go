// Command glossarion runs the glossary HTTP service: catalog reads plus the
// bulk ingestion pipeline.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/glossarion/glossarion/internal/api"
	"github.com/glossarion/glossarion/internal/config"
	"github.com/glossarion/glossarion/internal/db"
	"github.com/glossarion/glossarion/internal/db/migrations"
	"github.com/glossarion/glossarion/internal/dbpool"
	"github.com/glossarion/glossarion/internal/enrich"
	"github.com/glossarion/glossarion/internal/parser"
	"github.com/glossarion/glossarion/internal/pipeline"
	"github.com/glossarion/glossarion/internal/store"
)

// version is stamped at build time via -ldflags.
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := run(log); err != nil {
		log.WithError(err).Fatal("Service exited with error")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return err
	}

	base := store.Base{Pool: pool, Log: log}
	terms := store.NewTermStore(base)
	categories := store.NewCategoryStore(base)
	sections := store.NewSectionStore(base)
	checkpoints := store.NewCheckpointStore(base)
	runs := store.NewRunStore(base)

	var enricher parser.Enricher
	if cfg.EnrichURL != "" {
		enricher = enrich.New(cfg.EnrichURL, cfg.EnrichAPIKey.Value(),
			time.Duration(cfg.EnrichTimeoutSec)*time.Second)
	}

	runner := pipeline.NewRunner(&pipeline.Coordinator{
		Tx:          &base,
		Terms:       terms,
		Categories:  categories,
		Sections:    sections,
		Checkpoints: checkpoints,
		Runs:        runs,
		Enricher:    enricher,
		Log:         log,
		BatchSize:   cfg.ImportBatchSize,
	})

	router := api.NewRouter(&api.RouterDeps{
		Log:         log,
		Pool:        pool,
		Terms:       terms,
		Categories:  categories,
		Runner:      runner,
		Checkpoints: checkpoints,
		CORSOrigins: cfg.CORSOrigins,
		Version:     version,
		ImportDir:   cfg.ImportDir,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.WithFields(logrus.Fields{
			"addr":    cfg.Addr(),
			"version": version,
		}).Info("Glossarion listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return nil
}
