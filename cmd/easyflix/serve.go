// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/easyflix/internal/aggregate"
	"github.com/tomtom215/easyflix/internal/api"
	"github.com/tomtom215/easyflix/internal/config"
	"github.com/tomtom215/easyflix/internal/dispatch"
	"github.com/tomtom215/easyflix/internal/logging"
	"github.com/tomtom215/easyflix/internal/supervisor"
	"github.com/tomtom215/easyflix/internal/supervisor/services"
)

// snapshotPipeline is the trigger handed to the dispatcher plus the
// background pieces that back it, if any.
type snapshotPipeline struct {
	trigger aggregate.Trigger
	queue   *aggregate.Queue
	worker  *aggregate.Worker
}

func (p *snapshotPipeline) close() {
	if p.queue == nil {
		return
	}
	if err := p.queue.Close(); err != nil {
		logging.Warn().Err(err).Msg("Error closing snapshot queue")
	}
}

// newSnapshotPipeline picks the trigger for cfg.Mode. A worker is started
// for async mode, and for sync mode when a cron schedule is configured.
func newSnapshotPipeline(cfg config.AggregationConfig, engine *aggregate.Engine) (*snapshotPipeline, error) {
	p := &snapshotPipeline{trigger: aggregate.NopTrigger{}}

	switch cfg.Mode {
	case config.AggregationModeOff:
		return p, nil
	case config.AggregationModeSync:
		p.trigger = aggregate.NewSyncTrigger(engine, cfg.Timeout)
		if cfg.Schedule == "" {
			return p, nil
		}
	}

	queue, err := aggregate.NewQueue(cfg.QueueSize, watermill.NewSlogLogger(logging.NewSlogLogger("snapshot-queue")))
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot queue: %w", err)
	}
	worker, err := aggregate.NewWorker(engine, queue, aggregate.WorkerConfig{
		MinInterval:             cfg.MinInterval,
		Schedule:                cfg.Schedule,
		Location:                cfg.Location(),
		Timeout:                 cfg.Timeout,
		BreakerFailureThreshold: cfg.BreakerFailureThreshold,
		BreakerTimeout:          cfg.BreakerTimeout,
	})
	if err != nil {
		_ = queue.Close()
		return nil, err
	}

	p.queue, p.worker = queue, worker
	if cfg.Mode == config.AggregationModeAsync {
		p.trigger = queue
	}
	return p, nil
}

func runServe(args []string, stderr io.Writer) error {
	fs := newFlagSet("serve", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(stderr)
	if err != nil {
		return err
	}

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("aggregation_mode", cfg.Aggregation.Mode).
		Bool("transport_enabled", cfg.Transport.Enabled).
		Msg("Starting EasyFlix")

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin; set CORS_ORIGINS for production")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openDatabase(ctx, cfg, cfg.Database.SeedCatalog)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	engine := aggregate.NewEngine(db, aggregate.WithLocation(cfg.Aggregation.Location()))
	pipeline, err := newSnapshotPipeline(cfg.Aggregation, engine)
	if err != nil {
		return err
	}
	defer pipeline.close()

	opts := []dispatch.Option{
		dispatch.WithRecomputer(engine),
		dispatch.WithTrigger(pipeline.trigger),
		dispatch.WithSecurityLogger(logging.NewSecurityLogger()),
	}
	if cfg.Transport.Enabled {
		codec, err := newTransportCodec(cfg)
		if err != nil {
			return err
		}
		opts = append(opts, dispatch.WithCodec(codec))
	}
	dispatcher := dispatch.New(db, opts...)

	router := api.NewRouter(dispatcher, db, &cfg.Server)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
		return fmt.Errorf("failed to create supervisor tree: %w", err)
	}

	if cfg.Database.CheckpointInterval > 0 {
		tree.AddDataService(services.NewCheckpointService(db, cfg.Database.CheckpointInterval))
	}
	if pipeline.worker != nil {
		tree.AddAggregationService(services.NewSnapshotWorkerService(pipeline.worker))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	errCh := tree.ServeBackground(ctx)

	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
			treeErr = err
		}
		cancel()
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Unstopped service")
		}
	}

	logging.Info().Msg("EasyFlix stopped")
	return treeErr
}
