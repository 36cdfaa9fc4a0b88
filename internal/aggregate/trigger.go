// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package aggregate

import (
	"context"
	"time"

	"github.com/tomtom215/easyflix/internal/logging"
	"github.com/tomtom215/easyflix/internal/metrics"
	"github.com/tomtom215/easyflix/internal/models"
)

// Trigger labels used in logs and the snapshot metrics.
const (
	TriggerCommand  = "command"
	TriggerManual   = "manual"
	TriggerQueue    = "queue"
	TriggerSchedule = "schedule"
)

// Trigger is notified after a successful mutation. reason names the command.
type Trigger interface {
	Notify(ctx context.Context, reason string)
}

// NopTrigger ignores notifications.
type NopTrigger struct{}

// Notify implements Trigger.
func (NopTrigger) Notify(context.Context, string) {}

// SyncTrigger recomputes inline before the command returns.
type SyncTrigger struct {
	engine  *Engine
	timeout time.Duration
}

// NewSyncTrigger creates a SyncTrigger. A zero timeout means no deadline.
func NewSyncTrigger(engine *Engine, timeout time.Duration) *SyncTrigger {
	return &SyncTrigger{engine: engine, timeout: timeout}
}

// Notify implements Trigger. Failures are logged and counted only.
func (t *SyncTrigger) Notify(ctx context.Context, reason string) {
	ctx = context.WithoutCancel(ctx)
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	_, _ = t.engine.Run(ctx, TriggerCommand, reason)
}

// Run recomputes and records the outcome under trigger.
func (e *Engine) Run(ctx context.Context, trigger, reason string) (*models.SnapshotResult, error) {
	start := time.Now()
	result, err := e.Recompute(ctx)
	elapsed := time.Since(start)

	favourites := 0
	if result != nil {
		favourites = result.FavouritesUpdated
	}
	metrics.RecordSnapshot(trigger, elapsed, favourites, err)

	logger := logging.Ctx(ctx)
	if err != nil {
		logger.Error().Err(err).
			Str("trigger", trigger).
			Str("reason", reason).
			Msg("Snapshot recompute failed")
		return nil, err
	}
	logger.Debug().
		Str("trigger", trigger).
		Str("reason", reason).
		Str("date", result.Statistics.Date.String()).
		Int("favourites_updated", favourites).
		Dur("duration", elapsed).
		Msg("Snapshot recomputed")
	return result, nil
}
