// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package aggregate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/robfig/cron/v3"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/easyflix/internal/logging"
	"github.com/tomtom215/easyflix/internal/metrics"
	"github.com/tomtom215/easyflix/internal/models"
)

// WorkerConfig configures the background recompute worker.
type WorkerConfig struct {
	// MinInterval is the shortest gap between two recomputes. Requests that
	// arrive inside the gap are folded into the next run.
	MinInterval time.Duration

	// Schedule is an optional standard cron expression for periodic runs.
	Schedule string

	// Location interprets Schedule.
	Location *time.Location

	// Timeout bounds one recompute.
	Timeout time.Duration

	// BreakerFailureThreshold consecutive failures open the breaker for
	// BreakerTimeout.
	BreakerFailureThreshold uint32
	BreakerTimeout          time.Duration
}

// Worker consumes the queue and runs recomputes one at a time.
type Worker struct {
	engine  *Engine
	queue   *Queue
	cfg     WorkerConfig
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*models.SnapshotResult]
}

// NewWorker creates a Worker. The cron expression is checked here so a bad
// schedule fails at startup rather than inside the supervisor.
func NewWorker(engine *Engine, queue *Queue, cfg WorkerConfig) (*Worker, error) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.BreakerFailureThreshold == 0 {
		cfg.BreakerFailureThreshold = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = time.Minute
	}
	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			return nil, fmt.Errorf("invalid snapshot schedule %q: %w", cfg.Schedule, err)
		}
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	threshold := cfg.BreakerFailureThreshold
	breaker := gobreaker.NewCircuitBreaker[*models.SnapshotResult](gobreaker.Settings{
		Name:        "snapshot",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SnapshotBreakerState.Set(breakerStateValue(to))
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Snapshot circuit breaker state changed")
		},
	})

	return &Worker{
		engine:  engine,
		queue:   queue,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		breaker: breaker,
	}, nil
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// BreakerState reports the circuit breaker state.
func (w *Worker) BreakerState() gobreaker.State {
	return w.breaker.State()
}

// Run consumes recompute requests until ctx is canceled or the queue is
// closed, in which case it returns ErrQueueClosed.
func (w *Worker) Run(ctx context.Context) error {
	if w.cfg.Schedule != "" {
		c := cron.New(cron.WithLocation(w.cfg.Location))
		if _, err := c.AddFunc(w.cfg.Schedule, func() {
			w.queue.enqueue(ctx, TriggerSchedule, "schedule")
		}); err != nil {
			return fmt.Errorf("failed to schedule snapshots: %w", err)
		}
		c.Start()
		defer func() {
			<-c.Stop().Done()
		}()
	}

	messages := w.queue.Messages()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return ErrQueueClosed
			}
			trigger := triggerOf(msg)
			reason := string(msg.Payload)
			w.queue.Done(msg)

			if err := w.limiter.Wait(ctx); err != nil {
				return ctx.Err()
			}
			if w.coalesce(messages) > 0 && trigger != TriggerSchedule {
				reason = "coalesced"
			}
			w.runOnce(ctx, trigger, reason)
		}
	}
}

// coalesce acknowledges every request already waiting; one recompute covers
// them all.
func (w *Worker) coalesce(messages <-chan *message.Message) int {
	n := 0
	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				return n
			}
			w.queue.Done(msg)
			metrics.SnapshotQueueCoalesced.Inc()
			n++
		default:
			return n
		}
	}
}

// runOnce recomputes through the breaker. An open breaker skips the run.
func (w *Worker) runOnce(ctx context.Context, trigger, reason string) {
	runCtx := ctx
	if w.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, w.cfg.Timeout)
		defer cancel()
	}

	_, err := w.breaker.Execute(func() (*models.SnapshotResult, error) {
		return w.engine.Run(runCtx, trigger, reason)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.RecordSnapshotRejected(trigger)
		logging.Debug().Str("trigger", trigger).Msg("Snapshot skipped, circuit breaker open")
	}
}
