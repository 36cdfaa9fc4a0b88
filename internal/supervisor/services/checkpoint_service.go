// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package services

import (
	"context"
	"time"

	"github.com/tomtom215/easyflix/internal/logging"
)

// Checkpointer is satisfied by *database.DB.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// CheckpointService flushes the DuckDB write-ahead log on a fixed interval
// so a crash replays at most one interval of writes.
type CheckpointService struct {
	db       Checkpointer
	interval time.Duration
	timeout  time.Duration
	name     string
}

// NewCheckpointService creates the service. interval must be positive.
func NewCheckpointService(db Checkpointer, interval time.Duration) *CheckpointService {
	timeout := interval / 2
	if timeout > 30*time.Second {
		timeout = 30 * time.Second
	}
	return &CheckpointService{
		db:       db,
		interval: interval,
		timeout:  timeout,
		name:     "db-checkpoint",
	}
}

// Serve implements suture.Service. Checkpoint failures are logged and the
// loop continues; only cancellation ends it.
func (s *CheckpointService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger := logging.WithComponent(s.name)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			start := time.Now()
			err := s.db.Checkpoint(cctx)
			cancel()
			if err != nil {
				logger.Warn().Err(err).Msg("Checkpoint failed")
				continue
			}
			logger.Debug().Dur("duration", time.Since(start)).Msg("Checkpoint complete")
		}
	}
}

// String names the service in supervisor events.
func (s *CheckpointService) String() string {
	return s.name
}
