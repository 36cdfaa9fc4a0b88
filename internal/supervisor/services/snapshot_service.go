// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/easyflix/internal/aggregate"
)

// SnapshotRunner is satisfied by *aggregate.Worker.
type SnapshotRunner interface {
	Run(ctx context.Context) error
}

// SnapshotWorkerService supervises the asynchronous snapshot worker.
//
// A closed queue means the process is shutting down, so the service asks
// suture not to restart it. Any other failure is returned and restarted
// with backoff.
type SnapshotWorkerService struct {
	worker SnapshotRunner
	name   string
}

// NewSnapshotWorkerService wraps worker.
func NewSnapshotWorkerService(worker SnapshotRunner) *SnapshotWorkerService {
	return &SnapshotWorkerService{worker: worker, name: "snapshot-worker"}
}

// Serve implements suture.Service.
func (s *SnapshotWorkerService) Serve(ctx context.Context) error {
	err := s.worker.Run(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, aggregate.ErrQueueClosed):
		return suture.ErrDoNotRestart
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return fmt.Errorf("snapshot worker failed: %w", err)
	}
}

// String names the service in supervisor events.
func (s *SnapshotWorkerService) String() string {
	return s.name
}
