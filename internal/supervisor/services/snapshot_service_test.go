// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/easyflix/internal/aggregate"
)

type fakeRunner struct {
	runs atomic.Int32
	run  func(ctx context.Context, n int32) error
}

func (f *fakeRunner) Run(ctx context.Context) error {
	return f.run(ctx, f.runs.Add(1))
}

func TestSnapshotWorkerServiceServe(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name   string
		err    error
		cancel bool
		check  func(error) bool
	}{
		{"queue closed", fmt.Errorf("drain: %w", aggregate.ErrQueueClosed), false,
			func(err error) bool { return errors.Is(err, suture.ErrDoNotRestart) }},
		{"failure", boom, false,
			func(err error) bool { return errors.Is(err, boom) }},
		{"canceled", context.Canceled, true,
			func(err error) bool { return errors.Is(err, context.Canceled) }},
		{"clean exit", nil, false,
			func(err error) bool { return err == nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancel {
				cancel()
			}
			svc := NewSnapshotWorkerService(&fakeRunner{run: func(context.Context, int32) error { return tt.err }})
			if err := svc.Serve(ctx); !tt.check(err) {
				t.Errorf("Serve() = %v", err)
			}
		})
	}
}

func TestSnapshotWorkerServiceRestarts(t *testing.T) {
	runner := &fakeRunner{run: func(ctx context.Context, n int32) error {
		if n < 3 {
			return errors.New("transient")
		}
		<-ctx.Done()
		return ctx.Err()
	}}

	sup := suture.New("test-sup", suture.Spec{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          time.Second,
	})
	sup.Add(NewSnapshotWorkerService(runner))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for runner.runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-errCh

	if got := runner.runs.Load(); got < 3 {
		t.Errorf("runs = %d, want at least 3", got)
	}
}
