// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeCheckpointer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeCheckpointer) Checkpoint(ctx context.Context) error {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("checkpoint without deadline")
	}
	return f.err
}

func TestCheckpointServiceRunsPeriodically(t *testing.T) {
	for _, failing := range []bool{false, true} {
		db := &fakeCheckpointer{}
		if failing {
			db.err = errors.New("disk full")
		}
		svc := NewCheckpointService(db, 10*time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		deadline := time.Now().Add(2 * time.Second)
		for db.calls.Load() < 3 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		cancel()

		if err := <-errCh; !errors.Is(err, context.Canceled) {
			t.Errorf("failing=%v: Serve() = %v, want context.Canceled", failing, err)
		}
		if db.calls.Load() < 3 {
			t.Errorf("failing=%v: calls = %d, want at least 3", failing, db.calls.Load())
		}
	}
}

func TestCheckpointServiceTimeoutCap(t *testing.T) {
	if got := NewCheckpointService(&fakeCheckpointer{}, time.Hour).timeout; got != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", got)
	}
	if got := NewCheckpointService(&fakeCheckpointer{}, 10*time.Second).timeout; got != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", got)
	}
}
