// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/easyflix/internal/models"
)

func newTestQueue(t *testing.T, size int) *Queue {
	t.Helper()
	q, err := NewQueue(size, nil)
	if err != nil {
		t.Fatalf("NewQueue() error = %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestQueueBounded(t *testing.T) {
	q := newTestQueue(t, 2)
	ctx := context.Background()

	if !q.enqueue(ctx, TriggerQueue, "a") || !q.enqueue(ctx, TriggerQueue, "b") {
		t.Fatal("enqueue within capacity failed")
	}
	if q.enqueue(ctx, TriggerQueue, "c") {
		t.Error("enqueue beyond capacity succeeded")
	}
	if q.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", q.Pending())
	}

	msg := <-q.Messages()
	if triggerOf(msg) != TriggerQueue || string(msg.Payload) != "a" {
		t.Errorf("message = %s %q", triggerOf(msg), msg.Payload)
	}
	q.Done(msg)
	if q.Pending() != 1 {
		t.Errorf("Pending() after Done = %d, want 1", q.Pending())
	}

	if err := q.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if q.enqueue(ctx, TriggerQueue, "d") {
		t.Error("enqueue after Close succeeded")
	}
}

func TestWorkerRunsQueuedRecompute(t *testing.T) {
	store := &fakeStore{inputs: &models.AggregationInputs{}}
	q := newTestQueue(t, 8)
	w, err := NewWorker(NewEngine(store), q, WorkerConfig{Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewWorker() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	for i := 0; i < 5; i++ {
		q.Notify(ctx, "acquire_title")
	}
	waitFor(t, "a recompute", func() bool { return store.saveCount() >= 1 })
	waitFor(t, "queue drained", func() bool { return q.Pending() == 0 })

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	if n := store.saveCount(); n < 1 || n > 5 {
		t.Errorf("saves = %d, want between 1 and 5", n)
	}
}

func TestWorkerStopsWhenQueueCloses(t *testing.T) {
	q := newTestQueue(t, 1)
	w, err := NewWorker(NewEngine(&fakeStore{inputs: &models.AggregationInputs{}}), q, WorkerConfig{})
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	_ = q.Close()
	select {
	case err := <-done:
		if !errors.Is(err, ErrQueueClosed) {
			t.Errorf("Run() = %v, want ErrQueueClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after Close")
	}
}

func TestWorkerBreakerOpens(t *testing.T) {
	store := &fakeStore{loadErr: errors.New("store down")}
	q := newTestQueue(t, 1)
	w, err := NewWorker(NewEngine(store), q, WorkerConfig{
		BreakerFailureThreshold: 2,
		BreakerTimeout:          time.Hour,
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	w.runOnce(ctx, TriggerQueue, "a")
	w.runOnce(ctx, TriggerQueue, "b")
	if w.BreakerState() != gobreaker.StateOpen {
		t.Fatalf("breaker state = %s, want open", w.BreakerState())
	}

	store.mu.Lock()
	store.loadErr = nil
	store.inputs = &models.AggregationInputs{}
	store.mu.Unlock()

	w.runOnce(ctx, TriggerQueue, "c")
	if store.saveCount() != 0 {
		t.Error("open breaker let a recompute through")
	}
}

func TestNewWorkerRejectsBadSchedule(t *testing.T) {
	q := newTestQueue(t, 1)
	if _, err := NewWorker(NewEngine(&fakeStore{}), q, WorkerConfig{Schedule: "every tuesday"}); err == nil {
		t.Error("expected invalid schedule error")
	}
	if _, err := NewWorker(NewEngine(&fakeStore{}), q, WorkerConfig{Schedule: "*/5 * * * *"}); err != nil {
		t.Errorf("valid schedule rejected: %v", err)
	}
}
