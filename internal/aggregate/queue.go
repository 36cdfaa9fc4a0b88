// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/easyflix/internal/logging"
	"github.com/tomtom215/easyflix/internal/metrics"
)

// TopicRecompute carries snapshot recompute requests.
const TopicRecompute = "snapshot.recompute"

// Message metadata keys.
const (
	metadataTrigger       = "trigger"
	metadataCorrelationID = "correlation_id"
)

// ErrQueueClosed is returned by Messages consumers once Close has run.
var ErrQueueClosed = errors.New("snapshot queue closed")

// Queue is a bounded in-process queue of recompute requests on a watermill
// gochannel. At most size requests wait at once; further notifications are
// dropped and counted, since a waiting request already covers them.
type Queue struct {
	pubsub   *gochannel.GoChannel
	messages <-chan *message.Message
	cancel   context.CancelFunc

	size    int64
	pending atomic.Int64
	closed  atomic.Bool
}

// NewQueue creates a queue holding up to size requests. The subscription is
// opened immediately so nothing published before the worker starts is lost.
func NewQueue(size int, logger watermill.LoggerAdapter) (*Queue, error) {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: int64(size),
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	messages, err := pubsub.Subscribe(ctx, TopicRecompute)
	if err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", TopicRecompute, err)
	}

	return &Queue{
		pubsub:   pubsub,
		messages: messages,
		cancel:   cancel,
		size:     int64(size),
	}, nil
}

// Notify implements Trigger.
func (q *Queue) Notify(ctx context.Context, reason string) {
	q.enqueue(ctx, TriggerQueue, reason)
}

// enqueue publishes a request unless the queue is full or closed.
func (q *Queue) enqueue(ctx context.Context, trigger, reason string) bool {
	if q.closed.Load() {
		metrics.SnapshotQueueDropped.Inc()
		return false
	}
	if q.pending.Add(1) > q.size {
		q.pending.Add(-1)
		metrics.SnapshotQueueDropped.Inc()
		logging.Debug().Str("reason", reason).Msg("Snapshot queue full, dropping trigger")
		return false
	}

	msg := message.NewMessage(watermill.NewUUID(), []byte(reason))
	msg.Metadata.Set(metadataTrigger, trigger)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(metadataCorrelationID, id)
	}

	if err := q.pubsub.Publish(TopicRecompute, msg); err != nil {
		q.pending.Add(-1)
		metrics.SnapshotQueueDropped.Inc()
		logging.Warn().Err(err).Str("reason", reason).Msg("Failed to publish snapshot trigger")
		return false
	}
	return true
}

// Messages is the consumer side of the queue. Every received message must be
// passed to Done.
func (q *Queue) Messages() <-chan *message.Message {
	return q.messages
}

// Done acknowledges a consumed message and frees its slot.
func (q *Queue) Done(msg *message.Message) {
	msg.Ack()
	q.pending.Add(-1)
}

// Pending is the number of requests published but not yet consumed.
func (q *Queue) Pending() int64 {
	return q.pending.Load()
}

// Close stops accepting requests and closes the message channel.
func (q *Queue) Close() error {
	if !q.closed.CompareAndSwap(false, true) {
		return nil
	}
	q.cancel()
	return q.pubsub.Close()
}

// triggerOf returns the trigger label carried by msg.
func triggerOf(msg *message.Message) string {
	if t := msg.Metadata.Get(metadataTrigger); t != "" {
		return t
	}
	return TriggerQueue
}
