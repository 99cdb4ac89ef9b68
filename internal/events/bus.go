// Package events publishes terminal-state execution transitions for
// downstream collaborators (notifications, dashboards, the backfill
// orchestrator's status aggregation).
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	redis "github.com/go-redis/redis/v8"
	"github.com/google/wire"
	"github.com/reports/engine/internal/biz/execution"
	"go.uber.org/zap"
)

var Provider = wire.NewSet(NewBus, wire.Bind(new(Publisher), new(*Bus)))

const redisChannel = "reports-engine:execution-events"

// ExecutionEvent is emitted once per terminal transition.
type ExecutionEvent struct {
	ExecutionID uint64           `json:"execution_id"`
	Status      execution.Status `json:"status"`
	Timestamp   int64            `json:"ts"`
}

type Publisher interface {
	PublishTerminal(ctx context.Context, executionID uint64, status execution.Status)
}

// Bus fans events out to in-process subscribers and, when a Redis
// client is configured, to the pub/sub channel for external consumers.
// A nil client degrades to in-process delivery only.
type Bus struct {
	rdb    *redis.Client
	logger *zap.Logger

	mu   sync.RWMutex
	subs []func(ExecutionEvent)
}

func NewBus(rdb *redis.Client, logger *zap.Logger) *Bus {
	return &Bus{rdb: rdb, logger: logger}
}

// Subscribe registers an in-process handler. Handlers run on the
// publisher's goroutine and must not block.
func (b *Bus) Subscribe(fn func(ExecutionEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

func (b *Bus) PublishTerminal(ctx context.Context, executionID uint64, status execution.Status) {
	ev := ExecutionEvent{
		ExecutionID: executionID,
		Status:      status,
		Timestamp:   time.Now().UnixMilli(),
	}

	b.mu.RLock()
	subs := append(make([]func(ExecutionEvent), 0, len(b.subs)), b.subs...)
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}

	if b.rdb == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("failed to marshal execution event", zap.Error(err))
		return
	}
	if err := b.rdb.Publish(ctx, redisChannel, payload).Err(); err != nil {
		b.logger.Warn("failed to publish execution event",
			zap.Uint64("execution_id", ev.ExecutionID),
			zap.Error(err))
	}
}
