package events

import (
	"context"
	"testing"

	"github.com/reports/engine/internal/biz/execution"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus(nil, zap.NewNop())

	var first, second []ExecutionEvent
	bus.Subscribe(func(ev ExecutionEvent) { first = append(first, ev) })
	bus.Subscribe(func(ev ExecutionEvent) { second = append(second, ev) })

	bus.PublishTerminal(context.Background(), 42, execution.StatusCompleted)
	bus.PublishTerminal(context.Background(), 43, execution.StatusFailed)

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	assert.Equal(t, uint64(42), first[0].ExecutionID)
	assert.Equal(t, execution.StatusCompleted, first[0].Status)
	assert.Equal(t, execution.StatusFailed, second[1].Status)
	assert.NotZero(t, first[0].Timestamp)
}

func TestBusWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewBus(nil, zap.NewNop())
	// no redis, no subscribers; publishing must not panic
	bus.PublishTerminal(context.Background(), 1, execution.StatusCancelled)
}
