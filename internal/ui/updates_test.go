package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/vibes-presale/internal/events"
)

func TestRelayNeverBlocks(t *testing.T) {
	out := make(chan tea.Msg, 10)
	relay := NewRelay(out, zap.NewNop(), 0)
	defer relay.Close()

	for i := 0; i < 10; i++ {
		relay.Send(FeedChangedMsg{})
	}

	start := time.Now()
	for i := 0; i < 100; i++ {
		relay.Send(FeedChangedMsg{})
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	sent, dropped := relay.Counts()
	assert.Equal(t, uint64(10), sent)
	assert.Equal(t, uint64(100), dropped)
}

func TestRelayConcurrentSend(t *testing.T) {
	out := make(chan tea.Msg, 100)
	relay := NewRelay(out, zap.NewNop(), time.Hour)
	defer relay.Close()

	const workers, perWorker = 10, 100
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				relay.Send(RefreshMsg{})
			}
		}()
	}
	wg.Wait()

	sent, dropped := relay.Counts()
	assert.Equal(t, uint64(workers*perWorker), sent+dropped)
	assert.Equal(t, uint64(100), sent)
}

func TestRelayAttach(t *testing.T) {
	bus := events.NewBus(zap.NewNop(), 16)
	defer func() { _ = bus.Shutdown(context.Background()) }()
	out := make(chan tea.Msg, 16)
	relay := NewRelay(out, zap.NewNop(), 0)
	defer relay.Close()

	detach := relay.Attach(bus)

	ctx := context.Background()
	_ = bus.PublishSync(ctx, events.TransactionStageEvent{
		BaseEvent: events.NewBase(events.TransactionStageChanged),
		Method:    "buy_with_sol_v3",
		Stage:     "confirming",
	})
	_ = bus.PublishSync(ctx, events.WalletEvent{BaseEvent: events.NewBase(events.WalletConnected)})
	_ = bus.PublishSync(ctx, events.OperationFailedEvent{BaseEvent: events.NewBase(events.OperationFailed)})
	_ = bus.PublishSync(ctx, events.PriceUpdatedEvent{BaseEvent: events.NewBase(events.PriceUpdated)})

	assert.Equal(t, StageMsg{Method: "buy_with_sol_v3", Stage: "confirming"}, <-out)
	assert.Equal(t, RefreshMsg{}, <-out)
	assert.Equal(t, FeedChangedMsg{}, <-out)
	assert.Empty(t, out, "price updates are not relayed")

	detach()
	_ = bus.PublishSync(ctx, events.WalletEvent{BaseEvent: events.NewBase(events.WalletDisconnected)})
	assert.Empty(t, out)
}
