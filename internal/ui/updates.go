package ui

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/vibes-presale/internal/events"
)

// relayedEvents are the bus events the dashboard reacts to.
var relayedEvents = []events.EventType{
	events.TransactionStageChanged,
	events.WalletConnected,
	events.WalletDisconnected,
	events.AccountChanged,
	events.OperationCompleted,
	events.OperationFailed,
}

// Relay moves bus events into the Bubble Tea message channel. Send never
// blocks: when the dashboard lags, messages are counted and dropped.
type Relay struct {
	out     chan<- tea.Msg
	sent    atomic.Uint64
	dropped atomic.Uint64
	logger  *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRelay starts a relay writing into out. A positive reportEvery logs the
// drop rate periodically while anything is being dropped.
func NewRelay(out chan<- tea.Msg, logger *zap.Logger, reportEvery time.Duration) *Relay {
	r := &Relay{out: out, logger: logger, stop: make(chan struct{})}
	if reportEvery > 0 {
		go r.report(reportEvery)
	}
	return r
}

// Send offers msg to the dashboard.
func (r *Relay) Send(msg tea.Msg) {
	select {
	case r.out <- msg:
		r.sent.Add(1)
	default:
		r.dropped.Add(1)
	}
}

// Counts returns how many messages were delivered and dropped so far.
func (r *Relay) Counts() (sent, dropped uint64) {
	return r.sent.Load(), r.dropped.Load()
}

func (r *Relay) report(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	var lastDropped uint64
	for {
		select {
		case <-ticker.C:
			sent, dropped := r.Counts()
			if dropped == lastDropped {
				continue
			}
			lastDropped = dropped
			r.logger.Warn("Dashboard is lagging behind events",
				zap.Uint64("sent", sent),
				zap.Uint64("dropped", dropped),
				zap.Float64("drop_rate", float64(dropped)/float64(sent+dropped)*100))
		case <-r.stop:
			return
		}
	}
}

// Close stops the drop-rate reporter.
func (r *Relay) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Attach subscribes the relay to the bus. The returned func detaches it.
func (r *Relay) Attach(bus *events.Bus) func() {
	sub := bus.Subscribe(func(_ context.Context, ev events.Event) error {
		if msg := toMsg(ev); msg != nil {
			r.Send(msg)
		}
		return nil
	}, relayedEvents...)
	return sub.Unsubscribe
}

// toMsg maps a bus event to the dashboard message it triggers.
func toMsg(ev events.Event) tea.Msg {
	switch e := ev.(type) {
	case events.TransactionStageEvent:
		return StageMsg{Method: e.Method, Stage: e.Stage, Signature: e.Signature}
	case events.OperationFailedEvent:
		return FeedChangedMsg{}
	case events.WalletEvent, events.OperationCompletedEvent:
		return RefreshMsg{}
	}
	return nil
}

// ListenUpdates waits for the next relayed message.
func ListenUpdates(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}
