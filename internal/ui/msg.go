package ui

import (
	"time"

	"github.com/rovshanmuradov/vibes-presale/internal/oracle"
	"github.com/rovshanmuradov/vibes-presale/internal/state"
)

// SnapshotMsg carries a freshly loaded account snapshot.
type SnapshotMsg struct {
	Snapshot *state.Snapshot
	Err      error
}

// PriceMsg carries a SOL/USD quote.
type PriceMsg struct {
	Price oracle.Price
	Err   error
}

// StageMsg mirrors one transition of the transaction in flight.
type StageMsg struct {
	Method    string
	Stage     string
	Signature string
}

// RefreshMsg asks the dashboard to reload state, e.g. after a wallet change.
type RefreshMsg struct{}

// FeedChangedMsg means new notifications are available.
type FeedChangedMsg struct{}

type tickMsg time.Time
