// internal/events/types.go
package events

import (
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Wallet events
	WalletConnected    EventType = "wallet.connected"
	WalletDisconnected EventType = "wallet.disconnected"
	AccountChanged     EventType = "wallet.account_changed"

	// Operation events
	OperationStarted   EventType = "operation.started"
	OperationCompleted EventType = "operation.completed"
	OperationFailed    EventType = "operation.failed"

	// TransactionStageChanged fires on every orchestrator transition.
	TransactionStageChanged EventType = "transaction.stage"

	// Price events
	PriceUpdated EventType = "price.updated"

	// SnapshotRefreshed fires after the presale/buyer state is re-read.
	SnapshotRefreshed EventType = "state.refreshed"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// NewBase stamps an event of type t with the current time.
func NewBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, EventTime: time.Now()}
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// WalletEvent covers connect, disconnect and account switches.
type WalletEvent struct {
	BaseEvent
	WalletName string
	Address    string
	Previous   string // set for AccountChanged
}

// OperationStartedEvent is emitted when a user operation begins.
type OperationStartedEvent struct {
	BaseEvent
	OperationID string
	Method      string
	Wallet      string
	Amount      float64
}

// OperationCompletedEvent is emitted when an operation is confirmed on chain.
type OperationCompletedEvent struct {
	BaseEvent
	OperationID string
	Method      string
	Wallet      string
	Signature   string
	Duration    time.Duration
}

// OperationFailedEvent is emitted when an operation fails or is cancelled.
type OperationFailedEvent struct {
	BaseEvent
	OperationID string
	Method      string
	Wallet      string
	Signature   string // empty unless the transaction was submitted
	Kind        string
	Error       error
}

// TransactionStageEvent mirrors one orchestrator transition.
type TransactionStageEvent struct {
	BaseEvent
	Method    string
	Wallet    string
	Stage     string
	Signature string
}

// PriceUpdatedEvent is emitted when a new SOL/USD quote is fetched.
type PriceUpdatedEvent struct {
	BaseEvent
	SOLUSD   float64
	Source   string
	Fallback bool
}

// SnapshotRefreshedEvent is emitted after account state is reloaded.
type SnapshotRefreshedEvent struct {
	BaseEvent
	Wallet string
	Slot   uint64
}
