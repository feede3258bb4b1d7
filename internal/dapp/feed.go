// internal/dapp/feed.go
package dapp

import (
	"context"
	"fmt"

	"github.com/rovshanmuradov/vibes-presale/internal/events"
	"github.com/rovshanmuradov/vibes-presale/internal/notify"
)

// bridgeFeed turns bus events into notification entries.
func (c *Client) bridgeFeed() {
	sub := c.bus.Subscribe(func(_ context.Context, ev events.Event) error {
		switch ev.Type() {
		case events.WalletConnected, events.WalletDisconnected, events.AccountChanged:
			c.feedWallet(ev)
		case events.OperationCompleted:
			c.feedCompleted(ev)
		case events.OperationFailed:
			c.feedFailed(ev)
		case events.PriceUpdated:
			c.feedPrice(ev)
		}
		return nil
	},
		events.WalletConnected, events.WalletDisconnected, events.AccountChanged,
		events.OperationCompleted, events.OperationFailed, events.PriceUpdated)
	c.unsubFns = append(c.unsubFns, sub.Unsubscribe)
}

func (c *Client) feedWallet(ev events.Event) {
	e, ok := ev.(events.WalletEvent)
	if !ok {
		return
	}
	switch ev.Type() {
	case events.WalletConnected:
		c.feed.Add(notify.Entry{Timestamp: e.Timestamp(), Category: notify.Success,
			Title: "Wallet connected", Message: fmt.Sprintf("%s %s", e.WalletName, e.Address)})
	case events.AccountChanged:
		c.feed.Add(notify.Entry{Timestamp: e.Timestamp(), Category: notify.Info,
			Title: "Account changed", Message: fmt.Sprintf("%s -> %s", e.Previous, e.Address)})
	default:
		c.feed.Add(notify.Entry{Timestamp: e.Timestamp(), Category: notify.Info,
			Title: "Wallet disconnected", Message: e.WalletName})
	}
}

func (c *Client) feedCompleted(ev events.Event) {
	e, ok := ev.(events.OperationCompletedEvent)
	if !ok {
		return
	}
	c.feed.Add(notify.Entry{
		Timestamp: e.Timestamp(),
		Category:  notify.Success,
		Title:     operationTitle(e.Method),
		Message:   "Transaction confirmed",
		Signature: e.Signature,
	})
}

func (c *Client) feedFailed(ev events.Event) {
	e, ok := ev.(events.OperationFailedEvent)
	if !ok {
		return
	}
	category := notify.Error
	switch Kind(e.Kind) {
	case KindUserCancelled:
		category = notify.Info
	case KindConfirmationTimeout, KindValidationFailed:
		category = notify.Warning
	}
	c.feed.Add(notify.Entry{
		Timestamp: e.Timestamp(),
		Category:  category,
		Title:     operationTitle(e.Method),
		Message:   Message(e.Error),
		Signature: e.Signature,
	})
}

func (c *Client) feedPrice(ev events.Event) {
	e, ok := ev.(events.PriceUpdatedEvent)
	if !ok || !e.Fallback {
		return
	}
	c.feed.Add(notify.Entry{
		Timestamp: e.Timestamp(),
		Category:  notify.Warning,
		Title:     "Price unavailable",
		Message:   fmt.Sprintf("Using fallback SOL price $%.2f", e.SOLUSD),
	})
}
