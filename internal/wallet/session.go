// internal/wallet/session.go
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/vibes-presale/internal/events"
)

// Session tracks the connected wallet among registered adapters.
type Session struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
	current  Adapter

	store  *Store
	bus    *events.Bus
	logger *zap.Logger
}

// NewSession creates a session. store and bus may be nil.
func NewSession(store *Store, bus *events.Bus, logger *zap.Logger, adapters ...Adapter) *Session {
	s := &Session{
		adapters: make(map[string]Adapter, len(adapters)),
		store:    store,
		bus:      bus,
		logger:   logger.Named("wallet-session"),
	}
	for _, a := range adapters {
		s.adapters[a.Name()] = a
	}
	return s
}

// Register adds or replaces an adapter.
func (s *Session) Register(a Adapter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adapters[a.Name()] = a
}

// Available lists registered adapter names.
func (s *Session) Available() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.adapters))
	for name := range s.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Current returns the connected wallet.
func (s *Session) Current() (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNotConnected
	}
	return s.current, nil
}

// Connected reports whether a wallet is connected.
func (s *Session) Connected() bool {
	_, err := s.Current()
	return err == nil
}

// Connect connects the named adapter, replacing any current wallet.
func (s *Session) Connect(ctx context.Context, name string) (Wallet, error) {
	return s.connect(ctx, name, events.WalletConnected)
}

// SwitchAccount moves the session to another adapter and reports it as an
// account change rather than a new connection.
func (s *Session) SwitchAccount(ctx context.Context, name string) (Wallet, error) {
	return s.connect(ctx, name, events.AccountChanged)
}

func (s *Session) connect(ctx context.Context, name string, evType events.EventType) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := s.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWallet, name)
	}
	if s.current == next {
		return next, nil
	}
	if err := next.Connect(ctx); err != nil {
		if errors.Is(err, ErrUserRejected) {
			s.logger.Info("Connection rejected by user", zap.String("wallet", name))
		}
		return nil, fmt.Errorf("connect %s: %w", name, err)
	}

	previous := s.current
	if previous != nil {
		if err := previous.Disconnect(ctx); err != nil {
			s.logger.Warn("Failed to disconnect previous wallet",
				zap.String("wallet", previous.Name()),
				zap.Error(err))
		}
	}
	s.current = next
	s.persist(name)

	ev := events.WalletEvent{
		BaseEvent:  events.NewBase(evType),
		WalletName: name,
		Address:    next.PublicKey().String(),
	}
	if previous != nil && evType == events.AccountChanged {
		ev.Previous = previous.PublicKey().String()
	}
	s.publish(ev)

	s.logger.Info("Wallet connected",
		zap.String("wallet", name),
		zap.String("address", next.PublicKey().String()))
	return next, nil
}

// Disconnect drops the current wallet and forgets it in the store.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	current := s.current
	s.current = nil
	s.persist("")

	err := current.Disconnect(ctx)
	s.publish(events.WalletEvent{
		BaseEvent:  events.NewBase(events.WalletDisconnected),
		WalletName: current.Name(),
		Address:    current.PublicKey().String(),
	})
	if err != nil {
		return fmt.Errorf("disconnect %s: %w", current.Name(), err)
	}
	return nil
}

// AutoConnect reconnects the wallet remembered by the store. ok is false when
// nothing is remembered or the remembered adapter is not registered.
func (s *Session) AutoConnect(ctx context.Context) (w Wallet, ok bool, err error) {
	if s.store == nil {
		return nil, false, nil
	}
	name := s.store.ConnectedWallet()
	if name == "" {
		return nil, false, nil
	}
	s.mu.RLock()
	_, registered := s.adapters[name]
	s.mu.RUnlock()
	if !registered {
		s.logger.Debug("Remembered wallet is not available", zap.String("wallet", name))
		return nil, false, nil
	}
	w, err = s.Connect(ctx, name)
	if err != nil {
		return nil, false, err
	}
	return w, true, nil
}

func (s *Session) persist(name string) {
	if s.store == nil {
		return
	}
	if err := s.store.SetConnectedWallet(name); err != nil {
		s.logger.Warn("Failed to persist connected wallet", zap.Error(err))
	}
}

func (s *Session) publish(ev events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ev); err != nil {
		s.logger.Debug("Wallet event dropped", zap.String("event_type", string(ev.Type())), zap.Error(err))
	}
}
