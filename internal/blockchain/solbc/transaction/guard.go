// internal/blockchain/solbc/transaction/guard.go
package transaction

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Guard allows one pending operation per (wallet, method).
type Guard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{inflight: make(map[string]struct{})}
}

func guardKey(wallet solana.PublicKey, method string) string {
	return wallet.String() + "/" + method
}

// Acquire claims the slot or fails with ErrInFlight. The returned release
// must be called exactly once.
func (g *Guard) Acquire(wallet solana.PublicKey, method string) (release func(), err error) {
	key := guardKey(wallet, method)

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[key]; busy {
		return nil, fmt.Errorf("%w: %s", ErrInFlight, method)
	}
	g.inflight[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, key)
			g.mu.Unlock()
		})
	}, nil
}

// InFlight reports whether (wallet, method) is pending.
func (g *Guard) InFlight(wallet solana.PublicKey, method string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inflight[guardKey(wallet, method)]
	return busy
}
