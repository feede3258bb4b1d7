// internal/blockchain/solbc/rpc/pool.go
package rpc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"go.uber.org/zap"
)

// Основные константы
const (
	DefaultTimeout = 10 * time.Second
	MaxRetries     = 3
	RetryDelay     = 500 * time.Millisecond
)

// Node представляет отдельный RPC узел
type Node struct {
	Client *solanarpc.Client
	URL    string

	active    atomic.Bool
	successes atomic.Uint64
	failures  atomic.Uint64
}

// NodeStats is a point-in-time view of a node's health.
type NodeStats struct {
	URL       string
	Active    bool
	Successes uint64
	Failures  uint64
}

func newNode(url string) *Node {
	n := &Node{Client: solanarpc.New(url), URL: url}
	n.active.Store(true)
	return n
}

func (n *Node) record(err error) {
	if err == nil {
		n.successes.Add(1)
		n.active.Store(true)
		return
	}
	n.failures.Add(1)
	n.active.Store(false)
}

// Observer receives the outcome of every single node call.
type Observer func(method, nodeURL string, elapsed time.Duration, err error)

// Pool распределяет запросы по RPC узлам и переключается на следующий
// узел при ошибке.
type Pool struct {
	nodes    []*Node
	current  int
	mu       sync.Mutex
	timeout  time.Duration
	logger   *zap.Logger
	observer atomic.Pointer[Observer]
}

// NewPool создает пул из списка URL. Порядок URL задает приоритет.
func NewPool(urls []string, timeout time.Duration, logger *zap.Logger) (*Pool, error) {
	if len(urls) == 0 {
		return nil, ErrNoRPCNodes
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	nodes := make([]*Node, len(urls))
	for i, url := range urls {
		nodes[i] = newNode(url)
	}
	return &Pool{
		nodes:   nodes,
		timeout: timeout,
		logger:  logger.Named("rpc-pool"),
	}, nil
}

// next returns the first active node starting from the cursor. When every
// node is marked down they are all reactivated and the cursor node is used.
func (p *Pool) next() *Node {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 0; i < len(p.nodes); i++ {
		idx := (p.current + i) % len(p.nodes)
		if p.nodes[idx].active.Load() {
			p.current = idx
			return p.nodes[idx]
		}
	}
	p.logger.Warn("All RPC nodes marked down, reactivating")
	for _, n := range p.nodes {
		n.active.Store(true)
	}
	return p.nodes[p.current]
}

func (p *Pool) advance(failed *Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.nodes[p.current] == failed {
		p.current = (p.current + 1) % len(p.nodes)
	}
}

// Do выполняет операцию один раз на текущем узле. Используется для
// отправки транзакций, которые нельзя повторять.
func (p *Pool) Do(ctx context.Context, method string, op func(context.Context, *solanarpc.Client) error) error {
	node := p.next()
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	err := op(callCtx, node.Client)
	if obs := p.observer.Load(); obs != nil {
		(*obs)(method, node.URL, time.Since(start), err)
	}
	if isTransportError(ctx, err) {
		node.record(err)
		p.advance(node)
		return newNodeError(err, node.URL, method, true)
	}
	node.record(nil)
	if err != nil {
		return newNodeError(err, node.URL, method, false)
	}
	return nil
}

// SetObserver installs fn for all subsequent calls; nil removes it.
func (p *Pool) SetObserver(fn Observer) {
	if fn == nil {
		p.observer.Store(nil)
		return
	}
	p.observer.Store(&fn)
}

// ExecuteWithRetry выполняет идемпотентный запрос с переключением узлов
// при транспортных ошибках.
func (p *Pool) ExecuteWithRetry(ctx context.Context, method string, op func(context.Context, *solanarpc.Client) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = RetryDelay
	policy.MaxInterval = RetryDelay * 4

	notify := func(err error, d time.Duration) {
		p.logger.Debug("RPC request failed, trying next node",
			zap.String("method", method),
			zap.Duration("backoff", d),
			zap.Error(err))
	}

	tries := uint(MaxRetries)
	if n := uint(len(p.nodes)); n > tries {
		tries = n
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := p.Do(ctx, method, op)
		if err == nil {
			return struct{}{}, nil
		}
		if ctx.Err() != nil || !IsTransport(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(tries),
		backoff.WithNotify(notify),
	)
	return err
}

// Stats возвращает состояние всех узлов.
func (p *Pool) Stats() []NodeStats {
	out := make([]NodeStats, 0, len(p.nodes))
	for _, n := range p.nodes {
		out = append(out, NodeStats{
			URL:       n.URL,
			Active:    n.active.Load(),
			Successes: n.successes.Load(),
			Failures:  n.failures.Load(),
		})
	}
	return out
}

// URLs returns the configured endpoints in priority order.
func (p *Pool) URLs() []string {
	out := make([]string, len(p.nodes))
	for i, n := range p.nodes {
		out[i] = n.URL
	}
	return out
}

func (p *Pool) String() string {
	return fmt.Sprintf("rpc pool (%d nodes)", len(p.nodes))
}

// isTransportError separates node failures from answers the node gave. A
// JSON-RPC error object or a missing account is an answer and is not worth
// asking another node.
func isTransportError(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return false
	}
	return !errors.Is(err, solanarpc.ErrNotFound)
}
