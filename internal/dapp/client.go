// internal/dapp/client.go
package dapp

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/vibes-presale/internal/blockchain"
	"github.com/rovshanmuradov/vibes-presale/internal/blockchain/solbc"
	"github.com/rovshanmuradov/vibes-presale/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/vibes-presale/internal/events"
	"github.com/rovshanmuradov/vibes-presale/internal/notify"
	"github.com/rovshanmuradov/vibes-presale/internal/oracle"
	"github.com/rovshanmuradov/vibes-presale/internal/pda"
	"github.com/rovshanmuradov/vibes-presale/internal/program"
	"github.com/rovshanmuradov/vibes-presale/internal/state"
	"github.com/rovshanmuradov/vibes-presale/internal/wallet"
)

// Features switch optional parts of the presale on or off.
type Features struct {
	USDC    bool
	Staking bool
	Vesting bool
}

func AllFeatures() Features {
	return Features{USDC: true, Staking: true, Vesting: true}
}

// Limits are client-side purchase rules. MaxVibesPerWallet is a business
// policy and is stricter than the on-chain TechnicalCapVibes.
type Limits struct {
	MinPurchaseSOL    float64
	MinPurchaseUSDC   float64
	MaxVibesPerWallet float64
	TechnicalCapVibes float64
}

func DefaultLimits() Limits {
	return Limits{
		MinPurchaseSOL:    0.1,
		MinPurchaseUSDC:   1,
		MaxVibesPerWallet: 250_000,
		TechnicalCapVibes: 1_000_000,
	}
}

// PriceSource quotes SOL in USD.
type PriceSource interface {
	SOLPrice(ctx context.Context) (oracle.Price, error)
}

type Options struct {
	Programs program.Programs
	Decimals program.Decimals
	Features Features
	Limits   Limits
	// Vaults are needed only when the presale does not mint on purchase.
	Vaults   program.VaultAuthorities
	Tx       transaction.Config
}

// Deps are the collaborators a Client is assembled from. Chain and Session
// are required; Feed and Bus are created when nil.
type Deps struct {
	Chain   blockchain.Client
	Session *wallet.Session
	Prices  PriceSource
	Feed    *notify.Feed
	Bus     *events.Bus
	Metrics prometheus.Registerer
}

// Client is the presale dApp: one instance per process, shared by the CLI
// and the dashboard.
type Client struct {
	opts     Options
	chain    blockchain.Client
	deriver  *pda.Deriver
	reader   *state.Reader
	builder  *program.Builder
	orch     *transaction.Orchestrator
	session  *wallet.Session
	prices   PriceSource
	feed     *notify.Feed
	bus      *events.Bus
	ownsBus  bool
	logger   *zap.Logger
	now      func() time.Time
	unsubFns []func()
	closers  []func() error
}

func New(opts Options, deps Deps, logger *zap.Logger) (*Client, error) {
	if deps.Chain == nil {
		return nil, errors.New("dapp: chain client is required")
	}
	if deps.Session == nil {
		return nil, errors.New("dapp: wallet session is required")
	}
	if opts.Programs == (program.Programs{}) {
		opts.Programs = program.DefaultPrograms()
	}
	if opts.Decimals == (program.Decimals{}) {
		opts.Decimals = program.DefaultDecimals()
	}
	if opts.Limits == (Limits{}) {
		opts.Limits = DefaultLimits()
	}

	c := &Client{
		opts:    opts,
		chain:   deps.Chain,
		session: deps.Session,
		prices:  deps.Prices,
		feed:    deps.Feed,
		bus:     deps.Bus,
		logger:  logger.Named("dapp"),
		now:     time.Now,
	}
	if c.prices == nil {
		c.prices = oracle.New(oracle.Config{}, logger)
	}
	if c.feed == nil {
		feed, err := notify.NewFeed(200, "", logger)
		if err != nil {
			return nil, err
		}
		c.feed = feed
	}
	if c.bus == nil {
		c.bus = events.NewBus(logger, 256)
		c.ownsBus = true
	}

	c.deriver = pda.NewDeriver(opts.Programs.Presale, opts.Programs.Vesting)
	c.reader = state.NewReader(deps.Chain, opts.Programs, c.deriver, logger)
	c.builder = program.NewBuilder(opts.Programs, opts.Decimals, c.deriver, nil)

	analyzer := solbc.NewErrorAnalyzer(opts.Programs, logger)
	c.orch = transaction.NewOrchestrator(deps.Chain, analyzer, logger, opts.Tx,
		transaction.WithObserver(transaction.StageObserverFunc(c.onStage)),
		transaction.WithMetrics(transaction.NewMetrics(deps.Metrics)),
		transaction.WithAllowedPrograms(opts.Programs.Presale, opts.Programs.Vesting, opts.Programs.Staking,
			solana.SystemProgramID, solana.TokenProgramID, solana.SPLAssociatedTokenAccountProgramID,
			solana.ComputeBudget),
	)

	c.bridgeFeed()
	return c, nil
}

func (c *Client) Features() Features { return c.opts.Features }
func (c *Client) Limits() Limits { return c.opts.Limits }
func (c *Client) Programs() program.Programs { return c.opts.Programs }
func (c *Client) Decimals() program.Decimals { return c.opts.Decimals }
func (c *Client) Session() *wallet.Session { return c.session }
func (c *Client) Feed() *notify.Feed { return c.feed }
func (c *Client) Bus() *events.Bus { return c.bus }
func (c *Client) Reader() *state.Reader { return c.reader }
func (c *Client) Deriver() *pda.Deriver { return c.deriver }
func (c *Client) Builder() *program.Builder { return c.builder }
func (c *Client) Chain() blockchain.Client { return c.chain }
func (c *Client) Orchestrator() *transaction.Orchestrator { return c.orch }

// Connect connects the named wallet.
func (c *Client) Connect(ctx context.Context, name string) (wallet.Wallet, error) {
	return c.session.Connect(ctx, name)
}

// Disconnect drops the current wallet.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.session.Disconnect(ctx)
}

// Snapshot loads the state of the connected wallet, or only the presale
// state when no wallet is connected.
func (c *Client) Snapshot(ctx context.Context) (*state.Snapshot, error) {
	owner := c.currentOwner()
	snap, err := c.reader.Snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	c.publish(events.SnapshotRefreshedEvent{
		BaseEvent: events.NewBase(events.SnapshotRefreshed),
		Wallet:    owner.String(),
	})
	return snap, nil
}

// SOLPrice fetches the SOL/USD quote and announces it.
func (c *Client) SOLPrice(ctx context.Context) (oracle.Price, error) {
	p, err := c.prices.SOLPrice(ctx)
	if err != nil {
		return oracle.Price{}, err
	}
	c.publish(events.PriceUpdatedEvent{
		BaseEvent: events.NewBase(events.PriceUpdated),
		SOLUSD:    p.SOLUSD,
		Source:    p.Source,
		Fallback:  p.Fallback,
	})
	return p, nil
}

// Close stops the event bus if the client created it and releases
// resources opened by NewFromConfig.
func (c *Client) Close(ctx context.Context) error {
	for _, fn := range c.unsubFns {
		fn()
	}
	c.unsubFns = nil
	var errs []error
	if c.ownsBus {
		errs = append(errs, c.bus.Shutdown(ctx))
	}
	for _, fn := range c.closers {
		errs = append(errs, fn())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Client) currentOwner() (owner solana.PublicKey) {
	if w, err := c.session.Current(); err == nil {
		owner = w.PublicKey()
	}
	return owner
}

func (c *Client) onStage(e transaction.StageEvent) {
	ev := events.TransactionStageEvent{
		BaseEvent: events.NewBase(events.TransactionStageChanged),
		Method:    e.Method,
		Wallet:    e.Wallet.String(),
		Stage:     string(e.Stage),
	}
	if !e.Signature.IsZero() {
		ev.Signature = e.Signature.String()
	}
	c.publish(ev)
}

func (c *Client) publish(ev events.Event) {
	if err := c.bus.Publish(ev); err != nil {
		c.logger.Debug("Event dropped", zap.String("event_type", string(ev.Type())), zap.Error(err))
	}
}
