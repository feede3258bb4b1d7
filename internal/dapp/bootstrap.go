// internal/dapp/bootstrap.go
package dapp

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/vibes-presale/internal/blockchain/solbc"
	"github.com/rovshanmuradov/vibes-presale/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/vibes-presale/internal/config"
	"github.com/rovshanmuradov/vibes-presale/internal/events"
	"github.com/rovshanmuradov/vibes-presale/internal/notify"
	"github.com/rovshanmuradov/vibes-presale/internal/oracle"
	"github.com/rovshanmuradov/vibes-presale/internal/utils/metrics"
	"github.com/rovshanmuradov/vibes-presale/internal/wallet"
)

// NewFromConfig wires a Client against live RPC nodes. When a private key
// is configured it is registered as a wallet under cfg.WalletName.
func NewFromConfig(cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) (*Client, error) {
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	chain, err := solbc.NewClient(cfg.RPCList,
		time.Duration(cfg.RPCTimeoutMs)*time.Millisecond,
		rpc.CommitmentType(cfg.Commitment), logger)
	if err != nil {
		return nil, fmt.Errorf("create RPC client: %w", err)
	}

	collector := metrics.NewCollector(reg)
	chain.Pool().SetObserver(collector.ObserveRPC)

	bus := events.NewBus(logger, 256)
	bus.Subscribe(func(_ context.Context, ev events.Event) error {
		if p, ok := ev.(events.PriceUpdatedEvent); ok {
			collector.RecordPrice(p.SOLUSD, p.Fallback)
		}
		return nil
	}, events.PriceUpdated)

	store, err := wallet.NewStore(cfg.SessionFile)
	if err != nil {
		return nil, err
	}
	session := wallet.NewSession(store, bus, logger)
	if cfg.PrivateKey != "" {
		kp, err := wallet.NewKeypair(cfg.WalletName, cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("load wallet %q: %w", cfg.WalletName, err)
		}
		session.Register(kp)
	}

	prices := oracle.New(oracle.Config{
		Timeout:  time.Duration(cfg.OracleTimeoutMs) * time.Millisecond,
		CacheTTL: time.Duration(cfg.OracleCacheSec) * time.Second,
		Fallback: cfg.OracleFallbackUSD,
	}, logger)

	feed, err := notify.NewFeed(cfg.NotifyCapacity, cfg.NotifyFile, logger)
	if err != nil {
		return nil, err
	}

	c, err := New(opts, Deps{
		Chain:   chain,
		Session: session,
		Prices:  prices,
		Feed:    feed,
		Bus:     bus,
		Metrics: reg,
	}, logger)
	if err != nil {
		_ = feed.Close()
		return nil, err
	}
	c.ownsBus = true
	c.closers = append(c.closers, feed.Close)
	return c, nil
}

// OptionsFromConfig converts the loaded configuration into client options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	programs, err := cfg.Programs()
	if err != nil {
		return Options{}, err
	}
	vaults, err := cfg.VaultAuthorities()
	if err != nil {
		return Options{}, err
	}
	tx := transaction.DefaultConfig()
	if cfg.ConfirmTimeoutSec > 0 {
		tx.ConfirmationTimeout = time.Duration(cfg.ConfirmTimeoutSec) * time.Second
	}
	if cfg.PollIntervalMs > 0 {
		tx.PollInterval = time.Duration(cfg.PollIntervalMs) * time.Millisecond
	}
	if cfg.Commitment != "" {
		tx.Commitment = rpc.CommitmentType(cfg.Commitment)
	}
	tx.SkipPreflight = cfg.SkipPreflight

	return Options{
		Programs: programs,
		Vaults:   vaults,
		Decimals: cfg.Decimals(),
		Features: Features{
			USDC:    cfg.EnableUsdc,
			Staking: cfg.EnableStaking,
			Vesting: cfg.EnableVesting,
		},
		Limits: Limits{
			MinPurchaseSOL:    cfg.MinPurchaseSol,
			MinPurchaseUSDC:   cfg.MinPurchaseUsdc,
			MaxVibesPerWallet: cfg.MaxVibesPerWallet,
			TechnicalCapVibes: cfg.TechnicalCapVibes,
		},
		Tx: tx,
	}, nil
}
