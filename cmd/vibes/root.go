// cmd/vibes/root.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/vibes-presale/internal/config"
	"github.com/rovshanmuradov/vibes-presale/internal/dapp"
	"github.com/rovshanmuradov/vibes-presale/internal/utils/logger"
	"github.com/rovshanmuradov/vibes-presale/internal/wallet"
)

// rootCmd wires the CLI surface. Persistent flags are applied on top of the
// loaded config in openApp; subcommands only talk to *dapp.Client.
var rootCmd = &cobra.Command{
	Use:           "vibes",
	Short:         "VIBES presale client",
	Long:          "Inspect the VIBES presale and buy, stake, unstake and claim from the command line or a terminal dashboard.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagConfig string
	flagDebug  bool
	flagOutput string
	flagWallet string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to config file (yaml, json or toml)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "text", "Output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagWallet, "wallet", "", "Wallet name to connect (overrides wallet_name)")

	rootCmd.AddCommand(
		createStatusCmd(),
		createBuyerCmd(),
		createPDACmd(),
		createPriceCmd(),
		createQuoteCmd(),
		createDashboardCmd(),
	)
	for _, cmd := range createOperationCmds() {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(&cobra.Command{Use: "version", Short: "Show version", Run: func(cmd *cobra.Command, args []string) { fmt.Println("vibes dev") }})
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", dapp.Message(err))
		os.Exit(1)
	}
}

// app is everything a subcommand needs, opened once per invocation.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	client  *dapp.Client
	metrics *http.Server
}

// openApp loads config, builds the logger and the client. quiet keeps the
// console free for a full-screen UI; the log file still receives everything.
func openApp(quiet bool) (*app, error) {
	cfg, err := config.LoadConfig(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flagDebug {
		cfg.DebugLogging = true
	}
	if flagWallet != "" {
		cfg.WalletName = flagWallet
	}

	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Development = cfg.DebugLogging
	logCfg.Pretty = true
	if quiet {
		logCfg.Console = io.Discard
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	client, err := dapp.NewFromConfig(cfg, log.Logger, reg)
	if err != nil {
		_ = log.Close()
		return nil, err
	}

	a := &app{cfg: cfg, log: log, client: client}
	if cfg.MetricsAddr != "" {
		a.serveMetrics(reg)
	}
	return a, nil
}

func (a *app) serveMetrics(reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	a.metrics = &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Warn("Metrics server stopped", zap.String("addr", a.cfg.MetricsAddr), zap.Error(err))
		}
	}()
	a.log.Info("Serving metrics", zap.String("addr", a.cfg.MetricsAddr))
}

// connect restores the remembered wallet or connects the configured one.
// A read-only command passes required=false and runs without a wallet.
func (a *app) connect(ctx context.Context, required bool) error {
	session := a.client.Session()
	if _, ok, err := session.AutoConnect(ctx); err != nil {
		if required {
			return err
		}
		a.log.Warn("Auto-connect failed", zap.Error(err))
	} else if ok {
		return nil
	}

	name := a.cfg.WalletName
	if !slices.Contains(session.Available(), name) {
		if required {
			return fmt.Errorf("%w: %q (set private_key or VIBES_PRIVATE_KEY)", wallet.ErrUnknownWallet, name)
		}
		return nil
	}
	_, err := a.client.Connect(ctx, name)
	if err != nil && !required {
		a.log.Warn("Wallet not connected", zap.String("wallet", name), zap.Error(err))
		return nil
	}
	return err
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if a.metrics != nil {
		_ = a.metrics.Shutdown(ctx)
	}
	if err := a.client.Close(ctx); err != nil {
		a.log.Warn("Close client", zap.Error(err))
	}
	_ = a.log.Close()
}

// withApp opens the app, optionally connects a wallet and runs fn.
func withApp(cmd *cobra.Command, walletRequired bool, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if err := a.connect(ctx, walletRequired); err != nil {
		return err
	}
	return fn(ctx, a)
}
