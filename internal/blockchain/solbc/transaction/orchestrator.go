// internal/blockchain/solbc/transaction/orchestrator.go
package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rovshanmuradov/vibes-presale/internal/blockchain"
	"github.com/rovshanmuradov/vibes-presale/internal/blockchain/solbc"
	"github.com/rovshanmuradov/vibes-presale/internal/wallet"
)

// StageEvent is one pipeline transition.
type StageEvent struct {
	Method    string
	Wallet    solana.PublicKey
	Stage     Stage
	Signature solana.Signature
	Err       error
	At        time.Time
}

// StageObserver receives every transition. It must not block.
type StageObserver interface {
	OnStage(StageEvent)
}

// StageObserverFunc adapts a function to StageObserver.
type StageObserverFunc func(StageEvent)

func (f StageObserverFunc) OnStage(e StageEvent) { f(e) }

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver reports transitions to obs.
func WithObserver(obs StageObserver) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// WithAllowedPrograms rejects transactions that call any other program.
func WithAllowedPrograms(programs ...solana.PublicKey) Option {
	return func(o *Orchestrator) { o.validator.Allow(programs...) }
}

// WithMetrics replaces the unregistered default collectors.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// Orchestrator builds, simulates, signs, submits and confirms transactions.
// Sends are never retried.
type Orchestrator struct {
	client    blockchain.Client
	analyzer  *solbc.ErrorAnalyzer
	logger    *zap.Logger
	config    Config
	validator *Validator
	monitor   *Monitor
	metrics   *Metrics
	guard     *Guard
	observer  StageObserver
	blockhash singleflight.Group
}

func NewOrchestrator(client blockchain.Client, analyzer *solbc.ErrorAnalyzer, logger *zap.Logger, config Config, opts ...Option) *Orchestrator {
	config = config.withDefaults()
	o := &Orchestrator{
		client:    client,
		analyzer:  analyzer,
		logger:    logger.Named("tx-orchestrator"),
		config:    config,
		validator: NewValidator(logger),
		monitor:   NewMonitor(client, analyzer, logger, config),
		metrics:   NewMetrics(nil),
		guard:     NewGuard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// InFlight reports whether method is pending for w.
func (o *Orchestrator) InFlight(w solana.PublicKey, method string) bool {
	return o.guard.InFlight(w, method)
}

// Execute runs the full pipeline. The returned Result is non-nil whenever the
// guard was acquired, including on error, and carries the signature once the
// transaction was submitted. ErrConfirmationTimeout means the outcome is
// unknown, not that the transaction failed.
func (o *Orchestrator) Execute(ctx context.Context, w wallet.Wallet, method string, instructions ...solana.Instruction) (*Result, error) {
	release, err := o.guard.Acquire(w.PublicKey(), method)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	res := &Result{Method: method, Wallet: w.PublicKey()}
	defer func() {
		res.Duration = time.Since(start)
		o.metrics.TrackTransaction(method, res.Stage, start)
	}()

	o.transition(res, StageBuilding, nil)
	tx, err := o.build(ctx, w.PublicKey(), instructions)
	if err != nil {
		return res, err
	}

	o.transition(res, StageSimulating, nil)
	if err := o.simulate(ctx, res, tx); err != nil {
		return res, err
	}

	sig, err := o.signAndSubmit(ctx, res, w, tx)
	if err != nil {
		o.transition(res, StageSubmitFailed, err)
		return res, err
	}
	res.Signature = sig
	o.transition(res, StageSubmitted, nil)

	o.transition(res, StageConfirming, nil)
	status, err := o.monitor.AwaitConfirmation(ctx, sig)
	res.Status = status
	switch {
	case err == nil:
		o.transition(res, StageConfirmed, nil)
		return res, nil
	case errors.Is(err, ErrConfirmationTimeout):
		o.logger.Warn("Transaction outcome unknown",
			zap.String("method", method),
			zap.String("signature", sig.String()))
		return res, fmt.Errorf("%s: %w", sig, err)
	default:
		o.transition(res, StageConfirmFailed, err)
		return res, err
	}
}

// blockhashTimeout bounds a shared blockhash fetch once no caller is tied to it.
const blockhashTimeout = 15 * time.Second

// latestBlockhash shares one fetch between concurrent callers. The fetch is
// detached from any single caller's ctx; each caller still stops waiting
// when its own ctx ends.
func (o *Orchestrator) latestBlockhash(ctx context.Context) (solana.Hash, error) {
	ch := o.blockhash.DoChan("latest", func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), blockhashTimeout)
		defer cancel()
		return o.client.GetLatestBlockhash(fetchCtx)
	})
	select {
	case <-ctx.Done():
		return solana.Hash{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return solana.Hash{}, r.Err
		}
		return r.Val.(solana.Hash), nil
	}
}

func (o *Orchestrator) build(ctx context.Context, payer solana.PublicKey, instructions []solana.Instruction) (*solana.Transaction, error) {
	if len(instructions) == 0 {
		return nil, ErrInvalidInstruction
	}
	hash, err := o.latestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: latest blockhash: %w", ErrNetwork, err)
	}
	tx, err := solana.NewTransaction(instructions, hash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}
	if err := o.validator.CheckBuilt(tx, payer); err != nil {
		return nil, err
	}
	return tx, nil
}

// simulate dry-runs an unsigned copy of tx with zeroed signature slots.
func (o *Orchestrator) simulate(ctx context.Context, res *Result, tx *solana.Transaction) error {
	simTx := *tx
	simTx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)

	sim, err := o.client.SimulateTransaction(ctx, &simTx)
	if err != nil {
		err = fmt.Errorf("%w: simulate: %w", ErrNetwork, err)
		o.transition(res, StageSimulationFailed, err)
		return err
	}
	res.Simulation = sim
	if sim.Failed() {
		simErr := &SimulationError{Logs: sim.Logs, Err: sim.Err}
		if o.analyzer != nil {
			if failure, ok := o.analyzer.Analyze(sim.Logs, sim.Err); ok {
				simErr.Program = &failure
			}
		}
		o.transition(res, StageSimulationFailed, simErr)
		return simErr
	}
	o.transition(res, StageSimulationOk, nil)
	return nil
}

func (o *Orchestrator) signAndSubmit(ctx context.Context, res *Result, w wallet.Wallet, tx *solana.Transaction) (solana.Signature, error) {
	if sas, ok := w.(wallet.SignAndSender); ok {
		o.transition(res, StageSigning, nil)
		o.transition(res, StageSubmitting, nil)
		sig, err := sas.SignAndSendTransaction(ctx, tx)
		if err != nil {
			return solana.Signature{}, o.submitError(err)
		}
		return sig, nil
	}

	signer, ok := w.(wallet.Signer)
	if !ok {
		return solana.Signature{}, fmt.Errorf("%w: %s", wallet.ErrCannotSign, w.Name())
	}
	o.transition(res, StageSigning, nil)
	if err := signer.SignTransaction(ctx, tx); err != nil {
		if errors.Is(err, wallet.ErrUserRejected) {
			return solana.Signature{}, fmt.Errorf("%w: %w", ErrUserCancelled, err)
		}
		return solana.Signature{}, fmt.Errorf("sign transaction: %w", err)
	}
	if err := o.validator.CheckSigned(tx); err != nil {
		return solana.Signature{}, err
	}

	o.transition(res, StageSubmitting, nil)
	sig, err := o.client.SendTransactionWithOpts(ctx, tx, blockchain.TransactionOptions{
		SkipPreflight:       o.config.SkipPreflight,
		PreflightCommitment: o.config.Commitment,
	})
	if err != nil {
		return solana.Signature{}, o.submitError(err)
	}
	return sig, nil
}

func (o *Orchestrator) submitError(err error) error {
	if errors.Is(err, wallet.ErrUserRejected) {
		return fmt.Errorf("%w: %w", ErrUserCancelled, err)
	}
	if logs, txErr, ok := solbc.SimulationLogs(err); ok {
		simErr := &SimulationError{Logs: logs, Err: txErr}
		if o.analyzer != nil {
			if failure, found := o.analyzer.Analyze(logs, txErr); found {
				simErr.Program = &failure
			}
		}
		return fmt.Errorf("%w: %w", ErrSubmitFailed, simErr)
	}
	return fmt.Errorf("%w: %w: %w", ErrSubmitFailed, ErrNetwork, err)
}

func (o *Orchestrator) transition(res *Result, stage Stage, err error) {
	res.Stage = stage
	o.metrics.observeStage(res.Method, stage)

	fields := []zap.Field{
		zap.String("method", res.Method),
		zap.String("stage", string(stage)),
		zap.String("wallet", res.Wallet.String()),
	}
	if !res.Signature.IsZero() {
		fields = append(fields, zap.String("signature", res.Signature.String()))
	}
	switch {
	case errors.Is(err, ErrUserCancelled):
		o.logger.Info("Transaction cancelled", fields...)
	case err != nil:
		o.logger.Warn("Transaction stage failed", append(fields, zap.Error(err))...)
	default:
		o.logger.Debug("Transaction stage", fields...)
	}

	if o.observer != nil {
		o.observer.OnStage(StageEvent{
			Method:    res.Method,
			Wallet:    res.Wallet,
			Stage:     stage,
			Signature: res.Signature,
			Err:       err,
			At:        time.Now(),
		})
	}
}
