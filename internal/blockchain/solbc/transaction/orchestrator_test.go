package transaction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/vibes-presale/internal/blockchain"
	"github.com/rovshanmuradov/vibes-presale/internal/blockchain/blockchaintest"
	"github.com/rovshanmuradov/vibes-presale/internal/blockchain/solbc"
	"github.com/rovshanmuradov/vibes-presale/internal/program"
	"github.com/rovshanmuradov/vibes-presale/internal/wallet"
)

const testMethod = "buy_with_sol_v3"

type rejectingWallet struct{ *wallet.Keypair }

func (rejectingWallet) SignTransaction(context.Context, *solana.Transaction) error {
	return wallet.ErrUserRejected
}

// injectedWallet signs with its key and sends through the given client.
type injectedWallet struct {
	key    *wallet.Keypair
	client blockchain.Client
	calls  int
}

func (w *injectedWallet) Name() string                { return "Phantom" }
func (w *injectedWallet) PublicKey() solana.PublicKey { return w.key.PublicKey() }

func (w *injectedWallet) SignAndSendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	w.calls++
	if err := w.key.SignTransaction(ctx, tx); err != nil {
		return solana.Signature{}, err
	}
	return w.client.SendTransactionWithOpts(ctx, tx, blockchain.TransactionOptions{})
}

type stageRecorder struct {
	mu     sync.Mutex
	stages []Stage
}

func (r *stageRecorder) OnStage(e StageEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, e.Stage)
}

func (r *stageRecorder) list() []Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Stage(nil), r.stages...)
}

func newKeypair(t *testing.T) *wallet.Keypair {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return wallet.FromPrivateKey("Phantom", key)
}

func transferIx(from solana.PublicKey) solana.Instruction {
	return system.NewTransferInstruction(1, from, solana.NewWallet().PublicKey()).Build()
}

func fastConfig() Config {
	return Config{ConfirmationTimeout: time.Second, PollInterval: 5 * time.Millisecond}
}

func newOrchestrator(client blockchain.Client, opts ...Option) *Orchestrator {
	analyzer := solbc.NewErrorAnalyzer(program.DefaultPrograms(), zap.NewNop())
	return NewOrchestrator(client, analyzer, zap.NewNop(), fastConfig(), opts...)
}

func TestExecuteConfirmed(t *testing.T) {
	client := blockchaintest.New()
	kp := newKeypair(t)
	rec := &stageRecorder{}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	o := newOrchestrator(client, WithObserver(rec), WithMetrics(metrics))
	res, err := o.Execute(context.Background(), kp, testMethod, transferIx(kp.PublicKey()))
	require.NoError(t, err)

	assert.Equal(t, StageConfirmed, res.Stage)
	assert.True(t, res.Submitted())
	require.NotNil(t, res.Status)
	assert.Equal(t, "confirmed", res.Status.Status)
	assert.Equal(t, []Stage{
		StageBuilding, StageSimulating, StageSimulationOk, StageSigning,
		StageSubmitting, StageSubmitted, StageConfirming, StageConfirmed,
	}, rec.list())

	require.Len(t, client.Sent, 1)
	sent := client.Sent[0]
	assert.Equal(t, res.Signature, sent.Signatures[0])
	assert.NoError(t, sent.VerifySignatures())
	assert.Equal(t, client.Blockhash, sent.Message.RecentBlockhash)

	// The dry run never carries a real signature.
	require.Len(t, client.Simulated, 1)
	for _, sig := range client.Simulated[0].Signatures {
		assert.True(t, sig.IsZero())
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.stageCounter.WithLabelValues(testMethod, string(StageConfirmed))))
	assert.False(t, o.InFlight(kp.PublicKey(), testMethod))
}

func TestExecuteSimulationFailureIsNotSubmitted(t *testing.T) {
	client := blockchaintest.New()
	client.SimResult = &blockchain.SimulationResult{
		Err: map[string]interface{}{"InstructionError": []interface{}{0.0, map[string]interface{}{"Custom": 6019.0}}},
		Logs: []string{
			"Program HNPuLPxycypT4YtD5vMZPdcrr53MLKAajYrQwNTv4ujH invoke [1]",
			"Program HNPuLPxycypT4YtD5vMZPdcrr53MLKAajYrQwNTv4ujH failed: custom program error: 0x1783",
		},
	}
	kp := newKeypair(t)
	metrics := NewMetrics(nil)

	o := newOrchestrator(client, WithMetrics(metrics))
	res, err := o.Execute(context.Background(), kp, testMethod, transferIx(kp.PublicKey()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSimulationFailed)

	var simErr *SimulationError
	require.True(t, errors.As(err, &simErr))
	require.NotNil(t, simErr.Program)
	assert.Equal(t, "WalletLimitExceeded", simErr.Program.Name)
	assert.Contains(t, simErr.LogTail(1), "0x1783")

	assert.Equal(t, StageSimulationFailed, res.Stage)
	assert.False(t, res.Submitted())
	assert.Empty(t, client.Sent)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.simulationFailures.WithLabelValues(testMethod)))
}

func TestExecuteUserCancelled(t *testing.T) {
	client := blockchaintest.New()
	w := rejectingWallet{newKeypair(t)}

	o := newOrchestrator(client)
	res, err := o.Execute(context.Background(), w, testMethod, transferIx(w.PublicKey()))
	assert.ErrorIs(t, err, ErrUserCancelled)
	assert.ErrorIs(t, err, wallet.ErrUserRejected)
	assert.Equal(t, StageSubmitFailed, res.Stage)
	assert.Empty(t, client.Sent)
}

func TestExecuteSignAndSendWallet(t *testing.T) {
	client := blockchaintest.New()
	w := &injectedWallet{key: newKeypair(t), client: client}

	res, err := newOrchestrator(client).Execute(context.Background(), w, testMethod, transferIx(w.PublicKey()))
	require.NoError(t, err)
	assert.Equal(t, 1, w.calls)
	assert.Equal(t, StageConfirmed, res.Stage)
	require.Len(t, client.Sent, 1)
}

func TestExecuteRejectsSecondInFlightCall(t *testing.T) {
	client := blockchaintest.New()
	kp := newKeypair(t)

	entered := make(chan struct{})
	unblock := make(chan struct{})
	client.OnSend = func(*solana.Transaction) {
		close(entered)
		<-unblock
	}

	o := newOrchestrator(client)
	done := make(chan error, 1)
	go func() {
		_, err := o.Execute(context.Background(), kp, testMethod, transferIx(kp.PublicKey()))
		done <- err
	}()

	<-entered
	assert.True(t, o.InFlight(kp.PublicKey(), testMethod))
	res, err := o.Execute(context.Background(), kp, testMethod, transferIx(kp.PublicKey()))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInFlight)

	// A different method is not blocked.
	assert.False(t, o.InFlight(kp.PublicKey(), "claim_tokens_v3"))

	close(unblock)
	require.NoError(t, <-done)
	assert.False(t, o.InFlight(kp.PublicKey(), testMethod))
}

func TestExecuteConfirmationTimeoutKeepsSignature(t *testing.T) {
	client := blockchaintest.New()
	client.Statuses = []*rpc.SignatureStatusesResult{blockchaintest.Processed(5)}
	kp := newKeypair(t)

	analyzer := solbc.NewErrorAnalyzer(program.DefaultPrograms(), zap.NewNop())
	o := NewOrchestrator(client, analyzer, zap.NewNop(), Config{
		ConfirmationTimeout: 60 * time.Millisecond,
		PollInterval:        10 * time.Millisecond,
	})
	res, err := o.Execute(context.Background(), kp, testMethod, transferIx(kp.PublicKey()))
	assert.ErrorIs(t, err, ErrConfirmationTimeout)
	assert.Equal(t, StageConfirming, res.Stage)
	assert.True(t, res.Submitted())
	assert.Contains(t, err.Error(), res.Signature.String())
	assert.Greater(t, client.StatusPolls(), 1)
}

func TestExecuteOnChainFailure(t *testing.T) {
	client := blockchaintest.New()
	client.Statuses = []*rpc.SignatureStatusesResult{
		blockchaintest.Processed(5),
		blockchaintest.Failed(6, map[string]interface{}{
			"InstructionError": []interface{}{0.0, map[string]interface{}{"Custom": 6004.0}},
		}),
	}
	kp := newKeypair(t)

	res, err := newOrchestrator(client).Execute(context.Background(), kp, testMethod, transferIx(kp.PublicKey()))
	assert.ErrorIs(t, err, ErrConfirmFailed)

	var confirmErr *ConfirmError
	require.True(t, errors.As(err, &confirmErr))
	assert.Equal(t, res.Signature, confirmErr.Signature)
	assert.Equal(t, StageConfirmFailed, res.Stage)
	require.NotNil(t, res.Status)
	assert.Equal(t, "failed", res.Status.Status)
}

func TestExecuteSubmitPreflightRejection(t *testing.T) {
	client := blockchaintest.New()
	client.SendErr = &jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed: Error processing Instruction 0",
		Data: map[string]interface{}{
			"err": map[string]interface{}{"InstructionError": []interface{}{0.0, map[string]interface{}{"Custom": 6000.0}}},
			"logs": []interface{}{
				"Program HNPuLPxycypT4YtD5vMZPdcrr53MLKAajYrQwNTv4ujH invoke [1]",
				"Program HNPuLPxycypT4YtD5vMZPdcrr53MLKAajYrQwNTv4ujH failed: custom program error: 0x1770",
			},
		},
	}
	kp := newKeypair(t)

	res, err := newOrchestrator(client).Execute(context.Background(), kp, testMethod, transferIx(kp.PublicKey()))
	assert.ErrorIs(t, err, ErrSubmitFailed)
	assert.ErrorIs(t, err, ErrSimulationFailed)
	assert.NotErrorIs(t, err, ErrNetwork)
	assert.Equal(t, StageSubmitFailed, res.Stage)
}

func TestExecuteSubmitNetworkError(t *testing.T) {
	client := blockchaintest.New()
	client.SendErr = errors.New("connection reset by peer")
	kp := newKeypair(t)

	res, err := newOrchestrator(client).Execute(context.Background(), kp, testMethod, transferIx(kp.PublicKey()))
	assert.ErrorIs(t, err, ErrSubmitFailed)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.False(t, res.Submitted())
}

func TestExecuteWithoutInstructions(t *testing.T) {
	kp := newKeypair(t)
	res, err := newOrchestrator(blockchaintest.New()).Execute(context.Background(), kp, testMethod)
	assert.ErrorIs(t, err, ErrInvalidInstruction)
	assert.Equal(t, StageBuilding, res.Stage)
}

func TestGuardRelease(t *testing.T) {
	g := NewGuard()
	w := solana.NewWallet().PublicKey()

	release, err := g.Acquire(w, testMethod)
	require.NoError(t, err)
	_, err = g.Acquire(w, testMethod)
	assert.ErrorIs(t, err, ErrInFlight)

	release()
	release()
	assert.False(t, g.InFlight(w, testMethod))
	_, err = g.Acquire(w, testMethod)
	assert.NoError(t, err)
}

func TestStageTerminal(t *testing.T) {
	assert.True(t, StageConfirmed.Terminal())
	assert.True(t, StageSimulationFailed.Terminal())
	assert.False(t, StageConfirming.Terminal())
	assert.False(t, StageSubmitted.Terminal())
}

// gatedBlockhash holds GetLatestBlockhash until release is closed.
type gatedBlockhash struct {
	*blockchaintest.Client
	entered chan struct{}
	release chan struct{}
}

func (g *gatedBlockhash) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
	return g.Client.GetLatestBlockhash(ctx)
}

func TestBlockhashSurvivesCancelledFirstCaller(t *testing.T) {
	client := &gatedBlockhash{
		Client:  blockchaintest.New(),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	o := newOrchestrator(client)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := o.latestBlockhash(firstCtx)
		firstErr <- err
	}()
	<-client.entered

	type result struct {
		hash solana.Hash
		err  error
	}
	second := make(chan result, 1)
	go func() {
		h, err := o.latestBlockhash(context.Background())
		second <- result{h, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(client.release)
	select {
	case r := <-second:
		require.NoError(t, r.err)
		assert.Equal(t, client.Blockhash, r.hash)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never got a blockhash")
	}
}
