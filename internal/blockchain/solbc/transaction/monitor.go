// internal/blockchain/solbc/transaction/monitor.go
package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/vibes-presale/internal/blockchain"
	"github.com/rovshanmuradov/vibes-presale/internal/blockchain/solbc"
)

var errPending = errors.New("transaction not yet confirmed")

type Monitor struct {
	client   blockchain.StatusReader
	analyzer *solbc.ErrorAnalyzer
	logger   *zap.Logger
	config   Config
}

func NewMonitor(client blockchain.StatusReader, analyzer *solbc.ErrorAnalyzer, logger *zap.Logger, config Config) *Monitor {
	return &Monitor{
		client:   client,
		analyzer: analyzer,
		logger:   logger.Named("tx-monitor"),
		config:   config.withDefaults(),
	}
}

// satisfies reports whether a node-reported confirmation level meets want.
func satisfies(got rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	switch want {
	case rpc.CommitmentFinalized:
		return got == rpc.ConfirmationStatusFinalized
	case rpc.CommitmentProcessed:
		return got != ""
	default:
		return got == rpc.ConfirmationStatusConfirmed || got == rpc.ConfirmationStatusFinalized
	}
}

// GetTransactionStatus returns the current status. An unknown signature is
// reported as pending.
func (m *Monitor) GetTransactionStatus(ctx context.Context, signature solana.Signature) (*Status, error) {
	response, err := m.client.GetSignatureStatuses(ctx, signature)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction status: %w", err)
	}

	if response == nil || len(response.Value) == 0 || response.Value[0] == nil {
		return &Status{
			Signature: signature.String(),
			Status:    "pending",
			Timestamp: time.Now(),
		}, nil
	}

	status := response.Value[0]
	txStatus := &Status{
		Signature: signature.String(),
		Timestamp: time.Now(),
		Slot:      status.Slot,
	}

	if status.Confirmations != nil {
		txStatus.Confirmations = *status.Confirmations
	}

	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusFinalized:
		txStatus.Status = "finalized"
	case rpc.ConfirmationStatusConfirmed:
		txStatus.Status = "confirmed"
	case rpc.ConfirmationStatusProcessed:
		txStatus.Status = "processed"
	default:
		txStatus.Status = "pending"
	}

	if status.Err != nil {
		txStatus.Error = fmt.Sprintf("%v", status.Err)
		txStatus.Status = "failed"
	}

	return txStatus, nil
}

// AwaitConfirmation polls until the configured commitment is reached, the
// transaction fails on chain (*ConfirmError), or the window closes
// (ErrConfirmationTimeout).
func (m *Monitor) AwaitConfirmation(ctx context.Context, signature solana.Signature) (*Status, error) {
	waitCtx, cancel := context.WithTimeout(ctx, m.config.ConfirmationTimeout)
	defer cancel()

	var rawErr interface{}
	op := func() (*Status, error) {
		response, err := m.client.GetSignatureStatuses(waitCtx, signature)
		if err != nil {
			m.logger.Debug("Confirmation check failed", zap.Error(err))
			return nil, err
		}
		if response == nil || len(response.Value) == 0 || response.Value[0] == nil {
			return nil, errPending
		}
		raw := response.Value[0]
		if raw.Err != nil {
			rawErr = raw.Err
			st, _ := m.GetTransactionStatus(waitCtx, signature)
			return nil, backoff.Permanent(m.confirmError(signature, raw.Err, st))
		}
		if !satisfies(raw.ConfirmationStatus, m.config.Commitment) {
			return nil, errPending
		}
		return m.GetTransactionStatus(waitCtx, signature)
	}

	status, err := backoff.Retry(waitCtx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(m.config.PollInterval)),
		backoff.WithMaxElapsedTime(m.config.ConfirmationTimeout),
	)
	if err == nil {
		return status, nil
	}

	var confirmErr *ConfirmError
	if errors.As(err, &confirmErr) {
		m.logger.Warn("Transaction failed on chain",
			zap.String("signature", signature.String()),
			zap.Any("error", rawErr))
		return confirmErr.Status, confirmErr
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	m.logger.Warn("Confirmation window elapsed",
		zap.String("signature", signature.String()),
		zap.Duration("timeout", m.config.ConfirmationTimeout))
	return nil, ErrConfirmationTimeout
}

func (m *Monitor) confirmError(signature solana.Signature, txErr interface{}, st *Status) *ConfirmError {
	ce := &ConfirmError{Signature: signature, Err: txErr, Status: st}
	if m.analyzer != nil {
		if failure, ok := m.analyzer.Analyze(nil, txErr); ok {
			ce.Program = &failure
		}
	}
	return ce
}
