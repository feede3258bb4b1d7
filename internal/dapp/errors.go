// internal/dapp/errors.go
package dapp

import (
	"context"
	"errors"
	"fmt"

	"github.com/rovshanmuradov/vibes-presale/internal/blockchain"
	"github.com/rovshanmuradov/vibes-presale/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/vibes-presale/internal/codec"
	"github.com/rovshanmuradov/vibes-presale/internal/program"
	"github.com/rovshanmuradov/vibes-presale/internal/wallet"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrFeatureDisabled = errors.New("feature disabled")
)

// ValidationError is a request rejected before anything was built.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Kind groups errors by what the user can do about them.
type Kind string

const (
	KindNone                Kind = ""
	KindUserCancelled       Kind = "user_cancelled"
	KindPreconditionFailed  Kind = "precondition_failed"
	KindValidationFailed    Kind = "validation_failed"
	KindSimulationFailed    Kind = "simulation_failed"
	KindTransactionFailed   Kind = "transaction_failed"
	KindNetworkFailed       Kind = "network_failed"
	KindConfirmationTimeout Kind = "confirmation_timeout"
	KindDecodeFailed        Kind = "decode_failed"
	KindUnsupported         Kind = "unsupported"
	KindUnknown             Kind = "unknown"
)

// Classify maps an error from any layer to a Kind. Order matters: a
// submit rejected by preflight is a simulation failure, not a network one.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, transaction.ErrUserCancelled), errors.Is(err, wallet.ErrUserRejected):
		return KindUserCancelled
	case errors.Is(err, transaction.ErrSimulationFailed):
		return KindSimulationFailed
	case errors.Is(err, transaction.ErrConfirmationTimeout):
		return KindConfirmationTimeout
	case errors.Is(err, transaction.ErrConfirmFailed):
		return KindTransactionFailed
	case errors.Is(err, program.ErrPreconditionFailed), errors.Is(err, wallet.ErrNotConnected),
		errors.Is(err, wallet.ErrUnknownWallet):
		return KindPreconditionFailed
	case errors.Is(err, ErrValidation), errors.Is(err, program.ErrInvalidAmount),
		errors.Is(err, program.ErrInvalidArgument), errors.Is(err, transaction.ErrInFlight):
		return KindValidationFailed
	case errors.Is(err, codec.ErrDecodeFailed), errors.Is(err, codec.ErrWrongAccountType),
		errors.Is(err, codec.ErrBufferUnderrun):
		return KindDecodeFailed
	case errors.Is(err, program.ErrUnsupportedInstruction), errors.Is(err, ErrFeatureDisabled),
		errors.Is(err, wallet.ErrCannotSign):
		return KindUnsupported
	case errors.Is(err, transaction.ErrNetwork), errors.Is(err, transaction.ErrSubmitFailed),
		errors.Is(err, blockchain.ErrAccountNotFound), errors.Is(err, context.DeadlineExceeded):
		return KindNetworkFailed
	default:
		return KindUnknown
	}
}

// Message is a short user-facing explanation of err.
func Message(err error) string {
	var simErr *transaction.SimulationError
	var confirmErr *transaction.ConfirmError
	var valErr *ValidationError
	var preErr *program.PreconditionError

	switch {
	case errors.As(err, &simErr) && simErr.Program != nil:
		return "Rejected by program: " + simErr.Program.Message
	case errors.As(err, &confirmErr) && confirmErr.Program != nil:
		return "Failed on chain: " + confirmErr.Program.Message
	case errors.As(err, &valErr):
		return valErr.Error()
	case errors.As(err, &preErr):
		return preErr.Error()
	}

	switch Classify(err) {
	case KindUserCancelled:
		return "Transaction cancelled by user"
	case KindConfirmationTimeout:
		return "Transaction sent but not confirmed yet; check the signature in an explorer"
	case KindNetworkFailed:
		return "Network error, please check your connection"
	case KindUnsupported:
		return "This operation is not available"
	}
	return err.Error()
}
