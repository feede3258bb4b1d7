// internal/blockchain/solbc/transaction/types.go
package transaction

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/rovshanmuradov/vibes-presale/internal/blockchain"
	"github.com/rovshanmuradov/vibes-presale/internal/blockchain/solbc"
)

var (
	ErrConfirmationTimeout = errors.New("transaction confirmation timeout")
	ErrInvalidSignature    = errors.New("invalid transaction signature")
	ErrInvalidBlockhash    = errors.New("invalid blockhash")
	ErrInvalidInstruction  = errors.New("invalid instruction")

	ErrInFlight         = errors.New("operation already in progress")
	ErrUserCancelled    = errors.New("cancelled by user")
	ErrNetwork          = errors.New("network request failed")
	ErrSimulationFailed = errors.New("transaction simulation failed")
	ErrSubmitFailed     = errors.New("transaction submission failed")
	ErrConfirmFailed    = errors.New("transaction failed on chain")
)

// Stage is a step of the submission pipeline.
type Stage string

const (
	StageBuilding         Stage = "building"
	StageSimulating       Stage = "simulating"
	StageSimulationFailed Stage = "simulation_failed"
	StageSimulationOk     Stage = "simulation_ok"
	StageSigning          Stage = "signing"
	StageSubmitting       Stage = "submitting"
	StageSubmitFailed     Stage = "submit_failed"
	StageSubmitted        Stage = "submitted"
	StageConfirming       Stage = "confirming"
	StageConfirmFailed    Stage = "confirm_failed"
	StageConfirmed        Stage = "confirmed"
)

// Terminal reports whether no further transition follows s.
func (s Stage) Terminal() bool {
	switch s {
	case StageSimulationFailed, StageSubmitFailed, StageConfirmFailed, StageConfirmed:
		return true
	}
	return false
}

type Config struct {
	ConfirmationTimeout time.Duration
	PollInterval        time.Duration
	Commitment          rpc.CommitmentType
	// SkipPreflight disables the node preflight on send. Simulation still runs.
	SkipPreflight bool
}

// DefaultConfig returns a 60 second confirmation window polled every 500ms.
func DefaultConfig() Config {
	return Config{
		ConfirmationTimeout: 60 * time.Second,
		PollInterval:        500 * time.Millisecond,
		Commitment:          rpc.CommitmentConfirmed,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ConfirmationTimeout <= 0 {
		c.ConfirmationTimeout = d.ConfirmationTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.Commitment == "" {
		c.Commitment = d.Commitment
	}
	return c
}

type Status struct {
	Signature     string
	Status        string
	Confirmations uint64
	Slot          uint64
	Error         string
	Timestamp     time.Time
}

// Result describes how far a transaction got. It is returned alongside
// errors so callers can still show the signature of a submitted transaction.
type Result struct {
	Method     string
	Wallet     solana.PublicKey
	Stage      Stage
	Signature  solana.Signature
	Simulation *blockchain.SimulationResult
	Status     *Status
	Duration   time.Duration
}

// Submitted reports whether the transaction reached the network.
func (r *Result) Submitted() bool {
	return r != nil && !r.Signature.IsZero()
}

// SimulationError carries the node's logs for a rejected dry run.
type SimulationError struct {
	Logs    []string
	Err     interface{}
	Program *solbc.ProgramFailure
}

func (e *SimulationError) Error() string {
	if e.Program != nil {
		return fmt.Sprintf("%s: %s", ErrSimulationFailed, e.Program.Error())
	}
	return fmt.Sprintf("%s: %v", ErrSimulationFailed, e.Err)
}

func (e *SimulationError) Unwrap() error { return ErrSimulationFailed }

// LogTail returns the last n log lines.
func (e *SimulationError) LogTail(n int) string {
	logs := e.Logs
	if len(logs) > n {
		logs = logs[len(logs)-n:]
	}
	return strings.Join(logs, "\n")
}

// ConfirmError is an on-chain failure of a landed transaction.
type ConfirmError struct {
	Signature solana.Signature
	Err       interface{}
	Program   *solbc.ProgramFailure
	Status    *Status
}

func (e *ConfirmError) Error() string {
	if e.Program != nil {
		return fmt.Sprintf("%s: %s: %s", ErrConfirmFailed, e.Signature, e.Program.Error())
	}
	return fmt.Sprintf("%s: %s: %v", ErrConfirmFailed, e.Signature, e.Err)
}

func (e *ConfirmError) Unwrap() error { return ErrConfirmFailed }
