// internal/blockchain/types.go
package blockchain

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// ErrAccountNotFound возвращается, если по адресу нет аккаунта.
var ErrAccountNotFound = errors.New("account not found")

// TransactionOptions are the sendTransaction flags the client sets.
type TransactionOptions struct {
	SkipPreflight       bool
	PreflightCommitment rpc.CommitmentType
}

// SimulationResult is a dry run. Err is the node's raw transaction error,
// nil on success.
type SimulationResult struct {
	Err           interface{}
	Logs          []string
	UnitsConsumed uint64
}

func (r *SimulationResult) Failed() bool {
	return r != nil && r.Err != nil
}

// AccountReader loads accounts and balances for snapshots.
type AccountReader interface {
	// GetAccountInfo returns ErrAccountNotFound for an empty address.
	GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	// GetMultipleAccounts keeps input order; missing accounts are nil.
	GetMultipleAccounts(ctx context.Context, pubkeys []solana.PublicKey) (*rpc.GetMultipleAccountsResult, error)
	GetProgramAccountsWithOpts(ctx context.Context, programID solana.PublicKey, opts *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error)
	GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*rpc.GetTokenAccountBalanceResult, error)
}

// StatusReader polls signature statuses during confirmation.
type StatusReader interface {
	GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// Submitter builds, dry-runs and sends transactions.
type Submitter interface {
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
	SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*SimulationResult, error)
	// SendTransactionWithOpts is never retried by implementations.
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts TransactionOptions) (solana.Signature, error)
}

// Client is the part of the Solana JSON-RPC API the presale client uses.
type Client interface {
	AccountReader
	StatusReader
	Submitter
}
