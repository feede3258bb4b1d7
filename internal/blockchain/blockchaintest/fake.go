// Package blockchaintest provides an in-memory blockchain.Client for tests.
package blockchaintest

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/rovshanmuradov/vibes-presale/internal/blockchain"
)

// Client is a scripted blockchain.Client. Zero value is not usable; call New.
type Client struct {
	mu sync.Mutex

	accounts      map[solana.PublicKey]*rpc.Account
	balances      map[solana.PublicKey]uint64
	tokenBalances map[solana.PublicKey]*rpc.UiTokenAmount

	Blockhash solana.Hash
	SimResult *blockchain.SimulationResult
	SimErr    error
	SendErr   error
	StatusErr error
	// Statuses are returned one per poll; the last one repeats.
	Statuses []*rpc.SignatureStatusesResult
	// OnSend runs after a successful send, e.g. to mutate account state.
	OnSend func(tx *solana.Transaction)

	Sent            []*solana.Transaction
	Simulated       []*solana.Transaction
	ProgramOpts     []*rpc.GetProgramAccountsOpts
	BlockhashCalls  int
	statusPollCount int
}

// New returns an empty fake whose transactions confirm on the first poll.
func New() *Client {
	return &Client{
		accounts:      make(map[solana.PublicKey]*rpc.Account),
		balances:      make(map[solana.PublicKey]uint64),
		tokenBalances: make(map[solana.PublicKey]*rpc.UiTokenAmount),
		Blockhash:     solana.Hash{9, 9, 9},
		Statuses:      []*rpc.SignatureStatusesResult{Confirmed(1)},
	}
}

// Confirmed is a confirmed status at slot.
func Confirmed(slot uint64) *rpc.SignatureStatusesResult {
	return &rpc.SignatureStatusesResult{Slot: slot, ConfirmationStatus: rpc.ConfirmationStatusConfirmed}
}

// Processed is a status that has not reached confirmed commitment.
func Processed(slot uint64) *rpc.SignatureStatusesResult {
	return &rpc.SignatureStatusesResult{Slot: slot, ConfirmationStatus: rpc.ConfirmationStatusProcessed}
}

// Failed is a landed transaction with an on-chain error.
func Failed(slot uint64, txErr interface{}) *rpc.SignatureStatusesResult {
	return &rpc.SignatureStatusesResult{Slot: slot, ConfirmationStatus: rpc.ConfirmationStatusConfirmed, Err: txErr}
}

// SetAccount stores data owned by owner at key.
func (c *Client) SetAccount(key, owner solana.PublicKey, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts[key] = &rpc.Account{
		Lamports: 1_000_000,
		Owner:    owner,
		Data:     rpc.DataBytesOrJSONFromBytes(append([]byte(nil), data...)),
	}
}

// DeleteAccount removes key.
func (c *Client) DeleteAccount(key solana.PublicKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.accounts, key)
}

// AccountData returns the stored bytes at key.
func (c *Client) AccountData(key solana.PublicKey) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	acc, ok := c.accounts[key]
	if !ok {
		return nil, false
	}
	return acc.Data.GetBinary(), true
}

// SetBalance sets the lamport balance of key.
func (c *Client) SetBalance(key solana.PublicKey, lamports uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[key] = lamports
}

// SetTokenBalance sets the raw amount held by token account key.
func (c *Client) SetTokenBalance(key solana.PublicKey, amount uint64, decimals uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokenBalances[key] = &rpc.UiTokenAmount{
		Amount:   strconv.FormatUint(amount, 10),
		Decimals: decimals,
	}
}

func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.BlockhashCalls++
	return c.Blockhash, ctx.Err()
}

func (c *Client) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	acc, ok := c.accounts[pubkey]
	if !ok {
		return nil, fmt.Errorf("%s: %w", pubkey, blockchain.ErrAccountNotFound)
	}
	return &rpc.GetAccountInfoResult{Value: acc}, nil
}

func (c *Client) GetMultipleAccounts(ctx context.Context, pubkeys []solana.PublicKey) (*rpc.GetMultipleAccountsResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := &rpc.GetMultipleAccountsResult{Value: make([]*rpc.Account, len(pubkeys))}
	for i, key := range pubkeys {
		out.Value[i] = c.accounts[key]
	}
	return out, nil
}

func (c *Client) GetProgramAccountsWithOpts(ctx context.Context, programID solana.PublicKey, opts *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.ProgramOpts = append(c.ProgramOpts, opts)

	var out rpc.GetProgramAccountsResult
	for key, acc := range c.accounts {
		if !acc.Owner.Equals(programID) {
			continue
		}
		data := acc.Data.GetBinary()
		if opts != nil && !matches(data, opts.Filters) {
			continue
		}
		if opts != nil && opts.DataSlice != nil {
			data = slice(data, opts.DataSlice)
		}
		out = append(out, &rpc.KeyedAccount{
			Pubkey: key,
			Account: &rpc.Account{
				Lamports: acc.Lamports,
				Owner:    acc.Owner,
				Data:     rpc.DataBytesOrJSONFromBytes(data),
			},
		})
	}
	return out, nil
}

func matches(data []byte, filters []rpc.RPCFilter) bool {
	for _, f := range filters {
		if f.DataSize != 0 && uint64(len(data)) != f.DataSize {
			return false
		}
		if f.Memcmp != nil {
			end := int(f.Memcmp.Offset) + len(f.Memcmp.Bytes)
			if end > len(data) || !bytes.Equal(data[f.Memcmp.Offset:end], f.Memcmp.Bytes) {
				return false
			}
		}
	}
	return true
}

func slice(data []byte, ds *rpc.DataSlice) []byte {
	var off, n uint64
	if ds.Offset != nil {
		off = *ds.Offset
	}
	n = uint64(len(data))
	if ds.Length != nil {
		n = *ds.Length
	}
	if off >= uint64(len(data)) {
		return []byte{}
	}
	if off+n > uint64(len(data)) {
		n = uint64(len(data)) - off
	}
	return append([]byte{}, data[off:off+n]...)
}

func (c *Client) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*blockchain.SimulationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Simulated = append(c.Simulated, tx)
	if c.SimErr != nil {
		return nil, c.SimErr
	}
	if c.SimResult != nil {
		return c.SimResult, nil
	}
	return &blockchain.SimulationResult{Logs: []string{"Program log: simulated"}, UnitsConsumed: 5000}, ctx.Err()
}

func (c *Client) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, _ blockchain.TransactionOptions) (solana.Signature, error) {
	c.mu.Lock()
	if err := ctx.Err(); err != nil {
		c.mu.Unlock()
		return solana.Signature{}, err
	}
	if c.SendErr != nil {
		c.mu.Unlock()
		return solana.Signature{}, c.SendErr
	}
	c.Sent = append(c.Sent, tx)
	hook := c.OnSend
	c.mu.Unlock()

	if hook != nil {
		hook(tx)
	}
	if len(tx.Signatures) == 0 {
		return solana.Signature{}, fmt.Errorf("transaction is not signed")
	}
	return tx.Signatures[0], nil
}

func (c *Client) GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.StatusErr != nil {
		return nil, c.StatusErr
	}
	var st *rpc.SignatureStatusesResult
	if len(c.Statuses) > 0 {
		idx := c.statusPollCount
		if idx >= len(c.Statuses) {
			idx = len(c.Statuses) - 1
		}
		st = c.Statuses[idx]
	}
	c.statusPollCount++
	out := &rpc.GetSignatureStatusesResult{Value: make([]*rpc.SignatureStatusesResult, len(signatures))}
	for i := range signatures {
		out.Value[i] = st
	}
	return out, nil
}

// StatusPolls returns how many status requests were made.
func (c *Client) StatusPolls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusPollCount
}

func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey, _ rpc.CommitmentType) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[pubkey], ctx.Err()
}

func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*rpc.GetTokenAccountBalanceResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	amount, ok := c.tokenBalances[account]
	if !ok {
		return nil, fmt.Errorf("%s: %w", account, blockchain.ErrAccountNotFound)
	}
	return &rpc.GetTokenAccountBalanceResult{Value: amount}, nil
}

var _ blockchain.Client = (*Client)(nil)
