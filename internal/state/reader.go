// Package state reads and decodes presale, buyer and vesting accounts.
package state

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/vibes-presale/internal/blockchain"
	"github.com/rovshanmuradov/vibes-presale/internal/codec"
	"github.com/rovshanmuradov/vibes-presale/internal/pda"
	"github.com/rovshanmuradov/vibes-presale/internal/program"
)

// Reader loads on-chain accounts. A missing account is reported as a nil
// record with a nil error.
type Reader struct {
	client   blockchain.AccountReader
	programs program.Programs
	deriver  *pda.Deriver
	logger   *zap.Logger
	now      func() time.Time
}

func NewReader(client blockchain.AccountReader, programs program.Programs, deriver *pda.Deriver, logger *zap.Logger) *Reader {
	return &Reader{
		client:   client,
		programs: programs,
		deriver:  deriver,
		logger:   logger.Named("state"),
		now:      time.Now,
	}
}

// fetch returns raw account data or nil when the account does not exist.
func (r *Reader) fetch(ctx context.Context, key solana.PublicKey) ([]byte, error) {
	info, err := r.client.GetAccountInfo(ctx, key)
	if errors.Is(err, blockchain.ErrAccountNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", key, err)
	}
	if info == nil || info.Value == nil || info.Value.Data == nil {
		return nil, nil
	}
	return info.Value.Data.GetBinary(), nil
}

// Presale loads the global presale state.
func (r *Reader) Presale(ctx context.Context) (*program.PresaleState, error) {
	data, err := r.fetch(ctx, r.programs.PresaleState)
	if err != nil || data == nil {
		return nil, err
	}
	st, err := program.DecodePresaleState(data)
	if err != nil {
		return nil, fmt.Errorf("presale state %s: %w", r.programs.PresaleState, err)
	}
	return st, nil
}

// Buyer loads the ledger of owner.
func (r *Reader) Buyer(ctx context.Context, owner solana.PublicKey) (*program.BuyerState, error) {
	addr, err := r.deriver.Buyer(owner)
	if err != nil {
		return nil, err
	}
	data, err := r.fetch(ctx, addr.Key)
	if err != nil || data == nil {
		return nil, err
	}
	b, err := program.DecodeBuyerState(data)
	if err != nil {
		return nil, fmt.Errorf("buyer state %s: %w", addr.Key, err)
	}
	return b, nil
}

// Vesting loads the vesting schedule of beneficiary.
func (r *Reader) Vesting(ctx context.Context, beneficiary solana.PublicKey) (*program.VestingSchedule, error) {
	addr, err := r.deriver.Vesting(beneficiary)
	if err != nil {
		return nil, err
	}
	data, err := r.fetch(ctx, addr.Key)
	if err != nil || data == nil {
		return nil, err
	}
	v, err := program.DecodeVestingSchedule(data)
	if err != nil {
		return nil, fmt.Errorf("vesting schedule %s: %w", addr.Key, err)
	}
	return v, nil
}

// TokenBalance returns the raw amount held in the owner's ATA for mint.
// A missing ATA is a zero balance.
func (r *Reader) TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error) {
	ata, err := r.deriver.ATA(owner, mint)
	if err != nil {
		return 0, err
	}
	res, err := r.client.GetTokenAccountBalance(ctx, ata)
	if errors.Is(err, blockchain.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("token balance %s: %w", ata, err)
	}
	if res == nil || res.Value == nil {
		return 0, nil
	}
	amount, err := strconv.ParseUint(res.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: token amount %q: %v", codec.ErrDecodeFailed, res.Value.Amount, err)
	}
	return amount, nil
}

// BuyerCount counts ledger accounts without downloading their data.
func (r *Reader) BuyerCount(ctx context.Context) (int, error) {
	zero := uint64(0)
	accounts, err := r.client.GetProgramAccountsWithOpts(ctx, r.programs.Presale, &rpc.GetProgramAccountsOpts{
		Commitment: rpc.CommitmentConfirmed,
		Encoding:   solana.EncodingBase64,
		DataSlice:  &rpc.DataSlice{Offset: &zero, Length: &zero},
		Filters:    []rpc.RPCFilter{{DataSize: program.BuyerStateSize}},
	})
	if err != nil {
		return 0, fmt.Errorf("count buyers: %w", err)
	}
	return len(accounts), nil
}

// BuyerRecord is a decoded ledger and its address.
type BuyerRecord struct {
	Address solana.PublicKey
	State   *program.BuyerState
}

// Buyers decodes every ledger account. Accounts that fail to decode are
// skipped and logged.
func (r *Reader) Buyers(ctx context.Context) ([]BuyerRecord, error) {
	accounts, err := r.client.GetProgramAccountsWithOpts(ctx, r.programs.Presale, &rpc.GetProgramAccountsOpts{
		Commitment: rpc.CommitmentConfirmed,
		Encoding:   solana.EncodingBase64,
		Filters: []rpc.RPCFilter{
			{DataSize: program.BuyerStateSize},
			{Memcmp: &rpc.RPCFilterMemcmp{
				Offset: 0,
				Bytes:  solana.Base58(program.BuyerStateLayout.Discriminator),
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("list buyers: %w", err)
	}

	out := make([]BuyerRecord, 0, len(accounts))
	for _, acc := range accounts {
		if acc == nil || acc.Account == nil || acc.Account.Data == nil {
			continue
		}
		b, err := program.DecodeBuyerState(acc.Account.Data.GetBinary())
		if err != nil {
			r.logger.Warn("Skipping undecodable buyer account",
				zap.String("address", acc.Pubkey.String()),
				zap.Error(err))
			continue
		}
		out = append(out, BuyerRecord{Address: acc.Pubkey, State: b})
	}
	return out, nil
}

// Snapshot is everything the client shows for one wallet, read at one moment.
type Snapshot struct {
	Owner          solana.PublicKey
	BuyerAddress   solana.PublicKey
	VestingAddress solana.PublicKey

	Presale *program.PresaleState
	Buyer   *program.BuyerState
	Vesting *program.VestingSchedule

	SOLLamports uint64
	USDCUnits   uint64
	VIBESUnits  uint64

	FetchedAt time.Time
}

// VestingStatus summarises the vesting position.
func (s *Snapshot) VestingStatus() program.VestingStatus {
	return program.ResolveVestingStatus(s.Buyer, s.Vesting)
}

// Snapshot reads presale, ledger, vesting and balances of owner concurrently.
// A zero owner loads the presale state only.
func (r *Reader) Snapshot(ctx context.Context, owner solana.PublicKey) (*Snapshot, error) {
	snap := &Snapshot{Owner: owner}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st, err := r.Presale(gctx)
		snap.Presale = st
		return err
	})

	if !owner.IsZero() {
		buyerAddr, err := r.deriver.Buyer(owner)
		if err != nil {
			return nil, err
		}
		vestingAddr, err := r.deriver.Vesting(owner)
		if err != nil {
			return nil, err
		}
		snap.BuyerAddress, snap.VestingAddress = buyerAddr.Key, vestingAddr.Key

		g.Go(func() error {
			b, err := r.Buyer(gctx, owner)
			snap.Buyer = b
			return err
		})
		g.Go(func() error {
			v, err := r.Vesting(gctx, owner)
			snap.Vesting = v
			return err
		})
		g.Go(func() error {
			lamports, err := r.client.GetBalance(gctx, owner, rpc.CommitmentConfirmed)
			if err != nil {
				return fmt.Errorf("sol balance: %w", err)
			}
			snap.SOLLamports = lamports
			return nil
		})
		g.Go(func() error {
			units, err := r.TokenBalance(gctx, owner, r.programs.UsdcMint)
			snap.USDCUnits = units
			return err
		})
		g.Go(func() error {
			units, err := r.TokenBalance(gctx, owner, r.programs.VibesMint)
			snap.VIBESUnits = units
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	snap.FetchedAt = r.now()

	r.logger.Debug("Snapshot loaded",
		zap.String("owner", owner.String()),
		zap.Bool("presale", snap.Presale != nil),
		zap.Bool("buyer", snap.Buyer != nil),
		zap.Bool("vesting", snap.Vesting != nil))
	return snap, nil
}
