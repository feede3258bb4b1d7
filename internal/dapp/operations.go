// internal/dapp/operations.go
package dapp

import (
	"context"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/vibes-presale/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/vibes-presale/internal/events"
	"github.com/rovshanmuradov/vibes-presale/internal/oracle"
	"github.com/rovshanmuradov/vibes-presale/internal/program"
	"github.com/rovshanmuradov/vibes-presale/internal/state"
	applog "github.com/rovshanmuradov/vibes-presale/internal/utils/logger"
)

// feeReserveLamports is kept back from a SOL purchase to pay the network fee.
const feeReserveLamports = 10_000

// Outcome is one user operation. It is returned with errors too, so the
// caller can show the signature of a transaction whose fate is unknown.
type Outcome struct {
	ID     string
	Method program.Method
	Result *transaction.Result
	Kind   Kind
}

// Signature returns the submitted signature, if any.
func (o *Outcome) Signature() solana.Signature {
	if o == nil || o.Result == nil {
		return solana.Signature{}
	}
	return o.Result.Signature
}

type operation struct {
	method   program.Method
	amount   float64
	stake    bool
	enabled  func(Features) bool
	validate func(ctx context.Context, snap *state.Snapshot) error
}

// BuyWithSOL buys VIBES for amount SOL, optionally opting the tokens into staking.
func (c *Client) BuyWithSOL(ctx context.Context, amount float64, stake bool) (*Outcome, error) {
	return c.run(ctx, operation{
		method: program.MethodBuyWithSol,
		amount: amount,
		stake:  stake,
		validate: func(ctx context.Context, snap *state.Snapshot) error {
			if err := c.validatePurchase(snap, amount, c.opts.Limits.MinPurchaseSOL, "SOL", stake); err != nil {
				return err
			}
			lamports, err := program.ScaleAmount(amount, c.opts.Decimals.SOL)
			if err != nil {
				return err
			}
			if snap.SOLLamports < lamports+feeReserveLamports {
				return invalid("amount", "insufficient SOL balance: have %s, need %s plus fees",
					program.FormatAmount(snap.SOLLamports, c.opts.Decimals.SOL, 4), decimal.NewFromFloat(amount))
			}
			price, err := c.SOLPrice(ctx)
			if err != nil {
				return err
			}
			q, err := quoteAt(snap.Presale, c.now(), SOL, amount, price, c.opts.Decimals.VIBES)
			if err != nil {
				return err
			}
			return c.validateCap(snap, q)
		},
	})
}

// BuyWithUSDC buys VIBES for amount USDC.
func (c *Client) BuyWithUSDC(ctx context.Context, amount float64, stake bool) (*Outcome, error) {
	return c.run(ctx, operation{
		method:  program.MethodBuyWithUsdc,
		amount:  amount,
		stake:   stake,
		enabled: func(f Features) bool { return f.USDC },
		validate: func(_ context.Context, snap *state.Snapshot) error {
			if err := c.validatePurchase(snap, amount, c.opts.Limits.MinPurchaseUSDC, "USDC", stake); err != nil {
				return err
			}
			units, err := program.ScaleAmount(amount, c.opts.Decimals.USDC)
			if err != nil {
				return err
			}
			if snap.USDCUnits < units {
				return invalid("amount", "insufficient USDC balance: have %s",
					program.FormatAmount(snap.USDCUnits, c.opts.Decimals.USDC, 2))
			}
			q, err := quoteAt(snap.Presale, c.now(), USDC, amount, oracle.Price{}, c.opts.Decimals.VIBES)
			if err != nil {
				return err
			}
			return c.validateCap(snap, q)
		},
	})
}

// OptIntoStaking stakes amount of the wallet's unstaked VIBES.
func (c *Client) OptIntoStaking(ctx context.Context, amount float64) (*Outcome, error) {
	return c.run(ctx, operation{
		method:  program.MethodOptIntoStaking,
		amount:  amount,
		enabled: func(f Features) bool { return f.Staking },
		validate: func(_ context.Context, snap *state.Snapshot) error {
			if !snap.Presale.OptionalStaking {
				return invalid("staking", "optional staking is disabled")
			}
			return c.validateStakeAmount(snap, amount, func(b *program.BuyerState) uint64 { return b.UnstakedAmount }, "unstaked")
		},
	})
}

// OptOutOfStaking unstakes amount of the wallet's staked VIBES.
func (c *Client) OptOutOfStaking(ctx context.Context, amount float64) (*Outcome, error) {
	return c.run(ctx, operation{
		method:  program.MethodOptOutOfStaking,
		amount:  amount,
		enabled: func(f Features) bool { return f.Staking },
		validate: func(_ context.Context, snap *state.Snapshot) error {
			return c.validateStakeAmount(snap, amount, func(b *program.BuyerState) uint64 { return b.StakedAmount }, "staked")
		},
	})
}

// ClaimStakingRewards pays out accrued staking rewards.
func (c *Client) ClaimStakingRewards(ctx context.Context) (*Outcome, error) {
	return c.run(ctx, operation{
		method:  program.MethodClaimStakingRewards,
		enabled: func(f Features) bool { return f.Staking },
		validate: func(_ context.Context, snap *state.Snapshot) error {
			if snap.Buyer != nil && snap.Buyer.PendingRewards(snap.Presale.AccRewardPerToken) == 0 {
				return invalid("rewards", "no rewards to claim")
			}
			return nil
		},
	})
}

// TransferToVesting moves the purchased allocation into the vesting vault.
func (c *Client) TransferToVesting(ctx context.Context) (*Outcome, error) {
	return c.run(ctx, operation{
		method:  program.MethodTransferToVesting,
		enabled: func(f Features) bool { return f.Vesting },
		validate: func(_ context.Context, snap *state.Snapshot) error {
			if !snap.Presale.IsFinalized {
				return invalid("presale", "not finalized yet")
			}
			if snap.Buyer != nil && snap.Buyer.TransferredToVesting {
				return invalid("vesting", "already transferred")
			}
			return nil
		},
	})
}

// ClaimTokens claims purchased tokens directly after finalization.
func (c *Client) ClaimTokens(ctx context.Context) (*Outcome, error) {
	return c.run(ctx, operation{
		method: program.MethodClaimTokens,
		validate: func(_ context.Context, snap *state.Snapshot) error {
			if !snap.Presale.IsFinalized {
				return invalid("presale", "not finalized yet")
			}
			return nil
		},
	})
}

// ClaimVesting releases whatever the vesting schedule has unlocked.
func (c *Client) ClaimVesting(ctx context.Context) (*Outcome, error) {
	return c.run(ctx, operation{
		method:  program.MethodVestingClaim,
		enabled: func(f Features) bool { return f.Vesting },
		validate: func(_ context.Context, snap *state.Snapshot) error {
			v := snap.Vesting
			if v == nil {
				return nil
			}
			if v.IsCancelled {
				return invalid("vesting", "schedule was cancelled")
			}
			if v.Claimable(c.now()) == 0 {
				return invalid("vesting", "nothing to claim yet")
			}
			return nil
		},
	})
}

func (c *Client) run(ctx context.Context, op operation) (*Outcome, error) {
	out := &Outcome{ID: uuid.New().String(), Method: op.method}
	logger := applog.ForOperation(c.logger, out.ID, string(op.method))

	if op.enabled != nil && !op.enabled(c.opts.Features) {
		return out, c.fail(ctx, out, "", fmt.Errorf("%w: %s", ErrFeatureDisabled, op.method))
	}
	w, err := c.session.Current()
	if err != nil {
		return out, c.fail(ctx, out, "", err)
	}
	owner := w.PublicKey().String()

	snap, err := c.reader.Snapshot(ctx, w.PublicKey())
	if err != nil {
		return out, c.fail(ctx, out, owner, err)
	}
	if snap.Presale == nil {
		return out, c.fail(ctx, out, owner, &program.PreconditionError{
			Account: "presale state",
			Reason:  program.CannotInfer,
			Hint:    "check the configured presale_state address",
		})
	}
	if op.validate != nil {
		if err := op.validate(ctx, snap); err != nil {
			return out, c.fail(ctx, out, owner, err)
		}
	}

	ix, err := c.builder.Build(program.Request{
		Method:  op.method,
		Signer:  w.PublicKey(),
		Amount:  op.amount,
		Stake:   op.stake,
		Presale: snap.Presale,
		Buyer:   snap.Buyer,
		Vesting: snap.Vesting,
		Vaults:  c.opts.Vaults,
	})
	if err != nil {
		return out, c.fail(ctx, out, owner, err)
	}

	c.publish(events.OperationStartedEvent{
		BaseEvent:   events.NewBase(events.OperationStarted),
		OperationID: out.ID,
		Method:      string(op.method),
		Wallet:      owner,
		Amount:      op.amount,
	})
	logger.Info("Operation started", zap.Float64("amount", op.amount), zap.Bool("stake", op.stake))

	res, err := c.orch.Execute(ctx, w, string(op.method), ix)
	out.Result = res
	if err != nil {
		return out, c.fail(ctx, out, owner, err)
	}

	c.publishSync(ctx, events.OperationCompletedEvent{
		BaseEvent:   events.NewBase(events.OperationCompleted),
		OperationID: out.ID,
		Method:      string(op.method),
		Wallet:      owner,
		Signature:   res.Signature.String(),
		Duration:    res.Duration,
	})
	logger.Info("Operation confirmed",
		zap.String("signature", res.Signature.String()),
		zap.Duration("duration", res.Duration))
	return out, nil
}

func (c *Client) fail(ctx context.Context, out *Outcome, owner string, err error) error {
	out.Kind = Classify(err)
	ev := events.OperationFailedEvent{
		BaseEvent:   events.NewBase(events.OperationFailed),
		OperationID: out.ID,
		Method:      string(out.Method),
		Wallet:      owner,
		Kind:        string(out.Kind),
		Error:       err,
	}
	if sig := out.Signature(); !sig.IsZero() {
		ev.Signature = sig.String()
	}
	c.publishSync(ctx, ev)

	logger := applog.ForOperation(c.logger, out.ID, string(out.Method))
	fields := []zap.Field{zap.String("kind", string(out.Kind)), zap.Error(err)}
	if out.Kind == KindUserCancelled {
		logger.Info("Operation cancelled", fields...)
	} else {
		logger.Warn("Operation failed", fields...)
	}
	return err
}

func (c *Client) publishSync(ctx context.Context, ev events.Event) {
	// A cancelled caller still gets its outcome recorded.
	if err := c.bus.PublishSync(context.WithoutCancel(ctx), ev); err != nil {
		c.logger.Debug("Event handler failed", zap.String("event_type", string(ev.Type())), zap.Error(err))
	}
}

func positive(field string, amount float64) error {
	if !(amount > 0) || math.IsInf(amount, 1) {
		return invalid(field, "must be a number greater than zero")
	}
	return nil
}

func (c *Client) validatePurchase(snap *state.Snapshot, amount, minimum float64, unit string, stake bool) error {
	if err := positive("amount", amount); err != nil {
		return err
	}
	if amount < minimum {
		return invalid("amount", "minimum purchase is %s %s", decimal.NewFromFloat(minimum), unit)
	}
	now := c.now()
	if !snap.Presale.IsActive(now) {
		return invalid("presale", "not active (%s)", snap.Presale.Phase(now))
	}
	if stake && (!c.opts.Features.Staking || !snap.Presale.OptionalStaking) {
		return invalid("stake", "staking is not available")
	}
	return nil
}

// validateCap checks the business per-wallet cap, which is stricter than
// the program's technical cap, and the remaining hard cap.
func (c *Client) validateCap(snap *state.Snapshot, q *Quote) error {
	dec := c.opts.Decimals.VIBES
	held := decimal.Zero
	if snap.Buyer != nil {
		held = program.UnscaleAmount(snap.Buyer.TotalPurchasedVibes, dec)
	}
	limit := decimal.NewFromFloat(c.opts.Limits.MaxVibesPerWallet)
	if tech := decimal.NewFromFloat(c.opts.Limits.TechnicalCapVibes); tech.IsPositive() && tech.LessThan(limit) {
		limit = tech
	}
	if held.Add(q.Vibes).GreaterThan(limit) {
		return invalid("amount", "would exceed the per-wallet limit of %s VIBES (held %s, buying %s)",
			limit, held.StringFixed(2), q.Vibes.StringFixed(2))
	}
	if snap.Presale.HardCapTotal > 0 {
		remaining := program.UnscaleAmount(snap.Presale.RemainingCap(), dec)
		if q.Vibes.GreaterThan(remaining) {
			return invalid("amount", "only %s VIBES left in the presale", remaining.StringFixed(2))
		}
	}
	return nil
}

func (c *Client) validateStakeAmount(snap *state.Snapshot, amount float64, available func(*program.BuyerState) uint64, what string) error {
	if err := positive("amount", amount); err != nil {
		return err
	}
	if snap.Buyer == nil {
		return nil
	}
	units, err := program.ScaleAmount(amount, c.opts.Decimals.VIBES)
	if err != nil {
		return err
	}
	if have := available(snap.Buyer); units > have {
		return invalid("amount", "only %s %s VIBES available",
			program.FormatAmount(have, c.opts.Decimals.VIBES, 2), what)
	}
	return nil
}

var operationTitles = map[program.Method]string{
	program.MethodBuyWithSol:          "Buy with SOL",
	program.MethodBuyWithUsdc:         "Buy with USDC",
	program.MethodOptIntoStaking:      "Stake",
	program.MethodOptOutOfStaking:     "Unstake",
	program.MethodClaimStakingRewards: "Claim rewards",
	program.MethodTransferToVesting:   "Transfer to vesting",
	program.MethodClaimTokens:         "Claim tokens",
	program.MethodVestingClaim:        "Claim vested tokens",
}

func operationTitle(method string) string {
	if t, ok := operationTitles[program.Method(method)]; ok {
		return t
	}
	return method
}
