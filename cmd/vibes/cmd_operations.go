// cmd/vibes/cmd_operations.go
package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/vibes-presale/internal/dapp"
)

const explorerTxURL = "https://solscan.io/tx/"

type outcomeView struct {
	ID        string `json:"id"`
	Method    string `json:"method"`
	Signature string `json:"signature,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Kind      string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
}

type operationFunc func(ctx context.Context, c *dapp.Client, args []string) (*dapp.Outcome, error)

// operationCmd wraps a state-changing call: it requires a wallet and prints
// the signature even when confirmation fails after submission.
func operationCmd(use, short string, nargs int, fn operationFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, func(ctx context.Context, a *app) error {
				out, err := fn(ctx, a.client, args)
				return printOutcome(out, err)
			})
		},
	}
}

func printOutcome(out *dapp.Outcome, err error) error {
	if out == nil {
		return err
	}
	v := outcomeView{ID: out.ID, Method: string(out.Method), Kind: string(out.Kind)}
	if sig := out.Signature(); !sig.IsZero() {
		v.Signature = sig.String()
	}
	if out.Result != nil {
		v.Stage = string(out.Result.Stage)
	}
	if err != nil {
		v.Error = dapp.Message(err)
	}

	p := getPrinter()
	if p.JSONMode() {
		if encErr := p.JSON(v); encErr != nil {
			return errors.Join(err, encErr)
		}
		return err
	}
	if err == nil {
		p.Textf("%s confirmed\n", v.Method)
	}
	if v.Signature != "" {
		p.Textf("Signature: %s\nExplorer:  %s%s\n", v.Signature, explorerTxURL, v.Signature)
	}
	return err
}

func createOperationCmds() []*cobra.Command {
	var buySOLStake, buyUSDCStake bool

	buySOL := operationCmd("buy-sol <amount>", "Buy VIBES with SOL", 1,
		func(ctx context.Context, c *dapp.Client, args []string) (*dapp.Outcome, error) {
			amount, err := parseAmount(args[0])
			if err != nil {
				return nil, err
			}
			return c.BuyWithSOL(ctx, amount, buySOLStake)
		})
	buySOL.Flags().BoolVar(&buySOLStake, "stake", false, "Stake the purchased VIBES")

	buyUSDC := operationCmd("buy-usdc <amount>", "Buy VIBES with USDC", 1,
		func(ctx context.Context, c *dapp.Client, args []string) (*dapp.Outcome, error) {
			amount, err := parseAmount(args[0])
			if err != nil {
				return nil, err
			}
			return c.BuyWithUSDC(ctx, amount, buyUSDCStake)
		})
	buyUSDC.Flags().BoolVar(&buyUSDCStake, "stake", false, "Stake the purchased VIBES")

	return []*cobra.Command{
		buySOL,
		buyUSDC,
		operationCmd("stake <amount>", "Move unstaked VIBES into staking", 1,
			func(ctx context.Context, c *dapp.Client, args []string) (*dapp.Outcome, error) {
				amount, err := parseAmount(args[0])
				if err != nil {
					return nil, err
				}
				return c.OptIntoStaking(ctx, amount)
			}),
		operationCmd("unstake <amount>", "Move staked VIBES out of staking", 1,
			func(ctx context.Context, c *dapp.Client, args []string) (*dapp.Outcome, error) {
				amount, err := parseAmount(args[0])
				if err != nil {
					return nil, err
				}
				return c.OptOutOfStaking(ctx, amount)
			}),
		operationCmd("claim-rewards", "Claim pending staking rewards", 0,
			func(ctx context.Context, c *dapp.Client, _ []string) (*dapp.Outcome, error) {
				return c.ClaimStakingRewards(ctx)
			}),
		operationCmd("transfer-vesting", "Move purchased VIBES into a vesting schedule", 0,
			func(ctx context.Context, c *dapp.Client, _ []string) (*dapp.Outcome, error) {
				return c.TransferToVesting(ctx)
			}),
		operationCmd("claim-tokens", "Claim purchased VIBES after finalization", 0,
			func(ctx context.Context, c *dapp.Client, _ []string) (*dapp.Outcome, error) {
				return c.ClaimTokens(ctx)
			}),
		operationCmd("claim-vesting", "Claim vested VIBES", 0,
			func(ctx context.Context, c *dapp.Client, _ []string) (*dapp.Outcome, error) {
				return c.ClaimVesting(ctx)
			}),
	}
}
