// cmd/vibes/cmd_status.go
package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/vibes-presale/internal/dapp"
	"github.com/rovshanmuradov/vibes-presale/internal/program"
	"github.com/rovshanmuradov/vibes-presale/internal/state"
)

type presaleView struct {
	Address      string  `json:"address"`
	Phase        string  `json:"phase"`
	Start        string  `json:"start"`
	End          string  `json:"end"`
	TierPriceUSD float64 `json:"tier_price_usd"`
	NextTierIn   string  `json:"next_tier_in,omitempty"`
	Sold         string  `json:"sold_vibes"`
	HardCap      string  `json:"hard_cap_vibes"`
	Progress     float64 `json:"progress"`
	RaisedSOL    string  `json:"raised_sol"`
	RaisedUSDC   string  `json:"raised_usdc"`
	Staking      bool    `json:"optional_staking"`
	StakingAPY   float64 `json:"staking_apy_percent"`
	MintOnBuy    bool    `json:"mint_on_purchase"`
}

func newPresaleView(addr solana.PublicKey, p *program.PresaleState, d program.Decimals, now time.Time) presaleView {
	v := presaleView{
		Address:    addr.String(),
		Phase:      string(p.Phase(now)),
		Start:      time.Unix(p.StartTs, 0).UTC().Format(time.RFC3339),
		End:        time.Unix(p.EndTs, 0).UTC().Format(time.RFC3339),
		Sold:       program.FormatAmount(p.TotalVibesSold, d.VIBES, 2),
		HardCap:    program.FormatAmount(p.HardCapTotal, d.VIBES, 2),
		Progress:   p.Progress(),
		RaisedSOL:  program.FormatAmount(p.RaisedSol, d.SOL, 4),
		RaisedUSDC: program.FormatAmount(p.RaisedUsdc, d.USDC, 2),
		Staking:    p.OptionalStaking,
		StakingAPY: float64(p.StakingApyBps) / 100,
		MintOnBuy:  p.UseMintAuthority,
	}
	if tier, ok := p.CurrentTier(now); ok {
		v.TierPriceUSD = tier.PriceUSD
	}
	if left, ok := p.TimeUntilNextTier(now); ok {
		v.NextTierIn = left.Truncate(time.Second).String()
	}
	return v
}

type walletView struct {
	Owner          string `json:"owner"`
	BuyerAccount   string `json:"buyer_account"`
	VestingAccount string `json:"vesting_account"`
	SOL            string `json:"sol"`
	USDC           string `json:"usdc"`
	VIBES          string `json:"vibes"`
	Purchased      string `json:"purchased_vibes,omitempty"`
	Staked         string `json:"staked_vibes,omitempty"`
	Unstaked       string `json:"unstaked_vibes,omitempty"`
	Rewards        string `json:"pending_rewards,omitempty"`
	Purchases      uint32 `json:"purchase_count"`
	VestingStatus  string `json:"vesting_status"`
	Claimable      string `json:"claimable_vibes,omitempty"`
	VestedPercent  uint64 `json:"vested_percent,omitempty"`
}

func newWalletView(s *state.Snapshot, d program.Decimals, now time.Time) walletView {
	v := walletView{
		Owner:          s.Owner.String(),
		BuyerAccount:   s.BuyerAddress.String(),
		VestingAccount: s.VestingAddress.String(),
		SOL:            program.FormatAmount(s.SOLLamports, d.SOL, 4),
		USDC:           program.FormatAmount(s.USDCUnits, d.USDC, 2),
		VIBES:          program.FormatAmount(s.VIBESUnits, d.VIBES, 2),
		VestingStatus:  string(s.VestingStatus()),
	}
	if b := s.Buyer; b != nil {
		v.Purchased = program.FormatAmount(b.TotalPurchasedVibes, d.VIBES, 2)
		v.Staked = program.FormatAmount(b.StakedAmount, d.VIBES, 2)
		v.Unstaked = program.FormatAmount(b.UnstakedAmount, d.VIBES, 2)
		v.Purchases = b.PurchaseCount
		if s.Presale != nil {
			v.Rewards = program.FormatAmount(b.PendingRewards(s.Presale.AccRewardPerToken), d.VIBES, 2)
		}
	}
	if s.Vesting != nil {
		st := s.Vesting.Status(now)
		v.Claimable = program.FormatAmount(st.Claimable, d.VIBES, 2)
		v.VestedPercent = st.Percent
	}
	return v
}

func (v presaleView) rows() [][2]string {
	rows := [][2]string{
		{"Presale", v.Address},
		{"Phase", v.Phase},
		{"Window", v.Start + " .. " + v.End},
		{"Tier price", fmt.Sprintf("$%g", v.TierPriceUSD)},
	}
	if v.NextTierIn != "" {
		rows = append(rows, [2]string{"Next tier in", v.NextTierIn})
	}
	rows = append(rows,
		[2]string{"Sold", fmt.Sprintf("%s / %s VIBES (%.1f%%)", v.Sold, v.HardCap, v.Progress*100)},
		[2]string{"Raised", v.RaisedSOL + " SOL, " + v.RaisedUSDC + " USDC"},
	)
	if v.Staking {
		rows = append(rows, [2]string{"Staking", fmt.Sprintf("optional, %.2f%% APY", v.StakingAPY)})
	}
	return rows
}

func (v walletView) rows() [][2]string {
	rows := [][2]string{
		{"Wallet", v.Owner},
		{"Buyer account", v.BuyerAccount},
		{"Balances", fmt.Sprintf("%s SOL, %s USDC, %s VIBES", v.SOL, v.USDC, v.VIBES)},
	}
	if v.Purchased != "" {
		rows = append(rows,
			[2]string{"Purchased", fmt.Sprintf("%s VIBES in %d purchases", v.Purchased, v.Purchases)},
			[2]string{"Staked", v.Staked},
			[2]string{"Unstaked", v.Unstaked},
		)
	}
	if v.Rewards != "" {
		rows = append(rows, [2]string{"Rewards", v.Rewards})
	}
	rows = append(rows, [2]string{"Vesting", v.VestingStatus})
	if v.Claimable != "" {
		rows = append(rows, [2]string{"Claimable", fmt.Sprintf("%s (%d%% vested)", v.Claimable, v.VestedPercent)})
	}
	return rows
}

func createStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show presale state and the connected wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *app) error {
				snap, err := a.client.Snapshot(ctx)
				if err != nil {
					return err
				}
				if snap.Presale == nil {
					return fmt.Errorf("%w: presale account %s not found", program.ErrPreconditionFailed, a.client.Programs().PresaleState)
				}
				now := time.Now()
				d := a.client.Decimals()
				out := struct {
					Presale presaleView `json:"presale"`
					Wallet  *walletView `json:"wallet,omitempty"`
				}{Presale: newPresaleView(a.client.Programs().PresaleState, snap.Presale, d, now)}
				if !snap.Owner.IsZero() {
					wv := newWalletView(snap, d, now)
					out.Wallet = &wv
				}
				p := getPrinter()
				return p.Emit(out, func() {
					p.Table(out.Presale.rows())
					if out.Wallet != nil {
						p.Textf("\n")
						p.Table(out.Wallet.rows())
					}
				})
			})
		},
	}
}

func createBuyerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buyer [address]",
		Short: "Show the purchase ledger of a wallet",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, len(args) == 0, func(ctx context.Context, a *app) error {
				owner, err := ownerArg(a, args)
				if err != nil {
					return err
				}
				snap, err := a.client.Reader().Snapshot(ctx, owner)
				if err != nil {
					return err
				}
				v := newWalletView(snap, a.client.Decimals(), time.Now())
				p := getPrinter()
				return p.Emit(v, func() { p.Table(v.rows()) })
			})
		},
	}
}

func createPDACmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pda [address]",
		Short: "Derive buyer, vesting and token accounts of a wallet",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, len(args) == 0, func(ctx context.Context, a *app) error {
				owner, err := ownerArg(a, args)
				if err != nil {
					return err
				}
				d := a.client.Deriver()
				progs := a.client.Programs()
				buyer, err := d.Buyer(owner)
				if err != nil {
					return err
				}
				vesting, err := d.Vesting(owner)
				if err != nil {
					return err
				}
				vibesATA, err := d.ATA(owner, progs.VibesMint)
				if err != nil {
					return err
				}
				usdcATA, err := d.ATA(owner, progs.UsdcMint)
				if err != nil {
					return err
				}
				out := map[string]string{
					"owner":        owner.String(),
					"buyer":        buyer.Key.String(),
					"buyer_bump":   strconv.Itoa(int(buyer.Bump)),
					"vesting":      vesting.Key.String(),
					"vesting_bump": strconv.Itoa(int(vesting.Bump)),
					"vibes_ata":    vibesATA.String(),
					"usdc_ata":     usdcATA.String(),
				}
				p := getPrinter()
				return p.Emit(out, func() {
					p.Table([][2]string{
						{"Owner", owner.String()},
						{"Buyer", fmt.Sprintf("%s (bump %d)", buyer.Key, buyer.Bump)},
						{"Vesting", fmt.Sprintf("%s (bump %d)", vesting.Key, vesting.Bump)},
						{"VIBES ATA", vibesATA.String()},
						{"USDC ATA", usdcATA.String()},
					})
				})
			})
		},
	}
}

func createPriceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "price",
		Short: "Show the SOL/USD price used for quotes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *app) error {
				price, err := a.client.SOLPrice(ctx)
				if err != nil {
					return err
				}
				p := getPrinter()
				return p.Emit(price, func() {
					suffix := ""
					if price.Fallback {
						suffix = " (fallback)"
					}
					p.Textf("SOL/USD %.2f from %s%s\n", price.SOLUSD, price.Source, suffix)
				})
			})
		},
	}
}

func createQuoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote <sol|usdc> <amount>",
		Short: "Estimate how many VIBES an amount buys at the current tier",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			currency := dapp.Currency(strings.ToUpper(args[0]))
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, false, func(ctx context.Context, a *app) error {
				q, err := a.client.Quote(ctx, currency, amount)
				if err != nil {
					return err
				}
				p := getPrinter()
				return p.Emit(q, func() {
					p.Textf("%g %s buys %s VIBES at $%g per VIBES", q.Amount, q.Currency, q.Vibes.String(), q.TierPriceUSD)
					if q.Currency == dapp.SOL {
						p.Textf(" (SOL/USD %.2f from %s)", q.SOLUSD, q.PriceSource)
					}
					p.Textf("\n")
				})
			})
		},
	}
}

// ownerArg returns the address argument or the connected wallet.
func ownerArg(a *app, args []string) (solana.PublicKey, error) {
	if len(args) == 1 {
		key, err := solana.PublicKeyFromBase58(args[0])
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("%w: address %q: %v", program.ErrInvalidArgument, args[0], err)
		}
		return key, nil
	}
	w, err := a.client.Session().Current()
	if err != nil {
		return solana.PublicKey{}, err
	}
	return w.PublicKey(), nil
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q is not a number", program.ErrInvalidAmount, s)
	}
	return v, nil
}
