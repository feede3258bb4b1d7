package program

import (
	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/vibes-presale/internal/codec"
)

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func samplePresale() *PresaleState {
	return &PresaleState{
		Authority:            newKey(),
		TokenMint:            DefaultVibesMint,
		UsdcMint:             DefaultUsdcMint,
		Bump:                 255,
		PresaleTokenVault:    newKey(),
		RewardsTokenVault:    newKey(),
		UseMintAuthority:     true,
		StartTs:              1_700_000_000,
		EndTs:                1_710_000_000,
		HardCapTotal:         1_000_000_000_000,
		FeeRateBps:           250,
		FeeCollectorSol:      newKey(),
		FeeCollectorUsdc:     newKey(),
		TreasurySol:          newKey(),
		TreasuryUsdc:         newKey(),
		SecondarySol:         newKey(),
		SecondaryUsdc:        newKey(),
		MaxPurchasePerWallet: 50_000_000_000,
		MinPurchaseSol:       10_000_000,
		PriceSchedule: []PriceTier{
			{StartTs: 1_700_000_000, PriceUSD: 0.0015},
			{StartTs: 1_702_000_000, PriceUSD: 0.002},
			{StartTs: 1_705_000_000, PriceUSD: 0.003},
		},
		OptionalStaking:     true,
		StakingApyBps:       1200,
		CharityRateBps:      100,
		CharityWallet:       newKey(),
		TotalStakedOptional: 42,
		AccRewardPerToken:   codec.Uint128{Lo: 7},
		RaisedSol:           9_000_000_000,
		TotalVibesSold:      250_000_000_000,
	}
}

func sampleBuyer(owner solana.PublicKey) *BuyerState {
	return &BuyerState{
		Buyer:               owner,
		Bump:                254,
		TotalPurchasedVibes: 3_000_000,
		SolContributed:      500_000_000,
		IsStaking:           true,
		StakedAmount:        2_000_000,
		UnstakedAmount:      1_000_000,
		LastStakeTs:         1_700_100_000,
		RewardDebt:          codec.Uint128{Lo: 11},
		PurchaseCount:       2,
	}
}
