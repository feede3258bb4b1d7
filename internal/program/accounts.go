// internal/program/accounts.go
package program

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/vibes-presale/internal/codec"
)

// PriceTier is one step of the price schedule, effective from StartTs.
type PriceTier struct {
	StartTs  int64
	PriceUSD float64
}

// PresaleState is the presale configuration and running totals.
type PresaleState struct {
	Authority            solana.PublicKey
	TokenMint            solana.PublicKey
	UsdcMint             solana.PublicKey
	Bump                 uint8
	PresaleTokenVault    solana.PublicKey
	RewardsTokenVault    solana.PublicKey
	UseMintAuthority     bool
	StartTs              int64
	EndTs                int64
	HardCapTotal         uint64
	IsFinalized          bool
	FeeRateBps           uint16
	FeeCollectorSol      solana.PublicKey
	FeeCollectorUsdc     solana.PublicKey
	TreasurySol          solana.PublicKey
	TreasuryUsdc         solana.PublicKey
	SecondarySol         solana.PublicKey
	SecondaryUsdc        solana.PublicKey
	MaxPurchasePerWallet uint64
	MinPurchaseSol       uint64
	PriceSchedule        []PriceTier
	OptionalStaking      bool
	StakingApyBps        uint64
	CharityRateBps       uint16
	CharityWallet        solana.PublicKey
	TotalStakedOptional  uint64
	TotalUnstaked        uint64
	AccRewardPerToken    codec.Uint128
	LastRewardUpdateTs   int64

	RaisedSol              uint64
	RaisedUsdc             uint64
	TotalVibesSold         uint64
	TotalFeesCollectedSol  uint64
	TotalFeesCollectedUsdc uint64
	TotalTreasurySol       uint64
	TotalTreasuryUsdc      uint64
	TotalSecondarySol      uint64
	TotalSecondaryUsdc     uint64
	TotalCharityRewards    uint64
}

// BuyerState is the per-wallet purchase and staking ledger.
type BuyerState struct {
	Buyer                solana.PublicKey
	Bump                 uint8
	TotalPurchasedVibes  uint64
	SolContributed       uint64
	UsdcContributed      uint64
	IsStaking            bool
	StakedAmount         uint64
	UnstakedAmount       uint64
	LastStakeTs          int64
	AccumulatedRewards   uint64
	TotalRewardsClaimed  uint64
	RewardDebt           codec.Uint128
	LastUpdateTs         int64
	TransferredToVesting bool
	FinalVestingAmount   uint64
	PurchaseCount        uint32
}

// VestingSchedule is the release schedule of one beneficiary.
type VestingSchedule struct {
	Beneficiary solana.PublicKey
	TokenMint   solana.PublicKey
	Total       uint64
	Released    uint64
	ListingTs   int64
	Cliff1      int64
	Cliff2      int64
	Cliff3      int64
	Vault       solana.PublicKey
	Bump        uint8
	IsCancelled bool
}

// DecodePresaleState parses raw presale account data.
func DecodePresaleState(data []byte) (*PresaleState, error) {
	rec, err := PresaleStateLayout.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", PresaleStateAccount, err)
	}
	return presaleFromRecord(rec)
}

// Encode serializes the state using PresaleStateLayout.
func (s *PresaleState) Encode() ([]byte, error) {
	return PresaleStateLayout.Encode(s.record())
}

func presaleFromRecord(rec codec.Record) (*PresaleState, error) {
	f := codec.Read(rec)
	s := &PresaleState{
		Authority:            f.PublicKey("authority"),
		TokenMint:            f.PublicKey("tokenMint"),
		UsdcMint:             f.PublicKey("usdcMint"),
		Bump:                 f.U8("bump"),
		PresaleTokenVault:    f.PublicKey("presaleTokenVault"),
		RewardsTokenVault:    f.PublicKey("rewardsTokenVault"),
		UseMintAuthority:     f.Bool("useMintAuthority"),
		StartTs:              f.I64("startTs"),
		EndTs:                f.I64("endTs"),
		HardCapTotal:         f.U64("hardCapTotal"),
		IsFinalized:          f.Bool("isFinalized"),
		FeeRateBps:           f.U16("feeRateBps"),
		FeeCollectorSol:      f.PublicKey("feeCollectorSol"),
		FeeCollectorUsdc:     f.PublicKey("feeCollectorUsdc"),
		TreasurySol:          f.PublicKey("treasurySolWallet"),
		TreasuryUsdc:         f.PublicKey("treasuryUsdcWallet"),
		SecondarySol:         f.PublicKey("secondarySolWallet"),
		SecondaryUsdc:        f.PublicKey("secondaryUsdcWallet"),
		MaxPurchasePerWallet: f.U64("maxPurchasePerWallet"),
		MinPurchaseSol:       f.U64("minPurchaseSol"),
		OptionalStaking:      f.Bool("optionalStaking"),
		StakingApyBps:        f.U64("stakingApyBps"),
		CharityRateBps:       f.U16("charityRateBps"),
		CharityWallet:        f.PublicKey("charityWallet"),
		TotalStakedOptional:  f.U64("totalStakedOptional"),
		TotalUnstaked:        f.U64("totalUnstaked"),
		AccRewardPerToken:    f.U128("accRewardPerToken"),
		LastRewardUpdateTs:   f.I64("lastRewardUpdateTs"),

		RaisedSol:              f.U64("raisedSol"),
		RaisedUsdc:             f.U64("raisedUsdc"),
		TotalVibesSold:         f.U64("totalVibesSold"),
		TotalFeesCollectedSol:  f.U64("totalFeesCollectedSol"),
		TotalFeesCollectedUsdc: f.U64("totalFeesCollectedUsdc"),
		TotalTreasurySol:       f.U64("totalTreasurySol"),
		TotalTreasuryUsdc:      f.U64("totalTreasuryUsdc"),
		TotalSecondarySol:      f.U64("totalSecondarySol"),
		TotalSecondaryUsdc:     f.U64("totalSecondaryUsdc"),
		TotalCharityRewards:    f.U64("totalCharityRewards"),
	}
	tiers, err := tiersFromRecords(f.Vec("priceSchedule"))
	if err != nil {
		return nil, err
	}
	s.PriceSchedule = tiers
	if err := f.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PresaleState) record() codec.Record {
	return codec.Record{
		"authority":              s.Authority,
		"tokenMint":              s.TokenMint,
		"usdcMint":               s.UsdcMint,
		"bump":                   s.Bump,
		"presaleTokenVault":      s.PresaleTokenVault,
		"rewardsTokenVault":      s.RewardsTokenVault,
		"useMintAuthority":       s.UseMintAuthority,
		"startTs":                s.StartTs,
		"endTs":                  s.EndTs,
		"hardCapTotal":           s.HardCapTotal,
		"isFinalized":            s.IsFinalized,
		"feeRateBps":             s.FeeRateBps,
		"feeCollectorSol":        s.FeeCollectorSol,
		"feeCollectorUsdc":       s.FeeCollectorUsdc,
		"treasurySolWallet":      s.TreasurySol,
		"treasuryUsdcWallet":     s.TreasuryUsdc,
		"secondarySolWallet":     s.SecondarySol,
		"secondaryUsdcWallet":    s.SecondaryUsdc,
		"maxPurchasePerWallet":   s.MaxPurchasePerWallet,
		"minPurchaseSol":         s.MinPurchaseSol,
		"priceSchedule":          tiersToRecords(s.PriceSchedule),
		"optionalStaking":        s.OptionalStaking,
		"stakingApyBps":          s.StakingApyBps,
		"charityRateBps":         s.CharityRateBps,
		"charityWallet":          s.CharityWallet,
		"totalStakedOptional":    s.TotalStakedOptional,
		"totalUnstaked":          s.TotalUnstaked,
		"accRewardPerToken":      s.AccRewardPerToken,
		"lastRewardUpdateTs":     s.LastRewardUpdateTs,
		"raisedSol":              s.RaisedSol,
		"raisedUsdc":             s.RaisedUsdc,
		"totalVibesSold":         s.TotalVibesSold,
		"totalFeesCollectedSol":  s.TotalFeesCollectedSol,
		"totalFeesCollectedUsdc": s.TotalFeesCollectedUsdc,
		"totalTreasurySol":       s.TotalTreasurySol,
		"totalTreasuryUsdc":      s.TotalTreasuryUsdc,
		"totalSecondarySol":      s.TotalSecondarySol,
		"totalSecondaryUsdc":     s.TotalSecondaryUsdc,
		"totalCharityRewards":    s.TotalCharityRewards,
	}
}

func tiersFromRecords(recs []codec.Record) ([]PriceTier, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	tiers := make([]PriceTier, 0, len(recs))
	for _, rec := range recs {
		f := codec.Read(rec)
		tier := PriceTier{StartTs: f.I64("startTs"), PriceUSD: f.F64("priceUsd")}
		if err := f.Err(); err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}
	return tiers, nil
}

func tiersToRecords(tiers []PriceTier) []codec.Record {
	recs := make([]codec.Record, 0, len(tiers))
	for _, t := range tiers {
		recs = append(recs, codec.Record{"startTs": t.StartTs, "priceUsd": t.PriceUSD})
	}
	return recs
}

// DecodeBuyerState parses raw buyer ledger data.
func DecodeBuyerState(data []byte) (*BuyerState, error) {
	rec, err := BuyerStateLayout.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", BuyerStateAccount, err)
	}
	f := codec.Read(rec)
	b := &BuyerState{
		Buyer:                f.PublicKey("buyer"),
		Bump:                 f.U8("bump"),
		TotalPurchasedVibes:  f.U64("totalPurchasedVibes"),
		SolContributed:       f.U64("solContributed"),
		UsdcContributed:      f.U64("usdcContributed"),
		IsStaking:            f.Bool("isStaking"),
		StakedAmount:         f.U64("stakedAmount"),
		UnstakedAmount:       f.U64("unstakedAmount"),
		LastStakeTs:          f.I64("lastStakeTs"),
		AccumulatedRewards:   f.U64("accumulatedRewards"),
		TotalRewardsClaimed:  f.U64("totalRewardsClaimed"),
		RewardDebt:           f.U128("rewardDebt"),
		LastUpdateTs:         f.I64("lastUpdateTs"),
		TransferredToVesting: f.Bool("transferredToVesting"),
		FinalVestingAmount:   f.U64("finalVestingAmount"),
		PurchaseCount:        f.U32("purchaseCount"),
	}
	if err := f.Err(); err != nil {
		return nil, err
	}
	return b, nil
}

// Encode serializes the ledger using BuyerStateLayout.
func (b *BuyerState) Encode() ([]byte, error) {
	return BuyerStateLayout.Encode(codec.Record{
		"buyer":                b.Buyer,
		"bump":                 b.Bump,
		"totalPurchasedVibes":  b.TotalPurchasedVibes,
		"solContributed":       b.SolContributed,
		"usdcContributed":      b.UsdcContributed,
		"isStaking":            b.IsStaking,
		"stakedAmount":         b.StakedAmount,
		"unstakedAmount":       b.UnstakedAmount,
		"lastStakeTs":          b.LastStakeTs,
		"accumulatedRewards":   b.AccumulatedRewards,
		"totalRewardsClaimed":  b.TotalRewardsClaimed,
		"rewardDebt":           b.RewardDebt,
		"lastUpdateTs":         b.LastUpdateTs,
		"transferredToVesting": b.TransferredToVesting,
		"finalVestingAmount":   b.FinalVestingAmount,
		"purchaseCount":        b.PurchaseCount,
	})
}

// DecodeVestingSchedule parses raw vesting schedule data.
func DecodeVestingSchedule(data []byte) (*VestingSchedule, error) {
	rec, err := VestingScheduleLayout.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", VestingScheduleAccount, err)
	}
	f := codec.Read(rec)
	v := &VestingSchedule{
		Beneficiary: f.PublicKey("beneficiary"),
		TokenMint:   f.PublicKey("tokenMint"),
		Total:       f.U64("total"),
		Released:    f.U64("released"),
		ListingTs:   f.I64("listingTs"),
		Cliff1:      f.I64("cliff1"),
		Cliff2:      f.I64("cliff2"),
		Cliff3:      f.I64("cliff3"),
		Vault:       f.PublicKey("vaultTokenAccountPda"),
		Bump:        f.U8("bump"),
		IsCancelled: f.Bool("isCancelled"),
	}
	if err := f.Err(); err != nil {
		return nil, err
	}
	return v, nil
}

// Encode serializes the schedule using VestingScheduleLayout.
func (v *VestingSchedule) Encode() ([]byte, error) {
	return VestingScheduleLayout.Encode(codec.Record{
		"beneficiary":          v.Beneficiary,
		"tokenMint":            v.TokenMint,
		"total":                v.Total,
		"released":             v.Released,
		"listingTs":            v.ListingTs,
		"cliff1":               v.Cliff1,
		"cliff2":               v.Cliff2,
		"cliff3":               v.Cliff3,
		"vaultTokenAccountPda": v.Vault,
		"bump":                 v.Bump,
		"isCancelled":          v.IsCancelled,
	})
}
