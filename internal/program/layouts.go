// internal/program/layouts.go
package program

import "github.com/rovshanmuradov/vibes-presale/internal/codec"

// Account record names as declared by the on-chain programs.
const (
	PresaleStateAccount    = "PresaleStateV3"
	BuyerStateAccount      = "BuyerStateV3"
	VestingScheduleAccount = "VestingSchedule"
)

// BuyerStateSize is the fixed size of a BuyerStateV3 account, used to filter
// program-account scans.
const BuyerStateSize = 143

// PriceTierLayout is one element of the presale price schedule.
var PriceTierLayout = codec.NewStructLayout("PriceTier",
	codec.Field{Name: "startTs", Kind: codec.KindI64},
	codec.Field{Name: "priceUsd", Kind: codec.KindF64},
)

// PresaleStateLayout is the byte layout of the singleton presale account.
var PresaleStateLayout = codec.NewAccountLayout(PresaleStateAccount,
	codec.Field{Name: "authority", Kind: codec.KindPublicKey},
	codec.Field{Name: "tokenMint", Kind: codec.KindPublicKey},
	codec.Field{Name: "usdcMint", Kind: codec.KindPublicKey},
	codec.Field{Name: "bump", Kind: codec.KindU8},
	codec.Field{Name: "presaleTokenVault", Kind: codec.KindPublicKey},
	codec.Field{Name: "rewardsTokenVault", Kind: codec.KindPublicKey},
	codec.Field{Name: "useMintAuthority", Kind: codec.KindBool},
	codec.Field{Name: "startTs", Kind: codec.KindI64},
	codec.Field{Name: "endTs", Kind: codec.KindI64},
	codec.Field{Name: "hardCapTotal", Kind: codec.KindU64},
	codec.Field{Name: "isFinalized", Kind: codec.KindBool},
	codec.Field{Name: "feeRateBps", Kind: codec.KindU16},
	codec.Field{Name: "feeCollectorSol", Kind: codec.KindPublicKey},
	codec.Field{Name: "feeCollectorUsdc", Kind: codec.KindPublicKey},
	codec.Field{Name: "treasurySolWallet", Kind: codec.KindPublicKey},
	codec.Field{Name: "treasuryUsdcWallet", Kind: codec.KindPublicKey},
	codec.Field{Name: "secondarySolWallet", Kind: codec.KindPublicKey},
	codec.Field{Name: "secondaryUsdcWallet", Kind: codec.KindPublicKey},
	codec.Field{Name: "maxPurchasePerWallet", Kind: codec.KindU64},
	codec.Field{Name: "minPurchaseSol", Kind: codec.KindU64},
	codec.Field{Name: "priceSchedule", Kind: codec.KindVec, Elem: PriceTierLayout},
	codec.Field{Name: "optionalStaking", Kind: codec.KindBool},
	codec.Field{Name: "stakingApyBps", Kind: codec.KindU64},
	codec.Field{Name: "charityRateBps", Kind: codec.KindU16},
	codec.Field{Name: "charityWallet", Kind: codec.KindPublicKey},
	codec.Field{Name: "totalStakedOptional", Kind: codec.KindU64},
	codec.Field{Name: "totalUnstaked", Kind: codec.KindU64},
	codec.Field{Name: "accRewardPerToken", Kind: codec.KindU128},
	codec.Field{Name: "lastRewardUpdateTs", Kind: codec.KindI64},
	codec.Field{Name: "raisedSol", Kind: codec.KindU64},
	codec.Field{Name: "raisedUsdc", Kind: codec.KindU64},
	codec.Field{Name: "totalVibesSold", Kind: codec.KindU64},
	codec.Field{Name: "totalFeesCollectedSol", Kind: codec.KindU64},
	codec.Field{Name: "totalFeesCollectedUsdc", Kind: codec.KindU64},
	codec.Field{Name: "totalTreasurySol", Kind: codec.KindU64},
	codec.Field{Name: "totalTreasuryUsdc", Kind: codec.KindU64},
	codec.Field{Name: "totalSecondarySol", Kind: codec.KindU64},
	codec.Field{Name: "totalSecondaryUsdc", Kind: codec.KindU64},
	codec.Field{Name: "totalCharityRewards", Kind: codec.KindU64},
)

// BuyerStateLayout is the per-wallet ledger. Its size must stay BuyerStateSize.
var BuyerStateLayout = codec.NewAccountLayout(BuyerStateAccount,
	codec.Field{Name: "buyer", Kind: codec.KindPublicKey},
	codec.Field{Name: "bump", Kind: codec.KindU8},
	codec.Field{Name: "totalPurchasedVibes", Kind: codec.KindU64},
	codec.Field{Name: "solContributed", Kind: codec.KindU64},
	codec.Field{Name: "usdcContributed", Kind: codec.KindU64},
	codec.Field{Name: "isStaking", Kind: codec.KindBool},
	codec.Field{Name: "stakedAmount", Kind: codec.KindU64},
	codec.Field{Name: "unstakedAmount", Kind: codec.KindU64},
	codec.Field{Name: "lastStakeTs", Kind: codec.KindI64},
	codec.Field{Name: "accumulatedRewards", Kind: codec.KindU64},
	codec.Field{Name: "totalRewardsClaimed", Kind: codec.KindU64},
	codec.Field{Name: "rewardDebt", Kind: codec.KindU128},
	codec.Field{Name: "lastUpdateTs", Kind: codec.KindI64},
	codec.Field{Name: "transferredToVesting", Kind: codec.KindBool},
	codec.Field{Name: "finalVestingAmount", Kind: codec.KindU64},
	codec.Field{Name: "purchaseCount", Kind: codec.KindU32},
)

// VestingScheduleLayout is the per-beneficiary vesting record.
var VestingScheduleLayout = codec.NewAccountLayout(VestingScheduleAccount,
	codec.Field{Name: "beneficiary", Kind: codec.KindPublicKey},
	codec.Field{Name: "tokenMint", Kind: codec.KindPublicKey},
	codec.Field{Name: "total", Kind: codec.KindU64},
	codec.Field{Name: "released", Kind: codec.KindU64},
	codec.Field{Name: "listingTs", Kind: codec.KindI64},
	codec.Field{Name: "cliff1", Kind: codec.KindI64},
	codec.Field{Name: "cliff2", Kind: codec.KindI64},
	codec.Field{Name: "cliff3", Kind: codec.KindI64},
	codec.Field{Name: "vaultTokenAccountPda", Kind: codec.KindPublicKey},
	codec.Field{Name: "bump", Kind: codec.KindU8},
	codec.Field{Name: "isCancelled", Kind: codec.KindBool},
)
