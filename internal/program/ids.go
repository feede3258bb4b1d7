// internal/program/ids.go
package program

import "github.com/gagliardetto/solana-go"

// Target selects which on-chain program an instruction is sent to.
type Target string

const (
	TargetPresale Target = "presale"
	TargetVesting Target = "vesting"
	// TargetStaking is the standalone staking pool. The client does not
	// build instructions for it but explains its errors.
	TargetStaking Target = "staking"
)

// Mainnet defaults.
var (
	DefaultPresaleProgramID = solana.MustPublicKeyFromBase58("HNPuLPxycypT4YtD5vMZPdcrr53MLKAajYrQwNTv4ujH")
	DefaultVestingProgramID = solana.MustPublicKeyFromBase58("3EnPSZpZbKDwVetAiXo9bos4XMDvqg1yqJvew8zh4keP")
	DefaultStakingProgramID = solana.MustPublicKeyFromBase58("3ZaKegZktvjwt4SreDvitLECG47UnPdd4EFzNAnyHDaW")
	DefaultPresaleState     = solana.MustPublicKeyFromBase58("EoDCTycvkJV4UXm54KYiF1DuCMSHyXYPftGUVr3qJxPp")
	DefaultVibesMint        = solana.MustPublicKeyFromBase58("G5n3KqfKZB4qeJAQA3k5dKbj7X264oCjV1vXMnBpwL43")
	DefaultUsdcMint         = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
)

// Programs holds every on-chain address the client talks to.
type Programs struct {
	Presale      solana.PublicKey
	Vesting      solana.PublicKey
	Staking      solana.PublicKey
	PresaleState solana.PublicKey
	VibesMint    solana.PublicKey
	UsdcMint     solana.PublicKey
}

// DefaultPrograms returns the mainnet deployment.
func DefaultPrograms() Programs {
	return Programs{
		Presale:      DefaultPresaleProgramID,
		Vesting:      DefaultVestingProgramID,
		Staking:      DefaultStakingProgramID,
		PresaleState: DefaultPresaleState,
		VibesMint:    DefaultVibesMint,
		UsdcMint:     DefaultUsdcMint,
	}
}

// ID returns the program id for target.
func (p Programs) ID(target Target) solana.PublicKey {
	switch target {
	case TargetVesting:
		return p.Vesting
	case TargetStaking:
		return p.Staking
	}
	return p.Presale
}

// TargetOf maps a program id back to its target.
func (p Programs) TargetOf(id solana.PublicKey) (Target, bool) {
	switch {
	case id.Equals(p.Presale):
		return TargetPresale, true
	case id.Equals(p.Vesting):
		return TargetVesting, true
	case id.Equals(p.Staking):
		return TargetStaking, true
	default:
		return "", false
	}
}

// Decimals are the base-unit exponents of the tokens involved in a purchase.
type Decimals struct {
	SOL   uint8
	USDC  uint8
	VIBES uint8
}

// DefaultDecimals matches mainnet mints.
func DefaultDecimals() Decimals {
	return Decimals{SOL: 9, USDC: 6, VIBES: 6}
}
