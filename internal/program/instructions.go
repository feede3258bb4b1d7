// internal/program/instructions.go
package program

import (
	"fmt"
	"sort"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/vibes-presale/internal/codec"
	"github.com/rovshanmuradov/vibes-presale/internal/pda"
)

// argsPadding is the fixed width of the purchase argument block (u64 + bool, zero padded).
const argsPadding = 16

// Instruction is an encoded program call. It satisfies solana.Instruction.
type Instruction struct {
	Method  Method
	Program solana.PublicKey
	Metas   solana.AccountMetaSlice
	Payload []byte
}

func (i *Instruction) ProgramID() solana.PublicKey { return i.Program }
func (i *Instruction) Accounts() []*solana.AccountMeta { return i.Metas }
func (i *Instruction) Data() ([]byte, error) { return i.Payload, nil }

var _ solana.Instruction = (*Instruction)(nil)

// VaultAuthorities are the PDAs that sign for the presale and rewards vaults.
// They are only needed when the presale pays out from vaults instead of minting.
type VaultAuthorities struct {
	Presale solana.PublicKey
	Rewards solana.PublicKey
}

// Request describes one method call. Buyer and Vesting are nil when those
// accounts do not exist on chain.
type Request struct {
	Method        Method
	Signer        solana.PublicKey
	Amount        float64
	Stake         bool
	Presale       *PresaleState
	Buyer         *BuyerState
	Vesting       *VestingSchedule
	PriceSchedule []PriceTier
	Vaults        VaultAuthorities
}

type methodSpec struct {
	target Target
	build  func(req Request) (solana.AccountMetaSlice, []byte, error)
}

// Builder turns requests into instructions with the account order each
// program method declares.
type Builder struct {
	programs       Programs
	decimals       Decimals
	pda            *pda.Deriver
	discriminators *Discriminators
	methods        map[Method]methodSpec
}

// NewBuilder creates a builder for the given deployment.
func NewBuilder(programs Programs, decimals Decimals, deriver *pda.Deriver, discriminators *Discriminators) *Builder {
	if discriminators == nil {
		discriminators = NewDiscriminators()
	}
	b := &Builder{
		programs:       programs,
		decimals:       decimals,
		pda:            deriver,
		discriminators: discriminators,
	}
	b.methods = map[Method]methodSpec{
		MethodBuyWithSol:          {TargetPresale, b.buyWithSol},
		MethodBuyWithUsdc:         {TargetPresale, b.buyWithUsdc},
		MethodOptIntoStaking:      {TargetPresale, b.stakingToggle},
		MethodOptOutOfStaking:     {TargetPresale, b.stakingToggle},
		MethodClaimStakingRewards: {TargetPresale, b.claimStakingRewards},
		MethodTransferToVesting:   {TargetPresale, b.transferToVesting},
		MethodClaimTokens:         {TargetPresale, b.claimTokens},
		MethodFinalizePresale:     {TargetPresale, b.finalize},
		MethodUpdatePriceSchedule: {TargetPresale, b.updatePriceSchedule},
		MethodVestingClaim:        {TargetVesting, b.vestingClaim},
		MethodVestingCancel:       {TargetVesting, b.vestingCancel},
	}
	return b
}

// Methods lists every supported method name.
func (b *Builder) Methods() []Method {
	out := make([]Method, 0, len(b.methods))
	for m := range b.methods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Build encodes req. Unknown methods fail with ErrUnsupportedInstruction.
func (b *Builder) Build(req Request) (*Instruction, error) {
	spec, ok := b.methods[req.Method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedInstruction, req.Method)
	}
	if req.Signer.IsZero() {
		return nil, &PreconditionError{Account: "wallet", Reason: CannotInfer, Hint: "connect a wallet first"}
	}
	metas, args, err := spec.build(req)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", req.Method, err)
	}
	disc := b.discriminators.Get(req.Method)
	payload := make([]byte, 0, len(disc)+len(args))
	payload = append(payload, disc...)
	payload = append(payload, args...)
	return &Instruction{
		Method:  req.Method,
		Program: b.programs.ID(spec.target),
		Metas:   metas,
		Payload: payload,
	}, nil
}

func requirePresale(req Request) (*PresaleState, error) {
	if req.Presale == nil {
		return nil, &PreconditionError{Account: "presale state", Reason: NotYetCreated, Hint: "the presale has not been initialized"}
	}
	return req.Presale, nil
}

func requireBuyer(req Request) error {
	if req.Buyer == nil {
		return &PreconditionError{Account: "buyer ledger", Reason: NotYetCreated, Hint: "make a purchase first"}
	}
	return nil
}

func purchaseArgs(units uint64, stake bool) ([]byte, error) {
	e := codec.NewEncoder().WriteU64(units).WriteBool(stake)
	return e.Pad(argsPadding - e.Len()).Bytes()
}

func (b *Builder) buyer(owner solana.PublicKey) (solana.PublicKey, error) {
	addr, err := b.pda.Buyer(owner)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return addr.Key, nil
}

func (b *Builder) usdcMint(p *PresaleState) solana.PublicKey {
	if !p.UsdcMint.IsZero() {
		return p.UsdcMint
	}
	return b.programs.UsdcMint
}

func (b *Builder) tokenMint(p *PresaleState) solana.PublicKey {
	if !p.TokenMint.IsZero() {
		return p.TokenMint
	}
	return b.programs.VibesMint
}

func (b *Builder) buyWithSol(req Request) (solana.AccountMetaSlice, []byte, error) {
	lamports, err := ScaleAmount(req.Amount, b.decimals.SOL)
	if err != nil {
		return nil, nil, err
	}
	p, err := requirePresale(req)
	if err != nil {
		return nil, nil, err
	}
	buyerState, err := b.buyer(req.Signer)
	if err != nil {
		return nil, nil, err
	}
	args, err := purchaseArgs(lamports, req.Stake)
	if err != nil {
		return nil, nil, err
	}

	metas := solana.AccountMetaSlice{}
	metas.Append(solana.NewAccountMeta(b.programs.PresaleState, true, false))
	metas.Append(solana.NewAccountMeta(buyerState, true, false))
	metas.Append(solana.NewAccountMeta(req.Signer, true, true))
	metas.Append(solana.NewAccountMeta(p.FeeCollectorSol, true, false))
	metas.Append(solana.NewAccountMeta(p.TreasurySol, true, false))
	metas.Append(solana.NewAccountMeta(p.SecondarySol, true, false))
	metas.Append(solana.NewAccountMeta(solana.SystemProgramID, false, false))
	return metas, args, nil
}

func (b *Builder) buyWithUsdc(req Request) (solana.AccountMetaSlice, []byte, error) {
	units, err := ScaleAmount(req.Amount, b.decimals.USDC)
	if err != nil {
		return nil, nil, err
	}
	p, err := requirePresale(req)
	if err != nil {
		return nil, nil, err
	}
	buyerState, err := b.buyer(req.Signer)
	if err != nil {
		return nil, nil, err
	}
	mint := b.usdcMint(p)
	atas := make([]solana.PublicKey, 0, 4)
	for _, owner := range []solana.PublicKey{req.Signer, p.FeeCollectorUsdc, p.TreasuryUsdc, p.SecondaryUsdc} {
		ata, err := b.pda.ATA(owner, mint)
		if err != nil {
			return nil, nil, err
		}
		atas = append(atas, ata)
	}
	args, err := purchaseArgs(units, req.Stake)
	if err != nil {
		return nil, nil, err
	}

	metas := solana.AccountMetaSlice{}
	metas.Append(solana.NewAccountMeta(b.programs.PresaleState, true, false))
	metas.Append(solana.NewAccountMeta(buyerState, true, false))
	metas.Append(solana.NewAccountMeta(req.Signer, true, true))
	for _, ata := range atas {
		metas.Append(solana.NewAccountMeta(ata, true, false))
	}
	metas.Append(solana.NewAccountMeta(solana.TokenProgramID, false, false))
	metas.Append(solana.NewAccountMeta(solana.SystemProgramID, false, false))
	return metas, args, nil
}

func (b *Builder) stakingToggle(req Request) (solana.AccountMetaSlice, []byte, error) {
	units, err := ScaleAmount(req.Amount, b.decimals.VIBES)
	if err != nil {
		return nil, nil, err
	}
	if err := requireBuyer(req); err != nil {
		return nil, nil, err
	}
	buyerState, err := b.buyer(req.Signer)
	if err != nil {
		return nil, nil, err
	}
	args, err := codec.NewEncoder().WriteU64(units).Bytes()
	if err != nil {
		return nil, nil, err
	}

	metas := solana.AccountMetaSlice{}
	metas.Append(solana.NewAccountMeta(b.programs.PresaleState, true, false))
	metas.Append(solana.NewAccountMeta(buyerState, true, false))
	metas.Append(solana.NewAccountMeta(req.Signer, false, true))
	return metas, args, nil
}

func (b *Builder) claimStakingRewards(req Request) (solana.AccountMetaSlice, []byte, error) {
	p, err := requirePresale(req)
	if err != nil {
		return nil, nil, err
	}
	if err := requireBuyer(req); err != nil {
		return nil, nil, err
	}
	buyerState, err := b.buyer(req.Signer)
	if err != nil {
		return nil, nil, err
	}
	mint := b.tokenMint(p)
	rewardATA, err := b.pda.ATA(req.Signer, mint)
	if err != nil {
		return nil, nil, err
	}
	if p.CharityWallet.IsZero() {
		return nil, nil, &PreconditionError{Account: "charity reward account", Reason: CannotInfer, Hint: "presale has no charity wallet"}
	}
	charityATA, err := b.pda.ATA(p.CharityWallet, mint)
	if err != nil {
		return nil, nil, err
	}

	metas := solana.AccountMetaSlice{}
	metas.Append(solana.NewAccountMeta(b.programs.PresaleState, true, false))
	metas.Append(solana.NewAccountMeta(buyerState, true, false))
	metas.Append(solana.NewAccountMeta(req.Signer, false, true))
	metas.Append(solana.NewAccountMeta(mint, true, false))
	metas.Append(solana.NewAccountMeta(rewardATA, true, false))
	metas.Append(solana.NewAccountMeta(charityATA, true, false))
	metas.Append(solana.NewAccountMeta(solana.TokenProgramID, false, false))
	return metas, nil, nil
}

// vaultAccounts returns the four optional vault accounts. With mint authority
// they are passed as the program id, which the program reads as None.
func (b *Builder) vaultAccounts(req Request, p *PresaleState) (solana.AccountMetaSlice, error) {
	metas := solana.AccountMetaSlice{}
	if p.UseMintAuthority {
		none := b.programs.Presale
		for i := 0; i < 4; i++ {
			metas.Append(solana.NewAccountMeta(none, false, false))
		}
		return metas, nil
	}
	switch {
	case p.PresaleTokenVault.IsZero() || p.RewardsTokenVault.IsZero():
		return nil, &PreconditionError{Account: "presale token vault", Reason: CannotInfer, Hint: "presale uses vaults but none are recorded"}
	case req.Vaults.Presale.IsZero() || req.Vaults.Rewards.IsZero():
		return nil, &PreconditionError{Account: "vault authority", Reason: CannotInfer, Hint: "set presale_vault_authority and rewards_vault_authority"}
	}
	metas.Append(solana.NewAccountMeta(p.PresaleTokenVault, true, false))
	metas.Append(solana.NewAccountMeta(p.RewardsTokenVault, true, false))
	metas.Append(solana.NewAccountMeta(req.Vaults.Presale, false, false))
	metas.Append(solana.NewAccountMeta(req.Vaults.Rewards, false, false))
	return metas, nil
}

func (b *Builder) transferToVesting(req Request) (solana.AccountMetaSlice, []byte, error) {
	p, err := requirePresale(req)
	if err != nil {
		return nil, nil, err
	}
	if err := requireBuyer(req); err != nil {
		return nil, nil, err
	}
	if req.Vesting == nil {
		return nil, nil, &PreconditionError{Account: "vesting schedule", Reason: NotYetCreated, Hint: "the schedule is created by the presale authority"}
	}
	buyerState, err := b.buyer(req.Signer)
	if err != nil {
		return nil, nil, err
	}
	vaults, err := b.vaultAccounts(req, p)
	if err != nil {
		return nil, nil, err
	}

	scheduleVault, err := b.scheduleVault(req)
	if err != nil {
		return nil, nil, err
	}

	metas := solana.AccountMetaSlice{}
	metas.Append(solana.NewAccountMeta(b.programs.PresaleState, false, false))
	metas.Append(solana.NewAccountMeta(buyerState, true, false))
	metas.Append(solana.NewAccountMeta(req.Signer, false, true))
	metas.Append(solana.NewAccountMeta(b.tokenMint(p), true, false))
	metas.Append(solana.NewAccountMeta(scheduleVault, true, false))
	metas = append(metas, vaults...)
	metas.Append(solana.NewAccountMeta(solana.TokenProgramID, false, false))
	return metas, nil, nil
}

func (b *Builder) claimTokens(req Request) (solana.AccountMetaSlice, []byte, error) {
	p, err := requirePresale(req)
	if err != nil {
		return nil, nil, err
	}
	if err := requireBuyer(req); err != nil {
		return nil, nil, err
	}
	buyerState, err := b.buyer(req.Signer)
	if err != nil {
		return nil, nil, err
	}
	mint := b.tokenMint(p)
	tokenATA, err := b.pda.ATA(req.Signer, mint)
	if err != nil {
		return nil, nil, err
	}
	vaults, err := b.vaultAccounts(req, p)
	if err != nil {
		return nil, nil, err
	}

	metas := solana.AccountMetaSlice{}
	metas.Append(solana.NewAccountMeta(b.programs.PresaleState, true, false))
	metas.Append(solana.NewAccountMeta(buyerState, true, false))
	metas.Append(solana.NewAccountMeta(req.Signer, true, true))
	metas.Append(solana.NewAccountMeta(tokenATA, true, false))
	metas.Append(solana.NewAccountMeta(mint, true, false))
	metas = append(metas, vaults...)
	metas.Append(solana.NewAccountMeta(solana.TokenProgramID, false, false))
	return metas, nil, nil
}

func (b *Builder) authorityOnly(req Request) solana.AccountMetaSlice {
	metas := solana.AccountMetaSlice{}
	metas.Append(solana.NewAccountMeta(b.programs.PresaleState, true, false))
	metas.Append(solana.NewAccountMeta(req.Signer, false, true))
	return metas
}

func (b *Builder) finalize(req Request) (solana.AccountMetaSlice, []byte, error) {
	return b.authorityOnly(req), nil, nil
}

var updatePriceScheduleArgs = codec.NewStructLayout("UpdatePriceScheduleArgs",
	codec.Field{Name: "newPriceSchedule", Kind: codec.KindVec, Elem: PriceTierLayout},
)

func (b *Builder) updatePriceSchedule(req Request) (solana.AccountMetaSlice, []byte, error) {
	if len(req.PriceSchedule) == 0 {
		return nil, nil, fmt.Errorf("%w: empty price schedule", ErrInvalidArgument)
	}
	for i := 1; i < len(req.PriceSchedule); i++ {
		if req.PriceSchedule[i].StartTs <= req.PriceSchedule[i-1].StartTs {
			return nil, nil, fmt.Errorf("%w: price tiers must be strictly ascending by start time", ErrInvalidArgument)
		}
	}
	args, err := updatePriceScheduleArgs.Encode(codec.Record{
		"newPriceSchedule": tiersToRecords(req.PriceSchedule),
	})
	if err != nil {
		return nil, nil, err
	}
	return b.authorityOnly(req), args, nil
}

// scheduleVault returns the recorded vault of the signer's schedule or
// derives it when the schedule does not store one.
func (b *Builder) scheduleVault(req Request) (solana.PublicKey, error) {
	if !req.Vesting.Vault.IsZero() {
		return req.Vesting.Vault, nil
	}
	schedule, err := b.pda.Vesting(req.Signer)
	if err != nil {
		return solana.PublicKey{}, err
	}
	vault, err := b.pda.VestingVault(schedule.Key)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return vault.Key, nil
}

func (b *Builder) vestingAccounts(req Request, beneficiaryWritable bool) (solana.AccountMetaSlice, []byte, error) {
	if req.Vesting == nil {
		if req.Buyer != nil && req.Buyer.TransferredToVesting {
			return nil, nil, &PreconditionError{Account: "vesting schedule", Reason: NotYetCreated, Hint: "tokens were transferred; the schedule is pending creation"}
		}
		return nil, nil, &PreconditionError{Account: "vesting schedule", Reason: CannotInfer, Hint: "no transfer to vesting recorded for this wallet"}
	}
	schedule, err := b.pda.Vesting(req.Signer)
	if err != nil {
		return nil, nil, err
	}
	mint := req.Vesting.TokenMint
	if mint.IsZero() {
		mint = b.programs.VibesMint
	}
	beneficiaryATA, err := b.pda.ATA(req.Signer, mint)
	if err != nil {
		return nil, nil, err
	}

	vault := req.Vesting.Vault
	if vault.IsZero() {
		addr, err := b.pda.VestingVault(schedule.Key)
		if err != nil {
			return nil, nil, err
		}
		vault = addr.Key
	}

	metas := solana.AccountMetaSlice{}
	metas.Append(solana.NewAccountMeta(schedule.Key, true, false))
	metas.Append(solana.NewAccountMeta(req.Signer, beneficiaryWritable, true))
	metas.Append(solana.NewAccountMeta(vault, true, false))
	metas.Append(solana.NewAccountMeta(beneficiaryATA, true, false))
	metas.Append(solana.NewAccountMeta(mint, false, false))
	metas.Append(solana.NewAccountMeta(solana.TokenProgramID, false, false))
	return metas, nil, nil
}

func (b *Builder) vestingClaim(req Request) (solana.AccountMetaSlice, []byte, error) {
	return b.vestingAccounts(req, true)
}

func (b *Builder) vestingCancel(req Request) (solana.AccountMetaSlice, []byte, error) {
	return b.vestingAccounts(req, false)
}
