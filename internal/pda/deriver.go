// internal/pda/deriver.go
package pda

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Seed domain separators used by the presale and vesting programs.
const (
	BuyerSeed   = "buyer_v3"
	VestingSeed = "vesting"
	VaultSeed   = "vault"
)

// Address is a program-derived address and the bump that moved it off the curve.
type Address struct {
	Key  solana.PublicKey
	Bump uint8
}

// Deriver computes program-derived addresses. Results are memoized by
// (program, seeds); derivation is pure so the cache never needs invalidation.
type Deriver struct {
	presaleProgram solana.PublicKey
	vestingProgram solana.PublicKey
	cache          sync.Map
}

// NewDeriver creates a deriver bound to the presale and vesting program ids.
func NewDeriver(presaleProgram, vestingProgram solana.PublicKey) *Deriver {
	return &Deriver{
		presaleProgram: presaleProgram,
		vestingProgram: vestingProgram,
	}
}

func cacheKey(program solana.PublicKey, seeds [][]byte) string {
	var sb strings.Builder
	sb.WriteString(program.String())
	for _, s := range seeds {
		sb.WriteByte('|')
		fmt.Fprintf(&sb, "%x", s)
	}
	return sb.String()
}

// Find derives the address for seeds under program.
func (d *Deriver) Find(program solana.PublicKey, seeds ...[]byte) (Address, error) {
	key := cacheKey(program, seeds)
	if cached, ok := d.cache.Load(key); ok {
		return cached.(Address), nil
	}
	addr, bump, err := solana.FindProgramAddress(seeds, program)
	if err != nil {
		return Address{}, fmt.Errorf("find program address for %s: %w", program, err)
	}
	result := Address{Key: addr, Bump: bump}
	d.cache.Store(key, result)
	return result, nil
}

// Buyer returns the ledger address of owner on the presale program.
func (d *Deriver) Buyer(owner solana.PublicKey) (Address, error) {
	return d.Find(d.presaleProgram, []byte(BuyerSeed), owner.Bytes())
}

// Vesting returns the vesting schedule address of beneficiary.
func (d *Deriver) Vesting(beneficiary solana.PublicKey) (Address, error) {
	return d.Find(d.vestingProgram, []byte(VestingSeed), beneficiary.Bytes())
}

// VestingVault returns the token vault owned by a vesting schedule.
func (d *Deriver) VestingVault(schedule solana.PublicKey) (Address, error) {
	return d.Find(d.vestingProgram, []byte(VaultSeed), schedule.Bytes())
}

// ATA returns the associated token account of owner for mint.
func (d *Deriver) ATA(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, err := d.Find(solana.SPLAssociatedTokenAccountProgramID,
		owner.Bytes(), solana.TokenProgramID.Bytes(), mint.Bytes())
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("associated token address: %w", err)
	}
	return addr.Key, nil
}
