// internal/program/discriminators.go
package program

import (
	"sync"

	"github.com/rovshanmuradov/vibes-presale/internal/codec"
)

// Method is the snake_case name of an on-chain instruction.
type Method string

// Presale program methods.
const (
	MethodBuyWithSol          Method = "buy_with_sol_v3"
	MethodBuyWithUsdc         Method = "buy_with_usdc_v3"
	MethodOptIntoStaking      Method = "opt_into_staking"
	MethodOptOutOfStaking     Method = "opt_out_of_staking"
	MethodClaimStakingRewards Method = "claim_staking_rewards"
	MethodTransferToVesting   Method = "transfer_to_vesting_v3"
	MethodClaimTokens         Method = "claim_tokens_v3"
	MethodFinalizePresale     Method = "finalize_presale_v3"
	MethodUpdatePriceSchedule Method = "update_price_schedule"
)

// Vesting program methods.
const (
	MethodVestingClaim  Method = "claim"
	MethodVestingCancel Method = "cancel"
)

// knownDiscriminators are selectors observed on the deployed program. They
// take precedence over hashing so a renamed method still routes correctly.
var knownDiscriminators = map[Method][]byte{
	MethodBuyWithSol:     {27, 155, 169, 245, 37, 74, 15, 75},
	MethodOptIntoStaking: {209, 83, 87, 173, 0, 78, 76, 67},
}

// Discriminators resolves method selectors from constants first and from
// sha256("global:<method>") otherwise.
type Discriminators struct {
	mu     sync.RWMutex
	fixed  map[Method][]byte
	hashed map[Method][]byte
}

var defaultDiscriminators = NewDiscriminators()

// Discriminator returns the selector of method from the shared registry.
func Discriminator(method Method) []byte {
	return defaultDiscriminators.Get(method)
}

// NewDiscriminators returns a registry seeded with the known constants.
func NewDiscriminators() *Discriminators {
	d := &Discriminators{
		fixed:  make(map[Method][]byte, len(knownDiscriminators)),
		hashed: make(map[Method][]byte),
	}
	for m, disc := range knownDiscriminators {
		d.fixed[m] = disc
	}
	return d
}

// Register pins a constant selector for method.
func (d *Discriminators) Register(method Method, disc []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fixed[method] = append([]byte(nil), disc...)
}

// Get returns the selector for method.
func (d *Discriminators) Get(method Method) []byte {
	d.mu.RLock()
	if disc, ok := d.fixed[method]; ok {
		d.mu.RUnlock()
		return disc
	}
	if disc, ok := d.hashed[method]; ok {
		d.mu.RUnlock()
		return disc
	}
	d.mu.RUnlock()

	disc := codec.InstructionDiscriminator(string(method))
	d.mu.Lock()
	d.hashed[method] = disc
	d.mu.Unlock()
	return disc
}

// IsConstant reports whether method uses a registered constant.
func (d *Discriminators) IsConstant(method Method) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.fixed[method]
	return ok
}
