// internal/program/derived.go
package program

import (
	"math"
	"math/big"
	"time"

	"github.com/rovshanmuradov/vibes-presale/internal/codec"
)

// RewardPrecision is the fixed-point scale of the reward-per-token accumulator.
const RewardPrecision = 1_000_000_000_000

// Vesting release steps, in percent of the total.
const (
	ListingReleasePercent = 40
	CliffReleasePercent   = 20
)

// Phase is the lifecycle position of the presale at a given time.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseActive     Phase = "active"
	PhaseEnded      Phase = "ended"
	PhaseFinalized  Phase = "finalized"
)

// IsActive reports whether purchases are accepted at now.
func (s *PresaleState) IsActive(now time.Time) bool {
	ts := now.Unix()
	return !s.IsFinalized && ts >= s.StartTs && ts <= s.EndTs
}

// Phase classifies now against the sale window.
func (s *PresaleState) Phase(now time.Time) Phase {
	ts := now.Unix()
	switch {
	case s.IsFinalized:
		return PhaseFinalized
	case ts < s.StartTs:
		return PhaseNotStarted
	case ts > s.EndTs:
		return PhaseEnded
	default:
		return PhaseActive
	}
}

// SelectTier returns the tier with the greatest StartTs not after ts. When no
// tier has started yet the earliest tier is returned. ok is false only for an
// empty schedule.
func SelectTier(tiers []PriceTier, ts int64) (tier PriceTier, ok bool) {
	if len(tiers) == 0 {
		return PriceTier{}, false
	}
	earliest := tiers[0]
	found := false
	for _, t := range tiers {
		if t.StartTs < earliest.StartTs {
			earliest = t
		}
		if t.StartTs <= ts && (!found || t.StartTs >= tier.StartTs) {
			tier = t
			found = true
		}
	}
	if !found {
		return earliest, true
	}
	return tier, true
}

// CurrentTier returns the price tier in effect at now.
func (s *PresaleState) CurrentTier(now time.Time) (PriceTier, bool) {
	return SelectTier(s.PriceSchedule, now.Unix())
}

// NextTier returns the first tier that starts after now.
func (s *PresaleState) NextTier(now time.Time) (PriceTier, bool) {
	ts := now.Unix()
	var next PriceTier
	found := false
	for _, t := range s.PriceSchedule {
		if t.StartTs > ts && (!found || t.StartTs < next.StartTs) {
			next = t
			found = true
		}
	}
	return next, found
}

// TimeUntilNextTier returns how long the current price holds.
func (s *PresaleState) TimeUntilNextTier(now time.Time) (time.Duration, bool) {
	next, ok := s.NextTier(now)
	if !ok {
		return 0, false
	}
	return time.Unix(next.StartTs, 0).Sub(now), true
}

// RemainingCap returns the number of base units still for sale.
func (s *PresaleState) RemainingCap() uint64 {
	if s.TotalVibesSold >= s.HardCapTotal {
		return 0
	}
	return s.HardCapTotal - s.TotalVibesSold
}

// Progress returns sold / hard cap in [0, 1].
func (s *PresaleState) Progress() float64 {
	if s.HardCapTotal == 0 {
		return 0
	}
	return math.Min(1, float64(s.TotalVibesSold)/float64(s.HardCapTotal))
}

// StakingConsistent reports whether staked + unstaked equals the purchased total.
// The program does not guarantee this; a false result is worth logging.
func (b *BuyerState) StakingConsistent() bool {
	sum := b.StakedAmount + b.UnstakedAmount
	return sum >= b.StakedAmount && sum == b.TotalPurchasedVibes
}

// PendingRewards returns claimable staking rewards from on-chain accumulators:
// accumulated + staked*acc/RewardPrecision - rewardDebt. No time-based
// estimate is made when the accumulator is zero.
func (b *BuyerState) PendingRewards(acc codec.Uint128) uint64 {
	if !b.IsStaking || b.StakedAmount == 0 || acc.IsZero() {
		return b.AccumulatedRewards
	}
	accrued := new(big.Int).SetUint64(b.StakedAmount)
	accrued.Mul(accrued, acc.BigInt())
	accrued.Quo(accrued, big.NewInt(RewardPrecision))
	accrued.Sub(accrued, b.RewardDebt.BigInt())
	if accrued.Sign() < 0 {
		accrued.SetInt64(0)
	}
	accrued.Add(accrued, new(big.Int).SetUint64(b.AccumulatedRewards))
	if !accrued.IsUint64() {
		return math.MaxUint64
	}
	return accrued.Uint64()
}

// VestedPercent returns the released share at now: 40% at listing then 20% per cliff.
func (v *VestingSchedule) VestedPercent(now time.Time) uint64 {
	ts := now.Unix()
	if ts < v.ListingTs {
		return 0
	}
	pct := uint64(ListingReleasePercent)
	for _, cliff := range []int64{v.Cliff1, v.Cliff2, v.Cliff3} {
		if ts >= cliff {
			pct += CliffReleasePercent
		}
	}
	return pct
}

// Vested returns floor(total * percent / 100) without overflowing.
func (v *VestingSchedule) Vested(now time.Time) uint64 {
	pct := v.VestedPercent(now)
	return (v.Total/100)*pct + (v.Total%100)*pct/100
}

// Claimable returns vested minus released, zero when cancelled.
func (v *VestingSchedule) Claimable(now time.Time) uint64 {
	if v.IsCancelled {
		return 0
	}
	vested := v.Vested(now)
	if vested <= v.Released {
		return 0
	}
	return vested - v.Released
}

// Remaining returns the part of the total that has not been released.
func (v *VestingSchedule) Remaining() uint64 {
	if v.Released >= v.Total {
		return 0
	}
	return v.Total - v.Released
}

// VestingStatus is the wallet-level vesting position shown to users.
type VestingStatus string

const (
	VestingNoPurchases     VestingStatus = "No Purchases"
	VestingPendingTransfer VestingStatus = "Pending Transfer"
	VestingNotCreated      VestingStatus = "Not Created"
	VestingActive          VestingStatus = "Active"
	VestingCompleted       VestingStatus = "Completed"
	VestingCancelled       VestingStatus = "Cancelled"
)

// ResolveVestingStatus derives the status from the buyer ledger and schedule,
// either of which may be nil when the account does not exist.
func ResolveVestingStatus(buyer *BuyerState, schedule *VestingSchedule) VestingStatus {
	switch {
	case buyer == nil:
		return VestingNoPurchases
	case !buyer.TransferredToVesting:
		return VestingPendingTransfer
	case schedule == nil:
		return VestingNotCreated
	case schedule.IsCancelled:
		return VestingCancelled
	case schedule.Remaining() == 0:
		return VestingCompleted
	default:
		return VestingActive
	}
}

// VestingProgress summarizes a schedule at one moment.
type VestingProgress struct {
	Status    VestingStatus
	Percent   uint64
	Vested    uint64
	Claimable uint64
	Remaining uint64
}

// Status reports where the schedule stands at now.
func (v *VestingSchedule) Status(now time.Time) VestingProgress {
	p := VestingProgress{
		Status:    VestingActive,
		Percent:   v.VestedPercent(now),
		Vested:    v.Vested(now),
		Claimable: v.Claimable(now),
		Remaining: v.Remaining(),
	}
	switch {
	case v.IsCancelled:
		p.Status = VestingCancelled
	case p.Remaining == 0:
		p.Status = VestingCompleted
	}
	return p
}
