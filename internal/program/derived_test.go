package program

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rovshanmuradov/vibes-presale/internal/codec"
)

func nowAt(ts int64) time.Time {
	return time.Unix(ts, 0)
}

func TestSelectTier(t *testing.T) {
	tiers := []PriceTier{
		{StartTs: 100, PriceUSD: 0.1},
		{StartTs: 200, PriceUSD: 0.2},
		{StartTs: 300, PriceUSD: 0.3},
	}

	tests := []struct {
		name string
		ts   int64
		want float64
	}{
		{"before first tier falls back to earliest", 50, 0.1},
		{"exact start", 200, 0.2},
		{"between tiers", 250, 0.2},
		{"after last tier", 10_000, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, ok := SelectTier(tiers, tt.ts)
			assert.True(t, ok)
			assert.Equal(t, tt.want, tier.PriceUSD)
		})
	}

	_, ok := SelectTier(nil, 100)
	assert.False(t, ok)
}

func TestSelectTierUnordered(t *testing.T) {
	tiers := []PriceTier{
		{StartTs: 300, PriceUSD: 0.3},
		{StartTs: 100, PriceUSD: 0.1},
		{StartTs: 200, PriceUSD: 0.2},
	}

	tier, ok := SelectTier(tiers, 250)
	assert.True(t, ok)
	assert.Equal(t, int64(200), tier.StartTs)

	tier, _ = SelectTier(tiers, 10)
	assert.Equal(t, int64(100), tier.StartTs)
}

func TestPresaleWindow(t *testing.T) {
	s := &PresaleState{StartTs: 100, EndTs: 200}

	assert.False(t, s.IsActive(nowAt(99)))
	assert.True(t, s.IsActive(nowAt(100)))
	assert.True(t, s.IsActive(nowAt(200)))
	assert.False(t, s.IsActive(nowAt(201)))

	assert.Equal(t, PhaseNotStarted, s.Phase(nowAt(99)))
	assert.Equal(t, PhaseActive, s.Phase(nowAt(150)))
	assert.Equal(t, PhaseEnded, s.Phase(nowAt(201)))

	s.IsFinalized = true
	assert.False(t, s.IsActive(nowAt(150)))
	assert.Equal(t, PhaseFinalized, s.Phase(nowAt(150)))
}

func TestNextTier(t *testing.T) {
	s := samplePresale()

	next, ok := s.NextTier(nowAt(1_701_000_000))
	assert.True(t, ok)
	assert.Equal(t, int64(1_702_000_000), next.StartTs)

	d, ok := s.TimeUntilNextTier(nowAt(1_701_000_000))
	assert.True(t, ok)
	assert.Equal(t, time.Duration(1_000_000)*time.Second, d)

	_, ok = s.NextTier(nowAt(1_706_000_000))
	assert.False(t, ok)
}

func TestCapAndProgress(t *testing.T) {
	s := &PresaleState{HardCapTotal: 1000, TotalVibesSold: 250}
	assert.Equal(t, uint64(750), s.RemainingCap())
	assert.InDelta(t, 0.25, s.Progress(), 1e-9)

	s.TotalVibesSold = 2000
	assert.Zero(t, s.RemainingCap())
	assert.Equal(t, 1.0, s.Progress())

	assert.Zero(t, (&PresaleState{}).Progress())
}

func TestPendingRewards(t *testing.T) {
	b := &BuyerState{
		IsStaking:          true,
		StakedAmount:       1_000_000,
		AccumulatedRewards: 100,
		RewardDebt:         codec.Uint128{Lo: 500_000},
	}

	acc := codec.Uint128{Lo: 2 * RewardPrecision}
	assert.Equal(t, uint64(1_500_100), b.PendingRewards(acc))

	assert.Equal(t, uint64(100), b.PendingRewards(codec.Uint128{}))

	b.RewardDebt = codec.Uint128{Lo: 5_000_000}
	assert.Equal(t, uint64(100), b.PendingRewards(acc))

	b.IsStaking = false
	assert.Equal(t, uint64(100), b.PendingRewards(acc))
}

func TestStakingConsistent(t *testing.T) {
	b := sampleBuyer(newKey())
	assert.True(t, b.StakingConsistent())

	b.UnstakedAmount++
	assert.False(t, b.StakingConsistent())
}

func TestVestingSchedule(t *testing.T) {
	v := &VestingSchedule{Total: 1000, ListingTs: 100, Cliff1: 200, Cliff2: 300, Cliff3: 400}

	tests := []struct {
		ts   int64
		want uint64
	}{
		{50, 0},
		{100, 400},
		{250, 600},
		{300, 800},
		{450, 1000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, v.Vested(nowAt(tt.ts)), "ts=%d", tt.ts)
	}

	v.Released = 400
	assert.Equal(t, uint64(200), v.Claimable(nowAt(250)))
	assert.Zero(t, v.Claimable(nowAt(150)))
	assert.Equal(t, uint64(600), v.Remaining())

	v.IsCancelled = true
	assert.Zero(t, v.Claimable(nowAt(450)))
}

func TestVestingProgress(t *testing.T) {
	v := &VestingSchedule{Total: 1000, Released: 400, ListingTs: 100, Cliff1: 200, Cliff2: 300, Cliff3: 400}

	p := v.Status(nowAt(250))
	assert.Equal(t, VestingActive, p.Status)
	assert.Equal(t, uint64(60), p.Percent)
	assert.Equal(t, uint64(600), p.Vested)
	assert.Equal(t, uint64(200), p.Claimable)
	assert.Equal(t, uint64(600), p.Remaining)

	v.Released = 1000
	assert.Equal(t, VestingCompleted, v.Status(nowAt(450)).Status)

	v.Released = 400
	v.IsCancelled = true
	p = v.Status(nowAt(450))
	assert.Equal(t, VestingCancelled, p.Status)
	assert.Zero(t, p.Claimable)
}

func TestVestedDoesNotOverflow(t *testing.T) {
	v := &VestingSchedule{Total: ^uint64(0), ListingTs: 0, Cliff1: 0, Cliff2: 0, Cliff3: 0}
	assert.Equal(t, v.Total, v.Vested(nowAt(1)))
}

func TestResolveVestingStatus(t *testing.T) {
	transferred := &BuyerState{TransferredToVesting: true}
	active := &VestingSchedule{Total: 1000, Released: 400}

	assert.Equal(t, VestingNoPurchases, ResolveVestingStatus(nil, nil))
	assert.Equal(t, VestingPendingTransfer, ResolveVestingStatus(&BuyerState{}, active))
	assert.Equal(t, VestingNotCreated, ResolveVestingStatus(transferred, nil))
	assert.Equal(t, VestingCancelled, ResolveVestingStatus(transferred, &VestingSchedule{Total: 1000, Released: 1000, IsCancelled: true}))
	assert.Equal(t, VestingCompleted, ResolveVestingStatus(transferred, &VestingSchedule{Total: 1000, Released: 1000}))
	assert.Equal(t, VestingActive, ResolveVestingStatus(transferred, active))
}
