package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/vibes-presale/internal/codec"
)

func TestBuyerStateLayoutSize(t *testing.T) {
	size, fixed := BuyerStateLayout.Size()
	require.True(t, fixed)
	assert.Equal(t, BuyerStateSize, size)

	data, err := sampleBuyer(newKey()).Encode()
	require.NoError(t, err)
	assert.Len(t, data, BuyerStateSize)
}

func TestPresaleStateRoundTrip(t *testing.T) {
	want := samplePresale()

	data, err := want.Encode()
	require.NoError(t, err)

	got, err := DecodePresaleState(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPresaleStateEmptySchedule(t *testing.T) {
	want := samplePresale()
	want.PriceSchedule = nil

	data, err := want.Encode()
	require.NoError(t, err)

	got, err := DecodePresaleState(data)
	require.NoError(t, err)
	assert.Nil(t, got.PriceSchedule)
	_, ok := got.CurrentTier(nowAt(1_700_000_000))
	assert.False(t, ok)
}

func TestBuyerStateRoundTrip(t *testing.T) {
	want := sampleBuyer(newKey())
	want.TransferredToVesting = true
	want.FinalVestingAmount = 3_000_000

	data, err := want.Encode()
	require.NoError(t, err)

	got, err := DecodeBuyerState(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestVestingScheduleRoundTrip(t *testing.T) {
	want := &VestingSchedule{
		Beneficiary: newKey(),
		TokenMint:   DefaultVibesMint,
		Total:       1000,
		Released:    400,
		ListingTs:   100,
		Cliff1:      200,
		Cliff2:      300,
		Cliff3:      400,
		Vault:       newKey(),
		Bump:        253,
	}

	data, err := want.Encode()
	require.NoError(t, err)

	got, err := DecodeVestingSchedule(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeRejectsOtherAccountType(t *testing.T) {
	data, err := sampleBuyer(newKey()).Encode()
	require.NoError(t, err)

	_, err = DecodePresaleState(data)
	require.Error(t, err)
	assert.True(t, codec.IsWrongAccountType(err))
	assert.Contains(t, err.Error(), PresaleStateAccount)
}

func TestDecodeTruncatedBuyer(t *testing.T) {
	data, err := sampleBuyer(newKey()).Encode()
	require.NoError(t, err)

	_, err = DecodeBuyerState(data[:BuyerStateSize-4])
	require.Error(t, err)
	assert.True(t, codec.IsBufferUnderrun(err))
}
