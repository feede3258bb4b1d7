package codec

import (
	"crypto/sha256"
	"math"
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tierLayout = NewStructLayout("Tier",
		Field{Name: "startTs", Kind: KindI64},
		Field{Name: "priceUsd", Kind: KindF64},
	)
	sampleLayout = NewAccountLayout("Sample",
		Field{Name: "owner", Kind: KindPublicKey},
		Field{Name: "bump", Kind: KindU8},
		Field{Name: "rate", Kind: KindU16},
		Field{Name: "count", Kind: KindU32},
		Field{Name: "amount", Kind: KindU64},
		Field{Name: "ts", Kind: KindI64},
		Field{Name: "active", Kind: KindBool},
		Field{Name: "debt", Kind: KindU128},
		Field{Name: "tiers", Kind: KindVec, Elem: tierLayout},
		Field{Name: "tail", Kind: KindU64},
	)
)

func sampleRecord() Record {
	return Record{
		"owner":  solana.MustPublicKeyFromBase58("EoDCTycvkJV4UXm54KYiF1DuCMSHyXYPftGUVr3qJxPp"),
		"bump":   uint8(254),
		"rate":   uint16(250),
		"count":  uint32(7),
		"amount": uint64(1_000_000_000),
		"ts":     int64(-42),
		"active": true,
		"debt":   Uint128{Lo: 5, Hi: 1},
		"tiers": []Record{
			{"startTs": int64(1_700_000_000), "priceUsd": 0.0015},
			{"startTs": int64(1_700_086_400), "priceUsd": 0.002},
		},
		"tail": uint64(math.MaxUint64),
	}
}

func TestLayoutRoundTrip(t *testing.T) {
	rec := sampleRecord()

	data, err := sampleLayout.Encode(rec)
	require.NoError(t, err)

	decoded, err := sampleLayout.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, rec, decoded)
}

func TestLayoutDecodeWrongDiscriminator(t *testing.T) {
	data, err := sampleLayout.Encode(sampleRecord())
	require.NoError(t, err)
	data[0] ^= 0xff

	_, err = sampleLayout.Decode(data)
	assert.True(t, IsWrongAccountType(err))

	var typed *WrongAccountTypeError
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, "Sample", typed.Layout)
}

func TestLayoutDecodeUnderrunAtEveryLength(t *testing.T) {
	data, err := sampleLayout.Encode(sampleRecord())
	require.NoError(t, err)

	for n := 0; n < len(data); n++ {
		rec, err := sampleLayout.Decode(data[:n])
		assert.Nil(t, rec, "length %d", n)
		assert.True(t, IsBufferUnderrun(err), "length %d: %v", n, err)
	}
}

func TestVecLengthBeyondBufferIsUnderrun(t *testing.T) {
	layout := NewStructLayout("Schedule", Field{Name: "tiers", Kind: KindVec, Elem: tierLayout})

	data, err := NewEncoder().WriteU32(1_000_000).WriteI64(1).WriteF64(1).Bytes()
	require.NoError(t, err)

	_, err = layout.Decode(data)
	require.Error(t, err)

	var underrun *UnderrunError
	require.ErrorAs(t, err, &underrun)
	assert.Equal(t, "Schedule.tiers", underrun.Field)
	assert.Equal(t, 16_000_000, underrun.Need)
}

func TestVariableSizeVecWithForgedLength(t *testing.T) {
	entry := NewStructLayout("Entry", Field{Name: "tiers", Kind: KindVec, Elem: tierLayout})
	layout := NewStructLayout("Batch", Field{Name: "entries", Kind: KindVec, Elem: entry})

	// One empty entry follows a length prefix claiming 4294967295.
	data, err := NewEncoder().WriteU32(math.MaxUint32).WriteU32(0).Bytes()
	require.NoError(t, err)

	_, err = layout.Decode(data)
	require.ErrorIs(t, err, ErrBufferUnderrun)
	assert.True(t, IsBufferUnderrun(err))
}

func TestLayoutSizeAndOffset(t *testing.T) {
	fixed := NewAccountLayout("Fixed",
		Field{Name: "owner", Kind: KindPublicKey},
		Field{Name: "bump", Kind: KindU8},
		Field{Name: "debt", Kind: KindU128},
		Field{Name: "count", Kind: KindU32},
	)
	size, ok := fixed.Size()
	assert.True(t, ok)
	assert.Equal(t, 8+32+1+16+4, size)

	off, err := fixed.Offset("debt")
	require.NoError(t, err)
	assert.Equal(t, 41, off)

	_, ok = sampleLayout.Size()
	assert.False(t, ok)

	_, err = sampleLayout.Offset("tail")
	assert.Error(t, err)

	_, err = fixed.Offset("missing")
	assert.Error(t, err)
}

func TestEncodeRejectsWrongType(t *testing.T) {
	rec := sampleRecord()
	rec["amount"] = 12

	_, err := sampleLayout.Encode(rec)
	assert.ErrorIs(t, err, ErrDecodeFailed)

	delete(rec, "amount")
	_, err = sampleLayout.Encode(rec)
	assert.ErrorIs(t, err, ErrDecodeFailed)
}

func TestFieldsStickyError(t *testing.T) {
	f := Read(Record{"a": uint64(1), "b": "oops"})

	assert.Equal(t, uint64(1), f.U64("a"))
	assert.Equal(t, uint64(0), f.U64("b"))
	assert.Equal(t, uint64(0), f.U64("a"))
	assert.ErrorIs(t, f.Err(), ErrDecodeFailed)
}

func TestUint128(t *testing.T) {
	u := Uint128{Lo: 1, Hi: 2}
	want := new(big.Int).Lsh(big.NewInt(2), 64)
	want.Add(want, big.NewInt(1))
	assert.Equal(t, 0, want.Cmp(u.BigInt()))

	back, ok := Uint128FromBig(want)
	require.True(t, ok)
	assert.Equal(t, u, back)

	_, ok = Uint128FromBig(new(big.Int).Lsh(big.NewInt(1), 128))
	assert.False(t, ok)
	_, ok = Uint128FromBig(big.NewInt(-1))
	assert.False(t, ok)
}

func TestDecoderPrimitives(t *testing.T) {
	data, err := NewEncoder().
		WriteU16(0x0102).
		WriteBool(false).
		WriteU8(7).
		Pad(3).
		Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x01, 0x00, 0x07, 0, 0, 0}, data)

	d := NewDecoder([]byte{0x05})
	b, err := d.ReadBool("flag")
	require.NoError(t, err)
	assert.True(t, b)
	assert.Equal(t, 1, d.Offset())
	assert.Equal(t, 0, d.Remaining())

	_, err = d.ReadU8("next")
	assert.True(t, IsBufferUnderrun(err))
}

func TestSighash(t *testing.T) {
	sum := sha256.Sum256([]byte("global:buy_with_usdc_v3"))
	assert.Equal(t, sum[:8], InstructionDiscriminator("buy_with_usdc_v3"))

	sum = sha256.Sum256([]byte("account:BuyerStateV3"))
	assert.Equal(t, sum[:8], AccountDiscriminator("BuyerStateV3"))
}
