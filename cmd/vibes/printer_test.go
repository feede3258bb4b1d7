package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/vibes-presale/internal/program"
)

func TestPrinterEmit(t *testing.T) {
	var buf bytes.Buffer
	p := Printer{format: "json", out: &buf}
	require.NoError(t, p.Emit(map[string]string{"phase": "active"}, func() { t.Fatal("text callback in json mode") }))
	assert.JSONEq(t, `{"phase":"active"}`, buf.String())

	buf.Reset()
	p.format = "text"
	require.NoError(t, p.Emit(nil, func() { p.Table([][2]string{{"Phase", "active"}, {"Tier price", "$0.0015"}}) }))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Phase       active", lines[0])
	assert.Equal(t, "Tier price  $0.0015", lines[1])

	p.format = "yaml"
	assert.Error(t, p.Emit(nil, func() {}))
}

func TestParseAmount(t *testing.T) {
	v, err := parseAmount("0.25")
	require.NoError(t, err)
	assert.Equal(t, 0.25, v)

	_, err = parseAmount("ten")
	assert.ErrorIs(t, err, program.ErrInvalidAmount)
}

func TestPresaleViewRows(t *testing.T) {
	p := &program.PresaleState{
		StartTs:         100,
		EndTs:           10_000,
		HardCapTotal:    1_000_000_000,
		TotalVibesSold:  250_000_000,
		RaisedSol:       2_500_000_000,
		OptionalStaking: true,
		StakingApyBps:   1200,
		PriceSchedule: []program.PriceTier{
			{StartTs: 0, PriceUSD: 0.001},
			{StartTs: 5_000, PriceUSD: 0.002},
		},
	}
	v := newPresaleView(program.DefaultPrograms().PresaleState, p, program.DefaultDecimals(), time.Unix(1_000, 0))

	assert.Equal(t, "active", v.Phase)
	assert.Equal(t, 0.001, v.TierPriceUSD)
	assert.Equal(t, "1h6m40s", v.NextTierIn)
	assert.Equal(t, "250.00", v.Sold)
	assert.Equal(t, "2.5000", v.RaisedSOL)
	assert.InDelta(t, 0.25, v.Progress, 1e-9)

	rows := v.rows()
	assert.Contains(t, rows, [2]string{"Sold", "250.00 / 1000.00 VIBES (25.0%)"})
	assert.Contains(t, rows, [2]string{"Staking", "optional, 12.00% APY"})
}
