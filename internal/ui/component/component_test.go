package component

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/vibes-presale/internal/notify"
)

func TestProgressGaugeBar(t *testing.T) {
	g := NewProgressGauge(10)
	assert.Equal(t, "░░░░░░░░░░", g.Bar())

	g.SetValue(0.001)
	assert.Equal(t, "█░░░░░░░░░", g.Bar(), "non-zero shows one cell")

	g.SetValue(0.5)
	assert.Equal(t, "█████░░░░░", g.Bar())

	g.SetValue(3)
	assert.Equal(t, 1.0, g.Value())
	assert.Contains(t, g.View(), "100.0%")
}

func TestSparklineKeepsWindow(t *testing.T) {
	s := NewSparkline(4)
	for _, v := range []float64{1, 2, 3, 4, 5, 6} {
		s.AddDataPoint(v)
	}
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, "▁▃▅█", s.Blocks())

	flat := NewSparkline(3).AddDataPoint(2).AddDataPoint(2)
	assert.Equal(t, "▅▅ ", flat.Blocks())
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "abc", ShortAddress("abc"))
	assert.Equal(t, "9xQe…VFin", ShortAddress("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"))
}

func TestFeedViewFilters(t *testing.T) {
	feed, err := notify.NewFeed(10, "", zap.NewNop())
	require.NoError(t, err)
	feed.Add(notify.Entry{Timestamp: time.Now(), Category: notify.Error, Title: "Buy with SOL", Message: "boom"})
	feed.Add(notify.Entry{Timestamp: time.Now(), Category: notify.Success, Title: "Stake", Message: "ok", Signature: "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"})

	v := NewFeedView(feed)
	lines := v.Lines()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Stake")
	assert.Contains(t, lines[0], "5VER…kQUW")

	v.SetFilter(FeedFilter{HideError: true})
	assert.Len(t, v.Lines(), 1)
}
