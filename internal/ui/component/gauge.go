package component

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/vibes-presale/internal/ui/style"
)

// ProgressGauge renders a filled bar for a ratio in [0, 1], e.g. tokens sold
// against the hard cap or the vested share of a schedule.
type ProgressGauge struct {
	value     float64
	width     int
	showValue bool
	color     lipgloss.Color
}

func NewProgressGauge(width int) *ProgressGauge {
	return &ProgressGauge{
		width:     width,
		showValue: true,
		color:     style.DefaultPalette().Primary,
	}
}

// SetValue clamps v into [0, 1].
func (g *ProgressGauge) SetValue(v float64) *ProgressGauge {
	if math.IsNaN(v) {
		v = 0
	}
	g.value = math.Max(0, math.Min(1, v))
	return g
}

func (g *ProgressGauge) Value() float64 { return g.value }

func (g *ProgressGauge) SetWidth(width int) *ProgressGauge {
	g.width = width
	return g
}

func (g *ProgressGauge) SetColor(c lipgloss.Color) *ProgressGauge {
	g.color = c
	return g
}

func (g *ProgressGauge) SetShowValue(show bool) *ProgressGauge {
	g.showValue = show
	return g
}

func (g *ProgressGauge) View() string {
	bar := lipgloss.NewStyle().Foreground(g.color).Render(g.Bar())
	if !g.showValue {
		return bar
	}
	return bar + " " + lipgloss.NewStyle().Foreground(g.color).Bold(true).
		Render(fmt.Sprintf("%.1f%%", g.value*100))
}

// Bar is the unstyled bar. A non-zero value always fills at least one cell.
func (g *ProgressGauge) Bar() string {
	if g.width <= 0 {
		return ""
	}
	filled := int(g.value * float64(g.width))
	if filled == 0 && g.value > 0 {
		filled = 1
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", g.width-filled)
}
