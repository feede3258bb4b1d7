package component

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/vibes-presale/internal/ui/style"
)

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline is a mini graph of the last width SOL/USD quotes.
type Sparkline struct {
	data  []float64
	width int
	color lipgloss.Color
}

func NewSparkline(width int) *Sparkline {
	return &Sparkline{width: width, color: style.DefaultPalette().Primary}
}

// AddDataPoint appends value, keeping only the last width points.
func (s *Sparkline) AddDataPoint(value float64) *Sparkline {
	s.data = append(s.data, value)
	if len(s.data) > s.width {
		s.data = s.data[len(s.data)-s.width:]
	}
	return s
}

func (s *Sparkline) Len() int { return len(s.data) }

func (s *Sparkline) View() string {
	blocks := lipgloss.NewStyle().Foreground(s.color).Render(s.Blocks())
	if len(s.data) < 2 {
		return blocks
	}
	p := style.DefaultPalette()
	cur, prev := s.data[len(s.data)-1], s.data[len(s.data)-2]
	switch {
	case cur > prev:
		return blocks + " " + lipgloss.NewStyle().Foreground(p.Success).Render("↗")
	case cur < prev:
		return blocks + " " + lipgloss.NewStyle().Foreground(p.Error).Render("↘")
	default:
		return blocks + " " + lipgloss.NewStyle().Foreground(p.TextMuted).Render("→")
	}
}

// Blocks is the unstyled graph, padded to width.
func (s *Sparkline) Blocks() string {
	if len(s.data) == 0 {
		return strings.Repeat("▁", s.width)
	}
	lo, hi := s.data[0], s.data[0]
	for _, v := range s.data {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	var b strings.Builder
	for _, v := range s.data {
		idx := len(sparkChars) / 2
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkChars)-1))
		}
		b.WriteRune(sparkChars[idx])
	}
	for i := len(s.data); i < s.width; i++ {
		b.WriteRune(' ')
	}
	return b.String()
}
