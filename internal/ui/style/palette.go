package style

import "github.com/charmbracelet/lipgloss"

var (
	// Primary colors
	Cyan    = lipgloss.Color("#00E5FF")
	Magenta = lipgloss.Color("#FF1B6B")
	Yellow  = lipgloss.Color("#FFB500")
	Green   = lipgloss.Color("#2AFFAA")
	Red     = lipgloss.Color("#FF5555")
	Blue    = lipgloss.Color("#3B82F6")
	Purple  = lipgloss.Color("#8B5CF6")

	// Base colors
	Base03 = lipgloss.Color("#1B1D23")
	Base02 = lipgloss.Color("#262831")
	Base01 = lipgloss.Color("#6C7280")
	Base2  = lipgloss.Color("#ECEFF4")
	Base1  = lipgloss.Color("#B4BCC8")
)

// Palette provides a centralized color management
type Palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Error     lipgloss.Color
	Warning   lipgloss.Color
	Info      lipgloss.Color

	Background lipgloss.Color
	Text       lipgloss.Color
	TextMuted  lipgloss.Color

	// Allocation colors
	Staked   lipgloss.Color
	Unstaked lipgloss.Color
	Vesting  lipgloss.Color
}

// DefaultPalette returns the default color palette
func DefaultPalette() Palette {
	return Palette{
		Primary:   Cyan,
		Secondary: Magenta,
		Success:   Green,
		Error:     Red,
		Warning:   Yellow,
		Info:      Blue,

		Background: Base03,
		Text:       Base2,
		TextMuted:  Base01,

		Staked:   Purple,
		Unstaked: Base1,
		Vesting:  Cyan,
	}
}

// Panel is the bordered box every dashboard section is drawn in.
func Panel(title string, width int, body string) string {
	p := DefaultPalette()
	head := lipgloss.NewStyle().Foreground(p.Primary).Bold(true).Render(title)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.TextMuted).
		Padding(0, 1)
	if width > 4 {
		box = box.Width(width - 2)
	}
	return box.Render(lipgloss.JoinVertical(lipgloss.Left, head, body))
}

// Label renders a muted "name:" prefix followed by value.
func Label(name, value string) string {
	muted := lipgloss.NewStyle().Foreground(DefaultPalette().TextMuted)
	return muted.Render(name+":") + " " + value
}
