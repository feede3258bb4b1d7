package component

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/vibes-presale/internal/ui/style"
)

// StatusHeader is the top bar of the dashboard.
type StatusHeader struct {
	wallet   string
	price    float64
	fallback bool
	source   string
	stage    string
	phase    string
	width    int
	style    statusHeaderStyle
}

type statusHeaderStyle struct {
	container lipgloss.Style
	title     lipgloss.Style
	wallet    lipgloss.Style
	good      lipgloss.Style
	warn      lipgloss.Style
	muted     lipgloss.Style
}

func NewStatusHeader() *StatusHeader {
	palette := style.DefaultPalette()
	return &StatusHeader{
		style: statusHeaderStyle{
			container: lipgloss.NewStyle().
				Foreground(palette.Text).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(palette.Primary).
				Padding(0, 2),
			title:  lipgloss.NewStyle().Foreground(palette.Primary).Bold(true),
			wallet: lipgloss.NewStyle().Foreground(palette.Text),
			good:   lipgloss.NewStyle().Foreground(palette.Success).Bold(true),
			warn:   lipgloss.NewStyle().Foreground(palette.Warning).Bold(true),
			muted:  lipgloss.NewStyle().Foreground(palette.TextMuted),
		},
	}
}

// SetWallet updates the wallet address display
func (sh *StatusHeader) SetWallet(address string) {
	sh.wallet = ShortAddress(address)
}

func (sh *StatusHeader) SetPrice(usd float64, source string, fallback bool) {
	sh.price, sh.source, sh.fallback = usd, source, fallback
}

// SetStage shows the current transaction stage; "" hides it.
func (sh *StatusHeader) SetStage(stage string) {
	sh.stage = stage
}

func (sh *StatusHeader) SetPhase(phase string) {
	sh.phase = phase
}

// SetWidth sets the component width for responsive layout
func (sh *StatusHeader) SetWidth(width int) {
	sh.width = width
	if width > 4 {
		sh.style.container = sh.style.container.Width(width - 2)
	}
}

func (sh *StatusHeader) View() string {
	parts := []string{sh.style.title.Render("VIBES Presale")}

	if sh.wallet == "" {
		parts = append(parts, sh.style.muted.Render("Wallet: not connected"))
	} else {
		parts = append(parts, sh.style.wallet.Render("Wallet: "+sh.wallet))
	}
	if sh.phase != "" {
		parts = append(parts, sh.style.wallet.Render("Sale: "+sh.phase))
	}
	parts = append(parts, sh.renderPrice())
	if sh.stage != "" {
		parts = append(parts, sh.style.warn.Render("Tx: "+sh.stage))
	}

	content := parts[0]
	for _, p := range parts[1:] {
		content = lipgloss.JoinHorizontal(lipgloss.Left, content, " | ", p)
	}
	return sh.style.container.Render(content)
}

func (sh *StatusHeader) renderPrice() string {
	switch {
	case sh.price <= 0:
		return sh.style.muted.Render("SOL: --")
	case sh.fallback:
		return sh.style.warn.Render(fmt.Sprintf("SOL: $%.2f (fallback)", sh.price))
	default:
		return sh.style.good.Render(fmt.Sprintf("SOL: $%.2f (%s)", sh.price, sh.source))
	}
}

// ShortAddress keeps the first and last four characters of a base58 key.
func ShortAddress(s string) string {
	if len(s) <= 12 {
		return s
	}
	return s[:4] + "…" + s[len(s)-4:]
}
