package component

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/vibes-presale/internal/ui/style"
)

// HelpBar represents a help bar component showing keyboard shortcuts
type HelpBar struct {
	keyBindings []key.Binding
	width       int

	keyStyle       lipgloss.Style
	descStyle      lipgloss.Style
	sepStyle       lipgloss.Style
	containerStyle lipgloss.Style
}

func NewHelpBar() *HelpBar {
	palette := style.DefaultPalette()
	return &HelpBar{
		width:          80,
		keyStyle:       lipgloss.NewStyle().Foreground(palette.Primary).Bold(true),
		descStyle:      lipgloss.NewStyle().Foreground(palette.TextMuted),
		sepStyle:       lipgloss.NewStyle().Foreground(palette.TextMuted),
		containerStyle: lipgloss.NewStyle().Padding(0, 1),
	}
}

func (h *HelpBar) SetKeyBindings(bindings []key.Binding) *HelpBar {
	h.keyBindings = bindings
	return h
}

func (h *HelpBar) SetWidth(width int) *HelpBar {
	h.width = width
	return h
}

// View renders "key desc" items, wrapping onto new lines when they do not fit.
func (h *HelpBar) View() string {
	sep := h.sepStyle.Render(" • ")
	sepWidth := lipgloss.Width(sep)
	maxWidth := h.width - 4

	var lines []string
	var line []string
	width := 0
	for _, b := range h.keyBindings {
		if !b.Enabled() || b.Help().Key == "" {
			continue
		}
		item := h.keyStyle.Render(b.Help().Key) + " " + h.descStyle.Render(b.Help().Desc)
		w := lipgloss.Width(item) + sepWidth
		if width+w > maxWidth && len(line) > 0 {
			lines = append(lines, strings.Join(line, sep))
			line, width = nil, 0
		}
		line = append(line, item)
		width += w
	}
	if len(line) > 0 {
		lines = append(lines, strings.Join(line, sep))
	}
	if len(lines) == 0 {
		return ""
	}
	return h.containerStyle.Render(strings.Join(lines, "\n"))
}
