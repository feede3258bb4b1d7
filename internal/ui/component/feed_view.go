package component

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/vibes-presale/internal/notify"
	"github.com/rovshanmuradov/vibes-presale/internal/ui/style"
)

// FeedFilter hides categories of the notification feed.
type FeedFilter struct {
	HideInfo    bool
	HideSuccess bool
	HideWarning bool
	HideError   bool
}

func (f FeedFilter) shows(c notify.Category) bool {
	switch c {
	case notify.Success:
		return !f.HideSuccess
	case notify.Warning:
		return !f.HideWarning
	case notify.Error:
		return !f.HideError
	default:
		return !f.HideInfo
	}
}

// FeedView shows the newest notifications first in a scrollable viewport.
type FeedView struct {
	feed     *notify.Feed
	viewport viewport.Model
	filter   FeedFilter
	limit    int
	width    int
	style    feedViewStyle
}

type feedViewStyle struct {
	timestamp lipgloss.Style
	title     lipgloss.Style
	signature lipgloss.Style
	byCat     map[notify.Category]lipgloss.Style
}

func NewFeedView(feed *notify.Feed) *FeedView {
	palette := style.DefaultPalette()
	return &FeedView{
		feed:     feed,
		limit:    50,
		viewport: viewport.New(60, 6),
		style: feedViewStyle{
			timestamp: lipgloss.NewStyle().Foreground(palette.TextMuted),
			title:     lipgloss.NewStyle().Bold(true),
			signature: lipgloss.NewStyle().Foreground(palette.TextMuted),
			byCat: map[notify.Category]lipgloss.Style{
				notify.Info:    lipgloss.NewStyle().Foreground(palette.Info),
				notify.Success: lipgloss.NewStyle().Foreground(palette.Success),
				notify.Warning: lipgloss.NewStyle().Foreground(palette.Warning),
				notify.Error:   lipgloss.NewStyle().Foreground(palette.Error),
			},
		},
	}
}

// SetSize accounts for the panel border and title line.
func (fv *FeedView) SetSize(width, height int) {
	fv.width = width
	fv.viewport.Width = max(width-4, 10)
	fv.viewport.Height = max(height-3, 2)
	fv.Refresh()
}

func (fv *FeedView) SetFilter(filter FeedFilter) {
	fv.filter = filter
	fv.Refresh()
}

func (fv *FeedView) Filter() FeedFilter { return fv.filter }

func (fv *FeedView) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	fv.viewport, cmd = fv.viewport.Update(msg)
	return cmd
}

// Refresh re-reads the feed.
func (fv *FeedView) Refresh() {
	lines := fv.Lines()
	if len(lines) == 0 {
		fv.viewport.SetContent(fv.style.timestamp.Render("No notifications"))
		return
	}
	fv.viewport.SetContent(strings.Join(lines, "\n"))
}

// Lines formats the visible entries, newest first.
func (fv *FeedView) Lines() []string {
	if fv.feed == nil {
		return nil
	}
	var out []string
	for _, e := range fv.feed.Recent(fv.limit) {
		if fv.filter.shows(e.Category) {
			out = append(out, fv.format(e))
		}
	}
	return out
}

func (fv *FeedView) format(e notify.Entry) string {
	line := fmt.Sprintf("%s %s %s",
		fv.style.timestamp.Render(e.Timestamp.Format("15:04:05")),
		fv.style.byCat[e.Category].Render(fv.style.title.Render(e.Title)),
		e.Message)
	if e.Signature != "" {
		line += " " + fv.style.signature.Render(ShortAddress(e.Signature))
	}
	return line
}

func (fv *FeedView) View() string {
	return style.Panel("Notifications", fv.width, fv.viewport.View())
}

func (fv *FeedView) ScrollUp()   { fv.viewport.LineUp(1) }
func (fv *FeedView) ScrollDown() { fv.viewport.LineDown(1) }
