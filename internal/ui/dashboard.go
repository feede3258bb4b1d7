package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/vibes-presale/internal/notify"
	"github.com/rovshanmuradov/vibes-presale/internal/oracle"
	"github.com/rovshanmuradov/vibes-presale/internal/program"
	"github.com/rovshanmuradov/vibes-presale/internal/state"
	"github.com/rovshanmuradov/vibes-presale/internal/ui/component"
	"github.com/rovshanmuradov/vibes-presale/internal/ui/style"
)

// Backend is what the dashboard reads from. *dapp.Client satisfies it.
type Backend interface {
	Snapshot(ctx context.Context) (*state.Snapshot, error)
	SOLPrice(ctx context.Context) (oracle.Price, error)
	Feed() *notify.Feed
	Decimals() program.Decimals
}

// Dashboard is a read-only view of the presale and the connected wallet.
// It refreshes on a timer and whenever the bus reports a wallet or
// operation change.
type Dashboard struct {
	backend  Backend
	updates  <-chan tea.Msg
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	keys    KeyMap
	spinner spinner.Model
	header  *component.StatusHeader
	sold    *component.ProgressGauge
	vested  *component.ProgressGauge
	prices  *component.Sparkline
	feed    *component.FeedView
	help    *component.HelpBar

	snapshot *state.Snapshot
	price    oracle.Price
	err      error
	loading  bool
	width    int
	height   int
}

// NewDashboard creates the model. updates may be nil.
func NewDashboard(backend Backend, updates <-chan tea.Msg, interval time.Duration) *Dashboard {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(style.DefaultPalette().Primary)

	keys := DefaultKeyMap()
	return &Dashboard{
		backend:  backend,
		updates:  updates,
		interval: interval,
		timeout:  15 * time.Second,
		now:      time.Now,
		keys:     keys,
		spinner:  sp,
		header:   component.NewStatusHeader(),
		sold:     component.NewProgressGauge(30),
		vested:   component.NewProgressGauge(20).SetColor(style.DefaultPalette().Vesting),
		prices:   component.NewSparkline(30),
		feed:     component.NewFeedView(backend.Feed()),
		help:     component.NewHelpBar().SetKeyBindings(keys.ShortHelp()),
		loading:  true,
	}
}

func (d *Dashboard) Init() tea.Cmd {
	cmds := []tea.Cmd{d.spinner.Tick, d.loadSnapshot(), d.loadPrice(), d.tick()}
	if d.updates != nil {
		cmds = append(cmds, ListenUpdates(d.updates))
	}
	return tea.Batch(cmds...)
}

func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width, d.height = msg.Width, msg.Height
		d.header.SetWidth(msg.Width)
		d.help.SetWidth(msg.Width)
		d.feed.SetSize(msg.Width, max(msg.Height-22, 6))
		return d, nil

	case tea.KeyMsg:
		return d, d.handleKey(msg)

	case spinner.TickMsg:
		if !d.loading {
			return d, nil
		}
		var cmd tea.Cmd
		d.spinner, cmd = d.spinner.Update(msg)
		return d, cmd

	case SnapshotMsg:
		d.loading = false
		d.err = msg.Err
		if msg.Err == nil {
			d.applySnapshot(msg.Snapshot)
		}
		d.feed.Refresh()
		return d, nil

	case PriceMsg:
		if msg.Err == nil {
			d.price = msg.Price
			d.header.SetPrice(msg.Price.SOLUSD, msg.Price.Source, msg.Price.Fallback)
			d.prices.AddDataPoint(msg.Price.SOLUSD)
		}
		d.feed.Refresh()
		return d, nil

	case tickMsg:
		return d, tea.Batch(d.loadSnapshot(), d.loadPrice(), d.tick())

	case StageMsg:
		d.header.SetStage(fmt.Sprintf("%s %s", msg.Method, msg.Stage))
		return d, d.listen()

	case RefreshMsg:
		d.feed.Refresh()
		d.loading = true
		return d, tea.Batch(d.listen(), d.loadSnapshot(), d.spinner.Tick)

	case FeedChangedMsg:
		d.feed.Refresh()
		return d, d.listen()
	}
	return d, nil
}

func (d *Dashboard) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, d.keys.Quit):
		return tea.Quit
	case key.Matches(msg, d.keys.Refresh):
		d.loading = true
		return tea.Batch(d.loadSnapshot(), d.loadPrice(), d.spinner.Tick)
	case key.Matches(msg, d.keys.Up):
		d.feed.ScrollUp()
	case key.Matches(msg, d.keys.Down):
		d.feed.ScrollDown()
	case key.Matches(msg, d.keys.ToggleInfo):
		f := d.feed.Filter()
		f.HideInfo = !f.HideInfo
		d.feed.SetFilter(f)
	case key.Matches(msg, d.keys.ToggleWarning):
		f := d.feed.Filter()
		f.HideWarning = !f.HideWarning
		d.feed.SetFilter(f)
	case key.Matches(msg, d.keys.ToggleError):
		f := d.feed.Filter()
		f.HideError = !f.HideError
		d.feed.SetFilter(f)
	}
	return nil
}

func (d *Dashboard) applySnapshot(s *state.Snapshot) {
	d.snapshot = s
	if s == nil {
		return
	}
	if s.Owner.IsZero() {
		d.header.SetWallet("")
	} else {
		d.header.SetWallet(s.Owner.String())
	}
	if s.Presale != nil {
		d.header.SetPhase(string(s.Presale.Phase(d.now())))
		d.sold.SetValue(s.Presale.Progress())
	}
	if s.Vesting != nil && s.Vesting.Total > 0 {
		d.vested.SetValue(float64(s.Vesting.VestedPercent(d.now())) / 100)
	}
}

func (d *Dashboard) View() string {
	if d.width == 0 {
		return "Initializing..."
	}
	sections := []string{d.header.View()}
	if d.err != nil {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(style.DefaultPalette().Error).
			Render("Error: "+d.err.Error()))
	}
	if d.loading && d.snapshot == nil {
		sections = append(sections, d.spinner.View()+" Loading presale state...")
	} else {
		sections = append(sections, d.presaleView(), d.walletView())
	}
	sections = append(sections, d.feed.View(), d.help.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (d *Dashboard) presaleView() string {
	s := d.snapshot
	if s == nil || s.Presale == nil {
		return style.Panel("Presale", d.width, "Presale account not found")
	}
	p := s.Presale
	dec := d.backend.Decimals()
	now := d.now()

	lines := []string{
		style.Label("Phase", string(p.Phase(now))),
		style.Label("Sold", d.sold.View()+fmt.Sprintf("  %s / %s VIBES",
			program.FormatAmount(p.TotalVibesSold, dec.VIBES, 0),
			program.FormatAmount(p.HardCapTotal, dec.VIBES, 0))),
	}
	if tier, ok := p.CurrentTier(now); ok {
		price := fmt.Sprintf("$%.6f", tier.PriceUSD)
		if d.price.SOLUSD > 0 && tier.PriceUSD > 0 {
			if perSOL, err := oracle.VibesPerSOL(d.price.SOLUSD, tier.PriceUSD); err == nil {
				price += fmt.Sprintf("  (%s VIBES per SOL)", perSOL.StringFixed(0))
			}
		}
		lines = append(lines, style.Label("Price", price))
	}
	if next, ok := p.TimeUntilNextTier(now); ok {
		lines = append(lines, style.Label("Next tier in", next.Truncate(time.Second).String()))
	}
	if d.prices.Len() > 0 {
		lines = append(lines, style.Label("SOL/USD", d.prices.View()))
	}
	return style.Panel("Presale", d.width, lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (d *Dashboard) walletView() string {
	s := d.snapshot
	if s == nil || s.Owner.IsZero() {
		return style.Panel("Wallet", d.width, "Connect a wallet to see your allocation")
	}
	dec := d.backend.Decimals()
	lines := []string{
		style.Label("Balances", fmt.Sprintf("%s SOL  %s USDC  %s VIBES",
			program.FormatAmount(s.SOLLamports, dec.SOL, 4),
			program.FormatAmount(s.USDCUnits, dec.USDC, 2),
			program.FormatAmount(s.VIBESUnits, dec.VIBES, 2))),
	}
	if b := s.Buyer; b != nil {
		palette := style.DefaultPalette()
		staked := lipgloss.NewStyle().Foreground(palette.Staked).Render(program.FormatAmount(b.StakedAmount, dec.VIBES, 2))
		unstaked := lipgloss.NewStyle().Foreground(palette.Unstaked).Render(program.FormatAmount(b.UnstakedAmount, dec.VIBES, 2))
		lines = append(lines,
			style.Label("Purchased", program.FormatAmount(b.TotalPurchasedVibes, dec.VIBES, 2)+" VIBES"),
			style.Label("Staked / unstaked", staked+" / "+unstaked),
		)
		if s.Presale != nil {
			lines = append(lines, style.Label("Pending rewards",
				program.FormatAmount(b.PendingRewards(s.Presale.AccRewardPerToken), dec.VIBES, 2)))
		}
	} else {
		lines = append(lines, style.Label("Purchased", "no purchases yet"))
	}

	vesting := string(s.VestingStatus())
	if v := s.Vesting; v != nil {
		vesting += "  " + d.vested.View() + fmt.Sprintf("  claimable %s",
			program.FormatAmount(v.Claimable(d.now()), dec.VIBES, 2))
	}
	lines = append(lines, style.Label("Vesting", vesting))
	return style.Panel("Wallet", d.width, lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (d *Dashboard) loadSnapshot() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		snap, err := d.backend.Snapshot(ctx)
		return SnapshotMsg{Snapshot: snap, Err: err}
	}
}

func (d *Dashboard) loadPrice() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		p, err := d.backend.SOLPrice(ctx)
		return PriceMsg{Price: p, Err: err}
	}
}

func (d *Dashboard) tick() tea.Cmd {
	return tea.Tick(d.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (d *Dashboard) listen() tea.Cmd {
	if d.updates == nil {
		return nil
	}
	return ListenUpdates(d.updates)
}
