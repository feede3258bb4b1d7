// cmd/vibes/cmd_dashboard.go
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/vibes-presale/internal/ui"
)

func createDashboardCmd() *cobra.Command {
	var refreshInterval time.Duration

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Interactive dashboard for the presale and the connected wallet",
		Long: `Launch a terminal dashboard showing sale progress, the current tier,
SOL/USD, wallet balances, staking and vesting, and the notification feed.

For non-interactive environments (CI/pipes) the dashboard falls back to
the status command output.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isatty.IsTerminal(os.Stdout.Fd()) {
				return createStatusCmd().RunE(cmd, args)
			}

			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			if err := a.connect(ctx, false); err != nil {
				return err
			}

			updates := make(chan tea.Msg, 256)
			relay := ui.NewRelay(updates, a.log.Named("ui-relay"), 30*time.Second)
			defer relay.Close()
			detach := relay.Attach(a.client.Bus())
			defer detach()

			model := ui.NewSafeModel(ui.NewDashboard(a.client, updates, refreshInterval), a.log.Logger)
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil {
				if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
					return nil
				}
				a.log.Error("Dashboard stopped", zap.Error(err))
				return fmt.Errorf("dashboard: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&refreshInterval, "refresh-interval", 15*time.Second, "Dashboard refresh interval")
	return cmd
}
