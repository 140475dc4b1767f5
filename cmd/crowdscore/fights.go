package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/abrezinsky/crowdscore/internal/models"
	"github.com/abrezinsky/crowdscore/internal/services"
)

var (
	dateStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Width(11)
	boutStyle  = lipgloss.NewStyle().Bold(true)
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4F8DFF"))
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Italic(true)
)

func newFightsCmd(root *rootOptions) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:       "fights [today|upcoming|all]",
		Short:     "List scheduled fights",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{services.WhenToday, services.WhenUpcoming, services.WhenAll},
		RunE: func(cmd *cobra.Command, args []string) error {
			when := services.WhenAll
			if len(args) == 1 {
				when = args[0]
			}
			return runFights(cmd, root, when, refresh)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "pull the schedule from the remote store first")
	return cmd
}

func runFights(cmd *cobra.Command, root *rootOptions, when string, refresh bool) error {
	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return err
	}
	stack, err := newScoringStack(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer stack.repo.Close()

	ctx := cmd.Context()
	if refresh {
		res, err := stack.schedule.Refresh(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "schedule: %d fights from %s\n", res.Fights, res.Source)
	} else if err := stack.schedule.EnsureFresh(ctx); err != nil {
		return err
	}

	fights, err := stack.schedule.List(ctx, when)
	if err != nil {
		return err
	}
	printFights(cmd.OutOrStdout(), fights)
	return nil
}

func printFights(w io.Writer, fights []models.Fight) {
	if len(fights) == 0 {
		fmt.Fprintln(w, emptyStyle.Render("no fights scheduled"))
		return
	}
	for _, f := range fights {
		line := dateStyle.Render(f.Date) +
			boutStyle.Render(f.FighterA.Name+" vs "+f.FighterB.Name) +
			fmt.Sprintf("  %d rds", f.Rounds)
		if details := fightDetails(f); details != "" {
			line += "  " + details
		}
		fmt.Fprintln(w, line+"  "+idStyle.Render(f.ID))
	}
}

func fightDetails(f models.Fight) string {
	var parts []string
	for _, p := range []string{f.Title, f.Venue, f.Network} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
