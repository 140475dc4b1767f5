package main

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/abrezinsky/crowdscore/internal/app"
	"github.com/abrezinsky/crowdscore/internal/config"
	"github.com/abrezinsky/crowdscore/internal/repository"
	"github.com/abrezinsky/crowdscore/internal/scorecard"
	"github.com/abrezinsky/crowdscore/internal/services"
	"github.com/abrezinsky/crowdscore/internal/tui"
)

type tuiOptions struct {
	rounds  int
	cornerA string
	cornerB string
	fightID string
}

func newTUICmd(root *rootOptions) *cobra.Command {
	opts := &tuiOptions{}
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Score a fight in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, root, opts)
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.rounds, "rounds", 0, "number of rounds (default from settings)")
	f.StringVar(&opts.cornerA, "blue", "", "blue corner fighter")
	f.StringVar(&opts.cornerB, "red", "", "red corner fighter")
	f.StringVar(&opts.fightID, "fight", "", "scheduled fight ID to prefill names and rounds")
	return cmd
}

// scoringStack is the part of the server the terminal scorer needs
type scoringStack struct {
	repo     *repository.Repository
	settings *services.SettingsService
	schedule *services.ScheduleService
	bouts    *services.ScorecardService
}

func newScoringStack(cfg config.Config, logOut io.Writer) (*scoringStack, error) {
	repo, err := openRepository(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	log := newLogger(logOut, cfg)
	client := app.RemoteClient(cfg, log)

	settings := services.NewSettingsService(log, repo, cfg.Settings)
	schedule := services.NewScheduleService(log, repo, client)
	bouts := services.NewScorecardService(log, app.Sink(client, repo, log), settings,
		services.WithSchedule(schedule))

	return &scoringStack{repo: repo, settings: settings, schedule: schedule, bouts: bouts}, nil
}

func runTUI(cmd *cobra.Command, root *rootOptions, opts *tuiOptions) error {
	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Log lines would tear the alt screen
	stack, err := newScoringStack(cfg, io.Discard)
	if err != nil {
		return err
	}
	defer stack.repo.Close()

	ctx := cmd.Context()
	if opts.fightID != "" {
		if err := stack.schedule.EnsureFresh(ctx); err != nil {
			return fmt.Errorf("failed to load fight schedule: %w", err)
		}
	}

	engine, err := stack.settings.EngineConfig(ctx)
	if err != nil {
		return err
	}
	model, err := tui.NewModel(ctx, stack.bouts, services.StartRequest{
		RoundCount: opts.rounds,
		CornerA:    opts.cornerA,
		CornerB:    opts.cornerB,
		FightID:    opts.fightID,
	}, engine.Picker)
	if err != nil {
		return err
	}

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	// Let a save started by the last finalize land before the db closes
	id := model.Bout().ID
	if err := stack.bouts.WaitSaves(id); err != nil {
		return err
	}
	bout, err := stack.bouts.Get(ctx, id)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), bout)
	return nil
}

func printResult(w io.Writer, bout services.BoutView) {
	if bout.State != "finalized" {
		return
	}
	fmt.Fprintf(w, "%s %d - %d %s\n", bout.CornerA, bout.TotalA, bout.TotalB, bout.CornerB)
	switch bout.Save.State {
	case scorecard.SaveDone:
		fmt.Fprintf(w, "saved (%s) %s\n", bout.Save.Method, bout.Save.RecordID)
	case scorecard.SaveFailed:
		fmt.Fprintf(w, "save failed: %s\n", bout.Save.Error)
	}
}
