package services

import (
	"context"

	"github.com/abrezinsky/crowdscore/internal/models"
	"github.com/abrezinsky/crowdscore/internal/scorecard"
)

// ScorecardServicer defines the interface for live bout operations
type ScorecardServicer interface {
	Start(ctx context.Context, req StartRequest) (BoutView, error)
	Get(ctx context.Context, id string) (BoutView, error)
	RecordWinner(ctx context.Context, id string, winner scorecard.Corner) (BoutView, error)
	SetNames(ctx context.Context, id, cornerA, cornerB string) (BoutView, error)
	SetPair(ctx context.Context, id string, round, a, b int) (BoutView, error)
	Activate(ctx context.Context, id string, round int, c scorecard.Corner) (BoutView, error)
	DragStart(ctx context.Context, id string, y float64) (BoutView, error)
	DragMove(ctx context.Context, id string, y float64) (BoutView, error)
	DragEnd(ctx context.Context, id string) (BoutView, error)
	Wheel(ctx context.Context, id string, deltaY float64) (BoutView, error)
	Tap(ctx context.Context, id string, index int) (BoutView, error)
	ClickOutside(ctx context.Context, id string) (BoutView, error)
	CancelPicker(ctx context.Context, id string) (BoutView, error)
	Finalize(ctx context.Context, id string) (BoutView, error)
	Reset(ctx context.Context, id string) (*ResetResult, error)
	Apply(ctx context.Context, id string, cmd BoutCommand) (BoutView, error)
	LiveBouts() int
}

// ScheduleServicer defines the interface for the fight schedule
type ScheduleServicer interface {
	Refresh(ctx context.Context) (*RefreshResult, error)
	EnsureFresh(ctx context.Context) error
	List(ctx context.Context, when string) ([]models.Fight, error)
	Prefill(ctx context.Context, fightID string) (*Prefill, error)
	SeedMockFights(ctx context.Context) (int, error)
}

// HistoryServicer defines the interface for saved scorecards
type HistoryServicer interface {
	List(ctx context.Context, limit, offset int) ([]models.Scorecard, error)
	Get(ctx context.Context, id string) (*models.Scorecard, error)
	Delete(ctx context.Context, id string) error
	QRCode(ctx context.Context, id string) ([]byte, error)
	ShareURL(ctx context.Context, id string) (string, error)
	RoundAnalytics(ctx context.Context, fightID string) ([]models.RoundAnalytics, error)
	Stats(ctx context.Context) (models.ScorecardStats, error)
}

// SettingsServicer defines the interface for settings operations
type SettingsServicer interface {
	AllSettings(ctx context.Context) (Settings, error)
	UpdateSettings(ctx context.Context, update SettingsUpdate) error
	EngineConfig(ctx context.Context) (scorecard.Config, error)
	DefaultRounds(ctx context.Context) int
	GetBaseURL(ctx context.Context) (string, error)
	SetBaseURL(ctx context.Context, url string) error
	ResetTables(ctx context.Context, tables []string) (*ResetTablesResult, error)
}

// ScheduleProvider seeds a bout from a scheduled fight
type ScheduleProvider interface {
	Prefill(ctx context.Context, fightID string) (*Prefill, error)
}

// Broadcaster pushes bout views to live subscribers
type Broadcaster interface {
	BroadcastBout(boutID string, view BoutView)
}

// Ensure concrete types implement interfaces
var (
	_ ScorecardServicer = (*ScorecardService)(nil)
	_ ScheduleServicer  = (*ScheduleService)(nil)
	_ HistoryServicer   = (*HistoryService)(nil)
	_ SettingsServicer  = (*SettingsService)(nil)
	_ ScheduleProvider  = (*ScheduleService)(nil)
)
