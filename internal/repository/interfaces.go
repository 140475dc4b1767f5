package repository

import (
	"context"

	"github.com/abrezinsky/crowdscore/internal/models"
)

// ScorecardRepository defines saved scorecard operations
type ScorecardRepository interface {
	SaveScorecard(ctx context.Context, card models.Scorecard) error
	GetScorecard(ctx context.Context, id string) (*models.Scorecard, error)
	ListScorecards(ctx context.Context, limit, offset int) ([]models.Scorecard, error)
	ListScorecardsForFight(ctx context.Context, fightID string) ([]models.Scorecard, error)
	DeleteScorecard(ctx context.Context, id string) error
	GetScorecardStats(ctx context.Context) (models.ScorecardStats, error)
}

// FightRepository defines fight schedule operations
type FightRepository interface {
	UpsertFight(ctx context.Context, fight models.Fight) error
	GetFight(ctx context.Context, id string) (*models.Fight, error)
	ListFights(ctx context.Context, fromDate string) ([]models.Fight, error)
	CountFights(ctx context.Context) (int, error)
	DeleteFightsBySource(ctx context.Context, source string) error
}

// SettingsRepository defines settings data operations
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	ClearTable(ctx context.Context, table string) error
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	ScorecardRepository
	FightRepository
	SettingsRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
