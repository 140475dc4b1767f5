package mock

import (
	"context"

	"github.com/abrezinsky/crowdscore/internal/models"
	"github.com/abrezinsky/crowdscore/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.SaveScorecardError = errors.New("disk full")
//	sink := persistence.NewLocalSink(mockRepo)
//	_, err := sink.Save(ctx, snap)
//	// err will now contain the injected error
type Repository struct {
	repository.FullRepository

	// ===== Scorecard Errors =====
	SaveScorecardError          error
	GetScorecardError           error
	ListScorecardsError         error
	ListScorecardsForFightError error
	DeleteScorecardError        error
	GetScorecardStatsError      error

	// ===== Fight Errors =====
	UpsertFightError          error
	GetFightError             error
	ListFightsError           error
	CountFightsError          error
	DeleteFightsBySourceError error

	// ===== Settings Errors =====
	GetSettingError error
	SetSettingError error
	ClearTableError error
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ===== Scorecard Methods =====

func (m *Repository) SaveScorecard(ctx context.Context, card models.Scorecard) error {
	if m.SaveScorecardError != nil {
		return m.SaveScorecardError
	}
	return m.FullRepository.SaveScorecard(ctx, card)
}

func (m *Repository) GetScorecard(ctx context.Context, id string) (*models.Scorecard, error) {
	if m.GetScorecardError != nil {
		return nil, m.GetScorecardError
	}
	return m.FullRepository.GetScorecard(ctx, id)
}

func (m *Repository) ListScorecards(ctx context.Context, limit, offset int) ([]models.Scorecard, error) {
	if m.ListScorecardsError != nil {
		return nil, m.ListScorecardsError
	}
	return m.FullRepository.ListScorecards(ctx, limit, offset)
}

func (m *Repository) ListScorecardsForFight(ctx context.Context, fightID string) ([]models.Scorecard, error) {
	if m.ListScorecardsForFightError != nil {
		return nil, m.ListScorecardsForFightError
	}
	return m.FullRepository.ListScorecardsForFight(ctx, fightID)
}

func (m *Repository) DeleteScorecard(ctx context.Context, id string) error {
	if m.DeleteScorecardError != nil {
		return m.DeleteScorecardError
	}
	return m.FullRepository.DeleteScorecard(ctx, id)
}

func (m *Repository) GetScorecardStats(ctx context.Context) (models.ScorecardStats, error) {
	if m.GetScorecardStatsError != nil {
		return models.ScorecardStats{}, m.GetScorecardStatsError
	}
	return m.FullRepository.GetScorecardStats(ctx)
}

// ===== Fight Methods =====

func (m *Repository) UpsertFight(ctx context.Context, fight models.Fight) error {
	if m.UpsertFightError != nil {
		return m.UpsertFightError
	}
	return m.FullRepository.UpsertFight(ctx, fight)
}

func (m *Repository) GetFight(ctx context.Context, id string) (*models.Fight, error) {
	if m.GetFightError != nil {
		return nil, m.GetFightError
	}
	return m.FullRepository.GetFight(ctx, id)
}

func (m *Repository) ListFights(ctx context.Context, fromDate string) ([]models.Fight, error) {
	if m.ListFightsError != nil {
		return nil, m.ListFightsError
	}
	return m.FullRepository.ListFights(ctx, fromDate)
}

func (m *Repository) CountFights(ctx context.Context) (int, error) {
	if m.CountFightsError != nil {
		return 0, m.CountFightsError
	}
	return m.FullRepository.CountFights(ctx)
}

func (m *Repository) DeleteFightsBySource(ctx context.Context, source string) error {
	if m.DeleteFightsBySourceError != nil {
		return m.DeleteFightsBySourceError
	}
	return m.FullRepository.DeleteFightsBySource(ctx, source)
}

// ===== Settings Methods =====

func (m *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	if m.GetSettingError != nil {
		return "", m.GetSettingError
	}
	return m.FullRepository.GetSetting(ctx, key)
}

func (m *Repository) SetSetting(ctx context.Context, key, value string) error {
	if m.SetSettingError != nil {
		return m.SetSettingError
	}
	return m.FullRepository.SetSetting(ctx, key, value)
}

func (m *Repository) ClearTable(ctx context.Context, table string) error {
	if m.ClearTableError != nil {
		return m.ClearTableError
	}
	return m.FullRepository.ClearTable(ctx, table)
}
