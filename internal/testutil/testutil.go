package testutil

import (
	"testing"
	"time"

	"github.com/abrezinsky/crowdscore/internal/models"
	"github.com/abrezinsky/crowdscore/internal/repository"
)

// NewTestRepository creates a new in-memory repository for testing.
// Each call creates a fresh database with all migrations applied.
func NewTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})

	return repo
}

// SampleScorecard returns a finalized 3-round scorecard with the given ID.
func SampleScorecard(id, fightID string) models.Scorecard {
	return models.Scorecard{
		ID:         id,
		FightID:    fightID,
		Origin:     "manual",
		CornerA:    "Blue",
		CornerB:    "Red",
		RoundCount: 3,
		Rounds: []models.ScorecardRound{
			{Round: 1, A: 10, B: 9},
			{Round: 2, A: 9, B: 10},
			{Round: 3, A: 10, B: 8, Modified: true},
		},
		TotalA:      29,
		TotalB:      27,
		Winner:      "blue",
		Revision:    1,
		Method:      "local",
		FinalizedAt: time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC),
	}
}

// SampleFight returns a scheduled fight on the given date.
func SampleFight(id, date string) models.Fight {
	return models.Fight{
		ID:       id,
		FighterA: models.Fighter{Name: "Tyson Fury", Record: "34-1-1"},
		FighterB: models.Fighter{Name: "Oleksandr Usyk", Record: "22-0-0"},
		Title:    "Heavyweight Championship",
		Date:     date,
		Rounds:   12,
		Status:   "upcoming",
		Source:   "mock",
	}
}
