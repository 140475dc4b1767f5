package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/abrezinsky/crowdscore/internal/models"
)

// newTestRepo creates a new in-memory repository for testing.
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleCard(id, fightID string, finalized time.Time) models.Scorecard {
	return models.Scorecard{
		ID:         id,
		FightID:    fightID,
		Origin:     "schedule",
		CornerA:    "Fury",
		CornerB:    "Usyk",
		RoundCount: 2,
		Rounds: []models.ScorecardRound{
			{Round: 1, A: 10, B: 9},
			{Round: 2, A: 8, B: 10, Modified: true},
		},
		TotalA:      18,
		TotalB:      19,
		Winner:      "red",
		Revision:    1,
		Method:      "local",
		FinalizedAt: finalized,
	}
}

var ignoreCreatedAt = cmpopts.IgnoreFields(models.Scorecard{}, "CreatedAt")

// ==================== Scorecard Tests ====================

func TestSaveScorecard_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	card := sampleCard("card-1", "fight_1", time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC))

	if err := repo.SaveScorecard(ctx, card); err != nil {
		t.Fatalf("SaveScorecard failed: %v", err)
	}

	got, err := repo.GetScorecard(ctx, "card-1")
	if err != nil {
		t.Fatalf("GetScorecard failed: %v", err)
	}
	if diff := cmp.Diff(card, *got, ignoreCreatedAt); diff != "" {
		t.Errorf("scorecard mismatch (-want +got):\n%s", diff)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestSaveScorecard_UpsertReplacesRounds(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	card := sampleCard("card-1", "", time.Now().UTC())
	repo.SaveScorecard(ctx, card)

	card.Rounds = []models.ScorecardRound{{Round: 1, A: 10, B: 9}, {Round: 2, A: 10, B: 9}}
	card.TotalA, card.TotalB = 20, 18
	card.Winner = "blue"
	card.Revision = 2
	card.Method = "remote"
	card.RemoteID = "42"
	if err := repo.SaveScorecard(ctx, card); err != nil {
		t.Fatalf("second SaveScorecard failed: %v", err)
	}

	got, err := repo.GetScorecard(ctx, "card-1")
	if err != nil {
		t.Fatalf("GetScorecard failed: %v", err)
	}
	if got.Revision != 2 || got.Method != "remote" || got.RemoteID != "42" {
		t.Errorf("expected updated metadata, got %+v", got)
	}
	if len(got.Rounds) != 2 || got.Rounds[1].A != 10 || got.Rounds[1].Modified {
		t.Errorf("expected replaced rounds, got %+v", got.Rounds)
	}

	cards, _ := repo.ListScorecards(ctx, 0, 0)
	if len(cards) != 1 {
		t.Errorf("expected upsert to keep one row, got %d", len(cards))
	}
}

func TestGetScorecard_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetScorecard(context.Background(), "missing")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListScorecards_Pagination(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		repo.SaveScorecard(ctx, sampleCard(id, "", base.Add(time.Duration(i)*time.Minute)))
	}

	all, err := repo.ListScorecards(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ListScorecards failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 scorecards, got %d", len(all))
	}
	// Same created_at second; newest finalized first
	if all[0].ID != "c" || all[2].ID != "a" {
		t.Errorf("expected newest first, got %s..%s", all[0].ID, all[2].ID)
	}
	if all[0].Rounds != nil {
		t.Error("expected list entries without rounds")
	}

	page, _ := repo.ListScorecards(ctx, 2, 1)
	if len(page) != 2 || page[0].ID != "b" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestListScorecardsForFight(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	repo.SaveScorecard(ctx, sampleCard("x", "fight_1", now))
	repo.SaveScorecard(ctx, sampleCard("y", "fight_1", now.Add(time.Second)))
	repo.SaveScorecard(ctx, sampleCard("z", "fight_2", now))

	cards, err := repo.ListScorecardsForFight(ctx, "fight_1")
	if err != nil {
		t.Fatalf("ListScorecardsForFight failed: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	for _, c := range cards {
		if len(c.Rounds) != 2 {
			t.Errorf("card %s: expected 2 rounds, got %d", c.ID, len(c.Rounds))
		}
	}
}

func TestDeleteScorecard(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	repo.SaveScorecard(ctx, sampleCard("gone", "", time.Now().UTC()))

	if err := repo.DeleteScorecard(ctx, "gone"); err != nil {
		t.Fatalf("DeleteScorecard failed: %v", err)
	}
	if _, err := repo.GetScorecard(ctx, "gone"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	var rounds int
	repo.DB().QueryRow(`SELECT COUNT(*) FROM scorecard_rounds WHERE scorecard_id = 'gone'`).Scan(&rounds)
	if rounds != 0 {
		t.Errorf("expected rounds to cascade, got %d", rounds)
	}

	if err := repo.DeleteScorecard(ctx, "gone"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestGetScorecardStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	remote := sampleCard("r", "fight_1", now)
	remote.Method = "remote"
	repo.SaveScorecard(ctx, remote)
	repo.SaveScorecard(ctx, sampleCard("l1", "fight_1", now))
	repo.SaveScorecard(ctx, sampleCard("l2", "", now))
	repo.UpsertFight(ctx, models.Fight{ID: "fight_1", Date: "2026-03-14", Rounds: 12, Status: "upcoming", Source: "mock"})

	stats, err := repo.GetScorecardStats(ctx)
	if err != nil {
		t.Fatalf("GetScorecardStats failed: %v", err)
	}
	want := models.ScorecardStats{TotalScorecards: 3, SavedRemotely: 1, SavedLocally: 2, Fights: 1, ScoredFights: 1}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

// ==================== Fight Tests ====================

func TestUpsertFight_InsertAndUpdate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	updated := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	fight := models.Fight{
		ID:          "fight_1",
		FighterA:    models.Fighter{Name: "Tyson Fury", Record: "33-1-1", Nickname: "The Gypsy King"},
		FighterB:    models.Fighter{Name: "Oleksandr Usyk", Record: "21-0-0"},
		Title:       "Undisputed Heavyweight Championship",
		Date:        "2026-01-15",
		Time:        "5:00 PM ET",
		Venue:       "Kingdom Arena",
		City:        "Riyadh",
		Network:     "ESPN+",
		WeightClass: "Heavyweight",
		Rounds:      12,
		Status:      "upcoming",
		Source:      "remote",
		UpdatedAt:   updated,
	}
	if err := repo.UpsertFight(ctx, fight); err != nil {
		t.Fatalf("UpsertFight failed: %v", err)
	}

	got, err := repo.GetFight(ctx, "fight_1")
	if err != nil {
		t.Fatalf("GetFight failed: %v", err)
	}
	if diff := cmp.Diff(fight, *got); diff != "" {
		t.Errorf("fight mismatch (-want +got):\n%s", diff)
	}

	fight.Rounds = 10
	repo.UpsertFight(ctx, fight)
	got, _ = repo.GetFight(ctx, "fight_1")
	if got.Rounds != 10 {
		t.Errorf("expected update to 10 rounds, got %d", got.Rounds)
	}
	if n, _ := repo.CountFights(ctx); n != 1 {
		t.Errorf("expected 1 fight, got %d", n)
	}
}

func TestGetFight_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.GetFight(context.Background(), "nope"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListFights_FromDate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	for id, date := range map[string]string{"past": "2026-01-01", "today": "2026-03-14", "later": "2026-04-02"} {
		repo.UpsertFight(ctx, models.Fight{ID: id, Date: date, Rounds: 12, Status: "upcoming", Source: "mock"})
	}

	fights, err := repo.ListFights(ctx, "2026-03-14")
	if err != nil {
		t.Fatalf("ListFights failed: %v", err)
	}
	if len(fights) != 2 || fights[0].ID != "today" || fights[1].ID != "later" {
		t.Errorf("unexpected fights: %+v", fights)
	}

	all, _ := repo.ListFights(ctx, "")
	if len(all) != 3 || all[0].ID != "past" {
		t.Errorf("expected all fights ordered by date, got %+v", all)
	}
}

func TestDeleteFightsBySource(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	repo.UpsertFight(ctx, models.Fight{ID: "m", Date: "2026-03-14", Rounds: 12, Status: "upcoming", Source: "mock"})
	repo.UpsertFight(ctx, models.Fight{ID: "r", Date: "2026-03-14", Rounds: 12, Status: "upcoming", Source: "remote"})

	if err := repo.DeleteFightsBySource(ctx, "mock"); err != nil {
		t.Fatalf("DeleteFightsBySource failed: %v", err)
	}
	if n, _ := repo.CountFights(ctx); n != 1 {
		t.Errorf("expected 1 fight left, got %d", n)
	}
}

// ==================== Settings Tests ====================

func TestSettings_GetSet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetSetting(ctx, "amend_policy"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for unset key, got %v", err)
	}

	repo.SetSetting(ctx, "amend_policy", "lock")
	repo.SetSetting(ctx, "amend_policy", "allow")
	value, err := repo.GetSetting(ctx, "amend_policy")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if value != "allow" {
		t.Errorf("expected allow, got %q", value)
	}
}

func TestClearTable(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	repo.UpsertFight(ctx, models.Fight{ID: "f", Date: "2026-03-14", Rounds: 12, Status: "upcoming", Source: "mock"})

	if err := repo.ClearTable(ctx, "fights"); err != nil {
		t.Fatalf("ClearTable failed: %v", err)
	}
	if n, _ := repo.CountFights(ctx); n != 0 {
		t.Errorf("expected empty fights table, got %d", n)
	}

	if err := repo.ClearTable(ctx, "sqlite_master; DROP TABLE fights"); err != ErrInvalidTable {
		t.Errorf("expected ErrInvalidTable, got %v", err)
	}
}

func TestPing(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
