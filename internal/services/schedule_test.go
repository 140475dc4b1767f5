package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abrezinsky/crowdscore/internal/logger"
	"github.com/abrezinsky/crowdscore/internal/models"
	"github.com/abrezinsky/crowdscore/internal/repository"
	"github.com/abrezinsky/crowdscore/internal/services"
	"github.com/abrezinsky/crowdscore/internal/testutil"
	"github.com/abrezinsky/crowdscore/pkg/scoreapi"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *clock {
	return &clock{t: time.Date(2026, 10, 15, 12, 0, 0, 0, time.Local)}
}

func newScheduleService(t *testing.T, client scoreapi.Client) (*services.ScheduleService, *repository.Repository, *clock) {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	clk := newClock()
	svc := services.NewScheduleService(logger.NewNop(), repo, client, services.WithScheduleClock(clk.Now))
	return svc, repo, clk
}

func fightIDs(fights []models.Fight) []string {
	ids := make([]string, len(fights))
	for i, f := range fights {
		ids[i] = f.ID
	}
	return ids
}

func TestScheduleService_ListSeedsMockFights(t *testing.T) {
	svc, repo, _ := newScheduleService(t, scoreapi.NewMockClient(scoreapi.WithBaseURL("")))
	ctx := context.Background()

	all, err := svc.List(ctx, services.WhenAll)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("expected 5 current fights (past fight excluded), got %v", fightIDs(all))
	}
	if n, _ := repo.CountFights(ctx); n != 6 {
		t.Errorf("expected 6 seeded fights, got %d", n)
	}

	today, _ := svc.List(ctx, services.WhenToday)
	if len(today) != 2 || today[0].Date != "2026-10-15" {
		t.Errorf("expected 2 fights today, got %v", fightIDs(today))
	}

	upcoming, _ := svc.List(ctx, services.WhenUpcoming)
	if len(upcoming) != 3 {
		t.Errorf("expected 3 upcoming fights, got %v", fightIDs(upcoming))
	}
	for _, f := range upcoming {
		if f.Date <= "2026-10-15" {
			t.Errorf("upcoming list contains fight %s dated %s", f.ID, f.Date)
		}
	}

	// The default view is all
	def, _ := svc.List(ctx, "")
	if len(def) != len(all) {
		t.Errorf("expected empty view to list all, got %d", len(def))
	}
}

func TestScheduleService_ListInvalidView(t *testing.T) {
	svc, _, _ := newScheduleService(t, nil)
	if _, err := svc.List(context.Background(), "yesterday"); err != services.ErrInvalidScheduleView {
		t.Errorf("expected ErrInvalidScheduleView, got %v", err)
	}
}

func TestScheduleService_RefreshFromRemote(t *testing.T) {
	client := scoreapi.NewMockClient(scoreapi.WithFights([]scoreapi.FightRecord{
		{ID: "7", Fighter1: "Tyson Fury", Fighter2: "Oleksandr Usyk", FightDate: "2026-10-15", Rounds: 12},
		{ID: "8", Fighter1: "Canelo Alvarez", Fighter2: "Jermell Charlo", FightDate: "2026-11-01T03:00:00Z"},
		{ID: "9", Fighter1: "No", Fighter2: "Date", FightDate: "TBD"},
	}))
	svc, repo, _ := newScheduleService(t, client)
	ctx := context.Background()

	// Mock fights from an earlier offline start are replaced
	if _, err := svc.SeedMockFights(ctx); err != nil {
		t.Fatalf("SeedMockFights failed: %v", err)
	}

	result, err := svc.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if result.Source != services.SourceRemote || result.Fights != 2 {
		t.Errorf("unexpected result: %+v", result)
	}
	if n, _ := repo.CountFights(ctx); n != 2 {
		t.Errorf("expected mock fights removed, got %d fights", n)
	}

	fight, err := repo.GetFight(ctx, "8")
	if err != nil {
		t.Fatalf("GetFight failed: %v", err)
	}
	if fight.Date != "2026-11-01" || fight.Status != "upcoming" || fight.Source != services.SourceRemote {
		t.Errorf("unexpected stored fight: %+v", fight)
	}
}

func TestScheduleService_RefreshFailure(t *testing.T) {
	client := scoreapi.NewMockClient(scoreapi.WithFetchError(errors.New("timeout")))
	svc, repo, _ := newScheduleService(t, client)
	ctx := context.Background()

	result, err := svc.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if result.Source != services.SourceMock || result.Fights != 6 || result.Error != "timeout" {
		t.Errorf("expected mock seed with error, got %+v", result)
	}

	// With a cache in place the cache is kept
	repo.DeleteFightsBySource(ctx, services.SourceMock)
	repo.UpsertFight(ctx, testutil.SampleFight("cached", "2026-10-20"))
	result, err = svc.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if result.Source != "cache" || result.Fights != 1 {
		t.Errorf("expected cache to be kept, got %+v", result)
	}
}

func TestScheduleService_EnsureFreshHonoursTTL(t *testing.T) {
	client := scoreapi.NewMockClient(scoreapi.WithFights([]scoreapi.FightRecord{
		{ID: "1", Fighter1: "A", Fighter2: "B", FightDate: "2026-10-20"},
	}))
	svc, repo, clk := newScheduleService(t, client)
	ctx := context.Background()

	if err := svc.EnsureFresh(ctx); err != nil {
		t.Fatalf("EnsureFresh failed: %v", err)
	}
	first, err := repo.GetSetting(ctx, "schedule_refreshed_at")
	if err != nil {
		t.Fatalf("expected refresh timestamp: %v", err)
	}

	clk.Advance(time.Hour)
	svc.EnsureFresh(ctx)
	if again, _ := repo.GetSetting(ctx, "schedule_refreshed_at"); again != first {
		t.Errorf("expected no refresh within TTL, timestamp moved from %s to %s", first, again)
	}

	clk.Advance(services.ScheduleTTL)
	svc.EnsureFresh(ctx)
	if again, _ := repo.GetSetting(ctx, "schedule_refreshed_at"); again == first {
		t.Error("expected refresh once the cache is stale")
	}
}

func TestScheduleService_Prefill(t *testing.T) {
	client := scoreapi.NewMockClient(scoreapi.WithFights([]scoreapi.FightRecord{
		{ID: "42", Fighter1: "  championship bout Canelo   Alvarez ", Fighter2: "vs. Terence Crawford", FightDate: "2026-10-15"},
		{ID: "43", Fighter1: "Naoya Inoue", Fighter2: "Nery", FightDate: "2026-10-15", Rounds: 10},
	}))
	svc, _, _ := newScheduleService(t, client)
	ctx := context.Background()

	if _, err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	p, err := svc.Prefill(ctx, "42")
	if err != nil {
		t.Fatalf("Prefill failed: %v", err)
	}
	want := services.Prefill{FightID: "42", CornerA: "Canelo Alvarez", CornerB: "Terence Crawford", RoundCount: 12}
	if *p != want {
		t.Errorf("Prefill = %+v, want %+v", *p, want)
	}

	p, _ = svc.Prefill(ctx, "43")
	if p.RoundCount != 10 {
		t.Errorf("expected scheduled round count 10, got %d", p.RoundCount)
	}

	if _, err := svc.Prefill(ctx, "nope"); err != services.ErrFightNotFound {
		t.Errorf("expected ErrFightNotFound, got %v", err)
	}
}

func TestCleanFighterName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Tyson Fury", "Tyson Fury"},
		{"  Tyson   Fury  ", "Tyson Fury"},
		{"vs. Oleksandr Usyk", "Oleksandr Usyk"},
		{"title fight Jake Paul", "Jake Paul"},
		{"main event - Jaron Ennis", "Jaron Ennis"},
		{"lowercase only", "lowercase only"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := services.CleanFighterName(tt.in); got != tt.want {
			t.Errorf("CleanFighterName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMockFights_RelativeDates(t *testing.T) {
	now := time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)
	fights := services.MockFights(now)

	today := 0
	for _, f := range fights {
		if f.Date == "2026-01-31" {
			today++
		}
		if f.Source != services.SourceMock {
			t.Errorf("fight %s has source %q", f.ID, f.Source)
		}
	}
	if today != 2 {
		t.Errorf("expected 2 fights dated today, got %d", today)
	}
}
