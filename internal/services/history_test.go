package services_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abrezinsky/crowdscore/internal/logger"
	"github.com/abrezinsky/crowdscore/internal/models"
	"github.com/abrezinsky/crowdscore/internal/repository"
	"github.com/abrezinsky/crowdscore/internal/repository/mock"
	"github.com/abrezinsky/crowdscore/internal/services"
	"github.com/abrezinsky/crowdscore/internal/testutil"
)

func newHistoryService(t *testing.T, baseURL string) (*services.HistoryService, *repository.Repository) {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	defaults := services.DefaultSettings()
	defaults.BaseURL = baseURL
	settings := services.NewSettingsService(logger.NewNop(), repo, defaults)
	return services.NewHistoryService(logger.NewNop(), repo, settings), repo
}

func TestHistoryService_ListAndGet(t *testing.T) {
	svc, repo := newHistoryService(t, "")
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if err := repo.SaveScorecard(ctx, testutil.SampleScorecard(fmt.Sprintf("card-%d", i), "")); err != nil {
			t.Fatalf("SaveScorecard failed: %v", err)
		}
	}

	cards, err := svc.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(cards) != 3 {
		t.Errorf("expected 3 cards, got %d", len(cards))
	}

	page, _ := svc.List(ctx, 2, -5)
	if len(page) != 2 {
		t.Errorf("expected page of 2, got %d", len(page))
	}

	card, err := svc.Get(ctx, "card-2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(card.Rounds) != 3 || card.TotalA != 29 {
		t.Errorf("unexpected card: %+v", card)
	}

	if _, err := svc.Get(ctx, "missing"); err != services.ErrScorecardNotFound {
		t.Errorf("expected ErrScorecardNotFound, got %v", err)
	}
}

func TestHistoryService_Delete(t *testing.T) {
	svc, repo := newHistoryService(t, "")
	ctx := context.Background()
	repo.SaveScorecard(ctx, testutil.SampleScorecard("card-1", ""))

	if err := svc.Delete(ctx, "card-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := svc.Delete(ctx, "card-1"); err != services.ErrScorecardNotFound {
		t.Errorf("expected ErrScorecardNotFound on second delete, got %v", err)
	}
}

func TestHistoryService_DeleteError(t *testing.T) {
	repo := mock.NewRepository(testutil.NewTestRepository(t))
	repo.DeleteScorecardError = errors.New("locked")
	settings := services.NewSettingsService(logger.NewNop(), repo, services.DefaultSettings())
	svc := services.NewHistoryService(logger.NewNop(), repo, settings)

	if err := svc.Delete(context.Background(), "x"); err == nil || err == services.ErrScorecardNotFound {
		t.Errorf("expected database error, got %v", err)
	}
}

func TestHistoryService_ShareURLAndQRCode(t *testing.T) {
	svc, repo := newHistoryService(t, "http://scores.local/")
	ctx := context.Background()
	repo.SaveScorecard(ctx, testutil.SampleScorecard("card-1", ""))

	link, err := svc.ShareURL(ctx, "card-1")
	if err != nil {
		t.Fatalf("ShareURL failed: %v", err)
	}
	if link != "http://scores.local/scorecards/card-1" {
		t.Errorf("unexpected link: %s", link)
	}

	png, err := svc.QRCode(ctx, "card-1")
	if err != nil {
		t.Fatalf("QRCode failed: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("expected PNG data")
	}

	if _, err := svc.QRCode(ctx, "missing"); err != services.ErrScorecardNotFound {
		t.Errorf("expected ErrScorecardNotFound, got %v", err)
	}
}

func TestHistoryService_QRCodeNeedsBaseURL(t *testing.T) {
	svc, repo := newHistoryService(t, "")
	ctx := context.Background()
	repo.SaveScorecard(ctx, testutil.SampleScorecard("card-1", ""))

	if _, err := svc.QRCode(ctx, "card-1"); err != services.ErrBaseURLNotSet {
		t.Errorf("expected ErrBaseURLNotSet, got %v", err)
	}
}

func TestHistoryService_RoundAnalytics(t *testing.T) {
	svc, repo := newHistoryService(t, "")
	ctx := context.Background()

	cards := []struct {
		id     string
		rounds []models.ScorecardRound
	}{
		{"c1", []models.ScorecardRound{{Round: 1, A: 10, B: 9}, {Round: 2, A: 9, B: 10}}},
		{"c2", []models.ScorecardRound{{Round: 1, A: 10, B: 9}, {Round: 2, A: 10, B: 10}}},
		{"c3", []models.ScorecardRound{{Round: 1, A: 9, B: 10}, {Round: 2, A: 0, B: 0}}},
	}
	for _, c := range cards {
		card := testutil.SampleScorecard(c.id, "fight_1")
		card.RoundCount = 2
		card.Rounds = c.rounds
		if err := repo.SaveScorecard(ctx, card); err != nil {
			t.Fatalf("SaveScorecard failed: %v", err)
		}
	}
	// A card for another fight is ignored
	repo.SaveScorecard(ctx, testutil.SampleScorecard("other", "fight_2"))

	got, err := svc.RoundAnalytics(ctx, "fight_1")
	if err != nil {
		t.Fatalf("RoundAnalytics failed: %v", err)
	}
	want := []models.RoundAnalytics{
		{Round: 1, Cards: 3, ForA: 2, ForB: 1, PctA: 66.7, PctB: 33.3},
		{Round: 2, Cards: 2, ForB: 1, Even: 1, PctB: 50, PctEven: 50},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("analytics mismatch (-want +got):\n%s", diff)
	}

	empty, err := svc.RoundAnalytics(ctx, "fight_9")
	if err != nil || len(empty) != 0 {
		t.Errorf("expected no analytics for unknown fight, got %v, %v", empty, err)
	}
}

func TestHistoryService_Stats(t *testing.T) {
	svc, repo := newHistoryService(t, "")
	ctx := context.Background()

	local := testutil.SampleScorecard("a", "fight_1")
	remote := testutil.SampleScorecard("b", "fight_1")
	remote.Method = "remote"
	repo.SaveScorecard(ctx, local)
	repo.SaveScorecard(ctx, remote)

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalScorecards != 2 || stats.SavedRemotely != 1 || stats.SavedLocally != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
