package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	apperrors "github.com/abrezinsky/crowdscore/internal/errors"
	"github.com/abrezinsky/crowdscore/internal/logger"
	"github.com/abrezinsky/crowdscore/internal/models"
	"github.com/abrezinsky/crowdscore/internal/repository/mock"
	"github.com/abrezinsky/crowdscore/internal/scorecard"
	"github.com/abrezinsky/crowdscore/internal/testutil"
	"github.com/abrezinsky/crowdscore/pkg/scoreapi"
)

func sampleSnapshot() scorecard.Snapshot {
	return scorecard.Snapshot{
		ID:         "bout-1",
		FightID:    "fight_1",
		Origin:     scorecard.OriginSchedule,
		CornerA:    "Fury",
		CornerB:    "Usyk",
		RoundCount: 2,
		Rounds: []scorecard.RoundScore{
			{Round: 1, A: 10, B: 9},
			{Round: 2, A: 9, B: 9, Modified: true},
		},
		TotalA:      19,
		TotalB:      18,
		Revision:    1,
		FinalizedAt: time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC),
	}
}

func TestToScorecard(t *testing.T) {
	got := ToScorecard(sampleSnapshot(), MethodRemote, "17")
	want := models.Scorecard{
		ID:         "bout-1",
		FightID:    "fight_1",
		Origin:     "schedule",
		CornerA:    "Fury",
		CornerB:    "Usyk",
		RoundCount: 2,
		Rounds: []models.ScorecardRound{
			{Round: 1, A: 10, B: 9},
			{Round: 2, A: 9, B: 9, Modified: true},
		},
		TotalA:      19,
		TotalB:      18,
		Winner:      "blue",
		Revision:    1,
		Method:      "remote",
		RemoteID:    "17",
		FinalizedAt: time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("scorecard mismatch (-want +got):\n%s", diff)
	}
}

func TestToRecord(t *testing.T) {
	rec := ToRecord(sampleSnapshot())
	if rec.ClientID != "bout-1" || rec.Fighter1 != "Fury" || rec.Winner != "blue" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if len(rec.RoundScores) != 2 || rec.RoundScores[1].Fighter2 != 9 {
		t.Errorf("unexpected rounds: %+v", rec.RoundScores)
	}
}

func TestLocalSink_Save(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	sink := NewLocalSink(repo)
	ctx := context.Background()

	receipt, err := sink.Save(ctx, sampleSnapshot())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if receipt.Method != MethodLocal || receipt.RecordID != "bout-1" {
		t.Errorf("unexpected receipt: %+v", receipt)
	}

	card, err := repo.GetScorecard(ctx, "bout-1")
	if err != nil {
		t.Fatalf("GetScorecard failed: %v", err)
	}
	if card.Method != "local" || len(card.Rounds) != 2 {
		t.Errorf("unexpected stored card: %+v", card)
	}
}

func TestLocalSink_SaveError(t *testing.T) {
	repo := mock.NewRepository(testutil.NewTestRepository(t))
	repo.SaveScorecardError = errors.New("disk full")

	_, err := NewLocalSink(repo).Save(context.Background(), sampleSnapshot())
	if err == nil {
		t.Fatal("expected error")
	}
	if apperrors.KindOf(err) != apperrors.ErrUnavailable {
		t.Errorf("expected unavailable kind, got %v", apperrors.KindOf(err))
	}
}

func TestRemoteSink_Save(t *testing.T) {
	client := scoreapi.NewMockClient()
	receipt, err := NewRemoteSink(client).Save(context.Background(), sampleSnapshot())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if receipt.Method != MethodRemote || receipt.RecordID == "" {
		t.Errorf("unexpected receipt: %+v", receipt)
	}
	if len(client.Scorecards()) != 1 {
		t.Errorf("expected one remote record, got %d", len(client.Scorecards()))
	}
}

func TestRemoteSink_NotConfigured(t *testing.T) {
	client := scoreapi.NewMockClient(scoreapi.WithBaseURL(""))
	_, err := NewRemoteSink(client).Save(context.Background(), sampleSnapshot())
	if !errors.Is(err, ErrRemoteDisabled) {
		t.Errorf("expected ErrRemoteDisabled, got %v", err)
	}
	if client.InsertCalls() != 0 {
		t.Error("expected no insert attempt")
	}
}

func TestFallbackSink_PrimarySuccessMirrorsLocally(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	client := scoreapi.NewMockClient()
	sink := NewFallbackSink(NewRemoteSink(client), NewLocalSink(repo), logger.NewNop(), WithMirror(repo))
	ctx := context.Background()

	receipt, err := sink.Save(ctx, sampleSnapshot())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if receipt.Method != MethodRemote {
		t.Errorf("expected remote receipt, got %+v", receipt)
	}

	card, err := repo.GetScorecard(ctx, "bout-1")
	if err != nil {
		t.Fatalf("expected mirrored card: %v", err)
	}
	if card.Method != "remote" || card.RemoteID != receipt.RecordID {
		t.Errorf("unexpected mirrored card: method=%s remote_id=%s", card.Method, card.RemoteID)
	}
}

func TestFallbackSink_FallsBackOnPrimaryError(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	client := scoreapi.NewMockClient(scoreapi.WithInsertError(errors.New("503")))
	sink := NewFallbackSink(NewRemoteSink(client), NewLocalSink(repo), logger.NewNop(), WithMirror(repo))
	ctx := context.Background()

	receipt, err := sink.Save(ctx, sampleSnapshot())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if receipt.Method != MethodLocal {
		t.Errorf("expected local receipt, got %+v", receipt)
	}
	card, _ := repo.GetScorecard(ctx, "bout-1")
	if card == nil || card.Method != "local" {
		t.Errorf("expected local card, got %+v", card)
	}
}

func TestFallbackSink_BothFail(t *testing.T) {
	remoteErr := errors.New("remote down")
	localErr := errors.New("disk full")
	repo := mock.NewRepository(testutil.NewTestRepository(t))
	repo.SaveScorecardError = localErr
	client := scoreapi.NewMockClient(scoreapi.WithInsertError(remoteErr))
	sink := NewFallbackSink(NewRemoteSink(client), NewLocalSink(repo), logger.NewNop())

	_, err := sink.Save(context.Background(), sampleSnapshot())
	if !errors.Is(err, remoteErr) || !errors.Is(err, localErr) {
		t.Errorf("expected both causes in error, got %v", err)
	}
}

func TestFallbackSink_MirrorFailureIsNotFatal(t *testing.T) {
	repo := mock.NewRepository(testutil.NewTestRepository(t))
	repo.SaveScorecardError = errors.New("disk full")
	client := scoreapi.NewMockClient()
	sink := NewFallbackSink(NewRemoteSink(client), NewLocalSink(repo), logger.NewNop(), WithMirror(repo))

	receipt, err := sink.Save(context.Background(), sampleSnapshot())
	if err != nil {
		t.Fatalf("expected remote save to succeed despite mirror failure, got %v", err)
	}
	if receipt.Method != MethodRemote {
		t.Errorf("expected remote receipt, got %+v", receipt)
	}
}

func TestNopSink(t *testing.T) {
	receipt, err := NopSink{}.Save(context.Background(), sampleSnapshot())
	if err != nil || receipt.Method != "none" {
		t.Errorf("unexpected result: %+v, %v", receipt, err)
	}
}

func TestFallbackSink_WithSession(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	client := scoreapi.NewMockClient(scoreapi.WithInsertError(errors.New("offline")))
	sink := NewFallbackSink(NewRemoteSink(client), NewLocalSink(repo), logger.NewNop())

	s := scorecard.NewSession(scorecard.WithSink(sink))
	s.Start(scorecard.Bout{ID: "live-1", RoundCount: 1})
	s.RecordWinner(context.Background(), scorecard.CornerB)
	s.WaitSaves()

	st := s.SaveStatus()
	if st.State != scorecard.SaveDone || st.Method != MethodLocal {
		t.Errorf("expected local save, got %+v", st)
	}
	card, err := repo.GetScorecard(context.Background(), "live-1")
	if err != nil {
		t.Fatalf("GetScorecard failed: %v", err)
	}
	if card.Winner != "red" {
		t.Errorf("expected red winner, got %s", card.Winner)
	}
}
