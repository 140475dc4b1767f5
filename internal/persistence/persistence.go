// Package persistence holds the scorecard.ResultSink implementations: the
// local SQLite store, the hosted score store and the fallback chain between them.
package persistence

import (
	"context"
	stderrors "errors"

	"github.com/abrezinsky/crowdscore/internal/errors"
	"github.com/abrezinsky/crowdscore/internal/logger"
	"github.com/abrezinsky/crowdscore/internal/models"
	"github.com/abrezinsky/crowdscore/internal/repository"
	"github.com/abrezinsky/crowdscore/internal/scorecard"
	"github.com/abrezinsky/crowdscore/pkg/scoreapi"
)

// Receipt methods
const (
	MethodLocal  = "local"
	MethodRemote = "remote"
)

// ErrRemoteDisabled is returned by RemoteSink when no store URL is set.
var ErrRemoteDisabled = stderrors.New("remote score store is not configured")

// ToScorecard converts a snapshot to the stored model.
func ToScorecard(snap scorecard.Snapshot, method, remoteID string) models.Scorecard {
	rounds := make([]models.ScorecardRound, len(snap.Rounds))
	for i, r := range snap.Rounds {
		rounds[i] = models.ScorecardRound{Round: r.Round, A: r.A, B: r.B, Modified: r.Modified}
	}
	return models.Scorecard{
		ID:          snap.ID,
		FightID:     snap.FightID,
		Origin:      string(snap.Origin),
		CornerA:     snap.CornerA,
		CornerB:     snap.CornerB,
		RoundCount:  snap.RoundCount,
		Rounds:      rounds,
		TotalA:      snap.TotalA,
		TotalB:      snap.TotalB,
		Winner:      snap.Winner(),
		Revision:    snap.Revision,
		Method:      method,
		RemoteID:    remoteID,
		FinalizedAt: snap.FinalizedAt,
	}
}

// ToRecord converts a snapshot to the remote store's row format.
func ToRecord(snap scorecard.Snapshot) scoreapi.ScorecardRecord {
	rounds := make([]scoreapi.RoundScore, len(snap.Rounds))
	for i, r := range snap.Rounds {
		rounds[i] = scoreapi.RoundScore{Round: r.Round, Fighter1: r.A, Fighter2: r.B}
	}
	return scoreapi.ScorecardRecord{
		ClientID:      snap.ID,
		FightID:       snap.FightID,
		Fighter1:      snap.CornerA,
		Fighter2:      snap.CornerB,
		RoundScores:   rounds,
		TotalFighter1: snap.TotalA,
		TotalFighter2: snap.TotalB,
		Winner:        snap.Winner(),
		Revision:      snap.Revision,
		FinalizedAt:   snap.FinalizedAt,
	}
}

// LocalSink saves scorecards to the local database.
type LocalSink struct {
	repo repository.ScorecardRepository
}

// NewLocalSink creates a LocalSink.
func NewLocalSink(repo repository.ScorecardRepository) *LocalSink {
	return &LocalSink{repo: repo}
}

// Save implements scorecard.ResultSink.
func (s *LocalSink) Save(ctx context.Context, snap scorecard.Snapshot) (scorecard.Receipt, error) {
	if err := s.repo.SaveScorecard(ctx, ToScorecard(snap, MethodLocal, "")); err != nil {
		return scorecard.Receipt{}, errors.Wrap(err, errors.ErrUnavailable, "local store")
	}
	return scorecard.Receipt{Method: MethodLocal, RecordID: snap.ID}, nil
}

// RemoteSink saves scorecards to the hosted score store.
type RemoteSink struct {
	client scoreapi.Client
}

// NewRemoteSink creates a RemoteSink.
func NewRemoteSink(client scoreapi.Client) *RemoteSink {
	return &RemoteSink{client: client}
}

// Save implements scorecard.ResultSink.
func (s *RemoteSink) Save(ctx context.Context, snap scorecard.Snapshot) (scorecard.Receipt, error) {
	if !s.client.Configured() {
		return scorecard.Receipt{}, ErrRemoteDisabled
	}
	rec, err := s.client.InsertScorecard(ctx, ToRecord(snap))
	if err != nil {
		return scorecard.Receipt{}, errors.Wrap(err, errors.ErrUnavailable, "remote store")
	}
	return scorecard.Receipt{Method: MethodRemote, RecordID: rec.ID.String()}, nil
}

// FallbackSink tries the primary sink and falls back to the secondary when it
// fails. With a mirror set, scorecards saved by the primary are also written
// to the local database so history works offline.
type FallbackSink struct {
	primary  scorecard.ResultSink
	fallback scorecard.ResultSink
	mirror   repository.ScorecardRepository
	log      logger.Logger
}

// FallbackOption configures a FallbackSink.
type FallbackOption func(*FallbackSink)

// WithMirror copies successful primary saves into repo.
func WithMirror(repo repository.ScorecardRepository) FallbackOption {
	return func(s *FallbackSink) { s.mirror = repo }
}

// NewFallbackSink creates a FallbackSink.
func NewFallbackSink(primary, fallback scorecard.ResultSink, log logger.Logger, opts ...FallbackOption) *FallbackSink {
	s := &FallbackSink{primary: primary, fallback: fallback, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save implements scorecard.ResultSink.
func (s *FallbackSink) Save(ctx context.Context, snap scorecard.Snapshot) (scorecard.Receipt, error) {
	receipt, err := s.primary.Save(ctx, snap)
	if err == nil {
		s.mirrorSave(ctx, snap, receipt)
		return receipt, nil
	}
	if stderrors.Is(err, ErrRemoteDisabled) {
		s.log.Debug("Remote store disabled, saving locally", "bout", snap.ID)
	} else {
		s.log.Warn("Primary save failed, falling back", "bout", snap.ID, "error", err)
	}

	receipt, fbErr := s.fallback.Save(ctx, snap)
	if fbErr != nil {
		return scorecard.Receipt{}, stderrors.Join(err, fbErr)
	}
	return receipt, nil
}

func (s *FallbackSink) mirrorSave(ctx context.Context, snap scorecard.Snapshot, receipt scorecard.Receipt) {
	if s.mirror == nil || receipt.Method == MethodLocal {
		return
	}
	if err := s.mirror.SaveScorecard(ctx, ToScorecard(snap, receipt.Method, receipt.RecordID)); err != nil {
		s.log.Warn("Could not mirror scorecard locally", "bout", snap.ID, "error", err)
	}
}

// NopSink accepts every save without storing anything.
type NopSink struct{}

// Save implements scorecard.ResultSink.
func (NopSink) Save(ctx context.Context, snap scorecard.Snapshot) (scorecard.Receipt, error) {
	return scorecard.Receipt{Method: "none", RecordID: snap.ID}, nil
}

var (
	_ scorecard.ResultSink = (*LocalSink)(nil)
	_ scorecard.ResultSink = (*RemoteSink)(nil)
	_ scorecard.ResultSink = (*FallbackSink)(nil)
	_ scorecard.ResultSink = NopSink{}
)
