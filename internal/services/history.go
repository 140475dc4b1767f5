package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/abrezinsky/crowdscore/internal/logger"
	"github.com/abrezinsky/crowdscore/internal/models"
	"github.com/abrezinsky/crowdscore/internal/repository"
)

// History page limits
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
	qrImageSize     = 256
)

// BaseURLProvider resolves the public base URL used in share links
type BaseURLProvider interface {
	GetBaseURL(ctx context.Context) (string, error)
}

// HistoryService handles saved scorecards
type HistoryService struct {
	log      logger.Logger
	repo     repository.ScorecardRepository
	settings BaseURLProvider
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(log logger.Logger, repo repository.ScorecardRepository, settings BaseURLProvider) *HistoryService {
	return &HistoryService{log: log, repo: repo, settings: settings}
}

// List returns saved scorecards, newest first, without their rounds
func (s *HistoryService) List(ctx context.Context, limit, offset int) ([]models.Scorecard, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListScorecards(ctx, limit, offset)
}

// Get returns one scorecard with its rounds
func (s *HistoryService) Get(ctx context.Context, id string) (*models.Scorecard, error) {
	card, err := s.repo.GetScorecard(ctx, id)
	if err == repository.ErrNotFound {
		return nil, ErrScorecardNotFound
	}
	return card, err
}

// Delete removes a scorecard
func (s *HistoryService) Delete(ctx context.Context, id string) error {
	err := s.repo.DeleteScorecard(ctx, id)
	if err == repository.ErrNotFound {
		return ErrScorecardNotFound
	}
	if err != nil {
		return err
	}
	s.log.Info("Scorecard deleted", "id", id)
	return nil
}

// ShareURL returns the public link to a saved scorecard
func (s *HistoryService) ShareURL(ctx context.Context, id string) (string, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return "", err
	}
	baseURL, err := s.settings.GetBaseURL(ctx)
	if err != nil {
		return "", err
	}
	if baseURL == "" {
		return "", ErrBaseURLNotSet
	}
	return fmt.Sprintf("%s/scorecards/%s", strings.TrimSuffix(baseURL, "/"), id), nil
}

// QRCode returns a PNG QR code linking to the scorecard's share page
func (s *HistoryService) QRCode(ctx context.Context, id string) ([]byte, error) {
	link, err := s.ShareURL(ctx, id)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(link, qrcode.Medium, qrImageSize)
}

// RoundAnalytics reports, for each round of a fight, how many saved cards
// gave it to each corner or scored it even.
func (s *HistoryService) RoundAnalytics(ctx context.Context, fightID string) ([]models.RoundAnalytics, error) {
	cards, err := s.repo.ListScorecardsForFight(ctx, fightID)
	if err != nil {
		return nil, err
	}

	byRound := make(map[int]*models.RoundAnalytics)
	maxRound := 0
	for _, card := range cards {
		for _, r := range card.Rounds {
			if r.A == 0 || r.B == 0 {
				continue
			}
			ra, ok := byRound[r.Round]
			if !ok {
				ra = &models.RoundAnalytics{Round: r.Round}
				byRound[r.Round] = ra
			}
			ra.Cards++
			switch {
			case r.A > r.B:
				ra.ForA++
			case r.B > r.A:
				ra.ForB++
			default:
				ra.Even++
			}
			if r.Round > maxRound {
				maxRound = r.Round
			}
		}
	}

	out := make([]models.RoundAnalytics, 0, len(byRound))
	for round := 1; round <= maxRound; round++ {
		ra, ok := byRound[round]
		if !ok {
			continue
		}
		ra.PctA = percent(ra.ForA, ra.Cards)
		ra.PctB = percent(ra.ForB, ra.Cards)
		ra.PctEven = percent(ra.Even, ra.Cards)
		out = append(out, *ra)
	}
	return out, nil
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)*1000/float64(total)) / 10
}

// Stats returns totals across saved scorecards
func (s *HistoryService) Stats(ctx context.Context) (models.ScorecardStats, error) {
	return s.repo.GetScorecardStats(ctx)
}
