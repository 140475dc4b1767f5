package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/abrezinsky/crowdscore/internal/errors"
	"github.com/abrezinsky/crowdscore/internal/logger"
	"github.com/abrezinsky/crowdscore/internal/models"
	"github.com/abrezinsky/crowdscore/internal/repository"
	"github.com/abrezinsky/crowdscore/internal/scorecard"
	"github.com/abrezinsky/crowdscore/pkg/scoreapi"
)

// Schedule views
const (
	WhenToday    = "today"
	WhenUpcoming = "upcoming"
	WhenAll      = "all"
)

// Fight sources
const (
	SourceMock   = "mock"
	SourceRemote = "remote"
)

// ScheduleTTL is how long a refreshed schedule is considered fresh.
const ScheduleTTL = 24 * time.Hour

const (
	keyScheduleRefreshed = "schedule_refreshed_at"
	dateLayout           = "2006-01-02"
)

// ScheduleStore is the storage the schedule needs
type ScheduleStore interface {
	repository.FightRepository
	repository.SettingsRepository
}

// RefreshResult describes what a schedule refresh did
type RefreshResult struct {
	Source string `json:"source"` // remote, mock or cache
	Fights int    `json:"fights"`
	Error  string `json:"error,omitempty"`
}

// Prefill is the bout configuration taken from a scheduled fight
type Prefill struct {
	FightID    string `json:"fight_id"`
	CornerA    string `json:"corner_a"`
	CornerB    string `json:"corner_b"`
	RoundCount int    `json:"round_count"`
}

// ScheduleService keeps a local cache of the fight schedule
type ScheduleService struct {
	log    logger.Logger
	repo   ScheduleStore
	client scoreapi.Client
	now    func() time.Time
}

// ScheduleOption configures a ScheduleService
type ScheduleOption func(*ScheduleService)

// WithScheduleClock replaces time.Now
func WithScheduleClock(now func() time.Time) ScheduleOption {
	return func(s *ScheduleService) { s.now = now }
}

// NewScheduleService creates a new ScheduleService. client may be unconfigured,
// in which case only the built-in fights are offered.
func NewScheduleService(log logger.Logger, repo ScheduleStore, client scoreapi.Client, opts ...ScheduleOption) *ScheduleService {
	s := &ScheduleService{log: log, repo: repo, client: client, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh pulls the schedule from the remote store. When the store cannot be
// reached the cached fights are kept, and an empty cache is seeded with the
// built-in fights.
func (s *ScheduleService) Refresh(ctx context.Context) (*RefreshResult, error) {
	result := &RefreshResult{}

	if s.client != nil && s.client.Configured() {
		records, err := s.client.FetchFights(ctx)
		if err == nil {
			return s.storeRemote(ctx, records)
		}
		s.log.Warn("Schedule refresh failed, keeping cache", "error", err)
		result.Error = err.Error()
	}

	count, err := s.repo.CountFights(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		result.Source = "cache"
		result.Fights = count
		return result, nil
	}

	seeded, err := s.SeedMockFights(ctx)
	if err != nil {
		return nil, err
	}
	result.Source = SourceMock
	result.Fights = seeded
	return result, nil
}

func (s *ScheduleService) storeRemote(ctx context.Context, records []scoreapi.FightRecord) (*RefreshResult, error) {
	if err := s.repo.DeleteFightsBySource(ctx, SourceMock); err != nil {
		return nil, err
	}
	now := s.now()
	stored := 0
	for _, rec := range records {
		fight, ok := fightFromRecord(rec)
		if !ok {
			s.log.Debug("Skipping fight without a usable date", "id", rec.ID, "date", rec.FightDate)
			continue
		}
		fight.UpdatedAt = now
		if err := s.repo.UpsertFight(ctx, fight); err != nil {
			return nil, err
		}
		stored++
	}
	if err := s.repo.SetSetting(ctx, keyScheduleRefreshed, now.UTC().Format(time.RFC3339)); err != nil {
		return nil, err
	}
	s.log.Info("Schedule refreshed", "fights", stored)
	return &RefreshResult{Source: SourceRemote, Fights: stored}, nil
}

// EnsureFresh refreshes the schedule when the cache is empty or stale
func (s *ScheduleService) EnsureFresh(ctx context.Context) error {
	count, err := s.repo.CountFights(ctx)
	if err != nil {
		return err
	}
	if count > 0 && !s.stale(ctx) {
		return nil
	}
	_, err = s.Refresh(ctx)
	return err
}

func (s *ScheduleService) stale(ctx context.Context) bool {
	if s.client == nil || !s.client.Configured() {
		return false
	}
	value, err := s.repo.GetSetting(ctx, keyScheduleRefreshed)
	if err != nil {
		return true
	}
	refreshed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return true
	}
	return s.now().Sub(refreshed) >= ScheduleTTL
}

// List returns fights for a view. Past fights are never listed.
func (s *ScheduleService) List(ctx context.Context, when string) ([]models.Fight, error) {
	if when == "" {
		when = WhenAll
	}
	if when != WhenToday && when != WhenUpcoming && when != WhenAll {
		return nil, ErrInvalidScheduleView
	}

	if err := s.EnsureFresh(ctx); err != nil {
		s.log.Warn("Could not refresh schedule", "error", err)
	}

	today := s.now().Format(dateLayout)
	fights, err := s.repo.ListFights(ctx, today)
	if err != nil {
		return nil, err
	}

	out := make([]models.Fight, 0, len(fights))
	for _, f := range fights {
		switch {
		case f.Date == today && when != WhenUpcoming:
			out = append(out, f)
		case f.Date > today && when != WhenToday:
			out = append(out, f)
		}
	}
	return out, nil
}

// Prefill returns the bout configuration for a scheduled fight
func (s *ScheduleService) Prefill(ctx context.Context, fightID string) (*Prefill, error) {
	fight, err := s.repo.GetFight(ctx, fightID)
	if err == repository.ErrNotFound {
		return nil, ErrFightNotFound
	}
	if err != nil {
		return nil, err
	}
	rounds := fight.Rounds
	if rounds < 1 || rounds > MaxRounds {
		rounds = scorecard.DefaultRoundCount
	}
	return &Prefill{
		FightID:    fight.ID,
		CornerA:    CleanFighterName(fight.FighterA.Name),
		CornerB:    CleanFighterName(fight.FighterB.Name),
		RoundCount: rounds,
	}, nil
}

// SeedMockFights stores the built-in fights, dated relative to today
func (s *ScheduleService) SeedMockFights(ctx context.Context) (int, error) {
	fights := MockFights(s.now())
	for _, f := range fights {
		if err := s.repo.UpsertFight(ctx, f); err != nil {
			return 0, errors.Wrap(err, errors.ErrInternal, "seed fights")
		}
	}
	s.log.Info("Seeded built-in fights", "count", len(fights))
	return len(fights), nil
}

var (
	titlePrefix = regexp.MustCompile(`^(.*?)(British\s+middleweight\s+title|title|championship|main\s+event|title\s+fight)(.*?)([A-Z][a-z]+)`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// CleanFighterName strips listing clutter from a scraped fighter name: a
// leading title phrase and anything before the first capital letter. The
// input is returned unchanged when nothing would be left.
func CleanFighterName(name string) string {
	cleaned := strings.TrimSpace(name)
	cleaned = titlePrefix.ReplaceAllString(cleaned, "$4")
	if i := strings.IndexFunc(cleaned, func(r rune) bool { return r >= 'A' && r <= 'Z' }); i > 0 {
		cleaned = cleaned[i:]
	}
	cleaned = strings.TrimSpace(whitespace.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		return name
	}
	return cleaned
}

func fightFromRecord(rec scoreapi.FightRecord) (models.Fight, bool) {
	date := strings.TrimSpace(rec.FightDate)
	if len(date) < len(dateLayout) {
		return models.Fight{}, false
	}
	date = date[:len(dateLayout)]
	if _, err := time.Parse(dateLayout, date); err != nil {
		return models.Fight{}, false
	}
	status := rec.Status
	if status == "" {
		status = "upcoming"
	}
	return models.Fight{
		ID:          rec.ID.String(),
		FighterA:    models.Fighter{Name: rec.Fighter1, Record: rec.Fighter1Record},
		FighterB:    models.Fighter{Name: rec.Fighter2, Record: rec.Fighter2Record},
		Title:       rec.Title,
		Date:        date,
		Time:        rec.FightTime,
		Venue:       rec.Venue,
		City:        rec.City,
		Network:     rec.Network,
		WeightClass: rec.WeightClass,
		Rounds:      rec.Rounds,
		Status:      status,
		Source:      SourceRemote,
	}, true
}

// MockFights returns the built-in schedule: two fights today, three
// upcoming and one that has already happened.
func MockFights(now time.Time) []models.Fight {
	day := func(offset int) string { return now.AddDate(0, 0, offset).Format(dateLayout) }
	return []models.Fight{
		{ID: "mock_1", FighterA: models.Fighter{Name: "Naoya Inoue", Record: "30-0-0", Nickname: "The Monster"},
			FighterB: models.Fighter{Name: "Murodjon Akhmadaliev", Record: "13-2-0"},
			Title:    "Undisputed Super Bantamweight Championship", Date: day(0), Time: "20:00",
			Venue: "Ariake Arena", City: "Tokyo", Network: "ESPN+", WeightClass: "Super Bantamweight",
			Rounds: 12, Status: "live", Source: SourceMock},
		{ID: "mock_2", FighterA: models.Fighter{Name: "Jaron Ennis", Record: "33-0-0", Nickname: "Boots"},
			FighterB: models.Fighter{Name: "Karen Chukhadzhian", Record: "25-2-0"},
			Title:    "Welterweight title main event", Date: day(0), Time: "22:00",
			Venue: "Wells Fargo Center", City: "Philadelphia", Network: "DAZN", WeightClass: "Welterweight",
			Rounds: 12, Status: "upcoming", Source: SourceMock},
		{ID: "mock_3", FighterA: models.Fighter{Name: "Shakur Stevenson", Record: "23-0-0"},
			FighterB: models.Fighter{Name: "William Zepeda", Record: "33-0-0"},
			Title:    "WBC Lightweight Championship", Date: day(7), Time: "21:00",
			Venue: "Madison Square Garden", City: "New York", Network: "DAZN", WeightClass: "Lightweight",
			Rounds: 12, Status: "upcoming", Source: SourceMock},
		{ID: "mock_4", FighterA: models.Fighter{Name: "Chris Eubank Jr", Record: "35-3-0"},
			FighterB: models.Fighter{Name: "Conor Benn", Record: "23-0-0"},
			Title:    "Catchweight grudge match", Date: day(14), Time: "19:30",
			Venue: "Tottenham Hotspur Stadium", City: "London", Network: "DAZN", WeightClass: "Catchweight",
			Rounds: 12, Status: "upcoming", Source: SourceMock},
		{ID: "mock_5", FighterA: models.Fighter{Name: "Diego Pacheco", Record: "22-0-0"},
			FighterB: models.Fighter{Name: "Trevor McCumby", Record: "28-1-0"},
			Title:    "Super Middleweight eliminator", Date: day(30), Time: "18:00",
			Venue: "Toyota Arena", City: "Ontario", Network: "DAZN", WeightClass: "Super Middleweight",
			Rounds: 10, Status: "upcoming", Source: SourceMock},
		{ID: "mock_6", FighterA: models.Fighter{Name: "Gervonta Davis", Record: "30-0-1"},
			FighterB: models.Fighter{Name: "Lamont Roach", Record: "25-1-2"},
			Title:    "WBA Lightweight Championship", Date: day(-3), Time: "21:00",
			Venue: "Barclays Center", City: "Brooklyn", Network: "PPV", WeightClass: "Lightweight",
			Rounds: 12, Status: "final", Source: SourceMock},
	}
}
