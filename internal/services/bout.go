package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/crowdscore/internal/errors"
	"github.com/abrezinsky/crowdscore/internal/logger"
	"github.com/abrezinsky/crowdscore/internal/metrics"
	"github.com/abrezinsky/crowdscore/internal/scorecard"
)

// IdleBoutTTL is how long an untouched bout is kept in memory.
const IdleBoutTTL = 12 * time.Hour

// StartRequest configures a new bout. A fight ID takes names and round
// count from the schedule; explicit values still win.
type StartRequest struct {
	RoundCount int    `json:"round_count"`
	CornerA    string `json:"corner_a"`
	CornerB    string `json:"corner_b"`
	FightID    string `json:"fight_id"`
}

// RoundView is one row of the rendered scorecard. A and B are what the cells
// show, which is the live candidate while a picker is open on them.
type RoundView struct {
	Round     int  `json:"round"`
	A         int  `json:"a"`
	B         int  `json:"b"`
	Set       bool `json:"set"`
	Modified  bool `json:"modified"`
	ModifiedA bool `json:"modified_a"`
	ModifiedB bool `json:"modified_b"`
	Current   bool `json:"current"`
}

// BoutView is the render projection of a live bout
type BoutView struct {
	ID           string               `json:"id"`
	FightID      string               `json:"fight_id,omitempty"`
	Origin       string               `json:"origin"`
	State        string               `json:"state"`
	RoundCount   int                  `json:"round_count"`
	CurrentRound int                  `json:"current_round"`
	Complete     bool                 `json:"complete"`
	CornerA      string               `json:"corner_a"`
	CornerB      string               `json:"corner_b"`
	TotalA       int                  `json:"total_a"`
	TotalB       int                  `json:"total_b"`
	Winner       string               `json:"winner,omitempty"`
	WinnerName   string               `json:"winner_name,omitempty"`
	Rounds       []RoundView          `json:"rounds"`
	Picker       scorecard.PickerView `json:"picker"`
	Candidates   []int                `json:"candidates"`
	Save         scorecard.SaveStatus `json:"save"`
}

// ResetResult tells the client where to go after a reset: back home for a
// scheduled fight, or a fresh card for a manual one.
type ResetResult struct {
	View   BoutView `json:"view"`
	Origin string   `json:"origin"`
	Next   string   `json:"next"`
}

// BoutCommand is a single scoring action addressed to a bout, used by
// transports that multiplex actions over one channel.
type BoutCommand struct {
	Action  string  `json:"action" mapstructure:"action"`
	Corner  string  `json:"corner" mapstructure:"corner"`
	Round   int     `json:"round" mapstructure:"round"`
	A       int     `json:"a" mapstructure:"a"`
	B       int     `json:"b" mapstructure:"b"`
	Y       float64 `json:"y" mapstructure:"y"`
	DeltaY  float64 `json:"delta_y" mapstructure:"delta_y"`
	Index   int     `json:"index" mapstructure:"index"`
	CornerA string  `json:"corner_a" mapstructure:"corner_a"`
	CornerB string  `json:"corner_b" mapstructure:"corner_b"`
}

type boutEntry struct {
	mu      sync.Mutex
	id      string
	session *scorecard.Session
	touched time.Time
}

// ScorecardService hosts live scoring sessions keyed by bout ID
type ScorecardService struct {
	log         logger.Logger
	sink        scorecard.ResultSink
	settings    SettingsServicer
	schedule    ScheduleProvider
	metrics     *metrics.Metrics
	broadcaster Broadcaster
	now         func() time.Time

	mu    sync.RWMutex
	bouts map[string]*boutEntry
}

// ScorecardOption configures a ScorecardService
type ScorecardOption func(*ScorecardService)

// WithSchedule lets bouts be started from a scheduled fight
func WithSchedule(p ScheduleProvider) ScorecardOption {
	return func(s *ScorecardService) { s.schedule = p }
}

// WithMetrics records scoring counters
func WithMetrics(m *metrics.Metrics) ScorecardOption {
	return func(s *ScorecardService) { s.metrics = m }
}

// WithBoutClock replaces time.Now
func WithBoutClock(now func() time.Time) ScorecardOption {
	return func(s *ScorecardService) { s.now = now }
}

// NewScorecardService creates a new ScorecardService
func NewScorecardService(log logger.Logger, sink scorecard.ResultSink, settings SettingsServicer, opts ...ScorecardOption) *ScorecardService {
	s := &ScorecardService{
		log:      log,
		sink:     sink,
		settings: settings,
		now:      time.Now,
		bouts:    make(map[string]*boutEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetBroadcaster sets the broadcaster for sending updates to clients
func (s *ScorecardService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Start begins a new bout
func (s *ScorecardService) Start(ctx context.Context, req StartRequest) (BoutView, error) {
	bout := scorecard.Bout{
		ID:         uuid.NewString(),
		RoundCount: req.RoundCount,
		CornerA:    strings.TrimSpace(req.CornerA),
		CornerB:    strings.TrimSpace(req.CornerB),
		Origin:     scorecard.OriginManual,
	}

	if req.FightID != "" {
		if s.schedule == nil {
			return BoutView{}, ErrFightNotFound
		}
		prefill, err := s.schedule.Prefill(ctx, req.FightID)
		if err != nil {
			return BoutView{}, err
		}
		bout.FightID = prefill.FightID
		bout.Origin = scorecard.OriginSchedule
		if bout.CornerA == "" {
			bout.CornerA = prefill.CornerA
		}
		if bout.CornerB == "" {
			bout.CornerB = prefill.CornerB
		}
		if bout.RoundCount == 0 {
			bout.RoundCount = prefill.RoundCount
		}
	}

	if bout.RoundCount == 0 {
		bout.RoundCount = s.settings.DefaultRounds(ctx)
	}
	if bout.RoundCount < 1 || bout.RoundCount > MaxRounds {
		return BoutView{}, ErrInvalidRoundCount
	}

	cfg, err := s.settings.EngineConfig(ctx)
	if err != nil {
		s.log.Warn("Using default engine settings", "error", err)
	}

	entry := &boutEntry{id: bout.ID, touched: s.now()}
	entry.session = scorecard.NewSession(
		scorecard.WithConfig(cfg),
		scorecard.WithSink(s.sink),
		scorecard.WithLogger(s.log),
		scorecard.WithObserver(func(e scorecard.Event) { s.observe(entry, e) }),
	)
	if err := entry.session.Start(bout); err != nil {
		return BoutView{}, err
	}

	s.mu.Lock()
	s.pruneLocked()
	s.bouts[bout.ID] = entry
	live := len(s.bouts)
	s.mu.Unlock()
	s.metrics.SetLiveBouts(live)

	s.log.Info("Bout started", "bout", bout.ID, "rounds", bout.RoundCount, "origin", bout.Origin)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	view := buildView(entry)
	s.broadcast(entry.id, view)
	return view, nil
}

func (s *ScorecardService) pruneLocked() {
	cutoff := s.now().Add(-IdleBoutTTL)
	for id, e := range s.bouts {
		e.mu.Lock()
		idle := e.touched.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(s.bouts, id)
			s.log.Debug("Pruned idle bout", "bout", id)
		}
	}
}

func (s *ScorecardService) entry(id string) (*boutEntry, error) {
	s.mu.RLock()
	e, ok := s.bouts[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrBoutNotFound
	}
	return e, nil
}

// update runs fn against the bout's session and broadcasts the new view
func (s *ScorecardService) update(id string, fn func(*scorecard.Session) error) (BoutView, error) {
	e, err := s.entry(id)
	if err != nil {
		return BoutView{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := fn(e.session); err != nil {
		return BoutView{}, err
	}
	e.touched = s.now()
	view := buildView(e)
	s.broadcast(e.id, view)
	return view, nil
}

// observe feeds session events into metrics. Save events arrive on the save
// goroutine, which holds no lock, so they publish a fresh view themselves.
func (s *ScorecardService) observe(e *boutEntry, ev scorecard.Event) {
	switch ev.Kind {
	case scorecard.EventScored, scorecard.EventCommitted:
		s.metrics.RoundScored(ev.Method)
	case scorecard.EventFinalized:
		s.metrics.BoutFinalized()
	case scorecard.EventSaved:
		s.metrics.Save(ev.Receipt.Method, metrics.OutcomeSaved)
		s.publish(e)
	case scorecard.EventSaveFailed:
		s.metrics.Save("", metrics.OutcomeFailed)
		s.publish(e)
	}
}

func (s *ScorecardService) publish(e *boutEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s.broadcast(e.id, buildView(e))
}

func (s *ScorecardService) broadcast(id string, view BoutView) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastBout(id, view)
	}
}

// Get returns the current view of a bout
func (s *ScorecardService) Get(ctx context.Context, id string) (BoutView, error) {
	e, err := s.entry(id)
	if err != nil {
		return BoutView{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return buildView(e), nil
}

// RecordWinner scores the current round 10-9 for the winner
func (s *ScorecardService) RecordWinner(ctx context.Context, id string, winner scorecard.Corner) (BoutView, error) {
	return s.update(id, func(sess *scorecard.Session) error {
		_, err := sess.RecordWinner(ctx, winner)
		return err
	})
}

// SetNames renames both corners. Empty names fall back to the corner colour.
func (s *ScorecardService) SetNames(ctx context.Context, id, cornerA, cornerB string) (BoutView, error) {
	return s.update(id, func(sess *scorecard.Session) error {
		sess.SetName(scorecard.CornerA, strings.TrimSpace(cornerA))
		sess.SetName(scorecard.CornerB, strings.TrimSpace(cornerB))
		return nil
	})
}

// SetPair scores a round directly
func (s *ScorecardService) SetPair(ctx context.Context, id string, round, a, b int) (BoutView, error) {
	return s.update(id, func(sess *scorecard.Session) error {
		return sess.SetPair(ctx, round, scorecard.Score(a), scorecard.Score(b))
	})
}

// Activate opens or commits the picker on a cell
func (s *ScorecardService) Activate(ctx context.Context, id string, round int, c scorecard.Corner) (BoutView, error) {
	return s.update(id, func(sess *scorecard.Session) error {
		_, err := sess.Activate(ctx, round, c)
		return err
	})
}

// DragStart anchors a picker drag
func (s *ScorecardService) DragStart(ctx context.Context, id string, y float64) (BoutView, error) {
	return s.update(id, func(sess *scorecard.Session) error {
		sess.DragStart(y)
		return nil
	})
}

// DragMove moves a picker drag
func (s *ScorecardService) DragMove(ctx context.Context, id string, y float64) (BoutView, error) {
	return s.update(id, func(sess *scorecard.Session) error {
		sess.DragMove(y)
		return nil
	})
}

// DragEnd releases a picker drag
func (s *ScorecardService) DragEnd(ctx context.Context, id string) (BoutView, error) {
	return s.update(id, func(sess *scorecard.Session) error {
		sess.DragEnd(ctx)
		return nil
	})
}

// Wheel applies a scroll delta to the picker
func (s *ScorecardService) Wheel(ctx context.Context, id string, deltaY float64) (BoutView, error) {
	return s.update(id, func(sess *scorecard.Session) error {
		sess.Wheel(deltaY)
		return nil
	})
}

// Tap selects a picker row
func (s *ScorecardService) Tap(ctx context.Context, id string, index int) (BoutView, error) {
	return s.update(id, func(sess *scorecard.Session) error {
		_, err := sess.Tap(ctx, index)
		return err
	})
}

// ClickOutside closes the picker using the outside-click policy
func (s *ScorecardService) ClickOutside(ctx context.Context, id string) (BoutView, error) {
	return s.update(id, func(sess *scorecard.Session) error {
		sess.ClickOutside(ctx)
		return nil
	})
}

// CancelPicker closes the picker without changing the cell
func (s *ScorecardService) CancelPicker(ctx context.Context, id string) (BoutView, error) {
	return s.update(id, func(sess *scorecard.Session) error {
		sess.CancelPicker()
		return nil
	})
}

// Finalize finalizes the bout, or saves it again if already final
func (s *ScorecardService) Finalize(ctx context.Context, id string) (BoutView, error) {
	return s.update(id, func(sess *scorecard.Session) error {
		_, err := sess.Finalize(ctx)
		return err
	})
}

// Reset clears the bout
func (s *ScorecardService) Reset(ctx context.Context, id string) (*ResetResult, error) {
	var origin scorecard.Origin
	view, err := s.update(id, func(sess *scorecard.Session) error {
		origin = sess.Reset()
		return nil
	})
	if err != nil {
		return nil, err
	}
	next := "score"
	if origin == scorecard.OriginSchedule {
		next = "home"
	}
	return &ResetResult{View: view, Origin: string(origin), Next: next}, nil
}

// Apply dispatches a BoutCommand
func (s *ScorecardService) Apply(ctx context.Context, id string, cmd BoutCommand) (BoutView, error) {
	switch cmd.Action {
	case "winner":
		c, err := scorecard.ParseCorner(cmd.Corner)
		if err != nil {
			return BoutView{}, err
		}
		return s.RecordWinner(ctx, id, c)
	case "names":
		return s.SetNames(ctx, id, cmd.CornerA, cmd.CornerB)
	case "pair":
		return s.SetPair(ctx, id, cmd.Round, cmd.A, cmd.B)
	case "activate":
		c, err := scorecard.ParseCorner(cmd.Corner)
		if err != nil {
			return BoutView{}, err
		}
		return s.Activate(ctx, id, cmd.Round, c)
	case "drag-start":
		return s.DragStart(ctx, id, cmd.Y)
	case "drag-move":
		return s.DragMove(ctx, id, cmd.Y)
	case "drag-end":
		return s.DragEnd(ctx, id)
	case "wheel":
		return s.Wheel(ctx, id, cmd.DeltaY)
	case "tap":
		return s.Tap(ctx, id, cmd.Index)
	case "outside":
		return s.ClickOutside(ctx, id)
	case "cancel":
		return s.CancelPicker(ctx, id)
	case "finalize":
		return s.Finalize(ctx, id)
	case "reset":
		res, err := s.Reset(ctx, id)
		if err != nil {
			return BoutView{}, err
		}
		return res.View, nil
	default:
		return BoutView{}, errors.Wrap(ErrUnknownCommand, errors.ErrInvalidInput, cmd.Action)
	}
}

// LiveBouts returns how many bouts are held in memory
func (s *ScorecardService) LiveBouts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bouts)
}

// WaitSaves blocks until the bout's in-flight saves have finished
func (s *ScorecardService) WaitSaves(id string) error {
	e, err := s.entry(id)
	if err != nil {
		return err
	}
	e.session.WaitSaves()
	return nil
}

func buildView(e *boutEntry) BoutView {
	sess := e.session
	bout := sess.Bout()
	current := sess.CurrentRound()
	complete := sess.Complete()

	rounds := sess.Rounds()
	views := make([]RoundView, len(rounds))
	for i, r := range rounds {
		views[i] = RoundView{
			Round:     r.Number,
			A:         int(sess.DisplayScore(r.Number, scorecard.CornerA)),
			B:         int(sess.DisplayScore(r.Number, scorecard.CornerB)),
			Set:       r.IsSet(),
			Modified:  r.IsModified(),
			ModifiedA: r.CellModified(scorecard.CornerA),
			ModifiedB: r.CellModified(scorecard.CornerB),
			Current:   !complete && r.Number == current,
		}
	}

	candidates := make([]int, len(scorecard.Candidates))
	for i, c := range scorecard.Candidates {
		candidates[i] = int(c)
	}

	totalA, totalB := sess.Totals()
	view := BoutView{
		ID:           e.id,
		FightID:      bout.FightID,
		Origin:       string(bout.Origin),
		State:        sess.State().String(),
		RoundCount:   sess.RoundCount(),
		CurrentRound: current,
		Complete:     complete,
		CornerA:      sess.Label(scorecard.CornerA),
		CornerB:      sess.Label(scorecard.CornerB),
		TotalA:       totalA,
		TotalB:       totalB,
		Rounds:       views,
		Picker:       sess.Picker(),
		Candidates:   candidates,
		Save:         sess.SaveStatus(),
	}
	if sess.State() == scorecard.StateFinalized {
		switch {
		case totalA > totalB:
			view.Winner, view.WinnerName = scorecard.CornerA.String(), view.CornerA
		case totalB > totalA:
			view.Winner, view.WinnerName = scorecard.CornerB.String(), view.CornerB
		default:
			view.Winner = "draw"
		}
	}
	return view
}
