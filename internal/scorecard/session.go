package scorecard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abrezinsky/crowdscore/internal/errors"
	"github.com/abrezinsky/crowdscore/internal/logger"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateIdle State = iota
	StateActive
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateFinalized:
		return "finalized"
	default:
		return "idle"
	}
}

// EventKind classifies session events.
type EventKind string

const (
	EventStarted       EventKind = "started"
	EventScored        EventKind = "scored"
	EventPickerChanged EventKind = "picker_changed"
	EventCommitted     EventKind = "committed"
	EventFinalized     EventKind = "finalized"
	EventSaved         EventKind = "saved"
	EventSaveFailed    EventKind = "save_failed"
	EventReset         EventKind = "reset"
)

// Event is delivered to the session observer. Save events arrive from the
// goroutine that ran the save.
type Event struct {
	Kind    EventKind
	Round   int
	Corner  Corner
	Method  string // scoring method for EventScored: winner, pair, picker
	Receipt Receipt
	Err     error
}

// Option configures a Session.
type Option func(*Session)

// WithConfig sets the engine configuration.
func WithConfig(cfg Config) Option {
	return func(s *Session) { s.cfg = cfg }
}

// WithSink sets where finalized scorecards are saved.
func WithSink(sink ResultSink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithLogger sets the session logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithObserver registers a callback for session events.
func WithObserver(fn func(Event)) Option {
	return func(s *Session) { s.observer = fn }
}

// Session scores a single bout. It is not safe for concurrent use; hosts
// serialise input events. Only the save status is touched from the save
// goroutine and it has its own lock.
type Session struct {
	cfg      Config
	sink     ResultSink
	log      logger.Logger
	now      func() time.Time
	observer func(Event)

	state       State
	bout        Bout
	table       RoundTable
	picker      picker
	finalizedAt time.Time
	revision    int
	epoch       int // bumped on Start and Reset; stale saves are dropped

	saveMu    sync.Mutex
	save      SaveStatus
	saveEpoch int
	saving    sync.WaitGroup
}

// NewSession creates an idle session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		cfg:  DefaultConfig(),
		log:  logger.NewNop(),
		now:  time.Now,
		save: SaveStatus{State: SaveNone},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.Amend == "" {
		s.cfg.Amend = AmendResave
	}
	s.picker = newPicker(s.cfg.Picker, s.now)
	return s
}

// Start begins scoring a bout with all rounds unset.
func (s *Session) Start(b Bout) error {
	if err := s.table.Initialize(b.RoundCount); err != nil {
		return err
	}
	if b.Origin == "" {
		b.Origin = OriginManual
	}
	s.bout = b
	s.picker.close()
	s.state = StateActive
	s.finalizedAt = time.Time{}
	s.revision = 0
	s.epoch++
	s.resetSave()
	s.log.Debug("Bout started", "bout", b.ID, "rounds", b.RoundCount, "origin", b.Origin)
	s.emit(Event{Kind: EventStarted})
	return nil
}

// SetName changes a corner's display name. Empty restores the default label.
func (s *Session) SetName(c Corner, name string) {
	if c == CornerB {
		s.bout.CornerB = name
	} else {
		s.bout.CornerA = name
	}
}

// RecordWinner scores the current round 10-9 for the winning corner. It
// returns false without error once the bout is complete or finalized.
// Scoring the last round finalizes the bout.
func (s *Session) RecordWinner(ctx context.Context, winner Corner) (bool, error) {
	if s.state == StateIdle {
		return false, errors.Wrap(ErrNotStarted, errors.ErrConflict, "start a bout first")
	}
	if s.state == StateFinalized || s.table.Complete() {
		return false, nil
	}
	s.ClickOutside(ctx)

	round := s.table.CurrentRound()
	a, b := Score(10), Score(9)
	if winner == CornerB {
		a, b = 9, 10
	}
	if err := s.table.SetPair(round, a, b); err != nil {
		return false, err
	}
	s.log.Debug("Round scored", "bout", s.bout.ID, "round", round, "winner", winner)
	s.emit(Event{Kind: EventScored, Round: round, Corner: winner, Method: "winner"})

	if s.table.Complete() {
		s.finalize(ctx)
	}
	return true, nil
}

// SetPair scores a round directly. Any picker open on that round is dropped.
// Filling the last unscored round finalizes the bout.
func (s *Session) SetPair(ctx context.Context, round int, a, b Score) error {
	if s.state == StateIdle {
		return errors.Wrap(ErrNotStarted, errors.ErrConflict, "start a bout first")
	}
	if s.state == StateFinalized && s.cfg.Amend == AmendLock {
		return errors.Conflict("scorecard is final")
	}
	if err := s.table.SetPair(round, a, b); err != nil {
		return err
	}
	if s.picker.isOpen() && s.picker.round == round {
		s.picker.close()
	}
	s.emit(Event{Kind: EventScored, Round: round, Method: "pair"})
	switch {
	case s.state == StateActive && s.table.Complete():
		s.finalize(ctx)
	case s.state == StateFinalized && s.cfg.Amend == AmendResave:
		s.persist(ctx)
	}
	return nil
}

// Finalize marks the bout final and saves it in the background. Calling it
// again on a finalized bout saves again, which is how a failed save is retried.
func (s *Session) Finalize(ctx context.Context) (Snapshot, error) {
	if s.state == StateIdle {
		return Snapshot{}, errors.Wrap(ErrNotStarted, errors.ErrConflict, "start a bout first")
	}
	rev := s.revision
	s.ClickOutside(ctx)
	if s.state == StateFinalized {
		if s.revision != rev {
			// The amendment commit already saved this revision
			return s.Snapshot(), nil
		}
		return s.persist(ctx), nil
	}
	return s.finalize(ctx), nil
}

func (s *Session) finalize(ctx context.Context) Snapshot {
	s.state = StateFinalized
	s.finalizedAt = s.now()
	tA, tB := s.table.Totals()
	s.log.Info("Bout finalized", "bout", s.bout.ID, "total_a", tA, "total_b", tB)
	s.emit(Event{Kind: EventFinalized})
	return s.persist(ctx)
}

// Reset clears the bout and returns to idle. It returns the origin of the
// bout that was cleared so the caller can decide where to navigate.
func (s *Session) Reset() Origin {
	prev := s.bout.Origin
	s.picker.close()
	s.table.Clear()
	s.bout = Bout{ID: s.bout.ID, RoundCount: s.bout.RoundCount}
	s.state = StateIdle
	s.finalizedAt = time.Time{}
	s.epoch++
	s.resetSave()
	s.emit(Event{Kind: EventReset})
	return prev
}

// Activate opens the picker on a scored cell. Activating the cell that is
// already open commits it; activating another cell commits the open one
// first. Unscored cells are ignored.
func (s *Session) Activate(ctx context.Context, round int, c Corner) (bool, error) {
	if s.state == StateIdle {
		return false, nil
	}
	r, err := s.table.Round(round)
	if err != nil {
		return false, err
	}
	if s.picker.targets(round, c) {
		s.commit(ctx)
		return false, nil
	}
	if !r.Get(c).IsSet() {
		return false, nil
	}
	if s.state == StateFinalized && s.cfg.Amend == AmendLock {
		return false, nil
	}
	if s.picker.isOpen() {
		s.commit(ctx)
	}
	s.picker.open(round, c, r.Get(c))
	s.emit(Event{Kind: EventPickerChanged, Round: round, Corner: c})
	return true, nil
}

// DragStart anchors a drag gesture at pointer position y.
func (s *Session) DragStart(y float64) bool {
	return s.picker.dragStart(y)
}

// DragMove updates the candidate from the pointer position. It returns
// true when the live score changed.
func (s *Session) DragMove(y float64) bool {
	if !s.picker.dragMove(y) {
		return false
	}
	s.emit(Event{Kind: EventPickerChanged, Round: s.picker.round, Corner: s.picker.corner})
	return true
}

// DragEnd releases the pointer; a drag that moved the candidate commits.
func (s *Session) DragEnd(ctx context.Context) bool {
	if !s.picker.dragEnd() {
		return false
	}
	s.commit(ctx)
	return true
}

// Wheel applies a scroll delta to the open picker.
func (s *Session) Wheel(deltaY float64) bool {
	if !s.picker.wheel(deltaY) {
		return false
	}
	s.emit(Event{Kind: EventPickerChanged, Round: s.picker.round, Corner: s.picker.corner})
	return true
}

// Tap selects a candidate row by index and commits it.
func (s *Session) Tap(ctx context.Context, index int) (bool, error) {
	if index < 0 || index >= len(Candidates) {
		return false, errors.InvalidInputf("picker index %d out of range", index)
	}
	if !s.picker.tap(index) {
		return false, nil
	}
	s.commit(ctx)
	return true, nil
}

// ClickOutside closes the open picker according to the outside-click policy.
func (s *Session) ClickOutside(ctx context.Context) {
	if !s.picker.isOpen() {
		return
	}
	if s.picker.cfg.Outside == OutsideRevert {
		s.CancelPicker()
		return
	}
	s.commit(ctx)
}

// CancelPicker closes the picker without changing the cell.
func (s *Session) CancelPicker() {
	if !s.picker.isOpen() {
		return
	}
	round, c := s.picker.round, s.picker.corner
	s.picker.close()
	s.emit(Event{Kind: EventPickerChanged, Round: round, Corner: c})
}

func (s *Session) commit(ctx context.Context) {
	round, c := s.picker.round, s.picker.corner
	value, original := s.picker.candidate(), s.picker.original
	s.picker.close()
	if err := s.table.setCell(round, c, value); err != nil {
		s.log.Error("Picker commit rejected", "round", round, "error", err)
		return
	}
	s.emit(Event{Kind: EventCommitted, Round: round, Corner: c, Method: "picker"})
	if s.state == StateFinalized && s.cfg.Amend == AmendResave && value != original {
		s.log.Info("Finalized scorecard amended", "bout", s.bout.ID, "round", round, "corner", c)
		s.persist(ctx)
	}
}

func (s *Session) persist(ctx context.Context) Snapshot {
	s.revision++
	snap := s.Snapshot()
	if s.sink == nil {
		s.setSave(SaveStatus{State: SaveNone, Revision: snap.Revision})
		return snap
	}
	s.setSave(SaveStatus{State: SavePending, Revision: snap.Revision})

	ctx = context.WithoutCancel(ctx)
	epoch := s.epoch
	s.saving.Add(1)
	go func() {
		defer s.saving.Done()
		receipt, err := s.sink.Save(ctx, snap)
		s.recordSave(epoch, snap, receipt, err)
	}()
	return snap
}

func (s *Session) recordSave(epoch int, snap Snapshot, receipt Receipt, err error) {
	revision := snap.Revision
	s.saveMu.Lock()
	if epoch != s.saveEpoch || revision < s.save.Revision {
		s.saveMu.Unlock()
		return
	}
	if err != nil {
		s.save = SaveStatus{State: SaveFailed, Revision: revision, Error: err.Error()}
	} else {
		s.save = SaveStatus{State: SaveDone, Revision: revision, Method: receipt.Method, RecordID: receipt.RecordID}
	}
	s.saveMu.Unlock()

	if err != nil {
		s.log.Warn("Scorecard not saved", "bout", snap.ID, "revision", revision, "error", err)
		s.emit(Event{Kind: EventSaveFailed, Err: errors.Wrap(fmt.Errorf("%w: %w", ErrPersistence, err), errors.ErrUnavailable, "could not save scorecard")})
		return
	}
	s.emit(Event{Kind: EventSaved, Receipt: receipt})
}

func (s *Session) resetSave() {
	s.saveMu.Lock()
	s.save = SaveStatus{State: SaveNone}
	s.saveEpoch = s.epoch
	s.saveMu.Unlock()
}

func (s *Session) setSave(st SaveStatus) {
	s.saveMu.Lock()
	s.save = st
	s.saveMu.Unlock()
}

// WaitSaves blocks until every save started so far has finished.
func (s *Session) WaitSaves() {
	s.saving.Wait()
}

func (s *Session) emit(e Event) {
	if s.observer != nil {
		s.observer(e)
	}
}

// ==================== Views ====================

// State returns the lifecycle state.
func (s *Session) State() State { return s.state }

// Bout returns the bout configuration including current names.
func (s *Session) Bout() Bout { return s.bout }

// Label returns a corner's display name.
func (s *Session) Label(c Corner) string { return s.bout.Label(c) }

// RoundCount returns the number of rounds in the table.
func (s *Session) RoundCount() int { return s.table.Len() }

// CurrentRound returns the first unscored round.
func (s *Session) CurrentRound() int {
	if s.table.Len() == 0 {
		return 1
	}
	return s.table.CurrentRound()
}

// Totals returns the committed totals for both corners.
func (s *Session) Totals() (int, int) { return s.table.Totals() }

// Rounds returns the committed rounds.
func (s *Session) Rounds() []Round { return s.table.Rounds() }

// Complete reports whether every round is scored.
func (s *Session) Complete() bool { return s.table.Complete() }

// Picker returns the picker projection.
func (s *Session) Picker() PickerView { return s.picker.view() }

// DisplayScore returns what a cell should show: the live candidate while a
// picker is open on it, otherwise the committed score.
func (s *Session) DisplayScore(round int, c Corner) Score {
	if s.picker.targets(round, c) {
		return s.picker.candidate()
	}
	r, err := s.table.Round(round)
	if err != nil {
		return Unset
	}
	return r.Get(c)
}

// SaveStatus returns the outcome of the latest save.
func (s *Session) SaveStatus() SaveStatus {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.save
}

// Snapshot captures the committed state of the bout.
func (s *Session) Snapshot() Snapshot {
	rounds := s.table.Rounds()
	out := make([]RoundScore, len(rounds))
	for i, r := range rounds {
		out[i] = RoundScore{Round: r.Number, A: int(r.A), B: int(r.B), Modified: r.IsModified()}
	}
	tA, tB := s.table.Totals()
	return Snapshot{
		ID:          s.bout.ID,
		FightID:     s.bout.FightID,
		Origin:      s.bout.Origin,
		CornerA:     s.bout.Label(CornerA),
		CornerB:     s.bout.Label(CornerB),
		RoundCount:  s.table.Len(),
		Rounds:      out,
		TotalA:      tA,
		TotalB:      tB,
		Revision:    s.revision,
		FinalizedAt: s.finalizedAt,
	}
}
