package scorecard

import (
	"math"
	"time"
)

// PickerState is the state of the inline score picker.
type PickerState int

const (
	PickerIdle     PickerState = iota
	PickerOpen                 // activated, waiting for a gesture
	PickerDragging             // pointer held down on the picker
)

func (s PickerState) String() string {
	switch s {
	case PickerOpen:
		return "open"
	case PickerDragging:
		return "dragging"
	default:
		return "idle"
	}
}

// PickerView is the read-only projection of the picker for rendering.
type PickerView struct {
	State     string `json:"state"`
	Round     int    `json:"round,omitempty"`
	Corner    Corner `json:"corner"`
	Candidate Score  `json:"candidate,omitempty"`
	Index     int    `json:"index"`
	Original  Score  `json:"original,omitempty"`
}

// Open reports whether a picker session exists.
func (v PickerView) Open() bool {
	return v.State != PickerIdle.String()
}

// picker edits a single cell at a time. It never touches the round table;
// the session reads the candidate on commit.
type picker struct {
	cfg PickerConfig
	now func() time.Time

	state    PickerState
	round    int
	corner   Corner
	original Score
	index    int

	startIndex int
	anchorY    float64
	moved      bool
	wheelAcc   float64

	// releasedAt is kept across picker sessions so that the click that
	// trails a drag release cannot commit a second time.
	releasedAt time.Time
}

func newPicker(cfg PickerConfig, now func() time.Time) picker {
	return picker{cfg: cfg.normalized(), now: now}
}

func (p *picker) isOpen() bool {
	return p.state != PickerIdle
}

func (p *picker) targets(round int, c Corner) bool {
	return p.isOpen() && p.round == round && p.corner == c
}

func (p *picker) candidate() Score {
	return Candidates[p.index]
}

func (p *picker) open(round int, c Corner, current Score) {
	idx := IndexOf(current)
	if idx < 0 {
		idx = 0
	}
	p.state = PickerOpen
	p.round = round
	p.corner = c
	p.original = current
	p.index = idx
	p.startIndex = idx
	p.moved = false
	p.wheelAcc = 0
}

func (p *picker) close() {
	p.state = PickerIdle
	p.round = 0
	p.original = Unset
	p.index = 0
	p.moved = false
	p.wheelAcc = 0
}

func (p *picker) dragStart(y float64) bool {
	if !p.isOpen() || !finite(y) {
		return false
	}
	p.state = PickerDragging
	p.anchorY = y
	p.startIndex = p.index
	p.moved = false
	return true
}

// dragMove returns true when the candidate changed. Dragging up (smaller y)
// moves toward lower scores.
func (p *picker) dragMove(y float64) bool {
	if p.state != PickerDragging || !finite(y) {
		return false
	}
	// Bound the step count before converting so huge deltas cannot overflow int
	limit := float64(len(Candidates))
	steps := math.Max(-limit, math.Min(limit, (p.anchorY-y)/p.cfg.ItemHeight))
	offset := int(math.Floor(steps + 0.5))
	next := clampIndex(p.startIndex + offset)
	if next == p.index {
		return false
	}
	p.index = next
	p.moved = true
	return true
}

// dragEnd returns true when the drag moved the candidate and should commit.
func (p *picker) dragEnd() bool {
	if p.state != PickerDragging {
		return false
	}
	p.state = PickerOpen
	if !p.moved {
		return false
	}
	p.releasedAt = p.now()
	return true
}

func (p *picker) wheel(deltaY float64) bool {
	if !p.isOpen() || !finite(deltaY) {
		return false
	}
	p.wheelAcc += deltaY
	if math.Abs(p.wheelAcc) < p.cfg.WheelThreshold {
		return false
	}
	step := 1
	if p.wheelAcc < 0 {
		step = -1
	}
	p.wheelAcc = 0
	next := clampIndex(p.index + step)
	if next == p.index {
		return false
	}
	p.index = next
	return true
}

// tap returns true when the tapped row should be committed.
func (p *picker) tap(index int) bool {
	if !p.isOpen() || index < 0 || index >= len(Candidates) {
		return false
	}
	if p.state == PickerDragging && p.moved {
		return false
	}
	if !p.releasedAt.IsZero() && p.now().Sub(p.releasedAt) < p.cfg.TapDebounce {
		return false
	}
	p.index = index
	return true
}

func (p *picker) view() PickerView {
	if !p.isOpen() {
		return PickerView{State: PickerIdle.String()}
	}
	return PickerView{
		State:     p.state.String(),
		Round:     p.round,
		Corner:    p.corner,
		Candidate: p.candidate(),
		Index:     p.index,
		Original:  p.original,
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func clampIndex(i int) int {
	if i < 0 {
		return 0
	}
	if i > len(Candidates)-1 {
		return len(Candidates) - 1
	}
	return i
}
