// Package engine implements the annotation engine: the state machine
// turning pointer and key events into table rows and renderer directives.
// All mutations are serialized behind one mutex so every operation sees a
// consistent view of the tables, the correlation cache, and the registry.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/rs/zerolog"

	"github.com/framemark/framemark/internal/cache"
	"github.com/framemark/framemark/internal/channel"
	"github.com/framemark/framemark/internal/config"
	"github.com/framemark/framemark/internal/geo"
	"github.com/framemark/framemark/internal/model"
	"github.com/framemark/framemark/internal/schedule"
	"github.com/framemark/framemark/internal/session"
	"github.com/framemark/framemark/internal/store"
	"github.com/framemark/framemark/pkg/directive"
)

var (
	// ErrNoSession is returned when an operation needs an open session.
	ErrNoSession = errors.New("no session open")
	// ErrNoSelection is returned when no marker is selected.
	ErrNoSelection = errors.New("no object selected")
	// ErrInvalidRotationTarget is returned when the selection is not a
	// correlated arrow.
	ErrInvalidRotationTarget = errors.New("selected object is not a rotatable arrow")
	// ErrUnknownColorTag is returned for tags outside the palette.
	ErrUnknownColorTag = errors.New("unknown color tag")
)

const (
	// markerRadius is the initial radius of a point-click circle.
	markerRadius = 8.0
	// minDragDistance is the noise floor: a press-release pair at or
	// under this distance never becomes an arrow row.
	minDragDistance = 20.0
	// rotateStepDegrees is how far one rotate call swings the head.
	rotateStepDegrees = 1.0
	// defaultFadeInterval backs the fade clock when config carries none.
	defaultFadeInterval = 100 * time.Millisecond
)

// Rotation selects which way RotateSelected swings the arrow head.
type Rotation int

const (
	RotateIncrease Rotation = 1
	RotateDecrease Rotation = -1
)

// Dependencies are the collaborators an Engine needs.
type Dependencies struct {
	Backend    store.Backend
	Sessions   *session.Context
	Scheduler  *schedule.Scheduler
	Stream     channel.Sender[directive.Envelope]
	Logger     zerolog.Logger
	Playback   config.PlaybackConfig
	Annotation config.AnnotationConfig
}

// Engine applies annotation operations to the active session's tables and
// emits directives for the presentation layer.
type Engine struct {
	mu sync.Mutex

	backend  store.Backend
	sessions *session.Context
	sched    *schedule.Scheduler
	stream   channel.Sender[directive.Envelope]
	log      zerolog.Logger

	colorTag     string
	arrowStart   *geom.XY
	selected     uint
	hasSelection bool

	nextID      uint
	correlation *cache.CorrelationTable
	drawables   *cache.Registry
	fades       map[uint]*schedule.Task

	fadeInterval time.Duration
}

// New creates an Engine. An unknown default color tag in config falls
// back to the palette default rather than failing startup.
func New(deps Dependencies) *Engine {
	colorTag := deps.Annotation.DefaultColorTag
	if _, ok := model.PaletteFill(colorTag); !ok {
		colorTag = model.DefaultColorTag
	}
	fadeInterval := deps.Playback.FadeInterval
	if fadeInterval <= 0 {
		fadeInterval = defaultFadeInterval
	}

	return &Engine{
		backend:      deps.Backend,
		sessions:     deps.Sessions,
		sched:        deps.Scheduler,
		stream:       deps.Stream,
		log:          deps.Logger,
		colorTag:     colorTag,
		correlation:  cache.NewCorrelationTable(),
		drawables:    cache.NewRegistry(),
		fades:        make(map[uint]*schedule.Task),
		fadeInterval: fadeInterval,
	}
}

// RecordPoint appends one point row stamped with the current frame index
// and starts the fade animation for its circle marker. The click point is
// also latched as a provisional arrow start, so every point click primes
// a potential arrow.
func (e *Engine) RecordPoint(x, y int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.sessions.Current()
	if cur == nil {
		return ErrNoSession
	}
	if err := e.backend.AppendPoint(cur.Frame(), x, y, e.colorTag); err != nil {
		return fmt.Errorf("append point row: %w", err)
	}

	p := geom.XY{X: float64(x), Y: float64(y)}
	e.arrowStart = &p

	id := e.allocID()
	fill, _ := model.PaletteFill(e.colorTag)
	e.drawables.AddCircle(id, p, markerRadius)
	e.stream.Send(directive.NewShowCircle(id, p, markerRadius, fill))
	e.scheduleFade(id)

	e.log.Debug().
		Uint("marker", id).
		Int("x", x).
		Int("y", y).
		Str("color", e.colorTag).
		Msg("point recorded")
	return nil
}

// BeginArrow latches the press point as the provisional arrow start and
// resolves the selection to the topmost marker under the press. When the
// press lands on nothing the selection is cleared. No table mutation.
func (e *Engine) BeginArrow(x, y int) (uint, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := geom.XY{X: float64(x), Y: float64(y)}
	e.arrowStart = &p

	id, ok := e.drawables.HitTest(p)
	e.selected, e.hasSelection = id, ok
	if ok {
		e.log.Debug().Uint("marker", id).Msg("marker selected")
	}
	return id, ok
}

// EndArrow commits the latched start and the release point as one arrow
// row when the drag is longer than the noise floor. The provisional start
// is cleared regardless of outcome; releases without a latched start are
// ignored. Returns true when a row was appended.
func (e *Engine) EndArrow(x, y int) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := e.arrowStart
	e.arrowStart = nil
	if start == nil {
		return false, nil
	}

	head := geom.XY{X: float64(x), Y: float64(y)}
	if geo.EuclideanDistance(*start, head) <= minDragDistance {
		return false, nil
	}

	cur := e.sessions.Current()
	if cur == nil {
		return false, ErrNoSession
	}
	row, err := e.backend.AppendArrow(cur.Frame(), *start, head, e.colorTag)
	if err != nil {
		return false, fmt.Errorf("append arrow row: %w", err)
	}

	id := e.allocID()
	e.correlation.Set(id, row)
	e.drawables.AddArrow(id, *start, head)
	e.stream.Send(directive.NewDrawArrow(id, *start, head, model.ArrowFill))

	e.log.Debug().
		Uint("marker", id).
		Int("row", row).
		Float64("startX", start.X).
		Float64("startY", start.Y).
		Float64("headX", head.X).
		Float64("headY", head.Y).
		Msg("arrow recorded")
	return true, nil
}

// RemoveSelected deletes the selected marker. A correlated arrow loses
// its table row and every correlation entry past the removed row index
// shifts down by one; an uncorrelated marker is removed from the
// presentation only. Any pending fade for the marker is canceled and the
// selection is cleared.
func (e *Engine) RemoveSelected() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hasSelection {
		return ErrNoSelection
	}
	id := e.selected
	e.selected, e.hasSelection = 0, false

	if row, ok := e.correlation.Get(id); ok {
		if err := e.backend.RemoveArrowRow(row); err != nil {
			return fmt.Errorf("remove arrow row %d: %w", row, err)
		}
		e.correlation.RemoveRow(id)
		e.log.Debug().Uint("marker", id).Int("row", row).Msg("arrow row removed")
	} else {
		e.log.Debug().Uint("marker", id).Msg("drawable removed without table row")
	}

	e.dropDrawableLocked(id)
	return nil
}

// RotateSelected swings the selected arrow's head one degree around its
// fixed start point and overwrites the row's head columns. Only a
// correlated arrow can rotate.
func (e *Engine) RotateSelected(dir Rotation) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hasSelection {
		return ErrNoSelection
	}
	row, ok := e.correlation.Get(e.selected)
	if !ok {
		return ErrInvalidRotationTarget
	}

	start, head, err := e.backend.ArrowEndpoints(row)
	if err != nil {
		return fmt.Errorf("arrow endpoints for row %d: %w", row, err)
	}
	head = geo.RotateAbout(head, start, float64(dir)*rotateStepDegrees)
	if err := e.backend.SetArrowHead(row, head); err != nil {
		return fmt.Errorf("set arrow head for row %d: %w", row, err)
	}

	e.drawables.SetArrow(e.selected, start, head)
	e.stream.Send(directive.NewUpdateArrow(e.selected, start, head))
	return nil
}

// SetColorTag sets the color recorded by subsequent RecordPoint and
// EndArrow calls. Unknown tags leave the current tag unchanged.
func (e *Engine) SetColorTag(tag string) error {
	if _, ok := model.PaletteFill(tag); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColorTag, tag)
	}

	e.mu.Lock()
	e.colorTag = tag
	e.mu.Unlock()

	e.log.Debug().Str("color", tag).Msg("color tag set")
	return nil
}

// ColorTag returns the active color tag.
func (e *Engine) ColorTag() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.colorTag
}

// AdvanceFrame bumps the active session's frame counter after a
// successful decode and returns the new frame index.
func (e *Engine) AdvanceFrame() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.sessions.Current()
	if cur == nil {
		return 0, ErrNoSession
	}
	return cur.AdvanceFrame(), nil
}

// OpenSession starts a fresh session: empty tables, frame counter at
// zero, all transient annotation state dropped. Reopening an existing
// name discards its previous tables. Live drawables are withdrawn from
// the renderer before the reset.
func (e *Engine) OpenSession(name string, width, height int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.backend.StartSession(name); err != nil {
		return fmt.Errorf("start session %q: %w", name, err)
	}

	for id, task := range e.fades {
		task.Cancel()
		delete(e.fades, id)
	}
	for _, id := range e.drawables.IDs() {
		e.stream.Send(directive.NewRemoveDrawable(id))
	}
	e.drawables.Reset()
	e.correlation.Reset()
	e.arrowStart = nil
	e.selected, e.hasSelection = 0, false

	e.sessions.SetCurrent(session.New(name, width, height))

	e.log.Info().
		Str("session", name).
		Int("width", width).
		Int("height", height).
		Msg("session opened")
	return nil
}

// Status is a point-in-time snapshot for the status monitor.
type Status struct {
	Session   string
	Frame     int
	Points    int
	Arrows    int
	Drawables int
	Selected  bool
}

// Status reports the engine state without mutating it.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{
		Drawables: e.drawables.Len(),
		Selected:  e.hasSelection,
	}
	if cur := e.sessions.Current(); cur != nil {
		st.Session = cur.Name()
		st.Frame = cur.Frame()
	}
	st.Points, st.Arrows = e.backend.RowCounts()
	return st
}

// Selection returns the selected marker id, if any.
func (e *Engine) Selection() (uint, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected, e.hasSelection
}

// allocID hands out marker object ids. Zero is never allocated so it can
// mean "no selection". Caller holds e.mu.
func (e *Engine) allocID() uint {
	e.nextID++
	return e.nextID
}

// dropDrawableLocked cancels any pending fade, discards the registry
// entry, and tells the renderer to remove the drawable. Caller holds e.mu.
func (e *Engine) dropDrawableLocked(id uint) {
	if task, ok := e.fades[id]; ok {
		task.Cancel()
		delete(e.fades, id)
	}
	e.drawables.Remove(id)
	if e.hasSelection && e.selected == id {
		e.selected, e.hasSelection = 0, false
	}
	e.stream.Send(directive.NewRemoveDrawable(id))
}
