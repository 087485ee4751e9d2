package engine

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framemark/framemark/internal/channel"
	"github.com/framemark/framemark/internal/config"
	"github.com/framemark/framemark/internal/geo"
	"github.com/framemark/framemark/internal/model"
	"github.com/framemark/framemark/internal/schedule"
	"github.com/framemark/framemark/internal/session"
	"github.com/framemark/framemark/internal/store"
	"github.com/framemark/framemark/pkg/directive"
)

// fakeBackend records rows in plain column tables so tests can inspect
// exactly what the engine wrote.
type fakeBackend struct {
	session string
	starts  int
	points  *model.PointsTable
	arrows  *model.ArrowsTable
}

var _ store.Backend = (*fakeBackend)(nil)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		points: model.NewPointsTable(),
		arrows: model.NewArrowsTable(),
	}
}

func (f *fakeBackend) Init() error  { return nil }
func (f *fakeBackend) Close() error { return nil }

func (f *fakeBackend) StartSession(name string) error {
	f.session = name
	f.starts++
	f.points = model.NewPointsTable()
	f.arrows = model.NewArrowsTable()
	return nil
}

func (f *fakeBackend) AppendPoint(frameIndex, x, y int, colorTag string) error {
	f.points.Append(frameIndex, x, y, colorTag)
	return nil
}

func (f *fakeBackend) AppendArrow(frameIndex int, start, head geom.XY, colorTag string) (int, error) {
	return f.arrows.Append(frameIndex, start, head, colorTag), nil
}

func (f *fakeBackend) RemoveArrowRow(row int) error {
	if !f.arrows.RemoveRow(row) {
		return fmt.Errorf("arrow row %d out of range", row)
	}
	return nil
}

func (f *fakeBackend) SetArrowHead(row int, head geom.XY) error {
	if !f.arrows.SetHead(row, head) {
		return fmt.Errorf("arrow row %d out of range", row)
	}
	return nil
}

func (f *fakeBackend) ArrowEndpoints(row int) (geom.XY, geom.XY, error) {
	start, head, ok := f.arrows.Endpoints(row)
	if !ok {
		return geom.XY{}, geom.XY{}, fmt.Errorf("arrow row %d out of range", row)
	}
	return start, head, nil
}

func (f *fakeBackend) RowCounts() (int, int) {
	return f.points.Len(), f.arrows.Len()
}

func (f *fakeBackend) Export() error { return nil }

func newTestEngine(t *testing.T) (*Engine, *fakeBackend, channel.Channel[directive.Envelope]) {
	t.Helper()
	backend := newFakeBackend()
	stream := channel.New[directive.Envelope](256)
	e := New(Dependencies{
		Backend:    backend,
		Sessions:   session.NewContext(),
		Scheduler:  schedule.New(),
		Stream:     stream,
		Logger:     zerolog.Nop(),
		Playback:   config.PlaybackConfig{FadeInterval: 100 * time.Millisecond},
		Annotation: config.AnnotationConfig{DefaultColorTag: "blue"},
	})
	return e, backend, stream
}

// drain empties the directive stream without blocking.
func drain(ch channel.Channel[directive.Envelope]) []directive.Envelope {
	out := make([]directive.Envelope, 0, 8)
	for {
		select {
		case env := <-ch.Receive():
			out = append(out, env)
		default:
			return out
		}
	}
}

func decodePayload[T any](t *testing.T, env directive.Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Payload, &v))
	return v
}

func columnsEqual(t *testing.T, pts *model.PointsTable) {
	t.Helper()
	n := len(pts.FrameIndex)
	assert.Len(t, pts.X, n)
	assert.Len(t, pts.Y, n)
	assert.Len(t, pts.ColorTag, n)
}

func TestRecordPoint_AppendsRowAndLatchesStart(t *testing.T) {
	e, backend, stream := newTestEngine(t)
	require.NoError(t, e.OpenSession("clip", 640, 480))

	for i := 0; i < 3; i++ {
		require.NoError(t, e.RecordPoint(10*i, 20*i))
		columnsEqual(t, backend.points)
	}

	assert.Equal(t, 3, backend.points.Len())
	assert.Equal(t, []int{0, 10, 20}, backend.points.X)
	assert.Equal(t, []int{0, 20, 40}, backend.points.Y)

	require.NotNil(t, e.arrowStart)
	assert.Equal(t, geom.XY{X: 20, Y: 40}, *e.arrowStart)

	shows := 0
	for _, env := range drain(stream) {
		if env.Type == directive.TypeShowCircle {
			shows++
		}
	}
	assert.Equal(t, 3, shows)
}

func TestRecordPoint_StampsCurrentFrame(t *testing.T) {
	e, backend, _ := newTestEngine(t)
	require.NoError(t, e.OpenSession("clip", 640, 480))

	for i := 0; i < 3; i++ {
		_, err := e.AdvanceFrame()
		require.NoError(t, err)
	}
	require.NoError(t, e.RecordPoint(5, 5))

	assert.Equal(t, []int{3}, backend.points.FrameIndex)
}

func TestRecordPoint_NoSession(t *testing.T) {
	e, backend, _ := newTestEngine(t)

	err := e.RecordPoint(1, 2)

	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, 0, backend.points.Len())
}

func TestEndArrow_CommitsRow(t *testing.T) {
	e, backend, stream := newTestEngine(t)
	require.NoError(t, e.OpenSession("clip1", 640, 480))
	for i := 0; i < 3; i++ {
		_, err := e.AdvanceFrame()
		require.NoError(t, err)
	}

	e.BeginArrow(10, 10)
	appended, err := e.EndArrow(40, 40)

	require.NoError(t, err)
	assert.True(t, appended)
	require.Equal(t, 1, backend.arrows.Len())
	assert.Equal(t, []int{3}, backend.arrows.FrameIndex)
	assert.Equal(t, []float64{10}, backend.arrows.StartX)
	assert.Equal(t, []float64{10}, backend.arrows.StartY)
	assert.Equal(t, []float64{40}, backend.arrows.HeadX)
	assert.Equal(t, []float64{40}, backend.arrows.HeadY)

	assert.Equal(t, 1, e.correlation.Len())
	assert.Nil(t, e.arrowStart, "provisional start must clear after release")

	var draw directive.Envelope
	found := false
	for _, env := range drain(stream) {
		if env.Type == directive.TypeDrawArrow {
			draw = env
			found = true
		}
	}
	require.True(t, found, "draw_arrow directive must be emitted")
	payload := decodePayload[directive.DrawArrowPayload](t, draw)
	assert.Equal(t, model.ArrowFill, payload.Fill)
	assert.Equal(t, 40.0, payload.HeadX)
	assert.Equal(t, 40.0, payload.HeadY)
}

func TestEndArrow_NoiseFloorDiscards(t *testing.T) {
	e, backend, _ := newTestEngine(t)
	require.NoError(t, e.OpenSession("clip", 640, 480))

	// Exactly at the floor: 20px is still noise.
	e.BeginArrow(0, 0)
	appended, err := e.EndArrow(20, 0)
	require.NoError(t, err)
	assert.False(t, appended)
	assert.Equal(t, 0, backend.arrows.Len())
	assert.Equal(t, 0, e.correlation.Len())
	assert.Nil(t, e.arrowStart, "provisional start must clear even when discarded")

	// One pixel past the floor commits.
	e.BeginArrow(0, 0)
	appended, err = e.EndArrow(21, 0)
	require.NoError(t, err)
	assert.True(t, appended)
	assert.Equal(t, 1, backend.arrows.Len())
}

func TestEndArrow_WithoutPressIgnored(t *testing.T) {
	e, backend, _ := newTestEngine(t)
	require.NoError(t, e.OpenSession("clip", 640, 480))

	appended, err := e.EndArrow(100, 100)

	require.NoError(t, err)
	assert.False(t, appended)
	assert.Equal(t, 0, backend.arrows.Len())
}

func TestEndArrow_PointClickPrimesArrow(t *testing.T) {
	e, backend, _ := newTestEngine(t)
	require.NoError(t, e.OpenSession("clip", 640, 480))

	require.NoError(t, e.RecordPoint(5, 5))
	appended, err := e.EndArrow(50, 50)

	require.NoError(t, err)
	assert.True(t, appended)
	assert.Equal(t, []float64{5}, backend.arrows.StartX)
	assert.Equal(t, []float64{50}, backend.arrows.HeadX)
}

func TestRemoveSelected_NoSelection(t *testing.T) {
	e, _, _ := newTestEngine(t)
	require.NoError(t, e.OpenSession("clip", 640, 480))

	assert.ErrorIs(t, e.RemoveSelected(), ErrNoSelection)
}

func TestRemoveSelected_ShiftsCorrelation(t *testing.T) {
	e, backend, stream := newTestEngine(t)
	require.NoError(t, e.OpenSession("clip", 640, 480))

	// Three arrows in separate bands so hit tests cannot cross-match.
	coords := [][4]int{
		{0, 100, 60, 100},
		{0, 200, 60, 200},
		{0, 300, 60, 300},
	}
	ids := make([]uint, 0, 3)
	for _, c := range coords {
		e.BeginArrow(c[0], c[1])
		appended, err := e.EndArrow(c[2], c[3])
		require.NoError(t, err)
		require.True(t, appended)
		ids = append(ids, e.nextID)
	}
	drain(stream)

	// Select the middle arrow by pressing on its segment.
	selID, ok := e.BeginArrow(30, 200)
	require.True(t, ok)
	require.Equal(t, ids[1], selID)

	require.NoError(t, e.RemoveSelected())

	assert.Equal(t, 2, backend.arrows.Len())
	assert.Equal(t, []float64{100, 300}, backend.arrows.StartY)

	row0, ok := e.correlation.Get(ids[0])
	require.True(t, ok)
	assert.Equal(t, 0, row0, "rows below the removed index stay put")

	row2, ok := e.correlation.Get(ids[2])
	require.True(t, ok)
	assert.Equal(t, 1, row2, "rows above the removed index shift down")

	_, ok = e.correlation.Get(ids[1])
	assert.False(t, ok, "removed id loses its entry")

	_, selected := e.Selection()
	assert.False(t, selected)

	var removed []uint
	for _, env := range drain(stream) {
		if env.Type == directive.TypeRemoveDrawable {
			removed = append(removed, decodePayload[directive.RemoveDrawablePayload](t, env).ID)
		}
	}
	assert.Equal(t, []uint{ids[1]}, removed)
}

func TestRemoveSelected_UncorrelatedDropsPresentationOnly(t *testing.T) {
	e, backend, _ := newTestEngine(t)
	require.NoError(t, e.OpenSession("clip", 640, 480))

	require.NoError(t, e.RecordPoint(100, 100))
	_, ok := e.BeginArrow(100, 100)
	require.True(t, ok, "press inside the circle radius must select it")

	require.NoError(t, e.RemoveSelected())

	assert.Equal(t, 1, backend.points.Len(), "point rows are never removed")
	assert.Equal(t, 0, e.drawables.Len())
}

func TestRemoveSelected_CancelsPendingFade(t *testing.T) {
	e, _, stream := newTestEngine(t)
	require.NoError(t, e.OpenSession("clip", 640, 480))

	require.NoError(t, e.RecordPoint(100, 100))
	id := e.drawables.IDs()[0]
	task := e.fades[id]
	require.NotNil(t, task)

	_, ok := e.BeginArrow(100, 100)
	require.True(t, ok)
	require.NoError(t, e.RemoveSelected())

	assert.True(t, task.Canceled())
	assert.Empty(t, e.fades)
	assert.Equal(t, 0, e.drawables.Len())

	drain(stream)
	assert.False(t, e.fadeTick(id), "a canceled marker must not resurrect")
	assert.Empty(t, drain(stream))
}

func TestRotateSelected_HeadOrbitsFixedStart(t *testing.T) {
	e, backend, stream := newTestEngine(t)
	require.NoError(t, e.OpenSession("clip", 640, 480))

	e.BeginArrow(10, 10)
	appended, err := e.EndArrow(40, 40)
	require.NoError(t, err)
	require.True(t, appended)

	_, ok := e.BeginArrow(25, 25)
	require.True(t, ok)
	drain(stream)

	require.NoError(t, e.RotateSelected(RotateIncrease))

	start, head, err := backend.ArrowEndpoints(0)
	require.NoError(t, err)
	assert.Equal(t, geom.XY{X: 10, Y: 10}, start, "start point never moves")

	want := geo.RotateAbout(geom.XY{X: 40, Y: 40}, geom.XY{X: 10, Y: 10}, 1)
	assert.InDelta(t, want.X, head.X, 1e-9)
	assert.InDelta(t, want.Y, head.Y, 1e-9)

	envs := drain(stream)
	require.Len(t, envs, 1)
	require.Equal(t, directive.TypeUpdateDrawable, envs[0].Type)
	payload := decodePayload[directive.UpdateDrawablePayload](t, envs[0])
	require.Len(t, payload.Coords, 4)
	assert.Equal(t, 10.0, payload.Coords[0])
	assert.Equal(t, 10.0, payload.Coords[1])
}

func TestRotateSelected_InverseReturnsHead(t *testing.T) {
	e, backend, _ := newTestEngine(t)
	require.NoError(t, e.OpenSession("clip", 640, 480))

	e.BeginArrow(10, 10)
	_, err := e.EndArrow(40, 40)
	require.NoError(t, err)
	_, ok := e.BeginArrow(25, 25)
	require.True(t, ok)

	require.NoError(t, e.RotateSelected(RotateIncrease))
	require.NoError(t, e.RotateSelected(RotateDecrease))

	start, head, err := backend.ArrowEndpoints(0)
	require.NoError(t, err)
	assert.Equal(t, geom.XY{X: 10, Y: 10}, start)
	assert.InDelta(t, 40.0, head.X, 1e-9)
	assert.InDelta(t, 40.0, head.Y, 1e-9)
}

func TestRotateSelected_CircleIsInvalidTarget(t *testing.T) {
	e, _, _ := newTestEngine(t)
	require.NoError(t, e.OpenSession("clip", 640, 480))

	require.NoError(t, e.RecordPoint(100, 100))
	_, ok := e.BeginArrow(100, 100)
	require.True(t, ok)

	assert.ErrorIs(t, e.RotateSelected(RotateIncrease), ErrInvalidRotationTarget)
}

func TestRotateSelected_NoSelection(t *testing.T) {
	e, _, _ := newTestEngine(t)
	require.NoError(t, e.OpenSession("clip", 640, 480))

	assert.ErrorIs(t, e.RotateSelected(RotateDecrease), ErrNoSelection)
}

func TestSetColorTag(t *testing.T) {
	e, backend, _ := newTestEngine(t)
	require.NoError(t, e.OpenSession("clip", 640, 480))

	require.NoError(t, e.SetColorTag("pink"))
	require.NoError(t, e.RecordPoint(5, 5))

	assert.Equal(t, []string{"pink"}, backend.points.ColorTag)

	err := e.SetColorTag("mauve")
	assert.ErrorIs(t, err, ErrUnknownColorTag)
	assert.Equal(t, "pink", e.ColorTag(), "rejected tag leaves state unchanged")
}

func TestAdvanceFrame_NoSession(t *testing.T) {
	e, _, _ := newTestEngine(t)

	_, err := e.AdvanceFrame()

	assert.ErrorIs(t, err, ErrNoSession)
}

func TestOpenSession_ResetsTransientState(t *testing.T) {
	e, backend, stream := newTestEngine(t)
	require.NoError(t, e.OpenSession("first", 640, 480))

	require.NoError(t, e.RecordPoint(100, 100))
	e.BeginArrow(300, 300)
	appended, err := e.EndArrow(360, 300)
	require.NoError(t, err)
	require.True(t, appended)
	_, ok := e.BeginArrow(330, 300)
	require.True(t, ok)
	_, err = e.AdvanceFrame()
	require.NoError(t, err)
	liveIDs := e.drawables.IDs()
	drain(stream)

	require.NoError(t, e.OpenSession("second", 800, 600))

	assert.Equal(t, "second", backend.session)
	assert.Equal(t, 0, backend.points.Len())
	assert.Equal(t, 0, backend.arrows.Len())
	assert.Empty(t, e.fades)
	assert.Equal(t, 0, e.drawables.Len())
	assert.Equal(t, 0, e.correlation.Len())
	assert.Nil(t, e.arrowStart)
	_, selected := e.Selection()
	assert.False(t, selected)

	cur := e.sessions.Current()
	require.NotNil(t, cur)
	assert.Equal(t, "second", cur.Name())
	assert.Equal(t, 0, cur.Frame(), "frame counter restarts at zero")

	var removed []uint
	for _, env := range drain(stream) {
		if env.Type == directive.TypeRemoveDrawable {
			removed = append(removed, decodePayload[directive.RemoveDrawablePayload](t, env).ID)
		}
	}
	assert.ElementsMatch(t, liveIDs, removed, "stale drawables are withdrawn from the renderer")
}

func TestFade_ShrinksThenRemoves(t *testing.T) {
	e, _, stream := newTestEngine(t)
	require.NoError(t, e.OpenSession("clip", 640, 480))

	require.NoError(t, e.RecordPoint(50, 50))
	id := e.drawables.IDs()[0]
	drain(stream)

	ticks := 0
	for e.fadeTick(id) {
		ticks++
		require.Less(t, ticks, 32, "fade must terminate")
	}

	// Radius 8 at 0.5 per tick: 15 shrinking updates, then removal.
	assert.Equal(t, 15, ticks)
	assert.Equal(t, 0, e.drawables.Len())
	assert.Empty(t, e.fades)

	envs := drain(stream)
	updates, removes := 0, 0
	for _, env := range envs {
		switch env.Type {
		case directive.TypeUpdateDrawable:
			updates++
		case directive.TypeRemoveDrawable:
			removes++
		}
	}
	assert.Equal(t, 15, updates)
	assert.Equal(t, 1, removes)

	last := decodePayload[directive.UpdateDrawablePayload](t, envs[len(envs)-2])
	require.Len(t, last.Coords, 3)
	assert.InDelta(t, 0.5, last.Coords[2], 1e-9, "final visible radius before removal")
}

func TestStatus_Snapshot(t *testing.T) {
	e, _, _ := newTestEngine(t)

	st := e.Status()
	assert.Equal(t, "", st.Session)

	require.NoError(t, e.OpenSession("clip", 640, 480))
	require.NoError(t, e.RecordPoint(10, 10))
	e.BeginArrow(200, 200)
	_, err := e.EndArrow(260, 200)
	require.NoError(t, err)
	_, err = e.AdvanceFrame()
	require.NoError(t, err)

	st = e.Status()
	assert.Equal(t, "clip", st.Session)
	assert.Equal(t, 1, st.Frame)
	assert.Equal(t, 1, st.Points)
	assert.Equal(t, 1, st.Arrows)
	assert.Equal(t, 2, st.Drawables)
}

func TestNew_FallsBackToPaletteDefault(t *testing.T) {
	backend := newFakeBackend()
	e := New(Dependencies{
		Backend:    backend,
		Sessions:   session.NewContext(),
		Scheduler:  schedule.New(),
		Stream:     channel.New[directive.Envelope](16),
		Logger:     zerolog.Nop(),
		Annotation: config.AnnotationConfig{DefaultColorTag: "chartreuse"},
	})

	assert.Equal(t, model.DefaultColorTag, e.ColorTag())
	assert.Equal(t, defaultFadeInterval, e.fadeInterval)
}
