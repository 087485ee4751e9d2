package memory

import (
	"errors"
	"sync"
	"testing"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/framemark/framemark/internal/config"
)

func TestNew(t *testing.T) {
	cfg := config.MemoryConfig{
		OutputDir:      "/tmp/test",
		CompressOutput: true,
	}
	b := New(cfg)

	if b == nil {
		t.Fatal("New returned nil")
	}
	if b.cfg.OutputDir != "/tmp/test" {
		t.Errorf("expected OutputDir=/tmp/test, got %s", b.cfg.OutputDir)
	}
	if !b.cfg.CompressOutput {
		t.Error("expected CompressOutput=true")
	}
	if b.sessions == nil {
		t.Error("sessions map not initialized")
	}
}

func TestInitAndClose(t *testing.T) {
	b := New(config.MemoryConfig{})

	if err := b.Init(); err != nil {
		t.Errorf("Init failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestStartSession(t *testing.T) {
	b := New(config.MemoryConfig{})

	if err := b.StartSession("clip1"); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	if b.current != "clip1" {
		t.Errorf("expected current=clip1, got %s", b.current)
	}
	record := b.sessions["clip1"]
	if record == nil {
		t.Fatal("session record not created")
	}
	if record.Points.Len() != 0 || record.Arrows.Len() != 0 {
		t.Error("new session should start with empty tables")
	}
}

func TestStartSession_ReplacesExisting(t *testing.T) {
	b := New(config.MemoryConfig{})

	_ = b.StartSession("clip1")
	_ = b.AppendPoint(3, 10, 20, "blue")
	if _, err := b.AppendArrow(4, geom.XY{X: 1, Y: 1}, geom.XY{X: 50, Y: 50}, "blue"); err != nil {
		t.Fatalf("AppendArrow failed: %v", err)
	}

	// Reopening the same name discards the previous tables entirely.
	if err := b.StartSession("clip1"); err != nil {
		t.Fatalf("second StartSession failed: %v", err)
	}

	points, arrows := b.RowCounts()
	if points != 0 || arrows != 0 {
		t.Errorf("expected empty tables after reopen, got points=%d arrows=%d", points, arrows)
	}
}

func TestAppendPoint(t *testing.T) {
	b := New(config.MemoryConfig{})
	_ = b.StartSession("clip")

	if err := b.AppendPoint(7, 120, 90, "blue"); err != nil {
		t.Fatalf("AppendPoint failed: %v", err)
	}
	if err := b.AppendPoint(9, 200, 150, "pink"); err != nil {
		t.Fatalf("AppendPoint failed: %v", err)
	}

	points := b.sessions["clip"].Points
	if points.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", points.Len())
	}
	if points.FrameIndex[0] != 7 || points.X[0] != 120 || points.Y[0] != 90 || points.ColorTag[0] != "blue" {
		t.Errorf("row 0 stored wrong: %d %d %d %s",
			points.FrameIndex[0], points.X[0], points.Y[0], points.ColorTag[0])
	}
	if points.FrameIndex[1] != 9 || points.ColorTag[1] != "pink" {
		t.Errorf("row 1 stored wrong: %d %s", points.FrameIndex[1], points.ColorTag[1])
	}
}

func TestAppendArrow_ReturnsRowIndex(t *testing.T) {
	b := New(config.MemoryConfig{})
	_ = b.StartSession("clip")

	for i := 0; i < 3; i++ {
		row, err := b.AppendArrow(i, geom.XY{X: float64(i)}, geom.XY{X: float64(i + 100)}, "blue")
		if err != nil {
			t.Fatalf("AppendArrow failed: %v", err)
		}
		if row != i {
			t.Errorf("expected row %d, got %d", i, row)
		}
	}

	arrows := b.sessions["clip"].Arrows
	if arrows.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", arrows.Len())
	}
	if arrows.StartX[2] != 2 || arrows.HeadX[2] != 102 {
		t.Errorf("row 2 endpoints stored wrong: start %v head %v", arrows.StartX[2], arrows.HeadX[2])
	}
}

func TestRemoveArrowRow_ShiftsLaterRows(t *testing.T) {
	b := New(config.MemoryConfig{})
	_ = b.StartSession("clip")

	for i := 0; i < 3; i++ {
		_, _ = b.AppendArrow(i, geom.XY{X: float64(i * 10)}, geom.XY{X: float64(i*10 + 100)}, "blue")
	}

	if err := b.RemoveArrowRow(1); err != nil {
		t.Fatalf("RemoveArrowRow failed: %v", err)
	}

	arrows := b.sessions["clip"].Arrows
	if arrows.Len() != 2 {
		t.Fatalf("expected 2 rows after removal, got %d", arrows.Len())
	}
	// Row 2 shifted into slot 1.
	if arrows.FrameIndex[1] != 2 || arrows.StartX[1] != 20 {
		t.Errorf("later row did not shift down: frame %d start %v", arrows.FrameIndex[1], arrows.StartX[1])
	}

	if err := b.RemoveArrowRow(5); err == nil {
		t.Error("expected error for out-of-range row")
	}
}

func TestSetArrowHead(t *testing.T) {
	b := New(config.MemoryConfig{})
	_ = b.StartSession("clip")
	_, _ = b.AppendArrow(0, geom.XY{X: 10, Y: 10}, geom.XY{X: 40, Y: 40}, "blue")

	if err := b.SetArrowHead(0, geom.XY{X: 41.5, Y: 39.2}); err != nil {
		t.Fatalf("SetArrowHead failed: %v", err)
	}

	start, head, err := b.ArrowEndpoints(0)
	if err != nil {
		t.Fatalf("ArrowEndpoints failed: %v", err)
	}
	if start.X != 10 || start.Y != 10 {
		t.Errorf("start must stay fixed, got %v", start)
	}
	if head.X != 41.5 || head.Y != 39.2 {
		t.Errorf("head not updated, got %v", head)
	}

	if err := b.SetArrowHead(3, geom.XY{}); err == nil {
		t.Error("expected error for out-of-range row")
	}
}

func TestArrowEndpoints_OutOfRange(t *testing.T) {
	b := New(config.MemoryConfig{})
	_ = b.StartSession("clip")

	if _, _, err := b.ArrowEndpoints(0); err == nil {
		t.Error("expected error for empty table")
	}
}

func TestNoActiveSession(t *testing.T) {
	b := New(config.MemoryConfig{})

	if err := b.AppendPoint(0, 1, 2, "blue"); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("AppendPoint: expected ErrNoActiveSession, got %v", err)
	}
	if _, err := b.AppendArrow(0, geom.XY{}, geom.XY{}, "blue"); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("AppendArrow: expected ErrNoActiveSession, got %v", err)
	}
	if err := b.RemoveArrowRow(0); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("RemoveArrowRow: expected ErrNoActiveSession, got %v", err)
	}
	if err := b.SetArrowHead(0, geom.XY{}); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("SetArrowHead: expected ErrNoActiveSession, got %v", err)
	}
	if _, _, err := b.ArrowEndpoints(0); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("ArrowEndpoints: expected ErrNoActiveSession, got %v", err)
	}

	points, arrows := b.RowCounts()
	if points != 0 || arrows != 0 {
		t.Errorf("RowCounts without session should be zero, got %d %d", points, arrows)
	}
}

func TestSessionsIsolated(t *testing.T) {
	b := New(config.MemoryConfig{})

	_ = b.StartSession("first")
	_ = b.AppendPoint(1, 10, 10, "blue")

	_ = b.StartSession("second")
	_ = b.AppendPoint(2, 20, 20, "pink")
	_ = b.AppendPoint(3, 30, 30, "pink")

	if got := b.sessions["first"].Points.Len(); got != 1 {
		t.Errorf("first session should keep its single row, got %d", got)
	}
	if got := b.sessions["second"].Points.Len(); got != 2 {
		t.Errorf("second session should have 2 rows, got %d", got)
	}

	points, _ := b.RowCounts()
	if points != 2 {
		t.Errorf("RowCounts should track the current session, got %d", points)
	}
}

func TestConcurrentAccess(t *testing.T) {
	b := New(config.MemoryConfig{})
	_ = b.StartSession("clip")

	var wg sync.WaitGroup
	numGoroutines := 10
	numOperationsPerGoroutine := 100

	// Concurrent writes
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOperationsPerGoroutine; j++ {
				_ = b.AppendPoint(id, j, j, "blue")
			}
		}(i)
	}

	// Concurrent reads
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numOperationsPerGoroutine; j++ {
				_, _ = b.RowCounts()
			}
		}()
	}

	wg.Wait()

	points, _ := b.RowCounts()
	expected := numGoroutines * numOperationsPerGoroutine
	if points != expected {
		t.Errorf("expected %d points, got %d", expected, points)
	}
}

func TestGetExportedFilePath(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()})

	if got := b.GetExportedFilePath(); got != "" {
		t.Errorf("expected empty path before export, got %s", got)
	}

	_ = b.StartSession("clip")
	if err := b.Export(); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	if got := b.GetExportedFilePath(); got == "" {
		t.Error("expected path to be recorded after export")
	}
}
