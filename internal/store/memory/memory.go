// Package memory keeps annotation tables in process memory and exports
// them to a JSON file on demand.
package memory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/framemark/framemark/internal/config"
	"github.com/framemark/framemark/internal/model"
)

// ErrNoActiveSession is returned when rows are appended before any
// session has been started.
var ErrNoActiveSession = errors.New("no active session")

// sessionRecord groups the two annotation tables of one clip session.
type sessionRecord struct {
	Points *model.PointsTable
	Arrows *model.ArrowsTable
}

// Backend stores annotation tables in memory and exports them to JSON.
type Backend struct {
	cfg config.MemoryConfig

	sessions map[string]*sessionRecord // keyed by session name
	current  string

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend.
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:      cfg,
		sessions: make(map[string]*sessionRecord),
	}
}

// Init initializes the backend.
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources.
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording under the given name. A session that
// already exists is replaced with fresh tables.
func (b *Backend) StartSession(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sessions[name] = &sessionRecord{
		Points: model.NewPointsTable(),
		Arrows: model.NewArrowsTable(),
	}
	b.current = name
	return nil
}

// AppendPoint adds a point row to the active session.
func (b *Backend) AppendPoint(frameIndex, x, y int, colorTag string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, err := b.currentRecord()
	if err != nil {
		return err
	}
	record.Points.Append(frameIndex, x, y, colorTag)
	return nil
}

// AppendArrow adds an arrow row to the active session and returns its
// row index.
func (b *Backend) AppendArrow(frameIndex int, start, head geom.XY, colorTag string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, err := b.currentRecord()
	if err != nil {
		return 0, err
	}
	return record.Arrows.Append(frameIndex, start, head, colorTag), nil
}

// RemoveArrowRow deletes an arrow row; rows after it shift down by one.
func (b *Backend) RemoveArrowRow(row int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, err := b.currentRecord()
	if err != nil {
		return err
	}
	if !record.Arrows.RemoveRow(row) {
		return fmt.Errorf("arrow row %d out of range", row)
	}
	return nil
}

// SetArrowHead replaces the head coordinates of an arrow row.
func (b *Backend) SetArrowHead(row int, head geom.XY) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, err := b.currentRecord()
	if err != nil {
		return err
	}
	if !record.Arrows.SetHead(row, head) {
		return fmt.Errorf("arrow row %d out of range", row)
	}
	return nil
}

// ArrowEndpoints returns the start and head of an arrow row.
func (b *Backend) ArrowEndpoints(row int) (geom.XY, geom.XY, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	record, err := b.currentRecord()
	if err != nil {
		return geom.XY{}, geom.XY{}, err
	}
	start, head, ok := record.Arrows.Endpoints(row)
	if !ok {
		return geom.XY{}, geom.XY{}, fmt.Errorf("arrow row %d out of range", row)
	}
	return start, head, nil
}

// RowCounts reports the table sizes of the active session.
func (b *Backend) RowCounts() (int, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	record, err := b.currentRecord()
	if err != nil {
		return 0, 0
	}
	return record.Points.Len(), record.Arrows.Len()
}

// Export serializes every session to the configured output file.
func (b *Backend) Export() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.exportJSON()
}

// GetExportedFilePath returns the path of the most recent export.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.lastExportPath
}

// currentRecord returns the active session record. Callers must hold the
// lock.
func (b *Backend) currentRecord() (*sessionRecord, error) {
	if b.current == "" {
		return nil, ErrNoActiveSession
	}
	return b.sessions[b.current], nil
}
