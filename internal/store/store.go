// Package store defines the annotation store contract. Backends keep the
// column-oriented points and arrows tables per session and serialize them
// on export.
package store

import "github.com/peterstace/simplefeatures/geom"

// Backend is the interface all annotation store implementations must satisfy.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management. Starting a session that already exists discards
	// its previous tables.
	StartSession(name string) error

	// Point rows
	AppendPoint(frameIndex, x, y int, colorTag string) error

	// Arrow rows. AppendArrow returns the index of the new row so callers
	// can correlate it with a drawable.
	AppendArrow(frameIndex int, start, head geom.XY, colorTag string) (int, error)
	RemoveArrowRow(row int) error
	SetArrowHead(row int, head geom.XY) error
	ArrowEndpoints(row int) (start, head geom.XY, err error)

	// RowCounts reports the table sizes of the active session.
	RowCounts() (points, arrows int)

	// Export serializes every session to the configured output.
	Export() error
}

// Exported is an optional interface for backends that write their export
// to a file.
type Exported interface {
	GetExportedFilePath() string
}
