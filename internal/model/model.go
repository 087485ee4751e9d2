// Package model defines the column-oriented annotation tables and the color
// palette. Each table keeps one slice per attribute; row i across all
// columns describes one logical annotation event, and every column has the
// same length at all times.
package model

import geom "github.com/peterstace/simplefeatures/geom"

// PointsTable is the log of point annotations for one session.
type PointsTable struct {
	FrameIndex []int    `json:"frame_index"`
	X          []int    `json:"x"`
	Y          []int    `json:"y"`
	ColorTag   []string `json:"color_tag"`
}

// NewPointsTable creates an empty points table. Columns are allocated so
// that empty tables serialize as empty arrays rather than null.
func NewPointsTable() *PointsTable {
	return &PointsTable{
		FrameIndex: make([]int, 0),
		X:          make([]int, 0),
		Y:          make([]int, 0),
		ColorTag:   make([]string, 0),
	}
}

// Append adds one row across all columns.
func (t *PointsTable) Append(frameIndex, x, y int, colorTag string) {
	t.FrameIndex = append(t.FrameIndex, frameIndex)
	t.X = append(t.X, x)
	t.Y = append(t.Y, y)
	t.ColorTag = append(t.ColorTag, colorTag)
}

// Len returns the row count.
func (t *PointsTable) Len() int {
	return len(t.FrameIndex)
}

// ArrowsTable is the log of arrow annotations for one session. Coordinates
// are float64 because rotation produces non-integral positions.
type ArrowsTable struct {
	FrameIndex []int     `json:"frame_index"`
	StartX     []float64 `json:"start_x"`
	StartY     []float64 `json:"start_y"`
	HeadX      []float64 `json:"head_x"`
	HeadY      []float64 `json:"head_y"`
	ColorTag   []string  `json:"color_tag"`
}

// NewArrowsTable creates an empty arrows table.
func NewArrowsTable() *ArrowsTable {
	return &ArrowsTable{
		FrameIndex: make([]int, 0),
		StartX:     make([]float64, 0),
		StartY:     make([]float64, 0),
		HeadX:      make([]float64, 0),
		HeadY:      make([]float64, 0),
		ColorTag:   make([]string, 0),
	}
}

// Append adds one row across all columns and returns its index.
func (t *ArrowsTable) Append(frameIndex int, start, head geom.XY, colorTag string) int {
	t.FrameIndex = append(t.FrameIndex, frameIndex)
	t.StartX = append(t.StartX, start.X)
	t.StartY = append(t.StartY, start.Y)
	t.HeadX = append(t.HeadX, head.X)
	t.HeadY = append(t.HeadY, head.Y)
	t.ColorTag = append(t.ColorTag, colorTag)
	return len(t.FrameIndex) - 1
}

// Len returns the row count.
func (t *ArrowsTable) Len() int {
	return len(t.FrameIndex)
}

// Endpoints returns the start and head of row i.
func (t *ArrowsTable) Endpoints(i int) (start, head geom.XY, ok bool) {
	if i < 0 || i >= t.Len() {
		return geom.XY{}, geom.XY{}, false
	}
	start = geom.XY{X: t.StartX[i], Y: t.StartY[i]}
	head = geom.XY{X: t.HeadX[i], Y: t.HeadY[i]}
	return start, head, true
}

// SetHead overwrites the head coordinates of row i. The start point is
// never touched; rotation orbits the head around a fixed start.
func (t *ArrowsTable) SetHead(i int, head geom.XY) bool {
	if i < 0 || i >= t.Len() {
		return false
	}
	t.HeadX[i] = head.X
	t.HeadY[i] = head.Y
	return true
}

// RemoveRow deletes row i from every column, shifting later rows down by
// one. Out-of-range indices are ignored.
func (t *ArrowsTable) RemoveRow(i int) bool {
	if i < 0 || i >= t.Len() {
		return false
	}
	t.FrameIndex = append(t.FrameIndex[:i], t.FrameIndex[i+1:]...)
	t.StartX = append(t.StartX[:i], t.StartX[i+1:]...)
	t.StartY = append(t.StartY[:i], t.StartY[i+1:]...)
	t.HeadX = append(t.HeadX[:i], t.HeadX[i+1:]...)
	t.HeadY = append(t.HeadY[:i], t.HeadY[i+1:]...)
	t.ColorTag = append(t.ColorTag[:i], t.ColorTag[i+1:]...)
	return true
}
