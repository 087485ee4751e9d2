package geo

import (
	geom "github.com/peterstace/simplefeatures/geom"
)

// Segment builds the line-string geometry of an arrow from its start and
// head points.
func Segment(start, head geom.XY) geom.LineString {
	seq := geom.NewSequence(
		[]float64{start.X, start.Y, head.X, head.Y},
		geom.DimXY,
	)
	return geom.NewLineString(seq)
}

// SegmentDistance computes the distance from p to the start-head segment.
// A zero-length segment degrades to plain point distance.
func SegmentDistance(p, start, head geom.XY) float64 {
	seg := Segment(start, head)
	pt := geom.NewPoint(geom.Coordinates{XY: p})

	dist, ok := geom.Distance(seg.AsGeometry(), pt.AsGeometry())
	if !ok {
		return EuclideanDistance(start, p)
	}
	return dist
}
