// Package geo provides the pixel-space vector math behind annotations:
// coordinate parsing, drag distances, headings, and arrow-head rotation.
// All coordinates are canvas pixels with the y axis pointing down.
package geo

import (
	"errors"
	"math"
	"strconv"

	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// PixelFromStrings parses the textual x and y of an event argument list
// into a pixel coordinate. Presentation layers may serialize pixel
// positions as floats ("12.0"), so both forms are accepted.
func PixelFromStrings(xs, ys string) (geom.XY, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return geom.XY{}, ErrInvalidCoordinates
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return geom.XY{}, ErrInvalidCoordinates
	}
	return geom.XY{X: x, Y: y}, nil
}

// EuclideanDistance returns the straight-line distance between two pixels.
func EuclideanDistance(a, b geom.XY) float64 {
	return b.Sub(a).Length()
}

// Heading returns the angle of the from->to vector against the positive
// x axis, in radians.
func Heading(from, to geom.XY) float64 {
	d := to.Sub(from)
	return math.Atan2(d.Y, d.X)
}

// RotateAbout swings p around origin by deltaDegrees at constant radius
// and returns the new position. A zero-length vector stays at the origin.
func RotateAbout(p, origin geom.XY, deltaDegrees float64) geom.XY {
	radius := EuclideanDistance(origin, p)
	theta := Heading(origin, p) + deltaDegrees*math.Pi/180
	return geom.XY{
		X: origin.X + radius*math.Cos(theta),
		Y: origin.Y + radius*math.Sin(theta),
	}
}
