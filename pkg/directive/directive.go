// Package directive defines the renderer-facing instructions emitted by the
// annotation engine. Each directive is written to the presentation layer as
// one JSON line on stdout.
package directive

import (
	"encoding/json"

	geom "github.com/peterstace/simplefeatures/geom"
)

// Directive type constants matching the renderer protocol.
const (
	TypeShowCircle     = "show_circle"
	TypeDrawArrow      = "draw_arrow"
	TypeUpdateDrawable = "update_drawable"
	TypeRemoveDrawable = "remove_drawable"
)

// Envelope wraps all directives sent over the directive stream.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ShowCirclePayload asks the renderer to display a fading circle marker.
// The engine follows up with update_drawable directives as the radius
// shrinks and a remove_drawable directive once it reaches zero.
type ShowCirclePayload struct {
	ID     uint    `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Fill   string  `json:"fill"`
}

// DrawArrowPayload asks the renderer to draw a directional line with the
// arrowhead glyph at the head point.
type DrawArrowPayload struct {
	ID     uint    `json:"id"`
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
	HeadX  float64 `json:"headX"`
	HeadY  float64 `json:"headY"`
	Fill   string  `json:"fill"`
}

// UpdateDrawablePayload carries replacement geometry for a live drawable.
// Coords is positional: [x, y, radius] for circles and
// [startX, startY, headX, headY] for arrows.
type UpdateDrawablePayload struct {
	ID     uint      `json:"id"`
	Coords []float64 `json:"coords"`
}

// RemoveDrawablePayload asks the renderer to discard a drawable.
type RemoveDrawablePayload struct {
	ID uint `json:"id"`
}

// NewShowCircle builds a show_circle directive centered on the click point.
func NewShowCircle(id uint, center geom.XY, radius float64, fill string) Envelope {
	return wrap(TypeShowCircle, ShowCirclePayload{
		ID:     id,
		X:      center.X,
		Y:      center.Y,
		Radius: radius,
		Fill:   fill,
	})
}

// NewDrawArrow builds a draw_arrow directive from the press point to the
// release point.
func NewDrawArrow(id uint, start, head geom.XY, fill string) Envelope {
	return wrap(TypeDrawArrow, DrawArrowPayload{
		ID:     id,
		StartX: start.X,
		StartY: start.Y,
		HeadX:  head.X,
		HeadY:  head.Y,
		Fill:   fill,
	})
}

// NewUpdateCircle builds an update_drawable directive with circle geometry.
func NewUpdateCircle(id uint, center geom.XY, radius float64) Envelope {
	return wrap(TypeUpdateDrawable, UpdateDrawablePayload{
		ID:     id,
		Coords: []float64{center.X, center.Y, radius},
	})
}

// NewUpdateArrow builds an update_drawable directive with arrow endpoints.
func NewUpdateArrow(id uint, start, head geom.XY) Envelope {
	return wrap(TypeUpdateDrawable, UpdateDrawablePayload{
		ID:     id,
		Coords: []float64{start.X, start.Y, head.X, head.Y},
	})
}

// NewRemoveDrawable builds a remove_drawable directive.
func NewRemoveDrawable(id uint) Envelope {
	return wrap(TypeRemoveDrawable, RemoveDrawablePayload{ID: id})
}

func wrap(typ string, payload any) Envelope {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = json.RawMessage(`{}`)
	}
	return Envelope{Type: typ, Payload: raw}
}
