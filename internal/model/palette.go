package model

// Canvas fill constants shared with the presentation layer.
const (
	// DefaultColorTag is the tag active before the operator picks one.
	DefaultColorTag = "blue"

	// ArrowFill is the line color for arrow drawables. Arrows always render
	// in this color; the logged color_tag is the operator's selection.
	ArrowFill = "yellow"

	// BackgroundFill is the canvas background color, exported for renderers.
	BackgroundFill = "#3E4149"
)

// PaletteFill resolves a selectable color tag to its canvas fill value.
func PaletteFill(tag string) (string, bool) {
	switch tag {
	case "blue":
		return "#749CE2", true
	case "pink":
		return "#E274CF", true
	case "green":
		return "#8CE274", true
	default:
		return "", false
	}
}

// ColorTags lists the selectable tags in a stable order.
func ColorTags() []string {
	return []string{"blue", "green", "pink"}
}
