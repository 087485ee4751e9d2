package parser

// PointerEvent is a parsed pointer event in canvas pixels.
type PointerEvent struct {
	X int
	Y int
}

// KeyEvent is a parsed key press. Symbol is one of the accepted key
// symbols (Up, Down, BackSpace).
type KeyEvent struct {
	Symbol string
}

// ColorEvent is a parsed palette selection. The tag is not validated
// against the palette here; the engine owns that check.
type ColorEvent struct {
	Tag string
}

// OpenEvent is a parsed source-open request.
type OpenEvent struct {
	Path string
}
