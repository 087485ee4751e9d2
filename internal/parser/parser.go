// Package parser converts raw event argument lists from the feed into
// typed events for the handler layer. Conversion is pure: no engine
// calls, no dispatch, only validation.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/framemark/framemark/internal/geo"
	"github.com/framemark/framemark/internal/util"
)

// Accepted key symbols, matching the keysym names presentation layers
// report for the annotation keys.
const (
	KeyUp        = "Up"
	KeyDown      = "Down"
	KeyBackSpace = "BackSpace"
)

var (
	// ErrWrongArgCount is returned when an event carries too few args.
	ErrWrongArgCount = errors.New("wrong argument count")
	// ErrUnknownKey is returned for key symbols outside the accepted set.
	ErrUnknownKey = errors.New("unknown key symbol")
)

// Parser provides pure []string -> typed event conversion.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger zerolog.Logger
}

// New creates a parser with only a logger dependency.
func New(logger zerolog.Logger) *Parser {
	return &Parser{logger: logger}
}

// ParsePointer parses "x y" pointer args into a pixel event. Fractional
// coordinates are truncated toward zero; some presentation layers
// serialize pixel positions as floats.
func (p *Parser) ParsePointer(args []string) (PointerEvent, error) {
	if len(args) < 2 {
		return PointerEvent{}, fmt.Errorf("%w: pointer event needs x and y, got %d args", ErrWrongArgCount, len(args))
	}

	xy, err := geo.PixelFromStrings(util.TrimQuotes(args[0]), util.TrimQuotes(args[1]))
	if err != nil {
		return PointerEvent{}, fmt.Errorf("parsing pointer coordinates: %w", err)
	}
	return PointerEvent{X: int(xy.X), Y: int(xy.Y)}, nil
}

// ParseKey parses a key press argument into a KeyEvent. Only the
// annotation keys are accepted.
func (p *Parser) ParseKey(args []string) (KeyEvent, error) {
	if len(args) < 1 {
		return KeyEvent{}, fmt.Errorf("%w: key event needs a symbol", ErrWrongArgCount)
	}

	symbol := util.TrimQuotes(args[0])
	switch symbol {
	case KeyUp, KeyDown, KeyBackSpace:
		return KeyEvent{Symbol: symbol}, nil
	default:
		return KeyEvent{}, fmt.Errorf("%w: %q", ErrUnknownKey, symbol)
	}
}

// ParseColor parses a palette selection. Tags are lowercased so feeds
// may send "Pink" for "pink"; palette membership is checked downstream.
func (p *Parser) ParseColor(args []string) (ColorEvent, error) {
	if len(args) < 1 {
		return ColorEvent{}, fmt.Errorf("%w: color event needs a tag", ErrWrongArgCount)
	}
	return ColorEvent{Tag: strings.ToLower(util.TrimQuotes(args[0]))}, nil
}

// ParseOpen parses a source-open request. Remaining args are rejoined so
// paths containing spaces survive the whitespace split of the feed.
func (p *Parser) ParseOpen(args []string) (OpenEvent, error) {
	if len(args) < 1 {
		return OpenEvent{}, fmt.Errorf("%w: open event needs a path", ErrWrongArgCount)
	}

	path := util.TrimQuotes(strings.Join(args, " "))
	if path == "" {
		return OpenEvent{}, fmt.Errorf("%w: open event needs a path", ErrWrongArgCount)
	}

	p.logger.Debug().Str("path", path).Msg("parsed open request")
	return OpenEvent{Path: path}, nil
}
