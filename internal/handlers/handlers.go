// Package handlers binds dispatcher commands to engine operations. Soft
// engine errors are logged and swallowed here so a stray event can never
// stop the loop; hard failures propagate to the dispatcher.
package handlers

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/framemark/framemark/internal/dispatcher"
	"github.com/framemark/framemark/internal/engine"
	"github.com/framemark/framemark/internal/parser"
	"github.com/framemark/framemark/internal/player"
	"github.com/framemark/framemark/internal/source"
	"github.com/framemark/framemark/internal/store"
	"github.com/framemark/framemark/internal/util"
)

// Feed verbs accepted from the presentation layer. The verb on the wire
// is the dispatcher command.
const (
	CmdClick       = "click"
	CmdDoubleClick = "dblclick"
	CmdRelease     = "release"
	CmdKey         = "key"
	CmdColor       = "color"
	CmdOpen        = "open"
	CmdPause       = "pause"
	CmdResume      = "resume"
	CmdExport      = "export"
)

// Dependencies holds all dependencies needed by handlers.
type Dependencies struct {
	Engine  *engine.Engine
	Player  *player.Player
	Parser  *parser.Parser
	Backend store.Backend
	Logger  zerolog.Logger
	Trace   zerolog.Logger
}

// Service provides handler methods for processing feed events.
type Service struct {
	deps       Dependencies
	openSource func(path string) (source.FrameSource, error)
}

// NewService creates a new handler service. Sources open as real video
// captures unless a different opener is installed.
func NewService(deps Dependencies) *Service {
	return &Service{
		deps:       deps,
		openSource: func(path string) (source.FrameSource, error) { return source.OpenVideo(path) },
	}
}

// SetSourceOpener replaces how the open verb acquires sources. Demo runs
// substitute scripted sources for real captures.
func (s *Service) SetSourceOpener(fn func(path string) (source.FrameSource, error)) {
	if fn != nil {
		s.openSource = fn
	}
}

// handleClick resolves a press: latch the arrow start and select the
// topmost marker under the pointer.
func (s *Service) handleClick(e dispatcher.Event) (any, error) {
	pt, err := s.deps.Parser.ParsePointer(e.Args)
	if err != nil {
		s.deps.Logger.Warn().Err(err).Msg("discarding malformed click")
		return nil, nil
	}

	if id, ok := s.deps.Engine.BeginArrow(pt.X, pt.Y); ok {
		return id, nil
	}
	return nil, nil
}

// handleDoubleClick records a point annotation.
func (s *Service) handleDoubleClick(e dispatcher.Event) (any, error) {
	pt, err := s.deps.Parser.ParsePointer(e.Args)
	if err != nil {
		s.deps.Logger.Warn().Err(err).Msg("discarding malformed dblclick")
		return nil, nil
	}

	if err := s.deps.Engine.RecordPoint(pt.X, pt.Y); err != nil {
		if errors.Is(err, engine.ErrNoSession) {
			s.deps.Logger.Warn().Msg("point ignored, no session open")
			return nil, nil
		}
		return nil, err
	}
	return nil, nil
}

// handleRelease commits a pending arrow if the drag clears the noise
// floor.
func (s *Service) handleRelease(e dispatcher.Event) (any, error) {
	pt, err := s.deps.Parser.ParsePointer(e.Args)
	if err != nil {
		s.deps.Logger.Warn().Err(err).Msg("discarding malformed release")
		return nil, nil
	}

	appended, err := s.deps.Engine.EndArrow(pt.X, pt.Y)
	if err != nil {
		if errors.Is(err, engine.ErrNoSession) {
			s.deps.Logger.Warn().Msg("arrow ignored, no session open")
			return nil, nil
		}
		return nil, err
	}
	return appended, nil
}

// handleKey maps the annotation keys onto engine operations: BackSpace
// removes the selection, Up and Down rotate it.
func (s *Service) handleKey(e dispatcher.Event) (any, error) {
	key, err := s.deps.Parser.ParseKey(e.Args)
	if err != nil {
		s.deps.Logger.Warn().Err(err).Msg("discarding unsupported key")
		return nil, nil
	}

	switch key.Symbol {
	case parser.KeyBackSpace:
		err = s.deps.Engine.RemoveSelected()
	case parser.KeyUp:
		err = s.deps.Engine.RotateSelected(engine.RotateIncrease)
	case parser.KeyDown:
		err = s.deps.Engine.RotateSelected(engine.RotateDecrease)
	}

	if err != nil {
		if errors.Is(err, engine.ErrNoSelection) || errors.Is(err, engine.ErrInvalidRotationTarget) {
			s.deps.Logger.Debug().Err(err).Str("key", key.Symbol).Msg("key ignored")
			return nil, nil
		}
		return nil, err
	}
	return key.Symbol, nil
}

// handleColor switches the active palette tag.
func (s *Service) handleColor(e dispatcher.Event) (any, error) {
	ev, err := s.deps.Parser.ParseColor(e.Args)
	if err != nil {
		s.deps.Logger.Warn().Err(err).Msg("discarding malformed color")
		return nil, nil
	}

	if err := s.deps.Engine.SetColorTag(ev.Tag); err != nil {
		if errors.Is(err, engine.ErrUnknownColorTag) {
			s.deps.Logger.Warn().Str("tag", ev.Tag).Msg("color tag not in palette")
			return nil, nil
		}
		return nil, err
	}
	return ev.Tag, nil
}

// handleOpen opens a new source and starts a fresh session named after
// the file stem. A source that cannot be opened aborts the open and
// leaves all prior state untouched.
func (s *Service) handleOpen(e dispatcher.Event) (any, error) {
	req, err := s.deps.Parser.ParseOpen(e.Args)
	if err != nil {
		s.deps.Logger.Warn().Err(err).Msg("discarding malformed open")
		return nil, nil
	}

	src, err := s.openSource(req.Path)
	if err != nil {
		s.deps.Logger.Error().Err(err).Str("path", req.Path).Msg("source open failed")
		return nil, err
	}

	name := util.FileStem(req.Path)
	if err := s.deps.Engine.OpenSession(name, src.Width(), src.Height()); err != nil {
		src.Close()
		return nil, fmt.Errorf("opening session %q: %w", name, err)
	}
	if err := s.deps.Player.Open(src); err != nil {
		return nil, fmt.Errorf("handing source to player: %w", err)
	}
	return name, nil
}

// handlePause suspends playback.
func (s *Service) handlePause(dispatcher.Event) (any, error) {
	s.deps.Player.Pause()
	s.deps.Logger.Info().Msg("playback paused")
	return nil, nil
}

// handleResume restarts playback.
func (s *Service) handleResume(dispatcher.Event) (any, error) {
	s.deps.Player.Resume()
	s.deps.Logger.Info().Msg("playback resumed")
	return nil, nil
}

// handleExport serializes every session to the configured output.
func (s *Service) handleExport(dispatcher.Event) (any, error) {
	if err := s.deps.Backend.Export(); err != nil {
		return nil, fmt.Errorf("exporting annotations: %w", err)
	}

	if exp, ok := s.deps.Backend.(store.Exported); ok {
		path := exp.GetExportedFilePath()
		s.deps.Logger.Info().Str("path", path).Msg("annotations exported")
		return path, nil
	}
	return nil, nil
}

// handleFrame advances the frame counter after a successful decode. A
// frame landing before the first session open is dropped quietly.
func (s *Service) handleFrame(dispatcher.Event) (any, error) {
	frame, err := s.deps.Engine.AdvanceFrame()
	if err != nil {
		if errors.Is(err, engine.ErrNoSession) {
			return nil, nil
		}
		return nil, err
	}
	return frame, nil
}

// handleMiss traces a decode miss. Threshold handling lives in the
// player; this exists for pipeline visibility only.
func (s *Service) handleMiss(e dispatcher.Event) (any, error) {
	if len(e.Args) > 0 {
		s.deps.Trace.Trace().Str("misses", e.Args[0]).Msg("decode miss")
	}
	return nil, nil
}
