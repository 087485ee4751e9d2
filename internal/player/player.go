// Package player owns the frame source and drives playback: one
// scheduler tick per frame interval, each dispatching an internal source
// event into the command pipeline.
package player

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/framemark/framemark/internal/config"
	"github.com/framemark/framemark/internal/dispatcher"
	"github.com/framemark/framemark/internal/schedule"
	"github.com/framemark/framemark/internal/source"
)

// Internal source events. CmdFrame fires on every successful decode,
// CmdMiss on every failed one with the consecutive miss count as its
// only argument.
const (
	CmdFrame = ":SOURCE:FRAME:"
	CmdMiss  = ":SOURCE:MISS:"
)

// ErrClosed is returned when operating on a closed player.
var ErrClosed = errors.New("player closed")

const (
	defaultTickInterval = 60 * time.Millisecond
	defaultMissLimit    = 50
)

// Dependencies are the collaborators a Player needs.
type Dependencies struct {
	Scheduler  *schedule.Scheduler
	Dispatcher *dispatcher.Dispatcher
	Logger     zerolog.Logger
	Trace      zerolog.Logger
	Playback   config.PlaybackConfig
}

// Player reads frames from the current source on a fixed tick. A run of
// consecutive decode misses past the configured threshold marks the
// source exhausted; playback stops for that source but the player stays
// usable for the next open.
type Player struct {
	mu sync.Mutex

	disp  *dispatcher.Dispatcher
	log   zerolog.Logger
	trace zerolog.Logger

	tickInterval time.Duration
	missLimit    int

	src       source.FrameSource
	task      *schedule.Task
	paused    bool
	exhausted bool
	misses    int
	closed    bool
}

// New creates a Player and arms its playback task on the scheduler. The
// task idles until a source is opened.
func New(deps Dependencies) *Player {
	tickInterval := deps.Playback.TickInterval
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}
	missLimit := deps.Playback.EOFMissThreshold
	if missLimit <= 0 {
		missLimit = defaultMissLimit
	}

	p := &Player{
		disp:         deps.Dispatcher,
		log:          deps.Logger,
		trace:        deps.Trace,
		tickInterval: tickInterval,
		missLimit:    missLimit,
	}
	p.task = deps.Scheduler.Every(tickInterval, p.tick)
	return p
}

// Open swaps in a new source. The previous source is closed, miss
// tracking resets, and playback resumes unpaused.
func (p *Player) Open(src source.FrameSource) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if p.src != nil {
		if err := p.src.Close(); err != nil {
			p.log.Warn().Err(err).Msg("closing previous source")
		}
	}

	p.src = src
	p.paused = false
	p.exhausted = false
	p.misses = 0
	return nil
}

// Pause suspends frame delivery without touching the source.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
}

// Resume restarts frame delivery after a pause.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
}

// IsPaused reports whether playback is paused.
func (p *Player) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// IsExhausted reports whether the current source ran past the miss
// threshold.
func (p *Player) IsExhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exhausted
}

// Misses reports the current consecutive miss count.
func (p *Player) Misses() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.misses
}

// Close stops the playback task and releases the source exactly once.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.task.Cancel()

	if p.src == nil {
		return nil
	}
	src := p.src
	p.src = nil
	if err := src.Close(); err != nil {
		return fmt.Errorf("closing source: %w", err)
	}
	return nil
}

// tick reads one frame and dispatches the outcome. Runs on the scheduler
// goroutine; returns false once the player is closed so the task drops
// out of the schedule.
func (p *Player) tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	if p.src == nil || p.paused || p.exhausted {
		return true
	}

	if p.src.ReadFrame() {
		p.misses = 0
		p.dispatchLocked(CmdFrame, nil)
		return true
	}

	p.misses++
	p.dispatchLocked(CmdMiss, []string{strconv.Itoa(p.misses)})
	if p.misses >= p.missLimit {
		p.exhausted = true
		p.log.Info().
			Int("misses", p.misses).
			Msg("source exhausted, playback stopped")
	}
	return true
}

// dispatchLocked dispatches an internal source event. Caller holds p.mu.
func (p *Player) dispatchLocked(command string, args []string) {
	_, err := p.disp.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      args,
		Timestamp: time.Now(),
	})
	if err != nil {
		p.log.Debug().Err(err).Str("command", command).Msg("source event not handled")
		return
	}
	p.trace.Trace().Str("command", command).Msg("source event dispatched")
}
