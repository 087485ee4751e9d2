// Package monitor logs a periodic status line: the engine snapshot,
// playback state, dispatcher queue depth, and memory utilization.
package monitor

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/framemark/framemark/internal/config"
	"github.com/framemark/framemark/internal/dispatcher"
	"github.com/framemark/framemark/internal/engine"
	"github.com/framemark/framemark/internal/player"
)

const defaultInterval = 10 * time.Second

// Dependencies holds all dependencies for the monitor service.
type Dependencies struct {
	Engine     *engine.Engine
	Player     *player.Player
	Dispatcher *dispatcher.Dispatcher
	Logger     zerolog.Logger
	Monitor    config.MonitorConfig
}

// Service manages status monitoring.
type Service struct {
	deps     Dependencies
	interval time.Duration
	proc     *process.Process

	mu        sync.RWMutex
	isRunning bool
	stopChan  chan struct{}
}

// NewService creates a new monitor service.
func NewService(deps Dependencies) *Service {
	interval := deps.Monitor.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	// A lookup failure leaves proc nil; the status line then simply
	// omits process memory.
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		proc = nil
	}

	return &Service{
		deps:     deps,
		interval: interval,
		proc:     proc,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Start starts the status monitor goroutine.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		s.deps.Logger.Debug().Dur("interval", s.interval).Msg("status monitor started")
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.logStatus()
			}
		}
	}()

	return nil
}

// Stop stops the status monitor.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		s.isRunning = false
		close(s.stopChan)
	}
}

// logStatus emits one status line at info level.
func (s *Service) logStatus() {
	st := s.deps.Engine.Status()

	queued := 0
	for _, depth := range s.deps.Dispatcher.Buffers() {
		queued += depth
	}

	ev := s.deps.Logger.Info().
		Str("session", st.Session).
		Int("frame", st.Frame).
		Int("points", st.Points).
		Int("arrows", st.Arrows).
		Int("drawables", st.Drawables).
		Bool("paused", s.deps.Player.IsPaused()).
		Bool("exhausted", s.deps.Player.IsExhausted()).
		Int("queued", queued)

	if s.proc != nil {
		if mi, err := s.proc.MemoryInfo(); err == nil {
			ev = ev.Uint64("rssMB", mi.RSS/1024/1024)
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		ev = ev.Float64("memUsedPct", vm.UsedPercent)
	}

	ev.Msg("status")
}
