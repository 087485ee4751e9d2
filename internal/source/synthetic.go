package source

import "sync"

// Synthetic is an in-memory FrameSource for demo runs and tests. It
// delivers a fixed number of frames at fixed dimensions, then misses
// forever, which exercises the same exhaustion path a real capture hits
// at end of file.
type Synthetic struct {
	mu     sync.Mutex
	frames int
	read   int
	width  int
	height int
	closed bool
	closes int
}

var _ FrameSource = (*Synthetic)(nil)

// NewSynthetic creates a source that decodes exactly frames frames.
func NewSynthetic(frames, width, height int) *Synthetic {
	return &Synthetic{
		frames: frames,
		width:  width,
		height: height,
	}
}

// IsOpened reports whether the source is still usable.
func (s *Synthetic) IsOpened() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// ReadFrame delivers the next scripted frame, or a miss once exhausted.
func (s *Synthetic) ReadFrame() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.read >= s.frames {
		return false
	}
	s.read++
	return true
}

// Width returns the scripted frame width.
func (s *Synthetic) Width() int {
	return s.width
}

// Height returns the scripted frame height.
func (s *Synthetic) Height() int {
	return s.height
}

// Close marks the source closed. Repeat calls are no-ops.
func (s *Synthetic) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.closes++
	}
	return nil
}

// FramesRead reports how many frames were decoded so far.
func (s *Synthetic) FramesRead() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read
}

// CloseCount reports how many times Close actually closed the source.
func (s *Synthetic) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}
