// Package session tracks the active source session: its name, frame
// counter, and source dimensions.
package session

import "sync"

// Session is one loaded video source. The frame counter increments once
// per successfully decoded frame and annotations are stamped with its
// value at the moment of the triggering event.
type Session struct {
	mu     sync.RWMutex
	name   string
	frame  int
	width  int
	height int
}

// New creates a Session with the frame counter at zero.
func New(name string, width, height int) *Session {
	return &Session{
		name:   name,
		width:  width,
		height: height,
	}
}

// Name returns the session name (the source file stem).
func (s *Session) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// Frame returns the current frame counter.
func (s *Session) Frame() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// AdvanceFrame increments the frame counter and returns the new value.
// Called once per decoded frame, never on a decode miss.
func (s *Session) AdvanceFrame() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame++
	return s.frame
}

// Dimensions returns the source width and height in pixels.
func (s *Session) Dimensions() (width, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}

// Context holds the currently active session.
type Context struct {
	mu      sync.RWMutex
	current *Session
}

// NewContext creates a Context with no session loaded.
func NewContext() *Context {
	return &Context{}
}

// Current returns the active session, or nil before the first open.
func (c *Context) Current() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// SetCurrent replaces the active session.
func (c *Context) SetCurrent(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = s
}
