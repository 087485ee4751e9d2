// Package source abstracts video frame acquisition behind a small
// interface so the playback service can run against real captures and
// scripted stand-ins alike.
package source

import "errors"

// ErrSourceOpen is returned when a video source cannot be opened.
var ErrSourceOpen = errors.New("cannot open video source")

// FrameSource delivers frames one tick at a time. ReadFrame reports
// whether a frame was decoded; a false return is a miss, not an error.
// Close must be safe to call more than once.
type FrameSource interface {
	IsOpened() bool
	ReadFrame() bool
	Width() int
	Height() int
	Close() error
}
