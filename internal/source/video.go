package source

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Video is a FrameSource backed by a gocv video capture. Decoded frames
// land in a reused Mat; the annotation pipeline only needs the decode
// outcome and the source dimensions, never the pixels themselves.
type Video struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	frame   gocv.Mat
	width   int
	height  int
	closed  bool
}

var _ FrameSource = (*Video)(nil)

// OpenVideo opens the file at path for sequential decoding.
func OpenVideo(path string) (*Video, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrSourceOpen, path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: %q", ErrSourceOpen, path)
	}

	return &Video{
		capture: capture,
		frame:   gocv.NewMat(),
		width:   int(capture.Get(gocv.VideoCaptureFrameWidth)),
		height:  int(capture.Get(gocv.VideoCaptureFrameHeight)),
	}, nil
}

// IsOpened reports whether the capture can still be read.
func (v *Video) IsOpened() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.closed && v.capture.IsOpened()
}

// ReadFrame decodes the next frame. Empty decodes count as misses.
func (v *Video) ReadFrame() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return false
	}
	if ok := v.capture.Read(&v.frame); !ok || v.frame.Empty() {
		return false
	}
	return true
}

// Width returns the source frame width in pixels.
func (v *Video) Width() int {
	return v.width
}

// Height returns the source frame height in pixels.
func (v *Video) Height() int {
	return v.height
}

// Close releases the capture and the frame buffer exactly once.
func (v *Video) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true

	frameErr := v.frame.Close()
	if err := v.capture.Close(); err != nil {
		return fmt.Errorf("closing capture: %w", err)
	}
	if frameErr != nil {
		return fmt.Errorf("closing frame buffer: %w", frameErr)
	}
	return nil
}
