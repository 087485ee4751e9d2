// Package dispatcher routes parsed feed commands and playback events to
// their handlers. A plain registration runs the handler on the caller's
// goroutine, so user verbs keep their feed order; Buffered registrations
// get a queue and a consumer goroutine of their own.
package dispatcher

import (
	"fmt"
	"sync"
	"time"
)

// Event is one parsed command, either a verb read from the input feed or
// an internal event raised by the frame clock.
type Event struct {
	Command   string
	Args      []string
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*registration)

type registration struct {
	queueSize int
	blockFull bool
	logged    bool
}

// Buffered gives the command its own queue and consumer goroutine.
// Dispatch then enqueues and returns without waiting for the handler.
func Buffered(size int) Option {
	return func(r *registration) {
		r.queueSize = size
	}
}

// Blocking makes a buffered command wait for queue space instead of
// dropping the event.
func Blocking() Option {
	return func(r *registration) {
		r.blockFull = true
	}
}

// Logged wraps the handler with per-event debug logging.
func Logged() Option {
	return func(r *registration) {
		r.logged = true
	}
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	routes map[string]HandlerFunc
	logger Logger
	inst   instruments

	mu     sync.RWMutex
	queues map[string]chan Event
}

// New creates a Dispatcher logging through the given logger. Metrics use
// the global OTel meter and are no-ops when no provider is installed.
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		routes: make(map[string]HandlerFunc),
		queues: make(map[string]chan Event),
		logger: logger,
	}

	inst, err := newInstruments(d.Buffers)
	if err != nil {
		return nil, err
	}
	d.inst = inst

	return d, nil
}

// Register adds a handler for the given command. Options layer queueing
// and logging around it. Registration is not safe concurrently with
// Dispatch; all handlers are registered before the feed starts.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	var reg registration
	for _, opt := range opts {
		opt(&reg)
	}

	handler := h

	if reg.queueSize > 0 {
		handler = d.queued(command, reg.queueSize, reg.blockFull, handler)
	}

	if reg.logged {
		handler = d.withLogging(command, handler)
	}

	d.routes[command] = handler
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	h, ok := d.routes[e.Command]
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", e.Command)
	}
	return h(e)
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	_, ok := d.routes[command]
	return ok
}

// QueueLen reports the number of queued events for a buffered command,
// or 0 for direct handlers.
func (d *Dispatcher) QueueLen(command string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if q, ok := d.queues[command]; ok {
		return len(q)
	}
	return 0
}

// Buffers returns a snapshot of queue depths per buffered command.
func (d *Dispatcher) Buffers() map[string]int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	depths := make(map[string]int, len(d.queues))
	for command, q := range d.queues {
		depths[command] = len(q)
	}
	return depths
}

// queued wraps h behind a fixed-size queue drained by one goroutine, so
// events for the same command stay in dispatch order.
func (d *Dispatcher) queued(command string, size int, blockFull bool, h HandlerFunc) HandlerFunc {
	queue := make(chan Event, size)

	d.mu.Lock()
	d.queues[command] = queue
	d.mu.Unlock()

	go func() {
		for e := range queue {
			h(e)
			d.inst.countHandled(command)
		}
	}()

	if blockFull {
		return func(e Event) (any, error) {
			queue <- e
			return "queued", nil
		}
	}

	return func(e Event) (any, error) {
		select {
		case queue <- e:
			return "queued", nil
		default:
			d.inst.countDropped(command)
			return nil, fmt.Errorf("queue full: %s", command)
		}
	}
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "command", command, "args", len(e.Args))

		result, err := h(e)
		if err != nil {
			d.logger.Error("event failed", "command", command, "duration", time.Since(start), "error", err)
			return result, err
		}

		d.logger.Debug("event complete", "command", command, "duration", time.Since(start))
		return result, nil
	}
}
