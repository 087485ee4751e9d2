// Package schedule provides a single-goroutine scheduler for repeating
// tasks. Frame delivery and marker fades both run here, so task bodies
// never overlap and the engine sees periodic callbacks one at a time.
package schedule

import (
	"sync"
	"sync/atomic"
	"time"
)

// Task is a cancelable handle to a repeating job. A task stops running
// when Cancel is called, when its function returns false, or when the
// scheduler stops.
type Task struct {
	interval time.Duration
	next     time.Time
	fn       func() bool
	canceled atomic.Bool
}

// Cancel stops the task. Safe to call from any goroutine and more than
// once; a canceled task never runs again.
func (t *Task) Cancel() {
	t.canceled.Store(true)
}

// Canceled reports whether the task has been canceled or has completed.
func (t *Task) Canceled() bool {
	return t.canceled.Load()
}

// Scheduler runs repeating tasks on one goroutine. Each task reschedules
// a full interval after its run completes (fixed delay, not fixed rate).
type Scheduler struct {
	mu        sync.Mutex
	tasks     []*Task
	wake      chan struct{}
	stopChan  chan struct{}
	done      chan struct{}
	isRunning bool
}

// New creates a stopped Scheduler.
func New() *Scheduler {
	return &Scheduler{
		wake:     make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}
}

// Every schedules fn to run once per interval until the returned task is
// canceled or fn returns false. The first run happens one full interval
// after scheduling. Tasks may be scheduled before Start.
func (s *Scheduler) Every(interval time.Duration, fn func() bool) *Task {
	t := &Task{
		interval: interval,
		next:     time.Now().Add(interval),
		fn:       fn,
	}
	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()
	s.kick()
	return t
}

// IsRunning returns whether the scheduler loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Start launches the scheduler goroutine. Calling Start on a running
// scheduler is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go s.run(stop, done)
	return nil
}

// Stop halts the scheduler loop and waits for an in-flight task run to
// finish; no task runs after Stop returns. Pending tasks stay registered
// but no longer run. Must not be called from a task body.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()

	<-done
}

// kick wakes the loop so a freshly scheduled task is picked up without
// waiting out the current park interval.
func (s *Scheduler) kick() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		next := s.runDue(time.Now())

		wait := time.Hour
		if !next.IsZero() {
			wait = time.Until(next)
			if wait < 0 {
				wait = 0
			}
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-stop:
			return
		case <-s.wake:
		case <-timer.C:
		}
	}
}

// runDue executes every task whose deadline has passed, prunes finished
// tasks, and reports the earliest upcoming deadline (zero when idle).
// Task functions run without the scheduler lock held, so they are free to
// schedule or cancel other tasks.
func (s *Scheduler) runDue(now time.Time) time.Time {
	s.mu.Lock()
	var due []*Task
	for _, t := range s.tasks {
		if !t.canceled.Load() && !t.next.After(now) {
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		if t.canceled.Load() {
			continue
		}
		if !t.fn() {
			t.Cancel()
			continue
		}
		t.next = time.Now().Add(t.interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	live := s.tasks[:0]
	var next time.Time
	for _, t := range s.tasks {
		if t.canceled.Load() {
			continue
		}
		live = append(live, t)
		if next.IsZero() || t.next.Before(next) {
			next = t.next
		}
	}
	s.tasks = live
	return next
}
