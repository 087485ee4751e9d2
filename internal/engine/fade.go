package engine

import (
	"github.com/framemark/framemark/internal/cache"
	"github.com/framemark/framemark/pkg/directive"
)

// fadeStep is how much the circle radius shrinks per fade tick.
const fadeStep = 0.5

// scheduleFade arms the shrink animation for a circle marker and keeps
// the task handle so removal can cancel it. Caller holds e.mu.
func (e *Engine) scheduleFade(id uint) {
	task := e.sched.Every(e.fadeInterval, func() bool {
		return e.fadeTick(id)
	})
	e.fades[id] = task
}

// fadeTick shrinks the circle by one step, emitting a geometry update
// while it is still visible and a removal once the radius reaches zero.
// Returns false when the task should stop. Radius updates are cosmetic
// and must never stall the scheduler, so they go out via TrySend.
func (e *Engine) fadeTick(id uint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.drawables.Get(id)
	if !ok || d.Kind != cache.KindCircle {
		delete(e.fades, id)
		return false
	}

	radius := d.Radius - fadeStep
	if radius <= 0 {
		e.dropDrawableLocked(id)
		return false
	}

	e.drawables.SetRadius(id, radius)
	e.stream.TrySend(directive.NewUpdateCircle(id, d.Center, radius))
	return true
}
