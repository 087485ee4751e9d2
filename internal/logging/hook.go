package logging

import (
	"github.com/rs/zerolog"

	"github.com/framemark/framemark/internal/session"
)

// SessionHook stamps every event with the active session name and frame
// index so log lines can be correlated with exported annotations.
type SessionHook struct {
	Sessions *session.Context
	Demo     bool
}

// Run implements zerolog.Hook.
func (h SessionHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	if h.Demo {
		e.Bool("demo", true)
	}
	cur := h.Sessions.Current()
	if cur == nil {
		return
	}
	e.Str("session", cur.Name()).Int("frame", cur.Frame())
}
