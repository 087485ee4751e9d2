package handlers

import (
	"github.com/framemark/framemark/internal/dispatcher"
	"github.com/framemark/framemark/internal/player"
)

// RegisterHandlers registers every feed verb and internal source event
// with the dispatcher.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	// User events - sync so press, release, and key order is preserved
	d.Register(CmdClick, s.handleClick, dispatcher.Logged())
	d.Register(CmdDoubleClick, s.handleDoubleClick, dispatcher.Logged())
	d.Register(CmdRelease, s.handleRelease, dispatcher.Logged())
	d.Register(CmdKey, s.handleKey, dispatcher.Logged())
	d.Register(CmdColor, s.handleColor, dispatcher.Logged())

	// Session control - sync, an open must complete before later events
	d.Register(CmdOpen, s.handleOpen, dispatcher.Logged())
	d.Register(CmdPause, s.handlePause, dispatcher.Logged())
	d.Register(CmdResume, s.handleResume, dispatcher.Logged())
	d.Register(CmdExport, s.handleExport, dispatcher.Logged())

	// Internal source events - frame advances stay sync so the counter
	// never lags a queue, misses are cosmetic and may drop
	d.Register(player.CmdFrame, s.handleFrame)
	d.Register(player.CmdMiss, s.handleMiss, dispatcher.Buffered(64))
}
