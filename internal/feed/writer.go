package feed

import (
	"encoding/json"
	"io"

	"github.com/rs/zerolog"

	"github.com/framemark/framemark/internal/channel"
	"github.com/framemark/framemark/pkg/directive"
)

// Writer drains the directive stream and encodes each directive as one
// JSON line.
type Writer struct {
	out    io.Writer
	stream channel.Receiver[directive.Envelope]
	log    zerolog.Logger
}

// NewWriter creates a Writer draining stream into out.
func NewWriter(out io.Writer, stream channel.Receiver[directive.Envelope], log zerolog.Logger) *Writer {
	return &Writer{out: out, stream: stream, log: log}
}

// Run encodes directives until the stream closes. A broken output does
// not stop the drain: producers must never block on a dead consumer, so
// the writer keeps consuming and reports the first write error on exit.
func (w *Writer) Run() error {
	enc := json.NewEncoder(w.out)

	var writeErr error
	for env := range w.stream.Receive() {
		if err := enc.Encode(env); err != nil {
			if writeErr == nil {
				writeErr = err
				w.log.Error().Err(err).Msg("directive write failed, draining stream")
			}
		}
	}
	return writeErr
}
