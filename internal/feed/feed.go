// Package feed connects the process's standard streams to the pipeline:
// inbound event lines arrive on stdin, outbound directives leave as JSON
// lines on stdout. Logging stays on stderr so the directive stream is
// never polluted.
package feed

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/framemark/framemark/internal/dispatcher"
)

// Reader drains an input stream line by line and dispatches each event.
// The wire format is "<verb> [args...]", one event per line.
type Reader struct {
	in   io.Reader
	disp *dispatcher.Dispatcher
	log  zerolog.Logger
}

// NewReader creates a Reader over in.
func NewReader(in io.Reader, disp *dispatcher.Dispatcher, log zerolog.Logger) *Reader {
	return &Reader{in: in, disp: disp, log: log}
}

// Run scans events until EOF or context cancellation. Empty lines and
// lines starting with '#' are skipped, so scripted feeds can carry
// comments. Unknown verbs are logged and skipped; they never stop the
// loop. A nil return means the feed reached EOF.
func (r *Reader) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.in)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if _, err := r.disp.Dispatch(dispatcher.Event{
			Command:   fields[0],
			Args:      fields[1:],
			Timestamp: time.Now(),
		}); err != nil {
			r.log.Warn().Err(err).Str("verb", fields[0]).Msg("event skipped")
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading event feed: %w", err)
	}
	return nil
}
