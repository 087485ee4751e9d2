package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/framemark/framemark/internal/session"
	"github.com/framemark/framemark/internal/source"
)

const (
	// demoPace spaces the scripted events so playback ticks and marker
	// fades progress between them.
	demoPace = 200 * time.Millisecond

	demoFrames = 1000
	demoWidth  = 640
	demoHeight = 480
)

// demoScript drives every feed verb once against a synthetic source:
// points in each palette color, an arrow drawn, rotated, and removed,
// a discarded short drag, pause/resume, and a manual export.
var demoScript = []string{
	"# framemark demo: scripted annotation session",
	"open demo-clip",
	"dblclick 120 90",
	"click 40 40",
	"release 160 120",
	"color pink",
	"dblclick 200 150",
	"pause",
	"resume",
	"click 100 80",
	"key Up",
	"key Up",
	"key Down",
	"release 103 82",
	"key BackSpace",
	"color green",
	"dblclick 320 240",
	"click 320 240",
	"release 420 360",
	"export",
}

func newDemoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted annotation session against a synthetic source",
		Args:  cobra.NoArgs,
		RunE:  runDemo,
	}
}

func runDemo(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions := session.NewContext()
	logs, err := setupLogging(sessions, true)
	if err != nil {
		return err
	}
	defer logs.Close()

	return runPipeline(ctx, pipelineOptions{
		sessions: sessions,
		logger:   logs.Logger(),
		trace:    logs.Trace(),
		input:    scriptReader(ctx, demoScript, demoPace),
		output:   os.Stdout,
		openSource: func(string) (source.FrameSource, error) {
			return source.NewSynthetic(demoFrames, demoWidth, demoHeight), nil
		},
	})
}

// scriptReader delivers the script one line per pace interval. Closing
// the pipe on the last line ends the feed and triggers the normal
// shutdown path.
func scriptReader(ctx context.Context, lines []string, pace time.Duration) io.Reader {
	pr, pw := io.Pipe()
	go func() {
		defer pw.Close()
		for _, line := range lines {
			if _, err := io.WriteString(pw, strings.TrimSpace(line)+"\n"); err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(pace):
			}
		}
	}()
	return pr
}
