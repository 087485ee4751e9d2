package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/framemark/framemark/internal/channel"
	"github.com/framemark/framemark/internal/config"
	"github.com/framemark/framemark/internal/dispatcher"
	"github.com/framemark/framemark/internal/engine"
	"github.com/framemark/framemark/internal/feed"
	"github.com/framemark/framemark/internal/handlers"
	"github.com/framemark/framemark/internal/logging"
	"github.com/framemark/framemark/internal/monitor"
	"github.com/framemark/framemark/internal/parser"
	"github.com/framemark/framemark/internal/player"
	"github.com/framemark/framemark/internal/schedule"
	"github.com/framemark/framemark/internal/session"
	"github.com/framemark/framemark/internal/source"
	"github.com/framemark/framemark/internal/store"
	"github.com/framemark/framemark/pkg/directive"
)

// directiveBuffer sizes the stream between the engine and the stdout
// writer. Cosmetic fade updates drop when it is full; structural
// directives block until the writer catches up.
const directiveBuffer = 256

func newAnnotateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "annotate [video]",
		Short: "Read annotation events from stdin, write draw directives to stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAnnotate,
	}
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions := session.NewContext()
	logs, err := setupLogging(sessions, false)
	if err != nil {
		return err
	}
	defer logs.Close()

	opts := pipelineOptions{
		sessions: sessions,
		logger:   logs.Logger(),
		trace:    logs.Trace(),
		input:    os.Stdin,
		output:   os.Stdout,
	}
	if len(args) == 1 {
		opts.openPath = args[0]
	}
	return runPipeline(ctx, opts)
}

// setupLogging builds the zerolog pipeline with the session hook
// installed. Stdout carries directives, so log output goes to stderr and
// the log file only.
func setupLogging(sessions *session.Context, demo bool) (*logging.Manager, error) {
	graylog := config.GetGraylogConfig()
	logs, err := logging.Setup(logging.Options{
		Level:          config.GetString("logLevel"),
		LogsDir:        config.GetString("logsDir"),
		AppName:        appName,
		GraylogEnabled: graylog.Enabled,
		GraylogAddress: graylog.Address,
	}, logging.SessionHook{Sessions: sessions, Demo: demo})
	if err != nil {
		return nil, fmt.Errorf("logging setup failed: %w", err)
	}
	return logs, nil
}

// pipelineOptions carries the per-run knobs of the annotation pipeline.
// The demo run swaps the input, the source opener, and the session hook
// flag; everything else is shared with annotate.
type pipelineOptions struct {
	sessions   *session.Context
	logger     zerolog.Logger
	trace      zerolog.Logger
	input      io.Reader
	output     io.Writer
	openSource func(path string) (source.FrameSource, error)
	openPath   string
}

// runPipeline wires the services, pumps the event feed until it ends or
// the context is canceled, then shuts down and exports.
func runPipeline(ctx context.Context, opts pipelineOptions) error {
	disp, err := dispatcher.New(logging.NewDispatcherLogger(opts.logger, opts.trace))
	if err != nil {
		return fmt.Errorf("dispatcher setup failed: %w", err)
	}

	backend, err := store.NewBackend(config.GetStoreConfig())
	if err != nil {
		return fmt.Errorf("store setup failed: %w", err)
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("store init failed: %w", err)
	}

	sched := schedule.New()
	stream := channel.New[directive.Envelope](directiveBuffer)
	playback := config.GetPlaybackConfig()

	eng := engine.New(engine.Dependencies{
		Backend:    backend,
		Sessions:   opts.sessions,
		Scheduler:  sched,
		Stream:     stream,
		Logger:     opts.logger,
		Playback:   playback,
		Annotation: config.GetAnnotationConfig(),
	})

	plr := player.New(player.Dependencies{
		Scheduler:  sched,
		Dispatcher: disp,
		Logger:     opts.logger,
		Trace:      opts.trace,
		Playback:   playback,
	})

	svc := handlers.NewService(handlers.Dependencies{
		Engine:  eng,
		Player:  plr,
		Parser:  parser.New(opts.logger),
		Backend: backend,
		Logger:  opts.logger,
		Trace:   opts.trace,
	})
	if opts.openSource != nil {
		svc.SetSourceOpener(opts.openSource)
	}
	svc.RegisterHandlers(disp)

	if err := sched.Start(); err != nil {
		return fmt.Errorf("scheduler start failed: %w", err)
	}

	monitorCfg := config.GetMonitorConfig()
	mon := monitor.NewService(monitor.Dependencies{
		Engine:     eng,
		Player:     plr,
		Dispatcher: disp,
		Logger:     opts.logger,
		Monitor:    monitorCfg,
	})
	if monitorCfg.Enabled {
		if err := mon.Start(); err != nil {
			opts.logger.Warn().Err(err).Msg("status monitor failed to start")
		}
	}

	writerDone := make(chan error, 1)
	go func() {
		writerDone <- feed.NewWriter(opts.output, stream, opts.logger).Run()
	}()

	if opts.openPath != "" {
		if _, err := disp.Dispatch(dispatcher.Event{
			Command:   handlers.CmdOpen,
			Args:      []string{opts.openPath},
			Timestamp: time.Now(),
		}); err != nil {
			opts.logger.Error().Err(err).Str("path", opts.openPath).Msg("initial open failed")
		}
	}

	feedDone := make(chan error, 1)
	go func() {
		feedDone <- feed.NewReader(opts.input, disp, opts.logger).Run(ctx)
	}()

	var runErr error
	feedFinished := false
	select {
	case <-ctx.Done():
		opts.logger.Info().Msg("shutdown signal received")
	case err := <-feedDone:
		feedFinished = true
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = err
		}
		opts.logger.Info().Msg("event feed finished")
	}

	mon.Stop()
	if err := plr.Close(); err != nil {
		opts.logger.Warn().Err(err).Msg("player close failed")
	}
	// Stop waits out in-flight ticks, so nothing reaches the stream from
	// the scheduler after this point.
	sched.Stop()

	if err := backend.Export(); err != nil {
		opts.logger.Error().Err(err).Msg("export failed")
		if runErr == nil {
			runErr = fmt.Errorf("export failed: %w", err)
		}
	} else if exp, ok := backend.(store.Exported); ok {
		opts.logger.Info().Str("path", exp.GetExportedFilePath()).Msg("annotations exported")
	}
	if err := backend.Close(); err != nil {
		opts.logger.Warn().Err(err).Msg("store close failed")
	}

	// After a signal the reader may still be blocked on live input and
	// could dispatch into the stream, so the stream is only closed and
	// drained when the feed has finished; on the signal path process
	// exit reclaims the writer.
	if feedFinished {
		stream.Close()
		if err := <-writerDone; err != nil {
			opts.logger.Error().Err(err).Msg("directive writer failed")
			if runErr == nil {
				runErr = err
			}
		}
	}

	if runErr == nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return runErr
}
