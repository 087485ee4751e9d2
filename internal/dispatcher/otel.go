package dispatcher

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/framemark/framemark/internal/dispatcher"

// instruments holds the dispatcher's OTel metrics. They come from the
// global meter provider, which hands back no-op instruments when none
// is installed, so recording is always safe.
type instruments struct {
	queueDepth metric.Int64ObservableGauge
	handled    metric.Int64Counter
	dropped    metric.Int64Counter
}

// newInstruments builds the metric set. depths is polled on collection
// to observe the live queue depth per buffered command.
func newInstruments(depths func() map[string]int) (instruments, error) {
	m := otel.Meter(instrumentationName)

	var inst instruments
	var err error

	inst.queueDepth, err = m.Int64ObservableGauge(
		"dispatcher.queue.depth",
		metric.WithDescription("Events waiting in a command queue"),
	)
	if err != nil {
		return inst, fmt.Errorf("creating queue depth gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			for command, depth := range depths() {
				o.ObserveInt64(inst.queueDepth, int64(depth),
					metric.WithAttributes(attribute.String("command", command)))
			}
			return nil
		},
		inst.queueDepth,
	)
	if err != nil {
		return inst, fmt.Errorf("registering depth callback: %w", err)
	}

	inst.handled, err = m.Int64Counter(
		"dispatcher.events.handled",
		metric.WithDescription("Events drained from command queues"),
	)
	if err != nil {
		return inst, fmt.Errorf("creating handled counter: %w", err)
	}

	inst.dropped, err = m.Int64Counter(
		"dispatcher.events.dropped",
		metric.WithDescription("Events rejected because a command queue was full"),
	)
	if err != nil {
		return inst, fmt.Errorf("creating dropped counter: %w", err)
	}

	return inst, nil
}

func (i instruments) countHandled(command string) {
	i.handled.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("command", command)))
}

func (i instruments) countDropped(command string) {
	i.dropped.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("command", command)))
}
