package systems

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/spaghettifunk/showroom/engine/systems"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Telemetry records loading metrics on the global OTel meter provider
// (a no-op until the host installs one).
type Telemetry struct {
	started  metric.Int64Counter
	loaded   metric.Int64Counter
	failed   metric.Int64Counter
	bytes    metric.Int64Counter
	duration metric.Float64Histogram
	live     metric.Int64ObservableGauge
	frames   metric.Int64Counter
}

// NewTelemetry creates the instruments. liveCount, when set, is observed as
// the number of objects currently in the scene.
func NewTelemetry(liveCount func() int) (*Telemetry, error) {
	m := meter()
	t := &Telemetry{}

	var err error
	t.started, err = m.Int64Counter(
		"showroom.loads.started",
		metric.WithDescription("Asset loads started"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating started counter: %w", err)
	}

	t.loaded, err = m.Int64Counter(
		"showroom.loads.completed",
		metric.WithDescription("Asset loads inserted into the scene"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating completed counter: %w", err)
	}

	t.failed, err = m.Int64Counter(
		"showroom.loads.failed",
		metric.WithDescription("Asset loads that failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	t.bytes, err = m.Int64Counter(
		"showroom.loads.bytes",
		metric.WithDescription("Bytes transferred by successful loads"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating bytes counter: %w", err)
	}

	t.duration, err = m.Float64Histogram(
		"showroom.loads.duration",
		metric.WithDescription("Time from load start to parsed asset"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	t.frames, err = m.Int64Counter(
		"showroom.frames",
		metric.WithDescription("Frames rendered"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frames counter: %w", err)
	}

	if liveCount != nil {
		t.live, err = m.Int64ObservableGauge(
			"showroom.scene.objects",
			metric.WithDescription("Loaded objects in the scene"),
		)
		if err != nil {
			return nil, fmt.Errorf("creating live objects gauge: %w", err)
		}
		_, err = m.RegisterCallback(
			func(ctx context.Context, o metric.Observer) error {
				o.ObserveInt64(t.live, int64(liveCount()))
				return nil
			},
			t.live,
		)
		if err != nil {
			return nil, fmt.Errorf("registering live objects callback: %w", err)
		}
	}

	return t, nil
}

func kindAttr(kind string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("kind", kind))
}

func (t *Telemetry) LoadStarted(kind string) {
	if t == nil {
		return
	}
	t.started.Add(context.Background(), 1, kindAttr(kind))
}

func (t *Telemetry) LoadCompleted(kind string, size int64, took time.Duration) {
	if t == nil {
		return
	}
	ctx := context.Background()
	t.loaded.Add(ctx, 1, kindAttr(kind))
	t.bytes.Add(ctx, size, kindAttr(kind))
	t.duration.Record(ctx, took.Seconds(), kindAttr(kind))
}

func (t *Telemetry) LoadFailed(kind string) {
	if t == nil {
		return
	}
	t.failed.Add(context.Background(), 1, kindAttr(kind))
}

func (t *Telemetry) FrameRendered() {
	if t == nil {
		return
	}
	t.frames.Add(context.Background(), 1)
}
