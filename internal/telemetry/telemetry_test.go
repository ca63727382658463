package telemetry_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/dogmatiq/permitkv/internal/telemetry"
	nooplog "go.opentelemetry.io/otel/log/noop"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

func TestRecorder(t *testing.T) {
	t.Parallel()

	t.Run("it accepts explicit providers", func(t *testing.T) {
		t.Parallel()

		p := Provider{
			TracerProvider: nooptrace.NewTracerProvider(),
			MeterProvider:  noopmetric.NewMeterProvider(),
			LoggerProvider: nooplog.NewLoggerProvider(),
		}

		exercise(t, p.Recorder("<pkg>", String("component", "<test>")))
	})

	t.Run("it falls back to no-op providers", func(t *testing.T) {
		t.Parallel()

		var p Provider
		exercise(t, p.Recorder("<pkg>"))
	})
}

func exercise(t *testing.T, r *Recorder) {
	t.Helper()

	ctx, span := r.StartSpan(
		context.Background(),
		"<operation>",
		String("key", "<key>"),
		Int("size", 10),
		Bool("present", true),
		Float("ratio", 0.5),
		Binary("payload", []byte{0, 1, 2}),
		If(false, String("skipped", "<value>")),
	)
	defer span.End()

	span.SetAttributes(Bool("done", true))

	r.Counter("<counter>", "{thing}", "<desc>")(ctx, 1)
	r.UpDownCounter("<updown>", "{thing}", "<desc>")(ctx, -1)
	r.Histogram("<histogram>", "By", "<desc>")(ctx, 42, ReadDirection)

	r.Info(ctx, "<event>", "<message>", String("key", "<key>"))
	r.Error(ctx, "<event>.error", "<message>", errors.New("<error>"))
}
