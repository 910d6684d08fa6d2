package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/felixgeelhaar/pathfinder/domain/config"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.ServiceName != "pathfinder" || cfg.Exporter != ExporterNone || cfg.SampleRate != 1.0 {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
}

func TestNew_Disabled(t *testing.T) {
	t.Parallel()

	p, err := New(context.Background())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.Enabled() {
		t.Error("Enabled() = true with no exporter")
	}
	if p.Tracer("test") == nil {
		t.Error("Tracer() returned nil")
	}
	if err := p.ForceFlush(context.Background()); err != nil {
		t.Errorf("ForceFlush() error = %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNew_UnknownExporter(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), func(c *Config) { c.Exporter = "zipkin" })
	if !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("New() error = %v, want ErrUnknownExporter", err)
	}
}

func TestNew_StdoutExportsSpans(t *testing.T) {
	buf := &bytes.Buffer{}
	p, err := New(context.Background(), WithServiceName("pathfinder-test"), WithStdout(buf))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, span := p.Tracer("test").Start(context.Background(), "navigator.move")
	span.End()

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !strings.Contains(buf.String(), "navigator.move") {
		t.Errorf("span not exported: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "pathfinder-test") {
		t.Errorf("service name missing from resource: %s", buf.String())
	}
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tc   config.TelemetryConfig
		want ExporterType
	}{
		{"none", config.TelemetryConfig{Exporter: "none", SampleRate: 1}, ExporterNone},
		{"stdout", config.TelemetryConfig{Exporter: "stdout", SampleRate: 1}, ExporterStdout},
		{"otlp", config.TelemetryConfig{Exporter: "otlp", Endpoint: "collector:4317", Insecure: true, SampleRate: 0.5}, ExporterOTLP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			for _, opt := range FromConfig(tt.tc) {
				opt(&cfg)
			}
			if cfg.Exporter != tt.want {
				t.Errorf("Exporter = %s, want %s", cfg.Exporter, tt.want)
			}
			if cfg.SampleRate != tt.tc.SampleRate {
				t.Errorf("SampleRate = %v, want %v", cfg.SampleRate, tt.tc.SampleRate)
			}
			if tt.want == ExporterOTLP && (cfg.Endpoint != "collector:4317" || !cfg.Insecure) {
				t.Errorf("otlp settings not applied: %+v", cfg)
			}
		})
	}
}

func TestInstruments(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"global", "noop"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var meter metric.Meter
			if name == "noop" {
				meter = noop.NewMeterProvider().Meter("test")
			}
			inst, err := NewInstruments(meter)
			if err != nil {
				t.Fatalf("NewInstruments() error = %v", err)
			}
			inst.RecordMove(context.Background(), "RIGHT", "stepping", 8, 1.5)
			inst.RecordFieldSet(context.Background(), "reset")
		})
	}
}

func TestInstruments_RecordsMovesByDirection(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	inst, err := NewInstruments(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewInstruments() error = %v", err)
	}

	ctx := context.Background()
	inst.RecordMove(ctx, "RIGHT", "stepping", 4, 1)
	inst.RecordMove(ctx, "RIGHT", "stepping", 2, 1)
	inst.RecordMove(ctx, "ERROR", "unreachable", 9, 1)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "pathfinder.moves" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("pathfinder.moves is %T, want Sum[int64]", m.Data)
			}
			for _, dp := range sum.DataPoints {
				dir, _ := dp.Attributes.Value(attribute.Key("direction"))
				got[dir.AsString()] += dp.Value
			}
		}
	}

	if got["RIGHT"] != 2 || got["ERROR"] != 1 {
		t.Errorf("moves by direction = %v, want RIGHT:2 ERROR:1", got)
	}
}

func TestInstruments_ObserveSnapshot(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	inst, err := NewInstruments(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewInstruments() error = %v", err)
	}

	snap := Snapshot{PoolPending: 3, PoolStarted: 10, PoolCompleted: 8, PoolFailed: 1, StoreGets: 5, StoreHits: 4, StorePuts: 2, StoreKeys: 1}
	reg, err := inst.ObserveSnapshot(func() Snapshot { return snap })
	if err != nil {
		t.Fatalf("ObserveSnapshot() error = %v", err)
	}

	ctx := context.Background()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	var pending, keys int64
	jobs := map[string]int64{}
	ops := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "pathfinder.pool.pending":
				gauge, ok := m.Data.(metricdata.Gauge[int64])
				if !ok {
					t.Fatalf("pathfinder.pool.pending is %T, want Gauge[int64]", m.Data)
				}
				for _, dp := range gauge.DataPoints {
					pending += dp.Value
				}
			case "pathfinder.store.keys":
				gauge, ok := m.Data.(metricdata.Gauge[int64])
				if !ok {
					t.Fatalf("pathfinder.store.keys is %T, want Gauge[int64]", m.Data)
				}
				for _, dp := range gauge.DataPoints {
					keys += dp.Value
				}
			case "pathfinder.pool.jobs", "pathfinder.store.ops":
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok {
					t.Fatalf("%s is %T, want Sum[int64]", m.Name, m.Data)
				}
				for _, dp := range sum.DataPoints {
					if status, ok := dp.Attributes.Value(attribute.Key("status")); ok {
						jobs[status.AsString()] = dp.Value
					}
					if op, ok := dp.Attributes.Value(attribute.Key("op")); ok {
						ops[op.AsString()] = dp.Value
					}
				}
			}
		}
	}

	if pending != 3 || keys != 1 {
		t.Errorf("pending = %d, keys = %d, want 3, 1", pending, keys)
	}
	if jobs["started"] != 10 || jobs["completed"] != 8 || jobs["failed"] != 1 {
		t.Errorf("jobs = %v", jobs)
	}
	if ops["get"] != 5 || ops["hit"] != 4 || ops["put"] != 2 {
		t.Errorf("ops = %v", ops)
	}

	if err := reg.Unregister(); err != nil {
		t.Errorf("Unregister() error = %v", err)
	}
}
