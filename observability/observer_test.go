package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tailored-agentic-units/reactive/observability"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		name  string
		level observability.Level
		want  string
	}{
		{name: "trace range", level: 1, want: "TRACE"},
		{name: "verbose maps to DEBUG", level: observability.LevelVerbose, want: "DEBUG"},
		{name: "info maps to INFO", level: observability.LevelInfo, want: "INFO"},
		{name: "warning maps to WARN", level: observability.LevelWarning, want: "WARN"},
		{name: "error maps to ERROR", level: observability.LevelError, want: "ERROR"},
		{name: "fatal range", level: 21, want: "FATAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
			}
		})
	}
}

func TestLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level observability.Level
		want  slog.Level
	}{
		{name: "verbose maps to Debug", level: observability.LevelVerbose, want: slog.LevelDebug},
		{name: "info maps to Info", level: observability.LevelInfo, want: slog.LevelInfo},
		{name: "warning maps to Warn", level: observability.LevelWarning, want: slog.LevelWarn},
		{name: "error maps to Error", level: observability.LevelError, want: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.SlogLevel(); got != tt.want {
				t.Errorf("Level(%d).SlogLevel() = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestEmit_NilObserver(t *testing.T) {
	observability.Emit(nil, "range.rejected", observability.LevelWarning, "test", nil)
}

func TestEmit_StampsTimestamp(t *testing.T) {
	counter := observability.NewCountingObserver()
	before := time.Now()

	observability.Emit(counter, "event.drain", observability.LevelVerbose, "event.Context", map[string]any{"executed": 2})

	got, ok := counter.Last("event.drain")
	if !ok {
		t.Fatal("Last(event.drain) missing")
	}
	if got.Timestamp.Before(before) {
		t.Errorf("Timestamp %v precedes emit time %v", got.Timestamp, before)
	}
	if got.Source != "event.Context" {
		t.Errorf("Source = %q, want %q", got.Source, "event.Context")
	}
	if got.Data["executed"] != 2 {
		t.Errorf("Data[executed] = %v, want 2", got.Data["executed"])
	}
}

func TestMultiObserver_NilFiltering(t *testing.T) {
	a := observability.NewCountingObserver()
	b := observability.NewCountingObserver()

	multi := observability.NewMultiObserver(nil, a, nil, b)
	if multi.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", multi.Len())
	}

	multi.OnEvent(context.Background(), observability.Event{Type: "observed.update"})

	if a.Count("observed.update") != 1 || b.Count("observed.update") != 1 {
		t.Errorf("counts = %d, %d, want 1, 1", a.Count("observed.update"), b.Count("observed.update"))
	}
}

type panicObserver struct{}

func (panicObserver) OnEvent(context.Context, observability.Event) { panic("sink down") }

func TestMultiObserver_IsolatesPanics(t *testing.T) {
	after := observability.NewCountingObserver()

	multi := observability.NewMultiObserver(observability.NoOpObserver{}, panicObserver{}, after)
	if multi.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (noop dropped)", multi.Len())
	}

	multi.OnEvent(context.Background(), observability.Event{Type: "observed.flush"})

	if after.Count("observed.flush") != 1 {
		t.Errorf("observer after a panicking one got %d events, want 1", after.Count("observed.flush"))
	}
}

func TestSlogObserver_LevelMapping(t *testing.T) {
	tests := []struct {
		name      string
		level     observability.Level
		minLevel  slog.Level
		expectLog bool
	}{
		{name: "verbose at debug handler", level: observability.LevelVerbose, minLevel: slog.LevelDebug, expectLog: true},
		{name: "verbose at info handler", level: observability.LevelVerbose, minLevel: slog.LevelInfo, expectLog: false},
		{name: "warning at warn handler", level: observability.LevelWarning, minLevel: slog.LevelWarn, expectLog: true},
		{name: "warning at error handler", level: observability.LevelWarning, minLevel: slog.LevelError, expectLog: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: tt.minLevel}))

			obs := observability.NewSlogObserver(logger)
			obs.OnEvent(context.Background(), observability.Event{
				Type:   "observed.retry.anomaly",
				Level:  tt.level,
				Source: "observed.Slice",
			})

			if hasOutput := buf.Len() > 0; hasOutput != tt.expectLog {
				t.Errorf("log output = %v, want %v (buf: %q)", hasOutput, tt.expectLog, buf.String())
			}
		})
	}
}

func TestSlogObserver_Attributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	obs := observability.NewSlogObserver(logger)
	obs.OnEvent(context.Background(), observability.Event{
		Type:   "range.rejected",
		Level:  observability.LevelWarning,
		Source: "rangediff.Context",
		Data:   map[string]any{"low": 4, "high": 2},
	})

	output := buf.String()
	for _, want := range []string{"range.rejected", "source=rangediff.Context", "high=2", "low=4"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q: %s", want, output)
		}
	}
	if strings.Index(output, "high=2") > strings.Index(output, "low=4") {
		t.Errorf("attributes not sorted: %s", output)
	}
}

func TestCountingObserver_Reset(t *testing.T) {
	c := observability.NewCountingObserver()
	c.OnEvent(context.Background(), observability.Event{Type: "a"})
	c.OnEvent(context.Background(), observability.Event{Type: "a"})
	c.OnEvent(context.Background(), observability.Event{Type: "b"})

	snap := c.Snapshot()
	if snap["a"] != 2 || snap["b"] != 1 {
		t.Errorf("Snapshot() = %v, want a=2 b=1", snap)
	}

	c.Reset()
	if c.Count("a") != 0 {
		t.Errorf("Count(a) after Reset = %d, want 0", c.Count("a"))
	}
	if _, ok := c.Last("b"); ok {
		t.Error("Last(b) after Reset should be missing")
	}
}

func TestPrometheusObserver_CountsByTypeAndLevel(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := observability.NewPrometheusObserver(reg, "reactive")
	if err != nil {
		t.Fatalf("NewPrometheusObserver() error = %v", err)
	}

	for range 3 {
		obs.OnEvent(context.Background(), observability.Event{Type: "event.drain", Level: observability.LevelVerbose})
	}
	obs.OnEvent(context.Background(), observability.Event{Type: "observed.retry.anomaly", Level: observability.LevelWarning})

	if got := testutil.ToFloat64(obs.Counter("event.drain", observability.LevelVerbose)); got != 3 {
		t.Errorf("event.drain counter = %v, want 3", got)
	}
	if got := testutil.ToFloat64(obs.Counter("observed.retry.anomaly", observability.LevelWarning)); got != 1 {
		t.Errorf("retry anomaly counter = %v, want 1", got)
	}
}

func TestPrometheusObserver_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := observability.NewPrometheusObserver(reg, "dup"); err != nil {
		t.Fatalf("first registration error = %v", err)
	}
	if _, err := observability.NewPrometheusObserver(reg, "dup"); err == nil {
		t.Error("second registration should fail")
	}
}

func TestRegistry_GetObserver(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "noop exists", key: "noop"},
		{name: "slog exists", key: "slog"},
		{name: "unknown fails", key: "nonexistent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := observability.GetObserver(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetObserver(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if !tt.wantErr && obs == nil {
				t.Errorf("GetObserver(%q) returned nil observer", tt.key)
			}
		})
	}
}

func TestRegistry_RegisterAndList(t *testing.T) {
	custom := observability.NewCountingObserver()
	observability.RegisterObserver("test-counting", custom)

	obs, err := observability.GetObserver("test-counting")
	if err != nil {
		t.Fatalf("GetObserver failed: %v", err)
	}
	obs.OnEvent(context.Background(), observability.Event{Type: "x"})
	if custom.Count("x") != 1 {
		t.Errorf("Count(x) = %d, want 1", custom.Count("x"))
	}

	found := false
	for _, name := range observability.ObserverNames() {
		if name == "test-counting" {
			found = true
		}
	}
	if !found {
		t.Errorf("ObserverNames() = %v, missing test-counting", observability.ObserverNames())
	}
}
