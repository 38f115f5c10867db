// Package engine is the composition root for observed values. An Engine
// owns one event.Context and the diagnostics wiring, and creates values and
// slices bound to that context.
//
//	e, err := engine.New(&cfg)
//	items := engine.NewSlice(e, []string{"a", "b"})
//	items.PushBack("c")
//	e.Flush()
package engine

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tailored-agentic-units/reactive/event"
	"github.com/tailored-agentic-units/reactive/observability"
	"github.com/tailored-agentic-units/reactive/observed"
)

const source = "engine.Engine"

// Option configures an Engine. Options run before the config-driven
// defaults fill in whatever they left unset.
type Option func(*Engine)

// WithObserver overrides the config-selected observer.
func WithObserver(o observability.Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithLogger sets the logger used when the config selects the slog observer.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRegisterer additionally counts every event in a Prometheus counter
// registered with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(e *Engine) { e.registerer = reg }
}

// Engine binds observed values to a shared event context.
type Engine struct {
	ctx        *event.Context
	observer   observability.Observer
	logger     *slog.Logger
	registerer prometheus.Registerer
	prometheus *observability.PrometheusObserver
	observed   observed.Config
}

// New creates an Engine from configuration.
func New(cfg *Config, opts ...Option) (*Engine, error) {
	e := &Engine{observed: cfg.Observed}
	for _, opt := range opts {
		opt(e)
	}

	if e.observer == nil {
		obs, err := newObserver(cfg, e.logger)
		if err != nil {
			return nil, err
		}
		e.observer = obs
	}

	if e.registerer != nil {
		prom, err := observability.NewPrometheusObserver(e.registerer, cfg.MetricsNamespace)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics observer: %w", err)
		}
		e.prometheus = prom
		e.observer = observability.NewMultiObserver(e.observer, prom)
	}

	e.ctx = event.NewContext(event.WithObserver(e.observer))

	observability.Emit(e.observer, EventStart, observability.LevelInfo, source, map[string]any{
		"context_id":     e.ctx.ID(),
		"observer":       cfg.Observer,
		"instant_update": e.observed.InstantUpdate,
	})
	return e, nil
}

// Context returns the event context shared by every value of the engine.
func (e *Engine) Context() *event.Context {
	return e.ctx
}

func (e *Engine) Observer() observability.Observer {
	return e.observer
}

// Prometheus returns the metrics observer, or nil without WithRegisterer.
func (e *Engine) Prometheus() *observability.PrometheusObserver {
	return e.prometheus
}

// ObservedConfig returns the defaults applied to new values.
func (e *Engine) ObservedConfig() observed.Config {
	return e.observed
}

// Flush drains the pending events. It reports false when called from inside
// a running event.
func (e *Engine) Flush() bool {
	return e.ctx.ExecuteActiveEventsImmediately()
}

// Clean prunes events whose subscribers are gone and returns how many were
// removed.
func (e *Engine) Clean() int {
	removed := e.ctx.CleanInvalidEvents()
	observability.Emit(e.observer, EventClean, observability.LevelVerbose, source, map[string]any{
		"context_id": e.ctx.ID(),
		"removed":    removed,
	})
	return removed
}

func (e *Engine) Metrics() event.MetricsSnapshot {
	return e.ctx.Metrics()
}

// NewValue creates an observed value bound to e. opts apply on top of the
// engine's observed config.
func NewValue[T any](e *Engine, value T, opts ...observed.Option) *observed.Value[T] {
	return observed.NewValue(e.ctx, value, e.valueOptions(opts)...)
}

// NewSlice creates an observed slice bound to e.
func NewSlice[T any](e *Engine, values []T, opts ...observed.Option) *observed.Slice[T] {
	return observed.NewSlice(e.ctx, values, e.valueOptions(opts)...)
}

func (e *Engine) valueOptions(opts []observed.Option) []observed.Option {
	return append([]observed.Option{observed.WithConfig(e.observed)}, opts...)
}

func newObserver(cfg *Config, logger *slog.Logger) (observability.Observer, error) {
	if cfg.Observer != "" && cfg.Observer != defaultObserver {
		obs, err := observability.GetObserver(cfg.Observer)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observer: %w", err)
		}
		return obs, nil
	}

	if logger == nil {
		l, err := NewLogger(cfg, os.Stderr)
		if err != nil {
			return nil, err
		}
		logger = l
	}
	return observability.NewSlogObserver(logger), nil
}

// NewLogger builds a slog.Logger writing to w at the configured level and
// format ("text" or "json").
func NewLogger(cfg *Config, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if cfg.LogLevel != "" {
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.LogLevel, ErrInvalidLogLevel)
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.LogFormat) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log format %q: %w", cfg.LogFormat, ErrUnknownLogFormat)
	}
}
