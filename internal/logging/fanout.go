package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Sink names used by SlogManager.
const (
	SinkFile    = "file"
	SinkGraylog = "graylog"
	SinkOTel    = "otel"
)

type sink struct {
	name    string
	handler slog.Handler
	failed  *atomic.Uint64
}

// Fanout delivers each record to every named sink that accepts its level.
// A sink that fails to write does not stop delivery to the others; the
// failure is counted against the sink and returned from Handle.
type Fanout struct {
	sinks []sink
}

// NewFanout returns an empty Fanout. Add sinks with Add before logging.
func NewFanout() *Fanout {
	return &Fanout{}
}

// Add registers h under name. A nil handler is ignored so optional outputs
// can be passed straight through.
func (f *Fanout) Add(name string, h slog.Handler) *Fanout {
	if h != nil {
		f.sinks = append(f.sinks, sink{name: name, handler: h, failed: new(atomic.Uint64)})
	}
	return f
}

// Sinks lists the registered sink names in delivery order.
func (f *Fanout) Sinks() []string {
	names := make([]string, len(f.sinks))
	for i, s := range f.sinks {
		names[i] = s.name
	}
	return names
}

// Failures reports how many records each sink failed to write. Sinks that
// never failed are omitted. Counters are shared with handlers derived
// through WithAttrs and WithGroup.
func (f *Fanout) Failures() map[string]uint64 {
	out := make(map[string]uint64)
	for _, s := range f.sinks {
		if n := s.failed.Load(); n > 0 {
			out[s.name] = n
		}
	}
	return out
}

func (f *Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range f.sinks {
		if s.handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *Fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range f.sinks {
		if !s.handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := s.handler.Handle(ctx, r.Clone()); err != nil {
			s.failed.Add(1)
			errs = append(errs, fmt.Errorf("%s sink: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *Fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *Fanout) derive(fn func(slog.Handler) slog.Handler) *Fanout {
	sinks := make([]sink, len(f.sinks))
	for i, s := range f.sinks {
		sinks[i] = sink{name: s.name, handler: fn(s.handler), failed: s.failed}
	}
	return &Fanout{sinks: sinks}
}
