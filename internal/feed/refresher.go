package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quakeph/quakemap/internal/cache"
	"github.com/quakeph/quakemap/pkg/core"
	"golang.org/x/time/rate"
)

const (
	DefaultRefreshInterval  = 5 * time.Minute
	DefaultManualRefreshGap = 10 * time.Second
)

var (
	// ErrRefreshInProgress is returned when a refresh is requested while one is running.
	ErrRefreshInProgress = errors.New("refresh already in progress")
	// ErrRefreshThrottled is returned when manual refreshes arrive faster than the configured gap.
	ErrRefreshThrottled = errors.New("refresh requested too soon")
)

// Source fetches both feeds.
type Source interface {
	Quakes(ctx context.Context) ([]core.Quake, error)
	Faults(ctx context.Context) ([]core.FaultLine, error)
}

// Sink receives decoded feed results. ApplyQuakes reports whether the
// generation was applied.
type Sink interface {
	ApplyQuakes(gen uint64, quakes []core.Quake) bool
	ApplyFaults(faults []core.FaultLine)
	FeedFailed(what string, err error)
}

// Recorder receives one sample per quake refresh.
type Recorder interface {
	RecordRefresh(ctx context.Context, r Refresh)
}

// Refresh describes one completed quake fetch.
type Refresh struct {
	Generation uint64
	Count      int
	New        int
	Took       time.Duration
	Err        error
}

type Options struct {
	Interval  time.Duration
	ManualGap time.Duration
	Cache     *cache.QuakeCache
	Recorder  Recorder
	Logger    *slog.Logger
}

// Refresher keeps the sink up to date with the earthquake feed.
type Refresher struct {
	source   Source
	sink     Sink
	interval time.Duration
	limiter  *rate.Limiter
	cache    *cache.QuakeCache
	recorder Recorder
	logger   *slog.Logger

	inFlight atomic.Bool
	gen      atomic.Uint64
	faults   sync.Once
}

func NewRefresher(source Source, sink Sink, opts Options) *Refresher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultRefreshInterval
	}
	limit := rate.Inf
	if opts.ManualGap > 0 {
		limit = rate.Every(opts.ManualGap)
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewQuakeCache()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Refresher{
		source:   source,
		sink:     sink,
		interval: opts.Interval,
		limiter:  rate.NewLimiter(limit, 1),
		cache:    opts.Cache,
		recorder: opts.Recorder,
		logger:   opts.Logger,
	}
}

// Run loads fault lines once, then refreshes quakes immediately and on every
// tick until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	r.LoadFaults(ctx)
	if err := r.Refresh(ctx); err != nil && !errors.Is(err, ErrRefreshInProgress) {
		r.logger.Debug("Initial refresh failed", "error", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil && !errors.Is(err, ErrRefreshInProgress) {
				r.logger.Debug("Scheduled refresh failed", "error", err)
			}
		}
	}
}

// RefreshNow is the manual refresh. It is throttled to one call per gap.
func (r *Refresher) RefreshNow(ctx context.Context) error {
	if !r.limiter.Allow() {
		return ErrRefreshThrottled
	}
	return r.Refresh(ctx)
}

// Refresh fetches the quake feed and hands it to the sink. A call made while
// another is running returns ErrRefreshInProgress without fetching.
func (r *Refresher) Refresh(ctx context.Context) error {
	if !r.inFlight.CompareAndSwap(false, true) {
		return ErrRefreshInProgress
	}
	defer r.inFlight.Store(false)

	gen := r.gen.Add(1)
	start := time.Now()
	quakes, err := r.source.Quakes(ctx)
	sample := Refresh{Generation: gen, Took: time.Since(start), Err: err}
	if err != nil {
		r.logger.Error("Failed to load earthquake data", "error", err, "generation", gen)
		r.sink.FeedFailed("earthquake", err)
		r.record(ctx, sample)
		return err
	}

	added := r.cache.Put(quakes)
	sample.Count = len(quakes)
	sample.New = len(added)
	if r.sink.ApplyQuakes(gen, quakes) {
		r.logger.Info("Earthquake feed refreshed", "count", len(quakes), "new", len(added), "cached", r.cache.Len(), "generation", gen)
	} else {
		r.logger.Debug("Stale earthquake result dropped", "generation", gen)
	}
	r.record(ctx, sample)
	return nil
}

// LoadFaults fetches the fault lines the first time it is called. A failure is
// logged only and a later call does not retry.
func (r *Refresher) LoadFaults(ctx context.Context) {
	r.faults.Do(func() {
		faults, err := r.source.Faults(ctx)
		if err != nil {
			r.logger.Error("Error loading fault lines", "error", err)
			return
		}
		r.sink.ApplyFaults(faults)
		r.logger.Info("Fault lines loaded", "count", len(faults))
	})
}

// Generation is the number of refreshes started so far.
func (r *Refresher) Generation() uint64 {
	return r.gen.Load()
}

func (r *Refresher) record(ctx context.Context, s Refresh) {
	if r.recorder != nil {
		r.recorder.RecordRefresh(ctx, s)
	}
}
