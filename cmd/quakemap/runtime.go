package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/google/uuid"
	"github.com/quakeph/quakemap/internal/annotation"
	"github.com/quakeph/quakemap/internal/app"
	"github.com/quakeph/quakemap/internal/config"
	"github.com/quakeph/quakemap/internal/dispatcher"
	"github.com/quakeph/quakemap/internal/feed"
	"github.com/quakeph/quakemap/internal/geo"
	"github.com/quakeph/quakemap/internal/handlers"
	"github.com/quakeph/quakemap/internal/influx"
	"github.com/quakeph/quakemap/internal/logging"
	"github.com/quakeph/quakemap/internal/otel"
	"github.com/quakeph/quakemap/internal/parser"
	"github.com/quakeph/quakemap/internal/storage"
	"github.com/quakeph/quakemap/internal/surface"
	"github.com/rs/zerolog"
)

type runtimeOptions struct {
	ConfigDir string
	Confirm   bool
	At        string
}

// runtime owns every component a command needs and closes them in reverse
// order of creation.
type runtime struct {
	logger     *slog.Logger
	logs       *logging.SlogManager
	otel       *otel.Provider
	metrics    *influx.Manager
	backend    storage.Backend
	app        *app.App
	surface    *surface.Headless
	dispatcher *dispatcher.Dispatcher
	parser     *parser.Parser
	refresher  *feed.Refresher
	feed       *feed.Client
	feedOpts   feed.Options

	closers []func() error
}

func setup(ctx context.Context, opts runtimeOptions) (rt *runtime, err error) {
	start := time.Now()
	rt = &runtime{}
	defer func() {
		if err != nil {
			rt.Close()
			rt = nil
		}
	}()

	if err := config.Load(opts.ConfigDir); err != nil && !config.IsNotFound(err) {
		return rt, err
	}

	logsDir := config.GetString("logsDir")
	logFile, err := logging.OpenSessionLog(logsDir, logging.ServiceName, start)
	if err != nil {
		return rt, err
	}
	rt.closers = append(rt.closers, logFile.Close)

	// OTel logs go to their own file next to the text log.
	otelCfg := config.GetOTelConfig()
	var otelFile io.Writer
	if otelCfg.Enabled {
		f, err := logging.OpenSessionLog(logsDir, logging.ServiceName+".otel", start)
		if err != nil {
			return rt, err
		}
		rt.closers = append(rt.closers, f.Close)
		otelFile = f
	}
	storageCfg := config.GetStorageConfig()
	rt.otel, err = otel.New(otel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		Version:      Version,
		StorageType:  storageCfg.Type,
		SessionID:    uuid.NewString(),
		BatchTimeout: otelCfg.BatchTimeout,
		LogWriter:    otelFile,
		Endpoint:     otelCfg.Endpoint,
		Insecure:     otelCfg.Insecure,
	})
	if err != nil {
		return rt, err
	}

	var graylog io.Writer
	if config.GetBool("graylog.enabled") {
		w, err := gelf.NewWriter(config.GetString("graylog.address"))
		if err != nil {
			fmt.Fprintln(os.Stderr, "graylog disabled:", err)
		} else {
			rt.closers = append(rt.closers, w.Close)
			graylog = w
		}
	}

	var engine atomic.Pointer[app.App]
	rt.logs = logging.NewSlogManager()
	rt.logs.Setup(logging.Options{
		File:     logFile,
		Level:    config.GetString("logLevel"),
		Provider: rt.otel.LoggerProvider(),
		Graylog:  graylog,
		Context: func() []slog.Attr {
			if a := engine.Load(); a != nil {
				return a.LogAttrs()
			}
			return nil
		},
	})
	rt.logger = rt.logs.Logger()
	rt.logger.Info("Starting quakemap", "version", Version, "buildDate", BuildDate)

	influxCfg := config.GetInfluxConfig()
	if influxCfg.Enabled {
		zl := zerolog.New(logFile).With().Timestamp().Str("component", "influx").Logger()
		m := influx.NewManager(zl, logging.SessionFile(logsDir, logging.ServiceName+".influx", "lp.gz", start))
		if err := m.Connect(ctx, influxCfg); err != nil {
			rt.logger.Warn("InfluxDB unavailable, metrics disabled", "error", err)
		} else {
			rt.metrics = m
			rt.closers = append(rt.closers, m.Close)
		}
	}

	rt.backend, err = storage.NewBackend(storageCfg, config.GetDBConfig(), rt.logger)
	if err != nil {
		return rt, err
	}
	if err := rt.backend.Init(); err != nil {
		return rt, fmt.Errorf("failed to initialize %s storage: %w", storageCfg.Type, err)
	}
	rt.closers = append(rt.closers, rt.backend.Close)
	rt.logger.Info("Storage backend initialized", "type", storageCfg.Type)

	storeOpts := annotation.Options{Key: storageCfg.Key, Logger: rt.logger}
	if rt.metrics != nil {
		storeOpts.OnFlush = rt.metrics.RecordAnnotations
	}
	store := annotation.NewStore(rt.backend, storeOpts)

	styleCfg := config.GetStyleConfig()
	drawCfg := config.GetDrawConfig()
	rt.surface = surface.New(opts.Confirm)
	rt.app = app.New(store, rt.surface, app.Options{
		Style:            styleCfg.Style,
		TextStyle:        styleCfg.Text,
		HighlightColor:   styleCfg.HighlightColor,
		HitTolerance:     drawCfg.HitTolerance,
		RejectDegenerate: drawCfg.RejectDegenerate,
		Logger:           rt.logger,
		NewSessionID:     uuid.New,
	})
	engine.Store(rt.app)
	if err := rt.app.Load(); err != nil {
		rt.logger.Warn("Starting with an empty drawing list", "error", err)
	}

	feedCfg := config.GetFeedConfig()
	client := feed.New(feed.Config{QuakesURL: feedCfg.QuakesURL, FaultsURL: feedCfg.FaultsURL, Timeout: feedCfg.Timeout})
	refreshOpts := feed.Options{
		Interval:  feedCfg.RefreshInterval,
		ManualGap: feedCfg.ManualRefreshGap,
		Logger:    rt.logger,
	}
	if rt.metrics != nil {
		refreshOpts.Recorder = rt.metrics
	}
	rt.feed, rt.feedOpts = client, refreshOpts
	rt.refresher = feed.NewRefresher(client, rt.app, refreshOpts)

	rt.dispatcher, err = dispatcher.New(rt.logger)
	if err != nil {
		return rt, err
	}
	rt.closers = append(rt.closers, func() error { rt.dispatcher.Close(); return nil })

	var locator app.Geolocator
	if opts.At != "" {
		pos, err := geo.LatLngFromString(opts.At)
		if err != nil {
			return rt, fmt.Errorf("invalid --at: %w", err)
		}
		locator = surface.FixedLocator{At: pos}
	}

	rt.parser = parser.NewParser(rt.logger)
	handlers.NewService(handlers.Dependencies{
		App:        rt.app,
		Parser:     rt.parser,
		Refresher:  rt.refresher,
		Geolocator: locator,
		ExportDir:  config.GetString("export.dir"),
		Logger:     rt.logger,
		Timeout:    feedCfg.Timeout,
	}).RegisterHandlers(rt.dispatcher)
	rt.logger.Debug("Command handlers registered", "commands", len(rt.dispatcher.Commands()))

	return rt, nil
}

// Close releases everything setup created. It is safe to call on a partly
// built runtime.
func (rt *runtime) Close() error {
	var errs []error
	if rt.otel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if rt.logs != nil {
			errs = append(errs, rt.logs.Flush(ctx))
		}
		errs = append(errs, rt.otel.Shutdown(ctx))
		cancel()
	}
	if rt.logs != nil {
		for name, n := range rt.logs.Failures() {
			fmt.Fprintf(os.Stderr, "quakemap: %d log record(s) could not be written to %s\n", n, name)
		}
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i]())
	}
	rt.closers = nil
	return errors.Join(errs...)
}
