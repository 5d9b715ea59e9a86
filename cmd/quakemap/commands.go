package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/quakeph/quakemap/internal/app"
	"github.com/quakeph/quakemap/internal/config"
	"github.com/quakeph/quakemap/internal/feed"
	"github.com/quakeph/quakemap/internal/surface"
	"github.com/quakeph/quakemap/internal/util"
	"github.com/quakeph/quakemap/pkg/core"
)

// replay runs command scripts: one command per line, space separated, with
// double quotes around arguments that contain spaces and # for comments.
func (rt *runtime) replay(ctx context.Context, paths []string, stdin io.Reader, out io.Writer) error {
	if len(paths) == 0 {
		return fmt.Errorf("%w: replay needs a script", errUsage)
	}

	var total, failed int
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, f, err := rt.replayFile(path, stdin, out)
		total += n
		failed += f
		if err != nil {
			return err
		}
	}

	// drain buffered commands before reporting
	rt.dispatcher.Close()

	for _, n := range rt.app.Notices().History() {
		fmt.Fprintf(out, "[%s] %s\n", n.Level, n.Message)
	}
	if err := rt.list(out); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%s, %d failed\n", util.Plural(total, "command"), failed)
	return err
}

func (rt *runtime) replayFile(path string, stdin io.Reader, out io.Writer) (total, failed int, err error) {
	src := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		src = f
	}

	r := csv.NewReader(src)
	r.Comma = ' '
	r.Comment = '#'
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return total, failed, nil
		}
		total++
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s: %v\n", path, err)
			continue
		}
		line, _ := r.FieldPos(0)

		ev, err := rt.parser.ParseRecord(record)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s:%d: %v\n", path, line, err)
			continue
		}
		if _, err := rt.dispatcher.Dispatch(ev); err != nil {
			failed++
			fmt.Fprintf(out, "%s:%d: %s: %v\n", path, line, ev.Command, err)
		}
	}
}

func (rt *runtime) export(args []string, out io.Writer) error {
	dir := config.GetString("export.dir")
	if len(args) > 0 {
		dir = args[0]
	}
	path, err := rt.app.Export(dir)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, path)
	return err
}

func (rt *runtime) list(out io.Writer) error {
	if len(rt.app.ListEntries()) == 0 {
		_, err := fmt.Fprintln(out, "No drawings")
		return err
	}
	return rt.surface.Render(out)
}

func (rt *runtime) quakes(ctx context.Context, out io.Writer) error {
	if err := rt.refresher.Refresh(ctx); err != nil {
		return err
	}
	return rt.surface.RenderQuakes(out, rt.app.Quakes())
}

// watch refreshes on the configured interval and prints every update until
// ctx is canceled.
func (rt *runtime) watch(ctx context.Context, out io.Writer) error {
	r := feed.NewRefresher(rt.feed, watchSink{App: rt.app, surface: rt.surface, out: out}, rt.feedOpts)
	fmt.Fprintln(out, "Watching the earthquake feed, press Ctrl-C to stop")
	return r.Run(ctx)
}

type watchSink struct {
	*app.App
	surface *surface.Headless
	out     io.Writer
}

func (s watchSink) ApplyQuakes(gen uint64, quakes []core.Quake) bool {
	if !s.App.ApplyQuakes(gen, quakes) {
		return false
	}
	fmt.Fprintf(s.out, "%s  %s\n", s.App.LastUpdate().UTC().Format(time.RFC3339), util.Plural(len(quakes), "earthquake"))
	_ = s.surface.RenderQuakes(s.out, s.App.Quakes())
	return true
}

func (s watchSink) FeedFailed(what string, err error) {
	s.App.FeedFailed(what, err)
	fmt.Fprintf(s.out, "Failed to load %s data: %v\n", what, err)
}
