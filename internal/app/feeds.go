package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/quakeph/quakemap/pkg/core"
)

const (
	quakeZoom    = 8
	locateZoom   = 10
	minFocusZoom = 5
	maxFocusZoom = 15
)

// ApplyQuakes replaces the earthquake overlay with the result of refresh
// generation gen. Results older than the last applied one are dropped.
func (a *App) ApplyQuakes(gen uint64, quakes []core.Quake) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen <= a.quakeGen && a.quakeGen != 0 {
		a.log.Debug("Dropping stale quake feed", "generation", gen, "applied", a.quakeGen)
		return false
	}
	a.quakeGen = gen
	a.quakes = slices.Clone(quakes)
	a.lastUpdate = a.now()
	a.surface.ShowQuakes(a.quakes)
	a.surface.SetLastUpdate(a.lastUpdate)
	return true
}

// LastUpdate returns when the quake overlay was last replaced, zero before
// the first successful refresh.
func (a *App) LastUpdate() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastUpdate
}

// ApplyFaults replaces the fault-line overlay.
func (a *App) ApplyFaults(faults []core.FaultLine) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.faults = slices.Clone(faults)
	a.surface.ShowFaults(a.faults)
}

// FeedFailed reports a feed error to the user.
func (a *App) FeedFailed(what string, err error) {
	a.log.Error("Feed refresh failed", "feed", what, "error", err)
	a.notices.Error(fmt.Sprintf("Failed to load %s data. Please try again.", what))
}

// Quakes returns the current events, strongest first.
func (a *App) Quakes() []core.Quake {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := slices.Clone(a.quakes)
	slices.SortStableFunc(out, func(x, y core.Quake) int {
		return cmp.Compare(y.Magnitude, x.Magnitude)
	})
	return out
}

// Faults returns the loaded plate boundaries.
func (a *App) Faults() []core.FaultLine {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.faults)
}

// FocusQuake centers the map on an event from the quake list.
func (a *App) FocusQuake(id string) (core.Quake, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := slices.IndexFunc(a.quakes, func(q core.Quake) bool { return q.ID == id })
	if i < 0 {
		return core.Quake{}, fmt.Errorf("%w: quake %q", core.ErrNotFound, id)
	}
	q := a.quakes[i]
	a.surface.FlyTo(q.At, quakeZoom)
	a.highlight(q.ID)
	return q, nil
}

// highlight lights up one quake marker and schedules its reset. A marker
// still lit from an earlier focus is reset first.
func (a *App) highlight(id string) {
	if a.unlight != nil {
		a.unlight.Stop()
		a.surface.HighlightQuake(a.lit, false)
	}
	a.lit = id
	a.surface.HighlightQuake(id, true)

	var t *time.Timer
	t = time.AfterFunc(a.highlightFor, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		// a newer focus owns the highlight now
		if a.unlight != t {
			return
		}
		a.surface.HighlightQuake(a.lit, false)
		a.lit = ""
		a.unlight = nil
	})
	a.unlight = t
}

// Locate asks the geolocator for the user's position and centers the map on
// it. The lookup runs without holding the engine lock.
func (a *App) Locate(ctx context.Context, g Geolocator) (core.LatLng, error) {
	at, err := g.Locate(ctx)
	if err == nil && !at.Valid() {
		err = fmt.Errorf("invalid position %s", at)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case errors.Is(err, core.ErrPermissionDenied):
		a.notices.Warn("Location access was denied")
		return core.LatLng{}, err
	case err != nil:
		a.notices.Error("Unable to retrieve your location")
		return core.LatLng{}, err
	}
	a.surface.FlyTo(at, locateZoom)
	a.notices.Info("Your Location")
	return at, nil
}
