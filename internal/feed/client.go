package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/peterstace/simplefeatures/geom"
	"github.com/quakeph/quakemap/pkg/core"
)

const (
	DefaultQuakesURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/2.5_day.geojson"
	DefaultFaultsURL = "https://raw.githubusercontent.com/fraxen/tectonicplates/master/GeoJSON/PB2002_boundaries.json"
)

// Config holds the feed endpoints. A zero Timeout means requests never time out.
type Config struct {
	QuakesURL string
	FaultsURL string
	Timeout   time.Duration
}

// Client fetches the earthquake and fault-line GeoJSON feeds.
type Client struct {
	quakesURL  string
	faultsURL  string
	httpClient *http.Client
}

// New creates a new feed client. Empty URLs fall back to the public feeds.
func New(cfg Config) *Client {
	quakes := strings.TrimSpace(cfg.QuakesURL)
	if quakes == "" {
		quakes = DefaultQuakesURL
	}
	faults := strings.TrimSpace(cfg.FaultsURL)
	if faults == "" {
		faults = DefaultFaultsURL
	}
	return &Client{
		quakesURL:  quakes,
		faultsURL:  faults,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Quakes fetches and decodes the earthquake feed.
func (c *Client) Quakes(ctx context.Context) ([]core.Quake, error) {
	fc, err := c.fetch(ctx, c.quakesURL)
	if err != nil {
		return nil, err
	}
	return DecodeQuakes(fc)
}

// Faults fetches and decodes the plate boundary feed.
func (c *Client) Faults(ctx context.Context) ([]core.FaultLine, error) {
	fc, err := c.fetch(ctx, c.faultsURL)
	if err != nil {
		return nil, err
	}
	return DecodeFaults(fc)
}

func (c *Client) fetch(ctx context.Context, url string) (geom.GeoJSONFeatureCollection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", core.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s returned status %d", core.ErrFeedUnavailable, url, resp.StatusCode)
	}

	var fc geom.GeoJSONFeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", core.ErrFeedUnavailable, url, err)
	}
	return fc, nil
}
