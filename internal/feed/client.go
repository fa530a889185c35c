package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shipmap/internal/observability"
	"shipmap/internal/pipeline"
	"shipmap/internal/vessel"
)

const (
	EndpointLatest = "latest"
	EndpointTrail  = "trail"
	EndpointStats  = "stats"
)

// FetchError is a failed read against the ship service: transport error,
// non-200 status or an undecodable payload.
type FetchError struct {
	Endpoint string
	Status   int // 0 when no response was received
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client reads the ship service's JSON endpoints.
type Client struct {
	base       string
	httpClient *http.Client
	timeout    time.Duration
	norm       *pipeline.Normalizer
	logger     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, norm *pipeline.Normalizer, lg *slog.Logger) *Client {
	return &Client{
		base:       strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    timeout,
		norm:       norm,
		logger:     lg.With("component", "feed"),
	}
}

// Latest fetches the full snapshot. Entries that fail normalization are
// skipped; the rest still form a valid snapshot.
func (c *Client) Latest(ctx context.Context) ([]vessel.Record, error) {
	var msgs []pipeline.ShipMessage
	if err := c.getJSON(ctx, EndpointLatest, "/ships/latest", &msgs); err != nil {
		return nil, err
	}
	recs, err := c.norm.BuildAll(msgs)
	if err != nil {
		c.logger.Debug("snapshot entries skipped", "skipped", len(msgs)-len(recs), "err", err)
	}
	return recs, nil
}

// Trail fetches the position history of one vessel, oldest first.
func (c *Client) Trail(ctx context.Context, id vessel.ID) ([]vessel.Point, error) {
	var rows []pipeline.TrailPoint
	if err := c.getJSON(ctx, EndpointTrail, "/ships/"+url.PathEscape(id.String())+"/trail", &rows); err != nil {
		return nil, err
	}
	return pipeline.Points(rows), nil
}

func (c *Client) Stats(ctx context.Context) (vessel.Stats, error) {
	var s vessel.Stats
	if err := c.getJSON(ctx, EndpointStats, "/stats", &s); err != nil {
		return vessel.Stats{}, err
	}
	return s, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, out any) error {
	start := time.Now()
	defer observability.ObserveFetchLatency(endpoint, start)

	err := c.do(ctx, endpoint, path, out)
	if err != nil {
		observability.FetchErrors.WithLabelValues(endpoint).Inc()
	}
	return err
}

func (c *Client) do(ctx context.Context, endpoint, path string, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return &FetchError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &FetchError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &FetchError{Endpoint: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("%s", strings.TrimSpace(string(body)))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{Endpoint: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
