// Package fetch loads the county topology and education datasets over HTTP.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/education-choropleth/internal/domain"
	"github.com/couchcryptid/education-choropleth/internal/observability"
	"github.com/couchcryptid/education-choropleth/internal/topojson"
)

// ErrFetchFailed is returned when a dataset endpoint answers with a non-2xx status.
var ErrFetchFailed = errors.New("dataset fetch failed")

const (
	datasetTopology  = "topology"
	datasetEducation = "education"

	// maxErrorBody caps how much of a failed response is read for logging.
	maxErrorBody = 64 << 10
)

// Client fetches both datasets. It does not retry or cache.
type Client struct {
	httpClient   *http.Client
	topologyURL  string
	educationURL string
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// NewClient creates a dataset client with a per-request timeout.
func NewClient(topologyURL, educationURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		topologyURL:  topologyURL,
		educationURL: educationURL,
		metrics:      metrics,
		logger:       logger,
	}
}

// FetchTopology downloads and decodes the county boundary topology.
func (c *Client) FetchTopology(ctx context.Context) (*topojson.Topology, error) {
	var topo *topojson.Topology
	err := c.get(ctx, datasetTopology, c.topologyURL, func(r io.Reader) error {
		var err error
		topo, err = topojson.Decode(r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return topo, nil
}

// FetchEducation downloads the per-county education records.
func (c *Client) FetchEducation(ctx context.Context) ([]domain.EducationRecord, error) {
	var records []domain.EducationRecord
	err := c.get(ctx, datasetEducation, c.educationURL, func(r io.Reader) error {
		if err := json.NewDecoder(r).Decode(&records); err != nil {
			return fmt.Errorf("decode education records: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, dataset, url string, decode func(io.Reader) error) (err error) {
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.metrics.FetchRequests.WithLabelValues(dataset, outcome).Inc()
		c.metrics.FetchDuration.WithLabelValues(dataset).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", dataset, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", dataset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error("dataset fetch failed",
			"dataset", dataset,
			"url", url,
			"status", resp.StatusCode,
			"body", string(body),
		)
		return fmt.Errorf("%w: %s: status %d", ErrFetchFailed, dataset, resp.StatusCode)
	}

	if err := decode(resp.Body); err != nil {
		return fmt.Errorf("%s: %w", dataset, err)
	}

	c.logger.Debug("dataset fetched", "dataset", dataset, "duration", time.Since(start))
	return nil
}
