// Package scraper talks to the external review-scraping / sentiment service.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"reviewlens/internal/adapters/observability"
	"reviewlens/internal/domain"
)

const (
	DefaultTimeout = 180 * time.Second
	DefaultLimit   = 50
	maxErrorBody   = 500
	service        = "scraper"
)

type Client struct {
	url   string
	hc    *http.Client
	limit int
	rl    *rate.Limiter
}

type Options struct {
	Timeout time.Duration
	Limit   int // reviews requested per analysis
	RPS     int // outbound requests per second, shared by all callers
}

// New builds a client for the upstream analyze endpoint (full URL, e.g.
// https://host/analyze). No retries are performed; a failed call is reported
// once and left to the caller.
func New(endpoint string, o Options) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("scraper endpoint is required")
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.RPS <= 0 {
		o.RPS = 2
	}
	return &Client{
		url:   endpoint,
		hc:    &http.Client{Timeout: o.Timeout},
		limit: o.Limit,
		rl:    rate.NewLimiter(rate.Limit(o.RPS), o.RPS),
	}, nil
}

type analyzeBody struct {
	MapsURL     string `json:"maps_url"`
	ForceUpdate bool   `json:"forceUpdate"`
	Limit       int    `json:"limit"`
}

// Analyze posts mapsURL upstream and returns the decoded JSON object.
//
// Errors: domain.ErrUpstreamTimeout, domain.ErrUpstreamUnreachable,
// *domain.UpstreamStatusError for non-200 answers, domain.ErrTransform when
// a 200 body is not a JSON object.
func (c *Client) Analyze(ctx context.Context, mapsURL string) (map[string]any, error) {
	if err := c.rl.Wait(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		// the wait would outlive the caller's deadline
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
	}

	b, err := json.Marshal(analyzeBody{MapsURL: mapsURL, ForceUpdate: false, Limit: c.limit})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "reviewlens/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(service, "analyze", 0, time.Since(start))
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal(service, "analyze", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		// read a small error body for diagnostics
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		detail := strings.TrimSpace(string(body))
		if r := []rune(detail); len(r) > maxErrorBody {
			detail = string(r[:maxErrorBody])
		}
		return nil, &domain.UpstreamStatusError{Status: resp.StatusCode, Body: detail}
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: reading body: %v", domain.ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("%w: decode upstream body: %v", domain.ErrTransform, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: upstream body is null", domain.ErrTransform)
	}
	return out, nil
}

// classify maps transport errors onto the upstream error taxonomy.
func classify(ctx context.Context, err error) error {
	switch {
	case isTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnreachable, err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
