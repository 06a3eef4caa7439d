// Package nominatim resolves addresses through a Nominatim-compatible
// search endpoint (https://nominatim.org/release-docs/latest/api/Search/).
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/orgdirectory/internal/core/domain"
	"github.com/samirrijal/orgdirectory/internal/core/ports"
	"github.com/samirrijal/orgdirectory/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/samirrijal/orgdirectory/internal/adapters/nominatim")

// Config configures the client.
type Config struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries uint64
	CacheTTL   int // seconds; 0 disables caching
}

// Client implements ports.Geocoder.
type Client struct {
	cfg   Config
	http  *fasthttp.Client
	cache ports.CacheService
}

// New creates a geocoding client. cache may be nil.
func New(cfg Config, cache ports.CacheService) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:   cfg,
		cache: cache,
		http: &fasthttp.Client{
			Name:                cfg.UserAgent,
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			MaxIdleConnDuration: time.Minute,
		},
	}
}

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode returns the best match for query, or domain.ErrNotFound when
// there is none. Transport failures and 5xx answers are retried; when
// retries run out the error wraps domain.ErrUnavailable.
func (c *Client) Geocode(ctx context.Context, query string) (*domain.GeoPoint, error) {
	normalized := normalize(query)
	if normalized == "" {
		return nil, domain.ErrNotFound
	}

	ctx, span := tracer.Start(ctx, "nominatim.Geocode")
	defer span.End()

	key := "geocode:" + normalized
	if c.cache != nil && c.cfg.CacheTTL > 0 {
		if data, err := c.cache.Get(ctx, key); err == nil {
			var p domain.GeoPoint
			if err := json.Unmarshal(data, &p); err == nil {
				metrics.GeocodeRequests.WithLabelValues("cached").Inc()
				span.SetAttributes(attribute.Bool("geocode.cached", true))
				return &p, nil
			}
		}
	}

	var result *domain.GeoPoint
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	err := backoff.Retry(func() error {
		p, err := c.lookup(ctx, normalized)
		if err != nil {
			return err
		}
		result = p
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, c.cfg.MaxRetries), ctx))

	switch {
	case errors.Is(err, domain.ErrNotFound):
		metrics.GeocodeRequests.WithLabelValues("not_found").Inc()
		return nil, err
	case err != nil:
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, domain.ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: geocoder: %v", domain.ErrUnavailable, err)
	}

	metrics.GeocodeRequests.WithLabelValues("ok").Inc()
	if c.cache != nil && c.cfg.CacheTTL > 0 {
		if data, err := json.Marshal(result); err == nil {
			_ = c.cache.Set(ctx, key, data, c.cfg.CacheTTL)
		}
	}
	return result, nil
}

// lookup performs one request. Errors that retrying cannot fix are wrapped
// in backoff.Permanent.
func (c *Client) lookup(ctx context.Context, query string) (*domain.GeoPoint, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.cfg.BaseURL + "/search")
	args := req.URI().QueryArgs()
	args.Set("q", query)
	args.Set("format", "json")
	args.Set("limit", "1")
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.SetUserAgent(c.cfg.UserAgent)
	}

	deadline := time.Now().Add(c.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	err := c.http.DoDeadline(req, resp, deadline)
	metrics.GeocodeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	status := resp.StatusCode()
	switch {
	case status == fasthttp.StatusTooManyRequests || status >= 500:
		return nil, fmt.Errorf("geocoder returned %d", status)
	case status != fasthttp.StatusOK:
		return nil, backoff.Permanent(fmt.Errorf("%w: geocoder returned %d", domain.ErrUnavailable, status))
	}

	var places []place
	if err := json.Unmarshal(resp.Body(), &places); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: decode geocoder response: %v", domain.ErrUnavailable, err))
	}
	if len(places) == 0 {
		return nil, backoff.Permanent(domain.ErrNotFound)
	}

	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: malformed coordinates %q,%q", domain.ErrUnavailable, places[0].Lat, places[0].Lon))
	}
	return &domain.GeoPoint{Lat: lat, Lon: lon}, nil
}

// normalize lowercases and collapses whitespace so equivalent queries share a cache entry.
func normalize(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}
