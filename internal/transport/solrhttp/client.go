// Package solrhttp executes compiled requests against a Solr core over HTTP.
package solrhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/metrics"
	"github.com/kailas-cloud/solrq/internal/solr"
	"github.com/kailas-cloud/solrq/internal/solr/params"
)

// DefaultHandler is the request handler used when a query names none.
const DefaultHandler = "/select"

// maxErrorBody caps how much of a failed response is read for the message.
const maxErrorBody = 64 << 10

// Config holds the client settings.
type Config struct {
	BaseURL    string // e.g. http://localhost:8983/solr
	Core       string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client sends select requests to one core.
type Client struct {
	base   *url.URL
	core   string
	http   *http.Client
	logger *zap.Logger
}

// New creates a client for cfg.Core.
func New(cfg Config) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute: %w", cfg.BaseURL, domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(cfg.Core) == "" {
		return nil, fmt.Errorf("core is required: %w", domain.ErrInvalidArgument)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{base: u, core: cfg.Core, http: hc, logger: logger}, nil
}

// Core returns the core name.
func (c *Client) Core() string { return c.core }

// Select posts p to handler (DefaultHandler when empty) with wt=json and
// decodes the response. Engine errors are returned as *solr.Error.
func (c *Client) Select(ctx context.Context, handler string, p *params.Params) (*solr.Response, error) {
	if p == nil {
		return nil, fmt.Errorf("params must not be nil: %w", domain.ErrInvalidArgument)
	}
	if handler == "" {
		handler = DefaultHandler
	}
	form := wireForm(p)

	endpoint := c.endpoint(handler)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveSolrRequest(c.core, 0, time.Since(start))
		c.logger.Warn("Solr request failed",
			zap.String("core", c.core),
			zap.String("handler", handler),
			zap.Error(err),
		)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("solr %s: %w", handler, ctxErr)
		}
		return nil, fmt.Errorf("solr %s: %w: %w", handler, domain.ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	dur := time.Since(start)
	metrics.ObserveSolrRequest(c.core, resp.StatusCode, dur)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := decodeError(resp)
		c.logger.Warn("Solr returned an error",
			zap.String("core", c.core),
			zap.String("handler", handler),
			zap.Int("status", resp.StatusCode),
			zap.String("msg", serr.Msg),
			zap.Duration("duration", dur),
		)
		return nil, serr
	}

	var out solr.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode solr response: %w: %w", domain.ErrUpstream, err)
	}
	c.logger.Debug("Solr request",
		zap.String("core", c.core),
		zap.String("handler", handler),
		zap.String("params", p.Encode()),
		zap.Int64("num_found", out.Response.NumFound),
		zap.Int("qtime_ms", out.ResponseHeader.QTime),
		zap.Duration("duration", dur),
	)
	return &out, nil
}

// listParams are compiled as one comma-joined value, but the engine reads
// each field from its own repeated parameter.
var listParams = []string{params.FacetField}

// wireForm copies p into the form that is posted: list parameters are split
// into repeated values and wt=json is added.
func wireForm(p *params.Params) *params.Params {
	form := p.Clone()
	for _, key := range listParams {
		joined := form.Values(key)
		if len(joined) == 0 {
			continue
		}
		form.Del(key)
		for _, v := range joined {
			for _, name := range strings.Split(v, ",") {
				if name = strings.TrimSpace(name); name != "" {
					form.Add(key, name)
				}
			}
		}
	}
	form.Set(params.Writer, "json")
	return form
}

// Ping calls the core's ping handler.
func (c *Client) Ping(ctx context.Context) error {
	p := params.New()
	p.Set(params.Writer, "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/admin/ping")+"?"+p.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("solr ping: %w: %w", domain.ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) endpoint(handler string) string {
	return c.base.JoinPath(c.core, handler).String()
}

// decodeError builds a *solr.Error from a failed response. 400 means the
// engine rejected the request itself.
func decodeError(resp *http.Response) *solr.Error {
	serr := &solr.Error{Status: resp.StatusCode, Err: domain.ErrUpstream}
	if resp.StatusCode == http.StatusBadRequest {
		serr.Err = errors.Join(domain.ErrUpstream, domain.ErrAPIUsage)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return serr
	}
	var decoded solr.Response
	if json.Unmarshal(body, &decoded) == nil && decoded.Error != nil {
		serr.Msg = decoded.Error.Msg
		return serr
	}
	serr.Msg = strings.TrimSpace(string(body))
	return serr
}
