package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Fetcher is the subset of the log server API the plugin uses.
type Fetcher interface {
	FetchDays(ctx context.Context) ([]string, error)
	FetchLogs(ctx context.Context, query LogQuery) (LogBatch, error)
}

var _ Fetcher = (*Client)(nil)

// Client talks to a log server over HTTP.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIBind   = "127.0.0.1:7487"
	defaultUserAgent = "logbook/0.1"
	requestTimeout   = 10 * time.Second
)

// NewClient builds a Client for a host:port or URL.
func NewClient(apiBind string) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// FetchDays lists the days the server holds rows for, as YYYY-MM-DD strings.
func (c *Client) FetchDays(ctx context.Context) ([]string, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload DaysResponse
	if err := c.doURL(ctx, http.MethodGet, &url.URL{Path: "/api/days"}, &payload); err != nil {
		return nil, err
	}
	return payload.Days, nil
}

// LogQuery configures /api/logs requests.
type LogQuery struct {
	Day   time.Time
	Since uint64
	Limit int
}

// FetchLogs retrieves rows for a day, or every row after Since when Day is
// zero.
func (c *Client) FetchLogs(ctx context.Context, query LogQuery) (LogBatch, error) {
	if c == nil {
		return LogBatch{}, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	if !query.Day.IsZero() {
		values.Set("day", query.Day.Format(time.DateOnly))
	}
	if query.Since > 0 {
		values.Set("since", strconv.FormatUint(query.Since, 10))
	}
	if query.Limit > 0 {
		values.Set("limit", strconv.Itoa(query.Limit))
	}
	rel := &url.URL{Path: "/api/logs", RawQuery: values.Encode()}
	var payload LogBatch
	if err := c.doURL(ctx, http.MethodGet, rel, &payload); err != nil {
		return LogBatch{}, err
	}
	return payload, nil
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", rel.String(), resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse address %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
