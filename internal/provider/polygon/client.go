package polygon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"histbars/internal/model"
	"histbars/internal/provider"
)

const (
	defaultBaseURL = "https://api.polygon.io"

	// Max 50k results per request
	maxLimit = 50000

	maxRetries = 3
	retryDelay = 15 * time.Second
)

type span struct {
	multiplier int
	timespan   string
}

var spans = map[model.Interval]span{
	model.Interval1Minute:  {1, "minute"},
	model.Interval5Minute:  {5, "minute"},
	model.Interval15Minute: {15, "minute"},
	model.Interval30Minute: {30, "minute"},
	model.Interval1Hour:    {1, "hour"},
	model.Interval4Hour:    {4, "hour"},
	model.IntervalDaily:    {1, "day"},
	model.IntervalWeekly:   {1, "week"},
	model.IntervalMonthly:  {1, "month"},
}

var cryptoExchanges = map[string]bool{
	"BINANCE": true, "COINBASE": true, "KRAKEN": true, "BITSTAMP": true, "BITFINEX": true, "CRYPTO": true,
}

// Ticker maps an instrument to a Polygon ticker. Crypto venues use the X: namespace.
func Ticker(instrument, exchange string) string {
	sym := strings.ToUpper(strings.TrimSpace(instrument))
	if cryptoExchanges[strings.ToUpper(exchange)] && !strings.HasPrefix(sym, "X:") {
		return "X:" + sym
	}
	return sym
}

// Client fetches aggregate bars from the Polygon REST API.
type Client struct {
	http   *resty.Client
	apiKey string
	now    func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another host (tests, proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.http.SetBaseURL(u) }
}

// WithRetryWait sets the wait between retries.
func WithRetryWait(d time.Duration) Option {
	return func(c *Client) { c.http.SetRetryWaitTime(d).SetRetryMaxWaitTime(d) }
}

// WithClock replaces time.Now when computing the request window.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a Polygon client. apiKey is required.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("polygon api key is required")
	}
	rc := resty.NewWithClient(newHTTPClient()).
		SetBaseURL(defaultBaseURL).
		SetHeader("Connection", "close").
		SetRetryCount(maxRetries-1).
		SetRetryWaitTime(retryDelay).
		SetRetryMaxWaitTime(retryDelay).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests
		})
	c := &Client{http: rc, apiKey: apiKey, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// GetName returns provider name
func (c *Client) GetName() string { return "polygon" }

// Close closes connections
func (c *Client) Close() error {
	c.http.GetClient().CloseIdleConnections()
	return nil
}

// Fetch requests the most recent req.MaxBars bars, newest first, and returns them oldest first.
func (c *Client) Fetch(ctx context.Context, req provider.Request) (*model.Table, error) {
	if req.Instrument == "" {
		return nil, errors.New("instrument cannot be empty")
	}
	sp, ok := spans[req.Interval]
	if !ok {
		return nil, fmt.Errorf("polygon does not serve %q bars", req.Interval)
	}

	limit := req.MaxBars
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}
	to := c.now().UTC()
	from := provider.WindowStart(to, req.Interval, limit)
	ticker := Ticker(req.Instrument, req.Exchange)

	var out AggregatesResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"ticker":     ticker,
			"multiplier": strconv.Itoa(sp.multiplier),
			"timespan":   sp.timespan,
			"from":       strconv.FormatInt(from.UnixMilli(), 10),
			"to":         strconv.FormatInt(to.UnixMilli(), 10),
		}).
		SetQueryParams(map[string]string{
			"adjusted": "true",
			"sort":     "desc",
			"limit":    strconv.Itoa(limit),
			"apiKey":   c.apiKey,
		}).
		ForceContentType("application/json").
		SetResult(&out).
		Get("/v2/aggs/ticker/{ticker}/range/{multiplier}/{timespan}/{from}/{to}")
	if err != nil {
		return nil, fmt.Errorf("API call failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("API status %d: %s", resp.StatusCode(), resp.String())
	}
	// DELAYED is returned for recent data on lower plans; the bars are still usable.
	if out.Status != "OK" && out.Status != "DELAYED" {
		return nil, fmt.Errorf("API status not OK: %s %s", out.Status, out.Error)
	}

	slices.Reverse(out.Results)
	t := &model.Table{Columns: append([]string(nil), barColumns...), Rows: make([][]string, 0, len(out.Results))}
	for _, b := range out.Results {
		t.Rows = append(t.Rows, b.Row())
	}
	slog.Info("retrieved polygon data", "ticker", ticker, "timespan", sp.timespan,
		"multiplier", sp.multiplier, "status", out.Status, "count", t.Len())
	return provider.TrimToLast(t, req.MaxBars), nil
}
