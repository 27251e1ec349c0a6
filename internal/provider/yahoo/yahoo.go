// Package yahoo fetches historical bars from the Yahoo Finance v8 chart API.
// It uses cookie + crumb authentication, matching the approach used by the yfinance Python library.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"histbars/internal/model"
	"histbars/internal/provider"
)

const (
	defaultChartEndpoint = "https://query2.finance.yahoo.com/v8/finance/chart"
	defaultCookieURL     = "https://fc.yahoo.com"
	defaultCrumbURL      = "https://query1.finance.yahoo.com/v1/test/getcrumb"
	userAgent            = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

var yahooIntervals = map[model.Interval]string{
	model.Interval1Minute:  "1m",
	model.Interval5Minute:  "5m",
	model.Interval15Minute: "15m",
	model.Interval30Minute: "30m",
	model.Interval1Hour:    "60m",
	model.IntervalDaily:    "1d",
	model.IntervalWeekly:   "1wk",
	model.IntervalMonthly:  "1mo",
}

// Provider fetches bars from Yahoo Finance.
type Provider struct {
	client        *http.Client
	chartEndpoint string
	cookieURL     string
	crumbURL      string
	now           func() time.Time

	mu    sync.Mutex
	crumb string
}

// Option configures a Provider.
type Option func(*Provider)

// WithClient sets the HTTP client. The client should have a cookie jar.
func WithClient(c *http.Client) Option {
	return func(p *Provider) { p.client = c }
}

// WithChartEndpoint overrides the default chart API endpoint.
func WithChartEndpoint(ep string) Option {
	return func(p *Provider) { p.chartEndpoint = ep }
}

// WithCookieURL overrides the URL used to obtain the session cookie.
func WithCookieURL(u string) Option {
	return func(p *Provider) { p.cookieURL = u }
}

// WithCrumbURL overrides the URL used to obtain the crumb token.
func WithCrumbURL(u string) Option {
	return func(p *Provider) { p.crumbURL = u }
}

// WithClock replaces time.Now when computing the request window.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// New creates a Provider with the given options applied.
func New(opts ...Option) *Provider {
	jar, _ := cookiejar.New(nil)
	p := &Provider{
		client:        &http.Client{Jar: jar, Timeout: 2 * time.Minute},
		chartEndpoint: defaultChartEndpoint,
		cookieURL:     defaultCookieURL,
		crumbURL:      defaultCrumbURL,
		now:           time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// GetName returns provider name
func (p *Provider) GetName() string { return "yahoo" }

// Close releases idle connections.
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// Ticker maps an instrument on an exchange to a Yahoo symbol.
// Crypto pairs quoted in a fiat currency become BASE-QUOTE; a few stock exchanges get their suffix.
func Ticker(instrument, exchange string) string {
	sym := strings.ToUpper(strings.TrimSpace(instrument))
	switch strings.ToUpper(exchange) {
	case "BINANCE", "COINBASE", "KRAKEN", "BITSTAMP", "BITFINEX", "CRYPTO":
		for _, quote := range []string{"USDT", "USD", "EUR", "GBP"} {
			if strings.HasSuffix(sym, quote) && len(sym) > len(quote) {
				base := strings.TrimSuffix(sym, quote)
				if quote == "USDT" {
					quote = "USD"
				}
				return base + "-" + quote
			}
		}
	case "BIST":
		return sym + ".IS"
	case "LSE":
		return sym + ".L"
	case "XETR", "XETRA":
		return sym + ".DE"
	}
	return sym
}

// chartResponse represents the Yahoo Finance v8 chart API response.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []any `json:"open"`
			High   []any `json:"high"`
			Low    []any `json:"low"`
			Close  []any `json:"close"`
			Volume []any `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// Fetch returns up to req.MaxBars of the most recent bars, indexed by bar open time.
func (p *Provider) Fetch(ctx context.Context, req provider.Request) (*model.Table, error) {
	if req.Instrument == "" {
		return nil, fmt.Errorf("instrument cannot be empty")
	}
	interval, ok := yahooIntervals[req.Interval]
	if !ok {
		return nil, fmt.Errorf("yahoo does not serve %q bars", req.Interval)
	}

	if err := p.ensureCrumb(ctx); err != nil {
		return nil, fmt.Errorf("yahoo auth: %w", err)
	}

	to := p.now().UTC()
	from := provider.WindowStart(to, req.Interval, req.MaxBars)

	symbol := Ticker(req.Instrument, req.Exchange)
	t, err := p.fetchChart(ctx, symbol, interval, from, to)
	if err != nil {
		return nil, err
	}
	slog.Info("retrieved yahoo data", "symbol", symbol, "interval", interval,
		"from", from.Format(time.DateOnly), "to", to.Format(time.DateOnly), "count", t.Len())
	return provider.TrimToLast(t, req.MaxBars), nil
}

// ensureCrumb fetches a session cookie and crumb token if not already cached.
func (p *Provider) ensureCrumb(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.crumb != "" {
		return nil
	}

	cookieReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cookieURL, nil)
	if err != nil {
		return fmt.Errorf("build cookie request: %w", err)
	}
	cookieReq.Header.Set("User-Agent", userAgent)
	cookieRes, err := p.client.Do(cookieReq) //nolint:gosec // URL from internal config
	if err != nil {
		return fmt.Errorf("fetch cookie: %w", err)
	}
	_ = cookieRes.Body.Close()

	crumbReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.crumbURL, nil)
	if err != nil {
		return fmt.Errorf("build crumb request: %w", err)
	}
	crumbReq.Header.Set("User-Agent", userAgent)
	crumbRes, err := p.client.Do(crumbReq) //nolint:gosec // URL from internal config
	if err != nil {
		return fmt.Errorf("fetch crumb: %w", err)
	}
	defer func() { _ = crumbRes.Body.Close() }()

	if crumbRes.StatusCode != http.StatusOK {
		return fmt.Errorf("crumb endpoint returned HTTP %d", crumbRes.StatusCode)
	}
	body, err := io.ReadAll(crumbRes.Body)
	if err != nil {
		return fmt.Errorf("read crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(body))
	if crumb == "" {
		return fmt.Errorf("empty crumb received")
	}

	p.crumb = crumb
	slog.Debug("yahoo: obtained crumb", "crumb_len", len(crumb))
	return nil
}

func (p *Provider) fetchChart(ctx context.Context, symbol, interval string, from, to time.Time) (*model.Table, error) {
	p.mu.Lock()
	crumb := p.crumb
	p.mu.Unlock()

	q := url.Values{}
	q.Set("period1", strconv.FormatInt(from.Unix(), 10))
	q.Set("period2", strconv.FormatInt(to.Unix(), 10))
	q.Set("interval", interval)
	q.Set("events", "div,splits")
	q.Set("crumb", crumb)
	reqURL := p.chartEndpoint + "/" + url.PathEscape(symbol) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := p.client.Do(req) //nolint:gosec // URL built from internal config
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		// Invalidate crumb on auth errors so the next fetch retries auth.
		if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
			p.mu.Lock()
			p.crumb = ""
			p.mu.Unlock()
		}
		return nil, fmt.Errorf("yahoo returned HTTP %d for %s", res.StatusCode, symbol)
	}

	var resp chartResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("parse yahoo response: %w", err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error: %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}
	return toTable(resp.Chart.Result[0]), nil
}

// toTable converts the parallel arrays of a chart result into rows. Bars without a close are skipped.
func toTable(r chartResult) *model.Table {
	t := &model.Table{
		IndexName: "datetime",
		Index:     []string{},
		Columns:   []string{"open", "high", "low", "close", "volume"},
	}
	if len(r.Indicators.Quote) == 0 {
		return t
	}
	q := r.Indicators.Quote[0]
	for i, ts := range r.Timestamp {
		closeVal, ok := number(q.Close, i)
		if !ok {
			continue
		}
		row := make([]string, 0, len(t.Columns))
		for _, series := range [][]any{q.Open, q.High, q.Low} {
			row = append(row, cell(series, i))
		}
		row = append(row, closeVal.String(), cell(q.Volume, i))
		t.Index = append(t.Index, time.Unix(ts, 0).UTC().Format(time.RFC3339))
		t.Rows = append(t.Rows, row)
	}
	return t
}

func cell(series []any, i int) string {
	if d, ok := number(series, i); ok {
		return d.String()
	}
	return ""
}

// number reads series[i]; Yahoo uses null for missing data points.
func number(series []any, i int) (decimal.Decimal, bool) {
	if i >= len(series) {
		return decimal.Decimal{}, false
	}
	switch v := series[i].(type) {
	case float64:
		return decimal.NewFromFloat(v), true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}
