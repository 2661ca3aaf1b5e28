package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/openfolio/pulse/internal/core"
	"github.com/openfolio/pulse/internal/provider"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://www.alphavantage.co/query"

// Free-tier budget is 5 requests per minute; the limiter smooths calls
// out rather than burning the allowance in a burst.
var defaultLimit = rate.Every(12 * time.Second)

// Field keys in the "Time Series (Daily)" rows.
const (
	fieldOpen     = "1. open"
	fieldHigh     = "2. high"
	fieldLow      = "3. low"
	fieldClose    = "4. close"
	fieldAdjClose = "5. adjusted close"
	fieldVolume   = "6. volume"
)

// Client fetches daily history from the Alpha Vantage REST API. It is
// the primary provider and requires an API key; without one it reports
// not ready and the fetch loop skips it.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// New creates an Alpha Vantage client. An empty API key is allowed and
// simply leaves the client not ready.
func New(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 20 * time.Second},
		limiter: rate.NewLimiter(defaultLimit, 1),
		now:     time.Now,
	}
}

func (c *Client) Name() string {
	return "alphavantage"
}

func (c *Client) Ready() bool {
	return c.apiKey != ""
}

// FetchDaily fetches the adjusted daily series and truncates it to the
// period's lookback window client side; Alpha Vantage has no native
// range parameter, only compact (~100 rows) vs full downloads.
func (c *Client) FetchDaily(ctx context.Context, symbol string, period core.Period) (*core.Series, error) {
	if !c.Ready() {
		return nil, core.ErrNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, core.WrapError(core.ErrTransport, err)
	}

	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY_ADJUSTED")
	params.Set("symbol", symbol)
	params.Set("outputsize", outputSize(period))
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, core.WrapError(core.ErrTransport, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, core.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrTransport, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, core.WrapError(core.ErrMalformedResponse, err)
	}

	return c.parse(symbol, period, payload)
}

func (c *Client) parse(symbol string, period core.Period, payload map[string]json.RawMessage) (*core.Series, error) {
	if msg := stringField(payload, "Error Message"); msg != "" {
		return nil, core.WrapError(core.ErrInvalidSymbol, fmt.Errorf("alphavantage: %s", msg))
	}

	// A "Note" or "Information" field in place of data is how Alpha
	// Vantage communicates throttling.
	for _, key := range []string{"Note", "Information"} {
		if msg := stringField(payload, key); msg != "" {
			if isThrottleNotice(msg) {
				return nil, core.WrapError(core.ErrRateLimited, fmt.Errorf("alphavantage: %s", msg))
			}
			return nil, core.WrapError(core.ErrMalformedResponse, fmt.Errorf("alphavantage: %s", msg))
		}
	}

	raw, ok := payload["Time Series (Daily)"]
	if !ok {
		return nil, core.WrapError(core.ErrMalformedResponse, fmt.Errorf("missing daily series key"))
	}

	var rows map[string]map[string]string
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, core.WrapError(core.ErrMalformedResponse, err)
	}
	if len(rows) == 0 {
		return nil, core.ErrEmptyResult
	}

	bars := make([]core.Bar, 0, len(rows))
	for dateStr, fields := range rows {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, core.WrapError(core.ErrMalformedResponse, fmt.Errorf("bad date key %q", dateStr))
		}

		closePx := parseField(fields, fieldAdjClose)
		if closePx == nil {
			closePx = parseField(fields, fieldClose)
		}
		bar := core.Bar{
			Date:   date,
			Open:   parseField(fields, fieldOpen),
			High:   parseField(fields, fieldHigh),
			Low:    parseField(fields, fieldLow),
			Close:  closePx,
			Volume: parseField(fields, fieldVolume),
		}
		if provider.Usable(bar) {
			bars = append(bars, bar)
		}
	}

	bars, err := provider.Normalize(bars)
	if err != nil {
		return nil, err
	}

	bars = provider.Truncate(bars, period, c.now())
	if len(bars) == 0 {
		return nil, core.ErrEmptyResult
	}

	return &core.Series{Symbol: symbol, Source: c.Name(), Bars: bars}, nil
}

// outputSize picks the payload size: short windows fit in the ~100-row
// compact payload, anything wider needs the full dump.
func outputSize(period core.Period) string {
	if period.FullOutput {
		return "full"
	}
	return "compact"
}

// parseField coerces a row field to a float, nil when the field is
// missing or not numeric. Parse failures never propagate.
func parseField(fields map[string]string, key string) *float64 {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil
	}
	return core.Float(v)
}

func stringField(payload map[string]json.RawMessage, key string) string {
	raw, ok := payload[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func isThrottleNotice(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range []string{"rate limit", "429", "call frequency", "requests per"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
