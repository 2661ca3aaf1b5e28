package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/openfolio/pulse/internal/core"
	"github.com/openfolio/pulse/internal/provider"
)

const defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// Client fetches daily history from the Yahoo Finance chart API. It is
// keyless and serves as the fallback provider.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a Yahoo chart client.
func New() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *Client) Name() string {
	return "yahoo"
}

// Ready always reports true; the chart API needs no credentials.
func (c *Client) Ready() bool {
	return true
}

// FetchDaily fetches daily bars using the API's native range token, so
// no client-side truncation is needed.
func (c *Client) FetchDaily(ctx context.Context, symbol string, period core.Period) (*core.Series, error) {
	url := fmt.Sprintf("%s/%s?interval=1d&range=%s", c.baseURL, symbol, period.ChartRange)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, core.WrapError(core.ErrTransport, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrTransport, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, core.ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return nil, core.WrapError(core.ErrInvalidSymbol, fmt.Errorf("no chart for symbol: %s", symbol))
	case resp.StatusCode != http.StatusOK:
		return nil, core.WrapError(core.ErrTransport, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, core.WrapError(core.ErrMalformedResponse, err)
	}

	if result.Chart.Error != nil {
		return nil, core.WrapError(core.ErrInvalidSymbol,
			fmt.Errorf("yahoo error: %s", result.Chart.Error.Description))
	}

	if len(result.Chart.Result) == 0 {
		return nil, core.ErrEmptyResult
	}

	return c.parse(symbol, result.Chart.Result[0])
}

func (c *Client) parse(symbol string, r chartResult) (*core.Series, error) {
	if len(r.Indicators.Quote) == 0 {
		return nil, core.WrapError(core.ErrMalformedResponse, fmt.Errorf("missing quote indicators"))
	}
	quote := r.Indicators.Quote[0]

	// Prefer the adjusted close series when the payload carries one, so
	// the whole series shares one adjustment source.
	var adjClose []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adjClose = r.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]core.Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		bar := core.Bar{
			Date:   time.Unix(int64(ts), 0).UTC().Truncate(24 * time.Hour),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  at(quote.Close, i),
			Volume: at(quote.Volume, i),
		}
		if adj := at(adjClose, i); adj != nil {
			bar.Close = adj
		}
		if provider.Usable(bar) {
			bars = append(bars, bar)
		}
	}

	bars, err := provider.Normalize(bars)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, core.ErrEmptyResult
	}

	return &core.Series{Symbol: symbol, Source: c.Name(), Bars: bars}, nil
}

// at copies the i-th value out of a nullable payload column.
func at(values []*float64, i int) *float64 {
	if i >= len(values) || values[i] == nil {
		return nil
	}
	return core.Float(*values[i])
}

// Yahoo API response types
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
	Timestamp  []int      `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type indicators struct {
	Quote    []quoteIndicator    `json:"quote"`
	AdjClose []adjCloseIndicator `json:"adjclose"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

type adjCloseIndicator struct {
	AdjClose []*float64 `json:"adjclose"`
}
