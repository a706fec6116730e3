// Package eodhd provides a quote source backed by the EODHD API
package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// flexFloat64 handles JSON values that may be either a number or a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "N/A" || s == "NA" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements interfaces.QuoteSource
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

var _ interfaces.QuoteSource = (*Client)(nil)

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// errDecode marks a response body that could not be decoded
var errDecode = errors.New("failed to decode response")

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %v", errDecode, err)
	}

	return nil
}

// classify maps a transport or API failure onto a quote error kind
func classify(op, ticker string, err error) error {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest:
		return models.NewQuoteError(models.ErrBadRequest, op, ticker, err)
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
		return models.NewQuoteError(models.ErrNotFound, op, ticker, err)
	case errors.Is(err, errDecode):
		return models.NewQuoteError(models.ErrParse, op, ticker, err)
	default:
		return models.NewQuoteError(models.ErrNetwork, op, ticker, err)
	}
}

// realTimeResponse represents the API response for /real-time
type realTimeResponse struct {
	Code          string      `json:"code"`
	Timestamp     flexFloat64 `json:"timestamp"`
	Close         flexFloat64 `json:"close"`
	PreviousClose flexFloat64 `json:"previousClose"`
}

// LatestPrice retrieves the live (delayed) quote for a ticker
func (c *Client) LatestPrice(ctx context.Context, ticker string) (*models.QuoteResponse, error) {
	var resp realTimeResponse
	if err := c.get(ctx, fmt.Sprintf("/real-time/%s", ticker), nil, &resp); err != nil {
		return nil, classify("latest", ticker, err)
	}

	if resp.Close <= 0 {
		return &models.QuoteResponse{}, nil
	}

	q := models.Quote{Close: float64(resp.Close)}
	if resp.Timestamp > 0 {
		q.Date = time.Unix(int64(resp.Timestamp), 0).UTC()
	}
	return &models.QuoteResponse{Latest: &q}, nil
}

// eodBarResponse represents the API response for EOD data
type eodBarResponse struct {
	Date          string      `json:"date"`
	Close         flexFloat64 `json:"close"`
	AdjustedClose flexFloat64 `json:"adjusted_close"`
}

// PriceHistory retrieves daily closes in [start, end], oldest first
func (c *Client) PriceHistory(ctx context.Context, ticker string, start, end time.Time) ([]models.Quote, error) {
	return c.eod(ctx, ticker, interfaces.WithDateRange(start, end))
}

func (c *Client) eod(ctx context.Context, ticker string, opts ...interfaces.EODOption) ([]models.Quote, error) {
	params := &interfaces.EODParams{
		Period: "d",
		Order:  "a",
	}
	for _, opt := range opts {
		opt(params)
	}

	urlParams := url.Values{}
	urlParams.Set("period", params.Period)
	urlParams.Set("order", params.Order)
	if !params.From.IsZero() {
		urlParams.Set("from", params.From.Format(models.DateLayout))
	}
	if !params.To.IsZero() {
		urlParams.Set("to", params.To.Format(models.DateLayout))
	}

	var bars []eodBarResponse
	if err := c.get(ctx, fmt.Sprintf("/eod/%s", ticker), urlParams, &bars); err != nil {
		return nil, classify("history", ticker, err)
	}

	quotes := make([]models.Quote, 0, len(bars))
	for _, bar := range bars {
		date, err := time.Parse(models.DateLayout, bar.Date)
		if err != nil {
			return nil, models.NewQuoteError(models.ErrParse, "history", ticker, err)
		}
		quotes = append(quotes, models.Quote{Close: float64(bar.Close), Date: date})
	}
	sort.SliceStable(quotes, func(i, j int) bool { return quotes[i].Date.Before(quotes[j].Date) })

	return quotes, nil
}

// searchResult represents one entry of the /search response
type searchResult struct {
	Code     string `json:"Code"`
	Exchange string `json:"Exchange"`
	Name     string `json:"Name"`
	Type     string `json:"Type"`
}

// SearchName returns the name of the first search hit for a ticker
func (c *Client) SearchName(ctx context.Context, ticker string) (string, error) {
	var results []searchResult
	params := url.Values{}
	params.Set("limit", "1")
	if err := c.get(ctx, fmt.Sprintf("/search/%s", url.PathEscape(ticker)), params, &results); err != nil {
		return "", classify("search", ticker, err)
	}
	if len(results) == 0 || results[0].Name == "" {
		return "", models.NewQuoteError(models.ErrNoResult, "search", ticker, nil)
	}
	return results[0].Name, nil
}
