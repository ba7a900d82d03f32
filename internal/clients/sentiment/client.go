// Package sentiment provides an HTTP client for the external sentiment service.
package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Request results recorded in metrics
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
	ResultOpen     = "breaker_open"
	ResultStale    = "stale"
)

// Client fetches sentiment readings. It implements marketdata.SentimentProvider.
type Client struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Registry
	log     zerolog.Logger

	mu    sync.RWMutex
	stale map[string]domain.SentimentReading
}

// response is the service's JSON body
type response struct {
	Symbol     string  `json:"symbol"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// NewClient creates a client for baseURL (e.g. http://localhost:9100)
func NewClient(baseURL string, timeout time.Duration, m *metrics.Registry, log zerolog.Logger) *Client {
	c := &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		metrics: m,
		log:     log.With().Str("client", "sentiment").Logger(),
		stale:   make(map[string]domain.SentimentReading),
	}

	settings := gobreaker.Settings{
		Name:        "sentiment",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	}
	c.breaker = gobreaker.NewCircuitBreaker(settings)

	return c
}

// State reports the breaker state, for status endpoints
func (c *Client) State() string {
	return c.breaker.State().String()
}

// Sentiment fetches the reading for symbol. An unknown symbol yields the
// neutral reading. When the service fails, the last good reading for the
// symbol is returned if one exists.
func (c *Client) Sentiment(ctx context.Context, symbol string, lookbackDays int) (domain.SentimentReading, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, symbol, lookbackDays)
	})
	if err == nil {
		reading := result.(domain.SentimentReading)
		if reading.Neutral {
			c.metrics.RecordSentimentRequest(ResultNotFound)
		} else {
			c.metrics.RecordSentimentRequest(ResultOK)
			c.remember(symbol, reading)
		}
		return reading, nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.metrics.RecordSentimentRequest(ResultOpen)
	} else {
		c.metrics.RecordSentimentRequest(ResultError)
	}

	if reading, ok := c.lastKnown(symbol); ok {
		c.metrics.RecordSentimentRequest(ResultStale)
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Sentiment service failed, using stale reading")
		return reading, nil
	}

	return domain.SentimentReading{}, fmt.Errorf("sentiment for %s: %w", symbol, err)
}

func (c *Client) fetch(ctx context.Context, symbol string, lookbackDays int) (domain.SentimentReading, error) {
	endpoint := fmt.Sprintf("%s/sentiment/%s?lookback_days=%s", c.baseURL, url.PathEscape(symbol), strconv.Itoa(lookbackDays))
	c.log.Debug().Str("url", endpoint).Msg("Fetching sentiment")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.SentimentReading{}, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.SentimentReading{}, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.NeutralSentiment(), nil
	case resp.StatusCode != http.StatusOK:
		return domain.SentimentReading{}, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.SentimentReading{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if body.Score < 0 || body.Score > 100 {
		return domain.SentimentReading{}, fmt.Errorf("score %.2f out of range", body.Score)
	}

	return domain.SentimentReading{Score: body.Score, Confidence: body.Confidence}, nil
}

func (c *Client) remember(symbol string, reading domain.SentimentReading) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale[symbol] = reading
}

func (c *Client) lastKnown(symbol string) (domain.SentimentReading, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reading, ok := c.stale[symbol]
	return reading, ok
}
