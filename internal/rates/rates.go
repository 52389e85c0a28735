package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options parameterise the exchange-rate client.
type Options struct {
	URL      string
	Currency string
	Timeout  time.Duration
}

// Client fetches the USD to local-currency rate. It is consulted once at
// startup; a failure is non-fatal and the caller keeps its fallback.
type Client struct {
	opts   Options
	logger zerolog.Logger
	client *http.Client
}

// NewClient constructs an exchange-rate client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if opts.Currency == "" {
		opts.Currency = "CNY"
	}

	return &Client{
		opts:   opts,
		logger: logger.With().Str("component", "rate_fetcher").Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

type ratesResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// FetchRate retrieves the configured currency's rate.
func (c *Client) FetchRate(ctx context.Context) (float64, error) {
	if c.opts.URL == "" {
		return 0, fmt.Errorf("rates url not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.URL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rates api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var body ratesResponse
	if err := json.Unmarshal(payload, &body); err != nil {
		return 0, fmt.Errorf("decode rates: %w", err)
	}

	rate, ok := body.Rates[c.opts.Currency]
	if !ok {
		return 0, fmt.Errorf("currency %q missing from rates response", c.opts.Currency)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("currency %q returned non-positive rate %v", c.opts.Currency, rate)
	}

	c.logger.Info().Str("currency", c.opts.Currency).Float64("rate", rate).Msg("exchange rate fetched")
	return rate, nil
}
