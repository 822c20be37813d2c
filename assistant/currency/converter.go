package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Cartmate-Conversational-Shopping-Assistant/assistant/contract"
)

// All catalog prices and all provider rates are expressed relative to USD.
const baseCurrency = "USD"

const maxResponseSizeBytes = 1 << 20

type Config struct {
	AppID   string        `envconfig:"APP_ID" split_words:"true"`
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"https://openexchangerates.org/api"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// Option customizes a Converter.
type Option func(*Converter)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Converter) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// Converter fetches a live USD-based rate table from Open Exchange Rates on
// every call and computes cross rates through the base currency. There is no
// caching layer: each result is only as fresh as the provider's most recent
// snapshot at call time.
type Converter struct {
	baseURL    string
	appID      string
	httpClient *http.Client
}

type ratesResponse struct {
	Rates     map[string]float64 `json:"rates"`
	Base      string             `json:"base"`
	Timestamp int64              `json:"timestamp"`
}

func New(cfg Config, opts ...Option) (*Converter, error) {
	appID := strings.TrimSpace(cfg.AppID)
	if appID == "" {
		return nil, fmt.Errorf("%w: exchange rates app id is required", contractx.ErrConfiguration)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: exchange rates base url is required", contractx.ErrConfiguration)
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("%w: invalid exchange rates base url: %v", contractx.ErrConfiguration, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Converter{
		baseURL: baseURL,
		appID:   appID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c, nil
}

// Convert converts amount between two 3-letter currency codes. Codes are
// uppercased on input and output. The converted amount is rounded to 2
// decimal places and the rate to 4, half away from zero, after the
// arithmetic.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) (contractx.ConversionResult, error) {
	if amount < 0 {
		return contractx.ConversionResult{}, fmt.Errorf("%w: amount must be >= 0", contractx.ErrValidation)
	}

	fromCode := strings.ToUpper(strings.TrimSpace(from))
	toCode := strings.ToUpper(strings.TrimSpace(to))
	if len(fromCode) != 3 || len(toCode) != 3 {
		return contractx.ConversionResult{}, fmt.Errorf("%w: currency codes must be 3 letters", contractx.ErrValidation)
	}

	rates, err := c.fetchRates(ctx)
	if err != nil {
		return contractx.ConversionResult{}, err
	}

	rate, err := crossRate(rates, fromCode, toCode)
	if err != nil {
		return contractx.ConversionResult{}, err
	}

	result := contractx.ConversionResult{
		From:            fromCode,
		To:              toCode,
		Amount:          amount,
		ConvertedAmount: roundTo(amount*rate, 2),
		Rate:            roundTo(rate, 4),
	}

	log.Debug().
		Float64("amount", amount).
		Str("from", fromCode).
		Str("to", toCode).
		Float64("converted", result.ConvertedAmount).
		Msg("currency converted")

	return result, nil
}

// crossRate resolves the from->to rate from a table expressed relative to
// the base currency.
func crossRate(rates map[string]float64, from, to string) (float64, error) {
	lookup := func(code string) (float64, error) {
		rate, ok := rates[code]
		if !ok || rate == 0 {
			return 0, fmt.Errorf("%w: no rate for currency %s", contractx.ErrUpstream, code)
		}
		return rate, nil
	}

	switch {
	case from == baseCurrency:
		return lookup(to)
	case to == baseCurrency:
		fromRate, err := lookup(from)
		if err != nil {
			return 0, err
		}
		return 1 / fromRate, nil
	default:
		fromRate, err := lookup(from)
		if err != nil {
			return 0, err
		}
		toRate, err := lookup(to)
		if err != nil {
			return 0, err
		}
		return toRate / fromRate, nil
	}
}

func (c *Converter) fetchRates(ctx context.Context) (map[string]float64, error) {
	endpoint := fmt.Sprintf("%s/latest.json?app_id=%s", c.baseURL, url.QueryEscape(c.appID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build rates request: %v", contractx.ErrUpstream, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch exchange rates: %v", contractx.ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read rates response: %v", contractx.ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: rates provider returned status %d", contractx.ErrUpstream, resp.StatusCode)
	}

	var payload ratesResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode rates response: %v", contractx.ErrUpstream, err)
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("%w: rates response contains no rates", contractx.ErrUpstream)
	}

	return payload.Rates, nil
}

// roundTo rounds half away from zero to the given number of decimal places.
func roundTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
