package currency

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Cartmate-Conversational-Shopping-Assistant/assistant/contract"
)

func newRatesServer(t *testing.T, rates map[string]float64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/latest.json" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("app_id") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"rates":     rates,
			"base":      "USD",
			"timestamp": time.Now().Unix(),
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestConverter(t *testing.T, rates map[string]float64) *Converter {
	t.Helper()
	srv := newRatesServer(t, rates)
	conv, err := New(Config{AppID: "test-app-id", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return conv
}

func TestNewRequiresAppID(t *testing.T) {
	t.Parallel()

	_, err := New(Config{BaseURL: "https://openexchangerates.org/api"})
	if !errors.Is(err, contractx.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestConvertSameCurrencyIsIdentity(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, map[string]float64{"USD": 1, "EUR": 0.92})

	got, err := conv.Convert(context.Background(), 100, "USD", "USD")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got.ConvertedAmount != 100 {
		t.Fatalf("unexpected converted amount: %v", got.ConvertedAmount)
	}
	if got.Rate != 1.0 {
		t.Fatalf("unexpected rate: %v", got.Rate)
	}
}

func TestConvertFromBaseCurrency(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, map[string]float64{"USD": 1, "EUR": 0.92})

	got, err := conv.Convert(context.Background(), 49.99, "USD", "EUR")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got.ConvertedAmount != 45.99 {
		t.Fatalf("unexpected converted amount: %v", got.ConvertedAmount)
	}
	if got.Rate != 0.92 {
		t.Fatalf("unexpected rate: %v", got.Rate)
	}
	if got.From != "USD" || got.To != "EUR" {
		t.Fatalf("unexpected codes: %s -> %s", got.From, got.To)
	}
}

func TestConvertCrossRateThroughBase(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, map[string]float64{"USD": 1, "EUR": 0.92, "CAD": 1.35})

	got, err := conv.Convert(context.Background(), 100, "EUR", "CAD")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got.Rate != 1.4674 {
		t.Fatalf("unexpected rate: %v", got.Rate)
	}
	if got.ConvertedAmount != 146.74 {
		t.Fatalf("unexpected converted amount: %v", got.ConvertedAmount)
	}
}

func TestConvertToBaseCurrency(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, map[string]float64{"USD": 1, "EUR": 0.92})

	got, err := conv.Convert(context.Background(), 92, "EUR", "USD")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got.Rate != 1.087 {
		t.Fatalf("unexpected rate: %v", got.Rate)
	}
	if got.ConvertedAmount != 100 {
		t.Fatalf("unexpected converted amount: %v", got.ConvertedAmount)
	}
}

func TestConvertRoundTripApproximatesAmount(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, map[string]float64{"USD": 1, "EUR": 0.92, "CAD": 1.35})

	first, err := conv.Convert(context.Background(), 250, "EUR", "CAD")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	back, err := conv.Convert(context.Background(), first.ConvertedAmount, "CAD", "EUR")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if math.Abs(back.ConvertedAmount-250) > 0.01 {
		t.Fatalf("round trip drifted: got %v, want ~250", back.ConvertedAmount)
	}
}

func TestConvertNormalizesCodeCase(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, map[string]float64{"USD": 1, "EUR": 0.92})

	got, err := conv.Convert(context.Background(), 10, "usd", "eur")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got.From != "USD" || got.To != "EUR" {
		t.Fatalf("codes must be uppercased, got %s -> %s", got.From, got.To)
	}
}

func TestConvertUnknownCode(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, map[string]float64{"USD": 1, "EUR": 0.92})

	_, err := conv.Convert(context.Background(), 10, "USD", "XXX")
	if !errors.Is(err, contractx.ErrUpstream) {
		t.Fatalf("expected ErrUpstream for unknown code, got %v", err)
	}
}

func TestConvertRejectsNegativeAmount(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, map[string]float64{"USD": 1, "EUR": 0.92})

	_, err := conv.Convert(context.Background(), -1, "USD", "EUR")
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestConvertProviderFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	conv, err := New(Config{AppID: "test-app-id", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = conv.Convert(context.Background(), 10, "USD", "EUR")
	if !errors.Is(err, contractx.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestRoundToHalfAwayFromZero(t *testing.T) {
	t.Parallel()

	cases := []struct {
		value  float64
		places int
		want   float64
	}{
		{2.346, 2, 2.35},
		{2.344, 2, 2.34},
		{-2.346, 2, -2.35},
		{1.46739, 4, 1.4674},
		{146.73913, 2, 146.74},
	}
	for _, tc := range cases {
		if got := roundTo(tc.value, tc.places); got != tc.want {
			t.Fatalf("roundTo(%v, %d) = %v, want %v", tc.value, tc.places, got, tc.want)
		}
	}
}
