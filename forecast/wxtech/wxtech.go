// Package wxtech adapts the WxTech forecast API to the forecast
// service's Provider interface. It is the only place provider-native
// condition codes are translated into the normalized Condition enum.
package wxtech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wxcomment/wxcomment-go/forecast"
)

const (
	defaultBaseURL = "https://wxtech.weathernews.com/api/v1"
	defaultTimeout = 10 * time.Second
)

// Client calls the WxTech hourly forecast endpoint. A circuit breaker
// fails fast after consecutive errors so a provider outage does not
// stall every workflow on timeouts.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient substitutes the transport, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient builds a WxTech adapter.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "wxtech",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return c
}

// BreakerState reports the circuit breaker state for stats endpoints.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// apiResponse mirrors the provider's hourly forecast payload.
type apiResponse struct {
	Forecasts []apiForecast `json:"srf"` // short-range (hourly) forecast
}

type apiForecast struct {
	Date          string  `json:"date"` // RFC3339
	WeatherCode   int     `json:"wx"`
	TemperatureC  float64 `json:"temp"`
	FeelsLikeC    float64 `json:"feels_like"`
	PrecipMM      float64 `json:"prec"`
	HumidityPct   float64 `json:"rhum"`
	PressureHPa   float64 `json:"arpress"`
	WindSpeedMPS  float64 `json:"wndspd"`
	WindDirDeg    float64 `json:"wnddir"`
	CloudCoverPct float64 `json:"cloudcov"`
	VisibilityKm  float64 `json:"vis"`
	UVIndex       float64 `json:"uv"`
}

// Fetch implements forecast.Provider. It requests hourly samples
// covering at least [target-12h, target+hours] and normalizes them.
func (c *Client) Fetch(ctx context.Context, lat, lon float64, target time.Time, hours int) (forecast.Collection, error) {
	if c.apiKey == "" {
		return forecast.Collection{}, &forecast.FetchError{
			Tag:   forecast.TagAPIKeyInvalid,
			Cause: errors.New("wxtech API key not configured"),
		}
	}

	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.request(ctx, lat, lon, hours)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return forecast.Collection{}, &forecast.FetchError{Tag: forecast.TagNetwork, Cause: err}
		}
		return forecast.Collection{}, classify(err)
	}

	var resp apiResponse
	if err := json.Unmarshal(body.([]byte), &resp); err != nil {
		return forecast.Collection{}, &forecast.FetchError{Tag: forecast.TagUnknown, Cause: fmt.Errorf("decode response: %w", err)}
	}

	window := time.Duration(hours) * time.Hour
	var samples []forecast.WeatherForecast
	for _, f := range resp.Forecasts {
		ts, err := time.Parse(time.RFC3339, f.Date)
		if err != nil {
			continue
		}
		if ts.Before(target.Add(-window)) || ts.After(target.Add(window)) {
			continue
		}
		samples = append(samples, forecast.WeatherForecast{
			DateTime:        ts.UTC(),
			Condition:       conditionFromCode(f.WeatherCode),
			PrecipitationMM: f.PrecipMM,
			TemperatureC:    f.TemperatureC,
			FeelsLikeC:      f.FeelsLikeC,
			HumidityPct:     f.HumidityPct,
			PressureHPa:     f.PressureHPa,
			WindSpeedMPS:    f.WindSpeedMPS,
			WindDirection:   forecast.WindDirectionFromDegrees(f.WindDirDeg),
			CloudCoverPct:   f.CloudCoverPct,
			VisibilityKm:    f.VisibilityKm,
			UVIndex:         f.UVIndex,
		})
	}
	return forecast.NewCollection("", samples), nil
}

func (c *Client) request(ctx context.Context, lat, lon float64, hours int) ([]byte, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("hours", strconv.Itoa(hours * 2))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ss1wx?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a little of the body for the error message.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, &httpError{status: resp.StatusCode, body: string(snippet)}
	}
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}

type httpError struct {
	status int
	body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("wxtech API status %d: %s", e.status, e.body)
}

// classify maps transport and HTTP failures onto FetchError tags.
func classify(err error) *forecast.FetchError {
	var he *httpError
	if errors.As(err, &he) {
		switch {
		case he.status == http.StatusUnauthorized || he.status == http.StatusForbidden:
			return &forecast.FetchError{Tag: forecast.TagAPIKeyInvalid, Cause: err}
		case he.status == http.StatusTooManyRequests:
			return &forecast.FetchError{Tag: forecast.TagRateLimited, Cause: err}
		case he.status >= 500:
			return &forecast.FetchError{Tag: forecast.TagNetwork, Cause: err}
		default:
			return &forecast.FetchError{Tag: forecast.TagUnknown, Cause: err}
		}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &forecast.FetchError{Tag: forecast.TagTimeout, Cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &forecast.FetchError{Tag: forecast.TagTimeout, Cause: err}
	}
	return &forecast.FetchError{Tag: forecast.TagNetwork, Cause: err}
}

// conditionFromCode translates WxTech weather codes. Thin-cloud codes
// map to cloudy, never to clear.
func conditionFromCode(code int) forecast.Condition {
	switch {
	case code == 100:
		return forecast.Clear
	case code == 101 || code == 110 || code == 130: // sunny intervals / thin cloud
		return forecast.Cloudy
	case code >= 200 && code < 300:
		return forecast.Cloudy
	case code == 300 || code == 301 || code == 311:
		return forecast.Rainy
	case code == 302 || code == 308:
		return forecast.HeavyRain
	case code >= 350 && code < 400:
		return forecast.Thunder
	case code >= 400 && code < 420:
		return forecast.Snow
	case code >= 420 && code < 450:
		return forecast.Sleet
	case code == 500:
		return forecast.Fog
	case code == 550:
		return forecast.Storm
	default:
		return forecast.Other
	}
}
