package openweather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"take-a-paw/internal/platform/httpclient"
	"take-a-paw/internal/ports/weather"
)

var ErrNotConfigured = errors.New("openweather provider not configured")

const defaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Config del proveedor OpenWeatherMap.
type Config struct {
	APIKey  string
	BaseURL string // override para tests
	Timeout time.Duration
}

// Provider implementa weather.Provider contra la API current weather.
type Provider struct {
	apiKey string
	http   *httpclient.Client
}

func NewProvider(cfg Config) *Provider {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	hc, err := httpclient.NewWithBaseURL(base, timeout)
	if err != nil {
		hc = httpclient.New(timeout)
		hc.BaseURL = defaultBaseURL
	}
	return &Provider{
		apiKey: strings.TrimSpace(cfg.APIKey),
		http:   hc,
	}
}

func (p *Provider) IsConfigured() bool {
	return p != nil && p.apiKey != ""
}

type owmResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Current consulta el clima actual en métrico. 5xx y errores de red se
// reportan como ErrUnavailable (reintentable); el resto como ErrUpstream.
func (p *Provider) Current(ctx context.Context, lat, lng float64) (weather.Report, error) {
	if !p.IsConfigured() {
		return weather.Report{}, weather.ErrUnavailable
	}

	path := fmt.Sprintf("/weather?lat=%f&lon=%f&units=metric&appid=%s", lat, lng, p.apiKey)

	var out owmResponse
	if err := p.http.DoJSON(ctx, "GET", path, nil, nil, &out); err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			if httpErr.StatusCode >= 500 {
				return weather.Report{}, fmt.Errorf("%w: status=%d", weather.ErrUnavailable, httpErr.StatusCode)
			}
			return weather.Report{}, fmt.Errorf("%w: status=%d", weather.ErrUpstream, httpErr.StatusCode)
		}
		// Timeout o red caída: reintentable.
		return weather.Report{}, fmt.Errorf("%w: %v", weather.ErrUnavailable, err)
	}

	rep := weather.Report{
		TemperatureC: out.Main.Temp,
		FeelsLikeC:   out.Main.FeelsLike,
		Humidity:     out.Main.Humidity,
		WindSpeedMS:  out.Wind.Speed,
	}
	if len(out.Weather) > 0 {
		rep.Condition = out.Weather[0].Main
		rep.Description = out.Weather[0].Description
	}
	return rep, nil
}
