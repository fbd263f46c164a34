package openweather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"take-a-paw/internal/ports/weather"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrent_MapsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		w.Write([]byte(`{
			"weather": [{"main": "Clear", "description": "clear sky"}],
			"main": {"temp": 18.4, "feels_like": 17.9, "humidity": 40},
			"wind": {"speed": 2.1}
		}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{APIKey: "k", BaseURL: srv.URL})
	rep, err := p.Current(context.Background(), 37.5, 127.0)
	require.NoError(t, err)

	assert.Equal(t, "Clear", rep.Condition)
	assert.InDelta(t, 18.4, rep.TemperatureC, 0.001)
	assert.Equal(t, 40, rep.Humidity)
}

func TestCurrent_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewProvider(Config{APIKey: "k", BaseURL: srv.URL})
	_, err := p.Current(context.Background(), 37.5, 127.0)
	assert.ErrorIs(t, err, weather.ErrUnavailable)
}

func TestCurrent_ClientErrorIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewProvider(Config{APIKey: "bad", BaseURL: srv.URL})
	_, err := p.Current(context.Background(), 37.5, 127.0)
	assert.ErrorIs(t, err, weather.ErrUpstream)
}
