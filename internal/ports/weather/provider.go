package weather

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable: el proveedor está caído o tardó demasiado (reintentar).
	ErrUnavailable = errors.New("weather provider unavailable")
	// ErrUpstream: el proveedor respondió algo inusable (no reintentar).
	ErrUpstream = errors.New("weather provider error")
)

// Report es el estado actual del clima en un punto.
type Report struct {
	Condition    string  `json:"condition"`     // Clear, Rain, ...
	Description  string  `json:"description"`   // texto localizado del proveedor
	TemperatureC float64 `json:"temperature_c"`
	FeelsLikeC   float64 `json:"feels_like_c"`
	Humidity     int     `json:"humidity"`
	WindSpeedMS  float64 `json:"wind_speed_ms"`
}

// Provider consulta el clima actual.
type Provider interface {
	Current(ctx context.Context, lat, lng float64) (Report, error)
}
