package walks

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"take-a-paw/internal/domain/users"
	"take-a-paw/internal/httpapi"
	"take-a-paw/internal/platform/validate"
	"take-a-paw/internal/ports/weather"

	"github.com/sirupsen/logrus"
)

// WeatherCache es el cache por bucket de coordenadas (redis en prod).
// Puede ser nil; en ese caso cada consulta va al proveedor.
type WeatherCache interface {
	Get(ctx context.Context, lat, lng float64) (weather.Report, bool)
	Set(ctx context.Context, lat, lng float64, rep weather.Report)
}

// WeatherService sirve el clima actual para la pantalla de paseo.
type WeatherService struct {
	provider weather.Provider
	cache    WeatherCache
	log      *logrus.Entry
}

func NewWeatherService(provider weather.Provider, cache WeatherCache, log *logrus.Entry) *WeatherService {
	return &WeatherService{
		provider: provider,
		cache:    cache,
		log:      log,
	}
}

func (s *WeatherService) Current(ctx context.Context, lat, lng float64) (weather.Report, error) {
	if !validate.LatLng(lat, lng) {
		return weather.Report{}, ErrInvalidInput
	}
	if s.provider == nil {
		return weather.Report{}, weather.ErrUnavailable
	}

	if s.cache != nil {
		if rep, ok := s.cache.Get(ctx, lat, lng); ok {
			return rep, nil
		}
	}

	rep, err := s.provider.Current(ctx, lat, lng)
	if err != nil {
		return weather.Report{}, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, lat, lng, rep)
	}
	return rep, nil
}

func weatherHandler(svc *WeatherService, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := users.CurrentUser(w, r, usersSvc); !ok {
			return
		}

		lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
		lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
		if errLat != nil || errLng != nil {
			httpapi.Error(w, r, http.StatusBadRequest, "INVALID_INPUT", "lat y lng son requeridos")
			return
		}

		rep, err := svc.Current(r.Context(), lat, lng)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				httpapi.Error(w, r, http.StatusBadRequest, "INVALID_INPUT", "coordenadas fuera de rango")
			case errors.Is(err, weather.ErrUnavailable):
				// Proveedor caído o timeout: el cliente puede reintentar.
				httpapi.Error(w, r, http.StatusServiceUnavailable, "WEATHER_UNAVAILABLE", "servicio de clima no disponible")
			default:
				httpapi.Error(w, r, http.StatusBadGateway, "WEATHER_UPSTREAM", "error del proveedor de clima")
			}
			return
		}

		httpapi.OK(w, r, http.StatusOK, map[string]any{"weather": rep})
	}
}
