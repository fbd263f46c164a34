package walks

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"take-a-paw/internal/domain/users"
	"take-a-paw/internal/httpapi"
	"take-a-paw/internal/platform/validate"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, weatherSvc *WeatherService, usersSvc *users.Service) {
	r.Route("/api/v1/walk", func(wr chi.Router) {
		// Las operaciones de sesión viven bajo /sessions; track y end
		// llevan el walk_id en el path, no en el body.
		wr.Route("/sessions", func(sr chi.Router) {
			sr.Post("/start", startWalkHandler(svc, usersSvc))
			sr.Post("/{walkID}/track", trackWalkHandler(svc, usersSvc))
			sr.Post("/{walkID}/end", endWalkHandler(svc, usersSvc))
		})
		wr.Get("/current", currentWalkHandler(svc, usersSvc))
		wr.Get("/ranking", rankingHandler(svc, usersSvc))
		wr.Get("/today", todayHandler(svc, usersSvc))
		wr.Get("/stats", statsHandler(svc, usersSvc))
		wr.Get("/{walkID}/points", pointsHandler(svc, usersSvc))
		wr.Get("/weather", weatherHandler(weatherSvc, usersSvc))
	})
}

type walkResponse struct {
	ID          string     `json:"walk_id"`
	PetID       string     `json:"pet_id"`
	UserID      string     `json:"user_id"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	DurationMin int        `json:"duration_min"`
	DistanceKm  float64    `json:"distance_km"`
	Calories    float64    `json:"calories"`

	WeatherStatus string   `json:"weather_status,omitempty"`
	WeatherTempC  *float64 `json:"weather_temp_c,omitempty"`

	RouteData json.RawMessage `json:"route_data,omitempty"`
}

func toWalkResponse(w Walk) walkResponse {
	return walkResponse{
		ID:            w.ID,
		PetID:         w.PetID,
		UserID:        w.UserID,
		StartTime:     w.StartTime,
		EndTime:       w.EndTime,
		DurationMin:   w.DurationMin,
		DistanceKm:    w.DistanceKm,
		Calories:      w.Calories,
		WeatherStatus: w.WeatherStatus,
		WeatherTempC:  w.WeatherTempC,
		RouteData:     w.RouteData,
	}
}

type startWalkRequest struct {
	PetID         string   `json:"pet_id" validate:"required"`
	Lat           *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng           *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	WeatherStatus string   `json:"weather_status"`
	WeatherTempC  *float64 `json:"weather_temp_c"`
}

func startWalkHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		var req startWalkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpapi.Error(w, r, http.StatusBadRequest, "INVALID_JSON", "body inválido")
			return
		}
		if err := validate.Struct(req); err != nil {
			httpapi.Error(w, r, http.StatusBadRequest, "INVALID_INPUT", "datos inválidos")
			return
		}

		walk, err := svc.Start(r.Context(), u.ID, StartInput{
			PetID:         req.PetID,
			Lat:           req.Lat,
			Lng:           req.Lng,
			WeatherStatus: req.WeatherStatus,
			WeatherTempC:  req.WeatherTempC,
		})
		if err != nil {
			writeWalkError(w, r, err)
			return
		}

		httpapi.OK(w, r, http.StatusCreated, map[string]any{"walk": toWalkResponse(walk)})
	}
}

type trackWalkRequest struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Timestamp string  `json:"timestamp"`
}

func trackWalkHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		var req trackWalkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpapi.Error(w, r, http.StatusBadRequest, "INVALID_JSON", "body inválido")
			return
		}

		p, err := svc.Track(r.Context(), u.ID, TrackInput{
			WalkID:    chi.URLParam(r, "walkID"),
			Lat:       req.Lat,
			Lng:       req.Lng,
			Timestamp: req.Timestamp,
		})
		if err != nil {
			writeWalkError(w, r, err)
			return
		}

		httpapi.OK(w, r, http.StatusCreated, map[string]any{
			"point": map[string]any{
				"point_id":  p.ID,
				"walk_id":   p.WalkID,
				"lat":       p.Latitude,
				"lng":       p.Longitude,
				"timestamp": p.Timestamp,
			},
		})
	}
}

type endWalkRequest struct {
	DurationMin *int            `json:"duration_min"`
	DistanceKm  *float64        `json:"distance_km"`
	RouteData   json.RawMessage `json:"route_data"`
}

func endWalkHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		// Todos los campos del body son opcionales; sin body también vale.
		var req endWalkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			httpapi.Error(w, r, http.StatusBadRequest, "INVALID_JSON", "body inválido")
			return
		}

		walk, err := svc.End(r.Context(), u.ID, EndInput{
			WalkID:      chi.URLParam(r, "walkID"),
			DurationMin: req.DurationMin,
			DistanceKm:  req.DistanceKm,
			RouteData:   req.RouteData,
		})
		if err != nil {
			writeWalkError(w, r, err)
			return
		}

		httpapi.OK(w, r, http.StatusOK, map[string]any{"walk": toWalkResponse(walk)})
	}
}

func currentWalkHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		walk, err := svc.Current(r.Context(), u.ID, strings.TrimSpace(r.URL.Query().Get("pet_id")))
		if err != nil {
			writeWalkError(w, r, err)
			return
		}
		httpapi.OK(w, r, http.StatusOK, map[string]any{"walk": toWalkResponse(walk)})
	}
}

func pointsHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		points, err := svc.Points(r.Context(), u.ID, chi.URLParam(r, "walkID"))
		if err != nil {
			writeWalkError(w, r, err)
			return
		}

		out := make([]map[string]any, 0, len(points))
		for _, p := range points {
			out = append(out, map[string]any{
				"lat":       p.Latitude,
				"lng":       p.Longitude,
				"timestamp": p.Timestamp,
			})
		}
		httpapi.OK(w, r, http.StatusOK, map[string]any{"points": out})
	}
}

func todayHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		summary, err := svc.Today(r.Context(), u.ID, strings.TrimSpace(r.URL.Query().Get("pet_id")))
		if err != nil {
			writeWalkError(w, r, err)
			return
		}

		items := make([]walkResponse, 0, len(summary.Walks))
		for _, it := range summary.Walks {
			items = append(items, toWalkResponse(it))
		}
		httpapi.OK(w, r, http.StatusOK, map[string]any{
			"date":               summary.Date,
			"walks":              items,
			"total_walks":        summary.TotalWalks,
			"total_distance_km":  summary.TotalDistanceKm,
			"total_duration_min": summary.TotalDurationMin,
			"total_calories":     summary.TotalCalories,
		})
	}
}

func statsHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		summary, err := svc.Stats(r.Context(), u.ID,
			strings.TrimSpace(r.URL.Query().Get("pet_id")),
			strings.TrimSpace(r.URL.Query().Get("period")),
		)
		if err != nil {
			writeWalkError(w, r, err)
			return
		}

		days := make([]map[string]any, 0, len(summary.Days))
		for _, d := range summary.Days {
			days = append(days, map[string]any{
				"date":               d.Date,
				"total_walks":        d.TotalWalks,
				"total_distance_km":  d.TotalDistanceKm,
				"total_duration_min": d.TotalDurationMin,
				"avg_speed_kmh":      d.AvgSpeedKmh,
				"calories_burned":    d.CaloriesBurned,
			})
		}
		httpapi.OK(w, r, http.StatusOK, map[string]any{
			"period":             summary.Period,
			"days":               days,
			"total_walks":        summary.TotalWalks,
			"total_distance_km":  summary.TotalDistanceKm,
			"total_duration_min": summary.TotalDurationMin,
			"avg_speed_kmh":      summary.AvgSpeedKmh,
			"total_calories":     summary.TotalCalories,
		})
	}
}

func writeWalkError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpapi.Error(w, r, http.StatusBadRequest, "INVALID_INPUT", "datos inválidos")
	case errors.Is(err, ErrNotFound):
		httpapi.Error(w, r, http.StatusNotFound, "WALK_NOT_FOUND", "paseo o mascota no encontrados")
	case errors.Is(err, ErrForbidden):
		httpapi.Error(w, r, http.StatusForbidden, "FORBIDDEN", "sin permisos sobre esta mascota")
	case errors.Is(err, ErrWalkInProgress):
		httpapi.Error(w, r, http.StatusConflict, "WALK_ALREADY_IN_PROGRESS", "ya hay un paseo en curso para esta mascota")
	case errors.Is(err, ErrWalkEnded):
		httpapi.Error(w, r, http.StatusConflict, "WALK_ALREADY_ENDED", "el paseo ya terminó")
	default:
		httpapi.Error(w, r, http.StatusInternalServerError, "INTERNAL", "error interno")
	}
}
