package recommendations

import (
	"errors"
	"net/http"
	"strings"

	"take-a-paw/internal/domain/users"
	"take-a-paw/internal/httpapi"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, usersSvc *users.Service) {
	r.Get("/api/v1/walk/recommendation", getHandler(svc, usersSvc))
	r.Post("/api/v1/walk/recommendation/regenerate", regenerateHandler(svc, usersSvc))
}

type recommendationResponse struct {
	PetID string `json:"pet_id"`

	MinWalksPerDay         int `json:"min_walks_per_day"`
	RecommendedWalksPerDay int `json:"recommended_walks_per_day"`
	MaxWalksPerDay         int `json:"max_walks_per_day"`

	MinMinutesPerWalk         int `json:"min_minutes_per_walk"`
	RecommendedMinutesPerWalk int `json:"recommended_minutes_per_walk"`
	MaxMinutesPerWalk         int `json:"max_minutes_per_walk"`

	MinDistanceKm         float64 `json:"min_distance_km"`
	RecommendedDistanceKm float64 `json:"recommended_distance_km"`
	MaxDistanceKm         float64 `json:"max_distance_km"`

	GeneratedBy string `json:"generated_by"`
}

func toResponse(rec Recommendation) recommendationResponse {
	return recommendationResponse{
		PetID:                     rec.PetID,
		MinWalksPerDay:            rec.MinWalksPerDay,
		RecommendedWalksPerDay:    rec.RecommendedWalksPerDay,
		MaxWalksPerDay:            rec.MaxWalksPerDay,
		MinMinutesPerWalk:         rec.MinMinutesPerWalk,
		RecommendedMinutesPerWalk: rec.RecommendedMinutesPerWalk,
		MaxMinutesPerWalk:         rec.MaxMinutesPerWalk,
		MinDistanceKm:             rec.MinDistanceKm,
		RecommendedDistanceKm:     rec.RecommendedDistanceKm,
		MaxDistanceKm:             rec.MaxDistanceKm,
		GeneratedBy:               rec.GeneratedBy,
	}
}

func getHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		petID := strings.TrimSpace(r.URL.Query().Get("pet_id"))
		if petID == "" {
			httpapi.Error(w, r, http.StatusBadRequest, "INVALID_INPUT", "pet_id es requerido")
			return
		}

		rec, err := svc.Get(r.Context(), u.ID, petID)
		if err != nil {
			writeRecError(w, r, err)
			return
		}
		httpapi.OK(w, r, http.StatusOK, map[string]any{"recommendation": toResponse(rec)})
	}
}

func regenerateHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		petID := strings.TrimSpace(r.URL.Query().Get("pet_id"))
		if petID == "" {
			httpapi.Error(w, r, http.StatusBadRequest, "INVALID_INPUT", "pet_id es requerido")
			return
		}

		if err := svc.authorize(r.Context(), u.ID, petID); err != nil {
			writeRecError(w, r, err)
			return
		}

		// La regeneración es best effort: si el LLM falla se conserva el
		// plan anterior y el cliente lo vuelve a leer igual.
		if err := svc.Regenerate(r.Context(), petID); err != nil {
			svc.log.WithError(err).WithField("pet_id", petID).Warn("manual regeneration failed")
		}

		rec, err := svc.Get(r.Context(), u.ID, petID)
		if err != nil {
			writeRecError(w, r, err)
			return
		}
		httpapi.OK(w, r, http.StatusOK, map[string]any{"recommendation": toResponse(rec)})
	}
}

func writeRecError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpapi.Error(w, r, http.StatusNotFound, "RECOMMENDATION_NOT_FOUND", "recomendación no encontrada")
	case errors.Is(err, ErrForbidden):
		httpapi.Error(w, r, http.StatusForbidden, "FORBIDDEN", "sin permisos sobre esta mascota")
	default:
		httpapi.Error(w, r, http.StatusInternalServerError, "INTERNAL", "error interno")
	}
}
