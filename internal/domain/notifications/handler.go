package notifications

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"take-a-paw/internal/domain/users"
	"take-a-paw/internal/httpapi"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, advisor *WeatherAdvisor, usersSvc *users.Service) {
	r.Route("/api/v1/notifications", func(nr chi.Router) {
		nr.Get("/", listHandler(svc, usersSvc))
		nr.Patch("/{notificationID}/read", markReadHandler(svc, usersSvc))
		nr.Post("/sos", sosHandler(svc, usersSvc))
		nr.Post("/sos/{notificationID}/resolve", sosResolveHandler(svc, usersSvc))
		nr.Post("/weather/recommendation", weatherAdviceHandler(advisor, usersSvc))
	})
}

type notificationResponse struct {
	ID           string  `json:"notification_id"`
	FamilyID     string  `json:"family_id"`
	TargetUserID *string `json:"target_user_id,omitempty"`
	Type         Type    `json:"type"`
	Title        string  `json:"title"`
	Message      string  `json:"message"`
	Read         bool    `json:"read"`

	RelatedPetID     string   `json:"related_pet_id,omitempty"`
	RelatedUserID    string   `json:"related_user_id,omitempty"`
	RelatedRequestID string   `json:"related_request_id,omitempty"`
	RelatedLat       *float64 `json:"related_lat,omitempty"`
	RelatedLng       *float64 `json:"related_lng,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func toResponse(it ListItem) notificationResponse {
	return notificationResponse{
		ID:               it.ID,
		FamilyID:         it.FamilyID,
		TargetUserID:     it.TargetUserID,
		Type:             it.Type,
		Title:            it.Title,
		Message:          it.Message,
		Read:             it.Read,
		RelatedPetID:     it.RelatedPetID,
		RelatedUserID:    it.RelatedUserID,
		RelatedRequestID: it.RelatedRequestID,
		RelatedLat:       it.RelatedLat,
		RelatedLng:       it.RelatedLng,
		CreatedAt:        it.CreatedAt,
	}
}

func listHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		q := r.URL.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		size, _ := strconv.Atoi(q.Get("size"))

		items, err := svc.List(r.Context(), u.ID, ListFilter{
			Type:  Type(strings.TrimSpace(q.Get("type"))),
			PetID: strings.TrimSpace(q.Get("pet_id")),
			Page:  page,
			Size:  size,
		})
		if err != nil {
			writeNotifError(w, r, err)
			return
		}

		out := make([]notificationResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toResponse(it))
		}
		httpapi.OK(w, r, http.StatusOK, map[string]any{"notifications": out})
	}
}

func markReadHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		already, err := svc.MarkRead(r.Context(), u.ID, chi.URLParam(r, "notificationID"))
		if err != nil {
			writeNotifError(w, r, err)
			return
		}
		httpapi.OK(w, r, http.StatusOK, map[string]any{"already_read": already})
	}
}

type sosRequest struct {
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Message string   `json:"message"`
}

func sosHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		var req sosRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpapi.Error(w, r, http.StatusBadRequest, "INVALID_JSON", "body inválido")
			return
		}

		notified, err := svc.SOS(r.Context(), u.ID, req.Lat, req.Lng, strings.TrimSpace(req.Message))
		if err != nil {
			writeNotifError(w, r, err)
			return
		}
		httpapi.OK(w, r, http.StatusCreated, map[string]any{"notified_count": notified})
	}
}

func sosResolveHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		n, err := svc.SOSResolved(r.Context(), u.ID, chi.URLParam(r, "notificationID"))
		if err != nil {
			writeNotifError(w, r, err)
			return
		}
		httpapi.OK(w, r, http.StatusCreated, map[string]any{
			"notification": toResponse(ListItem{Notification: n}),
		})
	}
}

func writeNotifError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpapi.Error(w, r, http.StatusBadRequest, "INVALID_INPUT", "datos inválidos")
	case errors.Is(err, ErrNotFound):
		httpapi.Error(w, r, http.StatusNotFound, "NOTIFICATION_NOT_FOUND", "notificación no encontrada")
	case errors.Is(err, ErrForbidden):
		httpapi.Error(w, r, http.StatusForbidden, "FORBIDDEN", "sin permisos sobre esta notificación")
	default:
		httpapi.Error(w, r, http.StatusInternalServerError, "INTERNAL", "error interno")
	}
}
