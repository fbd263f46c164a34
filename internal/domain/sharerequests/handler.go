package sharerequests

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

func RegisterRoutes(r chi.Router, svc *Service, usersSvc *users.Service) {
	// El create usa el código corto de la mascota, no su id interno.
	r.Post("/api/v1/pets/{petSearchID}/request", createRequestHandler(svc, usersSvc))
	r.Patch("/api/v1/pets/share/{requestID}", resolveRequestHandler(svc, usersSvc))
	r.Get("/api/v1/pets/share/requests", listMyRequestsHandler(svc, usersSvc))
}

type requestResponse struct {
	ID          string     `json:"request_id"`
	PetID       string     `json:"pet_id"`
	RequesterID string     `json:"requester_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

func toRequestResponse(req ShareRequest) requestResponse {
	return requestResponse{
		ID:          req.ID,
		PetID:       req.PetID,
		RequesterID: req.RequesterID,
		Status:      string(req.Status),
		CreatedAt:   req.CreatedAt,
		RespondedAt: req.RespondedAt,
	}
}

func createRequestHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		req, err := svc.Create(r.Context(), u.ID, u.Nickname, chi.URLParam(r, "petSearchID"))
		if err != nil {
			writeShareError(w, r, err)
			return
		}

		httpapi.OK(w, r, http.StatusCreated, map[string]any{"request": toRequestResponse(req)})
	}
}

type resolveRequest struct {
	Action string `json:"action"` // approve | reject
}

func resolveRequestHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		var body resolveRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			httpapi.Error(w, r, http.StatusBadRequest, "INVALID_JSON", "body inválido")
			return
		}

		var approve bool
		switch strings.ToLower(strings.TrimSpace(body.Action)) {
		case "approve":
			approve = true
		case "reject":
			approve = false
		default:
			httpapi.Error(w, r, http.StatusBadRequest, "INVALID_INPUT", "action debe ser approve o reject")
			return
		}

		req, err := svc.Resolve(r.Context(), u.ID, chi.URLParam(r, "requestID"), approve)
		if err != nil {
			writeShareError(w, r, err)
			return
		}

		httpapi.OK(w, r, http.StatusOK, map[string]any{"request": toRequestResponse(req)})
	}
}

func listMyRequestsHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		var status *Status
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			s := Status(strings.ToUpper(raw))
			status = &s
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("size"))

		items, total, err := svc.ListMine(r.Context(), u.ID, status, page, size)
		if err != nil {
			writeShareError(w, r, err)
			return
		}

		out := make([]requestResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toRequestResponse(it))
		}
		httpapi.OK(w, r, http.StatusOK, map[string]any{
			"requests": out,
			"total":    total,
		})
	}
}

func writeShareError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpapi.Error(w, r, http.StatusBadRequest, "INVALID_INPUT", "datos inválidos")
	case errors.Is(err, ErrPetNotFound):
		httpapi.Error(w, r, http.StatusNotFound, "PET_NOT_FOUND", "código de mascota inexistente")
	case errors.Is(err, ErrNotFound):
		httpapi.Error(w, r, http.StatusNotFound, "REQUEST_NOT_FOUND", "solicitud no encontrada")
	case errors.Is(err, ErrForbidden):
		httpapi.Error(w, r, http.StatusForbidden, "FORBIDDEN", "solo el OWNER puede resolver solicitudes")
	case errors.Is(err, ErrAlreadyMember):
		httpapi.Error(w, r, http.StatusConflict, "ALREADY_MEMBER", "ya sos miembro de esta familia")
	case errors.Is(err, ErrPendingExists):
		httpapi.Error(w, r, http.StatusConflict, "REQUEST_PENDING", "ya hay una solicitud pendiente")
	case errors.Is(err, ErrAlreadyResolved):
		httpapi.Error(w, r, http.StatusConflict, "REQUEST_RESOLVED", "la solicitud ya fue resuelta")
	default:
		httpapi.Error(w, r, http.StatusInternalServerError, "INTERNAL", "error interno")
	}
}
