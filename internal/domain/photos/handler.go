package photos

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"take-a-paw/internal/domain/users"
	"take-a-paw/internal/httpapi"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, usersSvc *users.Service) {
	r.Post("/api/v1/walk/{walkID}/photo", uploadHandler(svc, usersSvc))
	r.Get("/api/v1/walk/photos", listHandler(svc, usersSvc))
}

type photoResponse struct {
	ID         string    `json:"photo_id"`
	WalkID     string    `json:"walk_id"`
	PetID      string    `json:"pet_id"`
	UploadedBy string    `json:"uploaded_by"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"created_at"`
}

func toResponse(p Photo) photoResponse {
	return photoResponse{
		ID:         p.ID,
		WalkID:     p.WalkID,
		PetID:      p.PetID,
		UploadedBy: p.UploadedBy,
		URL:        p.URL,
		CreatedAt:  p.CreatedAt,
	}
}

func uploadHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
			httpapi.Error(w, r, http.StatusBadRequest, "INVALID_INPUT", "multipart inválido")
			return
		}
		file, header, err := r.FormFile("photo")
		if err != nil {
			httpapi.Error(w, r, http.StatusBadRequest, "INVALID_INPUT", "falta el campo photo")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
		if err != nil {
			httpapi.Error(w, r, http.StatusBadRequest, "INVALID_INPUT", "no se pudo leer el archivo")
			return
		}

		contentType := header.Header.Get("Content-Type")
		p, err := svc.Upload(r.Context(), u.ID, chi.URLParam(r, "walkID"), contentType, data)
		if err != nil {
			writePhotoError(w, r, err)
			return
		}
		httpapi.OK(w, r, http.StatusCreated, map[string]any{"photo": toResponse(p)})
	}
}

func listHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		items, err := svc.ListByPet(r.Context(), u.ID, strings.TrimSpace(r.URL.Query().Get("pet_id")))
		if err != nil {
			writePhotoError(w, r, err)
			return
		}

		out := make([]photoResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toResponse(p))
		}
		httpapi.OK(w, r, http.StatusOK, map[string]any{"photos": out})
	}
}

func writePhotoError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpapi.Error(w, r, http.StatusBadRequest, "INVALID_INPUT", "archivo inválido")
	case errors.Is(err, ErrNotFound):
		httpapi.Error(w, r, http.StatusNotFound, "WALK_NOT_FOUND", "paseo no encontrado")
	case errors.Is(err, ErrForbidden):
		httpapi.Error(w, r, http.StatusForbidden, "FORBIDDEN", "sin permisos sobre este paseo")
	case errors.Is(err, ErrUnavailable):
		httpapi.Error(w, r, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "almacenamiento no disponible")
	default:
		httpapi.Error(w, r, http.StatusInternalServerError, "INTERNAL", "error interno")
	}
}
