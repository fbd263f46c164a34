package pets

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"take-a-paw/internal/domain/users"
	"take-a-paw/internal/httpapi"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, usersSvc *users.Service) {
	r.Route("/api/v1/pets", func(pr chi.Router) {
		pr.Post("/register", registerPetHandler(svc, usersSvc))
		pr.Get("/", listMyPetsHandler(svc, usersSvc))
		pr.Get("/{petID}", getPetHandler(svc, usersSvc))
		pr.Patch("/{petID}", updatePetHandler(svc, usersSvc))
		pr.Post("/{petID}/image", updatePetImageHandler(svc, usersSvc))
	})
}

type registerPetRequest struct {
	SearchID string  `json:"pet_search_id"`
	Name     string  `json:"name"`
	Breed    string  `json:"breed"`
	Age      int     `json:"age"`
	WeightKg float64 `json:"weight"`
	Gender   string  `json:"gender"`
	Disease  string  `json:"disease"`
	ImageURL string  `json:"image_url"`
}

type petResponse struct {
	ID       string  `json:"pet_id"`
	FamilyID string  `json:"family_id"`
	OwnerID  string  `json:"owner_id"`
	SearchID string  `json:"pet_search_id"`
	Name     string  `json:"name"`
	Breed    string  `json:"breed"`
	Age      int     `json:"age"`
	WeightKg float64 `json:"weight"`
	Gender   string  `json:"gender"`
	Disease  string  `json:"disease,omitempty"`
	ImageURL string  `json:"image_url,omitempty"`
	VoiceURL string  `json:"voice_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:        p.ID,
		FamilyID:  p.FamilyID,
		OwnerID:   p.OwnerID,
		SearchID:  p.SearchID,
		Name:      p.Name,
		Breed:     p.Breed,
		Age:       p.Age,
		WeightKg:  p.WeightKg,
		Gender:    string(p.Gender),
		Disease:   p.Disease,
		ImageURL:  p.ImageURL,
		VoiceURL:  p.VoiceURL,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func registerPetHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		var req registerPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpapi.Error(w, r, http.StatusBadRequest, "INVALID_JSON", "body inválido")
			return
		}

		p, err := svc.Register(r.Context(), u.ID, RegisterInput{
			SearchID: req.SearchID,
			Name:     req.Name,
			Breed:    req.Breed,
			Age:      req.Age,
			WeightKg: req.WeightKg,
			Gender:   req.Gender,
			Disease:  req.Disease,
			ImageURL: req.ImageURL,
		})
		if err != nil {
			writePetError(w, r, err)
			return
		}

		httpapi.OK(w, r, http.StatusCreated, map[string]any{"pet": toPetResponse(p)})
	}
}

func listMyPetsHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		items, err := svc.MyPets(r.Context(), u.ID)
		if err != nil {
			httpapi.Error(w, r, http.StatusInternalServerError, "INTERNAL", "error interno")
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		httpapi.OK(w, r, http.StatusOK, map[string]any{"pets": out})
	}
}

func getPetHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		p, err := svc.GetByID(r.Context(), u.ID, chi.URLParam(r, "petID"))
		if err != nil {
			writePetError(w, r, err)
			return
		}
		httpapi.OK(w, r, http.StatusOK, map[string]any{"pet": toPetResponse(p)})
	}
}

type updatePetRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name     *string  `json:"name"`
	Breed    *string  `json:"breed"`
	Age      *int     `json:"age"`
	WeightKg *float64 `json:"weight"`
	Gender   *string  `json:"gender"`
	Disease  *string  `json:"disease"`
}

func updatePetHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		var req updatePetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpapi.Error(w, r, http.StatusBadRequest, "INVALID_JSON", "body inválido")
			return
		}

		p, err := svc.UpdateProfile(r.Context(), u.ID, chi.URLParam(r, "petID"), UpdateInput{
			Name:     req.Name,
			Breed:    req.Breed,
			Age:      req.Age,
			WeightKg: req.WeightKg,
			Gender:   req.Gender,
			Disease:  req.Disease,
		})
		if err != nil {
			writePetError(w, r, err)
			return
		}
		httpapi.OK(w, r, http.StatusOK, map[string]any{"pet": toPetResponse(p)})
	}
}

type updatePetImageRequest struct {
	ImageURL string `json:"image_url"`
}

func updatePetImageHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		var req updatePetImageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpapi.Error(w, r, http.StatusBadRequest, "INVALID_JSON", "body inválido")
			return
		}

		p, err := svc.UpdateImage(r.Context(), u.ID, chi.URLParam(r, "petID"), req.ImageURL)
		if err != nil {
			writePetError(w, r, err)
			return
		}
		httpapi.OK(w, r, http.StatusOK, map[string]any{"image_url": p.ImageURL})
	}
}

func writePetError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpapi.Error(w, r, http.StatusBadRequest, "INVALID_INPUT", "datos inválidos")
	case errors.Is(err, ErrNotFound):
		httpapi.Error(w, r, http.StatusNotFound, "PET_NOT_FOUND", "mascota no encontrada")
	case errors.Is(err, ErrForbidden):
		httpapi.Error(w, r, http.StatusForbidden, "FORBIDDEN", "sin permisos sobre esta mascota")
	case errors.Is(err, ErrSearchIDTaken):
		httpapi.Error(w, r, http.StatusConflict, "SEARCH_ID_TAKEN", "pet_search_id ya está en uso")
	default:
		httpapi.Error(w, r, http.StatusInternalServerError, "INTERNAL", "error interno")
	}
}
