package users

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"take-a-paw/internal/httpapi"
	"take-a-paw/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/api/v1/auth", func(ar chi.Router) {
		ar.Post("/login", loginHandler(svc))
		ar.Delete("/delete", deleteAccountHandler(svc))
	})

	r.Route("/api/v1/users", func(ur chi.Router) {
		ur.Get("/me", meHandler(svc))
		ur.Patch("/me", updateMeHandler(svc))
		ur.Put("/me/fcm-token", fcmTokenHandler(svc))
	})
}

type userResponse struct {
	ID            string    `json:"user_id"`
	Nickname      string    `json:"nickname"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	ProfileImgURL string    `json:"profile_img_url,omitempty"`
	SNS           string    `json:"sns"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:            u.ID,
		Nickname:      u.Nickname,
		Email:         u.Email,
		Phone:         u.Phone,
		ProfileImgURL: u.ProfileImgURL,
		SNS:           string(u.SNS),
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// loginHandler resuelve (o aprovisiona) la cuenta a partir del token ya
// verificado por el middleware. No emite sesión propia: cada request
// vuelve a presentar el ID token.
func loginHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UID) == "" {
			httpapi.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "token requerido")
			return
		}

		u, created, err := svc.ResolveOrCreate(r.Context(), claims)
		if err != nil {
			httpapi.Error(w, r, http.StatusInternalServerError, "INTERNAL", "no se pudo resolver la cuenta")
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		httpapi.OK(w, r, status, map[string]any{
			"user":    toUserResponse(u),
			"created": created,
		})
	}
}

func meHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := currentUser(w, r, svc)
		if !ok {
			return
		}
		httpapi.OK(w, r, http.StatusOK, map[string]any{"user": toUserResponse(u)})
	}
}

type updateMeRequest struct {
	Nickname      *string `json:"nickname"`
	Phone         *string `json:"phone"`
	ProfileImgURL *string `json:"profile_img_url"`
}

func updateMeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := currentUser(w, r, svc)
		if !ok {
			return
		}

		var req updateMeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpapi.Error(w, r, http.StatusBadRequest, "INVALID_JSON", "body inválido")
			return
		}

		updated, err := svc.UpdateProfile(r.Context(), u.ID, UpdateProfileInput{
			Nickname:      req.Nickname,
			Phone:         req.Phone,
			ProfileImgURL: req.ProfileImgURL,
		})
		if err != nil {
			switch {
			case err == ErrInvalidInput:
				httpapi.Error(w, r, http.StatusBadRequest, "INVALID_INPUT", "nada para actualizar o formato inválido")
			case err == ErrNotFound:
				httpapi.Error(w, r, http.StatusNotFound, "USER_NOT_FOUND", "usuario no encontrado")
			default:
				httpapi.Error(w, r, http.StatusInternalServerError, "INTERNAL", "error interno")
			}
			return
		}

		httpapi.OK(w, r, http.StatusOK, map[string]any{"user": toUserResponse(updated)})
	}
}

type fcmTokenRequest struct {
	Token    string `json:"fcm_token"`
	DeviceID string `json:"device_id"`
	Platform string `json:"platform"`
}

func fcmTokenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := currentUser(w, r, svc)
		if !ok {
			return
		}

		var req fcmTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpapi.Error(w, r, http.StatusBadRequest, "INVALID_JSON", "body inválido")
			return
		}

		err := svc.SaveDeviceToken(r.Context(), u.ID, DeviceTokenInput{
			Token:    req.Token,
			DeviceID: req.DeviceID,
			Platform: req.Platform,
		})
		if err != nil {
			if err == ErrInvalidInput {
				httpapi.Error(w, r, http.StatusBadRequest, "INVALID_INPUT", "fcm_token requerido")
				return
			}
			httpapi.Error(w, r, http.StatusInternalServerError, "INTERNAL", "error interno")
			return
		}

		httpapi.OK(w, r, http.StatusOK, map[string]any{"saved": true})
	}
}

func deleteAccountHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := currentUser(w, r, svc)
		if !ok {
			return
		}

		if err := svc.DeleteAccount(r.Context(), u.ID); err != nil {
			if err == ErrNotFound {
				httpapi.Error(w, r, http.StatusNotFound, "USER_NOT_FOUND", "usuario no encontrado")
				return
			}
			httpapi.Error(w, r, http.StatusInternalServerError, "INTERNAL", "no se pudo borrar la cuenta")
			return
		}

		httpapi.OK(w, r, http.StatusOK, map[string]any{"deleted": true})
	}
}

// currentUser resuelve la cuenta interna desde los claims del request.
// Escribe el 401 por su cuenta; el caller solo chequea ok.
func currentUser(w http.ResponseWriter, r *http.Request, svc *Service) (User, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UID) == "" {
		httpapi.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "token requerido")
		return User{}, false
	}
	u, _, err := svc.ResolveOrCreate(r.Context(), claims)
	if err != nil {
		httpapi.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "no se pudo resolver la cuenta")
		return User{}, false
	}
	return u, true
}

// CurrentUser es la variante exportada para handlers de otros módulos.
func CurrentUser(w http.ResponseWriter, r *http.Request, svc *Service) (User, bool) {
	return currentUser(w, r, svc)
}
