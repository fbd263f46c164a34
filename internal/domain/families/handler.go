package families

import (
	"net/http"
	"strings"
	"time"

	"take-a-paw/internal/domain/users"
	"take-a-paw/internal/httpapi"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, usersSvc *users.Service) {
	r.Get("/api/v1/users/family-members", familyMembersHandler(svc, usersSvc))
}

type memberResponse struct {
	UserID        string    `json:"user_id"`
	Nickname      string    `json:"nickname"`
	ProfileImgURL string    `json:"profile_img_url,omitempty"`
	Role          string    `json:"role"`
	JoinedAt      time.Time `json:"joined_at"`
}

// familyMembersHandler lista los integrantes de una familia con su
// perfil básico. Solo para miembros de esa familia.
func familyMembersHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		familyID := strings.TrimSpace(r.URL.Query().Get("family_id"))
		if familyID == "" {
			httpapi.Error(w, r, http.StatusBadRequest, "INVALID_INPUT", "family_id requerido")
			return
		}

		isMember, err := svc.IsMember(r.Context(), familyID, u.ID)
		if err != nil {
			httpapi.Error(w, r, http.StatusInternalServerError, "INTERNAL", "error interno")
			return
		}
		if !isMember {
			httpapi.Error(w, r, http.StatusForbidden, "FORBIDDEN", "no sos miembro de esta familia")
			return
		}

		members, err := svc.Members(r.Context(), familyID)
		if err != nil {
			httpapi.Error(w, r, http.StatusInternalServerError, "INTERNAL", "error interno")
			return
		}

		out := make([]memberResponse, 0, len(members))
		for _, m := range members {
			item := memberResponse{
				UserID:   m.UserID,
				Role:     string(m.Role),
				JoinedAt: m.JoinedAt,
			}
			if profile, err := usersSvc.GetByID(r.Context(), m.UserID); err == nil {
				item.Nickname = profile.Nickname
				item.ProfileImgURL = profile.ProfileImgURL
			}
			out = append(out, item)
		}

		httpapi.OK(w, r, http.StatusOK, map[string]any{
			"family_id": familyID,
			"members":   out,
		})
	}
}
