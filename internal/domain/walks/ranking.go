package walks

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"take-a-paw/internal/domain/users"
	"take-a-paw/internal/httpapi"
)

// Períodos del ranking familiar.
const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodTotal   = "total"
)

// RankingPet es una mascota paseada dentro del período.
type RankingPet struct {
	PetID    string `json:"pet_id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
}

// RankingEntry es la posición de un miembro de la familia.
type RankingEntry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"user_id"`
	Nickname      string `json:"nickname"`
	ProfileImgURL string `json:"profile_img_url,omitempty"`

	TotalDistanceKm  float64 `json:"total_distance_km"`
	TotalDurationMin int     `json:"total_duration_min"`
	WalkCount        int     `json:"walk_count"`

	Pets     []RankingPet `json:"pets"`
	IsMyself bool         `json:"is_myself"`
}

// RankingSummary es el ranking completo de una familia en una ventana.
type RankingSummary struct {
	FamilyID string
	Period   string
	From     time.Time
	To       time.Time
	Entries  []RankingEntry
}

// Ranking ordena a los miembros de la familia por lo caminado en el
// período: weekly arranca el lunes 00:00 UTC de la semana en curso,
// monthly el día 1 del mes, total no acota hacia atrás. El orden lo da
// el repositorio (distancia, duración, cantidad, todo desc); acá solo
// se numera y se enriquece cada entrada.
func (s *Service) Ranking(ctx context.Context, userID, familyID, period, petID string) (RankingSummary, error) {
	if familyID == "" {
		return RankingSummary{}, ErrInvalidInput
	}

	now := s.now().UTC()
	var from time.Time
	switch period {
	case PeriodWeekly:
		monday := now.AddDate(0, 0, -((int(now.Weekday()) + 6) % 7))
		from = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)
	case PeriodMonthly:
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	case PeriodTotal, "":
		period = PeriodTotal
	default:
		return RankingSummary{}, ErrInvalidInput
	}
	to := now.Add(time.Second)

	memberIDs, err := s.families.MemberIDs(ctx, familyID)
	if err != nil {
		return RankingSummary{}, err
	}
	// Una familia sin miembros no existe para el lector.
	if len(memberIDs) == 0 {
		return RankingSummary{}, ErrNotFound
	}
	isMember := false
	for _, id := range memberIDs {
		if id == userID {
			isMember = true
			break
		}
	}
	if !isMember {
		return RankingSummary{}, ErrForbidden
	}

	rows, err := s.repo.RankingTotals(ctx, memberIDs, from, to, petID)
	if err != nil {
		return RankingSummary{}, err
	}
	if len(rows) == 0 {
		return RankingSummary{}, ErrNotFound
	}

	out := RankingSummary{
		FamilyID: familyID,
		Period:   period,
		From:     from,
		To:       to,
		Entries:  make([]RankingEntry, 0, len(rows)),
	}
	for i, row := range rows {
		entry := RankingEntry{
			Rank:             i + 1,
			UserID:           row.UserID,
			TotalDistanceKm:  row.TotalDistanceKm,
			TotalDurationMin: row.TotalDurationMin,
			WalkCount:        row.WalkCount,
			Pets:             []RankingPet{},
			IsMyself:         row.UserID == userID,
		}
		// Perfil y mascotas son decoración: si fallan, la entrada sale
		// igual con los totales.
		if s.users != nil {
			if u, err := s.users.GetByID(ctx, row.UserID); err == nil {
				entry.Nickname = u.Nickname
				entry.ProfileImgURL = u.ProfileImgURL
			}
		}
		petIDs, err := s.repo.PetsWalkedBy(ctx, row.UserID, from, to, petID)
		if err != nil {
			s.log.WithError(err).WithField("user_id", row.UserID).Warn("ranking pets lookup failed")
		}
		for _, id := range petIDs {
			pet, err := s.pets.Get(ctx, id)
			if err != nil {
				continue
			}
			entry.Pets = append(entry.Pets, RankingPet{PetID: pet.ID, Name: pet.Name, ImageURL: pet.ImageURL})
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}

func rankingHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		q := r.URL.Query()
		summary, err := svc.Ranking(r.Context(), u.ID,
			strings.TrimSpace(q.Get("family_id")),
			strings.TrimSpace(q.Get("period")),
			strings.TrimSpace(q.Get("pet_id")),
		)
		if err != nil {
			writeRankingError(w, r, err)
			return
		}

		httpapi.OK(w, r, http.StatusOK, map[string]any{
			"family_id":  summary.FamilyID,
			"period":     summary.Period,
			"start_date": summary.From,
			"end_date":   summary.To,
			"ranking":    summary.Entries,
		})
	}
}

func writeRankingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpapi.Error(w, r, http.StatusBadRequest, "INVALID_INPUT", "family_id es requerido y period debe ser weekly, monthly o total")
	case errors.Is(err, ErrForbidden):
		httpapi.Error(w, r, http.StatusForbidden, "FORBIDDEN", "no sos miembro de esta familia")
	case errors.Is(err, ErrNotFound):
		httpapi.Error(w, r, http.StatusNotFound, "RANKING_NOT_FOUND", "familia inexistente o sin paseos en el período")
	default:
		httpapi.Error(w, r, http.StatusInternalServerError, "INTERNAL", "error interno")
	}
}
