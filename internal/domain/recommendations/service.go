package recommendations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"take-a-paw/internal/domain/families"
	"take-a-paw/internal/domain/pets"
	"take-a-paw/internal/ports/llm"

	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound  = errors.New("recommendation not found")
	ErrForbidden = errors.New("forbidden")
)

// Families autoriza la lectura por mascota.
type Families interface {
	Authorize(ctx context.Context, userID, petID string, required families.Role) error
}

// Pets da el perfil para armar el prompt.
type Pets interface {
	Get(ctx context.Context, petID string) (pets.Pet, error)
}

type Service struct {
	repo      Repository
	pets      Pets
	families  Families
	generator llm.Generator // puede ser nil (sin LLM configurado)
	model     string
	log       *logrus.Entry
	now       func() time.Time
}

func NewService(repo Repository, petsSvc Pets, familiesSvc Families, generator llm.Generator, model string, log *logrus.Entry) *Service {
	return &Service{
		repo:      repo,
		pets:      petsSvc,
		families:  familiesSvc,
		generator: generator,
		model:     model,
		log:       log,
		now:       time.Now,
	}
}

// SeedDefaults deja el plan genérico al registrar la mascota; la
// regeneración por perfil viene después (y puede fallar sin romper nada).
func (s *Service) SeedDefaults(ctx context.Context, petID string) error {
	return s.repo.Upsert(ctx, Recommendation{
		PetID:                     petID,
		MinWalksPerDay:            1,
		RecommendedWalksPerDay:    2,
		MaxWalksPerDay:            3,
		MinMinutesPerWalk:         15,
		RecommendedMinutesPerWalk: 30,
		MaxMinutesPerWalk:         60,
		MinDistanceKm:             0.5,
		RecommendedDistanceKm:     1.5,
		MaxDistanceKm:             3.0,
		GeneratedBy:               "default",
		UpdatedAt:                 s.now().UTC(),
	})
}

// Regenerate pide un plan al LLM a partir del perfil. Cualquier
// respuesta que no pase la validación deja el valor anterior intacto.
func (s *Service) Regenerate(ctx context.Context, petID string) error {
	if s.generator == nil {
		return nil
	}

	pet, err := s.pets.Get(ctx, petID)
	if err != nil {
		return err
	}

	raw, err := s.generator.Generate(ctx, llm.Request{
		System:      planSystemPrompt,
		Prompt:      buildPlanPrompt(pet),
		Temperature: 0.2,
	})
	if err != nil {
		return err
	}

	plan, err := parsePlan(raw)
	if err != nil {
		s.log.WithError(err).WithField("pet_id", petID).Warn("llm plan rejected")
		return err
	}

	rec := plan.toRecommendation(petID, s.model, s.now().UTC())
	if err := s.repo.Upsert(ctx, rec); err != nil {
		return err
	}
	s.log.WithField("pet_id", petID).Info("walk recommendation regenerated")
	return nil
}

// Get devuelve el plan guardado; 404 si nunca se generó.
func (s *Service) Get(ctx context.Context, userID, petID string) (Recommendation, error) {
	if err := s.authorize(ctx, userID, petID); err != nil {
		return Recommendation{}, err
	}
	rec, err := s.repo.GetByPet(ctx, petID)
	if err != nil {
		return Recommendation{}, ErrNotFound
	}
	return rec, nil
}

// PlanByPet devuelve el plan guardado sin chequear pertenencia; lo
// consumen flujos del sistema que ya autorizaron por otro lado.
func (s *Service) PlanByPet(ctx context.Context, petID string) (Recommendation, error) {
	rec, err := s.repo.GetByPet(ctx, petID)
	if err != nil {
		return Recommendation{}, ErrNotFound
	}
	return rec, nil
}

func (s *Service) authorize(ctx context.Context, userID, petID string) error {
	err := s.families.Authorize(ctx, userID, petID, families.RoleMember)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, families.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, families.ErrForbidden):
		return ErrForbidden
	default:
		return err
	}
}

const planSystemPrompt = "You are a veterinary assistant. Answer with a single JSON object and nothing else."

func buildPlanPrompt(p pets.Pet) string {
	var b strings.Builder
	b.WriteString("Suggest a daily walk plan for this dog as JSON with the exact keys ")
	b.WriteString(`min_walks_per_day, recommended_walks_per_day, max_walks_per_day, `)
	b.WriteString(`min_minutes_per_walk, recommended_minutes_per_walk, max_minutes_per_walk, `)
	b.WriteString(`min_distance_km, recommended_distance_km, max_distance_km.`)
	fmt.Fprintf(&b, "\nBreed: %s", orUnknown(p.Breed))
	fmt.Fprintf(&b, "\nAge (years): %d", p.Age)
	fmt.Fprintf(&b, "\nWeight (kg): %.1f", p.WeightKg)
	fmt.Fprintf(&b, "\nGender: %s", p.Gender)
	fmt.Fprintf(&b, "\nKnown conditions: %s", orUnknown(p.Disease))
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// plan refleja el JSON esperado. Punteros para distinguir "falta el
// campo" de cero.
type plan struct {
	MinWalks   *int `json:"min_walks_per_day"`
	RecWalks   *int `json:"recommended_walks_per_day"`
	MaxWalks   *int `json:"max_walks_per_day"`
	MinMinutes *int `json:"min_minutes_per_walk"`
	RecMinutes *int `json:"recommended_minutes_per_walk"`
	MaxMinutes *int `json:"max_minutes_per_walk"`

	MinDistanceKm *float64 `json:"min_distance_km"`
	RecDistanceKm *float64 `json:"recommended_distance_km"`
	MaxDistanceKm *float64 `json:"max_distance_km"`
}

func (p plan) toRecommendation(petID, model string, at time.Time) Recommendation {
	return Recommendation{
		PetID:                     petID,
		MinWalksPerDay:            *p.MinWalks,
		RecommendedWalksPerDay:    *p.RecWalks,
		MaxWalksPerDay:            *p.MaxWalks,
		MinMinutesPerWalk:         *p.MinMinutes,
		RecommendedMinutesPerWalk: *p.RecMinutes,
		MaxMinutesPerWalk:         *p.MaxMinutes,
		MinDistanceKm:             *p.MinDistanceKm,
		RecommendedDistanceKm:     *p.RecDistanceKm,
		MaxDistanceKm:             *p.MaxDistanceKm,
		GeneratedBy:               model,
		UpdatedAt:                 at,
	}
}

// parsePlan tolera fences de markdown y exige todos los campos.
func parsePlan(raw string) (plan, error) {
	cleaned := stripFences(raw)

	var p plan
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return plan{}, fmt.Errorf("plan is not valid json: %w", err)
	}

	missing := []string{}
	for name, ok := range map[string]bool{
		"min_walks_per_day":            p.MinWalks != nil,
		"recommended_walks_per_day":    p.RecWalks != nil,
		"max_walks_per_day":            p.MaxWalks != nil,
		"min_minutes_per_walk":         p.MinMinutes != nil,
		"recommended_minutes_per_walk": p.RecMinutes != nil,
		"max_minutes_per_walk":         p.MaxMinutes != nil,
		"min_distance_km":              p.MinDistanceKm != nil,
		"recommended_distance_km":      p.RecDistanceKm != nil,
		"max_distance_km":              p.MaxDistanceKm != nil,
	} {
		if !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return plan{}, fmt.Errorf("plan missing fields: %s", strings.Join(missing, ", "))
	}
	return p, nil
}

// stripFences saca ```json ... ``` si el modelo envolvió la respuesta.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
