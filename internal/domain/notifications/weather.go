package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"take-a-paw/internal/domain/families"
	"take-a-paw/internal/domain/pets"
	"take-a-paw/internal/domain/recommendations"
	"take-a-paw/internal/domain/users"
	"take-a-paw/internal/httpapi"
	"take-a-paw/internal/platform/validate"
	"take-a-paw/internal/ports/llm"
	"take-a-paw/internal/ports/weather"

	"github.com/sirupsen/logrus"
)

// AdvisorFamilies autoriza por mascota; interfaz local, como en walks.
type AdvisorFamilies interface {
	Authorize(ctx context.Context, userID, petID string, required families.Role) error
}

// AdvisorPets resuelve el perfil de la mascota.
type AdvisorPets interface {
	Get(ctx context.Context, petID string) (pets.Pet, error)
}

// Activity da los minutos caminados recientes (lo implementa walks).
type Activity interface {
	MinutesLastWeek(ctx context.Context, petID string) (int, error)
}

// Plans da el plan de paseo guardado (lo implementa recommendations).
type Plans interface {
	PlanByPet(ctx context.Context, petID string) (recommendations.Recommendation, error)
}

// WeatherAdvisor cruza clima actual, actividad reciente y plan de la
// mascota para emitir un consejo de paseo como notificación
// SYSTEM_WEATHER dirigida a quien lo pidió.
type WeatherAdvisor struct {
	svc       *Service
	families  AdvisorFamilies
	pets      AdvisorPets
	activity  Activity
	plans     Plans
	provider  weather.Provider // puede ser nil (sin clima configurado)
	generator llm.Generator    // puede ser nil (consejo por defecto)
	model     string
	log       *logrus.Entry
}

func NewWeatherAdvisor(svc *Service, familiesSvc AdvisorFamilies, petsSvc AdvisorPets, activity Activity, plans Plans, provider weather.Provider, generator llm.Generator, model string, log *logrus.Entry) *WeatherAdvisor {
	return &WeatherAdvisor{
		svc:       svc,
		families:  familiesSvc,
		pets:      petsSvc,
		activity:  activity,
		plans:     plans,
		provider:  provider,
		generator: generator,
		model:     model,
		log:       log,
	}
}

type AdviceInput struct {
	PetID       string
	Lat         float64
	Lng         float64
	TriggerType string // manual, scheduled, ...
}

// TimeSlot es una franja horaria sugerida para salir.
type TimeSlot struct {
	Label     string `json:"label"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// WalkAdvice es el consejo estructurado que produce el modelo.
type WalkAdvice struct {
	Title                string     `json:"title"`
	Message              string     `json:"message"`
	SuggestedTimeSlots   []TimeSlot `json:"suggested_time_slots"`
	SuggestedDurationMin int        `json:"suggested_duration_min"`
	Notes                []string   `json:"notes"`
}

// Advise genera el consejo y lo persiste como notificación dirigida al
// solicitante (nace leída: es una respuesta, no un aviso). El clima es
// obligatorio; actividad, plan y LLM degradan a valores por defecto.
func (a *WeatherAdvisor) Advise(ctx context.Context, userID string, in AdviceInput) (Notification, WalkAdvice, error) {
	if in.PetID == "" || !validate.LatLng(in.Lat, in.Lng) {
		return Notification{}, WalkAdvice{}, ErrInvalidInput
	}

	pet, err := a.pets.Get(ctx, in.PetID)
	if err != nil {
		return Notification{}, WalkAdvice{}, ErrNotFound
	}
	if err := a.authorize(ctx, userID, in.PetID); err != nil {
		return Notification{}, WalkAdvice{}, err
	}

	if a.provider == nil {
		return Notification{}, WalkAdvice{}, weather.ErrUnavailable
	}
	rep, err := a.provider.Current(ctx, in.Lat, in.Lng)
	if err != nil {
		return Notification{}, WalkAdvice{}, err
	}

	minutes, err := a.weeklyMinutes(ctx, pet.ID)
	if err != nil {
		a.log.WithError(err).WithField("pet_id", pet.ID).Warn("weather advice: weekly minutes lookup failed")
	}

	advice := a.generate(ctx, pet, rep, minutes, in.TriggerType)

	message := composeAdviceMessage(advice, rep)
	n, err := a.svc.Notify(ctx, NotifyInput{
		FamilyID:      pet.FamilyID,
		TargetUserID:  &userID,
		ActorID:       userID,
		Type:          TypeSystemWeather,
		Title:         advice.Title,
		Message:       message,
		RelatedPetID:  pet.ID,
		RelatedUserID: userID,
		RelatedLat:    &in.Lat,
		RelatedLng:    &in.Lng,
	})
	if err != nil {
		return Notification{}, WalkAdvice{}, err
	}
	return n, advice, nil
}

func (a *WeatherAdvisor) weeklyMinutes(ctx context.Context, petID string) (int, error) {
	if a.activity == nil {
		return 0, nil
	}
	return a.activity.MinutesLastWeek(ctx, petID)
}

// generate pide el consejo al LLM. Cualquier falla (sin generador,
// error de red, JSON inválido) cae al consejo por defecto armado con
// el clima; faltantes puntuales se completan campo a campo.
func (a *WeatherAdvisor) generate(ctx context.Context, pet pets.Pet, rep weather.Report, weeklyMinutes int, trigger string) WalkAdvice {
	fallback := defaultAdvice(pet, rep)
	if a.generator == nil {
		return fallback
	}

	raw, err := a.generator.Generate(ctx, llm.Request{
		System:      adviceSystemPrompt,
		Prompt:      a.buildAdvicePrompt(ctx, pet, rep, weeklyMinutes, trigger),
		Temperature: 0.4,
	})
	if err != nil {
		a.log.WithError(err).WithField("pet_id", pet.ID).Warn("weather advice generation failed")
		return fallback
	}

	var advice WalkAdvice
	if err := json.Unmarshal([]byte(stripAdviceFences(raw)), &advice); err != nil {
		a.log.WithError(err).WithField("pet_id", pet.ID).Warn("weather advice not valid json")
		return fallback
	}
	if advice.Title == "" {
		advice.Title = fallback.Title
	}
	if advice.Message == "" {
		advice.Message = fallback.Message
	}
	return advice
}

func (a *WeatherAdvisor) authorize(ctx context.Context, userID, petID string) error {
	err := a.families.Authorize(ctx, userID, petID, families.RoleMember)
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

const adviceSystemPrompt = "You are a dog-walking assistant. Answer with a single JSON object and nothing else."

func (a *WeatherAdvisor) buildAdvicePrompt(ctx context.Context, pet pets.Pet, rep weather.Report, weeklyMinutes int, trigger string) string {
	var b strings.Builder
	b.WriteString("Given the current weather and this dog's profile, suggest whether and how to walk now. ")
	b.WriteString("Answer as JSON with the exact keys ")
	b.WriteString(`title, message, suggested_time_slots (array of {label, start_time, end_time}), `)
	b.WriteString(`suggested_duration_min, notes (array of strings). Write title and message in Spanish.`)
	fmt.Fprintf(&b, "\nWeather: %s (%s), %.1f°C, feels like %.1f°C, humidity %d%%, wind %.1f m/s",
		rep.Condition, rep.Description, rep.TemperatureC, rep.FeelsLikeC, rep.Humidity, rep.WindSpeedMS)
	fmt.Fprintf(&b, "\nBreed: %s", orUnknownStr(pet.Breed))
	fmt.Fprintf(&b, "\nAge (years): %d", pet.Age)
	fmt.Fprintf(&b, "\nWeight (kg): %.1f", pet.WeightKg)
	fmt.Fprintf(&b, "\nKnown conditions: %s", orUnknownStr(pet.Disease))
	fmt.Fprintf(&b, "\nMinutes walked in the last 7 days: %d", weeklyMinutes)
	if a.plans != nil {
		if plan, err := a.plans.PlanByPet(ctx, pet.ID); err == nil {
			fmt.Fprintf(&b, "\nRecommended minutes per walk: %d (daily walks: %d)",
				plan.RecommendedMinutesPerWalk, plan.RecommendedWalksPerDay)
		}
	}
	if trigger != "" {
		fmt.Fprintf(&b, "\nTrigger: %s", trigger)
	}
	return b.String()
}

func defaultAdvice(pet pets.Pet, rep weather.Report) WalkAdvice {
	return WalkAdvice{
		Title: "Consejo de paseo",
		Message: fmt.Sprintf("Ahora está %s y hay %.1f°C; ajustá el paseo de %s a cómo se sienta.",
			strings.ToLower(orUnknownStr(rep.Description)), rep.TemperatureC, pet.Name),
	}
}

// composeAdviceMessage arma el texto final de la notificación: consejo,
// clima actual, primera franja sugerida y primera nota.
func composeAdviceMessage(advice WalkAdvice, rep weather.Report) string {
	var b strings.Builder
	b.WriteString(advice.Message)
	fmt.Fprintf(&b, " Clima actual: %s, %.1f°C.", rep.Condition, rep.TemperatureC)
	if len(advice.SuggestedTimeSlots) > 0 {
		slot := advice.SuggestedTimeSlots[0]
		if slot.StartTime != "" && slot.EndTime != "" {
			fmt.Fprintf(&b, " Horario sugerido: %s a %s.", slot.StartTime, slot.EndTime)
		}
	}
	if len(advice.Notes) > 0 && advice.Notes[0] != "" {
		b.WriteString(" " + advice.Notes[0])
	}
	return b.String()
}

// stripAdviceFences saca ```json ... ``` si el modelo envolvió la respuesta.
func stripAdviceFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func orUnknownStr(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

type weatherAdviceRequest struct {
	PetID       string  `json:"pet_id"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	TriggerType string  `json:"trigger_type"`
}

func weatherAdviceHandler(advisor *WeatherAdvisor, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := users.CurrentUser(w, r, usersSvc)
		if !ok {
			return
		}

		var req weatherAdviceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpapi.Error(w, r, http.StatusBadRequest, "INVALID_JSON", "body inválido")
			return
		}

		n, advice, err := advisor.Advise(r.Context(), u.ID, AdviceInput{
			PetID:       req.PetID,
			Lat:         req.Lat,
			Lng:         req.Lng,
			TriggerType: strings.TrimSpace(req.TriggerType),
		})
		if err != nil {
			switch {
			case errors.Is(err, weather.ErrUnavailable):
				httpapi.Error(w, r, http.StatusServiceUnavailable, "WEATHER_UNAVAILABLE", "servicio de clima no disponible")
			case errors.Is(err, weather.ErrUpstream):
				httpapi.Error(w, r, http.StatusBadGateway, "WEATHER_UPSTREAM", "error del proveedor de clima")
			default:
				writeNotifError(w, r, err)
			}
			return
		}

		httpapi.OK(w, r, http.StatusCreated, map[string]any{
			"notification": toResponse(ListItem{Notification: n, Read: true}),
			"advice":       advice,
		})
	}
}
