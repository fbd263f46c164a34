package walks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"take-a-paw/internal/domain/families"
	"take-a-paw/internal/domain/pets"
	"take-a-paw/internal/domain/users"
	"take-a-paw/internal/platform/validate"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("walk not found")
	ErrForbidden      = errors.New("forbidden")
	ErrWalkInProgress = errors.New("walk already in progress")
	ErrWalkEnded      = errors.New("walk already ended")
)

// Fórmula de calorías: peso * 1.036 * minutos * MET / 60.
const (
	caloriesFactor  = 1.036
	walkMET         = 3.0
	defaultWeightKg = 5.0
)

// Families autoriza operaciones sobre la mascota del paseo y resuelve
// la nómina de una familia para el ranking.
type Families interface {
	Authorize(ctx context.Context, userID, petID string, required families.Role) error
	MemberIDs(ctx context.Context, familyID string) ([]string, error)
}

// Pets da el perfil de la mascota (peso para calorías, nombre para avisos).
type Pets interface {
	Get(ctx context.Context, petID string) (pets.Pet, error)
}

// Users resuelve el perfil del actor para el texto de los avisos.
type Users interface {
	GetByID(ctx context.Context, id string) (users.User, error)
}

// Notifier emite los avisos de inicio/fin a la familia (best effort;
// implementado por notifications, interfaz local para evitar ciclo).
type Notifier interface {
	WalkStarted(ctx context.Context, familyID, petID, petName, actorID, actorName string, since time.Time)
	WalkEnded(ctx context.Context, familyID, petID, petName, actorID, actorName string, since time.Time)
}

type Service struct {
	repo     Repository
	families Families
	pets     Pets
	users    Users
	notifier Notifier
	statLoc  *time.Location
	log      *logrus.Entry
	now      func() time.Time
}

func NewService(repo Repository, familiesSvc Families, petsSvc Pets, usersSvc Users, statLoc *time.Location, log *logrus.Entry) *Service {
	if statLoc == nil {
		statLoc = time.UTC
	}
	return &Service{
		repo:     repo,
		families: familiesSvc,
		pets:     petsSvc,
		users:    usersSvc,
		statLoc:  statLoc,
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) SetNotifier(n Notifier) { s.notifier = n }

type StartInput struct {
	PetID string
	// Lat/Lng vienen de a pares o no vienen.
	Lat *float64
	Lng *float64

	WeatherStatus string
	WeatherTempC  *float64
}

// Start abre la sesión. La exclusividad por mascota la garantiza el
// repositorio; acá solo validamos y autorizamos.
func (s *Service) Start(ctx context.Context, userID string, in StartInput) (Walk, error) {
	if in.PetID == "" {
		return Walk{}, ErrInvalidInput
	}
	if (in.Lat == nil) != (in.Lng == nil) {
		return Walk{}, ErrInvalidInput
	}
	if in.Lat != nil && !validate.LatLng(*in.Lat, *in.Lng) {
		return Walk{}, ErrInvalidInput
	}

	pet, err := s.pets.Get(ctx, in.PetID)
	if err != nil {
		return Walk{}, ErrNotFound
	}
	if err := s.authorize(ctx, userID, in.PetID); err != nil {
		return Walk{}, err
	}

	now := s.now().UTC()
	w := Walk{
		ID:            uuid.NewString(),
		PetID:         in.PetID,
		UserID:        userID,
		StartTime:     now,
		WeatherStatus: in.WeatherStatus,
		WeatherTempC:  in.WeatherTempC,
		CreatedAt:     now,
	}

	if err := s.repo.StartWalk(ctx, w); err != nil {
		return Walk{}, err
	}

	if in.Lat != nil {
		point := TrackingPoint{
			ID:        uuid.NewString(),
			WalkID:    w.ID,
			Latitude:  *in.Lat,
			Longitude: *in.Lng,
			Timestamp: now,
		}
		if err := s.repo.AddPoint(ctx, point); err != nil {
			// El paseo ya está comprometido; el punto inicial es secundario.
			s.log.WithError(err).WithField("walk_id", w.ID).Warn("initial tracking point failed")
		}
	}

	if s.notifier != nil {
		actorName := s.actorName(ctx, userID)
		s.notifier.WalkStarted(ctx, pet.FamilyID, pet.ID, pet.Name, userID, actorName, w.StartTime)
	}

	s.log.WithFields(logrus.Fields{"walk_id": w.ID, "pet_id": pet.ID}).Info("walk started")
	return w, nil
}

type TrackInput struct {
	WalkID    string
	Lat       float64
	Lng       float64
	Timestamp string // RFC3339; inválido o vacío => hora del servidor
}

// Track agrega un punto GPS a una sesión en curso.
func (s *Service) Track(ctx context.Context, userID string, in TrackInput) (TrackingPoint, error) {
	if in.WalkID == "" {
		return TrackingPoint{}, ErrInvalidInput
	}
	if !validate.LatLng(in.Lat, in.Lng) {
		return TrackingPoint{}, ErrInvalidInput
	}

	w, err := s.repo.GetByID(ctx, in.WalkID)
	if err != nil {
		return TrackingPoint{}, ErrNotFound
	}
	if !w.InProgress() {
		return TrackingPoint{}, ErrWalkEnded
	}
	if err := s.authorize(ctx, userID, w.PetID); err != nil {
		return TrackingPoint{}, err
	}

	ts := s.now().UTC()
	if in.Timestamp != "" {
		if parsed, perr := time.Parse(time.RFC3339, in.Timestamp); perr == nil {
			ts = parsed.UTC()
		}
		// Timestamp malformado: se usa la hora del servidor, sin error.
	}

	p := TrackingPoint{
		ID:        uuid.NewString(),
		WalkID:    w.ID,
		Latitude:  in.Lat,
		Longitude: in.Lng,
		Timestamp: ts,
	}
	if err := s.repo.AddPoint(ctx, p); err != nil {
		return TrackingPoint{}, err
	}
	return p, nil
}

type EndInput struct {
	WalkID      string
	DurationMin *int
	DistanceKm  *float64
	RouteData   json.RawMessage
}

// End cierra la sesión, calcula calorías y actualiza el rollup diario.
// La mutación primaria queda comprometida antes de los efectos
// secundarios (stat, aviso, push); un fallo ahí no la revierte.
func (s *Service) End(ctx context.Context, userID string, in EndInput) (Walk, error) {
	if in.WalkID == "" {
		return Walk{}, ErrInvalidInput
	}
	if in.DurationMin != nil && *in.DurationMin < 0 {
		return Walk{}, ErrInvalidInput
	}
	if in.DistanceKm != nil && *in.DistanceKm < 0 {
		return Walk{}, ErrInvalidInput
	}

	w, err := s.repo.GetByID(ctx, in.WalkID)
	if err != nil {
		return Walk{}, ErrNotFound
	}
	if !w.InProgress() {
		return Walk{}, ErrWalkEnded
	}
	if err := s.authorize(ctx, userID, w.PetID); err != nil {
		return Walk{}, err
	}

	pet, err := s.pets.Get(ctx, w.PetID)
	if err != nil {
		return Walk{}, ErrNotFound
	}

	endTime := s.now().UTC()

	durationMin := int(endTime.Sub(w.StartTime).Minutes())
	if in.DurationMin != nil {
		durationMin = *in.DurationMin
	}
	distanceKm := 0.0
	if in.DistanceKm != nil {
		distanceKm = *in.DistanceKm
	}

	weight := pet.WeightKg
	if weight <= 0 {
		weight = defaultWeightKg
	}
	calories := weight * caloriesFactor * float64(durationMin) * walkMET / 60.0

	w.EndTime = &endTime
	w.DurationMin = durationMin
	w.DistanceKm = distanceKm
	w.Calories = calories
	if len(in.RouteData) > 0 {
		w.RouteData = in.RouteData
	}

	if err := s.repo.Update(ctx, w); err != nil {
		return Walk{}, err
	}

	// Rollup diario: la fecha civil se calcula a la hora de fin en la
	// zona de stats. Un paseo que cruza medianoche cuenta en el día de fin.
	if distanceKm > 0 && durationMin > 0 {
		date := endTime.In(s.statLoc).Format("2006-01-02")
		if _, err := s.repo.UpsertStat(ctx, w.PetID, date, StatDelta{
			Walks:       1,
			DistanceKm:  distanceKm,
			DurationMin: durationMin,
			Calories:    calories,
		}); err != nil {
			s.log.WithError(err).WithField("walk_id", w.ID).Error("activity stat upsert failed")
		}
	}

	if s.notifier != nil {
		actorName := s.actorName(ctx, userID)
		s.notifier.WalkEnded(ctx, pet.FamilyID, pet.ID, pet.Name, userID, actorName, w.StartTime)
	}

	s.log.WithFields(logrus.Fields{
		"walk_id":      w.ID,
		"duration_min": durationMin,
		"distance_km":  distanceKm,
	}).Info("walk ended")
	return w, nil
}

// Current devuelve el paseo en curso de la mascota, si hay.
func (s *Service) Current(ctx context.Context, userID, petID string) (Walk, error) {
	if err := s.authorize(ctx, userID, petID); err != nil {
		return Walk{}, err
	}
	w, err := s.repo.OngoingByPet(ctx, petID)
	if err != nil {
		return Walk{}, ErrNotFound
	}
	return w, nil
}

// Get devuelve un paseo, autorizando por la mascota.
func (s *Service) Get(ctx context.Context, userID, walkID string) (Walk, error) {
	w, err := s.repo.GetByID(ctx, walkID)
	if err != nil {
		return Walk{}, ErrNotFound
	}
	if err := s.authorize(ctx, userID, w.PetID); err != nil {
		return Walk{}, err
	}
	return w, nil
}

// Points lista el recorrido registrado de un paseo.
func (s *Service) Points(ctx context.Context, userID, walkID string) ([]TrackingPoint, error) {
	w, err := s.repo.GetByID(ctx, walkID)
	if err != nil {
		return nil, ErrNotFound
	}
	if err := s.authorize(ctx, userID, w.PetID); err != nil {
		return nil, err
	}
	return s.repo.PointsByWalk(ctx, walkID)
}

// TodaySummary agrega los paseos del día civil actual.
type TodaySummary struct {
	Date             string
	Walks            []Walk
	TotalWalks       int
	TotalDistanceKm  float64
	TotalDurationMin int
	TotalCalories    float64
}

func (s *Service) Today(ctx context.Context, userID, petID string) (TodaySummary, error) {
	if err := s.authorize(ctx, userID, petID); err != nil {
		return TodaySummary{}, err
	}

	nowLocal := s.now().In(s.statLoc)
	dayStart := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, s.statLoc)
	from := dayStart.UTC()
	to := dayStart.Add(24 * time.Hour).UTC()

	items, err := s.repo.ListByPetBetween(ctx, petID, from, to)
	if err != nil {
		return TodaySummary{}, err
	}

	out := TodaySummary{
		Date:  nowLocal.Format("2006-01-02"),
		Walks: items,
	}
	for _, w := range items {
		if w.InProgress() {
			continue
		}
		out.TotalWalks++
		out.TotalDistanceKm += w.DistanceKm
		out.TotalDurationMin += w.DurationMin
		out.TotalCalories += w.Calories
	}
	return out, nil
}

// StatsSummary es el agregado de un período más el detalle diario.
type StatsSummary struct {
	Period           string
	Days             []ActivityStat
	TotalWalks       int
	TotalDistanceKm  float64
	TotalDurationMin int
	AvgSpeedKmh      float64
	TotalCalories    float64
}

// Stats agrega ActivityStat por período: day, week, month o all.
func (s *Service) Stats(ctx context.Context, userID, petID, period string) (StatsSummary, error) {
	if err := s.authorize(ctx, userID, petID); err != nil {
		return StatsSummary{}, err
	}

	today := s.now().In(s.statLoc)
	toDate := today.Format("2006-01-02")
	var fromDate string
	switch period {
	case "day", "":
		period = "day"
		fromDate = toDate
	case "week":
		fromDate = today.AddDate(0, 0, -6).Format("2006-01-02")
	case "month":
		fromDate = today.AddDate(0, -1, 0).Format("2006-01-02")
	case "all":
		fromDate = "0001-01-01"
	default:
		return StatsSummary{}, ErrInvalidInput
	}

	days, err := s.repo.StatsBetween(ctx, petID, fromDate, toDate)
	if err != nil {
		return StatsSummary{}, err
	}

	out := StatsSummary{Period: period, Days: days}
	for _, d := range days {
		out.TotalWalks += d.TotalWalks
		out.TotalDistanceKm += d.TotalDistanceKm
		out.TotalDurationMin += d.TotalDurationMin
		out.TotalCalories += d.CaloriesBurned
	}
	if out.TotalDurationMin > 0 {
		out.AvgSpeedKmh = out.TotalDistanceKm / (float64(out.TotalDurationMin) / 60.0)
	}
	return out, nil
}

// MinutesLastWeek suma los minutos de los paseos terminados de la
// mascota en los últimos 7 días. Sin autorización: lo consumen flujos
// del sistema que ya validaron el acceso.
func (s *Service) MinutesLastWeek(ctx context.Context, petID string) (int, error) {
	now := s.now().UTC()
	items, err := s.repo.ListByPetBetween(ctx, petID, now.AddDate(0, 0, -7), now)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, w := range items {
		if w.InProgress() {
			continue
		}
		total += w.DurationMin
	}
	return total, nil
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

// actorName es solo para el texto del aviso; si falla, queda vacío.
func (s *Service) actorName(ctx context.Context, userID string) string {
	if s.users == nil {
		return ""
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return ""
	}
	return u.Nickname
}
