package pets

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"take-a-paw/internal/domain/families"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("pet not found")
	ErrForbidden     = errors.New("forbidden")
	ErrSearchIDTaken = errors.New("pet search id already taken")
)

var searchIDRe = regexp.MustCompile(`^[A-Za-z0-9]{8}$`)

// Families es lo que pets necesita del módulo de familias.
type Families interface {
	Authorize(ctx context.Context, userID, petID string, required families.Role) error
	FamilyIDsOf(ctx context.Context, userID string) ([]string, error)
}

// Recommender regenera la recomendación de paseo cuando cambia el perfil.
// Interfaz local (lo implementa el servicio de recommendations) para no
// cerrar un ciclo de imports.
type Recommender interface {
	SeedDefaults(ctx context.Context, petID string) error
	Regenerate(ctx context.Context, petID string) error
}

type Service struct {
	repo        Repository
	families    Families
	recommender Recommender
	log         *logrus.Entry
	now         func() time.Time
}

func NewService(repo Repository, log *logrus.Entry) *Service {
	return &Service{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

func (s *Service) SetFamilies(f Families)       { s.families = f }
func (s *Service) SetRecommender(r Recommender) { s.recommender = r }

// FamilyOf implementa families.PetResolver.
func (s *Service) FamilyOf(ctx context.Context, petID string) (string, error) {
	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return "", err
	}
	return p.FamilyID, nil
}

type RegisterInput struct {
	SearchID string
	Name     string
	Breed    string
	Age      int
	WeightKg float64
	Gender   string
	Disease  string
	ImageURL string
}

// Register da de alta mascota + familia + pertenencia OWNER, atómico.
// Después siembra la recomendación default (best effort).
func (s *Service) Register(ctx context.Context, userID string, in RegisterInput) (Pet, error) {
	if strings.TrimSpace(userID) == "" {
		return Pet{}, ErrInvalidInput
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Pet{}, ErrInvalidInput
	}
	searchID := strings.TrimSpace(in.SearchID)
	if !searchIDRe.MatchString(searchID) {
		return Pet{}, ErrInvalidInput
	}
	gender, ok := ParseGender(in.Gender)
	if !ok {
		return Pet{}, ErrInvalidInput
	}
	if in.Age < 0 || in.WeightKg < 0 {
		return Pet{}, ErrInvalidInput
	}

	now := s.now().UTC()
	f := families.Family{
		ID:        uuid.NewString(),
		Name:      name + "'s family",
		CreatedAt: now,
	}
	owner := families.Member{
		FamilyID: f.ID,
		UserID:   userID,
		Role:     families.RoleOwner,
		JoinedAt: now,
	}
	p := Pet{
		ID:        uuid.NewString(),
		FamilyID:  f.ID,
		OwnerID:   userID,
		SearchID:  searchID,
		Name:      name,
		Breed:     strings.TrimSpace(in.Breed),
		Age:       in.Age,
		WeightKg:  in.WeightKg,
		Gender:    gender,
		Disease:   strings.TrimSpace(in.Disease),
		ImageURL:  strings.TrimSpace(in.ImageURL),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Register(ctx, f, owner, p); err != nil {
		return Pet{}, err
	}

	if s.recommender != nil {
		if err := s.recommender.SeedDefaults(ctx, p.ID); err != nil {
			s.log.WithError(err).WithField("pet_id", p.ID).Warn("recommendation seed failed")
		}
	}

	s.log.WithFields(logrus.Fields{"pet_id": p.ID, "family_id": f.ID}).Info("pet registered")
	return p, nil
}

// GetByID con autorización de lectura (cualquier miembro de la familia).
func (s *Service) GetByID(ctx context.Context, userID, petID string) (Pet, error) {
	if err := s.authorize(ctx, userID, petID, families.RoleMember); err != nil {
		return Pet{}, err
	}
	return s.repo.GetByID(ctx, petID)
}

// Get sin chequeo de permisos, para otros servicios que ya autorizaron.
func (s *Service) Get(ctx context.Context, petID string) (Pet, error) {
	return s.repo.GetByID(ctx, petID)
}

func (s *Service) GetBySearchID(ctx context.Context, searchID string) (Pet, error) {
	return s.repo.GetBySearchID(ctx, strings.TrimSpace(searchID))
}

// MyPets lista las mascotas de todas las familias del usuario.
func (s *Service) MyPets(ctx context.Context, userID string) ([]Pet, error) {
	familyIDs, err := s.families.FamilyIDsOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(familyIDs) == 0 {
		return []Pet{}, nil
	}
	return s.repo.ListByFamilies(ctx, familyIDs)
}

type UpdateInput struct {
	Name     *string
	Breed    *string
	Age      *int
	WeightKg *float64
	Gender   *string
	Disease  *string
}

// UpdateProfile aplica un PATCH parcial. Un cambio de breed/age/weight/
// gender/disease dispara la regeneración de la recomendación (best effort).
func (s *Service) UpdateProfile(ctx context.Context, userID, petID string, in UpdateInput) (Pet, error) {
	if in.Name == nil && in.Breed == nil && in.Age == nil &&
		in.WeightKg == nil && in.Gender == nil && in.Disease == nil {
		return Pet{}, ErrInvalidInput
	}

	if err := s.authorize(ctx, userID, petID, families.RoleMember); err != nil {
		return Pet{}, err
	}

	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Pet{}, ErrInvalidInput
		}
		p.Name = name
	}
	if in.Breed != nil {
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Age != nil {
		if *in.Age < 0 {
			return Pet{}, ErrInvalidInput
		}
		p.Age = *in.Age
	}
	if in.WeightKg != nil {
		if *in.WeightKg < 0 {
			return Pet{}, ErrInvalidInput
		}
		p.WeightKg = *in.WeightKg
	}
	if in.Gender != nil {
		g, ok := ParseGender(*in.Gender)
		if !ok {
			return Pet{}, ErrInvalidInput
		}
		p.Gender = g
	}
	if in.Disease != nil {
		p.Disease = strings.TrimSpace(*in.Disease)
	}

	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}

	needsRegen := in.Breed != nil || in.Age != nil || in.WeightKg != nil ||
		in.Gender != nil || in.Disease != nil
	if needsRegen && s.recommender != nil {
		if err := s.recommender.Regenerate(ctx, p.ID); err != nil {
			s.log.WithError(err).WithField("pet_id", p.ID).Warn("recommendation regen failed")
		}
	}

	return p, nil
}

// UpdateImage guarda la URL de la foto de perfil ya subida.
func (s *Service) UpdateImage(ctx context.Context, userID, petID, imageURL string) (Pet, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return Pet{}, ErrInvalidInput
	}
	if err := s.authorize(ctx, userID, petID, families.RoleMember); err != nil {
		return Pet{}, err
	}

	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, err
	}
	p.ImageURL = imageURL
	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) authorize(ctx context.Context, userID, petID string, required families.Role) error {
	if s.families == nil {
		return errors.New("pets: families not wired")
	}
	err := s.families.Authorize(ctx, userID, petID, required)
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
