package sharerequests

import (
	"context"
	"errors"
	"strings"
	"time"

	"take-a-paw/internal/domain/families"
	"take-a-paw/internal/domain/pets"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("share request not found")
	ErrPetNotFound     = errors.New("pet not found")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyMember   = errors.New("already a family member")
	ErrPendingExists   = errors.New("pending request already exists")
	ErrAlreadyResolved = errors.New("request already resolved")
)

// Pets es lo que el módulo necesita del servicio de mascotas.
type Pets interface {
	GetBySearchID(ctx context.Context, searchID string) (pets.Pet, error)
	Get(ctx context.Context, petID string) (pets.Pet, error)
}

// Families: pertenencia, alta de miembro y chequeo de OWNER.
type Families interface {
	IsMember(ctx context.Context, familyID, userID string) (bool, error)
	AddMember(ctx context.Context, familyID, userID string, role families.Role) error
	Authorize(ctx context.Context, userID, petID string, required families.Role) error
}

// Notifier emite las notificaciones del flujo (best effort, no corta).
type Notifier interface {
	ShareRequested(ctx context.Context, familyID, petID, petName, requesterID, requesterName, requestID string)
	ShareResolved(ctx context.Context, familyID, petID, petName, requesterID string, approved bool)
}

type Service struct {
	repo     Repository
	pets     Pets
	families Families
	notifier Notifier
	log      *logrus.Entry
	now      func() time.Time
}

func NewService(repo Repository, petsSvc Pets, familiesSvc Families, log *logrus.Entry) *Service {
	return &Service{
		repo:     repo,
		pets:     petsSvc,
		families: familiesSvc,
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) SetNotifier(n Notifier) { s.notifier = n }

// Create arma el pedido a partir del código corto de la mascota.
func (s *Service) Create(ctx context.Context, requesterID, requesterName, searchID string) (ShareRequest, error) {
	searchID = strings.TrimSpace(searchID)
	if requesterID == "" || searchID == "" {
		return ShareRequest{}, ErrInvalidInput
	}

	pet, err := s.pets.GetBySearchID(ctx, searchID)
	if err != nil {
		return ShareRequest{}, ErrPetNotFound
	}

	isMember, err := s.families.IsMember(ctx, pet.FamilyID, requesterID)
	if err != nil {
		return ShareRequest{}, err
	}
	if isMember {
		return ShareRequest{}, ErrAlreadyMember
	}

	pending, err := s.repo.HasPending(ctx, pet.ID, requesterID)
	if err != nil {
		return ShareRequest{}, err
	}
	if pending {
		return ShareRequest{}, ErrPendingExists
	}

	req := ShareRequest{
		ID:          uuid.NewString(),
		PetID:       pet.ID,
		RequesterID: requesterID,
		Status:      StatusPending,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return ShareRequest{}, err
	}

	if s.notifier != nil {
		s.notifier.ShareRequested(ctx, pet.FamilyID, pet.ID, pet.Name, requesterID, requesterName, req.ID)
	}

	s.log.WithFields(logrus.Fields{"request_id": req.ID, "pet_id": pet.ID}).Info("share request created")
	return req, nil
}

// Resolve aprueba o rechaza un pedido PENDING. Solo el OWNER de la
// familia puede resolver; el estado resuelto es terminal.
func (s *Service) Resolve(ctx context.Context, resolverUserID, requestID string, approve bool) (ShareRequest, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return ShareRequest{}, ErrNotFound
	}

	if err := s.families.Authorize(ctx, resolverUserID, req.PetID, families.RoleOwner); err != nil {
		switch {
		case errors.Is(err, families.ErrForbidden):
			return ShareRequest{}, ErrForbidden
		case errors.Is(err, families.ErrNotFound):
			return ShareRequest{}, ErrNotFound
		default:
			return ShareRequest{}, err
		}
	}

	if req.Status != StatusPending {
		return ShareRequest{}, ErrAlreadyResolved
	}

	pet, err := s.pets.Get(ctx, req.PetID)
	if err != nil {
		return ShareRequest{}, err
	}

	now := s.now().UTC()
	if approve {
		// El alta de miembro va antes de persistir el estado: si falla,
		// el pedido sigue PENDING y se puede reintentar.
		err := s.families.AddMember(ctx, pet.FamilyID, req.RequesterID, families.RoleMember)
		if err != nil && !errors.Is(err, families.ErrDuplicate) {
			return ShareRequest{}, err
		}
		req.Status = StatusApproved
	} else {
		req.Status = StatusRejected
	}
	req.RespondedAt = &now

	if err := s.repo.Update(ctx, req); err != nil {
		return ShareRequest{}, err
	}

	if s.notifier != nil {
		s.notifier.ShareResolved(ctx, pet.FamilyID, pet.ID, pet.Name, req.RequesterID, approve)
	}

	return req, nil
}

// ListMine lista los pedidos hechos por el usuario.
func (s *Service) ListMine(ctx context.Context, userID string, status *Status, page, size int) ([]ShareRequest, int, error) {
	if status != nil {
		switch *status {
		case StatusPending, StatusApproved, StatusRejected:
		default:
			return nil, 0, ErrInvalidInput
		}
	}
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return s.repo.ListByRequester(ctx, userID, status, page, size)
}
