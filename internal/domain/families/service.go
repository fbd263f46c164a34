package families

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("family not found")
	ErrForbidden    = errors.New("forbidden")
	ErrDuplicate    = errors.New("membership already exists")
	// ErrInvariant: familia con cero miembros. No debería existir; si
	// aparece, no borramos nada y devolvemos error interno.
	ErrInvariant = errors.New("family has no members")
)

// PetResolver resuelve la familia de una mascota. Lo implementa el
// servicio de pets; interfaz local para no importar ese paquete.
type PetResolver interface {
	FamilyOf(ctx context.Context, petID string) (string, error)
}

// RoleChangedNotifier avisa (best effort) que cambió el OWNER.
type RoleChangedNotifier func(ctx context.Context, familyID, newOwnerID string)

type Service struct {
	repo    Repository
	cascade Cascade
	pets    PetResolver
	notify  RoleChangedNotifier
	log     *logrus.Entry
	now     func() time.Time
}

func NewService(repo Repository, cascade Cascade, log *logrus.Entry) *Service {
	return &Service{
		repo:    repo,
		cascade: cascade,
		log:     log,
		now:     time.Now,
	}
}

func (s *Service) SetPetResolver(p PetResolver) { s.pets = p }

// OnOwnerChanged registra el callback de notificación (wiring tardío:
// el servicio de notificaciones se construye después).
func (s *Service) OnOwnerChanged(fn RoleChangedNotifier) { s.notify = fn }

// Authorize verifica que userID pueda operar sobre la mascota:
// RoleMember = cualquier pertenencia a la familia, RoleOwner = rol OWNER.
// La negativa es siempre ErrForbidden; no filtra si la familia existe.
func (s *Service) Authorize(ctx context.Context, userID, petID string, required Role) error {
	if userID == "" || petID == "" {
		return ErrInvalidInput
	}
	if s.pets == nil {
		return errors.New("families: pet resolver not wired")
	}

	familyID, err := s.pets.FamilyOf(ctx, petID)
	if err != nil {
		return ErrNotFound
	}

	m, err := s.repo.Member(ctx, familyID, userID)
	if err != nil {
		return ErrForbidden
	}
	if required == RoleOwner && m.Role != RoleOwner {
		return ErrForbidden
	}
	return nil
}

func (s *Service) Get(ctx context.Context, familyID string) (Family, error) {
	return s.repo.Get(ctx, familyID)
}

func (s *Service) Members(ctx context.Context, familyID string) ([]Member, error) {
	return s.repo.Members(ctx, familyID)
}

// MemberIDs devuelve los user ids de una familia (para fan-out de push).
func (s *Service) MemberIDs(ctx context.Context, familyID string) ([]string, error) {
	members, err := s.repo.Members(ctx, familyID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(members))
	for _, m := range members {
		out = append(out, m.UserID)
	}
	return out, nil
}

// FamilyIDsOf lista las familias del usuario, orden estable.
func (s *Service) FamilyIDsOf(ctx context.Context, userID string) ([]string, error) {
	ms, err := s.repo.MembershipsOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.FamilyID)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Service) IsMember(ctx context.Context, familyID, userID string) (bool, error) {
	_, err := s.repo.Member(ctx, familyID, userID)
	if err == nil {
		return true, nil
	}
	return false, nil
}

// AddMember suma un integrante con el rol dado.
func (s *Service) AddMember(ctx context.Context, familyID, userID string, role Role) error {
	if familyID == "" || userID == "" {
		return ErrInvalidInput
	}
	return s.repo.AddMember(ctx, Member{
		FamilyID: familyID,
		UserID:   userID,
		Role:     role,
		JoinedAt: s.now().UTC(),
	})
}

// RemoveUser saca al usuario de todas sus familias aplicando las reglas
// de salida (transferencia de ownership o cascade de familia huérfana).
func (s *Service) RemoveUser(ctx context.Context, userID string) error {
	memberships, err := s.repo.MembershipsOf(ctx, userID)
	if err != nil {
		return err
	}

	for _, m := range memberships {
		if err := s.removeFromFamily(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) removeFromFamily(ctx context.Context, leaver Member) error {
	members, err := s.repo.Members(ctx, leaver.FamilyID)
	if err != nil {
		return err
	}

	switch {
	case len(members) == 0:
		return ErrInvariant

	case len(members) == 1:
		// Último integrante: se borra todo el subárbol de la familia.
		return s.deleteFamilyTree(ctx, leaver)

	default:
		if leaver.Role == RoleOwner {
			successor := pickSuccessor(members, leaver.UserID)
			if successor == nil {
				return ErrInvariant
			}
			// Baja del saliente, rol del sucesor y owner_id de las
			// mascotas cambian en la misma transacción: en ningún
			// momento conviven dos filas OWNER.
			if err := s.cascade.TransferOwnership(ctx, leaver.FamilyID, leaver.UserID, successor.UserID); err != nil {
				return err
			}
			if s.notify != nil {
				s.notify(ctx, leaver.FamilyID, successor.UserID)
			}
			s.log.WithFields(logrus.Fields{
				"family_id": leaver.FamilyID,
				"new_owner": successor.UserID,
			}).Info("family ownership transferred")
			return nil
		}
		return s.repo.RemoveMember(ctx, leaver.FamilyID, leaver.UserID)
	}
}

// pickSuccessor elige al integrante más antiguo distinto del que se va
// (joined_at asc, desempate por user_id asc).
func pickSuccessor(members []Member, leavingUserID string) *Member {
	var winner *Member
	for i := range members {
		m := members[i]
		if m.UserID == leavingUserID {
			continue
		}
		if winner == nil {
			winner = &m
			continue
		}
		if m.JoinedAt.Before(winner.JoinedAt) {
			winner = &m
			continue
		}
		if m.JoinedAt.Equal(winner.JoinedAt) && m.UserID < winner.UserID {
			winner = &m
		}
	}
	return winner
}

// deleteFamilyTree borra el subárbol en orden de dependencias:
// puntos de tracking y fotos -> paseos -> stats y recomendaciones ->
// solicitudes de share -> notificaciones -> mascotas -> miembro -> familia.
func (s *Service) deleteFamilyTree(ctx context.Context, leaver Member) error {
	familyID := leaver.FamilyID

	petIDs, err := s.cascade.PetIDs(ctx, familyID)
	if err != nil {
		return err
	}

	steps := []func() error{
		func() error { return s.cascade.DeleteTrackingPoints(ctx, petIDs) },
		func() error { return s.cascade.DeletePhotos(ctx, petIDs) },
		func() error { return s.cascade.DeleteWalks(ctx, petIDs) },
		func() error { return s.cascade.DeleteActivityStats(ctx, petIDs) },
		func() error { return s.cascade.DeleteRecommendations(ctx, petIDs) },
		func() error { return s.cascade.DeleteShareRequests(ctx, petIDs) },
		func() error { return s.cascade.DeleteNotifications(ctx, familyID) },
		func() error { return s.cascade.DeletePets(ctx, familyID) },
		func() error { return s.repo.RemoveMember(ctx, familyID, leaver.UserID) },
		func() error { return s.repo.DeleteFamily(ctx, familyID) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	s.log.WithField("family_id", familyID).Info("family tree deleted")
	return nil
}
