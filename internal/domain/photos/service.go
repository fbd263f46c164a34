package photos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"take-a-paw/internal/domain/families"
	"take-a-paw/internal/domain/walks"
	"take-a-paw/internal/ports/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("photo or walk not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnavailable  = errors.New("photo storage unavailable")
)

const maxPhotoBytes = 10 << 20 // 10 MiB

// Walks resuelve el paseo (ya autorizado) de la foto.
type Walks interface {
	Get(ctx context.Context, userID, walkID string) (walks.Walk, error)
}

// Families autoriza el listado por mascota.
type Families interface {
	Authorize(ctx context.Context, userID, petID string, required families.Role) error
}

type Service struct {
	repo     Repository
	walks    Walks
	families Families
	uploader storage.Uploader // puede ser nil (sin storage configurado)
	log      *logrus.Entry
	now      func() time.Time
}

func NewService(repo Repository, walksSvc Walks, familiesSvc Families, uploader storage.Uploader, log *logrus.Entry) *Service {
	return &Service{
		repo:     repo,
		walks:    walksSvc,
		families: familiesSvc,
		uploader: uploader,
		log:      log,
		now:      time.Now,
	}
}

// Upload sube los bytes al storage y persiste la fila. La autorización
// viene dada por el paseo (cualquier miembro de la familia).
func (s *Service) Upload(ctx context.Context, userID, walkID, contentType string, data []byte) (Photo, error) {
	if len(data) == 0 || len(data) > maxPhotoBytes {
		return Photo{}, ErrInvalidInput
	}
	switch contentType {
	case "image/jpeg", "image/png", "image/webp":
	default:
		return Photo{}, ErrInvalidInput
	}
	if s.uploader == nil {
		return Photo{}, ErrUnavailable
	}

	w, err := s.walks.Get(ctx, userID, walkID)
	if err != nil {
		return Photo{}, mapWalkErr(err)
	}

	id := uuid.NewString()
	path := fmt.Sprintf("walks/%s/%s%s", walkID, id, extFor(contentType))
	url, err := s.uploader.Upload(ctx, path, contentType, data)
	if err != nil {
		s.log.WithError(err).WithField("walk_id", walkID).Error("photo upload failed")
		return Photo{}, ErrUnavailable
	}

	p := Photo{
		ID:         id,
		WalkID:     walkID,
		PetID:      w.PetID,
		UploadedBy: userID,
		URL:        url,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Photo{}, err
	}
	return p, nil
}

// ListByPet lista las fotos de todos los paseos de la mascota.
func (s *Service) ListByPet(ctx context.Context, userID, petID string) ([]Photo, error) {
	if petID == "" {
		return nil, ErrInvalidInput
	}
	err := s.families.Authorize(ctx, userID, petID, families.RoleMember)
	switch {
	case err == nil:
	case errors.Is(err, families.ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, families.ErrForbidden):
		return nil, ErrForbidden
	default:
		return nil, err
	}
	return s.repo.ListByPet(ctx, petID)
}

func mapWalkErr(err error) error {
	switch {
	case errors.Is(err, walks.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, walks.ErrForbidden):
		return ErrForbidden
	default:
		return err
	}
}

func extFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
