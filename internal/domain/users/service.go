package users

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"take-a-paw/internal/ports/auth"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("user not found")
	ErrDuplicate    = errors.New("user already exists")
)

// Formato de teléfono coreano que acepta la app móvil.
var phoneRe = regexp.MustCompile(`^010-\d{4}-\d{4}$`)

// FamilyRemover saca al usuario de todas sus familias antes de borrar
// la cuenta (transferencia de ownership o cascade, según corresponda).
// Lo implementa el servicio de familias; interfaz local para evitar ciclo.
type FamilyRemover interface {
	RemoveUser(ctx context.Context, userID string) error
}

type Service struct {
	repo     Repository
	families FamilyRemover
	log      *logrus.Entry
	now      func() time.Time
}

func NewService(repo Repository, log *logrus.Entry) *Service {
	return &Service{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// SetFamilyRemover se llama en el wiring del router (families se
// construye después de users).
func (s *Service) SetFamilyRemover(fr FamilyRemover) {
	s.families = fr
}

// ResolveOrCreate busca la cuenta por firebase_uid y la crea si no existe.
// Idempotente bajo carreras: si el insert pierde por duplicado, relee y
// devuelve la fila ganadora.
func (s *Service) ResolveOrCreate(ctx context.Context, claims auth.Claims) (User, bool, error) {
	uid := strings.TrimSpace(claims.UID)
	if uid == "" {
		return User{}, false, ErrInvalidInput
	}

	if u, err := s.repo.GetByFirebaseUID(ctx, uid); err == nil {
		return u, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, false, err
	}

	nickname := strings.TrimSpace(claims.Name)
	if nickname == "" {
		short := uid
		if len(short) > 6 {
			short = short[:6]
		}
		nickname = "user_" + short
	}

	now := s.now().UTC()
	u := User{
		ID:            uuid.NewString(),
		FirebaseUID:   uid,
		Nickname:      nickname,
		Email:         strings.TrimSpace(claims.Email),
		ProfileImgURL: strings.TrimSpace(claims.Picture),
		SNS:           ProviderFrom(claims.Provider),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// Otro request ganó la carrera; su fila es la válida.
			winner, rerr := s.repo.GetByFirebaseUID(ctx, uid)
			if rerr != nil {
				return User{}, false, rerr
			}
			return winner, false, nil
		}
		return User{}, false, err
	}

	s.log.WithFields(logrus.Fields{"user_id": u.ID, "sns": u.SNS}).Info("user provisioned")
	return u, true, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

type UpdateProfileInput struct {
	Nickname      *string
	Phone         *string
	ProfileImgURL *string
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (User, error) {
	if in.Nickname == nil && in.Phone == nil && in.ProfileImgURL == nil {
		return User{}, ErrInvalidInput
	}

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}

	if in.Nickname != nil {
		nick := strings.TrimSpace(*in.Nickname)
		if nick == "" {
			return User{}, ErrInvalidInput
		}
		u.Nickname = nick
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phone != "" && !phoneRe.MatchString(phone) {
			return User{}, ErrInvalidInput
		}
		u.Phone = phone
	}
	if in.ProfileImgURL != nil {
		u.ProfileImgURL = strings.TrimSpace(*in.ProfileImgURL)
	}

	u.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

type DeviceTokenInput struct {
	Token    string
	DeviceID string
	Platform string
}

// SaveDeviceToken actualiza la columna legacy y upserta la fila por
// dispositivo, para que clientes viejos y nuevos convivan.
func (s *Service) SaveDeviceToken(ctx context.Context, userID string, in DeviceTokenInput) error {
	token := strings.TrimSpace(in.Token)
	if token == "" {
		return ErrInvalidInput
	}

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	u.FCMToken = token
	u.UpdatedAt = now
	if err := s.repo.Update(ctx, u); err != nil {
		return err
	}

	return s.repo.UpsertDeviceToken(ctx, DeviceToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		DeviceID:  strings.TrimSpace(in.DeviceID),
		Platform:  strings.TrimSpace(in.Platform),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// ActiveTokens expone los destinos de push de un conjunto de usuarios.
func (s *Service) ActiveTokens(ctx context.Context, userIDs []string) ([]string, error) {
	return s.repo.ActiveTokens(ctx, userIDs)
}

// RemoveTokens borra tokens que el proveedor marcó como inválidos.
func (s *Service) RemoveTokens(ctx context.Context, tokens []string) (int, error) {
	return s.repo.RemoveTokens(ctx, tokens)
}

// DeleteAccount saca al usuario de sus familias (con transferencia de
// ownership o cascade) y recién después borra tokens y la cuenta.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return err
	}

	if s.families != nil {
		if err := s.families.RemoveUser(ctx, userID); err != nil {
			return err
		}
	}

	if err := s.repo.DeleteTokensByUser(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}

	s.log.WithField("user_id", userID).Info("account deleted")
	return nil
}
