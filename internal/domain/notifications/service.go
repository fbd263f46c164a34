package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"take-a-paw/internal/platform/metrics"
	"take-a-paw/internal/ports/push"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("notification not found")
	ErrForbidden    = errors.New("forbidden")
)

// Directory resuelve pertenencias de familia. Lo implementa el
// servicio de familias; interfaz local para no cerrar el ciclo.
type Directory interface {
	MemberIDs(ctx context.Context, familyID string) ([]string, error)
	FamilyIDsOf(ctx context.Context, userID string) ([]string, error)
}

// TokenStore da y borra tokens de dispositivo. Lo implementa el
// servicio de usuarios.
type TokenStore interface {
	ActiveTokens(ctx context.Context, userIDs []string) ([]string, error)
	RemoveTokens(ctx context.Context, tokens []string) (int, error)
}

type Service struct {
	repo      Repository
	directory Directory
	tokens    TokenStore
	sender    push.Sender // puede ser nil (sin push configurado)
	log       *logrus.Entry
	now       func() time.Time
}

func NewService(repo Repository, directory Directory, tokens TokenStore, sender push.Sender, log *logrus.Entry) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		tokens:    tokens,
		sender:    sender,
		log:       log,
		now:       time.Now,
	}
}

// NotifyInput describe la fila a crear. TargetUserID nil = broadcast.
type NotifyInput struct {
	FamilyID     string
	TargetUserID *string
	ActorID      string
	Type         Type
	Title        string
	Message      string

	RelatedPetID     string
	RelatedUserID    string
	RelatedRequestID string
	RelatedLat       *float64
	RelatedLng       *float64
}

// Notify inserta la notificación. Las dirigidas al propio actor nacen
// leídas (son confirmaciones, no avisos); las demás quedan sin leer.
func (s *Service) Notify(ctx context.Context, in NotifyInput) (Notification, error) {
	if in.FamilyID == "" || !knownTypes[in.Type] {
		return Notification{}, ErrInvalidInput
	}

	n := Notification{
		ID:               uuid.NewString(),
		FamilyID:         in.FamilyID,
		TargetUserID:     in.TargetUserID,
		ActorID:          in.ActorID,
		Type:             in.Type,
		Title:            in.Title,
		Message:          in.Message,
		RelatedPetID:     in.RelatedPetID,
		RelatedUserID:    in.RelatedUserID,
		RelatedRequestID: in.RelatedRequestID,
		RelatedLat:       in.RelatedLat,
		RelatedLng:       in.RelatedLng,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return Notification{}, err
	}

	if n.TargetUserID != nil && *n.TargetUserID == n.ActorID {
		if _, err := s.repo.MarkRead(ctx, n.ID, n.ActorID, n.CreatedAt); err != nil {
			s.log.WithError(err).WithField("notification_id", n.ID).Warn("self read receipt failed")
		}
	}
	return n, nil
}

// ListItem es una notificación más su estado de lectura para el lector.
type ListItem struct {
	Notification
	Read bool
}

// List devuelve los broadcasts de las familias del lector más las
// filas dirigidas a él, y marca lo devuelto como leído.
func (s *Service) List(ctx context.Context, userID string, f ListFilter) ([]ListItem, error) {
	if !ValidType(f.Type) {
		return nil, ErrInvalidInput
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Size < 1 {
		f.Size = 20
	}
	if f.Size > 100 {
		f.Size = 100
	}

	familyIDs, err := s.directory.FamilyIDsOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListVisible(ctx, userID, familyIDs, f)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, n := range items {
		ids = append(ids, n.ID)
	}
	read, err := s.repo.ReadIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ListItem, 0, len(items))
	now := s.now().UTC()
	for _, n := range items {
		out = append(out, ListItem{Notification: n, Read: read[n.ID]})
		if !read[n.ID] {
			if _, err := s.repo.MarkRead(ctx, n.ID, userID, now); err != nil {
				s.log.WithError(err).WithField("notification_id", n.ID).Warn("list read receipt failed")
			}
		}
	}
	return out, nil
}

// MarkRead registra el recibo de lectura. La segunda llamada no es un
// error: devuelve already=true.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) (already bool, err error) {
	n, err := s.repo.GetByID(ctx, notificationID)
	if err != nil {
		return false, ErrNotFound
	}
	if err := s.authorizeReader(ctx, userID, n); err != nil {
		return false, err
	}
	return s.repo.MarkRead(ctx, notificationID, userID, s.now().UTC())
}

// PushToFamily manda un multicast a los dispositivos de la familia,
// menos el usuario excluido. Devuelve cuántos mensajes llegaron.
func (s *Service) PushToFamily(ctx context.Context, familyID, excludeUserID, title, body string, data map[string]string) int {
	memberIDs, err := s.directory.MemberIDs(ctx, familyID)
	if err != nil {
		s.log.WithError(err).WithField("family_id", familyID).Warn("push fan-out: members lookup failed")
		return 0
	}

	targets := memberIDs[:0:0]
	for _, id := range memberIDs {
		if id != excludeUserID {
			targets = append(targets, id)
		}
	}
	return s.pushToUsers(ctx, targets, title, body, data)
}

// pushToUsers resuelve tokens y manda. Solo se podan los tokens que el
// proveedor declara inválidos; un error de transporte no poda nada.
func (s *Service) pushToUsers(ctx context.Context, userIDs []string, title, body string, data map[string]string) int {
	if s.sender == nil || len(userIDs) == 0 {
		return 0
	}

	tokens, err := s.tokens.ActiveTokens(ctx, userIDs)
	if err != nil {
		s.log.WithError(err).Warn("push fan-out: token lookup failed")
		return 0
	}
	if len(tokens) == 0 {
		return 0
	}

	res, err := s.sender.Send(ctx, push.Message{
		Tokens: tokens,
		Title:  title,
		Body:   body,
		Data:   data,
	})
	if err != nil {
		// Todo falló, nada inválido: no se toca ningún token.
		metrics.PushMessagesTotal.WithLabelValues("error").Add(float64(len(tokens)))
		s.log.WithError(err).Warn("push send failed")
		return 0
	}

	metrics.PushMessagesTotal.WithLabelValues("success").Add(float64(res.SuccessCount))
	metrics.PushMessagesTotal.WithLabelValues("failed").Add(float64(len(res.FailedTokens)))
	metrics.PushMessagesTotal.WithLabelValues("invalid").Add(float64(len(res.InvalidTokens)))

	if len(res.InvalidTokens) > 0 {
		if removed, err := s.tokens.RemoveTokens(ctx, res.InvalidTokens); err != nil {
			s.log.WithError(err).Warn("invalid token prune failed")
		} else {
			s.log.WithField("removed", removed).Info("pruned invalid device tokens")
		}
	}
	return res.SuccessCount
}

// SOS emite un broadcast de emergencia a cada familia del remitente y
// hace push inmediato. Devuelve cuántos dispositivos recibieron.
func (s *Service) SOS(ctx context.Context, userID string, lat, lng *float64, message string) (int, error) {
	if (lat == nil) != (lng == nil) {
		return 0, ErrInvalidInput
	}

	familyIDs, err := s.directory.FamilyIDsOf(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(familyIDs) == 0 {
		return 0, ErrNotFound
	}

	if message == "" {
		message = "¡Necesito ayuda durante el paseo!"
	}

	notified := 0
	for _, familyID := range familyIDs {
		_, err := s.Notify(ctx, NotifyInput{
			FamilyID:      familyID,
			ActorID:       userID,
			Type:          TypeSOS,
			Title:         "SOS",
			Message:       message,
			RelatedUserID: userID,
			RelatedLat:    lat,
			RelatedLng:    lng,
		})
		if err != nil {
			s.log.WithError(err).WithField("family_id", familyID).Error("sos notification failed")
			continue
		}
		notified += s.PushToFamily(ctx, familyID, userID, "SOS", message, map[string]string{"type": string(TypeSOS)})
	}
	return notified, nil
}

// SOSResolved cierra un SOS previo con un broadcast en la misma familia.
func (s *Service) SOSResolved(ctx context.Context, userID, sosNotificationID string) (Notification, error) {
	sos, err := s.repo.GetByID(ctx, sosNotificationID)
	if err != nil {
		return Notification{}, ErrNotFound
	}
	if sos.Type != TypeSOS {
		return Notification{}, ErrInvalidInput
	}
	if err := s.authorizeReader(ctx, userID, sos); err != nil {
		return Notification{}, err
	}

	n, err := s.Notify(ctx, NotifyInput{
		FamilyID:      sos.FamilyID,
		ActorID:       userID,
		Type:          TypeSOSResolved,
		Title:         "SOS resuelto",
		Message:       "La emergencia fue atendida.",
		RelatedUserID: sos.ActorID,
	})
	if err != nil {
		return Notification{}, err
	}
	s.PushToFamily(ctx, sos.FamilyID, userID, n.Title, n.Message, map[string]string{"type": string(TypeSOSResolved)})
	return n, nil
}

// WalkStarted emite el broadcast ACTIVITY_START. La guarda evita el
// duplicado si ya hay un aviso del mismo actor para este paseo.
func (s *Service) WalkStarted(ctx context.Context, familyID, petID, petName, actorID, actorName string, since time.Time) {
	s.walkEvent(ctx, TypeActivityStart, familyID, petID, actorID,
		"¡Empezó el paseo!",
		fmt.Sprintf("%s salió a pasear con %s", petName, displayName(actorName)),
		since)
}

// WalkEnded emite el broadcast ACTIVITY_END con la misma guarda.
func (s *Service) WalkEnded(ctx context.Context, familyID, petID, petName, actorID, actorName string, since time.Time) {
	s.walkEvent(ctx, TypeActivityEnd, familyID, petID, actorID,
		"Paseo terminado",
		fmt.Sprintf("%s volvió del paseo con %s", petName, displayName(actorName)),
		since)
}

func (s *Service) walkEvent(ctx context.Context, t Type, familyID, petID, actorID, title, message string, since time.Time) {
	dup, err := s.repo.HasSince(ctx, familyID, petID, actorID, t, since)
	if err != nil {
		s.log.WithError(err).Warn("walk notification duplicate check failed")
		return
	}
	if dup {
		return
	}

	if _, err := s.Notify(ctx, NotifyInput{
		FamilyID:     familyID,
		ActorID:      actorID,
		Type:         t,
		Title:        title,
		Message:      message,
		RelatedPetID: petID,
	}); err != nil {
		s.log.WithError(err).Warn("walk notification failed")
		return
	}
	s.PushToFamily(ctx, familyID, actorID, title, message, map[string]string{
		"type":   string(t),
		"pet_id": petID,
	})
}

// ShareRequested crea un aviso dirigido a cada miembro de la familia
// (comportamiento heredado: filas por destinatario, no broadcast).
func (s *Service) ShareRequested(ctx context.Context, familyID, petID, petName, requesterID, requesterName, requestID string) {
	memberIDs, err := s.directory.MemberIDs(ctx, familyID)
	if err != nil {
		s.log.WithError(err).WithField("family_id", familyID).Warn("share request notification: members lookup failed")
		return
	}

	title := "Pedido para unirse"
	message := fmt.Sprintf("%s quiere unirse a la familia de %s", displayName(requesterName), petName)
	for _, memberID := range memberIDs {
		target := memberID
		if _, err := s.Notify(ctx, NotifyInput{
			FamilyID:         familyID,
			TargetUserID:     &target,
			ActorID:          requesterID,
			Type:             TypeRequest,
			Title:            title,
			Message:          message,
			RelatedPetID:     petID,
			RelatedUserID:    requesterID,
			RelatedRequestID: requestID,
		}); err != nil {
			s.log.WithError(err).Warn("share request notification failed")
		}
	}
	s.PushToFamily(ctx, familyID, requesterID, title, message, map[string]string{
		"type":       string(TypeRequest),
		"request_id": requestID,
	})
}

// ShareResolved avisa al solicitante el resultado de su pedido.
func (s *Service) ShareResolved(ctx context.Context, familyID, petID, petName, requesterID string, approved bool) {
	t := TypeInviteRejected
	title := "Pedido rechazado"
	message := fmt.Sprintf("Tu pedido para unirte a la familia de %s fue rechazado", petName)
	if approved {
		t = TypeInviteAccepted
		title = "¡Bienvenido a la familia!"
		message = fmt.Sprintf("Tu pedido para unirte a la familia de %s fue aprobado", petName)
	}

	if _, err := s.Notify(ctx, NotifyInput{
		FamilyID:      familyID,
		TargetUserID:  &requesterID,
		Type:          t,
		Title:         title,
		Message:       message,
		RelatedPetID:  petID,
		RelatedUserID: requesterID,
	}); err != nil {
		s.log.WithError(err).Warn("share resolution notification failed")
	}
	s.pushToUsers(ctx, []string{requesterID}, title, message, map[string]string{"type": string(t)})
}

// RoleChanged emite el broadcast de cambio de OWNER. Encaja como
// callback del servicio de familias.
func (s *Service) RoleChanged(ctx context.Context, familyID, newOwnerID string) {
	if _, err := s.Notify(ctx, NotifyInput{
		FamilyID:      familyID,
		ActorID:       newOwnerID,
		Type:          TypeRoleChanged,
		Title:         "Nuevo responsable de la familia",
		Message:       "El dueño anterior dejó la familia; hay un nuevo responsable.",
		RelatedUserID: newOwnerID,
	}); err != nil {
		s.log.WithError(err).Warn("role change notification failed")
		return
	}
	s.PushToFamily(ctx, familyID, "", "Nuevo responsable de la familia", "Hay un nuevo responsable de la familia.", map[string]string{
		"type": string(TypeRoleChanged),
	})
}

// authorizeReader: dirigida => solo el target; broadcast => cualquier
// miembro de la familia.
func (s *Service) authorizeReader(ctx context.Context, userID string, n Notification) error {
	if n.TargetUserID != nil {
		if *n.TargetUserID != userID {
			return ErrForbidden
		}
		return nil
	}
	familyIDs, err := s.directory.FamilyIDsOf(ctx, userID)
	if err != nil {
		return err
	}
	for _, id := range familyIDs {
		if id == n.FamilyID {
			return nil
		}
	}
	return ErrForbidden
}

func displayName(name string) string {
	if name == "" {
		return "alguien de la familia"
	}
	return name
}
