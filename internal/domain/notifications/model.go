package notifications

import "time"

// Type clasifica la notificación; el cliente decide ícono y pantalla.
type Type string

const (
	TypeRequest        Type = "REQUEST"
	TypeInviteAccepted Type = "INVITE_ACCEPTED"
	TypeInviteRejected Type = "INVITE_REJECTED"
	TypeActivityStart  Type = "ACTIVITY_START"
	TypeActivityEnd    Type = "ACTIVITY_END"
	TypeRoleChanged    Type = "FAMILY_ROLE_CHANGED"
	TypePetUpdate      Type = "PET_UPDATE"
	TypeSystemRanking  Type = "SYSTEM_RANKING"
	TypeSystemWeather  Type = "SYSTEM_WEATHER"
	TypeSystemReminder Type = "SYSTEM_REMINDER"
	TypeSystemHealth   Type = "SYSTEM_HEALTH"
	TypeSOS            Type = "SOS"
	TypeSOSResolved    Type = "SOS_RESOLVED"
)

var knownTypes = map[Type]bool{
	TypeRequest:        true,
	TypeInviteAccepted: true,
	TypeInviteRejected: true,
	TypeActivityStart:  true,
	TypeActivityEnd:    true,
	TypeRoleChanged:    true,
	TypePetUpdate:      true,
	TypeSystemRanking:  true,
	TypeSystemWeather:  true,
	TypeSystemReminder: true,
	TypeSystemHealth:   true,
	TypeSOS:            true,
	TypeSOSResolved:    true,
}

// ValidType acepta el valor vacío (sin filtro) y los tipos conocidos.
func ValidType(t Type) bool {
	return t == "" || knownTypes[t]
}

// Notification es una fila única: target_user_id == nil significa
// broadcast a toda la familia, resuelto al momento de leer. No se
// materializa una fila por destinatario.
type Notification struct {
	ID       string
	FamilyID string
	// TargetUserID nil = broadcast.
	TargetUserID *string
	ActorID      string

	Type    Type
	Title   string
	Message string

	RelatedPetID     string
	RelatedUserID    string
	RelatedRequestID string
	RelatedLat       *float64
	RelatedLng       *float64

	CreatedAt time.Time
}

// Broadcast indica si la fila es visible para toda la familia.
func (n Notification) Broadcast() bool {
	return n.TargetUserID == nil
}

// Read es el recibo de lectura por usuario; (notification, user) único.
type Read struct {
	NotificationID string
	UserID         string
	ReadAt         time.Time
}
