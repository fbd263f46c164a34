package notifications

import (
	"context"
	"time"
)

// ListFilter acota la consulta de visibles. Type vacío = todos.
type ListFilter struct {
	Type  Type
	PetID string
	Page  int
	Size  int
}

type Repository interface {
	Create(ctx context.Context, n Notification) error
	GetByID(ctx context.Context, id string) (Notification, error)

	// ListVisible: broadcasts de las familias dadas más las dirigidas al
	// usuario, orden created_at asc, paginado.
	ListVisible(ctx context.Context, userID string, familyIDs []string, f ListFilter) ([]Notification, error)

	// HasSince responde si ya existe una fila (family, pet, actor, type)
	// con created_at >= since. Es la guarda anti-duplicados de los
	// avisos de actividad.
	HasSince(ctx context.Context, familyID, petID, actorID string, t Type, since time.Time) (bool, error)

	// MarkRead inserta el recibo si no existe; devuelve true si ya
	// estaba leído. Nunca falla por duplicado.
	MarkRead(ctx context.Context, notificationID, userID string, at time.Time) (already bool, err error)

	// ReadIDs filtra, de los ids dados, los que el usuario ya leyó.
	ReadIDs(ctx context.Context, userID string, notificationIDs []string) (map[string]bool, error)
}
