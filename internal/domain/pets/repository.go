package pets

import (
	"context"

	"take-a-paw/internal/domain/families"
)

type Repository interface {
	// Register crea familia, pertenencia OWNER y mascota en una sola
	// operación atómica. Falla con ErrSearchIDTaken si el código corto
	// ya está en uso.
	Register(ctx context.Context, f families.Family, owner families.Member, p Pet) error

	GetByID(ctx context.Context, id string) (Pet, error)
	GetBySearchID(ctx context.Context, searchID string) (Pet, error)
	ListByFamilies(ctx context.Context, familyIDs []string) ([]Pet, error)
	Update(ctx context.Context, p Pet) error
}
