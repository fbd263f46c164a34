package recommendations

import "context"

type Repository interface {
	// Upsert reemplaza la fila de la mascota (pet_id único).
	Upsert(ctx context.Context, rec Recommendation) error
	GetByPet(ctx context.Context, petID string) (Recommendation, error)
}
