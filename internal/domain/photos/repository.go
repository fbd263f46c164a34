package photos

import "context"

type Repository interface {
	Create(ctx context.Context, p Photo) error
	// ListByPet: orden created_at desc (las más nuevas primero).
	ListByPet(ctx context.Context, petID string) ([]Photo, error)
}
