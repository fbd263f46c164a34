package memory

import (
	"context"
	"sort"

	"take-a-paw/internal/domain/photos"
)

type photoRepo struct {
	s *Store
}

func (r *photoRepo) Create(ctx context.Context, p photos.Photo) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.photos[p.ID] = p
	return nil
}

func (r *photoRepo) ListByPet(ctx context.Context, petID string) ([]photos.Photo, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]photos.Photo, 0)
	for _, p := range r.s.photos {
		if p.PetID == petID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
