package memory

import (
	"context"
	"errors"

	"take-a-paw/internal/domain/recommendations"
)

type recommendationRepo struct {
	s *Store
}

func (r *recommendationRepo) Upsert(ctx context.Context, rec recommendations.Recommendation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.recs[rec.PetID] = rec
	return nil
}

func (r *recommendationRepo) GetByPet(ctx context.Context, petID string) (recommendations.Recommendation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.recs[petID]
	if !ok {
		return recommendations.Recommendation{}, errors.New("recommendation not found")
	}
	return rec, nil
}
