package memory

import (
	"context"
	"sort"

	"take-a-paw/internal/domain/families"
	"take-a-paw/internal/domain/pets"
)

type petRepo struct {
	s *Store
}

func (r *petRepo) Register(ctx context.Context, f families.Family, owner families.Member, p pets.Pet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.searchIndex[p.SearchID]; taken {
		return pets.ErrSearchIDTaken
	}

	r.s.families[f.ID] = f
	r.s.members[f.ID] = map[string]families.Member{owner.UserID: owner}
	r.s.pets[p.ID] = p
	r.s.searchIndex[p.SearchID] = p.ID
	return nil
}

func (r *petRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.pets[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, nil
}

func (r *petRepo) GetBySearchID(ctx context.Context, searchID string) (pets.Pet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.searchIndex[searchID]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return r.s.pets[id], nil
}

func (r *petRepo) ListByFamilies(ctx context.Context, familyIDs []string) ([]pets.Pet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := asSet(familyIDs)
	out := make([]pets.Pet, 0)
	for _, p := range r.s.pets {
		if ids[p.FamilyID] {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *petRepo) Update(ctx context.Context, p pets.Pet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.pets[p.ID]; !ok {
		return pets.ErrNotFound
	}
	r.s.pets[p.ID] = p
	return nil
}
