package memory

import (
	"context"
	"sort"

	"take-a-paw/internal/domain/families"
)

type familyRepo struct {
	s *Store
}

func (r *familyRepo) Get(ctx context.Context, familyID string) (families.Family, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	f, ok := r.s.families[familyID]
	if !ok {
		return families.Family{}, families.ErrNotFound
	}
	return f, nil
}

func (r *familyRepo) Members(ctx context.Context, familyID string) ([]families.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.membersSorted(familyID), nil
}

// membersSorted requiere el lock tomado. joined_at asc, desempate por
// user_id asc: el mismo orden que define al sucesor del OWNER.
func (s *Store) membersSorted(familyID string) []families.Member {
	out := make([]families.Member, 0, len(s.members[familyID]))
	for _, m := range s.members[familyID] {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

func (r *familyRepo) MembershipsOf(ctx context.Context, userID string) ([]families.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]families.Member, 0)
	for _, byUser := range r.s.members {
		if m, ok := byUser[userID]; ok {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FamilyID < out[j].FamilyID })
	return out, nil
}

func (r *familyRepo) Member(ctx context.Context, familyID, userID string) (families.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.members[familyID][userID]
	if !ok {
		return families.Member{}, families.ErrNotFound
	}
	return m, nil
}

func (r *familyRepo) AddMember(ctx context.Context, m families.Member) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	byUser, ok := r.s.members[m.FamilyID]
	if !ok {
		byUser = make(map[string]families.Member)
		r.s.members[m.FamilyID] = byUser
	}
	if _, exists := byUser[m.UserID]; exists {
		return families.ErrDuplicate
	}
	byUser[m.UserID] = m
	return nil
}

func (r *familyRepo) RemoveMember(ctx context.Context, familyID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.members[familyID][userID]; !ok {
		return families.ErrNotFound
	}
	delete(r.s.members[familyID], userID)
	return nil
}

func (r *familyRepo) DeleteFamily(ctx context.Context, familyID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.families, familyID)
	delete(r.s.members, familyID)
	return nil
}
