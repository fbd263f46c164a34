package memory

import (
	"context"

	"take-a-paw/internal/domain/users"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(ctx context.Context, u users.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.uidIndex[u.FirebaseUID]; exists {
		return users.ErrDuplicate
	}
	r.s.users[u.ID] = u
	r.s.uidIndex[u.FirebaseUID] = u.ID
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (r *userRepo) GetByFirebaseUID(ctx context.Context, firebaseUID string) (users.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.uidIndex[firebaseUID]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return r.s.users[id], nil
}

func (r *userRepo) Update(ctx context.Context, u users.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[u.ID]; !ok {
		return users.ErrNotFound
	}
	r.s.users[u.ID] = u
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return users.ErrNotFound
	}
	delete(r.s.uidIndex, u.FirebaseUID)
	delete(r.s.users, id)
	return nil
}

func (r *userRepo) UpsertDeviceToken(ctx context.Context, t users.DeviceToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := t.UserID + "|" + t.Token
	if prev, ok := r.s.tokens[key]; ok {
		t.ID = prev.ID
		t.CreatedAt = prev.CreatedAt
	}
	r.s.tokens[key] = t
	return nil
}

func (r *userRepo) ActiveTokens(ctx context.Context, userIDs []string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	want := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		want[id] = true
	}

	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, id := range userIDs {
		u, ok := r.s.users[id]
		if ok && u.FCMToken != "" && !seen[u.FCMToken] {
			seen[u.FCMToken] = true
			out = append(out, u.FCMToken)
		}
	}
	for _, t := range r.s.tokens {
		if want[t.UserID] && t.IsActive && !seen[t.Token] {
			seen[t.Token] = true
			out = append(out, t.Token)
		}
	}
	return out, nil
}

func (r *userRepo) RemoveTokens(ctx context.Context, tokens []string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	drop := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		drop[t] = true
	}

	removed := 0
	for key, t := range r.s.tokens {
		if drop[t.Token] {
			delete(r.s.tokens, key)
			removed++
		}
	}
	for id, u := range r.s.users {
		if u.FCMToken != "" && drop[u.FCMToken] {
			u.FCMToken = ""
			r.s.users[id] = u
			removed++
		}
	}
	return removed, nil
}

func (r *userRepo) DeleteTokensByUser(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for key, t := range r.s.tokens {
		if t.UserID == userID {
			delete(r.s.tokens, key)
		}
	}
	return nil
}
