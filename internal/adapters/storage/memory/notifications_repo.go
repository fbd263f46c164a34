package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"take-a-paw/internal/domain/notifications"
)

type notificationRepo struct {
	s *Store
}

func (r *notificationRepo) Create(ctx context.Context, n notifications.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.notifs[n.ID] = n
	return nil
}

func (r *notificationRepo) GetByID(ctx context.Context, id string) (notifications.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n, ok := r.s.notifs[id]
	if !ok {
		return notifications.Notification{}, errors.New("notification not found")
	}
	return n, nil
}

func (r *notificationRepo) ListVisible(ctx context.Context, userID string, familyIDs []string, f notifications.ListFilter) ([]notifications.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	fams := asSet(familyIDs)
	all := make([]notifications.Notification, 0)
	for _, n := range r.s.notifs {
		if n.TargetUserID != nil {
			if *n.TargetUserID != userID {
				continue
			}
		} else if !fams[n.FamilyID] {
			continue
		}
		if f.Type != "" && n.Type != f.Type {
			continue
		}
		if f.PetID != "" && n.RelatedPetID != f.PetID {
			continue
		}
		all = append(all, n)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	start := (f.Page - 1) * f.Size
	if start >= len(all) {
		return nil, nil
	}
	end := start + f.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (r *notificationRepo) HasSince(ctx context.Context, familyID, petID, actorID string, t notifications.Type, since time.Time) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, n := range r.s.notifs {
		if n.FamilyID == familyID && n.RelatedPetID == petID && n.ActorID == actorID &&
			n.Type == t && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, notificationID, userID string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := notificationID + "|" + userID
	if _, ok := r.s.reads[key]; ok {
		return true, nil
	}
	r.s.reads[key] = at
	return false, nil
}

func (r *notificationRepo) ReadIDs(ctx context.Context, userID string, notificationIDs []string) (map[string]bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[string]bool)
	for _, id := range notificationIDs {
		if _, ok := r.s.reads[id+"|"+userID]; ok {
			out[id] = true
		}
	}
	return out, nil
}
