package memory

import (
	"context"
	"strings"

	"take-a-paw/internal/domain/families"
)

// cascade implementa families.Cascade. Cada paso toma el lock del
// store, así el transfer de ownership (rol + owner_id de mascotas) es
// atómico como lo sería la transacción en Postgres.
type cascade struct {
	s *Store
}

func (c *cascade) PetIDs(ctx context.Context, familyID string) ([]string, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	out := make([]string, 0)
	for id, p := range c.s.pets {
		if p.FamilyID == familyID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (c *cascade) TransferOwnership(ctx context.Context, familyID, leavingUserID, newOwnerID string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	m, ok := c.s.members[familyID][newOwnerID]
	if !ok {
		return families.ErrNotFound
	}
	delete(c.s.members[familyID], leavingUserID)
	m.Role = families.RoleOwner
	c.s.members[familyID][newOwnerID] = m

	for id, p := range c.s.pets {
		if p.FamilyID == familyID {
			p.OwnerID = newOwnerID
			c.s.pets[id] = p
		}
	}
	return nil
}

func (c *cascade) DeleteTrackingPoints(ctx context.Context, petIDs []string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	for _, id := range c.s.walkIDsOf(petIDs) {
		delete(c.s.points, id)
	}
	return nil
}

func (c *cascade) DeletePhotos(ctx context.Context, petIDs []string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	ids := asSet(petIDs)
	for id, p := range c.s.photos {
		if ids[p.PetID] {
			delete(c.s.photos, id)
		}
	}
	return nil
}

func (c *cascade) DeleteWalks(ctx context.Context, petIDs []string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	for _, id := range c.s.walkIDsOf(petIDs) {
		delete(c.s.walks, id)
	}
	return nil
}

func (c *cascade) DeleteActivityStats(ctx context.Context, petIDs []string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	ids := asSet(petIDs)
	for key, st := range c.s.stats {
		if ids[st.PetID] {
			delete(c.s.stats, key)
		}
	}
	return nil
}

func (c *cascade) DeleteRecommendations(ctx context.Context, petIDs []string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	for _, id := range petIDs {
		delete(c.s.recs, id)
	}
	return nil
}

func (c *cascade) DeleteShareRequests(ctx context.Context, petIDs []string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	ids := asSet(petIDs)
	for id, req := range c.s.requests {
		if ids[req.PetID] {
			delete(c.s.requests, id)
		}
	}
	return nil
}

func (c *cascade) DeleteNotifications(ctx context.Context, familyID string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	for id, n := range c.s.notifs {
		if n.FamilyID != familyID {
			continue
		}
		delete(c.s.notifs, id)
		for key := range c.s.reads {
			if strings.HasPrefix(key, id+"|") {
				delete(c.s.reads, key)
			}
		}
	}
	return nil
}

func (c *cascade) DeletePets(ctx context.Context, familyID string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	for id, p := range c.s.pets {
		if p.FamilyID == familyID {
			delete(c.s.searchIndex, p.SearchID)
			delete(c.s.pets, id)
		}
	}
	return nil
}

// walkIDsOf requiere el lock tomado.
func (s *Store) walkIDsOf(petIDs []string) []string {
	ids := asSet(petIDs)
	out := make([]string, 0)
	for id, w := range s.walks {
		if ids[w.PetID] {
			out = append(out, id)
		}
	}
	return out
}

func asSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
