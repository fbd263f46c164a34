package memory

import (
	"context"
	"sort"

	"take-a-paw/internal/domain/sharerequests"
)

type shareRequestRepo struct {
	s *Store
}

func (r *shareRequestRepo) Create(ctx context.Context, req sharerequests.ShareRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.requests[req.ID] = req
	return nil
}

func (r *shareRequestRepo) GetByID(ctx context.Context, id string) (sharerequests.ShareRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	req, ok := r.s.requests[id]
	if !ok {
		return sharerequests.ShareRequest{}, sharerequests.ErrNotFound
	}
	return req, nil
}

func (r *shareRequestRepo) HasPending(ctx context.Context, petID, requesterID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, req := range r.s.requests {
		if req.PetID == petID && req.RequesterID == requesterID && req.Status == sharerequests.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *shareRequestRepo) Update(ctx context.Context, req sharerequests.ShareRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.requests[req.ID]; !ok {
		return sharerequests.ErrNotFound
	}
	r.s.requests[req.ID] = req
	return nil
}

func (r *shareRequestRepo) ListByRequester(ctx context.Context, requesterID string, status *sharerequests.Status, page, size int) ([]sharerequests.ShareRequest, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]sharerequests.ShareRequest, 0)
	for _, req := range r.s.requests {
		if req.RequesterID != requesterID {
			continue
		}
		if status != nil && req.Status != *status {
			continue
		}
		all = append(all, req)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	start := (page - 1) * size
	if start >= total {
		return nil, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}
