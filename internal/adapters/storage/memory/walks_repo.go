package memory

import (
	"context"
	"sort"
	"time"

	"take-a-paw/internal/domain/walks"
)

type walkRepo struct {
	s *Store
}

func (r *walkRepo) StartWalk(ctx context.Context, w walks.Walk) error {
	// Chequeo e insert bajo el mismo lock: equivale al índice único
	// parcial walks(pet_id) WHERE end_time IS NULL de Postgres.
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.walks {
		if existing.PetID == w.PetID && existing.EndTime == nil {
			return walks.ErrWalkInProgress
		}
	}
	r.s.walks[w.ID] = w
	return nil
}

func (r *walkRepo) GetByID(ctx context.Context, id string) (walks.Walk, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	w, ok := r.s.walks[id]
	if !ok {
		return walks.Walk{}, walks.ErrNotFound
	}
	return w, nil
}

func (r *walkRepo) Update(ctx context.Context, w walks.Walk) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.walks[w.ID]; !ok {
		return walks.ErrNotFound
	}
	r.s.walks[w.ID] = w
	return nil
}

func (r *walkRepo) OngoingByPet(ctx context.Context, petID string) (walks.Walk, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, w := range r.s.walks {
		if w.PetID == petID && w.EndTime == nil {
			return w, nil
		}
	}
	return walks.Walk{}, walks.ErrNotFound
}

func (r *walkRepo) ListByPetBetween(ctx context.Context, petID string, from, to time.Time) ([]walks.Walk, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]walks.Walk, 0)
	for _, w := range r.s.walks {
		if w.PetID != petID {
			continue
		}
		if w.StartTime.Before(from) || !w.StartTime.Before(to) {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *walkRepo) RankingTotals(ctx context.Context, userIDs []string, from, to time.Time, petID string) ([]walks.RankingRow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	members := asSet(userIDs)
	byUser := map[string]*walks.RankingRow{}
	for _, w := range r.s.walks {
		if !members[w.UserID] {
			continue
		}
		if petID != "" && w.PetID != petID {
			continue
		}
		if w.StartTime.Before(from) || !w.StartTime.Before(to) {
			continue
		}
		row, ok := byUser[w.UserID]
		if !ok {
			row = &walks.RankingRow{UserID: w.UserID}
			byUser[w.UserID] = row
		}
		row.TotalDistanceKm += w.DistanceKm
		row.TotalDurationMin += w.DurationMin
		row.WalkCount++
	}

	out := make([]walks.RankingRow, 0, len(byUser))
	for _, row := range byUser {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalDistanceKm != out[j].TotalDistanceKm {
			return out[i].TotalDistanceKm > out[j].TotalDistanceKm
		}
		if out[i].TotalDurationMin != out[j].TotalDurationMin {
			return out[i].TotalDurationMin > out[j].TotalDurationMin
		}
		if out[i].WalkCount != out[j].WalkCount {
			return out[i].WalkCount > out[j].WalkCount
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (r *walkRepo) PetsWalkedBy(ctx context.Context, userID string, from, to time.Time, petID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := map[string]bool{}
	out := make([]string, 0)
	for _, w := range r.s.walks {
		if w.UserID != userID || seen[w.PetID] {
			continue
		}
		if petID != "" && w.PetID != petID {
			continue
		}
		if w.StartTime.Before(from) || !w.StartTime.Before(to) {
			continue
		}
		seen[w.PetID] = true
		out = append(out, w.PetID)
	}
	sort.Strings(out)
	return out, nil
}

func (r *walkRepo) AddPoint(ctx context.Context, p walks.TrackingPoint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.points[p.WalkID] = append(r.s.points[p.WalkID], p)
	return nil
}

func (r *walkRepo) PointsByWalk(ctx context.Context, walkID string) ([]walks.TrackingPoint, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := append([]walks.TrackingPoint(nil), r.s.points[walkID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (r *walkRepo) UpsertStat(ctx context.Context, petID, date string, delta walks.StatDelta) (walks.ActivityStat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := petID + "|" + date
	stat, ok := r.s.stats[key]
	if !ok {
		stat = walks.ActivityStat{PetID: petID, Date: date}
	}
	stat.TotalWalks += delta.Walks
	stat.TotalDistanceKm += delta.DistanceKm
	stat.TotalDurationMin += delta.DurationMin
	stat.CaloriesBurned += delta.Calories
	if stat.TotalDurationMin > 0 {
		stat.AvgSpeedKmh = stat.TotalDistanceKm / (float64(stat.TotalDurationMin) / 60.0)
	}
	r.s.stats[key] = stat
	return stat, nil
}

func (r *walkRepo) StatsBetween(ctx context.Context, petID, fromDate, toDate string) ([]walks.ActivityStat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]walks.ActivityStat, 0)
	for _, st := range r.s.stats {
		if st.PetID == petID && st.Date >= fromDate && st.Date <= toDate {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
