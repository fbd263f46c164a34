package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"take-a-paw/internal/domain/walks"
)

type WalksRepo struct {
	db *sql.DB
}

func NewWalksRepo(db *sql.DB) *WalksRepo {
	return &WalksRepo{db: db}
}

const walkColumns = `id, pet_id, user_id, start_time, end_time, duration_min, distance_km, calories, weather_status, weather_temp_c, route_data, created_at`

func scanWalk(row interface{ Scan(...any) error }) (walks.Walk, error) {
	var w walks.Walk
	var routeData []byte
	err := row.Scan(
		&w.ID, &w.PetID, &w.UserID, &w.StartTime, &w.EndTime,
		&w.DurationMin, &w.DistanceKm, &w.Calories,
		&w.WeatherStatus, &w.WeatherTempC, &routeData, &w.CreatedAt,
	)
	if len(routeData) > 0 {
		w.RouteData = routeData
	}
	return w, err
}

// StartWalk confía en el índice único parcial walks(pet_id) WHERE
// end_time IS NULL: el insert que pierde la carrera recibe 23505.
func (r *WalksRepo) StartWalk(ctx context.Context, w walks.Walk) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO walks (`+walkColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		w.ID, w.PetID, w.UserID, w.StartTime, w.EndTime,
		w.DurationMin, w.DistanceKm, w.Calories,
		w.WeatherStatus, w.WeatherTempC, []byte(w.RouteData), w.CreatedAt,
	)
	if isUniqueViolation(err) {
		return walks.ErrWalkInProgress
	}
	return err
}

func (r *WalksRepo) GetByID(ctx context.Context, id string) (walks.Walk, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+walkColumns+` FROM walks WHERE id = $1`, id)
	w, err := scanWalk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return walks.Walk{}, walks.ErrNotFound
	}
	return w, err
}

func (r *WalksRepo) Update(ctx context.Context, w walks.Walk) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE walks
		SET end_time = $2, duration_min = $3, distance_km = $4,
		    calories = $5, route_data = $6
		WHERE id = $1
	`, w.ID, w.EndTime, w.DurationMin, w.DistanceKm, w.Calories, []byte(w.RouteData))
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return walks.ErrNotFound
	}
	return nil
}

func (r *WalksRepo) OngoingByPet(ctx context.Context, petID string) (walks.Walk, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+walkColumns+` FROM walks
		WHERE pet_id = $1 AND end_time IS NULL
	`, petID)
	w, err := scanWalk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return walks.Walk{}, walks.ErrNotFound
	}
	return w, err
}

func (r *WalksRepo) ListByPetBetween(ctx context.Context, petID string, from, to time.Time) ([]walks.Walk, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+walkColumns+` FROM walks
		WHERE pet_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time ASC
	`, petID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]walks.Walk, 0)
	for rows.Next() {
		w, err := scanWalk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *WalksRepo) RankingTotals(ctx context.Context, userIDs []string, from, to time.Time, petID string) ([]walks.RankingRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id,
		       COALESCE(SUM(distance_km), 0),
		       COALESCE(SUM(duration_min), 0),
		       COUNT(*)
		FROM walks
		WHERE user_id = ANY($1) AND start_time >= $2 AND start_time < $3
		  AND ($4 = '' OR pet_id = $4)
		GROUP BY user_id
		ORDER BY 2 DESC, 3 DESC, 4 DESC, user_id ASC
	`, userIDs, from, to, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]walks.RankingRow, 0)
	for rows.Next() {
		var row walks.RankingRow
		if err := rows.Scan(&row.UserID, &row.TotalDistanceKm, &row.TotalDurationMin, &row.WalkCount); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *WalksRepo) PetsWalkedBy(ctx context.Context, userID string, from, to time.Time, petID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT pet_id FROM walks
		WHERE user_id = $1 AND start_time >= $2 AND start_time < $3
		  AND ($4 = '' OR pet_id = $4)
		ORDER BY pet_id ASC
	`, userID, from, to, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *WalksRepo) AddPoint(ctx context.Context, p walks.TrackingPoint) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tracking_points (id, walk_id, latitude, longitude, ts)
		VALUES ($1,$2,$3,$4,$5)
	`, p.ID, p.WalkID, p.Latitude, p.Longitude, p.Timestamp)
	return err
}

func (r *WalksRepo) PointsByWalk(ctx context.Context, walkID string) ([]walks.TrackingPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, walk_id, latitude, longitude, ts
		FROM tracking_points
		WHERE walk_id = $1
		ORDER BY ts ASC
	`, walkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]walks.TrackingPoint, 0)
	for rows.Next() {
		var p walks.TrackingPoint
		if err := rows.Scan(&p.ID, &p.WalkID, &p.Latitude, &p.Longitude, &p.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertStat suma el delta sobre la fila (pet, date) y recalcula
// avg_speed_kmh en el mismo statement.
func (r *WalksRepo) UpsertStat(ctx context.Context, petID, date string, delta walks.StatDelta) (walks.ActivityStat, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO activity_stats (pet_id, date, total_walks, total_distance_km, total_duration_min, avg_speed_kmh, calories_burned)
		VALUES ($1,$2,$3,$4,$5,
			CASE WHEN $5 > 0 THEN $4 / ($5::float / 60.0) ELSE 0 END,
			$6)
		ON CONFLICT (pet_id, date) DO UPDATE
		SET total_walks = activity_stats.total_walks + EXCLUDED.total_walks,
		    total_distance_km = activity_stats.total_distance_km + EXCLUDED.total_distance_km,
		    total_duration_min = activity_stats.total_duration_min + EXCLUDED.total_duration_min,
		    calories_burned = activity_stats.calories_burned + EXCLUDED.calories_burned,
		    avg_speed_kmh = CASE
			WHEN activity_stats.total_duration_min + EXCLUDED.total_duration_min > 0
			THEN (activity_stats.total_distance_km + EXCLUDED.total_distance_km)
				/ ((activity_stats.total_duration_min + EXCLUDED.total_duration_min)::float / 60.0)
			ELSE 0 END
		RETURNING pet_id, to_char(date, 'YYYY-MM-DD'), total_walks, total_distance_km, total_duration_min, avg_speed_kmh, calories_burned
	`, petID, date, delta.Walks, delta.DistanceKm, delta.DurationMin, delta.Calories)

	var st walks.ActivityStat
	err := row.Scan(&st.PetID, &st.Date, &st.TotalWalks, &st.TotalDistanceKm, &st.TotalDurationMin, &st.AvgSpeedKmh, &st.CaloriesBurned)
	return st, err
}

func (r *WalksRepo) StatsBetween(ctx context.Context, petID, fromDate, toDate string) ([]walks.ActivityStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT pet_id, to_char(date, 'YYYY-MM-DD'), total_walks, total_distance_km, total_duration_min, avg_speed_kmh, calories_burned
		FROM activity_stats
		WHERE pet_id = $1 AND date >= $2::date AND date <= $3::date
		ORDER BY date ASC
	`, petID, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]walks.ActivityStat, 0)
	for rows.Next() {
		var st walks.ActivityStat
		if err := rows.Scan(&st.PetID, &st.Date, &st.TotalWalks, &st.TotalDistanceKm, &st.TotalDurationMin, &st.AvgSpeedKmh, &st.CaloriesBurned); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
