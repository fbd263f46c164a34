package postgres

import (
	"context"
	"database/sql"
	"errors"

	"take-a-paw/internal/domain/recommendations"
)

type RecommendationsRepo struct {
	db *sql.DB
}

func NewRecommendationsRepo(db *sql.DB) *RecommendationsRepo {
	return &RecommendationsRepo{db: db}
}

const recColumns = `pet_id, min_walks_per_day, recommended_walks_per_day, max_walks_per_day, min_minutes_per_walk, recommended_minutes_per_walk, max_minutes_per_walk, min_distance_km, recommended_distance_km, max_distance_km, generated_by, updated_at`

func (r *RecommendationsRepo) Upsert(ctx context.Context, rec recommendations.Recommendation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO walk_recommendations (`+recColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (pet_id) DO UPDATE
		SET min_walks_per_day = EXCLUDED.min_walks_per_day,
		    recommended_walks_per_day = EXCLUDED.recommended_walks_per_day,
		    max_walks_per_day = EXCLUDED.max_walks_per_day,
		    min_minutes_per_walk = EXCLUDED.min_minutes_per_walk,
		    recommended_minutes_per_walk = EXCLUDED.recommended_minutes_per_walk,
		    max_minutes_per_walk = EXCLUDED.max_minutes_per_walk,
		    min_distance_km = EXCLUDED.min_distance_km,
		    recommended_distance_km = EXCLUDED.recommended_distance_km,
		    max_distance_km = EXCLUDED.max_distance_km,
		    generated_by = EXCLUDED.generated_by,
		    updated_at = EXCLUDED.updated_at
	`,
		rec.PetID, rec.MinWalksPerDay, rec.RecommendedWalksPerDay, rec.MaxWalksPerDay,
		rec.MinMinutesPerWalk, rec.RecommendedMinutesPerWalk, rec.MaxMinutesPerWalk,
		rec.MinDistanceKm, rec.RecommendedDistanceKm, rec.MaxDistanceKm,
		rec.GeneratedBy, rec.UpdatedAt,
	)
	return err
}

func (r *RecommendationsRepo) GetByPet(ctx context.Context, petID string) (recommendations.Recommendation, error) {
	var rec recommendations.Recommendation
	err := r.db.QueryRowContext(ctx, `
		SELECT `+recColumns+` FROM walk_recommendations WHERE pet_id = $1
	`, petID).Scan(
		&rec.PetID, &rec.MinWalksPerDay, &rec.RecommendedWalksPerDay, &rec.MaxWalksPerDay,
		&rec.MinMinutesPerWalk, &rec.RecommendedMinutesPerWalk, &rec.MaxMinutesPerWalk,
		&rec.MinDistanceKm, &rec.RecommendedDistanceKm, &rec.MaxDistanceKm,
		&rec.GeneratedBy, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return recommendations.Recommendation{}, errors.New("recommendation not found")
	}
	return rec, err
}
