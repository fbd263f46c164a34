package postgres

import (
	"context"
	"database/sql"

	"take-a-paw/internal/domain/photos"
)

type PhotosRepo struct {
	db *sql.DB
}

func NewPhotosRepo(db *sql.DB) *PhotosRepo {
	return &PhotosRepo{db: db}
}

func (r *PhotosRepo) Create(ctx context.Context, p photos.Photo) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO photos (id, walk_id, pet_id, uploaded_by, url, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, p.ID, p.WalkID, p.PetID, p.UploadedBy, p.URL, p.CreatedAt)
	return err
}

func (r *PhotosRepo) ListByPet(ctx context.Context, petID string) ([]photos.Photo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, walk_id, pet_id, uploaded_by, url, created_at
		FROM photos
		WHERE pet_id = $1
		ORDER BY created_at DESC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]photos.Photo, 0)
	for rows.Next() {
		var p photos.Photo
		if err := rows.Scan(&p.ID, &p.WalkID, &p.PetID, &p.UploadedBy, &p.URL, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
