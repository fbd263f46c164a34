package postgres

import (
	"context"
	"database/sql"
	"errors"

	"take-a-paw/internal/domain/families"
	"take-a-paw/internal/domain/pets"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `id, family_id, owner_id, search_id, name, breed, age, weight_kg, gender, disease, image_url, voice_url, created_at, updated_at`

func scanPet(row interface{ Scan(...any) error }) (pets.Pet, error) {
	var p pets.Pet
	err := row.Scan(
		&p.ID, &p.FamilyID, &p.OwnerID, &p.SearchID, &p.Name, &p.Breed,
		&p.Age, &p.WeightKg, &p.Gender, &p.Disease, &p.ImageURL, &p.VoiceURL,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// Register crea familia, pertenencia OWNER y mascota en una transacción.
// El índice único de search_id resuelve la carrera por el código corto.
func (r *PetsRepo) Register(ctx context.Context, f families.Family, owner families.Member, p pets.Pet) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO families (id, name, created_at) VALUES ($1,$2,$3)
	`, f.ID, f.Name, f.CreatedAt); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO family_members (family_id, user_id, role, joined_at)
		VALUES ($1,$2,$3,$4)
	`, owner.FamilyID, owner.UserID, owner.Role, owner.JoinedAt); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO pets (`+petColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		p.ID, p.FamilyID, p.OwnerID, p.SearchID, p.Name, p.Breed,
		p.Age, p.WeightKg, p.Gender, p.Disease, p.ImageURL, p.VoiceURL,
		p.CreatedAt, p.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return pets.ErrSearchIDTaken
		}
		return err
	}

	return tx.Commit()
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id)
	p, err := scanPet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, err
}

func (r *PetsRepo) GetBySearchID(ctx context.Context, searchID string) (pets.Pet, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE search_id = $1`, searchID)
	p, err := scanPet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, err
}

func (r *PetsRepo) ListByFamilies(ctx context.Context, familyIDs []string) ([]pets.Pet, error) {
	if len(familyIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+petColumns+` FROM pets
		WHERE family_id = ANY($1)
		ORDER BY created_at ASC
	`, familyIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET name = $2, breed = $3, age = $4, weight_kg = $5, gender = $6,
		    disease = $7, image_url = $8, voice_url = $9, updated_at = $10
		WHERE id = $1
	`, p.ID, p.Name, p.Breed, p.Age, p.WeightKg, p.Gender, p.Disease, p.ImageURL, p.VoiceURL, p.UpdatedAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return pets.ErrNotFound
	}
	return nil
}
