package postgres

import (
	"context"
	"database/sql"
	"errors"

	"take-a-paw/internal/domain/families"
)

type FamiliesRepo struct {
	db *sql.DB
}

func NewFamiliesRepo(db *sql.DB) *FamiliesRepo {
	return &FamiliesRepo{db: db}
}

func (r *FamiliesRepo) Get(ctx context.Context, familyID string) (families.Family, error) {
	var f families.Family
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM families WHERE id = $1
	`, familyID).Scan(&f.ID, &f.Name, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return families.Family{}, families.ErrNotFound
	}
	return f, err
}

func (r *FamiliesRepo) Members(ctx context.Context, familyID string) ([]families.Member, error) {
	// El orden define al sucesor del OWNER: antigüedad, desempate por id.
	rows, err := r.db.QueryContext(ctx, `
		SELECT family_id, user_id, role, joined_at
		FROM family_members
		WHERE family_id = $1
		ORDER BY joined_at ASC, user_id ASC
	`, familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMembers(rows)
}

func (r *FamiliesRepo) MembershipsOf(ctx context.Context, userID string) ([]families.Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT family_id, user_id, role, joined_at
		FROM family_members
		WHERE user_id = $1
		ORDER BY family_id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMembers(rows)
}

func scanMembers(rows *sql.Rows) ([]families.Member, error) {
	out := make([]families.Member, 0)
	for rows.Next() {
		var m families.Member
		if err := rows.Scan(&m.FamilyID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *FamiliesRepo) Member(ctx context.Context, familyID, userID string) (families.Member, error) {
	var m families.Member
	err := r.db.QueryRowContext(ctx, `
		SELECT family_id, user_id, role, joined_at
		FROM family_members
		WHERE family_id = $1 AND user_id = $2
	`, familyID, userID).Scan(&m.FamilyID, &m.UserID, &m.Role, &m.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return families.Member{}, families.ErrNotFound
	}
	return m, err
}

func (r *FamiliesRepo) AddMember(ctx context.Context, m families.Member) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO family_members (family_id, user_id, role, joined_at)
		VALUES ($1,$2,$3,$4)
	`, m.FamilyID, m.UserID, m.Role, m.JoinedAt)
	if isUniqueViolation(err) {
		return families.ErrDuplicate
	}
	return err
}

func (r *FamiliesRepo) RemoveMember(ctx context.Context, familyID, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM family_members WHERE family_id = $1 AND user_id = $2
	`, familyID, userID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return families.ErrNotFound
	}
	return nil
}

func (r *FamiliesRepo) DeleteFamily(ctx context.Context, familyID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM families WHERE id = $1`, familyID)
	return err
}
