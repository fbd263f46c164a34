package postgres

import (
	"context"
	"database/sql"
	"errors"

	"take-a-paw/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const userColumns = `id, firebase_uid, nickname, email, phone, profile_img_url, sns, fcm_token, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (users.User, error) {
	var u users.User
	err := row.Scan(
		&u.ID, &u.FirebaseUID, &u.Nickname, &u.Email, &u.Phone,
		&u.ProfileImgURL, &u.SNS, &u.FCMToken, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		u.ID, u.FirebaseUID, u.Nickname, u.Email, u.Phone,
		u.ProfileImgURL, u.SNS, u.FCMToken, u.CreatedAt, u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return users.ErrDuplicate
	}
	return err
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, users.ErrNotFound
	}
	return u, err
}

func (r *UsersRepo) GetByFirebaseUID(ctx context.Context, firebaseUID string) (users.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE firebase_uid = $1`, firebaseUID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, users.ErrNotFound
	}
	return u, err
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET nickname = $2, email = $3, phone = $4, profile_img_url = $5,
		    sns = $6, fcm_token = $7, updated_at = $8
		WHERE id = $1
	`, u.ID, u.Nickname, u.Email, u.Phone, u.ProfileImgURL, u.SNS, u.FCMToken, u.UpdatedAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) UpsertDeviceToken(ctx context.Context, t users.DeviceToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO device_tokens (id, user_id, token, device_id, platform, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (user_id, token) DO UPDATE
		SET device_id = EXCLUDED.device_id,
		    platform = EXCLUDED.platform,
		    is_active = TRUE,
		    updated_at = EXCLUDED.updated_at
	`, t.ID, t.UserID, t.Token, t.DeviceID, t.Platform, t.IsActive, t.CreatedAt, t.UpdatedAt)
	return err
}

// ActiveTokens junta la columna legacy con los device tokens activos,
// deduplicado en SQL.
func (r *UsersRepo) ActiveTokens(ctx context.Context, userIDs []string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT fcm_token FROM users WHERE id = ANY($1) AND fcm_token <> ''
		UNION
		SELECT token FROM device_tokens WHERE user_id = ANY($1) AND is_active
	`, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *UsersRepo) RemoveTokens(ctx context.Context, tokens []string) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM device_tokens WHERE token = ANY($1)`, tokens)
	if err != nil {
		return 0, err
	}
	removed, _ := res.RowsAffected()

	res, err = r.db.ExecContext(ctx, `UPDATE users SET fcm_token = '' WHERE fcm_token = ANY($1)`, tokens)
	if err != nil {
		return int(removed), err
	}
	cleared, _ := res.RowsAffected()
	return int(removed + cleared), nil
}

func (r *UsersRepo) DeleteTokensByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM device_tokens WHERE user_id = $1`, userID)
	return err
}
