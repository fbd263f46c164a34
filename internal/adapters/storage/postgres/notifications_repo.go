package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"take-a-paw/internal/domain/notifications"
)

type NotificationsRepo struct {
	db *sql.DB
}

func NewNotificationsRepo(db *sql.DB) *NotificationsRepo {
	return &NotificationsRepo{db: db}
}

const notificationColumns = `id, family_id, target_user_id, actor_id, type, title, message, related_pet_id, related_user_id, related_request_id, related_lat, related_lng, created_at`

func scanNotification(row interface{ Scan(...any) error }) (notifications.Notification, error) {
	var n notifications.Notification
	err := row.Scan(
		&n.ID, &n.FamilyID, &n.TargetUserID, &n.ActorID, &n.Type,
		&n.Title, &n.Message, &n.RelatedPetID, &n.RelatedUserID,
		&n.RelatedRequestID, &n.RelatedLat, &n.RelatedLng, &n.CreatedAt,
	)
	return n, err
}

func (r *NotificationsRepo) Create(ctx context.Context, n notifications.Notification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		n.ID, n.FamilyID, n.TargetUserID, n.ActorID, n.Type,
		n.Title, n.Message, n.RelatedPetID, n.RelatedUserID,
		n.RelatedRequestID, n.RelatedLat, n.RelatedLng, n.CreatedAt,
	)
	return err
}

func (r *NotificationsRepo) GetByID(ctx context.Context, id string) (notifications.Notification, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return notifications.Notification{}, errors.New("notification not found")
	}
	return n, err
}

// ListVisible junta broadcasts de las familias del lector con las filas
// dirigidas a él; la visibilidad se resuelve acá, no se materializa.
func (r *NotificationsRepo) ListVisible(ctx context.Context, userID string, familyIDs []string, f notifications.ListFilter) ([]notifications.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE ((target_user_id IS NULL AND family_id = ANY($1)) OR target_user_id = $2)
		  AND ($3 = '' OR type = $3)
		  AND ($4 = '' OR related_pet_id = $4)
		ORDER BY created_at ASC
		LIMIT $5 OFFSET $6
	`, familyIDs, userID, string(f.Type), f.PetID, f.Size, (f.Page-1)*f.Size)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]notifications.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationsRepo) HasSince(ctx context.Context, familyID, petID, actorID string, t notifications.Type, since time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE family_id = $1 AND related_pet_id = $2 AND actor_id = $3
			  AND type = $4 AND created_at >= $5
		)
	`, familyID, petID, actorID, t, since).Scan(&exists)
	return exists, err
}

func (r *NotificationsRepo) MarkRead(ctx context.Context, notificationID, userID string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO notification_reads (notification_id, user_id, read_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (notification_id, user_id) DO NOTHING
	`, notificationID, userID, at)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	// 0 filas insertadas = ya estaba leído.
	return n == 0, nil
}

func (r *NotificationsRepo) ReadIDs(ctx context.Context, userID string, notificationIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(notificationIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT notification_id FROM notification_reads
		WHERE user_id = $1 AND notification_id = ANY($2)
	`, userID, notificationIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}
