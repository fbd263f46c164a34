package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"take-a-paw/internal/domain/families"
)

// Cascade implementa families.Cascade. TransferOwnership es la única
// operación multi-tabla con transacción; los deletes del subárbol los
// ordena el servicio de familias y acá son statements simples.
type Cascade struct {
	db *sql.DB
}

func NewCascade(db *sql.DB) *Cascade {
	return &Cascade{db: db}
}

func (c *Cascade) PetIDs(ctx context.Context, familyID string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id FROM pets WHERE family_id = $1`, familyID)
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

// TransferOwnership saca al saliente, cambia el rol del sucesor y
// reescribe owner_id de todas las mascotas de la familia en una sola
// transacción, así nunca hay dos filas OWNER visibles.
func (c *Cascade) TransferOwnership(ctx context.Context, familyID, leavingUserID, newOwnerID string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM family_members
		WHERE family_id = $1 AND user_id = $2
	`, familyID, leavingUserID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE family_members SET role = $3
		WHERE family_id = $1 AND user_id = $2
	`, familyID, newOwnerID, families.RoleOwner)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return families.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE pets SET owner_id = $2 WHERE family_id = $1
	`, familyID, newOwnerID); err != nil {
		return err
	}

	return tx.Commit()
}

func (c *Cascade) DeleteTrackingPoints(ctx context.Context, petIDs []string) error {
	return c.deleteByPets(ctx, `
		DELETE FROM tracking_points
		WHERE walk_id IN (SELECT id FROM walks WHERE pet_id = ANY($1))
	`, petIDs)
}

func (c *Cascade) DeletePhotos(ctx context.Context, petIDs []string) error {
	return c.deleteByPets(ctx, `DELETE FROM photos WHERE pet_id = ANY($1)`, petIDs)
}

func (c *Cascade) DeleteWalks(ctx context.Context, petIDs []string) error {
	return c.deleteByPets(ctx, `DELETE FROM walks WHERE pet_id = ANY($1)`, petIDs)
}

func (c *Cascade) DeleteActivityStats(ctx context.Context, petIDs []string) error {
	return c.deleteByPets(ctx, `DELETE FROM activity_stats WHERE pet_id = ANY($1)`, petIDs)
}

func (c *Cascade) DeleteRecommendations(ctx context.Context, petIDs []string) error {
	return c.deleteByPets(ctx, `DELETE FROM walk_recommendations WHERE pet_id = ANY($1)`, petIDs)
}

func (c *Cascade) DeleteShareRequests(ctx context.Context, petIDs []string) error {
	return c.deleteByPets(ctx, `DELETE FROM share_requests WHERE pet_id = ANY($1)`, petIDs)
}

func (c *Cascade) DeleteNotifications(ctx context.Context, familyID string) error {
	if _, err := c.db.ExecContext(ctx, `
		DELETE FROM notification_reads
		WHERE notification_id IN (SELECT id FROM notifications WHERE family_id = $1)
	`, familyID); err != nil {
		return fmt.Errorf("delete notification reads: %w", err)
	}
	_, err := c.db.ExecContext(ctx, `DELETE FROM notifications WHERE family_id = $1`, familyID)
	return err
}

func (c *Cascade) DeletePets(ctx context.Context, familyID string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM pets WHERE family_id = $1`, familyID)
	return err
}

func (c *Cascade) deleteByPets(ctx context.Context, query string, petIDs []string) error {
	if len(petIDs) == 0 {
		return nil
	}
	_, err := c.db.ExecContext(ctx, query, petIDs)
	return err
}
