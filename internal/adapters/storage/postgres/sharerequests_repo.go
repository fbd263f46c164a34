package postgres

import (
	"context"
	"database/sql"
	"errors"

	"take-a-paw/internal/domain/sharerequests"
)

type ShareRequestsRepo struct {
	db *sql.DB
}

func NewShareRequestsRepo(db *sql.DB) *ShareRequestsRepo {
	return &ShareRequestsRepo{db: db}
}

func (r *ShareRequestsRepo) Create(ctx context.Context, req sharerequests.ShareRequest) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO share_requests (id, pet_id, requester_id, status, created_at, responded_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, req.ID, req.PetID, req.RequesterID, req.Status, req.CreatedAt, req.RespondedAt)
	return err
}

func (r *ShareRequestsRepo) GetByID(ctx context.Context, id string) (sharerequests.ShareRequest, error) {
	var req sharerequests.ShareRequest
	err := r.db.QueryRowContext(ctx, `
		SELECT id, pet_id, requester_id, status, created_at, responded_at
		FROM share_requests WHERE id = $1
	`, id).Scan(&req.ID, &req.PetID, &req.RequesterID, &req.Status, &req.CreatedAt, &req.RespondedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return sharerequests.ShareRequest{}, sharerequests.ErrNotFound
	}
	return req, err
}

func (r *ShareRequestsRepo) HasPending(ctx context.Context, petID, requesterID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM share_requests
			WHERE pet_id = $1 AND requester_id = $2 AND status = 'PENDING'
		)
	`, petID, requesterID).Scan(&exists)
	return exists, err
}

func (r *ShareRequestsRepo) Update(ctx context.Context, req sharerequests.ShareRequest) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE share_requests SET status = $2, responded_at = $3 WHERE id = $1
	`, req.ID, req.Status, req.RespondedAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sharerequests.ErrNotFound
	}
	return nil
}

func (r *ShareRequestsRepo) ListByRequester(ctx context.Context, requesterID string, status *sharerequests.Status, page, size int) ([]sharerequests.ShareRequest, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT count(*) FROM share_requests
		WHERE requester_id = $1 AND ($2::text IS NULL OR status = $2)
	`, requesterID, status).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, pet_id, requester_id, status, created_at, responded_at
		FROM share_requests
		WHERE requester_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, requesterID, status, size, (page-1)*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]sharerequests.ShareRequest, 0)
	for rows.Next() {
		var req sharerequests.ShareRequest
		if err := rows.Scan(&req.ID, &req.PetID, &req.RequesterID, &req.Status, &req.CreatedAt, &req.RespondedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, req)
	}
	return out, total, rows.Err()
}
