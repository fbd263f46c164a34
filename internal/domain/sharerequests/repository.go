package sharerequests

import "context"

type Repository interface {
	Create(ctx context.Context, req ShareRequest) error
	GetByID(ctx context.Context, id string) (ShareRequest, error)
	// HasPending: ya existe un pedido PENDING del mismo requester para
	// la misma mascota.
	HasPending(ctx context.Context, petID, requesterID string) (bool, error)
	Update(ctx context.Context, req ShareRequest) error
	// ListByRequester con filtro de status opcional; orden created_at desc.
	ListByRequester(ctx context.Context, requesterID string, status *Status, page, size int) ([]ShareRequest, int, error)
}
