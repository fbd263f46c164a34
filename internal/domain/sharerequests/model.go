package sharerequests

import "time"

// Status del pedido. Una vez resuelto es terminal: no hay vuelta a PENDING.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// ShareRequest es el pedido de un usuario para sumarse a la familia de
// una mascota (encontrada por su pet_search_id).
type ShareRequest struct {
	ID          string
	PetID       string
	RequesterID string
	Status      Status

	CreatedAt   time.Time
	RespondedAt *time.Time
}
