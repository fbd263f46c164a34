package families

import "time"

// Role dentro de una familia. A lo sumo un OWNER por familia.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleMember Role = "MEMBER"
)

// Family agrupa a las personas que cuidan a las mismas mascotas.
type Family struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Member es la fila de pertenencia (family_id, user_id).
type Member struct {
	FamilyID string
	UserID   string
	Role     Role
	JoinedAt time.Time
}
