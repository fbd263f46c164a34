package families

import "context"

type Repository interface {
	Get(ctx context.Context, familyID string) (Family, error)
	// Members ordenado por joined_at asc, desempate por user_id asc.
	// Ese orden define al sucesor cuando el OWNER se va.
	Members(ctx context.Context, familyID string) ([]Member, error)
	MembershipsOf(ctx context.Context, userID string) ([]Member, error)
	Member(ctx context.Context, familyID, userID string) (Member, error)
	// AddMember falla con ErrDuplicate si la pertenencia ya existe.
	AddMember(ctx context.Context, m Member) error
	RemoveMember(ctx context.Context, familyID, userID string) error
	DeleteFamily(ctx context.Context, familyID string) error
}

// Cascade son las mutaciones que cruzan tablas de otros módulos.
// Lo implementan los adapters de storage, que sí ven todas las tablas,
// para poder hacerlas atómicas donde el motor lo permite.
type Cascade interface {
	PetIDs(ctx context.Context, familyID string) ([]string, error)

	// TransferOwnership saca al saliente, cambia el rol del sucesor a
	// OWNER y reescribe owner_id de todas las mascotas de la familia,
	// atómicamente: nunca quedan dos OWNER visibles a la vez.
	TransferOwnership(ctx context.Context, familyID, leavingUserID, newOwnerID string) error

	// Borrado del subárbol, en orden de dependencias (hojas primero).
	DeleteTrackingPoints(ctx context.Context, petIDs []string) error
	DeletePhotos(ctx context.Context, petIDs []string) error
	DeleteWalks(ctx context.Context, petIDs []string) error
	DeleteActivityStats(ctx context.Context, petIDs []string) error
	DeleteRecommendations(ctx context.Context, petIDs []string) error
	DeleteShareRequests(ctx context.Context, petIDs []string) error
	DeleteNotifications(ctx context.Context, familyID string) error
	DeletePets(ctx context.Context, familyID string) error
}
