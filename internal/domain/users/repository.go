package users

import "context"

type Repository interface {
	// Create falla con ErrDuplicate si el firebase_uid ya existe.
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByFirebaseUID(ctx context.Context, firebaseUID string) (User, error)
	Update(ctx context.Context, u User) error
	Delete(ctx context.Context, id string) error

	// UpsertDeviceToken inserta o reactiva el token para (user, token).
	UpsertDeviceToken(ctx context.Context, t DeviceToken) error
	// ActiveTokens junta columna legacy + device tokens activos, deduplicado.
	ActiveTokens(ctx context.Context, userIDs []string) ([]string, error)
	// RemoveTokens borra tokens inválidos (en ambas representaciones).
	RemoveTokens(ctx context.Context, tokens []string) (int, error)
	DeleteTokensByUser(ctx context.Context, userID string) error
}
