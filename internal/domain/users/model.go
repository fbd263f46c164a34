package users

import (
	"strings"
	"time"
)

// Provider es el origen de la cuenta, normalizado desde el sign-in provider
// del token de identidad.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderApple  Provider = "apple"
	ProviderKakao  Provider = "kakao"
	ProviderEmail  Provider = "email"
)

// ProviderFrom mapea el provider crudo del token al enum interno.
// Proveedores desconocidos caen en email.
func ProviderFrom(signInProvider string) Provider {
	switch strings.TrimSpace(signInProvider) {
	case "google.com":
		return ProviderGoogle
	case "apple.com":
		return ProviderApple
	case "oidc.kakao", "custom":
		return ProviderKakao
	case "password":
		return ProviderEmail
	default:
		return ProviderEmail
	}
}

// User es la cuenta interna, aprovisionada lazy desde el token verificado.
type User struct {
	ID          string
	FirebaseUID string

	Nickname      string
	Email         string
	Phone         string
	ProfileImgURL string
	SNS           Provider

	// Columna legacy de token único. Se une (deduplicada) con los
	// DeviceToken activos al juntar destinos de push.
	FCMToken string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DeviceToken es un token FCM por dispositivo.
type DeviceToken struct {
	ID       string
	UserID   string
	Token    string
	DeviceID string
	Platform string // ios, android
	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
