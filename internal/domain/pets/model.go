package pets

import "time"

// Gender de la mascota.
type Gender string

const (
	GenderMale    Gender = "M"
	GenderFemale  Gender = "F"
	GenderUnknown Gender = "Unknown"
)

// ParseGender normaliza el valor recibido; vacío => Unknown, otro => inválido.
func ParseGender(s string) (Gender, bool) {
	switch s {
	case "M":
		return GenderMale, true
	case "F":
		return GenderFemale, true
	case "Unknown", "":
		return GenderUnknown, true
	default:
		return "", false
	}
}

// Pet es el perfil de una mascota. Siempre pertenece a una familia;
// owner_id es el OWNER actual de esa familia (se reescribe si cambia).
type Pet struct {
	ID       string
	FamilyID string
	OwnerID  string

	// Código corto para compartir la mascota con otros usuarios.
	// 8 alfanuméricos, único global.
	SearchID string

	Name     string
	Breed    string
	Age      int
	WeightKg float64
	Gender   Gender
	Disease  string

	ImageURL string
	VoiceURL string

	CreatedAt time.Time
	UpdatedAt time.Time
}
