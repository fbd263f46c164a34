package recommendations

import "time"

// Recommendation es el plan de paseo sugerido por mascota (fila única
// por pet_id, se reemplaza al regenerar).
type Recommendation struct {
	PetID string

	MinWalksPerDay         int
	RecommendedWalksPerDay int
	MaxWalksPerDay         int

	MinMinutesPerWalk         int
	RecommendedMinutesPerWalk int
	MaxMinutesPerWalk         int

	MinDistanceKm         float64
	RecommendedDistanceKm float64
	MaxDistanceKm         float64

	// GeneratedBy: "default" al registrar, o el modelo que la produjo.
	GeneratedBy string
	UpdatedAt   time.Time
}
