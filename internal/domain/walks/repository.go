package walks

import (
	"context"
	"time"
)

// RankingRow es el agregado por usuario dentro de una ventana de
// ranking, ya ordenado por el repositorio.
type RankingRow struct {
	UserID           string
	TotalDistanceKm  float64
	TotalDurationMin int
	WalkCount        int
}

// StatDelta es el aporte de un paseo al rollup diario.
type StatDelta struct {
	Walks       int
	DistanceKm  float64
	DurationMin int
	Calories    float64
}

type Repository interface {
	// StartWalk inserta el paseo solo si la mascota no tiene otro en
	// curso. El chequeo y el insert son atómicos en el repositorio
	// (mutex en memoria, índice único parcial en Postgres); falla con
	// ErrWalkInProgress si pierde.
	StartWalk(ctx context.Context, w Walk) error

	GetByID(ctx context.Context, id string) (Walk, error)
	Update(ctx context.Context, w Walk) error
	OngoingByPet(ctx context.Context, petID string) (Walk, error)
	// ListByPetBetween: paseos con start_time en [from, to).
	ListByPetBetween(ctx context.Context, petID string, from, to time.Time) ([]Walk, error)

	// RankingTotals agrega los paseos de los usuarios dados con
	// start_time en [from, to), orden distancia desc, duración desc,
	// cantidad desc. petID vacío = todas las mascotas.
	RankingTotals(ctx context.Context, userIDs []string, from, to time.Time, petID string) ([]RankingRow, error)
	// PetsWalkedBy: ids únicos (orden estable) de las mascotas que el
	// usuario paseó en la ventana.
	PetsWalkedBy(ctx context.Context, userID string, from, to time.Time, petID string) ([]string, error)

	AddPoint(ctx context.Context, p TrackingPoint) error
	PointsByWalk(ctx context.Context, walkID string) ([]TrackingPoint, error)

	// UpsertStat suma el delta sobre la fila (pet, date) y recalcula
	// avg_speed_kmh; crea la fila si no existe.
	UpsertStat(ctx context.Context, petID, date string, delta StatDelta) (ActivityStat, error)
	// StatsBetween: filas con date en [fromDate, toDate], orden asc.
	StatsBetween(ctx context.Context, petID, fromDate, toDate string) ([]ActivityStat, error)
}
