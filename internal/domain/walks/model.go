package walks

import (
	"encoding/json"
	"time"
)

// Walk es una sesión de paseo. end_time == nil significa en curso;
// una vez seteado, la sesión es terminal.
type Walk struct {
	ID     string
	PetID  string
	UserID string // quien inició el paseo

	StartTime time.Time // inmutable
	EndTime   *time.Time

	DurationMin int
	DistanceKm  float64
	Calories    float64

	WeatherStatus string
	WeatherTempC  *float64

	RouteData json.RawMessage

	CreatedAt time.Time
}

// InProgress indica si la sesión sigue abierta.
func (w Walk) InProgress() bool {
	return w.EndTime == nil
}

// TrackingPoint es una muestra de GPS dentro de un paseo.
type TrackingPoint struct {
	ID        string
	WalkID    string
	Latitude  float64
	Longitude float64
	Timestamp time.Time
}

// ActivityStat es el rollup diario por mascota. La fecha es la fecha
// civil en la zona horaria de stats (no UTC).
type ActivityStat struct {
	PetID string
	Date  string // YYYY-MM-DD

	TotalWalks       int
	TotalDistanceKm  float64
	TotalDurationMin int
	AvgSpeedKmh      float64
	CaloriesBurned   float64
}
