package validate

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New()
	})
	return v
}

// Struct valida un struct por tags `validate:"..."`.
func Struct(s any) error {
	return instance().Struct(s)
}

// LatLng valida un par de coordenadas en rangos WGS84.
func LatLng(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
