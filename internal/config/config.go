package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config agrupa toda la configuración externa del servicio.
// Se carga una sola vez en main y se inyecta; nada de singletons por paquete.
type Config struct {
	Port string

	// Postgres. Vacío => repos in-memory (dev).
	DBDSN string

	// Redis para cache de clima. Vacío => sin cache.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Firebase (verificación de tokens + storage de fotos).
	FirebaseAPIKey        string
	FirebaseStorageBucket string

	// FCM push.
	FCMServerKey string

	// OpenWeatherMap.
	OpenWeatherAPIKey string

	// OpenAI (recomendaciones de paseo).
	OpenAIAPIKey string
	OpenAIModel  string

	// Zona horaria para la fecha civil de los stats diarios.
	StatTimezone string

	WeatherCacheTTL time.Duration
}

// Load lee .env (best effort) y luego variables de entorno.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:                  getenv("PORT", "8080"),
		DBDSN:                 os.Getenv("DB_DSN"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               getenvInt("REDIS_DB", 0),
		FirebaseAPIKey:        os.Getenv("FIREBASE_API_KEY"),
		FirebaseStorageBucket: os.Getenv("FIREBASE_STORAGE_BUCKET"),
		FCMServerKey:          os.Getenv("FCM_SERVER_KEY"),
		OpenWeatherAPIKey:     os.Getenv("OPENWEATHER_API_KEY"),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:           getenv("OPENAI_MODEL", "gpt-4o-mini"),
		StatTimezone:          getenv("STAT_TIMEZONE", "Asia/Seoul"),
		WeatherCacheTTL:       10 * time.Minute,
	}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
