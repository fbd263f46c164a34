package main

import (
	"net/http"
	"time"

	fbauth "take-a-paw/internal/adapters/auth/firebase"
	"take-a-paw/internal/adapters/llm/openai"
	"take-a-paw/internal/adapters/push/fcm"
	fbstorage "take-a-paw/internal/adapters/storage/firebase"
	pg "take-a-paw/internal/adapters/storage/postgres"
	"take-a-paw/internal/adapters/weather/openweather"
	"take-a-paw/internal/adapters/weather/rediscache"
	"take-a-paw/internal/config"
	"take-a-paw/internal/platform/logger"
	"take-a-paw/internal/router"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	log := logger.New("take-a-paw")

	opts := router.Options{Log: log}

	// Postgres. Sin DSN => repos in-memory (dev).
	if cfg.DBDSN != "" {
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			log.WithError(err).Fatal("no se pudo conectar a postgres")
		}
		defer db.Close()
		opts.DB = db
	}

	// Integraciones externas: solo se inyectan si están configuradas,
	// así el router ve nil y degrada en vez de llamar a un adapter vacío.
	if client := fbauth.NewClient(fbauth.Config{APIKey: cfg.FirebaseAPIKey}); client.IsConfigured() {
		opts.AuthVerifier = fbauth.NewVerifier(client)
	} else {
		log.Warn("firebase sin configurar: auth en modo dev (X-Debug-User-ID)")
	}

	if sender := fcm.NewSender(fcm.Config{ServerKey: cfg.FCMServerKey}); sender.IsConfigured() {
		opts.Push = sender
	}
	if up := fbstorage.NewUploader(fbstorage.Config{Bucket: cfg.FirebaseStorageBucket}); up.IsConfigured() {
		opts.Uploader = up
	}
	if prov := openweather.NewProvider(openweather.Config{APIKey: cfg.OpenWeatherAPIKey}); prov.IsConfigured() {
		opts.Weather = prov
	}
	if gen := openai.NewGenerator(openai.Config{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel}); gen.IsConfigured() {
		opts.LLM = gen
		opts.LLMModel = cfg.OpenAIModel
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		opts.Cache = rediscache.New(rdb, cfg.WeatherCacheTTL, log)
	}

	loc, err := time.LoadLocation(cfg.StatTimezone)
	if err != nil {
		log.WithField("tz", cfg.StatTimezone).Warn("zona horaria inválida, usando UTC")
		loc = time.UTC
	}
	opts.StatLocation = loc

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.NewRouter(opts),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	log.WithField("addr", srv.Addr).Info("starting server")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server error")
	}
}
