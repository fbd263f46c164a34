package router

import (
	"database/sql"
	"net/http"
	"time"

	mem "take-a-paw/internal/adapters/storage/memory"
	pg "take-a-paw/internal/adapters/storage/postgres"
	"take-a-paw/internal/domain/families"
	"take-a-paw/internal/domain/notifications"
	"take-a-paw/internal/domain/pets"
	"take-a-paw/internal/domain/photos"
	"take-a-paw/internal/domain/recommendations"
	"take-a-paw/internal/domain/sharerequests"
	"take-a-paw/internal/domain/users"
	"take-a-paw/internal/domain/walks"
	"take-a-paw/internal/middleware"
	"take-a-paw/internal/platform/logger"
	"take-a-paw/internal/platform/metrics"
	"take-a-paw/internal/ports/auth"
	"take-a-paw/internal/ports/llm"
	"take-a-paw/internal/ports/push"
	"take-a-paw/internal/ports/storage"
	"take-a-paw/internal/ports/weather"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev con X-Debug-User-ID)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Integraciones externas. Cualquiera puede ser nil: el módulo que la
	// usa degrada (sin push, sin fotos, plan por defecto, clima 503).
	Push     push.Sender
	Uploader storage.Uploader
	Weather  weather.Provider
	Cache    walks.WeatherCache
	LLM      llm.Generator
	LLMModel string

	// Zona horaria de la fecha civil de los stats diarios. Nil => UTC.
	StatLocation *time.Location

	Log *logrus.Entry
}

// repos agrupa los repositorios de todos los módulos para poder elegir
// backend (memoria o Postgres) en un solo lugar.
type repos struct {
	users           users.Repository
	families        families.Repository
	cascade         families.Cascade
	pets            pets.Repository
	walks           walks.Repository
	shareRequests   sharerequests.Repository
	notifications   notifications.Repository
	recommendations recommendations.Repository
	photos          photos.Repository
}

func buildRepos(db *sql.DB) repos {
	if db != nil {
		return repos{
			users:           pg.NewUsersRepo(db),
			families:        pg.NewFamiliesRepo(db),
			cascade:         pg.NewCascade(db),
			pets:            pg.NewPetsRepo(db),
			walks:           pg.NewWalksRepo(db),
			shareRequests:   pg.NewShareRequestsRepo(db),
			notifications:   pg.NewNotificationsRepo(db),
			recommendations: pg.NewRecommendationsRepo(db),
			photos:          pg.NewPhotosRepo(db),
		}
	}

	store := mem.NewStore()
	return repos{
		users:           store.Users(),
		families:        store.Families(),
		cascade:         store.Cascade(),
		pets:            store.Pets(),
		walks:           store.Walks(),
		shareRequests:   store.ShareRequests(),
		notifications:   store.Notifications(),
		recommendations: store.Recommendations(),
		photos:          store.Photos(),
	}
}

func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logger.New("take-a-paw")
	}
	statLoc := opts.StatLocation
	if statLoc == nil {
		statLoc = time.UTC
	}

	rp := buildRepos(opts.DB)

	// Services por módulo. El orden importa: primero los que no dependen
	// de nadie, después el cableado cruzado vía setters (evita ciclos de
	// import y de construcción).
	usersSvc := users.NewService(rp.users, log)
	petsSvc := pets.NewService(rp.pets, log)
	famSvc := families.NewService(rp.families, rp.cascade, log)

	usersSvc.SetFamilyRemover(famSvc)
	petsSvc.SetFamilies(famSvc)
	famSvc.SetPetResolver(petsSvc)

	walksSvc := walks.NewService(rp.walks, famSvc, petsSvc, usersSvc, statLoc, log)
	shareSvc := sharerequests.NewService(rp.shareRequests, petsSvc, famSvc, log)

	notifSvc := notifications.NewService(rp.notifications, famSvc, usersSvc, opts.Push, log)
	walksSvc.SetNotifier(notifSvc)
	shareSvc.SetNotifier(notifSvc)
	famSvc.OnOwnerChanged(notifSvc.RoleChanged)

	recoSvc := recommendations.NewService(rp.recommendations, petsSvc, famSvc, opts.LLM, opts.LLMModel, log)
	petsSvc.SetRecommender(recoSvc)

	photosSvc := photos.NewService(rp.photos, walksSvc, famSvc, opts.Uploader, log)
	weatherSvc := walks.NewWeatherService(opts.Weather, opts.Cache, log)
	weatherAdvisor := notifications.NewWeatherAdvisor(notifSvc, famSvc, petsSvc, walksSvc, recoSvc, opts.Weather, opts.LLM, opts.LLMModel, log)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Rutas por módulo
	users.RegisterRoutes(r, usersSvc)
	families.RegisterRoutes(r, famSvc, usersSvc)
	pets.RegisterRoutes(r, petsSvc, usersSvc)
	sharerequests.RegisterRoutes(r, shareSvc, usersSvc)
	walks.RegisterRoutes(r, walksSvc, weatherSvc, usersSvc)
	notifications.RegisterRoutes(r, notifSvc, weatherAdvisor, usersSvc)
	recommendations.RegisterRoutes(r, recoSvc, usersSvc)
	photos.RegisterRoutes(r, photosSvc, usersSvc)

	return r
}
