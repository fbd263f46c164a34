// Package memory es el storage por defecto para desarrollo y tests:
// todas las tablas en mapas bajo un RWMutex compartido, así el cascade
// de familias y los registros multi-tabla son atómicos igual que en
// Postgres.
package memory

import (
	"sync"
	"time"

	"take-a-paw/internal/domain/families"
	"take-a-paw/internal/domain/notifications"
	"take-a-paw/internal/domain/pets"
	"take-a-paw/internal/domain/photos"
	"take-a-paw/internal/domain/recommendations"
	"take-a-paw/internal/domain/sharerequests"
	"take-a-paw/internal/domain/users"
	"take-a-paw/internal/domain/walks"
)

type Store struct {
	mu sync.RWMutex

	users    map[string]users.User        // por id
	uidIndex map[string]string            // firebase_uid -> id
	tokens   map[string]users.DeviceToken // por "userID|token"

	families map[string]families.Family
	members  map[string]map[string]families.Member // familyID -> userID -> fila

	pets        map[string]pets.Pet
	searchIndex map[string]string // search_id -> pet id

	walks  map[string]walks.Walk
	points map[string][]walks.TrackingPoint // por walk id
	stats  map[string]walks.ActivityStat    // por "petID|date"

	requests map[string]sharerequests.ShareRequest

	notifs map[string]notifications.Notification
	reads  map[string]time.Time // por "notifID|userID"

	recs map[string]recommendations.Recommendation // por pet id

	photos map[string]photos.Photo
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]users.User),
		uidIndex:    make(map[string]string),
		tokens:      make(map[string]users.DeviceToken),
		families:    make(map[string]families.Family),
		members:     make(map[string]map[string]families.Member),
		pets:        make(map[string]pets.Pet),
		searchIndex: make(map[string]string),
		walks:       make(map[string]walks.Walk),
		points:      make(map[string][]walks.TrackingPoint),
		stats:       make(map[string]walks.ActivityStat),
		requests:    make(map[string]sharerequests.ShareRequest),
		notifs:      make(map[string]notifications.Notification),
		reads:       make(map[string]time.Time),
		recs:        make(map[string]recommendations.Recommendation),
		photos:      make(map[string]photos.Photo),
	}
}

func (s *Store) Users() users.Repository                     { return &userRepo{s} }
func (s *Store) Families() families.Repository               { return &familyRepo{s} }
func (s *Store) Cascade() families.Cascade                   { return &cascade{s} }
func (s *Store) Pets() pets.Repository                       { return &petRepo{s} }
func (s *Store) Walks() walks.Repository                     { return &walkRepo{s} }
func (s *Store) ShareRequests() sharerequests.Repository     { return &shareRequestRepo{s} }
func (s *Store) Notifications() notifications.Repository     { return &notificationRepo{s} }
func (s *Store) Recommendations() recommendations.Repository { return &recommendationRepo{s} }
func (s *Store) Photos() photos.Repository                   { return &photoRepo{s} }
