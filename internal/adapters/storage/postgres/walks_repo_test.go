package postgres

import (
	"context"
	"testing"
	"time"

	"take-a-paw/internal/domain/walks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartWalk_UniqueViolationMapsToWalkInProgress(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO walks").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "walks_one_ongoing_per_pet"})

	repo := NewWalksRepo(db)
	err = repo.StartWalk(context.Background(), walks.Walk{
		ID:        "walk-1",
		PetID:     "pet-1",
		UserID:    "user-1",
		StartTime: time.Now().UTC(),
	})

	assert.ErrorIs(t, err, walks.ErrWalkInProgress)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartWalk_InsertSucceeds(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO walks").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewWalksRepo(db)
	err = repo.StartWalk(context.Background(), walks.Walk{ID: "walk-1", PetID: "pet-1"})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertStat_AccumulatesAndReturnsRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"pet_id", "to_char", "total_walks", "total_distance_km", "total_duration_min", "avg_speed_kmh", "calories_burned"}
	mock.ExpectQuery("INSERT INTO activity_stats").
		WithArgs("pet-1", "2025-11-03", 1, 2.5, 30, 12.4).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("pet-1", "2025-11-03", 2, 5.0, 60, 5.0, 24.8))

	repo := NewWalksRepo(db)
	st, err := repo.UpsertStat(context.Background(), "pet-1", "2025-11-03", walks.StatDelta{
		Walks:       1,
		DistanceKm:  2.5,
		DurationMin: 30,
		Calories:    12.4,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, st.TotalWalks)
	assert.InDelta(t, 5.0, st.TotalDistanceKm, 0.0001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NoRowsIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM walks WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewWalksRepo(db)
	_, err = repo.GetByID(context.Background(), "missing")

	assert.ErrorIs(t, err, walks.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
