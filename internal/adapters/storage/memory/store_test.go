package memory

import (
	"context"
	"testing"
	"time"

	"take-a-paw/internal/domain/families"
	"take-a-paw/internal/domain/notifications"
	"take-a-paw/internal/domain/pets"
	"take-a-paw/internal/domain/photos"
	"take-a-paw/internal/domain/recommendations"
	"take-a-paw/internal/domain/sharerequests"
	"take-a-paw/internal/domain/walks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFamilyTree(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	now := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Pets().Register(ctx,
		families.Family{ID: "fam-1", Name: "Bori's family", CreatedAt: now},
		families.Member{FamilyID: "fam-1", UserID: "owner-1", Role: families.RoleOwner, JoinedAt: now},
		pets.Pet{ID: "pet-1", FamilyID: "fam-1", OwnerID: "owner-1", SearchID: "AbCd1234", Name: "Bori", CreatedAt: now},
	))

	require.NoError(t, s.Walks().StartWalk(ctx, walks.Walk{ID: "walk-1", PetID: "pet-1", StartTime: now}))
	require.NoError(t, s.Walks().AddPoint(ctx, walks.TrackingPoint{ID: "pt-1", WalkID: "walk-1", Timestamp: now}))
	_, err := s.Walks().UpsertStat(ctx, "pet-1", "2025-11-03", walks.StatDelta{Walks: 1, DistanceKm: 1, DurationMin: 30})
	require.NoError(t, err)

	require.NoError(t, s.Recommendations().Upsert(ctx, recommendations.Recommendation{PetID: "pet-1"}))
	require.NoError(t, s.ShareRequests().Create(ctx, sharerequests.ShareRequest{ID: "req-1", PetID: "pet-1", RequesterID: "r-1", Status: sharerequests.StatusPending, CreatedAt: now}))
	require.NoError(t, s.Notifications().Create(ctx, notifications.Notification{ID: "n-1", FamilyID: "fam-1", Type: notifications.TypeActivityStart, CreatedAt: now}))
	require.NoError(t, s.Photos().Create(ctx, photos.Photo{ID: "ph-1", WalkID: "walk-1", PetID: "pet-1", CreatedAt: now}))
}

func TestCascade_DeleteFamilySubtreeLeavesNothing(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedFamilyTree(t, s)

	c := s.Cascade()
	petIDs, err := c.PetIDs(ctx, "fam-1")
	require.NoError(t, err)
	require.Equal(t, []string{"pet-1"}, petIDs)

	require.NoError(t, c.DeleteTrackingPoints(ctx, petIDs))
	require.NoError(t, c.DeletePhotos(ctx, petIDs))
	require.NoError(t, c.DeleteWalks(ctx, petIDs))
	require.NoError(t, c.DeleteActivityStats(ctx, petIDs))
	require.NoError(t, c.DeleteRecommendations(ctx, petIDs))
	require.NoError(t, c.DeleteShareRequests(ctx, petIDs))
	require.NoError(t, c.DeleteNotifications(ctx, "fam-1"))
	require.NoError(t, c.DeletePets(ctx, "fam-1"))
	require.NoError(t, s.Families().RemoveMember(ctx, "fam-1", "owner-1"))
	require.NoError(t, s.Families().DeleteFamily(ctx, "fam-1"))

	assert.Empty(t, s.walks)
	assert.Empty(t, s.points)
	assert.Empty(t, s.stats)
	assert.Empty(t, s.recs)
	assert.Empty(t, s.requests)
	assert.Empty(t, s.notifs)
	assert.Empty(t, s.photos)
	assert.Empty(t, s.pets)
	assert.Empty(t, s.searchIndex)
	assert.Empty(t, s.families)
	assert.Empty(t, s.members)
}

func TestCascade_TransferOwnershipRewritesPets(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedFamilyTree(t, s)

	joined := time.Date(2025, 11, 4, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Families().AddMember(ctx, families.Member{
		FamilyID: "fam-1", UserID: "member-2", Role: families.RoleMember, JoinedAt: joined,
	}))

	require.NoError(t, s.Cascade().TransferOwnership(ctx, "fam-1", "owner-1", "member-2"))

	m, err := s.Families().Member(ctx, "fam-1", "member-2")
	require.NoError(t, err)
	assert.Equal(t, families.RoleOwner, m.Role)

	// El saliente se fue en la misma operación: queda un solo OWNER.
	_, err = s.Families().Member(ctx, "fam-1", "owner-1")
	assert.Error(t, err)

	p, err := s.Pets().GetByID(ctx, "pet-1")
	require.NoError(t, err)
	assert.Equal(t, "member-2", p.OwnerID)
}

func TestRegister_DuplicateSearchID(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedFamilyTree(t, s)

	err := s.Pets().Register(ctx,
		families.Family{ID: "fam-2"},
		families.Member{FamilyID: "fam-2", UserID: "other"},
		pets.Pet{ID: "pet-2", FamilyID: "fam-2", SearchID: "AbCd1234"},
	)
	assert.ErrorIs(t, err, pets.ErrSearchIDTaken)
}

func TestStartWalk_SecondOngoingRejected(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedFamilyTree(t, s)

	err := s.Walks().StartWalk(ctx, walks.Walk{ID: "walk-2", PetID: "pet-1", StartTime: time.Now()})
	assert.ErrorIs(t, err, walks.ErrWalkInProgress)
}
