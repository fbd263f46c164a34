package families

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"take-a-paw/internal/platform/logger"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	families map[string]Family
	members  map[string][]Member // familyID -> miembros

	removeCalls int // llamadas directas a RemoveMember
}

func newTestRepo() *testRepo {
	return &testRepo{
		families: map[string]Family{},
		members:  map[string][]Member{},
	}
}

func (r *testRepo) Get(ctx context.Context, familyID string) (Family, error) {
	f, ok := r.families[familyID]
	if !ok {
		return Family{}, ErrNotFound
	}
	return f, nil
}

func (r *testRepo) Members(ctx context.Context, familyID string) ([]Member, error) {
	ms := append([]Member(nil), r.members[familyID]...)
	sort.Slice(ms, func(i, j int) bool {
		if !ms[i].JoinedAt.Equal(ms[j].JoinedAt) {
			return ms[i].JoinedAt.Before(ms[j].JoinedAt)
		}
		return ms[i].UserID < ms[j].UserID
	})
	return ms, nil
}

func (r *testRepo) MembershipsOf(ctx context.Context, userID string) ([]Member, error) {
	out := make([]Member, 0)
	for _, ms := range r.members {
		for _, m := range ms {
			if m.UserID == userID {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func (r *testRepo) Member(ctx context.Context, familyID, userID string) (Member, error) {
	for _, m := range r.members[familyID] {
		if m.UserID == userID {
			return m, nil
		}
	}
	return Member{}, ErrForbidden
}

func (r *testRepo) AddMember(ctx context.Context, m Member) error {
	for _, existing := range r.members[m.FamilyID] {
		if existing.UserID == m.UserID {
			return ErrDuplicate
		}
	}
	r.members[m.FamilyID] = append(r.members[m.FamilyID], m)
	return nil
}

func (r *testRepo) RemoveMember(ctx context.Context, familyID, userID string) error {
	r.removeCalls++
	return r.removeMember(familyID, userID)
}

func (r *testRepo) removeMember(familyID, userID string) error {
	ms := r.members[familyID]
	for i, m := range ms {
		if m.UserID == userID {
			r.members[familyID] = append(ms[:i], ms[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *testRepo) DeleteFamily(ctx context.Context, familyID string) error {
	if _, ok := r.families[familyID]; !ok {
		return ErrNotFound
	}
	delete(r.families, familyID)
	delete(r.members, familyID)
	return nil
}

func (r *testRepo) setRole(familyID, userID string, role Role) {
	ms := r.members[familyID]
	for i := range ms {
		if ms[i].UserID == userID {
			ms[i].Role = role
		}
	}
}

// -------------------------
// Test cascade
// -------------------------

type testCascade struct {
	repo   *testRepo
	petIDs map[string][]string // familyID -> pets

	petOwners map[string]string // petID -> ownerID
	calls     []string
}

func newTestCascade(repo *testRepo) *testCascade {
	return &testCascade{
		repo:      repo,
		petIDs:    map[string][]string{},
		petOwners: map[string]string{},
	}
}

func (c *testCascade) PetIDs(ctx context.Context, familyID string) ([]string, error) {
	c.calls = append(c.calls, "pet_ids")
	return c.petIDs[familyID], nil
}

func (c *testCascade) TransferOwnership(ctx context.Context, familyID, leavingUserID, newOwnerID string) error {
	c.calls = append(c.calls, "transfer")
	// Baja + promoción + owner_id de mascotas, como la transacción real.
	_ = c.repo.removeMember(familyID, leavingUserID)
	c.repo.setRole(familyID, newOwnerID, RoleOwner)
	for _, petID := range c.petIDs[familyID] {
		c.petOwners[petID] = newOwnerID
	}
	return nil
}

func (c *testCascade) DeleteTrackingPoints(ctx context.Context, petIDs []string) error {
	c.calls = append(c.calls, "tracking_points")
	return nil
}

func (c *testCascade) DeletePhotos(ctx context.Context, petIDs []string) error {
	c.calls = append(c.calls, "photos")
	return nil
}

func (c *testCascade) DeleteWalks(ctx context.Context, petIDs []string) error {
	c.calls = append(c.calls, "walks")
	return nil
}

func (c *testCascade) DeleteActivityStats(ctx context.Context, petIDs []string) error {
	c.calls = append(c.calls, "activity_stats")
	return nil
}

func (c *testCascade) DeleteRecommendations(ctx context.Context, petIDs []string) error {
	c.calls = append(c.calls, "recommendations")
	return nil
}

func (c *testCascade) DeleteShareRequests(ctx context.Context, petIDs []string) error {
	c.calls = append(c.calls, "share_requests")
	return nil
}

func (c *testCascade) DeleteNotifications(ctx context.Context, familyID string) error {
	c.calls = append(c.calls, "notifications")
	return nil
}

func (c *testCascade) DeletePets(ctx context.Context, familyID string) error {
	c.calls = append(c.calls, "pets")
	delete(c.petIDs, familyID)
	return nil
}

type petResolverStub struct {
	familyByPet map[string]string
}

func (p *petResolverStub) FamilyOf(ctx context.Context, petID string) (string, error) {
	if f, ok := p.familyByPet[petID]; ok {
		return f, nil
	}
	return "", errors.New("pet not found")
}

// -------------------------
// Tests
// -------------------------

func seedFamily(repo *testRepo, familyID string, members ...Member) {
	repo.families[familyID] = Family{ID: familyID, Name: "test family"}
	repo.members[familyID] = append(repo.members[familyID], members...)
}

func TestAuthorize_RolesAndDenials(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, newTestCascade(repo), logger.New("test"))
	svc.SetPetResolver(&petResolverStub{familyByPet: map[string]string{"pet-1": "fam-1"}})

	now := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	seedFamily(repo, "fam-1",
		Member{FamilyID: "fam-1", UserID: "owner", Role: RoleOwner, JoinedAt: now},
		Member{FamilyID: "fam-1", UserID: "member", Role: RoleMember, JoinedAt: now.Add(time.Hour)},
	)

	if err := svc.Authorize(context.Background(), "member", "pet-1", RoleMember); err != nil {
		t.Fatalf("member should pass RoleMember, got %v", err)
	}
	if err := svc.Authorize(context.Background(), "member", "pet-1", RoleOwner); !errors.Is(err, ErrForbidden) {
		t.Fatalf("member should fail RoleOwner with ErrForbidden, got %v", err)
	}
	if err := svc.Authorize(context.Background(), "stranger", "pet-1", RoleMember); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger should get ErrForbidden, got %v", err)
	}
	if err := svc.Authorize(context.Background(), "member", "pet-unknown", RoleMember); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown pet should get ErrNotFound, got %v", err)
	}
}

func TestRemoveUser_OwnerLeaves_TransfersToEarliestJoined(t *testing.T) {
	repo := newTestRepo()
	cascade := newTestCascade(repo)
	svc := NewService(repo, cascade, logger.New("test"))

	base := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	seedFamily(repo, "fam-1",
		Member{FamilyID: "fam-1", UserID: "owner", Role: RoleOwner, JoinedAt: base},
		Member{FamilyID: "fam-1", UserID: "late", Role: RoleMember, JoinedAt: base.Add(2 * time.Hour)},
		Member{FamilyID: "fam-1", UserID: "early", Role: RoleMember, JoinedAt: base.Add(1 * time.Hour)},
	)
	cascade.petIDs["fam-1"] = []string{"pet-1", "pet-2"}
	cascade.petOwners["pet-1"] = "owner"
	cascade.petOwners["pet-2"] = "owner"

	var notifiedFamily, notifiedOwner string
	svc.OnOwnerChanged(func(ctx context.Context, familyID, newOwnerID string) {
		notifiedFamily, notifiedOwner = familyID, newOwnerID
	})

	if err := svc.RemoveUser(context.Background(), "owner"); err != nil {
		t.Fatalf("RemoveUser error: %v", err)
	}

	m, err := repo.Member(context.Background(), "fam-1", "early")
	if err != nil || m.Role != RoleOwner {
		t.Fatalf("expected earliest-joined member promoted to OWNER, got %v %v", m, err)
	}
	for petID, owner := range cascade.petOwners {
		if owner != "early" {
			t.Fatalf("expected pet %s reassigned to early, got %s", petID, owner)
		}
	}
	if _, err := repo.Member(context.Background(), "fam-1", "owner"); err == nil {
		t.Fatalf("expected leaver removed from family")
	}
	// La baja del saliente viaja dentro del transfer, no como un
	// RemoveMember aparte: nunca conviven dos OWNER.
	if repo.removeCalls != 0 {
		t.Fatalf("expected no separate RemoveMember call, got %d", repo.removeCalls)
	}
	if notifiedFamily != "fam-1" || notifiedOwner != "early" {
		t.Fatalf("expected role-changed notification, got %s/%s", notifiedFamily, notifiedOwner)
	}
}

func TestRemoveUser_TieOnJoinedAt_BreaksByUserID(t *testing.T) {
	repo := newTestRepo()
	cascade := newTestCascade(repo)
	svc := NewService(repo, cascade, logger.New("test"))

	base := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	seedFamily(repo, "fam-1",
		Member{FamilyID: "fam-1", UserID: "owner", Role: RoleOwner, JoinedAt: base},
		Member{FamilyID: "fam-1", UserID: "bbb", Role: RoleMember, JoinedAt: base.Add(time.Hour)},
		Member{FamilyID: "fam-1", UserID: "aaa", Role: RoleMember, JoinedAt: base.Add(time.Hour)},
	)

	if err := svc.RemoveUser(context.Background(), "owner"); err != nil {
		t.Fatalf("RemoveUser error: %v", err)
	}

	m, err := repo.Member(context.Background(), "fam-1", "aaa")
	if err != nil || m.Role != RoleOwner {
		t.Fatalf("expected aaa promoted on tie, got %v %v", m, err)
	}
}

func TestRemoveUser_SoleMember_DeletesTreeInOrder(t *testing.T) {
	repo := newTestRepo()
	cascade := newTestCascade(repo)
	svc := NewService(repo, cascade, logger.New("test"))

	base := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	seedFamily(repo, "fam-1",
		Member{FamilyID: "fam-1", UserID: "owner", Role: RoleOwner, JoinedAt: base},
	)
	cascade.petIDs["fam-1"] = []string{"pet-1"}

	if err := svc.RemoveUser(context.Background(), "owner"); err != nil {
		t.Fatalf("RemoveUser error: %v", err)
	}

	want := []string{
		"pet_ids",
		"tracking_points",
		"photos",
		"walks",
		"activity_stats",
		"recommendations",
		"share_requests",
		"notifications",
		"pets",
	}
	if len(cascade.calls) != len(want) {
		t.Fatalf("expected %d cascade calls, got %#v", len(want), cascade.calls)
	}
	for i, step := range want {
		if cascade.calls[i] != step {
			t.Fatalf("cascade order mismatch at %d: want %s got %s (%#v)", i, step, cascade.calls[i], cascade.calls)
		}
	}

	if _, err := repo.Get(context.Background(), "fam-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected family deleted, got %v", err)
	}
	if len(repo.members["fam-1"]) != 0 {
		t.Fatalf("expected no members left")
	}
}

func TestRemoveUser_ZeroMemberFamily_IsInvariantViolation(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, newTestCascade(repo), logger.New("test"))

	// Pertenencia que apunta a una familia sin miembros (data corrupta).
	repo.families["fam-1"] = Family{ID: "fam-1"}
	repo.members["fam-ghost"] = []Member{{FamilyID: "fam-1", UserID: "owner", Role: RoleOwner}}

	err := svc.RemoveUser(context.Background(), "owner")
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected ErrInvariant, got %v", err)
	}
	if _, gerr := repo.Get(context.Background(), "fam-1"); gerr != nil {
		t.Fatalf("expected family untouched, got %v", gerr)
	}
}
