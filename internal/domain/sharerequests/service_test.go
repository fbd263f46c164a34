package sharerequests

import (
	"context"
	"errors"
	"testing"

	"take-a-paw/internal/domain/families"
	"take-a-paw/internal/domain/pets"
	"take-a-paw/internal/platform/logger"
)

// -------------------------
// Test repo + stubs
// -------------------------

type testRepo struct {
	byID map[string]ShareRequest
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]ShareRequest{}}
}

func (r *testRepo) Create(ctx context.Context, req ShareRequest) error {
	r.byID[req.ID] = req
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (ShareRequest, error) {
	req, ok := r.byID[id]
	if !ok {
		return ShareRequest{}, ErrNotFound
	}
	return req, nil
}

func (r *testRepo) HasPending(ctx context.Context, petID, requesterID string) (bool, error) {
	for _, req := range r.byID {
		if req.PetID == petID && req.RequesterID == requesterID && req.Status == StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *testRepo) Update(ctx context.Context, req ShareRequest) error {
	if _, ok := r.byID[req.ID]; !ok {
		return ErrNotFound
	}
	r.byID[req.ID] = req
	return nil
}

func (r *testRepo) ListByRequester(ctx context.Context, requesterID string, status *Status, page, size int) ([]ShareRequest, int, error) {
	out := make([]ShareRequest, 0)
	for _, req := range r.byID {
		if req.RequesterID != requesterID {
			continue
		}
		if status != nil && req.Status != *status {
			continue
		}
		out = append(out, req)
	}
	return out, len(out), nil
}

type petsStub struct {
	bySearchID map[string]pets.Pet
	byID       map[string]pets.Pet
}

func (p *petsStub) GetBySearchID(ctx context.Context, searchID string) (pets.Pet, error) {
	pet, ok := p.bySearchID[searchID]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return pet, nil
}

func (p *petsStub) Get(ctx context.Context, petID string) (pets.Pet, error) {
	pet, ok := p.byID[petID]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return pet, nil
}

type familiesStub struct {
	members map[string]map[string]families.Role // familyID -> userID -> rol
	owner   map[string]string                   // petID -> owner userID
	added   []string
	addErr  error
}

func (f *familiesStub) IsMember(ctx context.Context, familyID, userID string) (bool, error) {
	_, ok := f.members[familyID][userID]
	return ok, nil
}

func (f *familiesStub) AddMember(ctx context.Context, familyID, userID string, role families.Role) error {
	if f.addErr != nil {
		return f.addErr
	}
	if _, ok := f.members[familyID][userID]; ok {
		return families.ErrDuplicate
	}
	if f.members[familyID] == nil {
		f.members[familyID] = map[string]families.Role{}
	}
	f.members[familyID][userID] = role
	f.added = append(f.added, userID)
	return nil
}

func (f *familiesStub) Authorize(ctx context.Context, userID, petID string, required families.Role) error {
	if required == families.RoleOwner && f.owner[petID] != userID {
		return families.ErrForbidden
	}
	return nil
}

type notifierStub struct {
	requested []string // request ids
	resolved  []bool   // approved flags
}

func (n *notifierStub) ShareRequested(ctx context.Context, familyID, petID, petName, requesterID, requesterName, requestID string) {
	n.requested = append(n.requested, requestID)
}

func (n *notifierStub) ShareResolved(ctx context.Context, familyID, petID, petName, requesterID string, approved bool) {
	n.resolved = append(n.resolved, approved)
}

func newFixture() (*Service, *testRepo, *familiesStub, *notifierStub) {
	repo := newTestRepo()
	pet := pets.Pet{ID: "pet-1", FamilyID: "fam-1", OwnerID: "owner", SearchID: "AbCd1234", Name: "Bori"}
	ps := &petsStub{
		bySearchID: map[string]pets.Pet{"AbCd1234": pet},
		byID:       map[string]pets.Pet{"pet-1": pet},
	}
	fs := &familiesStub{
		members: map[string]map[string]families.Role{
			"fam-1": {"owner": families.RoleOwner},
		},
		owner: map[string]string{"pet-1": "owner"},
	}
	svc := NewService(repo, ps, fs, logger.New("test"))
	n := &notifierStub{}
	svc.SetNotifier(n)
	return svc, repo, fs, n
}

// -------------------------
// Tests
// -------------------------

func TestCreate_UnknownSearchID(t *testing.T) {
	svc, _, _, _ := newFixture()

	_, err := svc.Create(context.Background(), "req-user", "Dana", "ZZZZZZZZ")
	if !errors.Is(err, ErrPetNotFound) {
		t.Fatalf("expected ErrPetNotFound, got %v", err)
	}
}

func TestCreate_MemberCannotRequest(t *testing.T) {
	svc, _, _, _ := newFixture()

	_, err := svc.Create(context.Background(), "owner", "Owner", "AbCd1234")
	if !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}
}

func TestCreate_DuplicatePendingRejected(t *testing.T) {
	svc, _, _, n := newFixture()

	req1, err := svc.Create(context.Background(), "req-user", "Dana", "AbCd1234")
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if len(n.requested) != 1 || n.requested[0] != req1.ID {
		t.Fatalf("expected notification for first request")
	}

	_, err = svc.Create(context.Background(), "req-user", "Dana", "AbCd1234")
	if !errors.Is(err, ErrPendingExists) {
		t.Fatalf("expected ErrPendingExists, got %v", err)
	}
}

func TestResolve_OwnerOnly(t *testing.T) {
	svc, _, _, _ := newFixture()

	req, _ := svc.Create(context.Background(), "req-user", "Dana", "AbCd1234")

	_, err := svc.Resolve(context.Background(), "req-user", req.ID, true)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}
}

func TestResolve_ApproveAddsMember_AndIsTerminal(t *testing.T) {
	svc, repo, fs, n := newFixture()

	req, _ := svc.Create(context.Background(), "req-user", "Dana", "AbCd1234")

	resolved, err := svc.Resolve(context.Background(), "owner", req.ID, true)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if resolved.Status != StatusApproved {
		t.Fatalf("expected APPROVED, got %s", resolved.Status)
	}
	if resolved.RespondedAt == nil {
		t.Fatalf("expected responded_at set")
	}
	if len(fs.added) != 1 || fs.added[0] != "req-user" {
		t.Fatalf("expected requester added as member, got %#v", fs.added)
	}
	if len(n.resolved) != 1 || !n.resolved[0] {
		t.Fatalf("expected approved notification")
	}

	// Terminal: segunda resolución (cualquier sentido) da conflicto.
	_, err = svc.Resolve(context.Background(), "owner", req.ID, false)
	if !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
	if got := repo.byID[req.ID].Status; got != StatusApproved {
		t.Fatalf("status must stay APPROVED, got %s", got)
	}
}

func TestResolve_AddMemberFailureKeepsRequestPending(t *testing.T) {
	svc, repo, fs, n := newFixture()

	req, _ := svc.Create(context.Background(), "req-user", "Dana", "AbCd1234")

	fs.addErr = errors.New("storage unavailable")
	_, err := svc.Resolve(context.Background(), "owner", req.ID, true)
	if err == nil {
		t.Fatalf("expected error when AddMember fails")
	}
	// El pedido no quedó aprobado sin membresía: sigue PENDING y se
	// puede reintentar cuando el alta vuelva a funcionar.
	if got := repo.byID[req.ID].Status; got != StatusPending {
		t.Fatalf("expected request to stay PENDING, got %s", got)
	}
	if len(n.resolved) != 0 {
		t.Fatalf("expected no resolution notification on failure")
	}

	fs.addErr = nil
	resolved, err := svc.Resolve(context.Background(), "owner", req.ID, true)
	if err != nil {
		t.Fatalf("retry Resolve error: %v", err)
	}
	if resolved.Status != StatusApproved || len(fs.added) != 1 {
		t.Fatalf("expected retry to approve and add member, got %s %#v", resolved.Status, fs.added)
	}
}

func TestResolve_Reject_DoesNotAddMember(t *testing.T) {
	svc, _, fs, _ := newFixture()

	req, _ := svc.Create(context.Background(), "req-user", "Dana", "AbCd1234")

	resolved, err := svc.Resolve(context.Background(), "owner", req.ID, false)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if resolved.Status != StatusRejected {
		t.Fatalf("expected REJECTED, got %s", resolved.Status)
	}
	if len(fs.added) != 0 {
		t.Fatalf("expected no member added on reject")
	}
}

func TestListMine_InvalidStatus(t *testing.T) {
	svc, _, _, _ := newFixture()

	bad := Status("WAITING")
	_, _, err := svc.ListMine(context.Background(), "req-user", &bad, 1, 20)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
