package pets

import (
	"context"
	"errors"
	"testing"

	"take-a-paw/internal/domain/families"
	"take-a-paw/internal/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type petsTestRepo struct {
	pets     map[string]Pet
	bySearch map[string]string // searchID -> petID
	families int
	members  int
}

func newPetsRepo() *petsTestRepo {
	return &petsTestRepo{
		pets:     map[string]Pet{},
		bySearch: map[string]string{},
	}
}

func (r *petsTestRepo) Register(ctx context.Context, f families.Family, owner families.Member, p Pet) error {
	if _, taken := r.bySearch[p.SearchID]; taken {
		return ErrSearchIDTaken
	}
	r.families++
	r.members++
	r.pets[p.ID] = p
	r.bySearch[p.SearchID] = p.ID
	return nil
}

func (r *petsTestRepo) GetByID(ctx context.Context, id string) (Pet, error) {
	p, ok := r.pets[id]
	if !ok {
		return Pet{}, ErrNotFound
	}
	return p, nil
}

func (r *petsTestRepo) GetBySearchID(ctx context.Context, searchID string) (Pet, error) {
	id, ok := r.bySearch[searchID]
	if !ok {
		return Pet{}, ErrNotFound
	}
	return r.pets[id], nil
}

func (r *petsTestRepo) ListByFamilies(ctx context.Context, familyIDs []string) ([]Pet, error) {
	want := make(map[string]bool, len(familyIDs))
	for _, id := range familyIDs {
		want[id] = true
	}
	out := make([]Pet, 0)
	for _, p := range r.pets {
		if want[p.FamilyID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *petsTestRepo) Update(ctx context.Context, p Pet) error {
	if _, ok := r.pets[p.ID]; !ok {
		return ErrNotFound
	}
	r.pets[p.ID] = p
	return nil
}

// famAllowAll autoriza a un conjunto fijo de usuarios sobre cualquier mascota.
type famAllowAll struct {
	allowed map[string]bool
}

func (f *famAllowAll) Authorize(ctx context.Context, userID, petID string, required families.Role) error {
	if !f.allowed[userID] {
		return families.ErrForbidden
	}
	return nil
}

func (f *famAllowAll) FamilyIDsOf(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}

type recorderRec struct {
	seeded      []string
	regenerated []string
	seedErr     error
}

func (r *recorderRec) SeedDefaults(ctx context.Context, petID string) error {
	if r.seedErr != nil {
		return r.seedErr
	}
	r.seeded = append(r.seeded, petID)
	return nil
}

func (r *recorderRec) Regenerate(ctx context.Context, petID string) error {
	r.regenerated = append(r.regenerated, petID)
	return nil
}

func newPetsFixture() (*Service, *petsTestRepo, *recorderRec) {
	repo := newPetsRepo()
	rec := &recorderRec{}
	svc := NewService(repo, logger.New("test"))
	svc.SetFamilies(&famAllowAll{allowed: map[string]bool{"owner-1": true}})
	svc.SetRecommender(rec)
	return svc, repo, rec
}

func validRegister() RegisterInput {
	return RegisterInput{
		SearchID: "BORI0001",
		Name:     "Bori",
		Breed:    "Maltese",
		Age:      3,
		WeightKg: 8,
		Gender:   "M",
	}
}

func TestRegister_CreatesFamilyAndSeedsDefaults(t *testing.T) {
	svc, repo, rec := newPetsFixture()

	p, err := svc.Register(context.Background(), "owner-1", validRegister())
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.NotEmpty(t, p.FamilyID)
	assert.Equal(t, "owner-1", p.OwnerID)
	assert.Equal(t, "BORI0001", p.SearchID)
	assert.Equal(t, 1, repo.families)
	assert.Equal(t, 1, repo.members)
	assert.Equal(t, []string{p.ID}, rec.seeded)
}

func TestRegister_SearchIDMustBeEightAlnum(t *testing.T) {
	svc, _, _ := newPetsFixture()

	for _, bad := range []string{"", "BORI", "BORI-001", "BORI00001", "BORI 001"} {
		in := validRegister()
		in.SearchID = bad
		_, err := svc.Register(context.Background(), "owner-1", in)
		assert.ErrorIs(t, err, ErrInvalidInput, "search id %q", bad)
	}
}

func TestRegister_DuplicateSearchIDRejected(t *testing.T) {
	svc, _, _ := newPetsFixture()

	_, err := svc.Register(context.Background(), "owner-1", validRegister())
	require.NoError(t, err)

	in := validRegister()
	in.Name = "Otro"
	_, err = svc.Register(context.Background(), "owner-1", in)
	assert.ErrorIs(t, err, ErrSearchIDTaken)
}

func TestRegister_SeedFailureDoesNotFailRegister(t *testing.T) {
	svc, _, rec := newPetsFixture()
	rec.seedErr = errors.New("recommendation store down")

	_, err := svc.Register(context.Background(), "owner-1", validRegister())
	assert.NoError(t, err)
}

func TestRegister_UnknownGenderRejected(t *testing.T) {
	svc, _, _ := newPetsFixture()

	in := validRegister()
	in.Gender = "X"
	_, err := svc.Register(context.Background(), "owner-1", in)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateProfile_ProfileChangeTriggersRegen(t *testing.T) {
	svc, _, rec := newPetsFixture()

	p, err := svc.Register(context.Background(), "owner-1", validRegister())
	require.NoError(t, err)

	w := 9.5
	updated, err := svc.UpdateProfile(context.Background(), "owner-1", p.ID, UpdateInput{WeightKg: &w})
	require.NoError(t, err)

	assert.InDelta(t, 9.5, updated.WeightKg, 0.0001)
	assert.Equal(t, []string{p.ID}, rec.regenerated)
}

func TestUpdateProfile_NameOnlyDoesNotRegen(t *testing.T) {
	svc, _, rec := newPetsFixture()

	p, err := svc.Register(context.Background(), "owner-1", validRegister())
	require.NoError(t, err)

	name := "Bori II"
	_, err = svc.UpdateProfile(context.Background(), "owner-1", p.ID, UpdateInput{Name: &name})
	require.NoError(t, err)

	assert.Empty(t, rec.regenerated)
}

func TestUpdateProfile_EmptyPatchRejected(t *testing.T) {
	svc, _, _ := newPetsFixture()

	p, err := svc.Register(context.Background(), "owner-1", validRegister())
	require.NoError(t, err)

	_, err = svc.UpdateProfile(context.Background(), "owner-1", p.ID, UpdateInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateProfile_StrangerForbidden(t *testing.T) {
	svc, _, _ := newPetsFixture()

	p, err := svc.Register(context.Background(), "owner-1", validRegister())
	require.NoError(t, err)

	name := "Hacked"
	_, err = svc.UpdateProfile(context.Background(), "stranger-1", p.ID, UpdateInput{Name: &name})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateImage_EmptyURLRejected(t *testing.T) {
	svc, _, _ := newPetsFixture()

	p, err := svc.Register(context.Background(), "owner-1", validRegister())
	require.NoError(t, err)

	_, err = svc.UpdateImage(context.Background(), "owner-1", p.ID, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
