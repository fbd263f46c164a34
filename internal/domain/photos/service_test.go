package photos

import (
	"context"
	"testing"

	"take-a-paw/internal/domain/families"
	"take-a-paw/internal/domain/walks"
	"take-a-paw/internal/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type photoRepo struct {
	rows []Photo
}

func (r *photoRepo) Create(ctx context.Context, p Photo) error {
	r.rows = append(r.rows, p)
	return nil
}

func (r *photoRepo) ListByPet(ctx context.Context, petID string) ([]Photo, error) {
	out := make([]Photo, 0)
	for _, p := range r.rows {
		if p.PetID == petID {
			out = append(out, p)
		}
	}
	return out, nil
}

type walksStub struct{}

func (walksStub) Get(ctx context.Context, userID, walkID string) (walks.Walk, error) {
	if userID != "member-1" {
		return walks.Walk{}, walks.ErrForbidden
	}
	if walkID != "walk-1" {
		return walks.Walk{}, walks.ErrNotFound
	}
	return walks.Walk{ID: "walk-1", PetID: "pet-1"}, nil
}

type famStub struct{}

func (famStub) Authorize(ctx context.Context, userID, petID string, required families.Role) error {
	if userID == "member-1" {
		return nil
	}
	return families.ErrForbidden
}

type uploaderStub struct {
	paths []string
	types []string
}

func (u *uploaderStub) Upload(ctx context.Context, path, contentType string, data []byte) (string, error) {
	u.paths = append(u.paths, path)
	u.types = append(u.types, contentType)
	return "https://cdn.example.com/" + path, nil
}

func TestUpload_PersistsRowWithPublicURL(t *testing.T) {
	repo := &photoRepo{}
	up := &uploaderStub{}
	svc := NewService(repo, walksStub{}, famStub{}, up, logger.New("test"))

	p, err := svc.Upload(context.Background(), "member-1", "walk-1", "image/jpeg", []byte{0xff, 0xd8})
	require.NoError(t, err)

	assert.Equal(t, "pet-1", p.PetID)
	assert.Equal(t, "member-1", p.UploadedBy)
	assert.Contains(t, p.URL, "walks/walk-1/")
	require.Len(t, repo.rows, 1)
	require.Len(t, up.paths, 1)
	assert.Contains(t, up.paths[0], ".jpg")
}

func TestUpload_UnknownContentTypeRejected(t *testing.T) {
	svc := NewService(&photoRepo{}, walksStub{}, famStub{}, &uploaderStub{}, logger.New("test"))

	_, err := svc.Upload(context.Background(), "member-1", "walk-1", "application/pdf", []byte{1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpload_StrangerForbidden(t *testing.T) {
	svc := NewService(&photoRepo{}, walksStub{}, famStub{}, &uploaderStub{}, logger.New("test"))

	_, err := svc.Upload(context.Background(), "stranger", "walk-1", "image/jpeg", []byte{1})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpload_NoUploaderUnavailable(t *testing.T) {
	svc := NewService(&photoRepo{}, walksStub{}, famStub{}, nil, logger.New("test"))

	_, err := svc.Upload(context.Background(), "member-1", "walk-1", "image/jpeg", []byte{1})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestListByPet_RequiresMembership(t *testing.T) {
	repo := &photoRepo{rows: []Photo{{ID: "p1", PetID: "pet-1"}}}
	svc := NewService(repo, walksStub{}, famStub{}, nil, logger.New("test"))

	items, err := svc.ListByPet(context.Background(), "member-1", "pet-1")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = svc.ListByPet(context.Background(), "stranger", "pet-1")
	assert.ErrorIs(t, err, ErrForbidden)
}
