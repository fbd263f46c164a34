package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"take-a-paw/internal/platform/logger"
	"take-a-paw/internal/ports/auth"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID    map[string]User
	byUID   map[string]string
	tokens  map[string]DeviceToken // key: user|token
	deleted []string

	failCreateWithDuplicate bool
	missFirstLookup         bool
}

func newTestRepo() *testRepo {
	return &testRepo{
		byID:   map[string]User{},
		byUID:  map[string]string{},
		tokens: map[string]DeviceToken{},
	}
}

func (r *testRepo) Create(ctx context.Context, u User) error {
	if r.failCreateWithDuplicate {
		return ErrDuplicate
	}
	if _, ok := r.byUID[u.FirebaseUID]; ok {
		return ErrDuplicate
	}
	r.byID[u.ID] = u
	r.byUID[u.FirebaseUID] = u.ID
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (User, error) {
	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *testRepo) GetByFirebaseUID(ctx context.Context, uid string) (User, error) {
	if r.missFirstLookup {
		// Simula la ventana de carrera: el primer lookup no ve la fila.
		r.missFirstLookup = false
		return User{}, ErrNotFound
	}
	id, ok := r.byUID[uid]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *testRepo) Update(ctx context.Context, u User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return ErrNotFound
	}
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byUID, u.FirebaseUID)
	delete(r.byID, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *testRepo) UpsertDeviceToken(ctx context.Context, t DeviceToken) error {
	r.tokens[t.UserID+"|"+t.Token] = t
	return nil
}

func (r *testRepo) ActiveTokens(ctx context.Context, userIDs []string) ([]string, error) {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, id := range userIDs {
		if u, ok := r.byID[id]; ok && u.FCMToken != "" {
			if _, dup := seen[u.FCMToken]; !dup {
				seen[u.FCMToken] = struct{}{}
				out = append(out, u.FCMToken)
			}
		}
		for _, t := range r.tokens {
			if t.UserID != id || !t.IsActive {
				continue
			}
			if _, dup := seen[t.Token]; !dup {
				seen[t.Token] = struct{}{}
				out = append(out, t.Token)
			}
		}
	}
	return out, nil
}

func (r *testRepo) RemoveTokens(ctx context.Context, tokens []string) (int, error) {
	n := 0
	for _, tok := range tokens {
		for k, t := range r.tokens {
			if t.Token == tok {
				delete(r.tokens, k)
				n++
			}
		}
		for id, u := range r.byID {
			if u.FCMToken == tok {
				u.FCMToken = ""
				r.byID[id] = u
				n++
			}
		}
	}
	return n, nil
}

func (r *testRepo) DeleteTokensByUser(ctx context.Context, userID string) error {
	for k, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}

// -------------------------
// Tests
// -------------------------

func TestResolveOrCreate_ProvisionsWithFallbackNickname(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, logger.New("test"))

	now := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	u, created, err := svc.ResolveOrCreate(context.Background(), auth.Claims{
		UID:      "abcdef123456",
		Provider: "oidc.kakao",
	})
	if err != nil {
		t.Fatalf("ResolveOrCreate error: %v", err)
	}
	if !created {
		t.Fatalf("expected created=true on first resolve")
	}
	if u.Nickname != "user_abcdef" {
		t.Fatalf("expected fallback nickname user_abcdef, got %q", u.Nickname)
	}
	if u.SNS != ProviderKakao {
		t.Fatalf("expected kakao provider, got %s", u.SNS)
	}
}

func TestResolveOrCreate_IsIdempotent(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, logger.New("test"))

	claims := auth.Claims{UID: "uid-1", Name: "Dana", Provider: "google.com"}

	u1, created, err := svc.ResolveOrCreate(context.Background(), claims)
	if err != nil || !created {
		t.Fatalf("first resolve: created=%v err=%v", created, err)
	}

	u2, created, err := svc.ResolveOrCreate(context.Background(), claims)
	if err != nil {
		t.Fatalf("second resolve error: %v", err)
	}
	if created {
		t.Fatalf("expected created=false on second resolve")
	}
	if u2.ID != u1.ID {
		t.Fatalf("expected same user, got %s vs %s", u1.ID, u2.ID)
	}
}

func TestResolveOrCreate_DuplicateRace_ReturnsWinner(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, logger.New("test"))

	// Otro request insertó entre el lookup y el insert: el primer lookup
	// no ve la fila, el Create pierde por duplicado y la relectura la trae.
	winner := User{ID: "winner", FirebaseUID: "uid-race", Nickname: "first"}
	repo.byID[winner.ID] = winner
	repo.byUID["uid-race"] = winner.ID
	repo.failCreateWithDuplicate = true
	repo.missFirstLookup = true

	u, created, err := svc.ResolveOrCreate(context.Background(), auth.Claims{UID: "uid-race"})
	if err != nil {
		t.Fatalf("ResolveOrCreate error: %v", err)
	}
	if created {
		t.Fatalf("expected created=false when losing the race")
	}
	if u.ID != "winner" {
		t.Fatalf("expected winner row, got %s", u.ID)
	}
}

func TestUpdateProfile_RejectsBadPhone(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, logger.New("test"))

	u, _, err := svc.ResolveOrCreate(context.Background(), auth.Claims{UID: "uid-1"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	bad := "010-123-4567"
	_, err = svc.UpdateProfile(context.Background(), u.ID, UpdateProfileInput{Phone: &bad})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad phone, got %v", err)
	}

	good := "010-1234-5678"
	updated, err := svc.UpdateProfile(context.Background(), u.ID, UpdateProfileInput{Phone: &good})
	if err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	if updated.Phone != good {
		t.Fatalf("expected phone saved, got %q", updated.Phone)
	}
}

func TestUpdateProfile_EmptyPatch(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, logger.New("test"))

	u, _, _ := svc.ResolveOrCreate(context.Background(), auth.Claims{UID: "uid-1"})

	_, err := svc.UpdateProfile(context.Background(), u.ID, UpdateProfileInput{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty patch, got %v", err)
	}
}

func TestSaveDeviceToken_UpdatesLegacyColumnToo(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, logger.New("test"))

	u, _, _ := svc.ResolveOrCreate(context.Background(), auth.Claims{UID: "uid-1"})

	err := svc.SaveDeviceToken(context.Background(), u.ID, DeviceTokenInput{
		Token:    "tok-1",
		DeviceID: "dev-1",
		Platform: "android",
	})
	if err != nil {
		t.Fatalf("SaveDeviceToken error: %v", err)
	}

	got, _ := repo.GetByID(context.Background(), u.ID)
	if got.FCMToken != "tok-1" {
		t.Fatalf("expected legacy column updated, got %q", got.FCMToken)
	}

	toks, _ := svc.ActiveTokens(context.Background(), []string{u.ID})
	if len(toks) != 1 || toks[0] != "tok-1" {
		t.Fatalf("expected deduplicated single token, got %#v", toks)
	}
}

type familyRemoverStub struct {
	called []string
	err    error
}

func (f *familyRemoverStub) RemoveUser(ctx context.Context, userID string) error {
	f.called = append(f.called, userID)
	return f.err
}

func TestDeleteAccount_RunsFamilyRemovalFirst(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, logger.New("test"))

	fr := &familyRemoverStub{}
	svc.SetFamilyRemover(fr)

	u, _, _ := svc.ResolveOrCreate(context.Background(), auth.Claims{UID: "uid-1"})
	_ = svc.SaveDeviceToken(context.Background(), u.ID, DeviceTokenInput{Token: "tok-1"})

	if err := svc.DeleteAccount(context.Background(), u.ID); err != nil {
		t.Fatalf("DeleteAccount error: %v", err)
	}

	if len(fr.called) != 1 || fr.called[0] != u.ID {
		t.Fatalf("expected family removal for %s, got %#v", u.ID, fr.called)
	}
	if _, err := repo.GetByID(context.Background(), u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected user deleted, got %v", err)
	}
	if len(repo.tokens) != 0 {
		t.Fatalf("expected device tokens deleted, got %d", len(repo.tokens))
	}
}

func TestDeleteAccount_AbortsWhenFamilyRemovalFails(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, logger.New("test"))

	fr := &familyRemoverStub{err: errors.New("boom")}
	svc.SetFamilyRemover(fr)

	u, _, _ := svc.ResolveOrCreate(context.Background(), auth.Claims{UID: "uid-1"})

	if err := svc.DeleteAccount(context.Background(), u.ID); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := repo.GetByID(context.Background(), u.ID); err != nil {
		t.Fatalf("expected user kept when removal fails, got %v", err)
	}
}
