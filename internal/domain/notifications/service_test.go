package notifications

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"take-a-paw/internal/platform/logger"
	"take-a-paw/internal/ports/push"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	mu    sync.Mutex
	rows  map[string]Notification
	reads map[string]time.Time // notificationID|userID
}

func newNotifRepo() *testRepo {
	return &testRepo{rows: map[string]Notification{}, reads: map[string]time.Time{}}
}

func (r *testRepo) Create(ctx context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[n.ID] = n
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.rows[id]
	if !ok {
		return Notification{}, errors.New("not found")
	}
	return n, nil
}

func (r *testRepo) ListVisible(ctx context.Context, userID string, familyIDs []string, f ListFilter) ([]Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fams := map[string]bool{}
	for _, id := range familyIDs {
		fams[id] = true
	}

	out := make([]Notification, 0)
	for _, n := range r.rows {
		visible := false
		if n.TargetUserID != nil {
			visible = *n.TargetUserID == userID
		} else {
			visible = fams[n.FamilyID]
		}
		if !visible {
			continue
		}
		if f.Type != "" && n.Type != f.Type {
			continue
		}
		if f.PetID != "" && n.RelatedPetID != f.PetID {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	start := (f.Page - 1) * f.Size
	if start >= len(out) {
		return nil, nil
	}
	end := start + f.Size
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (r *testRepo) HasSince(ctx context.Context, familyID, petID, actorID string, t Type, since time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.rows {
		if n.FamilyID == familyID && n.RelatedPetID == petID && n.ActorID == actorID &&
			n.Type == t && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *testRepo) MarkRead(ctx context.Context, notificationID, userID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := notificationID + "|" + userID
	if _, ok := r.reads[key]; ok {
		return true, nil
	}
	r.reads[key] = at
	return false, nil
}

func (r *testRepo) ReadIDs(ctx context.Context, userID string, notificationIDs []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]bool{}
	for _, id := range notificationIDs {
		if _, ok := r.reads[id+"|"+userID]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (r *testRepo) byType(t Type) []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, 0)
	for _, n := range r.rows {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// -------------------------
// Stubs
// -------------------------

type directoryStub struct {
	members  map[string][]string // familyID -> userIDs
	families map[string][]string // userID -> familyIDs
}

func (d *directoryStub) MemberIDs(ctx context.Context, familyID string) ([]string, error) {
	return d.members[familyID], nil
}

func (d *directoryStub) FamilyIDsOf(ctx context.Context, userID string) ([]string, error) {
	return d.families[userID], nil
}

type tokenStub struct {
	tokens  map[string][]string // userID -> tokens
	removed []string
}

func (t *tokenStub) ActiveTokens(ctx context.Context, userIDs []string) ([]string, error) {
	seen := map[string]bool{}
	out := make([]string, 0)
	for _, id := range userIDs {
		for _, tok := range t.tokens[id] {
			if !seen[tok] {
				seen[tok] = true
				out = append(out, tok)
			}
		}
	}
	return out, nil
}

func (t *tokenStub) RemoveTokens(ctx context.Context, tokens []string) (int, error) {
	t.removed = append(t.removed, tokens...)
	return len(tokens), nil
}

type senderStub struct {
	sent []push.Message
	res  push.Result
	err  error
}

func (s *senderStub) Send(ctx context.Context, msg push.Message) (push.Result, error) {
	s.sent = append(s.sent, msg)
	if s.err != nil {
		return push.Result{}, s.err
	}
	return s.res, nil
}

func newNotifFixture() (*Service, *testRepo, *tokenStub, *senderStub) {
	repo := newNotifRepo()
	dir := &directoryStub{
		members: map[string][]string{
			"fam-1": {"owner-1", "member-2"},
		},
		families: map[string][]string{
			"owner-1":  {"fam-1"},
			"member-2": {"fam-1"},
		},
	}
	tokens := &tokenStub{tokens: map[string][]string{
		"owner-1":  {"tok-owner"},
		"member-2": {"tok-member-a", "tok-member-b"},
	}}
	sender := &senderStub{res: push.Result{SuccessCount: 3}}

	svc := NewService(repo, dir, tokens, sender, logger.New("test"))
	return svc, repo, tokens, sender
}

// -------------------------
// Tests
// -------------------------

func TestWalkStarted_DuplicateGuardSkipsSecondInsert(t *testing.T) {
	svc, repo, _, _ := newNotifFixture()

	since := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)
	svc.WalkStarted(context.Background(), "fam-1", "pet-1", "Bori", "owner-1", "walker", since)
	svc.WalkStarted(context.Background(), "fam-1", "pet-1", "Bori", "owner-1", "walker", since)

	assert.Len(t, repo.byType(TypeActivityStart), 1)
}

func TestWalkStarted_PushExcludesActor(t *testing.T) {
	svc, _, _, sender := newNotifFixture()

	svc.WalkStarted(context.Background(), "fam-1", "pet-1", "Bori", "owner-1", "walker", time.Now())

	require.Len(t, sender.sent, 1)
	// Solo los tokens de member-2; los del actor no reciben.
	assert.ElementsMatch(t, []string{"tok-member-a", "tok-member-b"}, sender.sent[0].Tokens)
}

func TestMarkRead_SecondCallReportsAlready(t *testing.T) {
	svc, _, _, _ := newNotifFixture()

	n, err := svc.Notify(context.Background(), NotifyInput{
		FamilyID: "fam-1",
		ActorID:  "owner-1",
		Type:     TypeActivityStart,
		Title:    "t",
	})
	require.NoError(t, err)

	already, err := svc.MarkRead(context.Background(), "member-2", n.ID)
	require.NoError(t, err)
	assert.False(t, already)

	already, err = svc.MarkRead(context.Background(), "member-2", n.ID)
	require.NoError(t, err)
	assert.True(t, already)
}

func TestMarkRead_StrangerForbidden(t *testing.T) {
	svc, _, _, _ := newNotifFixture()

	n, err := svc.Notify(context.Background(), NotifyInput{
		FamilyID: "fam-1",
		ActorID:  "owner-1",
		Type:     TypeActivityStart,
	})
	require.NoError(t, err)

	_, err = svc.MarkRead(context.Background(), "stranger", n.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestNotify_SelfDirectedBornRead(t *testing.T) {
	svc, repo, _, _ := newNotifFixture()

	target := "owner-1"
	n, err := svc.Notify(context.Background(), NotifyInput{
		FamilyID:     "fam-1",
		TargetUserID: &target,
		ActorID:      "owner-1",
		Type:         TypeSystemWeather,
	})
	require.NoError(t, err)

	read, err := repo.ReadIDs(context.Background(), "owner-1", []string{n.ID})
	require.NoError(t, err)
	assert.True(t, read[n.ID])
}

func TestShareResolved_RequesterStartsUnread(t *testing.T) {
	svc, repo, _, _ := newNotifFixture()

	svc.ShareResolved(context.Background(), "fam-1", "pet-1", "Bori", "requester-9", true)

	rows := repo.byType(TypeInviteAccepted)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].TargetUserID)
	assert.Equal(t, "requester-9", *rows[0].TargetUserID)

	read, err := repo.ReadIDs(context.Background(), "requester-9", []string{rows[0].ID})
	require.NoError(t, err)
	assert.False(t, read[rows[0].ID])
}

func TestList_VisibilityAndMarkRead(t *testing.T) {
	svc, _, _, _ := newNotifFixture()

	// Broadcast de fam-1, dirigida a member-2, dirigida a un tercero.
	_, err := svc.Notify(context.Background(), NotifyInput{FamilyID: "fam-1", ActorID: "owner-1", Type: TypeActivityStart})
	require.NoError(t, err)

	target := "member-2"
	_, err = svc.Notify(context.Background(), NotifyInput{FamilyID: "fam-1", TargetUserID: &target, ActorID: "owner-1", Type: TypeRequest})
	require.NoError(t, err)

	other := "stranger"
	_, err = svc.Notify(context.Background(), NotifyInput{FamilyID: "fam-1", TargetUserID: &other, ActorID: "owner-1", Type: TypeRequest})
	require.NoError(t, err)

	items, err := svc.List(context.Background(), "member-2", ListFilter{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.False(t, it.Read)
	}

	// La lista deja recibo: la segunda lectura viene marcada.
	items, err = svc.List(context.Background(), "member-2", ListFilter{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.True(t, it.Read)
	}
}

func TestList_UnknownTypeRejected(t *testing.T) {
	svc, _, _, _ := newNotifFixture()

	_, err := svc.List(context.Background(), "member-2", ListFilter{Type: "SPAM"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPush_OnlyInvalidTokensPruned(t *testing.T) {
	svc, _, tokens, sender := newNotifFixture()
	sender.res = push.Result{
		SuccessCount:  1,
		FailedTokens:  []string{"tok-member-a"},
		InvalidTokens: []string{"tok-member-b"},
	}

	got := svc.PushToFamily(context.Background(), "fam-1", "owner-1", "t", "b", nil)

	assert.Equal(t, 1, got)
	// Los fallidos transitorios se conservan; solo se poda el inválido.
	assert.Equal(t, []string{"tok-member-b"}, tokens.removed)
}

func TestPush_TransportErrorPrunesNothing(t *testing.T) {
	svc, _, tokens, sender := newNotifFixture()
	sender.err = errors.New("fcm unreachable")

	got := svc.PushToFamily(context.Background(), "fam-1", "owner-1", "t", "b", nil)

	assert.Equal(t, 0, got)
	assert.Empty(t, tokens.removed)
}

func TestSOS_BroadcastsAndCounts(t *testing.T) {
	svc, repo, _, sender := newNotifFixture()
	sender.res = push.Result{SuccessCount: 2}

	lat, lng := 37.5, 127.0
	notified, err := svc.SOS(context.Background(), "owner-1", &lat, &lng, "")
	require.NoError(t, err)
	assert.Equal(t, 2, notified)

	rows := repo.byType(TypeSOS)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].TargetUserID)
	require.NotNil(t, rows[0].RelatedLat)
	assert.Equal(t, lat, *rows[0].RelatedLat)
}

func TestSOS_LoneCoordinateRejected(t *testing.T) {
	svc, _, _, _ := newNotifFixture()

	lat := 37.5
	_, err := svc.SOS(context.Background(), "owner-1", &lat, nil, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSOSResolved_ClosesInSameFamily(t *testing.T) {
	svc, repo, _, _ := newNotifFixture()

	lat, lng := 37.5, 127.0
	_, err := svc.SOS(context.Background(), "owner-1", &lat, &lng, "ayuda")
	require.NoError(t, err)

	sos := repo.byType(TypeSOS)[0]
	n, err := svc.SOSResolved(context.Background(), "member-2", sos.ID)
	require.NoError(t, err)
	assert.Equal(t, sos.FamilyID, n.FamilyID)
	assert.Equal(t, TypeSOSResolved, n.Type)
	assert.Equal(t, "owner-1", n.RelatedUserID)
}
