package gallery

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lulus/backend/internal/models"
)

type mockStore struct {
	mu          sync.Mutex
	likes       []string // "photoID/userID"
	unlikes     []string
	comments    []models.Comment
	edits       []string // "commentID=newText"
	deletes     []string // comment ids
	photoDels   []string // urls
	likeErr     error
	commentErr  error
	deleteErr   error
	likeRelease chan struct{} // when set, LikePhoto blocks until closed
}

func (m *mockStore) LikePhoto(ctx context.Context, photoID, userID string) error {
	if m.likeRelease != nil {
		<-m.likeRelease
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.likes = append(m.likes, photoID+"/"+userID)
	return m.likeErr
}

func (m *mockStore) UnlikePhoto(ctx context.Context, photoID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unlikes = append(m.unlikes, photoID+"/"+userID)
	return m.likeErr
}

func (m *mockStore) AddComment(ctx context.Context, photoID string, c models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments = append(m.comments, c)
	return m.commentErr
}

func (m *mockStore) EditComment(ctx context.Context, photoID, commentID, newText string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, commentID+"="+newText)
	return m.commentErr
}

func (m *mockStore) DeleteComment(ctx context.Context, photoID, commentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, commentID)
	return m.commentErr
}

func (m *mockStore) DeletePhoto(ctx context.Context, photoURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.photoDels = append(m.photoDels, photoURL)
	return m.deleteErr
}

var testPhotos = []string{
	"https://host/gallery/a.jpg",
	"https://host/gallery/b.jpg",
	"https://host/gallery/c.jpg",
}

func newTestSession(store *mockStore, user *User) *Session {
	return NewSession(store, user, testPhotos)
}

func TestToggleLike_OptimisticFlipIsSynchronous(t *testing.T) {
	store := &mockStore{likeRelease: make(chan struct{})}
	s := newTestSession(store, &User{UID: "u1"})

	require.False(t, s.PhotoStats(0).IsLiked)

	// The store call is still blocked when ToggleLike returns; the flip
	// must already be visible.
	require.NoError(t, s.ToggleLike(0))
	stats := s.PhotoStats(0)
	assert.True(t, stats.IsLiked)
	assert.Equal(t, 1, stats.LikesCount)

	close(store.likeRelease)
	s.Flush()
	assert.Equal(t, []string{"a.jpg/u1"}, store.likes)
}

func TestToggleLike_FlipsBackWhenAlreadyLiked(t *testing.T) {
	store := &mockStore{}
	s := newTestSession(store, &User{UID: "u1"})
	s.ApplyLikes("a.jpg", []string{"u1", "u2"})

	require.True(t, s.PhotoStats(0).IsLiked)

	require.NoError(t, s.ToggleLike(0))
	stats := s.PhotoStats(0)
	assert.False(t, stats.IsLiked)
	assert.Equal(t, 1, stats.LikesCount)

	s.Flush()
	assert.Equal(t, []string{"a.jpg/u1"}, store.unlikes)
	assert.Empty(t, store.likes)
}

func TestToggleLike_RequiresLogin(t *testing.T) {
	store := &mockStore{}
	s := newTestSession(store, nil)

	err := s.ToggleLike(0)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	s.Flush()
	assert.Empty(t, store.likes)
}

func TestToggleLike_NoRollbackOnStoreFailure(t *testing.T) {
	store := &mockStore{likeErr: errors.New("network down")}
	s := newTestSession(store, &User{UID: "u1"})

	require.NoError(t, s.ToggleLike(0))
	s.Flush()

	// Fire-and-forget: the optimistic flip stands until the next snapshot.
	assert.True(t, s.PhotoStats(0).IsLiked)

	// A later authoritative snapshot corrects it.
	s.ApplyLikes("a.jpg", nil)
	assert.False(t, s.PhotoStats(0).IsLiked)
}

func TestApplyLikes_ResetsOverlay(t *testing.T) {
	store := &mockStore{}
	s := newTestSession(store, &User{UID: "u1"})

	require.NoError(t, s.ToggleLike(0))
	s.Flush()
	require.True(t, s.PhotoStats(0).IsLiked)

	// Server snapshot now includes the like; the overlay entry goes away
	// and stats read straight from the snapshot.
	s.ApplyLikes("a.jpg", []string{"u1", "u9"})
	stats := s.PhotoStats(0)
	assert.True(t, stats.IsLiked)
	assert.Equal(t, 2, stats.LikesCount)
}

func TestPhotoStats_CommentCountReadsSnapshotOnly(t *testing.T) {
	store := &mockStore{}
	s := newTestSession(store, &User{UID: "u1"})
	s.SelectPhoto(0)

	require.NoError(t, s.AddComment(context.Background(), "oi"))
	// No optimistic path for comments: still zero until a snapshot lands.
	assert.Zero(t, s.PhotoStats(0).CommentCount)

	s.ApplyComments("a.jpg", []models.Comment{{ID: "c1", Comment: "oi"}})
	assert.Equal(t, 1, s.PhotoStats(0).CommentCount)
}

func TestSelection_Wraparound(t *testing.T) {
	s := newTestSession(&mockStore{}, nil)

	s.SelectPhoto(2)
	s.NextPhoto()
	assert.Equal(t, 0, s.SelectedIndex())

	s.SelectPhoto(0)
	s.PrevPhoto()
	assert.Equal(t, 2, s.SelectedIndex())
}

func TestSelection_NextPrevNoopWhileClosed(t *testing.T) {
	s := newTestSession(&mockStore{}, nil)

	require.Equal(t, -1, s.SelectedIndex())
	s.NextPhoto()
	assert.Equal(t, -1, s.SelectedIndex())
	s.PrevPhoto()
	assert.Equal(t, -1, s.SelectedIndex())
}

func TestSelection_OutOfRangeSelectIsNoop(t *testing.T) {
	s := newTestSession(&mockStore{}, nil)

	s.SelectPhoto(7)
	assert.Equal(t, -1, s.SelectedIndex())
}

func TestAddComment_NoopWithoutSelectionOrUser(t *testing.T) {
	store := &mockStore{}
	s := newTestSession(store, &User{UID: "u1", DisplayName: "Ana"})

	require.NoError(t, s.AddComment(context.Background(), "oi"))
	assert.Empty(t, store.comments)

	anon := newTestSession(store, nil)
	anon.SelectPhoto(0)
	require.NoError(t, anon.AddComment(context.Background(), "oi"))
	assert.Empty(t, store.comments)
}

func TestAddComment_DelegatesAndPropagatesErrors(t *testing.T) {
	store := &mockStore{}
	s := newTestSession(store, &User{UID: "u1", DisplayName: "Ana"})
	s.SelectPhoto(1)

	require.NoError(t, s.AddComment(context.Background(), "parabéns!"))
	require.Len(t, store.comments, 1)
	assert.Equal(t, "b.jpg", store.comments[0].PhotoID)
	assert.Equal(t, "u1", store.comments[0].UserID)
	assert.Equal(t, "Ana", store.comments[0].DisplayName)

	store.commentErr = errors.New("write failed")
	assert.Error(t, s.AddComment(context.Background(), "de novo"))
}

func TestEditAndDeleteComment(t *testing.T) {
	store := &mockStore{}
	s := newTestSession(store, &User{UID: "u1"})

	// No selection: both are no-ops.
	require.NoError(t, s.EditComment(context.Background(), "c1", "x"))
	require.NoError(t, s.DeleteComment(context.Background(), "c1"))
	assert.Empty(t, store.edits)
	assert.Empty(t, store.deletes)

	s.SelectPhoto(0)
	require.NoError(t, s.EditComment(context.Background(), "c1", "novo texto"))
	require.NoError(t, s.DeleteComment(context.Background(), "c2"))
	assert.Equal(t, []string{"c1=novo texto"}, store.edits)
	assert.Equal(t, []string{"c2"}, store.deletes)

	store.commentErr = errors.New("boom")
	assert.Error(t, s.EditComment(context.Background(), "c1", "x"))
	assert.Error(t, s.DeleteComment(context.Background(), "c1"))
}

func TestDeletePhoto_ClosesSelectionOnlyWhenRelevant(t *testing.T) {
	store := &mockStore{}
	s := newTestSession(store, &User{UID: "u1"})

	s.SelectPhoto(1)
	require.NoError(t, s.DeletePhoto(context.Background(), testPhotos[0]))
	assert.Equal(t, 1, s.SelectedIndex())

	require.NoError(t, s.DeletePhoto(context.Background(), testPhotos[1]))
	assert.Equal(t, -1, s.SelectedIndex())
}

func TestDeletePhoto_EmptyURLIsNoop(t *testing.T) {
	store := &mockStore{}
	s := newTestSession(store, &User{UID: "u1"})

	require.NoError(t, s.DeletePhoto(context.Background(), ""))
	assert.Empty(t, store.photoDels)
}

func TestDeletePhoto_SwallowsStoreErrors(t *testing.T) {
	store := &mockStore{deleteErr: errors.New("storage offline")}
	s := newTestSession(store, &User{UID: "u1"})
	s.SelectPhoto(0)

	// Unlike the comment actions, delete failures are not propagated and
	// the selection stays open.
	assert.NoError(t, s.DeletePhoto(context.Background(), testPhotos[0]))
	assert.Equal(t, 0, s.SelectedIndex())
}

func TestSetPhotos_ClosesOutOfRangeSelection(t *testing.T) {
	s := newTestSession(&mockStore{}, nil)
	s.SelectPhoto(2)

	s.SetPhotos(testPhotos[:1])
	assert.Equal(t, -1, s.SelectedIndex())
}
