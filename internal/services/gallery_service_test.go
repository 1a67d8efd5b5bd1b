package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lulus/backend/internal/models"
)

func newTestGallery(t *testing.T) *FileGalleryService {
	t.Helper()
	svc, err := NewFileGalleryService(t.TempDir())
	require.NoError(t, err)
	return svc
}

func TestFileGallery_LikeUnlike(t *testing.T) {
	svc := newTestGallery(t)
	ctx := context.Background()

	require.NoError(t, svc.LikePhoto(ctx, "p1", "u1"))
	require.NoError(t, svc.LikePhoto(ctx, "p1", "u2"))

	assert.ErrorIs(t, svc.LikePhoto(ctx, "p1", "u1"), ErrAlreadyLiked)

	likes, err := svc.Likes(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, likes)

	require.NoError(t, svc.UnlikePhoto(ctx, "p1", "u1"))
	assert.ErrorIs(t, svc.UnlikePhoto(ctx, "p1", "u1"), ErrLikeNotFound)

	likes, err = svc.Likes(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, likes)
}

func TestFileGallery_CommentLifecycle(t *testing.T) {
	svc := newTestGallery(t)
	ctx := context.Background()

	c := models.Comment{UserID: "u1", DisplayName: "Ana", Comment: "parabéns!"}
	require.NoError(t, svc.AddComment(ctx, "p1", c))

	comments, err := svc.Comments(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.NotEmpty(t, comments[0].ID)
	assert.Equal(t, "p1", comments[0].PhotoID)

	require.NoError(t, svc.EditComment(ctx, "p1", comments[0].ID, "editado"))
	comments, _ = svc.Comments(ctx, "p1")
	assert.Equal(t, "editado", comments[0].Comment)

	assert.ErrorIs(t, svc.EditComment(ctx, "p1", "missing", "x"), ErrCommentNotFound)

	require.NoError(t, svc.DeleteComment(ctx, "p1", comments[0].ID))
	assert.ErrorIs(t, svc.DeleteComment(ctx, "p1", comments[0].ID), ErrCommentNotFound)
}

func TestFileGallery_DeletePhotoClearsState(t *testing.T) {
	svc := newTestGallery(t)
	ctx := context.Background()

	url := "https://host/gallery/p1.jpg"
	require.NoError(t, svc.AddPhoto(ctx, url))
	require.NoError(t, svc.LikePhoto(ctx, "p1.jpg", "u1"))
	require.NoError(t, svc.AddComment(ctx, "p1.jpg", models.Comment{UserID: "u1", Comment: "oi"}))

	require.NoError(t, svc.DeletePhoto(ctx, url))
	assert.ErrorIs(t, svc.DeletePhoto(ctx, url), ErrPhotoNotFound)

	photos, _ := svc.ListPhotos(ctx)
	assert.Empty(t, photos)
	likes, _ := svc.Likes(ctx, "p1.jpg")
	assert.Empty(t, likes)
	comments, _ := svc.Comments(ctx, "p1.jpg")
	assert.Empty(t, comments)
}

func TestFileGallery_AddPhotoIsIdempotent(t *testing.T) {
	svc := newTestGallery(t)
	ctx := context.Background()

	require.NoError(t, svc.AddPhoto(ctx, "u1.jpg"))
	require.NoError(t, svc.AddPhoto(ctx, "u1.jpg"))

	photos, _ := svc.ListPhotos(ctx)
	assert.Len(t, photos, 1)

	assert.ErrorIs(t, svc.AddPhoto(ctx, ""), ErrGalleryBadInput)
}

func TestFileGallery_SubscriptionsReceiveSnapshots(t *testing.T) {
	svc := newTestGallery(t)
	ctx := context.Background()

	var likeSnapshots [][]string
	unsubscribe := svc.SubscribeLikes("p1", func(likes []string) {
		likeSnapshots = append(likeSnapshots, likes)
	})

	require.NoError(t, svc.LikePhoto(ctx, "p1", "u1"))
	require.NoError(t, svc.LikePhoto(ctx, "p1", "u2"))
	require.Len(t, likeSnapshots, 2)
	assert.Equal(t, []string{"u1"}, likeSnapshots[0])
	assert.Equal(t, []string{"u1", "u2"}, likeSnapshots[1])

	// Other photos do not notify this subscriber.
	require.NoError(t, svc.LikePhoto(ctx, "p2", "u1"))
	assert.Len(t, likeSnapshots, 2)

	unsubscribe()
	require.NoError(t, svc.UnlikePhoto(ctx, "p1", "u1"))
	assert.Len(t, likeSnapshots, 2)

	var commentSnapshots [][]models.Comment
	svc.SubscribeComments("p1", func(comments []models.Comment) {
		commentSnapshots = append(commentSnapshots, comments)
	})
	require.NoError(t, svc.AddComment(ctx, "p1", models.Comment{UserID: "u1", Comment: "oi"}))
	require.Len(t, commentSnapshots, 1)
	assert.Equal(t, "oi", commentSnapshots[0][0].Comment)
}

func TestFileGallery_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	svc, err := NewFileGalleryService(dir)
	require.NoError(t, err)
	require.NoError(t, svc.AddPhoto(ctx, "a.jpg"))
	require.NoError(t, svc.LikePhoto(ctx, "a.jpg", "u1"))

	reopened, err := NewFileGalleryService(dir)
	require.NoError(t, err)

	photos, _ := reopened.ListPhotos(ctx)
	assert.Equal(t, []string{"a.jpg"}, photos)
	likes, _ := reopened.Likes(ctx, "a.jpg")
	assert.Equal(t, []string{"u1"}, likes)
}
