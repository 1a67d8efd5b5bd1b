package gallery

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lulus/backend/internal/models"
)

var (
	ErrNotLoggedIn = errors.New("not logged in")
)

// Store is the persistence collaborator behind the gallery. Implementations
// fire against external storage (Mongo, Firestore, ...); the session never
// sees how.
type Store interface {
	LikePhoto(ctx context.Context, photoID, userID string) error
	UnlikePhoto(ctx context.Context, photoID, userID string) error
	AddComment(ctx context.Context, photoID string, c models.Comment) error
	EditComment(ctx context.Context, photoID, commentID, newText string) error
	DeleteComment(ctx context.Context, photoID, commentID string) error
	DeletePhoto(ctx context.Context, photoURL string) error
}

// User is the authenticated viewer. A nil *User means "not logged in" and
// gates all mutating actions.
type User struct {
	UID         string
	DisplayName string
	Email       string
}

// PhotoStats is the per-photo aggregate shown next to each photo.
type PhotoStats struct {
	IsLiked      bool `json:"is_liked"`
	LikesCount   int  `json:"likes_count"`
	CommentCount int  `json:"comment_count"`
}

// Session holds one viewer's gallery state: the photo snapshot, the
// selection, the server-confirmed like/comment maps and an optimistic
// overlay for likes. The overlay is always relative to the latest server
// snapshot; a new snapshot for a photo discards that photo's overlay entry.
//
// Like persistence is fire-and-forget: the optimistic flip stands even when
// the store call fails, and the next authoritative snapshot corrects it. A
// stricter implementation would revert on failure.
type Session struct {
	mu    sync.Mutex
	wg    sync.WaitGroup
	store Store
	user  *User

	photos   []string
	selected int // -1 when closed

	serverLikes    map[string][]string
	overlayLikes   map[string][]string
	serverComments map[string][]models.Comment
}

func NewSession(store Store, user *User, photos []string) *Session {
	return &Session{
		store:          store,
		user:           user,
		photos:         append([]string(nil), photos...),
		selected:       -1,
		serverLikes:    make(map[string][]string),
		overlayLikes:   make(map[string][]string),
		serverComments: make(map[string][]models.Comment),
	}
}

// SetPhotos replaces the photo snapshot. The selection is closed if it no
// longer points inside the new snapshot.
func (s *Session) SetPhotos(photos []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos = append([]string(nil), photos...)
	if s.selected >= len(s.photos) {
		s.selected = -1
	}
}

// ApplyLikes installs a server likes snapshot for one photo and resets that
// photo's optimistic overlay to mirror it.
func (s *Session) ApplyLikes(photoID string, userIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serverLikes[photoID] = append([]string(nil), userIDs...)
	delete(s.overlayLikes, photoID)
}

// ApplyComments installs a server comments snapshot for one photo.
func (s *Session) ApplyComments(photoID string, comments []models.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serverComments[photoID] = append([]models.Comment(nil), comments...)
}

// SelectedIndex returns the current selection, or -1 when closed.
func (s *Session) SelectedIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *Session) SelectPhoto(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.photos) {
		return
	}
	s.selected = i
}

func (s *Session) ClosePhoto() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = -1
}

// NextPhoto advances the selection with wraparound. No-op while closed.
func (s *Session) NextPhoto() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected < 0 || len(s.photos) == 0 {
		return
	}
	s.selected = (s.selected + 1) % len(s.photos)
}

// PrevPhoto steps the selection back with wraparound. No-op while closed.
func (s *Session) PrevPhoto() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected < 0 || len(s.photos) == 0 {
		return
	}
	s.selected = (s.selected - 1 + len(s.photos)) % len(s.photos)
}

// ToggleLike flips the current user's like on the photo at index i. The
// overlay is updated synchronously; the store call runs in the background
// and is not rolled back on failure. Returns ErrNotLoggedIn when no user is
// present so callers can redirect to login.
func (s *Session) ToggleLike(i int) error {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return ErrNotLoggedIn
	}
	if i < 0 || i >= len(s.photos) {
		s.mu.Unlock()
		return nil
	}

	photoID := PhotoID(s.photos[i])
	uid := s.user.UID

	likes, ok := s.overlayLikes[photoID]
	if !ok {
		likes = s.serverLikes[photoID]
	}

	liked := contains(likes, uid)
	if liked {
		s.overlayLikes[photoID] = remove(likes, uid)
	} else {
		s.overlayLikes[photoID] = append(append([]string(nil), likes...), uid)
	}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var err error
		if liked {
			err = s.store.UnlikePhoto(ctx, photoID, uid)
		} else {
			err = s.store.LikePhoto(ctx, photoID, uid)
		}
		if err != nil {
			// Overlay stands; the next snapshot corrects it.
			log.Printf("[Gallery] like toggle failed: photo=%s user=%s err=%v", photoID, uid, err)
		}
	}()

	return nil
}

// PhotoStats returns the aggregate for the photo at index i. Likes prefer
// the optimistic overlay; comment counts always read the server snapshot
// (comments have no optimistic path).
func (s *Session) PhotoStats(i int) PhotoStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.photos) {
		return PhotoStats{}
	}
	photoID := PhotoID(s.photos[i])

	likes, ok := s.overlayLikes[photoID]
	if !ok {
		likes = s.serverLikes[photoID]
	}

	stats := PhotoStats{
		LikesCount:   len(likes),
		CommentCount: len(s.serverComments[photoID]),
	}
	if s.user != nil {
		stats.IsLiked = contains(likes, s.user.UID)
	}
	return stats
}

// Comments returns the server comments for the photo at index i.
func (s *Session) Comments(i int) []models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.photos) {
		return nil
	}
	return append([]models.Comment(nil), s.serverComments[PhotoID(s.photos[i])]...)
}

// AddComment posts a comment on the selected photo. No-op without a
// selection or a user; store errors propagate to the caller.
func (s *Session) AddComment(ctx context.Context, text string) error {
	s.mu.Lock()
	if s.selected < 0 || s.user == nil {
		s.mu.Unlock()
		return nil
	}
	photoID := PhotoID(s.photos[s.selected])
	c := models.Comment{
		ID:          uuid.New().String(),
		PhotoID:     photoID,
		UserID:      s.user.UID,
		DisplayName: s.user.DisplayName,
		Comment:     text,
		CreatedAt:   time.Now(),
	}
	s.mu.Unlock()

	return s.store.AddComment(ctx, photoID, c)
}

// EditComment rewrites a comment on the selected photo. No-op without a
// selection; store errors propagate.
func (s *Session) EditComment(ctx context.Context, commentID, newText string) error {
	s.mu.Lock()
	if s.selected < 0 {
		s.mu.Unlock()
		return nil
	}
	photoID := PhotoID(s.photos[s.selected])
	s.mu.Unlock()

	return s.store.EditComment(ctx, photoID, commentID, newText)
}

// DeleteComment removes a comment from the selected photo. No-op without a
// selection; store errors propagate.
func (s *Session) DeleteComment(ctx context.Context, commentID string) error {
	s.mu.Lock()
	if s.selected < 0 {
		s.mu.Unlock()
		return nil
	}
	photoID := PhotoID(s.photos[s.selected])
	s.mu.Unlock()

	return s.store.DeleteComment(ctx, photoID, commentID)
}

// DeletePhoto removes a photo by URL. Empty URLs are ignored. When the
// deleted photo is the current selection, the selection closes. Store
// failures are logged and swallowed, unlike the comment actions which
// propagate; callers must not rely on the returned error for this path.
func (s *Session) DeletePhoto(ctx context.Context, photoURL string) error {
	if photoURL == "" {
		return nil
	}

	if err := s.store.DeletePhoto(ctx, photoURL); err != nil {
		log.Printf("[Gallery] delete photo failed: url=%s err=%v", photoURL, err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected >= 0 && s.selected < len(s.photos) && s.photos[s.selected] == photoURL {
		s.selected = -1
	}
	return nil
}

// Flush waits for in-flight background persistence calls. Used on shutdown
// and in tests.
func (s *Session) Flush() {
	s.wg.Wait()
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
