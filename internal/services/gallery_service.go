package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lulus/backend/internal/gallery"
	"github.com/lulus/backend/internal/models"
	"github.com/lulus/backend/internal/storage"
)

var (
	ErrGalleryBadInput = errors.New("invalid gallery input")
	ErrPhotoNotFound   = errors.New("photo not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrAlreadyLiked    = errors.New("photo already liked")
	ErrLikeNotFound    = errors.New("like not found")
)

// GalleryService is the persistence boundary behind the gallery engine:
// the mutation set consumed by gallery.Session plus snapshot reads and the
// real-time subscription contract (callback per photo id, returns an
// unsubscribe function).
type GalleryService interface {
	gallery.Store

	ListPhotos(ctx context.Context) ([]string, error)
	AddPhoto(ctx context.Context, url string) error
	Likes(ctx context.Context, photoID string) ([]string, error)
	Comments(ctx context.Context, photoID string) ([]models.Comment, error)

	SubscribeLikes(photoID string, fn func([]string)) func()
	SubscribeComments(photoID string, fn func([]models.Comment)) func()
}

// galleryNotifier fans mutation snapshots out to per-photo subscribers.
type galleryNotifier struct {
	mu          sync.Mutex
	nextID      int
	likeSubs    map[string]map[int]func([]string)
	commentSubs map[string]map[int]func([]models.Comment)
}

func newGalleryNotifier() *galleryNotifier {
	return &galleryNotifier{
		likeSubs:    make(map[string]map[int]func([]string)),
		commentSubs: make(map[string]map[int]func([]models.Comment)),
	}
}

func (n *galleryNotifier) subscribeLikes(photoID string, fn func([]string)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	if n.likeSubs[photoID] == nil {
		n.likeSubs[photoID] = make(map[int]func([]string))
	}
	n.likeSubs[photoID][id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.likeSubs[photoID], id)
	}
}

func (n *galleryNotifier) subscribeComments(photoID string, fn func([]models.Comment)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	if n.commentSubs[photoID] == nil {
		n.commentSubs[photoID] = make(map[int]func([]models.Comment))
	}
	n.commentSubs[photoID][id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.commentSubs[photoID], id)
	}
}

func (n *galleryNotifier) notifyLikes(photoID string, snapshot []string) {
	n.mu.Lock()
	fns := make([]func([]string), 0, len(n.likeSubs[photoID]))
	for _, fn := range n.likeSubs[photoID] {
		fns = append(fns, fn)
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn(append([]string(nil), snapshot...))
	}
}

func (n *galleryNotifier) notifyComments(photoID string, snapshot []models.Comment) {
	n.mu.Lock()
	fns := make([]func([]models.Comment), 0, len(n.commentSubs[photoID]))
	for _, fn := range n.commentSubs[photoID] {
		fns = append(fns, fn)
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn(append([]models.Comment(nil), snapshot...))
	}
}

// galleryState is the JSON snapshot layout on disk.
type galleryState struct {
	Photos   []string                    `json:"photos"`
	Likes    map[string][]string         `json:"likes"`
	Comments map[string][]models.Comment `json:"comments"`
}

// FileGalleryService keeps gallery state in memory with a JSON snapshot on
// disk.
type FileGalleryService struct {
	mu       sync.RWMutex
	state    galleryState
	store    *storage.JSONStore
	notifier *galleryNotifier
}

func NewFileGalleryService(dataDir string) (*FileGalleryService, error) {
	store, err := storage.NewJSONStore(dataDir, "gallery.json")
	if err != nil {
		return nil, err
	}

	s := &FileGalleryService{
		state: galleryState{
			Likes:    make(map[string][]string),
			Comments: make(map[string][]models.Comment),
		},
		store:    store,
		notifier: newGalleryNotifier(),
	}
	if err := store.Load(&s.state); err != nil {
		return nil, err
	}
	if s.state.Likes == nil {
		s.state.Likes = make(map[string][]string)
	}
	if s.state.Comments == nil {
		s.state.Comments = make(map[string][]models.Comment)
	}

	return s, nil
}

func (s *FileGalleryService) persist() {
	if err := s.store.Save(s.state); err != nil {
		log.Printf("[Gallery] snapshot save failed: %v", err)
	}
}

func (s *FileGalleryService) ListPhotos(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.state.Photos...), nil
}

func (s *FileGalleryService) AddPhoto(ctx context.Context, url string) error {
	if url == "" {
		return ErrGalleryBadInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.state.Photos {
		if existing == url {
			return nil
		}
	}
	s.state.Photos = append(s.state.Photos, url)
	s.persist()
	return nil
}

func (s *FileGalleryService) Likes(ctx context.Context, photoID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.state.Likes[photoID]...), nil
}

func (s *FileGalleryService) Comments(ctx context.Context, photoID string) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Comment(nil), s.state.Comments[photoID]...), nil
}

func (s *FileGalleryService) LikePhoto(ctx context.Context, photoID, userID string) error {
	if photoID == "" || userID == "" {
		return ErrGalleryBadInput
	}
	s.mu.Lock()
	likes := s.state.Likes[photoID]
	for _, uid := range likes {
		if uid == userID {
			s.mu.Unlock()
			return ErrAlreadyLiked
		}
	}
	s.state.Likes[photoID] = append(likes, userID)
	snapshot := append([]string(nil), s.state.Likes[photoID]...)
	s.persist()
	s.mu.Unlock()

	s.notifier.notifyLikes(photoID, snapshot)
	return nil
}

func (s *FileGalleryService) UnlikePhoto(ctx context.Context, photoID, userID string) error {
	if photoID == "" || userID == "" {
		return ErrGalleryBadInput
	}
	s.mu.Lock()
	likes := s.state.Likes[photoID]
	kept := make([]string, 0, len(likes))
	for _, uid := range likes {
		if uid != userID {
			kept = append(kept, uid)
		}
	}
	if len(kept) == len(likes) {
		s.mu.Unlock()
		return ErrLikeNotFound
	}
	s.state.Likes[photoID] = kept
	snapshot := append([]string(nil), kept...)
	s.persist()
	s.mu.Unlock()

	s.notifier.notifyLikes(photoID, snapshot)
	return nil
}

func (s *FileGalleryService) AddComment(ctx context.Context, photoID string, c models.Comment) error {
	if photoID == "" || c.UserID == "" || c.Comment == "" {
		return ErrGalleryBadInput
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.PhotoID = photoID

	s.mu.Lock()
	s.state.Comments[photoID] = append(s.state.Comments[photoID], c)
	snapshot := append([]models.Comment(nil), s.state.Comments[photoID]...)
	s.persist()
	s.mu.Unlock()

	s.notifier.notifyComments(photoID, snapshot)
	return nil
}

func (s *FileGalleryService) EditComment(ctx context.Context, photoID, commentID, newText string) error {
	if photoID == "" || commentID == "" || newText == "" {
		return ErrGalleryBadInput
	}
	s.mu.Lock()
	comments := s.state.Comments[photoID]
	found := false
	for i := range comments {
		if comments[i].ID == commentID {
			comments[i].Comment = newText
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return ErrCommentNotFound
	}
	snapshot := append([]models.Comment(nil), comments...)
	s.persist()
	s.mu.Unlock()

	s.notifier.notifyComments(photoID, snapshot)
	return nil
}

func (s *FileGalleryService) DeleteComment(ctx context.Context, photoID, commentID string) error {
	if photoID == "" || commentID == "" {
		return ErrGalleryBadInput
	}
	s.mu.Lock()
	comments := s.state.Comments[photoID]
	kept := make([]models.Comment, 0, len(comments))
	for _, c := range comments {
		if c.ID != commentID {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(comments) {
		s.mu.Unlock()
		return ErrCommentNotFound
	}
	s.state.Comments[photoID] = kept
	snapshot := append([]models.Comment(nil), kept...)
	s.persist()
	s.mu.Unlock()

	s.notifier.notifyComments(photoID, snapshot)
	return nil
}

func (s *FileGalleryService) DeletePhoto(ctx context.Context, photoURL string) error {
	if photoURL == "" {
		return ErrGalleryBadInput
	}

	s.mu.Lock()
	kept := make([]string, 0, len(s.state.Photos))
	found := false
	for _, url := range s.state.Photos {
		if url == photoURL {
			found = true
			continue
		}
		kept = append(kept, url)
	}
	if !found {
		s.mu.Unlock()
		return ErrPhotoNotFound
	}
	s.state.Photos = kept

	photoID := gallery.PhotoID(photoURL)
	delete(s.state.Likes, photoID)
	delete(s.state.Comments, photoID)
	s.persist()
	s.mu.Unlock()

	s.notifier.notifyLikes(photoID, nil)
	s.notifier.notifyComments(photoID, nil)
	return nil
}

func (s *FileGalleryService) SubscribeLikes(photoID string, fn func([]string)) func() {
	return s.notifier.subscribeLikes(photoID, fn)
}

func (s *FileGalleryService) SubscribeComments(photoID string, fn func([]models.Comment)) func() {
	return s.notifier.subscribeComments(photoID, fn)
}
