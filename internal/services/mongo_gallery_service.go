package services

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lulus/backend/internal/gallery"
	"github.com/lulus/backend/internal/models"
)

// MongoGalleryService stores gallery photos, likes and comments in Mongo.
// Subscriptions are process-local: every mutation through this service
// re-reads the affected photo's snapshot and notifies subscribers, matching
// the "latest snapshot wins" reconciliation the engine expects.
type MongoGalleryService struct {
	client      *mongo.Client
	db          *mongo.Database
	photosCol   *mongo.Collection
	likesCol    *mongo.Collection
	commentsCol *mongo.Collection
	notifier    *galleryNotifier
}

type mongoPhotoDoc struct {
	ID        string    `bson:"_id"`
	URL       string    `bson:"url"`
	CreatedAt time.Time `bson:"created_at"`
}

func NewMongoGalleryService(ctx context.Context, mongoURI, dbName string) (*MongoGalleryService, error) {
	if mongoURI == "" || dbName == "" {
		return nil, ErrGalleryBadInput
	}

	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS12,
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI).SetTLSConfig(tlsCfg))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	photos := db.Collection("gallery_photos")
	likes := db.Collection("gallery_likes")
	comments := db.Collection("gallery_comments")

	// Best-effort indexes. The unique like index is what enforces one like
	// per (user, photo).
	_, _ = photos.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "url", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	})
	_, _ = likes.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "photo_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "photo_id", Value: 1}}},
	})
	_, _ = comments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "photo_id", Value: 1}, {Key: "created_at", Value: 1}}},
	})

	log.Printf("MongoDB connected (gallery): db=%s", dbName)
	return &MongoGalleryService{
		client:      client,
		db:          db,
		photosCol:   photos,
		likesCol:    likes,
		commentsCol: comments,
		notifier:    newGalleryNotifier(),
	}, nil
}

func (s *MongoGalleryService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoGalleryService) ListPhotos(ctx context.Context) ([]string, error) {
	cur, err := s.photosCol.Find(
		ctx,
		bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]string, 0)
	for cur.Next(ctx) {
		var doc mongoPhotoDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.URL)
	}
	return out, cur.Err()
}

func (s *MongoGalleryService) AddPhoto(ctx context.Context, url string) error {
	if url == "" {
		return ErrGalleryBadInput
	}
	_, err := s.photosCol.InsertOne(ctx, &mongoPhotoDoc{
		ID:        uuid.New().String(),
		URL:       url,
		CreatedAt: time.Now(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

func (s *MongoGalleryService) Likes(ctx context.Context, photoID string) ([]string, error) {
	cur, err := s.likesCol.Find(
		ctx,
		bson.M{"photo_id": photoID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]string, 0)
	for cur.Next(ctx) {
		var doc models.Like
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.UserID)
	}
	return out, cur.Err()
}

func (s *MongoGalleryService) Comments(ctx context.Context, photoID string) ([]models.Comment, error) {
	cur, err := s.commentsCol.Find(
		ctx,
		bson.M{"photo_id": photoID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Comment, 0)
	for cur.Next(ctx) {
		var doc models.Comment
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, cur.Err()
}

func (s *MongoGalleryService) LikePhoto(ctx context.Context, photoID, userID string) error {
	if photoID == "" || userID == "" {
		return ErrGalleryBadInput
	}
	_, err := s.likesCol.InsertOne(ctx, &models.Like{
		ID:        uuid.New().String(),
		PhotoID:   photoID,
		UserID:    userID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyLiked
		}
		return err
	}

	s.broadcastLikes(ctx, photoID)
	return nil
}

func (s *MongoGalleryService) UnlikePhoto(ctx context.Context, photoID, userID string) error {
	if photoID == "" || userID == "" {
		return ErrGalleryBadInput
	}
	res, err := s.likesCol.DeleteOne(ctx, bson.M{"photo_id": photoID, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrLikeNotFound
	}

	s.broadcastLikes(ctx, photoID)
	return nil
}

func (s *MongoGalleryService) AddComment(ctx context.Context, photoID string, c models.Comment) error {
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

	if _, err := s.commentsCol.InsertOne(ctx, c); err != nil {
		return err
	}

	s.broadcastComments(ctx, photoID)
	return nil
}

func (s *MongoGalleryService) EditComment(ctx context.Context, photoID, commentID, newText string) error {
	if photoID == "" || commentID == "" || newText == "" {
		return ErrGalleryBadInput
	}
	res, err := s.commentsCol.UpdateOne(
		ctx,
		bson.M{"_id": commentID, "photo_id": photoID},
		bson.M{"$set": bson.M{"comment": newText}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrCommentNotFound
	}

	s.broadcastComments(ctx, photoID)
	return nil
}

func (s *MongoGalleryService) DeleteComment(ctx context.Context, photoID, commentID string) error {
	if photoID == "" || commentID == "" {
		return ErrGalleryBadInput
	}
	res, err := s.commentsCol.DeleteOne(ctx, bson.M{"_id": commentID, "photo_id": photoID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrCommentNotFound
	}

	s.broadcastComments(ctx, photoID)
	return nil
}

func (s *MongoGalleryService) DeletePhoto(ctx context.Context, photoURL string) error {
	if photoURL == "" {
		return ErrGalleryBadInput
	}

	res, err := s.photosCol.DeleteOne(ctx, bson.M{"url": photoURL})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrPhotoNotFound
	}

	photoID := gallery.PhotoID(photoURL)
	if _, err := s.likesCol.DeleteMany(ctx, bson.M{"photo_id": photoID}); err != nil {
		return err
	}
	if _, err := s.commentsCol.DeleteMany(ctx, bson.M{"photo_id": photoID}); err != nil {
		return err
	}

	s.notifier.notifyLikes(photoID, nil)
	s.notifier.notifyComments(photoID, nil)
	return nil
}

func (s *MongoGalleryService) SubscribeLikes(photoID string, fn func([]string)) func() {
	return s.notifier.subscribeLikes(photoID, fn)
}

func (s *MongoGalleryService) SubscribeComments(photoID string, fn func([]models.Comment)) func() {
	return s.notifier.subscribeComments(photoID, fn)
}

func (s *MongoGalleryService) broadcastLikes(ctx context.Context, photoID string) {
	snapshot, err := s.Likes(ctx, photoID)
	if err != nil {
		log.Printf("[Gallery] likes snapshot read failed: photo=%s err=%v", photoID, err)
		return
	}
	s.notifier.notifyLikes(photoID, snapshot)
}

func (s *MongoGalleryService) broadcastComments(ctx context.Context, photoID string) {
	snapshot, err := s.Comments(ctx, photoID)
	if err != nil {
		log.Printf("[Gallery] comments snapshot read failed: photo=%s err=%v", photoID, err)
		return
	}
	s.notifier.notifyComments(photoID, snapshot)
}
