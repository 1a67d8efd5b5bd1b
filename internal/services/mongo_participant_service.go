package services

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lulus/backend/internal/models"
	"github.com/lulus/backend/internal/roster"
)

type MongoParticipantService struct {
	client          *mongo.Client
	db              *mongo.Database
	participantsCol *mongo.Collection
	countersCol     *mongo.Collection
}

func NewMongoParticipantService(ctx context.Context, mongoURI, dbName string) (*MongoParticipantService, error) {
	if mongoURI == "" || dbName == "" {
		return nil, ErrParticipantBadInput
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
	col := db.Collection("participants")

	// Best-effort indexes.
	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "month", Value: 1}}},
		{Keys: bson.D{{Key: "gives_to_id", Value: 1}}},
	})

	log.Printf("MongoDB connected (participants): db=%s", dbName)
	return &MongoParticipantService{
		client:          client,
		db:              db,
		participantsCol: col,
		countersCol:     db.Collection("counters"),
	}, nil
}

func (s *MongoParticipantService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// nextID increments the roster sequence atomically.
func (s *MongoParticipantService) nextID(ctx context.Context) (int, error) {
	var doc struct {
		Seq int `bson:"seq"`
	}
	err := s.countersCol.FindOneAndUpdate(
		ctx,
		bson.M{"_id": "participants"},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}

func (s *MongoParticipantService) List() ([]models.Participant, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cur, err := s.participantsCol.Find(
		ctx,
		bson.M{},
		options.Find().SetSort(bson.D{{Key: "month", Value: 1}, {Key: "date", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Participant, 0)
	for cur.Next(ctx) {
		var p models.Participant
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out = append(out, roster.Normalize(p))
	}
	return out, cur.Err()
}

func (s *MongoParticipantService) GetByID(id int) (models.Participant, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var p models.Participant
	err := s.participantsCol.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return models.Participant{}, ErrParticipantNotFound
	}
	if err != nil {
		return models.Participant{}, err
	}
	return roster.Normalize(p), nil
}

func (s *MongoParticipantService) Create(req *models.CreateParticipantRequest) (models.Participant, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, err := s.nextID(ctx)
	if err != nil {
		return models.Participant{}, err
	}

	now := time.Now()
	p := roster.Normalize(models.Participant{
		ID:         id,
		Name:       req.Name,
		FullName:   req.FullName,
		City:       req.City,
		Date:       req.Date,
		GivesToID:  req.GivesToID,
		GivesTo:    req.GivesTo,
		Email:      req.Email,
		Phone:      req.Phone,
		Instagram:  req.Instagram,
		PixKey:     req.PixKey,
		PixKeyType: req.PixKeyType,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	s.denormalizeGivesTo(ctx, &p)

	if _, err := s.participantsCol.InsertOne(ctx, p); err != nil {
		return models.Participant{}, err
	}
	return p, nil
}

func (s *MongoParticipantService) Update(id int, req *models.UpdateParticipantRequest) (models.Participant, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := s.GetByID(id)
	if err != nil {
		return models.Participant{}, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.FullName != nil {
		p.FullName = *req.FullName
	}
	if req.City != nil {
		p.City = *req.City
	}
	if req.Date != nil {
		p.Date = *req.Date
	}
	if req.GivesToID != nil {
		p.GivesToID = *req.GivesToID
		p.GivesTo = ""
	}
	if req.GivesTo != nil {
		p.GivesTo = *req.GivesTo
	}
	if req.Email != nil {
		p.Email = *req.Email
	}
	if req.Phone != nil {
		p.Phone = *req.Phone
	}
	if req.Instagram != nil {
		p.Instagram = *req.Instagram
	}
	if req.PixKey != nil {
		p.PixKey = *req.PixKey
	}
	if req.PixKeyType != nil {
		p.PixKeyType = *req.PixKeyType
	}
	p.UpdatedAt = time.Now()
	p = roster.Normalize(p)
	s.denormalizeGivesTo(ctx, &p)

	res, err := s.participantsCol.ReplaceOne(ctx, bson.M{"_id": id}, p)
	if err != nil {
		return models.Participant{}, err
	}
	if res.MatchedCount == 0 {
		return models.Participant{}, ErrParticipantNotFound
	}
	return p, nil
}

func (s *MongoParticipantService) Delete(id int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := s.participantsCol.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrParticipantNotFound
	}

	// Break assignments pointing at the removed participant.
	_, err = s.participantsCol.UpdateMany(
		ctx,
		bson.M{"gives_to_id": id},
		bson.M{"$set": bson.M{"gives_to_id": 0, "gives_to": ""}},
	)
	if err != nil {
		return err
	}
	_, err = s.participantsCol.UpdateMany(
		ctx,
		bson.M{"receives_to_id": id},
		bson.M{"$set": bson.M{"receives_to_id": 0}},
	)
	return err
}

func (s *MongoParticipantService) SetPhoto(id int, url string, updatedAt int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := s.participantsCol.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"photo_url":        url,
			"photo_updated_at": updatedAt,
			"updated_at":       time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

func (s *MongoParticipantService) denormalizeGivesTo(ctx context.Context, p *models.Participant) {
	if p.GivesTo != "" || p.GivesToID <= 0 {
		return
	}
	var target models.Participant
	if err := s.participantsCol.FindOne(ctx, bson.M{"_id": p.GivesToID}).Decode(&target); err == nil {
		p.GivesTo = target.Name
	}
}
