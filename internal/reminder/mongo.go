package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/govpub/govpub/backend/go-services/internal/database"
	"github.com/govpub/govpub/backend/go-services/internal/edition"
	"github.com/govpub/govpub/backend/go-services/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	col := db.Collection("reminders")
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "deadline", Value: 1}}},
		{Keys: bson.D{{Key: "documentId", Value: 1}}},
	}
	if err := database.EnsureIndexes(context.Background(), col, idx...); err != nil {
		logger.Warnf("reminder repository: %v", err)
	}
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, s *Subject) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	_, err := m.col.InsertOne(ctx, s)
	return err
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*Subject, error) {
	var s Subject
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &edition.NotFoundError{Kind: "reminder", ID: id}
		}
		return nil, err
	}
	return &s, nil
}

func (m *MongoRepo) Update(ctx context.Context, s *Subject) error {
	next := s.Clone()
	next.LockVersion = s.LockVersion + 1
	next.UpdatedAt = time.Now().UTC()
	res, err := m.col.ReplaceOne(ctx, bson.M{"_id": s.ID, "lockVersion": s.LockVersion}, next)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := m.Get(ctx, s.ID); err != nil {
			return err
		}
		return ErrConflict
	}
	s.LockVersion, s.UpdatedAt = next.LockVersion, next.UpdatedAt
	return nil
}

func (m *MongoRepo) ListCandidates(ctx context.Context, q Query) ([]*Subject, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"kind": KindConsultation, "responsePublished": false,
			"deadline": bson.M{"$gt": q.ClosedAfter, "$lte": q.ClosedBy}},
		bson.M{"kind": KindReview, "reminderSentAt": bson.M{"$exists": false},
			"deadline": bson.M{"$lte": q.ReviewDueBy}},
	}}
	cur, err := m.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "deadline", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*Subject{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
