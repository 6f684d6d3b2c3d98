package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/govpub/govpub/backend/go-services/internal/database"
	"github.com/govpub/govpub/backend/go-services/internal/edition"
	"github.com/govpub/govpub/backend/go-services/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo stores documents and editions in two collections. Every
// multi-document write runs in a session transaction, and edition writes are
// filtered on lockVersion so a stale read can never overwrite a newer state.
// Transactions need a replica set (a single-node one is fine).
type MongoRepo struct {
	client    *mongo.Client
	documents *mongo.Collection
	editions  *mongo.Collection
}

func NewMongoRepo(client *mongo.Client, db *mongo.Database) *MongoRepo {
	editions := db.Collection("editions")
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "documentId", Value: 1}, {Key: "version", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "scheduledPublication", Value: 1}}},
	}
	// the unique (documentId, version) index turns a duplicate draft into a conflict
	if err := database.EnsureIndexes(context.Background(), editions, idx...); err != nil {
		logger.Warnf("edition repository: %v", err)
	}
	return &MongoRepo{client: client, documents: db.Collection("documents"), editions: editions}
}

func (m *MongoRepo) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (m *MongoRepo) CreateDocument(ctx context.Context, doc *edition.Document, first *edition.Edition) error {
	now := time.Now().UTC()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if first.ID == "" {
		first.ID = uuid.NewString()
	}
	doc.CreatedAt, doc.UpdatedAt = now, now
	doc.LatestEditionID = first.ID
	first.DocumentID = doc.ID
	first.CreatedAt, first.UpdatedAt = now, now
	return m.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := m.documents.InsertOne(sc, doc); err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
		if _, err := m.editions.InsertOne(sc, first); err != nil {
			return fmt.Errorf("insert edition: %w", err)
		}
		return nil
	})
}

func (m *MongoRepo) GetDocument(ctx context.Context, id string) (*edition.Document, error) {
	var d edition.Document
	if err := m.documents.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &edition.NotFoundError{Kind: "document", ID: id}
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) AddEdition(ctx context.Context, e *edition.Edition) error {
	now := time.Now().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt, e.UpdatedAt = now, now
	return m.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := m.documents.UpdateOne(sc, bson.M{"_id": e.DocumentID},
			bson.M{"$set": bson.M{"latestEditionId": e.ID, "updatedAt": now}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return &edition.NotFoundError{Kind: "document", ID: e.DocumentID}
		}
		if _, err := m.editions.InsertOne(sc, e); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return &edition.ConcurrentStateChange{EditionID: e.ID}
			}
			return fmt.Errorf("insert edition: %w", err)
		}
		return nil
	})
}

func (m *MongoRepo) GetEdition(ctx context.Context, id string) (*edition.Edition, error) {
	var e edition.Edition
	if err := m.editions.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &edition.NotFoundError{Kind: "edition", ID: id}
		}
		return nil, err
	}
	return &e, nil
}

func (m *MongoRepo) ListEditions(ctx context.Context, documentID string) ([]*edition.Edition, error) {
	opts := options.Find().SetSort(bson.D{{Key: "version", Value: 1}})
	return m.find(ctx, bson.M{"documentId": documentID}, opts)
}

func (m *MongoRepo) ListDueScheduled(ctx context.Context, now time.Time) ([]*edition.Edition, error) {
	filter := bson.M{"state": edition.StateScheduled, "scheduledPublication": bson.M{"$lte": now}}
	opts := options.Find().SetSort(bson.D{{Key: "scheduledPublication", Value: 1}})
	return m.find(ctx, filter, opts)
}

func (m *MongoRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*edition.Edition, error) {
	cur, err := m.editions.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*edition.Edition{}
	for cur.Next(ctx) {
		var e edition.Edition
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, cur.Err()
}

func (m *MongoRepo) Apply(ctx context.Context, cs ChangeSet) error {
	now := time.Now().UTC()
	staged := make([]*edition.Edition, len(cs.Editions))
	err := m.withTransaction(ctx, func(sc mongo.SessionContext) error {
		for i, w := range cs.Editions {
			e := stamp(w, now)
			res, err := m.editions.ReplaceOne(sc, bson.M{"_id": e.ID, "lockVersion": w.Expected}, e)
			if err != nil {
				return fmt.Errorf("replace edition %s: %w", e.ID, err)
			}
			if res.MatchedCount == 0 {
				return &edition.ConcurrentStateChange{EditionID: e.ID}
			}
			staged[i] = e
		}
		if cs.Live != nil {
			res, err := m.documents.UpdateOne(sc, bson.M{"_id": cs.Live.DocumentID},
				bson.M{"$set": bson.M{"liveEditionId": cs.Live.EditionID, "updatedAt": now}})
			if err != nil {
				return fmt.Errorf("update document %s: %w", cs.Live.DocumentID, err)
			}
			if res.MatchedCount == 0 {
				return &edition.NotFoundError{Kind: "document", ID: cs.Live.DocumentID}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for i, w := range cs.Editions {
		w.Edition.LockVersion = staged[i].LockVersion
		w.Edition.UpdatedAt = now
	}
	return nil
}
