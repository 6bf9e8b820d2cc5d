// Package mongostore stores notifications in MongoDB.
//
// Notification IDs come from a counter document incremented atomically with
// $inc, so they stay strictly increasing integers like the other stores.
// CreatedAt is kept twice: as a BSON date for humans and TTL indexes, and as
// Unix microseconds for exact round trips and ordering.
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/inbox/pkg/notifications"
)

const (
	DefaultCollection  = "notifications"
	countersCollection = "counters"
)

type document struct {
	ID              int64     `bson:"_id"`
	UserID          string    `bson:"user_id"`
	Title           string    `bson:"title"`
	Message         string    `bson:"message"`
	Type            string    `bson:"type"`
	IsRead          bool      `bson:"is_read"`
	CreatedAt       time.Time `bson:"created_at"`
	CreatedMicros   int64     `bson:"created_us"`
	RelatedEntityID string    `bson:"related_entity_id,omitempty"`
	ActionURL       string    `bson:"action_url,omitempty"`
}

func toDocument(n notifications.Notification) document {
	return document{
		ID:              n.ID,
		UserID:          n.UserID,
		Title:           n.Title,
		Message:         n.Message,
		Type:            string(n.Type),
		IsRead:          n.IsRead,
		CreatedAt:       n.CreatedAt,
		CreatedMicros:   n.CreatedAt.UnixMicro(),
		RelatedEntityID: n.RelatedEntityID,
		ActionURL:       n.ActionURL,
	}
}

func (d document) notification() notifications.Notification {
	return notifications.Notification{
		ID:              d.ID,
		UserID:          d.UserID,
		Title:           d.Title,
		Message:         d.Message,
		Type:            notifications.Type(d.Type),
		IsRead:          d.IsRead,
		CreatedAt:       time.UnixMicro(d.CreatedMicros).UTC(),
		RelatedEntityID: d.RelatedEntityID,
		ActionURL:       d.ActionURL,
	}
}

// Storage implements notifications.Storage on a MongoDB database.
type Storage struct {
	coll     *mongo.Collection
	counters *mongo.Collection
}

// Option configures Storage.
type Option func(*config)

type config struct {
	collection string
}

// WithCollection overrides the notifications collection name.
// The ID counter is kept per collection.
func WithCollection(name string) Option {
	return func(c *config) {
		if name != "" {
			c.collection = name
		}
	}
}

func New(db *mongo.Database, opts ...Option) *Storage {
	cfg := &config{collection: DefaultCollection}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Storage{
		coll:     db.Collection(cfg.collection),
		counters: db.Collection(countersCollection),
	}
}

// EnsureIndexes creates the indexes used by unread counts and inbox listing.
func (s *Storage) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_read", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_us", Value: -1}, {Key: "_id", Value: -1}}},
	})
	return err
}

func (s *Storage) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: s.coll.Name()}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	return counter.Seq, err
}

func (s *Storage) Insert(ctx context.Context, n notifications.Notification) (int64, error) {
	id, err := s.nextID(ctx)
	if err != nil {
		return 0, err
	}
	n.ID = id

	if _, err := s.coll.InsertOne(ctx, toDocument(n)); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Storage) FindByID(ctx context.Context, id int64) (notifications.Notification, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notifications.Notification{}, notifications.ErrNotFound
	}
	if err != nil {
		return notifications.Notification{}, err
	}
	return doc.notification(), nil
}

func (s *Storage) ListForUser(ctx context.Context, userID string, limit int) ([]notifications.Notification, error) {
	if limit <= 0 {
		return []notifications.Notification{}, nil
	}

	cur, err := s.coll.Find(ctx,
		bson.D{{Key: "user_id", Value: userID}},
		options.Find().
			SetSort(bson.D{{Key: "created_us", Value: -1}, {Key: "_id", Value: -1}}).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	list := make([]notifications.Notification, 0, len(docs))
	for _, d := range docs {
		list = append(list, d.notification())
	}
	return list, nil
}

func (s *Storage) CountUnread(ctx context.Context, userID string) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{
		{Key: "user_id", Value: userID},
		{Key: "is_read", Value: false},
	})
	return int(n), err
}

func (s *Storage) MarkRead(ctx context.Context, id int64) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "is_read", Value: true}}}},
	)
	return err
}

func (s *Storage) MarkAllRead(ctx context.Context, userID string) (int, error) {
	res, err := s.coll.UpdateMany(ctx,
		bson.D{{Key: "user_id", Value: userID}, {Key: "is_read", Value: false}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "is_read", Value: true}}}},
	)
	if err != nil {
		return 0, err
	}
	return int(res.ModifiedCount), nil
}

var _ notifications.Storage = (*Storage)(nil)
