package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const defaultCollection = "audit_events"

// MongoStorage persists audit events in a MongoDB collection.
type MongoStorage struct {
	coll      *mongo.Collection
	retention time.Duration
}

type mongoConfig struct {
	collection string
	retention  time.Duration
}

// MongoOption configures MongoStorage.
type MongoOption func(*mongoConfig)

// WithCollection overrides the collection name (default "audit_events").
func WithCollection(name string) MongoOption {
	return func(cfg *mongoConfig) {
		if name != "" {
			cfg.collection = name
		}
	}
}

// WithRetention enables a TTL index so events expire after d.
// Takes effect when EnsureIndexes runs.
func WithRetention(d time.Duration) MongoOption {
	return func(cfg *mongoConfig) {
		cfg.retention = d
	}
}

// NewMongoStorage creates a storage over db's audit collection.
func NewMongoStorage(db *mongo.Database, opts ...MongoOption) *MongoStorage {
	if db == nil {
		panic("audit: database cannot be nil")
	}

	cfg := mongoConfig{collection: defaultCollection}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MongoStorage{
		coll:      db.Collection(cfg.collection),
		retention: cfg.retention,
	}
}

// EnsureIndexes creates the query indexes and, when retention is set,
// a TTL index on created_at. Safe to call on every startup.
func (s *MongoStorage) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "event_type", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "severity", Value: 1}}},
	}
	if s.retention > 0 {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(s.retention.Seconds())),
		})
	}

	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

func (s *MongoStorage) Store(ctx context.Context, event Event) error {
	if _, err := s.coll.InsertOne(ctx, toDoc(event)); err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

func (s *MongoStorage) StoreBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	docs := make([]any, len(events))
	for i, e := range events {
		docs[i] = toDoc(e)
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

// Query returns matching events newest first.
func (s *MongoStorage) Query(ctx context.Context, criteria Criteria) ([]Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if criteria.Limit > 0 {
		opts.SetLimit(int64(criteria.Limit))
	}
	if criteria.Offset > 0 {
		opts.SetSkip(int64(criteria.Offset))
	}

	cursor, err := s.coll.Find(ctx, filterFor(criteria), opts)
	if err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}

	var docs []eventDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}

	events := make([]Event, len(docs))
	for i, d := range docs {
		events[i] = d.toEvent()
	}
	return events, nil
}

func (s *MongoStorage) Count(ctx context.Context, criteria Criteria) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, filterFor(criteria))
	if err != nil {
		return 0, errors.Join(ErrStorageFailed, err)
	}
	return n, nil
}

// Ping verifies the backing database is reachable.
func (s *MongoStorage) Ping(ctx context.Context) error {
	if err := s.coll.Database().Client().Ping(ctx, nil); err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

func filterFor(c Criteria) bson.D {
	filter := bson.D{}
	if c.UserID != uuid.Nil {
		filter = append(filter, bson.E{Key: "user_id", Value: c.UserID.String()})
	}
	if c.EventType != "" {
		filter = append(filter, bson.E{Key: "event_type", Value: c.EventType})
	}
	if c.Severity != "" {
		filter = append(filter, bson.E{Key: "severity", Value: string(c.Severity)})
	}
	if !c.From.IsZero() || !c.To.IsZero() {
		rng := bson.D{}
		if !c.From.IsZero() {
			rng = append(rng, bson.E{Key: "$gte", Value: c.From})
		}
		if !c.To.IsZero() {
			rng = append(rng, bson.E{Key: "$lt", Value: c.To})
		}
		filter = append(filter, bson.E{Key: "created_at", Value: rng})
	}
	return filter
}

// eventDoc is the BSON shape; user ids are stored as strings so the
// collection stays readable from the mongo shell.
type eventDoc struct {
	ID          string         `bson:"_id"`
	UserID      string         `bson:"user_id,omitempty"`
	EventType   string         `bson:"event_type"`
	Severity    string         `bson:"severity"`
	Description string         `bson:"description,omitempty"`
	IP          string         `bson:"ip,omitempty"`
	UserAgent   string         `bson:"user_agent,omitempty"`
	Metadata    map[string]any `bson:"metadata,omitempty"`
	CreatedAt   time.Time      `bson:"created_at"`
}

func toDoc(e Event) eventDoc {
	doc := eventDoc{
		ID:          e.ID,
		EventType:   e.EventType,
		Severity:    string(e.Severity),
		Description: e.Description,
		IP:          e.IP,
		UserAgent:   e.UserAgent,
		Metadata:    e.Metadata,
		CreatedAt:   e.CreatedAt,
	}
	if e.UserID != uuid.Nil {
		doc.UserID = e.UserID.String()
	}
	return doc
}

func (d eventDoc) toEvent() Event {
	userID, _ := uuid.Parse(d.UserID)
	return Event{
		ID:          d.ID,
		UserID:      userID,
		EventType:   d.EventType,
		Severity:    Severity(d.Severity),
		Description: d.Description,
		IP:          d.IP,
		UserAgent:   d.UserAgent,
		Metadata:    d.Metadata,
		CreatedAt:   d.CreatedAt,
	}
}
