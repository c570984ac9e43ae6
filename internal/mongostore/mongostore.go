// Package mongostore persists runs and rewards in MongoDB
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"stride/internal/store"
)

const (
	runsCollection          = "runs"
	achievementsCollection  = "achievements"
	notificationsCollection = "notifications"

	defaultTimeout = 10 * time.Second
)

// Connect opens a client and pings the primary
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// Disconnect closes a client
func Disconnect(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// Store keeps one document per run and one catalog and one notification-log
// document per owner
type Store struct {
	runs          *mongo.Collection
	achievements  *mongo.Collection
	notifications *mongo.Collection
}

// New creates a Store over a database
func New(db *mongo.Database) *Store {
	return &Store{
		runs:          db.Collection(runsCollection),
		achievements:  db.Collection(achievementsCollection),
		notifications: db.Collection(notificationsCollection),
	}
}

// EnsureIndexes creates the indexes the queries rely on. Call during startup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.runs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "date", Value: -1}},
	})
	return err
}

// catalogDoc holds an owner's whole catalog so a save replaces it atomically
type catalogDoc struct {
	OwnerID      string              `bson:"_id"`
	Achievements []store.Achievement `bson:"achievements"`
	UpdatedAt    time.Time           `bson:"updated_at"`
}

type notificationsDoc struct {
	OwnerID       string                     `bson:"_id"`
	Notifications []store.RewardNotification `bson:"notifications"`
	UpdatedAt     time.Time                  `bson:"updated_at"`
}

// ListRuns returns an owner's runs, newest first
func (s *Store) ListRuns(ctx context.Context, ownerID string) ([]store.Run, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := s.runs.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	runs := []store.Run{}
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// AppendRun inserts a run. Duplicate ids fail with a duplicate key error.
func (s *Store) AppendRun(ctx context.Context, run store.Run) error {
	if run.ID == "" {
		return fmt.Errorf("%w: missing id", store.ErrInvalidRun)
	}
	_, err := s.runs.InsertOne(ctx, run)
	return err
}

// UpdateRun replaces a run owned by run.OwnerID
func (s *Store) UpdateRun(ctx context.Context, run store.Run) error {
	result, err := s.runs.ReplaceOne(ctx, bson.M{"_id": run.ID, "owner_id": run.OwnerID}, run)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return store.ErrRunNotFound
	}
	return nil
}

// DeleteRun removes a run owned by ownerID
func (s *Store) DeleteRun(ctx context.Context, ownerID, id string) error {
	result, err := s.runs.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return store.ErrRunNotFound
	}
	return nil
}

// LoadCatalog returns an owner's achievements in catalog order
func (s *Store) LoadCatalog(ctx context.Context, ownerID string) ([]store.Achievement, error) {
	var doc catalogDoc
	if err := s.achievements.FindOne(ctx, bson.M{"_id": ownerID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []store.Achievement{}, nil
		}
		return nil, err
	}
	if doc.Achievements == nil {
		return []store.Achievement{}, nil
	}
	return doc.Achievements, nil
}

// SaveCatalog replaces an owner's catalog
func (s *Store) SaveCatalog(ctx context.Context, ownerID string, catalog []store.Achievement) error {
	if catalog == nil {
		catalog = []store.Achievement{}
	}
	doc := catalogDoc{OwnerID: ownerID, Achievements: catalog, UpdatedAt: time.Now().UTC()}
	_, err := s.achievements.ReplaceOne(ctx, bson.M{"_id": ownerID}, doc, options.Replace().SetUpsert(true))
	return err
}

// LoadNotifications returns an owner's notification log, newest first
func (s *Store) LoadNotifications(ctx context.Context, ownerID string) ([]store.RewardNotification, error) {
	var doc notificationsDoc
	if err := s.notifications.FindOne(ctx, bson.M{"_id": ownerID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []store.RewardNotification{}, nil
		}
		return nil, err
	}
	if doc.Notifications == nil {
		return []store.RewardNotification{}, nil
	}
	return doc.Notifications, nil
}

// SaveNotifications replaces an owner's notification log
func (s *Store) SaveNotifications(ctx context.Context, ownerID string, log []store.RewardNotification) error {
	if log == nil {
		log = []store.RewardNotification{}
	}
	doc := notificationsDoc{OwnerID: ownerID, Notifications: log, UpdatedAt: time.Now().UTC()}
	_, err := s.notifications.ReplaceOne(ctx, bson.M{"_id": ownerID}, doc, options.Replace().SetUpsert(true))
	return err
}
