package session

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/database"
)

type sessionDocument struct {
	ID        string            `bson:"_id"`
	Values    map[string]string `bson:"values"`
	ExpiresAt time.Time         `bson:"expiresAt"`
}

// MongoStorage keeps session values in the sessions collection so a
// restart does not sign everybody out. Expiry is enforced by the TTL
// index and, between TTL monitor runs, by the read path.
type MongoStorage struct {
	coll *mongo.Collection
	ttl  time.Duration
	now  func() time.Time
}

func NewMongoStorage(db *mongo.Database, ttl time.Duration) *MongoStorage {
	return &MongoStorage{
		coll: db.Collection(database.SessionsCollection),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (m *MongoStorage) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	var doc sessionDocument
	err := m.coll.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if !doc.ExpiresAt.IsZero() && m.now().After(doc.ExpiresAt) {
		return "", false, nil
	}
	v, ok := doc.Values[key]
	return v, ok, nil
}

// Set writes the value and pushes the session expiry forward.
func (m *MongoStorage) Set(ctx context.Context, sessionID, key, value string) error {
	update := bson.M{
		"$set": bson.M{
			"values." + key: value,
			"expiresAt":     m.now().Add(m.ttl),
		},
	}
	_, err := m.coll.UpdateOne(ctx, bson.M{"_id": sessionID}, update, options.Update().SetUpsert(true))
	return err
}

func (m *MongoStorage) Delete(ctx context.Context, sessionID, key string) error {
	_, err := m.coll.UpdateOne(ctx, bson.M{"_id": sessionID}, bson.M{"$unset": bson.M{"values." + key: ""}})
	return err
}

func (m *MongoStorage) Destroy(ctx context.Context, sessionID string) error {
	_, err := m.coll.DeleteOne(ctx, bson.M{"_id": sessionID})
	return err
}
