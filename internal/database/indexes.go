package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"storefront/internal/logging"
)

const SessionsCollection = "sessions"

// SessionTTLIndex expires session documents once expiresAt has passed.
func SessionTTLIndex() mongo.IndexModel {
	return mongo.IndexModel{
		Keys: bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().
			SetName("expiresAt_ttl").
			SetExpireAfterSeconds(0),
	}
}

func EnsureSessionIndexes(db *mongo.Database, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger = logging.Component(logger, "database")
	indexes := db.Collection(SessionsCollection).Indexes()

	logger.Info("creating session index", zap.String("index", "expiresAt_ttl"))
	if _, err := indexes.CreateOne(ctx, SessionTTLIndex()); err != nil {
		logger.Error("session index error", zap.Error(err))
		return err
	}
	logger.Info("session index created", zap.String("index", "expiresAt_ttl"))
	return nil
}
