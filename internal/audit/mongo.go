// Package audit records booking lifecycle events for later inspection.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "booking_audit"

type MongoAuditLogger struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

func NewMongoAuditLogger(db *mongo.Database, logger *slog.Logger) *MongoAuditLogger {
	return &MongoAuditLogger{
		coll:   db.Collection(collectionName),
		logger: logger,
	}
}

// Connect opens a client and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return client, nil
}

type entry struct {
	ID        string    `bson:"_id"`
	Action    string    `bson:"action"`
	UserID    string    `bson:"user_id"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data"`
}

func (a *MongoAuditLogger) LogEvent(ctx context.Context, action string, userID uuid.UUID, data map[string]any) error {
	doc := entry{
		ID:        uuid.NewString(),
		Action:    action,
		UserID:    userID.String(),
		Timestamp: time.Now().UTC(),
		Data:      bson.M(data),
	}

	_, err := a.coll.InsertOne(ctx, doc)
	if err != nil {
		a.logger.Error("failed to insert audit entry", "action", action, "error", err)
		return err
	}

	return nil
}

// NopAuditLogger discards every entry. It is used when no MongoDB URI is configured.
type NopAuditLogger struct{}

func (NopAuditLogger) LogEvent(context.Context, string, uuid.UUID, map[string]any) error {
	return nil
}
