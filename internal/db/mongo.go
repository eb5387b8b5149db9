package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wuwenbin0122/tasklist/internal/models"
	"github.com/wuwenbin0122/tasklist/internal/utils"
)

type Mongo struct {
	Client      *mongo.Client
	Database    *mongo.Database
	AuditEvents *mongo.Collection
}

func NewMongo(ctx context.Context, cfg utils.MongoConfig) (*Mongo, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo: uri is required")
	}

	clientOpts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		clientOpts.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(cfg.ConnectTimeout))
	defer cancel()

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	db := client.Database(cfg.Database)
	return &Mongo{
		Client:      client,
		Database:    db,
		AuditEvents: db.Collection("audit_events"),
	}, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	if m == nil || m.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return m.Client.Disconnect(ctx)
}

// EnsureCollections creates the audit indexes: by target for history
// lookups and by actor for review.
func (m *Mongo) EnsureCollections(ctx context.Context) error {
	if m == nil || m.Database == nil {
		return fmt.Errorf("mongo: database not initialised")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := m.AuditEvents.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "target_type", Value: 1}, {Key: "target_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "actor_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo: ensure audit indexes: %w", err)
	}

	return nil
}

type auditDocument struct {
	ActorID    int64          `bson:"actor_id"`
	Action     string         `bson:"action"`
	TargetType string         `bson:"target_type"`
	TargetID   int64          `bson:"target_id"`
	Changes    map[string]any `bson:"changes,omitempty"`
	OccurredAt time.Time      `bson:"occurred_at"`
}

// Record stores an audit event.
func (m *Mongo) Record(ctx context.Context, event models.AuditEvent) error {
	_, err := m.AuditEvents.InsertOne(ctx, auditDocument{
		ActorID:    event.ActorID,
		Action:     event.Action,
		TargetType: event.TargetType,
		TargetID:   event.TargetID,
		Changes:    event.Changes,
		OccurredAt: event.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("mongo: record audit event: %w", err)
	}
	return nil
}

// AuditTrail returns the most recent events for a target, newest first.
func (m *Mongo) AuditTrail(ctx context.Context, targetType string, targetID int64, limit int64) ([]models.AuditEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := m.AuditEvents.Find(ctx, bson.M{"target_type": targetType, "target_id": targetID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: find audit events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []auditDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode audit events: %w", err)
	}

	events := make([]models.AuditEvent, 0, len(docs))
	for _, doc := range docs {
		events = append(events, models.AuditEvent{
			ActorID:    doc.ActorID,
			Action:     doc.Action,
			TargetType: doc.TargetType,
			TargetID:   doc.TargetID,
			Changes:    doc.Changes,
			OccurredAt: doc.OccurredAt,
		})
	}
	return events, nil
}

func timeoutOrDefault(value time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return 10 * time.Second
}
