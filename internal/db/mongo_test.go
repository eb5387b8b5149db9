package db_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/wuwenbin0122/tasklist/internal/db"
	"github.com/wuwenbin0122/tasklist/internal/models"
	"github.com/wuwenbin0122/tasklist/internal/utils"
)

func TestMongoAuditTrail(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set; skipping mongo integration test")
	}

	store, err := db.NewMongo(context.Background(), utils.MongoConfig{
		URI:            uri,
		Database:       uniqueName("tasklist_test_"),
		ConnectTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to connect to mongo: %v", err)
	}
	defer func() {
		ctx := context.Background()
		store.Database.Drop(ctx)
		store.Close(ctx)
	}()

	ctx := context.Background()
	if err := store.EnsureCollections(ctx); err != nil {
		t.Fatalf("ensure collections failed: %v", err)
	}

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, action := range []string{"user.set_flag", "user.update"} {
		err := store.Record(ctx, models.AuditEvent{
			ActorID:    1,
			Action:     action,
			TargetType: "user",
			TargetID:   42,
			Changes:    map[string]any{"is_active": false},
			OccurredAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("record audit event: %v", err)
		}
	}

	events, err := store.AuditTrail(ctx, "user", 42, 10)
	if err != nil {
		t.Fatalf("audit trail: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Action != "user.update" {
		t.Fatalf("expected newest event first, got %s", events[0].Action)
	}
}
