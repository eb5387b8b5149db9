package app

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wuwenbin0122/tasklist/internal/memstore"
	"github.com/wuwenbin0122/tasklist/internal/todo"
	"github.com/wuwenbin0122/tasklist/internal/utils"
)

func TestScheduleCleanup(t *testing.T) {
	todos := todo.NewService(memstore.New(), nil)
	logger := zap.NewNop()

	scheduler, err := ScheduleCleanup(todos, utils.CleanupConfig{}, logger)
	if err != nil || scheduler != nil {
		t.Fatalf("expected no scheduler without a schedule, got %v %v", scheduler, err)
	}

	if _, err := ScheduleCleanup(todos, utils.CleanupConfig{Schedule: "every tuesday", MaxAge: time.Minute}, logger); err == nil {
		t.Fatalf("expected invalid schedule to fail")
	}

	scheduler, err = ScheduleCleanup(todos, utils.CleanupConfig{Schedule: "@every 1m", MaxAge: time.Minute}, logger)
	if err != nil {
		t.Fatalf("schedule cleanup: %v", err)
	}
	if entries := scheduler.Entries(); len(entries) != 1 {
		t.Fatalf("expected one cron entry, got %d", len(entries))
	}
}
