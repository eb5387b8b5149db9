package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/tasklist/internal/metrics"
	"github.com/wuwenbin0122/tasklist/internal/todo"
	"github.com/wuwenbin0122/tasklist/internal/utils"
)

const cleanupTimeout = time.Minute

// ScheduleCleanup registers the anonymous todo cleanup on a cron scheduler.
// It returns nil when no schedule is configured. The caller starts and stops
// the scheduler.
func ScheduleCleanup(todos *todo.Service, cfg utils.CleanupConfig, logger *zap.Logger) (*cron.Cron, error) {
	if cfg.Schedule == "" {
		return nil, nil
	}

	scheduler := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	_, err := scheduler.AddFunc(cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()

		report, err := todos.CleanupAnonymous(ctx, cfg.MaxAge, false)
		if err != nil {
			logger.Error("scheduled cleanup failed", zap.Error(err))
			return
		}
		metrics.AnonymousTodosCleaned.Add(float64(report.Count))
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup: invalid schedule %q: %w", cfg.Schedule, err)
	}

	return scheduler, nil
}
