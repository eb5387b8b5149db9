package todo

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultCleanupAge is the age after which anonymous todos are removed.
const DefaultCleanupAge = 10 * time.Minute

// CleanupReport describes one cleanup run. In dry-run mode Todos lists the
// records that would have been deleted and nothing is removed.
type CleanupReport struct {
	Cutoff  time.Time
	DryRun  bool
	Count   int64
	Todos   []CleanupCandidate
	Elapsed time.Duration
}

// CleanupCandidate is an anonymous todo eligible for deletion.
type CleanupCandidate struct {
	ID        int64
	Title     string
	CreatedAt time.Time
}

// CleanupAnonymous deletes anonymous todos created more than maxAge ago. It
// only issues delete-by-filter statements, so it is safe to run alongside
// live traffic.
func (s *Service) CleanupAnonymous(ctx context.Context, maxAge time.Duration, dryRun bool) (CleanupReport, error) {
	if maxAge <= 0 {
		maxAge = DefaultCleanupAge
	}

	started := s.now()
	report := CleanupReport{Cutoff: started.Add(-maxAge), DryRun: dryRun}

	if dryRun {
		todos, err := s.store.ListAnonymousTodosBefore(ctx, report.Cutoff)
		if err != nil {
			return report, fmt.Errorf("list anonymous todos: %w", err)
		}
		for _, t := range todos {
			report.Todos = append(report.Todos, CleanupCandidate{ID: t.ID, Title: t.Title, CreatedAt: t.CreatedAt})
		}
		report.Count = int64(len(todos))
	} else {
		deleted, err := s.store.DeleteAnonymousTodosBefore(ctx, report.Cutoff)
		if err != nil {
			return report, fmt.Errorf("delete anonymous todos: %w", err)
		}
		report.Count = deleted
	}

	report.Elapsed = s.now().Sub(started)
	s.logger.Info("anonymous todo cleanup finished",
		zap.Bool("dry_run", dryRun),
		zap.Int64("count", report.Count),
		zap.Time("cutoff", report.Cutoff),
	)
	return report, nil
}
