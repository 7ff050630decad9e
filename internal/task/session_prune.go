package task

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	// SessionPruneTaskName names the idle session pruning task in logs.
	SessionPruneTaskName = "session_prune"

	logEventSessionsPruned = "sessions_pruned"
	logFieldRemoved        = "removed"
	logFieldCutoff         = "cutoff"
)

// IdleSessionPruner deletes sessions that have not changed since cutoff.
type IdleSessionPruner interface {
	PruneIdle(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionPruneConfig defines how long an untouched session survives.
type SessionPruneConfig struct {
	IdleTimeout time.Duration
}

// SessionPruneJob ends builder sessions that have been idle longer than the timeout.
type SessionPruneJob struct {
	pruner IdleSessionPruner
	logger *zap.Logger
	config SessionPruneConfig
	now    func() time.Time
}

// NewSessionPruneJob builds a SessionPruneJob.
func NewSessionPruneJob(pruner IdleSessionPruner, logger *zap.Logger, config SessionPruneConfig) *SessionPruneJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionPruneJob{
		pruner: pruner,
		logger: logger,
		config: config,
		now:    time.Now,
	}
}

// Run prunes once. A non-positive timeout keeps every session.
func (job *SessionPruneJob) Run(ctx context.Context) error {
	if job.config.IdleTimeout <= 0 {
		return nil
	}
	cutoff := job.now().UTC().Add(-job.config.IdleTimeout)
	removed, pruneErr := job.pruner.PruneIdle(ctx, cutoff)
	if pruneErr != nil {
		return pruneErr
	}
	if removed > 0 {
		job.logger.Info(logEventSessionsPruned, zap.Int64(logFieldRemoved, removed), zap.Time(logFieldCutoff, cutoff))
	}
	return nil
}
