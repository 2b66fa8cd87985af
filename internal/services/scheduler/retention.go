package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/interfaces"
)

// RetentionSweeper prunes job directories older than the configured age on
// a cron schedule. Retention is opt-in; the sweeper is only started when
// enabled in configuration.
type RetentionSweeper struct {
	store  interfaces.ArtifactStore
	config *common.RetentionConfig
	maxAge time.Duration
	cron   *cron.Cron
	logger arbor.ILogger
}

// NewRetentionSweeper creates a sweeper from configuration
func NewRetentionSweeper(store interfaces.ArtifactStore, config *common.RetentionConfig, logger arbor.ILogger) (*RetentionSweeper, error) {
	maxAge, err := time.ParseDuration(config.MaxAge)
	if err != nil {
		return nil, fmt.Errorf("invalid retention max_age '%s': %w", config.MaxAge, err)
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("retention max_age must be positive, got %s", config.MaxAge)
	}

	return &RetentionSweeper{
		store:  store,
		config: config,
		maxAge: maxAge,
		logger: logger,
	}, nil
}

// Start schedules the sweep; no-op when retention is disabled
func (s *RetentionSweeper) Start() error {
	if !s.config.Enabled {
		s.logger.Debug().Msg("Retention sweeper disabled")
		return nil
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.config.Schedule, func() {
		if _, err := s.Sweep(); err != nil {
			s.logger.Warn().Err(err).Msg("Retention sweep failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid retention schedule '%s': %w", s.config.Schedule, err)
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Str("max_age", s.config.MaxAge).
		Msg("Retention sweeper started")
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish
func (s *RetentionSweeper) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
}

// Sweep deletes every terminal job whose last update is older than max_age.
// Queued and processing jobs are never pruned regardless of age. Returns
// the number of jobs deleted.
func (s *RetentionSweeper) Sweep() (int, error) {
	ids, err := s.store.ListJobIDs()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().Add(-s.maxAge)
	deleted := 0
	for _, id := range ids {
		job, err := s.store.GetJob(id)
		if err != nil {
			s.logger.Warn().Err(err).Str("job_id", id).Msg("Skipping unreadable job during sweep")
			continue
		}
		if !job.Status.IsTerminal() || job.UpdatedAt.After(cutoff) {
			continue
		}
		if err := s.store.DeleteJob(id); err != nil {
			s.logger.Warn().Err(err).Str("job_id", id).Msg("Failed to delete expired job")
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.Info().Int("deleted", deleted).Msg("Retention sweep complete")
	}
	return deleted, nil
}
