package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// MinRunsToKeep is the number of newest runs rotation never deletes
const MinRunsToKeep = 3

const retentionTimeout = 5 * time.Minute

// RetentionJob deletes archived runs older than the retention period
type RetentionJob struct {
	store         Store
	retentionDays int
	now           func() time.Time
	log           zerolog.Logger
}

// NewRetentionJob creates the job. retentionDays of zero keeps everything.
func NewRetentionJob(store Store, retentionDays int, log zerolog.Logger) *RetentionJob {
	return &RetentionJob{
		store:         store,
		retentionDays: retentionDays,
		now:           time.Now,
		log:           log.With().Str("job", "archive_retention").Logger(),
	}
}

// Name returns the job name
func (j *RetentionJob) Name() string {
	return "archive_retention"
}

// Run rotates the archive with a bounded timeout
func (j *RetentionJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), retentionTimeout)
	defer cancel()

	_, err := j.Rotate(ctx)
	return err
}

// Rotate deletes runs older than the cutoff, always keeping the
// MinRunsToKeep newest. It returns the number of runs deleted.
func (j *RetentionJob) Rotate(ctx context.Context) (int, error) {
	j.log.Info().Int("retention_days", j.retentionDays).Str("backend", j.store.Backend()).Msg("Starting archive rotation")

	entries, err := j.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list archived runs: %w", err)
	}

	if len(entries) <= MinRunsToKeep {
		j.log.Info().Int("count", len(entries)).Msg("Too few runs to rotate")
		return 0, nil
	}
	if j.retentionDays <= 0 {
		return 0, nil
	}

	cutoff := j.now().AddDate(0, 0, -j.retentionDays)
	deleted := 0
	for _, entry := range entries[MinRunsToKeep:] {
		if !entry.CreatedAt.Before(cutoff) {
			continue
		}
		if err := j.store.Delete(ctx, entry.RunID); err != nil {
			j.log.Error().Err(err).Str("run_id", entry.RunID).Msg("Failed to delete archived run")
			continue
		}
		j.log.Info().Str("run_id", entry.RunID).Time("created_at", entry.CreatedAt).Msg("Deleted archived run")
		deleted++
	}

	j.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(entries)-deleted).
		Msg("Archive rotation completed")

	return deleted, nil
}
