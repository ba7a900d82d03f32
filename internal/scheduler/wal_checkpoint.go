package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/database"
)

// walWarnFrames is the WAL size above which a checkpoint is forced
const walWarnFrames = 1000

// DatabaseMaintenanceJob checks database integrity and keeps WAL files small
type DatabaseMaintenanceJob struct {
	databases []*database.DB
	timeout   time.Duration
	log       zerolog.Logger
}

// NewDatabaseMaintenanceJob creates the job; nil databases are ignored
func NewDatabaseMaintenanceJob(log zerolog.Logger, dbs ...*database.DB) *DatabaseMaintenanceJob {
	var databases []*database.DB
	for _, db := range dbs {
		if db != nil {
			databases = append(databases, db)
		}
	}
	return &DatabaseMaintenanceJob{
		databases: databases,
		timeout:   time.Minute,
		log:       log.With().Str("job", "database_maintenance").Logger(),
	}
}

// Name returns the job name
func (j *DatabaseMaintenanceJob) Name() string {
	return "database_maintenance"
}

// Run health-checks every database and checkpoints large WAL files.
// A failed health check fails the job; checkpoint problems are only logged.
func (j *DatabaseMaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	checked := 0
	for _, db := range j.databases {
		if err := db.HealthCheck(ctx); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("Database health check failed")
			return fmt.Errorf("database %s unhealthy: %w", db.Name(), err)
		}

		// PRAGMA wal_checkpoint returns: busy, log, checkpointed
		var busy, frames, checkpointed int
		err := db.Conn().QueryRowContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed)
		if err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to check WAL checkpoint")
			continue
		}

		if frames > walWarnFrames {
			j.log.Warn().
				Str("database", db.Name()).
				Int("wal_frames", frames).
				Int("checkpointed", checkpointed).
				Msg("WAL file is large, truncating")
			if _, err := db.Conn().ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
				j.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to truncate WAL")
			}
		} else {
			j.log.Debug().Str("database", db.Name()).Int("wal_frames", frames).Msg("WAL checkpoint status OK")
		}
		checked++
	}

	j.log.Info().Int("checked", checked).Msg("Database maintenance completed")
	return nil
}
