package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/archive"
	"github.com/aristath/advisor/internal/scheduler"
)

// maintenanceSchedule runs database maintenance hourly at minute 17
const maintenanceSchedule = "0 17 * * * *"

// RegisterJobs creates the scheduler and registers the background jobs
func RegisterJobs(container *Container, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	container.Scheduler = scheduler.New(log)
	instances := &JobInstances{}

	instances.Maintenance = scheduler.NewDatabaseMaintenanceJob(log, container.MarketDB)
	if err := container.Scheduler.AddJob(maintenanceSchedule, instances.Maintenance); err != nil {
		return nil, err
	}

	if container.Archive != nil {
		cfg := container.Config.Archive
		instances.Retention = archive.NewRetentionJob(container.Archive, cfg.RetentionDays, log)
		if err := container.Scheduler.AddJob(cfg.RetentionSchedule, instances.Retention); err != nil {
			return nil, err
		}
	}

	return instances, nil
}
