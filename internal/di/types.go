// Package di wires the advisor's components from configuration.
package di

import (
	"github.com/aristath/advisor/internal/archive"
	"github.com/aristath/advisor/internal/clients/sentiment"
	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/database"
	"github.com/aristath/advisor/internal/metrics"
	"github.com/aristath/advisor/internal/modules/marketdata"
	"github.com/aristath/advisor/internal/modules/portfolio"
	"github.com/aristath/advisor/internal/scheduler"
)

// Container holds all wired components
type Container struct {
	Config  *config.Config
	Policy  config.Policy
	Metrics *metrics.Registry

	MarketDB    *database.DB             // Seeded market data (assets, prices, fundamentals, sentiment)
	MarketStore *marketdata.SQLiteStore

	SentimentClient *sentiment.Client // nil when sentiment is read from the market database
	Loader          *marketdata.Loader
	Engine          *portfolio.Engine
	Service         *portfolio.Service

	Archive   archive.Store // nil when the archive backend is "none"
	Scheduler *scheduler.Scheduler
}

// JobInstances holds the scheduled jobs for manual triggering
type JobInstances struct {
	Retention   *archive.RetentionJob // nil without an archive
	Maintenance *scheduler.DatabaseMaintenanceJob
}

// All returns the non-nil jobs
func (j *JobInstances) All() []scheduler.Job {
	var jobs []scheduler.Job
	if j.Retention != nil {
		jobs = append(jobs, j.Retention)
	}
	if j.Maintenance != nil {
		jobs = append(jobs, j.Maintenance)
	}
	return jobs
}

// Close releases the container's resources
func (c *Container) Close() error {
	if c.MarketDB != nil {
		return c.MarketDB.Close()
	}
	return nil
}
