// Package archive persists completed pipeline runs on local disk or S3 and
// rotates old runs out on a schedule.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/metrics"
	"github.com/aristath/advisor/internal/modules/portfolio"
)

const fileExtension = ".msgpack"

// Entry describes one archived run
type Entry struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}

// Store is a run archive backend
type Store interface {
	portfolio.RunArchive
	// List returns archived runs, newest first
	List(ctx context.Context) ([]Entry, error)
	Delete(ctx context.Context, runID string) error
	Backend() string
}

// New builds the store selected by cfg. The "none" backend returns a nil Store.
func New(ctx context.Context, cfg config.ArchiveConfig, m *metrics.Registry, log zerolog.Logger) (Store, error) {
	switch cfg.Backend {
	case config.ArchiveBackendNone, "":
		return nil, nil
	case config.ArchiveBackendDisk:
		store, err := NewDiskStore(cfg.Dir, m, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.ArchiveBackendS3:
		store, err := NewS3Store(ctx, cfg, m, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}

func encode(outcome *portfolio.Outcome) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(outcome); err != nil {
		return nil, fmt.Errorf("failed to encode run %s: %w", outcome.RunID, err)
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (*portfolio.Outcome, error) {
	var outcome portfolio.Outcome
	if err := msgpack.Unmarshal(data, &outcome); err != nil {
		return nil, fmt.Errorf("failed to decode run: %w", err)
	}
	outcome.CreatedAt = outcome.CreatedAt.UTC()
	return &outcome, nil
}

func objectName(runID string) string {
	return runID + fileExtension
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
