package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/metrics"
	"github.com/aristath/advisor/internal/modules/portfolio"
)

// DiskStore keeps one msgpack file per run in a directory
type DiskStore struct {
	dir     string
	metrics *metrics.Registry
	log     zerolog.Logger
}

// NewDiskStore creates the directory if needed
func NewDiskStore(dir string, m *metrics.Registry, log zerolog.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &DiskStore{
		dir:     dir,
		metrics: m,
		log:     log.With().Str("component", "archive").Str("backend", config.ArchiveBackendDisk).Logger(),
	}, nil
}

// Backend returns the backend name
func (d *DiskStore) Backend() string {
	return config.ArchiveBackendDisk
}

// Save writes the run atomically (temp file, then rename)
func (d *DiskStore) Save(ctx context.Context, outcome *portfolio.Outcome) (err error) {
	defer func() { d.metrics.RecordArchiveWrite(d.Backend(), result(err)) }()

	data, err := encode(outcome)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.dir, ".run-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write run %s: %w", outcome.RunID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close run %s: %w", outcome.RunID, err)
	}
	if err := os.Rename(tmp.Name(), d.path(outcome.RunID)); err != nil {
		return fmt.Errorf("failed to store run %s: %w", outcome.RunID, err)
	}

	d.log.Debug().Str("run_id", outcome.RunID).Int("bytes", len(data)).Msg("Archived run")
	return nil
}

// Load reads one run
func (d *DiskStore) Load(ctx context.Context, runID string) (*portfolio.Outcome, error) {
	data, err := os.ReadFile(d.path(runID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", runID, portfolio.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run %s: %w", runID, err)
	}
	return decode(data)
}

// List returns archived runs, newest first
func (d *DiskStore) List(ctx context.Context) ([]Entry, error) {
	files, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list archive directory: %w", err)
	}

	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, fileExtension) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			d.log.Warn().Err(err).Str("file", name).Msg("Failed to stat archived run")
			continue
		}
		entries = append(entries, Entry{
			RunID:     strings.TrimSuffix(name, fileExtension),
			CreatedAt: info.ModTime().UTC(),
			SizeBytes: info.Size(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// Delete removes one run
func (d *DiskStore) Delete(ctx context.Context, runID string) error {
	if err := os.Remove(d.path(runID)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", runID, portfolio.ErrRunNotFound)
		}
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	return nil
}

func (d *DiskStore) path(runID string) string {
	return filepath.Join(d.dir, objectName(filepath.Base(runID)))
}
