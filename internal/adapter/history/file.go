// Package history persists the risk history dataset. Every backend replaces
// the whole dataset on Put and reports a missing dataset as
// domain.ErrHistoryNotFound.
package history

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/flood-risk-etl/internal/adapter/csvtable"
	"github.com/couchcryptid/flood-risk-etl/internal/domain"
)

// FileRepository keeps the history as a CSV file on local disk.
// It implements pipeline.HistoryRepository.
type FileRepository struct {
	path   string
	logger *slog.Logger
}

// NewFileRepository creates a repository backed by the CSV file at path.
func NewFileRepository(path string, logger *slog.Logger) *FileRepository {
	return &FileRepository{path: path, logger: logger}
}

// Path returns the file the repository reads and writes.
func (r *FileRepository) Path() string {
	return r.path
}

// Get reads the dataset from disk.
func (r *FileRepository) Get(ctx context.Context) ([]domain.RiskRecord, error) {
	f, err := os.Open(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read history %s: %w", r.path, domain.ErrHistoryNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w: %w", domain.ErrHistoryUnavailable, err)
	}
	defer f.Close()

	records, err := csvtable.ReadHistory(f)
	if err != nil {
		return nil, fmt.Errorf("decode history %s: %w: %w", r.path, domain.ErrHistoryUnavailable, err)
	}
	return records, nil
}

// Put writes the dataset to a temporary file next to the target and renames
// it into place, so readers never observe a partial file.
func (r *FileRepository) Put(ctx context.Context, records []domain.RiskRecord) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*.csv")
	if err != nil {
		return fmt.Errorf("create temp history: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := csvtable.WriteHistory(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp history: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod history: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}

	r.logger.Debug("history written", "path", r.path, "rows", len(records))
	return nil
}
