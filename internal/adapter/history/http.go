package history

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/couchcryptid/flood-risk-etl/internal/adapter/csvtable"
	"github.com/couchcryptid/flood-risk-etl/internal/adapter/source"
	"github.com/couchcryptid/flood-risk-etl/internal/domain"
)

// HTTPRepository reads the published history from a URL (typically the raw
// file in the dashboard repository) and writes the merged result to a local
// file for the publishing job to push.
// It implements pipeline.HistoryRepository.
type HTTPRepository struct {
	url    string
	opener *source.Opener
	out    *FileRepository
	logger *slog.Logger
}

// NewHTTPRepository creates a repository that downloads from url and writes
// to out.
func NewHTTPRepository(url string, opener *source.Opener, out *FileRepository, logger *slog.Logger) *HTTPRepository {
	return &HTTPRepository{url: url, opener: opener, out: out, logger: logger}
}

// Get downloads and decodes the history. A 404 means no history has been
// published yet; any other failure means it exists but cannot be trusted.
func (r *HTTPRepository) Get(ctx context.Context) ([]domain.RiskRecord, error) {
	body, err := r.opener.Open(ctx, r.url)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("download history: %w", domain.ErrHistoryNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("download history: %w: %w", domain.ErrHistoryUnavailable, err)
	}
	defer body.Close()

	records, err := csvtable.ReadHistory(body)
	if err != nil {
		return nil, fmt.Errorf("decode history: %w: %w", domain.ErrHistoryUnavailable, err)
	}
	r.logger.Debug("history downloaded", "url", r.url, "rows", len(records))
	return records, nil
}

// Put writes the dataset to the local output file.
func (r *HTTPRepository) Put(ctx context.Context, records []domain.RiskRecord) error {
	return r.out.Put(ctx, records)
}
