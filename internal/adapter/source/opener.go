// Package source opens the input tables, local files or HTTP(S) URLs, and
// decodes them into domain values.
package source

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"
)

// Opener resolves a location to a readable stream. Locations starting with
// http:// or https:// are fetched; anything else is a filesystem path.
type Opener struct {
	httpClient *http.Client
}

// NewOpener creates an Opener whose remote fetches time out after timeout.
func NewOpener(timeout time.Duration) *Opener {
	return &Opener{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// IsRemote reports whether location is an HTTP(S) URL.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Open returns the content at location. A missing file or a 404 response
// wraps fs.ErrNotExist.
func (o *Opener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !IsRemote(location) {
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", location, err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: %w", location, fs.ErrNotExist)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d: %s", location, resp.StatusCode, body)
	}
	return resp.Body, nil
}
