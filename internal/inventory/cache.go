package inventory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// defaultMaxAge is used when a fetch response carries no Cache-Control
// max-age directive.
const defaultMaxAge = 4 * time.Hour

// Fetcher loads a tool's index, consulting the on-disk cache before
// making a network request.
type Fetcher struct {
	Client *http.Client
}

// NewFetcher returns a Fetcher with a default HTTP client.
func NewFetcher() *Fetcher {
	return &Fetcher{Client: &http.Client{}}
}

// Load returns the cached index body for tool if its expiry sidecar has
// not passed, otherwise fetches url, persists both files, and returns the
// freshly fetched body.
func (f *Fetcher) Load(ctx context.Context, tool, url, indexFile, expiryFile string) ([]byte, error) {
	if body, ok := readFreshCache(indexFile, expiryFile); ok {
		return body, nil
	}

	body, maxAge, err := f.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := persistCache(indexFile, expiryFile, body, maxAge); err != nil {
		return nil, err
	}

	return body, nil
}

func readFreshCache(indexFile, expiryFile string) ([]byte, bool) {
	expiryRaw, err := os.ReadFile(expiryFile)
	if err != nil {
		return nil, false
	}
	expiry, err := http.ParseTime(strings.TrimSpace(string(expiryRaw)))
	if err != nil {
		return nil, false
	}
	if !time.Now().Before(expiry) {
		return nil, false
	}
	body, err := os.ReadFile(indexFile)
	if err != nil {
		return nil, false
	}
	return body, true
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build index request: %w", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch index %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, 0, fmt.Errorf("index fetch %s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read index response: %w", err)
	}

	return body, parseMaxAge(resp.Header.Get("Cache-Control")), nil
}

func parseMaxAge(cacheControl string) time.Duration {
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		if !strings.HasPrefix(directive, "max-age=") {
			continue
		}
		secs, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age="))
		if err != nil {
			continue
		}
		return time.Duration(secs) * time.Second
	}
	return defaultMaxAge
}

func persistCache(indexFile, expiryFile string, body []byte, maxAge time.Duration) error {
	dir := filepath.Dir(indexFile)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	expiry := time.Now().Add(maxAge).UTC().Format(http.TimeFormat)

	if err := writeAtomic(indexFile, body); err != nil {
		return fmt.Errorf("failed to persist index cache: %w", err)
	}
	if err := writeAtomic(expiryFile, []byte(expiry)); err != nil {
		return fmt.Errorf("failed to persist index expiry: %w", err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, ".jsvm-"+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
