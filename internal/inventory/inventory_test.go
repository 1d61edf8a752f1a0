package inventory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terassyi/jsvm/internal/version"
)

func TestParseArrayOfReleases(t *testing.T) {
	body := []byte(`[
		{"tag_name":"v20.1.0","assets":[{"name":"node-v20.1.0-linux-x64.tar.gz"}]},
		{"tag_name":"v18.0.0","assets":[{"name":"node-v18.0.0-linux-x64.tar.gz"}]}
	]`)

	idx, err := ParseArrayOfReleases(body)
	require.NoError(t, err)
	require.Len(t, idx.Entries, 2)
	assert.Equal(t, "20.1.0", idx.Entries[0].Version)
}

func TestParseNameVersions(t *testing.T) {
	body := []byte(`{
		"dist-tags": {"latest": "8.1.5"},
		"versions": {
			"8.1.5": {"version": "8.1.5", "dist": {"tarball": "https://example/8.1.5.tgz"}},
			"8.0.0": {"version": "8.0.0", "dist": {"tarball": "https://example/8.0.0.tgz"}}
		}
	}`)

	idx, err := ParseNameVersions(body)
	require.NoError(t, err)
	require.Len(t, idx.Entries, 2)
	assert.Equal(t, "8.1.5", idx.DistTags["latest"])
}

func TestResolveExact(t *testing.T) {
	idx := &Index{Entries: []Entry{{Version: "20.0.0"}, {Version: "18.0.0"}}}
	spec, err := version.ParseSpec("18.0.0")
	require.NoError(t, err)

	e, err := Resolve("node", idx, spec)
	require.NoError(t, err)
	assert.Equal(t, "18.0.0", e.Version)
}

func TestResolveLTS(t *testing.T) {
	idx := &Index{Entries: []Entry{{Version: "21.0.0"}, {Version: "20.0.0", LTS: true}}}
	spec, err := version.ParseSpec("lts")
	require.NoError(t, err)

	e, err := Resolve("node", idx, spec)
	require.NoError(t, err)
	assert.Equal(t, "20.0.0", e.Version)
}

func TestResolveLTSAliasesToLatestForNonNode(t *testing.T) {
	idx := &Index{Entries: []Entry{{Version: "1.12.99"}, {Version: "1.0.0"}}}
	spec, err := version.ParseSpec("lts")
	require.NoError(t, err)

	e, err := Resolve("yarn", idx, spec)
	require.NoError(t, err)
	assert.Equal(t, "1.12.99", e.Version)
}

func TestResolveRange(t *testing.T) {
	idx := &Index{Entries: []Entry{{Version: "18.0.0"}, {Version: "20.5.0"}, {Version: "20.0.0"}}}
	spec, err := version.ParseSpec("^20.0.0")
	require.NoError(t, err)

	e, err := Resolve("node", idx, spec)
	require.NoError(t, err)
	assert.Equal(t, "20.5.0", e.Version)
}

func TestResolveNoMatch(t *testing.T) {
	idx := &Index{Entries: []Entry{{Version: "18.0.0"}}}
	spec, err := version.ParseSpec("99.0.0")
	require.NoError(t, err)

	_, err = Resolve("node", idx, spec)
	require.Error(t, err)
	var noMatch *ErrNoMatch
	require.ErrorAs(t, err, &noMatch)
}

func TestFetcherCachesUntilExpiry(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	indexFile := filepath.Join(dir, "index.json")
	expiryFile := filepath.Join(dir, "index.json.expires")

	f := NewFetcher()
	_, err := f.Load(context.Background(), "node", srv.URL, indexFile, expiryFile)
	require.NoError(t, err)
	assert.Equal(t, 1, requests)

	_, err = f.Load(context.Background(), "node", srv.URL, indexFile, expiryFile)
	require.NoError(t, err)
	assert.Equal(t, 1, requests, "second load should hit cache")
}

func TestFetcherRefetchesAfterExpiry(t *testing.T) {
	dir := t.TempDir()
	indexFile := filepath.Join(dir, "index.json")
	expiryFile := filepath.Join(dir, "index.json.expires")

	require.NoError(t, os.WriteFile(indexFile, []byte(`[]`), 0o644))
	past := time.Now().Add(-1 * time.Second).UTC().Format(http.TimeFormat)
	require.NoError(t, os.WriteFile(expiryFile, []byte(past), 0o644))

	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`[{"tag_name":"v1.0.0","assets":[]}]`))
	}))
	defer srv.Close()

	f := NewFetcher()
	body, err := f.Load(context.Background(), "node", srv.URL, indexFile, expiryFile)
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
	assert.Contains(t, string(body), "1.0.0")
}
