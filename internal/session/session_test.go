package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terassyi/jsvm/internal/layout"
	"github.com/terassyi/jsvm/internal/platform"
	"github.com/terassyi/jsvm/internal/version"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	l, err := layout.New(layout.WithRoot(t.TempDir()))
	require.NoError(t, err)
	return New(l)
}

func TestHooksLoadsOnceAndCaches(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, os.WriteFile(s.Layout.HooksFile(), []byte("[node]\nindex = { prefix = \"https://example.com/node\" }\n"), 0o644))

	h1, err := s.Hooks()
	require.NoError(t, err)
	url, ok := h1.IndexURL("node")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/node", url)

	h2, err := s.Hooks()
	require.NoError(t, err)
	assert.Same(t, h1, h2)
}

func TestHooksMissingFileIsEmptyConfig(t *testing.T) {
	s := newTestSession(t)
	h, err := s.Hooks()
	require.NoError(t, err)
	_, ok := h.IndexURL("node")
	assert.False(t, ok)
}

func TestProjectFindsNearestManifest(t *testing.T) {
	s := newTestSession(t)

	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(`{"name":"root","toolchain":{"node":"18.0.0"}}`), 0o644))

	t.Chdir(sub)

	m, err := s.Project()
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "root", m.Name)

	p, err := s.ProjectPlatform()
	require.NoError(t, err)
	require.True(t, p.Node.IsSet())
	assert.Equal(t, "18.0.0", p.Node.Value.String())
	assert.Equal(t, platform.SourceProject, p.Node.Source)
}

func TestProjectNoneWhenNoManifest(t *testing.T) {
	s := newTestSession(t)
	t.Chdir(t.TempDir())

	m, err := s.Project()
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestDefaultPlatformRoundTripsThroughSession(t *testing.T) {
	s := newTestSession(t)

	got, err := s.DefaultPlatform()
	require.NoError(t, err)
	assert.True(t, got.IsNone())

	node, err := version.Parse("20.11.0")
	require.NoError(t, err)
	want := platform.Platform{Node: platform.NewSourced(node, platform.SourceDefault)}
	require.NoError(t, s.SetDefaultPlatform(want))

	got, err = s.DefaultPlatform()
	require.NoError(t, err)
	require.True(t, got.Node.IsSet())
	assert.Equal(t, "20.11.0", got.Node.Value.String())
}

func TestIndexFetchesAndCachesOncePerTool(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"tag_name":"v20.11.0","assets":[{"name":"node-v20.11.0-linux-x64.tar.gz"}]}]`))
	}))
	defer srv.Close()

	s := newTestSession(t)
	require.NoError(t, os.WriteFile(s.Layout.HooksFile(), []byte("[node]\nindex = { prefix = \""+srv.URL+"\" }\n"), 0o644))

	idx1, err := s.Index(context.Background(), "node")
	require.NoError(t, err)
	require.Len(t, idx1.Entries, 1)
	assert.Equal(t, "20.11.0", idx1.Entries[0].Version)

	idx2, err := s.Index(context.Background(), "node")
	require.NoError(t, err)
	assert.Same(t, idx1, idx2)
	assert.Equal(t, 1, calls)
}

func TestEventsRecordAndPublishToFile(t *testing.T) {
	s := newTestSession(t)
	s.Record("install", "node@20.11.0", map[string]string{"version": "20.11.0"})
	s.Record("shim", "node", nil)

	eventsFile := filepath.Join(t.TempDir(), "events.json")
	t.Setenv(EventsFileEnvVar, eventsFile)

	require.NoError(t, s.Publish(context.Background()))

	data, err := os.ReadFile(eventsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "install")
	assert.Contains(t, string(data), "node@20.11.0")
}

func TestPublishNoopWithoutEventsOrHook(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Publish(context.Background()))
}
