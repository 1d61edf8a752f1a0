package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terassyi/jsvm/internal/version"
)

func mustVersion(t *testing.T, s string) version.Version {
	t.Helper()
	v, err := version.Parse(s)
	require.NoError(t, err)
	return v
}

// fakeRunner records every Run* call it receives, for asserting
// Execute's dispatch and Multiple failure-stop behavior.
type fakeRunner struct {
	calls   []string
	results map[string]int
	errs    map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{results: map[string]int{}, errs: map[string]error{}}
}

func (f *fakeRunner) run(kind string, p Plan) (int, error) {
	key := kind
	if len(p.Targets) > 0 {
		key += ":" + p.Targets[0].Raw
	}
	f.calls = append(f.calls, key)
	return f.results[key], f.errs[key]
}

func (f *fakeRunner) RunTool(ctx context.Context, p Plan) (int, error) { return f.run("tool", p) }
func (f *fakeRunner) RunPackageInstall(ctx context.Context, p Plan) (int, error) {
	return f.run("install", p)
}
func (f *fakeRunner) RunPackageLink(ctx context.Context, p Plan) (int, error) {
	return f.run("link", p)
}
func (f *fakeRunner) RunPackageUpgrade(ctx context.Context, p Plan) (int, error) {
	return f.run("upgrade", p)
}
func (f *fakeRunner) RunInternalInstall(ctx context.Context, p Plan) (int, error) {
	return f.run("internal", p)
}
func (f *fakeRunner) RunUninstall(ctx context.Context, p Plan) (int, error) {
	return f.run("uninstall", p)
}

func TestExecuteDispatchesSingle(t *testing.T) {
	r := newFakeRunner()
	code, err := Execute(context.Background(), r, Plan{Kind: KindPackageInstall, Targets: []Target{{Raw: "eslint"}}})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"install:eslint"}, r.calls)
}

func TestExecuteMultipleStopsAtFirstFailure(t *testing.T) {
	r := newFakeRunner()
	r.results["install:b"] = 9

	plan := Plan{Kind: KindMultiple, Sub: []Plan{
		{Kind: KindPackageInstall, Targets: []Target{{Raw: "a"}}},
		{Kind: KindPackageInstall, Targets: []Target{{Raw: "b"}}},
		{Kind: KindPackageInstall, Targets: []Target{{Raw: "c"}}},
	}}

	code, err := Execute(context.Background(), r, plan)
	require.NoError(t, err)
	assert.Equal(t, 9, code)
	assert.Equal(t, []string{"install:a", "install:b"}, r.calls)
}
