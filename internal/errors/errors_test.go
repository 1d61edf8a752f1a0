package errors

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	e := New(CodeNoMatchNode, "no matching node version for \"99.0.0\"")
	assert.Equal(t, "no matching node version for \"99.0.0\"", e.Error())
}

func TestErrorWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("boom")
	e := Wrap(CodeDownloadToolNetwork, "failed to download", cause)
	assert.Equal(t, "failed to download: boom", e.Error())
	assert.Equal(t, cause, e.Unwrap())
}

func TestErrorIsMatchesByCode(t *testing.T) {
	e1 := New(CodeNoPlatform, "no platform")
	e2 := New(CodeNoPlatform, "no platform (different message)")
	e3 := New(CodeNoPinnedNode, "different code")

	assert.True(t, e1.Is(e2))
	assert.False(t, e1.Is(e3))
	assert.True(t, stderrors.Is(e1, e2))
}

func TestExitCodeMapping(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeBareVersionInvocation, 2},
		{CodeNoMatchNode, 3},
		{CodeRecursionLimit, 4},
		{CodeDownloadToolNetwork, 5},
		{CodeCreateDir, 6},
		{CodeNoPinnedNode, 7},
		{CodeBinaryNotFound, 8},
		{CodeBinaryExec, 9},
		{CodeUnknown, 1},
	}
	for _, tt := range tests {
		e := New(tt.code, "msg")
		assert.Equal(t, tt.want, e.ExitCode(), tt.code)
	}
}

func TestWithHintAndDetail(t *testing.T) {
	e := New(CodeNoPinnedNode, "cannot pin yarn").
		WithHint("pin node first").
		WithDetail("manifest", "/tmp/package.json")
	assert.Equal(t, "pin node first", e.Hint)
	assert.Equal(t, "/tmp/package.json", e.Details["manifest"])
}

func TestFormatterRendersCodeAndHint(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf, true)

	e := New(CodeNoPinnedNode, "Cannot pin Yarn because the Node version is not pinned").
		WithHint("run: jsvm pin node@lts")

	out := f.Format(e)
	require.Contains(t, out, "no-pinned-node")
	require.Contains(t, out, "Cannot pin Yarn")
	require.Contains(t, out, "run: jsvm pin node@lts")
}
