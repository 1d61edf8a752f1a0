package procexec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSuccess(t *testing.T) {
	code, err := Run(context.Background(), "true", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestRunNonZeroExit(t *testing.T) {
	code, err := Run(context.Background(), "sh", []string{"-c", "exit 7"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, code)
}

func TestRunBinaryNotFound(t *testing.T) {
	_, err := Run(context.Background(), "jsvm-no-such-binary-xyz", nil, nil)
	assert.Error(t, err)
}
