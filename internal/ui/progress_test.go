package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProgressManagerNonTTY(t *testing.T) {
	var buf bytes.Buffer
	pm := NewProgressManager(&buf)
	assert.False(t, pm.isTTY)

	pm.StartDownload("node@20.0.0", "node 20.0.0")
	assert.Contains(t, buf.String(), "downloading node 20.0.0")
}

func TestProgressManagerCompleteNoopWithoutBar(t *testing.T) {
	var buf bytes.Buffer
	pm := NewProgressManager(&buf)
	pm.Complete("missing")
	pm.SetProgress("missing", 10, 100)
}
