package shellintegrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPosixFormatter(t *testing.T) {
	f := posixFormatter{}

	assert.Equal(t, `export GOROOT="$HOME/go"`, f.ExportVar("GOROOT", "$HOME/go"))
	assert.Equal(t, `export PATH="$HOME/.jsvm/bin:$HOME/go/bin:$PATH"`, f.ExportPath([]string{"$HOME/.jsvm/bin", "$HOME/go/bin"}))
	assert.Equal(t, ".sh", f.Ext())
}

func TestFishFormatter(t *testing.T) {
	f := fishFormatter{}

	assert.Equal(t, `set -gx GOROOT "$HOME/go"`, f.ExportVar("GOROOT", "$HOME/go"))
	assert.Equal(t, `fish_add_path "$HOME/.jsvm/bin" "$HOME/go/bin"`, f.ExportPath([]string{"$HOME/.jsvm/bin", "$HOME/go/bin"}))
	assert.Equal(t, ".fish", f.Ext())
}

func TestNewFormatter(t *testing.T) {
	assert.Equal(t, ".sh", NewFormatter(ShellPosix).Ext())
	assert.Equal(t, ".fish", NewFormatter(ShellFish).Ext())
}
