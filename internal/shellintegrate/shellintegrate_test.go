package shellintegrate

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShellType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ShellType
		wantErr bool
	}{
		{name: "posix", input: "posix", want: ShellPosix},
		{name: "fish", input: "fish", want: ShellFish},
		{name: "empty defaults to posix", input: "", want: ShellPosix},
		{name: "bash maps to posix", input: "bash", want: ShellPosix},
		{name: "zsh maps to posix", input: "zsh", want: ShellPosix},
		{name: "unsupported shell", input: "powershell", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseShellType(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unsupported shell type")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGeneratePosix(t *testing.T) {
	home, _ := os.UserHomeDir()
	lines := Generate([]string{home + "/.jsvm/bin"}, NewFormatter(ShellPosix))
	require.Len(t, lines, 1)
	assert.Equal(t, `export PATH="$HOME/.jsvm/bin:$PATH"`, lines[0])
}

func TestGenerateFish(t *testing.T) {
	home, _ := os.UserHomeDir()
	lines := Generate([]string{home + "/.jsvm/bin"}, NewFormatter(ShellFish))
	require.Len(t, lines, 1)
	assert.Equal(t, `fish_add_path "$HOME/.jsvm/bin"`, lines[0])
}

func TestGenerateDedupesAndSkipsEmpty(t *testing.T) {
	home, _ := os.UserHomeDir()
	bin := home + "/.jsvm/bin"
	lines := Generate([]string{bin, "", bin}, NewFormatter(ShellPosix))
	require.Len(t, lines, 1)
	assert.Equal(t, `export PATH="$HOME/.jsvm/bin:$PATH"`, lines[0])
}

func TestGenerateEmpty(t *testing.T) {
	lines := Generate(nil, NewFormatter(ShellPosix))
	assert.Nil(t, lines)
}

func TestToShellPathNotUnderHome(t *testing.T) {
	lines := Generate([]string{"/opt/local/bin"}, NewFormatter(ShellPosix))
	require.Len(t, lines, 1)
	assert.Equal(t, `export PATH="/opt/local/bin:$PATH"`, lines[0])
}
