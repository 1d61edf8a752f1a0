package distro

import (
	"bufio"
	"os"
	"regexp"
)

// shebangRE matches a script's interpreter line, stripping an optional
// "/usr/bin/env" indirection, per the script-loader detection rule.
var shebangRE = regexp.MustCompile(`^#!\s*(?:/usr/bin/env)?\s*(?P<exe>\S+) ?(?P<args>.*)$`)

// ScriptLoader is the {command, args} pair a shim invokes a binary
// through on platforms without native "#!" support.
type ScriptLoader struct {
	Command string
	Args    string
}

// DetectScriptLoader scans the first line of binPath for a shebang. It
// returns nil, nil if the file has no shebang (the platform can exec it
// directly).
func DetectScriptLoader(binPath string) (*ScriptLoader, error) {
	f, err := os.Open(binPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, scanner.Err()
	}
	line := scanner.Text()

	m := shebangRE.FindStringSubmatch(line)
	if m == nil {
		return nil, nil
	}
	return &ScriptLoader{Command: m[1], Args: m[2]}, nil
}
