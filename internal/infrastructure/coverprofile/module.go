package coverprofile

import (
	"bufio"
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/covergate/internal/pathutil"
)

var ErrModuleNotFound = errors.New("module root not found: no go.mod in current or parent directories")

// Module identifies the Go module a profile was recorded in.
type Module struct {
	Path string // import path from the module directive
	Root string // directory holding go.mod
}

// FindModule searches dir and its parents for go.mod and reads the module
// directive.
func FindModule(dir string) (Module, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Module{}, err
	}

	for {
		gomod := filepath.Join(abs, "go.mod")
		if _, err := os.Stat(gomod); err == nil {
			modPath, err := readModulePath(gomod)
			if err != nil {
				return Module{}, err
			}
			return Module{Path: modPath, Root: abs}, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return Module{}, ErrModuleNotFound
		}
		abs = parent
	}
}

func readModulePath(gomod string) (string, error) {
	file, err := pathutil.Open(gomod)
	if err != nil {
		return "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		rest, ok := strings.CutPrefix(line, "module")
		if !ok || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
			continue
		}
		rest, _, _ = strings.Cut(rest, "//")
		return strings.Trim(strings.TrimSpace(rest), `"`), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", errors.New("go.mod has no module directive")
}

// Resolve turns an import-path file name into a slash-separated file path
// under the module root. Files outside the module are returned unchanged.
func (m Module) Resolve(file string) string {
	if m.Path == "" || m.Root == "" {
		return file
	}
	rest, ok := strings.CutPrefix(file, m.Path+"/")
	if !ok {
		return file
	}
	return path.Join(filepath.ToSlash(m.Root), rest)
}
