package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// ModuleInfo is what kiln needs from a go.mod file.
type ModuleInfo struct {
	Path string
	// Dir is the directory holding go.mod.
	Dir      string
	Requires map[string]string
}

// Require reports whether go.mod lists modulePath, directly or as an
// indirect requirement.
func (m *ModuleInfo) Require(modulePath string) bool {
	_, ok := m.Requires[modulePath]
	return ok
}

// FindGoModFile searches for go.mod starting at startDir and walking up.
func FindGoModFile(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, "go.mod")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod file not found from %s", startDir)
		}
		dir = parent
	}
}

// ParseGoMod reads a go.mod file.
func ParseGoMod(goModPath string) (*ModuleInfo, error) {
	content, err := os.ReadFile(goModPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read go.mod file: %w", err)
	}
	return parseGoMod(goModPath, content)
}

func parseGoMod(goModPath string, content []byte) (*ModuleInfo, error) {
	mf, err := modfile.Parse(goModPath, content, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.mod file: %w", err)
	}
	if mf.Module == nil {
		return nil, fmt.Errorf("no module declaration found in %s", goModPath)
	}

	info := &ModuleInfo{
		Path:     mf.Module.Mod.Path,
		Dir:      filepath.Dir(goModPath),
		Requires: make(map[string]string, len(mf.Require)),
	}
	for _, r := range mf.Require {
		info.Requires[r.Mod.Path] = r.Mod.Version
	}
	return info, nil
}

// LoadModule finds and reads the go.mod governing dir.
func LoadModule(dir string) (*ModuleInfo, error) {
	path, err := FindGoModFile(dir)
	if err != nil {
		return nil, err
	}
	return ParseGoMod(path)
}
