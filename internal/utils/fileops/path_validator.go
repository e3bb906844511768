package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator cleans paths before kiln touches the file system.
type PathValidator struct{}

// NewPathValidator creates a new PathValidator instance
func NewPathValidator() *PathValidator {
	return &PathValidator{}
}

// Clean rejects empty paths and paths holding a NUL byte.
func (pv *PathValidator) Clean(filePath string) (string, error) {
	if filePath == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}
	if strings.ContainsRune(filePath, 0) {
		return "", fmt.Errorf("invalid file path: %q", filePath)
	}
	return filepath.Clean(filePath), nil
}

// Within reports whether path lies inside root.
func (pv *PathValidator) Within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// IsDir checks if a path exists and is a directory
func (pv *PathValidator) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsFile checks if a path exists and is a regular file
func (pv *PathValidator) IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
