package cli

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/toyz/kiln/internal/errors"
	"github.com/toyz/kiln/internal/parser"
	"github.com/toyz/kiln/internal/utils/fileops"
)

// Cleaner removes files written by kiln.
type Cleaner struct {
	files  *fileops.FileOps
	dryRun bool
}

// NewCleaner creates a new cleaner
func NewCleaner(dryRun bool) *Cleaner {
	return &Cleaner{files: fileops.NewFileOps(), dryRun: dryRun}
}

// Clean removes every generated file below dirs and returns the paths
// removed, sorted. "dir/..." walks dir recursively; a plain directory is
// cleaned without descending. Files are only removed when they start with
// the kiln header.
func (c *Cleaner) Clean(dirs []string) ([]string, error) {
	var (
		removed []string
		errs    error
	)
	for _, dir := range dirs {
		found, err := c.find(dir)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		for _, path := range found {
			if !c.dryRun {
				if err := c.files.RemoveFile(path); err != nil {
					errs = multierr.Append(errs, err)
					continue
				}
			}
			removed = append(removed, path)
		}
	}
	sort.Strings(removed)
	return removed, errs
}

func (c *Cleaner) find(pattern string) ([]string, error) {
	recursive := strings.HasSuffix(pattern, "/...") || pattern == "..."
	root := strings.TrimSuffix(strings.TrimSuffix(pattern, "..."), "/")
	if root == "" {
		root = "."
	}
	if !c.files.PathValidator().IsDir(root) {
		return nil, errors.Newf(errors.FileSystemErrorCode, "directory does not exist: %s", root)
	}

	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if !recursive || skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), parser.GeneratedSuffix) && hasGeneratedHeader(path) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapFileSystemError("walk", root, err)
	}
	return found, nil
}

// skipDir matches the directories the go tool ignores for "./...".
func skipDir(name string) bool {
	return name == "vendor" || name == "testdata" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

func hasGeneratedHeader(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.TrimRight(line, "\r\n") == parser.GeneratedHeader
}
