// Package fileops writes and removes generated files.
package fileops

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/toyz/kiln/internal/errors"
)

// Outcome of a write.
type Outcome int

const (
	Created Outcome = iota
	Updated
	Unchanged
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	}
	return "unchanged"
}

// FileOps writes files below an optional root.
type FileOps struct {
	pathValidator *PathValidator
	perm          os.FileMode
}

// NewFileOps creates a FileOps writing files with mode 0644.
func NewFileOps() *FileOps {
	return &FileOps{pathValidator: NewPathValidator(), perm: 0o644}
}

// PathValidator returns the path validator instance
func (fo *FileOps) PathValidator() *PathValidator {
	return fo.pathValidator
}

// WriteFile replaces filePath with content through a temporary file in
// the same directory. Identical content is left untouched.
func (fo *FileOps) WriteFile(filePath string, content []byte) (Outcome, error) {
	cleanPath, err := fo.pathValidator.Clean(filePath)
	if err != nil {
		return Unchanged, err
	}

	outcome := Created
	if existing, err := os.ReadFile(cleanPath); err == nil {
		if bytes.Equal(existing, content) {
			return Unchanged, nil
		}
		outcome = Updated
	}

	dir := filepath.Dir(cleanPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Unchanged, errors.WrapFileSystemError("create directory", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(cleanPath)+".*")
	if err != nil {
		return Unchanged, errors.WrapFileSystemError("create", cleanPath, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return Unchanged, errors.WrapFileSystemError("write", cleanPath, err)
	}
	if err := tmp.Chmod(fo.perm); err != nil {
		tmp.Close()
		return Unchanged, errors.WrapFileSystemError("chmod", cleanPath, err)
	}
	if err := tmp.Close(); err != nil {
		return Unchanged, errors.WrapFileSystemError("write", cleanPath, err)
	}
	if err := os.Rename(tmp.Name(), cleanPath); err != nil {
		return Unchanged, errors.WrapFileSystemError("rename", cleanPath, err)
	}
	return outcome, nil
}

// RemoveFile removes a file. A missing file is not an error.
func (fo *FileOps) RemoveFile(filePath string) error {
	cleanPath, err := fo.pathValidator.Clean(filePath)
	if err != nil {
		return err
	}
	if err := os.Remove(cleanPath); err != nil && !os.IsNotExist(err) {
		return errors.WrapFileSystemError("remove", cleanPath, err)
	}
	return nil
}

// ReadDir reads a directory.
func (fo *FileOps) ReadDir(dirPath string) ([]os.DirEntry, error) {
	cleanPath, err := fo.pathValidator.Clean(dirPath)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(cleanPath)
	if err != nil {
		return nil, errors.WrapFileSystemError("read directory", cleanPath, err)
	}
	return entries, nil
}
