package models

import (
	"path/filepath"
)

// GeneratedFile is one file produced for a package.
type GeneratedFile struct {
	Package     string // package name
	PackagePath string
	Dir         string // package directory, used for in-place output
	FileName    string
	Artifact    string
	Content     []byte
}

// Path returns where the file is written. An empty outRoot writes next to
// the package sources; otherwise files go to <outRoot>/<package path>/.
func (f *GeneratedFile) Path(outRoot string) string {
	if outRoot == "" {
		return filepath.Join(f.Dir, f.FileName)
	}
	return filepath.Join(outRoot, filepath.FromSlash(f.PackagePath), f.FileName)
}

// CollisionRecord is the outcome of resolving one scope-level name.
type CollisionRecord struct {
	Candidate string
	Final     string
	// Existing lists every fully qualified hit, in lookup order.
	Existing []string
	// Replaces lists the hits in other packages, which the new artifact supersedes.
	Replaces []string
}

// Renamed reports whether the candidate was taken.
func (c CollisionRecord) Renamed() bool {
	return c.Final != c.Candidate
}
