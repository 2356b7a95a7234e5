package source

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// FileRepository is a struct that implements the Repository interface for
// preset setup files stored in a local directory tree.
type FileRepository struct {
	presetSet
	Name string // Name of the preset source
	Path string // Root directory of the preset tree
}

// GetName returns the name of the preset source.
func (f *FileRepository) GetName() string {
	return f.Name
}

// Refresh walks the directory tree and reads every preset setup file.
func (f *FileRepository) Refresh() error {
	if _, err := os.Stat(f.Path); err != nil {
		logrus.WithField("path", f.Path).Debug("error reading preset directory")
		return err
	}
	files, err := readTree(os.DirFS(f.Path), ".", f.Name, func(rel string) string {
		return filepath.Join(f.Path, filepath.FromSlash(rel))
	})
	if err != nil {
		return err
	}
	f.swap(files.files)
	return nil
}

// EmbedRepository is a struct that implements the Repository interface for
// preset setup files held in an fs.FS, e.g. the presets shipped with the
// binary.
type EmbedRepository struct {
	presetSet
	Name string // Name of the preset source
	FS   fs.FS  // File system holding the preset tree
	Root string // Root directory within FS; defaults to "."
}

// GetName returns the name of the preset source.
func (e *EmbedRepository) GetName() string {
	return e.Name
}

// Refresh reads every preset setup file below Root.
func (e *EmbedRepository) Refresh() error {
	root := e.Root
	if root == "" {
		root = "."
	}
	files, err := readTree(e.FS, root, e.Name, func(rel string) string { return rel })
	if err != nil {
		return err
	}
	e.swap(files.files)
	return nil
}

// readTree collects the preset files below root. location maps a path
// relative to root to the location recorded in the preset file.
func readTree(fsys fs.FS, root, source string, location func(rel string) string) (*collector, error) {
	c := newCollector(source)
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsPresetFile(p) {
			return nil
		}
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		rel := p
		if root != "." {
			rel = strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
		}
		return c.add(rel, location(rel), raw)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
