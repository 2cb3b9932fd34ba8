// Package resources provides the named-resource lookup used to find
// per-program install properties. A resource is a flat file identified by
// name, e.g. "maven.dependency.linux-x86_64.properties".
package resources

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"

	"github.com/spf13/afero"
)

// ErrNotExist is returned by a Loader when no resource has the given name.
var ErrNotExist = fs.ErrNotExist

// Loader returns the content of a named resource, or an error matching
// ErrNotExist when the resource is absent.
type Loader interface {
	Load(name string) ([]byte, error)
}

// FSLoader loads resources from a directory of an afero filesystem.
type FSLoader struct {
	Fs  afero.Fs
	Dir string
}

// NewDirLoader returns a loader reading resources from dir on the host filesystem.
func NewDirLoader(dir string) *FSLoader {
	return &FSLoader{Fs: afero.NewOsFs(), Dir: filepath.Clean(dir)}
}

// Load reads the resource name relative to the loader's directory.
func (l *FSLoader) Load(name string) ([]byte, error) {
	if name == "" || path.Base(name) != name {
		return nil, fmt.Errorf("invalid resource name %q: %w", name, ErrNotExist)
	}
	p := name
	if l.Dir != "" {
		p = filepath.Join(l.Dir, name)
	}
	data, err := afero.ReadFile(l.Fs, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("resource %s: %w", name, ErrNotExist)
		}
		return nil, fmt.Errorf("read resource %s: %w", name, err)
	}
	return data, nil
}

//go:embed bundled/*.properties
var bundled embed.FS

// Bundled returns a loader over the resources compiled into the binary.
func Bundled() *FSLoader {
	sub, err := fs.Sub(bundled, "bundled")
	if err != nil {
		// fs.Sub only fails for an invalid directory name.
		panic(err)
	}
	return &FSLoader{Fs: afero.FromIOFS{FS: sub}}
}

// Chain consults each loader in order and returns the first resource found.
type Chain []Loader

// Load implements Loader.
func (c Chain) Load(name string) ([]byte, error) {
	for _, l := range c {
		data, err := l.Load(name)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrNotExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("resource %s: %w", name, ErrNotExist)
}
