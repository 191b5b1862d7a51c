package rewrite

import (
	"io/fs"
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
)

// 📁 FileSystem is the tree a Rewriter scans. Names are slash separated and
// relative to Root.
type FileSystem interface {
	fs.ReadFileFS
	fs.StatFS

	// WriteFile replaces the full content of an existing file
	WriteFile(name string, data []byte) error

	// Root is the display path of the tree
	Root() string
}

// OSFileSystem is a FileSystem backed by a host directory
type OSFileSystem struct {
	root string
	fsys fs.FS
}

var _ FileSystem = (*OSFileSystem)(nil)

// 🏭 NewOSFileSystem creates a FileSystem rooted at dir. The directory is not
// checked here; a missing root is reported by Rewriter.Run.
func NewOSFileSystem(dir string) *OSFileSystem {
	return &OSFileSystem{
		root: dir,
		fsys: os.DirFS(dir),
	}
}

func (o *OSFileSystem) Root() string {
	return o.root
}

func (o *OSFileSystem) Open(name string) (fs.File, error) {
	return o.fsys.Open(name)
}

func (o *OSFileSystem) ReadFile(name string) ([]byte, error) {
	return fs.ReadFile(o.fsys, name)
}

func (o *OSFileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	return fs.ReadDir(o.fsys, name)
}

func (o *OSFileSystem) Stat(name string) (fs.FileInfo, error) {
	return fs.Stat(o.fsys, name)
}

// WriteFile truncates and rewrites name, keeping its permission bits
func (o *OSFileSystem) WriteFile(name string, data []byte) error {
	if !fs.ValidPath(name) {
		return &fs.PathError{Op: "write", Path: name, Err: fs.ErrInvalid}
	}

	full := filepath.Join(o.root, filepath.FromSlash(name))
	info, err := os.Stat(full)
	if err != nil {
		return errors.Errorf("stat before write: %w", err)
	}

	if err := os.WriteFile(full, data, info.Mode().Perm()); err != nil {
		return errors.Errorf("writing file: %w", err)
	}
	return nil
}
