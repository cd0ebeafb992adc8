package file

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmatrix/pkg/domain/interfaces"
)

// keyPattern restricts keys to names that are safe as file names
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// File stores each key as <dir>/<key>.json
type File struct {
	dir string
}

var _ interfaces.Storage = &File{}

// New creates the directory if needed and returns a File storage rooted at it
func New(dir string) (*File, error) {
	if dir == "" {
		return nil, goerr.New("storage directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve storage directory", goerr.V("dir", dir))
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, goerr.Wrap(err, "failed to create storage directory", goerr.V("dir", abs))
	}
	return &File{dir: abs}, nil
}

// Dir returns the absolute storage directory
func (f *File) Dir() string {
	return f.dir
}

func (f *File) path(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", goerr.New("invalid storage key", goerr.V("key", key))
	}
	return filepath.Join(f.dir, key+".json"), nil
}

func (f *File) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := f.path(key)
	if err != nil {
		return nil, err
	}

	// #nosec G304 - path is built from a validated key inside the storage directory
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(interfaces.ErrKeyNotFound, "value not found", goerr.V("key", key))
		}
		return nil, goerr.Wrap(err, "failed to read value", goerr.V("key", key), goerr.V("path", path))
	}
	return data, nil
}

// Put writes to a temporary file and renames it over the target so a
// reader never observes a partially written value.
func (f *File) Put(ctx context.Context, key string, value []byte) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, "."+key+".*.tmp")
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary file", goerr.V("key", key))
	}
	tmpName := tmp.Name()
	defer func() {
		// Already renamed on success; this only cleans up failures
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return goerr.Wrap(err, "failed to write value", goerr.V("key", key))
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close temporary file", goerr.V("key", key))
	}
	if err := os.Rename(tmpName, path); err != nil {
		return goerr.Wrap(err, "failed to replace value", goerr.V("key", key), goerr.V("path", path))
	}
	return nil
}

func (f *File) Delete(ctx context.Context, key string) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return goerr.Wrap(err, "failed to delete value", goerr.V("key", key))
	}
	return nil
}

func (f *File) Close() error {
	return nil
}
