package fsxlocal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Abraxas-365/hireline/pkg/fsx"
)

// LocalFileSystem stores files below a base directory
type LocalFileSystem struct {
	basePath string
}

var _ fsx.FileSystem = (*LocalFileSystem)(nil)

// NewLocalFileSystem creates the base directory if needed. An empty base uses the working directory.
func NewLocalFileSystem(basePath string) (*LocalFileSystem, error) {
	if basePath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		basePath = wd
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create base path: %w", err)
	}
	return &LocalFileSystem{basePath: abs}, nil
}

func (fs *LocalFileSystem) GetBasePath() string {
	return fs.basePath
}

// resolve keeps every path inside the base directory
func (fs *LocalFileSystem) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + path)
	full := filepath.Join(fs.basePath, clean)
	if !strings.HasPrefix(full, fs.basePath) {
		return "", fmt.Errorf("path %q escapes base directory", path)
	}
	return full, nil
}

func (fs *LocalFileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	full, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fsx.ErrNotExist
	}
	return data, err
}

func (fs *LocalFileSystem) Exists(ctx context.Context, path string) (bool, error) {
	full, err := fs.resolve(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (fs *LocalFileSystem) WriteFile(ctx context.Context, path string, data []byte, contentType string) error {
	full, err := fs.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

func (fs *LocalFileSystem) DeleteFile(ctx context.Context, path string) error {
	full, err := fs.resolve(path)
	if err != nil {
		return err
	}
	err = os.Remove(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
