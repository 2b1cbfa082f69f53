package fsx

import (
	"context"
	"errors"
)

// ErrNotExist is returned by every backend when a path has no file
var ErrNotExist = errors.New("fsx: file does not exist")

type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) (bool, error)
}

type FileWriter interface {
	WriteFile(ctx context.Context, path string, data []byte, contentType string) error
	DeleteFile(ctx context.Context, path string) error
}

// FileSystem is the storage used for generated documents and uploads
type FileSystem interface {
	FileReader
	FileWriter
}
