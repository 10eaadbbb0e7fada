package appdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileProvider defines the interface for file storage operations used
// by the data manager. Implementations can target the local filesystem
// or an in-memory store for tests.
type FileProvider interface {
	// Read reads the entire content of a file
	Read(ctx context.Context, path string) ([]byte, error)

	// Write writes data to a file, creating it if it doesn't exist
	Write(ctx context.Context, path string, data []byte) error

	// Exists checks if a file exists
	Exists(ctx context.Context, path string) (bool, error)
}

// LocalFileProvider implements FileProvider for the local filesystem.
// Paths are interpreted as-is; callers pass absolute paths chosen by
// the user.
type LocalFileProvider struct{}

// NewLocalFileProvider creates a new local file provider
func NewLocalFileProvider() *LocalFileProvider {
	return &LocalFileProvider{}
}

// Read reads a file from the local filesystem
func (p *LocalFileProvider) Read(_ context.Context, path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Write writes data to a local file
func (p *LocalFileProvider) Write(_ context.Context, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Exists checks if a file exists on the local filesystem
func (p *LocalFileProvider) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
