// Package appdata resolves the per-user application data directory and
// handles export and import of application data files.
package appdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lewisedginton/chatbridge/pkg/logger"
)

// DefaultDir returns the per-user data directory for the given
// application name, rooted at the platform config location.
func DefaultDir(appName string) (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	return filepath.Join(base, appName), nil
}

// EnsureDir creates the directory if it does not already exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o750)
}

// Manager exposes the application data directory and moves data in and
// out of user-chosen files.
type Manager struct {
	dir   string
	files FileProvider
	log   logger.Logger
}

// NewManager creates a Manager rooted at dir.
func NewManager(dir string, files FileProvider, log logger.Logger) *Manager {
	return &Manager{
		dir:   dir,
		files: files,
		log:   log,
	}
}

// Dir returns the resolved application data directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Export writes data to the given path.
func (m *Manager) Export(ctx context.Context, path string, data []byte) error {
	if err := m.files.Write(ctx, path, data); err != nil {
		m.log.Error("export failed",
			logger.StringField("path", path),
			logger.ErrorField(err))
		return fmt.Errorf("failed to export data: %w", err)
	}
	m.log.Info("exported data",
		logger.StringField("path", path),
		logger.IntField("bytes", len(data)))
	return nil
}

// Import reads the content of the given path.
func (m *Manager) Import(ctx context.Context, path string) ([]byte, error) {
	data, err := m.files.Read(ctx, path)
	if err != nil {
		m.log.Error("import failed",
			logger.StringField("path", path),
			logger.ErrorField(err))
		return nil, fmt.Errorf("failed to import data: %w", err)
	}
	m.log.Info("imported data",
		logger.StringField("path", path),
		logger.IntField("bytes", len(data)))
	return data, nil
}
