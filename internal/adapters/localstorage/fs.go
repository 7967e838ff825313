package localstorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	// manifestDir holds run manifests inside an output directory.
	manifestDir = ".runs"
	// partialDir holds in-flight downloads so that a leftover partial never
	// shows up next to the finished files.
	partialDir = ".tmp"
)

// LocalStorage implements ports.Storage for the local filesystem.
type LocalStorage struct{}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{}
}

// EnsureDir creates the directory.
func (s *LocalStorage) EnsureDir(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// ListNames returns the names of every entry in dir.
func (s *LocalStorage) ListNames(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// SaveFile streams reader into dir/.tmp/<filename>.part and renames it into
// dir once complete. The partial file is removed on failure, and the .tmp
// directory too when nothing else is left in it.
func (s *LocalStorage) SaveFile(ctx context.Context, dir, filename string, reader io.Reader) (string, error) {
	tmpDir := filepath.Join(dir, partialDir)
	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", tmpDir, err)
	}
	defer os.Remove(tmpDir)

	path := filepath.Join(dir, filename)
	partial := filepath.Join(tmpDir, filename+".part")

	file, err := os.Create(partial)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", partial, err)
	}

	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		os.Remove(partial)
		return "", fmt.Errorf("failed to write file %s: %w", partial, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(partial)
		return "", fmt.Errorf("failed to close file %s: %w", partial, err)
	}
	if err := os.Rename(partial, path); err != nil {
		os.Remove(partial)
		return "", fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return path, nil
}

// SaveManifest saves a run manifest as dir/.runs/<runID>.json.
func (s *LocalStorage) SaveManifest(ctx context.Context, dir, runID string, data []byte) (string, error) {
	runsDir := filepath.Join(dir, manifestDir)
	if err := os.MkdirAll(runsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create manifest directory %s: %w", runsDir, err)
	}
	path := filepath.Join(runsDir, runID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save manifest %s: %w", path, err)
	}
	return path, nil
}
