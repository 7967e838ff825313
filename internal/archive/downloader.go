package archive

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"playsarchiver/internal/core/domain"
	"playsarchiver/internal/core/ports"
)

// SnapshotDownloader writes the content of archived snapshots to disk.
// It never retries; callers decide what to do with a *domain.DownloadError.
type SnapshotDownloader struct {
	downloader ports.Downloader
	storage    ports.Storage
	logger     *zap.Logger
}

// NewSnapshotDownloader creates a new SnapshotDownloader.
func NewSnapshotDownloader(downloader ports.Downloader, storage ports.Storage, logger *zap.Logger) *SnapshotDownloader {
	return &SnapshotDownloader{downloader: downloader, storage: storage, logger: logger}
}

// Download streams snap into directory under the sanitized form of fileName
// and returns the written path.
func (d *SnapshotDownloader) Download(ctx context.Context, snap domain.Snapshot, directory, fileName string) (string, error) {
	name := SanitizeFileName(fileName)
	path := filepath.Join(directory, name)
	if name == "" {
		return "", &domain.DownloadError{URL: snap.URL, Path: path, Err: fmt.Errorf("empty file name from %q", fileName)}
	}

	body, err := d.downloader.Download(ctx, snap.URL)
	if err != nil {
		return "", &domain.DownloadError{URL: snap.URL, Path: path, Err: err}
	}
	defer body.Close()

	written, err := d.storage.SaveFile(ctx, directory, name, body)
	if err != nil {
		return "", &domain.DownloadError{URL: snap.URL, Path: path, Err: err}
	}

	d.logger.Info("Saved snapshot",
		zap.String("url", snap.URL),
		zap.String("path", written),
	)
	return written, nil
}
