package plays

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"playsarchiver/internal/archive"
	"playsarchiver/internal/core/domain"
	"playsarchiver/internal/core/ports"
)

// Deps bundles the collaborators shared by the browser and its video entries.
type Deps struct {
	Resolver   *archive.Resolver
	Downloader *archive.SnapshotDownloader
	Storage    ports.Storage
	Logger     *zap.Logger
}

// VideoEntry is one video scraped from a profile page at a given quality.
// The embedded page is the archived mp4 for that quality, so a different
// quality is a different VideoEntry with its own snapshot.
type VideoEntry struct {
	*archive.Page

	record  domain.VideoRecord
	author  string
	quality domain.Quality
	id      string
	base    string
	deps    *Deps
}

// NewVideoEntry derives the id and mp4 location of rec for the given quality.
func NewVideoEntry(rec domain.VideoRecord, author string, quality domain.Quality, deps *Deps) (*VideoEntry, error) {
	id, base, err := splitPoster(rec.PosterURL)
	if err != nil {
		return nil, err
	}
	return newVideoEntry(rec, author, quality, id, base, deps), nil
}

func newVideoEntry(rec domain.VideoRecord, author string, quality domain.Quality, id, base string, deps *Deps) *VideoEntry {
	e := &VideoEntry{
		record:  rec,
		author:  author,
		quality: quality,
		id:      id,
		base:    base,
		deps:    deps,
	}
	e.Page = archive.NewPage(e.DownloadURL(quality), deps.Resolver)
	return e
}

// splitPoster returns the video id (third-from-last path segment) and the
// poster URL without its last segment.
func splitPoster(poster string) (string, string, error) {
	parts := strings.Split(poster, "/")
	if len(parts) < 3 || parts[len(parts)-3] == "" {
		return "", "", fmt.Errorf("malformed poster url %q", poster)
	}
	return parts[len(parts)-3], strings.Join(parts[:len(parts)-1], "/"), nil
}

func (e *VideoEntry) Title() string           { return e.record.Title }
func (e *VideoEntry) DateLabel() string       { return e.record.DateLabel }
func (e *VideoEntry) Author() string          { return e.author }
func (e *VideoEntry) PosterURL() string       { return e.record.PosterURL }
func (e *VideoEntry) ID() string              { return e.id }
func (e *VideoEntry) Quality() domain.Quality { return e.quality }

// DownloadURL returns the live mp4 URL of the video at quality q.
func (e *VideoEntry) DownloadURL(q domain.Quality) string {
	return fmt.Sprintf("%s/%d.mp4", e.base, int(q))
}

// FileName is the unsanitized name the video is saved under.
func (e *VideoEntry) FileName() string {
	return fmt.Sprintf("%s_%s_%s_%s_%d.mp4", e.record.Title, e.record.DateLabel, e.author, e.id, int(e.quality))
}

func (e *VideoEntry) String() string {
	return e.FileName()
}

// WithQuality returns the same video at quality q. The receiver is returned
// unchanged when q is already its quality.
func (e *VideoEntry) WithQuality(q domain.Quality) *VideoEntry {
	if q == e.quality {
		return e
	}
	return newVideoEntry(e.record, e.author, q, e.id, e.base, e.deps)
}

// CheckNotAlreadyDownloaded fails with *domain.AlreadyDownloadedError if any
// name in directory contains the video id, whatever quality it was saved at.
// The match is a plain substring test.
func (e *VideoEntry) CheckNotAlreadyDownloaded(ctx context.Context, directory string) error {
	names, err := e.deps.Storage.ListNames(ctx, directory)
	if err != nil {
		return err
	}
	for _, name := range names {
		if strings.Contains(name, e.id) {
			return &domain.AlreadyDownloadedError{ID: e.id, File: name}
		}
	}
	return nil
}

// Download resolves the archived mp4 at the entry's quality and saves it in
// directory. Unless overwrite is set, an existing file for the same id fails
// the download first.
func (e *VideoEntry) Download(ctx context.Context, directory string, overwrite bool) (string, error) {
	if !overwrite {
		if err := e.CheckNotAlreadyDownloaded(ctx, directory); err != nil {
			return "", err
		}
	}

	snap, err := e.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	return e.deps.Downloader.Download(ctx, snap, directory, e.FileName())
}

// DownloadBestAvailable tries every quality best first and stops at the first
// one that is archived. Only a missing snapshot moves on to the next quality;
// any other error is returned as is. If no quality is archived the error is a
// *domain.NotArchivedError naming the video title.
func (e *VideoEntry) DownloadBestAvailable(ctx context.Context, directory string, overwrite bool) (domain.Quality, string, error) {
	for _, q := range domain.Qualities {
		variant := e.WithQuality(q)
		path, err := variant.Download(ctx, directory, overwrite)
		if err == nil {
			return q, path, nil
		}
		if !domain.IsNotArchived(err) {
			return 0, "", err
		}
		e.deps.Logger.Debug("Quality not archived",
			zap.String("video_id", e.id),
			zap.Stringer("quality", q),
		)
	}
	return 0, "", &domain.NotArchivedError{URL: e.URL(), Title: e.record.Title}
}
