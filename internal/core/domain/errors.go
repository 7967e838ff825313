package domain

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned by a browser session whose window is already gone.
var ErrSessionClosed = errors.New("browser session already closed")

// NotArchivedError reports that no usable snapshot exists for a URL, or for
// any quality of a video when Title is set.
type NotArchivedError struct {
	URL   string
	Title string
}

func (e *NotArchivedError) Error() string {
	if e.Title != "" {
		return fmt.Sprintf("video is not archived: %s", e.Title)
	}
	return fmt.Sprintf("url is not archived: %s", e.URL)
}

// AlreadyDownloadedError reports that a file for the same video id already exists.
type AlreadyDownloadedError struct {
	ID   string
	File string
}

func (e *AlreadyDownloadedError) Error() string {
	return fmt.Sprintf("video %s is already downloaded: %s", e.ID, e.File)
}

// DownloadError wraps a network or filesystem failure while fetching a snapshot.
type DownloadError struct {
	URL  string
	Path string
	Err  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s to %s: %v", e.URL, e.Path, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// IsNotArchived reports whether err is, or wraps, a NotArchivedError.
func IsNotArchived(err error) bool {
	var target *NotArchivedError
	return errors.As(err, &target)
}

// IsAlreadyDownloaded reports whether err is, or wraps, an AlreadyDownloadedError.
func IsAlreadyDownloaded(err error) bool {
	var target *AlreadyDownloadedError
	return errors.As(err, &target)
}
