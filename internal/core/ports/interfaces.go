package ports

import (
	"context"
	"io"

	"playsarchiver/internal/core/domain"
)

// ArchiveLookup defines the contract for querying a web archive for snapshots.
type ArchiveLookup interface {
	// Closest returns the closest available snapshot of pageURL.
	// A nil snapshot with a nil error means the archive has no usable copy.
	Closest(ctx context.Context, pageURL string) (*domain.Snapshot, error)
}

// Downloader defines the contract for fetching raw content.
type Downloader interface {
	// Download fetches the content at the given URL.
	// Returns a ReadCloser that the caller must close.
	Download(ctx context.Context, contentURL string) (io.ReadCloser, error)
}

// Storage defines the contract for persisting downloaded files.
type Storage interface {
	// EnsureDir creates the directory if it does not exist.
	EnsureDir(ctx context.Context, dir string) error

	// ListNames returns the names of the entries in dir.
	ListNames(ctx context.Context, dir string) ([]string, error)

	// SaveFile streams reader into dir/filename and returns the final path.
	SaveFile(ctx context.Context, dir, filename string, reader io.Reader) (string, error)

	// SaveManifest writes a run manifest under dir and returns its path.
	SaveManifest(ctx context.Context, dir, runID string, data []byte) (string, error)
}

// BrowserSession defines the contract for a live rendered-page session.
type BrowserSession interface {
	// Navigate loads pageURL and waits for the body to be ready.
	Navigate(ctx context.Context, pageURL string) error

	// ScrollDown sends one page-down input to the page body.
	ScrollDown(ctx context.Context) error

	// HTML returns the outer HTML of the currently rendered document.
	HTML(ctx context.Context) (string, error)

	// Alive reports whether the session window still exists.
	Alive() bool

	// Close releases the session. Returns domain.ErrSessionClosed if it is already gone.
	Close() error
}
