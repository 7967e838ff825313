// Package archive resolves archived snapshots of pages and downloads their content.
package archive

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"playsarchiver/internal/core/domain"
	"playsarchiver/internal/core/ports"
)

// Resolver finds the most recent archived snapshot of a URL.
type Resolver struct {
	lookup ports.ArchiveLookup
	logger *zap.Logger
}

// NewResolver creates a new Resolver.
func NewResolver(lookup ports.ArchiveLookup, logger *zap.Logger) *Resolver {
	return &Resolver{lookup: lookup, logger: logger}
}

// Resolve looks pageURL up, retrying once with the https form of the URL when
// the first lookup finds nothing. It returns the snapshot together with the
// URL that produced the final lookup. A *domain.NotArchivedError naming that
// URL is returned if neither lookup finds a snapshot.
func (r *Resolver) Resolve(ctx context.Context, pageURL string) (domain.Snapshot, string, error) {
	snap, err := r.lookup.Closest(ctx, pageURL)
	if err != nil {
		return domain.Snapshot{}, pageURL, err
	}
	if snap != nil {
		return *snap, pageURL, nil
	}

	// the archive sometimes only has the other scheme
	retryURL := ForceHTTPS(pageURL)
	r.logger.Debug("No snapshot, retrying with https",
		zap.String("url", pageURL),
		zap.String("retry_url", retryURL),
	)

	snap, err = r.lookup.Closest(ctx, retryURL)
	if err != nil {
		return domain.Snapshot{}, retryURL, err
	}
	if snap == nil {
		return domain.Snapshot{}, retryURL, &domain.NotArchivedError{URL: retryURL}
	}
	return *snap, retryURL, nil
}

// ForceHTTPS rewrites the scheme of rawURL to https. URLs without an http(s)
// scheme are returned unchanged.
func ForceHTTPS(rawURL string) string {
	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok || !strings.EqualFold(scheme, "http") && !strings.EqualFold(scheme, "https") {
		return rawURL
	}
	return "https://" + rest
}

// Page is a web page whose archived snapshot is resolved on first use and
// kept for the lifetime of the page.
type Page struct {
	url      string
	resolver *Resolver
	snapshot *domain.Snapshot
}

// NewPage creates a Page for pageURL.
func NewPage(pageURL string, resolver *Resolver) *Page {
	return &Page{url: pageURL, resolver: resolver}
}

// URL returns the page URL. After a successful https retry it is the https form.
func (p *Page) URL() string {
	return p.url
}

// IsArchived reports whether a snapshot has been resolved for the page.
func (p *Page) IsArchived() bool {
	return p.snapshot != nil
}

// Snapshot returns the page snapshot, querying the archive only on the first
// successful call.
func (p *Page) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	if p.snapshot != nil {
		return *p.snapshot, nil
	}
	if p.resolver == nil {
		return domain.Snapshot{}, fmt.Errorf("page %s has no resolver", p.url)
	}

	snap, finalURL, err := p.resolver.Resolve(ctx, p.url)
	p.url = finalURL
	if err != nil {
		return domain.Snapshot{}, err
	}
	p.snapshot = &snap
	return snap, nil
}
