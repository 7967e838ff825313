// Package plays drives an archived plays.tv profile page and downloads its videos.
package plays

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"playsarchiver/internal/archive"
	"playsarchiver/internal/core/domain"
	"playsarchiver/internal/core/ports"
)

// ProfileURL is the live profile page of a plays.tv user.
func ProfileURL(username string) string {
	return "http://plays.tv/u/" + username
}

// ScrollConfig bounds the lazy-loading scroll loop.
type ScrollConfig struct {
	// SettleDelay is waited after every page-down.
	SettleDelay time.Duration
	// MaxIterations caps the number of page-downs.
	MaxIterations int
	// CheckEvery is how many page-downs pass between visible-count checks.
	CheckEvery int
	// MaxStalls is how many consecutive unchanged checks abort the loop.
	MaxStalls int
}

// DefaultScrollConfig returns the scroll bounds used against the archive.
func DefaultScrollConfig() ScrollConfig {
	return ScrollConfig{
		SettleDelay:   time.Second,
		MaxIterations: 100,
		CheckEvery:    10,
		MaxStalls:     5,
	}
}

func (c ScrollConfig) withDefaults() ScrollConfig {
	def := DefaultScrollConfig()
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = def.MaxIterations
	}
	if c.CheckEvery <= 0 {
		c.CheckEvery = def.CheckEvery
	}
	if c.MaxStalls <= 0 {
		c.MaxStalls = def.MaxStalls
	}
	return c
}

// ScrollResult reports where the scroll loop stopped.
type ScrollResult struct {
	Iterations int
	Visible    int
	Expected   int
	// Complete is set when every author video became visible.
	Complete bool
}

// PageBrowser is a browser session showing the archived profile of one user.
type PageBrowser struct {
	*archive.Page

	session  ports.BrowserSession
	username string
	scroll   ScrollConfig
	deps     *Deps
}

// NewPageBrowser creates a PageBrowser for username. Nothing is loaded until Launch.
func NewPageBrowser(session ports.BrowserSession, username string, scroll ScrollConfig, deps *Deps) *PageBrowser {
	return &PageBrowser{
		Page:     archive.NewPage(ProfileURL(username), deps.Resolver),
		session:  session,
		username: username,
		scroll:   scroll.withDefaults(),
		deps:     deps,
	}
}

// Username returns the profile owner.
func (b *PageBrowser) Username() string {
	return b.username
}

// Launch resolves the archived profile and opens it in the session.
func (b *PageBrowser) Launch(ctx context.Context) error {
	snap, err := b.Snapshot(ctx)
	if err != nil {
		return err
	}
	b.deps.Logger.Info("Opening archived profile",
		zap.String("username", b.username),
		zap.String("snapshot_url", snap.URL),
		zap.Time("archived_at", snap.Timestamp.Time()),
	)
	return b.session.Navigate(ctx, snap.URL)
}

func (b *PageBrowser) profile(ctx context.Context) (*profileDoc, error) {
	html, err := b.session.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return parseProfile(html)
}

// TotalVideoCount is the number of videos shown in the profile header.
func (b *PageBrowser) TotalVideoCount(ctx context.Context) (int, error) {
	doc, err := b.profile(ctx)
	if err != nil {
		return 0, err
	}
	return doc.totalCount()
}

// AuthorVideoCount is the number of videos uploaded by the user.
func (b *PageBrowser) AuthorVideoCount(ctx context.Context) (int, error) {
	doc, err := b.profile(ctx)
	if err != nil {
		return 0, err
	}
	return doc.authorCount()
}

// FeaturedVideoCount is the number of videos by other users featured on the profile.
func (b *PageBrowser) FeaturedVideoCount(ctx context.Context) (int, error) {
	total, err := b.TotalVideoCount(ctx)
	if err != nil {
		return 0, err
	}
	author, err := b.AuthorVideoCount(ctx)
	if err != nil {
		return 0, err
	}
	return total - author, nil
}

// ScrollUntilAllVisible pages down until every author video is rendered.
// Running out of iterations or stalling is not an error: the loop logs a
// warning and returns the partial result.
func (b *PageBrowser) ScrollUntilAllVisible(ctx context.Context) (ScrollResult, error) {
	expected, err := b.AuthorVideoCount(ctx)
	if err != nil {
		return ScrollResult{}, err
	}
	res := ScrollResult{Expected: expected}

	previous, stalls := 0, 0
	for res.Iterations < b.scroll.MaxIterations {
		if err := b.session.ScrollDown(ctx); err != nil {
			return res, err
		}
		if err := sleep(ctx, b.scroll.SettleDelay); err != nil {
			return res, err
		}
		res.Iterations++

		if res.Iterations%b.scroll.CheckEvery != 0 {
			continue
		}

		visible, err := b.visibleCount(ctx)
		if err != nil {
			return res, err
		}
		res.Visible = visible

		if visible >= expected {
			res.Complete = true
			return res, nil
		}

		if visible == previous {
			stalls++
			if stalls >= b.scroll.MaxStalls {
				b.deps.Logger.Warn("Stopped scrolling, no new videos are loading",
					zap.Int("iterations", res.Iterations),
					zap.Int("visible", visible),
					zap.Int("expected", expected),
				)
				return res, nil
			}
		} else {
			stalls = 0
		}
		previous = visible
	}

	visible, err := b.visibleCount(ctx)
	if err != nil {
		return res, err
	}
	res.Visible = visible
	b.deps.Logger.Warn("Reached maximum scroll iterations",
		zap.Int("iterations", res.Iterations),
		zap.Int("visible", visible),
		zap.Int("expected", expected),
	)
	return res, nil
}

// visibleCount counts the rendered videos that ScrapeVisibleEntries can turn
// into entries, skipping those with an unusable poster.
func (b *PageBrowser) visibleCount(ctx context.Context) (int, error) {
	doc, err := b.profile(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range doc.records() {
		if _, _, err := splitPoster(r.PosterURL); err == nil {
			n++
		}
	}
	return n, nil
}

// ScrapeVisibleEntries builds a VideoEntry at the default quality for every
// video currently rendered. Each call reads the page again.
// Items with a malformed poster are skipped.
func (b *PageBrowser) ScrapeVisibleEntries(ctx context.Context) ([]*VideoEntry, error) {
	doc, err := b.profile(ctx)
	if err != nil {
		return nil, err
	}

	records := doc.records()
	entries := make([]*VideoEntry, 0, len(records))
	for _, rec := range records {
		entry, err := NewVideoEntry(rec, b.username, domain.DefaultQuality, b.deps)
		if err != nil {
			b.deps.Logger.Warn("Skipping video",
				zap.String("title", rec.Title),
				zap.Error(err),
			)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Close releases the session. A session whose window is already gone is not an error.
func (b *PageBrowser) Close() error {
	if !b.session.Alive() {
		return nil
	}
	if err := b.session.Close(); err != nil && !errors.Is(err, domain.ErrSessionClosed) {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
