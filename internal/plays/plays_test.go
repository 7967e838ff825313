package plays

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"playsarchiver/internal/adapters/localstorage"
	"playsarchiver/internal/archive"
	"playsarchiver/internal/core/domain"
)

// fakeLookup has snapshots for a fixed set of URLs and records every query.
type fakeLookup struct {
	archived map[string]bool
	calls    []string
}

func (f *fakeLookup) Closest(_ context.Context, pageURL string) (*domain.Snapshot, error) {
	f.calls = append(f.calls, pageURL)
	if !f.archived[pageURL] {
		return nil, nil
	}
	return &domain.Snapshot{
		Status:    200,
		Available: true,
		URL:       "http://web.archive.org/web/20191210000000/" + pageURL,
		Timestamp: 20191210000000,
	}, nil
}

// fakeDownloader serves the archived URL itself as content.
type fakeDownloader struct {
	err  error
	urls []string
}

func (f *fakeDownloader) Download(_ context.Context, u string) (io.ReadCloser, error) {
	f.urls = append(f.urls, u)
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(u)), nil
}

type fixture struct {
	lookup     *fakeLookup
	downloader *fakeDownloader
	deps       *Deps
}

func newFixture(archived ...string) *fixture {
	lookup := &fakeLookup{archived: map[string]bool{}}
	for _, u := range archived {
		lookup.archived[u] = true
	}
	dl := &fakeDownloader{}
	store := localstorage.NewLocalStorage()
	logger := zap.NewNop()
	return &fixture{
		lookup:     lookup,
		downloader: dl,
		deps: &Deps{
			Resolver:   archive.NewResolver(lookup, logger),
			Downloader: archive.NewSnapshotDownloader(dl, store, logger),
			Storage:    store,
			Logger:     logger,
		},
	}
}

// fakeSession renders a profile page whose content depends on how far it was scrolled.
type fakeSession struct {
	render    func(scrolls int) string
	navigated []string
	scrolls   int
	closed    bool
	closeErr  error
	closes    int
}

func (s *fakeSession) Navigate(_ context.Context, u string) error {
	s.navigated = append(s.navigated, u)
	return nil
}

func (s *fakeSession) ScrollDown(context.Context) error {
	s.scrolls++
	return nil
}

func (s *fakeSession) HTML(context.Context) (string, error) {
	if s.closed {
		return "", domain.ErrSessionClosed
	}
	return s.render(s.scrolls), nil
}

func (s *fakeSession) Alive() bool { return !s.closed }

func (s *fakeSession) Close() error {
	s.closes++
	s.closed = true
	return s.closeErr
}

func posterURL(id string) string {
	return fmt.Sprintf("https://d0playscdntv-a.akamaihd.net/video/%s/processed/poster.jpg", id)
}

// profileHTML renders an archived profile with the given number of visible videos,
// twelve per month container.
func profileHTML(name string, total, author, visible int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="header-btn"><span class="section-value">`)
	fmt.Fprintf(&b, "%d", total)
	b.WriteString(`</span></div>`)
	fmt.Fprintf(&b, `<span class="nav-tab-label">%s's Videos (%d)</span>`, name, author)
	for i := 0; i < visible; i++ {
		if i%12 == 0 {
			if i > 0 {
				b.WriteString(`</div>`)
			}
			fmt.Fprintf(&b, `<div class="video-list-container"><div class="video-list-month">Month %d</div>`, i/12)
		}
		fmt.Fprintf(&b, `<div class="video-item"><a class="title">clip %d</a><video class="video-tag" poster="%s"></video></div>`, i, posterURL(fmt.Sprintf("vid%03d", i)))
	}
	if visible > 0 {
		b.WriteString(`</div>`)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

var errBoom = errors.New("boom")
