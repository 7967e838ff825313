package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"playsarchiver/internal/adapters/localstorage"
	"playsarchiver/internal/archive"
	"playsarchiver/internal/core/domain"
	"playsarchiver/internal/plays"
)

type fakeLookup struct {
	archived map[string]bool
}

func (f *fakeLookup) Closest(_ context.Context, pageURL string) (*domain.Snapshot, error) {
	if !f.archived[pageURL] {
		return nil, nil
	}
	return &domain.Snapshot{Status: 200, Available: true, URL: "http://web.archive.org/web/2019/" + pageURL}, nil
}

type fakeDownloader struct {
	fail map[string]bool
}

func (f *fakeDownloader) Download(_ context.Context, u string) (io.ReadCloser, error) {
	if f.fail[u] {
		return nil, fmt.Errorf("connection reset")
	}
	return io.NopCloser(strings.NewReader("video")), nil
}

type fakeSession struct {
	html      string
	navigated string
	closed    bool
}

func (s *fakeSession) Navigate(_ context.Context, u string) error { s.navigated = u; return nil }
func (s *fakeSession) ScrollDown(context.Context) error           { return nil }
func (s *fakeSession) HTML(context.Context) (string, error)       { return s.html, nil }
func (s *fakeSession) Alive() bool                                { return !s.closed }
func (s *fakeSession) Close() error                               { s.closed = true; return nil }

const profile = `<html><body>
<div class="header-btn"><span class="section-value">6</span></div>
<span class="nav-tab-label">Midorina's Videos (4)</span>
<div class="video-list-container"><div class="video-list-month">December 2019</div>
  <div class="video-item"><a class="title">hd clip</a><video class="video-tag" poster="https://cdn.plays.tv/video/aaa/processed/poster.jpg"></video></div>
  <div class="video-item"><a class="title">old clip</a><video class="video-tag" poster="https://cdn.plays.tv/video/bbb/processed/poster.jpg"></video></div>
</div>
<div class="video-list-container"><div class="video-list-month">November 2019</div>
  <div class="video-item"><a class="title">lost clip</a><video class="video-tag" poster="https://cdn.plays.tv/video/ccc/processed/poster.jpg"></video></div>
  <div class="video-item"><a class="title">broken clip</a><video class="video-tag" poster="https://cdn.plays.tv/video/ddd/processed/poster.jpg"></video></div>
</div>
</body></html>`

func newTestOrchestrator(t *testing.T, session *fakeSession, dl *fakeDownloader) *Orchestrator {
	t.Helper()
	logger := zaptest.NewLogger(t)
	lookup := &fakeLookup{archived: map[string]bool{
		"http://plays.tv/u/midorina":                        true,
		"https://cdn.plays.tv/video/aaa/processed/1080.mp4": true,
		"https://cdn.plays.tv/video/bbb/processed/480.mp4":  true,
		"https://cdn.plays.tv/video/ddd/processed/720.mp4":  true,
	}}
	store := localstorage.NewLocalStorage()
	deps := &plays.Deps{
		Resolver:   archive.NewResolver(lookup, logger),
		Downloader: archive.NewSnapshotDownloader(dl, store, logger),
		Storage:    store,
		Logger:     logger,
	}
	return NewOrchestrator(session, deps, logger)
}

func testOptions(dir string) Options {
	scroll := plays.DefaultScrollConfig()
	scroll.SettleDelay = 0
	return Options{OutputDir: dir, Scroll: scroll}
}

func TestRunJob(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	session := &fakeSession{html: profile}
	dl := &fakeDownloader{fail: map[string]bool{
		"http://web.archive.org/web/2019/https://cdn.plays.tv/video/ddd/processed/720.mp4": true,
	}}
	o := newTestOrchestrator(t, session, dl)

	result, err := o.RunJob(context.Background(), "midorina", testOptions(dir))
	require.NoError(t, err)

	assert.Equal(t, "http://web.archive.org/web/2019/http://plays.tv/u/midorina", session.navigated)
	assert.True(t, session.closed)
	assert.NotEmpty(t, result.Run.ID)
	assert.Equal(t, 6, result.TotalVideos)
	assert.Equal(t, 4, result.AuthorVideos)
	assert.Equal(t, 2, result.FeaturedVideos)
	assert.Equal(t, 4, result.Visible)

	require.Len(t, result.Videos, 4)
	assert.Equal(t, domain.OutcomeDownloaded, result.Videos[0].Outcome)
	assert.Equal(t, domain.Quality1080, result.Videos[0].Quality)
	assert.Equal(t, domain.OutcomeDownloaded, result.Videos[1].Outcome)
	assert.Equal(t, domain.Quality480, result.Videos[1].Quality)
	assert.Equal(t, domain.OutcomeNotArchived, result.Videos[2].Outcome)
	assert.Equal(t, domain.OutcomeFailed, result.Videos[3].Outcome)
	assert.Equal(t, 2, result.Count(domain.OutcomeDownloaded))

	_, err = os.Stat(filepath.Join(dir, "hd-clip_December-2019_midorina_aaa_1080.mp4"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "old-clip_December-2019_midorina_bbb_480.mp4"))
	assert.NoError(t, err)

	require.NotEmpty(t, result.ManifestPath)
	data, err := os.ReadFile(result.ManifestPath)
	require.NoError(t, err)
	var manifest domain.RunResult
	require.NoError(t, json.Unmarshal(data, &manifest))
	assert.Equal(t, result.Run.ID, manifest.Run.ID)
	assert.Len(t, manifest.Videos, 4)

	// a second run finds the saved files
	session = &fakeSession{html: profile}
	result, err = newTestOrchestrator(t, session, &fakeDownloader{}).RunJob(context.Background(), "midorina", testOptions(dir))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count(domain.OutcomeAlreadyDownloaded))
	assert.Equal(t, 1, result.Count(domain.OutcomeDownloaded))
}

func TestRunJobDryRun(t *testing.T) {
	dir := t.TempDir()
	session := &fakeSession{html: profile}
	o := newTestOrchestrator(t, session, &fakeDownloader{})

	opts := testOptions(dir)
	opts.DryRun = true
	result, err := o.RunJob(context.Background(), "midorina", opts)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Count(domain.OutcomeListed))

	names, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Equal(t, ".runs", names[0].Name())
}

func TestRunJobProfileNotArchived(t *testing.T) {
	session := &fakeSession{html: profile}
	o := newTestOrchestrator(t, session, &fakeDownloader{})

	_, err := o.RunJob(context.Background(), "ghost", testOptions(t.TempDir()))
	require.Error(t, err)
	assert.True(t, domain.IsNotArchived(err))
	assert.Empty(t, session.navigated)
	assert.True(t, session.closed)
}
