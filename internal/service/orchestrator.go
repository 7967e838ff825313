package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"playsarchiver/internal/core/domain"
	"playsarchiver/internal/core/ports"
	"playsarchiver/internal/plays"
)

// Options controls a single archiving job.
type Options struct {
	OutputDir string
	Overwrite bool
	// DryRun scrapes and reports the visible videos without downloading them.
	DryRun bool
	Scroll plays.ScrollConfig
}

// Orchestrator coordinates the archiving workflow for one user.
type Orchestrator struct {
	session ports.BrowserSession
	deps    *plays.Deps
	logger  *zap.Logger
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(session ports.BrowserSession, deps *plays.Deps, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		session: session,
		deps:    deps,
		logger:  logger,
	}
}

// RunJob opens the archived profile of username, loads every video and
// downloads each one at the best archived quality. Per-video failures are
// recorded in the result and do not stop the job. The browser session is
// closed before RunJob returns.
func (o *Orchestrator) RunJob(ctx context.Context, username string, opts Options) (*domain.RunResult, error) {
	run := domain.Run{
		ID:        uuid.New().String(),
		Username:  username,
		OutputDir: opts.OutputDir,
		CreatedAt: time.Now().UTC(),
	}
	result := &domain.RunResult{Run: run}
	log := o.logger.With(zap.String("run_id", run.ID), zap.String("username", username))
	log.Info("Starting job", zap.String("output_dir", opts.OutputDir), zap.Bool("dry_run", opts.DryRun))

	if err := o.deps.Storage.EnsureDir(ctx, opts.OutputDir); err != nil {
		return result, err
	}

	browser := plays.NewPageBrowser(o.session, username, opts.Scroll, o.deps)
	defer func() {
		if cerr := browser.Close(); cerr != nil {
			log.Warn("Failed to close browser", zap.Error(cerr))
		}
	}()

	if err := browser.Launch(ctx); err != nil {
		return result, fmt.Errorf("launch browser for %s: %w", username, err)
	}
	if snap, err := browser.Snapshot(ctx); err == nil {
		result.SnapshotURL = snap.URL
	}

	if err := o.readCounts(ctx, browser, result, log); err != nil {
		return result, err
	}

	scroll, err := browser.ScrollUntilAllVisible(ctx)
	if err != nil {
		return result, fmt.Errorf("scroll profile: %w", err)
	}
	log.Info("Finished scrolling",
		zap.Int("iterations", scroll.Iterations),
		zap.Int("visible", scroll.Visible),
		zap.Bool("complete", scroll.Complete),
	)

	entries, err := browser.ScrapeVisibleEntries(ctx)
	if err != nil {
		return result, fmt.Errorf("scrape videos: %w", err)
	}
	result.Visible = len(entries)

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		outcome := o.process(ctx, entry, opts, log.With(zap.Int("index", i+1), zap.Int("of", len(entries))))
		result.Videos = append(result.Videos, outcome)
	}

	result.CompletedAt = time.Now().UTC()
	o.saveManifest(ctx, result, log)

	log.Info("Job completed",
		zap.Int("downloaded", result.Count(domain.OutcomeDownloaded)),
		zap.Int("already_downloaded", result.Count(domain.OutcomeAlreadyDownloaded)),
		zap.Int("not_archived", result.Count(domain.OutcomeNotArchived)),
		zap.Int("failed", result.Count(domain.OutcomeFailed)),
	)
	return result, nil
}

func (o *Orchestrator) readCounts(ctx context.Context, browser *plays.PageBrowser, result *domain.RunResult, log *zap.Logger) error {
	total, err := browser.TotalVideoCount(ctx)
	if err != nil {
		return fmt.Errorf("read total video count: %w", err)
	}
	author, err := browser.AuthorVideoCount(ctx)
	if err != nil {
		return fmt.Errorf("read author video count: %w", err)
	}
	featured, err := browser.FeaturedVideoCount(ctx)
	if err != nil {
		return fmt.Errorf("read featured video count: %w", err)
	}
	result.TotalVideos = total
	result.AuthorVideos = author
	result.FeaturedVideos = featured

	log.Info("Profile loaded",
		zap.Int("total", total),
		zap.Int("author", author),
		zap.Int("featured", featured),
	)
	return nil
}

// process downloads one entry and classifies the result.
func (o *Orchestrator) process(ctx context.Context, entry *plays.VideoEntry, opts Options, log *zap.Logger) domain.VideoOutcome {
	out := domain.VideoOutcome{
		ID:    entry.ID(),
		Title: entry.Title(),
		Date:  entry.DateLabel(),
	}
	log = log.With(zap.String("video_id", entry.ID()), zap.String("title", entry.Title()))

	if opts.DryRun {
		out.Outcome = domain.OutcomeListed
		log.Info("Found video", zap.String("date", entry.DateLabel()))
		return out
	}

	quality, path, err := entry.DownloadBestAvailable(ctx, opts.OutputDir, opts.Overwrite)
	switch {
	case err == nil:
		out.Outcome = domain.OutcomeDownloaded
		out.Quality = quality
		log.Info("Downloaded video", zap.Stringer("quality", quality), zap.String("path", path))
	case domain.IsAlreadyDownloaded(err):
		out.Outcome = domain.OutcomeAlreadyDownloaded
		log.Info("Skipping video, already downloaded", zap.Error(err))
	case domain.IsNotArchived(err):
		out.Outcome = domain.OutcomeNotArchived
		out.Error = err.Error()
		log.Warn("Video is not archived at any quality")
	default:
		out.Outcome = domain.OutcomeFailed
		out.Error = err.Error()
		log.Error("Failed to download video", zap.Error(err))
	}
	return out
}

func (o *Orchestrator) saveManifest(ctx context.Context, result *domain.RunResult, log *zap.Logger) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Warn("Failed to encode run manifest", zap.Error(err))
		return
	}
	path, err := o.deps.Storage.SaveManifest(ctx, result.Run.OutputDir, result.Run.ID, data)
	if err != nil {
		log.Warn("Failed to save run manifest", zap.Error(err))
		return
	}
	result.ManifestPath = path
}
