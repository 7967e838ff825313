package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"playsarchiver/internal/adapters/chrome"
	"playsarchiver/internal/adapters/downloader"
	"playsarchiver/internal/adapters/localstorage"
	"playsarchiver/internal/adapters/wayback"
	"playsarchiver/internal/archive"
	"playsarchiver/internal/config"
	"playsarchiver/internal/core/domain"
	"playsarchiver/internal/logger"
	"playsarchiver/internal/plays"
	"playsarchiver/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:   "plays-archiver [username]",
		Short: "Download a plays.tv user's videos from the Wayback Machine",
		Example: `  plays-archiver midorina
  plays-archiver midorina --headless --output-dir ./midorina
  PLAYS_USERNAME=midorina plays-archiver --dry-run`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				v.Set(config.KeyUsername, args[0])
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	// .env only provides defaults for variables not already set
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	flags := cmd.Flags()
	flags.Bool(config.KeyHeadless, false, "run Chrome without a window")
	flags.String(config.KeyOutputDir, "./downloads", "directory videos are saved to")
	flags.Bool(config.KeyOverwrite, false, "download videos even if a file with the same id exists")
	flags.Bool(config.KeyDryRun, false, "list the archived videos without downloading them")
	flags.Bool(config.KeyDebug, false, "enable debug logging")
	flags.String(config.KeyLogLevel, "info", "log level (debug, info, warn, error)")
	flags.String(config.KeyArchiveAPIURL, wayback.DefaultAPIURL, "Wayback availability API endpoint")
	flags.Duration(config.KeySettleDelay, time.Second, "wait after each scroll step")
	flags.Duration(config.KeyHTTPTimeout, 30*time.Minute, "timeout for a single video download")
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}

	return cmd
}

func run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: cfg.Debug})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("=== plays.tv archiver ===",
		zap.String("username", cfg.Username),
		zap.String("output_dir", cfg.OutputDir),
		zap.Bool("headless", cfg.Headless),
	)

	// Initialize adapters
	lookup := wayback.NewClient(cfg.ArchiveAPIURL)
	dl := downloader.NewHTTPDownloader(cfg.HTTPTimeout)
	storage := localstorage.NewLocalStorage()
	session := chrome.NewSession(ctx, cfg.Headless, log)

	deps := &plays.Deps{
		Resolver:   archive.NewResolver(lookup, log),
		Downloader: archive.NewSnapshotDownloader(dl, storage, log),
		Storage:    storage,
		Logger:     log,
	}
	orchestrator := service.NewOrchestrator(session, deps, log)

	scroll := plays.DefaultScrollConfig()
	scroll.SettleDelay = cfg.SettleDelay

	result, err := orchestrator.RunJob(ctx, cfg.Username, service.Options{
		OutputDir: cfg.OutputDir,
		Overwrite: cfg.Overwrite,
		DryRun:    cfg.DryRun,
		Scroll:    scroll,
	})
	if err != nil {
		return fmt.Errorf("job failed: %w", err)
	}

	printSummary(result)
	return nil
}

func printSummary(result *domain.RunResult) {
	fmt.Println("\n=== Job Summary ===")
	fmt.Printf("Run ID:             %s\n", result.Run.ID)
	fmt.Printf("User:               %s\n", result.Run.Username)
	fmt.Printf("Snapshot:           %s\n", result.SnapshotURL)
	fmt.Printf("Videos (author):    %d/%d visible\n", result.Visible, result.AuthorVideos)
	fmt.Printf("Downloaded:         %d\n", result.Count(domain.OutcomeDownloaded))
	fmt.Printf("Already downloaded: %d\n", result.Count(domain.OutcomeAlreadyDownloaded))
	fmt.Printf("Not archived:       %d\n", result.Count(domain.OutcomeNotArchived))
	fmt.Printf("Failed:             %d\n", result.Count(domain.OutcomeFailed))
	if n := result.Count(domain.OutcomeListed); n > 0 {
		fmt.Printf("Listed:             %d\n", n)
	}
	fmt.Printf("Manifest:           %s\n", result.ManifestPath)
	fmt.Printf("Completed At:       %s\n", result.CompletedAt.Format(time.RFC3339))
}
