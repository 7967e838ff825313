package chrome

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"playsarchiver/internal/core/domain"
)

// Session implements ports.BrowserSession on top of a local Chrome driven by chromedp.
// The browser process is started lazily by the first action.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	closed      bool
}

// NewSession prepares a Chrome session living under parent.
func NewSession(parent context.Context, headless bool, logger *zap.Logger) *Session {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("mute-audio", true),
		chromedp.WindowSize(1280, 1024),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)

	sugar := logger.Named("chrome").Sugar()
	ctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf),
	)

	return &Session{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
	}
}

// run executes actions in the browser tab, aborting them if ctx is cancelled.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if !s.Alive() {
		return domain.ErrSessionClosed
	}
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// Navigate loads pageURL and waits for the body to be ready.
func (s *Session) Navigate(ctx context.Context, pageURL string) error {
	if err := s.run(ctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate to %s: %w", pageURL, err)
	}
	return nil
}

// ScrollDown sends a single PAGE_DOWN key press to the page. The key is
// dispatched to the tab, not to a node, so nothing has to be focusable.
func (s *Session) ScrollDown(ctx context.Context) error {
	if err := s.run(ctx, chromedp.KeyEvent(kb.PageDown)); err != nil {
		return fmt.Errorf("scroll down: %w", err)
	}
	return nil
}

// HTML returns the outer HTML of the rendered document.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}

// Alive reports whether the browser tab still exists.
func (s *Session) Alive() bool {
	return !s.closed && s.ctx.Err() == nil
}

// Close shuts the browser down. Closing a session whose window is gone
// returns domain.ErrSessionClosed.
func (s *Session) Close() error {
	if !s.Alive() {
		s.closed = true
		s.allocCancel()
		return domain.ErrSessionClosed
	}
	s.closed = true
	defer s.allocCancel()

	if err := chromedp.Cancel(s.ctx); err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}
