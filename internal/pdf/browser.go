package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chromedp/chromedp"
)

// Browser owns a single long-lived headless Chrome process shared by all
// generations. Launching Chrome per document is prohibitively expensive, so
// the process is started lazily on first use and reused; if it dies or
// disconnects the next Page call relaunches it.
type Browser struct {
	mu sync.Mutex

	execPath string
	logger   *slog.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewBrowser constructs the pool without launching anything. execPath may be
// empty to let chromedp discover the Chrome binary.
func NewBrowser(execPath string, logger *slog.Logger) *Browser {
	return &Browser{execPath: execPath, logger: logger}
}

// Page hands out a fresh tab context on the shared browser, launching or
// relaunching the process as needed. The returned cancel func closes only
// the tab; the browser itself stays up for the next caller.
func (b *Browser) Page() (context.Context, context.CancelFunc, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx == nil || b.browserCtx.Err() != nil {
		if err := b.launchLocked(); err != nil {
			return nil, nil, err
		}
	}

	tab, cancel := chromedp.NewContext(b.browserCtx)
	return tab, cancel, nil
}

func (b *Browser) launchLocked() error {
	b.closeLocked()

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if b.execPath != "" {
		opts = append(opts, chromedp.ExecPath(b.execPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Run with no actions forces the process to start so a dead binary
	// surfaces here rather than mid-generation.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("pdf: launch browser: %w", err)
	}

	b.allocCancel = allocCancel
	b.browserCtx = browserCtx
	b.browserCancel = browserCancel
	if b.logger != nil {
		b.logger.Info("pdf: headless browser launched")
	}
	return nil
}

func (b *Browser) closeLocked() {
	if b.browserCancel != nil {
		b.browserCancel()
		b.browserCancel = nil
	}
	if b.allocCancel != nil {
		b.allocCancel()
		b.allocCancel = nil
	}
	b.browserCtx = nil
}

// Shutdown tears down the browser process. Wired to process exit in main.
func (b *Browser) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeLocked()
}
