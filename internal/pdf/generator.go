package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// A4 viewport at roughly 96 DPI, matching the 210x297mm page boxes in the
// document CSS.
const (
	viewportWidth  = 794
	viewportHeight = 1123

	paperWidthInches  = 8.27
	paperHeightInches = 11.69
)

// Generator drives the full pipeline: build view model, render HTML,
// rasterize in a pooled browser tab, write the file into the store.
type Generator struct {
	builder  *Builder
	renderer *Renderer
	browser  *Browser
	store    *Store
	timeout  time.Duration
	logger   *slog.Logger
}

// NewGenerator wires the pipeline. timeout bounds content load plus
// rasterization for a single document; zero means 30s.
func NewGenerator(builder *Builder, renderer *Renderer, browser *Browser, store *Store, timeout time.Duration, logger *slog.Logger) *Generator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Generator{
		builder:  builder,
		renderer: renderer,
		browser:  browser,
		store:    store,
		timeout:  timeout,
		logger:   logger,
	}
}

// Generate renders doc to a PDF file and returns its path. The tab context
// is always released, success or failure. Errors propagate to the caller;
// whether they are fatal is the caller's decision (queue jobs retry,
// ensure-on-read surfaces them).
func (g *Generator) Generate(ctx context.Context, doc Document) (string, error) {
	view := g.builder.Build(doc)
	html, err := g.renderer.Render(view)
	if err != nil {
		return "", err
	}

	tab, closeTab, err := g.browser.Page()
	if err != nil {
		return "", err
	}
	defer closeTab()

	runCtx, cancel := context.WithTimeout(tab, g.timeout)
	defer cancel()

	var pdfData []byte
	err = chromedp.Run(runCtx,
		chromedp.EmulateViewport(viewportWidth, viewportHeight),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		// Rasterizing before web fonts settle produces fallback-font
		// artifacts, so block on the font face set.
		chromedp.ActionFunc(func(ctx context.Context) error {
			var ready bool
			return chromedp.Evaluate(`document.fonts.ready.then(() => true)`, &ready,
				func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
					return p.WithAwaitPromise(true)
				},
			).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPaperWidth(paperWidthInches).
				WithPaperHeight(paperHeightInches).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfData = data
			return nil
		}),
	)
	if err != nil {
		return "", fmt.Errorf("pdf: generate %s: %w", doc.ProjectID, err)
	}

	path := g.store.Path(doc.ProjectID)
	if err := os.WriteFile(path, pdfData, 0o644); err != nil {
		return "", fmt.Errorf("pdf: write %s: %w", path, err)
	}

	g.logger.Info("pdf: document generated",
		slog.String("project_id", doc.ProjectID),
		slog.String("path", path),
		slog.Int("pages", len(doc.Items)+2),
	)
	return path, nil
}
