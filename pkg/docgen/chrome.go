package docgen

import (
	"context"
	"sync"

	"github.com/Abraxas-365/hireline/pkg/logx"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// A4 in inches
const (
	a4Width  = 8.27
	a4Height = 11.69
)

// ChromeRenderer prints HTML to PDF in a shared headless Chrome, one tab per document
type ChromeRenderer struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc

	mu            sync.Mutex
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewChromeRenderer prepares the allocator. Chrome itself starts on the first render.
func NewChromeRenderer(execPath string) *ChromeRenderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &ChromeRenderer{allocCtx: allocCtx, allocCancel: allocCancel}
}

func (r *ChromeRenderer) ContentType() string { return ContentTypePDF }

func (r *ChromeRenderer) browser() (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browserCtx != nil && r.browserCtx.Err() == nil {
		return r.browserCtx, nil
	}
	ctx, cancel := chromedp.NewContext(r.allocCtx)
	// arranca el navegador
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		return nil, err
	}
	r.browserCtx, r.browserCancel = ctx, cancel
	logx.Info("🖨️  headless chrome started")
	return ctx, nil
}

// RenderPDF loads html into a blank tab and prints it on A4 with backgrounds
func (r *ChromeRenderer) RenderPDF(ctx context.Context, html []byte) ([]byte, error) {
	browserCtx, err := r.browser()
	if err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var pdf []byte
	err = chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4Width).
				WithPaperHeight(a4Height).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return pdf, nil
}

// Close shuts Chrome down
func (r *ChromeRenderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browserCancel != nil {
		r.browserCancel()
	}
	r.allocCancel()
}
