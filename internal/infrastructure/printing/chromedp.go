package printing

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// A4 in millimeters
const (
	PaperWidthMM    = 210.0
	PaperHeightMM   = 297.0
	DefaultMarginMM = 12.0
)

const defaultChromeTimeout = 30 * time.Second

// ChromedpConfig configures the browser used for rendering
type ChromedpConfig struct {
	// ExecPath overrides the Chrome binary; empty searches the usual locations
	ExecPath string
	// RemoteURL attaches to a running browser's DevTools websocket instead of launching one
	RemoteURL      string
	DefaultTimeout time.Duration
	NoSandbox      bool
	Logger         *zap.Logger
}

// ChromedpRenderer prints HTML to PDF with the DevTools protocol
type ChromedpRenderer struct {
	config      ChromedpConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

var _ PDFRenderer = (*ChromedpRenderer)(nil)

// NewChromedpRenderer prepares the browser allocator. The browser itself is
// started lazily by the first Render call.
func NewChromedpRenderer(cfg ChromedpConfig) *ChromedpRenderer {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = defaultChromeTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &ChromedpRenderer{config: cfg, logger: logger}

	if cfg.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return r
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r
}

// Render loads req.HTML into a blank tab and prints it
func (r *ChromedpRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if req == nil || strings.TrimSpace(req.HTML) == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}

	start := time.Now()
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.config.DefaultTimeout
	}

	tabCtx, tabCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer tabCancel()
	tabCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()
	// Follow the caller's cancellation as well as our own deadline.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	document := wrapDocument(req)
	params := buildPrintParams(req)

	var pdf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, document).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := params.Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		if errors.Is(tabCtx.Err(), context.DeadlineExceeded) || errors.Is(ctx.Err(), context.Canceled) {
			return nil, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("PDF rendering did not finish within %v", timeout), err)
		}
		r.logger.Error("chromedp rendering failed", zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", err)
	}
	if len(pdf) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil)
	}

	result := &RenderResult{
		PDFData:        pdf,
		PageCount:      estimatePageCount(pdf),
		RenderDuration: time.Since(start),
	}
	r.logger.Info("PDF rendered",
		zap.Int("bytes", len(pdf)),
		zap.Int("pages", result.PageCount),
		zap.Duration("duration", result.RenderDuration),
	)
	return result, nil
}

// Close shuts the browser down
func (r *ChromedpRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

func buildPrintParams(req *RenderRequest) *page.PrintToPDFParams {
	margin := req.MarginMM
	if margin <= 0 {
		margin = DefaultMarginMM
	}
	m := mmToInches(margin)
	return page.PrintToPDF().
		WithPrintBackground(true).
		WithPaperWidth(mmToInches(PaperWidthMM)).
		WithPaperHeight(mmToInches(PaperHeightMM)).
		WithMarginTop(m).
		WithMarginRight(m).
		WithMarginBottom(m).
		WithMarginLeft(m).
		WithLandscape(req.Landscape)
}

// wrapDocument adds the html/head/body skeleton to fragments
func wrapDocument(req *RenderRequest) string {
	lower := strings.ToLower(req.HTML)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return req.HTML
	}
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8">`)
	if req.Title != "" {
		b.WriteString("<title>" + html.EscapeString(req.Title) + "</title>")
	}
	b.WriteString("</head><body>")
	b.WriteString(req.HTML)
	b.WriteString("</body></html>")
	return b.String()
}

func mmToInches(mm float64) float64 {
	return mm / 25.4
}
