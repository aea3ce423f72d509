package tpl2pdf

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// mmPerInch converts the millimetre dimensions of PrintOptions to the
// inches Chrome's printToPDF expects.
const mmPerInch = 25.4

// rodEngine drives headless Chrome through go-rod. The browser launches
// lazily on the first render and is shared by all subsequent renders; each
// render gets its own page.
type rodEngine struct {
	mu        sync.Mutex
	browser   *rod.Browser
	timeout   time.Duration
	noSandbox bool
}

func newRodEngine(timeout time.Duration, noSandbox bool) *rodEngine {
	return &rodEngine{timeout: timeout, noSandbox: noSandbox}
}

// ensureBrowser launches and connects the browser if needed.
// ROD_BROWSER_BIN overrides the browser binary. The sandbox is disabled
// when requested explicitly, when CI=true, or when a custom binary is set,
// since those environments usually lack the sandbox prerequisites.
func (e *rodEngine) ensureBrowser() (*rod.Browser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browser != nil {
		return e.browser, nil
	}

	l := launcher.New()
	customBin := os.Getenv("ROD_BROWSER_BIN")
	if customBin != "" {
		l = l.Bin(customBin)
	}
	if e.noSandbox || os.Getenv("CI") == "true" || customBin != "" {
		l = l.NoSandbox(true)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: launching browser: %v", ErrEngineUnavailable, err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: connecting to browser: %v", ErrEngineUnavailable, err)
	}

	e.browser = browser
	return browser, nil
}

// Render loads html into a fresh page and prints it to PDF.
func (e *rodEngine) Render(ctx context.Context, html string, opts *PrintOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	browser, err := e.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("%w: creating page: %v", ErrRenderFailed, err)
	}
	defer func() { _ = page.Close() }()

	timeout := e.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, context.DeadlineExceeded)
	}

	// Bind the page to the caller's context so a mid-render cancellation
	// aborts the CDP calls, not just the entry check above.
	tp := page.Context(ctx).Timeout(timeout)
	if err := tp.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("%w: setting document content: %v", ErrRenderFailed, err)
	}
	if err := tp.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: waiting for page load: %v", ErrRenderFailed, err)
	}

	reader, err := tp.PDF(buildPrintParams(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: printing to PDF: %v", ErrRenderFailed, err)
	}
	pdf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrRenderFailed, err)
	}
	return pdf, nil
}

// buildPrintParams maps PrintOptions onto the CDP request, converting
// millimetres to inches. A nil opts keeps Chrome's defaults.
func buildPrintParams(opts *PrintOptions) *proto.PagePrintToPDF {
	req := &proto.PagePrintToPDF{}
	if opts == nil {
		return req
	}

	req.PrintBackground = opts.PrintBackground
	req.Landscape = opts.Landscape
	req.PreferCSSPageSize = opts.PreferCSSPageSize
	req.PaperWidth = mmToInches(opts.PaperWidth)
	req.PaperHeight = mmToInches(opts.PaperHeight)
	req.MarginTop = mmToInches(opts.MarginTop)
	req.MarginBottom = mmToInches(opts.MarginBottom)
	req.MarginLeft = mmToInches(opts.MarginLeft)
	req.MarginRight = mmToInches(opts.MarginRight)
	if opts.PageRanges != "" {
		req.PageRanges = opts.PageRanges
	}
	return req
}

func mmToInches(mm *float64) *float64 {
	if mm == nil {
		return nil
	}
	inches := *mm / mmPerInch
	return &inches
}

// Close shuts the browser down.
func (e *rodEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browser == nil {
		return nil
	}
	err := e.browser.Close()
	e.browser = nil
	if err != nil {
		return fmt.Errorf("closing browser: %w", err)
	}
	return nil
}
