package render

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"reelpress/internal/config"
)

// chromeEngine rasterizes composed documents in a headless Chromium
// instance driven over the DevTools protocol.
type chromeEngine struct {
	cfg config.Render

	allocCancel context.CancelFunc
	tabCancel   context.CancelFunc
	tabCtx      context.Context
}

// NewChromeEngineFactory returns a factory producing headless-browser
// engines configured from cfg.
func NewChromeEngineFactory(cfg config.Render) EngineFactory {
	return func() Engine {
		return &chromeEngine{cfg: cfg}
	}
}

func (e *chromeEngine) Launch(ctx context.Context) error {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)
	if path := strings.TrimSpace(e.cfg.BrowserPath); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}

	launchTimeout := time.Duration(e.cfg.LaunchTimeout) * time.Second
	if launchTimeout <= 0 {
		launchTimeout = 60 * time.Second
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	startCtx, cancel := context.WithTimeout(tabCtx, launchTimeout)
	defer cancel()

	// Force the browser process to start now so launch failures surface
	// here rather than inside the first capture.
	if err := chromedp.Run(startCtx); err != nil {
		tabCancel()
		allocCancel()
		return fmt.Errorf("launch browser: %w", err)
	}

	e.allocCancel = allocCancel
	e.tabCancel = tabCancel
	e.tabCtx = tabCtx
	return nil
}

func (e *chromeEngine) Capture(ctx context.Context, documentURL, outPath string) error {
	if e.tabCtx == nil {
		return fmt.Errorf("engine not launched")
	}

	loadTimeout := time.Duration(e.cfg.LoadTimeout) * time.Second
	if loadTimeout <= 0 {
		loadTimeout = 60 * time.Second
	}
	runCtx, cancel := context.WithTimeout(e.tabCtx, loadTimeout)
	defer cancel()

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	width := int64(e.cfg.ViewportWidth)
	height := int64(e.cfg.ViewportHeight)
	scale := e.cfg.Scale
	if scale <= 0 {
		scale = 1
	}
	selector := strings.TrimSpace(e.cfg.Selector)
	if selector == "" {
		selector = ".template"
	}

	var shot []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(width, height, chromedp.EmulateScale(scale)),
		// Transparent page background so the capture keeps the element's
		// rounded corners and drop shadow.
		chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetDefaultBackgroundColorOverride().
				WithColor(&cdp.RGBA{R: 0, G: 0, B: 0, A: 0}).
				Do(ctx)
		}),
		chromedp.Navigate(documentURL),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, exp, err := runtime.Evaluate(`document.fonts.ready`).
				WithAwaitPromise(true).
				Do(ctx)
			if err != nil {
				return err
			}
			if exp != nil {
				return exp
			}
			return nil
		}),
		chromedp.Screenshot(selector, &shot, chromedp.NodeVisible, chromedp.ByQuery),
	}
	if err := chromedp.Run(runCtx, tasks); err != nil {
		return fmt.Errorf("capture %s: %w", documentURL, err)
	}
	if err := os.WriteFile(outPath, shot, 0o644); err != nil {
		return fmt.Errorf("write capture: %w", err)
	}
	return nil
}

func (e *chromeEngine) Close() error {
	if e.tabCancel != nil {
		e.tabCancel()
		e.tabCancel = nil
	}
	if e.allocCancel != nil {
		e.allocCancel()
		e.allocCancel = nil
	}
	e.tabCtx = nil
	return nil
}
