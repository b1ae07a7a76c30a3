package fetcher

import (
	"context"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"

	"github.com/sitesentry/sitesentry/internal/common"
	"github.com/sitesentry/sitesentry/internal/config"
)

// BrowserFetcher is the rod-backed PageFetcher. It keeps a pool of browser
// connections so concurrent fetches use isolated pages without paying a
// launch per fetch.
type BrowserFetcher struct {
	config      config.FetcherConfig
	logger      zerolog.Logger
	browserPool chan *rod.Browser
	launcher    *launcher.Launcher
	mutex       sync.Mutex
	isRunning   bool
}

// NewBrowserFetcher creates a browser fetcher. Start must be called before
// the first Fetch.
func NewBrowserFetcher(cfg config.FetcherConfig, logger zerolog.Logger) *BrowserFetcher {
	return &BrowserFetcher{
		config:      cfg,
		logger:      logger.With().Str("component", "BrowserFetcher").Logger(),
		browserPool: make(chan *rod.Browser, cfg.PoolSize),
	}
}

// Start launches Chrome and fills the browser pool.
func (bf *BrowserFetcher) Start() error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.isRunning {
		return nil
	}

	l := launcher.New()

	if bf.config.ChromePath != "" {
		l = l.Bin(bf.config.ChromePath)
	}
	if bf.config.UserDataDir != "" {
		l = l.UserDataDir(bf.config.UserDataDir)
	}

	l = l.
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("disable-default-apps").
		Set("disable-sync")

	controlURL, err := l.Launch()
	if err != nil {
		return common.WrapError(err, "failed to launch browser")
	}
	bf.launcher = l

	for i := 0; i < bf.config.PoolSize; i++ {
		browser := rod.New().ControlURL(controlURL)
		if err := browser.Connect(); err != nil {
			bf.logger.Error().Err(err).Int("browser_index", i).Msg("Failed to connect browser")
			continue
		}
		bf.browserPool <- browser
	}

	bf.isRunning = true
	bf.logger.Info().Int("pool_size", bf.config.PoolSize).Msg("Browser fetcher started")
	return nil
}

// Stop closes all pooled browsers and the launcher.
func (bf *BrowserFetcher) Stop() {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if !bf.isRunning {
		return
	}

	close(bf.browserPool)
	for browser := range bf.browserPool {
		if browser != nil {
			_ = browser.Close()
		}
	}

	if bf.launcher != nil {
		bf.launcher.Cleanup()
	}

	bf.isRunning = false
	bf.logger.Info().Msg("Browser fetcher stopped")
}

func (bf *BrowserFetcher) getBrowser() (*rod.Browser, error) {
	bf.mutex.Lock()
	running := bf.isRunning
	bf.mutex.Unlock()
	if !running {
		return nil, common.NewError("browser fetcher not running")
	}

	select {
	case browser := <-bf.browserPool:
		return browser, nil
	case <-time.After(10 * time.Second):
		return nil, common.NewError("timeout waiting for browser from pool")
	}
}

func (bf *BrowserFetcher) returnBrowser(browser *rod.Browser) {
	if browser == nil {
		return
	}
	select {
	case bf.browserPool <- browser:
	default:
		_ = browser.Close()
	}
}

// Fetch navigates to the URL in an isolated page, waits for load plus the
// settle delay, and returns the rendered HTML, metadata, and optionally a
// full-page screenshot. Navigation errors and timeouts surface as
// ErrFetchFailure.
func (bf *BrowserFetcher) Fetch(ctx context.Context, url string, opts FetchOptions) (*PageResult, error) {
	browser, err := bf.getBrowser()
	if err != nil {
		return nil, common.WrapError(err, "failed to get browser")
	}
	defer bf.returnBrowser(browser)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Duration(bf.config.NavigationTimeoutMs) * time.Millisecond
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page, err := browser.Context(timeoutCtx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, common.WrapError(err, "failed to create page")
	}
	defer func() { _ = page.Close() }()

	width, height := bf.config.WindowWidth, bf.config.WindowHeight
	if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		width, height = opts.Viewport.Width, opts.Viewport.Height
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  width,
		Height: height,
	}); err != nil {
		bf.logger.Warn().Err(err).Msg("Failed to set viewport")
	}

	if bf.config.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: bf.config.UserAgent,
		}); err != nil {
			bf.logger.Warn().Err(err).Msg("Failed to set user agent")
		}
	}

	if err := page.Navigate(url); err != nil {
		return nil, common.WrapErrorf(ErrFetchFailure, "failed to navigate to %s: %v", url, err)
	}

	if err := page.WaitLoad(); err != nil {
		return nil, common.WrapErrorf(ErrFetchFailure, "page load timeout for %s: %v", url, err)
	}

	settle := opts.SettleDelay
	if settle <= 0 {
		settle = time.Duration(bf.config.SettleDelayMs) * time.Millisecond
	}
	// No reliable "fully rendered" signal is available; a fixed grace
	// period lets async rendering catch up.
	if settle > 0 {
		select {
		case <-time.After(settle):
		case <-timeoutCtx.Done():
			return nil, common.WrapErrorf(ErrFetchFailure, "settle delay interrupted for %s: %v", url, timeoutCtx.Err())
		}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, common.WrapErrorf(ErrFetchFailure, "failed to get HTML for %s: %v", url, err)
	}

	result := &PageResult{
		HTML: html,
		Metadata: PageMetadata{
			FinalURL:  page.MustInfo().URL,
			FetchedAt: time.Now(),
		},
	}

	if titleElement, err := page.Element("title"); err == nil {
		if titleText, err := titleElement.Text(); err == nil {
			result.Metadata.Title = titleText
		}
	}

	if opts.CaptureScreenshot {
		shot, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
			Format: proto.PageCaptureScreenshotFormatPng,
		})
		if err != nil {
			return nil, common.WrapErrorf(ErrFetchFailure, "failed to capture screenshot for %s: %v", url, err)
		}
		result.Screenshot = shot
	}

	return result, nil
}
