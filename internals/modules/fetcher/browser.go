package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"pagewatch/config"
	"pagewatch/internals/modules/artifact"
	"pagewatch/internals/modules/monitor"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

const (
	baseViewportWidth  = 1280
	baseViewportHeight = 800
	viewportJitter     = 100
)

// BrowserFetcher renders pages in a shared headless Chromium. Concurrent
// fetches each get their own tab, bounded by cfg.MaxPages.
type BrowserFetcher struct {
	cfg       *config.FetcherConfig
	artifacts ArtifactSaver
	cookies   *CookieJar
	logger    zerolog.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	pages    chan struct{}
}

func NewBrowserFetcher(cfg *config.FetcherConfig, artifacts ArtifactSaver, logger *zerolog.Logger) *BrowserFetcher {
	return &BrowserFetcher{
		cfg:       cfg,
		artifacts: artifacts,
		cookies:   NewCookieJar(cfg.CookieFile),
		logger:    logger.With().Str("component", "browser_fetcher").Logger(),
		pages:     make(chan struct{}, cfg.MaxPages),
	}
}

// Start launches the browser. Calling it twice is a no-op.
func (b *BrowserFetcher) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return nil
	}

	l := launcher.New().
		Headless(b.cfg.Headless).
		NoSandbox(b.cfg.NoSandbox).
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled").
		Set("no-first-run").
		Set("disable-default-apps")

	if b.cfg.ChromePath != "" {
		l = l.Bin(b.cfg.ChromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return fmt.Errorf("connect browser: %w", err)
	}

	b.launcher = l
	b.browser = browser
	b.logger.Info().Int("max_pages", b.cfg.MaxPages).Msg("browser started")
	return nil
}

func (b *BrowserFetcher) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			b.logger.Warn().Err(err).Msg("failed to close browser")
		}
		b.browser = nil
	}
	if b.launcher != nil {
		b.launcher.Cleanup()
		b.launcher = nil
	}
	b.logger.Info().Msg("browser stopped")
}

func (b *BrowserFetcher) Fetch(ctx context.Context, req Request) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	b.mu.Lock()
	browser := b.browser
	b.mu.Unlock()
	if browser == nil {
		return Result{}, errors.New("browser not started")
	}

	select {
	case b.pages <- struct{}{}:
	case <-ctx.Done():
		return Result{}, fmt.Errorf("waiting for a browser tab: %w", ctx.Err())
	}
	defer func() { <-b.pages }()

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return Result{}, fmt.Errorf("open tab: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			b.logger.Debug().Err(err).Msg("failed to close tab")
		}
	}()

	if err := b.prepare(page, req); err != nil {
		return Result{}, err
	}

	if err := b.navigate(ctx, page, req); err != nil {
		return Result{}, err
	}

	if req.WaitForSelector != "" {
		// a missing wait selector is not fatal, the page may still be usable
		if _, err := page.Timeout(b.cfg.SelectorTimeout).Element(req.WaitForSelector); err != nil {
			b.logger.Debug().Str("selector", req.WaitForSelector).Msg("wait selector timed out, proceeding")
		}
	}

	if err := sleep(ctx, req.WaitDelay); err != nil {
		return Result{}, fmt.Errorf("post-load delay: %w", err)
	}

	content, err := b.extract(page, req.Selector)
	if err != nil {
		return Result{}, err
	}

	if err := b.checkChallenge(page); err != nil {
		return Result{}, err
	}

	res := Result{Content: content}
	res.Artifact = b.screenshot(page, req)
	b.saveCookies(page)

	return res, nil
}

func (b *BrowserFetcher) prepare(page *rod.Page, req Request) error {
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             baseViewportWidth + rand.IntN(viewportJitter),
		Height:            baseViewportHeight + rand.IntN(viewportJitter),
		DeviceScaleFactor: 1,
	}); err != nil {
		b.logger.Warn().Err(err).Msg("failed to set viewport")
	}

	if b.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.cfg.UserAgent}); err != nil {
			b.logger.Warn().Err(err).Msg("failed to set user agent")
		}
	}

	cookies, err := b.cookies.Load()
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to load cookies")
	} else if len(cookies) > 0 {
		if err := page.SetCookies(proto.CookiesToParams(cookies)); err != nil {
			b.logger.Warn().Err(err).Msg("failed to restore cookies")
		}
	}

	if len(req.Headers) > 0 {
		dict := make([]string, 0, len(req.Headers)*2)
		for k, v := range req.Headers {
			dict = append(dict, k, v)
		}
		// headers live as long as the tab, no cleanup needed
		if _, err := page.SetExtraHeaders(dict); err != nil {
			return fmt.Errorf("set headers: %w", err)
		}
	}
	return nil
}

func (b *BrowserFetcher) navigate(ctx context.Context, page *rod.Page, req Request) error {
	navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavigationTimeout)
	defer cancel()

	nav := page.Context(navCtx)
	wait := nav.WaitNavigation(lifecycleEvent(req.WaitUntil))

	if err := nav.Navigate(req.URL); err != nil {
		return fmt.Errorf("navigate %s: %w", req.URL, err)
	}
	wait()

	if err := navCtx.Err(); err != nil {
		return fmt.Errorf("waiting for %s: %w", req.WaitUntil, err)
	}
	return nil
}

// extract returns the outer HTML of all selector matches joined by newlines,
// or the whole document without a selector. Selector errors yield "".
func (b *BrowserFetcher) extract(page *rod.Page, selector string) (string, error) {
	if selector == "" {
		html, err := page.HTML()
		if err != nil {
			return "", fmt.Errorf("read page html: %w", err)
		}
		return html, nil
	}

	els, err := page.Elements(selector)
	if err != nil {
		b.logger.Warn().Err(err).Str("selector", selector).Msg("failed to evaluate selector")
		return "", nil
	}

	parts := make([]string, 0, len(els))
	for _, el := range els {
		h, err := el.HTML()
		if err != nil {
			b.logger.Warn().Err(err).Str("selector", selector).Msg("failed to read element html")
			return "", nil
		}
		parts = append(parts, h)
	}

	if len(parts) == 0 {
		b.logger.Debug().Str("selector", selector).Msg("selector matched no elements")
	}
	return strings.Join(parts, "\n"), nil
}

func (b *BrowserFetcher) checkChallenge(page *rod.Page) error {
	info, err := page.Info()
	if err != nil {
		return fmt.Errorf("read page info: %w", err)
	}
	html, err := page.HTML()
	if err != nil {
		return fmt.Errorf("read page html: %w", err)
	}
	if IsChallenge(info.Title, html) {
		return ErrChallenge
	}
	return nil
}

// screenshot captures the full page; failures only cost the artifact.
func (b *BrowserFetcher) screenshot(page *rod.Page, req Request) string {
	if b.artifacts == nil {
		return ""
	}

	data, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		b.logger.Warn().Err(err).Str("monitor_id", req.MonitorID.String()).Msg("failed to capture screenshot")
		return ""
	}

	name := artifact.NameFor(req.MonitorID)
	if err := b.artifacts.Save(name, data); err != nil {
		b.logger.Warn().Err(err).Str("monitor_id", req.MonitorID.String()).Msg("failed to save screenshot")
		return ""
	}
	return name
}

func (b *BrowserFetcher) saveCookies(page *rod.Page) {
	cookies, err := page.Cookies(nil)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to read cookies")
		return
	}
	if err := b.cookies.Save(cookies); err != nil {
		b.logger.Warn().Err(err).Msg("failed to save cookies")
	}
}

func lifecycleEvent(waitUntil string) proto.PageLifecycleEventName {
	switch waitUntil {
	case monitor.WaitLoad:
		return proto.PageLifecycleEventNameLoad
	case monitor.WaitDOMContentLoaded:
		return proto.PageLifecycleEventNameDOMContentLoaded
	case monitor.WaitNetworkIdle0:
		return proto.PageLifecycleEventNameNetworkIdle
	default:
		return proto.PageLifecycleEventNameNetworkAlmostIdle
	}
}
