package screenshot

import (
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

var defaultViewport = playwright.Size{Width: 1200, Height: 800}

var launchArgs = []string{
	"--no-sandbox",
	"--disable-setuid-sandbox",
	"--disable-dev-shm-usage",
	"--disable-accelerated-2d-canvas",
	"--no-first-run",
	"--no-zygote",
	"--disable-gpu",
}

// Install downloads the Chromium build Playwright drives. Run once at
// startup, before Browser.Start.
func Install() error {
	if err := playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium"},
	}); err != nil {
		return fmt.Errorf("could not install browsers: %w", err)
	}
	return nil
}

// Browser owns the single shared headless Chromium process. The process
// lives for the whole service lifetime; captures only create and tear
// down isolated contexts on it.
type Browser struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

func NewBrowser() *Browser {
	return &Browser{}
}

// Start launches the shared Chromium process. Safe to call again after a
// crash; a live browser is left untouched.
func (b *Browser) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.startLocked()
}

func (b *Browser) startLocked() error {
	if b.browser != nil && b.browser.IsConnected() {
		return nil
	}

	if b.pw == nil {
		pw, err := playwright.Run()
		if err != nil {
			return fmt.Errorf("could not start playwright: %w", err)
		}
		b.pw = pw
	}

	browser, err := b.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args:     launchArgs,
	})
	if err != nil {
		return fmt.Errorf("could not launch browser: %w", err)
	}
	b.browser = browser
	return nil
}

// NewContext opens an isolated browsing context with the fixed viewport
// and desktop user agent. The browser is relaunched first if it died.
func (b *Browser) NewContext() (playwright.BrowserContext, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.startLocked(); err != nil {
		return nil, err
	}

	viewport := defaultViewport
	ctx, err := b.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport:          &viewport,
		UserAgent:         playwright.String(defaultUserAgent),
		JavaScriptEnabled: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create context: %w", err)
	}
	return ctx, nil
}

// Stop tears down the browser process and the Playwright driver. Called
// once at service shutdown.
func (b *Browser) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error
	if b.browser != nil {
		if err := b.browser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		b.browser = nil
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
		b.pw = nil
	}
	return firstErr
}
