package screenshot

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

const (
	// DefaultRenderDelay is how long the force-directed graph is given to
	// settle before the element is captured.
	DefaultRenderDelay = 10 * time.Second

	gotoTimeout = 30 * time.Second
	pageSettle  = 5 * time.Second
	popupSettle = 2 * time.Second

	svgSelector = "#svg"
)

// Clicks any element whose visible text is exactly CLOSE, dismissing
// interstitial dialogs.
const closePopupScript = `
() => {
	const elements = Array.from(document.querySelectorAll("*"));
	for (const el of elements) {
		if (el.innerText && el.innerText.trim() === 'CLOSE') {
			el.click();
		}
	}
}`

// Cosmetic normalization so the capture is consistent regardless of
// ambient page state.
const normalizePageScript = `
() => {
	const banner = document.querySelector('div.fundraising-banner.--desktop');
	if (banner) banner.remove();

	const header = document.querySelector('header.mdc-top-app-bar.mdc-top-app-bar--fixed');
	if (header) header.style.display = 'flex';
}`

// The svg may still be transitioning in when we reach it.
const revealSVGScript = `
(svg) => {
	svg.style.visibility = 'visible';
	svg.style.opacity = '1';
}`

// Engine renders a token's map page and captures the graph element as a
// PNG. A channel semaphore bounds in-flight renders so the shared browser
// process is never overwhelmed.
type Engine struct {
	browser    *Browser
	iframeBase string
	sem        chan struct{}
}

func NewEngine(browser *Browser, iframeBase string, concurrency int) *Engine {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Engine{
		browser:    browser,
		iframeBase: strings.TrimSuffix(iframeBase, "/"),
		sem:        make(chan struct{}, concurrency),
	}
}

// TargetURL returns the page rendered for a token.
func (e *Engine) TargetURL(chain, token string) string {
	return fmt.Sprintf("%s/%s/token/%s", e.iframeBase, chain, token)
}

// Render navigates to the token's map page, waits delay for the graph
// simulation to settle and returns the graph element as PNG bytes.
func (e *Engine) Render(chain, token string, delay time.Duration) ([]byte, error) {
	e.sem <- struct{}{}
	defer func() { <-e.sem }()

	context, err := e.browser.NewContext()
	if err != nil {
		return nil, err
	}
	defer context.Close()

	page, err := context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	defer page.Close()

	url := e.TargetURL(chain, token)
	if _, err = page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(gotoTimeout.Milliseconds())),
	}); err != nil {
		return nil, fmt.Errorf("could not navigate to %s: %w", url, err)
	}
	time.Sleep(pageSettle)

	if _, err := page.Evaluate(closePopupScript); err != nil {
		log.Printf("screenshot: failed to close popup on %s: %v", url, err)
	}
	time.Sleep(popupSettle)

	if _, err := page.Evaluate(normalizePageScript); err != nil {
		return nil, fmt.Errorf("could not normalize page: %w", err)
	}

	svg, err := page.QuerySelector(svgSelector)
	if err != nil {
		return nil, fmt.Errorf("could not query svg element: %w", err)
	}
	if svg == nil {
		return nil, fmt.Errorf("svg element not found on %s", url)
	}

	if _, err := svg.Evaluate(revealSVGScript); err != nil {
		return nil, fmt.Errorf("could not reveal svg element: %w", err)
	}

	time.Sleep(delay)

	box, err := svg.BoundingBox()
	if err != nil {
		return nil, fmt.Errorf("could not compute svg bounding box: %w", err)
	}
	if box == nil {
		return nil, fmt.Errorf("svg bounding box not available on %s", url)
	}

	shot, err := svg.Screenshot(playwright.ElementHandleScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	})
	if err != nil {
		return nil, fmt.Errorf("could not take screenshot: %w", err)
	}
	return shot, nil
}
