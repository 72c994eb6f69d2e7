// Package browser adapts a playwright page to the element operations the
// page objects need: navigate, fill, click, wait for visibility and read text.
package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Page drives one playwright page. Single-element operations act on the
// first match of a selector.
type Page struct {
	page       playwright.Page
	action     time.Duration
	navigation time.Duration
	logger     *zap.Logger
}

// NewPage wraps page. action bounds fill/read operations and navigation
// bounds page loads; zero values keep playwright's defaults.
func NewPage(page playwright.Page, action, navigation time.Duration, logger *zap.Logger) *Page {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Page{page: page, action: action, navigation: navigation, logger: logger}
}

// Raw returns the wrapped playwright page.
func (p *Page) Raw() playwright.Page {
	return p.page
}

func millis(d time.Duration) *float64 {
	if d <= 0 {
		return nil
	}
	return playwright.Float(float64(d.Milliseconds()))
}

// Navigate loads url and waits for DOMContentLoaded.
func (p *Page) Navigate(url string) error {
	p.logger.Debug("Navigating", zap.String("url", url))
	resp, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   millis(p.navigation),
	})
	if err != nil {
		return wrap("navigate", url, err)
	}
	if resp != nil && resp.Status() >= 400 {
		return fmt.Errorf("navigate %q: status %d", url, resp.Status())
	}
	return nil
}

// Fill clears the field matched by selector and types value into it.
// It fails with ErrNotFound when the field is absent from the current DOM.
func (p *Page) Fill(selector, value string) error {
	locator := p.page.Locator(selector)
	count, err := locator.Count()
	if err != nil {
		return wrap("fill", selector, err)
	}
	if count == 0 {
		return fmt.Errorf("fill %q: %w", selector, ErrNotFound)
	}

	field := locator.First()
	if err := field.Clear(playwright.LocatorClearOptions{Timeout: millis(p.action)}); err != nil {
		return wrap("clear", selector, err)
	}
	if value == "" {
		return nil
	}
	if err := field.PressSequentially(value, playwright.LocatorPressSequentiallyOptions{Timeout: millis(p.action)}); err != nil {
		return wrap("type", selector, err)
	}
	return nil
}

// Click waits up to timeout for the element to be actionable, then clicks it.
func (p *Page) Click(selector string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = p.action
	}
	err := p.page.Locator(selector).First().Click(playwright.LocatorClickOptions{Timeout: millis(timeout)})
	return wrap("click", selector, err)
}

// WaitVisible waits up to timeout for the element to become visible.
func (p *Page) WaitVisible(selector string, timeout time.Duration) error {
	err := p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: millis(timeout),
	})
	return wrap("wait visible", selector, err)
}

// Text returns the rendered text of the element.
func (p *Page) Text(selector string) (string, error) {
	text, err := p.page.Locator(selector).First().InnerText(playwright.LocatorInnerTextOptions{Timeout: millis(p.action)})
	if err != nil {
		return "", wrap("read text", selector, err)
	}
	return text, nil
}

// VisibleTexts waits up to timeout for any match to be visible and returns
// the trimmed text of every visible match.
func (p *Page) VisibleTexts(selector string, timeout time.Duration) ([]string, error) {
	if err := p.WaitVisible(selector, timeout); err != nil {
		return nil, err
	}
	matches, err := p.page.Locator(selector).All()
	if err != nil {
		return nil, wrap("list", selector, err)
	}

	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		visible, err := m.IsVisible()
		if err != nil || !visible {
			continue
		}
		text, err := m.InnerText(playwright.LocatorInnerTextOptions{Timeout: millis(p.action)})
		if err != nil {
			p.logger.Debug("Skipping unreadable match", zap.String("selector", selector), zap.Error(err))
			continue
		}
		texts = append(texts, strings.TrimSpace(text))
	}
	return texts, nil
}
