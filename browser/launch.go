package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/shopqa/logintests/shared/config"
)

// BrowserType picks the playwright browser type for engine.
func BrowserType(pw *playwright.Playwright, engine config.BrowserEngine) (playwright.BrowserType, error) {
	switch engine {
	case config.EngineChromium, "":
		return pw.Chromium, nil
	case config.EngineFirefox:
		return pw.Firefox, nil
	case config.EngineWebkit:
		return pw.WebKit, nil
	default:
		return nil, fmt.Errorf("unknown browser engine %q", engine)
	}
}

// LaunchOptions builds launch options from settings. headed forces a
// visible window regardless of settings.Headless.
func LaunchOptions(settings config.BrowserSettings, headed bool) playwright.BrowserTypeLaunchOptions {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(settings.Headless && !headed),
	}
	if settings.Channel != "" && (settings.Engine == config.EngineChromium || settings.Engine == "") {
		opts.Channel = playwright.String(settings.Channel)
	}
	if headed {
		opts.SlowMo = playwright.Float(50)
	}
	return opts
}

// InstallBrowsers lists the playwright browser names to install for settings.
func InstallBrowsers(settings config.BrowserSettings) []string {
	if settings.Channel != "" {
		return []string{settings.Channel}
	}
	if settings.Engine == "" {
		return []string{string(config.EngineChromium)}
	}
	return []string{string(settings.Engine)}
}
