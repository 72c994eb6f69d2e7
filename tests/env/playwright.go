package env

import (
	"context"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/shopqa/logintests/browser"
	"github.com/shopqa/logintests/shared/config"
)

const PlaywrightComponentName = "playwright"

// PlaywrightEnv runs the playwright driver.
type PlaywrightEnv struct {
	BaseEnv
	settings config.BrowserSettings

	pwInstance *playwright.Playwright
	pwMux      sync.RWMutex
}

func NewPlaywrightEnv(settings config.BrowserSettings) *PlaywrightEnv {
	return &PlaywrightEnv{
		BaseEnv:  BaseEnv{name: PlaywrightComponentName},
		settings: settings,
	}
}

// Start installs the driver and browsers when requested, then runs the driver.
func (e *PlaywrightEnv) Start(ctx context.Context, envs *Envs) <-chan error {
	resultChan := make(chan error, 1)
	logger := envs.Logger().With(zap.String("component", e.Name()))

	go func() {
		defer close(resultChan)

		runOptions := &playwright.RunOptions{
			Browsers: browser.InstallBrowsers(e.settings),
			Verbose:  false,
		}
		if e.settings.InstallBrowsers {
			logger.Info("Installing playwright driver and browsers", zap.Strings("browsers", runOptions.Browsers))
			if err := playwright.Install(runOptions); err != nil {
				resultChan <- fmt.Errorf("failed to install playwright: %w", err)
				return
			}
		}

		pw, err := playwright.Run(runOptions)
		if err != nil {
			if ctx.Err() != nil {
				resultChan <- fmt.Errorf("context cancelled during playwright start: %w", ctx.Err())
				return
			}
			resultChan <- fmt.Errorf("failed to run playwright: %w", err)
			return
		}

		e.pwMux.Lock()
		e.pwInstance = pw
		e.pwMux.Unlock()
		logger.Debug("Playwright driver running")
		resultChan <- nil
	}()

	return resultChan
}

func (e *PlaywrightEnv) Stop() error {
	e.pwMux.Lock()
	pw := e.pwInstance
	e.pwInstance = nil
	e.pwMux.Unlock()

	if pw == nil {
		return nil
	}
	if err := pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop %s: %w", e.Name(), err)
	}
	return nil
}

// GetDetails returns the *playwright.Playwright instance.
func (e *PlaywrightEnv) GetDetails() any {
	e.pwMux.RLock()
	defer e.pwMux.RUnlock()
	return e.pwInstance
}
