package env

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/shopqa/logintests/browser"
	"github.com/shopqa/logintests/shared/config"
)

const BrowserComponentName = "browser"

// Session is the one browser session the whole suite shares.
type Session struct {
	Browser playwright.Browser
	Context playwright.BrowserContext
	Page    *browser.Page
	// BaseURL is the shop address as seen from the browser.
	BaseURL string
}

// BrowserEnv launches or connects to the configured browser and opens the
// shared page.
type BrowserEnv struct {
	BaseEnv
	settings config.BrowserSettings
	timeouts config.Timeouts

	mu      sync.RWMutex
	session *Session
}

func NewBrowserEnv(settings config.BrowserSettings, timeouts config.Timeouts) *BrowserEnv {
	return &BrowserEnv{
		BaseEnv:  BaseEnv{name: BrowserComponentName},
		settings: settings,
		timeouts: timeouts,
	}
}

func (e *BrowserEnv) Configure(envs *Envs) ([]string, error) {
	deps := []string{PlaywrightComponentName, ShopComponentName}
	if e.settings.Remote {
		deps = append(deps, RemoteBrowserComponentName)
	}
	return deps, nil
}

func (e *BrowserEnv) Start(ctx context.Context, envs *Envs) <-chan error {
	resultChan := make(chan error, 1)
	logger := envs.Logger().With(zap.String("component", e.Name()))

	go func() {
		defer close(resultChan)

		pw, ok := envs.GetDetails(PlaywrightComponentName).(*playwright.Playwright)
		if !ok || pw == nil {
			resultChan <- fmt.Errorf("playwright driver is not running")
			return
		}
		browserType, err := browser.BrowserType(pw, e.settings.Engine)
		if err != nil {
			resultChan <- err
			return
		}

		baseURL := envs.GetURL(ShopComponentName)
		var b playwright.Browser
		if e.settings.Remote {
			remote, ok := envs.GetDetails(RemoteBrowserComponentName).(RemoteBrowserDetails)
			if !ok || remote.WSEndpoint == "" {
				resultChan <- fmt.Errorf("remote browser endpoint is not available")
				return
			}
			baseURL = remote.ShopURL
			logger.Info("Connecting to remote browser", zap.String("endpoint", remote.WSEndpoint))
			b, err = browserType.Connect(remote.WSEndpoint)
		} else {
			headed := isDebugMode(logger)
			logger.Info("Launching browser",
				zap.String("engine", browserType.Name()), zap.String("channel", e.settings.Channel),
				zap.Bool("headless", e.settings.Headless && !headed))
			b, err = browserType.Launch(browser.LaunchOptions(e.settings, headed))
		}
		if err != nil {
			resultChan <- fmt.Errorf("could not launch browser: %w", err)
			return
		}

		bctx, err := b.NewContext(playwright.BrowserNewContextOptions{
			IgnoreHttpsErrors: playwright.Bool(true),
			Locale:            playwright.String("zh-CN"),
		})
		if err != nil {
			_ = b.Close()
			resultChan <- fmt.Errorf("could not create browser context: %w", err)
			return
		}
		raw, err := bctx.NewPage()
		if err != nil {
			_ = bctx.Close()
			_ = b.Close()
			resultChan <- fmt.Errorf("could not create page: %w", err)
			return
		}
		raw.SetDefaultTimeout(float64(e.timeouts.Action.Milliseconds()))
		raw.SetDefaultNavigationTimeout(float64(e.timeouts.Navigation.Milliseconds()))

		e.mu.Lock()
		e.session = &Session{
			Browser: b,
			Context: bctx,
			Page:    browser.NewPage(raw, e.timeouts.Action, e.timeouts.Navigation, logger),
			BaseURL: baseURL,
		}
		e.mu.Unlock()
		resultChan <- nil
	}()

	return resultChan
}

func (e *BrowserEnv) Stop() error {
	e.mu.Lock()
	s := e.session
	e.session = nil
	e.mu.Unlock()

	if s == nil {
		return nil
	}
	var errs []string
	if err := s.Context.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := s.Browser.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to stop %s: %s", e.Name(), strings.Join(errs, "; "))
	}
	return nil
}

// GetDetails returns the *Session once started.
func (e *BrowserEnv) GetDetails() any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.session == nil {
		return nil
	}
	return e.session
}

// isDebugMode reports whether the tests run under a debugger, in which
// case the browser window is shown.
func isDebugMode(logger *zap.Logger) bool {
	parentProc, err := process.NewProcess(int32(os.Getppid()))
	if err != nil {
		logger.Debug("Error getting parent process", zap.Error(err))
		return false
	}

	parentName, err := parentProc.Name()
	if err != nil {
		logger.Debug("Error getting parent process name", zap.Error(err))
		return false
	}
	if slices.Contains([]string{"dlv", "debug"}, parentName) {
		return true
	}

	parentCmdline, err := parentProc.CmdlineSlice()
	if err == nil {
		for _, arg := range parentCmdline {
			if arg == "debug" || arg == "--" || strings.Contains(arg, "dlv") {
				return true
			}
		}
	}
	return false
}
