package browser

import (
	"errors"
	"fmt"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopqa/logintests/shared/config"
)

func TestLaunchOptions(t *testing.T) {
	opts := LaunchOptions(config.BrowserSettings{Engine: config.EngineChromium, Channel: "msedge", Headless: true}, false)
	require.NotNil(t, opts.Headless)
	assert.True(t, *opts.Headless)
	require.NotNil(t, opts.Channel)
	assert.Equal(t, "msedge", *opts.Channel)
	assert.Nil(t, opts.SlowMo)

	opts = LaunchOptions(config.BrowserSettings{Engine: config.EngineFirefox, Channel: "msedge", Headless: true}, true)
	assert.False(t, *opts.Headless, "a debugger forces a visible window")
	assert.Nil(t, opts.Channel, "channels only apply to chromium")
	require.NotNil(t, opts.SlowMo)
}

func TestInstallBrowsers(t *testing.T) {
	assert.Equal(t, []string{"chromium"}, InstallBrowsers(config.BrowserSettings{}))
	assert.Equal(t, []string{"webkit"}, InstallBrowsers(config.BrowserSettings{Engine: config.EngineWebkit}))
	assert.Equal(t, []string{"msedge"}, InstallBrowsers(config.BrowserSettings{Engine: config.EngineChromium, Channel: "msedge"}))
}

func TestIsTimeout(t *testing.T) {
	assert.False(t, IsTimeout(nil))
	assert.True(t, IsTimeout(ErrTimeout))
	assert.True(t, IsTimeout(fmt.Errorf("click: %w", ErrTimeout)))
	assert.True(t, IsTimeout(fmt.Errorf("wrapped: %w", playwright.ErrTimeout)))
	assert.False(t, IsTimeout(errors.New("Timeout 3000ms exceeded.")), "only typed timeouts count")
	assert.False(t, IsTimeout(ErrNotFound))
}

func TestWrapTranslatesTimeouts(t *testing.T) {
	assert.Nil(t, wrap("click", "#a", nil))

	err := wrap("click", "#a", fmt.Errorf("locator.click: %w", playwright.ErrTimeout))
	require.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), `click "#a"`)

	err = wrap("fill", "#b", ErrNotFound)
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, errors.Is(err, ErrTimeout))
}
