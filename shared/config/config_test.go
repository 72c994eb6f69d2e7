package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func envMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestYamlConfigLoadsFileOverDefaults(t *testing.T) {
	cfg, err := NewYamlConfigWithOptions(filepath.Join("testdata", "login.yaml"), zaptest.NewLogger(t), nil)
	require.NoError(t, err)

	base, err := cfg.BaseURL()
	require.NoError(t, err)
	assert.Equal(t, ShopBaseURL, base)

	path, _ := cfg.LoginPath()
	assert.Equal(t, DefaultLoginPath, path, "missing key keeps default")

	creds, _ := cfg.Credentials()
	assert.Equal(t, "13800000001", creds.Username)
	assert.Equal(t, "123456", creds.Password)
	assert.Equal(t, DefaultVerifyCode, creds.VerifyCode)

	loc, _ := cfg.Locators()
	assert.Equal(t, "#loginform .login_bnt > a", loc.LoginButton)
	assert.Equal(t, DefaultLocators().Username, loc.Username)

	to, _ := cfg.Timeouts()
	assert.Equal(t, 10*time.Second, to.LoginSuccess)
	assert.Equal(t, 5*time.Second, to.ErrorPopup)
	assert.Equal(t, DefaultTimeouts().LogoutClick, to.LogoutClick)

	b, _ := cfg.Browser()
	assert.Equal(t, EngineFirefox, b.Engine)
	assert.False(t, b.Headless)

	lvl, _ := cfg.LogLevel()
	assert.Equal(t, "debug", lvl)
	tags, _ := cfg.ScenarioTags()
	assert.Equal(t, "@smoke and not @slow", tags)
}

func TestYamlConfigEnvironmentWins(t *testing.T) {
	lookup := envMap(map[string]string{
		EnvUsername: "env-user",
		EnvPassword: "",
		EnvBaseURL:  "http://127.0.0.1:8080",
		EnvBrowser:  "WebKit",
		EnvHeadless: "true",
	})
	cfg, err := NewYamlConfigWithOptions(filepath.Join("testdata", "login.yaml"), zaptest.NewLogger(t), lookup)
	require.NoError(t, err)

	creds, _ := cfg.Credentials()
	assert.Equal(t, "env-user", creds.Username)
	assert.Equal(t, "", creds.Password, "a set-but-empty variable still overrides")

	base, _ := cfg.BaseURL()
	assert.Equal(t, "http://127.0.0.1:8080", base)

	b, _ := cfg.Browser()
	assert.Equal(t, EngineWebkit, b.Engine)
	assert.True(t, b.Headless)
}

func TestYamlConfigUpdateReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "login.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o644))

	cfg, err := NewYamlConfigWithOptions(path, zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	lvl, _ := cfg.LogLevel()
	assert.Equal(t, "warn", lvl)

	require.NoError(t, os.WriteFile(path, []byte("log_level: error\n"), 0o644))
	require.NoError(t, cfg.Update())
	lvl, _ = cfg.LogLevel()
	assert.Equal(t, "error", lvl)
	require.NoError(t, cfg.Status(t.Context()))
}

func TestYamlConfigErrors(t *testing.T) {
	_, err := NewYamlConfigWithOptions(filepath.Join(t.TempDir(), "missing.yaml"), nil, nil)
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeouts: [nope"), 0o644))
	_, err = NewYamlConfigWithOptions(path, nil, nil)
	require.Error(t, err)

	good := filepath.Join(t.TempDir(), "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("{}"), 0o644))
	_, err = NewYamlConfigWithOptions(good, nil, envMap(map[string]string{EnvBrowser: "lynx"}))
	require.ErrorContains(t, err, "unknown browser engine")
}

func TestApplyEnvBooleans(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, ApplyEnv(&s, envMap(map[string]string{
		EnvHeadless:        "false",
		EnvRemoteBrowser:   "1",
		EnvInstallBrowsers: "",
	})))
	assert.False(t, s.Browser.Headless)
	assert.True(t, s.Browser.Remote)
	assert.False(t, s.Browser.InstallBrowsers)

	err := ApplyEnv(&s, envMap(map[string]string{EnvHeadless: "maybe"}))
	require.ErrorContains(t, err, EnvHeadless)
}

func TestInternalConfigDefaultsAndSetters(t *testing.T) {
	cfg := NewInternalConfig()

	base, _ := cfg.BaseURL()
	assert.Empty(t, base)
	creds, _ := cfg.Credentials()
	assert.Equal(t, DefaultVerifyCode, creds.VerifyCode)

	cfg.SetBaseURL(ShopBaseURL)
	base, _ = cfg.BaseURL()
	assert.Equal(t, ShopBaseURL, base)

	cfg.SetTimeouts(Timeouts{LoginSuccess: 7 * time.Second})
	to, _ := cfg.Timeouts()
	assert.Equal(t, 7*time.Second, to.LoginSuccess)
	assert.Equal(t, DefaultTimeouts().ErrorPopup, to.ErrorPopup, "zero durations fall back")

	cfg.SetBrowser(BrowserSettings{Remote: true})
	b, _ := cfg.Browser()
	assert.True(t, b.Remote)
	assert.Equal(t, EngineChromium, b.Engine)
	assert.NotEmpty(t, b.RemoteImage)
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "https://hmshop-test.itheima.net/Home/user/login.html", LoginURL(ShopBaseURL+"/", DefaultLoginPath))
	assert.Equal(t, "http://127.0.0.1:1/a", LoginURL("http://127.0.0.1:1", "a"))
}
