package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Environment variable names
const (
	EnvUsername        = "TEST_USERNAME"
	EnvPassword        = "TEST_PASSWORD"
	EnvConfigYAML      = "LOGIN_TEST_CONFIG"
	EnvBaseURL         = "LOGIN_BASE_URL"
	EnvBrowser         = "LOGIN_BROWSER"
	EnvBrowserChannel  = "LOGIN_BROWSER_CHANNEL"
	EnvHeadless        = "LOGIN_HEADLESS"
	EnvRemoteBrowser   = "LOGIN_REMOTE_BROWSER"
	EnvInstallBrowsers = "LOGIN_INSTALL_BROWSERS"
	EnvLogLevel        = "LOGIN_LOG_LEVEL"
	EnvScenarioTags    = "LOGIN_TAGS"
	EnvArtifactsDir    = "LOGIN_ARTIFACTS_DIR"
)

// LookupFunc reads one environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides s with every variable that lookup reports as set.
// A variable set to the empty string still overrides, except for the
// boolean switches where an empty value is ignored.
func ApplyEnv(s *Settings, lookup LookupFunc) error {
	if v, ok := lookup(EnvUsername); ok {
		s.Credentials.Username = v
	}
	if v, ok := lookup(EnvPassword); ok {
		s.Credentials.Password = v
	}
	if v, ok := lookup(EnvBaseURL); ok {
		s.BaseURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvBrowser); ok && v != "" {
		engine := BrowserEngine(strings.ToLower(strings.TrimSpace(v)))
		switch engine {
		case EngineChromium, EngineFirefox, EngineWebkit:
			s.Browser.Engine = engine
		default:
			return fmt.Errorf("%s: unknown browser engine %q", EnvBrowser, v)
		}
	}
	if v, ok := lookup(EnvBrowserChannel); ok {
		s.Browser.Channel = strings.TrimSpace(v)
	}

	flags := []struct {
		name string
		dst  *bool
	}{
		{EnvHeadless, &s.Browser.Headless},
		{EnvRemoteBrowser, &s.Browser.Remote},
		{EnvInstallBrowsers, &s.Browser.InstallBrowsers},
	}
	for _, f := range flags {
		v, ok := lookup(f.name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = b
	}

	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		s.LogLevel = v
	}
	if v, ok := lookup(EnvScenarioTags); ok {
		s.ScenarioTags = v
	}
	if v, ok := lookup(EnvArtifactsDir); ok && v != "" {
		s.ArtifactsDir = v
	}
	return nil
}

// Load reads .env (if present, never overriding the process environment),
// then builds a YamlConfig when LOGIN_TEST_CONFIG names a file and an
// InternalConfig with environment overrides otherwise.
func Load(logger *zap.Logger) (IConfig, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to read .env file", zap.Error(err))
		}
	} else {
		logger.Debug("Loaded .env file")
	}

	if path := os.Getenv(EnvConfigYAML); path != "" {
		logger.Info("Loading configuration from YAML file", zap.String("path", path))
		return NewYamlConfig(path, logger)
	}

	settings := DefaultSettings()
	if err := ApplyEnv(&settings, os.LookupEnv); err != nil {
		return nil, err
	}
	logger.Info("Using built-in configuration", zap.String("base_url", settings.BaseURL))
	return NewInternalConfigFrom(settings), nil
}
