package config

import (
	"context"
	"sync"
)

var _ IConfig = (*InternalConfig)(nil)

// InternalConfig implements IConfig with in-memory storage
type InternalConfig struct {
	mu       sync.RWMutex
	settings Settings
}

// NewInternalConfig creates a new in-memory configuration with defaults
func NewInternalConfig() *InternalConfig {
	return NewInternalConfigFrom(DefaultSettings())
}

// NewInternalConfigFrom creates an in-memory configuration from s; zero
// fields are filled with defaults.
func NewInternalConfigFrom(s Settings) *InternalConfig {
	fillDefaults(&s, DefaultSettings())
	return &InternalConfig{settings: s}
}

func (c *InternalConfig) BaseURL() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.BaseURL, nil
}

// SetBaseURL points the suite at another host. Empty means the local stub.
func (c *InternalConfig) SetBaseURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.BaseURL = url
}

func (c *InternalConfig) LoginPath() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.LoginPath, nil
}

func (c *InternalConfig) Credentials() (Credentials, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.Credentials, nil
}

func (c *InternalConfig) SetCredentials(creds Credentials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.Credentials = creds
}

func (c *InternalConfig) Locators() (Locators, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.Locators, nil
}

func (c *InternalConfig) Timeouts() (Timeouts, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.Timeouts, nil
}

func (c *InternalConfig) SetTimeouts(t Timeouts) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.Timeouts = t
	fillDefaults(&c.settings, DefaultSettings())
}

func (c *InternalConfig) Browser() (BrowserSettings, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.Browser, nil
}

func (c *InternalConfig) SetBrowser(b BrowserSettings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.Browser = b
	fillDefaults(&c.settings, DefaultSettings())
}

// LogLevel returns the configured log level
func (c *InternalConfig) LogLevel() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.LogLevel, nil
}

func (c *InternalConfig) ScenarioTags() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.ScenarioTags, nil
}

func (c *InternalConfig) SetScenarioTags(expr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.ScenarioTags = expr
}

func (c *InternalConfig) ArtifactsDir() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.ArtifactsDir, nil
}

func (c *InternalConfig) Close() error {
	return nil
}

func (c *InternalConfig) Status(ctx context.Context) error {
	return nil
}
