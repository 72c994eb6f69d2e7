package config

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var _ IConfig = (*YamlConfig)(nil)

// YamlConfig implements IConfig on top of a YAML file. Environment
// variables are applied after the file, so they always win.
type YamlConfig struct {
	mu         sync.RWMutex
	configPath string
	logger     *zap.Logger
	lookup     LookupFunc
	settings   Settings
}

// NewYamlConfig creates a new YAML-based configuration
func NewYamlConfig(configPath string, logger *zap.Logger) (*YamlConfig, error) {
	return NewYamlConfigWithOptions(configPath, logger, os.LookupEnv)
}

// NewYamlConfigWithOptions creates a YAML configuration that reads
// environment overrides through lookup. A nil lookup disables them.
func NewYamlConfigWithOptions(configPath string, logger *zap.Logger, lookup LookupFunc) (*YamlConfig, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}

	config := &YamlConfig{
		configPath: configPath,
		logger:     logger,
		lookup:     lookup,
	}

	if err := config.Update(); err != nil {
		return nil, err
	}
	return config, nil
}

// Update reloads configuration from the YAML file
func (c *YamlConfig) Update() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Debug("Updating configuration from YAML file", zap.String("path", c.configPath))

	data, err := os.ReadFile(c.configPath)
	if err != nil {
		c.logger.Error("Failed to read config file", zap.Error(err))
		return err
	}

	// Start from the defaults so keys missing from the file keep them.
	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		c.logger.Error("Failed to parse YAML", zap.Error(err))
		return fmt.Errorf("parse %s: %w", c.configPath, err)
	}
	fillDefaults(&settings, DefaultSettings())

	if err := ApplyEnv(&settings, c.lookup); err != nil {
		c.logger.Error("Invalid environment override", zap.Error(err))
		return err
	}

	c.settings = settings
	return nil
}

func (c *YamlConfig) Close() error { return nil }

func (c *YamlConfig) BaseURL() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.BaseURL, nil
}

func (c *YamlConfig) LoginPath() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.LoginPath, nil
}

func (c *YamlConfig) Credentials() (Credentials, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.Credentials, nil
}

func (c *YamlConfig) Locators() (Locators, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.Locators, nil
}

func (c *YamlConfig) Timeouts() (Timeouts, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.Timeouts, nil
}

func (c *YamlConfig) Browser() (BrowserSettings, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.Browser, nil
}

func (c *YamlConfig) LogLevel() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.LogLevel, nil
}

func (c *YamlConfig) ScenarioTags() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.ScenarioTags, nil
}

func (c *YamlConfig) ArtifactsDir() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.ArtifactsDir, nil
}

// Status checks that the file is still readable.
func (c *YamlConfig) Status(ctx context.Context) error {
	if _, err := os.Stat(c.configPath); err != nil {
		return fmt.Errorf("config file unavailable: %w", err)
	}
	return nil
}
