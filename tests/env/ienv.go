package env

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gopkg.in/cenkalti/backoff.v1"
)

// Environment is one component of the test environment: the shop stub, the
// playwright driver, a browser container, the shared browser session.
type Environment interface {
	// Name returns the unique component name used for lookups and dependencies.
	Name() string

	// Configure runs for every component before any Start. It reserves ports,
	// decides the component's URL and returns the names of the components
	// whose Start must complete before this one starts.
	Configure(envs *Envs) (dependencies []string, err error)

	// Start launches the component. The channel delivers exactly one error
	// (nil on success) and is then closed.
	Start(ctx context.Context, envs *Envs) <-chan error

	Stop() error

	// URL returns the component's address, or "" when it has none.
	URL() string

	// GetDetails returns what tests need from the component after Start,
	// e.g. the *Session of the browser component.
	GetDetails() any

	GetStartDuration() time.Duration
	SetStartDuration(d time.Duration)
}

// BaseEnv holds the name and start duration and supplies no-op defaults.
type BaseEnv struct {
	startDuration time.Duration
	name          string
}

func (b *BaseEnv) Name() string {
	return b.name
}

func (b *BaseEnv) Configure(envs *Envs) (dependencies []string, err error) {
	return []string{}, nil
}

func (b *BaseEnv) Start(ctx context.Context, envs *Envs) <-chan error {
	resultChan := make(chan error, 1)
	resultChan <- nil
	close(resultChan)
	return resultChan
}

func (b *BaseEnv) Stop() error {
	return nil
}

func (b *BaseEnv) URL() string {
	return ""
}

func (b *BaseEnv) GetDetails() any {
	return nil
}

func (b *BaseEnv) GetStartDuration() time.Duration {
	return b.startDuration
}

// SetStartDuration is called by Envs after a successful Start.
func (b *BaseEnv) SetStartDuration(d time.Duration) {
	b.startDuration = d
}

// waitForServer polls url with exponential backoff until it answers 200 OK
// or timeout elapses.
func waitForServer(ctx context.Context, logger *zap.Logger, url string, timeout time.Duration) error {
	logger.Info("Waiting for server", zap.String("url", url), zap.Duration("timeout", timeout))
	startTime := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpClient := &http.Client{
		Timeout:   2 * time.Second,
		Transport: &http.Transport{DisableKeepAlives: true},
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 50 * time.Millisecond
	expBackoff.MaxInterval = time.Second
	expBackoff.MaxElapsedTime = timeout

	err := backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			logger.Debug("Server not reachable yet", zap.String("url", url), zap.Error(err))
			return err
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			logger.Debug("Server not ready yet", zap.String("url", url), zap.Int("status", resp.StatusCode))
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil
	}, backoff.WithContext(expBackoff, checkCtx))
	if err != nil {
		if checkCtx.Err() != nil {
			err = checkCtx.Err()
		}
		return fmt.Errorf("timed out waiting for server at %s after %s: %w", url, time.Since(startTime), err)
	}

	logger.Info("Server is ready", zap.String("url", url), zap.Duration("after", time.Since(startTime)))
	return nil
}
