package env

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shopqa/logintests/shopstub"
)

const ShopComponentName = "shop"

// ShopEnv provides the shop under test. With a target URL it only reports
// that URL; otherwise it serves the local shop stub on a free port.
type ShopEnv struct {
	BaseEnv
	targetURL string

	mu     sync.RWMutex
	port   int
	url    string
	stub   *shopstub.Server
	server *http.Server
}

// NewShopEnv creates the shop component. An empty targetURL selects the stub.
func NewShopEnv(targetURL string) *ShopEnv {
	return &ShopEnv{
		BaseEnv:   BaseEnv{name: ShopComponentName},
		targetURL: targetURL,
	}
}

func (e *ShopEnv) Configure(envs *Envs) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.targetURL != "" {
		e.url = e.targetURL
		return []string{}, nil
	}

	port, err := envs.GetFreePort()
	if err != nil {
		return nil, fmt.Errorf("failed to get free port for shop stub: %w", err)
	}
	e.port = port
	e.url = "http://127.0.0.1:" + strconv.Itoa(port)
	return []string{}, nil
}

func (e *ShopEnv) Start(ctx context.Context, envs *Envs) <-chan error {
	resultChan := make(chan error, 1)
	logger := envs.Logger().With(zap.String("component", e.Name()))

	go func() {
		defer close(resultChan)

		if e.External() {
			logger.Info("Using external shop", zap.String("url", e.URL()))
			resultChan <- nil
			return
		}

		e.mu.Lock()
		stub := shopstub.New(shopstub.Options{Logger: logger})
		// All interfaces, so a browser container can reach the stub through the host.
		listener, err := net.Listen("tcp", ":"+strconv.Itoa(e.port))
		if err != nil {
			e.mu.Unlock()
			resultChan <- fmt.Errorf("failed to listen on port %d: %w", e.port, err)
			return
		}
		server := &http.Server{Handler: stub.Handler(), ReadHeaderTimeout: 10 * time.Second}
		e.stub, e.server = stub, server
		url := e.url
		e.mu.Unlock()

		go func() {
			if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Shop stub stopped serving", zap.Error(err))
			}
		}()

		if err := waitForServer(ctx, logger, url+shopstub.HealthPath, 10*time.Second); err != nil {
			resultChan <- err
			return
		}
		resultChan <- nil
	}()

	return resultChan
}

func (e *ShopEnv) Stop() error {
	e.mu.Lock()
	server := e.server
	e.server = nil
	e.mu.Unlock()

	if server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop %s: %w", e.Name(), err)
	}
	return nil
}

func (e *ShopEnv) URL() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.url
}

// External reports whether the component points at a shop it does not run.
func (e *ShopEnv) External() bool {
	return e.targetURL != ""
}

// Port returns the stub's port, or 0 for an external shop.
func (e *ShopEnv) Port() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.port
}

// GetDetails returns the running *shopstub.Server, or nil for an external shop.
func (e *ShopEnv) GetDetails() any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.stub == nil {
		return nil
	}
	return e.stub
}
