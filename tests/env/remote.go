package env

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/shopqa/logintests/shared/config"
)

const (
	RemoteBrowserComponentName = "remote-browser"

	// DefaultRemoteImage matches the driver version bundled with playwright-go.
	DefaultRemoteImage = "mcr.microsoft.com/playwright:v1.52.0-noble"
	remoteServerPort   = "3000/tcp"
)

// RemoteBrowserDetails tells the browser component how to reach the
// playwright server and how the server reaches the shop.
type RemoteBrowserDetails struct {
	WSEndpoint string
	ShopURL    string
}

// RemoteBrowserEnv runs a playwright browser server in a container.
type RemoteBrowserEnv struct {
	BaseEnv
	image string

	containerMux sync.RWMutex
	container    testcontainers.Container
	details      RemoteBrowserDetails
}

func NewRemoteBrowserEnv(settings config.BrowserSettings) *RemoteBrowserEnv {
	image := settings.RemoteImage
	if image == "" {
		image = DefaultRemoteImage
	}
	return &RemoteBrowserEnv{
		BaseEnv: BaseEnv{name: RemoteBrowserComponentName},
		image:   image,
	}
}

// Configure depends on the shop, whose port is exposed to the container.
func (e *RemoteBrowserEnv) Configure(envs *Envs) ([]string, error) {
	return []string{ShopComponentName}, nil
}

func (e *RemoteBrowserEnv) Start(ctx context.Context, envs *Envs) <-chan error {
	resultChan := make(chan error, 1)
	logger := envs.Logger().With(zap.String("component", e.Name()))

	go func() {
		defer close(resultChan)

		shopURL := envs.GetURL(ShopComponentName)
		var hostPorts []int
		if c, ok := envs.GetComponent(ShopComponentName); ok {
			if shop, ok := c.(*ShopEnv); ok && !shop.External() {
				hostPorts = append(hostPorts, shop.Port())
				shopURL = containerShopURL(shopURL, shop.Port())
			}
		}

		req := testcontainers.ContainerRequest{
			Image:           e.image,
			ExposedPorts:    []string{remoteServerPort},
			HostAccessPorts: hostPorts,
			Cmd: []string{"/bin/sh", "-c",
				"npx -y playwright@1.52.0 run-server --port 3000 --host 0.0.0.0"},
			WaitingFor: wait.ForListeningPort(remoteServerPort).WithStartupTimeout(3 * time.Minute),
		}

		logger.Info("Starting browser container", zap.String("image", e.image), zap.Ints("hostPorts", hostPorts))
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			if ctx.Err() != nil {
				resultChan <- fmt.Errorf("context cancelled during container start: %w", ctx.Err())
				return
			}
			resultChan <- fmt.Errorf("failed to start browser container: %w", err)
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			_ = container.Terminate(context.Background())
			resultChan <- fmt.Errorf("failed to get browser container host: %w", err)
			return
		}
		port, err := container.MappedPort(ctx, remoteServerPort)
		if err != nil {
			_ = container.Terminate(context.Background())
			resultChan <- fmt.Errorf("failed to get browser container port: %w", err)
			return
		}

		e.containerMux.Lock()
		e.container = container
		e.details = RemoteBrowserDetails{
			WSEndpoint: fmt.Sprintf("ws://%s:%s/", host, port.Port()),
			ShopURL:    shopURL,
		}
		e.containerMux.Unlock()

		logger.Info("Browser container ready", zap.String("endpoint", e.URL()), zap.String("shopURL", shopURL))
		resultChan <- nil
	}()

	return resultChan
}

func (e *RemoteBrowserEnv) Stop() error {
	e.containerMux.Lock()
	container := e.container
	e.container = nil
	e.containerMux.Unlock()

	if container == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := container.Terminate(ctx); err != nil {
		return fmt.Errorf("failed to terminate %s container: %w", e.Name(), err)
	}
	return nil
}

// URL returns the playwright server's websocket endpoint.
func (e *RemoteBrowserEnv) URL() string {
	e.containerMux.RLock()
	defer e.containerMux.RUnlock()
	return e.details.WSEndpoint
}

// GetDetails returns RemoteBrowserDetails.
func (e *RemoteBrowserEnv) GetDetails() any {
	e.containerMux.RLock()
	defer e.containerMux.RUnlock()
	return e.details
}

// containerShopURL rewrites a host-local stub URL to the address the
// container sees the host under.
func containerShopURL(localURL string, port int) string {
	u, err := url.Parse(localURL)
	if err != nil {
		return localURL
	}
	u.Host = testcontainers.HostInternal + ":" + strconv.Itoa(port)
	return u.String()
}
