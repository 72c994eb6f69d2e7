package env

import (
	"context"
	"fmt"
	"net"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Envs manages the lifecycle and state of the test environment components.
type Envs struct {
	components map[string]Environment
	logger     *zap.Logger

	portMu    sync.Mutex
	usedPorts map[int]struct{}

	// startOrder lists successfully started components, first started first.
	orderMu    sync.Mutex
	startOrder []string
}

// NewEnvs creates a new environment manager. A nil logger discards output.
func NewEnvs(logger *zap.Logger) *Envs {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Envs{
		components: make(map[string]Environment),
		usedPorts:  make(map[int]struct{}),
		logger:     logger,
	}
}

// Logger returns the logger components should log through.
func (e *Envs) Logger() *zap.Logger {
	return e.logger
}

// SetLogger replaces the logger. Call it before Execute.
func (e *Envs) SetLogger(logger *zap.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// Register adds components. Panics on a duplicate name.
func (e *Envs) Register(envs ...Environment) {
	for _, env := range envs {
		name := env.Name()
		if _, exists := e.components[name]; exists {
			panic(fmt.Sprintf("environment component with name '%s' already registered", name))
		}
		e.components[name] = env
		e.logger.Debug("Registered component", zap.String("component", name))
	}
}

// GetFreePort finds and reserves an available TCP port.
func (e *Envs) GetFreePort() (int, error) {
	e.portMu.Lock()
	defer e.portMu.Unlock()

	for range 100 {
		listener, err := net.Listen("tcp", ":0")
		if err != nil {
			continue
		}
		port := listener.Addr().(*net.TCPAddr).Port
		listener.Close()

		if _, used := e.usedPorts[port]; !used {
			e.usedPorts[port] = struct{}{}
			e.logger.Debug("Allocated port", zap.Int("port", port))
			return port, nil
		}
	}

	return 0, fmt.Errorf("failed to find an available free port after multiple attempts")
}

// Execute configures every component, then starts each one as soon as its
// dependencies have started. On a start failure the components already
// started are stopped again.
func (e *Envs) Execute(ctx context.Context) error {
	startTime := time.Now()
	e.logger.Info("Starting environment setup", zap.Int("components", len(e.components)))

	if len(e.components) == 0 {
		return nil
	}

	// Configure
	var depsMu sync.Mutex
	dependenciesMap := make(map[string][]string)
	configureGroup, configureCtx := errgroup.WithContext(ctx)

	for _, env := range e.components {
		configureGroup.Go(func() error {
			if err := configureCtx.Err(); err != nil {
				return err
			}
			deps, err := env.Configure(e)
			if err != nil {
				return fmt.Errorf("configure %s failed: %w", env.Name(), err)
			}
			depsMu.Lock()
			dependenciesMap[env.Name()] = deps
			depsMu.Unlock()
			e.logger.Debug("Component configured", zap.String("component", env.Name()), zap.Strings("dependencies", deps))
			return nil
		})
	}

	if err := configureGroup.Wait(); err != nil {
		e.logger.Error("Environment setup failed during configure", zap.Error(err))
		return err
	}

	// Dependency graph
	depGraph := make(map[string][]string) // dependency -> dependents
	depCount := make(map[string]int)      // component -> unmet dependencies
	initialStarters := []string{}

	for name := range e.components {
		deps := dependenciesMap[name]
		depCount[name] = len(deps)

		if len(deps) == 0 {
			initialStarters = append(initialStarters, name)
			continue
		}
		for _, depName := range deps {
			if _, exists := e.components[depName]; !exists {
				err := fmt.Errorf("component '%s' configured dependency '%s' which is not registered", name, depName)
				e.logger.Error("Unknown dependency", zap.Error(err))
				return err
			}
			depGraph[depName] = append(depGraph[depName], name)
		}
	}

	for name := range e.components {
		if cycle := detectCycle(name, dependenciesMap, map[string]bool{}, map[string]bool{}); cycle != "" {
			err := fmt.Errorf("dependency cycle detected: %s", cycle)
			e.logger.Error("Dependency cycle", zap.Error(err))
			return err
		}
	}

	// Start
	var startMu sync.Mutex
	started := make(map[string]struct{})
	finishedCount := 0
	e.orderMu.Lock()
	e.startOrder = nil
	e.orderMu.Unlock()

	startGroup, startCtx := errgroup.WithContext(ctx)

	// launchStart must be called with startMu held. Dependents are launched
	// before the goroutine of their last dependency returns.
	var launchStart func(nameToStart string)
	launchStart = func(nameToStart string) {
		envToStart := e.components[nameToStart]

		startGroup.Go(func() error {
			startTaskTime := time.Now()
			e.logger.Info("Starting component", zap.String("component", nameToStart))

			startResultChan := envToStart.Start(startCtx, e)

			var startErr error
			select {
			case err, ok := <-startResultChan:
				if ok {
					startErr = err
				} else if startCtx.Err() != nil {
					startErr = fmt.Errorf("context cancelled during start of %s: %w", nameToStart, startCtx.Err())
				}
			case <-startCtx.Done():
				startErr = fmt.Errorf("context cancelled waiting for start of %s: %w", nameToStart, startCtx.Err())
			}

			duration := time.Since(startTaskTime)

			startMu.Lock()
			defer startMu.Unlock()
			finishedCount++

			if startErr != nil {
				e.logger.Error("Component failed to start",
					zap.String("component", nameToStart), zap.Duration("after", duration), zap.Error(startErr))
				return fmt.Errorf("start %s failed: %w", nameToStart, startErr)
			}

			e.logger.Info("Component started", zap.String("component", nameToStart), zap.Duration("duration", duration))
			started[nameToStart] = struct{}{}
			envToStart.SetStartDuration(duration)
			e.orderMu.Lock()
			e.startOrder = append(e.startOrder, nameToStart)
			e.orderMu.Unlock()

			for _, depName := range depGraph[nameToStart] {
				depCount[depName]--
				if depCount[depName] == 0 && startCtx.Err() == nil {
					launchStart(depName)
				}
			}
			return nil
		})
	}

	startMu.Lock()
	for _, name := range initialStarters {
		launchStart(name)
	}
	startMu.Unlock()

	if err := startGroup.Wait(); err != nil {
		e.logger.Error("Environment setup failed during start, cleaning up", zap.Error(err))
		e.StopAll()
		return err
	}

	startMu.Lock()
	allStarted := finishedCount == len(e.components) && len(started) == len(e.components)
	startMu.Unlock()
	if !allStarted {
		err := fmt.Errorf("environment setup finished inconsistently: %d components registered, %d finished, %d started successfully",
			len(e.components), finishedCount, len(started))
		e.logger.Error("Inconsistent setup, cleaning up", zap.Error(err))
		e.StopAll()
		return err
	}

	e.logger.Info("Environment setup complete", zap.Duration("duration", time.Since(startTime)), zap.Int("started", len(started)))
	return nil
}

// StopAll stops the started components in reverse start order, so a
// component is stopped before the ones it depends on. Errors are logged.
func (e *Envs) StopAll() {
	e.orderMu.Lock()
	order := slices.Clone(e.startOrder)
	e.startOrder = nil
	e.orderMu.Unlock()

	slices.Reverse(order)
	for _, name := range order {
		env, ok := e.components[name]
		if !ok {
			continue
		}
		if err := env.Stop(); err != nil {
			e.logger.Warn("Error stopping component", zap.String("component", name), zap.Error(err))
			continue
		}
		e.logger.Debug("Component stopped", zap.String("component", name))
	}
}

// StartOrder returns the names of the started components in start order.
func (e *Envs) StartOrder() []string {
	e.orderMu.Lock()
	defer e.orderMu.Unlock()
	return slices.Clone(e.startOrder)
}

// detectCycle runs a depth-first search from node and returns the cycle it
// finds as "a -> b -> a", or "".
func detectCycle(node string, depMap map[string][]string, visited, recStack map[string]bool) string {
	if !visited[node] {
		visited[node] = true
		recStack[node] = true

		for _, dep := range depMap[node] {
			if recStack[dep] {
				return fmt.Sprintf("%s -> %s", node, dep)
			}
			if !visited[dep] {
				if cycle := detectCycle(dep, depMap, visited, recStack); cycle != "" {
					return fmt.Sprintf("%s -> %s", node, cycle)
				}
			}
		}
	}

	recStack[node] = false
	return ""
}

// GetComponent returns the registered component by name.
func (e *Envs) GetComponent(name string) (Environment, bool) {
	env, ok := e.components[name]
	return env, ok
}

// GetURL returns the URL of the component, or "" if it is not registered.
func (e *Envs) GetURL(name string) string {
	env, ok := e.components[name]
	if !ok {
		e.logger.Error("Component not found when getting URL", zap.String("component", name))
		return ""
	}
	return env.URL()
}

// GetDetails returns the details of the component, or nil if it is not registered.
func (e *Envs) GetDetails(name string) any {
	env, ok := e.components[name]
	if !ok {
		e.logger.Error("Component not found when getting details", zap.String("component", name))
		return nil
	}
	return env.GetDetails()
}

func (e *Envs) GetStartDuration(name string) time.Duration {
	env, ok := e.components[name]
	if !ok {
		return 0
	}
	return env.GetStartDuration()
}

// --- Global instance and proxy functions ---

var defaultEnvs = NewEnvs(nil)

func SetLogger(logger *zap.Logger) {
	defaultEnvs.SetLogger(logger)
}

func Register(envs ...Environment) {
	defaultEnvs.Register(envs...)
}

func Execute(ctx context.Context) error {
	return defaultEnvs.Execute(ctx)
}

func StopAll() {
	defaultEnvs.StopAll()
}

func GetURL(name string) string {
	return defaultEnvs.GetURL(name)
}

func GetDetails(name string) any {
	return defaultEnvs.GetDetails(name)
}

func GetStartDuration(name string) time.Duration {
	return defaultEnvs.GetStartDuration(name)
}

func GetComponent(name string) (Environment, bool) {
	return defaultEnvs.GetComponent(name)
}
