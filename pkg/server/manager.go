package server

import (
	"context"
	"sync"
	"time"

	"copilot-runtime-function/internal/config"
)

// ContainerManager builds the container once per process and hands it to
// every invocation of a warm Lambda instance.
type ContainerManager struct {
	container   *Container
	lastUsed    time.Time
	mu          sync.RWMutex
	initialized bool
	initOnce    sync.Once
	initErr     error
	loadConfig  func() (*config.Config, error)
}

var (
	globalManager *ContainerManager
	managerOnce   sync.Once
)

// GetContainerManager returns the global container manager instance
func GetContainerManager() *ContainerManager {
	managerOnce.Do(func() {
		globalManager = NewContainerManager(config.Load)
	})
	return globalManager
}

// NewContainerManager creates a manager that loads configuration with load
func NewContainerManager(load func() (*config.Config, error)) *ContainerManager {
	return &ContainerManager{loadConfig: load}
}

// Initialize builds the container from cfg. Only the first call has effect.
func (cm *ContainerManager) Initialize(cfg *config.Config) error {
	cm.initOnce.Do(func() {
		container, err := NewContainer(cfg)

		cm.mu.Lock()
		defer cm.mu.Unlock()
		if err != nil {
			cm.initErr = err
			return
		}
		cm.container = container
		cm.lastUsed = time.Now()
		cm.initialized = true
	})

	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.initErr
}

// GetContainer returns the container, loading configuration on first use
func (cm *ContainerManager) GetContainer(ctx context.Context) (*Container, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cm.mu.Lock()
	if cm.initialized && cm.container != nil {
		cm.lastUsed = time.Now()
		container := cm.container
		cm.mu.Unlock()
		return container, nil
	}
	cm.mu.Unlock()

	cfg, err := cm.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cm.Initialize(cfg); err != nil {
		return nil, err
	}

	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.container, nil
}

// IsWarm reports whether a container was built and used within idle
func (cm *ContainerManager) IsWarm(idle time.Duration) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if !cm.initialized || cm.container == nil {
		return false
	}
	return time.Since(cm.lastUsed) < idle
}

// Cleanup releases the container's resources
func (cm *ContainerManager) Cleanup() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container != nil {
		if err := cm.container.Close(); err != nil {
			return err
		}
		cm.container = nil
	}

	cm.initialized = false
	cm.initErr = nil
	cm.initOnce = sync.Once{}
	return nil
}
