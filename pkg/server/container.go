package server

import (
	"fmt"
	"io"

	"copilot-runtime-function/internal/adapters/bridge"
	"copilot-runtime-function/internal/config"
	"copilot-runtime-function/internal/handlers"
	"copilot-runtime-function/internal/logging"
	"copilot-runtime-function/internal/runtime"

	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Runtime        bridge.Handler
	RuntimeHandler *handlers.RuntimeHandler
	HealthHandler  *handlers.HealthHandler

	// Internal dependencies
	logCloser io.Closer
}

// NewContainer creates a new dependency injection container.
// A misconfigured upstream does not fail construction: the runtime endpoint
// answers 500 until the configuration is fixed while health keeps working.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	closer := logging.Setup(cfg.Logging)

	var rt bridge.Handler
	if target, err := cfg.UpstreamURL(); err == nil {
		rt = bridge.FromHTTP(runtime.NewForwarder(target, handlers.RuntimePath))
	} else {
		logrus.WithError(err).Warn("Runtime collaborator not configured")
	}

	container := &Container{
		Config:         cfg,
		Runtime:        rt,
		RuntimeHandler: handlers.NewRuntimeHandler(cfg, rt),
		HealthHandler:  handlers.NewHealthHandler(cfg, config.GetServerlessConfig()),
		logCloser:      closer,
	}

	logrus.WithFields(logrus.Fields{
		"service":         cfg.Service.Name,
		"version":         cfg.Service.Version,
		"environment":     cfg.Environment,
		"deployment_mode": config.GetDeploymentMode(),
		"timeout_ms":      cfg.Runtime.RequestTimeout.Milliseconds(),
	}).Info("Container initialized")

	return container, nil
}

// Close cleans up all resources
func (c *Container) Close() error {
	if c.logCloser != nil {
		if err := c.logCloser.Close(); err != nil {
			return fmt.Errorf("failed to close log output: %w", err)
		}
	}
	return nil
}
