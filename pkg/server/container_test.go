package server

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"copilot-runtime-function/internal/config"
	"copilot-runtime-function/pkg/lambda"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(serviceURL string) *config.Config {
	cfg := &config.Config{
		Environment: "test",
		Port:        "7071",
		Service:     config.ServiceConfig{Name: "copilotkit-runtime", Version: "1.0.0"},
		Runtime: config.RuntimeConfig{
			AllowedOrigins:   "*",
			MaxContentLength: config.DefaultMaxContentLength,
			RequestTimeout:   time.Second,
			ServiceURL:       serviceURL,
		},
	}
	cfg.ResolveUpstream()
	return cfg
}

func TestNewContainer(t *testing.T) {
	container, err := NewContainer(testConfig("http://localhost:8000"))
	require.NoError(t, err)

	assert.NotNil(t, container.Runtime)
	assert.NotNil(t, container.RuntimeHandler)
	assert.NotNil(t, container.HealthHandler)

	assert.NoError(t, container.Close())
}

// A missing upstream URL keeps health working while the runtime endpoint
// reports a configuration error.
func TestContainerWithoutUpstream(t *testing.T) {
	container, err := NewContainer(testConfig(""))
	require.NoError(t, err)
	defer container.Close()

	assert.Nil(t, container.Runtime)

	health := container.HealthHandler.HandleHealth(context.Background(), &lambda.Request{Method: "GET", Path: "/healthcheck"})
	assert.Equal(t, http.StatusOK, health.StatusCode)

	resp := container.RuntimeHandler.HandleRuntime(context.Background(), &lambda.Request{Method: "POST", Path: "/copilotkit"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestNewContainerRequiresConfig(t *testing.T) {
	_, err := NewContainer(nil)
	assert.Error(t, err)
}

func TestContainerManager(t *testing.T) {
	loads := 0
	cm := NewContainerManager(func() (*config.Config, error) {
		loads++
		return testConfig("http://localhost:8000"), nil
	})

	assert.False(t, cm.IsWarm(time.Minute), "cold before first use")

	first, err := cm.GetContainer(context.Background())
	require.NoError(t, err)
	second, err := cm.GetContainer(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second, "warm invocations share the container")
	assert.Equal(t, 1, loads)
	assert.True(t, cm.IsWarm(time.Minute))

	require.NoError(t, cm.Cleanup())
	assert.False(t, cm.IsWarm(time.Minute), "cold after cleanup")

	third, err := cm.GetContainer(context.Background())
	require.NoError(t, err)
	require.NotNil(t, third)
	assert.NotSame(t, first, third)
}

func TestContainerManagerErrors(t *testing.T) {
	loadErr := errors.New("boom")
	cm := NewContainerManager(func() (*config.Config, error) {
		return nil, loadErr
	})

	_, err := cm.GetContainer(context.Background())
	assert.ErrorIs(t, err, loadErr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = cm.GetContainer(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
