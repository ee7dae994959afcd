package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"copilot-runtime-function/internal/config"
	"copilot-runtime-function/internal/middleware"
	"copilot-runtime-function/pkg/lambda"
)

// HealthResponse is the liveness payload
type HealthResponse struct {
	Status        string                 `json:"status"`
	Timestamp     string                 `json:"timestamp"`
	Version       string                 `json:"version"`
	Service       string                 `json:"service"`
	Environment   string                 `json:"environment"`
	GoVersion     string                 `json:"go_version,omitempty"`
	UptimeSeconds *int64                 `json:"uptime_seconds,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty"`
}

// HealthHandler answers liveness checks without touching any collaborator
type HealthHandler struct {
	cfg        *config.Config
	serverless *config.ServerlessConfig
	started    time.Time
}

// NewHealthHandler creates a health handler
func NewHealthHandler(cfg *config.Config, serverless *config.ServerlessConfig) *HealthHandler {
	return &HealthHandler{
		cfg:        cfg,
		serverless: serverless,
		started:    time.Now(),
	}
}

// HandleHealth returns the service status
func (h *HealthHandler) HandleHealth(ctx context.Context, req *lambda.Request) (resp *lambda.Response) {
	start := time.Now()
	middleware.EnsureRequestID(req)

	defer func() {
		if rec := recover(); rec != nil {
			resp = internalError(h.cfg, req, fmt.Errorf("health handler panic: %v", rec))
		}
		middleware.LogInvocation(req, resp, start)
	}()

	payload := HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Version:     h.cfg.Service.Version,
		Service:     h.cfg.Service.Name,
		Environment: h.cfg.Environment,
	}

	if !h.cfg.IsProduction() {
		uptime := int64(time.Since(h.started).Seconds())
		payload.GoVersion = runtime.Version()
		payload.UptimeSeconds = &uptime
		if h.serverless != nil {
			payload.Details = h.serverless.Details()
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return internalError(h.cfg, req, err)
	}

	return &lambda.Response{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type":           "application/json",
			"Cache-Control":          "no-cache, no-store, must-revalidate",
			"Pragma":                 "no-cache",
			"Expires":                "0",
			"X-Content-Type-Options": "nosniff",
		},
		Body: body,
	}
}
