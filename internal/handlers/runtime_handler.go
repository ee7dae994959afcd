package handlers

import (
	"context"
	"fmt"
	"time"

	"copilot-runtime-function/internal/adapters/bridge"
	"copilot-runtime-function/internal/config"
	"copilot-runtime-function/internal/middleware"
	"copilot-runtime-function/pkg/lambda"
)

// RuntimeHandler serves the conversational runtime endpoint: it validates the
// host request, drives the runtime through the bridge and finalizes the
// captured response with CORS and security headers.
type RuntimeHandler struct {
	cfg       *config.Config
	validator *middleware.RequestValidator
	bridge    *bridge.Bridge
	runtime   bridge.Handler
}

// NewRuntimeHandler creates a runtime handler. runtime may be nil when the
// upstream is misconfigured; validation rejects those requests before the
// bridge is reached.
func NewRuntimeHandler(cfg *config.Config, runtime bridge.Handler) *RuntimeHandler {
	return &RuntimeHandler{
		cfg:       cfg,
		validator: middleware.NewRequestValidator(cfg),
		bridge:    bridge.New(cfg.Runtime.RequestTimeout),
		runtime:   runtime,
	}
}

// HandleRuntime processes one runtime invocation. It never returns nil and
// never lets a failure escape to the host.
func (h *RuntimeHandler) HandleRuntime(ctx context.Context, req *lambda.Request) (resp *lambda.Response) {
	start := time.Now()
	middleware.EnsureRequestID(req)

	defer func() {
		if rec := recover(); rec != nil {
			resp = internalError(h.cfg, req, fmt.Errorf("runtime handler panic: %v", rec))
		}
		middleware.LogInvocation(req, resp, start)
	}()

	result := h.validator.Validate(req)
	if result.Decision != middleware.Proceed {
		return result.Response
	}

	bridged := bridge.NewRequest(ctx, req.Method, req.URL(), req.Headers, req.Body)
	captured, err := h.bridge.Invoke(ctx, bridged, h.runtime)
	if err != nil {
		return internalError(h.cfg, req, err)
	}

	resp = Finalize(captured, middleware.ResponseOverlay(h.cfg.Runtime.AllowedOrigins))
	resp.SetHeader(middleware.RequestIDHeader, req.RequestID)
	return resp
}
