package handlers

import (
	"net/http"

	"copilot-runtime-function/internal/adapters/bridge"
	"copilot-runtime-function/internal/config"
	"copilot-runtime-function/internal/middleware"
	"copilot-runtime-function/pkg/lambda"

	"github.com/sirupsen/logrus"
)

// redactedMessage replaces error details in production
const redactedMessage = "An internal error occurred"

// internalError logs err and builds the 500 response. Details are only
// exposed outside production; a missing configuration counts as production.
func internalError(cfg *config.Config, req *lambda.Request, err error) *lambda.Response {
	logrus.WithFields(logrus.Fields{
		"request_id": req.RequestID,
		"method":     req.Method,
		"path":       req.Path,
		"kind":       bridge.Classify(err),
		"error":      err.Error(),
	}).Error("Invocation failed")

	message := redactedMessage
	if cfg != nil && !cfg.IsProduction() {
		message = err.Error()
	}

	return middleware.JSONError(http.StatusInternalServerError, middleware.ErrorResponse{
		Error:     "Internal server error",
		Message:   message,
		RequestID: req.RequestID,
	})
}
