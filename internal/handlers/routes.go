package handlers

import (
	"net/http"
	"strings"

	"copilot-runtime-function/internal/config"
	"copilot-runtime-function/internal/middleware"
	"copilot-runtime-function/pkg/lambda"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	// RuntimePath is the runtime endpoint
	RuntimePath = "/copilotkit"
	// HealthPath is the liveness endpoint
	HealthPath = "/healthcheck"
)

// SetupRoutes mounts both endpoints on a gin engine for local serving
func SetupRoutes(router *gin.Engine, runtime *RuntimeHandler, health *HealthHandler, cfg *config.Config) {
	maxBody := cfg.Runtime.MaxContentLength

	runtimeRoute := Wrap(runtime.HandleRuntime, maxBody)
	router.Any(RuntimePath, runtimeRoute)
	router.Any(RuntimePath+"/*path", runtimeRoute)

	router.GET(HealthPath, Wrap(health.HandleHealth, maxBody))

	// Methods outside gin's Any set (PROPFIND, custom verbs) still reach the
	// runtime validator so they get its 405.
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		if isRuntimePath(c.Request.URL.Path) {
			runtimeRoute(c)
			return
		}
		c.Header("Allow", http.MethodGet)
		c.JSON(http.StatusMethodNotAllowed, middleware.ErrorResponse{
			Error:     "Method not allowed",
			RequestID: c.GetString(middleware.RequestIDKey),
		})
	})

	router.NoRoute(middleware.NoRoute())
}

func isRuntimePath(path string) bool {
	return path == RuntimePath || strings.HasPrefix(path, RuntimePath+"/")
}

// Wrap adapts a serverless handler to gin. The body is read up to one byte
// past maxBody so the validator can still see an oversized payload.
func Wrap(fn lambda.HandlerFunc, maxBody int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := lambda.FromHTTPRequest(c.Request, maxBody)
		if err != nil {
			c.JSON(http.StatusBadRequest, middleware.ErrorResponse{
				Error:   "Invalid request",
				Message: "Unable to read request body",
			})
			return
		}
		if id := c.GetString(middleware.RequestIDKey); id != "" {
			req.RequestID = id
		}

		resp := fn(c.Request.Context(), req)
		if resp == nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		if err := resp.WriteTo(c.Writer); err != nil {
			logrus.WithError(err).WithField("request_id", req.RequestID).Warn("Failed to write response")
		}
	}
}
