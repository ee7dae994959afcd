package middleware

import (
	"net/http"
	"strings"
	"time"

	"copilot-runtime-function/pkg/lambda"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDKey is the key used to store request ID in context
const RequestIDKey = "request_id"

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

// EnsureRequestID fills req.RequestID from the host, the X-Request-ID header
// or a fresh UUID, in that order of preference.
func EnsureRequestID(req *lambda.Request) string {
	if strings.TrimSpace(req.RequestID) == "" {
		req.RequestID = req.Header(RequestIDHeader)
	}
	if strings.TrimSpace(req.RequestID) == "" {
		req.RequestID = uuid.NewString()
	}
	return req.RequestID
}

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if strings.TrimSpace(requestID) == "" {
			requestID = uuid.NewString()
			c.Request.Header.Set(RequestIDHeader, requestID)
		}

		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// StructuredLogger logs one line per request with status-dependent severity.
// Bodies are never logged.
func StructuredLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		fields := logrus.Fields{
			"request_id":     c.GetString(RequestIDKey),
			"method":         c.Request.Method,
			"path":           path,
			"status_code":    status,
			"latency_ms":     float64(latency.Nanoseconds()) / 1000000,
			"client_ip":      c.ClientIP(),
			"content_length": c.Request.ContentLength,
			"response_size":  c.Writer.Size(),
		}
		if ua := c.Request.UserAgent(); ua != "" {
			if len(ua) > 180 {
				ua = ua[:180] + "..."
			}
			fields["user_agent"] = ua
		}

		entry := logrus.WithFields(fields)
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Server error")
		case status >= http.StatusBadRequest:
			entry.Warn("Client error")
		default:
			entry.Info("Request completed")
		}
	}
}

// LogInvocation logs the outcome of one serverless invocation
func LogInvocation(req *lambda.Request, resp *lambda.Response, start time.Time) {
	status := 0
	size := 0
	if resp != nil {
		status = resp.StatusCode
		size = len(resp.Body)
	}

	entry := logrus.WithFields(logrus.Fields{
		"request_id":    req.RequestID,
		"method":        req.Method,
		"path":          req.Path,
		"status_code":   status,
		"latency_ms":    float64(time.Since(start).Nanoseconds()) / 1000000,
		"source_ip":     req.SourceIP,
		"request_size":  len(req.Body),
		"response_size": size,
	})

	switch {
	case status >= http.StatusInternalServerError:
		entry.Error("Invocation failed")
	case status >= http.StatusBadRequest:
		entry.Warn("Invocation rejected")
	default:
		entry.Info("Invocation completed")
	}
}
