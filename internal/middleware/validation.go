package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"copilot-runtime-function/internal/config"
	"copilot-runtime-function/pkg/lambda"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Decision is the outcome of request validation
type Decision int

const (
	// Proceed hands the request to the bridge
	Proceed Decision = iota
	// ShortCircuit answers without the bridge (CORS preflight)
	ShortCircuit
	// Reject answers with an error status
	Reject
)

func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case ShortCircuit:
		return "short_circuit"
	case Reject:
		return "reject"
	default:
		return "unknown"
	}
}

// ValidationResult carries the decision and, unless proceeding, the response to return
type ValidationResult struct {
	Decision Decision
	Response *lambda.Response
	Reason   string
}

var allowedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodOptions: true,
}

// RequestValidator applies the method allow-list, payload cap, CORS preflight,
// optional rate limit and upstream configuration check, in that order.
type RequestValidator struct {
	cfg     *config.Config
	limiter *rate.Limiter
}

// NewRequestValidator creates a validator bound to an immutable configuration.
// A rate limiter is only installed when RateLimitRPS is positive.
func NewRequestValidator(cfg *config.Config) *RequestValidator {
	v := &RequestValidator{cfg: cfg}
	if cfg.Runtime.RateLimitRPS > 0 {
		burst := cfg.Runtime.RateLimitBurst
		if burst <= 0 {
			burst = int(cfg.Runtime.RateLimitRPS) + 1
		}
		v.limiter = rate.NewLimiter(rate.Limit(cfg.Runtime.RateLimitRPS), burst)
	}
	return v
}

// Validate decides whether a request proceeds to the bridge
func (v *RequestValidator) Validate(req *lambda.Request) ValidationResult {
	method := strings.ToUpper(req.Method)
	maxSize := v.cfg.Runtime.MaxContentLength

	if !allowedMethods[method] {
		resp := JSONError(http.StatusMethodNotAllowed, ErrorResponse{
			Error:     "Method not allowed",
			Message:   fmt.Sprintf("Method %s is not supported. Allowed: %s", method, AllowedMethods),
			RequestID: req.RequestID,
		})
		resp.SetHeader("Allow", AllowedMethods)
		return v.reject(req, resp, "method_not_allowed")
	}

	if declared, ok := req.DeclaredContentLength(); ok && declared > maxSize {
		return v.reject(req, tooLarge(req, declared, maxSize), "declared_length_exceeded")
	}

	// The declared length is client-controlled; the received bytes are not.
	if actual := int64(len(req.Body)); actual > maxSize {
		return v.reject(req, tooLarge(req, actual, maxSize), "body_length_exceeded")
	}

	if method == http.MethodOptions {
		return ValidationResult{
			Decision: ShortCircuit,
			Reason:   "cors_preflight",
			Response: &lambda.Response{
				StatusCode: http.StatusOK,
				Headers:    PreflightHeaders(v.cfg.Runtime.AllowedOrigins),
			},
		}
	}

	if v.limiter != nil && !v.limiter.Allow() {
		resp := JSONError(http.StatusTooManyRequests, ErrorResponse{
			Error:     "Rate limit exceeded",
			Message:   fmt.Sprintf("Too many requests. Limit: %.1f requests per second", v.cfg.Runtime.RateLimitRPS),
			RequestID: req.RequestID,
		})
		resp.SetHeader("Retry-After", "1")
		return v.reject(req, resp, "rate_limited")
	}

	if _, err := v.cfg.UpstreamURL(); err != nil {
		// Operator-supplied value, safe to log; never echoed to the client.
		logrus.WithFields(logrus.Fields{
			"request_id":  req.RequestID,
			"service_url": v.cfg.Runtime.ServiceURL,
			"error":       err.Error(),
		}).Error("Upstream service URL is not usable")

		return v.reject(req, JSONError(http.StatusInternalServerError, ErrorResponse{
			Error:     "Service configuration error",
			Message:   "The runtime is not configured correctly",
			RequestID: req.RequestID,
		}), "upstream_misconfigured")
	}

	return ValidationResult{Decision: Proceed}
}

func (v *RequestValidator) reject(req *lambda.Request, resp *lambda.Response, reason string) ValidationResult {
	entry := logrus.WithFields(logrus.Fields{
		"request_id":  req.RequestID,
		"method":      req.Method,
		"path":        req.Path,
		"status_code": resp.StatusCode,
		"reason":      reason,
	})
	if resp.StatusCode >= http.StatusInternalServerError {
		entry.Error("Request rejected")
	} else {
		entry.Warn("Request rejected")
	}

	return ValidationResult{Decision: Reject, Response: resp, Reason: reason}
}

func tooLarge(req *lambda.Request, size, maxSize int64) *lambda.Response {
	return JSONError(http.StatusRequestEntityTooLarge, ErrorResponse{
		Error:     "Payload too large",
		Message:   fmt.Sprintf("Request body size (%d bytes) exceeds maximum allowed size (%d bytes)", size, maxSize),
		RequestID: req.RequestID,
	})
}

// JSONError builds a JSON error response carrying the error-path headers.
// The timestamp is filled in when empty.
func JSONError(status int, body ErrorResponse) *lambda.Response {
	if body.Timestamp == "" {
		body.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		payload = []byte(`{"error":"Internal server error"}`)
	}
	return &lambda.Response{
		StatusCode: status,
		Headers:    ErrorPathHeaders(),
		Body:       payload,
	}
}
