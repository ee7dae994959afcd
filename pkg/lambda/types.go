package lambda

import (
	"context"
	"strconv"
	"strings"
)

// Request represents a generic HTTP request for serverless functions
type Request struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Headers     map[string]string `json:"headers"`
	QueryParams map[string]string `json:"query_params"`
	Body        []byte            `json:"body"`
	PathParams  map[string]string `json:"path_params"`
	RequestID   string            `json:"request_id,omitempty"`
	SourceIP    string            `json:"source_ip,omitempty"`
}

// Response represents a generic HTTP response for serverless functions
type Response struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       []byte            `json:"body"`

	// MultiValueHeaders carries headers that must not be folded into one
	// line, such as Set-Cookie.
	MultiValueHeaders map[string][]string `json:"multi_value_headers,omitempty"`

	// Base64Encoded marks a binary body that must be base64-encoded for the host
	Base64Encoded bool `json:"base64_encoded,omitempty"`
}

// HandlerFunc is a framework-agnostic handler. It always produces a response;
// failures are expressed as error statuses rather than Go errors.
type HandlerFunc func(ctx context.Context, req *Request) *Response

// Header returns the value of a request header, matched case-insensitively
func (r *Request) Header(name string) string {
	if r.Headers == nil {
		return ""
	}
	if v, ok := r.Headers[name]; ok {
		return v
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// DeclaredContentLength returns the Content-Length header value. ok is false
// when the header is absent or not a non-negative integer.
func (r *Request) DeclaredContentLength() (n int64, ok bool) {
	raw := strings.TrimSpace(r.Header("Content-Length"))
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// URL rebuilds the request target (path plus query string)
func (r *Request) URL() string {
	path := r.Path
	if path == "" {
		path = "/"
	}
	if len(r.QueryParams) == 0 {
		return path
	}
	return path + "?" + encodeQuery(r.QueryParams)
}

// SetHeader sets a response header, allocating the map when needed
func (r *Response) SetHeader(name, value string) {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[name] = value
}
