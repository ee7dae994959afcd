// Package runtime provides the conversational runtime collaborator driven by
// the bridge. It forwards runtime requests to the configured upstream agent
// service and keeps no conversation state of its own.
package runtime

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Forwarder is an http.Handler that proxies requests under a path prefix to
// the upstream service, with the prefix removed.
type Forwarder struct {
	target *url.URL
	prefix string
	proxy  *httputil.ReverseProxy
}

// Option configures a Forwarder
type Option func(*Forwarder)

// WithTransport replaces the upstream round tripper
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Forwarder) {
		f.proxy.Transport = rt
	}
}

// NewForwarder creates a forwarder for target. Requests whose path starts with
// prefix are sent to target's path joined with the remainder.
func NewForwarder(target *url.URL, prefix string, opts ...Option) *Forwarder {
	f := &Forwarder{
		target: target,
		prefix: strings.TrimSuffix(prefix, "/"),
	}

	f.proxy = &httputil.ReverseProxy{
		Rewrite:      f.rewrite,
		ErrorHandler: f.handleError,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          20,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 60 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Target returns the upstream base URL
func (f *Forwarder) Target() *url.URL {
	return f.target
}

// ServeHTTP forwards the request upstream
func (f *Forwarder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}

	if r.Body != nil && r.Body != http.NoBody && isJSON(r.Header.Get("Content-Type")) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "Unable to read request body")
			return
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))
		r.ContentLength = int64(len(body))

		if op := gjson.GetBytes(body, "operationName"); op.Exists() {
			fields["operation"] = op.String()
		}
	}

	logrus.WithFields(fields).Debug("Forwarding runtime request upstream")
	f.proxy.ServeHTTP(w, r)
}

func (f *Forwarder) rewrite(pr *httputil.ProxyRequest) {
	rest := strings.TrimPrefix(pr.In.URL.Path, f.prefix)
	pr.Out.URL.Path = rest
	pr.Out.URL.RawPath = ""

	pr.SetURL(f.target)
	if rest == "" || rest == "/" {
		pr.Out.URL.Path = f.target.Path
		if pr.Out.URL.Path == "" {
			pr.Out.URL.Path = "/"
		}
	}
	pr.SetXForwarded()

	// Let the transport negotiate gzip itself so it also decodes the reply;
	// the host expects a plain body.
	pr.Out.Header.Del("Accept-Encoding")
	// The body is already buffered; no interim 100 Continue is wanted.
	pr.Out.Header.Del("Expect")
}

func (f *Forwarder) handleError(w http.ResponseWriter, r *http.Request, err error) {
	logrus.WithFields(logrus.Fields{
		"method":   r.Method,
		"path":     r.URL.Path,
		"upstream": f.target.Host,
		"error":    err.Error(),
	}).Error("Upstream request failed")

	writeJSONError(w, http.StatusBadGateway, "Upstream service unavailable")
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}
