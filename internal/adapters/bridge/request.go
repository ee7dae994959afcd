package bridge

import (
	"context"
	"io"
	"net/http"
	"strings"
)

// Request is the stream view of an inbound serverless request handed to a
// Handler. The body is fully buffered up front and is delivered as a single
// chunk followed by io.EOF; it can be consumed exactly once.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string

	ctx    context.Context
	body   []byte
	read   bool
	closed bool
}

var _ io.ReadCloser = (*Request)(nil)

// NewRequest builds a stream request. Header keys are kept as given and can
// be looked up case-insensitively with Header.
func NewRequest(ctx context.Context, method, url string, headers map[string]string, body []byte) *Request {
	if ctx == nil {
		ctx = context.Background()
	}
	flat := make(map[string]string, len(headers))
	for k, v := range headers {
		flat[k] = v
	}
	return &Request{
		Method:  strings.ToUpper(method),
		URL:     url,
		Headers: flat,
		ctx:     ctx,
		body:    body,
	}
}

// Context returns the invocation context
func (r *Request) Context() context.Context {
	return r.ctx
}

// Header returns a header value, matched case-insensitively
func (r *Request) Header(name string) string {
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

// Read delivers the buffered body in one chunk when p is large enough, then
// io.EOF. A short p receives successive slices of the same chunk.
func (r *Request) Read(p []byte) (int, error) {
	if r.closed {
		return 0, io.ErrClosedPipe
	}
	if len(r.body) == 0 {
		r.read = true
		return 0, io.EOF
	}
	n := copy(p, r.body)
	r.body = r.body[n:]
	if len(r.body) == 0 {
		r.read = true
	}
	return n, nil
}

// Close marks the stream as consumed
func (r *Request) Close() error {
	r.closed = true
	r.body = nil
	return nil
}

// Consumed reports whether the end of the body has been reached
func (r *Request) Consumed() bool {
	return r.read || r.closed
}

// HTTPRequest exposes the stream request as a net/http request whose Body is
// this stream. It is used to drive http.Handler collaborators.
func (r *Request) HTTPRequest() (*http.Request, error) {
	size := int64(len(r.body))
	hr, err := http.NewRequestWithContext(r.ctx, r.Method, r.URL, r)
	if err != nil {
		return nil, err
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, "Host") {
			continue
		}
		hr.Header.Set(k, v)
	}
	if host := r.Header("Host"); host != "" {
		hr.Host = host
	}
	hr.ContentLength = size
	if size == 0 {
		hr.Body = http.NoBody
	}
	hr.RequestURI = r.URL
	return hr, nil
}
