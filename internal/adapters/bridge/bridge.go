// Package bridge adapts a buffered serverless request/response pair to a
// handler written against a long-lived connection model. The handler receives
// a stream Request and a Sink it mutates over several calls; the bridge waits
// for the Sink to be ended and returns what it captured.
package bridge

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds an invocation when no timeout is configured
const DefaultTimeout = 30 * time.Second

// Handler is the external request-handling collaborator. It produces output
// only through the sink and signals completion with Sink.End; any return value
// is ignored, and it may finish asynchronously.
type Handler interface {
	Handle(req *Request, sink Sink)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(req *Request, sink Sink)

// Handle calls f(req, sink)
func (f HandlerFunc) Handle(req *Request, sink Sink) {
	f(req, sink)
}

// FromHTTP adapts a net/http handler. Returning from ServeHTTP counts as the
// completion signal; a panic is left to the bridge to report.
func FromHTTP(h http.Handler) Handler {
	return HandlerFunc(func(req *Request, sink Sink) {
		hr, err := req.HTTPRequest()
		if err != nil {
			sink.WriteHead(http.StatusBadRequest, map[string]string{"Content-Type": "application/json"})
			sink.End([]byte(`{"error":"Malformed request URL"}`))
			return
		}

		var rw http.ResponseWriter
		if w, ok := sink.(http.ResponseWriter); ok {
			rw = w
		} else {
			rw = newSinkWriter(sink)
		}

		h.ServeHTTP(rw, hr)
		sink.End()
	})
}

// Bridge runs a Handler against a fresh sink and waits for completion
type Bridge struct {
	timeout time.Duration
}

// New creates a Bridge. A non-positive timeout falls back to DefaultTimeout.
func New(timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Bridge{timeout: timeout}
}

// Timeout returns the configured invocation bound
func (b *Bridge) Timeout() time.Duration {
	return b.timeout
}

// Invoke runs h in its own goroutine and returns the captured response once
// the sink is ended. Whichever happens first among completion, handler panic,
// timeout and ctx cancellation decides the outcome. On failure the handler is
// abandoned, not cancelled; anything it writes afterwards is never read.
func (b *Bridge) Invoke(ctx context.Context, req *Request, h Handler) (*Captured, error) {
	if h == nil {
		return nil, NewBridgeError("invoke", req, ErrNilHandler)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	sink := NewResponseSink()
	panicked := make(chan interface{}, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				panicked <- rec
			}
		}()
		h.Handle(req, sink)
	}()

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	fields := logrus.Fields{
		"method": req.Method,
		"url":    req.URL,
	}

	select {
	case <-sink.Done():
		captured := sink.Snapshot()
		logrus.WithFields(fields).WithFields(logrus.Fields{
			"status_code": captured.StatusCode,
			"body_bytes":  len(captured.Body),
			"latency_ms":  time.Since(start).Milliseconds(),
		}).Debug("Bridged handler completed")
		return captured, nil

	case rec := <-panicked:
		// A handler may end the response and then panic during cleanup.
		if sink.Ended() {
			return sink.Snapshot(), nil
		}
		return nil, NewBridgeError("invoke", req, fmt.Errorf("%w: %v", ErrHandlerPanic, rec))

	case <-timer.C:
		logrus.WithFields(fields).WithField("timeout_ms", b.timeout.Milliseconds()).
			Warn("Bridged handler did not complete in time")
		return nil, NewBridgeError("invoke", req, fmt.Errorf("%w (%s)", ErrTimeout, b.timeout))

	case <-ctx.Done():
		return nil, NewBridgeError("invoke", req, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err()))
	}
}
